package txbuild

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/stellar/go/txnbuild"

	"github.com/vultisig/stellar-txcore/internal/address"
	"github.com/vultisig/stellar-txcore/internal/util"
)

// MaxMemoTextLen is the byte limit of a text memo.
const MaxMemoTextLen = 28

var assetCodePattern = regexp.MustCompile(`^[a-zA-Z0-9]{1,12}$`)

type AssetKind int

const (
	AssetNative AssetKind = iota
	AssetCredit
	AssetContractToken
	AssetCollectible
)

func (k AssetKind) String() string {
	switch k {
	case AssetNative:
		return "native"
	case AssetCredit:
		return "credit"
	case AssetContractToken:
		return "contract_token"
	case AssetCollectible:
		return "collectible"
	default:
		return fmt.Sprintf("asset_kind(%d)", int(k))
	}
}

// Asset identifies what an intent moves. Code and Issuer are set for credit
// assets, ContractID for contract tokens and collectibles.
type Asset struct {
	Kind       AssetKind
	Code       string
	Issuer     string
	ContractID string
	Decimals   int
	TokenID    uint32
}

func NativeAsset() Asset {
	return Asset{Kind: AssetNative, Decimals: util.NativeDecimals}
}

func CreditAsset(code, issuer string) Asset {
	return Asset{Kind: AssetCredit, Code: code, Issuer: issuer, Decimals: util.NativeDecimals}
}

// ContractToken is a token only reachable through its contract, such as a
// custom token added by contract id.
func ContractToken(contractID string, decimals int) Asset {
	return Asset{Kind: AssetContractToken, ContractID: contractID, Decimals: decimals}
}

func Collectible(contractID string, tokenID uint32) Asset {
	return Asset{Kind: AssetCollectible, ContractID: contractID, TokenID: tokenID}
}

// Intent is one request to move value. Amounts and fee are decimal strings in
// whole units; Fee is always in lumens. Amount and SpendableBalance are
// ignored for collectibles.
type Intent struct {
	Source           string
	Destination      string
	Amount           string
	Asset            Asset
	Memo             string
	Fee              string
	Timeout          time.Duration
	SpendableBalance string
}

// validated carries what Validate derived from the intent.
type validated struct {
	source      address.Address
	destination address.Address
	units       *big.Int
	feeStroops  uint32
	timeout     uint64
}

// Validate runs the input checks in order and returns the first failure.
func (in Intent) Validate() error {
	_, err := in.validate()
	return err
}

func (in Intent) validate() (validated, error) {
	var v validated

	v.source = address.Classify(in.Source)
	if k := v.source.Kind(); k != address.KindAccount && k != address.KindMuxed {
		return v, newError(CheckSource, "source must be an account address", nil)
	}

	if err := in.Asset.validate(); err != nil {
		return v, err
	}

	collectible := in.Asset.Kind == AssetCollectible
	if !collectible {
		units, err := util.ToBaseUnits(in.Amount, in.Asset.Decimals)
		if err != nil {
			return v, newError(CheckAmount, "invalid amount", err)
		}
		if units.Sign() <= 0 {
			return v, newError(CheckAmount, "amount", ErrNotPositive)
		}
		if in.Asset.Kind != AssetContractToken && !units.IsInt64() {
			return v, newError(CheckAmount, "amount exceeds the largest payment", nil)
		}
		v.units = units
	}

	fee, err := util.ToBaseUnits(in.Fee, util.NativeDecimals)
	if err != nil {
		return v, newError(CheckFee, "invalid fee", err)
	}
	if fee.Sign() <= 0 {
		return v, newError(CheckFee, "fee", ErrNotPositive)
	}
	if !fee.IsUint64() || fee.Uint64() > math.MaxUint32 {
		return v, newError(CheckFee, fmt.Sprintf("fee exceeds %d stroops", uint32(math.MaxUint32)), nil)
	}
	v.feeStroops = uint32(fee.Uint64())

	if in.Timeout <= 0 {
		return v, newError(CheckTimeout, "timeout", ErrNotPositive)
	}
	v.timeout = uint64((in.Timeout + time.Second - 1) / time.Second)

	v.destination = address.Classify(in.Destination)
	switch v.destination.Kind() {
	case address.KindAccount, address.KindMuxed, address.KindContract:
	case address.KindFederation:
		return v, newError(CheckUnresolvedFederation, "federation address must be resolved before building", nil)
	default:
		return v, newError(CheckDestination, "destination is not a valid address", nil)
	}

	if address.IsSameAccount(in.Source, in.Destination) {
		return v, newError(CheckSelfSend, "cannot send to the source account", nil)
	}

	if !collectible {
		c, err := util.CompareDecimal(in.Amount, in.SpendableBalance, in.Asset.Decimals)
		if err != nil {
			return v, newError(CheckBalance, "invalid spendable balance", err)
		}
		if c > 0 {
			return v, newError(CheckBalance, "insufficient balance", nil)
		}
	}

	if len(in.Memo) > MaxMemoTextLen || !utf8.ValidString(in.Memo) {
		return v, newError(CheckMemo, fmt.Sprintf("memo must be valid UTF-8 of at most %d bytes", MaxMemoTextLen), nil)
	}
	return v, nil
}

func (a Asset) validate() error {
	switch a.Kind {
	case AssetNative:
	case AssetCredit:
		if _, err := address.AccountID(a.Issuer); err != nil {
			return newError(CheckAsset, "asset issuer is not an account", err)
		}
		if !assetCodePattern.MatchString(a.Code) {
			return newError(CheckAsset, fmt.Sprintf("asset code %q must be 1-12 letters or digits", a.Code), nil)
		}
	case AssetContractToken, AssetCollectible:
		if address.Classify(a.ContractID).Kind() != address.KindContract {
			return newError(CheckAsset, "asset contract is not a contract address", nil)
		}
	default:
		return newError(CheckAsset, fmt.Sprintf("unsupported asset %s", a.Kind), nil)
	}
	return nil
}

// classic returns the asset in the form classic operations take.
func (a Asset) classic() txnbuild.Asset {
	if a.Kind == AssetNative {
		return txnbuild.NativeAsset{}
	}
	return txnbuild.CreditAsset{Code: a.Code, Issuer: a.Issuer}
}

// usesContract reports whether the intent must go through a contract
// transfer rather than a classic operation.
func (in Intent) usesContract() bool {
	switch in.Asset.Kind {
	case AssetContractToken, AssetCollectible:
		return true
	}
	return address.Classify(in.Destination).Kind() == address.KindContract
}
