package address

import (
	"fmt"

	"github.com/stellar/go/xdr"
)

// ToScAddress converts an on-chain address to its contract-value form.
func ToScAddress(a Address) (xdr.ScAddress, error) {
	switch v := a.(type) {
	case Account:
		id := accountID(v.PublicKey)
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &id}, nil
	case Muxed:
		return xdr.ScAddress{
			Type: xdr.ScAddressTypeScAddressTypeMuxedAccount,
			MuxedAccount: &xdr.MuxedEd25519Account{
				Id:      xdr.Uint64(v.ID),
				Ed25519: xdr.Uint256(v.Base.PublicKey),
			},
		}, nil
	case Contract:
		id := xdr.ContractId(v.ID)
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &id}, nil
	default:
		input := ""
		if a != nil {
			input = a.String()
		}
		return xdr.ScAddress{}, &CodecError{Op: "encode sc address", Input: input, Cause: ErrUnsupported}
	}
}

// FromScAddress is the inverse of ToScAddress. Claimable balance and liquidity
// pool addresses have no variant here and are rejected.
func FromScAddress(sc xdr.ScAddress) (Address, error) {
	switch sc.Type {
	case xdr.ScAddressTypeScAddressTypeAccount:
		if sc.AccountId != nil && sc.AccountId.Ed25519 != nil {
			return Account{PublicKey: *sc.AccountId.Ed25519}, nil
		}
	case xdr.ScAddressTypeScAddressTypeMuxedAccount:
		if m := sc.MuxedAccount; m != nil {
			return Muxed{Base: Account{PublicKey: m.Ed25519}, ID: uint64(m.Id)}, nil
		}
	case xdr.ScAddressTypeScAddressTypeContract:
		if sc.ContractId != nil {
			return Contract{ID: *sc.ContractId}, nil
		}
	}
	return nil, &CodecError{
		Op:    "decode sc address",
		Input: fmt.Sprintf("type %d", sc.Type),
		Cause: ErrUnsupported,
	}
}

// ToMuxedAccount converts an account or muxed address to the form used by
// transaction sources and payment destinations.
func ToMuxedAccount(a Address) (xdr.MuxedAccount, error) {
	switch v := a.(type) {
	case Account:
		key := xdr.Uint256(v.PublicKey)
		return xdr.MuxedAccount{Type: xdr.CryptoKeyTypeKeyTypeEd25519, Ed25519: &key}, nil
	case Muxed:
		return xdr.MuxedAccount{
			Type: xdr.CryptoKeyTypeKeyTypeMuxedEd25519,
			Med25519: &xdr.MuxedAccountMed25519{
				Id:      xdr.Uint64(v.ID),
				Ed25519: xdr.Uint256(v.Base.PublicKey),
			},
		}, nil
	default:
		input := ""
		if a != nil {
			input = a.String()
		}
		return xdr.MuxedAccount{}, &CodecError{Op: "encode muxed account", Input: input, Cause: ErrNotAccount}
	}
}

// FromMuxedAccount renders a transaction-level account as a G or M address.
// An arm the network does not define yields Invalid.
func FromMuxedAccount(m xdr.MuxedAccount) Address {
	switch {
	case m.Type == xdr.CryptoKeyTypeKeyTypeEd25519 && m.Ed25519 != nil:
		return Account{PublicKey: *m.Ed25519}
	case m.Type == xdr.CryptoKeyTypeKeyTypeMuxedEd25519 && m.Med25519 != nil:
		return Muxed{Base: Account{PublicKey: m.Med25519.Ed25519}, ID: uint64(m.Med25519.Id)}
	default:
		return Invalid{Input: fmt.Sprintf("muxed account type %d", m.Type)}
	}
}

// FromAccountID renders a ledger account id as a G address.
func FromAccountID(id xdr.AccountId) Address {
	if id.Ed25519 == nil {
		return Invalid{Input: fmt.Sprintf("account id type %d", id.Type)}
	}
	return Account{PublicKey: *id.Ed25519}
}

// AccountID parses a plain G-address into its key.
func AccountID(s string) ([32]byte, error) {
	a, ok := Classify(s).(Account)
	if !ok {
		return [32]byte{}, &CodecError{Op: "parse account id", Input: s, Cause: ErrNotAccount}
	}
	return a.PublicKey, nil
}

func accountID(key [32]byte) xdr.AccountId {
	k := xdr.Uint256(key)
	return xdr.AccountId{Type: xdr.PublicKeyTypePublicKeyTypeEd25519, Ed25519: &k}
}
