package address

import (
	"encoding/binary"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go/strkey"
)

// Kind names the variant an address string classified to.
type Kind int

const (
	KindInvalid Kind = iota
	KindAccount
	KindMuxed
	KindContract
	KindFederation
)

func (k Kind) String() string {
	switch k {
	case KindAccount:
		return "account"
	case KindMuxed:
		return "muxed"
	case KindContract:
		return "contract"
	case KindFederation:
		return "federation"
	default:
		return "invalid"
	}
}

// Address is a classified address. The concrete type is one of Account,
// Muxed, Contract, Federation or Invalid.
type Address interface {
	Kind() Kind
	String() string
	sealed()
}

// Account is a plain ed25519 account (G...).
type Account struct {
	PublicKey [32]byte
}

// Muxed is a sub-identity of a base account (M...). It has no ledger entry of
// its own.
type Muxed struct {
	Base Account
	ID   uint64
}

// Contract is a smart contract (C...).
type Contract struct {
	ID [32]byte
}

// Federation is a name*domain lookup address. It is never resolved here.
type Federation struct {
	LocalPart string
	Domain    string
}

// Invalid carries the input that matched no variant.
type Invalid struct {
	Input string
}

func (Account) Kind() Kind    { return KindAccount }
func (Muxed) Kind() Kind      { return KindMuxed }
func (Contract) Kind() Kind   { return KindContract }
func (Federation) Kind() Kind { return KindFederation }
func (Invalid) Kind() Kind    { return KindInvalid }

func (Account) sealed()    {}
func (Muxed) sealed()      {}
func (Contract) sealed()   {}
func (Federation) sealed() {}
func (Invalid) sealed()    {}

func (a Account) String() string {
	return strkey.MustEncode(strkey.VersionByteAccountID, a.PublicKey[:])
}

// String encodes the SEP-23 payload directly: strkey.MuxedAccount refuses an
// all-zero key, which is still a well-formed address.
func (m Muxed) String() string {
	payload := make([]byte, 40)
	copy(payload, m.Base.PublicKey[:])
	binary.BigEndian.PutUint64(payload[32:], m.ID)
	return strkey.MustEncode(strkey.VersionByteMuxedAccount, payload)
}

func (c Contract) String() string {
	return strkey.MustEncode(strkey.VersionByteContract, c.ID[:])
}

func (f Federation) String() string {
	return f.LocalPart + "*" + f.Domain
}

func (i Invalid) String() string {
	return i.Input
}

var log logrus.FieldLogger = logrus.StandardLogger()

// SetLogger replaces the logger used for classification diagnostics.
func SetLogger(l logrus.FieldLogger) {
	if l != nil {
		log = l
	}
}

// Classify maps s to exactly one variant, checking plain, muxed, contract and
// federation in that order. It never fails; unmatched input yields Invalid.
func Classify(s string) Address {
	if a, ok := classifyStrkey(s); ok {
		return a
	}
	if f, ok := parseFederation(s); ok {
		return f
	}

	log.WithFields(logrus.Fields{
		"input": Truncate(s, 6, 6),
		"len":   len(s),
	}).Debug("address: input matched no address variant")
	return Invalid{Input: s}
}

func classifyStrkey(s string) (Address, bool) {
	if s == "" {
		return nil, false
	}

	switch s[0] {
	case 'G':
		raw, err := strkey.Decode(strkey.VersionByteAccountID, s)
		if err != nil || len(raw) != 32 {
			return nil, false
		}
		var a Account
		copy(a.PublicKey[:], raw)
		return a, true
	case 'M':
		m, err := strkey.DecodeMuxedAccount(s)
		if err != nil {
			return nil, false
		}
		return Muxed{Base: Account{PublicKey: m.Ed25519()}, ID: m.ID()}, true
	case 'C':
		raw, err := strkey.Decode(strkey.VersionByteContract, s)
		if err != nil || len(raw) != 32 {
			return nil, false
		}
		var c Contract
		copy(c.ID[:], raw)
		return c, true
	default:
		return nil, false
	}
}

// Parse is Classify for callers that need an error for invalid input.
func Parse(s string) (Address, error) {
	a := Classify(s)
	if a.Kind() == KindInvalid {
		return nil, &CodecError{Op: "parse", Input: s, Cause: ErrUnrecognized}
	}
	return a, nil
}

// IsValid reports whether s is an on-chain address: account, muxed or
// contract. Federation names need resolving first and are not valid here.
func IsValid(s string) bool {
	switch Classify(s).Kind() {
	case KindAccount, KindMuxed, KindContract:
		return true
	default:
		return false
	}
}

// IsFederation reports whether s is syntactically a federation address.
func IsFederation(s string) bool {
	_, ok := parseFederation(s)
	return ok
}

func parseFederation(s string) (Federation, bool) {
	if strings.Count(s, "*") != 1 || strings.ContainsAny(s, " \t\r\n") {
		return Federation{}, false
	}
	local, domain, _ := strings.Cut(s, "*")
	if local == "" || !strings.Contains(domain, ".") {
		return Federation{}, false
	}
	if strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return Federation{}, false
	}
	return Federation{LocalPart: local, Domain: domain}, true
}

// IsSameAccount reports whether a and b denote the same underlying signer.
// Muxed addresses compare by their base account. Contracts only match the
// identical contract, and federation names never match.
func IsSameAccount(a, b string) bool {
	x, y := Classify(a), Classify(b)

	xKey, xOK := signerKey(x)
	yKey, yOK := signerKey(y)
	if xOK && yOK {
		return xKey == yKey
	}

	xc, xIsContract := x.(Contract)
	yc, yIsContract := y.(Contract)
	if xIsContract && yIsContract {
		return xc.ID == yc.ID
	}
	return false
}

func signerKey(a Address) ([32]byte, bool) {
	switch v := a.(type) {
	case Account:
		return v.PublicKey, true
	case Muxed:
		return v.Base.PublicKey, true
	default:
		return [32]byte{}, false
	}
}

// Truncate shortens addr to prefix...suffix for display. Short input and
// federation names are returned unchanged. Lengths count runes, so a cut
// never splits a multi-byte character.
func Truncate(addr string, prefix, suffix int) string {
	if prefix < 0 {
		prefix = 0
	}
	if suffix < 0 {
		suffix = 0
	}
	runes := []rune(addr)
	if len(runes) <= prefix+suffix+len("...") || IsFederation(addr) {
		return addr
	}
	return string(runes[:prefix]) + "..." + string(runes[len(runes)-suffix:])
}
