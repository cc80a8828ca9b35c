package address

import "strconv"

// Compose builds the muxed address for base account and id.
func Compose(base string, id uint64) (string, error) {
	a, ok := Classify(base).(Account)
	if !ok {
		return "", &CodecError{Op: "compose", Input: base, Cause: ErrNotAccount}
	}
	return Muxed{Base: a, ID: id}.String(), nil
}

// Decompose splits a muxed address into its base account and id.
func Decompose(muxed string) (string, uint64, error) {
	m, ok := Classify(muxed).(Muxed)
	if !ok {
		return "", 0, &CodecError{Op: "decompose", Input: muxed, Cause: ErrNotMuxed}
	}
	return m.Base.String(), m.ID, nil
}

// BaseAccount returns the G-address behind a muxed address. Any other input is
// returned unchanged.
func BaseAccount(s string) string {
	if m, ok := Classify(s).(Muxed); ok {
		return m.Base.String()
	}
	return s
}

// ParseMuxedID reads a memo as a muxed id.
func ParseMuxedID(memo string) (uint64, error) {
	id, err := strconv.ParseUint(memo, 10, 64)
	if err != nil {
		return 0, &CodecError{Op: "parse muxed id", Input: memo, Cause: ErrInvalidID}
	}
	return id, nil
}

// ContractDestination is the recipient a contract transfer will name.
type ContractDestination struct {
	Address string
	// MemoFolded is set when the memo became the muxed id of Address and
	// must not also travel as a transaction memo.
	MemoFolded bool
}

// ResolveContractDestination picks the recipient of a contract transfer given
// whether the contract accepts muxed addresses.
//
// With muxed support a numeric memo is folded into the recipient, re-muxing an
// already muxed one. Without it a muxed recipient collapses to its base
// account.
func ResolveContractDestination(dest, memo string, supportsMuxed bool) (ContractDestination, error) {
	out := ContractDestination{Address: dest}
	target := Classify(dest)

	if !supportsMuxed {
		if target.Kind() != KindMuxed {
			return out, nil
		}
		base, _, err := Decompose(dest)
		if err != nil {
			return out, err
		}
		out.Address = base
		return out, nil
	}

	if memo == "" {
		return out, nil
	}

	var base string
	switch v := target.(type) {
	case Account:
		base = v.String()
	case Muxed:
		base = v.Base.String()
	default:
		return out, nil
	}

	id, err := ParseMuxedID(memo)
	if err != nil {
		log.WithField("destination", Truncate(dest, 6, 6)).
			Debug("address: memo is not numeric, keeping destination as is")
		return out, nil
	}
	muxed, err := Compose(base, id)
	if err != nil {
		return out, err
	}
	return ContractDestination{Address: muxed, MemoFolded: true}, nil
}

// MemoDisabledReason explains why a memo field cannot be used.
type MemoDisabledReason string

const (
	MemoEmbeddedInAddress MemoDisabledReason = "memo_embedded_in_address"
	MemoNotSupported      MemoDisabledReason = "memo_not_supported"
	MemoSupportUnknown    MemoDisabledReason = "memo_support_unknown"
)

type MemoState struct {
	Disabled bool
	Reason   MemoDisabledReason
}

// MemoDisabled decides whether a memo can be sent to target. contractID is
// empty for classic transfers; supportsMuxed is only consulted for contract
// transfers to account recipients.
func MemoDisabled(target, contractID string, supportsMuxed func() (bool, error)) MemoState {
	kind := Classify(target).Kind()
	if kind == KindMuxed {
		return MemoState{Disabled: true, Reason: MemoEmbeddedInAddress}
	}
	if contractID == "" {
		return MemoState{}
	}
	if kind != KindAccount {
		return MemoState{Disabled: true, Reason: MemoNotSupported}
	}
	if supportsMuxed == nil {
		return MemoState{Disabled: true, Reason: MemoSupportUnknown}
	}

	ok, err := supportsMuxed()
	if err != nil {
		log.WithError(err).WithField("contract", Truncate(contractID, 6, 6)).
			Debug("address: muxed support check failed, disabling memo")
		return MemoState{Disabled: true, Reason: MemoSupportUnknown}
	}
	if !ok {
		return MemoState{Disabled: true, Reason: MemoNotSupported}
	}
	return MemoState{}
}
