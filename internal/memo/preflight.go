package memo

import (
	"context"
	"errors"
	"fmt"

	"github.com/stellar/go/xdr"

	"github.com/vultisig/stellar-txcore/internal/address"
)

var ErrMemoRequired = errors.New("memo: destination requires a memo")

// RequiredError names the account and operation that demanded a memo.
type RequiredError struct {
	AccountID      string
	OperationIndex int
}

func (e *RequiredError) Error() string {
	return fmt.Sprintf("memo: account %s in operation %d requires a memo", e.AccountID, e.OperationIndex)
}

func (e *RequiredError) Is(target error) bool {
	return target == ErrMemoRequired
}

const (
	// MemoRequiredDataKey is the account data entry that marks an account
	// as memo-required (SEP-29).
	MemoRequiredDataKey = "config.memo_required"
	// memoRequiredValue is base64 of "1".
	memoRequiredValue = "MQ=="
)

// AccountData is the data entries of an account, values base64 encoded as
// the network returns them.
type AccountData struct {
	Exists bool
	Data   map[string]string
}

type AccountDataLoader interface {
	LoadAccountData(ctx context.Context, accountID string) (AccountData, error)
}

// AccountDataPreflight checks the account data of each account an operation
// pays for the memo-required flag. It fails with ErrMemoRequired when one is set and
// with the loader's error when an account cannot be read.
type AccountDataPreflight struct {
	loader AccountDataLoader
}

func NewAccountDataPreflight(loader AccountDataLoader) *AccountDataPreflight {
	return &AccountDataPreflight{loader: loader}
}

func (p *AccountDataPreflight) CheckMemoRequired(ctx context.Context, env xdr.TransactionEnvelope) error {
	if env.Memo().Type != xdr.MemoTypeMemoNone {
		return nil
	}

	seen := make(map[string]struct{})
	for i, op := range env.Operations() {
		dest, ok := operationDestination(op)
		// Muxed destinations identify the customer themselves, and contracts
		// carry no account data.
		if !ok || address.Classify(dest).Kind() != address.KindAccount {
			continue
		}
		if _, ok := seen[dest]; ok {
			continue
		}
		seen[dest] = struct{}{}

		acc, err := p.loader.LoadAccountData(ctx, dest)
		if err != nil {
			return fmt.Errorf("memo: failed to load account data: %w", err)
		}
		if !acc.Exists {
			continue
		}
		if acc.Data[MemoRequiredDataKey] == memoRequiredValue {
			return &RequiredError{AccountID: dest, OperationIndex: i}
		}
	}
	return nil
}
