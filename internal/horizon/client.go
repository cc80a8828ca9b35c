package horizon

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/stellar/go/clients/horizonclient"
	hProtocol "github.com/stellar/go/protocols/horizon"

	"github.com/vultisig/stellar-txcore/internal/memo"
	"github.com/vultisig/stellar-txcore/internal/txbuild"
)

// AccountSource is the part of horizonclient.ClientInterface the client
// reads accounts through.
type AccountSource interface {
	AccountDetail(request horizonclient.AccountRequest) (hProtocol.Account, error)
}

type Client struct {
	source AccountSource
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return NewClientWith(&horizonclient.Client{HorizonURL: baseURL, HTTP: httpClient})
}

func NewClientWith(source AccountSource) *Client {
	return &Client{source: source}
}

// account loads accountID. found is false when horizon has no such account.
func (c *Client) account(ctx context.Context, accountID string) (acc hProtocol.Account, found bool, err error) {
	if err := ctx.Err(); err != nil {
		return acc, false, err
	}
	acc, err = c.source.AccountDetail(horizonclient.AccountRequest{AccountID: accountID})
	if horizonclient.IsNotFoundError(err) {
		return acc, false, nil
	}
	if err != nil {
		return acc, false, err
	}
	return acc, true, nil
}

// LoadAccount implements txbuild.AccountLoader. An unfunded account is
// reported as not existing rather than as an error.
func (c *Client) LoadAccount(ctx context.Context, accountID string) (txbuild.Account, error) {
	acc, found, err := c.account(ctx, accountID)
	if err != nil {
		return txbuild.Account{}, fmt.Errorf("failed to load account: %w", err)
	}
	if !found {
		return txbuild.Account{ID: accountID}, nil
	}
	return txbuild.Account{ID: acc.ID, Sequence: acc.Sequence, Exists: true}, nil
}

// LoadAccountData implements memo.AccountDataLoader.
func (c *Client) LoadAccountData(ctx context.Context, accountID string) (memo.AccountData, error) {
	acc, found, err := c.account(ctx, accountID)
	if err != nil {
		return memo.AccountData{}, fmt.Errorf("failed to load account data: %w", err)
	}
	if !found {
		return memo.AccountData{}, nil
	}
	return memo.AccountData{Exists: true, Data: acc.Data}, nil
}

// NativeBalance returns the account's lumen balance as a decimal string.
func (c *Client) NativeBalance(ctx context.Context, accountID string) (string, error) {
	acc, found, err := c.account(ctx, accountID)
	if err != nil {
		return "", fmt.Errorf("failed to load balances: %w", err)
	}
	if !found {
		return "", fmt.Errorf("failed to load balances: account %s not found", accountID)
	}
	bal, err := acc.GetNativeBalance()
	if err != nil {
		return "0", nil
	}
	return bal, nil
}
