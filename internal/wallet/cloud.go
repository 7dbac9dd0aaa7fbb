package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"popballoons/internal/domain"
)

// AutoLogin describes a session the hosted wallet already holds for the client.
type AutoLogin struct {
	Available     bool   `json:"available"`
	Account       string `json:"account"`
	Authenticated bool   `json:"authenticated"`
}

// CloudAPI is the WAX Cloud Wallet surface the gateway relies on.
type CloudAPI interface {
	IsAutoLoginAvailable(ctx context.Context) (AutoLogin, error)
	Login(ctx context.Context) (string, error)
	Transact(ctx context.Context, account string, tx domain.Transaction, opts domain.TransactOptions) (*domain.TransactResult, error)
	Logout(ctx context.Context, account string) error
}

// CloudClient talks to the hosted WAX Cloud Wallet service over HTTP.
type CloudClient struct {
	client      httpClient
	rpcEndpoint string
}

func NewCloudClient(baseURL, rpcEndpoint string, client *http.Client) *CloudClient {
	return &CloudClient{
		client:      newHTTPClient(baseURL, client),
		rpcEndpoint: rpcEndpoint,
	}
}

func (c *CloudClient) IsAutoLoginAvailable(ctx context.Context) (AutoLogin, error) {
	var out AutoLogin
	path := "/session/autologin?rpc=" + url.QueryEscape(c.rpcEndpoint)
	if err := c.client.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return AutoLogin{}, fmt.Errorf("auto login: %w", err)
	}
	return out, nil
}

func (c *CloudClient) Login(ctx context.Context) (string, error) {
	var out struct {
		Account string `json:"account"`
	}
	body := map[string]string{"rpc_endpoint": c.rpcEndpoint}
	if err := c.client.do(ctx, http.MethodPost, "/session/login", body, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if strings.TrimSpace(out.Account) == "" {
		return "", errors.New("login: wallet returned no account")
	}
	return out.Account, nil
}

func (c *CloudClient) Transact(ctx context.Context, account string, tx domain.Transaction, opts domain.TransactOptions) (*domain.TransactResult, error) {
	var out transactResponse
	req := transactRequest{Account: account, Transaction: tx, Options: opts}
	if err := c.client.do(ctx, http.MethodPost, "/transact", req, &out); err != nil {
		return nil, fmt.Errorf("transact: %w", err)
	}
	return out.result(), nil
}

func (c *CloudClient) Logout(ctx context.Context, account string) error {
	body := map[string]string{"account": account}
	if err := c.client.do(ctx, http.MethodPost, "/session/logout", body, nil); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

var _ CloudAPI = (*CloudClient)(nil)

// CloudWallet is the Backend for WAX Cloud Wallet logins.
type CloudWallet struct {
	api CloudAPI

	mu      sync.Mutex
	account string
}

func NewCloudWallet(api CloudAPI) *CloudWallet {
	return &CloudWallet{api: api}
}

func (w *CloudWallet) Method() domain.AuthMethod { return domain.AuthMethodCloud }

// Login reuses an auto login when the wallet offers one.
func (w *CloudWallet) Login(ctx context.Context) (string, error) {
	if w.api == nil {
		return "", domain.ErrWalletUnavailable
	}

	auto, err := w.api.IsAutoLoginAvailable(ctx)
	if err != nil {
		return "", err
	}

	var account string
	if auto.Available {
		if !auto.Authenticated || auto.Account == "" {
			return "", errors.New("auto login session is not authenticated")
		}
		account = auto.Account
	} else {
		account, err = w.api.Login(ctx)
		if err != nil {
			return "", err
		}
	}

	w.mu.Lock()
	w.account = account
	w.mu.Unlock()
	return account, nil
}

func (w *CloudWallet) Transact(ctx context.Context, tx domain.Transaction, opts domain.TransactOptions) (*domain.TransactResult, error) {
	w.mu.Lock()
	account := w.account
	w.mu.Unlock()
	if account == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return w.api.Transact(ctx, account, tx, opts)
}

func (w *CloudWallet) Logout(ctx context.Context) error {
	w.mu.Lock()
	account := w.account
	w.account = ""
	w.mu.Unlock()
	if account == "" || w.api == nil {
		return nil
	}
	return w.api.Logout(ctx, account)
}

var _ Backend = (*CloudWallet)(nil)
