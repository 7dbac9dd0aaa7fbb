package wallet

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"popballoons/internal/domain"
)

// LinkAPI opens Anchor link sessions for an application identifier.
type LinkAPI interface {
	Login(ctx context.Context, identifier string) (LinkSession, error)
}

// LinkSession is one signed-in Anchor identity.
type LinkSession interface {
	Actor() string
	Permission() string
	Transact(ctx context.Context, tx domain.Transaction, opts domain.TransactOptions) (*domain.TransactResult, error)
	Remove(ctx context.Context) error
}

// LinkClient reaches an Anchor link transport over HTTP, bound to one chain.
type LinkClient struct {
	client      httpClient
	chainID     string
	rpcEndpoint string
}

func NewLinkClient(baseURL string, network Network, rpcEndpoint string, client *http.Client) *LinkClient {
	return &LinkClient{
		client:      newHTTPClient(baseURL, client),
		chainID:     network.ChainID(),
		rpcEndpoint: rpcEndpoint,
	}
}

type linkLoginRequest struct {
	ChainID     string `json:"chain_id"`
	RPCEndpoint string `json:"rpc"`
	Identifier  string `json:"identifier"`
}

type linkLoginResponse struct {
	SessionID string `json:"session_id"`
	Auth      struct {
		Actor      string `json:"actor"`
		Permission string `json:"permission"`
	} `json:"auth"`
}

func (c *LinkClient) Login(ctx context.Context, identifier string) (LinkSession, error) {
	var out linkLoginResponse
	req := linkLoginRequest{ChainID: c.chainID, RPCEndpoint: c.rpcEndpoint, Identifier: identifier}
	if err := c.client.do(ctx, http.MethodPost, "/link/login", req, &out); err != nil {
		return nil, fmt.Errorf("link login: %w", err)
	}
	if out.SessionID == "" || out.Auth.Actor == "" {
		return nil, errors.New("link login: identity proof missing session")
	}
	permission := out.Auth.Permission
	if permission == "" {
		permission = "active"
	}
	return &linkSession{
		client:     c.client,
		id:         out.SessionID,
		actor:      out.Auth.Actor,
		permission: permission,
	}, nil
}

var _ LinkAPI = (*LinkClient)(nil)

type linkSession struct {
	client     httpClient
	id         string
	actor      string
	permission string
}

func (s *linkSession) Actor() string      { return s.actor }
func (s *linkSession) Permission() string { return s.permission }

func (s *linkSession) Transact(ctx context.Context, tx domain.Transaction, opts domain.TransactOptions) (*domain.TransactResult, error) {
	var out transactResponse
	path := "/link/sessions/" + url.PathEscape(s.id) + "/transact"
	if err := s.client.do(ctx, http.MethodPost, path, transactRequest{Transaction: tx, Options: opts}, &out); err != nil {
		return nil, fmt.Errorf("link transact: %w", err)
	}
	return out.result(), nil
}

func (s *linkSession) Remove(ctx context.Context) error {
	path := "/link/sessions/" + url.PathEscape(s.id)
	if err := s.client.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("link remove: %w", err)
	}
	return nil
}

// AnchorWallet is the Backend for Anchor logins. A nil link means no
// Anchor transport is available.
type AnchorWallet struct {
	link       LinkAPI
	identifier string

	mu      sync.Mutex
	session LinkSession
}

func NewAnchorWallet(link LinkAPI, identifier string) *AnchorWallet {
	return &AnchorWallet{link: link, identifier: identifier}
}

func (w *AnchorWallet) Method() domain.AuthMethod { return domain.AuthMethodAnchor }

func (w *AnchorWallet) Available() bool { return w.link != nil }

func (w *AnchorWallet) Login(ctx context.Context) (string, error) {
	if !w.Available() {
		return "", fmt.Errorf("%w: install Anchor from https://greymass.com/en/anchor/", domain.ErrWalletUnavailable)
	}

	session, err := w.link.Login(ctx, w.identifier)
	if err != nil {
		return "", err
	}

	w.mu.Lock()
	w.session = session
	w.mu.Unlock()
	return session.Actor(), nil
}

func (w *AnchorWallet) Transact(ctx context.Context, tx domain.Transaction, opts domain.TransactOptions) (*domain.TransactResult, error) {
	w.mu.Lock()
	session := w.session
	w.mu.Unlock()
	if session == nil {
		return nil, domain.ErrNotAuthenticated
	}
	return session.Transact(ctx, tx, opts)
}

func (w *AnchorWallet) Logout(ctx context.Context) error {
	w.mu.Lock()
	session := w.session
	w.session = nil
	w.mu.Unlock()
	if session == nil {
		return nil
	}
	return session.Remove(ctx)
}

var _ Backend = (*AnchorWallet)(nil)
