package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	qt "github.com/frankban/quicktest"

	"popballoons/internal/domain"
)

func sampleTx() domain.Transaction {
	return domain.Transaction{Actions: []domain.Action{{
		Account:       "eosio.token",
		Name:          "transfer",
		Authorization: []domain.Authorization{{Actor: "alice.wam", Permission: "active"}},
		Data:          domain.TransferData{From: "alice.wam", To: "popballoons1", Quantity: "1.00000000 WAX", Memo: "buy_pops"},
	}}}
}

func TestCloudWalletUsesAutoLogin(t *testing.T) {
	c := qt.New(t)

	var loginCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/autologin":
			_ = json.NewEncoder(w).Encode(AutoLogin{Available: true, Account: "alice.wam", Authenticated: true})
		case "/session/login":
			loginCalls++
			_ = json.NewEncoder(w).Encode(map[string]string{"account": "other.wam"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	w := NewCloudWallet(NewCloudClient(srv.URL, "https://testnet.waxsweden.org", srv.Client()))
	account, err := w.Login(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(account, qt.Equals, "alice.wam")
	c.Assert(loginCalls, qt.Equals, 0)
}

func TestCloudWalletFallsBackToInteractiveLogin(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/session/autologin":
			_ = json.NewEncoder(w).Encode(AutoLogin{})
		case "/session/login":
			_ = json.NewEncoder(w).Encode(map[string]string{"account": "bob.wam"})
		case "/transact":
			var req transactRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			if req.Account != "bob.wam" || req.Options.ExpireSeconds != 30 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"transaction_id": "abc123"})
		case "/session/logout":
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	w := NewCloudWallet(NewCloudClient(srv.URL, "", srv.Client()))
	account, err := w.Login(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(account, qt.Equals, "bob.wam")

	res, err := w.Transact(context.Background(), sampleTx(), domain.TransactOptions{BlocksBehind: 3, ExpireSeconds: 30})
	c.Assert(err, qt.IsNil)
	c.Assert(res.TransactionID, qt.Equals, "abc123")

	c.Assert(w.Logout(context.Background()), qt.IsNil)
	_, err = w.Transact(context.Background(), sampleTx(), domain.TransactOptions{})
	c.Assert(errors.Is(err, domain.ErrNotAuthenticated), qt.IsTrue)
}

func TestCloudClientSurfacesAPIErrors(t *testing.T) {
	c := qt.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(ErrorResponse{Code: "user_cancelled", Message: "user closed the window"})
	}))
	defer srv.Close()

	_, err := NewCloudClient(srv.URL, "", srv.Client()).Login(context.Background())
	var apiErr *ErrorResponse
	c.Assert(errors.As(err, &apiErr), qt.IsTrue)
	c.Assert(apiErr.StatusCode, qt.Equals, http.StatusForbidden)
	c.Assert(apiErr.Code, qt.Equals, "user_cancelled")
}

func TestAnchorWalletWithoutTransport(t *testing.T) {
	c := qt.New(t)

	w := NewAnchorWallet(nil, "popballoons")
	c.Assert(w.Available(), qt.IsFalse)
	_, err := w.Login(context.Background())
	c.Assert(errors.Is(err, domain.ErrWalletUnavailable), qt.IsTrue)
}

func TestAnchorWalletSessionLifecycle(t *testing.T) {
	c := qt.New(t)

	var gotChainID, gotIdentifier string
	var removed bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/link/login":
			var req linkLoginRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			gotChainID, gotIdentifier = req.ChainID, req.Identifier
			_, _ = w.Write([]byte(`{"session_id":"s-1","auth":{"actor":"carol.gm","permission":"active"}}`))
		case r.URL.Path == "/link/sessions/s-1/transact":
			_, _ = w.Write([]byte(`{"transaction_id":"tx-9"}`))
		case r.URL.Path == "/link/sessions/s-1" && r.Method == http.MethodDelete:
			removed = true
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	link := NewLinkClient(srv.URL, NetworkMainnet, "https://wax.greymass.com", srv.Client())
	w := NewAnchorWallet(link, "popballoons")

	account, err := w.Login(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(account, qt.Equals, "carol.gm")
	c.Assert(gotChainID, qt.Equals, mainnetChainID)
	c.Assert(gotIdentifier, qt.Equals, "popballoons")

	res, err := w.Transact(context.Background(), sampleTx(), domain.TransactOptions{BlocksBehind: 3, ExpireSeconds: 30})
	c.Assert(err, qt.IsNil)
	c.Assert(res.TransactionID, qt.Equals, "tx-9")

	c.Assert(w.Logout(context.Background()), qt.IsNil)
	c.Assert(removed, qt.IsTrue)
}

func TestRegistrySelectsExplicitly(t *testing.T) {
	c := qt.New(t)

	r := NewRegistry()
	r.Register(domain.AuthMethodAnchor, func() Backend { return NewAnchorWallet(nil, "x") })

	b, err := r.New(domain.AuthMethodAnchor)
	c.Assert(err, qt.IsNil)
	c.Assert(b.Method(), qt.Equals, domain.AuthMethodAnchor)

	_, err = r.New(domain.AuthMethodCloud)
	c.Assert(errors.Is(err, domain.ErrUnknownMethod), qt.IsTrue)
	c.Assert(r.Methods(), qt.DeepEquals, []domain.AuthMethod{domain.AuthMethodAnchor})
}

func TestParseNetwork(t *testing.T) {
	c := qt.New(t)

	n, err := ParseNetwork("main")
	c.Assert(err, qt.IsNil)
	c.Assert(n.DefaultRPCEndpoint(), qt.Equals, "https://wax.greymass.com")

	n, err = ParseNetwork("")
	c.Assert(err, qt.IsNil)
	c.Assert(n.ChainID(), qt.Equals, testnetChainID)

	_, err = ParseNetwork("devnet")
	c.Assert(err, qt.IsNotNil)
}
