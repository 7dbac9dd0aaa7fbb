package payment

import (
	"context"
	"errors"
	"io"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/sirupsen/logrus"

	"popballoons/internal/domain"
	"popballoons/internal/session"
	"popballoons/internal/wallet"
)

type recordingWallet struct {
	calls int
	tx    domain.Transaction
	opts  domain.TransactOptions
	err   error
}

func (w *recordingWallet) Method() domain.AuthMethod             { return domain.AuthMethodCloud }
func (w *recordingWallet) Login(context.Context) (string, error) { return "alice.wam", nil }
func (w *recordingWallet) Logout(context.Context) error          { return nil }

func (w *recordingWallet) Transact(_ context.Context, tx domain.Transaction, opts domain.TransactOptions) (*domain.TransactResult, error) {
	w.calls++
	w.tx, w.opts = tx, opts
	if w.err != nil {
		return nil, w.err
	}
	return &domain.TransactResult{TransactionID: "0xfeed"}, nil
}

func newSubmitter() *Submitter {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewSubmitter(Config{ContractAccount: "popballoons1", Logger: logger})
}

func activeFor(w wallet.Backend) session.Active {
	return session.Active{
		Session: domain.UserSession{Account: "alice.wam", Method: domain.AuthMethodCloud, Authenticated: true},
		Wallet:  w,
	}
}

func TestPayWithoutSessionNeverTouchesWallet(t *testing.T) {
	c := qt.New(t)

	w := &recordingWallet{}
	_, err := newSubmitter().Pay(context.Background(), session.Active{Wallet: w}, ActionBuyPops, 1)

	var payErr *domain.PaymentError
	c.Assert(errors.As(err, &payErr), qt.IsTrue)
	c.Assert(errors.Is(err, domain.ErrNotAuthenticated), qt.IsTrue)
	c.Assert(w.calls, qt.Equals, 0)
}

func TestPayAfterLogoutIsRejected(t *testing.T) {
	c := qt.New(t)

	w := &recordingWallet{}
	registry := wallet.NewRegistry()
	registry.Register(domain.AuthMethodCloud, func() wallet.Backend { return w })
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	m := session.NewManager("client", registry, logger)

	_, err := m.Login(context.Background(), domain.AuthMethodCloud)
	c.Assert(err, qt.IsNil)
	_, err = newSubmitter().Pay(context.Background(), m.Active(), ActionBuyKeeps, 1)
	c.Assert(err, qt.IsNil)
	c.Assert(w.calls, qt.Equals, 1)

	c.Assert(m.Logout(context.Background()), qt.IsNil)
	_, err = newSubmitter().Pay(context.Background(), m.Active(), ActionBuyKeeps, 1)
	c.Assert(errors.Is(err, domain.ErrNotAuthenticated), qt.IsTrue)
	c.Assert(w.calls, qt.Equals, 1)
}

func TestPayBuildsTokenTransfer(t *testing.T) {
	c := qt.New(t)

	w := &recordingWallet{}
	receipt, err := newSubmitter().Pay(context.Background(), activeFor(w), ActionSubscribe, 4.99)
	c.Assert(err, qt.IsNil)
	c.Assert(receipt.TransactionID, qt.Equals, "0xfeed")
	c.Assert(receipt.Quantity, qt.Equals, "4.99000000 WAX")

	c.Assert(w.opts, qt.Equals, domain.TransactOptions{BlocksBehind: 3, ExpireSeconds: 30})
	c.Assert(w.tx.Actions, qt.HasLen, 1)
	action := w.tx.Actions[0]
	c.Assert(action.Account, qt.Equals, "eosio.token")
	c.Assert(action.Name, qt.Equals, "transfer")
	c.Assert(action.Authorization, qt.DeepEquals, []domain.Authorization{{Actor: "alice.wam", Permission: "active"}})
	c.Assert(action.Data, qt.Equals, domain.TransferData{
		From:     "alice.wam",
		To:       "popballoons1",
		Quantity: "4.99000000 WAX",
		Memo:     "subscribe",
	})
}

func TestPayWrapsWalletFailure(t *testing.T) {
	c := qt.New(t)

	rejected := errors.New("signature rejected")
	w := &recordingWallet{err: rejected}
	_, err := newSubmitter().Pay(context.Background(), activeFor(w), ActionRemoveAds, 5)

	var payErr *domain.PaymentError
	c.Assert(errors.As(err, &payErr), qt.IsTrue)
	c.Assert(payErr.Action, qt.Equals, ActionRemoveAds)
	c.Assert(errors.Is(err, rejected), qt.IsTrue)
	c.Assert(w.calls, qt.Equals, 1)
}

func TestPayRejectsBadAmount(t *testing.T) {
	c := qt.New(t)

	w := &recordingWallet{}
	_, err := newSubmitter().Pay(context.Background(), activeFor(w), ActionBuyPops, 0)
	c.Assert(err, qt.ErrorMatches, `payment buy_pops failed: invalid amount 0`)
	c.Assert(w.calls, qt.Equals, 0)
}

func TestCataloguePrices(t *testing.T) {
	c := qt.New(t)

	cat := NewCatalogue(func(x, y int) float64 { return float64(x+y) / 2 })

	price, err := cat.Price(ActionCoffeeBundle, "")
	c.Assert(err, qt.IsNil)
	c.Assert(price, qt.Equals, 10.0)

	price, err = cat.Price(ActionRentSpot, " 3, 5 ")
	c.Assert(err, qt.IsNil)
	c.Assert(price, qt.Equals, 4.0)

	_, err = cat.Price(ActionRentSpot, "3")
	c.Assert(err, qt.ErrorMatches, `please enter coordinates in the format x,y`)

	_, err = cat.Price("free_money", "")
	c.Assert(errors.Is(err, ErrUnknownItem), qt.IsTrue)

	c.Assert(ActionFromDescription("Coffee Bundle"), qt.Equals, ActionCoffeeBundle)
}
