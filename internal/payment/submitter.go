package payment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"popballoons/internal/domain"
	"popballoons/internal/session"
)

const (
	DefaultTokenContract = "eosio.token"
	DefaultSymbol        = "WAX"
	DefaultPrecision     = 8
)

// Config describes the fixed transfer destination.
type Config struct {
	ContractAccount string
	TokenContract   string
	Symbol          string
	Precision       int
	BlocksBehind    int
	ExpireSeconds   int
	Logger          *logrus.Logger
}

// Receipt is returned for a broadcast purchase.
type Receipt struct {
	Account       string
	Action        string
	Quantity      string
	TransactionID string
	Method        domain.AuthMethod
}

// Submitter builds token transfers and submits them through the active wallet.
type Submitter struct {
	cfg    Config
	logger *logrus.Entry
}

func NewSubmitter(cfg Config) *Submitter {
	if cfg.TokenContract == "" {
		cfg.TokenContract = DefaultTokenContract
	}
	if cfg.Symbol == "" {
		cfg.Symbol = DefaultSymbol
	}
	if cfg.Precision <= 0 {
		cfg.Precision = DefaultPrecision
	}
	if cfg.BlocksBehind <= 0 {
		cfg.BlocksBehind = domain.DefaultBlocksBehind
	}
	if cfg.ExpireSeconds <= 0 {
		cfg.ExpireSeconds = domain.DefaultExpireSeconds
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	return &Submitter{
		cfg:    cfg,
		logger: cfg.Logger.WithField("component", "payment"),
	}
}

// Quantity formats an amount as an asset string such as "4.99000000 WAX".
func (s *Submitter) Quantity(amount float64) string {
	return strconv.FormatFloat(amount, 'f', s.cfg.Precision, 64) + " " + s.cfg.Symbol
}

// BuildTransfer returns the transfer of amount from account to the contract.
func (s *Submitter) BuildTransfer(account, action string, amount float64) domain.Transaction {
	return domain.Transaction{Actions: []domain.Action{{
		Account: s.cfg.TokenContract,
		Name:    "transfer",
		Authorization: []domain.Authorization{{
			Actor:      account,
			Permission: "active",
		}},
		Data: domain.TransferData{
			From:     account,
			To:       s.cfg.ContractAccount,
			Quantity: s.Quantity(amount),
			Memo:     action,
		},
	}}}
}

// Pay submits one transfer. It never retries; an unauthenticated session
// is rejected before the wallet is contacted.
func (s *Submitter) Pay(ctx context.Context, active session.Active, action string, amount float64) (*Receipt, error) {
	action = strings.TrimSpace(action)
	if !active.Authenticated() {
		return nil, &domain.PaymentError{Action: action, Err: domain.ErrNotAuthenticated}
	}
	if action == "" {
		return nil, &domain.PaymentError{Err: errors.New("action is required")}
	}
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount <= 0 {
		return nil, &domain.PaymentError{Action: action, Err: fmt.Errorf("invalid amount %v", amount)}
	}
	if s.cfg.ContractAccount == "" {
		return nil, &domain.PaymentError{Action: action, Err: errors.New("contract account not configured")}
	}

	account := active.Session.Account
	tx := s.BuildTransfer(account, action, amount)
	opts := domain.TransactOptions{
		BlocksBehind:  s.cfg.BlocksBehind,
		ExpireSeconds: s.cfg.ExpireSeconds,
	}

	result, err := active.Wallet.Transact(ctx, tx, opts)
	if err != nil {
		s.logger.WithError(err).WithField("account", account).Warnf("payment %s failed", action)
		return nil, &domain.PaymentError{Action: action, Err: err}
	}

	receipt := &Receipt{
		Account:  account,
		Action:   action,
		Quantity: tx.Actions[0].Data.Quantity,
		Method:   active.Session.Method,
	}
	if result != nil {
		receipt.TransactionID = result.TransactionID
	}
	s.logger.WithFields(logrus.Fields{
		"account": account,
		"tx":      receipt.TransactionID,
	}).Infof("payment %s of %s succeeded", action, receipt.Quantity)
	return receipt, nil
}
