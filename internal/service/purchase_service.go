package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"popballoons/internal/domain"
	"popballoons/internal/payment"
	"popballoons/internal/repository"
	"popballoons/internal/session"
)

// Payer submits a single payment through the active wallet.
type Payer interface {
	Pay(ctx context.Context, active session.Active, action string, amount float64) (*payment.Receipt, error)
}

// PurchaseService prices, pays for and records in-game purchases.
type PurchaseService interface {
	Purchase(ctx context.Context, active session.Active, action, coords string) (*domain.Purchase, error)
	History(ctx context.Context, account string) ([]domain.Purchase, error)
	Catalogue() []payment.Item
}

type purchaseService struct {
	payer      Payer
	catalogue  *payment.Catalogue
	purchases  repository.PurchaseRepository
	candidates repository.CandidateRepository
	logger     *logrus.Entry
}

func NewPurchaseService(payer Payer, catalogue *payment.Catalogue, purchases repository.PurchaseRepository, candidates repository.CandidateRepository, logger *logrus.Logger) PurchaseService {
	if logger == nil {
		logger = logrus.New()
	}
	return &purchaseService{
		payer:      payer,
		catalogue:  catalogue,
		purchases:  purchases,
		candidates: candidates,
		logger:     logger.WithField("component", "purchase"),
	}
}

// Purchase rejects unauthenticated sessions before pricing or paying.
// A recording failure after a broadcast payment is logged, not returned.
func (s *purchaseService) Purchase(ctx context.Context, active session.Active, action, coords string) (*domain.Purchase, error) {
	if !active.Authenticated() {
		return nil, &domain.PaymentError{Action: action, Err: domain.ErrNotAuthenticated}
	}

	amount, err := s.catalogue.Price(action, coords)
	if err != nil {
		return nil, err
	}

	receipt, err := s.payer.Pay(ctx, active, action, amount)
	if err != nil {
		return nil, err
	}

	purchase := &domain.Purchase{
		Account:       receipt.Account,
		Action:        receipt.Action,
		Quantity:      receipt.Quantity,
		TransactionID: receipt.TransactionID,
		Method:        receipt.Method,
		CreatedAt:     time.Now().UTC(),
	}
	log := s.logger.WithFields(logrus.Fields{"account": purchase.Account, "tx": purchase.TransactionID})
	if _, err := s.purchases.Create(ctx, purchase); err != nil {
		log.WithError(err).Error("record purchase")
	}
	if err := s.applyEntitlement(ctx, purchase); err != nil {
		log.WithError(err).Warnf("apply %s entitlement", purchase.Action)
	}
	return purchase, nil
}

func (s *purchaseService) applyEntitlement(ctx context.Context, p *domain.Purchase) error {
	if p.Action != payment.ActionSubscribe && p.Action != payment.ActionRemoveAds {
		return nil
	}
	candidate, err := s.candidates.GetByWaxAccount(ctx, p.Account)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}

	subscribed, adFree := candidate.IsSubscribed, candidate.AdFree
	switch p.Action {
	case payment.ActionSubscribe:
		subscribed = true
	case payment.ActionRemoveAds:
		adFree = true
	}
	return s.candidates.UpdateEntitlements(ctx, candidate.ID, subscribed, adFree)
}

func (s *purchaseService) History(ctx context.Context, account string) ([]domain.Purchase, error) {
	if account == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.purchases.ListByAccount(ctx, account)
}

func (s *purchaseService) Catalogue() []payment.Item {
	return s.catalogue.Items()
}
