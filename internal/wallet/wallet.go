package wallet

import (
	"context"
	"fmt"

	"popballoons/internal/domain"
)

// Backend is the signing capability of one logged in wallet.
type Backend interface {
	Method() domain.AuthMethod
	Login(ctx context.Context) (string, error)
	Transact(ctx context.Context, tx domain.Transaction, opts domain.TransactOptions) (*domain.TransactResult, error)
	Logout(ctx context.Context) error
}

// Factory builds a fresh backend for one client login.
type Factory func() Backend

// Registry selects wallet backends explicitly by auth method.
type Registry struct {
	factories map[domain.AuthMethod]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[domain.AuthMethod]Factory)}
}

func (r *Registry) Register(method domain.AuthMethod, factory Factory) {
	r.factories[method] = factory
}

func (r *Registry) New(method domain.AuthMethod) (Backend, error) {
	factory, ok := r.factories[method]
	if !ok || factory == nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMethod, method)
	}
	return factory(), nil
}

// Methods lists the registered auth methods, cloud first.
func (r *Registry) Methods() []domain.AuthMethod {
	var methods []domain.AuthMethod
	for _, m := range []domain.AuthMethod{domain.AuthMethodCloud, domain.AuthMethodAnchor} {
		if _, ok := r.factories[m]; ok {
			methods = append(methods, m)
		}
	}
	return methods
}
