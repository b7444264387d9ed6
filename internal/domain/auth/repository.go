package auth

import (
	"context"

	"github.com/yanqian/suncare/internal/domain/profile"
)

// Repository abstracts account persistence.
type Repository interface {
	Create(ctx context.Context, account Account) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, bool, error)
	GetByID(ctx context.Context, id string) (Account, bool, error)
	Delete(ctx context.Context, id string) error
}

// ProfileRegistrar creates the risk profile that belongs to a new account.
type ProfileRegistrar interface {
	Register(ctx context.Context, id string, req profile.RegisterRequest) (profile.Profile, error)
}
