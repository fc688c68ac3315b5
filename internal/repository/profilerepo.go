// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/darshan87986/your-account-space/internal/model"
)

// ProfileRepository provides access to denormalized account profiles
// in the platform's relational store.
type ProfileRepository interface {
	// Create inserts a new profile row, keyed by the platform user ID.
	Create(ctx context.Context, p *model.Profile) error
	// GetByID loads a profile by user ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Profile, error)
}
