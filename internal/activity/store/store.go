// Package store holds the activity registry backends.
//
// Every backend makes AddParticipant and RemoveParticipant atomic with respect
// to the membership check, and reports outcomes as pkg/platform/sentinel
// errors:
//
//	ErrNotFound      activity name is not in the registry
//	ErrConflict      AddParticipant for an email already present
//	ErrInvalidState  RemoveParticipant for an email not present
package store

import (
	"context"

	"activityboard/internal/activity/models"
)

// Store is the contract shared by the memory, Redis and Postgres backends.
type Store interface {
	List(ctx context.Context) ([]*models.Activity, error)
	FindByName(ctx context.Context, name string) (*models.Activity, error)
	AddParticipant(ctx context.Context, name, email string) error
	RemoveParticipant(ctx context.Context, name, email string) error
	Seed(ctx context.Context, activities []*models.Activity) error
	Health(ctx context.Context) error
}
