package storage

import (
	"context"
	"errors"

	"github.com/opscart/k8s-capacity-console/pkg/models"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("record not found")

// Store defines the interface for persistent storage
type Store interface {
	SaveMove(ctx context.Context, rec *models.MoveRecord) error
	GetMove(ctx context.Context, id string) (*models.MoveRecord, error)
	ListMoves(ctx context.Context, filter MoveFilter) ([]*models.MoveRecord, error)

	Ping(ctx context.Context) error
	Close() error
}

// MoveFilter narrows a journal listing. Zero values match everything.
type MoveFilter struct {
	Namespace string
	Status    models.MoveStatus
	Limit     int
}
