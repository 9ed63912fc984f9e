package domain

import (
	"context"

	"github.com/google/uuid"
)

// RunsPort is what the HTTP layer calls
type RunsPort interface {
	Submit(ctx context.Context, in Input) (View, error)
	Get(ctx context.Context, id uuid.UUID) (View, error)
	List(ctx context.Context, limit int) ([]View, error)
}
