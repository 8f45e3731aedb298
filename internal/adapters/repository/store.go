// Package repository keeps the latest solve result for each project.
package repository

import (
	"context"

	"github.com/okian/padflow/internal/domain/model"
)

// Store provides read/write access to published solve results.
type Store interface {
	// Publish stores rec unless the project already holds a newer revision.
	// It returns true when rec became the project's latest result.
	Publish(ctx context.Context, rec model.SolveRecord) (bool, error)

	// Latest returns the newest result for a project.
	// Returns ErrNotFound if the project has no result yet.
	Latest(ctx context.Context, projectID string) (model.SolveRecord, error)

	// Projects lists the projects holding a result, sorted by ID.
	Projects(ctx context.Context) ([]string, error)

	// Count returns the number of projects holding a result.
	Count(ctx context.Context) int
}
