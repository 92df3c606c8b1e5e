package lead

import (
	"context"

	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
	leadtypes "github.com/turtacn/InstallBase-Insight/pkg/types/lead"
)

// ListFilter narrows lead listings.  Zero values mean "no constraint".
type ListFilter struct {
	AccountID common.AccountID
	Type      leadtypes.Type
	Priority  leadtypes.Priority
	RunID     common.ID
}

// Repository persists the lead set.  The pipeline replaces the whole set in
// one atomic operation per run; partial replacement is not supported, which
// is what makes re-runs idempotent.
type Repository interface {
	// ReplaceAll atomically swaps the stored lead set for the given run's
	// output.  Either every lead and insight lands or none do.
	ReplaceAll(ctx context.Context, runID common.ID, leads []*Lead, insights []*AccountInsight) error

	GetByID(ctx context.Context, id common.ID) (*Lead, error)
	List(ctx context.Context, filter ListFilter, page common.Pagination) ([]*Lead, int64, error)
	ListByAccount(ctx context.Context, accountID common.AccountID) ([]*Lead, error)
	InsightsByAccount(ctx context.Context, accountID common.AccountID) ([]*AccountInsight, error)
}

// RunRepository persists pipeline run records.
type RunRepository interface {
	Create(ctx context.Context, run *Run) error
	Update(ctx context.Context, run *Run) error
	GetByID(ctx context.Context, id common.ID) (*Run, error)
	ListRecent(ctx context.Context, limit int) ([]*Run, error)
}
