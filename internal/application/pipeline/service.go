package pipeline

import (
	"context"

	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

// RunLocker serializes runs across engine instances.  The engine already
// rejects overlapping runs in-process; the locker extends that guarantee to
// a fleet sharing one database.
type RunLocker interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// ResultCache invalidates cached per-account lead sets after a run replaces
// the stored leads, and records the latest completed run.
type ResultCache interface {
	InvalidateAccounts(ctx context.Context, accountIDs []common.AccountID) error
	SetLatestRun(ctx context.Context, runID common.ID) error
}

// Service loads the pipeline's inputs and executes a run.  It is the entry
// point shared by the HTTP trigger endpoint, the snapshot-ready consumer,
// and the CLI.
type Service struct {
	engine    *Engine
	snapshots inventory.SnapshotSource
	catalogs  catalog.Source
	lock      RunLocker
	cache     ResultCache
	logger    logging.Logger
}

// NewService wires the run facade.
func NewService(engine *Engine, snapshots inventory.SnapshotSource, catalogs catalog.Source, log logging.Logger) (*Service, error) {
	if engine == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "pipeline service requires an engine")
	}
	if snapshots == nil || catalogs == nil {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "pipeline service requires snapshot and catalog sources")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Service{
		engine:    engine,
		snapshots: snapshots,
		catalogs:  catalogs,
		logger:    log.Named("pipeline_service"),
	}, nil
}

// WithLock adds a fleet-wide run lock.  Returns the service for chaining.
func (s *Service) WithLock(lock RunLocker) *Service {
	s.lock = lock
	return s
}

// WithCache adds post-run cache maintenance.  Returns the service for
// chaining.
func (s *Service) WithCache(cache ResultCache) *Service {
	s.cache = cache
	return s
}

// Trigger loads the current snapshot and catalog and runs the engine.  With
// a lock configured, a run already active anywhere in the fleet is rejected
// the same way an in-process overlap is.  After a successful run the cached
// account lead sets touched by the snapshot are invalidated.
func (s *Service) Trigger(ctx context.Context) (*lead.Run, error) {
	if s.lock != nil {
		ok, err := s.lock.TryLock(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.New(errors.ErrCodeRunAlreadyActive, "a pipeline run is active elsewhere in the fleet")
		}
		defer func() {
			if err := s.lock.Unlock(ctx); err != nil {
				s.logger.Warn("releasing run lock failed", logging.Err(err))
			}
		}()
	}

	snap, err := s.snapshots.LoadSnapshot(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSnapshotUnavailable, "loading inventory snapshot")
	}
	cat, err := s.catalogs.LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("triggering recommendation run",
		logging.Int("records", len(snap.Records)),
		logging.Int("accounts", len(snap.Accounts)),
	)
	run, err := s.engine.Run(ctx, snap, cat)
	if err != nil {
		return nil, err
	}

	s.refreshCache(ctx, run, snap)
	return run, nil
}

// refreshCache drops stale per-account entries and records the new run.
// Cache maintenance is best effort: entries also carry a TTL.
func (s *Service) refreshCache(ctx context.Context, run *lead.Run, snap *inventory.Snapshot) {
	if s.cache == nil {
		return
	}
	seen := make(map[common.AccountID]struct{}, len(snap.Accounts))
	ids := make([]common.AccountID, 0, len(snap.Accounts))
	for i := range snap.Records {
		id := snap.Records[i].AccountID
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := s.cache.InvalidateAccounts(ctx, ids); err != nil {
		s.logger.Warn("invalidating account lead cache failed", logging.Err(err))
	}
	if err := s.cache.SetLatestRun(ctx, run.ID); err != nil {
		s.logger.Warn("recording latest run failed", logging.Err(err))
	}
}
