package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/InstallBase-Insight/internal/domain/catalog"
	"github.com/turtacn/InstallBase-Insight/internal/domain/inventory"
	"github.com/turtacn/InstallBase-Insight/internal/domain/lead"
	"github.com/turtacn/InstallBase-Insight/pkg/errors"
	"github.com/turtacn/InstallBase-Insight/pkg/types/common"
)

type fakeSnapshotSource struct {
	snap *inventory.Snapshot
	err  error
}

func (f *fakeSnapshotSource) LoadSnapshot(context.Context) (*inventory.Snapshot, error) {
	return f.snap, f.err
}

type fakeCatalogSource struct {
	cat *catalog.Catalog
	err error
}

func (f *fakeCatalogSource) LoadCatalog(context.Context) (*catalog.Catalog, error) {
	return f.cat, f.err
}

func (f *fakeCatalogSource) LoadBenchmarks(context.Context) (*catalog.BenchmarkTable, error) {
	return catalog.DefaultBenchmarkTable(), nil
}

func TestService_TriggerRunsEngine(t *testing.T) {
	repo := &memLeadRepo{}
	runs := newMemRunRepo()
	eng := newTestEngine(t, repo, runs)
	svc, err := NewService(eng,
		&fakeSnapshotSource{snap: testSnapshot()},
		&fakeCatalogSource{cat: testCatalog()},
		nil)
	require.NoError(t, err)

	run, err := svc.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lead.RunCompleted, run.Status)
	assert.NotEmpty(t, repo.leads)
}

func TestService_SnapshotLoadFailure(t *testing.T) {
	eng := newTestEngine(t, &memLeadRepo{}, newMemRunRepo())
	svc, err := NewService(eng,
		&fakeSnapshotSource{err: errors.New(errors.ErrCodeDatabaseError, "connection refused")},
		&fakeCatalogSource{cat: testCatalog()},
		nil)
	require.NoError(t, err)

	_, err = svc.Trigger(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSnapshotUnavailable))
}

type fakeLock struct {
	acquired bool
	locked   bool
	unlocked bool
}

func (f *fakeLock) TryLock(context.Context) (bool, error) {
	f.locked = true
	return f.acquired, nil
}

func (f *fakeLock) Unlock(context.Context) error {
	f.unlocked = true
	return nil
}

type fakeResultCache struct {
	invalidated []common.AccountID
	latestRun   common.ID
}

func (f *fakeResultCache) InvalidateAccounts(_ context.Context, ids []common.AccountID) error {
	f.invalidated = append(f.invalidated, ids...)
	return nil
}

func (f *fakeResultCache) SetLatestRun(_ context.Context, runID common.ID) error {
	f.latestRun = runID
	return nil
}

func TestService_LockHeldElsewhere(t *testing.T) {
	eng := newTestEngine(t, &memLeadRepo{}, newMemRunRepo())
	svc, err := NewService(eng,
		&fakeSnapshotSource{snap: testSnapshot()},
		&fakeCatalogSource{cat: testCatalog()},
		nil)
	require.NoError(t, err)

	lock := &fakeLock{acquired: false}
	_, err = svc.WithLock(lock).Trigger(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRunAlreadyActive))
	assert.False(t, lock.unlocked)
}

func TestService_LockAcquiredAndReleased(t *testing.T) {
	eng := newTestEngine(t, &memLeadRepo{}, newMemRunRepo())
	svc, err := NewService(eng,
		&fakeSnapshotSource{snap: testSnapshot()},
		&fakeCatalogSource{cat: testCatalog()},
		nil)
	require.NoError(t, err)

	lock := &fakeLock{acquired: true}
	run, err := svc.WithLock(lock).Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lead.RunCompleted, run.Status)
	assert.True(t, lock.unlocked)
}

func TestService_RefreshesCacheAfterRun(t *testing.T) {
	eng := newTestEngine(t, &memLeadRepo{}, newMemRunRepo())
	svc, err := NewService(eng,
		&fakeSnapshotSource{snap: testSnapshot()},
		&fakeCatalogSource{cat: testCatalog()},
		nil)
	require.NoError(t, err)

	cache := &fakeResultCache{}
	run, err := svc.WithCache(cache).Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, run.ID, cache.latestRun)
	assert.NotEmpty(t, cache.invalidated)
}

func TestNewService_RequiresDependencies(t *testing.T) {
	eng := newTestEngine(t, &memLeadRepo{}, newMemRunRepo())

	_, err := NewService(nil, &fakeSnapshotSource{}, &fakeCatalogSource{}, nil)
	assert.Error(t, err)

	_, err = NewService(eng, nil, &fakeCatalogSource{}, nil)
	assert.Error(t, err)
}
