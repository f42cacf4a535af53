package job

import (
	"SetMatch/internal/api/dto"
	"SetMatch/internal/pkg/consts"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNegotiation struct {
	since []time.Time
	limit int64
	err   error
}

func (s *stubNegotiation) Respond(context.Context, uint64, string, string, string) (*dto.RespondResultDTO, error) {
	return nil, nil
}

func (s *stubNegotiation) RespondFriendRequest(context.Context, uint64, string, string) (*dto.RespondResultDTO, error) {
	return nil, nil
}

func (s *stubNegotiation) RepairMirror(context.Context, *dto.MirrorRepairTask) error {
	return nil
}

func (s *stubNegotiation) Reconcile(_ context.Context, since time.Time, limit int64) (int, error) {
	s.since = append(s.since, since)
	s.limit = limit
	return 2, s.err
}

type fakeLock struct {
	held     bool
	err      error
	unlocked []interface{}
	key      string
}

func (f *fakeLock) try(_ context.Context, key string, value interface{}, _ time.Duration, _ int) (bool, error) {
	f.key = key
	if f.err != nil {
		return false, f.err
	}
	return !f.held, nil
}

func (f *fakeLock) release(_ context.Context, _ string, value interface{}) {
	f.unlocked = append(f.unlocked, value)
}

func newTestJob(svc *stubNegotiation, lock *fakeLock, now time.Time) *MirrorReconcileJob {
	j := NewMirrorReconcileJob(svc, 30)
	j.now = func() time.Time { return now }
	j.tryLock = lock.try
	j.unLock = lock.release
	return j
}

func TestMirrorReconcileJob_RunsWindowUnderLock(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := &stubNegotiation{}
	lock := &fakeLock{}

	newTestJob(svc, lock, now).Run()

	require.Len(t, svc.since, 1)
	assert.Equal(t, now.Add(-30*time.Minute), svc.since[0])
	assert.Equal(t, int64(reconcileBatchLimit), svc.limit)
	assert.Equal(t, consts.MirrorReconcileLock, lock.key)
	assert.Len(t, lock.unlocked, 1)
}

func TestMirrorReconcileJob_SkipsWhenLockHeld(t *testing.T) {
	svc := &stubNegotiation{}
	lock := &fakeLock{held: true}

	newTestJob(svc, lock, time.Now()).Run()

	assert.Empty(t, svc.since)
	assert.Empty(t, lock.unlocked)
}

func TestMirrorReconcileJob_LockError(t *testing.T) {
	svc := &stubNegotiation{}
	lock := &fakeLock{err: errors.New("redis down")}

	newTestJob(svc, lock, time.Now()).Run()

	assert.Empty(t, svc.since)
}

func TestMirrorReconcileJob_ReleasesLockOnFailure(t *testing.T) {
	svc := &stubNegotiation{err: errors.New("store down")}
	lock := &fakeLock{}

	newTestJob(svc, lock, time.Now()).Run()

	assert.Len(t, svc.since, 1)
	assert.Len(t, lock.unlocked, 1)
}

func TestNewMirrorReconcileJob_DefaultLookback(t *testing.T) {
	j := NewMirrorReconcileJob(&stubNegotiation{}, 0)
	assert.Equal(t, time.Hour, j.lookback)
}
