package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEvictor struct {
	mu      sync.Mutex
	cutoffs []time.Time
}

func (f *fakeEvictor) EvictIdle(cutoff time.Time) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cutoffs = append(f.cutoffs, cutoff)
	return 2
}

func (f *fakeEvictor) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cutoffs)
}

func TestSweepUsesIdleCutoff(t *testing.T) {
	evictor := &fakeEvictor{}
	s := NewSweeper(evictor, "@every 1h", 30*time.Minute)
	now := time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	assert.Equal(t, 2, s.Sweep())
	require.Len(t, evictor.cutoffs, 1)
	assert.Equal(t, now.Add(-30*time.Minute), evictor.cutoffs[0])
}

func TestStartRejectsBadSchedule(t *testing.T) {
	s := NewSweeper(&fakeEvictor{}, "not a schedule", time.Minute)
	assert.Error(t, s.Start())
}

func TestStartRunsOnSchedule(t *testing.T) {
	evictor := &fakeEvictor{}
	s := NewSweeper(evictor, "* * * * * *", time.Minute)
	require.NoError(t, s.Start())
	defer s.Stop()

	assert.Eventually(t, func() bool { return evictor.calls() > 0 }, 3*time.Second, 50*time.Millisecond)
}

type countingPruner struct {
	mu    sync.Mutex
	calls int
}

func (p *countingPruner) Prune() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return 3
}

func TestSweepPrunesExpiredSessions(t *testing.T) {
	pruner := &countingPruner{}
	s := NewSweeper(&fakeEvictor{}, "@every 1h", time.Minute, pruner)

	assert.Equal(t, 2, s.Sweep(), "the result counts evicted screens only")
	assert.Equal(t, 1, pruner.calls)

	s.Sweep()
	assert.Equal(t, 2, pruner.calls)
}
