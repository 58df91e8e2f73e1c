package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingPruner struct {
	calls int32
}

func (c *countingPruner) Prune() int {
	atomic.AddInt32(&c.calls, 1)
	return 1
}

func TestSchedulePrune(t *testing.T) {
	s, err := New(zap.NewNop())
	require.NoError(t, err)

	p := &countingPruner{}
	require.NoError(t, s.SchedulePrune(p, 20*time.Millisecond))
	s.Start()
	defer func() { assert.NoError(t, s.Stop()) }()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&p.calls) >= 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestEveryRejectsInvalidInterval(t *testing.T) {
	s, err := New(zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, s.Every("bad", 0, func() {}))
}
