package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeduper(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDeduper(time.Minute)
	d.now = func() time.Time { return now }

	assert.False(t, d.Seen("wamid.1"))
	assert.True(t, d.Seen("wamid.1"))
	assert.False(t, d.Seen(""))
	assert.False(t, d.Seen(""))

	d.Forget("wamid.1")
	assert.False(t, d.Seen("wamid.1"))

	now = now.Add(2 * time.Minute)
	assert.False(t, d.Seen("wamid.1"), "expired ids are accepted again")

	assert.False(t, d.Seen("wamid.2"))
	now = now.Add(90 * time.Second)
	assert.Equal(t, 2, d.size())
	assert.Equal(t, 2, d.Prune())
	assert.Equal(t, 0, d.size())
}
