package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverdue_Boundary(t *testing.T) {
	deadline := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tr := &Transfer{ExpiresAt: &deadline}

	assert.False(t, tr.Overdue(deadline.Add(-time.Nanosecond)))
	// the deadline instant itself is overdue
	assert.True(t, tr.Overdue(deadline))
	assert.True(t, tr.Overdue(deadline.Add(time.Nanosecond)))
}

func TestOverdue_NoDeadline(t *testing.T) {
	tr := &Transfer{}
	assert.False(t, tr.Overdue(time.Now()))
}

func TestTransferState_Terminal(t *testing.T) {
	assert.False(t, StateLive.Terminal())
	assert.True(t, StateConsumed.Terminal())
	assert.True(t, StateExpired.Terminal())
}
