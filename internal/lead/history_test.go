package lead

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "holly/pkg/domain"
)

func TestHistoryAttemptCounting(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	h := &History{Activities: []Activity{
		{Type: ActivityMessageSent, CreatedAt: now.Add(-30 * 24 * time.Hour)}, // outside window
		{Type: ActivityMessageSent, CreatedAt: now.Add(-72 * time.Hour)},
		{Type: ActivityAttemptFailed, CreatedAt: now.Add(-48 * time.Hour)},
		{Type: ActivityCallInitiated, CreatedAt: now.Add(-24 * time.Hour)},
		{Type: ActivityStatusChanged, CreatedAt: now.Add(-time.Hour)}, // not an attempt
	}}

	cutoff := now.Add(-14 * 24 * time.Hour)
	assert.Equal(t, 3, h.OutreachAttemptsSince(cutoff))

	first, ok := h.FirstOutreachSince(cutoff)
	assert.True(t, ok)
	assert.True(t, first.Equal(now.Add(-72*time.Hour)))
}

func TestHistoryInbound(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	h := &History{Communications: []Communication{
		{Direction: DirectionOutbound, Channel: id.ChannelSMS, CreatedAt: now.Add(-3 * time.Hour)},
		{Direction: DirectionInbound, Channel: id.ChannelSMS, CreatedAt: now.Add(-2 * time.Hour)},
		{Direction: DirectionOutbound, Channel: id.ChannelSMS, CreatedAt: now.Add(-time.Hour)},
	}}

	last, ok := h.LastInboundAt()
	assert.True(t, ok)
	assert.True(t, last.Equal(now.Add(-2*time.Hour)))

	assert.True(t, h.InboundSince(now.Add(-2*time.Hour)))
	assert.False(t, h.InboundSince(now.Add(-time.Hour)))

	empty := &History{}
	_, ok = empty.LastInboundAt()
	assert.False(t, ok)
}

func TestStatus(t *testing.T) {
	t.Run("terminal statuses", func(t *testing.T) {
		assert.True(t, StatusLost.IsTerminal())
		assert.True(t, StatusConverted.IsTerminal())
		assert.True(t, StatusDealsWon.IsTerminal())
		assert.False(t, StatusNurturing.IsTerminal())
	})

	t.Run("parse rejects unknown values", func(t *testing.T) {
		_, err := ParseStatus("on_hold")
		assert.Error(t, err)

		st, err := ParseStatus("call_scheduled")
		assert.NoError(t, err)
		assert.Equal(t, StatusCallScheduled, st)
	})
}
