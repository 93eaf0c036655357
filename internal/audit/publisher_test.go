package audit

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "holly/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublisherEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("fills timestamp and category from the action", func(t *testing.T) {
		store := NewInMemoryStore()
		pub := NewPublisher(store, nil, discardLogger())

		require.NoError(t, pub.Emit(ctx, Event{Action: string(EventConsentWithdrawn)}))

		events := store.All()
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.IsZero())
		assert.Equal(t, CategoryCompliance, events[0].Category)
	})

	t.Run("operational actions are categorized as operations", func(t *testing.T) {
		store := NewInMemoryStore()
		pub := NewPublisher(store, nil, discardLogger())

		require.NoError(t, pub.Emit(ctx, Event{Action: string(EventCycleCompleted)}))
		assert.Equal(t, CategoryOperations, store.All()[0].Category)
	})

	t.Run("list filters by lead", func(t *testing.T) {
		store := NewInMemoryStore()
		pub := NewPublisher(store, nil, discardLogger())

		target := id.NewLeadID()
		require.NoError(t, pub.Emit(ctx, Event{LeadID: target, Action: string(EventOutreachSent)}))
		require.NoError(t, pub.Emit(ctx, Event{LeadID: id.NewLeadID(), Action: string(EventOutreachSent)}))

		events, err := pub.List(ctx, target)
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, target, events[0].LeadID)
	})
}

func TestWorkerDrainsInbox(t *testing.T) {
	store := NewInMemoryStore()
	pub := NewPublisher(store, nil, discardLogger())

	inbox := make(chan Event, 4)
	worker := NewWorker(pub, inbox)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	inbox <- Event{Action: string(EventOutreachSent)}
	inbox <- Event{Action: string(EventStatusChanged)}

	require.Eventually(t, func() bool {
		return len(store.All()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestEventCategoryDefault(t *testing.T) {
	assert.Equal(t, CategoryOperations, AuditEvent("never_seen").Category())
}
