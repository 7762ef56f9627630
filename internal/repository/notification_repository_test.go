package repository

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/crewline/staff-sync-service/internal/domain"
)

func streamEvent(id string, at time.Time) domain.NotificationEvent {
	return domain.NotificationEvent{
		EventID:           id,
		TargetIdentityKey: "sid-k1",
		Kind:              domain.NotificationSystem,
		CreatedAt:         at,
	}
}

func TestStreamLessOrdersByCreatedAtThenEventID(t *testing.T) {
	base := time.Date(2026, time.August, 31, 6, 0, 0, 0, time.UTC)
	events := []domain.NotificationEvent{
		streamEvent("evt-c", base.Add(time.Second)),
		streamEvent("evt-b", base.Add(time.Second)),
		streamEvent("evt-a", base.Add(2*time.Second)),
		streamEvent("evt-z", base),
	}

	sort.Slice(events, func(i, j int) bool { return StreamLess(events[i], events[j]) })

	var ids []string
	for _, event := range events {
		ids = append(ids, event.EventID)
	}
	assert.Equal(t, []string{"evt-z", "evt-b", "evt-c", "evt-a"}, ids,
		"created_at ascending, event_id breaking ties")

	// antisymmetry on the tiebreak pair
	assert.True(t, StreamLess(events[1], events[2]))
	assert.False(t, StreamLess(events[2], events[1]))
	assert.False(t, StreamLess(events[1], events[1]))
}

func TestCursorAdmitsMatchesRowValueComparison(t *testing.T) {
	base := time.Date(2026, time.August, 31, 6, 0, 0, 0, time.UTC)
	pivot := streamEvent("evt-m", base)
	cursor := After(pivot)

	t.Run("nil cursor admits everything", func(t *testing.T) {
		var none *NotificationCursor
		assert.True(t, none.Admits(streamEvent("evt-a", base.Add(-time.Hour))))
	})

	t.Run("the cursor event itself is excluded", func(t *testing.T) {
		assert.False(t, cursor.Admits(pivot))
	})

	t.Run("earlier created_at is excluded regardless of id", func(t *testing.T) {
		assert.False(t, cursor.Admits(streamEvent("evt-z", base.Add(-time.Second))))
	})

	t.Run("same created_at uses the event id tiebreak", func(t *testing.T) {
		assert.False(t, cursor.Admits(streamEvent("evt-a", base)))
		assert.True(t, cursor.Admits(streamEvent("evt-n", base)))
	})

	t.Run("later created_at is admitted regardless of id", func(t *testing.T) {
		assert.True(t, cursor.Admits(streamEvent("evt-a", base.Add(time.Second))))
	})
}

func TestAdmitsAgreesWithStreamOrder(t *testing.T) {
	base := time.Date(2026, time.August, 31, 6, 0, 0, 0, time.UTC)
	events := []domain.NotificationEvent{
		streamEvent("evt-c", base),
		streamEvent("evt-d", base),
		streamEvent("evt-a", base.Add(time.Second)),
		streamEvent("evt-b", base.Add(time.Second)),
	}

	// resuming from any event admits exactly the events after it
	for i, pivot := range events {
		cursor := After(pivot)
		for j, candidate := range events {
			assert.Equal(t, j > i, cursor.Admits(candidate),
				"cursor at %s vs %s", pivot.EventID, candidate.EventID)
		}
	}
}
