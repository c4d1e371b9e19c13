package handlers

import (
	"testing"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/stretchr/testify/assert"
)

func inboxAt(id uint, at time.Time) InboxItem {
	return InboxItem{Notification: models.Notification{ID: id, CreatedAt: at}}
}

func itemIDs(items []InboxItem) []uint {
	out := make([]uint, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestGroupByAge(t *testing.T) {
	now := time.Date(2026, 3, 12, 9, 30, 0, 0, time.UTC)
	items := []InboxItem{
		inboxAt(1, now.Add(-time.Minute)),
		inboxAt(2, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)),
		inboxAt(3, time.Date(2026, 3, 11, 23, 59, 0, 0, time.UTC)),
		inboxAt(4, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)),
		inboxAt(5, time.Date(2026, 3, 8, 15, 0, 0, 0, time.UTC)),
		inboxAt(6, time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC)),
		inboxAt(7, time.Date(2026, 3, 5, 23, 0, 0, 0, time.UTC)),
		inboxAt(8, time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC)),
	}

	groups := groupByAge(items, now)

	assert.Equal(t, []uint{1, 2}, itemIDs(groups.Today))
	assert.Equal(t, []uint{3, 4}, itemIDs(groups.Yesterday))
	assert.Equal(t, []uint{5, 6}, itemIDs(groups.ThisWeek))
	assert.Equal(t, []uint{7, 8}, itemIDs(groups.Older))
}

func TestGroupByAge_EmptyBucketsAreNotNil(t *testing.T) {
	groups := groupByAge(nil, time.Now())
	assert.NotNil(t, groups.Today)
	assert.NotNil(t, groups.Yesterday)
	assert.NotNil(t, groups.ThisWeek)
	assert.NotNil(t, groups.Older)
}
