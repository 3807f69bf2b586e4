package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int {
	return &v
}

func TestReadingStatus_Valid(t *testing.T) {
	assert.True(t, StatusWantToRead.Valid())
	assert.True(t, StatusReading.Valid())
	assert.True(t, StatusCompleted.Valid())
	assert.False(t, ReadingStatus("FINISHED").Valid())
	assert.False(t, ReadingStatus("").Valid())
}

func TestUserBook_ApplyStatus_Reading(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ub := &UserBook{Status: StatusWantToRead}

	ub.ApplyStatus(StatusReading, now)

	assert.Equal(t, StatusReading, ub.Status)
	require.NotNil(t, ub.StartedAt)
	assert.Equal(t, now, *ub.StartedAt)
}

func TestUserBook_ApplyStatus_ReadingKeepsFirstStart(t *testing.T) {
	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	later := first.Add(48 * time.Hour)

	ub := &UserBook{}
	ub.ApplyStatus(StatusReading, first)
	ub.ApplyStatus(StatusWantToRead, later)
	ub.ApplyStatus(StatusReading, later)

	require.NotNil(t, ub.StartedAt)
	assert.Equal(t, first, *ub.StartedAt, "re-entering READING must not move the start date")
}

func TestUserBook_ApplyStatus_CompletedSnapsPage(t *testing.T) {
	now := time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC)
	ub := &UserBook{
		Status:      StatusReading,
		CurrentPage: 120,
		Book:        Book{PageCount: intPtr(300)},
	}

	ub.ApplyStatus(StatusCompleted, now)

	assert.Equal(t, StatusCompleted, ub.Status)
	assert.Equal(t, 300, ub.CurrentPage)
	require.NotNil(t, ub.CompletedAt)
	assert.Equal(t, now, *ub.CompletedAt)
}

func TestUserBook_ApplyStatus_CompletedUnknownPageCount(t *testing.T) {
	now := time.Now()
	ub := &UserBook{CurrentPage: 88, Book: Book{PageCount: nil}}

	ub.ApplyStatus(StatusCompleted, now)

	assert.Equal(t, 88, ub.CurrentPage, "unknown page count leaves the page alone")
	assert.NotNil(t, ub.CompletedAt)
}

func TestUserBook_ApplyStatus_TimestampsAreHighWaterMarks(t *testing.T) {
	now := time.Now()
	ub := &UserBook{Book: Book{PageCount: intPtr(100)}}

	ub.ApplyStatus(StatusReading, now)
	ub.ApplyStatus(StatusCompleted, now)
	ub.ApplyStatus(StatusWantToRead, now.Add(time.Hour))

	assert.NotNil(t, ub.StartedAt)
	assert.NotNil(t, ub.CompletedAt, "leaving COMPLETED must not clear completedAt")
	assert.Equal(t, StatusWantToRead, ub.Status)
}

func TestUserBook_Progress(t *testing.T) {
	t.Run("known page count", func(t *testing.T) {
		ub := &UserBook{CurrentPage: 50, Book: Book{PageCount: intPtr(300)}}
		assert.InDelta(t, 16.67, ub.Progress(), 0.001)
	})

	t.Run("rounded to two decimals", func(t *testing.T) {
		ub := &UserBook{CurrentPage: 1, Book: Book{PageCount: intPtr(3)}}
		assert.Equal(t, 33.33, ub.Progress())
	})

	t.Run("complete", func(t *testing.T) {
		ub := &UserBook{CurrentPage: 300, Book: Book{PageCount: intPtr(300)}}
		assert.Equal(t, 100.0, ub.Progress())
	})

	t.Run("unknown page count", func(t *testing.T) {
		ub := &UserBook{CurrentPage: 50, Book: Book{}}
		assert.Equal(t, 0.0, ub.Progress())
	})

	t.Run("zero page count", func(t *testing.T) {
		ub := &UserBook{CurrentPage: 0, Book: Book{PageCount: intPtr(0)}}
		assert.Equal(t, 0.0, ub.Progress())
	})
}
