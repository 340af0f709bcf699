package telegram

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Johnhyeon/stock-tracker-sub001/internal/database"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := database.NewInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(Schema))
	return NewRepository(db.Conn(), zerolog.Nop())
}

func TestRepository_ReplaceAll(t *testing.T) {
	repo := setupTestRepo(t)

	code := "005930"
	sentiment := SentimentPositive
	items := []Idea{
		{
			ID:           1,
			SourceType:   SourceOthers,
			StockCode:    &code,
			Sentiment:    &sentiment,
			Author:       "jh",
			Text:         "loading up",
			Hashtags:     []string{"semis"},
			OriginalDate: time.Now().Add(-time.Hour),
		},
		{
			ID:           2,
			SourceType:   SourceMy,
			Text:         "no label on this one",
			OriginalDate: time.Now(),
		},
	}

	require.NoError(t, repo.ReplaceAll(items))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// a second sync replaces, never appends
	require.NoError(t, repo.ReplaceAll(items[:1]))
	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepository_LastSyncedAt(t *testing.T) {
	repo := setupTestRepo(t)

	synced, err := repo.LastSyncedAt()
	require.NoError(t, err)
	assert.Nil(t, synced)

	require.NoError(t, repo.ReplaceAll([]Idea{{ID: 1, SourceType: SourceMy, Text: "x", OriginalDate: time.Now()}}))

	synced, err = repo.LastSyncedAt()
	require.NoError(t, err)
	require.NotNil(t, synced)
	assert.WithinDuration(t, time.Now(), *synced, 5*time.Second)
}
