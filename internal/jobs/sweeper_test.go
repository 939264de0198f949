package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/Ananth-NQI/carnego-backend/internal/models"
	"github.com/Ananth-NQI/carnego-backend/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func seed(t *testing.T, store storage.Store, id string, at time.Time) {
	t.Helper()
	require.NoError(t, store.Save(context.Background(), models.NewNegotiationSession(id, "c1", at)))
}

func TestSweepOnceRemovesOnlyExpired(t *testing.T) {
	now := time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore()
	seed(t, store, "old", now.Add(-2*time.Hour))
	seed(t, store, "fresh", now.Add(-10*time.Minute))

	job := NewSweeperJob(store, time.Hour, time.Minute, zaptest.NewLogger(t))
	job.now = func() time.Time { return now }

	n, err := job.SweepOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, store.Len())

	_, err = store.Get(context.Background(), "fresh")
	assert.NoError(t, err)
}

func TestSweeperRunsInBackground(t *testing.T) {
	store := storage.NewMemoryStore()
	seed(t, store, "old", time.Now().Add(-2*time.Hour))

	job := NewSweeperJob(store, time.Hour, 5*time.Millisecond, zaptest.NewLogger(t))
	job.Start()
	job.Start()

	assert.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 5*time.Millisecond)

	job.Stop()
	job.Stop()
}
