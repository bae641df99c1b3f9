package clientdata

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupJobName(t *testing.T) {
	job := NewCleanupJob(NewRepository(setupTestDB(t)), zerolog.Nop())
	assert.Equal(t, "client_data_cleanup", job.Name())
}

func TestCleanupJobRun(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Store(ctx, TableReturnHistory, "expired", []byte("x"), time.Now().Add(-time.Minute)))
	require.NoError(t, repo.Store(ctx, TableReturnHistory, "fresh", []byte("x"), time.Now().Add(time.Hour)))

	job := NewCleanupJob(repo, zerolog.Nop())
	require.NoError(t, job.Run())

	data, err := repo.Get(ctx, TableReturnHistory, "expired")
	require.NoError(t, err)
	assert.Nil(t, data)

	data, err = repo.Get(ctx, TableReturnHistory, "fresh")
	require.NoError(t, err)
	assert.NotNil(t, data)
}
