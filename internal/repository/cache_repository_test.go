package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/tutor-match-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	assert.False(t, repo.Available())
	var dest map[string]string
	assert.ErrorIs(t, repo.Get(ctx, "k", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "k", "v", time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "matching:*"))
	assert.NoError(t, repo.Publish(ctx, "assignments.committed", map[string]string{"id": "a"}))
	assert.NoError(t, repo.Ping(ctx))
	assert.NoError(t, repo.Close())
}
