package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHealthReady(t *testing.T) {
	env := setupTestEnv(t)
	svc := NewHealthService(env.db, env.rdb)

	resp, ok := svc.Ready(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.Equal(t, "ok", resp.Checks["redis"])

	env.redis.Close()

	resp, ok = svc.Ready(context.Background())
	assert.False(t, ok)
	assert.Equal(t, "unavailable", resp.Status)
	assert.Equal(t, "ok", resp.Checks["database"])
	assert.NotEqual(t, "ok", resp.Checks["redis"])
}
