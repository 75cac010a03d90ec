package progrock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.trai.ch/stow/internal/adapters/telemetry/progrock"
	"go.trai.ch/stow/internal/core/domain"
	"go.trai.ch/stow/internal/core/ports"
)

func TestRecorder_Integration(t *testing.T) {
	recorder := progrock.New()

	ctx, vertex := recorder.Record(context.Background(), "storage.flush")
	fromCtx, ok := ports.VertexFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, vertex, fromCtx)

	_, err := vertex.Stdout().Write([]byte("flushing 3 buckets\n"))
	require.NoError(t, err)

	vertex.Log(domain.LogLevelDebug, "debug msg")
	vertex.Log(domain.LogLevelError, "bucket write failed")
	vertex.Complete(errors.New("disk full"))

	_, recovery := recorder.Record(context.Background(), "cache.recovery")
	recovery.Cached()
	recovery.Complete(nil)

	assert.NoError(t, recorder.Close())
}
