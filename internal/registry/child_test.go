package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartChildCleanExit(t *testing.T) {
	c, err := StartChild(context.Background(), nil, "true")
	require.NoError(t, err)

	assert.NoError(t, c.Wait())
	assert.False(t, c.KilledByCancel())
}

func TestStartChildNonZeroExitIsNotTreatedAsCancel(t *testing.T) {
	c, err := StartChild(context.Background(), nil, "false")
	require.NoError(t, err)

	assert.Error(t, c.Wait())
	assert.False(t, c.KilledByCancel())
}

func TestKillMarksCanceled(t *testing.T) {
	c, err := StartChild(context.Background(), nil, "sleep", "5")
	require.NoError(t, err)

	require.NoError(t, c.Kill())
	_ = c.Wait()

	assert.True(t, c.KilledByCancel())
}

func TestTokenAttachChildKillsImmediatelyIfAlreadyCanceled(t *testing.T) {
	token := &Token{}
	token.Cancel()

	c, err := StartChild(context.Background(), nil, "sleep", "5")
	require.NoError(t, err)
	token.AttachChild(c)

	select {
	case <-waitDone(c):
	case <-time.After(2 * time.Second):
		t.Fatal("expected already-canceled token to kill the child immediately")
	}
	assert.True(t, c.KilledByCancel())
}

func waitDone(c *ChildProcess) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		_ = c.Wait()
		close(done)
	}()
	return done
}
