package cli

import (
	"bytes"
	"context"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShutdownCause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, "context cancelled", shutdownCause(ctx))

	sc := NewSignalContext(context.Background())
	sc.Cancel()
	assert.Nil(t, sc.Signal())
	assert.Equal(t, "context cancelled", shutdownCause(sc))

	caught := &SignalContext{Context: ctx, Cancel: cancel, sigVal: syscall.SIGTERM}
	assert.Equal(t, syscall.SIGTERM, caught.Signal())
	assert.Equal(t, "received "+syscall.SIGTERM.String(), shutdownCause(caught))
}

func TestPrintSystemMessage(t *testing.T) {
	var buf bytes.Buffer
	printSystemMessage(&buf, "Listening on %s", ":8080")
	assert.Equal(t, ">>> Listening on :8080\n", buf.String())
}
