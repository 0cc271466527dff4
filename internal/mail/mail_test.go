package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogDispatcherLogsWithoutBody(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	d := NewLogDispatcher("noreply@example.com", zap.New(core))

	d.Send(Message{To: "dana@example.com", Subject: "Assigned", HTML: "<p>secret</p>", Text: "secret"})

	require.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, 5*time.Millisecond)
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "dana@example.com", fields["to"])
	assert.Equal(t, "noreply@example.com", fields["from"])
	assert.EqualValues(t, len("<p>secret</p>"), fields["html_bytes"])
	for _, v := range fields {
		assert.NotEqual(t, "secret", v)
	}
}
