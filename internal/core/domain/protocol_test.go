package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/ckpt/internal/core/domain"
)

func TestParseStartupLine(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		line string
		port int
		ok   bool
	}{
		{name: "plain", line: "SERVER_STARTED:8001", port: 8001, ok: true},
		{name: "trailing newline", line: "SERVER_STARTED:8001\n", port: 8001, ok: true},
		{name: "leading whitespace", line: "  SERVER_STARTED:8001", port: 8001, ok: true},
		{name: "unrelated output", line: "loading torch...", ok: false},
		{name: "missing port", line: "SERVER_STARTED:", ok: false},
		{name: "non-numeric port", line: "SERVER_STARTED:abc", ok: false},
		{name: "zero port", line: "SERVER_STARTED:0", ok: false},
		{name: "port out of range", line: "SERVER_STARTED:70000", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			port, ok := domain.ParseStartupLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.port, port)
			}
		})
	}
}

func TestFormatStartupLine(t *testing.T) {
	t.Parallel()

	line := domain.FormatStartupLine(8001)
	assert.Equal(t, "SERVER_STARTED:8001", line)

	port, ok := domain.ParseStartupLine(line)
	assert.True(t, ok)
	assert.Equal(t, 8001, port)
}
