package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/zerr"
)

func TestFormatChain(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: "Error: boom",
		},
		{
			name: "single wrap",
			err:  zerr.Wrap(errors.New("inner error"), "outer error"),
			want: "Error: outer error\n\n  Caused by:\n    → inner error",
		},
		{
			name: "deep chain",
			err:  zerr.Wrap(zerr.Wrap(errors.New("third"), "second"), "first"),
			want: "Error: first\n\n  Caused by:\n    → second\n    → third",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatChain(tt.err))
		})
	}
}
