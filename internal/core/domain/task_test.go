package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ckpt/internal/core/domain"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	mode, err := domain.ParseMode("auto")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeAuto, mode)

	mode, err = domain.ParseMode("local")
	require.NoError(t, err)
	assert.Equal(t, domain.ModeLocal, mode)

	_, err = domain.ParseMode("global")
	require.ErrorIs(t, err, domain.ErrInvalidMode)
}

func TestRequestKeys(t *testing.T) {
	t.Parallel()

	t.Run("same load request shares a key", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, domain.LoadKey("/m/a.ckpt", domain.ModeAuto), domain.LoadKey("/m/a.ckpt", domain.ModeAuto))
	})

	t.Run("mode splits load keys", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, domain.LoadKey("/m/a.ckpt", domain.ModeAuto), domain.LoadKey("/m/a.ckpt", domain.ModeLocal))
	})

	t.Run("kind splits keys for one resource", func(t *testing.T) {
		t.Parallel()
		assert.NotEqual(t, domain.LoadKey("/m/a.ckpt", domain.ModeAuto), domain.ReleaseKey("/m/a.ckpt"))
	})

	t.Run("inspect keys separate by element", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, domain.InspectKey("/m/a.ckpt", `["a"]`), domain.InspectKey("/m/a.ckpt", `["a"]`))
		assert.NotEqual(t, domain.InspectKey("/m/a.ckpt", `["a"]`), domain.InspectKey("/m/a.ckpt", `["b"]`))
	})
}

func TestEnvironment_Equal(t *testing.T) {
	t.Parallel()

	a := domain.Environment{Name: "default", Interpreter: "/usr/bin/python3"}
	b := domain.Environment{Name: "renamed", Interpreter: "/usr/bin/python3"}
	c := domain.Environment{Name: "default", Interpreter: "/opt/conda/bin/python"}

	assert.True(t, a.Equal(b), "environments with one interpreter launch the same worker")
	assert.False(t, a.Equal(c))
	assert.False(t, a.IsZero())
	assert.True(t, domain.Environment{}.IsZero())
}
