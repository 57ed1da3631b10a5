package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/ckpt/internal/core/domain"
)

func sampleTree() domain.Tree {
	return domain.Tree{
		"model": map[string]any{
			"layers": []any{
				map[string]any{
					"weight": map[string]any{
						"_type": "tensor",
						"shape": []any{float64(128), float64(64)},
					},
				},
			},
		},
	}
}

func TestTree_StatsAt(t *testing.T) {
	t.Parallel()

	t.Run("no stats embedded", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		stats, ok := tree.StatsAt([]string{"model", "layers", "0", "weight"})
		assert.False(t, ok)
		assert.Nil(t, stats)
	})

	t.Run("stats embedded", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		err := tree.MergeAt(
			[]string{"model", "layers", "0", "weight"},
			domain.Tree{"mean": 0.01, "std": 0.97},
		)
		require.NoError(t, err)

		stats, ok := tree.StatsAt([]string{"model", "layers", "0", "weight"})
		require.True(t, ok)
		assert.Equal(t, 0.01, stats["mean"])
	})

	t.Run("missing path", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		_, ok := tree.StatsAt([]string{"model", "missing"})
		assert.False(t, ok)
	})
}

func TestTree_MergeAt(t *testing.T) {
	t.Parallel()

	t.Run("merge leaves siblings untouched", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		err := tree.MergeAt(
			[]string{"model", "layers", "0", "weight"},
			domain.Tree{"mean": 0.5},
		)
		require.NoError(t, err)

		weight := tree["model"].(map[string]any)["layers"].([]any)[0].(map[string]any)["weight"].(map[string]any)
		assert.Equal(t, "tensor", weight[domain.TypeKey])
		assert.NotNil(t, weight["shape"])
		assert.Equal(t, map[string]any{"mean": 0.5}, weight[domain.StatsKey])
	})

	t.Run("unknown key", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		err := tree.MergeAt([]string{"model", "nope"}, domain.Tree{})
		require.ErrorIs(t, err, domain.ErrPathNotFound)
	})

	t.Run("index out of range", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		err := tree.MergeAt([]string{"model", "layers", "7"}, domain.Tree{})
		require.ErrorIs(t, err, domain.ErrPathNotFound)
	})

	t.Run("non-object target", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		err := tree.MergeAt(
			[]string{"model", "layers", "0", "weight", "shape"},
			domain.Tree{},
		)
		require.ErrorIs(t, err, domain.ErrNotMergeable)
	})

	t.Run("second merge overwrites stats", func(t *testing.T) {
		t.Parallel()

		tree := sampleTree()
		path := []string{"model", "layers", "0", "weight"}
		require.NoError(t, tree.MergeAt(path, domain.Tree{"mean": 1.0}))
		require.NoError(t, tree.MergeAt(path, domain.Tree{"mean": 2.0}))

		stats, ok := tree.StatsAt(path)
		require.True(t, ok)
		assert.Equal(t, 2.0, stats["mean"])
	})
}
