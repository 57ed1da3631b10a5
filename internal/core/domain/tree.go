package domain

import (
	"strconv"

	"go.trai.ch/zerr"
)

// Payload tree conventions shared with the worker: tensor leaves are objects
// carrying a "_type": "tensor" marker; statistics computed by a later inspect
// are embedded under the leaf's "stats" key.
const (
	TypeKey    = "_type"
	TensorType = "tensor"
	StatsKey   = "stats"
)

// Tree is the analysis payload: the worker's JSON structure summary, decoded
// generically. Objects are maps, sequences are []any, tensor leaves are
// objects with the tensor type marker.
type Tree map[string]any

// nodeAt walks the tree along the key path. List elements are addressed by
// their decimal index.
func (t Tree) nodeAt(keyPath []string) (any, error) {
	var current any = map[string]any(t)
	for _, key := range keyPath {
		switch node := current.(type) {
		case map[string]any:
			child, ok := node[key]
			if !ok {
				return nil, zerr.With(ErrPathNotFound, "key", key)
			}
			current = child
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, zerr.With(ErrPathNotFound, "index", key)
			}
			current = node[idx]
		default:
			return nil, zerr.With(ErrPathNotFound, "key", key)
		}
	}
	return current, nil
}

// StatsAt returns the statistics already embedded at the element addressed by
// keyPath, if any. A hit here means an inspect request can be answered
// without touching the worker.
func (t Tree) StatsAt(keyPath []string) (Tree, bool) {
	node, err := t.nodeAt(keyPath)
	if err != nil {
		return nil, false
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return nil, false
	}
	stats, ok := obj[StatsKey].(map[string]any)
	if !ok {
		return nil, false
	}
	return Tree(stats), true
}

// MergeAt embeds stats under the element addressed by keyPath, in place. The
// rest of the tree is untouched; only object nodes can receive a sub-result.
func (t Tree) MergeAt(keyPath []string, stats Tree) error {
	node, err := t.nodeAt(keyPath)
	if err != nil {
		return err
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return zerr.With(ErrNotMergeable, "depth", len(keyPath))
	}
	obj[StatsKey] = map[string]any(stats)
	return nil
}
