package domain

import "context"

// TaskKind classifies a scheduled unit of work against the worker.
type TaskKind string

const (
	// TaskLoad analyzes the full structure of a resource.
	TaskLoad TaskKind = "load"
	// TaskRelease frees the worker's in-memory state for a resource.
	TaskRelease TaskKind = "release"
	// TaskInspect computes statistics for one element inside a resource.
	TaskInspect TaskKind = "inspect"
)

// Mode is the viewing mode for a load request. Two modes over the same
// resource yield different results, so mode is part of both the cache
// fingerprint and the load request key.
type Mode string

const (
	// ModeAuto lets the worker consult a sharded checkpoint's global index
	// when one sits next to the resource.
	ModeAuto Mode = "auto"
	// ModeLocal restricts analysis to the addressed file only.
	ModeLocal Mode = "local"
)

// ParseMode validates a mode string.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModeLocal:
		return Mode(s), nil
	default:
		return "", ErrInvalidMode
	}
}

// RequestKey is the deduplication identity of a request. For loads it carries
// the viewing mode; for other kinds the resource alone identifies the request.
type RequestKey struct {
	Resource InternedString
	Kind     TaskKind
	Mode     Mode
}

// LoadKey builds the request key for a load of resource under mode.
func LoadKey(resource string, mode Mode) RequestKey {
	return RequestKey{Resource: NewInternedString(resource), Kind: TaskLoad, Mode: mode}
}

// ReleaseKey builds the request key for a release of resource.
func ReleaseKey(resource string) RequestKey {
	return RequestKey{Resource: NewInternedString(resource), Kind: TaskRelease}
}

// InspectKey builds the request key for an inspect of one element of resource.
// The encoded key path distinguishes concurrent inspects of different elements.
func InspectKey(resource, encodedPath string) RequestKey {
	return RequestKey{
		Resource: NewInternedString(resource + "\x00" + encodedPath),
		Kind:     TaskInspect,
	}
}

// Result is the value a task's promise resolves to.
type Result struct {
	// Global reports that the worker answered from a sharded checkpoint's
	// global index rather than the single addressed file.
	Global bool `json:"is_global"`
	// Data is the payload tree.
	Data Tree `json:"data"`
}

// Task is one unit of serialized work against the worker process. Tasks for
// the same worker generation execute strictly one at a time, in FIFO order.
type Task struct {
	Kind     TaskKind
	Resource InternedString
	Key      RequestKey

	// Action performs the actual worker call. It runs on the scheduler's
	// drain goroutine with the environment current at execution time.
	Action func(ctx context.Context, env Environment) (*Result, error)
}
