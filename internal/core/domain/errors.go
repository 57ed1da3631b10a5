package domain

import "go.trai.ch/zerr"

var (
	// ErrWorkerStartup is returned when the worker process fails before emitting
	// its startup handshake. The captured stderr text is attached as context.
	ErrWorkerStartup = zerr.New("worker failed to start")

	// ErrStartupTimeout is returned when the worker does not emit its startup
	// handshake within the configured bound. The caller may retry.
	ErrStartupTimeout = zerr.New("worker did not start within timeout")

	// ErrRequestTimeout is returned when the worker is alive but a single
	// request does not complete within the configured request timeout.
	ErrRequestTimeout = zerr.New("worker request timed out")

	// ErrTransport is returned on a connection-level failure talking to the
	// worker, including non-2xx status codes.
	ErrTransport = zerr.New("worker transport failure")

	// ErrApplication is returned when the worker responds successfully but
	// reports a semantic failure in its JSON error field.
	ErrApplication = zerr.New("worker reported an error")

	// ErrEnvironmentChanged rejects promises orphaned by an environment switch
	// that cleared the queue while their tasks were still pending.
	ErrEnvironmentChanged = zerr.New("environment changed before request completed")

	// ErrUnknownEnvironment is returned when a switch targets an environment
	// name that is not defined in the configuration.
	ErrUnknownEnvironment = zerr.New("unknown environment")

	// ErrResourceStat is returned when the target file cannot be stat'd to
	// compute its fingerprint.
	ErrResourceStat = zerr.New("failed to stat resource")

	// ErrCacheMiss is returned when a requested entry is not in the result store.
	ErrCacheMiss = zerr.New("cache miss")

	// ErrStoreReadFailed is returned when a cache document cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read cache entry")

	// ErrStoreWriteFailed is returned when a cache document cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write cache entry")

	// ErrStoreDecodeFailed is returned when a cache document cannot be decoded.
	ErrStoreDecodeFailed = zerr.New("failed to decode cache entry")

	// ErrStoreEncodeFailed is returned when a cache document cannot be encoded.
	ErrStoreEncodeFailed = zerr.New("failed to encode cache entry")

	// ErrPathNotFound is returned when a key path does not address a node in
	// the cached payload tree.
	ErrPathNotFound = zerr.New("key path not found in payload tree")

	// ErrNotMergeable is returned when the node addressed by a key path is not
	// an object and cannot receive a merged sub-result.
	ErrNotMergeable = zerr.New("addressed node cannot hold a sub-result")

	// ErrConfigNotFound is returned when no ckpt.yaml is found walking up from
	// the working directory.
	ErrConfigNotFound = zerr.New("could not find ckpt.yaml")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrInvalidMode is returned when a viewing mode is neither auto nor local.
	ErrInvalidMode = zerr.New("invalid viewing mode, expected 'auto' or 'local'")

	// ErrGatewayListenFailed is returned when the gateway cannot bind its
	// loopback listener.
	ErrGatewayListenFailed = zerr.New("failed to listen on loopback")
)
