package domain

import "path/filepath"

const (
	// CkptDirName is the name of the internal metadata directory.
	CkptDirName = ".ckpt"

	// CacheDirName is the name of the result cache directory.
	CacheDirName = "cache"

	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "ckpt.yaml"

	// WorkerLogFile is the name of the worker diagnostic log file.
	WorkerLogFile = "worker.log"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// PrivateFilePerm is the default permission for private files (rw-------).
	PrivateFilePerm = 0o600
)

// DefaultCachePath returns the default path for the result cache, relative to
// the project root.
func DefaultCachePath() string {
	return filepath.Join(CkptDirName, CacheDirName)
}

// DefaultWorkerLogPath returns the default path for the worker log.
func DefaultWorkerLogPath() string {
	return filepath.Join(CkptDirName, WorkerLogFile)
}
