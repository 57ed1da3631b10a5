package config

// File represents the structure of the ckpt.yaml configuration file.
type File struct {
	Version            string                    `yaml:"version"`
	Worker             WorkerDTO                 `yaml:"worker"`
	Environments       map[string]EnvironmentDTO `yaml:"environments"`
	DefaultEnvironment string                    `yaml:"default_environment"`
	Cache              CacheDTO                  `yaml:"cache"`
	Gateway            GatewayDTO                `yaml:"gateway"`
}

// WorkerDTO describes the analysis worker.
type WorkerDTO struct {
	Script         string `yaml:"script"`
	StartupTimeout string `yaml:"startup_timeout"`
	RequestTimeout string `yaml:"request_timeout"`
}

// EnvironmentDTO describes one selectable execution environment.
type EnvironmentDTO struct {
	Interpreter string `yaml:"interpreter"`
}

// CacheDTO describes the result cache.
type CacheDTO struct {
	Dir           string `yaml:"dir"`
	MemoryEntries int    `yaml:"memory_entries"`
}

// GatewayDTO describes the serve mode.
type GatewayDTO struct {
	IdleTimeout string `yaml:"idle_timeout"`
}
