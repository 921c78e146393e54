package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	RuntimeLocal  = "local"
	RuntimeDocker = "docker"
)

type Config struct {
	OLLAMAHost  string            `yaml:"ollama_host"`
	OLLAMAModel string            `yaml:"ollama_model"`
	Python      string            `yaml:"python"`
	CC          string            `yaml:"cc"`
	CXX         string            `yaml:"cxx"`
	TempDir     string            `yaml:"temp_dir"`
	Runtime     string            `yaml:"runtime"`
	ExecTimeout time.Duration     `yaml:"exec_timeout"`
	MaxMemoryMB int               `yaml:"max_memory_mb"`
	Images      map[string]string `yaml:"images"`
	Addr        string            `yaml:"addr"`
	LogLevel    string            `yaml:"log_level"`
}

func Default() Config {
	return Config{
		OLLAMAHost:  "http://localhost:11434",
		OLLAMAModel: "deepseek-coder-v2:latest",
		Python:      "python",
		CC:          "gcc",
		CXX:         "g++",
		Runtime:     RuntimeLocal,
		MaxMemoryMB: 256,
		Images: map[string]string{
			"python": "python:3.12-slim",
			"c":      "gcc:14",
			"c++":    "gcc:14",
		},
		Addr:     ":8080",
		LogLevel: "info",
	}
}

// LoadConfig merges defaults, the optional YAML file named by
// CODEREVIEW_CONFIG, and environment variables, in that order.
func LoadConfig() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CODEREVIEW_CONFIG"); path != "" {
		if err := mergeFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	if file.OLLAMAHost != "" {
		cfg.OLLAMAHost = file.OLLAMAHost
	}
	if file.OLLAMAModel != "" {
		cfg.OLLAMAModel = file.OLLAMAModel
	}
	if file.Python != "" {
		cfg.Python = file.Python
	}
	if file.CC != "" {
		cfg.CC = file.CC
	}
	if file.CXX != "" {
		cfg.CXX = file.CXX
	}
	if file.TempDir != "" {
		cfg.TempDir = file.TempDir
	}
	if file.Runtime != "" {
		cfg.Runtime = file.Runtime
	}
	if file.ExecTimeout != 0 {
		cfg.ExecTimeout = file.ExecTimeout
	}
	if file.MaxMemoryMB != 0 {
		cfg.MaxMemoryMB = file.MaxMemoryMB
	}
	for lang, image := range file.Images {
		cfg.Images[lang] = image
	}
	if file.Addr != "" {
		cfg.Addr = file.Addr
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	return nil
}

func mergeEnv(cfg *Config) error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setString("OLLAMA_HOST", &cfg.OLLAMAHost)
	setString("OLLAMA_MODEL", &cfg.OLLAMAModel)
	setString("CODEREVIEW_PYTHON", &cfg.Python)
	setString("CODEREVIEW_CC", &cfg.CC)
	setString("CODEREVIEW_CXX", &cfg.CXX)
	setString("CODEREVIEW_TEMP_DIR", &cfg.TempDir)
	setString("CODEREVIEW_RUNTIME", &cfg.Runtime)
	setString("CODEREVIEW_ADDR", &cfg.Addr)
	setString("CODEREVIEW_LOG_LEVEL", &cfg.LogLevel)

	if v := os.Getenv("CODEREVIEW_EXEC_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid CODEREVIEW_EXEC_TIMEOUT: %w", err)
		}
		cfg.ExecTimeout = d
	}
	if v := os.Getenv("CODEREVIEW_MAX_MEMORY_MB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid CODEREVIEW_MAX_MEMORY_MB: %w", err)
		}
		cfg.MaxMemoryMB = n
	}
	return nil
}

func (c Config) Validate() error {
	switch c.Runtime {
	case RuntimeLocal, RuntimeDocker:
	default:
		return fmt.Errorf("unknown runtime %q (expected %s or %s)", c.Runtime, RuntimeLocal, RuntimeDocker)
	}
	if c.OLLAMAModel == "" {
		return fmt.Errorf("ollama model must not be empty")
	}
	if c.ExecTimeout < 0 {
		return fmt.Errorf("exec timeout must not be negative")
	}
	if c.MaxMemoryMB < 0 {
		return fmt.Errorf("max memory must not be negative")
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
