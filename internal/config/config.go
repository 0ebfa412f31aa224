package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Stage selections.
const (
	StagesAll     = "all"
	StagesTabular = "l0a"
	StagesGridded = "l0b"
)

// LogFileDisabled turns the rotating log file off when set as LOG_FILE.
const LogFileDisabled = "none"

// Config holds all run settings, populated from environment variables.
type Config struct {
	RawDir       string
	ProcessedDir string
	Stations     []string

	Force         bool
	Verbose       bool
	Parallel      bool
	DebuggingMode bool
	Workers       int
	Stages        string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	LogFile         string
	ShutdownTimeout time.Duration

	// Station event sink. Disabled when no brokers are set.
	KafkaBrokers     []string
	KafkaEventsTopic string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	var errs []error
	parseBool := func(key string) bool {
		v := os.Getenv(key)
		if v == "" {
			return false
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q", key, v))
		}
		return b
	}

	cfg := &Config{
		RawDir:           os.Getenv("RAW_DIR"),
		ProcessedDir:     os.Getenv("PROCESSED_DIR"),
		Stations:         parseList(os.Getenv("STATIONS")),
		Force:            parseBool("FORCE"),
		Verbose:          parseBool("VERBOSE"),
		Parallel:         parseBool("PARALLEL"),
		DebuggingMode:    parseBool("DEBUGGING_MODE"),
		Stages:           strings.ToLower(sharedcfg.EnvOrDefault("STAGES", StagesAll)),
		HTTPAddr:         os.Getenv("HTTP_ADDR"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:  shutdownTimeout,
		KafkaEventsTopic: sharedcfg.EnvOrDefault("KAFKA_EVENTS_TOPIC", "disdro-l0-station-events"),
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = sharedcfg.ParseBrokers(v)
	}

	cfg.Workers = runtime.NumCPU()
	if v := os.Getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 256 {
			errs = append(errs, fmt.Errorf("invalid WORKERS %q: must be between 1 and 256", v))
		}
		cfg.Workers = n
	}

	switch cfg.Stages {
	case StagesAll, StagesTabular, StagesGridded:
	default:
		errs = append(errs, fmt.Errorf("invalid STAGES %q: must be one of all, l0a, l0b", cfg.Stages))
	}

	if cfg.RawDir == "" {
		errs = append(errs, errors.New("RAW_DIR is required"))
	}
	if cfg.ProcessedDir == "" {
		errs = append(errs, errors.New("PROCESSED_DIR is required"))
	}
	if cfg.RawDir != "" && cfg.ProcessedDir != "" && filepath.Clean(cfg.RawDir) == filepath.Clean(cfg.ProcessedDir) {
		errs = append(errs, errors.New("RAW_DIR and PROCESSED_DIR must differ"))
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaEventsTopic == "" {
		errs = append(errs, errors.New("KAFKA_EVENTS_TOPIC is required when KAFKA_BROKERS is set"))
	}

	switch v := os.Getenv("LOG_FILE"); v {
	case "":
		if cfg.ProcessedDir != "" {
			cfg.LogFile = filepath.Join(cfg.ProcessedDir, "logs", "disdro-l0.log")
		}
	case LogFileDisabled:
	default:
		cfg.LogFile = v
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseList splits a comma or whitespace separated list.
func parseList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
