package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/forma-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// File mode: read bundles from SourceDir and write record files to
	// SinkDir instead of using Kafka.
	SourceDir string
	SinkDir   string
	Watch     bool

	// FORMA job parameters.
	Job Job
}

// Job is the FORMA parameter set. Field tags name the keys of the optional
// YAML job file.
type Job struct {
	EstStart     string  `yaml:"est_start"`
	EstEnd       string  `yaml:"est_end"`
	TRes         string  `yaml:"t_res"`
	Neighbors    int     `yaml:"neighbors"`
	WindowDims   []int   `yaml:"window_dims"`
	VCFLimit     float64 `yaml:"vcf_limit"`
	LongBlock    int     `yaml:"long_block"`
	Window       int     `yaml:"window"`
	MissingValue float64 `yaml:"missing_value"`
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	job, err := LoadJob()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "forma-tile-bundles"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "forma-pixel-records"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "forma-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,
		SourceDir:          os.Getenv("FORMA_SOURCE_DIR"),
		SinkDir:            sharedcfg.EnvOrDefault("FORMA_SINK_DIR", "records"),
		Watch:              os.Getenv("FORMA_WATCH") == "true",
		Job:                job,
	}

	if cfg.FileMode() {
		return cfg, nil
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

// FileMode reports whether bundles come from a directory rather than Kafka.
func (c *Config) FileMode() bool { return c.SourceDir != "" }

// LoadJob reads the FORMA parameters from FORMA_* environment variables. When
// FORMA_JOB_FILE is set, keys present in that file take precedence. The
// result is validated.
func LoadJob() (Job, error) {
	job := Job{
		EstStart: sharedcfg.EnvOrDefault("FORMA_EST_START", "2005-12-19"),
		EstEnd:   sharedcfg.EnvOrDefault("FORMA_EST_END", "2006-12-19"),
		TRes:     sharedcfg.EnvOrDefault("FORMA_T_RES", "16"),
	}

	var err error
	if job.Neighbors, err = envInt("FORMA_NEIGHBORS", 1); err != nil {
		return Job{}, err
	}
	if job.WindowDims, err = envInts("FORMA_WINDOW_DIMS", "600"); err != nil {
		return Job{}, err
	}
	if job.VCFLimit, err = envFloat("FORMA_VCF_LIMIT", 25); err != nil {
		return Job{}, err
	}
	if job.LongBlock, err = envInt("FORMA_LONG_BLOCK", 30); err != nil {
		return Job{}, err
	}
	if job.Window, err = envInt("FORMA_WINDOW", 10); err != nil {
		return Job{}, err
	}
	if job.MissingValue, err = envFloat("FORMA_MISSING_VALUE", domain.DefaultMissingValue); err != nil {
		return Job{}, err
	}

	if path := os.Getenv("FORMA_JOB_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Job{}, fmt.Errorf("read FORMA_JOB_FILE: %w", err)
		}
		if err := yaml.Unmarshal(data, &job); err != nil {
			return Job{}, fmt.Errorf("parse FORMA_JOB_FILE: %w", err)
		}
	}

	if err := job.Params().Validate(); err != nil {
		return Job{}, fmt.Errorf("invalid FORMA job parameters: %w", err)
	}
	return job, nil
}

// Params returns the domain parameter set for this job.
func (j Job) Params() domain.Params {
	return domain.Params{
		EstStart:     j.EstStart,
		EstEnd:       j.EstEnd,
		TRes:         j.TRes,
		Neighbors:    j.Neighbors,
		WindowDims:   append([]int(nil), j.WindowDims...),
		VCFLimit:     j.VCFLimit,
		LongBlock:    j.LongBlock,
		Window:       j.Window,
		MissingValue: j.MissingValue,
	}
}

// Params returns the domain parameter set for the configured job.
func (c *Config) Params() domain.Params {
	return c.Job.Params()
}

func envInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

// envInts parses a comma-separated list such as "600" or "600,400".
func envInts(key, def string) ([]int, error) {
	s := sharedcfg.EnvOrDefault(key, def)
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %q", key, s)
		}
		out = append(out, n)
	}
	return out, nil
}
