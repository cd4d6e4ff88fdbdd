// v1
// internal/config/config.go
package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures all runtime settings required by the insight
// service. Values can be provided by environment variables, a
// properties file, or fall back to sensible defaults so the service
// can boot with minimal setup.
type Config struct {
	// ListenAddress defines the TCP address used by the HTTP server.
	ListenAddress string
	// DataPath is the directory holding the behavior twin JSONL files.
	DataPath string
	// BehaviorFile is the filename of the monthly behavior feed.
	BehaviorFile string
	// IntelFile is the filename of the daily intelligence feed.
	IntelFile string
	// LogFilePath is the path of the log file sink.
	LogFilePath string
	// HTTPReadTimeout bounds the time to read incoming requests.
	HTTPReadTimeout time.Duration
	// HTTPWriteTimeout bounds the time to write responses.
	HTTPWriteTimeout time.Duration
	// ShutdownTimeout limits graceful shutdown attempts.
	ShutdownTimeout time.Duration
	// CacheTTL controls how long behavior summaries stay cached.
	CacheTTL time.Duration
	// PropertiesPath records the path used to load property values.
	PropertiesPath string
	// ModelVersion is reported in simulation result metadata.
	ModelVersion string
	// SensitivePersonas lists the price-sensitive persona tier.
	SensitivePersonas []string
	// IngestEnabled turns the Kafka behavior ingest on.
	IngestEnabled bool
	// KafkaBrokers lists the bootstrap brokers for the behavior topic.
	KafkaBrokers []string
	// BehaviorTopic identifies the stream carrying behavior records.
	BehaviorTopic string
	// BehaviorGroupID is the consumer group used for checkpointing.
	BehaviorGroupID string
	// IngestPollTimeout bounds the duration spent waiting for messages.
	IngestPollTimeout time.Duration
}

const (
	defaultListenAddress = ":8000"
	defaultDataPath      = "data"
	defaultBehaviorFile  = "behavior_twin_monthly.jsonl"
	defaultIntelFile     = "daily_intel_report.jsonl"
	defaultLogFile       = "logs/insight.log"
	defaultReadTimeout   = 10 * time.Second
	defaultWriteTimeout  = 30 * time.Second
	defaultShutdown      = 10 * time.Second
	defaultCacheTTL      = 30 * time.Second
	defaultPropsPath     = "insight.properties"
	defaultModelVersion  = "1.0.0"
	defaultKafkaBrokers  = "kafka:9092"
	defaultTopic         = "cdp.behavior.monthly"
	defaultGroupID       = "insight-behavior"
	defaultPollTimeout   = 5 * time.Second
)

// Load resolves configuration by layering defaults, an optional
// properties file, and finally environment variables. The properties
// file location can be overridden with INSIGHT_PROPERTIES_PATH.
func Load() (Config, error) {
	cfg := Config{
		ListenAddress:     defaultListenAddress,
		DataPath:          defaultDataPath,
		BehaviorFile:      defaultBehaviorFile,
		IntelFile:         defaultIntelFile,
		LogFilePath:       filepath.Clean(defaultLogFile),
		HTTPReadTimeout:   defaultReadTimeout,
		HTTPWriteTimeout:  defaultWriteTimeout,
		ShutdownTimeout:   defaultShutdown,
		CacheTTL:          defaultCacheTTL,
		ModelVersion:      defaultModelVersion,
		KafkaBrokers:      splitAndTrim(defaultKafkaBrokers),
		BehaviorTopic:     defaultTopic,
		BehaviorGroupID:   defaultGroupID,
		IngestPollTimeout: defaultPollTimeout,
	}

	propsPath := strings.TrimSpace(os.Getenv("INSIGHT_PROPERTIES_PATH"))
	if propsPath == "" {
		propsPath = defaultPropsPath
	}
	cfg.PropertiesPath = propsPath

	if err := applyProperties(&cfg, propsPath); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// BehaviorPath resolves the full path of the behavior feed.
func (c Config) BehaviorPath() string {
	return filepath.Join(c.DataPath, c.BehaviorFile)
}

// IntelPath resolves the full path of the daily intelligence feed.
func (c Config) IntelPath() string {
	return filepath.Join(c.DataPath, c.IntelFile)
}

func applyProperties(cfg *Config, path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		// Close errors are ignored because configuration loading has
		// already completed and there is no logger available at this
		// stage of initialization.
		_ = f.Close()
	}()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, ";") {
			continue
		}
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid properties entry on line %d", line)
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if err := setProperty(cfg, key, value); err != nil {
			return fmt.Errorf("property %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read properties: %w", err)
	}
	return nil
}

func setProperty(cfg *Config, key, value string) error {
	switch key {
	case "listen_address":
		if value == "" {
			return errors.New("listen_address cannot be empty")
		}
		cfg.ListenAddress = value
	case "data_path":
		if value == "" {
			return errors.New("data_path cannot be empty")
		}
		cfg.DataPath = filepath.Clean(value)
	case "behavior_file":
		if value == "" {
			return errors.New("behavior_file cannot be empty")
		}
		cfg.BehaviorFile = value
	case "intel_file":
		if value == "" {
			return errors.New("intel_file cannot be empty")
		}
		cfg.IntelFile = value
	case "log_path":
		if value == "" {
			return errors.New("log_path cannot be empty")
		}
		cfg.LogFilePath = filepath.Clean(value)
	case "http_read_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.HTTPReadTimeout = d
	case "http_write_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.HTTPWriteTimeout = d
	case "shutdown_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.ShutdownTimeout = d
	case "cache_ttl_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.CacheTTL = d
	case "model_version":
		if value == "" {
			return errors.New("model_version cannot be empty")
		}
		cfg.ModelVersion = value
	case "sensitive_personas":
		cfg.SensitivePersonas = splitAndTrim(value)
	case "ingest_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid ingest_enabled: %w", err)
		}
		cfg.IngestEnabled = b
	case "kafka_brokers":
		brokers := splitAndTrim(value)
		if len(brokers) == 0 {
			return errors.New("kafka_brokers cannot be empty")
		}
		cfg.KafkaBrokers = brokers
	case "behavior_topic":
		if value == "" {
			return errors.New("behavior_topic cannot be empty")
		}
		cfg.BehaviorTopic = value
	case "behavior_group_id":
		if value == "" {
			return errors.New("behavior_group_id cannot be empty")
		}
		cfg.BehaviorGroupID = value
	case "ingest_poll_timeout_ms":
		d, err := parsePositiveMillis(value)
		if err != nil {
			return err
		}
		cfg.IngestPollTimeout = d
	default:
		// Unknown keys are ignored to keep the loader forward-compatible.
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v, ok := lookupEnvTrimmed("INSIGHT_LISTEN_ADDRESS"); ok {
		if v == "" {
			return errors.New("INSIGHT_LISTEN_ADDRESS cannot be empty")
		}
		cfg.ListenAddress = v
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_DATA_PATH"); ok {
		if v == "" {
			return errors.New("INSIGHT_DATA_PATH cannot be empty")
		}
		cfg.DataPath = filepath.Clean(v)
	} else if v, ok := lookupEnvTrimmed("DATA_PATH"); ok {
		if v == "" {
			return errors.New("DATA_PATH cannot be empty")
		}
		cfg.DataPath = filepath.Clean(v)
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_BEHAVIOR_FILE"); ok {
		if v == "" {
			return errors.New("INSIGHT_BEHAVIOR_FILE cannot be empty")
		}
		cfg.BehaviorFile = v
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_INTEL_FILE"); ok {
		if v == "" {
			return errors.New("INSIGHT_INTEL_FILE cannot be empty")
		}
		cfg.IntelFile = v
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_LOG_PATH"); ok {
		if v == "" {
			return errors.New("INSIGHT_LOG_PATH cannot be empty")
		}
		cfg.LogFilePath = filepath.Clean(v)
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_HTTP_READ_TIMEOUT_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("INSIGHT_HTTP_READ_TIMEOUT_MS: %w", err)
		}
		cfg.HTTPReadTimeout = d
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_HTTP_WRITE_TIMEOUT_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("INSIGHT_HTTP_WRITE_TIMEOUT_MS: %w", err)
		}
		cfg.HTTPWriteTimeout = d
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_SHUTDOWN_TIMEOUT_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("INSIGHT_SHUTDOWN_TIMEOUT_MS: %w", err)
		}
		cfg.ShutdownTimeout = d
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_CACHE_TTL_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("INSIGHT_CACHE_TTL_MS: %w", err)
		}
		cfg.CacheTTL = d
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_MODEL_VERSION"); ok {
		if v == "" {
			return errors.New("INSIGHT_MODEL_VERSION cannot be empty")
		}
		cfg.ModelVersion = v
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_SENSITIVE_PERSONAS"); ok {
		cfg.SensitivePersonas = splitAndTrim(v)
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_INGEST_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("INSIGHT_INGEST_ENABLED: %w", err)
		}
		cfg.IngestEnabled = b
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_KAFKA_BROKERS"); ok {
		brokers := splitAndTrim(v)
		if len(brokers) == 0 {
			return errors.New("INSIGHT_KAFKA_BROKERS cannot be empty")
		}
		cfg.KafkaBrokers = brokers
	} else if v, ok := lookupEnvTrimmed("KAFKA_BROKERS"); ok {
		brokers := splitAndTrim(v)
		if len(brokers) == 0 {
			return errors.New("KAFKA_BROKERS cannot be empty")
		}
		cfg.KafkaBrokers = brokers
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_BEHAVIOR_TOPIC"); ok {
		if v == "" {
			return errors.New("INSIGHT_BEHAVIOR_TOPIC cannot be empty")
		}
		cfg.BehaviorTopic = v
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_BEHAVIOR_GROUP"); ok {
		if v == "" {
			return errors.New("INSIGHT_BEHAVIOR_GROUP cannot be empty")
		}
		cfg.BehaviorGroupID = v
	}
	if v, ok := lookupEnvTrimmed("INSIGHT_INGEST_POLL_TIMEOUT_MS"); ok {
		d, err := parsePositiveMillis(v)
		if err != nil {
			return fmt.Errorf("INSIGHT_INGEST_POLL_TIMEOUT_MS: %w", err)
		}
		cfg.IngestPollTimeout = d
	}
	return nil
}

func lookupEnvTrimmed(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(v), true
}

func splitAndTrim(raw string) []string {
	fields := strings.Split(raw, ",")
	out := make([]string, 0, len(fields))
	for _, field := range fields {
		trimmed := strings.TrimSpace(field)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePositiveMillis(v string) (time.Duration, error) {
	if strings.TrimSpace(v) == "" {
		return 0, errors.New("value cannot be empty")
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid integer: %w", err)
	}
	if ms <= 0 {
		return 0, errors.New("value must be greater than zero")
	}
	return time.Duration(ms) * time.Millisecond, nil
}
