package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/riskibarqy/sports-viewing/internal/platform/logging"
)

const (
	DatasetSourceMemory   = "memory"
	DatasetSourceCSV      = "csv"
	DatasetSourcePostgres = "postgres"

	RightsSourceStatic = "static"
	RightsSourceHTTP   = "http"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	LogLevel           logging.Level
	CORSAllowedOrigins []string
	InternalJobToken   string

	DatasetSource           string
	DatasetCSVPath          string
	DatasetRefreshInterval  time.Duration
	DBURL                   string
	DBDisablePreparedBinary bool

	RightsSource                string
	RightsCatalogPath           string
	RightsMLBBaseURL            string
	RightsNBABaseURL            string
	RightsNHLBaseURL            string
	RightsAPIToken              string
	RightsTimeout               time.Duration
	RightsMaxRetries            int
	RightsCircuitEnabled        bool
	RightsCircuitFailureCount   int
	RightsCircuitOpenTimeout    time.Duration
	RightsCircuitHalfOpenMaxReq int
	RightsBatchWorkers          int
	RightsBatchMaxGames         int

	MetricsEnabled             bool
	PprofEnabled               bool
	PprofAddr                  string
	UptraceEnabled             bool
	UptraceDSN                 string
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
}

// LoadDotEnv seeds the process environment from the given files. Missing
// files are skipped; variables already set win over file values.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:             appEnv,
		ServiceName:        getEnv("APP_SERVICE_NAME", "sports-viewing-api"),
		ServiceVersion:     getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:           strings.TrimSpace(getEnv("APP_HTTP_ADDR", ":8080")),
		LogLevel:           logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		InternalJobToken:   strings.TrimSpace(getEnv("INTERNAL_JOB_TOKEN", "")),
	}
	if cfg.HTTPAddr == "" {
		return Config{}, fmt.Errorf("APP_HTTP_ADDR cannot be empty")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	if cfg.ReadTimeout, err = positiveDuration("APP_READ_TIMEOUT", "10s"); err != nil {
		return Config{}, err
	}
	if cfg.WriteTimeout, err = positiveDuration("APP_WRITE_TIMEOUT", "15s"); err != nil {
		return Config{}, err
	}

	if err := loadDataset(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadRights(&cfg); err != nil {
		return Config{}, err
	}
	if err := loadObservability(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadDatabase reads only the database settings, for tools such as the
// migration runner that do not serve traffic.
func LoadDatabase() (Config, error) {
	cfg := Config{
		LogLevel: logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		DBURL:    strings.TrimSpace(getEnv("DB_URL", "")),
	}
	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}

	var err error
	cfg.DBDisablePreparedBinary, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	return cfg, nil
}

func loadDataset(cfg *Config) error {
	source := strings.ToLower(strings.TrimSpace(getEnv("DATASET_SOURCE", DatasetSourceMemory)))
	switch source {
	case DatasetSourceMemory, DatasetSourceCSV, DatasetSourcePostgres:
	default:
		return fmt.Errorf("invalid DATASET_SOURCE %q: valid values are %s, %s, %s", source, DatasetSourceMemory, DatasetSourceCSV, DatasetSourcePostgres)
	}
	cfg.DatasetSource = source

	cfg.DatasetCSVPath = strings.TrimSpace(getEnv("DATASET_CSV_PATH", ""))
	if source == DatasetSourceCSV && cfg.DatasetCSVPath == "" {
		return fmt.Errorf("DATASET_CSV_PATH is required when DATASET_SOURCE=csv")
	}

	refresh, err := time.ParseDuration(getEnv("DATASET_REFRESH_INTERVAL", "0s"))
	if err != nil {
		return fmt.Errorf("parse DATASET_REFRESH_INTERVAL: %w", err)
	}
	if refresh < 0 {
		return fmt.Errorf("DATASET_REFRESH_INTERVAL must be >= 0")
	}
	cfg.DatasetRefreshInterval = refresh

	cfg.DBURL = strings.TrimSpace(getEnv("DB_URL", ""))
	if source == DatasetSourcePostgres && cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required when DATASET_SOURCE=postgres")
	}
	cfg.DBDisablePreparedBinary, err = strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}

	return nil
}

func loadRights(cfg *Config) error {
	source := strings.ToLower(strings.TrimSpace(getEnv("RIGHTS_SOURCE", RightsSourceStatic)))
	switch source {
	case RightsSourceStatic, RightsSourceHTTP:
	default:
		return fmt.Errorf("invalid RIGHTS_SOURCE %q: valid values are %s, %s", source, RightsSourceStatic, RightsSourceHTTP)
	}
	cfg.RightsSource = source
	cfg.RightsCatalogPath = strings.TrimSpace(getEnv("RIGHTS_CATALOG_PATH", ""))
	cfg.RightsMLBBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("RIGHTS_MLB_BASE_URL", "")), "/")
	cfg.RightsNBABaseURL = strings.TrimRight(strings.TrimSpace(getEnv("RIGHTS_NBA_BASE_URL", "")), "/")
	cfg.RightsNHLBaseURL = strings.TrimRight(strings.TrimSpace(getEnv("RIGHTS_NHL_BASE_URL", "")), "/")
	cfg.RightsAPIToken = strings.TrimSpace(getEnv("RIGHTS_API_TOKEN", ""))

	if source == RightsSourceHTTP {
		for key, value := range map[string]string{
			"RIGHTS_MLB_BASE_URL": cfg.RightsMLBBaseURL,
			"RIGHTS_NBA_BASE_URL": cfg.RightsNBABaseURL,
			"RIGHTS_NHL_BASE_URL": cfg.RightsNHLBaseURL,
		} {
			if value == "" {
				return fmt.Errorf("%s is required when RIGHTS_SOURCE=http", key)
			}
		}
	}

	var err error
	if cfg.RightsTimeout, err = positiveDuration("RIGHTS_TIMEOUT", "5s"); err != nil {
		return err
	}
	if cfg.RightsMaxRetries, err = getEnvAsInt("RIGHTS_MAX_RETRIES", 2); err != nil {
		return fmt.Errorf("parse RIGHTS_MAX_RETRIES: %w", err)
	}
	if cfg.RightsMaxRetries < 0 {
		return fmt.Errorf("RIGHTS_MAX_RETRIES must be >= 0")
	}
	if cfg.RightsCircuitEnabled, err = strconv.ParseBool(getEnv("RIGHTS_CIRCUIT_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse RIGHTS_CIRCUIT_ENABLED: %w", err)
	}
	if cfg.RightsCircuitFailureCount, err = atLeastOne("RIGHTS_CIRCUIT_FAILURE_COUNT", 5); err != nil {
		return err
	}
	if cfg.RightsCircuitOpenTimeout, err = positiveDuration("RIGHTS_CIRCUIT_OPEN_TIMEOUT", "15s"); err != nil {
		return err
	}
	if cfg.RightsCircuitHalfOpenMaxReq, err = atLeastOne("RIGHTS_CIRCUIT_HALF_OPEN_MAX_REQ", 2); err != nil {
		return err
	}
	if cfg.RightsBatchWorkers, err = atLeastOne("RIGHTS_BATCH_WORKERS", 4); err != nil {
		return err
	}
	if cfg.RightsBatchMaxGames, err = atLeastOne("RIGHTS_BATCH_MAX_GAMES", 25); err != nil {
		return err
	}

	return nil
}

func loadObservability(cfg *Config) error {
	var err error
	if cfg.MetricsEnabled, err = strconv.ParseBool(getEnv("METRICS_ENABLED", "true")); err != nil {
		return fmt.Errorf("parse METRICS_ENABLED: %w", err)
	}

	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if cfg.UptraceEnabled && cfg.UptraceDSN == "" {
		return fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}

	if cfg.PprofEnabled, err = strconv.ParseBool(getEnv("PPROF_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	cfg.PprofAddr = strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if cfg.PprofEnabled && cfg.PprofAddr == "" {
		return fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	if cfg.PyroscopeEnabled, err = strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false")); err != nil {
		return fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	cfg.PyroscopeServerAddress = strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if cfg.PyroscopeEnabled && cfg.PyroscopeServerAddress == "" {
		return fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	cfg.PyroscopeAuthToken = strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", ""))
	cfg.PyroscopeBasicAuthUser = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", ""))
	cfg.PyroscopeBasicAuthPassword = strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", ""))
	if cfg.PyroscopeUploadRate, err = positiveDuration("PYROSCOPE_UPLOAD_RATE", "15s"); err != nil {
		return err
	}

	return nil
}

func positiveDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
}

func atLeastOne(key string, fallback int) (int, error) {
	value, err := getEnvAsInt(key, fallback)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value < 1 {
		return 0, fmt.Errorf("%s must be >= 1", key)
	}
	return value, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
