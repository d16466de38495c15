package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/betania/sportsync/internal/platform/logging"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv                     string
	ServiceName                string
	ServiceVersion             string
	HTTPAddr                   string
	DBURL                      string
	DBDisablePreparedBinary    bool
	CORSAllowedOrigins         []string
	ReadTimeout                time.Duration
	WriteTimeout               time.Duration
	PprofEnabled               bool
	PprofAddr                  string
	SwaggerEnabled             bool
	ProxyBaseURL               string
	ProxyPath                  string
	ProxyAPIKey                string
	ProxyTimeout               time.Duration
	ProxyMaxRetries            int
	ProxyCircuitEnabled        bool
	ProxyCircuitFailureCount   int
	ProxyCircuitOpenTimeout    time.Duration
	ProxyCircuitHalfOpenMaxReq int
	CacheMaxEntries            int
	CacheSweepInterval         time.Duration
	PersistenceEnabled         bool
	DefaultLeagueID            int64
	SeasonReferenceYear        int
	RefreshInterval            time.Duration
	HealthCheckInterval        time.Duration
	BatchWindow                time.Duration
	BatchMaxWait               time.Duration
	MaxConcurrentRequests      int
	UptraceEnabled             bool
	UptraceDSN                 string
	UptraceLogsEnabled         bool
	UptraceCaptureRequestBody  bool
	UptraceRequestBodyMaxBytes int
	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration
	LogLevel                   logging.Level
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	swaggerDefault := "true"
	if appEnv == EnvProd {
		swaggerDefault = "false"
	}

	swaggerEnabled, err := strconv.ParseBool(getEnv("SWAGGER_ENABLED", swaggerDefault))
	if err != nil {
		return Config{}, fmt.Errorf("parse SWAGGER_ENABLED: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}

	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}
	uptraceCaptureRequestBody, err := strconv.ParseBool(getEnv("UPTRACE_CAPTURE_REQUEST_BODY", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_CAPTURE_REQUEST_BODY: %w", err)
	}
	uptraceRequestBodyMaxBytes, err := getEnvAsInt("UPTRACE_REQUEST_BODY_MAX_BYTES", 8192)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_REQUEST_BODY_MAX_BYTES: %w", err)
	}
	if uptraceRequestBodyMaxBytes <= 0 {
		return Config{}, fmt.Errorf("UPTRACE_REQUEST_BODY_MAX_BYTES must be > 0")
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))
	if pprofEnabled && pprofAddr == "" {
		return Config{}, fmt.Errorf("PPROF_ADDR is required when PPROF_ENABLED=true")
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := time.ParseDuration(getEnv("PYROSCOPE_UPLOAD_RATE", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_UPLOAD_RATE: %w", err)
	}
	if pyroscopeUploadRate <= 0 {
		return Config{}, fmt.Errorf("PYROSCOPE_UPLOAD_RATE must be > 0")
	}

	proxyTimeout, err := time.ParseDuration(getEnv("PROXY_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROXY_TIMEOUT: %w", err)
	}
	if proxyTimeout <= 0 {
		return Config{}, fmt.Errorf("PROXY_TIMEOUT must be > 0")
	}
	proxyMaxRetries, err := getEnvAsInt("PROXY_MAX_RETRIES", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROXY_MAX_RETRIES: %w", err)
	}
	if proxyMaxRetries < 0 {
		return Config{}, fmt.Errorf("PROXY_MAX_RETRIES must be >= 0")
	}
	proxyCircuitEnabled, err := strconv.ParseBool(getEnv("PROXY_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROXY_CIRCUIT_ENABLED: %w", err)
	}
	proxyCircuitFailureCount, err := getEnvAsInt("PROXY_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROXY_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if proxyCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("PROXY_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	proxyCircuitOpenTimeout, err := time.ParseDuration(getEnv("PROXY_CIRCUIT_OPEN_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PROXY_CIRCUIT_OPEN_TIMEOUT: %w", err)
	}
	if proxyCircuitOpenTimeout <= 0 {
		return Config{}, fmt.Errorf("PROXY_CIRCUIT_OPEN_TIMEOUT must be > 0")
	}
	proxyCircuitHalfOpenMaxReq, err := getEnvAsInt("PROXY_CIRCUIT_HALF_OPEN_MAX_REQ", 2)
	if err != nil {
		return Config{}, fmt.Errorf("parse PROXY_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if proxyCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("PROXY_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}
	proxyBaseURL := strings.TrimSpace(getEnv("PROXY_BASE_URL", ""))
	if proxyBaseURL == "" {
		return Config{}, fmt.Errorf("PROXY_BASE_URL is required")
	}

	cacheMaxEntries, err := getEnvAsInt("CACHE_MAX_ENTRIES", 50)
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_MAX_ENTRIES: %w", err)
	}
	if cacheMaxEntries < 1 {
		return Config{}, fmt.Errorf("CACHE_MAX_ENTRIES must be >= 1")
	}
	cacheSweepInterval, err := time.ParseDuration(getEnv("CACHE_SWEEP_INTERVAL", "1m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_SWEEP_INTERVAL: %w", err)
	}
	if cacheSweepInterval <= 0 {
		return Config{}, fmt.Errorf("CACHE_SWEEP_INTERVAL must be > 0")
	}
	persistenceEnabled, err := strconv.ParseBool(getEnv("CACHE_PERSISTENCE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CACHE_PERSISTENCE_ENABLED: %w", err)
	}
	dbURL := strings.TrimSpace(getEnv("DB_URL", ""))
	if persistenceEnabled && dbURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required when CACHE_PERSISTENCE_ENABLED=true")
	}

	defaultLeagueID, err := getEnvAsInt("DEFAULT_LEAGUE_ID", 71)
	if err != nil {
		return Config{}, fmt.Errorf("parse DEFAULT_LEAGUE_ID: %w", err)
	}
	if defaultLeagueID < 1 {
		return Config{}, fmt.Errorf("DEFAULT_LEAGUE_ID must be >= 1")
	}
	seasonReferenceYear, err := getEnvAsInt("SEASON_REFERENCE_YEAR", 2024)
	if err != nil {
		return Config{}, fmt.Errorf("parse SEASON_REFERENCE_YEAR: %w", err)
	}
	if seasonReferenceYear < 0 {
		return Config{}, fmt.Errorf("SEASON_REFERENCE_YEAR must be >= 0")
	}

	refreshInterval, err := time.ParseDuration(getEnv("SYNC_REFRESH_INTERVAL", "2m"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SYNC_REFRESH_INTERVAL: %w", err)
	}
	if refreshInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_REFRESH_INTERVAL must be > 0")
	}
	healthCheckInterval, err := time.ParseDuration(getEnv("HEALTH_CHECK_INTERVAL", "30s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse HEALTH_CHECK_INTERVAL: %w", err)
	}
	if healthCheckInterval <= 0 {
		return Config{}, fmt.Errorf("HEALTH_CHECK_INTERVAL must be > 0")
	}
	batchWindow, err := time.ParseDuration(getEnv("BATCH_WINDOW", "100ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BATCH_WINDOW: %w", err)
	}
	if batchWindow <= 0 {
		return Config{}, fmt.Errorf("BATCH_WINDOW must be > 0")
	}
	batchMaxWait, err := time.ParseDuration(getEnv("BATCH_MAX_WAIT", "300ms"))
	if err != nil {
		return Config{}, fmt.Errorf("parse BATCH_MAX_WAIT: %w", err)
	}
	if batchMaxWait < batchWindow {
		return Config{}, fmt.Errorf("BATCH_MAX_WAIT must be >= BATCH_WINDOW")
	}
	maxConcurrentRequests, err := getEnvAsInt("MAX_CONCURRENT_REQUESTS", 3)
	if err != nil {
		return Config{}, fmt.Errorf("parse MAX_CONCURRENT_REQUESTS: %w", err)
	}
	if maxConcurrentRequests < 1 {
		return Config{}, fmt.Errorf("MAX_CONCURRENT_REQUESTS must be >= 1")
	}

	cfg := Config{
		AppEnv:                     appEnv,
		ServiceName:                getEnv("APP_SERVICE_NAME", "sportsync-api"),
		ServiceVersion:             getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                   getEnv("APP_HTTP_ADDR", ":8080"),
		DBURL:                      dbURL,
		DBDisablePreparedBinary:    true,
		CORSAllowedOrigins:         splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		PprofEnabled:               pprofEnabled,
		PprofAddr:                  pprofAddr,
		SwaggerEnabled:             swaggerEnabled,
		ProxyBaseURL:               proxyBaseURL,
		ProxyPath:                  getEnv("PROXY_PATH", "/functions/v1/api-sports"),
		ProxyAPIKey:                strings.TrimSpace(getEnv("PROXY_API_KEY", "")),
		ProxyTimeout:               proxyTimeout,
		ProxyMaxRetries:            proxyMaxRetries,
		ProxyCircuitEnabled:        proxyCircuitEnabled,
		ProxyCircuitFailureCount:   proxyCircuitFailureCount,
		ProxyCircuitOpenTimeout:    proxyCircuitOpenTimeout,
		ProxyCircuitHalfOpenMaxReq: proxyCircuitHalfOpenMaxReq,
		CacheMaxEntries:            cacheMaxEntries,
		CacheSweepInterval:         cacheSweepInterval,
		PersistenceEnabled:         persistenceEnabled,
		DefaultLeagueID:            int64(defaultLeagueID),
		SeasonReferenceYear:        seasonReferenceYear,
		RefreshInterval:            refreshInterval,
		HealthCheckInterval:        healthCheckInterval,
		BatchWindow:                batchWindow,
		BatchMaxWait:               batchMaxWait,
		MaxConcurrentRequests:      maxConcurrentRequests,
		UptraceEnabled:             uptraceEnabled,
		UptraceDSN:                 uptraceDSN,
		UptraceLogsEnabled:         uptraceLogsEnabled,
		UptraceCaptureRequestBody:  uptraceCaptureRequestBody,
		UptraceRequestBodyMaxBytes: uptraceRequestBodyMaxBytes,
		PyroscopeEnabled:           pyroscopeEnabled,
		PyroscopeServerAddress:     pyroscopeServerAddress,
		PyroscopeAuthToken:         strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:     strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword: strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:        pyroscopeUploadRate,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}

	dbDisablePreparedBinary, err := strconv.ParseBool(getEnv("DB_DISABLE_PREPARED_BINARY_RESULT", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse DB_DISABLE_PREPARED_BINARY_RESULT: %w", err)
	}
	cfg.DBDisablePreparedBinary = dbDisablePreparedBinary

	readTimeout, err := time.ParseDuration(getEnv("APP_READ_TIMEOUT", "10s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_READ_TIMEOUT: %w", err)
	}

	writeTimeout, err := time.ParseDuration(getEnv("APP_WRITE_TIMEOUT", "15s"))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_WRITE_TIMEOUT: %w", err)
	}

	cfg.ReadTimeout = readTimeout
	cfg.WriteTimeout = writeTimeout
	cfg.LogLevel = parseLogLevel(getEnv("APP_LOG_LEVEL", "info"))

	return cfg, nil
}

func parseLogLevel(v string) logging.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return logging.LevelDebug
	case "warn", "warning":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
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

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
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
