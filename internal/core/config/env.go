package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvOverrides applies PYMAP_<SECTION>_<KEY> environment variables on
// top of the file values. Unparseable values are ignored.
func ApplyEnvOverrides(cfg *Config) {
	setEnvString(&cfg.Paths.ProjectRoot, "PYMAP_PATHS_PROJECT_ROOT")

	setEnvInt(&cfg.Scan.Workers, "PYMAP_SCAN_WORKERS")
	setEnvInt64(&cfg.Scan.MaxFileSize, "PYMAP_SCAN_MAX_FILE_SIZE")
	setEnvInt(&cfg.Scan.CacheEntries, "PYMAP_SCAN_CACHE_ENTRIES")

	setEnvString(&cfg.Output.Format, "PYMAP_OUTPUT_FORMAT")
	setEnvString(&cfg.Output.Path, "PYMAP_OUTPUT_PATH")

	setEnvBool(&cfg.DB.Enabled, "PYMAP_DB_ENABLED")
	setEnvString(&cfg.DB.Path, "PYMAP_DB_PATH")
	setEnvString(&cfg.DB.ProjectKey, "PYMAP_DB_PROJECT_KEY")
	setEnvDuration(&cfg.DB.BusyTimeout, "PYMAP_DB_BUSY_TIMEOUT")

	setEnvDuration(&cfg.Watch.Debounce, "PYMAP_WATCH_DEBOUNCE")
	setEnvFloat64(&cfg.Watch.MaxRebuildsPerSecond, "PYMAP_WATCH_MAX_REBUILDS_PER_SECOND")

	setEnvString(&cfg.Observability.MetricsAddress, "PYMAP_OBSERVABILITY_METRICS_ADDRESS")
	setEnvString(&cfg.Observability.OTLPEndpoint, "PYMAP_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "PYMAP_OBSERVABILITY_OTLP_INSECURE")
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvInt64(target *int64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(val))); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}

func setEnvDuration(target *time.Duration, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(val)); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = d
		}
	}
}
