package config

import (
	"os"
	"strconv"
)

type Config struct {
	LogLevel string

	StagingRoot string
	PageDPI     int
	Layout      string

	FFmpegPath  string
	FFprobePath string

	MetricsFile     string
	ProgressEnabled bool
}

func Load() Config {
	return Config{
		LogLevel: mustEnv("DOCAUTO_LOG_LEVEL", "info"),

		StagingRoot: mustEnv("DOCAUTO_STAGING_ROOT", os.TempDir()),
		PageDPI:     mustEnvInt("DOCAUTO_PAGE_DPI", 72),
		Layout:      mustEnv("DOCAUTO_LAYOUT", "margin"),

		FFmpegPath:  mustEnv("DOCAUTO_FFMPEG", "ffmpeg"),
		FFprobePath: mustEnv("DOCAUTO_FFPROBE", "ffprobe"),

		MetricsFile:     mustEnv("DOCAUTO_METRICS_FILE", ""),
		ProgressEnabled: mustEnvBool("DOCAUTO_PROGRESS", true),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}
