// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Strategy selects how station observations are fetched from MADIS.
type Strategy string

const (
	// StrategySnapshot walks lagged region snapshots, then falls back to
	// per-station historical queries.
	StrategySnapshot Strategy = "snapshot"
	// StrategyDirect queries each station's latest report and tracks its
	// age.
	StrategyDirect Strategy = "direct"
)

// defaultStations is the surface network around the Santa Barbara profiler.
var defaultStations = []string{
	"KC60YN", "SE068", "SE234", "MTIC1", "MPWC1", "421SE", "SE053", "KSBA",
}

// Config holds all service settings, populated from environment variables.
type Config struct {
	RassBaseURL  string
	SiteCode     string
	MadisBaseURL string
	MadisState   string
	Stations     []string
	Strategy     Strategy

	OutputDir       string
	ProfileFileName string
	ChartFileName   string
	StationsCSVName string

	ArchiveTimeout  time.Duration
	SnapshotTimeout time.Duration
	StationTimeout  time.Duration

	ChartTitle string

	// RunInterval between chart refreshes; zero means run once and exit.
	RunInterval     time.Duration
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is loaded first when
// present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	archiveTimeout, err := parseDuration("ARCHIVE_TIMEOUT", "25s")
	if err != nil {
		return nil, err
	}
	snapshotTimeout, err := parseDuration("MADIS_SNAPSHOT_TIMEOUT", "22s")
	if err != nil {
		return nil, err
	}
	stationTimeout, err := parseDuration("MADIS_STATION_TIMEOUT", "18s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	runInterval, err := parseRunInterval()
	if err != nil {
		return nil, err
	}

	strategy := Strategy(envOrDefault("MADIS_STRATEGY", string(StrategySnapshot)))
	if strategy != StrategySnapshot && strategy != StrategyDirect {
		return nil, fmt.Errorf("invalid MADIS_STRATEGY %q: want %q or %q", strategy, StrategySnapshot, StrategyDirect)
	}

	cfg := &Config{
		RassBaseURL:  envOrDefault("RASS_BASE_URL", "https://downloads.psl.noaa.gov/psd2/data/realtime/Radar449/WwTemp/sba/"),
		SiteCode:     envOrDefault("RASS_SITE_CODE", "sba"),
		MadisBaseURL: envOrDefault("MADIS_BASE_URL", "https://madis-data.ncep.noaa.gov/madisPublic/cgi-bin/madisXmlPublicDir"),
		MadisState:   envOrDefault("MADIS_STATE", "CA"),
		Stations:     parseStations(envOrDefault("MADIS_STATIONS", "")),
		Strategy:     strategy,

		OutputDir:       envOrDefault("OUTPUT_DIR", "."),
		ProfileFileName: envOrDefault("PROFILE_FILE_NAME", "sba_latest.01t"),
		ChartFileName:   envOrDefault("CHART_FILE_NAME", "sba_wwtemp_chart.svg"),
		StationsCSVName: envOrDefault("STATIONS_CSV_NAME", "madis_latest_stations.csv"),

		ArchiveTimeout:  archiveTimeout,
		SnapshotTimeout: snapshotTimeout,
		StationTimeout:  stationTimeout,

		ChartTitle: envOrDefault("CHART_TITLE", "SBA 449 MHz RASS Weber Wuertz Temp"),

		RunInterval:     runInterval,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.RassBaseURL == "" {
		return nil, errors.New("RASS_BASE_URL is required")
	}
	if cfg.SiteCode == "" {
		return nil, errors.New("RASS_SITE_CODE is required")
	}
	if cfg.MadisBaseURL == "" {
		return nil, errors.New("MADIS_BASE_URL is required")
	}
	if len(cfg.Stations) == 0 {
		return nil, errors.New("MADIS_STATIONS must name at least one station")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: want a positive duration", key)
	}
	return d, nil
}

// parseRunInterval allows zero, which selects one-shot mode.
func parseRunInterval() (time.Duration, error) {
	s := envOrDefault("RUN_INTERVAL", "0")
	if s == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, errors.New("invalid RUN_INTERVAL: want 0 or a positive duration")
	}
	return d, nil
}

func parseStations(s string) []string {
	if s == "" {
		return append([]string(nil), defaultStations...)
	}
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
