package main

import (
	"flag"
	"fmt"
	"os"
)

// CLIConfig holds command-line configuration.
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	ShowVersion bool
	Validate    bool
}

func parseFlags() *CLIConfig {
	cfg := &CLIConfig{}

	flag.StringVar(&cfg.ConfigPath, "config",
		getEnv("TOPICLENS_CONFIG", ""),
		"Path to configuration file, empty for defaults (env: TOPICLENS_CONFIG)")

	flag.StringVar(&cfg.LogLevel, "log-level",
		getEnv("TOPICLENS_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: TOPICLENS_LOG_LEVEL)")

	flag.StringVar(&cfg.LogFormat, "log-format",
		getEnv("TOPICLENS_LOG_FORMAT", "json"),
		"Log format: json, text (env: TOPICLENS_LOG_FORMAT)")

	flag.BoolVar(&cfg.ShowVersion, "version", false, "Print version and exit")
	flag.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags]\n\nFlags:\n", appName)
		flag.PrintDefaults()
	}
	flag.Parse()
	return cfg
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
