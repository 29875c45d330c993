package main

import (
	"encoding/json"
	"io"
	"os"

	"veritas/internal/config"
	"veritas/internal/infra/logging"

	"github.com/sirupsen/logrus"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// cliLogger keeps stdout for command output.
func cliLogger(cfg config.Config) *logrus.Logger {
	level := cfg.LogLevel
	if level == "" || level == "info" {
		level = "warn"
	}
	return logging.New(level, os.Stderr)
}
