package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/comalice/simkernel/internal/logging"
	"github.com/comalice/simkernel/internal/primitives"
)

// loadModel reads a model file. ".json" files are decoded as JSON, anything
// else as YAML.
func loadModel(path string) (primitives.ModelConfig, error) {
	var cfg primitives.ModelConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read model: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse model %s: %w", path, err)
	}
	return cfg, nil
}

// newLogger builds the stderr logger from the persistent flags.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	return logging.NewLogger(level, format, cmd.ErrOrStderr())
}
