package main

import (
	"context"
	"os"

	"github.com/elC0mpa/cloud-steward/config"
	"github.com/elC0mpa/cloud-steward/service/runtime"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// configFileEnv points the server at a config file; MCP hosts pass
// settings through the environment rather than flags
const configFileEnv = "STEWARD_CONFIG"

// loadRuntime reads the configuration and wires the services. Logs go to
// stderr because stdout carries the MCP protocol.
func loadRuntime(ctx context.Context) (*runtime.Runtime, error) {
	cfg, err := config.Load(viper.New(), os.Getenv(configFileEnv))
	if err != nil {
		return nil, err
	}

	logger, err := runtime.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("component", "mcp"))

	return runtime.New(ctx, cfg, logger, runtime.Options{})
}
