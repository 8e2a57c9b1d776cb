package main

import (
	"os"

	"github.com/muliwe/aitm-detector/internal/asset"
	"github.com/muliwe/aitm-detector/internal/config"
	"github.com/muliwe/aitm-detector/internal/logger"
	"github.com/muliwe/aitm-detector/internal/server"
)

func main() {
	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.toml"
	}

	fileCfg, err := config.Load(configFile, ".env")
	console := logger.NewConsole(fileCfg.Log.Level, os.Stderr)
	if err != nil {
		console.WithError(err).Fatal("Failed to load configuration")
	}

	cfg := server.DefaultConfig()
	cfg.Addr = fileCfg.Addr()
	cfg.ReadTimeout = fileCfg.Server.ReadTimeout()
	cfg.WriteTimeout = fileCfg.Server.WriteTimeout()
	cfg.IdleTimeout = fileCfg.Server.IdleTimeout()
	cfg.EnableDebug = fileCfg.Server.Debug
	cfg.EnableMetrics = fileCfg.Server.Metrics
	cfg.AssetConfig = asset.Config{
		Path:  fileCfg.Asset.Path,
		Cache: fileCfg.Asset.Cache,
	}
	cfg.LoggerConfig = logger.Config{
		LogDir:              fileCfg.Log.Dir,
		FileName:            fileCfg.Log.FileName,
		Stdout:              fileCfg.Log.Stdout,
		MaxEntriesPerSecond: fileCfg.Log.MaxEntriesPerSecond,
	}
	cfg.Console = console

	if fileCfg.TLS.Enabled() {
		cfg.TLSEnabled = true
		cfg.TLSCertFile = fileCfg.TLS.CertFile
		cfg.TLSKeyFile = fileCfg.TLS.KeyFile
	}

	srv, err := server.New(cfg)
	if err != nil {
		console.WithError(err).Fatal("Failed to create server")
	}

	if err := srv.Start(); err != nil {
		console.WithError(err).Fatal("Server error")
	}
}
