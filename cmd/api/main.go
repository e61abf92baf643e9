package main

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/pkg/logger"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "clinic-api",
		Short:         "Clinic operations API: doctors, patients, appointments and medical records",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file (default: ./config.yaml or ./config/config.yaml)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		if err := logger.Setup(cfg.Log.Level, cfg.Log.Pretty); err != nil {
			return nil, err
		}
		log.Debug().Str("driver", cfg.Database.Driver).Msg("configuration loaded")
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newMigrateCmd(load),
		newWorkerCmd(load),
	)
	return root
}
