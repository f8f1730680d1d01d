package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Prakti/striptease/pkg/api"
	"github.com/Prakti/striptease/pkg/config"
	"github.com/Prakti/striptease/pkg/server"
	"github.com/Prakti/striptease/pkg/store"
)

// serveCmd runs the storage protocol server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the storage protocol server",
	Long: `Start the TCP storage server and the HTTP admin endpoint.
Configuration comes from the yaml file given by --config; flags
override individual settings.

Examples:
  striptease serve
  striptease serve --config ./striptease.yaml
  striptease serve --data-dir ./mydata --port 9000`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadServeConfig(cmd)
		if err != nil {
			return err
		}

		log, err := newLogger(cfg.Logging.Level)
		if err != nil {
			return err
		}

		st, err := openStore(cfg, log)
		if err != nil {
			return err
		}
		defer st.Close()

		srv, err := server.New(server.Config{
			Addr:   cfg.ListenAddr(),
			Store:  st,
			Logger: log,
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		admin := api.NewServer(cfg.Admin.Addr, st, log)
		adminDone := make(chan error, 1)
		go func() { adminDone <- admin.Serve(ctx) }()

		if err := srv.Serve(ctx); err != nil {
			return err
		}
		return <-adminDone
	},
}

func loadServeConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("data-dir") {
		cfg.DataDir, _ = cmd.Flags().GetString("data-dir")
	}
	if cmd.Flags().Changed("bind") {
		cfg.Bind, _ = cmd.Flags().GetString("bind")
	}
	if cmd.Flags().Changed("port") {
		cfg.Port, _ = cmd.Flags().GetInt("port")
	}
	if cmd.Flags().Changed("engine") {
		cfg.Store.Engine, _ = cmd.Flags().GetString("engine")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parsing log level %q: %w", level, err)
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger(), nil
}

func openStore(cfg *config.Config, log zerolog.Logger) (store.Store, error) {
	switch cfg.Store.Engine {
	case config.EnginePebble:
		return store.NewPebbleStore(cfg.DataDir)
	case config.EngineLog:
		st, err := store.NewLogStore(store.LogStoreConfig{
			DataDir:       cfg.DataDir,
			FsyncInterval: cfg.Store.FsyncInterval,
		})
		if err != nil {
			return nil, err
		}
		recovery, err := st.Open()
		if err != nil {
			return nil, err
		}
		if recovery.BytesTruncated > 0 {
			log.Warn().
				Int64("bytes_truncated", recovery.BytesTruncated).
				Int("records_validated", recovery.RecordsValidated).
				Msg("truncated damaged log tail")
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store engine %q", cfg.Store.Engine)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("config", "c", "", "Path to the yaml config file")
	serveCmd.Flags().StringP("data-dir", "d", "", "Data directory for the store")
	serveCmd.Flags().String("bind", "", "Bind address for the TCP server")
	serveCmd.Flags().IntP("port", "p", 0, "Port for the TCP server")
	serveCmd.Flags().String("engine", "", "Store engine (log or pebble)")
}
