package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tablekit/tablekit/internal/db"
	"github.com/tablekit/tablekit/internal/server"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the schemas of all configured databases over HTTP",
		Long: `Serve connects every database listed in the configuration file and
exposes their schemas over a read-only HTTP API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(host, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(host string, port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	registry := db.NewRegistry(newEngineRegistry())
	defer registry.CloseAll()

	for _, entry := range cfg.Databases {
		engCfg, err := entry.EngineConfig()
		if err != nil {
			logger.Error().Err(err).Str("database", entry.Name).Msg("invalid database entry")
			continue
		}
		if _, err := registry.Open(entry.Name, engCfg, logger); err != nil {
			logger.Error().Err(err).Str("database", entry.Name).Msg("failed to connect database")
			continue
		}
		logger.Info().Str("database", entry.Name).Str("driver", entry.Driver).Msg("connected database")
	}

	srvCfg := server.Config{
		Host:            host,
		Port:            port,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     cfg.Server.CORS.Origins,
		RateLimit:       cfg.Server.RateLimit,
	}
	if cfg.Server.ShutdownTimeout != "" {
		if timeout, err := time.ParseDuration(cfg.Server.ShutdownTimeout); err == nil {
			srvCfg.ShutdownTimeout = timeout
		}
	}
	if len(srvCfg.CORSOrigins) == 0 {
		srvCfg.CORSOrigins = []string{"*"}
	}

	srv := server.New(srvCfg, registry, logger)

	fmt.Printf("Listening on http://%s:%d\n", host, port)
	fmt.Printf("Health:  http://%s:%d/healthz\n", host, port)
	fmt.Printf("Schemas: http://%s:%d/api/v1/databases\n", host, port)
	fmt.Printf("Connected databases: %d\n", len(registry.Names()))
	fmt.Println()

	return srv.ListenAndServe()
}
