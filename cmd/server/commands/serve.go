package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"telros.ru/usersvc/internal/server"
	"telros.ru/usersvc/pkg/cache"
)

var port string

// serveCmd starts the HTTP API
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "Listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = serveCmd.RunE
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, db, err := prepare()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Mode)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			// the principal cache is optional
			log.Warnf("Redis unavailable, principal cache disabled: %v", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	srv, err := server.NewServer(cfg, db, redisClient)
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	if port != "" {
		addr = ":" + port
	}
	return srv.Run(ctx, addr)
}
