package commands

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"telros.ru/usersvc/internal/bootstrap"
	"telros.ru/usersvc/internal/config"
	"telros.ru/usersvc/pkg/database"
	"telros.ru/usersvc/pkg/password"
)

var verbose bool

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "usersvc",
	Short: "User accounts and profiles service",
	Long: `usersvc serves sign-up and sign-in with JWT bearer tokens,
user profiles and profile photos over HTTP.

Configuration is read from .env, config.yaml and the environment.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log SQL statements and debug output")
}

func setupLogging(cfg *config.Config) {
	if strings.EqualFold(cfg.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warnf("Unknown log level %q, using info", cfg.LogLevel)
		level = log.InfoLevel
	}
	if verbose {
		level = log.DebugLevel
	}
	log.SetLevel(level)
}

// prepare loads configuration, connects the database and brings the schema
// and seed data up to date.
func prepare() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	setupLogging(cfg)

	sqlLevel := logger.Warn
	if verbose {
		sqlLevel = logger.Info
	}

	db, err := database.Connect(database.Config{
		Type:     cfg.Database.Type,
		URL:      cfg.Database.URL,
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		PoolSize: cfg.Database.PoolSize,
		LogLevel: sqlLevel,
	})
	if err != nil {
		return nil, nil, err
	}

	err = bootstrap.Run(db, password.NewHasher(cfg.PasswordCost), bootstrap.AdminAccount{
		Username: cfg.Admin.Username,
		Email:    cfg.Admin.Email,
		Password: cfg.Admin.Password,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("migration failed: %w", err)
	}

	return cfg, db, nil
}
