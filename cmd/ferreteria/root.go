package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/DRSN-tech/ferreteria-backend/internal/repository/sqlite"
	"github.com/DRSN-tech/ferreteria-backend/internal/usecase"
	"github.com/DRSN-tech/ferreteria-backend/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultStorePath = "ferreteria.db"

type commandContext struct {
	dbFlag       *string
	logLevelFlag *string

	loggerOnce sync.Once
	logger     logger.Logger
}

func newCommandContext(dbFlag, logLevelFlag *string) *commandContext {
	return &commandContext{dbFlag: dbFlag, logLevelFlag: logLevelFlag}
}

func (c *commandContext) log() logger.Logger {
	c.loggerOnce.Do(func() {
		level := "warn"
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			level = *c.logLevelFlag
		}
		c.logger = logger.New(os.Stderr, level, os.Getenv("LOG_FORMAT"))
	})
	return c.logger
}

// storePath: флаг --db, затем LOCAL_STORE_PATH, затем файл в текущей директории.
func (c *commandContext) storePath() string {
	if c.dbFlag != nil && strings.TrimSpace(*c.dbFlag) != "" {
		return strings.TrimSpace(*c.dbFlag)
	}
	if p := strings.TrimSpace(os.Getenv("LOCAL_STORE_PATH")); p != "" {
		return p
	}
	return defaultStorePath
}

// withLocal открывает хранилище только на время fn.
func (c *commandContext) withLocal(ctx context.Context, fn func(usecase.LocalProductUC) error) (err error) {
	store, err := sqlite.Open(ctx, c.storePath())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	c.log().Debugf("local store: %s", c.storePath())
	return fn(usecase.NewLocalProductUC(store, c.log()))
}

func newRootCommand() *cobra.Command {
	var dbFlag string
	var logLevelFlag string

	ctx := newCommandContext(&dbFlag, &logLevelFlag)

	rootCmd := &cobra.Command{
		Use:           "ferreteria",
		Short:         "Barcode scanning and local product store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env необязателен
			_ = godotenv.Load()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&dbFlag, "db", "", "Path to the local SQLite store (default $LOCAL_STORE_PATH or ./ferreteria.db)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "debug|info|warn|error")

	rootCmd.AddCommand(newScanCommand(ctx))
	rootCmd.AddCommand(newLocalCommand(ctx))

	return rootCmd
}
