package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/scheme/internal/cli"
	"github.com/aretw0/scheme/internal/logging"
	"github.com/aretw0/scheme/internal/presentation/tui"
	"github.com/aretw0/scheme/pkg/registry"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "scheme",
	Short: "Scheme is a schema declaration and validation toolkit",
	Long: `Scheme declares structured values as typed field schemas, then
validates, serializes and describes values against them.`,
	Run: func(cmd *cobra.Command, args []string) {
		if tui.IsInteractive() {
			tui.PrintBanner()
		}
		_ = cmd.Help()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("store", "memory", "Schema store backend: memory, file, redis or sqlite")
	rootCmd.PersistentFlags().String("dir", ".", "Directory of the file store")
	rootCmd.PersistentFlags().String("extension", "", "File store extension: json or yaml")
	rootCmd.PersistentFlags().String("redis-addr", "localhost:6379", "Address of the redis store")
	rootCmd.PersistentFlags().String("redis-password", "", "Password of the redis store")
	rootCmd.PersistentFlags().Int("redis-db", 0, "Database number of the redis store")
	rootCmd.PersistentFlags().String("db", "scheme.db", "Path of the sqlite store")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
}

// newLogger builds the command logger from the persistent log-level flag.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(logging.ParseLevel(level))
}

// newRegistry builds the schema registry selected by the persistent store
// flags. The returned closer releases the store connection.
func newRegistry(cmd *cobra.Command) (*registry.Registry, func() error, *slog.Logger, error) {
	logger := newLogger(cmd)

	var opts cli.Options
	opts.Store, _ = cmd.Flags().GetString("store")
	opts.Dir, _ = cmd.Flags().GetString("dir")
	opts.Extension, _ = cmd.Flags().GetString("extension")
	opts.RedisAddr, _ = cmd.Flags().GetString("redis-addr")
	opts.RedisPassword, _ = cmd.Flags().GetString("redis-password")
	opts.RedisDB, _ = cmd.Flags().GetInt("redis-db")
	opts.SQLitePath, _ = cmd.Flags().GetString("db")

	reg, closer, err := cli.NewRegistry(opts, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return reg, closer, logger, nil
}
