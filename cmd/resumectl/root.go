package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"resumind/internal/bootstrap"
	"resumind/internal/resumes"
	"resumind/internal/shared/config"
	"resumind/internal/shared/telemetry"
)

const app = "resumectl"

var (
	v = config.New()

	rootCmd = &cobra.Command{
		Use:           app,
		Short:         "resumectl runs resume analyses and manages stored records from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			config.LoadEnvFiles()
			logger, err := telemetry.New(v.GetBool("LOG_JSON"), v.GetBool("debug"))
			if err != nil {
				return fmt.Errorf("creating a logger: %w", err)
			}
			telemetry.SetLogger(logger)
			return nil
		},
	}
)

// Execute executes the root command.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	telemetry.Sync()
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "%s: %v\n", app, err)
	}
	return err
}

func init() {
	// CLI output goes to the terminal; structured logs only when asked for.
	v.SetDefault("LOG_JSON", false)

	rootCmd.PersistentFlags().String("owner", "cli:local", "owner namespace for records and blobs")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("kv-store", "", "key-value backend: memory, redis or postgres")
	rootCmd.PersistentFlags().String("object-store", "", "blob backend: local, s3 or minio")

	bindFlag("OWNER", "owner")
	bindFlag("debug", "debug")
	bindFlag("LOG_JSON", "json")
	bindFlag("KV_STORE", "kv-store")
	bindFlag("OBJECT_STORE", "object-store")
}

func bindFlag(key, flag string) {
	if err := v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		log.Fatalf("binding flag %s: %v", flag, err)
	}
}

// loadConfig reads the environment and any bound flags.
func loadConfig() config.Config {
	return config.FromViper(v)
}

// service builds the backends and returns the resumes service scoped to the
// owner flag. The returned close func releases backend connections.
func service(ctx context.Context) (*resumes.Service, func(), error) {
	a, err := bootstrap.BuildCore(ctx, loadConfig())
	if err != nil {
		return nil, nil, err
	}
	return a.Resumes.ForOwner(v.GetString("OWNER")), func() { _ = a.Close() }, nil
}
