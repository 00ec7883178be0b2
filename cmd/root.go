// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
	"github.com/2300033498-rgb/LoginTesting/internal/observability"
)

const envPrefix = "LOGINTEST"

var (
	cfgFile        string
	propertiesFile string
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "logintest",
		Short:         "logintest runs BDD login scenarios against a web application.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// 1. Initialize configuration loading (Viper)
			if err := initializeConfig(); err != nil {
				basicLogger, _ := zap.NewDevelopment()
				basicLogger.Error("Failed to initialize configuration", zap.Error(err))
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// 2. Overlay the legacy properties file. A missing file keeps the defaults.
			propsErr := config.LoadProperties(viper.GetViper(), propertiesFile)

			// 3. Unmarshal the configuration
			var cfg config.Config
			if err := viper.Unmarshal(&cfg); err != nil {
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "logintest"})
				return fmt.Errorf("failed to unmarshal config: %w", err)
			}

			// 4. Validate the configuration
			if err := cfg.Validate(); err != nil {
				observability.InitializeLogger(cfg.Logger)
				return fmt.Errorf("invalid configuration: %w", err)
			}

			// 5. Store the configuration globally
			config.Set(&cfg)

			// 6. Initialize the logger
			observability.InitializeLogger(cfg.Logger)
			logger := observability.GetLogger()
			if propsErr != nil {
				if cmd.Flags().Changed("properties") {
					logger.Warn("Properties file unreadable, using defaults", zap.String("path", propertiesFile), zap.Error(propsErr))
				} else {
					logger.Debug("No properties file loaded", zap.String("path", propertiesFile), zap.Error(propsErr))
				}
			}
			logger.Debug("Configuration loaded", zap.String("version", Version), zap.String("base_url", cfg.Target.BaseURL))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&propertiesFile, "properties", "config.properties", "legacy properties file with base.url, api.url, valid.username and valid.password")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the root command. ctx is cancelled on interrupt by main.
func Execute(ctx context.Context) error {
	defer observability.Sync()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		switch {
		case errors.Is(err, errScenariosFailed):
			// Already reported by the formatters and the summary line.
		case ctx.Err() != nil:
			// Interrupted; not a failure worth logging.
		default:
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return err
	}
	return nil
}

// initializeConfig reads in config file and ENV variables if set.
func initializeConfig() error {
	// Set default values so the app can run with a minimal config.
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("postgres.url", envPrefix+"_POSTGRES_URL", "DATABASE_URL")
	_ = viper.BindEnv("target.base_url", envPrefix+"_TARGET_BASE_URL", "BASE_URL")

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine; parse errors are not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}
