// Quiz server: validates lab quiz answers and records lab completion.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ashureev/shsh-quiz/internal/config"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "server",
	Short:         "Quiz answer validation and completion tracking server",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().String("questions-dir", "", "Directory of course YAML files (overrides QUESTIONS_DIR)")
	rootCmd.PersistentFlags().String("marker-dir", "", "Directory for completion markers (overrides MARKER_DIR)")
	rootCmd.PersistentFlags().String("port", "", "HTTP listen port (overrides PORT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	slog.SetDefault(newLogger(slog.LevelInfo))

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadConfig reads .env and the environment, then applies flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	overrides := map[string]*string{
		"questions-dir": &cfg.QuestionsDir,
		"marker-dir":    &cfg.MarkerDir,
		"port":          &cfg.Port,
	}
	for name, dst := range overrides {
		if v, _ := cmd.Flags().GetString(name); v != "" {
			*dst = v
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	slog.SetDefault(newLogger(cfg.LogLevel))
	return cfg, nil
}
