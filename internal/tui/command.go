package tui

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/leadboard/internal/config"
	"github.com/tOgg1/leadboard/internal/logging"
)

// Execute runs the leadboard root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	var (
		configFile string
		baseURL    string
		token      string
		accountID  string
		theme      string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:           "leadboard",
		Short:         "CRM pipeline board TUI",
		Long:          "Bubbletea-based terminal Kanban board for CRM leads.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			var cfg *config.Config
			var err error
			if configFile != "" {
				cfg, err = config.LoadFromFile(configFile)
			} else {
				cfg, err = config.LoadDefault()
			}
			if err != nil {
				return err
			}

			// Flags override file and environment.
			if baseURL != "" {
				cfg.API.BaseURL = baseURL
			}
			if token != "" {
				cfg.API.Token = token
			}
			if accountID != "" {
				cfg.API.AccountID = accountID
			}
			if theme != "" {
				cfg.TUI.Theme = theme
			}
			if timeout > 0 {
				cfg.API.Timeout = timeout
			}

			logging.Init(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				File:   cfg.Logging.File,
			})

			return Run(cfg)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file path")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "CRM backend base URL")
	cmd.Flags().StringVar(&token, "token", "", "bearer token")
	cmd.Flags().StringVar(&accountID, "account", "", "account id for client-local preferences")
	cmd.Flags().StringVar(&theme, "theme", "", "theme: default|high-contrast")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "request timeout")
	return cmd
}
