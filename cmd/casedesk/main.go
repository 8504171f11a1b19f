package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/robby/casedesk/internal/auth"
	"github.com/robby/casedesk/internal/caseapi"
	"github.com/robby/casedesk/internal/config"
	"github.com/robby/casedesk/internal/store"
	"github.com/robby/casedesk/internal/tui"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "casedesk",
		Short: "Terminal UI for the case portal",
		Long: `casedesk is a terminal client for the case-management portal.

Browse your support cases and your team's, search and group them, read and
add case notes, and open new cases - without leaving the terminal.

Configuration (environment):
  CASEDESK_API_BASE_URL    Case API base URL (required)
  CASEDESK_PORTAL_URL      Web portal URL for open-in-browser (optional)
  CASEDESK_TOKEN           Static bearer token; skips device login
  CASEDESK_AUTH_DOMAIN     Identity provider host for device login
  CASEDESK_AUTH_CLIENT_ID  OAuth client ID for device login
  CASEDESK_AUTH_AUDIENCE   OAuth audience for device login (optional)
  CASEDESK_DEBUG_LOG       File path for debug logging (optional)`,
		RunE: run,
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// The TUI owns stdout, so debug logging goes to a file or nowhere.
	logger := zap.NewNop()
	if cfg.DebugLog != "" {
		zcfg := zap.NewDevelopmentConfig()
		zcfg.OutputPaths = []string{cfg.DebugLog}
		zcfg.ErrorOutputPaths = []string{cfg.DebugLog}
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer logger.Sync()
	}

	var provider auth.TokenProvider
	var session *auth.Session
	if cfg.Token != "" {
		provider = auth.NewStaticProvider(cfg.Token)
		session = auth.NewSession(provider, "")
	} else {
		provider = auth.NewDeviceFlowProvider(cfg.AuthDomain, cfg.AuthClientID, cfg.AuthAudience)
		session = auth.NewSession(provider, cfg.AuthDomain)
	}

	client := caseapi.New(cfg.APIBaseURL, provider, logger)
	s := store.New(client, logger)

	ctx := context.Background()
	app := tui.NewAppModel(s, session, ctx, cfg.PortalURL)

	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}

	return nil
}
