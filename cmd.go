package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/clinic-frontdesk/agent/internal/agent/model"
	"github.com/clinic-frontdesk/agent/internal/app"
	"github.com/clinic-frontdesk/agent/internal/mcp"
	"github.com/clinic-frontdesk/agent/internal/server"
	logx "github.com/clinic-frontdesk/agent/pkg/logger"
)

var envFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "frontdesk",
		Short:         "Clinic front desk assistant",
		Long:          `Multi-agent clinic front desk: small talk, knowledge base answers, clinic data lookups and appointment booking.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(newServeCmd(), newAskCmd(), newMCPCmd(), newVersionCmd())
	return root
}

// setup loads config, initialises logging and wires the application.
func setup(ctx context.Context, opts app.Options) (*app.App, error) {
	cfg, err := app.LoadConfig(envFile)
	if err != nil {
		return nil, err
	}
	logx.Init(logx.LoggerOpts{Environment: cfg.Env(), Service: cfg.HTTP.ServiceName})
	return app.New(ctx, cfg, opts)
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start the HTTP API

Serves POST /api/v1/chat (streamed text/plain replies) and
GET /api/v1/health until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, app.Options{})
			if err != nil {
				return err
			}
			defer a.Close()

			srv := server.New(a.Config.HTTP, a.Config.Env(), a.Runner, a.Checks)
			return srv.Start(ctx)
		},
	}
}

var demoQueries = []struct {
	description string
	query       string
}{
	{description: "Greeting", query: "Halo, selamat pagi"},
	{description: "Knowledge base inquiry", query: "Berapa harga facial acne?"},
	{description: "Start booking", query: "Saya mau booking facial, nama saya Budi"},
	{description: "Answer booking question", query: "081234567890"},
	{description: "Interrupt with a question", query: "Dokter siapa saja yang praktek hari Sabtu?"},
	{description: "Cancel booking", query: "Tidak jadi, batalkan saja"},
}

func newAskCmd() *cobra.Command {
	var (
		sessionKey string
		memory     bool
	)
	cmd := &cobra.Command{
		Use:   "ask [message...]",
		Short: "Send messages through the assistant",
		Long: `Send messages through the assistant

Each argument is one user turn in the same session. Without arguments a
demo conversation is replayed.`,
		Example: `  frontdesk ask "Halo" "Saya mau booking"
  frontdesk ask --memory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := setup(ctx, app.Options{MemorySessions: memory})
			if err != nil {
				return err
			}
			defer a.Close()

			type turn struct{ description, query string }
			var turns []turn
			for _, q := range args {
				turns = append(turns, turn{query: q})
			}
			if len(turns) == 0 {
				for _, d := range demoQueries {
					turns = append(turns, turn{description: d.description, query: d.query})
				}
			}

			out := cmd.OutOrStdout()
			for i, t := range turns {
				if t.description != "" {
					fmt.Fprintf(out, "\nTurn %d: %s\n", i+1, t.description)
				}
				fmt.Fprintf(out, "> %s\n", t.query)

				res, err := a.Runner.Invoke(ctx, model.TurnInput{SessionKey: sessionKey, Query: t.query})
				if err != nil {
					return fmt.Errorf("turn %d failed: %w", i+1, err)
				}
				fmt.Fprintln(out, strings.Join(res.Replies, "\n\n"))
				fmt.Fprintf(out, "[%s | steps=%d | cost=$%.6f]\n", strings.Join(res.Handlers, ","), res.TurnCount, res.CostUSD)

				if len(args) == 0 {
					time.Sleep(500 * time.Millisecond)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionKey, "session", "cli-session", "session key shared by all turns")
	cmd.Flags().BoolVar(&memory, "memory", false, "keep sessions in memory instead of Redis")
	return cmd
}

func newMCPCmd() *cobra.Command {
	var memory bool
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server for LLM agents",
		Long: `Start MCP server for LLM agents

Runs the clinic tools as an MCP (Model Context Protocol) server over
stdio: knowledge base search, read-only clinic data queries and the
full front desk conversation.`,
		Example: `  # claude_desktop_config.json
  # {
  #   "mcpServers": {
  #     "clinic": {"command": "frontdesk", "args": ["mcp"]}
  #   }
  # }`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := setup(ctx, app.Options{MemorySessions: memory})
			if err != nil {
				return err
			}
			defer a.Close()

			s := mcpserver.NewMCPServer(a.Config.HTTP.ServiceName, version)
			if _, err := mcp.RegisterTools(ctx, s, a.Tools, a.Runner); err != nil {
				return fmt.Errorf("failed to register MCP tools: %w", err)
			}

			serverErr := make(chan error, 1)
			go func() {
				serverErr <- mcpserver.ServeStdio(s)
			}()
			logx.Info().Msg("MCP server starting on stdio")

			select {
			case <-ctx.Done():
				logx.Info().Msg("Shutdown signal received")
				return nil
			case err := <-serverErr:
				if err != nil {
					return fmt.Errorf("server error: %w", err)
				}
				return nil
			}
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "keep sessions in memory instead of Redis")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "frontdesk %s (%s)\n", version, commit)
		},
	}
}
