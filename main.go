package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tagstream/actions"
	"tagstream/config"
	"tagstream/internal"
	"tagstream/logger"
	"tagstream/metrics"
	"tagstream/parser"
	"tagstream/render"
	"tagstream/server"
	"tagstream/stream"
)

func main() {
	if err := NewCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// NewCLI builds the root command
func NewCLI() *cobra.Command {
	cobra.EnableCommandSorting = false

	rootCmd := &cobra.Command{
		Use:           "tagstream",
		Short:         "Parse streamed model output with embedded action tags",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	rootCmd.PersistentFlags().String("config", "", "Path to a yaml config file (default ./"+config.DefaultConfigFile+")")

	rootCmd.AddCommand(newParseCmd(), newServeCmd(), newVersionCmd())
	return rootCmd
}

// setup loads configuration and creates the logger shared by every command
func setup(cmd *cobra.Command) (*config.Config, *logger.ObservabilityLogger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewObservabilityLogger(logger.Options{
		LogDir:  cfg.Logging.Dir,
		Level:   cfg.Logging.Level,
		LokiURL: cfg.Logging.LokiURL,
		Output:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// parseOutput is the --json form of a parse
type parseOutput struct {
	*parser.Message
	Plan *actions.Plan `json:"plan"`
}

func newParseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse a response from a file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE:  parseHandler,
	}
	cmd.Flags().String("format", "", "Input format: text or sse (default from config)")
	cmd.Flags().Bool("json", false, "Print the parsed message and action plan as JSON")
	cmd.Flags().Bool("streaming", false, "Treat the input as a snapshot of a stream still in progress")
	return cmd
}

func parseHandler(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Close()

	if format, _ := cmd.Flags().GetString("format"); format != "" {
		cfg.Stream.Format = format
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	asJSON, _ := cmd.Flags().GetBool("json")
	streaming, _ := cmd.Flags().GetBool("streaming")

	var input io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		input = f
	}

	requestID := internal.NewRequestID()
	ctx := internal.WithRequestID(cmd.Context(), requestID)
	session := stream.NewSession(stream.Options{
		RequestID:          requestID,
		MinReparseInterval: cfg.Stream.MinReparseInterval,
		Logger:             log,
	})

	switch cfg.Stream.Format {
	case config.FormatSSE:
		err = stream.ReadSSE(ctx, input, session)
	default:
		err = stream.ReadText(ctx, input, session, cfg.Stream.ChunkSize)
	}
	if err != nil {
		return err
	}

	msg := session.Finish()
	if streaming {
		msg = parser.Parse(msg.RawContent, true)
	}
	plan := actions.BuildPlan(msg, log)

	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(parseOutput{Message: msg, Plan: plan})
	}

	renderer, err := render.New(render.Options{WordWrap: cfg.Render.WordWrap, Style: cfg.Render.Style})
	if err != nil {
		return err
	}
	text, err := renderer.Render(msg)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, text)
	fmt.Fprintf(out, "\n%s\n", plan.Summary())
	return nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP parse service",
		Args:  cobra.NoArgs,
		RunE:  serveHandler,
	}
}

func serveHandler(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info(logger.ComponentConfig, logger.CategoryLifecycle, "", "tagstream configuration loaded", map[string]interface{}{
		"port":                 cfg.Port,
		"log_level":            cfg.Logging.Level,
		"loki_enabled":         cfg.Logging.LokiURL != "",
		"stream_format":        cfg.Stream.Format,
		"min_reparse_interval": cfg.Stream.MinReparseInterval.String(),
		"version":              GetVersionInfo(),
		"git_commit":           GetGitCommit(),
	})

	handler := server.NewHandler(cfg, log, metrics.New())

	// Setup HTTP server with reasonable timeouts
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for streamed bodies
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Info(logger.ComponentServer, logger.CategoryLifecycle, "", "tagstream started", map[string]interface{}{
		"address": fmt.Sprintf("http://localhost:%s", cfg.Port),
	})

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error(logger.ComponentServer, logger.CategoryError, "", "Server failed to start", map[string]interface{}{"error": err.Error()})
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info(logger.ComponentServer, logger.CategoryLifecycle, "", "tagstream shutting down", nil)
	return srv.Shutdown(shutdownCtx)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), GetBuildInfo())
		},
	}
}
