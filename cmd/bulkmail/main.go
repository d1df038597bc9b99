// Package main is the entry point for the bulkmail CLI and web form.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/shineum/bulkmail-lite/internal/config"
	"github.com/shineum/bulkmail-lite/internal/dispatch"
	"github.com/shineum/bulkmail-lite/internal/email"
	"github.com/shineum/bulkmail-lite/internal/extract"
	"github.com/shineum/bulkmail-lite/internal/provider"
	"github.com/shineum/bulkmail-lite/internal/provider/httpapi"
	"github.com/shineum/bulkmail-lite/internal/provider/resend"
	"github.com/shineum/bulkmail-lite/internal/provider/ses"
	"github.com/shineum/bulkmail-lite/internal/provider/stdout"
	webtls "github.com/shineum/bulkmail-lite/internal/tls"
	"github.com/shineum/bulkmail-lite/internal/web"
)

const usage = `Usage: bulkmail [flags] <command> [args]

Commands:
  extract <file>                                 list the addresses found in a spreadsheet
  send -subject S (-body B | -body-file F) <file> send a message to every address in a spreadsheet
  serve                                          run the web form

Flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdoutW, stderrW io.Writer) int {
	fs := flag.NewFlagSet("bulkmail", flag.ContinueOnError)
	fs.SetOutput(stderrW)
	configPath := fs.String("config", "", "path to YAML configuration file (optional)")
	envFile := fs.String("env-file", ".env", "path to .env file; loaded if present")
	fs.Usage = func() {
		fmt.Fprint(stderrW, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	// An explicitly named env file must exist.
	envRequired := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "env-file" {
			envRequired = true
		}
	})
	if err := config.LoadEnvFile(*envFile, envRequired); err != nil {
		fmt.Fprintf(stderrW, "error: %v\n", err)
		return 1
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(stderrW, "error: failed to load configuration: %v\n", err)
		return 1
	}
	setupLogger(cfg.Logging.Level, stderrW)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, cmdArgs := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "extract":
		return runExtract(cmdArgs, stdoutW, stderrW)
	case "send":
		return runSend(ctx, cfg, cmdArgs, stdoutW, stderrW)
	case "serve":
		return runServe(ctx, cfg)
	default:
		fmt.Fprintf(stderrW, "unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}
}

func runExtract(args []string, stdoutW, stderrW io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(stderrW, "usage: bulkmail extract <file>")
		return 2
	}

	emails, err := extractFile(args[0])
	if err != nil {
		fmt.Fprintf(stderrW, "error: %v\n", err)
		return 1
	}

	for _, e := range emails {
		fmt.Fprintln(stdoutW, e)
	}
	fmt.Fprintf(stderrW, "%d address(es) extracted\n", len(emails))
	return 0
}

func runSend(ctx context.Context, cfg *config.Config, args []string, stdoutW, stderrW io.Writer) int {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(stderrW)
	subject := fs.String("subject", "", "message subject")
	body := fs.String("body", "", "message body")
	bodyFile := fs.String("body-file", "", "read the message body from this file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 || (*body != "" && *bodyFile != "") {
		fmt.Fprintln(stderrW, "usage: bulkmail send -subject S (-body B | -body-file F) <file>")
		return 2
	}

	text := *body
	if *bodyFile != "" {
		data, err := os.ReadFile(*bodyFile)
		if err != nil {
			fmt.Fprintf(stderrW, "error: failed to read body file: %v\n", err)
			return 1
		}
		text = string(data)
	}

	recipients, err := extractFile(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderrW, "error: %v\n", err)
		return 1
	}

	prov, err := selectProvider(ctx, cfg)
	if err != nil {
		fmt.Fprintf(stderrW, "error: %v\n", err)
		return 1
	}

	results, err := dispatch.New(prov).Send(ctx, *subject, text, recipients)
	if err != nil {
		var verr *email.ValidationError
		if errors.As(err, &verr) {
			fmt.Fprintf(stderrW, "error: please fill subject, body, and provide a file with valid addresses (%v)\n", verr)
			return 1
		}
		fmt.Fprintf(stderrW, "error: %v\n", err)
		return 1
	}

	printResults(stdoutW, results)
	return 0
}

func runServe(ctx context.Context, cfg *config.Config) int {
	prov, err := selectProvider(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up provider", "error", err)
		return 1
	}

	serverCfg := web.ServerConfig{
		ListenAddr:    cfg.HTTP.Listen,
		Dispatcher:    dispatch.New(prov),
		AuthUsername:  cfg.HTTP.Username,
		AuthPassword:  cfg.HTTP.Password,
		MaxUploadSize: cfg.HTTP.MaxUploadSize,
		RateLimit:     cfg.HTTP.RateLimit,
	}

	tlsMode := "off"
	if cfg.TLS.Enabled {
		tlsConfig, err := webtls.LoadOrGenerate(cfg.TLS.CertFile, cfg.TLS.KeyFile, webtls.HostFromAddr(cfg.HTTP.Listen))
		if err != nil {
			slog.Error("failed to setup TLS", "error", err)
			return 1
		}
		serverCfg.TLSConfig = tlsConfig
		tlsMode = "self-signed"
		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			tlsMode = "file"
		}
	}

	slog.Info("starting bulkmail",
		"listen", cfg.HTTP.Listen,
		"provider", prov.Name(),
		"auth_enabled", cfg.AuthEnabled(),
		"tls_mode", tlsMode,
	)

	// Blocks until ctx is cancelled by SIGINT/SIGTERM
	if err := web.New(serverCfg).ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		return 1
	}

	slog.Info("bulkmail stopped")
	return 0
}

func extractFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	emails, err := extract.EmailsFrom(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet %s: %w", path, err)
	}
	return emails, nil
}

func printResults(w io.Writer, results []email.Result) {
	for _, r := range results {
		fmt.Fprintf(w, "%s: %s\n", r.Email, r.Status)
	}
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string, w io.Writer) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectProvider chooses the delivery transport based on configuration.
func selectProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider {
	case "", "http":
		slog.Debug("using bulk HTTP endpoint", "url", cfg.Endpoint.URL, "timeout", cfg.Endpoint.Timeout)
		return httpapi.New(httpapi.Config{
			URL:     cfg.Endpoint.URL,
			Timeout: cfg.Endpoint.Timeout,
		}), nil

	case "ses":
		if !cfg.SESConfigured() {
			return nil, errors.New("SES provider selected but SES_REGION and SES_SENDER are required")
		}
		slog.Debug("using AWS SES provider", "region", cfg.SES.Region, "sender", cfg.SES.Sender)
		p, err := ses.New(ctx, ses.SESProviderConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
			Sender:          cfg.SES.Sender,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SES provider: %w", err)
		}
		return p, nil

	case "resend":
		if !cfg.ResendConfigured() {
			return nil, errors.New("resend provider selected but RESEND_API_KEY and RESEND_SENDER are required")
		}
		slog.Debug("using Resend provider", "sender", cfg.Resend.Sender)
		return resend.New(resend.Config{
			APIKey: cfg.Resend.APIKey,
			Sender: cfg.Resend.Sender,
		}), nil

	case "stdout":
		slog.Debug("using stdout provider")
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
