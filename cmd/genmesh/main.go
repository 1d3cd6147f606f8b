package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hupe1980/genmesh/config"
	"github.com/hupe1980/genmesh/core"
	"github.com/hupe1980/genmesh/server"
	"github.com/joho/godotenv"
)

// Version is injected at build time.
var Version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "generate":
		err = runGenerate(os.Args[2:])
	case "version":
		fmt.Println("genmesh", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: genmesh <command> [flags]

Commands:
  serve      Start the HTTP server
  generate   Run a single generation and print the outcome
  version    Print version information
`)
}

func loadConfig(path string) (*config.Config, error) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	return loader.Load()
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	addr := fs.String("addr", "", "Listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	logger, syncLogger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer syncLogger()

	mesh, err := buildMesh(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = mesh.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting genmesh", "version", Version, "provider", cfg.Expander.Provider, "model", cfg.Expander.Model)

	srv := server.New(mesh, func(o *server.Options) {
		o.Addr = cfg.Server.Addr
		o.ReadTimeout = cfg.Server.ReadTimeout
		o.WriteTimeout = cfg.Server.WriteTimeout
		o.ShutdownTimeout = cfg.Server.ShutdownTimeout
		o.Logger = logger
	})
	return srv.Start(ctx)
}

func runGenerate(args []string) error {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	user := fs.String("user", "", "Caller identity")
	prompt := fs.String("prompt", "", "Prompt to generate from")
	sessionID := fs.String("session", "", "Session identifier (defaults to the user)")
	apps := fs.String("apps", "", "Comma separated capability identifiers to enable for the user")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *prompt == "" {
		fs.Usage()
		return fmt.Errorf("-user and -prompt are required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, syncLogger, err := buildLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer syncLogger()

	mesh, err := buildMesh(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = mesh.Close() }()

	if *apps != "" {
		mesh.Configure(*user, core.UserConfig{AppIDs: splitList(*apps)})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := mesh.Execute(ctx, core.GenerationRequest{CallerID: *user, SessionID: *sessionID, Prompt: *prompt})
	fmt.Println(out.Message)
	if !out.Succeeded() {
		return fmt.Errorf("generation stopped at stage %s: %w", out.Stage, out.Err)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
