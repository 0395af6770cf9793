package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/qduc/chat-sub010/internal/config"
	"github.com/qduc/chat-sub010/internal/proxy"
)

func main() {
	// Missing .env is fine; the environment itself may carry the keys.
	godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: chat-sub010 <command> [flags]")
		fmt.Fprintln(os.Stderr, "Commands: serve, providers")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		os.Exit(cmdServe())
	case "providers":
		os.Exit(cmdProviders())
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		fmt.Fprintln(os.Stderr, "Commands: serve, providers")
		os.Exit(1)
	}
}

func cmdServe() int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg := config.DefaultFromEnv()

	fs.StringVar(&cfg.Host, "host", cfg.Host, "Bind host")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "Listen port")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Enable verbose logging")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug logging")
	fs.StringVar(&cfg.DefaultProvider, "default-provider", cfg.DefaultProvider, "Provider used when a request names none (openai|responses|anthropic|gemini)")
	fs.Parse(os.Args[2:])

	if cfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	srv := proxy.New(cfg)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nShutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}()

	slog.Info("chat-sub010 starting", "host", cfg.Host, "port", cfg.Port, "default_provider", cfg.DefaultProvider)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		return 1
	}
	return 0
}

func cmdProviders() int {
	cfg := config.DefaultFromEnv()
	for _, name := range []string{"openai", "responses", "anthropic", "gemini"} {
		pc := cfg.Providers[name]
		keyState := "no key"
		if pc.APIKey != "" {
			keyState = "key set"
		}
		marker := " "
		if name == cfg.DefaultProvider {
			marker = "*"
		}
		fmt.Printf("%s %-10s %s (%s)\n", marker, name, pc.BaseURL, keyState)
		if pc.DefaultModel != "" {
			fmt.Printf("             default model: %s\n", pc.DefaultModel)
		}
	}
	return 0
}
