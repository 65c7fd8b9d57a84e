// Mail assistant serves the mailbox message contract over HTTP and exposes
// the mailbox tools through Model Context Protocol.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hal9000y/mail-assistant/internal/assistant"
	"github.com/hal9000y/mail-assistant/internal/auth"
	"github.com/hal9000y/mail-assistant/internal/bus"
	"github.com/hal9000y/mail-assistant/internal/config"
	"github.com/hal9000y/mail-assistant/internal/jmap"
	"github.com/hal9000y/mail-assistant/internal/tool"
	"github.com/hal9000y/mail-assistant/internal/vault"
)

func main() {
	httpAddr := flag.String("http-addr", "localhost:0", "HTTP SERVER listen addr")
	envFileParam := flag.String("env-file", "", "Path to env file")
	enableStdio := flag.Bool("stdio", false, "Enable stdio transport for MCP (disables stdout logging)")
	logFile := flag.String("log-file", "", "Path to log file (only used with stdio transport, otherwise logs to stdout)")

	flag.Parse()

	persistLogs := setupLogger(enableStdio, logFile)
	defer persistLogs()

	cfg, err := config.Load(*envFileParam)
	if err != nil {
		panic(fmt.Errorf("config.Load failed: %w", err))
	}

	ln := mustListen(httpAddr)
	store := mustOpenStore(cfg.Store)

	newVault, err := vault.Factory(cfg.Vault.Passphrase, cfg.Vault.InstallationID, cfg.Vault.AllowLegacy)
	if err != nil {
		panic(fmt.Errorf("vault.Factory failed: %w", err))
	}

	mailClient := jmap.NewClient(cfg.Mail.SessionURL, jmap.WithRateLimit(cfg.Mail.RateLimit, cfg.Mail.RateBurst))

	dispatcher := bus.NewDispatcher(store, mailClient, newVault, func(apiKey string) assistant.Model {
		return assistant.NewClient(apiKey,
			assistant.WithBaseURL(cfg.Assistant.BaseURL),
			assistant.WithModel(cfg.Assistant.Model),
		)
	})
	dispatcher.MaxTurns = cfg.Assistant.MaxTurns

	mux := http.NewServeMux()
	mux.Handle("/messages", bus.NewHTTPHandler(dispatcher, cfg.RequestTimeout))

	mailT := tool.NewServer(tool.NewDialingHandlers(dispatcher.DialMail))
	mcpHTTP := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return mailT }, nil)

	mux.Handle("/mcp", mcpHTTP)

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdown := make(chan os.Signal, 1)

	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	stopHTTP, errHTTPCh := serveHTTP(srv, ln)
	defer stopHTTP()

	var errStdioCh <-chan error
	if *enableStdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(mailT)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		log.Println("Error http server", err)
	case err := <-errStdioCh:
		log.Println("Error stdio", err)
	case <-shutdown:
		log.Println("Shutdown signal received")
	}
}

func serveStdio(srv *mcp.Server) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		log.Println("Starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			err = fmt.Errorf("srv.Run failed: %w", err)
			errStdioCh <- err
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		log.Println("Stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		log.Println("Starting http server on", ln.Addr().String())

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			log.Println(err)
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Println(fmt.Errorf("srv.Shutdown failed: %w", err))
		}

		<-errHTTPCh
		log.Println("HTTP server stopped")
	}, errHTTPCh
}

func mustListen(httpAddr *string) net.Listener {
	if httpAddr == nil {
		panic("-http-addr must be provided")
	}

	ln, err := net.Listen("tcp", *httpAddr)
	if err != nil {
		panic(fmt.Errorf("net.Listen failed: %w", err))
	}

	return ln
}

func mustOpenStore(cfg config.StoreConfig) auth.SecretStore {
	switch cfg.Kind {
	case config.StoreKeyring:
		store, err := auth.OpenKeyring("")
		if err != nil {
			panic(fmt.Errorf("auth.OpenKeyring failed: %w", err))
		}
		return store
	default:
		store, err := auth.NewFileStore(cfg.Path)
		if err != nil {
			panic(fmt.Errorf("auth.NewFileStore failed: %w", err))
		}
		return store
	}
}

func setupLogger(enableStdio *bool, logFile *string) func() {
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		log.SetOutput(f)

		return func() {
			if err := f.Close(); err != nil {
				log.Println(fmt.Errorf("f.Close failed: %w", err))
			}
		}
	}

	if *enableStdio {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stdout)
	}

	return func() {}
}
