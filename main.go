package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yorticia/yorticia-site/auth"
	"github.com/yorticia/yorticia-site/calendar"
	"github.com/yorticia/yorticia-site/cliparse"
	"github.com/yorticia/yorticia-site/db"
	"github.com/yorticia/yorticia-site/mailer"
	"github.com/yorticia/yorticia-site/objstore"
	"github.com/yorticia/yorticia-site/router"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if os.Getenv("LOG_FORMAT") == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}

	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(); err != nil {
			slog.Error("hash-password failed", "error", err)
			os.Exit(1)
		}
		return
	}

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg cliparse.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	slog.Info("Database schema ready", "type", cfg.DatabaseType)

	var bucket objstore.Bucket
	if cfg.StorageEndpoint != "" {
		s3, err := objstore.NewS3(ctx, cfg)
		if err != nil {
			return err
		}
		bucket = s3
	} else {
		slog.Warn("S3_ENDPOINT not set, uploads are kept in memory")
		bucket = objstore.NewMemory(cfg.StoragePublicURL)
	}

	var mail mailer.Mailer = mailer.Log{}
	if cfg.ResendAPIKey != "" {
		mail = mailer.NewResend(cfg.ResendAPIKey)
	} else {
		slog.Warn("RESEND_API_KEY not set, emails are only logged")
	}

	var provider calendar.Provider
	if cfg.CalendarID != "" {
		p, err := calendar.NewGoogleProvider(ctx, cfg)
		if err != nil {
			return err
		}
		provider = p
	}

	services, err := router.NewServices(dbConn, cfg, bucket, mail, provider)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           router.Handler(services),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("Listening", "port", cfg.Port, "site_url", cfg.SiteURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		slog.Info("Shutting down")
		return server.Shutdown(shutdownCtx)
	})

	if services.Syncer != nil {
		g.Go(func() error {
			return services.Syncer.Run(ctx, cfg.CalendarSyncInterval)
		})
	}

	return g.Wait()
}

// hashPassword reads a password from stdin and prints its bcrypt hash for
// ADMIN_PASSWORD_HASH.
func hashPassword() error {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return err
	}

	hash, err := auth.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
