package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/form/v4"
	_ "github.com/go-sql-driver/mysql"
	"github.com/mabego/shortlink-web/internal/config"
	"github.com/mabego/shortlink-web/internal/identity"
	"github.com/mabego/shortlink-web/internal/migrations"
	"github.com/mabego/shortlink-web/internal/telemetry"
	"go.opentelemetry.io/otel"
)

const (
	IdleTimeout      = time.Minute
	ReadTimeout      = 5 * time.Second
	ShutdownTimeout  = 10 * time.Second
	WriteTimeout     = 10 * time.Second
	CachePurgePeriod = time.Minute
)

type application struct {
	debug           bool
	errorLog        *log.Logger
	infoLog         *log.Logger
	identity        identity.Provider
	identityTimeout time.Duration
	sessionCookie   string
	secureCookies   bool
	links           accountLinks
	templateCache   map[string]*template.Template
	formDecoder     *form.Decoder
	sessionManager  *scs.SessionManager
}

func main() {
	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.Parse(nil)
	if err != nil {
		errorLog.Fatal(err)
	}

	if err := applyFlags(flag.CommandLine, os.Args[1:], &cfg); err != nil {
		errorLog.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, infoLog, errorLog); err != nil {
		errorLog.Fatal(err)
	}
}

// applyFlags lets command-line flags override the environment, then validates the result.
func applyFlags(fs *flag.FlagSet, args []string, cfg *config.Config) error {
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP network address")
	fs.StringVar(&cfg.DSN, "dsn", cfg.DSN, "MariaDB data source name for the session store")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "Enable debug mode in the browser")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.DSN = strings.TrimSpace(cfg.DSN)

	return cfg.Validate()
}

func run(ctx context.Context, cfg config.Config, infoLog, errorLog *log.Logger) error {
	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, cfg.Telemetry.ServiceName)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			errorLog.Print(err)
		}
	}()

	provider, err := identity.NewProvider(cfg.Identity.ProviderConfig())
	if err != nil {
		return fmt.Errorf("identity provider: %w", err)
	}

	if cfg.Identity.CacheTTL > 0 {
		cache := identity.NewCachingProvider(provider, cfg.Identity.SessionCookie, cfg.Identity.CacheTTL)
		go cache.Run(ctx, CachePurgePeriod)
		provider = cache
	}

	links, err := newAccountLinks(cfg)
	if err != nil {
		return fmt.Errorf("account links: %w", err)
	}

	templateCache, err := newTemplateCache()
	if err != nil {
		return err
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Cookie.Secure = cfg.SecureCookies

	// Without a DSN the session store stays in memory.
	if cfg.DSN != "" {
		if err := migrations.Up(cfg.DSN); err != nil {
			return err
		}

		db, err := openDB(cfg.DSN)
		if err != nil {
			return err
		}
		defer func(db *sql.DB) {
			if err := db.Close(); err != nil {
				errorLog.Print(err)
			}
		}(db)

		sessionManager.Store = mysqlstore.New(db)
	}

	app := &application{
		debug:           cfg.Debug,
		errorLog:        errorLog,
		infoLog:         infoLog,
		identity:        identity.Traced(provider, otel.GetTracerProvider()),
		identityTimeout: cfg.Identity.Timeout,
		sessionCookie:   cfg.Identity.SessionCookie,
		secureCookies:   cfg.SecureCookies,
		links:           links,
		templateCache:   templateCache,
		formDecoder:     form.NewDecoder(),
		sessionManager:  sessionManager,
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      app.routes(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
		ErrorLog:     errorLog,
	}

	serveErr := make(chan error, 1)
	go func() {
		infoLog.Printf("Starting server on %s (identity provider: %s)", cfg.Addr, cfg.Identity.Provider)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	infoLog.Print("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

// openDB wraps sql.Open and returns a sql.DB connection pool for a given data source name
func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("database pool initialization: %w", err) // wrapped error
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}

	return db, nil
}
