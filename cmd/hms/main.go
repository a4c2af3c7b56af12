package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nuclear-hardware/hms/internal/api"
	"github.com/nuclear-hardware/hms/internal/auth"
	"github.com/nuclear-hardware/hms/internal/cart"
	"github.com/nuclear-hardware/hms/internal/config"
	"github.com/nuclear-hardware/hms/internal/db"
	"github.com/nuclear-hardware/hms/internal/metrics"
	"github.com/nuclear-hardware/hms/internal/model"
	"github.com/nuclear-hardware/hms/internal/store"
	"github.com/nuclear-hardware/hms/internal/web"
)

// levelRouter is a slog.Handler that routes records below ERROR to stdout and
// ERROR+ to stderr.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. If logPath is non-empty, all
// levels are also written to that file. The returned cleanup closes it.
func setupLogger(logPath string, debug bool) (func(), error) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		min:    level,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("hms", flag.ContinueOnError)
	cfg.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: hms [flags]

Flags:
  -d, -db <path>          SQLite database path (default: hms.sqlite3, env HMS_DB)
  -a, -addr <host:port>   listen address (default: :8080, env HMS_ADDR)
  -u, -user <name>        admin username on first run (default: Admin, env HMS_ADMIN_USER)
  -l, -log <path>         log file path (default: stdout/stderr only, env HMS_LOG)
  -r, -redis <host:port>  keep carts in Redis instead of the database (env HMS_REDIS_ADDR)
  -debug                  log every request (env HMS_DEBUG)
  -h, -help               show this help and exit

Settings are also read from a .env file in the working directory.
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	closeLog, err := setupLogger(cfg.LogPath, cfg.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		slog.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}

	slog.Info("database ready", "path", cfg.DBPath)

	ctx := context.Background()

	password, created, err := ensureAdmin(ctx, database, cfg.AdminUser, cfg.AdminPassword)
	if err != nil {
		slog.Error("failed to create admin user", "error", err)
		os.Exit(1)
	}
	if created {
		printAdmin(cfg.AdminUser, password, cfg.AdminPassword == "")
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		slog.Error("failed to get JWT secret", "error", err)
		os.Exit(1)
	}

	carts, err := cartStore(ctx, cfg, database)
	if err != nil {
		slog.Error("failed to set up cart store", "error", err)
		os.Exit(1)
	}
	cartService := &cart.Service{DB: database, Store: carts}

	// Carts cannot outlive the login that created them.
	if n, err := store.PurgeCarts(ctx, database, time.Now().Add(-auth.TokenExpiry)); err != nil {
		slog.Warn("failed to purge stale carts", "error", err)
	} else if n > 0 {
		slog.Info("purged stale cart items", "count", n)
	}
	if _, err := store.PurgeRevokedTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("failed to purge revoked tokens", "error", err)
	}

	m := metrics.New()

	apiRouter := api.NewRouter(database, jwtSecret, api.Options{
		Cart:     cartService,
		Metrics:  m,
		PageSize: cfg.PageSize,
	})
	webRouter, err := web.NewRouter(database, jwtSecret, web.Options{
		Cart:     cartService,
		Metrics:  m,
		ShopName: cfg.ShopName,
		PageSize: cfg.PageSize,
	})
	if err != nil {
		slog.Error("failed to set up web router", "error", err)
		os.Exit(1)
	}

	// API routes take priority, web routes handle the rest.
	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)
	mux.Handle("GET /metrics", m.Handler())
	mux.Handle("/", webRouter)

	handler := m.Middleware(api.LoggingMiddleware(mux))

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "shop", cfg.ShopName, "redis", cfg.UseRedis())
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped, closing database")
}

// cartStore picks Redis when configured and the database otherwise.
func cartStore(ctx context.Context, cfg *config.Config, database *sql.DB) (cart.Store, error) {
	if !cfg.UseRedis() {
		return &cart.SQLStore{DB: database}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}

	slog.Info("carts stored in redis", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
	return &cart.RedisStore{Client: client, TTL: auth.TokenExpiry}, nil
}

// ensureAdmin creates the first administrator when the database has no users.
// Without a configured password a random one is generated and returned.
func ensureAdmin(ctx context.Context, database *sql.DB, username, password string) (string, bool, error) {
	n, err := store.CountUsers(ctx, database)
	if err != nil {
		return "", false, err
	}
	if n > 0 {
		return "", false, nil
	}

	if password == "" {
		if password, err = generatePassword(16); err != nil {
			return "", false, fmt.Errorf("generating password: %w", err)
		}
	} else if err := model.ValidatePassword(password); err != nil {
		return "", false, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", false, err
	}
	if _, err := store.CreateUser(ctx, database, username, hash, model.RoleAdmin); err != nil {
		return "", false, err
	}

	slog.Info("admin user created", "user", username)
	return password, true, nil
}

// printAdmin prints the first-run admin account to stdout.
func printAdmin(username, password string, generated bool) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	if !generated {
		fmt.Println("  Password: (from configuration)")
		fmt.Println()
		return
	}
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
	fmt.Println()
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
