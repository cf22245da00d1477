package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ambervale/relaycore/internal/adminapi"
	"github.com/ambervale/relaycore/internal/chatlog"
	"github.com/ambervale/relaycore/internal/config"
	"github.com/ambervale/relaycore/internal/dispatch"
	"github.com/ambervale/relaycore/internal/heartbeat"
	"github.com/ambervale/relaycore/internal/moderation"
	"github.com/ambervale/relaycore/internal/network"
	"github.com/ambervale/relaycore/internal/ratemonitor"
	"github.com/ambervale/relaycore/internal/resources"
	"github.com/ambervale/relaycore/internal/script"
	"github.com/ambervale/relaycore/internal/session"
	"github.com/ambervale/relaycore/internal/shutdown"
)

var (
	version = "dev"
	commit  = "none"
)

type appConfig struct {
	relayAddr    string
	adminAddr    string
	resourcesDir string
	scriptsDir   string
	logLevel     string
	serverName   string
	serverDesc   string
	maxPlayers   int
	maxCars      int
	private      bool
	port         int
	customIP     string
	authKey      string
	backendHosts string
	banDBPath    string
	adminSecret  string
	adminPass    string
	rescanEvery  time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := &appConfig{}

	root := &cobra.Command{
		Use:   "relayserver",
		Short: "relayserver — multiplayer driving game coordination server",
		Long: `relayserver is the authoritative coordination server for a multiplayer
driving game. It relays vehicle state, chat, and gameplay events among
connected clients, enforces per-player vehicle limits, drives a scripting
extension layer, and reports to a backend over a periodic heartbeat.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	root.AddCommand(newVersionCmd())

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.relayAddr, "relay-addr", envOrDefault("RELAY_ADDR", ":30814"), "game relay WebSocket listen address")
	flags.StringVar(&cfg.adminAddr, "admin-addr", envOrDefault("RELAY_ADMIN_ADDR", ":8081"), "admin HTTP surface listen address")
	flags.StringVar(&cfg.resourcesDir, "resources-dir", envOrDefault("RELAY_RESOURCES_DIR", "./Resources"), "directory of mod/resource files offered to clients")
	flags.StringVar(&cfg.scriptsDir, "scripts-dir", envOrDefault("RELAY_SCRIPTS_DIR", "./Scripts"), "directory of Lua event scripts")
	flags.StringVar(&cfg.logLevel, "log-level", envOrDefault("RELAY_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
	flags.StringVar(&cfg.serverName, "server-name", envOrDefault("RELAY_SERVER_NAME", "Relay Server"), "server display name")
	flags.StringVar(&cfg.serverDesc, "server-desc", envOrDefault("RELAY_SERVER_DESC", "Relay Default Description"), "server description")
	flags.IntVar(&cfg.maxPlayers, "max-players", 10, "maximum concurrent players")
	flags.IntVar(&cfg.maxCars, "max-cars", 1, "maximum cars per player, excluding their unicycle")
	flags.BoolVar(&cfg.private, "private", true, "omit the server from the public listing")
	flags.IntVar(&cfg.port, "port", 30814, "port advertised to the backend (may differ from relay-addr in a NAT setup)")
	flags.StringVar(&cfg.customIP, "custom-ip", envOrDefault("RELAY_CUSTOM_IP", ""), "override the IP advertised to the backend")
	flags.StringVar(&cfg.authKey, "auth-key", envOrDefault("RELAY_AUTH_KEY", ""), "backend authentication key (required for non-private servers)")
	flags.StringVar(&cfg.backendHosts, "backend-hosts", envOrDefault("RELAY_BACKEND_HOSTS", ""), "comma-separated backend heartbeat endpoints, priority order")
	flags.StringVar(&cfg.banDBPath, "ban-db", envOrDefault("RELAY_BAN_DB", "./relaycore-bans.db"), "SQLite file backing the moderation ban list")
	flags.StringVar(&cfg.adminSecret, "admin-jwt-secret", envOrDefault("RELAY_ADMIN_JWT_SECRET", ""), "HMAC secret signing admin bearer tokens (required)")
	flags.StringVar(&cfg.adminPass, "admin-password", envOrDefault("RELAY_ADMIN_PASSWORD", ""), "operator password for the admin HTTP surface (required)")
	flags.DurationVar(&cfg.rescanEvery, "resources-rescan-interval", 30*time.Second, "how often the resource catalog is rescanned")

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("relayserver %s (commit: %s)\n", version, commit)
		},
	}
}

func run(ctx context.Context, cfg *appConfig) error {
	logger, err := buildLogger(cfg.logLevel)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	if cfg.adminSecret == "" {
		return fmt.Errorf("admin JWT secret is required — set --admin-jwt-secret or RELAY_ADMIN_JWT_SECRET")
	}
	if cfg.adminPass == "" {
		return fmt.Errorf("admin password is required — set --admin-password or RELAY_ADMIN_PASSWORD")
	}

	logger.Info("starting relayserver",
		zap.String("version", version),
		zap.String("relay_addr", cfg.relayAddr),
		zap.String("admin_addr", cfg.adminAddr),
	)

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdownCo := shutdown.New()

	// --- Settings ---
	settings := config.Default()
	settings.ServerName = cfg.serverName
	settings.ServerDesc = cfg.serverDesc
	settings.ResourcesDir = cfg.resourcesDir
	settings.MaxPlayers = cfg.maxPlayers
	settings.MaxCars = cfg.maxCars
	settings.Private = cfg.private
	settings.Port = cfg.port
	settings.AuthKey = cfg.authKey
	if cfg.customIP != "" {
		if err := config.ValidateCustomIP(cfg.customIP); err != nil {
			logger.Warn("ignoring invalid custom IP", zap.Error(err))
		} else {
			settings.CustomIP = cfg.customIP
		}
	}
	store := config.NewStore(settings)

	// --- Session registry ---
	registry := session.NewRegistry()

	// --- Moderation store ---
	banDB, err := moderation.Open(cfg.banDBPath)
	if err != nil {
		return fmt.Errorf("failed to open ban database: %w", err)
	}
	bans, err := moderation.New(banDB)
	if err != nil {
		return fmt.Errorf("failed to migrate ban database: %w", err)
	}
	shutdownCo.Register(func() {
		if sqlDB, err := banDB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	// --- Chat log ---
	chatLog := chatlog.New(200, logger)

	// --- Script bridge ---
	scriptBridge := script.New(logger)
	shutdownCo.Register(scriptBridge.Close)
	if err := scriptBridge.LoadDir(cfg.scriptsDir); err != nil {
		logger.Warn("no scripts loaded", zap.Error(err))
	}

	// --- Rate monitor ---
	metricsRegistry := prometheus.NewRegistry()
	rate := ratemonitor.New(metricsRegistry)
	rateDone := make(chan struct{})
	go rate.Run(rateDone)
	shutdownCo.Register(func() {
		close(rateDone)
		rate.Stop()
	})

	// --- Resource catalog ---
	catalog := resources.New(cfg.resourcesDir, logger)
	rescanSched, err := resources.NewScheduler(catalog, cfg.rescanEvery)
	if err != nil {
		return fmt.Errorf("failed to start resource rescan scheduler: %w", err)
	}
	shutdownCo.Register(func() {
		if err := rescanSched.Stop(); err != nil {
			logger.Warn("resource scheduler shutdown error", zap.Error(err))
		}
	})

	// --- Dispatcher and transport ---
	hub := network.NewHub(logger)
	dispatcher := dispatch.New(store, hub, rate, scriptBridge, chatLog, logger)

	hubCtx, hubCancel := context.WithCancel(ctx)
	go hub.Run(hubCtx)
	shutdownCo.Register(hubCancel)

	// --- Heartbeat ---
	endpoints := splitHosts(cfg.backendHosts)
	if len(endpoints) > 0 {
		hbEngine := heartbeat.New(store, registry, catalog, rate, endpoints, logger)
		hbCtx, hbCancel := context.WithCancel(ctx)
		hbDone := make(chan struct{})
		go func() {
			defer close(hbDone)
			hbEngine.Run(hbCtx)
		}()
		shutdownCo.Register(func() {
			hbCancel()
			<-hbDone
		})
	} else {
		logger.Warn("no backend hosts configured, heartbeat disabled")
	}

	// --- Admin HTTP surface ---
	adminJWT, err := adminapi.NewJWTManager(cfg.adminSecret, "relaycore")
	if err != nil {
		return fmt.Errorf("failed to initialize admin JWT manager: %w", err)
	}
	passwordHash, err := adminapi.HashPassword(cfg.adminPass)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	adminRouter := adminapi.NewRouter(adminapi.RouterConfig{
		JWTManager:   adminJWT,
		PasswordHash: passwordHash,
		Registry:     registry,
		ChatLog:      chatLog,
		Bans:         bans,
		Gatherer:     metricsRegistry,
		Logger:       logger,
	})
	adminSrv := &http.Server{
		Addr:         cfg.adminAddr,
		Handler:      adminRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info("admin http server listening", zap.String("addr", cfg.adminAddr))
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin http server error", zap.Error(err))
			cancel()
		}
	}()
	shutdownCo.Register(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("admin http server graceful shutdown error", zap.Error(err))
		}
	})

	// --- Game relay HTTP/WebSocket surface ---
	relayMux := http.NewServeMux()
	relayMux.HandleFunc("/connect", network.ConnectHandler(hub, registry, dispatcher, bans, logger))

	relaySrv := &http.Server{
		Addr:         cfg.relayAddr,
		Handler:      relayMux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // long-lived WebSocket connections
		IdleTimeout:  120 * time.Second,
	}
	go func() {
		logger.Info("relay server listening", zap.String("addr", cfg.relayAddr))
		if err := relaySrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("relay server error", zap.Error(err))
			cancel()
		}
	}()
	shutdownCo.Register(func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := relaySrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("relay server graceful shutdown error", zap.Error(err))
		}
	})

	<-ctx.Done()
	logger.Info("shutting down relayserver")
	shutdownCo.Shutdown()
	logger.Info("relayserver stopped")
	return nil
}

func splitHosts(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	hosts := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			hosts = append(hosts, trimmed)
		}
	}
	return hosts
}

func buildLogger(level string) (*zap.Logger, error) {
	var cfg zap.Config
	switch level {
	case "debug":
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
