package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"scout-engine/internal/alerts"
	"scout-engine/internal/config"
	"scout-engine/internal/events"
	"scout-engine/internal/httpapi"
	"scout-engine/internal/notify"
	"scout-engine/internal/scheduler"
	"scout-engine/internal/scrape"
	"scout-engine/internal/scrape/util"
	"scout-engine/internal/secrets"
	"scout-engine/internal/store"
)

func main() {
	// Engine data dir: use env if provided (the desktop shell passes
	// one), else local folder.
	dataDir := os.Getenv("SCOUT_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// Single engine per data dir. Two engines would race the sqlite
	// writer and run overlapping alert cycles.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("instance lock failed: %v", err)
	}
	if !locked {
		log.Fatalf("another engine already holds %s", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		normalized, vr := config.NormalizeAndValidate(cfg)
		if !vr.OK() {
			return cfg, errors.New("config invalid:\n- " + joinLines(vr.Errors))
		}
		for _, warn := range vr.Warnings {
			log.Printf("[config] warning: %s", warn)
		}
		return normalized, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "scout.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	subs := store.NewSubscriptions(db.Pool)
	hub := events.NewHub()

	limiter := util.NewHostLimiter(cfg.Fetch.RatePerSec, cfg.Fetch.RateBurst)
	svc := scrape.NewService(
		buildFetchers(cfg, limiter),
		seconds(cfg.Fetch.TimeoutSeconds),
		seconds(cfg.Fetch.CacheSeconds),
	)

	// The password callback reads the live config, so rotating the
	// SMTP account via PUT /config picks up the right keychain entry.
	mailer := notify.NewMailer(notify.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		From:     cfg.SMTP.From,
	}, func() (string, error) {
		cur := cfgVal.Load().(config.Config)
		return secrets.GetSMTPPassword(secrets.SMTPKeyringAccount(cur))
	})

	processor := &alerts.Processor{
		Store:       subs,
		Source:      svc,
		Notifier:    mailer,
		Render:      notify.RenderAlert,
		SendTimeout: seconds(cfg.Alerts.SendTimeoutSeconds),
		Parallelism: cfg.Alerts.Parallelism,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Alerts.Enabled {
		go scheduler.Every(ctx, seconds(cfg.Alerts.IntervalSeconds), "alerts", func(ctx context.Context) error {
			report, err := processor.RunCycle(ctx)
			if errors.Is(err, alerts.ErrCycleRunning) {
				// a manual trigger got there first; next tick retries
				return nil
			}
			if err != nil {
				return err
			}
			hub.Publish(events.MakeEvent("", events.TypeAlertCycleDone, 1, map[string]any{
				"processed": len(report.Processed),
			}))
			return nil
		})
	}

	mux := httpapi.NewMux(httpapi.Deps{
		Hub:           hub,
		CfgVal:        &cfgVal,
		UserCfgPath:   userCfgPath,
		LoadCfg:       loadCfg,
		Listings:      svc,
		Subs:          subs,
		RunAlertCycle: processor.RunCycle,
	})

	token, err := randomToken(16)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.Cors, httpapi.RequestID, httpapi.AccessLog, httpapi.Recover),
		ReadHeaderTimeout: 5 * time.Second,
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (db=%s)", addr, dbPath)
	log.Printf("shutdown token: %s", token)

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
