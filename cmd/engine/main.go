package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"jobfeed-engine/internal/aggregate"
	"jobfeed-engine/internal/cache"
	"jobfeed-engine/internal/config"
	"jobfeed-engine/internal/domain"
	"jobfeed-engine/internal/events"
	"jobfeed-engine/internal/httpapi"
	"jobfeed-engine/internal/ingest"
	"jobfeed-engine/internal/ingest/emply"
	"jobfeed-engine/internal/ingest/greenhouse"
	"jobfeed-engine/internal/ingest/lever"
	"jobfeed-engine/internal/ingest/workday"
	"jobfeed-engine/internal/registry"
	"jobfeed-engine/internal/scheduler"
	"jobfeed-engine/internal/secrets"
	"jobfeed-engine/internal/service"
	"jobfeed-engine/internal/store"
)

func main() {
	// Engine data dir: use env if provided (a desktop shell can pass one),
	// else local folder.
	dataDir := os.Getenv("JOBFEED_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir; a second instance would race the store and
	// the config file.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("lock failed: %v", err)
	}
	if !locked {
		log.Fatalf("another engine is already running in %s", dataDir)
	}
	defer lock.Unlock()

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
		for _, wmsg := range vr.Warnings {
			log.Printf("[config] warning: %s", wmsg)
		}
		if !vr.OK() {
			for _, emsg := range vr.Errors {
				log.Printf("[config] error: %s", emsg)
			}
		}
		return normalized, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	st, err := openStore(cfg, dataDir)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	hub := events.NewHub()
	avail := registry.New(overridesFrom(cfg), []domain.PlatformTag{
		domain.PlatformGreenhouse,
		domain.PlatformEmply,
		domain.PlatformWorkday,
		domain.PlatformLever,
	})

	limiter := ingest.NewHostLimiter(cfg.Aggregation.RequestsPerHostPerSec, 2)

	actorToken, err := secrets.GetActorToken(cfg.Actor.TokenAccount)
	if err != nil {
		log.Printf("[secrets] %v; workday companies will fail until a token is set", err)
	}

	connectors := ingest.NewRegistry(
		greenhouse.New(limiter),
		emply.New(limiter),
		workday.New(workday.Config{
			BaseURL:      cfg.Actor.BaseURL,
			ActorID:      cfg.Actor.ActorID,
			Token:        actorToken,
			PollInterval: time.Duration(cfg.Actor.PollSeconds) * time.Second,
			Timeout:      time.Duration(cfg.Actor.TimeoutSeconds) * time.Second,
			MaxItems:     cfg.Actor.MaxItems,
		}, limiter),
		lever.New(limiter),
	)

	orch := aggregate.New(aggregate.Config{
		Concurrency:       cfg.Aggregation.Concurrency,
		PerCompanyTimeout: time.Duration(cfg.Aggregation.PerCompanySeconds) * time.Second,
		BatchTimeout:      time.Duration(cfg.Aggregation.BatchSeconds) * time.Second,
	}, connectors, avail)

	// company roster follows config reloads
	companies := func() []domain.Company {
		return cfgVal.Load().(config.Config).DomainCompanies()
	}

	eng := service.New(orch, cache.New(cfg.CacheTTL()), st, avail, hub, companies)

	var ingestStatus atomic.Value
	ingestStatus.Store(httpapi.IngestStatus{})

	mux := httpapi.NewMux(httpapi.Deps{
		Engine:       eng,
		Hub:          hub,
		CfgVal:       &cfgVal,
		IngestStatus: &ingestStatus,
		UserCfgPath:  userCfgPath,
		LoadCfg:      loadCfg,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Aggregation.ScheduleMinutes > 0 {
		sched := scheduler.New(eng, cfg.Aggregation.ScheduleMinutes)
		if err := sched.Start(ctx); err != nil {
			log.Fatalf("scheduler start failed: %v", err)
		}
		defer sched.Stop()
	}

	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(cfg.App.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}

	srv := &http.Server{
		Handler:           httpapi.Chain(mux, httpapi.RequestID, httpapi.Recover, httpapi.AccessLog, httpapi.Cors),
		ReadHeaderTimeout: 5 * time.Second,
	}

	token, err := randomToken(16)
	if err != nil {
		log.Fatal(err)
	}
	mux.HandleFunc("/shutdown", shutdownHandler(&token, srv))
	log.Printf("engine listening on http://%s (data=%s) shutdown_token=%s", addr, dataDir, token)

	if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func openStore(cfg config.Config, dataDir string) (store.Store, error) {
	if cfg.Store.Backend == "memory" {
		return store.NewMemory(), nil
	}
	return store.OpenSQLite(filepath.Join(dataDir, "jobfeed.db"))
}

func overridesFrom(cfg config.Config) map[string]registry.Override {
	out := map[string]registry.Override{}
	for _, e := range cfg.Companies {
		if e.Status == "" && e.Platform == "" {
			continue
		}
		out[domain.CompanyID(e.Name)] = registry.Override{
			Platform: domain.PlatformTag(e.Platform),
			Status:   domain.Availability(e.Status),
			Message:  e.Note,
		}
	}
	return out
}
