package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"cardash/internal/auth"
	"cardash/internal/exchange"
	"cardash/internal/grpcserver"
	"cardash/internal/httpx"
	"cardash/internal/listings"
	"cardash/internal/notify"
	"cardash/internal/predict"
	synchub "cardash/internal/sync"
	"cardash/pkg/database"
	"cardash/pkg/models"
	"cardash/pkg/utils"
)

func main() {
	cfg := database.DefaultConfig()
	db := database.MustOpen(cfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	srvCfg := utils.LoadServerConfig()
	rateCfg := utils.LoadRateConfig()
	authCfg := utils.LoadAuthConfig()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Live feed (TCP, websocket, UDP)
	hub := synchub.NewHub()
	feedSrv := synchub.NewServer(srvCfg.FeedAddr, hub, log.Default())
	notifySrv := notify.NewServer(srvCfg.NotifyAddr, notify.NewRegistry(), log.Default())
	grpcSrv := grpcserver.New()

	publish := func(v any) {
		if err := hub.BroadcastJSON(v); err != nil {
			log.Printf("[api] feed broadcast: %v", err)
		}
		if err := notifySrv.BroadcastJSON(v); err != nil && !errors.Is(err, notify.ErrNotRunning) {
			log.Printf("[api] udp broadcast: %v", err)
		}
	}

	// Dataset
	listingRepo := listings.NewRepo(db)
	var source listings.Source = listings.FileSource{Path: srvCfg.CSVPath}
	if srvCfg.DatasetSource == "archive" {
		source = listings.ArchiveSource{Repo: listingRepo}
	}
	store := listings.NewStore(source, log.Default())
	store.OnReload = func(snap listings.Snapshot) {
		grpcSrv.SetReady(true)
		publish(synchub.NewDatasetEvent(snap.Table.Len(), len(snap.Table.Manufacturers()), snap.Source))
	}
	if _, err := store.Reload(ctx); err != nil {
		// keep serving; /admin/reload can retry once the file is fixed
		log.Printf("[api] initial dataset load failed: %v", err)
	}

	// Exchange rate
	rateRepo := exchange.NewRepo(db)
	agg := exchange.NewAggregator(
		exchange.NewPairSource(rateCfg.PairBaseURL, rateCfg.APIKey),
		exchange.NewLatestSource(rateCfg.LatestBaseURL),
	)
	tracker := exchange.NewTracker(exchange.TrackerOpts{
		Base:          rateCfg.Base,
		Quote:         rateCfg.Quote,
		Default:       rateCfg.Default,
		MinRefreshGap: rateCfg.MinGap,
	}, agg, rateRepo, log.Default())
	tracker.OnUpdate = func(r models.Rate) {
		publish(synchub.NewRateEvent(r))
	}
	if err := tracker.Restore(ctx); err != nil {
		log.Printf("[api] restore rate failed: %v", err)
	}

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})
	router.Use(httpx.RequestID(), httpx.CORS(srvCfg.CORSOrigin))

	router.GET("/ws", synchub.WSHandler(hub))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "not_ready",
				"db_error": err.Error(),
			})
			return
		}
		snap, err := store.Snapshot()
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "not_ready",
				"dataset": "not loaded",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"rows":        snap.Table.Len(),
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	router.GET("/debug", func(c *gin.Context) {
		stats := hub.Stats()
		resp := gin.H{
			"db":          cfg.Path,
			"source":      source.Name(),
			"rate":        tracker.Current(),
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		}
		if snap, err := store.Snapshot(); err == nil {
			resp["rows"] = snap.Table.Len()
			resp["loaded_at"] = snap.LoadedAt
		}
		c.JSON(http.StatusOK, resp)
	})

	// Public
	listingHandler := listings.NewHandler(store, tracker)
	listingHandler.RegisterRoutes(router.Group("/listings"))

	rateHandler := exchange.NewHandler(tracker, rateRepo)
	rateHandler.RegisterRoutes(router.Group("/rate"))

	predict.NewHandler(store, tracker).RegisterRoutes(router.Group("/predict"))

	// Auth
	tokenSvc := auth.TokenService{
		Secret:   []byte(authCfg.JWTSecret),
		Issuer:   authCfg.JWTIssuer,
		Duration: authCfg.JWTDuration,
	}
	auth.NewHandler(authCfg.AdminPasswordHash, tokenSvc).RegisterRoutes(router.Group("/auth"))

	// Admin (protected)
	admin := router.Group("/admin")
	admin.Use(auth.AuthMiddleware(tokenSvc))
	listingHandler.RegisterAdminRoutes(admin)
	rateHandler.RegisterAdminRoutes(admin)

	httpSrv := &http.Server{
		Addr:    srvCfg.HTTPAddr,
		Handler: otelhttp.NewHandler(router, "cardash-api"),
	}

	errCh := make(chan error, 4)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := feedSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := notifySrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		ln, err := net.Listen("tcp", srvCfg.GRPCAddr)
		if err != nil {
			errCh <- err
			return
		}
		log.Printf("gRPC health listening on %s", srvCfg.GRPCAddr)
		if err := grpcSrv.Serve(ln); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		tracker.Run(ctx, rateCfg.Interval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", srvCfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := feedSrv.Close(); err != nil {
		log.Printf("feed shutdown error: %v", err)
	}
	if err := notifySrv.Close(); err != nil {
		log.Printf("notify shutdown error: %v", err)
	}
	hub.CloseAll()
	grpcSrv.Stop()

	wg.Wait()
	log.Println("servers stopped")
}
