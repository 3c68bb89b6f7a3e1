package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	intconfig "shuttle/internal/config"
	intdb "shuttle/internal/db"
	"shuttle/internal/gtfsimport"
	router "shuttle/internal/http"
	"shuttle/internal/http/handlers"
	"shuttle/internal/metrics"
	"shuttle/internal/publisher"
	"shuttle/internal/repositories"
	"shuttle/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
)

func main() {
	gtfsPath := flag.String("import-gtfs", "", "import routes from a GTFS static zip and exit")
	vehicleID := flag.Int64("vehicle", 0, "vehicle id assigned to imported routes")
	fare := flag.String("fare", "0", "per-seat fare for imported routes, e.g. 25.00")
	prefix := flag.String("code-prefix", "", "prefix for imported route codes")
	initSchema := flag.Bool("init-schema", false, "create missing tables before starting")
	flag.Parse()

	env, err := intconfig.LoadEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	if loc, err := env.Location(); err != nil {
		log.Fatalf("config: %v", err)
	} else {
		time.Local = loc
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := intconfig.ConnectDB(ctx, env)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	store := repositories.NewSQLStore(db)

	if *initSchema {
		created, err := intdb.EnsureSchema(ctx, db)
		if err != nil {
			log.Fatalf("init schema: %v", err)
		}
		log.Printf("schema ready, created tables: %v", created)
	}

	if *gtfsPath != "" {
		centavos, err := utils.ParsePesoToCentavos(*fare)
		if err != nil {
			log.Fatalf("fare: %v", err)
		}
		runImport(ctx, store, *gtfsPath, gtfsimport.Options{VehicleID: *vehicleID, Fare: centavos, CodePrefix: *prefix})
		return
	}

	var m *metrics.Collector
	if env.MetricsEnabled {
		m = metrics.NewCollector()
	}

	hd := &handlers.Handler{
		Store:     store,
		DB:        db,
		Metrics:   m,
		JWTSecret: []byte(env.JWTSecret),
		JWTTTL:    env.JWTTTL,
	}
	if env.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(env.NATSURL, env.NATSSubjectPrefix, m)
		if err != nil {
			log.Printf("warning: NATS unavailable, location fan-out disabled: %v", err)
		} else {
			defer pub.Close()
			hd.Publisher = pub
		}
	}

	r := router.NewRouter(env, hd)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           gzhttp.GzipHandler(r),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("server listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server shutdown failed: %v", err)
	}

	log.Println("server stopped cleanly.")
}

func runImport(ctx context.Context, store *repositories.SQLStore, path string, opts gtfsimport.Options) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read gtfs: %v", err)
	}
	sum, err := gtfsimport.Importer{Store: store, RequestID: "gtfs-cli"}.Import(ctx, data, opts)
	if err != nil {
		log.Fatalf("import gtfs: %v", err)
	}
	log.Printf("gtfs import done: created=%d skipped=%d stops=%d schedules=%d", sum.Created, sum.Skipped, sum.Stops, sum.Schedules)
}
