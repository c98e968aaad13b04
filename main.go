// Command acquisition.report reconciles a subject's daily sensor
// acquisitions against the study schedule: it scans the raw opensignals
// folder tree, infers the sessions each device failed to record, persists
// the run and renders a per-day timeline. With -listen it also serves the
// stored runs over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prevoccupai/acquisition.report/internal/acquisition"
	"github.com/prevoccupai/acquisition.report/internal/config"
	"github.com/prevoccupai/acquisition.report/internal/schedule"
	"github.com/prevoccupai/acquisition.report/internal/store"
	"github.com/prevoccupai/acquisition.report/internal/subjects"
	"github.com/prevoccupai/acquisition.report/internal/visualize"
)

var (
	configFile    = flag.String("config", "", "Path of a JSON config file (optional)")
	subjectsFile  = flag.String("subjects", "", "Path of subjects_info.csv (overrides config)")
	subjectPath   = flag.String("subject", "", "Subject folder to reconcile")
	date          = flag.String("date", "", "Day to reconcile, YYYY-MM-DD")
	outputDir     = flag.String("out", "", "Directory for rendered day plots (overrides config)")
	dbFile        = flag.String("db", "acquisitions.db", "Path of the run database")
	migrationsDir = flag.String("migrations", "", "Apply migrations from this directory before running")
	listen        = flag.String("listen", "", "Serve stored runs on this address")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configFile != "" {
		var err error
		cfg, err = config.Load(*configFile)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *subjectsFile != "" {
		cfg.SubjectsFile = subjectsFile
	}
	if *outputDir != "" {
		cfg.OutputDir = outputDir
	}

	if *subjectPath == "" && *listen == "" {
		log.Fatal("nothing to do: pass -subject with -date to reconcile, or -listen to serve")
	}
	if (*subjectPath == "") != (*date == "") {
		log.Fatal("-subject and -date must be given together")
	}

	st, err := store.NewStore(*dbFile, nil)
	if err != nil {
		log.Fatalf("failed to open run database: %v", err)
	}
	defer st.Close()

	if *migrationsDir != "" {
		if err := st.MigrateUp(*migrationsDir); err != nil {
			log.Fatalf("failed to apply migrations: %v", err)
		}
	}

	if *subjectPath != "" {
		if err := reconcileDay(cfg, st, *subjectPath, *date); err != nil {
			log.Fatalf("reconciliation failed: %v", err)
		}
	}

	if *listen != "" {
		serve(st, cfg, *listen)
	}
}

// reconcileDay runs the full pipeline for one subject-day: scan, infer
// missing sessions, resolve fully absent devices, persist and render.
func reconcileDay(cfg *config.Config, st *store.Store, subjectPath, date string) error {
	table, err := subjects.Load(cfg.GetSubjectsFile())
	if err != nil {
		return err
	}

	scanner := &acquisition.Scanner{
		Sides:          table.Side,
		MergeTolerance: time.Duration(cfg.GetMergeToleranceMinutes()) * time.Minute,
	}
	observed, err := scanner.DailyAcquisitions(subjectPath, date)
	if err != nil {
		return err
	}

	reconciler := schedule.NewReconciler(
		time.Duration(cfg.GetToleranceSeconds())*time.Second,
		cfg.GetSamplingRateHz(),
		scanner.HistoryProvider(),
	)

	missing, err := reconciler.MissingData(subjectPath, observed)
	if err != nil {
		return err
	}
	missing, err = reconciler.ResolveAbsentDevices(observed, missing)
	if err != nil {
		return err
	}

	runID, err := st.SaveRun(subjectPath, date, observed, missing)
	if err != nil {
		return err
	}
	log.Printf("recorded run %s for %s on %s", runID, subjectPath, date)

	path, err := visualize.RenderPNG(cfg.GetOutputDir(), visualize.Day{
		SubjectPath:  subjectPath,
		Date:         date,
		Observed:     observed,
		Missing:      missing,
		SamplingRate: cfg.GetSamplingRateHz(),
	})
	if err != nil {
		return err
	}
	log.Printf("rendered %s", path)
	return nil
}

// serve runs the monitor server until interrupted.
func serve(st *store.Store, cfg *config.Config, addr string) {
	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := NewServer(st, cfg).ServeMux()

	server := &http.Server{
		Addr: addr,
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("got request %q", r.URL.Path)
			mux.ServeHTTP(w, r)
		}),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Printf("graceful shutdown complete")
}
