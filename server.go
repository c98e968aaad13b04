package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prevoccupai/acquisition.report/internal/config"
	"github.com/prevoccupai/acquisition.report/internal/schedule"
	"github.com/prevoccupai/acquisition.report/internal/store"
	"github.com/prevoccupai/acquisition.report/internal/visualize"
)

// Server exposes persisted reconciliation runs for inspection: a JSON
// summary per subject-day and an HTML chart view.
type Server struct {
	store *store.Store
	cfg   *config.Config
}

func NewServer(st *store.Store, cfg *config.Config) *Server {
	return &Server{store: st, cfg: cfg}
}

func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.healthHandler)
	mux.HandleFunc("/api/params", s.paramsHandler)
	mux.HandleFunc("/api/day", s.dayHandler)
	mux.HandleFunc("/day/chart", s.chartHandler)
	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

// paramsHandler reports the effective reconciliation parameters.
func (s *Server) paramsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, map[string]any{
		"tolerance_seconds":       s.cfg.GetToleranceSeconds(),
		"merge_tolerance_minutes": s.cfg.GetMergeToleranceMinutes(),
		"sampling_rate_hz":        s.cfg.GetSamplingRateHz(),
	})
}

// daySummary is the JSON shape of one persisted subject-day.
type daySummary struct {
	RunID    string        `json:"run_id"`
	Subject  string        `json:"subject"`
	Date     string        `json:"date"`
	Observed []sessionJSON `json:"observed"`
	Missing  []sessionJSON `json:"missing"`
}

type sessionJSON struct {
	Device string `json:"device"`
	Start  string `json:"start"`
	Length int    `json:"length"`
}

func (s *Server) dayHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	run, sessions, ok := s.loadDay(w, r)
	if !ok {
		return
	}

	summary := daySummary{
		RunID:    run.ID,
		Subject:  run.Subject,
		Date:     run.Date,
		Observed: []sessionJSON{},
		Missing:  []sessionJSON{},
	}
	for _, sess := range sessions {
		j := sessionJSON{Device: string(sess.Device), Start: sess.Start.Clock(), Length: sess.Length}
		if sess.Missing {
			summary.Missing = append(summary.Missing, j)
		} else {
			summary.Observed = append(summary.Observed, j)
		}
	}
	writeJSON(w, summary)
}

func (s *Server) chartHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	run, sessions, ok := s.loadDay(w, r)
	if !ok {
		return
	}

	day := visualize.Day{
		SubjectPath:  run.Subject,
		Date:         run.Date,
		Observed:     make(map[schedule.Device]schedule.Record),
		Missing:      make(map[schedule.Device]schedule.Record),
		SamplingRate: s.cfg.GetSamplingRateHz(),
	}
	for _, sess := range sessions {
		target := day.Observed
		if sess.Missing {
			target = day.Missing
		}
		rec := target[sess.Device]
		rec.StartTimes = append(rec.StartTimes, sess.Start)
		rec.Lengths = append(rec.Lengths, sess.Length)
		target[sess.Device] = rec
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := visualize.RenderDayChart(w, day); err != nil {
		http.Error(w, fmt.Sprintf("Failed to render chart: %v", err), http.StatusInternalServerError)
	}
}

// loadDay resolves the subject and date query parameters to the latest
// stored run and its sessions, writing the HTTP error itself on failure.
func (s *Server) loadDay(w http.ResponseWriter, r *http.Request) (store.Run, []store.Session, bool) {
	subject := r.URL.Query().Get("subject")
	date := r.URL.Query().Get("date")
	if subject == "" || date == "" {
		http.Error(w, "subject and date query parameters are required", http.StatusBadRequest)
		return store.Run{}, nil, false
	}

	run, err := s.store.LatestRun(subject, date)
	if errors.Is(err, sql.ErrNoRows) {
		http.Error(w, fmt.Sprintf("no run recorded for %s on %s", subject, date), http.StatusNotFound)
		return store.Run{}, nil, false
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load run: %v", err), http.StatusInternalServerError)
		return store.Run{}, nil, false
	}

	sessions, err := s.store.Sessions(run.ID)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to load sessions: %v", err), http.StatusInternalServerError)
		return store.Run{}, nil, false
	}
	return run, sessions, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}
