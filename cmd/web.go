package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/maddsua/pichecker"
)

type TickSource interface {
	Latest() *pichecker.TickReport
}

// WebExporter serves a read-only view of the latest tick
type WebExporter struct {
	Name     string
	Location string
	Source   TickSource
	Metrics  http.Handler
	mux      *http.ServeMux
	muxOnce  sync.Once
}

func (this *WebExporter) ServeHTTP(wrt http.ResponseWriter, req *http.Request) {

	this.muxOnce.Do(func() {
		this.mux = http.NewServeMux()
		this.mux.Handle("GET /status", http.HandlerFunc(this.handleStatus))
		this.mux.Handle("GET /health", http.HandlerFunc(this.handleHealth))
		if this.Metrics != nil {
			this.mux.Handle("GET /metrics", this.Metrics)
		}
	})

	this.mux.ServeHTTP(wrt, req)
}

func (this *WebExporter) handleHealth(wrt http.ResponseWriter, req *http.Request) {
	wrt.Write([]byte("ok"))
}

func (this *WebExporter) handleStatus(wrt http.ResponseWriter, req *http.Request) {

	report := this.Source.Latest()
	if report == nil {
		wrt.WriteHeader(http.StatusServiceUnavailable)
		wrt.Write([]byte("no probes completed yet"))
		return
	}

	probes := make([]map[string]any, len(report.Entries))
	for idx, val := range report.Entries {
		probes[idx] = map[string]any{
			"label":       val.Label,
			"command":     val.Command,
			"up":          val.Up,
			"failure":     val.Failure,
			"message":     val.Message,
			"return_code": val.ReturnCode,
			"elapsed_ms":  val.Elapsed.Milliseconds(),
			"time":        val.Timestamp.Format(time.RFC3339),
		}
	}

	respondData(wrt, map[string]any{
		"name":     this.Name,
		"location": this.Location,
		"tick":     report.ID,
		"severity": report.Severity,
		"started":  report.Started.Format(time.RFC3339),
		"finished": report.Finished.Format(time.RFC3339),
		"probes":   probes,
	})
}

func respondData(wrt http.ResponseWriter, data any) {

	wrt.Header().Set("content-type", "application/json")

	jsonEnc := json.NewEncoder(wrt)
	jsonEnc.SetIndent("", "  ")

	if err := jsonEnc.Encode(data); err != nil {
		slog.Error("Failed to serialize exporter data",
			slog.String("err", err.Error()))
		return
	}
}
