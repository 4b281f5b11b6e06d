package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/LuciferMornens/macos-optimizer-beta/internal/cleaner"
	"github.com/LuciferMornens/macos-optimizer-beta/internal/daemon"
)

// registerCommandRoutes exposes spec.md §6's RPC-style command surface over
// a plain JSON-over-HTTP transport, the concrete transport this daemon
// picks for an abstractly-named "command surface." Each long-running
// command handler responds once the operation has finished, with the
// operation id and the result in one body; progress and lifecycle events
// are published on the event bus while it runs.
func registerCommandRoutes(mux *http.ServeMux, d *daemon.Daemon, logger *slog.Logger) {
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(v); err != nil {
			logger.Error("encode response", "err", err)
		}
	}

	mux.HandleFunc("/v1/metrics_snapshot", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.GetMetricsSnapshot())
	})

	mux.HandleFunc("/v1/cleaner/scan", func(w http.ResponseWriter, r *http.Request) {
		ack, report, err := d.ScanCleanableFilesEnhanced(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, struct {
			OperationID string `json:"operation_id"`
			Report      any    `json:"report"`
		}{ack.OperationID, report})
	})

	mux.HandleFunc("/v1/cleaner/files", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.GetCleanableFiles())
	})

	mux.HandleFunc("/v1/cleaner/auto_selectable", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, d.GetAutoSelectableFiles())
	})

	mux.HandleFunc("/v1/cleaner/by_safety", func(w http.ResponseWriter, r *http.Request) {
		min, _ := strconv.Atoi(r.URL.Query().Get("min_safety_score"))
		writeJSON(w, d.GetFilesBySafety(min))
	})

	mux.HandleFunc("/v1/cleaner/prepare_deletion", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Paths          []string `json:"file_paths"`
			AllowLowSafety bool     `json:"allow_low_safety"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, accepted := d.PrepareDeletionEnhanced(req.Paths, req.AllowLowSafety)
		writeJSON(w, struct {
			ValidationResult any      `json:"validation_result"`
			Accepted         []string `json:"accepted_paths"`
		}{result, accepted})
	})

	mux.HandleFunc("/v1/cleaner/clean", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Paths          []string `json:"file_paths"`
			AllowLowSafety bool     `json:"allow_low_safety"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ack, result, err := d.CleanFilesEnhanced(r.Context(), req.Paths, req.AllowLowSafety)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, struct {
			OperationID string `json:"operation_id"`
			Result      any    `json:"result"`
		}{ack.OperationID, result})
	})

	mux.HandleFunc("/v1/cleaner/empty_trash", func(w http.ResponseWriter, r *http.Request) {
		ack, freed, items, err := d.EmptyTrash(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, struct {
			OperationID  string `json:"operation_id"`
			FreedBytes   int64  `json:"freed_bytes"`
			ItemsRemoved int    `json:"items_removed"`
		}{ack.OperationID, freed, items})
	})

	mux.HandleFunc("/v1/cleaner/restore_from_trash", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FileNames []string `json:"file_names"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		writeJSON(w, struct {
			RestoredCount int `json:"restored_count"`
		}{d.RestoreFromTrash(req.FileNames)})
	})

	mux.HandleFunc("/v1/cleaner/feedback", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path   string `json:"file_path"`
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		d.RecordUserFeedback(req.Path, cleaner.FeedbackAction(req.Action))
		w.WriteHeader(http.StatusNoContent)
	})

	mux.HandleFunc("/v1/memory/optimize", func(w http.ResponseWriter, r *http.Request) {
		ack, result, err := d.OptimizeMemory(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, struct {
			OperationID string `json:"operation_id"`
			Result      any    `json:"result"`
		}{ack.OperationID, result})
	})

	mux.HandleFunc("/v1/memory/optimize_admin", func(w http.ResponseWriter, r *http.Request) {
		ack, result, err := d.OptimizeMemoryAdmin(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, struct {
			OperationID string `json:"operation_id"`
			Result      any    `json:"result"`
		}{ack.OperationID, result})
	})

	mux.HandleFunc("/v1/operations/cancel", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("operation_id")
		writeJSON(w, struct {
			Canceled bool `json:"canceled"`
		}{d.CancelOperation(id)})
	})

	mux.HandleFunc("/v1/operations/state", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("operation_id")
		state := d.GetOperationState(id)
		if state == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, state)
	})
}
