package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/quillhq/expenseflow/internal/dispatch"
	"github.com/quillhq/expenseflow/internal/engine"
	"github.com/quillhq/expenseflow/internal/ingest"
)

// AdminHandler exposes the manually triggered janitorial operations and
// settings.
type AdminHandler struct {
	engine     *engine.Engine
	dispatcher *dispatch.Dispatcher
	ingestor   *ingest.Ingestor
}

// NewAdminHandler creates a new AdminHandler. ingestor may be nil when no
// inbox source is configured.
func NewAdminHandler(eng *engine.Engine, d *dispatch.Dispatcher, ing *ingest.Ingestor) *AdminHandler {
	return &AdminHandler{engine: eng, dispatcher: d, ingestor: ing}
}

// Resync handles POST /api/1/admin/resync, re-attempting the ledger append
// for every unsynced expense.
func (h *AdminHandler) Resync(w http.ResponseWriter, r *http.Request) {
	report, err := h.dispatcher.SyncUnsynced(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Reconciliation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

// Ingest handles POST /api/1/admin/ingest, scanning the inbox for new
// submissions.
func (h *AdminHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	if h.ingestor == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "inbox_unavailable", "Inbox ingestion is not configured")
		return
	}

	report, err := h.ingestor.IngestInbox(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Ingestion failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"report": report})
}

// GetMileageRate handles GET /api/1/settings/mileage_rate.
func (h *AdminHandler) GetMileageRate(w http.ResponseWriter, r *http.Request) {
	rate, err := h.engine.MileageRate(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to read mileage rate")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"mileage_rate": strconv.FormatFloat(rate, 'f', -1, 64),
	})
}

// SetMileageRateRequest is the body of PUT /api/1/settings/mileage_rate.
type SetMileageRateRequest struct {
	Rate float64 `json:"rate"`
}

// SetMileageRate handles PUT /api/1/settings/mileage_rate (admin only).
func (h *AdminHandler) SetMileageRate(w http.ResponseWriter, r *http.Request) {
	var req SetMileageRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	if err := h.engine.SetMileageRate(r.Context(), req.Rate); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
