package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quillhq/expenseflow/internal/engine"
	"github.com/quillhq/expenseflow/internal/models"
	"github.com/quillhq/expenseflow/internal/store"
)

// Hosting uploads a receipt file and returns its public URL.
type Hosting interface {
	Upload(ctx context.Context, filename, mimeType string, data []byte) (string, error)
}

// ExpensesHandler handles expense-related API requests.
type ExpensesHandler struct {
	store   store.Store
	engine  *engine.Engine
	hosting Hosting
}

// NewExpensesHandler creates a new ExpensesHandler. hosting may be nil, in
// which case receipt uploads are rejected.
func NewExpensesHandler(s store.Store, eng *engine.Engine, hosting Hosting) *ExpensesHandler {
	return &ExpensesHandler{store: s, engine: eng, hosting: hosting}
}

// expenseResponse decorates an expense with its display amount.
type expenseResponse struct {
	*models.Expense
	FormattedAmount string `json:"formatted_amount"`
}

func toResponse(e *models.Expense) expenseResponse {
	return expenseResponse{Expense: e, FormattedAmount: e.FormattedAmount()}
}

// Create handles POST /api/1/expenses.
func (h *ExpensesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req engine.SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	expense, err := h.engine.Submit(r.Context(), currentUser(r), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"expense": toResponse(expense)})
}

// List handles GET /api/1/expenses. Supported query parameters: status,
// employee_id, mine=true.
func (h *ExpensesHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := store.ExpenseFilter{}

	if status := r.URL.Query().Get("status"); status != "" {
		s := models.Status(status)
		if !s.Valid() {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Unknown status")
			return
		}
		filter.Status = s
	}

	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		id, err := strconv.ParseInt(employeeID, 10, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid employee_id")
			return
		}
		filter.EmployeeID = id
	}

	if r.URL.Query().Get("mine") == "true" {
		filter.EmployeeID = currentUser(r).ID
	}

	expenses, err := h.store.ListExpenses(r.Context(), filter)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to list expenses")
		return
	}

	responses := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		responses = append(responses, toResponse(e))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"expenses": responses})
}

// Get handles GET /api/1/expenses/{id}.
func (h *ExpensesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}

	expense, err := h.store.GetExpense(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"expense": toResponse(expense)})
}

// DecideRequest is the body of POST /api/1/expenses/{id}/decide.
type DecideRequest struct {
	Verdict models.Status `json:"verdict"`
	Note    string        `json:"note,omitempty"`
}

// Decide handles POST /api/1/expenses/{id}/decide.
func (h *ExpensesHandler) Decide(w http.ResponseWriter, r *http.Request) {
	id, ok := expenseID(w, r)
	if !ok {
		return
	}

	var req DecideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body")
		return
	}

	expense, err := h.engine.Decide(r.Context(), id, req.Verdict, currentUser(r), req.Note)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"expense": toResponse(expense)})
}

// UploadReceipt handles POST /api/1/expenses/{id}/receipt with a multipart
// "receipt" file field.
func (h *ExpensesHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	if h.hosting == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "hosting_unavailable", "Receipt hosting is not configured")
		return
	}

	id, ok := expenseID(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10 MB max
		writeJSONError(w, http.StatusBadRequest, "invalid_request", "Failed to parse multipart form")
		return
	}

	file, fileHeader, err := r.FormFile("receipt")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Missing receipt file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to read file")
		return
	}

	url, err := h.hosting.Upload(r.Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if err != nil {
		writeJSONError(w, http.StatusBadGateway, "hosting_failed", "Failed to host receipt")
		return
	}

	expense, err := h.engine.AttachReceipt(r.Context(), id, url, fileHeader.Filename)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"expense": toResponse(expense)})
}

// Stats handles GET /api/1/expenses/stats.
func (h *ExpensesHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Stats(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, "server_error", "Failed to compute stats")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stats":                 stats,
		"total_approved_amount": models.FormatCentsUSD(stats.TotalApprovedCents),
	})
}

func expenseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "Invalid expense ID")
		return 0, false
	}
	return id, true
}
