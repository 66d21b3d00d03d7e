package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Dan9191/hutangku/internal/apperr"
	"github.com/Dan9191/hutangku/internal/export"
	"github.com/Dan9191/hutangku/internal/middleware"
	"github.com/Dan9191/hutangku/internal/models"
	"github.com/Dan9191/hutangku/internal/service"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes registers every endpoint on r
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/", h.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)

	// export must be matched before /debts/{id}
	r.HandleFunc("/debts/export", h.ExportDebts).Methods(http.MethodGet)
	r.HandleFunc("/debts", h.CreateDebt).Methods(http.MethodPost)
	r.HandleFunc("/debts", h.ListDebts).Methods(http.MethodGet)
	r.HandleFunc("/debts/{id}", h.GetDebt).Methods(http.MethodGet)
	r.HandleFunc("/debts/{id}", h.UpdateDebt).Methods(http.MethodPut)
	r.HandleFunc("/debts/{id}", h.DeleteDebt).Methods(http.MethodDelete)
	r.HandleFunc("/debts/{id}/pay", h.MarkPaid).Methods(http.MethodPost)

	r.HandleFunc("/companies", h.ListCompanies).Methods(http.MethodGet)
	r.HandleFunc("/companies", h.AddCompany).Methods(http.MethodPost)
	r.HandleFunc("/companies/suggestions", h.CompanySuggestions).Methods(http.MethodGet)
	r.HandleFunc("/companies/by-name/{name}", h.GetCompanyByName).Methods(http.MethodGet)
	r.HandleFunc("/companies/{id}", h.DeleteCompany).Methods(http.MethodDelete)

	r.HandleFunc("/dashboard", h.Dashboard).Methods(http.MethodGet)
}

// Root reports that the API is running
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "HutangKu API is running"})
}

// Health checks store connectivity
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ping(r.Context()); err != nil {
		h.log.WithError(err).Error("Health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Login exchanges the admin password for a bearer token
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.svc.Login(req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		writeDetail(w, http.StatusUnauthorized, err.Error())
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// CreateDebt handles debt creation
func (h *Handler) CreateDebt(w http.ResponseWriter, r *http.Request) {
	var in models.Debt
	if !h.decode(w, r, &in) {
		return
	}
	d, err := h.svc.CreateDebt(r.Context(), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ListDebts returns all debts, optionally filtered by ?status=
func (h *Handler) ListDebts(w http.ResponseWriter, r *http.Request) {
	status, ok := statusFilter(w, r)
	if !ok {
		return
	}
	debts, err := h.svc.ListDebts(r.Context(), status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if debts == nil {
		debts = []models.Debt{}
	}
	writeJSON(w, http.StatusOK, debts)
}

func (h *Handler) GetDebt(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDebt(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// UpdateDebt applies a partial update; absent fields are left unchanged
func (h *Handler) UpdateDebt(w http.ResponseWriter, r *http.Request) {
	var patch models.DebtPatch
	if !h.decode(w, r, &patch) {
		return
	}
	d, err := h.svc.UpdateDebt(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.MarkPaid(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *Handler) DeleteDebt(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.svc.DeleteDebt(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DeleteResponse{Message: "Debt deleted successfully", DeletedID: id})
}

// ExportDebts streams debts as CSV or XML
func (h *Handler) ExportDebts(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	status, ok := statusFilter(w, r)
	if !ok {
		return
	}
	debts, err := h.svc.ListDebts(r.Context(), status)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	filename := fmt.Sprintf("debts-%s.%s", h.svc.Today().String(), format)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.Write(w, format, debts); err != nil {
		h.log.WithError(err).Error("Failed to write export")
	}
}

func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.ListCompanies(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

func (h *Handler) AddCompany(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.svc.AddCompany(r.Context(), req.Name)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCompany(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.DeleteResponse{Message: "Company deleted successfully"})
}

func (h *Handler) GetCompanyByName(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.FindCompanyByName(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) CompanySuggestions(w http.ResponseWriter, r *http.Request) {
	names, err := h.svc.CompanySuggestions(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, names)
}

// Dashboard returns the urgency report. ?today=YYYY-MM-DD overrides the
// reference date.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	var today *models.Date
	if raw := r.URL.Query().Get("today"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid today: %v", err))
			return
		}
		today = &d
	}
	report, err := h.svc.Dashboard(r.Context(), today)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func statusFilter(w http.ResponseWriter, r *http.Request) (*models.DebtStatus, bool) {
	raw := r.URL.Query().Get("status")
	if raw == "" {
		return nil, true
	}
	s, err := models.ParseStatus(raw)
	if err != nil {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return &s, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return false
	}
	return true
}

// fail maps a service error onto a status code. Store failures are logged with
// the request id and reported without internals.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case apperr.IsValidation(err):
		writeDetail(w, http.StatusBadRequest, err.Error())
	case apperr.IsNotFound(err):
		writeDetail(w, http.StatusNotFound, err.Error())
	default:
		h.log.WithFields(logrus.Fields{
			"request_id": middleware.RequestID(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("Request failed")
		writeDetail(w, http.StatusInternalServerError, "storage is unavailable, try again later")
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// NewRouter builds the full API router with logging, auth and CORS applied
func NewRouter(h *Handler, log *logrus.Logger, origins []string, auth mux.MiddlewareFunc) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(log))
	if auth != nil {
		r.Use(auth)
	}
	h.Routes(r)
	return middleware.CORS(origins)(r)
}
