package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/RobCalvi/BNC-BE/internal/company"
	"github.com/RobCalvi/BNC-BE/internal/service"
	"github.com/RobCalvi/BNC-BE/internal/storage"
)

// Handler wires the HTTP surface to the service layer.
type Handler struct {
	companies *service.CompanyService
	actions   *service.ActionService
	reminders *service.ReminderService
	changelog *service.ChangelogService
	log       zerolog.Logger
}

func New(companies *service.CompanyService, actions *service.ActionService, reminders *service.ReminderService, cl *service.ChangelogService, log zerolog.Logger) *Handler {
	return &Handler{
		companies: companies,
		actions:   actions,
		reminders: reminders,
		changelog: cl,
		log:       log.With().Str("component", "http").Logger(),
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r *mux.Router) {
	// Company routes
	r.HandleFunc("/companies", h.CreateCompany).Methods("POST")
	r.HandleFunc("/companies", h.ListCompanies).Methods("GET")
	r.HandleFunc("/companies/{id}", h.GetCompany).Methods("GET")
	r.HandleFunc("/companies/{id}", h.UpdateCompany).Methods("PATCH")
	r.HandleFunc("/companies/{id}", h.DeleteCompany).Methods("DELETE")

	// Action routes
	r.HandleFunc("/companies/{id}/actions", h.CreateAction).Methods("POST")
	r.HandleFunc("/companies/{id}/actions", h.ListActions).Methods("GET")
	r.HandleFunc("/companies/{id}/actions/{actionId}", h.DeleteAction).Methods("DELETE")

	// Contact routes
	r.HandleFunc("/companies/{id}/contacts", h.AddContact).Methods("POST")
	r.HandleFunc("/companies/{id}/contacts/{contactId}", h.UpdateContact).Methods("PATCH")
	r.HandleFunc("/companies/{id}/contacts/{contactId}", h.RemoveContact).Methods("DELETE")

	// Reminder routes
	r.HandleFunc("/reminders", h.ListReminders).Methods("GET")
	r.HandleFunc("/reminders", h.CreateReminder).Methods("POST")
	r.HandleFunc("/reminders/complete/{id}", h.CompleteReminder).Methods("PATCH")
	r.HandleFunc("/reminders/{id}", h.UpdateReminder).Methods("PATCH")

	// Changelog routes
	r.HandleFunc("/changelog", h.ListChangelog).Methods("GET")
}

// actor identifies who performed a write; it is threaded through
// every mutating call instead of a process-wide default.
func actor(r *http.Request) string {
	if a := r.Header.Get("X-Actor"); a != "" {
		return a
	}
	return "unknown"
}

func limitQuery(r *http.Request, def int) int {
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
	h.log.Info().Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Send()
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	}
	http.Error(w, err.Error(), status)
	h.log.Warn().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Int("status", status).Send()
}

func (h *Handler) badRequest(w http.ResponseWriter, r *http.Request, msg string) {
	http.Error(w, msg, http.StatusBadRequest)
	h.log.Warn().Str("method", r.Method).Str("path", r.URL.Path).Int("status", http.StatusBadRequest).Msg(msg)
}

// Company handlers

func (h *Handler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var c company.Company
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		h.badRequest(w, r, "invalid company payload")
		return
	}
	created, err := h.companies.Create(r.Context(), &c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, created)
}

func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	skip := 0
	if raw := r.URL.Query().Get("skip"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			skip = n
		}
	}
	list, err := h.companies.List(r.Context(), skip, limitQuery(r, 10))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, list)
}

func (h *Handler) GetCompany(w http.ResponseWriter, r *http.Request) {
	c, err := h.companies.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, c)
}

func (h *Handler) UpdateCompany(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateCompanyInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.badRequest(w, r, "invalid update payload")
		return
	}
	updated, err := h.companies.Update(r.Context(), mux.Vars(r)["id"], in, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, updated)
}

func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	removed, err := h.companies.Delete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !removed {
		http.NotFound(w, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
	h.log.Info().Str("method", r.Method).Str("path", r.URL.Path).Int("status", http.StatusNoContent).Send()
}

// Action handlers

func (h *Handler) CreateAction(w http.ResponseWriter, r *http.Request) {
	var in service.CreateActionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		h.badRequest(w, r, "invalid action payload")
		return
	}
	list, err := h.actions.CreateAction(r.Context(), mux.Vars(r)["id"], in, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, list)
}

func (h *Handler) ListActions(w http.ResponseWriter, r *http.Request) {
	list, err := h.actions.ListActions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, list)
}

func (h *Handler) DeleteAction(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	list, err := h.actions.DeleteAction(r.Context(), vars["id"], vars["actionId"], actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, list)
}

// Contact handlers

func (h *Handler) AddContact(w http.ResponseWriter, r *http.Request) {
	var ct company.Contact
	if err := json.NewDecoder(r.Body).Decode(&ct); err != nil {
		h.badRequest(w, r, "invalid contact payload")
		return
	}
	c, err := h.companies.AddContact(r.Context(), mux.Vars(r)["id"], ct, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, c)
}

func (h *Handler) UpdateContact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	var ct company.Contact
	if err := json.NewDecoder(r.Body).Decode(&ct); err != nil {
		h.badRequest(w, r, "invalid contact payload")
		return
	}
	ct.ID = vars["contactId"]
	c, err := h.companies.UpdateContact(r.Context(), vars["id"], ct, actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, c)
}

func (h *Handler) RemoveContact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, err := h.companies.RemoveContact(r.Context(), vars["id"], vars["contactId"], actor(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, c)
}

// Reminder handlers

func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	list, err := h.reminders.ListWithCompany(r.Context(), limitQuery(r, 20))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, list)
}

func (h *Handler) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CompanyID string `json:"companyId"`
		ActionID  string `json:"actionId"`
		DueDate   string `json:"dueDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.badRequest(w, r, "invalid reminder payload")
		return
	}
	due, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		h.badRequest(w, r, "invalid dueDate format")
		return
	}
	created, err := h.reminders.Create(r.Context(), req.CompanyID, req.ActionID, due)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusCreated, created)
}

func (h *Handler) CompleteReminder(w http.ResponseWriter, r *http.Request) {
	done, err := h.reminders.Complete(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, done)
}

func (h *Handler) UpdateReminder(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.badRequest(w, r, "invalid update payload")
		return
	}
	updated, err := h.reminders.UpdatePartial(r.Context(), mux.Vars(r)["id"], updates)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	display, err := h.reminders.DisplayFor(r.Context(), updated)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, display)
}

// Changelog handlers

func (h *Handler) ListChangelog(w http.ResponseWriter, r *http.Request) {
	list, err := h.changelog.List(r.Context(), limitQuery(r, 50))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, r, http.StatusOK, list)
}
