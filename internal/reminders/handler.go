package reminders

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-billing/atlas-billing/internal/shared"
	"github.com/atlas-billing/atlas-billing/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.ListOverdue)
	r.Post("/invoice/{invoiceID}", h.Create)
}

func (h *Handler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	overdue, err := h.service.ListOverdue(r.Context())
	if err != nil {
		h.logger.Error("list overdue invoices failed", "error", err)
		http.Error(w, "Failed to load overdue invoices", http.StatusInternalServerError)
		return
	}

	h.render(w, r, map[string]any{"Overdue": overdue}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	invoiceID, err := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	var notes *string
	if v := r.PostFormValue("notes"); v != "" {
		notes = &v
	}

	rem, err := h.service.Create(r.Context(), invoiceID, notes)
	if err != nil {
		if errors.Is(err, shared.ErrInvalidTransition) || errors.Is(err, shared.ErrConstraintViolation) {
			h.redirectWithFlash(w, r, "/reminders", "error", err.Error())
			return
		}
		h.logger.Error("create reminder failed", "error", err)
		h.redirectWithFlash(w, r, "/reminders", "error", "Reminder could not be created")
		return
	}

	h.redirectWithFlash(w, r, "/reminders", "success", LevelName(rem.Level)+" created")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/reminders.html", view.TemplateData{
		Title:       "Mahnwesen",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}); err != nil {
		h.logger.Error("render reminders page", "error", err)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
