// Package reporthttp serves the report pages and downloadable exports.
package reporthttp

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-billing/atlas-billing/internal/platform/httpx"
	"github.com/atlas-billing/atlas-billing/internal/reports"
	"github.com/atlas-billing/atlas-billing/internal/reports/export"
	"github.com/atlas-billing/atlas-billing/internal/shared"
	"github.com/atlas-billing/atlas-billing/internal/view"
)

type Handler struct {
	logger    *slog.Logger
	service   *reports.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *reports.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.Show)
	r.Get("/stats.json", h.StatsJSON)
	r.Get("/revenue.csv", h.RevenueCSV)
	r.Get("/revenue.xlsx", h.RevenueXLSX)
}

// Dashboard renders the start page with aggregate numbers.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("load dashboard stats failed", "error", err)
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/home.html", "Übersicht", map[string]any{"Stats": stats}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	year := h.year(r)
	months, err := h.service.Revenue(r.Context(), year)
	if err != nil {
		h.logger.Error("load revenue report failed", "error", err)
		http.Error(w, "Failed to load report", http.StatusInternalServerError)
		return
	}

	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("load dashboard stats failed", "error", err)
		http.Error(w, "Failed to load report", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/reports.html", "Auswertung", map[string]any{
		"Year":   months[0].Year,
		"Months": months,
		"Stats":  stats,
	}, http.StatusOK)
}

// StatsJSON exposes the dashboard aggregates as JSON.
func (h *Handler) StatsJSON(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("load dashboard stats failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, stats)
}

func (h *Handler) RevenueCSV(w http.ResponseWriter, r *http.Request) {
	year := h.year(r)
	months, err := h.service.Revenue(r.Context(), year)
	if err != nil {
		h.logger.Error("export revenue csv failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	year = months[0].Year

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="umsatz-%d.csv"`, year))
	if err := export.WriteRevenueCSV(w, year, months); err != nil {
		h.logger.Error("write revenue csv failed", "error", err)
	}
}

func (h *Handler) RevenueXLSX(w http.ResponseWriter, r *http.Request) {
	year := h.year(r)
	months, err := h.service.Revenue(r.Context(), year)
	if err != nil {
		h.logger.Error("export revenue xlsx failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	year = months[0].Year

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="umsatz-%d.xlsx"`, year))
	if err := export.WriteRevenueXLSX(w, year, months); err != nil {
		h.logger.Error("write revenue xlsx failed", "error", err)
	}
}

func (h *Handler) year(r *http.Request) int {
	year, _ := strconv.Atoi(r.URL.Query().Get("year"))
	return year
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	w.WriteHeader(status)
	if err := h.templates.Render(w, tmpl, view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}); err != nil {
		h.logger.Error("render reports page", "template", tmpl, "error", err)
	}
}
