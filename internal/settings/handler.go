package settings

import (
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
	r.Get("/", h.ShowForm)
	r.Post("/", h.Update)
	r.Post("/logo", h.UploadLogo)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Get(r.Context())
	if err != nil {
		h.logger.Error("load settings failed", "error", err)
		http.Error(w, "Failed to load settings", http.StatusInternalServerError)
		return
	}

	h.render(w, r, map[string]any{"Settings": settings}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := UpdateSettingsRequest{}
	for field, dest := range map[string]**string{
		"company_name":   &req.CompanyName,
		"owner_name":     &req.OwnerName,
		"address":        &req.Address,
		"zip_code":       &req.ZipCode,
		"city":           &req.City,
		"country":        &req.Country,
		"email":          &req.Email,
		"phone":          &req.Phone,
		"website":        &req.Website,
		"tax_id":         &req.TaxID,
		"vat_id":         &req.VatID,
		"bank_name":      &req.BankName,
		"iban":           &req.IBAN,
		"bic":            &req.BIC,
		"invoice_prefix": &req.InvoicePrefix,
		"quote_prefix":   &req.QuotePrefix,
		"footer_text":    &req.FooterText,
	} {
		if r.PostForm.Has(field) {
			v := r.PostFormValue(field)
			*dest = &v
		}
	}
	if v := r.PostFormValue("default_payment_terms"); v != "" {
		if days, err := strconv.Atoi(v); err == nil {
			req.DefaultPaymentTerms = &days
		}
	}
	if v := r.PostFormValue("default_tax_rate"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			req.DefaultTaxRate = &rate
		}
	}
	smallBusiness := r.PostFormValue("is_small_business") == "on"
	req.IsSmallBusiness = &smallBusiness

	if _, err := h.service.Update(r.Context(), req); err != nil {
		h.logger.Error("update settings failed", "error", err)
		h.redirectWithFlash(w, r, "/settings", "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/settings", "success", "Settings saved")
}

func (h *Handler) UploadLogo(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(5 << 20); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		h.redirectWithFlash(w, r, "/settings", "error", "No logo file provided")
		return
	}
	defer file.Close()

	if _, err := h.service.UploadLogo(r.Context(), header.Filename, file); err != nil {
		h.logger.Error("upload logo failed", "error", err)
		h.redirectWithFlash(w, r, "/settings", "error", "Logo upload failed")
		return
	}

	h.redirectWithFlash(w, r, "/settings", "success", "Logo uploaded")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	w.WriteHeader(status)
	if err := h.templates.Render(w, "pages/settings.html", view.TemplateData{
		Title:       "Einstellungen",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}); err != nil {
		h.logger.Error("render settings", "error", err)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
