package customers

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

type formErrors map[string]string

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListCustomersRequest{Limit: 50}
	search := r.URL.Query().Get("search")
	if search != "" {
		req.Search = &search
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 1 {
		req.Offset = (page - 1) * req.Limit
	}

	customers, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list customers failed", "error", err)
		http.Error(w, "Failed to load customers", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/customers_list.html", map[string]any{
		"Customers":  customers,
		"Total":      total,
		"Search":     search,
		"Pagination": shared.NewPagination(req.Offset/req.Limit+1, req.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Customer not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/customer_detail.html", map[string]any{
		"Customer": customer,
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/customer_form.html", map[string]any{
		"Errors":   formErrors{},
		"Customer": nil,
	}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := CreateCustomerRequest{CompanyName: r.PostFormValue("company_name")}
	req.ContactPerson = optional(r, "contact_person")
	req.Email = optional(r, "email")
	req.Phone = optional(r, "phone")
	req.Address = optional(r, "address")
	req.ZipCode = optional(r, "zip_code")
	req.City = optional(r, "city")
	req.Country = optional(r, "country")
	req.TaxID = optional(r, "tax_id")
	req.Notes = optional(r, "notes")

	customer, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create customer failed", "error", err)
		h.render(w, r, "pages/customer_form.html", map[string]any{
			"Errors":   formErrors{"general": err.Error()},
			"Customer": nil,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/customers/"+strconv.FormatInt(customer.ID, 10), "success", "Customer created")
}

func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Customer not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/customer_form.html", map[string]any{
		"Errors":   formErrors{},
		"Customer": customer,
	}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := UpdateCustomerRequest{}
	if v := r.PostFormValue("company_name"); v != "" {
		req.CompanyName = &v
	}
	req.ContactPerson = posted(r, "contact_person")
	req.Email = posted(r, "email")
	req.Phone = posted(r, "phone")
	req.Address = posted(r, "address")
	req.ZipCode = posted(r, "zip_code")
	req.City = posted(r, "city")
	req.Country = posted(r, "country")
	req.TaxID = posted(r, "tax_id")
	req.Notes = posted(r, "notes")

	customer, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update customer failed", "error", err)
		existing, _ := h.service.Get(r.Context(), id)
		h.render(w, r, "pages/customer_form.html", map[string]any{
			"Errors":   formErrors{"general": err.Error()},
			"Customer": existing,
		}, http.StatusBadRequest)
		return
	}

	h.redirectWithFlash(w, r, "/customers/"+strconv.FormatInt(customer.ID, 10), "success", "Customer updated")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrConstraintViolation) {
			h.redirectWithFlash(w, r, "/customers/"+strconv.FormatInt(id, 10), "error",
				"Customer cannot be deleted while invoices or quotes reference it")
			return
		}
		h.logger.Error("delete customer failed", "error", err)
		h.redirectWithFlash(w, r, "/customers", "error", "Delete failed")
		return
	}

	h.redirectWithFlash(w, r, "/customers", "success", "Customer deleted")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	w.WriteHeader(status)
	if err := h.templates.Render(w, tmpl, view.TemplateData{
		Title:       "Kunden",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}); err != nil {
		h.logger.Error("render customers page", "template", tmpl, "error", err)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func optional(r *http.Request, field string) *string {
	if v := r.PostFormValue(field); v != "" {
		return &v
	}
	return nil
}

func posted(r *http.Request, field string) *string {
	if !r.PostForm.Has(field) {
		return nil
	}
	v := r.PostFormValue(field)
	return &v
}
