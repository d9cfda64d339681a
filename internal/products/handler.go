package products

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
	r.Get("/", h.List)
	r.Get("/new", h.ShowForm)
	r.Post("/", h.Create)
	r.Get("/{id}/edit", h.ShowEditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/deactivate", h.Deactivate)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListProductsRequest{Limit: 50}
	search := r.URL.Query().Get("search")
	if search != "" {
		req.Search = &search
	}
	req.IncludeInactive = r.URL.Query().Get("all") == "1"
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 1 {
		req.Offset = (page - 1) * req.Limit
	}

	products, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list products failed", "error", err)
		http.Error(w, "Failed to load products", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/products_list.html", map[string]any{
		"Products":        products,
		"Total":           total,
		"Search":          search,
		"IncludeInactive": req.IncludeInactive,
		"Pagination":      shared.NewPagination(req.Offset/req.Limit+1, req.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/product_form.html", map[string]any{"Product": nil}, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := CreateProductRequest{
		Name: r.PostFormValue("name"),
		Unit: r.PostFormValue("unit"),
	}
	if v := r.PostFormValue("description"); v != "" {
		req.Description = &v
	}
	if v := r.PostFormValue("category"); v != "" {
		req.Category = &v
	}
	req.UnitPrice, _ = strconv.ParseFloat(r.PostFormValue("unit_price"), 64)
	req.TaxRate, _ = strconv.ParseFloat(r.PostFormValue("tax_rate"), 64)

	if _, err := h.service.Create(r.Context(), req); err != nil {
		h.logger.Error("create product failed", "error", err)
		h.redirectWithFlash(w, r, "/products/new", "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/products", "success", "Product created")
}

func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/product_form.html", map[string]any{"Product": product}, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	req := UpdateProductRequest{}
	if v := r.PostFormValue("name"); v != "" {
		req.Name = &v
	}
	if r.PostForm.Has("description") {
		v := r.PostFormValue("description")
		req.Description = &v
	}
	if v := r.PostFormValue("unit_price"); v != "" {
		if price, err := strconv.ParseFloat(v, 64); err == nil {
			req.UnitPrice = &price
		}
	}
	if v := r.PostFormValue("unit"); v != "" {
		req.Unit = &v
	}
	if v := r.PostFormValue("tax_rate"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil {
			req.TaxRate = &rate
		}
	}
	if r.PostForm.Has("category") {
		v := r.PostFormValue("category")
		req.Category = &v
	}
	if r.PostForm.Has("is_active") {
		active := r.PostFormValue("is_active") == "on"
		req.IsActive = &active
	}

	if _, err := h.service.Update(r.Context(), id, req); err != nil {
		h.logger.Error("update product failed", "error", err)
		h.redirectWithFlash(w, r, "/products/"+strconv.FormatInt(id, 10)+"/edit", "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/products", "success", "Product updated")
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid product ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Deactivate(r.Context(), id); err != nil {
		h.logger.Error("deactivate product failed", "error", err)
		h.redirectWithFlash(w, r, "/products", "error", "Deactivate failed")
		return
	}

	h.redirectWithFlash(w, r, "/products", "success", "Product deactivated")
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
		Title:       "Produkte",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}); err != nil {
		h.logger.Error("render products page", "template", tmpl, "error", err)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
