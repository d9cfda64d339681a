package invoices

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atlas-billing/atlas-billing/internal/billing"
	"github.com/atlas-billing/atlas-billing/internal/customers"
	"github.com/atlas-billing/atlas-billing/internal/products"
	"github.com/atlas-billing/atlas-billing/internal/shared"
	"github.com/atlas-billing/atlas-billing/internal/view"
)

const dateLayout = "2006-01-02"

type Handler struct {
	logger    *slog.Logger
	service   *Service
	customers *customers.Service
	products  *products.Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, customerSvc *customers.Service, productSvc *products.Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		customers: customerSvc,
		products:  productSvc,
		templates: templates,
		csrf:      csrf,
	}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/new", h.ShowForm)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Get("/{id}/edit", h.ShowEditForm)
	r.Post("/{id}/edit", h.Update)
	r.Post("/{id}/status", h.SetStatus)
	r.Post("/{id}/paid", h.MarkPaid)
	r.Post("/{id}/delete", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListInvoicesRequest{Limit: 50}
	if v := r.URL.Query().Get("status"); v != "" {
		req.Status = &v
	}
	if v := r.URL.Query().Get("search"); v != "" {
		req.Search = &v
	}
	if v, err := strconv.ParseInt(r.URL.Query().Get("customer_id"), 10, 64); err == nil {
		req.CustomerID = &v
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && page > 1 {
		req.Offset = (page - 1) * req.Limit
	}

	invoices, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices failed", "error", err)
		http.Error(w, "Failed to load invoices", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "pages/invoices_list.html", map[string]any{
		"Invoices":   invoices,
		"Total":      total,
		"Status":     r.URL.Query().Get("status"),
		"Search":     r.URL.Query().Get("search"),
		"Pagination": shared.NewPagination(req.Offset/req.Limit+1, req.Limit, total),
	}, http.StatusOK)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Invoice not found", http.StatusNotFound)
		return
	}

	h.render(w, r, "pages/invoice_detail.html", map[string]any{
		"Invoice":   inv,
		"TaxGroups": billing.TaxGroups(Lines(inv.Items)),
	}, http.StatusOK)
}

func (h *Handler) ShowForm(w http.ResponseWriter, r *http.Request) {
	data, err := h.formData(r)
	if err != nil {
		h.logger.Error("load invoice form data failed", "error", err)
		http.Error(w, "Failed to load form", http.StatusInternalServerError)
		return
	}
	data["Invoice"] = nil
	h.render(w, r, "pages/invoice_form.html", data, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseCreateForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, "/invoices/new", "error", err.Error())
		return
	}

	inv, err := h.service.Create(r.Context(), *req)
	if err != nil {
		h.logger.Error("create invoice failed", "error", err)
		h.redirectWithFlash(w, r, "/invoices/new", "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(inv.ID, 10), "success",
		"Invoice "+inv.InvoiceNumber+" created")
}

func (h *Handler) ShowEditForm(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	inv, err := h.service.Get(r.Context(), id)
	if err != nil {
		http.Error(w, "Invoice not found", http.StatusNotFound)
		return
	}
	if inv.Status != billing.InvoiceStatusDraft {
		h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "error",
			"Only draft invoices can be edited")
		return
	}

	data, err := h.formData(r)
	if err != nil {
		h.logger.Error("load invoice form data failed", "error", err)
		http.Error(w, "Failed to load form", http.StatusInternalServerError)
		return
	}
	data["Invoice"] = inv
	h.render(w, r, "pages/invoice_form.html", data, http.StatusOK)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	createReq, err := h.parseCreateForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10)+"/edit", "error", err.Error())
		return
	}

	req := UpdateInvoiceRequest{
		CustomerID:   &createReq.CustomerID,
		IssueDate:    createReq.IssueDate,
		DueDate:      createReq.DueDate,
		DeliveryDate: createReq.DeliveryDate,
		PaymentTerms: createReq.PaymentTerms,
		Notes:        createReq.Notes,
		Items:        createReq.Items,
	}

	inv, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.logger.Error("update invoice failed", "error", err)
		h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10)+"/edit", "error", err.Error())
		return
	}

	h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(inv.ID, 10), "success", "Invoice updated")
}

func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	status := billing.InvoiceStatus(r.PostFormValue("status"))
	if _, err := h.service.SetStatus(r.Context(), id, status, nil); err != nil {
		if errors.Is(err, shared.ErrInvalidTransition) || errors.Is(err, shared.ErrValidation) {
			h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "error", err.Error())
			return
		}
		h.logger.Error("set invoice status failed", "error", err)
		h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "error", "Status change failed")
		return
	}

	h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "success", "Status updated")
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	var paidDate *time.Time
	if v := r.PostFormValue("paid_date"); v != "" {
		if d, err := time.Parse(dateLayout, v); err == nil {
			paidDate = &d
		}
	}

	if _, err := h.service.MarkPaid(r.Context(), id, paidDate); err != nil {
		if errors.Is(err, shared.ErrInvalidTransition) {
			h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "error", err.Error())
			return
		}
		h.logger.Error("mark invoice paid failed", "error", err)
		h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "error", "Payment could not be recorded")
		return
	}

	h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "success", "Invoice marked paid")
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid invoice ID", http.StatusBadRequest)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrInvalidTransition) {
			h.redirectWithFlash(w, r, "/invoices/"+strconv.FormatInt(id, 10), "error", err.Error())
			return
		}
		h.logger.Error("delete invoice failed", "error", err)
		h.redirectWithFlash(w, r, "/invoices", "error", "Delete failed")
		return
	}

	h.redirectWithFlash(w, r, "/invoices", "success", "Invoice deleted")
}

// formData loads the customer and product choices for the editor.
func (h *Handler) formData(r *http.Request) (map[string]any, error) {
	customerList, _, err := h.customers.List(r.Context(), customers.ListCustomersRequest{Limit: 1000})
	if err != nil {
		return nil, err
	}
	productList, _, err := h.products.List(r.Context(), products.ListProductsRequest{Limit: 1000})
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"Customers": customerList,
		"Products":  productList,
	}, nil
}

// parseCreateForm reads the document editor form. Items arrive as parallel
// arrays, one entry per row.
func (h *Handler) parseCreateForm(r *http.Request) (*CreateInvoiceRequest, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}

	req := CreateInvoiceRequest{}
	req.CustomerID, _ = strconv.ParseInt(r.PostFormValue("customer_id"), 10, 64)
	if v := r.PostFormValue("issue_date"); v != "" {
		if d, err := time.Parse(dateLayout, v); err == nil {
			req.IssueDate = &d
		}
	}
	if v := r.PostFormValue("due_date"); v != "" {
		if d, err := time.Parse(dateLayout, v); err == nil {
			req.DueDate = &d
		}
	}
	if v := r.PostFormValue("delivery_date"); v != "" {
		if d, err := time.Parse(dateLayout, v); err == nil {
			req.DeliveryDate = &d
		}
	}
	if v := r.PostFormValue("payment_terms"); v != "" {
		req.PaymentTerms = &v
	}
	if v := r.PostFormValue("notes"); v != "" {
		req.Notes = &v
	}

	req.Items = parseItemRows(r)
	return &req, nil
}

func parseItemRows(r *http.Request) []ItemRequest {
	descriptions := r.PostForm["item_description[]"]
	quantities := r.PostForm["item_quantity[]"]
	units := r.PostForm["item_unit[]"]
	prices := r.PostForm["item_unit_price[]"]
	rates := r.PostForm["item_tax_rate[]"]
	productIDs := r.PostForm["item_product_id[]"]

	var items []ItemRequest
	for i := range descriptions {
		item := ItemRequest{Description: descriptions[i]}
		if i < len(quantities) {
			item.Quantity, _ = strconv.ParseFloat(quantities[i], 64)
		}
		if i < len(units) {
			item.Unit = units[i]
		}
		if i < len(prices) {
			item.UnitPrice, _ = strconv.ParseFloat(prices[i], 64)
		}
		if i < len(rates) && rates[i] != "" {
			if rate, err := strconv.ParseFloat(rates[i], 64); err == nil {
				item.TaxRate = &rate
			}
		}
		if i < len(productIDs) && productIDs[i] != "" {
			if pid, err := strconv.ParseInt(productIDs[i], 10, 64); err == nil && pid > 0 {
				item.ProductID = &pid
			}
		}
		if item.Description == "" && item.ProductID == nil {
			continue
		}
		items = append(items, item)
	}
	return items
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
		Title:       "Rechnungen",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}); err != nil {
		h.logger.Error("render invoices page", "template", tmpl, "error", err)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
