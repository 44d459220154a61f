package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/JNAMx03/OutOfStock/internal/inventory/application"
	"github.com/JNAMx03/OutOfStock/internal/inventory/domain"
	"github.com/JNAMx03/OutOfStock/pkg/httpx"
)

type Handler struct {
	log      *slog.Logger
	ledger   *application.Ledger
	settings application.SettingsProvider
	tracer   trace.Tracer
}

func NewHandler(log *slog.Logger, ledger *application.Ledger, settings application.SettingsProvider) *Handler {
	return &Handler{
		log:      log,
		ledger:   ledger,
		settings: settings,
		tracer:   otel.Tracer("inventory-http"),
	}
}

// Register adds the inventory routes to the server's router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/stores/{storeID}/products", h.createProduct)
	r.Get("/stores/{storeID}/products", h.listProducts)
	r.Get("/stores/{storeID}/inventory/summary", h.summary)
	r.Patch("/products/{id}", h.updateProduct)
	r.Delete("/products/{id}", h.deleteProduct)
	r.Post("/products/{id}/stock", h.updateStock)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateProduct")
	defer span.End()

	storeID := chi.URLParam(r, "storeID")
	var in domain.CreateProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	settings, err := h.settings.InventorySettings(ctx, storeID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	p, err := h.ledger.CreateProduct(ctx, in, storeID, userID(r), settings)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusCreated, map[string]any{"product": p})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	storeID := chi.URLParam(r, "storeID")
	q := r.URL.Query()
	lowStock, _ := strconv.ParseBool(q.Get("lowStock"))
	f := domain.ProductFilter{
		Search:     q.Get("search"),
		CategoryID: q.Get("categoryId"),
		Status:     domain.ProductStatus(q.Get("status")),
		LowStock:   lowStock,
		SortBy:     domain.ProductSortField(q.Get("sortBy")),
		SortOrder:  domain.SortOrder(q.Get("sortOrder")),
	}

	products, err := h.ledger.Filter(r.Context(), storeID, f)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.ledger.Summary(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"summary": s})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateProduct")
	defer span.End()

	var patch domain.ProductPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	p, err := h.ledger.UpdateProduct(ctx, chi.URLParam(r, "id"), patch)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"product": p})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "DeleteProduct")
	defer span.End()

	p, err := h.ledger.DeleteProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"product": p})
}

type stockReq struct {
	Quantity  int                   `json:"quantity"`
	Operation domain.StockOperation `json:"operation"`
}

func (h *Handler) updateStock(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateStock")
	defer span.End()

	var req stockReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	p, err := h.ledger.UpdateStock(ctx, chi.URLParam(r, "id"), req.Quantity, req.Operation)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"product": p})
}

// userID is the attribution handed over by the auth collaborator; session
// handling itself lives outside this service.
func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}
