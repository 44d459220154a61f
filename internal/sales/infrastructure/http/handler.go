package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/JNAMx03/OutOfStock/internal/ledger"
	"github.com/JNAMx03/OutOfStock/internal/sales/application"
	"github.com/JNAMx03/OutOfStock/internal/sales/domain"
	"github.com/JNAMx03/OutOfStock/pkg/httpx"
)

type Handler struct {
	log    *slog.Logger
	ledger *application.Ledger
	tracer trace.Tracer
}

func NewHandler(log *slog.Logger, l *application.Ledger) *Handler {
	return &Handler{
		log:    log,
		ledger: l,
		tracer: otel.Tracer("sales-http"),
	}
}

// Register adds the sale routes to the server's router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/stores/{storeID}/sales", h.createSale)
	r.Get("/stores/{storeID}/sales", h.listSales)
	r.Get("/stores/{storeID}/sales/summary", h.summary)
	r.Get("/sales/{id}", h.getSale)
	r.Patch("/sales/{id}", h.updateSale)
	r.Post("/sales/{id}/payments", h.addPayment)
	r.Post("/sales/{id}/cancel", h.cancelSale)
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CreateSale")
	defer span.End()

	var in domain.CreateSaleInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid body", nil)
		return
	}

	sale, err := h.ledger.CreateSale(ctx, in, chi.URLParam(r, "storeID"), userID(r))
	if err != nil {
		// The sale exists even when dependent stock decrements failed;
		// report the drift without discarding the recorded sale.
		var partial *ledger.PartialFailureError
		if errors.As(err, &partial) {
			httpx.OK(w, http.StatusCreated, map[string]any{
				"sale":          sale,
				"error":         partial.Error(),
				"stockFailures": partial.Failures,
			})
			return
		}
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusCreated, map[string]any{"sale": sale})
}

func (h *Handler) listSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.SaleFilter{
		Search:        q.Get("search"),
		Status:        domain.SaleStatus(q.Get("status")),
		PaymentMethod: domain.PaymentMethod(q.Get("paymentMethod")),
		DateFrom:      parseDate(q.Get("dateFrom")),
		DateTo:        parseDate(q.Get("dateTo")),
		SortBy:        domain.SaleSortField(q.Get("sortBy")),
		SortOrder:     domain.SortOrder(q.Get("sortOrder")),
	}

	sales, err := h.ledger.Filter(r.Context(), chi.URLParam(r, "storeID"), f)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"sales": sales})
}

func (h *Handler) summary(w http.ResponseWriter, r *http.Request) {
	s, err := h.ledger.Summary(r.Context(), chi.URLParam(r, "storeID"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"summary": s})
}

func (h *Handler) getSale(w http.ResponseWriter, r *http.Request) {
	sale, err := h.ledger.Sale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"sale": sale})
}

func (h *Handler) updateSale(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UpdateSale")
	defer span.End()

	var patch domain.SalePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	sale, err := h.ledger.UpdateSale(ctx, chi.URLParam(r, "id"), patch)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"sale": sale})
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "AddPayment")
	defer span.End()

	var in domain.PaymentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "invalid body", nil)
		return
	}
	sale, err := h.ledger.AddPayment(ctx, chi.URLParam(r, "id"), in)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"sale": sale})
}

func (h *Handler) cancelSale(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "CancelSale")
	defer span.End()

	sale, err := h.ledger.CancelSale(ctx, chi.URLParam(r, "id"))
	if err != nil {
		var partial *ledger.PartialFailureError
		if errors.As(err, &partial) {
			httpx.OK(w, http.StatusOK, map[string]any{
				"sale":          sale,
				"error":         partial.Error(),
				"stockFailures": partial.Failures,
			})
			return
		}
		httpx.Error(w, h.log, err)
		return
	}
	httpx.OK(w, http.StatusOK, map[string]any{"sale": sale})
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	return nil
}

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return "anonymous"
}
