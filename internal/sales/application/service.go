package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	inventorydomain "github.com/JNAMx03/OutOfStock/internal/inventory/domain"
	"github.com/JNAMx03/OutOfStock/internal/ledger"
	"github.com/JNAMx03/OutOfStock/internal/sales/domain"
	"github.com/JNAMx03/OutOfStock/pkg/tracing"
)

// Ledger is the sale ledger: it owns the sale collection of every store,
// assigns sequential sale numbers, tracks partial payments and drives stock
// mutations in the inventory ledger when sales are created or cancelled.
type Ledger struct {
	log       *slog.Logger
	repo      SaleRepository
	inventory Inventory
	now       func() time.Time
}

func NewLedger(log *slog.Logger, repo SaleRepository, inventory Inventory) *Ledger {
	return &Ledger{log: log, repo: repo, inventory: inventory, now: time.Now}
}

// CreateSale validates the request, snapshots prices from the current
// product records, records the sale and then decrements stock per item.
//
// Recording and decrementing are not one transaction: when a decrement hits
// the non-negative-stock guard the sale stays recorded and the error comes
// back as a PartialFailureError carrying the drifted items. Losing the sale
// (and the payment already taken) would be worse than a drifted count.
func (l *Ledger) CreateSale(ctx context.Context, in domain.CreateSaleInput, storeID, userID string) (domain.Sale, error) {
	if violations := in.Validate(); len(violations) > 0 {
		return domain.Sale{}, &ledger.ValidationError{Violations: violations}
	}

	items := make([]domain.SaleItem, 0, len(in.Items))
	var subtotal int64
	for _, it := range in.Items {
		p, err := l.inventory.Product(ctx, it.ProductID)
		if err != nil {
			return domain.Sale{}, err
		}
		unitPrice := p.SalePrice
		if it.UnitPrice != nil {
			unitPrice = *it.UnitPrice
		}
		item := domain.SaleItem{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Quantity:      it.Quantity,
			UnitPrice:     unitPrice,
			PurchasePrice: p.PurchasePrice,
			Subtotal:      int64(it.Quantity) * unitPrice,
		}
		subtotal += item.Subtotal
		items = append(items, item)
	}

	total := domain.CalculateTotal(subtotal, in.Tax, in.Discount)
	if in.AmountPaid > total {
		return domain.Sale{}, &ledger.ValidationError{
			Violations: []string{fmt.Sprintf("amount paid %d exceeds sale total %d", in.AmountPaid, total)},
		}
	}

	existing, err := l.repo.ListByStore(ctx, storeID)
	if err != nil {
		return domain.Sale{}, err
	}
	numbers := make([]string, 0, len(existing))
	for _, s := range existing {
		numbers = append(numbers, s.SaleNumber)
	}

	now := l.now().UTC()
	sale := domain.Sale{
		ID:            "sale-" + uuid.NewString(),
		StoreID:       storeID,
		SaleNumber:    domain.NextSaleNumber(numbers),
		Items:         items,
		Subtotal:      subtotal,
		Tax:           in.Tax,
		Discount:      in.Discount,
		Total:         total,
		Customer:      in.Customer,
		PaymentMethod: in.PaymentMethod,
		Payments:      []domain.Payment{},
		AmountPaid:    in.AmountPaid,
		AmountDue:     total - in.AmountPaid,
		Status:        domain.StatusForPayment(in.AmountPaid, total),
		Notes:         in.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
		CreatedBy:     userID,
		Profit:        domain.CalculateProfit(items),
	}
	if in.AmountPaid > 0 {
		sale.Payments = append(sale.Payments, domain.Payment{
			Method: in.PaymentMethod,
			Amount: in.AmountPaid,
			Date:   now,
		})
	}

	payload, err := json.Marshal(domain.SaleCreated{
		SaleID:     sale.ID,
		StoreID:    storeID,
		SaleNumber: sale.SaleNumber,
		Total:      sale.Total,
		Status:     sale.Status,
	})
	if err != nil {
		return domain.Sale{}, err
	}
	if err := l.repo.SaveWithOutbox(ctx, sale, "SaleCreated", payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Sale{}, err
	}
	l.log.Info("sale created", "sale_id", sale.ID, "sale_number", sale.SaleNumber, "store_id", storeID, "total", sale.Total, "status", string(sale.Status))

	var failures []ledger.StockFailure
	for _, item := range sale.Items {
		if _, err := l.inventory.UpdateStock(ctx, item.ProductID, item.Quantity, inventorydomain.StockSubtract); err != nil {
			l.log.Error("stock decrement failed after sale was recorded", "sale_id", sale.ID, "product_id", item.ProductID, "err", err)
			failures = append(failures, ledger.StockFailure{ProductID: item.ProductID, Reason: err.Error()})
		}
	}
	if len(failures) > 0 {
		return sale, &ledger.PartialFailureError{SaleID: sale.ID, Failures: failures}
	}
	return sale, nil
}

// AddPayment appends to the sale's payment log. A payment above the
// outstanding balance is rejected wholly, before any mutation; a payment
// that brings the balance to exactly zero completes the sale.
func (l *Ledger) AddPayment(ctx context.Context, saleID string, in domain.PaymentInput) (domain.Sale, error) {
	sale, err := l.get(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	if sale.Status == domain.StatusCancelled {
		return domain.Sale{}, &ledger.ValidationError{Violations: []string{"cannot add a payment to a cancelled sale"}}
	}
	if in.Amount <= 0 {
		return domain.Sale{}, &ledger.ValidationError{Violations: []string{"payment amount must be greater than 0"}}
	}
	if in.Amount > sale.AmountDue {
		return domain.Sale{}, &ledger.OverpaymentError{SaleID: saleID, Amount: in.Amount, AmountDue: sale.AmountDue}
	}

	now := l.now().UTC()
	sale.Payments = append(sale.Payments, domain.Payment{
		Method:    in.Method,
		Amount:    in.Amount,
		Reference: in.Reference,
		Date:      now,
	})
	sale.AmountPaid += in.Amount
	sale.AmountDue = sale.Total - sale.AmountPaid
	if sale.AmountDue == 0 {
		sale.Status = domain.StatusCompleted
	} else {
		sale.Status = domain.StatusPartial
	}
	sale.UpdatedAt = now

	payload, err := json.Marshal(domain.PaymentRecorded{
		SaleID:    sale.ID,
		Method:    in.Method,
		Amount:    in.Amount,
		AmountDue: sale.AmountDue,
	})
	if err != nil {
		return domain.Sale{}, err
	}
	if err := l.repo.SaveWithOutbox(ctx, sale, "PaymentRecorded", payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Sale{}, err
	}

	l.log.Info("payment recorded", "sale_id", sale.ID, "amount", in.Amount, "amount_due", sale.AmountDue, "status", string(sale.Status))
	return sale, nil
}

// CancelSale restores stock for every item, then marks the sale cancelled.
// Restoration is attempted for all items even when one fails, to keep stock
// drift as small as possible; failures are reported, not rolled back.
//
// A completed sale cannot be cancelled (that needs a refund flow this core
// does not have), and cancelling an already-cancelled sale is rejected so
// the stock restoration runs exactly once.
func (l *Ledger) CancelSale(ctx context.Context, saleID string) (domain.Sale, error) {
	sale, err := l.get(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	switch sale.Status {
	case domain.StatusCancelled:
		return domain.Sale{}, &ledger.ValidationError{Violations: []string{"sale is already cancelled"}}
	case domain.StatusCompleted:
		return domain.Sale{}, &ledger.ValidationError{Violations: []string{"completed sales cannot be cancelled"}}
	}

	var failures []ledger.StockFailure
	for _, item := range sale.Items {
		if _, err := l.inventory.UpdateStock(ctx, item.ProductID, item.Quantity, inventorydomain.StockAdd); err != nil {
			l.log.Error("stock restore failed during cancellation", "sale_id", sale.ID, "product_id", item.ProductID, "err", err)
			failures = append(failures, ledger.StockFailure{ProductID: item.ProductID, Reason: err.Error()})
		}
	}

	sale.Status = domain.StatusCancelled
	sale.UpdatedAt = l.now().UTC()

	payload, err := json.Marshal(domain.SaleCancelled{SaleID: sale.ID, StoreID: sale.StoreID})
	if err != nil {
		return domain.Sale{}, err
	}
	if err := l.repo.SaveWithOutbox(ctx, sale, "SaleCancelled", payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Sale{}, err
	}
	l.log.Info("sale cancelled", "sale_id", sale.ID, "sale_number", sale.SaleNumber)

	if len(failures) > 0 {
		return sale, &ledger.PartialFailureError{SaleID: sale.ID, Failures: failures}
	}
	return sale, nil
}

// UpdateSale changes the fields a recorded sale still allows: customer and
// notes. Status only moves through AddPayment and CancelSale.
func (l *Ledger) UpdateSale(ctx context.Context, saleID string, patch domain.SalePatch) (domain.Sale, error) {
	sale, err := l.get(ctx, saleID)
	if err != nil {
		return domain.Sale{}, err
	}
	if patch.Customer != nil {
		sale.Customer = patch.Customer
	}
	if patch.Notes != nil {
		sale.Notes = *patch.Notes
	}
	sale.UpdatedAt = l.now().UTC()

	payload, err := json.Marshal(domain.SaleCreated{SaleID: sale.ID, StoreID: sale.StoreID, SaleNumber: sale.SaleNumber, Total: sale.Total, Status: sale.Status})
	if err != nil {
		return domain.Sale{}, err
	}
	if err := l.repo.SaveWithOutbox(ctx, sale, "SaleUpdated", payload, tracing.Traceparent(ctx)); err != nil {
		return domain.Sale{}, err
	}
	return sale, nil
}

// Sale fetches one sale by id.
func (l *Ledger) Sale(ctx context.Context, saleID string) (domain.Sale, error) {
	return l.get(ctx, saleID)
}

// SalesByStore returns the store's sales in insertion order.
func (l *Ledger) SalesByStore(ctx context.Context, storeID string) ([]domain.Sale, error) {
	return l.repo.ListByStore(ctx, storeID)
}

// Filter returns the store's sales narrowed and ordered by the filter.
func (l *Ledger) Filter(ctx context.Context, storeID string, f domain.SaleFilter) ([]domain.Sale, error) {
	sales, err := l.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	return domain.FilterSales(sales, f), nil
}

// Summary recomputes the store's sale aggregates from a fresh snapshot.
func (l *Ledger) Summary(ctx context.Context, storeID string) (domain.Summary, error) {
	sales, err := l.repo.ListByStore(ctx, storeID)
	if err != nil {
		return domain.Summary{}, err
	}
	return domain.Summarize(sales, l.now().UTC()), nil
}

func (l *Ledger) get(ctx context.Context, saleID string) (domain.Sale, error) {
	sale, err := l.repo.Get(ctx, saleID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return domain.Sale{}, &ledger.NotFoundError{Entity: "sale", ID: saleID}
		}
		return domain.Sale{}, err
	}
	return sale, nil
}
