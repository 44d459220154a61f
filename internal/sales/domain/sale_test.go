package domain

import (
	"strings"
	"testing"
)

func TestNextSaleNumber(t *testing.T) {
	cases := []struct {
		name     string
		existing []string
		want     string
	}{
		{"first sale", nil, "V-0001"},
		{"sequence continues", []string{"V-0001", "V-0002", "V-0041"}, "V-0042"},
		{"numeric max wins over order", []string{"V-0041", "V-0002"}, "V-0042"},
		{"foreign numbers ignored", []string{"X-9999", "V-0003", "V-bad"}, "V-0004"},
		{"grows past four digits", []string{"V-9999"}, "V-10000"},
		{"five digit numbers compare numerically", []string{"V-10000", "V-9999"}, "V-10001"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := NextSaleNumber(c.existing); got != c.want {
				t.Errorf("NextSaleNumber(%v) = %q, want %q", c.existing, got, c.want)
			}
		})
	}
}

func TestStatusForPayment(t *testing.T) {
	if got := StatusForPayment(0, 7000); got != StatusPending {
		t.Errorf("unpaid = %s", got)
	}
	if got := StatusForPayment(3000, 7000); got != StatusPartial {
		t.Errorf("part paid = %s", got)
	}
	if got := StatusForPayment(7000, 7000); got != StatusCompleted {
		t.Errorf("fully paid = %s", got)
	}
}

func TestCalculateTotalAndProfit(t *testing.T) {
	items := []SaleItem{
		{Quantity: 2, UnitPrice: 3500, PurchasePrice: 2500, Subtotal: 7000},
		{Quantity: 1, UnitPrice: 6000, PurchasePrice: 4000, Subtotal: 6000},
	}
	if got := CalculateTotal(13000, 0, 1000); got != 12000 {
		t.Errorf("total = %d", got)
	}
	if got := CalculateTotal(13000, 500, 0); got != 13500 {
		t.Errorf("total with tax = %d", got)
	}
	if got := CalculateProfit(items); got != 4000 {
		t.Errorf("profit = %d, want 4000", got)
	}
}

func TestCreateSaleInputValidateAggregatesViolations(t *testing.T) {
	neg := int64(-5)
	in := CreateSaleInput{
		Items: []SaleItemInput{
			{ProductID: "p1", Quantity: 0},
			{ProductID: "", Quantity: 2, UnitPrice: &neg},
		},
		PaymentMethod: PayCredit,
		AmountPaid:    -100,
	}
	violations := in.Validate()
	if len(violations) < 5 {
		t.Fatalf("expected all violations reported, got %d: %v", len(violations), violations)
	}
	joined := strings.Join(violations, "\n")
	for _, want := range []string{"quantity of item 1", "product id", "unit price of item 2", "amount paid", "credit"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing violation about %q in %v", want, violations)
		}
	}
}

func TestCreateSaleInputValidateRequiresItems(t *testing.T) {
	in := CreateSaleInput{PaymentMethod: PayCash}
	violations := in.Validate()
	if len(violations) != 1 || !strings.Contains(violations[0], "at least one item") {
		t.Errorf("violations = %v", violations)
	}
}

func TestCreateSaleInputValidateOK(t *testing.T) {
	in := CreateSaleInput{
		Items:         []SaleItemInput{{ProductID: "p1", Quantity: 2}},
		PaymentMethod: PayCredit,
		Customer:      &Customer{Name: "Ana"},
		AmountPaid:    0,
	}
	if v := in.Validate(); len(v) != 0 {
		t.Errorf("unexpected violations: %v", v)
	}
}

func TestDebtHelpers(t *testing.T) {
	s := Sale{Total: 7000, AmountPaid: 3000, AmountDue: 4000}
	if !s.HasPendingDebt() || s.IsPaid() {
		t.Error("sale with balance should have pending debt")
	}
	s.AmountPaid, s.AmountDue = 7000, 0
	if s.HasPendingDebt() || !s.IsPaid() {
		t.Error("settled sale should be paid")
	}
}
