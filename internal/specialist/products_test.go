package specialist

import (
	"context"
	"testing"

	"github.com/vaanihq/vaani/internal/assistant"
)

func TestLoansNarrowsByKeyword(t *testing.T) {
	t.Parallel()

	handle := NewLoansSpecialist(testDeps(&fakeStore{}))

	p, err := handle(context.Background(), testState("what's the interest rate on a home loan?"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.StructuredData == nil || p.StructuredData.Type != assistant.TypeLoan {
		t.Fatalf("StructuredData = %+v, want type %q", p.StructuredData, assistant.TypeLoan)
	}
	products, ok := p.StructuredData.Fields["products"].([]map[string]any)
	if !ok || len(products) != 1 {
		t.Fatalf("products = %+v, want just the home loan", p.StructuredData.Fields["products"])
	}
	if products[0]["name"] != "Home Loan" {
		t.Errorf("product = %v", products[0]["name"])
	}
}

func TestLoansFallsBackToFullCatalog(t *testing.T) {
	t.Parallel()

	handle := NewLoansSpecialist(testDeps(&fakeStore{}))

	p, err := handle(context.Background(), testState("loan chahiye"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got := p.StructuredData.Fields["count"]; got != 4 {
		t.Errorf("count = %v, want the full catalog of 4", got)
	}
}

func TestInvestments(t *testing.T) {
	t.Parallel()

	handle := NewInvestmentsSpecialist(testDeps(&fakeStore{}))

	p, err := handle(context.Background(), testState("fd karwana hai"))
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.StructuredData == nil || p.StructuredData.Type != assistant.TypeInvestment {
		t.Fatalf("StructuredData = %+v, want type %q", p.StructuredData, assistant.TypeInvestment)
	}
	products, ok := p.StructuredData.Fields["products"].([]map[string]any)
	if !ok || len(products) != 1 {
		t.Fatalf("products = %+v, want just the fixed deposit", p.StructuredData.Fields["products"])
	}
	if products[0]["name"] != "Fixed Deposit" {
		t.Errorf("product = %v", products[0]["name"])
	}
}
