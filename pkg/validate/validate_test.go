package validate_test

import (
	"testing"

	"github.com/thriftline/thriftline/pkg/validate"
)

type listingInput struct {
	ProductName  string   `json:"productName"  validate:"required,max=255"`
	Description  string   `json:"description"  validate:"nullable,max=2000"`
	Price        float64  `json:"price"        validate:"required,gt=0"`
	City         string   `json:"city"         validate:"required"`
	Category     string   `json:"category"     validate:"required,in=Electronics,Furniture,Books,Clothing,Others"`
	Mobile       string   `json:"mobile"       validate:"nullable,digits=10"`
	PurchaseDate string   `json:"purchaseDate" validate:"nullable,date"`
	Images       []string `json:"images"       validate:"required"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(listingInput{
		ProductName: "Fiction shelf",
		Price:       120.50,
		City:        "Pune",
		Category:    "Books",
		Mobile:      "9876543210",
		Images:      []string{"/storage/products/a.jpg"},
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(listingInput{})
	if !validate.HasErrors(errs) {
		t.Fatal("expected required errors")
	}
	for _, field := range []string{"productName", "price", "city", "category", "images"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected %s to be required", field)
		}
	}
}

func TestInRuleKeepsCommaParams(t *testing.T) {
	errs := validate.Struct(listingInput{
		ProductName: "Chair",
		Price:       40,
		City:        "Delhi",
		Category:    "Gadgets",
		Images:      []string{"x"},
	})
	if _, ok := errs["category"]; !ok {
		t.Error("expected category outside the enum to fail")
	}

	errs = validate.Struct(listingInput{
		ProductName: "Chair",
		Price:       40,
		City:        "Delhi",
		Category:    "Furniture",
		Images:      []string{"x"},
	})
	if _, ok := errs["category"]; ok {
		t.Errorf("expected Furniture to pass, got: %v", errs["category"])
	}
}

func TestGtRule(t *testing.T) {
	type in struct {
		Price float64 `json:"price" validate:"required,gt=0"`
	}
	if errs := validate.Struct(in{Price: -5}); !validate.HasErrors(errs) {
		t.Error("expected negative price to fail")
	}
	if errs := validate.Struct(in{Price: 10}); validate.HasErrors(errs) {
		t.Errorf("expected positive price to pass, got: %v", errs)
	}
}

func TestNullableSkipsEmpty(t *testing.T) {
	type in struct {
		Mobile string `json:"mobile" validate:"nullable,digits=10"`
	}
	if errs := validate.Struct(in{}); validate.HasErrors(errs) {
		t.Errorf("expected empty nullable field to pass, got: %v", errs)
	}
	if errs := validate.Struct(in{Mobile: "12345"}); !validate.HasErrors(errs) {
		t.Error("expected short mobile to fail digits rule")
	}
}

func TestDateRule(t *testing.T) {
	type in struct {
		PurchaseDate string `json:"purchaseDate" validate:"required,date"`
	}
	if errs := validate.Struct(in{PurchaseDate: "not-a-date"}); !validate.HasErrors(errs) {
		t.Error("expected invalid date to fail")
	}
	if errs := validate.Struct(in{PurchaseDate: "2024-11-03"}); validate.HasErrors(errs) {
		t.Errorf("expected ISO date to pass, got: %v", errs)
	}
}
