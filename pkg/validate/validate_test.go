package validate_test

import (
	"testing"

	"github.com/shashiranjanraj/giftbid/pkg/validate"
)

type listingInput struct {
	SellerEmail string   `json:"sellerEmail" validate:"required,email"`
	Type        string   `json:"type"        validate:"required,in=auction,donation"`
	Name        string   `json:"name"        validate:"required,max=120"`
	Category    string   `json:"category"    validate:"required"`
	Duration    int      `json:"duration"    validate:"nullable,gte=1,lte=60"`
	Images      []string `json:"images"      validate:"required"`
	Amount      float64  `json:"amount"      validate:"nullable,gt=0"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(listingInput{
		SellerEmail: "ana@example.com",
		Type:        "auction",
		Name:        "Vintage lamp",
		Category:    "home",
		Duration:    7,
		Images:      []string{"data:image/jpeg;base64,xxx"},
		Amount:      12.5,
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
	for _, field := range []string{"sellerEmail", "type", "name", "category", "images"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected %s to be required", field)
		}
	}
	// Nullable fields are skipped when empty.
	if _, ok := errs["duration"]; ok {
		t.Error("duration is nullable, zero should pass")
	}
}

func TestEmailRule(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"required,email"`
	}
	if errs := validate.Struct(in{Email: "not-an-email"}); len(errs) == 0 {
		t.Error("expected email validation error")
	}
	if errs := validate.Struct(in{Email: "valid@example.com"}); len(errs) != 0 {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestInRuleKeepsMultiValueParams(t *testing.T) {
	type in struct {
		Type string `json:"type" validate:"required,in=auction,donation,max=20"`
	}
	if errs := validate.Struct(in{Type: "donation"}); len(errs) != 0 {
		t.Errorf("donation should be allowed, got: %v", errs)
	}
	if errs := validate.Struct(in{Type: "raffle"}); len(errs) == 0 {
		t.Error("raffle should be rejected")
	}
}

func TestRangeRules(t *testing.T) {
	type in struct {
		Duration int     `json:"duration" validate:"required,gte=1,lte=60"`
		Rating   int     `json:"rating"   validate:"required,between=1,5"`
		Amount   float64 `json:"amount"   validate:"required,gt=0"`
	}
	if errs := validate.Struct(in{Duration: 61, Rating: 3, Amount: 1}); len(errs) != 1 {
		t.Errorf("expected only duration to fail, got: %v", errs)
	}
	if errs := validate.Struct(in{Duration: 7, Rating: 6, Amount: 1}); len(errs) != 1 {
		t.Errorf("expected only rating to fail, got: %v", errs)
	}
	if errs := validate.Struct(in{Duration: 7, Rating: 3, Amount: -1}); len(errs) != 1 {
		t.Errorf("expected only amount to fail, got: %v", errs)
	}
}

func TestFirstFailingRuleWins(t *testing.T) {
	type in struct {
		Name string `json:"name" validate:"required,max=3"`
	}
	errs := validate.Struct(in{Name: "too long"})
	if len(errs) != 1 {
		t.Fatalf("expected exactly one error, got: %v", errs)
	}
	if errs["name"] != "The name must not exceed 3 characters." {
		t.Errorf("unexpected message: %q", errs["name"])
	}
}

func TestPointerInput(t *testing.T) {
	type in struct {
		Name string `json:"name" validate:"required"`
	}
	if errs := validate.Struct(&in{Name: "x"}); len(errs) != 0 {
		t.Errorf("pointer input should validate, got: %v", errs)
	}
}
