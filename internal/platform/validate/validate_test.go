package validate

import (
	"testing"

	"github.com/careportal/careportal/internal/platform/errs"
)

type sampleRequest struct {
	Email string `validate:"required,email"`
	Name  string `validate:"required"`
}

func TestValidate_Passes(t *testing.T) {
	v := New()
	err := v.Validate(&sampleRequest{Email: "a@b.com", Name: "A"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_FailsWithValidationError(t *testing.T) {
	v := New()
	err := v.Validate(&sampleRequest{Email: "not-an-email", Name: "A"})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := err.(*errs.ValidationError); !ok {
		t.Errorf("expected *errs.ValidationError, got %T", err)
	}
}
