package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

type registerPayload struct {
	Email            string `json:"email" validate:"required,email"`
	Username         string `json:"username" validate:"required,notblank"`
	Password         string `json:"password" validate:"required,min=8"`
	OrganizationName string `json:"organizationName" validate:"required,notblank"`
}

func TestValidateStructSuccess(t *testing.T) {
	payload := registerPayload{
		Email:            "ceo@acme.com",
		Username:         "ceo",
		Password:         "longenough",
		OrganizationName: "Acme",
	}

	if err := ValidateStruct(payload); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
}

func TestValidateStructFailures(t *testing.T) {
	payload := registerPayload{
		Email:            "invalid",
		Username:         "   ",
		Password:         "short",
		OrganizationName: "Acme",
	}

	err := ValidateStruct(payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	vErrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(vErrs) != 3 {
		t.Fatalf("expected 3 validation errors, got %d: %v", len(vErrs), vErrs)
	}

	fields := map[string]string{}
	for _, v := range vErrs {
		fields[v.Field] = v.Tag
	}
	if fields["email"] != "email" || fields["username"] != "notblank" || fields["password"] != "min" {
		t.Fatalf("unexpected failures: %v", fields)
	}
}

func TestRegisterValidation(t *testing.T) {
	err := RegisterValidation("review_action", func(fl validator.FieldLevel) bool {
		v := fl.Field().String()
		return v == "approve" || v == "reject"
	})
	if err != nil {
		t.Fatalf("register validation: %v", err)
	}

	type review struct {
		Action string `validate:"review_action"`
	}

	if err := ValidateStruct(review{Action: "approve"}); err != nil {
		t.Fatalf("expected validation to pass, got %v", err)
	}
	if err := ValidateStruct(review{Action: "maybe"}); err == nil {
		t.Fatal("expected validation to fail for unknown action")
	}
}

func TestValidateVar(t *testing.T) {
	if err := ValidateVar("ceo@acme.com", "email"); err != nil {
		t.Fatalf("expected valid address, got %v", err)
	}

	err := ValidateVar("  ceo@acme.com ", "email")
	vErrs, ok := err.(ValidationErrors)
	if !ok || len(vErrs) != 1 || vErrs[0].Tag != "email" {
		t.Fatalf("expected a single email failure for padded input, got %v", err)
	}
}
