package handlers

import (
	"testing"

	"github.com/stretchr/testify/require"

	appValidator "github.com/charlesng35/taskflow/pkg/validator"
)

func TestFormatValidationError(t *testing.T) {
	err := appValidator.ValidationErrors{
		{Field: "organizationName", Tag: "notblank"},
		{Field: "email", Tag: "email"},
		{Field: "newPassword", Tag: "min", Param: "8"},
	}
	require.Equal(t,
		"organization name is required; email must be a valid email address; new password must be at least 8 characters",
		formatValidationError(err),
	)
	require.Equal(t, "invalid request payload", formatValidationError(nil))
}
