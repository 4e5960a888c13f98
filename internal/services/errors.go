package services

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	apperrors "github.com/charlesng35/taskflow/pkg/errors"
)

var (
	// ErrInvalidToken covers unknown, expired and already consumed lifecycle tokens alike.
	ErrInvalidToken = apperrors.New("INVALID_TOKEN", "Invalid or expired token", http.StatusBadRequest)
	// ErrOwnerNotFound is returned when a member registers against an organisation without an owner.
	ErrOwnerNotFound = apperrors.New("OWNER_NOT_FOUND", "Organization owner not found", http.StatusNotFound)
	// ErrEmailInUse signals a duplicate account email.
	ErrEmailInUse = apperrors.New("EMAIL_IN_USE", "An account with this email already exists", http.StatusConflict)
	// ErrOrganizationExists signals a duplicate organisation name.
	ErrOrganizationExists = apperrors.New("ORGANIZATION_EXISTS", "An organization with this name already exists", http.StatusConflict)
	// ErrInvalidReviewAction is returned for approval actions other than approve or reject.
	ErrInvalidReviewAction = apperrors.New("INVALID_ACTION", "Action must be either approve or reject", http.StatusBadRequest)
	// ErrDeliveryFailed is surfaced by call sites where email delivery is part of the operation itself.
	ErrDeliveryFailed = apperrors.New("EMAIL_DELIVERY_FAILED", "Failed to deliver message, please try again later", http.StatusBadGateway)

	// ErrAccountNotFound is an internal signal; it is never rendered for token flows.
	ErrAccountNotFound = errors.New("account not found")
)

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == "23505" {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate")
}
