package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/models"
	"github.com/charlesng35/taskflow/pkg/crypto"
	apperrors "github.com/charlesng35/taskflow/pkg/errors"
	"github.com/charlesng35/taskflow/pkg/logger"
	"github.com/charlesng35/taskflow/pkg/mail"
	"github.com/charlesng35/taskflow/pkg/metrics"
	"github.com/charlesng35/taskflow/pkg/validator"
)

const (
	defaultPasswordMinLength = 8

	ReviewApprove = "approve"
	ReviewReject  = "reject"
)

// RegisterOwnerInput captures an owner signup, which also creates the organisation.
type RegisterOwnerInput struct {
	Email            string
	Username         string
	Password         string
	OrganizationName string
}

// RegisterMemberInput captures an employee signup against an existing organisation.
type RegisterMemberInput struct {
	Email          string
	Username       string
	Password       string
	OrganizationID string
}

// ReviewOutcome reports what ReviewEmployee did to the member account.
type ReviewOutcome struct {
	Action  string
	Account *models.Account
}

// LifecycleOption customises LifecycleService.
type LifecycleOption func(*LifecycleService)

// WithLifecycleBaseURL sets the public URL used to build links in notifications.
func WithLifecycleBaseURL(url string) LifecycleOption {
	return func(s *LifecycleService) {
		s.baseURL = strings.TrimRight(strings.TrimSpace(url), "/")
	}
}

// WithLifecycleAudit records lifecycle transitions through audit.
func WithLifecycleAudit(audit *AuditService) LifecycleOption {
	return func(s *LifecycleService) {
		s.audit = audit
	}
}

// WithPasswordMinLength overrides the minimum password length.
func WithPasswordMinLength(n int) LifecycleOption {
	return func(s *LifecycleService) {
		if n > 0 {
			s.passwordMinLength = n
		}
	}
}

// WithPasswordHasher replaces the bcrypt hasher.
func WithPasswordHasher(hash func(string) (string, error)) LifecycleOption {
	return func(s *LifecycleService) {
		if hash != nil {
			s.hashPassword = hash
		}
	}
}

// LifecycleService applies account lifecycle transitions: registration, email verification,
// employee review, activation and password reset.
type LifecycleService struct {
	db                *gorm.DB
	tokens            *LifecycleTokens
	orgs              *OrganizationService
	notifier          Notifier
	audit             *AuditService
	baseURL           string
	passwordMinLength int
	hashPassword      func(string) (string, error)
	log               *zap.Logger
}

// NewLifecycleService wires the applier over tokens. notifier may be nil, in which case
// notifications are skipped.
func NewLifecycleService(db *gorm.DB, tokens *LifecycleTokens, notifier Notifier, opts ...LifecycleOption) (*LifecycleService, error) {
	if db == nil {
		return nil, errors.New("lifecycle service: db is required")
	}
	if tokens == nil {
		return nil, errors.New("lifecycle service: tokens are required")
	}

	orgs, err := NewOrganizationService(db)
	if err != nil {
		return nil, err
	}

	s := &LifecycleService{
		db:                db,
		tokens:            tokens,
		orgs:              orgs,
		notifier:          notifier,
		passwordMinLength: defaultPasswordMinLength,
		hashPassword:      crypto.HashPassword,
		log:               logger.WithModule("lifecycle"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// RegisterOwner creates the organisation and its owner, then emails a verification link.
func (s *LifecycleService) RegisterOwner(ctx context.Context, in RegisterOwnerInput) (*models.Account, error) {
	ctx = ensureContext(ctx)

	orgName := strings.TrimSpace(in.OrganizationName)
	if orgName == "" {
		return nil, apperrors.NewBadRequest("Organization name is required")
	}
	email, username, err := s.checkCredentials(in.Email, in.Username, in.Password)
	if err != nil {
		return nil, err
	}

	passwordHash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("lifecycle service: hash password: %w", err)
	}
	raw, token, err := s.tokens.Mint(models.PurposeVerifyEmail)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:            email,
		Username:         username,
		PasswordHash:     passwordHash,
		Role:             models.RoleOwner,
		Approved:         true,
		VerifyEmailToken: token,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailAvailable(tx, email); err != nil {
			return err
		}
		org, err := s.orgs.create(tx, orgName, map[string]any{"memberApproval": true})
		if err != nil {
			return err
		}
		account.OrganizationID = org.ID
		account.Organization = org
		return createAccount(tx, account)
	})
	if err != nil {
		s.transitionFailed(ctx, "register-owner", nil, err)
		return nil, err
	}

	metrics.LifecycleTransitions.WithLabelValues("register-owner", "success").Inc()
	recordAudit(s.audit, ctx, accountAuditEntry("account.register_owner", auditResultSuccess, account, map[string]any{
		"organizationId": account.OrganizationID,
	}))

	s.notifyBestEffort(ctx, NotifyVerifyEmail, account.Email, map[string]string{
		"username":     account.Username,
		"organization": orgName,
		"link":         actionLink(s.baseURL, string(models.PurposeVerifyEmail), raw),
	})

	return account, nil
}

// RegisterMember creates an unapproved member and emails the approval link to the
// organisation owner. No account is created when the organisation has no owner.
func (s *LifecycleService) RegisterMember(ctx context.Context, in RegisterMemberInput) (*models.Account, error) {
	ctx = ensureContext(ctx)

	orgID := strings.TrimSpace(in.OrganizationID)
	if orgID == "" {
		return nil, apperrors.NewBadRequest("Organization ID is required")
	}
	email, username, err := s.checkCredentials(in.Email, in.Username, in.Password)
	if err != nil {
		return nil, err
	}

	owner, err := s.orgs.FindOwner(ctx, orgID)
	if err != nil {
		s.transitionFailed(ctx, "register-member", nil, err)
		return nil, err
	}

	passwordHash, err := s.hashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("lifecycle service: hash password: %w", err)
	}
	raw, token, err := s.tokens.Mint(models.PurposeApproveEmployee)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Email:                email,
		Username:             username,
		PasswordHash:         passwordHash,
		Role:                 models.RoleMember,
		OrganizationID:       owner.OrganizationID,
		ApproveEmployeeToken: token,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureEmailAvailable(tx, email); err != nil {
			return err
		}
		return createAccount(tx, account)
	})
	if err != nil {
		s.transitionFailed(ctx, "register-member", nil, err)
		return nil, err
	}
	account.Organization = owner.Organization

	metrics.LifecycleTransitions.WithLabelValues("register-member", "success").Inc()
	recordAudit(s.audit, ctx, accountAuditEntry("account.register_member", auditResultSuccess, account, map[string]any{
		"organizationId": account.OrganizationID,
		"ownerId":        owner.ID,
	}))

	s.notifyBestEffort(ctx, NotifyApproveEmployee, owner.Email, map[string]string{
		"ownerName":    owner.Username,
		"memberName":   account.Username,
		"memberEmail":  account.Email,
		"organization": organizationName(owner),
		"link":         actionLink(s.baseURL, string(models.PurposeApproveEmployee), raw),
	})

	return account, nil
}

// VerifyEmail consumes an owner's verification token and opens the login gate.
func (s *LifecycleService) VerifyEmail(ctx context.Context, token string) (*models.Account, error) {
	ctx = ensureContext(ctx)
	purpose := models.PurposeVerifyEmail

	account, err := s.tokens.Validate(ctx, token, purpose)
	if err != nil {
		s.transitionFailed(ctx, string(purpose), nil, err)
		return nil, err
	}

	err = s.tokens.Redeem(ctx, account.ID, token, purpose, Redemption{
		Guard: map[string]any{"role": models.RoleOwner, "email_verified": false},
		Set:   map[string]any{"email_verified": true, "active": true},
	})
	if err != nil {
		s.transitionFailed(ctx, string(purpose), account, err)
		return nil, err
	}

	account.EmailVerified = true
	account.Active = true
	account.VerifyEmailToken = models.LifecycleToken{}

	metrics.LifecycleTransitions.WithLabelValues(string(purpose), "success").Inc()
	recordAudit(s.audit, ctx, accountAuditEntry("account.verify_email", auditResultSuccess, account, nil))
	return account, nil
}

// ReviewEmployee approves or rejects a pending member using the token delivered to the owner.
// Approval issues the activation token in the same update; rejection deletes the member.
func (s *LifecycleService) ReviewEmployee(ctx context.Context, token, action string) (*ReviewOutcome, error) {
	ctx = ensureContext(ctx)
	purpose := models.PurposeApproveEmployee

	action = strings.ToLower(strings.TrimSpace(action))
	if action != ReviewApprove && action != ReviewReject {
		return nil, ErrInvalidReviewAction
	}

	account, err := s.tokens.Validate(ctx, token, purpose)
	if err != nil {
		s.transitionFailed(ctx, string(purpose), nil, err)
		return nil, err
	}

	guard := map[string]any{"role": models.RoleMember, "approved": false}

	if action == ReviewReject {
		if err := s.tokens.RedeemByDelete(ctx, account.ID, token, purpose, guard); err != nil {
			s.transitionFailed(ctx, string(purpose), account, err)
			return nil, err
		}

		metrics.LifecycleTransitions.WithLabelValues(string(purpose), "rejected").Inc()
		recordAudit(s.audit, ctx, accountAuditEntry("account.reject", auditResultSuccess, account, nil))
		s.notifyBestEffort(ctx, NotifyEmployeeRejected, account.Email, map[string]string{
			"username":     account.Username,
			"organization": organizationName(account),
		})
		return &ReviewOutcome{Action: action, Account: account}, nil
	}

	raw, next, err := s.tokens.Mint(models.PurposeActivateAccount)
	if err != nil {
		return nil, err
	}

	set := tokenColumns(models.PurposeActivateAccount, next)
	set["approved"] = true

	if err := s.tokens.Redeem(ctx, account.ID, token, purpose, Redemption{Guard: guard, Set: set}); err != nil {
		s.transitionFailed(ctx, string(purpose), account, err)
		return nil, err
	}

	account.Approved = true
	account.ApproveEmployeeToken = models.LifecycleToken{}
	account.ActivateAccountToken = next

	metrics.LifecycleTransitions.WithLabelValues(string(purpose), "approved").Inc()
	recordAudit(s.audit, ctx, accountAuditEntry("account.approve", auditResultSuccess, account, nil))
	s.notifyBestEffort(ctx, NotifyActivateAccount, account.Email, map[string]string{
		"username":     account.Username,
		"organization": organizationName(account),
		"link":         actionLink(s.baseURL, string(models.PurposeActivateAccount), raw),
	})

	return &ReviewOutcome{Action: action, Account: account}, nil
}

// ActivateAccount consumes an approved member's activation token and opens the login gate.
func (s *LifecycleService) ActivateAccount(ctx context.Context, token string) (*models.Account, error) {
	ctx = ensureContext(ctx)
	purpose := models.PurposeActivateAccount

	account, err := s.tokens.Validate(ctx, token, purpose)
	if err != nil {
		s.transitionFailed(ctx, string(purpose), nil, err)
		return nil, err
	}

	err = s.tokens.Redeem(ctx, account.ID, token, purpose, Redemption{
		Guard: map[string]any{"role": models.RoleMember, "approved": true},
		Set:   map[string]any{"email_verified": true, "active": true},
	})
	if err != nil {
		s.transitionFailed(ctx, string(purpose), account, err)
		return nil, err
	}

	account.EmailVerified = true
	account.Active = true
	account.ActivateAccountToken = models.LifecycleToken{}

	metrics.LifecycleTransitions.WithLabelValues(string(purpose), "success").Inc()
	recordAudit(s.audit, ctx, accountAuditEntry("account.activate", auditResultSuccess, account, nil))
	return account, nil
}

// ForgotPassword emails a reset link when email belongs to an account. Unknown addresses
// are a silent no-op so callers cannot tell the two apart.
func (s *LifecycleService) ForgotPassword(ctx context.Context, email string) error {
	ctx = ensureContext(ctx)
	purpose := models.PurposeResetPassword

	email = models.NormaliseEmail(email)
	if email == "" {
		return apperrors.NewBadRequest("Email is required")
	}

	var account models.Account
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.LifecycleTransitions.WithLabelValues(string(purpose), "unknown_email").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("lifecycle service: lookup account: %w", err)
	}

	raw, err := s.tokens.Issue(ctx, account.ID, purpose)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil
		}
		return err
	}

	metrics.LifecycleTransitions.WithLabelValues(string(purpose), "issued").Inc()
	recordAudit(s.audit, ctx, accountAuditEntry("account.password_reset_requested", auditResultSuccess, &account, nil))
	s.notifyBestEffort(ctx, NotifyResetPassword, account.Email, map[string]string{
		"username": account.Username,
		"link":     actionLink(s.baseURL, string(purpose), raw),
	})
	return nil
}

// ResetPassword stores a new password for the account holding token. The length rule is
// checked before the token is consumed so a rejected password leaves the link usable.
func (s *LifecycleService) ResetPassword(ctx context.Context, token, newPassword string) error {
	ctx = ensureContext(ctx)
	purpose := models.PurposeResetPassword

	if err := s.checkPasswordLength(newPassword); err != nil {
		return err
	}

	account, err := s.tokens.Validate(ctx, token, purpose)
	if err != nil {
		s.transitionFailed(ctx, string(purpose), nil, err)
		return err
	}

	passwordHash, err := s.hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("lifecycle service: hash password: %w", err)
	}

	err = s.tokens.Redeem(ctx, account.ID, token, purpose, Redemption{
		Set: map[string]any{"password_hash": passwordHash},
	})
	if err != nil {
		s.transitionFailed(ctx, string(purpose), account, err)
		return err
	}

	metrics.LifecycleTransitions.WithLabelValues(string(purpose), "success").Inc()
	recordAudit(s.audit, ctx, accountAuditEntry("account.password_reset", auditResultSuccess, account, nil))
	return nil
}

func (s *LifecycleService) checkCredentials(email, username, password string) (string, string, error) {
	email = models.NormaliseEmail(email)
	username = strings.TrimSpace(username)
	if email == "" || username == "" || password == "" {
		return "", "", apperrors.NewBadRequest("Email, username and password are required")
	}
	// Format is checked on the normalised address so padded or mixed-case input is accepted.
	if err := validator.ValidateVar(email, "email"); err != nil {
		return "", "", apperrors.NewBadRequest("Email must be a valid email address")
	}
	if err := s.checkPasswordLength(password); err != nil {
		return "", "", err
	}
	return email, username, nil
}

func (s *LifecycleService) checkPasswordLength(password string) error {
	if utf8.RuneCountInString(password) < s.passwordMinLength {
		return apperrors.NewBadRequest(fmt.Sprintf("Password must be at least %d characters", s.passwordMinLength))
	}
	return nil
}

// notifyBestEffort sends a lifecycle notification. Failures are logged and counted but never
// undo the transition that triggered them.
func (s *LifecycleService) notifyBestEffort(ctx context.Context, kind NotificationKind, recipient string, params map[string]string) {
	template := string(kind)
	if s.notifier == nil {
		metrics.Notifications.WithLabelValues(template, "skipped").Inc()
		return
	}

	err := s.notifier.Notify(ctx, kind, recipient, params)
	switch {
	case err == nil:
		metrics.Notifications.WithLabelValues(template, "sent").Inc()
	case errors.Is(err, mail.ErrSMTPDisabled):
		metrics.Notifications.WithLabelValues(template, "skipped").Inc()
		s.log.Debug("smtp disabled, notification skipped", zap.String("template", template))
	default:
		metrics.Notifications.WithLabelValues(template, "failed").Inc()
		s.log.Warn("notification delivery failed",
			zap.String("template", template),
			zap.String("recipient", recipient),
			zap.Error(err),
		)
	}
}

func (s *LifecycleService) transitionFailed(ctx context.Context, transition string, account *models.Account, err error) {
	result := "error"
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		result = strings.ToLower(appErr.Code)
	} else {
		s.log.Error("lifecycle transition failed", zap.String("transition", transition), zap.Error(err))
	}
	metrics.LifecycleTransitions.WithLabelValues(transition, result).Inc()

	if errors.Is(err, ErrInvalidToken) {
		recordAudit(s.audit, ctx, accountAuditEntry("account."+strings.ReplaceAll(transition, "-", "_"), auditResultFailure, account, map[string]any{
			"reason": "invalid_token",
		}))
	}
}

func ensureEmailAvailable(tx *gorm.DB, email string) error {
	var count int64
	if err := tx.Model(&models.Account{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return fmt.Errorf("lifecycle service: check email: %w", err)
	}
	if count > 0 {
		return ErrEmailInUse
	}
	return nil
}

func createAccount(tx *gorm.DB, account *models.Account) error {
	if err := tx.Omit("Organization").Create(account).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrEmailInUse
		}
		return fmt.Errorf("lifecycle service: create account: %w", err)
	}
	return nil
}

func organizationName(account *models.Account) string {
	if account == nil || account.Organization == nil {
		return "your organization"
	}
	return account.Organization.Name
}
