package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/taskflow/internal/models"
)

// OrganizationSummary is the public view used by member signup forms.
type OrganizationSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrganizationService reads and creates organisations.
type OrganizationService struct {
	db *gorm.DB
}

// NewOrganizationService constructs an OrganizationService instance.
func NewOrganizationService(db *gorm.DB) (*OrganizationService, error) {
	if db == nil {
		return nil, errors.New("organization service: db is required")
	}
	return &OrganizationService{db: db}, nil
}

// ListPublic returns every organisation ordered by name.
func (s *OrganizationService) ListPublic(ctx context.Context) ([]OrganizationSummary, error) {
	ctx = ensureContext(ctx)

	var orgs []models.Organization
	if err := s.db.WithContext(ctx).
		Select("id", "name").
		Order("name ASC").
		Find(&orgs).Error; err != nil {
		return nil, fmt.Errorf("organization service: list organizations: %w", err)
	}

	summaries := make([]OrganizationSummary, 0, len(orgs))
	for _, org := range orgs {
		summaries = append(summaries, OrganizationSummary{ID: org.ID, Name: org.Name})
	}
	return summaries, nil
}

// FindOwner returns the owner account of organizationID with its organisation preloaded.
func (s *OrganizationService) FindOwner(ctx context.Context, organizationID string) (*models.Account, error) {
	ctx = ensureContext(ctx)

	organizationID = strings.TrimSpace(organizationID)
	if organizationID == "" {
		return nil, ErrOwnerNotFound
	}

	var owner models.Account
	err := s.db.WithContext(ctx).
		Preload("Organization").
		Where("organization_id = ? AND role = ?", organizationID, models.RoleOwner).
		Order("created_at ASC").
		Take(&owner).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("organization service: find owner: %w", err)
	}
	return &owner, nil
}

// create inserts a new organisation inside tx.
func (s *OrganizationService) create(tx *gorm.DB, name string, settings map[string]any) (*models.Organization, error) {
	var existing int64
	if err := tx.Model(&models.Organization{}).
		Where("LOWER(name) = LOWER(?)", name).
		Count(&existing).Error; err != nil {
		return nil, fmt.Errorf("organization service: check name: %w", err)
	}
	if existing > 0 {
		return nil, ErrOrganizationExists
	}

	org := &models.Organization{Name: name}
	if settings != nil {
		data, err := json.Marshal(settings)
		if err != nil {
			return nil, fmt.Errorf("organization service: marshal settings: %w", err)
		}
		org.Settings = datatypes.JSON(data)
	}

	if err := tx.Create(org).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, ErrOrganizationExists
		}
		return nil, fmt.Errorf("organization service: create organization: %w", err)
	}
	return org, nil
}
