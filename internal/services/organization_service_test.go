package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/taskflow/internal/models"
)

func TestOrganizationServiceListPublic(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Zeta", "Acme"} {
		_, err := f.svc.RegisterOwner(ctx, RegisterOwnerInput{
			Email:            name + "@example.com",
			Username:         name,
			Password:         "correct-horse",
			OrganizationName: name,
		})
		require.NoError(t, err)
	}

	svc, err := NewOrganizationService(f.db)
	require.NoError(t, err)

	orgs, err := svc.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, orgs, 2)
	require.Equal(t, "Acme", orgs[0].Name)
	require.Equal(t, "Zeta", orgs[1].Name)
	require.NotEmpty(t, orgs[0].ID)
}

func TestOrganizationServiceFindOwner(t *testing.T) {
	f := newLifecycleFixture(t)
	ctx := context.Background()
	owner := registerAcme(t, f)

	svc, err := NewOrganizationService(f.db)
	require.NoError(t, err)

	found, err := svc.FindOwner(ctx, owner.OrganizationID)
	require.NoError(t, err)
	require.Equal(t, owner.ID, found.ID)
	require.NotNil(t, found.Organization)
	require.Equal(t, "Acme", found.Organization.Name)

	_, err = svc.FindOwner(ctx, "")
	require.ErrorIs(t, err, ErrOwnerNotFound)

	empty := &models.Organization{Name: "Empty"}
	require.NoError(t, f.db.Create(empty).Error)
	_, err = svc.FindOwner(ctx, empty.ID)
	require.ErrorIs(t, err, ErrOwnerNotFound)

	_, err = NewOrganizationService(nil)
	require.Error(t, err)
}
