package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bethesda-mission/shelterline/pkg/models"
	"github.com/bethesda-mission/shelterline/pkg/store"
)

func TestVolunteerService_Register(t *testing.T) {
	svc := NewVolunteerService(store.NewMemoryStore())
	ctx := context.Background()

	v, err := svc.Register(ctx, RegisterVolunteerInput{
		Name:         "Maria Lopez",
		Phone:        "555-0102",
		Availability: []string{"weekends"},
		Interests:    []string{"meals", "chapel"},
	})
	require.NoError(t, err)
	assert.NotZero(t, v.ID)
	assert.Equal(t, models.VolunteerPending, v.Status)

	got, err := svc.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"meals", "chapel"}, got.Interests)
}

func TestVolunteerService_RegisterValidation(t *testing.T) {
	svc := NewVolunteerService(store.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterVolunteerInput{Phone: "555-0102"})
	assert.True(t, IsValidationError(err))

	_, err = svc.Register(ctx, RegisterVolunteerInput{Name: "Maria"})
	assert.True(t, IsValidationError(err))
}

func TestVolunteerService_ListOrdersByName(t *testing.T) {
	svc := NewVolunteerService(store.NewMemoryStore())
	ctx := context.Background()

	for _, name := range []string{"zed", "Amy", "mike"} {
		_, err := svc.Register(ctx, RegisterVolunteerInput{Name: name, Phone: "555"})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Amy", list[0].Name)
	assert.Equal(t, "mike", list[1].Name)
	assert.Equal(t, "zed", list[2].Name)
}

func TestVolunteerService_UpdateStatus(t *testing.T) {
	svc := NewVolunteerService(store.NewMemoryStore())
	ctx := context.Background()

	v, err := svc.Register(ctx, RegisterVolunteerInput{Name: "Maria", Phone: "555"})
	require.NoError(t, err)

	updated, err := svc.UpdateStatus(ctx, v.ID, models.VolunteerActive)
	require.NoError(t, err)
	assert.Equal(t, models.VolunteerActive, updated.Status)

	_, err = svc.UpdateStatus(ctx, 999, models.VolunteerInactive)
	assert.ErrorIs(t, err, ErrNotFound)
}
