package repository

import (
	"testing"

	"github.com/srseducares/educares-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBaseCRUDRoundTrip(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)

	user := &models.User{
		Username: "admin",
		Email:    "admin@srseducares.com",
		Phone:    "9876543210",
		Password: "hash",
		IsAdmin:  true,
	}
	require.NoError(t, repo.Create(user))
	require.NotEqual(t, "00000000-0000-0000-0000-000000000000", user.ID.String())

	got, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "admin@srseducares.com", got.Email)

	got.City = "Jaipur"
	require.NoError(t, repo.Update(got))

	updated, err := repo.GetByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jaipur", updated.City)

	require.NoError(t, repo.Delete(user.ID))
	_, err = repo.GetByID(user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
