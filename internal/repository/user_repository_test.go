package repository

import (
	"testing"

	"github.com/AgusMolinaCode/CryptoSim_Api.git/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUserDuplicateEmail(t *testing.T) {
	setupTestDB(t)
	repo := NewUserRepository()

	first := &models.User{
		ID:       uuid.NewString(),
		Email:    "ana@test.com",
		Password: "hash1",
		Name:     "Ana",
	}
	require.NoError(t, repo.CreateUser(first))

	second := &models.User{
		ID:       uuid.NewString(),
		Email:    "ana@test.com",
		Password: "hash2",
		Name:     "Otra Ana",
	}
	err := repo.CreateUser(second)
	assert.ErrorIs(t, err, ErrEmailRegistrado)

	// El primer usuario queda intacto
	stored, err := repo.GetUserByEmail("ana@test.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "Ana", stored.Name)
}

func TestGetUserByEmailNotFound(t *testing.T) {
	setupTestDB(t)
	repo := NewUserRepository()

	_, err := repo.GetUserByEmail("nadie@test.com")
	assert.ErrorIs(t, err, ErrUsuarioNoEncontrado)
}

func TestUpdatePassword(t *testing.T) {
	setupTestDB(t)
	repo := NewUserRepository()

	user := &models.User{
		ID:       uuid.NewString(),
		Email:    "luis@test.com",
		Password: "hash",
		Name:     "Luis",
	}
	require.NoError(t, repo.CreateUser(user))

	require.NoError(t, repo.UpdatePassword("luis@test.com", "nueva-clave"))

	stored, err := repo.GetUserByEmail("luis@test.com")
	require.NoError(t, err)
	// La contraseña se guarda hasheada con bcrypt
	assert.NotEqual(t, "nueva-clave", stored.Password)
	assert.NotEqual(t, "hash", stored.Password)
}
