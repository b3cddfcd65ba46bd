package repository

import (
	"errors"
	"testing"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupUserTest(t *testing.T) (*gorm.DB, UserRepository) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewUserRepository(testDB)
	return testDB, repo
}

func TestUserRepository_Create(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	tests := []struct {
		name    string
		user    *model.User
		wantErr bool
	}{
		{
			name: "Valid user",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				FirstName:    "Asha",
				LastName:     "Patil",
				Phone:        "9876543210",
			},
			wantErr: false,
		},
		{
			name: "Duplicate email",
			user: &model.User{
				Email:        "test@example.com",
				PasswordHash: "hashedpassword",
				FirstName:    "Other",
				LastName:     "User",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.Create(tt.user)

			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, gorm.ErrDuplicatedKey))
			} else {
				assert.NoError(t, err)
				assert.NotZero(t, tt.user.ID)
				assert.Equal(t, model.RoleCustomer, tt.user.Role)
				assert.True(t, tt.user.IsActive)
			}
		})
	}
}

func TestUserRepository_FindByEmail(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{Email: "find@example.com", PasswordHash: "hash", FirstName: "Find", LastName: "Me"}
	require.NoError(t, repo.Create(user))

	found, err := repo.FindByEmail("find@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByEmail("missing@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	exists, err := repo.ExistsByEmail("find@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserRepository_UpdateProfileAndPassword(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{Email: "u@example.com", PasswordHash: "old", FirstName: "Old", LastName: "Name"}
	require.NoError(t, repo.Create(user))

	user.FirstName = "New"
	user.Phone = "9000000000"
	user.PasswordHash = "should-not-be-written"
	require.NoError(t, repo.Update(user))

	require.NoError(t, repo.UpdatePassword(user.ID, "new-hash"))

	found, err := repo.FindByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", found.FirstName)
	assert.Equal(t, "9000000000", found.Phone)
	assert.Equal(t, "new-hash", found.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(9999, "x"), gorm.ErrRecordNotFound)
}

func TestUserRepository_FindByIDWithAddresses(t *testing.T) {
	testDB, repo := setupUserTest(t)
	defer db.CleanupTestDB(testDB)

	user := &model.User{Email: "addr@example.com", PasswordHash: "hash", FirstName: "A", LastName: "B"}
	require.NoError(t, repo.Create(user))

	addresses := NewAddressRepository(testDB)
	require.NoError(t, addresses.Create(&model.Address{UserID: user.ID, Type: model.AddressShipping, FirstName: "A", Address1: "1 Main", City: "Pune"}))
	require.NoError(t, addresses.Create(&model.Address{UserID: user.ID, Type: model.AddressShipping, FirstName: "A", Address1: "2 Main", City: "Pune"}))

	found, err := repo.FindByIDWithAddresses(user.ID)
	require.NoError(t, err)
	assert.Len(t, found.Addresses, 2)
}
