package service

import (
	"testing"

	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewService(t *testing.T) {
	testDB := setupTestDB(t)
	reviewService := NewReviewService(repository.NewReviewRepository(testDB), repository.NewProductRepository(testDB))

	category := createTestCategory(t, testDB, "surface")
	product := createTestProduct(t, testDB, category.ID, "Surface Spray", 4.99, 10)
	user := createTestUser(t, testDB, "reviewer@example.com")

	_, err := reviewService.CreateReview(user.ID, product.ID, CreateReviewInput{Rating: 6})
	assert.ErrorIs(t, err, ErrInvalidRating)

	review, err := reviewService.CreateReview(user.ID, product.ID, CreateReviewInput{Rating: 4, Title: " Works well ", Comment: "No streaks"})
	require.NoError(t, err)
	assert.Equal(t, "Works well", review.Title)
	require.NotNil(t, review.User)
	assert.Equal(t, user.ID, review.User.ID)

	_, err = reviewService.CreateReview(user.ID, product.ID, CreateReviewInput{Rating: 5})
	assert.ErrorIs(t, err, ErrReviewAlreadyExists)

	page, err := reviewService.ListReviews(product.ID, 1, 0)
	require.NoError(t, err)
	assert.Len(t, page.Reviews, 1)
	assert.Equal(t, int64(1), page.Pagination.Total)

	deactivateProduct(t, testDB, product.ID)
	_, err = reviewService.ListReviews(product.ID, 1, 10)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
