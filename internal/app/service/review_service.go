package service

import (
	"errors"
	"strings"

	"github.com/milanenterprises/cleancare-backend/internal/app/model"
	"github.com/milanenterprises/cleancare-backend/internal/app/repository"
	"github.com/milanenterprises/cleancare-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrInvalidRating       = errors.New("rating must be between 1 and 5")
	ErrReviewAlreadyExists = errors.New("you have already reviewed this product")
)

type CreateReviewInput struct {
	Rating  int
	Title   string
	Comment string
}

type ReviewPage struct {
	Reviews    []model.Review `json:"reviews"`
	Pagination Pagination     `json:"pagination"`
}

type ReviewService struct {
	reviewRepo  *repository.ReviewRepository
	productRepo repository.ProductRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository, productRepo repository.ProductRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:  reviewRepo,
		productRepo: productRepo,
	}
}

func (s *ReviewService) activeProduct(productID uint) error {
	product, err := s.productRepo.FindAnyByID(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProductNotFound
		}
		return err
	}
	if !product.IsActive {
		return ErrProductNotFound
	}
	return nil
}

func (s *ReviewService) ListReviews(productID uint, page, limit int) (*ReviewPage, error) {
	if err := s.activeProduct(productID); err != nil {
		return nil, err
	}

	page, limit = normalizePage(page, limit, defaultPageSize)
	reviews, total, err := s.reviewRepo.GetReviewsByProductID(productID, offsetOf(page, limit), limit)
	if err != nil {
		logger.Error("Failed to list reviews", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	return &ReviewPage{
		Reviews:    reviews,
		Pagination: newPagination(page, limit, total),
	}, nil
}

// CreateReview allows one review per user per product
func (s *ReviewService) CreateReview(userID, productID uint, input CreateReviewInput) (*model.Review, error) {
	if input.Rating < 1 || input.Rating > 5 {
		return nil, ErrInvalidRating
	}
	if err := s.activeProduct(productID); err != nil {
		return nil, err
	}

	reviewed, err := s.reviewRepo.HasUserReviewed(productID, userID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, ErrReviewAlreadyExists
	}

	review := &model.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    input.Rating,
		Title:     strings.TrimSpace(input.Title),
		Comment:   strings.TrimSpace(input.Comment),
	}
	if err := s.reviewRepo.CreateReview(review); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrReviewAlreadyExists
		}
		logger.Error("Failed to create review", err, map[string]interface{}{
			"product_id": productID,
			"user_id":    userID,
		})
		return nil, err
	}

	logger.Info("Review created", map[string]interface{}{
		"review_id":  review.ID,
		"product_id": productID,
		"rating":     review.Rating,
	})
	return s.reviewRepo.GetReviewByID(review.ID)
}
