package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/milanenterprises/cleancare-backend/internal/app/service"
	apperrors "github.com/milanenterprises/cleancare-backend/internal/errors"
)

type ReviewController struct {
	reviewService *service.ReviewService
}

func NewReviewController(reviewService *service.ReviewService) *ReviewController {
	return &ReviewController{reviewService: reviewService}
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Title   string `json:"title" binding:"omitempty,max=255"`
	Comment string `json:"comment"`
}

// GET /api/v1/products/:id/reviews
func (ctrl *ReviewController) ListReviews(c *gin.Context) {
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var query pageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	page, err := ctrl.reviewService.ListReviews(productID, query.Page, query.Limit)
	if err != nil {
		respondError(c, err, "fetch reviews")
		return
	}
	apperrors.OK(c, page)
}

// POST /api/v1/products/:id/reviews
func (ctrl *ReviewController) CreateReview(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}
	productID, ok := idParam(c, "id")
	if !ok {
		return
	}

	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.RespondWithBindError(c, err)
		return
	}

	review, err := ctrl.reviewService.CreateReview(userID, productID, service.CreateReviewInput{
		Rating:  req.Rating,
		Title:   req.Title,
		Comment: req.Comment,
	})
	if err != nil {
		respondError(c, err, "create review")
		return
	}
	apperrors.Created(c, "Review submitted", gin.H{"review": review})
}
