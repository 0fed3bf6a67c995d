package primary

import (
	"context"
	"time"
)

// ReviewService defines the primary port for review operations.
type ReviewService interface {
	// CreateReview records a reviewer decision on a submitted data item.
	CreateReview(ctx context.Context, req CreateReviewRequest) (*Review, error)

	// ListReviews lists the reviews of a data item, newest first.
	ListReviews(ctx context.Context, dataItemID int64) ([]*Review, error)

	// CurrentDecision returns the latest review of a data item.
	CurrentDecision(ctx context.Context, dataItemID int64) (*Review, error)

	// ListErrorTypes lists the rejection reason codes.
	ListErrorTypes(ctx context.Context) ([]*ErrorType, error)
}

// CreateReviewRequest contains parameters for a review decision.
type CreateReviewRequest struct {
	DataItemID   int64
	Decision     string
	Feedback     string
	ErrorTypeIDs []int64
}

// Review represents a review at the port boundary.
type Review struct {
	ID           int64
	DataItemID   int64
	ReviewerID   int64
	Decision     string
	Feedback     string
	ErrorTypeIDs []int64
	CreatedAt    time.Time
}

// ErrorType represents a rejection reason code.
type ErrorType struct {
	ID          int64
	Code        string
	Name        string
	Description string
}
