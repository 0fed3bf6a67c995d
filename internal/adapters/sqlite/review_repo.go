package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/labelr/internal/errs"
	"github.com/example/labelr/internal/ports/secondary"
)

// ReviewRepository implements secondary.ReviewRepository with SQLite.
type ReviewRepository struct {
	db DBTX
}

// NewReviewRepository creates a new SQLite review repository.
func NewReviewRepository(db DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewSelectCols = "id, data_item_id, reviewer_id, decision, feedback, created_at, updated_at"

func scanReview(s scanner) (*secondary.ReviewRecord, error) {
	var createdAt, updatedAt dbTime
	record := &secondary.ReviewRecord{}
	if err := s.Scan(&record.ID, &record.DataItemID, &record.ReviewerID, &record.Decision, &record.Feedback, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	record.CreatedAt = createdAt.Time
	record.UpdatedAt = updatedAt.Time
	return record, nil
}

// Create persists a review and its error type junction rows.
func (r *ReviewRepository) Create(ctx context.Context, review *secondary.ReviewRecord) error {
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	review.UpdatedAt = review.CreatedAt

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO reviews (data_item_id, reviewer_id, decision, feedback, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		review.DataItemID, review.ReviewerID, review.Decision, review.Feedback,
		formatTime(review.CreatedAt), formatTime(review.UpdatedAt),
	)
	if err != nil {
		return translate(err, "failed to create review")
	}
	review.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read review id: %w", err)
	}

	for _, etID := range review.ErrorTypeIDs {
		if _, err := r.db.ExecContext(ctx,
			"INSERT INTO review_error_types (review_id, error_type_id) VALUES (?, ?)",
			review.ID, etID,
		); err != nil {
			return translate(err, "failed to attach error type %d to review %d", etID, review.ID)
		}
	}
	return nil
}

func (r *ReviewRepository) loadErrorTypes(ctx context.Context, review *secondary.ReviewRecord) error {
	rows, err := r.db.QueryContext(ctx,
		"SELECT error_type_id FROM review_error_types WHERE review_id = ? ORDER BY error_type_id ASC", review.ID)
	if err != nil {
		return fmt.Errorf("failed to load review error types: %w", err)
	}
	defer rows.Close()

	review.ErrorTypeIDs = nil
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan error type id: %w", err)
		}
		review.ErrorTypeIDs = append(review.ErrorTypeIDs, id)
	}
	return rows.Err()
}

// ListByDataItem retrieves the reviews of a data item, newest first.
func (r *ReviewRepository) ListByDataItem(ctx context.Context, dataItemID int64) ([]*secondary.ReviewRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+reviewSelectCols+" FROM reviews WHERE data_item_id = ? ORDER BY created_at DESC, id DESC", dataItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	var reviews []*secondary.ReviewRecord
	for rows.Next() {
		record, err := scanReview(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, record)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	// Close before the junction queries: the pool holds a single connection.
	rows.Close()

	for _, review := range reviews {
		if err := r.loadErrorTypes(ctx, review); err != nil {
			return nil, err
		}
	}
	return reviews, nil
}

// Latest retrieves the newest review of a data item.
func (r *ReviewRepository) Latest(ctx context.Context, dataItemID int64) (*secondary.ReviewRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+reviewSelectCols+" FROM reviews WHERE data_item_id = ? ORDER BY created_at DESC, id DESC LIMIT 1", dataItemID)
	record, err := scanReview(row)
	if err == sql.ErrNoRows {
		return nil, errs.NotFoundf("review", "data item %d has no review", dataItemID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest review: %w", err)
	}
	if err := r.loadErrorTypes(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}
