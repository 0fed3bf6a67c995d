package primary

import (
	"context"
	"time"
)

// AnnotationService defines the primary port for annotation operations.
type AnnotationService interface {
	// SaveAnnotations replaces every annotation of a data item with the given set.
	// The whole batch is validated first; any malformed input fails the call.
	SaveAnnotations(ctx context.Context, dataItemID int64, inputs []AnnotationInput) ([]*Annotation, error)

	// ListAnnotations lists the annotations of a data item.
	ListAnnotations(ctx context.Context, dataItemID int64) ([]*Annotation, error)
}

// AnnotationInput is one annotation of a batch.
type AnnotationInput struct {
	LabelID     int64  `json:"label_id" yaml:"label_id"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Coordinates string `json:"coordinates" yaml:"coordinates"`
	Attributes  string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// Annotation represents a stored annotation at the port boundary.
type Annotation struct {
	ID          int64     `json:"id"`
	DataItemID  int64     `json:"data_item_id"`
	LabelID     int64     `json:"label_id"`
	Type        string    `json:"type"`
	Coordinates string    `json:"coordinates"`
	Attributes  string    `json:"attributes,omitempty"`
	CreatedBy   int64     `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}
