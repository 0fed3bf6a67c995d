// Package annotation validates annotation batches before they replace the
// annotations stored for a data item. Coordinates stay opaque JSON; only their
// shape is checked against the label type.
package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/example/labelr/internal/errs"
)

// Type is the geometry of an annotation, fixed by its label.
type Type string

const (
	TypeBBox           Type = "bbox"
	TypePolygon        Type = "polygon"
	TypeClassification Type = "classification"
)

// ParseType validates a raw annotation type.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeBBox, TypePolygon, TypeClassification:
		return t, nil
	}
	return "", errs.Validation("type", "unknown annotation type %q (want bbox, polygon or classification)", s)
}

// Input is one annotation of a batch as submitted by the annotator.
// Type may be empty, in which case the label's type is used.
type Input struct {
	LabelID     int64
	Type        Type
	Coordinates string
	Attributes  string
}

// LabelInfo is the subset of a label the validator needs.
type LabelInfo struct {
	ID        int64
	ProjectID int64
	Type      Type
}

// Validated is an input that passed validation, with compacted JSON.
type Validated struct {
	LabelID     int64
	Type        Type
	Coordinates string
	Attributes  string
}

// ValidateBatch checks every input of a batch. The first malformed input
// fails the whole batch with a validation error naming its index.
func ValidateBatch(projectID int64, inputs []Input, labels map[int64]LabelInfo) ([]Validated, error) {
	out := make([]Validated, 0, len(inputs))
	for i, in := range inputs {
		v, err := validateOne(projectID, in, labels)
		if err != nil {
			err.Field = fmt.Sprintf("annotations[%d].%s", i, err.Field)
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func validateOne(projectID int64, in Input, labels map[int64]LabelInfo) (Validated, *errs.Error) {
	if in.LabelID <= 0 {
		return Validated{}, errs.Validation("label_id", "label id is required")
	}
	label, ok := labels[in.LabelID]
	if !ok || label.ProjectID != projectID {
		return Validated{}, errs.Validation("label_id", "label %d does not belong to project %d", in.LabelID, projectID)
	}

	typ := in.Type
	if typ == "" {
		typ = label.Type
	}
	if typ != label.Type {
		return Validated{}, errs.Validation("type", "annotation type %s does not match label type %s", typ, label.Type)
	}

	raw := strings.TrimSpace(in.Coordinates)
	if raw == "" && typ == TypeClassification {
		raw = "{}"
	}
	coords, err := compact(raw)
	if err != nil {
		return Validated{}, errs.Validation("coordinates", "coordinates are not valid JSON: %v", err)
	}
	if e := checkShape(typ, []byte(coords)); e != nil {
		return Validated{}, e
	}

	attrs := ""
	if strings.TrimSpace(in.Attributes) != "" {
		attrs, err = compact(in.Attributes)
		if err != nil {
			return Validated{}, errs.Validation("attributes", "attributes are not valid JSON: %v", err)
		}
		var obj map[string]any
		if json.Unmarshal([]byte(attrs), &obj) != nil {
			return Validated{}, errs.Validation("attributes", "attributes must be a JSON object")
		}
	}

	return Validated{LabelID: in.LabelID, Type: typ, Coordinates: coords, Attributes: attrs}, nil
}

func compact(s string) (string, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type bbox struct {
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
}

func checkShape(typ Type, data []byte) *errs.Error {
	switch typ {
	case TypeBBox:
		var b bbox
		if err := json.Unmarshal(data, &b); err != nil {
			return errs.Validation("coordinates", "bbox must be an object with x, y, width and height")
		}
		if b.X == nil || b.Y == nil || b.Width == nil || b.Height == nil {
			return errs.Validation("coordinates", "bbox must have x, y, width and height")
		}
		if *b.Width <= 0 || *b.Height <= 0 {
			return errs.Validation("coordinates", "bbox width and height must be positive")
		}
	case TypePolygon:
		points, err := polygonPoints(data)
		if err != nil {
			return errs.Validation("coordinates", "polygon must be a list of [x, y] points")
		}
		if len(points) < 3 {
			return errs.Validation("coordinates", "polygon needs at least 3 points, got %d", len(points))
		}
		for j, p := range points {
			if len(p) != 2 {
				return errs.Validation("coordinates", "polygon point %d must have exactly 2 numbers", j)
			}
		}
	case TypeClassification:
		var obj map[string]any
		if err := json.Unmarshal(data, &obj); err != nil || obj == nil {
			return errs.Validation("coordinates", "classification payload must be a JSON object")
		}
	}
	return nil
}

// polygonPoints accepts either a bare point list or {"points": [...]}.
func polygonPoints(data []byte) ([][]float64, error) {
	var points [][]float64
	if err := json.Unmarshal(data, &points); err == nil {
		return points, nil
	}
	var wrapped struct {
		Points [][]float64 `json:"points"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Points == nil {
		return nil, fmt.Errorf("missing points")
	}
	return wrapped.Points, nil
}
