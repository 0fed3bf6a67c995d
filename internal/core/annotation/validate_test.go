package annotation

import (
	"errors"
	"testing"

	"github.com/example/labelr/internal/errs"
)

var labels = map[int64]LabelInfo{
	1: {ID: 1, ProjectID: 10, Type: TypeBBox},
	2: {ID: 2, ProjectID: 10, Type: TypePolygon},
	3: {ID: 3, ProjectID: 10, Type: TypeClassification},
	4: {ID: 4, ProjectID: 20, Type: TypeBBox},
}

func TestValidateBatch_Valid(t *testing.T) {
	inputs := []Input{
		{LabelID: 1, Coordinates: `{ "x": 1, "y": 2, "width": 30, "height": 40 }`},
		{LabelID: 2, Type: TypePolygon, Coordinates: `[[0,0],[10,0],[10,10]]`},
		{LabelID: 2, Coordinates: `{"points": [[0,0],[10,0],[10,10],[0,10]]}`},
		{LabelID: 3, Coordinates: ``, Attributes: ` {"confidence": 0.9} `},
	}

	got, err := ValidateBatch(10, inputs, labels)
	if err != nil {
		t.Fatalf("ValidateBatch() error = %v", err)
	}
	if len(got) != len(inputs) {
		t.Fatalf("len = %d, want %d", len(got), len(inputs))
	}
	if got[0].Coordinates != `{"x":1,"y":2,"width":30,"height":40}` {
		t.Errorf("coordinates not compacted: %s", got[0].Coordinates)
	}
	if got[0].Type != TypeBBox {
		t.Errorf("type should default to the label type, got %q", got[0].Type)
	}
	if got[3].Coordinates != `{}` {
		t.Errorf("empty classification payload = %q, want {}", got[3].Coordinates)
	}
	if got[3].Attributes != `{"confidence":0.9}` {
		t.Errorf("attributes = %q", got[3].Attributes)
	}
}

func TestValidateBatch_Invalid(t *testing.T) {
	valid := Input{LabelID: 1, Coordinates: `{"x":1,"y":2,"width":3,"height":4}`}

	tests := []struct {
		name      string
		bad       Input
		wantField string
	}{
		{"missing label", Input{Coordinates: `{}`}, "annotations[1].label_id"},
		{"unknown label", Input{LabelID: 99, Coordinates: `{}`}, "annotations[1].label_id"},
		{"label from another project", Input{LabelID: 4, Coordinates: `{"x":1,"y":2,"width":3,"height":4}`}, "annotations[1].label_id"},
		{"type mismatch", Input{LabelID: 1, Type: TypePolygon, Coordinates: `[[0,0],[1,0],[1,1]]`}, "annotations[1].type"},
		{"invalid json", Input{LabelID: 1, Coordinates: `{"x":1,`}, "annotations[1].coordinates"},
		{"bbox missing height", Input{LabelID: 1, Coordinates: `{"x":1,"y":2,"width":3}`}, "annotations[1].coordinates"},
		{"bbox zero width", Input{LabelID: 1, Coordinates: `{"x":1,"y":2,"width":0,"height":3}`}, "annotations[1].coordinates"},
		{"polygon with two points", Input{LabelID: 2, Coordinates: `[[0,0],[1,1]]`}, "annotations[1].coordinates"},
		{"polygon with 3d point", Input{LabelID: 2, Coordinates: `[[0,0,0],[1,1],[2,0]]`}, "annotations[1].coordinates"},
		{"classification array", Input{LabelID: 3, Coordinates: `["cat"]`}, "annotations[1].coordinates"},
		{"attributes not an object", Input{LabelID: 3, Coordinates: `{}`, Attributes: `[1]`}, "annotations[1].attributes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateBatch(10, []Input{valid, tt.bad}, labels)
			if !errs.IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			var e *errs.Error
			if !errors.As(err, &e) {
				t.Fatalf("expected *errs.Error, got %T", err)
			}
			if e.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", e.Field, tt.wantField)
			}
		})
	}
}

func TestValidateBatch_Empty(t *testing.T) {
	got, err := ValidateBatch(10, nil, labels)
	if err != nil || len(got) != 0 {
		t.Errorf("empty batch = %v, %v; want empty, nil", got, err)
	}
}

func TestParseType(t *testing.T) {
	if typ, err := ParseType("BBox"); err != nil || typ != TypeBBox {
		t.Errorf("ParseType(BBox) = %q, %v", typ, err)
	}
	if _, err := ParseType("circle"); !errs.IsValidation(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
