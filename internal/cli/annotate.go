package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/wire"
)

// annotationFileEntry is one element of an annotations file. Coordinates
// and attributes are kept as raw JSON.
type annotationFileEntry struct {
	LabelID     int64           `json:"label_id"`
	Type        string          `json:"type,omitempty"`
	Coordinates json.RawMessage `json:"coordinates"`
	Attributes  json.RawMessage `json:"attributes,omitempty"`
}

// readAnnotations parses a JSON array of annotations.
func readAnnotations(r io.Reader) ([]primary.AnnotationInput, error) {
	var entries []annotationFileEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse annotations: %w", err)
	}
	inputs := make([]primary.AnnotationInput, len(entries))
	for i, e := range entries {
		inputs[i] = primary.AnnotationInput{
			LabelID:     e.LabelID,
			Type:        e.Type,
			Coordinates: string(e.Coordinates),
		}
		if len(e.Attributes) > 0 && string(e.Attributes) != "null" {
			inputs[i].Attributes = string(e.Attributes)
		}
	}
	return inputs, nil
}

// AnnotateCmd returns the annotate command
func AnnotateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annotate",
		Short: "Save and list the annotations of a data item",
	}

	save := &cobra.Command{
		Use:   "save [data-item-id] [file.json|-]",
		Short: "Replace the annotations of a data item",
		Long: `Replace every annotation of a data item with the JSON array in the file
(or stdin with -). Each element has label_id, coordinates and optionally type
and attributes, for example:

  [{"label_id": 1, "coordinates": {"x": 10, "y": 20, "width": 30, "height": 40}}]

An empty array clears the annotations.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "data item")
			if err != nil {
				return err
			}

			var r io.Reader = cmd.InOrStdin()
			if args[1] != "-" {
				f, err := os.Open(args[1])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			inputs, err := readAnnotations(r)
			if err != nil {
				return err
			}

			saved, err := wire.AnnotationService().SaveAnnotations(commandContext(cmd), id, inputs)
			if err != nil {
				return fmt.Errorf("failed to save annotations: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Saved %d annotation(s) on data item %d\n", len(saved), id)
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list [data-item-id]",
		Short: "List the annotations of a data item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "data item")
			if err != nil {
				return err
			}
			annotations, err := wire.AnnotationService().ListAnnotations(commandContext(cmd), id)
			if err != nil {
				return fmt.Errorf("failed to list annotations: %w", err)
			}

			out := cmd.OutOrStdout()
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(annotations)
			}
			if len(annotations) == 0 {
				fmt.Fprintln(out, "No annotations found")
				return nil
			}
			for _, a := range annotations {
				fmt.Fprintf(out, "%-6d label %-5d %-14s %s\n", a.ID, a.LabelID, a.Type, a.Coordinates)
			}
			return nil
		},
	}
	list.Flags().Bool("json", false, "Print as JSON")

	cmd.AddCommand(save, list)
	return cmd
}
