package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/wire"
)

// ReviewCmd returns the review command
func ReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Review submitted data items",
	}

	create := &cobra.Command{
		Use:   "create [data-item-id]",
		Short: "Approve or reject a submitted data item",
		Long: `Record a review decision. A rejection needs feedback and at least one
error type (see "labelr review error-types") and notifies the annotator.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "data item")
			if err != nil {
				return err
			}
			decision, _ := cmd.Flags().GetString("decision")
			feedback, _ := cmd.Flags().GetString("feedback")
			errorTypes, _ := cmd.Flags().GetInt64Slice("error-type")

			r, err := wire.ReviewService().CreateReview(commandContext(cmd), primary.CreateReviewRequest{
				DataItemID:   id,
				Decision:     decision,
				Feedback:     feedback,
				ErrorTypeIDs: errorTypes,
			})
			if err != nil {
				return fmt.Errorf("failed to create review: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Review %d: data item %d %s\n", r.ID, r.DataItemID, colorStatus(r.Decision))
			return nil
		},
	}
	create.Flags().StringP("decision", "d", "", "approved or rejected")
	create.Flags().StringP("feedback", "f", "", "Feedback for the annotator")
	create.Flags().Int64Slice("error-type", nil, "Error type IDs (repeatable or comma separated)")
	_ = create.MarkFlagRequired("decision")

	list := &cobra.Command{
		Use:   "list [data-item-id]",
		Short: "List the reviews of a data item, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "data item")
			if err != nil {
				return err
			}
			reviews, err := wire.ReviewService().ListReviews(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to list reviews: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(reviews) == 0 {
				fmt.Fprintln(out, "No reviews found")
				return nil
			}
			for _, r := range reviews {
				printReview(out, r)
			}
			return nil
		},
	}

	current := &cobra.Command{
		Use:   "current [data-item-id]",
		Short: "Show the latest review of a data item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "data item")
			if err != nil {
				return err
			}
			r, err := wire.ReviewService().CurrentDecision(cmd.Context(), id)
			if err != nil {
				return err
			}
			printReview(cmd.OutOrStdout(), r)
			return nil
		},
	}

	errorTypes := &cobra.Command{
		Use:   "error-types",
		Short: "List the rejection reason codes",
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := wire.ReviewService().ListErrorTypes(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list error types: %w", err)
			}
			out := cmd.OutOrStdout()
			for _, et := range types {
				fmt.Fprintf(out, "%-3d %-4s %-22s %s\n", et.ID, et.Code, et.Name, et.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(create, list, current, errorTypes)
	return cmd
}

func printReview(out io.Writer, r *primary.Review) {
	fmt.Fprintf(out, "%-5d %s  %s by user %d\n", r.ID, formatTime(r.CreatedAt), colorStatus(r.Decision), r.ReviewerID)
	if r.Feedback != "" {
		fmt.Fprintf(out, "      %s\n", r.Feedback)
	}
	if len(r.ErrorTypeIDs) > 0 {
		fmt.Fprintf(out, "      error types: %s\n", color.New(color.FgYellow).Sprint(r.ErrorTypeIDs))
	}
}
