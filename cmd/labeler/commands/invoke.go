package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pricofy/image-labeler/internal/domain"
)

// InvokeCommand returns the command that runs the pipeline once.
func InvokeCommand(labeler Labeler) *cobra.Command {
	var imageURL string

	cmd := &cobra.Command{
		Use:   "invoke",
		Short: "Label one image and print the response",
		Long: `Label one image the same way the Lambda function does and print the
status code followed by the body.

The command exits non-zero when the response is not 200.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp := labeler.Handle(cmd.Context(), domain.Request{ImageURL: imageURL})

			fmt.Fprintf(cmd.OutOrStdout(), "%d\n%s\n", resp.StatusCode, resp.Body)
			if resp.StatusCode != 200 {
				return fmt.Errorf("labeling failed with status %d", resp.StatusCode)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&imageURL, "image-url", "", "URL of the image to label")
	_ = cmd.MarkFlagRequired("image-url")

	return cmd
}
