package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/pritechvior/project-wizard/internal/pricing"
	"github.com/pritechvior/project-wizard/pkg/client"
)

func submissionsCmd() *cobra.Command {
	var opts client.ListOptions

	cmd := &cobra.Command{
		Use:   "submissions [reference]",
		Short: "List recorded submissions, or show one by reference code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.NewClient(serverURL, client.WithAPIKey(apiKey), client.WithTimeout(timeout))

			if len(args) == 1 {
				rec, err := c.GetSubmission(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Reference: %s\nStatus:    %s\nUser type: %s\nMode:      %s\nCost:      %s\nCreated:   %s\n\n%s\n",
					rec.ReferenceCode, rec.Status, rec.UserType, rec.Mode,
					pricing.FormatTSH(rec.EstimatedCost), rec.CreatedAt.Format(time.RFC3339), rec.Payload)
				return nil
			}

			records, err := c.ListSubmissions(cmd.Context(), opts)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "REFERENCE\tUSER TYPE\tMODE\tSTATUS\tCOST\tCREATED")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.ReferenceCode, r.UserType, r.Mode, r.Status,
					pricing.FormatTSH(r.EstimatedCost), r.CreatedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&opts.UserType, "user-type", "u", "", "filter by user type")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum records")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "records to skip")
	return cmd
}
