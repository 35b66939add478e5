package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pritechvior/project-wizard/internal/models"
	"github.com/pritechvior/project-wizard/internal/pricing"
)

func catalogCmd() *cobra.Command {
	var userType string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Load and print the reference data a wizard renders from",
		RunE: func(cmd *cobra.Command, args []string) error {
			ut, err := models.ParseUserType(userType)
			if err != nil {
				return err
			}
			est, err := newEstimator()
			if err != nil {
				return err
			}

			ref, notices := newLoader(est).Load(cmd.Context(), ut)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tBASE COST")
			for _, c := range ref.Categories {
				fmt.Fprintf(w, "%s\t%s\n", c.Name, pricing.FormatTSH(est.Tables().BaseCost(c.Name)))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "PACKAGE\tID\tPRICE")
			for _, p := range ref.ServicePackages {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.ID, pricing.FormatTSH(float64(p.Price)))
			}
			fmt.Fprintln(w)
			fmt.Fprintln(w, "TEMPLATE\tSLUG\tPRICE")
			for _, t := range ref.Templates {
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.Title, t.Slug, pricing.FormatTSH(float64(t.EstimatedPrice)))
			}
			if ut == models.UserStudent {
				fmt.Fprintln(w)
				fmt.Fprintln(w, "COURSE CATEGORY\tID")
				for _, c := range ref.CourseCategories {
					fmt.Fprintf(w, "%s\t%s\n", c.Name, c.ID)
				}
			}
			fmt.Fprintf(w, "\n%d technologies, %d hardware items\n", len(ref.Technologies), len(ref.Hardware))
			w.Flush()

			printNotices(cmd, notices)
			return nil
		},
	}

	cmd.Flags().StringVarP(&userType, "user-type", "u", "client", "student, client or business")
	return cmd
}
