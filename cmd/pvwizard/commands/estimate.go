package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pritechvior/project-wizard/internal/models"
	"github.com/pritechvior/project-wizard/internal/pricing"
)

func estimateCmd() *cobra.Command {
	var (
		userType string
		category string
		services []string
		hardware []string
		offline  bool

		templatePrice float64
		features      []string
		techChanges   []string
		priority      string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Price a new-project or customization request",
		Long: "Price a request from flags. Setting --template-price prices a " +
			"customization of a template instead of a new project. Service package " +
			"prices come from the backend unless --offline is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ut, err := models.ParseUserType(userType)
			if err != nil {
				return err
			}
			est, err := newEstimator()
			if err != nil {
				return err
			}

			var ref *models.ReferenceData
			if !offline && len(services) > 0 {
				var notices []models.Notice
				ref, notices = newLoader(est).Load(cmd.Context(), ut)
				printNotices(cmd, notices)
			}

			if !cmd.Flags().Changed("template-price") {
				form := models.NewProjectForm(ut)
				form.ProjectCategory = category
				form.SelectedServices = services
				form.HardwareNeeds = hardware

				printBreakdown(cmd, est.Estimate(form, ref, ut))
				return nil
			}

			if _, ok := est.Tables().PriorityMultipliers[priority]; !ok {
				return fmt.Errorf("unknown priority %q", priority)
			}
			base := &models.ProjectTemplate{EstimatedPrice: models.Amount(templatePrice)}
			form := models.NewCustomizationForm(ut, base)
			form.AdditionalFeatures = features
			form.TechnologyChanges = techChanges
			form.Priority = priority
			form.SelectedServices = services
			form.HardwareNeeds = hardware

			printBreakdown(cmd, est.EstimateCustomization(form, base, ref, ut))
			return nil
		},
	}

	cmd.Flags().StringVarP(&userType, "user-type", "u", "client", "student, client or business")
	cmd.Flags().StringVarP(&category, "category", "c", "", "project category name")
	cmd.Flags().StringSliceVarP(&services, "service", "s", nil, "service package id (repeatable)")
	cmd.Flags().StringSliceVar(&hardware, "hardware", nil, "hardware item id (repeatable)")
	cmd.Flags().BoolVar(&offline, "offline", false, "do not contact the backend")
	cmd.Flags().Float64Var(&templatePrice, "template-price", 0, "base template price; prices a customization")
	cmd.Flags().StringSliceVar(&features, "feature", nil, "added feature (repeatable, customization only)")
	cmd.Flags().StringSliceVar(&techChanges, "tech-change", nil, "technology change (repeatable, customization only)")
	cmd.Flags().StringVar(&priority, "priority", models.PriorityStandard, "standard, high or urgent (customization only)")
	return cmd
}

func printBreakdown(cmd *cobra.Command, b pricing.Breakdown) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Base\t%s\n", pricing.FormatTSH(b.BaseCost))
	fmt.Fprintf(w, "Services\t%s\n", pricing.FormatTSH(b.ServiceCost))
	fmt.Fprintf(w, "Hardware\t%s\n", pricing.FormatTSH(b.HardwareCost))
	if b.FeatureCost > 0 || b.TechnologyCost > 0 {
		fmt.Fprintf(w, "Features\t%s\n", pricing.FormatTSH(b.FeatureCost))
		fmt.Fprintf(w, "Technology changes\t%s\n", pricing.FormatTSH(b.TechnologyCost))
	}
	fmt.Fprintf(w, "User multiplier\t%.2f\n", b.UserMultiplier)
	if b.PriorityMultiplier != 1 {
		fmt.Fprintf(w, "Priority multiplier\t%.2f\n", b.PriorityMultiplier)
	}
	fmt.Fprintf(w, "Total\t%s\n", b.Label)
	w.Flush()
}

func printNotices(cmd *cobra.Command, notices []models.Notice) {
	for _, n := range notices {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s (%s)\n", n.Level, n.Message, n.Source)
	}
}
