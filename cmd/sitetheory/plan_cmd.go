package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/theory-cloud/sitetheory/pkg/delivery"
)

func (c *cli) planCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the delivery pipeline stages and actions",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, err := c.resolveFromFile()
			if err != nil {
				return err
			}
			plan := delivery.NewPlan(ctx)
			if err := plan.Validate(); err != nil {
				return err
			}
			if output == "text" {
				return writePlanTable(c, plan)
			}
			return writeDocument(c, output, plan)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, yaml or json")
	return cmd
}

func writePlanTable(c *cli, plan delivery.Plan) error {
	fmt.Fprintf(c.stdout, "Pipeline: %s\n\n", plan.PipelineName)

	w := tabwriter.NewWriter(c.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STAGE\tORDER\tACTION\tKIND\tINPUT\tOUTPUTS")
	for _, stage := range plan.Stages {
		for _, a := range stage.OrderedActions() {
			order := "-"
			if a.RunOrder > 0 {
				order = fmt.Sprint(a.RunOrder)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				stage.Name, order, a.Name, a.Kind, dash(a.Input), dash(strings.Join(a.Outputs, ",")))
		}
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
