package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/farmhand/farmhand/internal/advisor"
	"github.com/farmhand/farmhand/internal/report"
)

func newStatusCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show storage mode and a farm overview",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, g)
		},
	}
}

func runStatus(cmd *cobra.Command, g *globals) error {
	f, err := openFarm(context.Background(), g)
	if err != nil {
		return err
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	o := report.Summarize(f.store.Fields(), f.store.Cycles(), f.store.PestReports())
	p := f.store.Profile()

	fmt.Fprintf(out, "Storage:           %s\n", printMode(f))
	fmt.Fprintf(out, "Farmer:            %s (%s)\n", p.Name, p.Role)
	fmt.Fprintf(out, "Fields:            %d (%.0f m2)\n", o.Fields, o.TotalArea)
	fmt.Fprintf(out, "Active cycles:     %d\n", o.ActiveCycles)
	fmt.Fprintf(out, "Open pest reports: %d\n", o.OpenPestReports)
	fmt.Fprintf(out, "Harvest revenue:   %s\n", report.FormatVND(o.HarvestRevenue))
	now := timeNow()
	fmt.Fprintf(out, "Season:            %s\n", advisor.Season(now))
	fmt.Fprintf(out, "Recommendation:    %s\n", advisor.SeasonAdvice(now))
	return nil
}
