package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/farmhand/farmhand/internal/advisor"
)

func newAdviseCmd(g *globals) *cobra.Command {
	var fieldID, cycleID, reportID string

	cmd := &cobra.Command{
		Use:   "advise <question>",
		Short: "Ask the AI agronomist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdvise(cmd, g, strings.Join(args, " "), fieldID, cycleID, reportID)
		},
	}

	cmd.Flags().StringVar(&fieldID, "field", "", "field id to include as context")
	cmd.Flags().StringVar(&cycleID, "cycle", "", "crop cycle id to include as context")
	cmd.Flags().StringVar(&reportID, "report", "", "pest report id to include as context")
	return cmd
}

func runAdvise(cmd *cobra.Command, g *globals, prompt, fieldID, cycleID, reportID string) error {
	ctx := context.Background()
	f, err := openFarm(ctx, g)
	if err != nil {
		return err
	}
	defer f.Close()

	var c advisor.Context
	if fieldID != "" {
		fld, ok := f.store.Field(fieldID)
		if !ok {
			return fmt.Errorf("advise: unknown field %q", fieldID)
		}
		c.Field = &fld
	}
	if cycleID != "" {
		cy, ok := f.store.Cycle(cycleID)
		if !ok {
			return fmt.Errorf("advise: unknown crop cycle %q", cycleID)
		}
		c.Cycle = &cy
	}
	if reportID != "" {
		r, ok := f.store.PestReport(reportID)
		if !ok {
			return fmt.Errorf("advise: unknown pest report %q", reportID)
		}
		c.PestReport = &r
	}

	answer := newAdvisor(ctx, f.cfg, g.log).Advise(ctx, prompt, c)
	fmt.Fprintln(cmd.OutOrStdout(), answer)
	return nil
}
