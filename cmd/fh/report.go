package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/farmhand/farmhand/internal/report"
)

func newReportCmd(g *globals) *cobra.Command {
	var xlsxPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show revenue, cost and yield of completed crop cycles",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, g, xlsxPath)
		},
	}

	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "also write the report to this Excel file")
	return cmd
}

func runReport(cmd *cobra.Command, g *globals, xlsxPath string) error {
	f, err := openFarm(context.Background(), g)
	if err != nil {
		return err
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	rows := report.Financials(f.store.Cycles())
	if len(rows) == 0 {
		fmt.Fprintln(out, "No completed crop cycles yet.")
	} else {
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "CROP\tSTART\tYIELD (KG)\tREVENUE\tCOST\tPROFIT\t")
		for _, r := range rows {
			fmt.Fprintf(tw, "%s\t%s\t%.1f\t%s\t%s\t%s\t\n", r.CropName, r.StartDate, r.YieldKg,
				report.FormatVND(r.Revenue), report.FormatVND(r.Cost), report.FormatVND(r.Profit))
		}
		t := report.Sum(rows)
		fmt.Fprintf(tw, "TOTAL\t\t%.1f\t%s\t%s\t%s\t\n", t.YieldKg,
			report.FormatVND(t.Revenue), report.FormatVND(t.Cost), report.FormatVND(t.Profit))
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if xlsxPath == "" {
		return nil
	}
	file, err := os.Create(xlsxPath)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", xlsxPath, err)
	}
	if err := report.WriteXLSX(file, rows); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w", xlsxPath, err)
	}
	fmt.Fprintf(out, "Wrote %s\n", xlsxPath)
	return nil
}
