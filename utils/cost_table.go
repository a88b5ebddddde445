package utils

import (
	"fmt"
	"io"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// DrawSpendReport prints the estimated versus billed comparison and the
// most expensive billed services
func DrawSpendReport(w io.Writer, report *model.SpendReport) {
	fmt.Fprintf(w, "\n%s\n", text.FgHiWhite.Sprint(" 💰  SPEND REPORT"))
	fmt.Fprintf(w, " Account: %s (%s)\n", text.FgBlue.Sprint(report.AccountID), report.Provider)
	fmt.Fprintln(w, text.FgHiBlue.Sprint(" ------------------------------------------------"))

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Measure", "Amount"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})

	unit := report.Currency
	tw.AppendRows([]table.Row{
		{fmt.Sprintf("Inventory estimate (%d resources)", report.Resources), money(report.EstimatedMonthly, unit)},
		{"Billed month to date", money(report.BilledToDate, unit)},
		{"Projected month", money(report.ProjectedMonthly, unit)},
	})
	tw.AppendSeparator()

	variance := text.FgHiGreen.Sprintf("%+.2f %s (%+.1f%%)", report.Variance, unit, report.VariancePercent)
	if report.Variance < 0 {
		variance = text.FgHiRed.Sprintf("%+.2f %s (%+.1f%%)", report.Variance, unit, report.VariancePercent)
	}
	tw.AppendRow(table.Row{text.FgHiWhite.Sprint("Variance"), variance})
	tw.Render()

	if len(report.TopServices) == 0 {
		return
	}

	services := table.NewWriter()
	services.SetOutputMirror(w)
	services.SetStyle(table.StyleRounded)
	services.SetTitle("Top billed services")
	services.AppendHeader(table.Row{"Service", "Billed"})
	services.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
	})
	for i, svc := range report.TopServices {
		name := text.FgGreen.Sprint(svc.Name)
		if i == 0 {
			name = text.FgRed.Sprint(svc.Name)
		}
		services.AppendRow(table.Row{name, money(svc.Amount, svc.Unit)})
	}
	services.Render()
}

func money(amount float64, unit string) string {
	return fmt.Sprintf("%.2f %s", amount, unit)
}
