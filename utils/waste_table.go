package utils

import (
	"fmt"
	"io"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
)

// DrawRecommendationTable lists recommendations with their savings and a total row
func DrawRecommendationTable(w io.Writer, accountID string, recs []model.OptimizationRecommendation) {
	fmt.Fprintf(w, "\n%s\n", text.FgHiWhite.Sprint(" 🩺  RECOMMENDATIONS"))
	fmt.Fprintf(w, " Account: %s\n", text.FgBlue.Sprint(accountID))
	fmt.Fprintln(w, text.FgHiBlue.Sprint(" ------------------------------------------------"))

	if len(recs) == 0 {
		fmt.Fprintln(w, text.FgHiGreen.Sprint(" ✅ Nothing to optimize"))
		return
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Type", "Resource", "Current", "Optimized", "Savings", "Confidence", "Effort", "Status"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignCenter},
		{Number: 8, Align: text.AlignCenter},
	})

	for _, rec := range recs {
		tw.AppendRow(table.Row{
			rec.ID,
			text.FgHiCyan.Sprint(rec.Type),
			rec.ResourceID,
			fmt.Sprintf("%.2f", rec.CurrentCost),
			fmt.Sprintf("%.2f", rec.OptimizedCost),
			formatSavings(rec.MonthlySavings),
			confidenceColor(rec.Confidence).Sprint(rec.Confidence),
			rec.Effort,
			rec.Status,
		})
	}

	tw.AppendSeparator()
	total := lo.SumBy(recs, func(r model.OptimizationRecommendation) float64 { return r.MonthlySavings })
	tw.AppendRow(table.Row{text.FgHiWhite.Sprint("TOTAL"), "", "", "", "", formatSavings(total), "", "", ""})
	tw.Render()
}

func formatSavings(amount float64) string {
	if amount <= 0 {
		return text.FgGreen.Sprintf("%.2f", amount)
	}
	return text.FgHiRed.Sprintf("%.2f", amount)
}

func confidenceColor(c model.Confidence) text.Color {
	switch c {
	case model.ConfidenceHigh:
		return text.FgHiGreen
	case model.ConfidenceMedium:
		return text.FgHiYellow
	}
	return text.FgWhite
}
