package utils

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/elC0mpa/cloud-steward/model"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	ColorRank1 = "#d73027"
	ColorRank2 = "#f46d43"
	ColorRank3 = "#fee08b"
	ColorRank4 = "#abdda4"
	ColorRank5 = "#66c2a5"
	ColorRank6 = "#1a9850"
)

// totalKey is the cost group holding a month's total
const totalKey = "Total"

var defaultStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("#F4D060"))

// DrawSpendHistory charts closed monthly totals, most expensive month in red
func DrawSpendHistory(w io.Writer, accountID string, monthlyCosts []model.CostInfo) {
	fmt.Fprintf(w, "\n%s\n", text.FgHiWhite.Sprint(" 📈  SPEND HISTORY"))
	fmt.Fprintf(w, " Account: %s\n", text.FgBlue.Sprint(accountID))
	fmt.Fprintln(w, text.FgHiBlue.Sprint(" ------------------------------------------------"))

	if len(monthlyCosts) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint(" No billed months found"))
		return
	}

	bc := barchart.New(130, 20)

	indexedColors := assignRankedColors(monthlyCosts)

	for idx, monthlyCost := range monthlyCosts {
		data := barchart.BarData{
			Label: getBarLabel(monthlyCost),
			Values: []barchart.BarValue{
				{
					Value: monthlyCost.CostGroup[totalKey].Amount,
					Style: lipgloss.NewStyle().Foreground(lipgloss.Color(indexedColors[idx])),
				},
			},
		}

		bc.Push(data)
	}

	fmt.Fprintln(w)

	bc.Draw()
	s := lipgloss.JoinHorizontal(lipgloss.Top,
		defaultStyle.Render(bc.View()),
	)

	fmt.Fprintln(w, s)
}

func getBarLabel(monthlyCost model.CostInfo) string {
	total := monthlyCost.CostGroup[totalKey]
	if monthlyCost.Start == nil {
		return fmt.Sprintf("%.2f %s", total.Amount, total.Unit)
	}

	parsedTime, err := time.Parse("2006-01-02", *monthlyCost.Start)
	if err != nil {
		return fmt.Sprintf("%s: %.2f %s", *monthlyCost.Start, total.Amount, total.Unit)
	}

	return fmt.Sprintf("%s: %.2f %s", parsedTime.Format("Jan"), total.Amount, total.Unit)
}

func assignRankedColors(allCosts []model.CostInfo) []string {
	palette := []string{ColorRank1, ColorRank2, ColorRank3, ColorRank4, ColorRank5, ColorRank6}

	type costWithIndex struct {
		index int
		value float64
	}

	costsToSort := make([]costWithIndex, len(allCosts))
	for i, cost := range allCosts {
		costsToSort[i] = costWithIndex{
			index: i,
			value: cost.CostGroup[totalKey].Amount,
		}
	}

	sort.SliceStable(costsToSort, func(i, j int) bool {
		return costsToSort[i].value > costsToSort[j].value
	})

	resultColors := make([]string, len(allCosts))
	for rank, sortedCost := range costsToSort {
		color := palette[len(palette)-1]
		if rank < len(palette) {
			color = palette[rank]
		}
		resultColors[sortedCost.index] = color
	}

	return resultColors
}
