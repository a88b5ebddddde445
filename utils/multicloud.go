package utils

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// DrawSyncSummary prints one row per synced account with a total row when
// more than one account was synced. Accounts that could not be resolved are
// passed as nil and skipped.
func DrawSyncSummary(w io.Writer, results []*model.SyncResult) {
	fmt.Fprintf(w, "\n%s\n", text.FgHiWhite.Sprint(" ☁️  MULTI-CLOUD INVENTORY SYNC"))
	fmt.Fprintln(w, text.FgHiBlue.Sprint(" ------------------------------------------------"))

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Sync Summary by Account")
	tw.AppendHeader(table.Row{"Provider", "Account", "Discovered", "Inserted", "Updated", "Deleted", "Status"})
	tw.SetStyle(table.StyleRounded)

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignCenter},
		{Number: 4, Align: text.AlignCenter},
		{Number: 5, Align: text.AlignCenter},
		{Number: 6, Align: text.AlignCenter},
		{Number: 7, Align: text.AlignCenter},
	})

	var total model.SyncResult
	synced := 0
	for _, result := range results {
		if result == nil {
			continue
		}
		synced++
		total.Discovered += result.Discovered
		total.Inserted += result.Inserted
		total.Updated += result.Updated
		total.Deleted += result.Deleted

		tw.AppendRow(table.Row{
			text.FgHiCyan.Sprint(strings.ToUpper(string(result.Provider))),
			result.AccountID,
			result.Discovered,
			formatCount(result.Inserted),
			formatCount(result.Updated),
			formatCount(result.Deleted),
			formatStatus(result),
		})
	}

	if synced > 1 {
		tw.AppendSeparator()
		tw.AppendRow(table.Row{
			text.FgHiWhite.Sprint("TOTAL"),
			"",
			total.Discovered,
			formatCount(total.Inserted),
			formatCount(total.Updated),
			formatCount(total.Deleted),
			"",
		})
	}

	tw.Render()

	for _, result := range results {
		if result == nil {
			continue
		}
		for _, msg := range result.Errors {
			fmt.Fprintf(w, " %s %s: %s\n",
				text.FgHiRed.Sprint("⚠"),
				text.FgHiYellow.Sprint(result.AccountID),
				text.FgRed.Sprint(msg))
		}
	}
}

// DrawResourceTable lists an inventory ordered by provider, type and id
func DrawResourceTable(w io.Writer, accountID string, resources []model.Resource) {
	fmt.Fprintf(w, "\n%s\n", text.FgHiWhite.Sprint(" 📦  INVENTORY"))
	fmt.Fprintf(w, " Account: %s\n", text.FgBlue.Sprint(accountID))
	fmt.Fprintln(w, text.FgHiBlue.Sprint(" ------------------------------------------------"))

	SortResources(resources)

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Type", "Subtype", "ID", "Name", "Region", "Size", "Status", "Monthly"})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 8, Align: text.AlignRight},
	})

	var total float64
	for _, r := range resources {
		total += r.CostMonthly
		status := r.Status
		if r.SyncState == model.SyncPendingStale {
			status = text.FgYellow.Sprintf("%s (stale)", r.Status)
		}
		tw.AppendRow(table.Row{
			r.Type,
			r.Subtype,
			r.ID,
			r.Name,
			r.Region,
			r.Size(),
			status,
			fmt.Sprintf("%.2f", r.CostMonthly),
		})
	}

	tw.AppendSeparator()
	tw.AppendRow(table.Row{text.FgHiWhite.Sprint("TOTAL"), "", fmt.Sprintf("%d resources", len(resources)), "", "", "", "", fmt.Sprintf("%.2f", total)})
	tw.Render()
}

// DrawDispatchResult prints the outcome of a notification dispatch
func DrawDispatchResult(w io.Writer, result model.DispatchResult) {
	if result.Success {
		fmt.Fprintln(w, text.FgHiGreen.Sprint(" ✅ Notification delivered"))
		return
	}
	fmt.Fprintln(w, text.FgHiRed.Sprint(" ⚠ Notification delivery failed"))
	for _, msg := range result.Errors {
		fmt.Fprintf(w, "   %s\n", text.FgRed.Sprint(msg))
	}
}

func formatCount(count int) string {
	if count == 0 {
		return text.FgGreen.Sprint("0")
	}
	return text.FgHiYellow.Sprintf("%d", count)
}

func formatStatus(result *model.SyncResult) string {
	switch {
	case result.Status == model.AccountConnected:
		return text.FgHiGreen.Sprint("✅ Connected")
	case result.Partial:
		return text.FgHiYellow.Sprint("⚠ Partial")
	}
	return text.FgHiRed.Sprint("⚠ Error")
}

var providerOrder = map[model.Provider]int{model.ProviderAWS: 1, model.ProviderGCP: 2, model.ProviderAzure: 3}

// SortResources orders resources by provider, type and id for consistent display
func SortResources(resources []model.Resource) {
	sort.SliceStable(resources, func(i, j int) bool {
		a, b := resources[i], resources[j]
		if a.Provider != b.Provider {
			return providerOrder[a.Provider] < providerOrder[b.Provider]
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.ID < b.ID
	})
}
