package main

import (
	"errors"
	"fmt"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/utils"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func (a *app) syncCmd() *cobra.Command {
	var accountID string
	var categories []string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Discover resources and reconcile them into the inventory",
		Long: `Discover resources and reconcile them into the inventory.

Without --account every registered account is synced. When a category fails,
resources that were not seen are kept until the next complete sync.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			utils.StartSpinner(cmd.ErrOrStderr(), "syncing inventory")

			var results []*model.SyncResult
			var err error
			if accountID == "" {
				var ids []string
				ids, err = a.rt.AccountIDs(ctx)
				if err != nil {
					return err
				}
				results, err = a.rt.Orchestrator.SyncAll(ctx, ids)
			} else {
				var result *model.SyncResult
				result, err = a.rt.Orchestrator.Sync(ctx, model.SyncRequest{
					AccountID:  accountID,
					Categories: lo.Map(categories, func(c string, _ int) model.Category { return model.Category(c) }),
				})
				results = []*model.SyncResult{result}
			}

			utils.StopSpinner()
			if lo.CountBy(results, func(r *model.SyncResult) bool { return r != nil }) > 0 {
				utils.DrawSyncSummary(cmd.OutOrStdout(), results)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account to sync (default all)")
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "categories to discover: compute, storage, database, network")
	return cmd
}

func (a *app) resourcesCmd() *cobra.Command {
	var accountID, typ string

	cmd := &cobra.Command{
		Use:   "resources",
		Short: "List the inventoried resources of an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.rt.Config.Account(accountID)
			if err != nil {
				return err
			}
			resources, err := a.rt.Store.List(cmd.Context(), account.ID)
			if err != nil {
				return err
			}
			if typ != "" {
				resources = lo.Filter(resources, func(r model.Resource, _ int) bool { return string(r.Type) == typ })
			}
			utils.DrawResourceTable(cmd.OutOrStdout(), account.ID, resources)
			return nil
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account to list (default first configured)")
	cmd.Flags().StringVarP(&typ, "type", "t", "", "only list this resource type")
	return cmd
}

func (a *app) analyzeCmd() *cobra.Command {
	var accountID string

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Generate optimization recommendations from the stored inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.rt.Config.Account(accountID)
			if err != nil {
				return err
			}

			utils.StartSpinner(cmd.ErrOrStderr(), "analyzing utilization")
			recs, err := a.rt.Orchestrator.Analyze(cmd.Context(), account.ID)
			utils.StopSpinner()
			if err != nil {
				return err
			}

			utils.DrawRecommendationTable(cmd.OutOrStdout(), account.ID, recs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account to analyze (default first configured)")
	return cmd
}

func (a *app) recommendationsCmd() *cobra.Command {
	var accountID, status string

	cmd := &cobra.Command{
		Use:     "recommendations",
		Aliases: []string{"recs"},
		Short:   "List stored recommendations",
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := a.rt.Config.Account(accountID)
			if err != nil {
				return err
			}
			recs, err := a.rt.Store.ListRecommendations(cmd.Context(), account.ID)
			if err != nil {
				return err
			}
			if status != "" {
				recs = lo.Filter(recs, func(r model.OptimizationRecommendation, _ int) bool { return string(r.Status) == status })
			}
			utils.DrawRecommendationTable(cmd.OutOrStdout(), account.ID, recs)
			return nil
		},
	}
	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account to list (default first configured)")
	cmd.Flags().StringVarP(&status, "status", "s", "", "only list this status: pending, applied, dismissed")

	cmd.AddCommand(&cobra.Command{
		Use:   "decide <id> <status>",
		Short: "Mark a recommendation applied, dismissed or pending",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, ok := model.ParseRecommendationStatus(args[1])
			if !ok {
				return model.NewValidationError("status", fmt.Sprintf("unknown status %q", args[1]))
			}
			rec, err := a.rt.Orchestrator.SetRecommendationStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), " %s %s is now %s\n", rec.Type, rec.ResourceID, rec.Status)
			return nil
		},
	})
	return cmd
}

func (a *app) spendCmd() *cobra.Command {
	var accountID string
	var history bool

	cmd := &cobra.Command{
		Use:   "spend",
		Short: "Compare the inventory estimate with billed spend",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			account, err := a.rt.Config.Account(accountID)
			if err != nil {
				return err
			}

			utils.StartSpinner(cmd.ErrOrStderr(), "querying billing")
			_, sources, err := a.rt.Orchestrator.Sources(ctx, account.ID)
			if err != nil {
				utils.StopSpinner()
				return err
			}
			if sources.Billing == nil {
				utils.StopSpinner()
				return errors.New(string(account.Provider) + " account has no billing source configured")
			}

			report, err := a.rt.Spend.Report(ctx, account.ID, sources.Billing)
			if err != nil {
				utils.StopSpinner()
				return err
			}

			var months []model.CostInfo
			if history {
				months, err = a.rt.Spend.History(ctx, sources.History)
				if err != nil {
					utils.StopSpinner()
					return err
				}
			}
			utils.StopSpinner()

			utils.DrawSpendReport(cmd.OutOrStdout(), report)
			if history {
				utils.DrawSpendHistory(cmd.OutOrStdout(), account.ID, months)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&accountID, "account", "a", "", "account to report on (default first configured)")
	cmd.Flags().BoolVar(&history, "history", false, "chart closed monthly totals")
	return cmd
}

func (a *app) notifyCmd() *cobra.Command {
	var event model.NotificationEvent
	var eventType string
	var only []string

	cmd := &cobra.Command{
		Use:   "notify",
		Short: "Send a provisioning lifecycle event to the configured channels",
		RunE: func(cmd *cobra.Command, args []string) error {
			event.Type = model.EventType(eventType)

			channels := a.rt.Config.EnabledChannels()
			if len(only) > 0 {
				channels = lo.Filter(channels, func(ch model.NotificationChannel, _ int) bool {
					return lo.Contains(only, string(ch.Type))
				})
			}

			result := a.rt.Dispatcher.Dispatch(cmd.Context(), event, channels)
			utils.DrawDispatchResult(cmd.OutOrStdout(), result)
			if !result.Success {
				return errors.New("notification delivery failed")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&eventType, "event", "", "event type, e.g. approval_required")
	f.StringVar(&event.RequestID, "request-id", "", "provisioning request id")
	f.StringVar(&event.Requester, "requester", "", "who asked for the resource")
	f.StringVar(&event.ResourceType, "resource-type", "", "kind of resource requested")
	f.Float64Var(&event.EstimatedCost, "cost", 0, "estimated monthly cost")
	f.StringVar(&event.Approver, "approver", "", "who decided")
	f.StringVar(&event.Comments, "comments", "", "free text comments")
	f.StringVar(&event.Error, "error", "", "failure reason for provisioning_failed")
	f.StringSliceVar(&only, "channel", nil, "only deliver to these channel types")
	_ = cmd.MarkFlagRequired("event")
	return cmd
}
