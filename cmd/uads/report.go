package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/universal-ads/universal-ads-sdk-go/pkg/client"
)

// now is replaced in tests.
var now = time.Now

// Report command group
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch performance reports",
	Long: `Fetches campaign, adset or ad performance reports.

The date range is given with --start and --end (YYYY-MM-DD), or with
--last-month or --days.

Example:
  uads report campaign --last-month --ids c1,c2
  uads report ad --start 2024-01-01 --end 2024-01-31 --limit 100`,
}

type reportFunc func(c *client.Client, ctx context.Context, q client.ReportQuery) (client.Result, error)

func init() {
	reportCmd.AddCommand(newReportCmd("campaign", "Campaign performance report", "Campaign IDs to include",
		(*client.Client).CampaignReport))
	reportCmd.AddCommand(newReportCmd("adset", "Adset performance report", "Adset IDs to include",
		(*client.Client).AdSetReport))
	reportCmd.AddCommand(newReportCmd("ad", "Ad performance report", "Ad IDs to include",
		(*client.Client).AdReport))
}

func newReportCmd(use, short, idsUsage string, fetch reportFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			query, err := reportQueryFromFlags(cmd)
			if err != nil {
				return err
			}

			c, err := newClient()
			if err != nil {
				return describeError("failed to create client", err)
			}

			result, err := fetch(c, commandContext(cmd), query)
			if err != nil {
				return describeError("failed to fetch "+use+" report", err)
			}

			return printRows(result)
		},
	}

	cmd.Flags().String("start", "", "Start date, YYYY-MM-DD")
	cmd.Flags().String("end", "", "End date, YYYY-MM-DD")
	cmd.Flags().Bool("last-month", false, "Report on the previous calendar month")
	cmd.Flags().Int("days", 0, "Report on the last N days, today included")
	cmd.Flags().String("adaccount-id", "", "Filter by ad account")
	cmd.Flags().StringSlice("ids", nil, idsUsage)
	cmd.Flags().Int("limit", 0, "Maximum number of rows")
	cmd.Flags().Int("offset", 0, "Number of rows to skip")

	return cmd
}

func reportQueryFromFlags(cmd *cobra.Command) (client.ReportQuery, error) {
	start, _ := cmd.Flags().GetString("start")
	end, _ := cmd.Flags().GetString("end")
	lastMonth, _ := cmd.Flags().GetBool("last-month")
	days, _ := cmd.Flags().GetInt("days")
	adAccountID, _ := cmd.Flags().GetString("adaccount-id")
	ids, _ := cmd.Flags().GetStringSlice("ids")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	switch {
	case lastMonth && days > 0:
		return client.ReportQuery{}, fmt.Errorf("--last-month and --days are mutually exclusive")
	case lastMonth:
		start, end = client.LastMonth(now())
	case days > 0:
		start, end = client.LastNDays(now(), days)
	}

	if start == "" || end == "" {
		return client.ReportQuery{}, fmt.Errorf("a date range is required: use --start/--end, --last-month or --days")
	}

	return client.ReportQuery{
		StartDate:   start,
		EndDate:     end,
		AdAccountID: adAccountID,
		IDs:         ids,
		Limit:       limit,
		Offset:      offset,
	}, nil
}
