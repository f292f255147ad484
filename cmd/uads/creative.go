package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/universal-ads/universal-ads-sdk-go/pkg/client"
)

// Creative command group
var creativeCmd = &cobra.Command{
	Use:   "creative",
	Short: "Manage creatives",
}

func init() {
	creativeCmd.AddCommand(creativeListCmd)
	creativeCmd.AddCommand(creativeGetCmd)
	creativeCmd.AddCommand(creativeCreateCmd)
	creativeCmd.AddCommand(creativeUpdateCmd)
	creativeCmd.AddCommand(creativeDeleteCmd)
}

var creativeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List creatives",
	RunE: func(cmd *cobra.Command, args []string) error {
		adAccountID, _ := cmd.Flags().GetString("adaccount-id")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")
		sortBy, _ := cmd.Flags().GetString("sort")

		c, err := newClient()
		if err != nil {
			return describeError("failed to create client", err)
		}

		result, err := c.ListCreatives(commandContext(cmd), client.ListCreativesOptions{
			AdAccountID: adAccountID,
			Limit:       limit,
			Offset:      offset,
			Sort:        sortBy,
		})
		if err != nil {
			return describeError("failed to list creatives", err)
		}

		return printRows(result, "id", "name", "status", "media_id")
	},
}

func init() {
	creativeListCmd.Flags().String("adaccount-id", "", "Filter by ad account")
	creativeListCmd.Flags().Int("limit", 0, "Maximum number of creatives")
	creativeListCmd.Flags().Int("offset", 0, "Number of creatives to skip")
	creativeListCmd.Flags().String("sort", "", "Sort order, e.g. name_asc")
}

var creativeGetCmd = &cobra.Command{
	Use:   "get <creative-id>",
	Short: "Show a creative",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return describeError("failed to create client", err)
		}

		result, err := c.GetCreative(commandContext(cmd), args[0])
		if err != nil {
			if client.StatusCode(err) == http.StatusNotFound {
				return fmt.Errorf("creative %q not found", args[0])
			}
			return describeError("failed to get creative", err)
		}

		return printResult(result)
	},
}

var creativeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a creative from uploaded media",
	RunE: func(cmd *cobra.Command, args []string) error {
		adAccountID, _ := cmd.Flags().GetString("adaccount-id")
		name, _ := cmd.Flags().GetString("name")
		mediaID, _ := cmd.Flags().GetString("media-id")

		if adAccountID == "" {
			return fmt.Errorf("--adaccount-id is required")
		}
		if name == "" {
			return fmt.Errorf("--name is required")
		}
		if mediaID == "" {
			return fmt.Errorf("--media-id is required")
		}

		c, err := newClient()
		if err != nil {
			return describeError("failed to create client", err)
		}

		result, err := c.CreateCreative(commandContext(cmd), client.NewCreative{
			AdAccountID: adAccountID,
			Name:        name,
			MediaID:     mediaID,
		})
		if err != nil {
			return describeError("failed to create creative", err)
		}

		return printResult(result)
	},
}

func init() {
	creativeCreateCmd.Flags().String("adaccount-id", "", "Ad account (required)")
	creativeCreateCmd.Flags().String("name", "", "Creative name (required)")
	creativeCreateCmd.Flags().String("media-id", "", "Verified media ID (required)")
}

var creativeUpdateCmd = &cobra.Command{
	Use:   "update <creative-id>",
	Short: "Update a creative",
	Long: `Updates the given fields of a creative.

Example:
  uads creative update abc --name "Spring banner"
  uads creative update abc --set status=paused --set 'tags=["a","b"]'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sets, _ := cmd.Flags().GetStringArray("set")

		update := client.CreativeUpdate{}
		if cmd.Flags().Changed("name") {
			name, _ := cmd.Flags().GetString("name")
			update.Name = &name
		}

		fields, err := parseSetFlags(sets)
		if err != nil {
			return err
		}
		update.Fields = fields

		if update.Name == nil && len(update.Fields) == 0 {
			return fmt.Errorf("nothing to update: use --name or --set")
		}

		c, err := newClient()
		if err != nil {
			return describeError("failed to create client", err)
		}

		result, err := c.UpdateCreative(commandContext(cmd), args[0], update)
		if err != nil {
			return describeError("failed to update creative", err)
		}

		return printResult(result)
	},
}

func init() {
	creativeUpdateCmd.Flags().String("name", "", "New creative name")
	creativeUpdateCmd.Flags().StringArray("set", nil, "Field to set as key=value; JSON values are decoded")
}

// parseSetFlags turns key=value pairs into update fields. Values that are
// valid JSON are decoded, anything else is kept as a string.
func parseSetFlags(sets []string) (map[string]any, error) {
	if len(sets) == 0 {
		return nil, nil
	}

	fields := make(map[string]any, len(sets))
	for _, s := range sets {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q: want key=value", s)
		}

		var decoded any
		if err := json.Unmarshal([]byte(value), &decoded); err == nil {
			fields[key] = decoded
		} else {
			fields[key] = value
		}
	}
	return fields, nil
}

var creativeDeleteCmd = &cobra.Command{
	Use:   "delete <creative-id>",
	Short: "Delete a creative",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return describeError("failed to create client", err)
		}

		result, err := c.DeleteCreative(commandContext(cmd), args[0])
		if err != nil {
			return describeError("failed to delete creative", err)
		}

		if jsonOutput {
			return outputJSON(result)
		}
		fmt.Printf("Creative %s deleted\n", args[0])
		return nil
	},
}
