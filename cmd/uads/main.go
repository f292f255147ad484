// Package main provides a CLI for the Universal Ads API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/universal-ads/universal-ads-sdk-go/pkg/client"
	"github.com/universal-ads/universal-ads-sdk-go/pkg/config"
)

var (
	// Global flags
	apiURL         string
	apiKey         string
	privateKeyFile string
	configPath     string
	timeout        time.Duration
	jsonOutput     bool
	verbose        bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "uads",
	Short: "Universal Ads API CLI",
	Long: `A command-line client for the Universal Ads API.

This tool allows you to:
  - Manage creatives
  - Upload and verify media
  - Fetch campaign, adset and ad reports
  - Inspect request signatures

Settings are resolved from flags, then environment, then the config file.

Environment variables:
  UNIVERSAL_ADS_API_KEY          - API key identifier
  UNIVERSAL_ADS_PRIVATE_KEY      - PEM private key ("\n" escapes allowed)
  UNIVERSAL_ADS_PRIVATE_KEY_FILE - Path to the PEM private key
  UNIVERSAL_ADS_BASE_URL         - API base URL (default: https://api.universalads.com/v1)
  UNIVERSAL_ADS_CONFIG           - Config file path`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", "", "API base URL (or UNIVERSAL_ADS_BASE_URL env)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key (or UNIVERSAL_ADS_API_KEY env)")
	rootCmd.PersistentFlags().StringVar(&privateKeyFile, "private-key-file", "", "PEM private key file (or UNIVERSAL_ADS_PRIVATE_KEY_FILE env)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (or UNIVERSAL_ADS_CONFIG env)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Per-request timeout (default 30s)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and retries to stderr")

	rootCmd.AddCommand(creativeCmd)
	rootCmd.AddCommand(mediaCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(endpointsCmd)
}

// flagConfig returns the settings given on the command line.
func flagConfig() config.Config {
	cfg := config.Config{
		APIKey:         apiKey,
		PrivateKeyFile: privateKeyFile,
		BaseURL:        apiURL,
	}
	if timeout > 0 {
		cfg.Timeout = timeout.String()
	}
	return cfg
}

// resolveConfig merges the config file, environment and flags, in
// increasing order of precedence, over the defaults.
func resolveConfig() (config.Config, error) {
	var cfg config.Config

	path := configPath
	explicit := path != "" || os.Getenv(config.EnvConfig) != ""
	if path == "" {
		path = config.DefaultPath()
	}

	if path != "" {
		_, statErr := os.Stat(path)
		if explicit || statErr == nil {
			loaded, err := config.Load(path)
			if err != nil {
				return cfg, err
			}
			cfg = *loaded
		}
	}

	return cfg.Merge(config.FromEnv()).Merge(flagConfig()).GetDefaults(), nil
}

// newLogger returns a stderr logger. Debug output is enabled with --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient creates a new API client
func newClient() (*client.Client, error) {
	cfg, err := resolveConfig()
	if err != nil {
		return nil, err
	}
	return cfg.NewClient(client.WithLogger(newLogger()))
}

// commandContext returns the command's context, or a background context
// when the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}

// outputJSON prints the value as JSON
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResult prints a single object as sorted key/value lines.
func printResult(r client.Result) error {
	if jsonOutput {
		return outputJSON(r)
	}
	if len(r) == 0 {
		fmt.Println("OK")
		return nil
	}

	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, k := range keys {
		_, _ = fmt.Fprintf(tw, "%s:\t%s\n", k, formatValue(r[k]))
	}
	return tw.Flush()
}

// printRows prints the objects under "data" as a table. When columns is
// empty the keys of the first row are used.
func printRows(r client.Result, columns ...string) error {
	if jsonOutput {
		return outputJSON(r)
	}

	rows := r.List("data")
	if len(rows) == 0 {
		fmt.Println("No results")
		return nil
	}

	if len(columns) == 0 {
		for k := range rows[0] {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.ToUpper(strings.Join(columns, "\t")))
	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = formatValue(row[col])
		}
		_, _ = fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "-"
	case string:
		return v
	case json.Number:
		return v.String()
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(b)
	default:
		return fmt.Sprint(v)
	}
}

// describeError adds a hint for the common failure classes.
func describeError(action string, err error) error {
	switch {
	case client.IsAuthError(err):
		return fmt.Errorf("%s: check the API key and private key: %w", action, err)
	case client.IsTransportError(err) && client.StatusCode(err) != 0:
		return fmt.Errorf("%s: gave up after retries: %w", action, err)
	case client.IsTransportError(err):
		return fmt.Errorf("%s: API unreachable: %w", action, err)
	default:
		return fmt.Errorf("%s: %w", action, err)
	}
}
