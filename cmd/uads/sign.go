package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/universal-ads/universal-ads-sdk-go/pkg/api"
	"github.com/universal-ads/universal-ads-sdk-go/pkg/auth"
)

// Sign command
var signCmd = &cobra.Command{
	Use:   "sign <url-or-path>",
	Short: "Show the signature for a request",
	Long: `Builds the canonical request and authentication headers for a request
without sending it. Paths are resolved against the API base URL.

Example:
  uads sign /creative?limit=10
  uads sign --method PUT /creative/abc --body '{"name":"X"}'
  echo '{"name":"X"}' | uads sign --method PUT /creative/abc --body-file -`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		method, _ := cmd.Flags().GetString("method")
		body, _ := cmd.Flags().GetString("body")
		bodyFile, _ := cmd.Flags().GetString("body-file")
		verify, _ := cmd.Flags().GetBool("verify")

		if body != "" && bodyFile != "" {
			return fmt.Errorf("--body and --body-file are mutually exclusive")
		}
		if bodyFile != "" {
			b, err := readBodyFile(bodyFile)
			if err != nil {
				return err
			}
			body = string(b)
		}

		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
		pemBytes, err := cfg.PrivateKeyPEM()
		if err != nil {
			return err
		}

		signer, err := auth.New(cfg.APIKey, pemBytes)
		if err != nil {
			return describeError("failed to load credentials", err)
		}

		rawURL := resolveURL(cfg.BaseURL, args[0])
		headers, err := signer.AuthHeaders(method, rawURL, body)
		if err != nil {
			return err
		}
		canonical := signer.CanonicalRequest(method, rawURL, headers.Timestamp(), body)

		verified := false
		if verify {
			if err := auth.Verify(signer.PublicKey(), canonical, headers.Signature()); err != nil {
				return fmt.Errorf("self-verification failed: %w", err)
			}
			verified = true
		}

		if jsonOutput {
			out := map[string]any{
				"url":       rawURL,
				"canonical": canonical,
				"headers":   headers,
			}
			if verify {
				out["verified"] = verified
			}
			return outputJSON(out)
		}

		fmt.Printf("URL: %s\n\nCanonical request:\n%s\n\nHeaders:\n", rawURL, canonical)
		names := make([]string, 0, len(headers))
		for name := range headers {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %s\n", name, headers[name])
		}
		if verified {
			fmt.Println("\nSignature verified against the public key")
		}
		return nil
	},
}

func init() {
	signCmd.Flags().String("method", "GET", "HTTP method")
	signCmd.Flags().String("body", "", "Request body")
	signCmd.Flags().String("body-file", "", "Read the request body from a file, - for stdin")
	signCmd.Flags().Bool("verify", false, "Verify the signature with the public key")
}

// resolveURL joins a path onto the base URL. Absolute URLs are returned
// unchanged.
func resolveURL(baseURL, target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(target, "/")
}

func readBodyFile(path string) ([]byte, error) {
	if path == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read input: %w", err)
		}
		return b, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read body file: %w", err)
	}
	return b, nil
}

// Endpoints command
var endpointsCmd = &cobra.Command{
	Use:   "endpoints",
	Short: "List API endpoints",
	Long:  "Lists the endpoints described by the embedded OpenAPI document.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ops, err := api.Operations()
		if err != nil {
			return err
		}

		if jsonOutput {
			out := make([]map[string]string, 0, len(ops))
			for _, op := range ops {
				out = append(out, map[string]string{
					"method":      op.Method,
					"path":        op.Path,
					"operationId": op.ID,
					"summary":     op.Summary,
				})
			}
			return outputJSON(out)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "METHOD\tPATH\tOPERATION\tSUMMARY")
		for _, op := range ops {
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", op.Method, op.Path, op.ID, op.Summary)
		}
		return tw.Flush()
	},
}
