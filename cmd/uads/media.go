package main

import (
	"fmt"
	"mime"
	"path/filepath"

	"github.com/spf13/cobra"
)

// Media command group
var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Upload and verify media",
}

func init() {
	mediaCmd.AddCommand(mediaRequestCmd)
	mediaCmd.AddCommand(mediaUploadCmd)
	mediaCmd.AddCommand(mediaVerifyCmd)
}

// contentTypeFor returns the --content-type flag, or a type guessed from
// the file extension.
func contentTypeFor(cmd *cobra.Command, filePath string) (string, error) {
	contentType, _ := cmd.Flags().GetString("content-type")
	if contentType != "" {
		return contentType, nil
	}
	if guessed := mime.TypeByExtension(filepath.Ext(filePath)); guessed != "" {
		return guessed, nil
	}
	return "", fmt.Errorf("cannot detect content type of %s: use --content-type", filePath)
}

var mediaRequestCmd = &cobra.Command{
	Use:   "request <file>",
	Short: "Request an upload slot",
	Long:  "Requests a presigned upload URL for a file without uploading it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		filename, _ := cmd.Flags().GetString("filename")

		contentType, err := contentTypeFor(cmd, args[0])
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return describeError("failed to create client", err)
		}

		result, err := c.UploadMedia(commandContext(cmd), args[0], contentType, filename)
		if err != nil {
			return describeError("failed to request upload", err)
		}

		return printResult(result)
	},
}

func init() {
	mediaRequestCmd.Flags().String("content-type", "", "MIME type (guessed from the extension if omitted)")
	mediaRequestCmd.Flags().String("filename", "", "Name reported to the API (defaults to the file's base name)")
}

var mediaUploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload and verify a file",
	Long: `Requests an upload slot, uploads the file to the presigned URL and
verifies the upload.

Example:
  uads media upload banner.png
  uads media upload clip.bin --content-type video/mp4`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		contentType, err := contentTypeFor(cmd, args[0])
		if err != nil {
			return err
		}

		c, err := newClient()
		if err != nil {
			return describeError("failed to create client", err)
		}

		result, err := c.UploadAndVerify(commandContext(cmd), args[0], contentType)
		if err != nil {
			return describeError("media upload failed", err)
		}

		if jsonOutput {
			return outputJSON(result)
		}
		fmt.Printf("Media uploaded and verified\n")
		return printResult(result)
	},
}

func init() {
	mediaUploadCmd.Flags().String("content-type", "", "MIME type (guessed from the extension if omitted)")
}

var mediaVerifyCmd = &cobra.Command{
	Use:   "verify <media-id>",
	Short: "Confirm a media upload",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return describeError("failed to create client", err)
		}

		result, err := c.VerifyMedia(commandContext(cmd), args[0])
		if err != nil {
			return describeError("failed to verify media", err)
		}

		return printResult(result)
	},
}
