package main

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"creatorvault/internal/creator"
)

var mediaCmd = &cobra.Command{
	Use:   "media",
	Short: "Upload and fetch media blobs",
}

var mediaAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Upload a file to the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")
		contentType, _ := cmd.Flags().GetString("type")
		if contentType == "" {
			contentType = mime.TypeByExtension(filepath.Ext(args[0]))
		}

		a, err := newApp(cmd, "AddMedia")
		if err != nil {
			return err
		}
		defer a.Close()

		who, err := actingIdentity(cmd, a)
		if err != nil {
			return err
		}
		media, err := a.AddMedia(who, args[0], contentType, encrypt)
		if err != nil {
			return err
		}
		fmt.Printf("Hash:      %s\n", media.Hash)
		fmt.Printf("Size:      %d\n", media.Size)
		fmt.Printf("Type:      %s\n", orDash(media.ContentType))
		fmt.Printf("Encrypted: %v\n", media.Encrypted)
		fmt.Printf("URL:       %s\n", media.URL)
		return nil
	},
}

var mediaGetCmd = &cobra.Command{
	Use:   "get <hash>",
	Short: "Write a media blob to a file or stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")

		a, err := newApp(cmd, "GetMedia")
		if err != nil {
			return err
		}
		defer a.Close()

		media, err := a.Service().FindMedia(args[0])
		if err != nil {
			return err
		}

		var dec creator.DecryptionContext
		if media.Encrypted {
			passphrase, err := readPassphrase("Passphrase: ", false)
			if err != nil {
				return err
			}
			if dec, err = a.Unlock(passphrase); err != nil {
				return err
			}
		}

		var w io.Writer = os.Stdout
		if output != "" {
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		if _, err := a.GetMedia(args[0], w, dec); err != nil {
			return err
		}
		if output != "" {
			fmt.Fprintf(os.Stderr, "Wrote %d bytes to %s\n", media.Size, output)
		}
		return nil
	},
}

func init() {
	mediaCmd.AddCommand(mediaAddCmd)
	mediaCmd.AddCommand(mediaGetCmd)

	mediaAddCmd.Flags().Bool("encrypt", false, "Encrypt the blob with the configured age key")
	mediaAddCmd.Flags().String("type", "", "Content type (default: guessed from extension)")
	mediaGetCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
}
