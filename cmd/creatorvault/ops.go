package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

var legacyCmd = &cobra.Command{
	Use:   "legacy",
	Short: "Move data to and from browser storage dumps",
}

var legacyImportCmd = &cobra.Command{
	Use:   "import <dump.json>",
	Short: "Import a browser localStorage dump",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening dump: %w", err)
		}
		defer f.Close()

		a, err := newApp(cmd, "ImportLegacy")
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.ImportLegacy(f, args[0])
		if err != nil {
			return err
		}
		r := result.Report
		fmt.Printf("Imported %d content, %d purchase(s), %d tip(s)\n", r.Content, r.Purchases, r.Tips)
		if r.SkippedDuplicates > 0 || r.Invalid > 0 {
			fmt.Printf("Skipped %d duplicate(s), %d invalid record(s)\n", r.SkippedDuplicates, r.Invalid)
		}
		for _, key := range result.Skipped {
			fmt.Printf("Malformed key: %s\n", key)
		}
		for _, key := range result.Unknown {
			fmt.Printf("Ignored key:   %s\n", key)
		}
		if result.Identity != nil {
			fmt.Printf("Signed-in user in dump: %s\n", result.Identity.Address)
		}
		return nil
	},
}

var legacyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write every record as a browser localStorage dump",
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		withIdentity, _ := cmd.Flags().GetBool("with-identity")

		a, err := newApp(cmd, "ExportLegacy")
		if err != nil {
			return err
		}
		defer a.Close()

		var identity *model.Identity
		if withIdentity {
			who, err := actingIdentity(cmd, a)
			if err != nil {
				return err
			}
			identity = &who
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
		return a.ExportLegacy(w, identity)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an API bearer token for --as",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "IssueToken")
		if err != nil {
			return err
		}
		defer a.Close()

		who, err := actingIdentity(cmd, a)
		if err != nil {
			return err
		}
		token, err := a.IssueToken(who)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd, "GetHistory")
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(limit)
		if err != nil {
			return err
		}

		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				d := op.FinishedAt.Time.Sub(op.StartedAt)
				duration = d.Truncate(time.Millisecond).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-10s  %-8s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Fail payments stuck in pending",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Reconcile")
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.Reconcile()
		if err != nil {
			return err
		}
		fmt.Printf("Failed %d stale payment(s)\n", n)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		unlock, _ := cmd.Flags().GetBool("unlock")

		a, err := newApp(cmd, "Serve")
		if err != nil {
			return err
		}
		defer a.Close()

		var dec creator.DecryptionContext
		if unlock {
			passphrase, err := readPassphrase("Passphrase: ", false)
			if err != nil {
				return err
			}
			if dec, err = a.Unlock(passphrase); err != nil {
				return err
			}
		}
		return a.Serve(cmd.Context(), dec)
	},
}

func init() {
	legacyCmd.AddCommand(legacyImportCmd)
	legacyCmd.AddCommand(legacyExportCmd)

	legacyExportCmd.Flags().StringP("output", "o", "", "Write to this file instead of stdout")
	legacyExportCmd.Flags().Bool("with-identity", false, "Include --as as the signed-in user")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
	serveCmd.Flags().Bool("unlock", false, "Prompt for the passphrase so encrypted media can be served")
}
