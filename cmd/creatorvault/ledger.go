package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

func printPaymentResult(result *creator.PaymentResult) error {
	if result.Replayed {
		fmt.Println("Replayed an earlier request with the same idempotency key.")
	}
	if !result.Success {
		return fmt.Errorf("payment %s failed: %s", result.Payment.ID, result.Error)
	}
	fmt.Printf("Payment: %s\n", result.Payment.ID)
	fmt.Printf("Amount:  %s ETH\n", result.Payment.Amount)
	fmt.Printf("Tx:      %s\n", result.TxHash)
	return nil
}

var purchaseCmd = &cobra.Command{
	Use:   "purchase <content-id>",
	Short: "Buy access to a premium item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("idempotency-key")

		a, err := newApp(cmd, "Purchase")
		if err != nil {
			return err
		}
		defer a.Close()

		who, err := actingIdentity(cmd, a)
		if err != nil {
			return err
		}
		result, err := a.Purchase(cmd.Context(), who, args[0], key)
		if err != nil {
			return err
		}
		return printPaymentResult(result)
	},
}

var tipCmd = &cobra.Command{
	Use:   "tip <creator-address> <amount>",
	Short: "Send a tip in ETH to a creator",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, _ := cmd.Flags().GetString("idempotency-key")
		message, _ := cmd.Flags().GetString("message")

		amount, err := model.ParseEther(args[1])
		if err != nil {
			return err
		}

		a, err := newApp(cmd, "Tip")
		if err != nil {
			return err
		}
		defer a.Close()

		who, err := actingIdentity(cmd, a)
		if err != nil {
			return err
		}
		result, err := a.Tip(cmd.Context(), who, args[0], amount, message, key)
		if err != nil {
			return err
		}
		return printPaymentResult(result)
	},
}

var earningsCmd = &cobra.Command{
	Use:   "earnings [creator-address]",
	Short: "Show earnings for a creator (default: --as)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, "Earnings")
		if err != nil {
			return err
		}
		defer a.Close()

		var address string
		if len(args) == 1 {
			address = args[0]
		} else {
			who, err := actingIdentity(cmd, a)
			if err != nil {
				return err
			}
			address = who.Address
		}

		stats, err := a.Service().GetEarningsStats(address)
		if err != nil {
			return err
		}
		fmt.Printf("Creator:      %s\n", model.NormalizeAddress(address))
		fmt.Printf("Total:        %s ETH\n", stats.TotalEarnings)
		fmt.Printf("Today:        %s ETH\n", stats.TodayEarnings)
		fmt.Printf("Purchases:    %d (avg %s ETH)\n", stats.TransactionCount, stats.AveragePerTransaction)
		fmt.Printf("Tips:         %s ETH from %d tip(s)\n", stats.TotalTips, stats.TipCount)
		fmt.Printf("Wallet:       %s ETH\n", a.Service().GetUserBalance())
		if len(stats.RecentPayments) > 0 {
			fmt.Println("\nRecent purchases:")
			for _, p := range stats.RecentPayments {
				fmt.Printf("  %s  %s  %-10s ETH  %s\n",
					p.Timestamp.Local().Format("2006-01-02 15:04:05"),
					p.ContentID,
					p.Amount,
					shortHash(p.TxHash),
				)
			}
		}
		return nil
	},
}

func init() {
	purchaseCmd.Flags().String("idempotency-key", "", "Replay-safe key for retries")
	tipCmd.Flags().String("idempotency-key", "", "Replay-safe key for retries")
	tipCmd.Flags().StringP("message", "m", "", "Message to include with the tip")
}
