package cli

import (
	"fmt"

	"github.com/felixgeelhaar/billingkit/internal/billing/application"
	"github.com/felixgeelhaar/billingkit/internal/billing/domain"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show billing connection state",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := orchestrator()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connection: %s\n", orch.State())
		if orch.PurchaseInFlight() {
			fmt.Fprintln(cmd.OutOrStdout(), "A purchase flow is in progress.")
		}
		return nil
	},
}

var catalogCmd = &cobra.Command{
	Use:   "catalog <product-id> [product-id...]",
	Short: "Query product metadata",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := orchestrator()
		if err != nil {
			return err
		}
		if err := orch.Initialize(cmd.Context()); err != nil {
			return err
		}
		entries, err := orch.QueryCatalog(cmd.Context(), args)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No products found.")
			return nil
		}
		for _, entry := range entries {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s\n",
				entry.ProductID, entry.Title, entry.Price, entry.Kind)
		}
		return nil
	},
}

var purchasesCmd = &cobra.Command{
	Use:   "purchases",
	Short: "List owned purchases",
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := orchestrator()
		if err != nil {
			return err
		}
		if err := orch.Initialize(cmd.Context()); err != nil {
			return err
		}
		records, err := orch.QueryOwnedPurchases(cmd.Context())
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No purchases found.")
			return nil
		}
		for _, record := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
				record.ProductID, record.OrderID, record.PurchaseTime.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var purchaseSubscribe bool

var purchaseCmd = &cobra.Command{
	Use:   "purchase <product-id>",
	Short: "Launch a purchase flow",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := orchestrator()
		if err != nil {
			return err
		}
		if err := orch.Initialize(cmd.Context()); err != nil {
			return err
		}
		record, err := orch.Purchase(cmd.Context(), args[0], purchaseSubscribe)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Purchased %s (order %s)\n", record.ProductID, record.OrderID)
		return nil
	},
}

var (
	consumeKind      string
	consumeSignature string
)

var consumeCmd = &cobra.Command{
	Use:   "consume <receipt-json>",
	Short: "Consume a purchase so it can be bought again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := orchestrator()
		if err != nil {
			return err
		}
		kind, err := domain.ParseProductKind(consumeKind)
		if err != nil {
			return err
		}
		if err := orch.Initialize(cmd.Context()); err != nil {
			return err
		}
		receipt, err := orch.Consume(cmd.Context(), kind, args[0], consumeSignature)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Consumed %s (transaction %s)\n", receipt.ProductID, receipt.TransactionID)
		return nil
	},
}

func orchestrator() (*application.Orchestrator, error) {
	a := GetApp()
	if a == nil || a.Orchestrator == nil {
		return nil, fmt.Errorf("billing orchestrator is not configured")
	}
	return a.Orchestrator, nil
}

func init() {
	purchaseCmd.Flags().BoolVar(&purchaseSubscribe, "subscribe", false, "purchase as a subscription")
	consumeCmd.Flags().StringVar(&consumeKind, "type", string(domain.ProductOneTime), "product kind (inapp or subs)")
	consumeCmd.Flags().StringVar(&consumeSignature, "signature", "", "detached receipt signature")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(purchasesCmd)
	rootCmd.AddCommand(purchaseCmd)
	rootCmd.AddCommand(consumeCmd)
}
