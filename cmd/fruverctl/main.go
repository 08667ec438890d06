package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ukegedo/fruver-orderflow/internal/aws"
	"github.com/ukegedo/fruver-orderflow/internal/catalog"
	"github.com/ukegedo/fruver-orderflow/internal/config"
	"github.com/ukegedo/fruver-orderflow/internal/customers"
	fruverevents "github.com/ukegedo/fruver-orderflow/internal/events"
	"github.com/ukegedo/fruver-orderflow/internal/lifecycle"
	"github.com/ukegedo/fruver-orderflow/internal/orders"
)

// app holds what the commands operate on.
type app struct {
	catalog   *catalog.Store
	lifecycle *lifecycle.Manager
	threshold int
}

type opener func(ctx context.Context) (*app, error)

func openFromEnv(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	clients, err := aws.NewClients(ctx, cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("init aws clients: %w", err)
	}
	cat := catalog.NewStore(clients.DynamoDB, cfg.ProductsTable, cfg.CategoriesTable)
	ord := orders.NewStore(clients.DynamoDB, cfg.OrdersTable)
	cus := customers.NewStore(clients.DynamoDB, cfg.CustomersTable)
	var notifier lifecycle.Notifier
	if cfg.QueueURL != "" {
		notifier = fruverevents.NewSQSNotifier(aws.NewPublisher(clients.SQS, cfg.QueueURL))
	}
	return &app{
		catalog:   cat,
		lifecycle: lifecycle.NewManager(ord, cat, cus, notifier),
		threshold: cfg.LowStockThreshold,
	}, nil
}

func main() {
	if err := newRootCommand(openFromEnv).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand(open opener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "fruverctl",
		Short:        "operate the fruver order backend",
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		seedCommand(open),
		setStatusCommand(open),
		lowStockCommand(open),
	)
	return rootCmd
}

func seedCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "create the default categories and products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := catalog.Seed(cmd.Context(), a.catalog)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d categories and %d products\n", res.Categories, res.Products)
			return nil
		},
	}
}

func setStatusCommand(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status [order-id] [status]",
		Short: "move an order to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := orders.ParseStatus(args[1])
			if err != nil {
				return err
			}
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			res, err := a.lifecycle.SetStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "order %s: %s -> %s\n", res.OrderID, res.Previous.Label(), res.Current.Label())
			for _, s := range res.Stock {
				fmt.Fprintf(out, "  %s: -%d, stock now %d\n", s.ProductName, s.Sold, s.Stock)
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(out, "  warning: %s requested %d, only %d in stock; stock set to 0\n", w.ProductName, w.Requested, w.Available)
			}
			return nil
		},
	}
}

func lowStockCommand(open opener) *cobra.Command {
	var threshold int
	cmd := &cobra.Command{
		Use:   "low-stock",
		Short: "list products at or below the stock threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd.Context())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = a.threshold
			}
			products, err := a.catalog.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PRODUCT\tUNIT\tSTOCK")
			n := 0
			for _, p := range products {
				if p.Stock <= threshold {
					fmt.Fprintf(tw, "%s\t%s\t%d\n", p.Name, p.Unit, p.Stock)
					n++
				}
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d products at or below %d\n", n, threshold)
			return nil
		},
	}
	cmd.Flags().IntVar(&threshold, "threshold", 10, "stock level that counts as low")
	return cmd
}
