package cli

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

var (
	customerJSON bool
	customerRaw  bool
)

var customerCmd = &cobra.Command{
	Use:   "customer [id]",
	Short: "Show a customer's profile and risk level",
	Long: `Looks up a customer in the CSV and prints credit score, balance, products,
activity and the derived risk level (BAJO, MEDIO or ALTO).`,
	Args: cobra.ExactArgs(1),
	RunE: runCustomer,
}

func init() {
	customerCmd.Flags().BoolVar(&customerJSON, "json", false, "output as JSON")
	customerCmd.Flags().BoolVar(&customerRaw, "raw", false, "also print every CSV column")
	rootCmd.AddCommand(customerCmd)
}

func runCustomer(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return eris.Wrapf(domain.ErrInvalidInput, "customer id %q is not a number", args[0])
	}

	ctx := cmd.Context()
	if err := ensureRAG(ctx); err != nil {
		return err
	}
	if customerService == nil {
		return eris.New("customer service not configured")
	}

	stats, err := customerService.Stats(ctx, id)
	if err != nil {
		return err
	}

	var row map[string]string
	if customerRaw || customerJSON {
		if row, err = customerService.Get(ctx, id); err != nil {
			return err
		}
	}

	if customerJSON {
		return printJSON(cmd, struct {
			Stats *domain.CustomerStats `json:"stats"`
			Row   map[string]string     `json:"row"`
		}{stats, row})
	}

	active := "no"
	if stats.IsActive {
		active = "yes"
	}
	cmd.Printf("Customer:     %d\n", stats.CustomerID)
	cmd.Printf("Credit score: %d\n", stats.CreditScore)
	cmd.Printf("Balance:      %.2f\n", stats.Balance)
	cmd.Printf("Products:     %d\n", stats.ProductsNumber)
	cmd.Printf("Active:       %s\n", active)
	cmd.Printf("Risk:         %s\n", stats.Risk)

	if customerRaw {
		cmd.Println()
		keys := make([]string, 0, len(row))
		for k := range row {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("  %-18s %s\n", k, row[k])
		}
	}
	return nil
}
