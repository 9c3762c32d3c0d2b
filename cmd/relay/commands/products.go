package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Vovarama1992/line-intent-relay/internal/relay"
)

// NewProductsCmd prints the product catalog the relay answers from, or one stored answer.
func NewProductsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "products [product field]",
		Short: "Show the product catalog",
		Long: `Without arguments, print the catalog exactly as it is given to the generative
model. With a product and a detail field, print the stored answer.

The catalog is read from --file, then PRODUCTS_FILE, then the built-in default.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 0 && len(args) != 2 {
				return fmt.Errorf("expected no arguments or <product> <field>, got %d", len(args))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := file
			if path == "" {
				path = os.Getenv("PRODUCTS_FILE")
			}

			catalog, err := relay.LoadProductCatalog(path)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), catalog.Serialize())
				return nil
			}

			answer, ok := catalog.Lookup(args[0], args[1])
			if !ok {
				return fmt.Errorf("no answer for %s/%s", args[0], args[1])
			}
			fmt.Fprintln(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "product catalog JSON file")

	return cmd
}
