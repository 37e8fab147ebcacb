package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cosmocart/backend/internal/infrastructure/sqlstore"
)

var (
	importFile      string
	importTruncate  bool
	importBatchSize int
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load products from a CSV file into the catalog",
	Long: `Import reads a product CSV (product_name, brand, category, sub_category,
market_price, sale_price, ratings, image_url, stock, packed_date, expiry_date)
and inserts it into the configured database. Invalid rows are skipped and counted.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "path to the product CSV (required)")
	importCmd.Flags().BoolVar(&importTruncate, "truncate", false, "delete existing products before importing")
	importCmd.Flags().IntVar(&importBatchSize, "batch-size", 0, "rows per insert transaction")
	_ = importCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	f, err := os.Open(importFile)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := sqlstore.NewImporter(db, logger).Import(ctx, f, sqlstore.ImportOptions{
		Truncate:  importTruncate,
		BatchSize: importBatchSize,
	})
	if err != nil {
		return fmt.Errorf("import %s: %w", importFile, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d products (%d skipped)\n", result.Imported, result.Skipped)
	return nil
}
