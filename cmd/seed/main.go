// Command seed writes synthetic demo datasets as CSV files, ready to be
// uploaded to the server.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
	"github.com/JungMoonYoung/auto-insight-platform/internal/testkit"
)

func main() {
	var (
		outDir    = flag.String("out", ".", "output directory")
		customers = flag.Int("customers", 200, "number of customers")
		reviews   = flag.Int("reviews", 150, "number of reviews")
		seed      = flag.Int64("seed", 42, "random seed")
	)
	flag.Parse()

	cfg := testkit.DefaultConfig()
	cfg.CustomerCount = *customers
	cfg.ReviewCount = *reviews
	cfg.Seed = *seed

	gen := testkit.NewGenerator(cfg)

	txns, err := gen.Transactions()
	if err != nil {
		log.Fatalf("[Seed] generate transactions: %v", err)
	}
	if err := writeCSV(filepath.Join(*outDir, "transactions.csv"), txns); err != nil {
		log.Fatalf("[Seed] write transactions: %v", err)
	}
	log.Printf("[Seed] transactions.csv: %d rows", txns.RowCount())

	revs, err := gen.Reviews()
	if err != nil {
		log.Fatalf("[Seed] generate reviews: %v", err)
	}
	if err := writeCSV(filepath.Join(*outDir, "reviews.csv"), revs); err != nil {
		log.Fatalf("[Seed] write reviews: %v", err)
	}
	log.Printf("[Seed] reviews.csv: %d rows", revs.RowCount())
}

func writeCSV(path string, t *table.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	columns := t.Columns()
	if err := w.Write(columns); err != nil {
		return err
	}

	cells := make([][]table.Cell, len(columns))
	for i, name := range columns {
		col, err := t.Column(name)
		if err != nil {
			return err
		}
		cells[i] = col
	}

	record := make([]string, len(columns))
	for row := 0; row < t.RowCount(); row++ {
		for i := range columns {
			c := cells[i][row]
			switch v := c.(type) {
			case nil:
				record[i] = ""
			case float64:
				record[i] = formatNumber(v)
			default:
				record[i] = table.String(c)
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// formatNumber avoids trailing ".000000" on integral values.
func formatNumber(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%g", v)
}
