// cmd/tools/catalog-query/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stock-bot/internal/catalog"
	"stock-bot/internal/common/config"
	"stock-bot/internal/common/logger"
	stocklookup "stock-bot/internal/handlers/stock-lookup"
)

var (
	configPath string
	csvPath    string
	asJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "catalog-query <words...>",
	Short: "Print the reply the bot would send for a query",
	Long:  "Loads the catalog the same way the bot does and prints the exact reply text for \"@stok <words...>\".",
	RunE:  runQuery,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default configs/config.yaml)")
	rootCmd.Flags().StringVar(&csvPath, "csv", "", "read this CSV file instead of the configured source")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "print the reply as JSON")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFromFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if csvPath != "" {
		cfg.Catalog.Source = config.CatalogSourceCSV
		cfg.Catalog.Path = csvPath
	}

	log := logger.NewStructured("warn", "console")
	ctx := context.Background()

	src, closeSrc, err := catalog.NewSource(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeSrc()

	store := catalog.NewStore()
	if err := store.Refresh(ctx, src); err != nil {
		log.Warn("catalog load failed, answering from an empty catalog", map[string]interface{}{
			"source": src.Name(),
			"error":  err,
		})
	}

	handler := stocklookup.NewHandler(&stocklookup.Config{Trigger: cfg.Session.Trigger}, store, log)
	return printReply(cmd.OutOrStdout(), handler, cfg.Session.Trigger, args)
}

func printReply(out io.Writer, handler *stocklookup.Handler, trigger string, args []string) error {
	query, _ := stocklookup.ExtractQuery(trigger+" "+strings.Join(args, " "), trigger)
	reply := handler.Answer(query)

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reply)
	}
	_, err := fmt.Fprintln(out, reply.Text)
	return err
}
