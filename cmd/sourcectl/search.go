package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lk2023060901/offer-sourcing/internal/pkg/injector"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/service"
	"github.com/lk2023060901/offer-sourcing/internal/sourcing/types"
)

var (
	searchIntentFile string
	searchJSON       bool
	searchLimit      int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Run one search",
	Long: `Search reads a buyer intent from --intent (the JSON body accepted by
POST /api/v1/sourcing/search) or takes a free-text query argument, queries
every enabled source within the configured deadline and prints the result.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchIntentFile, "intent", "i", "", "intent JSON file, - for stdin")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output the full response as JSON")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 20, "maximum number of offers to print")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	req, err := readRequest(searchIntentFile, args)
	if err != nil {
		return err
	}
	intent := req.ToIntent()
	if err := intent.Validate(); err != nil {
		return fmt.Errorf("invalid intent: %w", err)
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	agg, cleanup, err := injector.InitializeAggregator(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}
	defer cleanup()

	if len(agg.Sources()) == 0 {
		return errors.New("no sources enabled in config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := agg.Search(ctx, intent)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputJSON(cmd, resp)
	}
	outputTable(cmd.OutOrStdout(), resp, searchLimit)
	return nil
}

// readRequest builds the request from the intent file or the query argument
func readRequest(path string, args []string) (*service.SearchRequest, error) {
	var req service.SearchRequest

	if path != "" {
		var (
			raw []byte
			err error
		)
		if path == "-" {
			raw, err = io.ReadAll(os.Stdin)
		} else {
			raw, err = os.ReadFile(path)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read intent: %w", err)
		}
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("failed to parse intent: %w", err)
		}
	}

	if len(args) == 1 {
		req.Query = strings.TrimSpace(args[0])
	}
	if path == "" && req.Query == "" {
		return nil, errors.New("either --intent or a query argument is required")
	}
	return &req, nil
}

func outputJSON(cmd *cobra.Command, resp *types.SearchResponse) error {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal response: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
