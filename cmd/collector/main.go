package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"tradeexplorer/internal/app"
	"tradeexplorer/internal/config"
	"tradeexplorer/internal/partition"
	"tradeexplorer/internal/selection"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		run(os.Args[2:])
	case "list":
		list(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func run(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	countries := fs.String("countries", selection.DefaultSingleCountry+","+selection.DefaultMultiCountry,
		"comma-separated reporting countries")
	dbPath := fs.String("db", "trade.db", "sqlite snapshot database path")
	verbose := fs.Bool("verbose", false, "print each country result")
	fs.Parse(args)

	if err := runCollector(parseList(*countries), *dbPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "collector run failed:", err)
		os.Exit(1)
	}
}

func list(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	dbPath := fs.String("db", "trade.db", "sqlite snapshot database path")
	fs.Parse(args)

	if err := listSnapshots(*dbPath); err != nil {
		fmt.Fprintln(os.Stderr, "collector list failed:", err)
		os.Exit(1)
	}
}

func listSnapshots(dbPath string) error {
	if strings.TrimSpace(dbPath) == "" {
		return errors.New("db path is required")
	}
	st, err := app.OpenStore(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	snapshots, err := st.ListCountries(context.Background())
	if err != nil {
		return err
	}
	for _, snapshot := range snapshots {
		fmt.Printf("%s records=%d ingested_at=%s\n", snapshot.Country, snapshot.Records, snapshot.IngestedAt)
	}
	return nil
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: collector run|list [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -countries   comma-separated reporting countries (run; default: South Africa,Kenya)")
	fmt.Fprintln(os.Stderr, "  -db          sqlite snapshot database path (default: trade.db)")
	fmt.Fprintln(os.Stderr, "  -verbose     print each country result (run)")
}

func runCollector(countries []string, dbPath string, verbose bool) error {
	if len(countries) == 0 {
		return errors.New("no countries provided")
	}
	if strings.TrimSpace(dbPath) == "" {
		return errors.New("db path is required")
	}

	cfg, err := config.Load(".env", "configs/.env")
	if err != nil {
		return err
	}
	cfg.StorePath = dbPath
	logger := config.NewLogger(os.Stderr, cfg.LogLevel)

	ctx := context.Background()
	application, err := app.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	success := 0
	failed := 0
	skipped := 0
	records := 0
	for _, country := range countries {
		rows, err := application.Data.Rows(ctx, []string{country})
		if err != nil {
			if errors.Is(err, partition.ErrNotFound) {
				skipped++
				if verbose {
					fmt.Fprintf(os.Stderr, "skip no-partitions country=%s\n", country)
				}
				continue
			}
			failed++
			fmt.Fprintf(os.Stderr, "fetch failed country=%s: %v\n", country, err)
			continue
		}
		success++
		records += len(rows)
		if verbose {
			fmt.Printf("%s records=%d\n", country, len(rows))
		}
	}

	fmt.Printf("collector run complete (countries=%d success=%d failed=%d records=%d)\n",
		len(countries), success, failed, records,
	)
	if skipped > 0 {
		fmt.Printf("collector run skipped=%d\n", skipped)
	}
	if success == 0 && failed > 0 {
		return errors.New("no country collected")
	}
	return nil
}

func parseList(value string) []string {
	raw := strings.Split(value, ",")
	items := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		items = append(items, trimmed)
	}
	return items
}
