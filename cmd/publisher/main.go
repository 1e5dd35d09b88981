package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tradeexplorer/internal/app"
	"tradeexplorer/internal/config"
	"tradeexplorer/internal/explorer"
	"tradeexplorer/internal/selection"
)

type metaFile struct {
	GeneratedAt string            `json:"generated_at"`
	Bucket      string            `json:"bucket"`
	Options     selection.Options `json:"options"`
}

type singleFile struct {
	GeneratedAt string                `json:"generated_at"`
	Selection   selection.Input       `json:"selection"`
	Result      explorer.SingleResult `json:"result"`
}

type multiFile struct {
	GeneratedAt string               `json:"generated_at"`
	Selection   selection.Input      `json:"selection"`
	Result      explorer.MultiResult `json:"result"`
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "build":
		build(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func build(args []string) {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	outDir := fs.String("out", "site/data", "output directory")
	dbPath := fs.String("db", "", "sqlite snapshot database path (empty reads remote partitions)")
	singleCountry := fs.String("country", selection.DefaultSingleCountry, "reporting country of the single view")
	multiCountry := fs.String("multi-country", selection.DefaultMultiCountry, "reporting country of the multi view")
	partnersCSV := fs.String("partners", strings.Join(selection.DefaultMultiPartners, ","), "comma-separated partners of the multi view")
	fs.Parse(args)

	if err := publish(*outDir, *dbPath, *singleCountry, *multiCountry, parseList(*partnersCSV)); err != nil {
		fmt.Fprintln(os.Stderr, "publisher build failed:", err)
		os.Exit(1)
	}
}

func publish(outDir, dbPath, singleCountry, multiCountry string, partners []string) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
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

	now := time.Now().UTC().Format(time.RFC3339)
	if err := writeJSON(filepath.Join(outDir, "meta.json"), metaFile{
		GeneratedAt: now,
		Bucket:      cfg.Partition.Bucket,
		Options:     selection.AvailableOptions(),
	}); err != nil {
		return fmt.Errorf("write meta.json: %w", err)
	}

	single := selection.DefaultSingle()
	single.Country = selection.List{singleCountry}
	singleResult, err := application.Explorer.Single(ctx, single)
	if err != nil {
		return fmt.Errorf("single view: %w", err)
	}
	if err := writeJSON(filepath.Join(outDir, "single.json"), singleFile{
		GeneratedAt: now, Selection: single, Result: singleResult,
	}); err != nil {
		return fmt.Errorf("write single.json: %w", err)
	}

	multi := selection.DefaultMulti()
	multi.Country = selection.List{multiCountry}
	multi.Partners = selection.List(partners)
	multiResult, err := application.Explorer.Multi(ctx, multi)
	if err != nil {
		return fmt.Errorf("multi view: %w", err)
	}
	if err := writeJSON(filepath.Join(outDir, "multi.json"), multiFile{
		GeneratedAt: now, Selection: multi, Result: multiResult,
	}); err != nil {
		return fmt.Errorf("write multi.json: %w", err)
	}

	fmt.Printf("publisher build complete (out=%s partners=%d series=%d)\n",
		outDir, len(singleResult.Partners), len(multiResult.Plot))
	return nil
}

func writeJSON(path string, value any) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: publisher build [options]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options:")
	fmt.Fprintln(os.Stderr, "  -out            output directory (default: site/data)")
	fmt.Fprintln(os.Stderr, "  -db             sqlite snapshot database path (default: none)")
	fmt.Fprintln(os.Stderr, "  -country        single view country (default: South Africa)")
	fmt.Fprintln(os.Stderr, "  -multi-country  multi view country (default: Kenya)")
	fmt.Fprintln(os.Stderr, "  -partners       comma-separated multi view partners (default: Canada)")
}

func parseList(value string) []string {
	raw := strings.Split(value, ",")
	items := make([]string, 0, len(raw))
	for _, item := range raw {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		items = append(items, trimmed)
	}
	return items
}
