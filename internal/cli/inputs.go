package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Joel31000/CarbonConsult/internal/factors"
	"github.com/Joel31000/CarbonConsult/internal/lineitem"
	"github.com/Joel31000/CarbonConsult/internal/tabular"
)

// ErrUnsupportedInput is returned for input files that are neither an offer
// (YAML/JSON) nor a report (CSV/XLSX).
var ErrUnsupportedInput = errors.New("unsupported input file")

type inputKind int

const (
	inputOffer inputKind = iota
	inputReport
)

func kindOf(path string) (inputKind, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return inputOffer, nil
	case ".csv", ".xlsx":
		return inputReport, nil
	default:
		return 0, fmt.Errorf("%w: %s (want .yaml, .yml, .json, .csv or .xlsx)", ErrUnsupportedInput, path)
	}
}

// loadOffer reads an offer file, or imports an exported report.
func loadOffer(ctx context.Context, path string, table *factors.Table) (*lineitem.Offer, error) {
	kind, err := kindOf(path)
	if err != nil {
		return nil, err
	}

	if kind == inputReport {
		doc, readErr := tabular.ReadFile(path)
		if readErr != nil {
			return nil, readErr
		}
		return tabular.Import(ctx, doc, table)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening offer: %w", err)
	}
	defer f.Close()

	offer, err := lineitem.ReadOffer(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return offer, nil
}

// writeOffer writes offer to path, picking JSON or YAML from the extension.
func writeOffer(path string, offer *lineitem.Offer) error {
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating offer file: %w", err)
	}
	if err = lineitem.WriteOffer(f, offer, format); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing offer: %w", err)
	}
	return f.Close()
}
