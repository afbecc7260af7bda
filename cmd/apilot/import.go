package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tandt53/apilot/internal/events"
	"github.com/tandt53/apilot/internal/models"
	"github.com/tandt53/apilot/internal/parser"
	"github.com/tandt53/apilot/internal/reconcile"
	"github.com/tandt53/apilot/internal/stats"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an API spec file into storage",
	Long: `Parses an OpenAPI document, Postman collection, or curl command file and
imports its endpoints into storage.

Without --spec a new spec is created from the file. With --spec the file is
reconciled against the stored spec: new endpoints are inserted and duplicates
are resolved per the merge policy, re-pointing linked test cases in the
process. Use --dry-run to see the analysis without writing anything.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var (
	importSpecID    string
	importDryRun    bool
	importPolicy    string
	importDeprecate bool
	importEnrich    bool
)

func init() {
	importCmd.Flags().StringVarP(&importSpecID, "spec", "s", "", "ID of the stored spec to reconcile against")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Analyze only, do not write")
	importCmd.Flags().StringVar(&importPolicy, "on-duplicate", "", "Duplicate policy: replace or skip (default from config)")
	importCmd.Flags().BoolVar(&importDeprecate, "deprecate", false, "Mark replaced endpoints as deprecated")
	importCmd.Flags().BoolVar(&importEnrich, "enrich", false, "Apply smart defaults to imported endpoints")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := configFromViper()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	setupLogging(cfg.Logging)

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	result, err := parser.New().Parse(string(data), filepath.Base(args[0]))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	endpoints := result.Endpoints
	if importEnrich {
		for i, e := range endpoints {
			endpoints[i] = reconcile.ApplyDefaults(e)
		}
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	defer store.Close()

	// First import: no reconciliation target, just create the spec
	if importSpecID == "" {
		if importDryRun {
			fmt.Printf("Would create spec %q with %d endpoints\n", result.Spec.Name, len(endpoints))
			return nil
		}
		if err := store.CreateSpec(result.Spec); err != nil {
			return fmt.Errorf("failed to create spec: %w", err)
		}
		for _, e := range endpoints {
			e.SpecID = result.Spec.ID
			if err := store.CreateEndpoint(e); err != nil {
				return fmt.Errorf("failed to create endpoint %s: %w", e.Key(), err)
			}
		}
		fmt.Printf("Created spec %s (%q) with %d endpoints\n", result.Spec.ID, result.Spec.Name, len(endpoints))
		return nil
	}

	if _, err := store.GetSpec(importSpecID); err != nil {
		return fmt.Errorf("spec %s not found: %w", importSpecID, err)
	}

	analyzer := reconcile.NewAnalyzer(store)
	analysis, err := analyzer.Analyze(endpoints, importSpecID)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	printAnalysis(analysis)

	if importDryRun {
		return nil
	}

	opts := models.ImportOptions{
		OnDuplicate:      cfg.Import.OnDuplicate,
		MarkAsDeprecated: cfg.Import.MarkAsDeprecated || importDeprecate,
	}
	if importPolicy != "" {
		opts.OnDuplicate = importPolicy
	}

	executor := reconcile.NewExecutor(store, events.NewService(cfg.Events.MaxEvents), stats.NewCollector())
	applied, err := executor.Apply(context.Background(), endpoints, importSpecID, opts)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Import complete: %d succeeded, %d skipped, %d failed\n",
		applied.Succeeded, applied.Skipped, applied.Failed)
	for _, ie := range applied.Errors {
		fmt.Printf("  %s %s: %s\n", ie.Method, ie.Path, ie.Error)
	}
	if applied.Failed > 0 {
		return fmt.Errorf("%d endpoints failed to import", applied.Failed)
	}
	return nil
}

func printAnalysis(a *models.ImportAnalysis) {
	s := a.Summary
	fmt.Printf("Analysis for spec %s:\n", a.SpecID)
	fmt.Printf("  new:        %d\n", s.New)
	fmt.Printf("  modified:   %d\n", s.Modified)
	fmt.Printf("  unchanged:  %d\n", s.Unchanged)
	fmt.Printf("  deprecated: %d\n", s.DeprecatedCandidates)
	if s.DuplicatesWithTests > 0 {
		fmt.Printf("  %d duplicate endpoints have linked test cases\n", s.DuplicatesWithTests)
	}
	for _, sk := range a.Skipped {
		fmt.Printf("  skipped: %s\n", sk.Reason)
	}
}
