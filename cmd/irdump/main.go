// Command irdump loads a serialized IR file and prints the indexed fact
// store's statistics. It exists as a minimal smoke-test harness for the
// library surface - it is not the project's real command-line interface,
// which lives out of scope for this module.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/hodeiscan/hodeiscan/ir"
	"github.com/hodeiscan/hodeiscan/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		slog.Error("irdump failed", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("irdump", flag.ContinueOnError)
	path := fs.String("ir", "", "path to a serialized IR JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return errors.New("irdump: -ir is required")
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", *path, err)
	}

	var doc ir.IntermediateRepresentation
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parsing %s: %w", *path, err)
	}

	doc, err = ir.MigrateToCurrent(doc)
	if err != nil {
		return fmt.Errorf("migrating %s: %w", *path, err)
	}

	st := store.New(doc.Facts)
	stats := st.Stats()

	fmt.Printf("project: %s (%s)\n", doc.Metadata.ProjectName, doc.Metadata.ProjectVersion)
	fmt.Printf("schema_version: %s\n", doc.SchemaVersion)
	fmt.Printf("total facts: %d\n", stats.TotalFacts)
	for k := 0; k < ir.NumFactTypeKinds; k++ {
		kind := ir.FactTypeKind(k)
		if count := stats.Cardinality(kind); count > 0 {
			fmt.Printf("  %-24s %d\n", kind.String(), count)
		}
	}
	return nil
}
