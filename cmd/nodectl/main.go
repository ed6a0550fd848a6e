// Command nodectl is a small operator CLI for moving node configuration
// in and out of a monitor database, independent of the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/last-emo-boy/net-monitor/pkg/config"
	"github.com/last-emo-boy/net-monitor/pkg/importexport"
	"github.com/last-emo-boy/net-monitor/pkg/store"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  nodectl export <db-path> <output-file>")
	fmt.Fprintln(os.Stderr, "  nodectl import <db-path> <input-file>")
}

func main() {
	if len(os.Args) != 4 {
		usage()
		os.Exit(2)
	}

	cmd, dbPath, file := os.Args[1], os.Args[2], os.Args[3]

	db, err := store.Open(&config.StoreConfig{Path: dbPath, WALMode: true, MaxOpenConns: 5})
	if err != nil {
		fatalf("nodectl: open %s: %v", dbPath, err)
	}
	defer db.Close()

	switch cmd {
	case "export":
		if err := runExport(db.NodeRepo(), file); err != nil {
			fatalf("nodectl: export: %v", err)
		}
	case "import":
		if err := runImport(db.NodeRepo(), file); err != nil {
			fatalf("nodectl: import: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func runExport(nodes *store.NodeRepo, file string) error {
	all, err := nodes.List()
	if err != nil {
		return fmt.Errorf("list nodes: %w", err)
	}

	data, err := importexport.Export(all)
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}

	if err := os.WriteFile(file, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", file, err)
	}
	fmt.Printf("exported %d node(s) to %s\n", len(all), file)
	return nil
}

func runImport(nodes *store.NodeRepo, file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("read %s: %w", file, err)
	}

	ids, err := importexport.Import(nodes, data)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	fmt.Printf("imported %d node(s): %v\n", len(ids), ids)
	return nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
