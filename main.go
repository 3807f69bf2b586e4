package main

import (
	"fmt"
	"os"

	"github.com/booklogapp/booklog/internal/config"
	"github.com/booklogapp/booklog/internal/entrypoint"
	"github.com/booklogapp/booklog/internal/tasks"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	switch os.Args[1] {
	case "refresh-catalog":
		if err := enqueueCatalogRefresh(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Catalog refresh enqueued; a running server will pick it up.")

	case "-h", "--help", "help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// enqueueCatalogRefresh drops a refresh-all task onto the shared queue
// without starting any workers.
func enqueueCatalogRefresh() error {
	cfg := config.NewConfig()
	client, err := tasks.NewClient(cfg.Database.Path, tasks.DefaultConfig())
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.Add(tasks.RefreshAllBooksTask{}).Save()
	return err
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve            Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  refresh-catalog  Enqueue a metadata refresh for every stored book\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
