// Package main imports compendium content files into the content database.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	entrypoint "github.com/louisbranch/duality-sheet/internal/platform/cmd"
	compendiumimporter "github.com/louisbranch/duality-sheet/internal/tools/importer/content/compendium"
)

func main() {
	log.SetFlags(0)
	cfg, err := compendiumimporter.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	err = entrypoint.RunWithTelemetry(context.Background(), entrypoint.ServiceImporter, func(ctx context.Context) error {
		return compendiumimporter.Run(ctx, cfg, os.Stdout)
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}
