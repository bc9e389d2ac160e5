// Command idxr manages the MongoDB indexes of the applicant API.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"time"

	"applicant-api-io/api/internal/indexer"
	"applicant-api-io/api/pkg/util"

	"go.mongodb.org/mongo-driver/bson"
)

func main() {
	var (
		action      = flag.String("action", "create", "Action: create, drop, list, stats")
		uri         = flag.String("uri", "", "MongoDB URI (defaults to env DATABASE_URL)")
		dbName      = flag.String("db", "", "Database name (defaults to env DB_NAME)")
		collection  = flag.String("collection", "", "Collection name (for list/stats)")
		timeout     = flag.Duration("timeout", 60*time.Second, "Operation timeout")
		continueErr = flag.Bool("continue-on-error", true, "Continue on error")
		skipExists  = flag.Bool("skip-if-exists", true, "Skip existing indexes")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
	)
	flag.Parse()

	mongoURI := firstNonEmpty(*uri, util.LoadEnvFor("DATABASE_URL"), "mongodb://localhost:27017")
	database := firstNonEmpty(*dbName, util.LoadEnvFor("DB_NAME"), "applicant")

	ctx := context.Background()
	client, err := util.ConnectDB(ctx, mongoURI)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB: ", err)
	}
	defer client.Disconnect(ctx)

	manager := indexer.NewManager(client.Database(database), &indexer.Options{
		Timeout:         *timeout,
		ContinueOnError: *continueErr,
		SkipIfExists:    *skipExists,
	}).LoadFromDefinitions(indexer.Definitions())

	out := printer{json: *jsonOutput}
	switch *action {
	case "create":
		result, err := manager.Create(ctx)
		out.create(database, result, err)
	case "drop":
		err := manager.Drop(ctx, flag.Args()...)
		if err != nil && !out.json {
			log.Fatal("Failed to drop indexes: ", err)
		}
		out.emit(map[string]any{"success": err == nil, "error": errorString(err)}, "Indexes dropped in "+database)
	case "list":
		if *collection == "" {
			log.Fatal("Collection name required for list action (-collection flag)")
		}
		indexes, err := manager.List(ctx, *collection)
		if err != nil {
			log.Fatal("Failed to list indexes: ", err)
		}
		out.list(*collection, indexes)
	case "stats":
		stats := map[string][]indexer.IndexStats{}
		if *collection == "" {
			stats, err = manager.StatsAll(ctx)
		} else {
			stats[*collection], err = manager.Stats(ctx, *collection)
		}
		if err != nil {
			log.Fatal("Failed to get stats: ", err)
		}
		out.stats(stats)
	default:
		fmt.Printf("Unknown action: %s\n", *action)
		fmt.Println("Available actions: create, drop, list, stats")
		os.Exit(1)
	}
}

type printer struct {
	json bool
}

// emit writes v as JSON, or text otherwise.
func (p printer) emit(v any, text string) {
	if p.json {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(v); err != nil {
			log.Fatal("Failed to encode JSON: ", err)
		}
		return
	}
	fmt.Println(text)
}

func (p printer) create(database string, result *indexer.Result, err error) {
	if p.json {
		p.emit(map[string]any{"success": err == nil, "result": result, "error": errorString(err)}, "")
		return
	}
	if err != nil {
		log.Printf("Index creation completed with errors: %v", err)
	}
	fmt.Printf("Indexes in %s\n  Success: %d\n  Failed: %d\n  Duration: %v\n", database, result.SuccessCount, result.FailedCount, result.Duration)
	for _, f := range result.Failures {
		fmt.Printf("  - %s.%s: %v\n", f.Collection, f.IndexName, f.Error)
	}
}

func (p printer) list(collection string, indexes []bson.M) {
	if p.json {
		p.emit(indexes, "")
		return
	}
	fmt.Printf("Indexes for collection %s:\n", collection)
	for _, idx := range indexes {
		fmt.Printf("  - %v keys=%v unique=%v\n", idx["name"], idx["key"], idx["unique"] == true)
	}
}

func (p printer) stats(stats map[string][]indexer.IndexStats) {
	if p.json {
		p.emit(stats, "")
		return
	}
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("\n=== %s ===\n", name)
		for _, s := range stats[name] {
			state := ""
			if s.Building {
				state = " (building)"
			}
			fmt.Printf("  %s: %d accesses since %v%s\n", s.Name, s.Accesses, s.Since, state)
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
