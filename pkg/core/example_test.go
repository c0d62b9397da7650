package core_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chartscout/chartscout/pkg/core"
)

// ExampleScan demonstrates an organization-wide audit.
func ExampleScan() {
	cfg := core.Config{
		Org:          "my-org",
		Threads:      4,
		FileWorkers:  4,
		SkipArchived: true,
		RawFallback:  true,
	}
	client := core.ClientConfig{
		Token:   os.Getenv("GITHUB_TOKEN"),
		Timeout: 30 * time.Second,
	}

	res, stats, err := core.Scan(context.Background(), cfg, client)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		return
	}

	fmt.Printf("Scanned %d repositories and %d files in %s\n", stats.Repositories, stats.FilesFetched, stats.Duration)
	if res.MatchCount() == 0 {
		fmt.Println("No references found.")
		return
	}
	_ = core.MarshalResult(os.Stdout, res)
}
