// Command cqe is a demo embedder driving the cross-partition query
// engine against local JSON/YAML fixtures instead of a live Cosmos DB
// gateway. It plays the role spec.md §1 leaves external: issuing the
// pipeline's DataRequests concurrently and feeding results back via
// ProvideData, exercising the full create()/run()/provide_data() loop
// end to end.
//
// Grounded on main.go's urfave/cli wiring idiom.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/Azure/cosmos-query-engine-go/pkg/pipeline"
	"github.com/Azure/cosmos-query-engine-go/pkg/queryplan"
	"github.com/Azure/cosmos-query-engine-go/pkg/tracing"
)

func main() {
	var configFile string

	app := &cli.App{
		Name:  "cqe",
		Usage: "drive the cross-partition query engine against local fixtures",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "YAML config naming the plan/pkranges/fixtures files to load",
				Destination: &configFile,
			},
		},
		Action: func(c *cli.Context) error {
			return run(configFile)
		},
	}

	if err := app.Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func run(configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if cfg.Debug {
		tracing.Enable()
	}

	runID := uuid.New()
	log := logrus.WithField("run", runID)

	planJSON, err := os.ReadFile(resolvePath(cfg.PlanFile))
	if err != nil {
		return fmt.Errorf("cqe: read plan file: %w", err)
	}
	pkrangesJSON, err := os.ReadFile(resolvePath(cfg.PKRangesFile))
	if err != nil {
		return fmt.Errorf("cqe: read pkranges file: %w", err)
	}
	fixtures, err := loadFixtures(resolvePath(cfg.FixturesFile))
	if err != nil {
		return fmt.Errorf("cqe: read fixtures file: %w", err)
	}

	p, err := pipeline.Create(cfg.Query, planJSON, pkrangesJSON, pipeline.Config{
		ItemBudget: cfg.ItemBudget,
		Features:   queryplan.FeatureSet{Hybrid: cfg.EnableHybrid},
	})
	if err != nil {
		return fmt.Errorf("cqe: create pipeline: %w", err)
	}
	defer p.Free()

	log.WithField("query", p.Query()).Info("cqe: pipeline created")

	emb := newEmbedder(fixtures, cfg.Concurrency)
	total, err := driveLoop(context.Background(), p, emb, func(payload []byte) {
		fmt.Println(string(payload))
	})
	if err != nil {
		return err
	}
	log.WithField("items", total).Info("cqe: pipeline completed")
	return nil
}

// driveLoop runs the create()/run()/provide_data() cycle to completion
// against f, handing each emitted item's payload to onItem as it comes.
// It depends on the Fetcher seam rather than *embedder directly so it
// can be exercised in tests against a hand-written mock.
func driveLoop(ctx context.Context, p *pipeline.Pipeline, f Fetcher, onItem func(payload []byte)) (int, error) {
	total := 0
	for {
		res, err := p.Run()
		if err != nil {
			return total, fmt.Errorf("cqe: run: %w", err)
		}

		for _, item := range res.Items {
			total++
			onItem(item.Payload)
		}

		if res.Completed {
			return total, nil
		}
		if len(res.Requests) == 0 {
			return total, fmt.Errorf("cqe: pipeline stalled: no items, no requests, not completed")
		}

		responses, err := f.FetchAll(ctx, res.Requests)
		if err != nil {
			return total, fmt.Errorf("cqe: fetch: %w", err)
		}
		if err := p.ProvideData(responses); err != nil {
			return total, fmt.Errorf("cqe: provide_data: %w", err)
		}
	}
}

// resolvePath resolves a relative fixture path against the XDG config
// home when it is not absolute and does not exist relative to the
// working directory, so a demo
// config can be installed alongside a user's other tool configs instead
// of requiring callers to run from a fixed directory.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return filepath.Join(xdg.ConfigHome, "cqe", p)
}
