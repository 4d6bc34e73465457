// Package main is the entry point for the spot annotation worker.
package main

import (
	"context"
	"log"
	"os"

	"github.com/boucaud/sample-intensity-worker/internal/cli"
	"github.com/boucaud/sample-intensity-worker/internal/detect"
	"github.com/boucaud/sample-intensity-worker/internal/params"
	"github.com/boucaud/sample-intensity-worker/internal/render"
	"github.com/boucaud/sample-intensity-worker/internal/worker"
)

func main() {
	opts, err := cli.ParseFlags("spot-annotation", os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse arguments: %v", err)
	}

	env, err := cli.Setup(opts)
	if err != nil {
		log.Fatalf("Failed to initialize worker: %v", err)
	}

	ctx, stop := cli.SignalContext()
	code := cli.ExitCode(run(ctx, env))
	stop()
	env.Close()
	os.Exit(code)
}

func run(ctx context.Context, env *cli.Env) error {
	p, err := params.ParseSpots(env.Params)
	if err != nil {
		return err
	}

	spots := env.Config.Spots
	log.Printf("Spot annotation worker on dataset %s: request=%s, filters=%s", env.Options.DatasetID, p.Request, detect.Backend)

	w := worker.NewSpotsWorker(worker.SpotsConfig{
		DatasetID:         env.Options.DatasetID,
		Annotations:       env.Client,
		Tiles:             env.Client.Dataset(env.Options.DatasetID),
		UI:                env.Client,
		Renderer:          render.NewRenderer(render.Config{PointRadius: env.Config.Render.PointRadius}),
		Sigma:             spots.Sigma,
		MinDistance:       spots.MinDistance,
		ResponseThreshold: spots.ResponseThreshold,
		MaxUploads:        spots.MaxUploads,
	})
	report, err := w.Run(ctx, p)
	if err != nil {
		return err
	}

	if report.Request == params.RequestCompute {
		log.Printf("Done: %d spots detected, %d uploaded", report.Detected, report.Created)
	}
	return nil
}
