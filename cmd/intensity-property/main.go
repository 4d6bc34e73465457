// Package main is the entry point for the circular-ROI intensity property worker.
package main

import (
	"context"
	"log"
	"os"

	"github.com/boucaud/sample-intensity-worker/internal/cli"
	"github.com/boucaud/sample-intensity-worker/internal/params"
	"github.com/boucaud/sample-intensity-worker/internal/worker"
)

func main() {
	opts, err := cli.ParseFlags("intensity-property", os.Args[1:])
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
	p, err := params.ParseIntensity(env.Params)
	if err != nil {
		return err
	}

	log.Printf("Intensity property worker on dataset %s (radius %g)", env.Options.DatasetID, env.Config.ROI.Radius)

	w := worker.NewIntensityWorker(worker.IntensityConfig{
		DatasetID:   env.Options.DatasetID,
		Annotations: env.Client,
		Tiles:       env.Client.Dataset(env.Options.DatasetID),
		Radius:      env.Config.ROI.Radius,
		InsideValue: env.Config.ROI.InsideValue,
	})
	report, err := w.Run(ctx, p)
	if err != nil {
		return err
	}

	log.Printf("Done: %d values of %q", len(report.Values), report.PropertyName)
	return nil
}
