// Package cli holds the command-line plumbing shared by the worker entry points.
package cli

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/boucaud/sample-intensity-worker/internal/client"
	"github.com/boucaud/sample-intensity-worker/internal/config"
	"github.com/boucaud/sample-intensity-worker/internal/logging"
	"github.com/boucaud/sample-intensity-worker/internal/params"
)

// Options are the arguments the platform passes to every worker.
type Options struct {
	DatasetID  string
	APIURL     string
	Token      string
	Parameters string
	ConfigPath string
}

// ParseFlags parses the worker command line from args.
func ParseFlags(name string, args []string) (*Options, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	opts := &Options{}
	fs.StringVar(&opts.DatasetID, "datasetId", "", "Dataset ID")
	fs.StringVar(&opts.APIURL, "apiUrl", "", "Platform API URL")
	fs.StringVar(&opts.Token, "token", "", "Platform API token")
	fs.StringVar(&opts.Parameters, "parameters", "", "Worker parameters as JSON")
	fs.StringVar(&opts.ConfigPath, "config", "config/worker.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"datasetId", opts.DatasetID},
		{"apiUrl", opts.APIURL},
		{"token", opts.Token},
		{"parameters", opts.Parameters},
	} {
		if f.value == "" {
			missing = append(missing, "--"+f.name)
		}
	}
	if len(missing) > 0 {
		fs.Usage()
		return nil, &usageError{missing: missing}
	}
	return opts, nil
}

type usageError struct {
	missing []string
}

func (e *usageError) Error() string {
	msg := "missing required flags:"
	for _, m := range e.missing {
		msg += " " + m
	}
	return msg
}

// Env is everything a worker needs once the command line is parsed.
type Env struct {
	Options *Options
	Config  *config.Config
	Client  *client.Client
	Params  params.Blob
	logs    io.Closer
}

// Setup loads configuration, routes logging and builds the API client.
func Setup(opts *Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	logs := logging.Setup(cfg.Log)

	blob, err := params.Decode(opts.Parameters)
	if err != nil {
		logs.Close()
		return nil, err
	}

	c, err := client.New(client.Config{
		APIURL:    opts.APIURL,
		Token:     opts.Token,
		Timeout:   cfg.Client.Timeout(),
		UserAgent: cfg.Client.UserAgent,
	})
	if err != nil {
		logs.Close()
		return nil, err
	}

	return &Env{
		Options: opts,
		Config:  cfg,
		Client:  c,
		Params:  blob,
		logs:    logs,
	}, nil
}

// Close flushes the log file, if any.
func (e *Env) Close() error {
	return e.logs.Close()
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// ExitCode maps a worker result to a process exit code. Soft validation failures
// are logged and reported as success.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	if params.IsValidation(err) {
		log.Printf("Invalid worker parameters: %v", err)
		return 0
	}
	log.Printf("Worker failed: %v", err)
	return 1
}
