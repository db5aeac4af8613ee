package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hdrsift/hdrsift/internal/features"
	httpx "github.com/hdrsift/hdrsift/internal/http"
	"github.com/hdrsift/hdrsift/internal/iforest"
	"github.com/hdrsift/hdrsift/internal/metrics"
	"github.com/hdrsift/hdrsift/internal/result"
	"github.com/hdrsift/hdrsift/internal/sink"
	"github.com/hdrsift/hdrsift/pkg/config"
)

const usage = `usage: hdrsift <command> [flags]

commands:
  predict         score header sets from a JSON file
  train           train a single isolation forest
  train-ensemble  train the four-member ensemble
  eval            evaluate a model against labeled data
  gen             generate a labeled synthetic dataset
  serve           run the analysis HTTP server

run 'hdrsift <command> -h' for command flags
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "predict":
		err = cmdPredict(os.Args[2:])
	case "train":
		err = cmdTrain(os.Args[2:])
	case "train-ensemble":
		err = cmdTrainEnsemble(os.Args[2:])
	case "eval":
		err = cmdEval(os.Args[2:])
	case "gen":
		err = cmdGen(os.Args[2:])
	case "serve":
		err = cmdServe(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("hdrsift %s: %v", os.Args[1], err)
	}
}

// buildSinks starts the outputs named in the config.
func buildSinks(ctx context.Context, cfg config.Config) ([]sink.Sink, error) {
	var sinks []sink.Sink
	for _, name := range cfg.Outputs {
		var s sink.Sink
		switch name {
		case "log":
			s = sink.NewLogSink()
		case "kafka":
			s = sink.NewKafkaSinkFromEnv()
		case "postgres":
			s = sink.NewPGSink(os.Getenv("PG_DSN"))
		default:
			return nil, fmt.Errorf("unknown output %q", name)
		}
		if err := s.Start(ctx); err != nil {
			return nil, fmt.Errorf("start %s sink: %w", s.Name(), err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

func cmdServe(args []string) error {
	cfg := config.Load()

	bundle, err := iforest.Load(cfg.ModelPath)
	if err != nil {
		return err
	}
	if v := bundle.FeatureVersion(); v != features.Version {
		return fmt.Errorf("model was trained with feature layout v%d, this build expects v%d", v, features.Version)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sinks, err := buildSinks(ctx, cfg)
	if err != nil {
		return err
	}

	m := metrics.GetMetrics()
	metricsSrv := metrics.NewServer(metrics.LoadConfig())
	if err := metricsSrv.Start(ctx); err != nil {
		return err
	}

	env := httpx.Env{
		Cfg:     cfg,
		Bundle:  bundle,
		Metrics: m,
		Emit: func(r result.Result) {
			for _, s := range sinks {
				if err := s.Enqueue(r); err != nil {
					log.Printf("sink %s: %v", s.Name(), err)
					m.IncrementSinkErrors(s.Name(), "enqueue")
				}
			}
		},
	}

	srv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: httpx.NewMux(env),
	}

	go func() {
		log.Printf("hdrsift listening on %s (model=%s type=%s)", cfg.ServerAddr, cfg.ModelPath, bundle.Type)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = srv.Shutdown(shutdownCtx)
	_ = metricsSrv.Shutdown(shutdownCtx)
	for _, s := range sinks {
		if err := s.Close(); err != nil {
			log.Printf("close %s sink: %v", s.Name(), err)
		}
	}
	return nil
}
