package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/scopedtrace/internal/logutil"
)

var release string

func main() {
	config, err := loadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error setting up configuration")
	}

	logutil.ConfigureLogger(config.LogLevel)

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              config.SentryDSN,
		EnableTracing:    true,
		Environment:      config.Environment,
		Release:          release,
		TracesSampleRate: config.TracesSampleRate,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("can't initialize sentry")
	}
	defer sentry.Flush(5 * time.Second)

	ctx := context.Background()
	workload := Workload{Workers: config.Workers, Items: config.Items}

	switch {
	case config.Remote != "":
		err = printRemote(config, workload, os.Stdout)
	case config.Port == "":
		err = printLocal(ctx, config, workload, os.Stdout)
	default:
		serve(config)
		return
	}
	if err != nil {
		sentry.CaptureException(err)
		sentry.Flush(5 * time.Second)
		log.Fatal().Err(err).Msg("can't print trace")
	}
}

// printLocal collects a trace in process and writes it to w.
func printLocal(ctx context.Context, config ServiceConfig, workload Workload, w io.Writer) error {
	trace, err := collect(ctx, workload, config.MaxFrames, log.Logger)
	if err != nil {
		return err
	}
	b, _, err := encodeTrace(trace, config.Format)
	if err != nil {
		return err
	}
	if _, err := w.Write(append(b, '\n')); err != nil {
		return err
	}
	if config.SentryDSN != "" {
		sentry.CaptureEvent(trace.SentryEvent())
	}
	return nil
}

// printRemote has the debug server at config.Remote collect a trace and
// writes it to w.
func printRemote(config ServiceConfig, workload Workload, w io.Writer) error {
	c := newClient(config.Remote, 3)
	if err := c.WaitReady(); err != nil {
		return err
	}
	summary, err := c.Collect(workload)
	if err != nil {
		return err
	}
	log.Debug().
		Str("trace_id", summary.ID).
		Int("captures", summary.Captures).
		Int("nodes", summary.Nodes).
		Msg("trace collected remotely")
	b, err := c.Fetch(summary.ID, config.Format)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

func serve(config ServiceConfig) {
	env := newEnvironment(config)
	router, err := env.newRouter()
	if err != nil {
		sentry.CaptureException(err)
		log.Fatal().Err(err).Msg("error setting up the router")
	}

	server := http.Server{
		Addr:    ":" + config.Port,
		Handler: sentryhttp.New(sentryhttp.Options{}).Handle(router),
	}

	waitForShutdown := make(chan struct{})
	go func() {
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c

		cctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(cctx); err != nil {
			sentry.CaptureException(err)
			log.Err(err).Msg("error shutting down server")
		}

		close(waitForShutdown)
	}()

	log.Info().Str("port", config.Port).Msg("serving scoped traces")
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		sentry.CaptureException(err)
		log.Err(err).Msg("server failed")
		return
	}

	<-waitForShutdown
}
