package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/CAFxX/httpcompression"
	"github.com/getsentry/sentry-go"
	jsoniter "github.com/json-iterator/go"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/getsentry/scopedtrace"
	"github.com/getsentry/scopedtrace/internal/errorutil"
	"github.com/getsentry/scopedtrace/internal/httputil"
)

type (
	environment struct {
		config ServiceConfig
		traces *traceStore
	}

	traceSummary struct {
		ID       string `json:"trace_id"`
		Captures int    `json:"captures"`
		Leaves   int    `json:"leaves"`
		Nodes    int    `json:"nodes"`
	}
)

func newEnvironment(c ServiceConfig) *environment {
	return &environment{
		config: c,
		traces: newTraceStore(c.StoredTraces),
	}
}

func summarize(t *scopedtrace.Trace) traceSummary {
	return traceSummary{
		ID:       t.ID(),
		Captures: t.Captures(),
		Leaves:   len(t.Leaves()),
		Nodes:    t.Len(),
	}
}

func (e *environment) newRouter() (*httprouter.Router, error) {
	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	routes := []struct {
		method  string
		path    string
		handler http.HandlerFunc
	}{
		{http.MethodGet, "/health", e.getHealth},
		{http.MethodGet, "/trace", e.getTrace},
		{http.MethodPost, "/traces", e.postTrace},
		{http.MethodGet, "/traces/:trace_id", e.getStoredTrace},
	}

	router := httprouter.New()

	for _, route := range routes {
		handlerFunc := httputil.DecompressPayload(route.handler)
		handler := compress(handlerFunc)

		router.Handler(route.method, route.path, handler)
	}

	return router, nil
}

func hubFromContext(ctx context.Context) *sentry.Hub {
	if hub := sentry.GetHubFromContext(ctx); hub != nil {
		return hub
	}
	return sentry.CurrentHub()
}

func (e *environment) getHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// getTrace collects a trace of a workload described by the query string and
// renders it right away.
func (e *environment) getTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := hubFromContext(ctx)

	p, logger, ok := httputil.GetQueryParameters(w, r, map[string]string{
		"format":  e.config.Format,
		"workers": strconv.Itoa(e.config.Workers),
		"items":   strconv.Itoa(e.config.Items),
	})
	if !ok {
		return
	}
	if err := checkFormat(p["format"]); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var workload Workload
	var err error
	workload.Workers, err = strconv.Atoi(p["workers"])
	if err != nil {
		http.Error(w, "workers should be an integer", http.StatusBadRequest)
		return
	}
	workload.Items, err = strconv.Atoi(p["items"])
	if err != nil {
		http.Error(w, "items should be an integer", http.StatusBadRequest)
		return
	}

	trace, err := collect(ctx, workload, e.config.MaxFrames, logger)
	if err != nil {
		if errors.Is(err, errInvalidWorkload) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	e.traces.Put(trace)

	e.writeTrace(ctx, w, trace, p["format"], logger)
}

// postTrace collects a trace of the JSON workload in the body and keeps it
// for later retrieval.
func (e *environment) postTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := hubFromContext(ctx)

	workload := Workload{
		Workers: e.config.Workers,
		Items:   e.config.Items,
	}
	if err := jsoniter.NewDecoder(r.Body).Decode(&workload); err != nil {
		http.Error(w, "invalid workload", http.StatusBadRequest)
		return
	}

	trace, err := collect(ctx, workload, e.config.MaxFrames, log.With().Str("route", "/traces").Logger())
	if err != nil {
		if errors.Is(err, errInvalidWorkload) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	e.traces.Put(trace)
	hub.Scope().SetTag("trace_id", trace.ID())

	b, err := jsoniter.Marshal(summarize(trace))
	if err != nil {
		hub.CaptureException(err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/traces/"+trace.ID())
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(b)
}

func (e *environment) getStoredTrace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	hub := hubFromContext(ctx)
	ps := httprouter.ParamsFromContext(ctx)
	traceID := ps.ByName("trace_id")

	hub.Scope().SetTag("trace_id", traceID)

	p, logger, ok := httputil.GetQueryParameters(w, r, map[string]string{
		"format": e.config.Format,
	})
	if !ok {
		return
	}

	trace, exists := e.traces.Get(traceID)
	if !exists {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	e.writeTrace(ctx, w, trace, p["format"], logger.With().Str("trace_id", traceID).Logger())
}

func (e *environment) writeTrace(ctx context.Context, w http.ResponseWriter, t *scopedtrace.Trace, format string, logger zerolog.Logger) {
	hub := hubFromContext(ctx)

	s := sentry.StartSpan(ctx, "trace.encode")
	s.Description = format
	b, contentType, err := encodeTrace(t, format)
	s.Finish()
	if err != nil {
		if errors.Is(err, errorutil.ErrUnknownFormat) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		hub.CaptureException(err)
		logger.Err(err).Msg("can't encode trace")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Trace-Id", t.ID())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
