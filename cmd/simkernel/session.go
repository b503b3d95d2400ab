package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/comalice/simkernel"
	"github.com/comalice/simkernel/internal/core"
	"github.com/comalice/simkernel/internal/logging"
	"github.com/comalice/simkernel/internal/primitives"
	"github.com/comalice/simkernel/internal/production"
)

// session is one elaborated model with its sinks.
type session struct {
	*simkernel.Simulation
	reports *logging.ReportLog
}

type sessionConfig struct {
	logger     *slog.Logger
	traceDB    string
	reportsDir string
}

func newSession(ctx context.Context, cfg primitives.ModelConfig, sc sessionConfig) (*session, error) {
	s := &session{}
	opts := []core.Option{core.WithLogger(sc.logger)}

	var pubs production.MultiPublisher
	if sc.traceDB != "" {
		store, err := production.NewSQLiteTraceStore(ctx, sc.traceDB)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, store)
	}
	if len(pubs) > 0 {
		opts = append(opts, core.WithPublisher(pubs))
	}

	if sc.reportsDir != "" {
		rl, err := logging.NewReportLog(sc.reportsDir)
		if err != nil {
			return nil, errors.Join(err, pubs.Close())
		}
		s.reports = rl
		opts = append(opts, core.WithReportHandler(rl.Handle))
	}

	sim, err := simkernel.NewSimulation(cfg, nil, opts...)
	if err != nil {
		return nil, errors.Join(err, s.reports.Close())
	}
	s.Simulation = sim
	return s, nil
}

// Close unwinds suspended threads and closes the context and sinks.
func (s *session) Close() error {
	return errors.Join(s.Simulation.Close(), s.reports.Close())
}
