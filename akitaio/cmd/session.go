package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/browser"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sarchlab/akitaio/config"
	"github.com/sarchlab/akitaio/simulation"
)

func init() {
	message.SetString(language.AmericanEnglish, "summary.header",
		"Simulation %s stopped at %.3f s after %d events")
	message.SetString(language.AmericanEnglish, "summary.port",
		"%-16s received %d, drained %d, emitted %d (%d late), "+
			"transmitted %d, send failures %d, dropped %d, medium errors %d\n")
}

// runConfig builds a simulation from a resolved configuration, runs it until
// its duration is reached or the process is interrupted and prints a
// summary.
func runConfig(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if cfg.Duration == 0 && cfg.Realtime == 0 {
		slog.Warn("running without duration and without pacing, " +
			"interrupt to stop")
	}

	b := simulation.MakeBuilder().
		WithRealtime(cfg.Realtime).
		WithDuration(cfg.Duration).
		WithNote(fmt.Sprintf("%d port(s)", cfg.NumPorts()))

	if rootOpts.logEvents {
		b = b.WithEventLogging(slog.Default().With("component", "engine"))
	}

	if rootOpts.monitor || rootOpts.openBrowser {
		b = b.WithMonitoring(rootOpts.monitorPort)
	}

	if rootOpts.trace || rootOpts.traceDB != "" {
		b = b.WithTracing(rootOpts.traceDB)
	}

	s := b.Build()
	defer func() {
		if err := s.Terminate(); err != nil {
			slog.Warn("cannot terminate simulation", "err", err)
		}
	}()

	if err := s.AddPorts(cfg, slog.Default()); err != nil {
		return err
	}

	if rootOpts.openBrowser && s.MonitorURL() != "" {
		if err := browser.OpenURL(s.MonitorURL()); err != nil {
			slog.Warn("cannot open browser", "err", err)
		}
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err := runInterruptible(ctx, s)

	slog.Debug("simulation finished", "wall", time.Since(start))
	printSummary(out, newPrinter(rootOpts.lang), s)

	return err
}

// runInterruptible runs the simulation and interrupts it when ctx is done
// before the run finishes.
func runInterruptible(ctx context.Context, s *simulation.Simulation) error {
	done := make(chan struct{})
	interrupted := make(chan struct{})

	go func() {
		defer close(interrupted)

		select {
		case <-ctx.Done():
			s.Interrupt()
		case <-done:
		}
	}()

	defer func() {
		close(done)
		<-interrupted
	}()

	return s.Run()
}

func newPrinter(lang string) *message.Printer {
	tag, err := language.Parse(lang)
	if err != nil {
		slog.Warn("unknown language, using en-US", "lang", lang)
		tag = language.AmericanEnglish
	}

	return message.NewPrinter(tag)
}

func printSummary(out io.Writer, p *message.Printer, s *simulation.Simulation) {
	engine := s.GetEngine()

	var events uint64
	if c, ok := engine.(interface{ EventsHandled() uint64 }); ok {
		events = c.EventsHandled()
	}

	p.Fprintf(out, "summary.header", s.ID(), float64(engine.CurrentTime()), events)
	fmt.Fprintln(out)

	for _, port := range s.Summary() {
		st := port.Stats
		p.Fprintf(out, "summary.port", port.Name,
			st.Received,
			port.Counters.Drained,
			port.Counters.Emitted,
			port.Counters.Deferred,
			st.Transmitted,
			port.Counters.SendFailed,
			st.InboundDropped+st.OutboundDropped+st.Discarded,
			st.MediumErrors)
	}
}
