// Package poller drives repeated scans at a fixed interval.
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jamesainslie/deltafy/pkg/deltafy/logging"
	"github.com/jamesainslie/deltafy/pkg/deltafy/types"
)

// DefaultInterval is the pause between scans when Options.Interval is zero.
const DefaultInterval = time.Second

// Scanner is the part of *scanner.Scanner the poller needs.
type Scanner interface {
	Scan(ctx context.Context) (*types.DeltaList, error)
	Stats() types.ScanStats
	Root() string
}

// Epoch is the outcome of one scan.
type Epoch struct {
	// Seq numbers epochs from 0, the baseline scan.
	Seq    int
	Deltas *types.DeltaList
	Stats  types.ScanStats
}

// Options configures a Poller.
type Options struct {
	// Interval is the pause between the end of one tick and the next.
	Interval time.Duration

	// ReportInitial passes the baseline scan to OnDeltas. Without it the
	// baseline only records the current state.
	ReportInitial bool

	// OnDeltas receives every non-empty epoch. Returning an error stops Run.
	OnDeltas func(Epoch) error

	// OnError decides what a failed scan does. Nil, or returning a non-nil
	// error, stops Run; returning nil retries on the next tick.
	OnError func(error) error
}

// Poller scans on a ticker until its context ends.
type Poller struct {
	scanner Scanner
	opts    Options
	seq     int
	log     *logging.Logger
}

// New returns a Poller for s.
func New(s Scanner, opts Options) (*Poller, error) {
	if s == nil {
		return nil, errors.New("poller needs a scanner")
	}
	if opts.Interval < 0 {
		return nil, fmt.Errorf("poll interval must not be negative, got %s", opts.Interval)
	}
	if opts.Interval == 0 {
		opts.Interval = DefaultInterval
	}
	return &Poller{scanner: s, opts: opts, log: logging.Get("poller")}, nil
}

// Run performs the baseline scan, then one scan per interval. It returns nil
// when ctx is cancelled and the first fatal error otherwise.
func (p *Poller) Run(ctx context.Context) error {
	p.log.Info("watching", "root", p.scanner.Root(), "interval", p.opts.Interval)

	if err := p.tick(ctx, p.opts.ReportInitial); err != nil {
		return p.finish(ctx, err)
	}

	ticker := time.NewTicker(p.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return p.finish(ctx, nil)
		case <-ticker.C:
			if err := p.tick(ctx, true); err != nil {
				return p.finish(ctx, err)
			}
		}
	}
}

// Epochs returns how many scans have completed.
func (p *Poller) Epochs() int {
	return p.seq
}

func (p *Poller) tick(ctx context.Context, report bool) error {
	deltas, err := p.scanner.Scan(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		if p.opts.OnError == nil {
			return fmt.Errorf("scan %d: %w", p.seq, err)
		}
		if handled := p.opts.OnError(err); handled != nil {
			return handled
		}
		p.log.Warn("scan failed, retrying next tick", "epoch", p.seq, "error", err)
		return nil
	}

	epoch := Epoch{Seq: p.seq, Deltas: deltas, Stats: p.scanner.Stats()}
	p.seq++

	if deltas.Len() > 0 {
		p.log.Debug("changes detected", "epoch", epoch.Seq, "deltas", deltas.Len())
	}
	if !report || deltas.Len() == 0 || p.opts.OnDeltas == nil {
		return nil
	}
	return p.opts.OnDeltas(epoch)
}

// finish turns an interrupted run into a clean stop.
func (p *Poller) finish(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		p.log.Info("stopped", "root", p.scanner.Root(), "epochs", p.seq)
		return nil
	}
	if err != nil {
		p.log.Error("stopped on error", "root", p.scanner.Root(), "error", err)
	}
	return err
}
