// Package service runs normalization requests and reports them as events.
package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Isabellarossi/edgedb/broker"
	"github.com/Isabellarossi/edgedb/detect"
	"github.com/Isabellarossi/edgedb/normalize"
	"github.com/Isabellarossi/edgedb/query"
)

// Recorder persists per-key statistics. *stats.Recorder implements it.
type Recorder interface {
	Record(ctx context.Context, e *normalize.Entry) error
}

// Config tunes a Service.
type Config struct {
	// HotThreshold is the number of normalizations of one key inside
	// HotWindow that marks it hot. Zero disables detection.
	HotThreshold int
	HotWindow    time.Duration
	HotCooldown  time.Duration
	// Buffer is the per-watcher event buffer.
	Buffer int
}

// DefaultConfig returns the settings used by edgeql-normd.
func DefaultConfig() Config {
	return Config{
		HotThreshold: 50,
		HotWindow:    time.Second,
		HotCooldown:  30 * time.Second,
		Buffer:       256,
	}
}

// Service normalizes queries, tracks hot keys and publishes an Event for
// every call. It is safe for concurrent use.
type Service struct {
	detector *detect.Detector
	recorder Recorder
	events   *broker.Broker[Event]
	window   time.Duration
	now      func() time.Time
}

// New creates a Service. rec may be nil to disable statistics.
func New(cfg Config, rec Recorder) *Service {
	return &Service{
		detector: detect.New(cfg.HotThreshold, cfg.HotWindow, cfg.HotCooldown),
		recorder: rec,
		events:   broker.New[Event](cfg.Buffer),
		window:   cfg.HotWindow,
		now:      time.Now,
	}
}

// Normalize normalizes text and publishes the resulting Event. The entry is
// nil when err is non-nil; the event is always populated.
func (s *Service) Normalize(ctx context.Context, text string) (*normalize.Entry, Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, Event{}, fmt.Errorf("service: normalize: %w", err)
	}

	start := s.now()
	entry, err := normalize.Normalize(text)
	ev := Event{
		ID:        uuid.NewString(),
		Query:     text,
		FirstArg:  -1,
		StartTime: start,
		Duration:  s.now().Sub(start),
	}

	if err != nil {
		ev.Outcome = OutcomeError
		ev.Error = err.Error()
		var nerr *normalize.Error
		if errors.As(err, &nerr) {
			ev.ErrorKind = nerr.Kind.String()
			if nerr.Kind == normalize.KindAssertion {
				log.Printf("assertion failure normalizing %q: %v", text, err)
			}
		}
		s.events.Publish(ev)
		return nil, ev, err
	}

	fill(&ev, entry)

	res := s.detector.Record(entry.Key, start)
	ev.Hot = res.Hot
	if res.Alert != nil {
		log.Printf("hot key (%d in %s): %s", res.Alert.Count, s.window, res.Alert.Key)
	}

	if s.recorder != nil {
		if err := s.recorder.Record(ctx, entry); err != nil {
			log.Printf("record stats: %v", err)
		}
	}

	s.events.Publish(ev)
	return entry, ev, nil
}

func fill(ev *Event, e *normalize.Entry) {
	ev.Key = e.Key
	ev.Fingerprint = e.Fingerprint()
	ev.NamedArgs = e.NamedArgs
	if e.FirstArg != nil {
		ev.FirstArg = *e.FirstArg
	}
	if e.Skipped != normalize.SkipNone {
		ev.Skipped = e.Skipped.String()
	}

	if !e.Extracted() {
		ev.Outcome = OutcomeFallback
		return
	}
	ev.Outcome = OutcomeExtracted
	ev.Variables = make([]string, len(e.Variables))
	ev.Types = make([]string, len(e.Variables))
	for i, v := range e.Variables {
		ev.Variables[i] = query.Literal(v.Value)
		ev.Types[i] = v.Value.TypeName()
	}
}

// Subscribe streams future events. Call the returned function to stop.
func (s *Service) Subscribe() (<-chan Event, func()) {
	return s.events.Subscribe()
}

// Run sweeps idle keys from the hot-key detector until ctx is done.
func (s *Service) Run(ctx context.Context) {
	interval := s.window
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			s.detector.Sweep(t)
		}
	}
}

// Close ends all subscriptions.
func (s *Service) Close() {
	s.events.Close()
}
