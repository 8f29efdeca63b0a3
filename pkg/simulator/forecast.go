package simulator

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/decision"
)

// DefaultForecastHorizon bounds how far into simulated time a forecast
// projects.
const DefaultForecastHorizon = 8 * time.Hour

// ForecastSegment is one contiguous span of an agent's projected
// timeline.
type ForecastSegment struct {
	AgentID string    `json:"agent_id"`
	Agent   string    `json:"agent"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Kind    string    `json:"kind"` // login, logout, setup, working
	QueueID string    `json:"queue_id,omitempty"`
}

// ForecastResult is the published outcome of one completed forecast.
type ForecastResult struct {
	StartedAt time.Time         `json:"started_at"` // simulated time at launch
	Horizon   time.Duration     `json:"horizon"`
	Segments  []ForecastSegment `json:"segments"`
}

// ForecastRunner owns the asynchronous forecast lifecycle. At most one
// forecast runs at a time; requesting a new one cancels the previous.
// The cloning happens on the caller's goroutine (the live tick thread),
// so the background worker only ever touches its private copy. The
// latest result is a single-writer atomic reference; the live loop
// never reads or writes it.
type ForecastRunner struct {
	horizon time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc

	latest atomic.Pointer[ForecastResult]
}

// NewForecastRunner creates a runner with the given horizon.
func NewForecastRunner(horizon time.Duration) *ForecastRunner {
	if horizon <= 0 {
		horizon = DefaultForecastHorizon
	}
	return &ForecastRunner{horizon: horizon}
}

// Latest returns the most recently published result, or nil.
func (fr *ForecastRunner) Latest() *ForecastResult {
	return fr.latest.Load()
}

// Cancel stops any in-flight forecast without publishing.
func (fr *ForecastRunner) Cancel() {
	fr.mu.Lock()
	defer fr.mu.Unlock()
	if fr.cancel != nil {
		fr.cancel()
		fr.cancel = nil
	}
}

// Start clones the live simulator on the calling goroutine, cancels any
// forecast in flight and projects the clone forward on a background
// goroutine. engine becomes the clone's independent decision engine.
func (fr *ForecastRunner) Start(live *Simulator, engine *decision.Engine) {
	clone := live.Clone(engine)
	start := clone.Clock().Now()
	deadline := start.Add(fr.horizon)

	fr.mu.Lock()
	if fr.cancel != nil {
		fr.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	fr.cancel = cancel
	fr.mu.Unlock()

	go fr.run(ctx, clone, start, deadline)
}

// run drives the cloned tick loop until the horizon elapses, everything
// drains, or the context is cancelled. Any failure inside the forecast
// is swallowed and the previously published result retained.
func (fr *ForecastRunner) run(ctx context.Context, clone *Simulator, start, deadline time.Time) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("forecast: recovered from panic: %v", r)
		}
	}()

	builder := newSegmentBuilder(clone.State(), start)
	for clone.Clock().Now().Before(deadline) && !clone.Finished() {
		select {
		case <-ctx.Done():
			return
		default:
		}
		if err := clone.Tick(); err != nil {
			log.Printf("forecast: tick failed, keeping previous result: %v", err)
			return
		}
		builder.observe(clone.State(), clone.Clock().Now())
	}

	result := &ForecastResult{
		StartedAt: start,
		Horizon:   fr.horizon,
		Segments:  builder.finish(clone.Clock().Now()),
	}
	select {
	case <-ctx.Done():
		// Cancelled while finishing; a newer forecast owns the slot.
	default:
		fr.latest.Store(result)
	}
}

// segmentBuilder diffs successive states into per-agent timeline
// segments. Idle and logged-out spans produce no segment.
type segmentBuilder struct {
	open     map[string]*ForecastSegment
	segments []ForecastSegment
}

func newSegmentBuilder(s *State, start time.Time) *segmentBuilder {
	b := &segmentBuilder{open: make(map[string]*ForecastSegment)}
	b.observe(s, start)
	return b
}

func segmentKind(p AgentPhase) string {
	switch p {
	case PhaseLoggingIn:
		return "login"
	case PhaseLoggingOut:
		return "logout"
	case PhaseSettingUp:
		return "setup"
	case PhaseWorking:
		return "working"
	default:
		return ""
	}
}

func (b *segmentBuilder) observe(s *State, now time.Time) {
	for _, a := range s.Agents {
		kind := segmentKind(a.Phase)
		open := b.open[a.ID]
		if open != nil && open.Kind == kind && open.QueueID == queueFor(a, kind) {
			continue
		}
		if open != nil {
			open.End = now
			b.segments = append(b.segments, *open)
			delete(b.open, a.ID)
		}
		if kind != "" {
			b.open[a.ID] = &ForecastSegment{
				AgentID: a.ID,
				Agent:   a.Name,
				Start:   now,
				Kind:    kind,
				QueueID: queueFor(a, kind),
			}
		}
	}
}

func queueFor(a *Agent, kind string) string {
	if kind == "setup" || kind == "working" {
		return a.CurrentQueueID
	}
	return ""
}

func (b *segmentBuilder) finish(now time.Time) []ForecastSegment {
	for _, open := range b.open {
		open.End = now
		b.segments = append(b.segments, *open)
	}
	return b.segments
}
