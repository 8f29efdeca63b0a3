package simulator

import (
	"errors"
	"fmt"
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/decision"
	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
)

// ErrEventOrdering reports an event batch that would apply before an
// already-applied one. Simulated time is monotone; hitting this is a
// programming bug and halts the run.
var ErrEventOrdering = errors.New("simulator: event batch out of order")

// DefaultStep is the clock advance per tick.
const DefaultStep = time.Second

// eventLogLimit caps the in-memory event log published with snapshots.
const eventLogLimit = 200

// WaveTask describes one task arriving with a scheduled wave.
type WaveTask struct {
	ID       string
	QueueID  string
	Priority int
}

// TaskWave is a scheduled batch of task arrivals: at At, every task is
// appended to its queue's pending list.
type TaskWave struct {
	At    time.Time
	Tasks []WaveTask
}

// Simulator is the single-threaded discrete-event loop. Each tick
// advances the clock one step, applies scheduled task waves, drains
// every event batch due by now (batches apply atomically, in timestamp
// order), then lets the worker observe. All mutation happens on the
// goroutine calling Tick.
type Simulator struct {
	clock  *Clock
	events *EventQueue
	state  *State
	worker *Worker

	waves      []TaskWave
	waveCursor int

	step        time.Duration
	start       time.Time
	end         time.Time
	lastApplied time.Time

	eventLog    []string
	totalLogged int
	err         error
}

// New assembles a simulator over an initial state, scheduled waves and
// a [start, end] window. Waves must be ordered by time.
func New(state *State, worker *Worker, waves []TaskWave, start, end time.Time, step time.Duration) *Simulator {
	if step <= 0 {
		step = DefaultStep
	}
	return &Simulator{
		clock:  NewClock(start),
		events: NewEventQueue(),
		state:  state,
		worker: worker,
		waves:  waves,
		step:   step,
		start:  start,
		end:    end,
	}
}

// Clock exposes the simulated clock (read-only use by callers).
func (sim *Simulator) Clock() *Clock { return sim.clock }

// State exposes the live state. Callers on other goroutines must not
// touch it; forecasts take a Clone instead.
func (sim *Simulator) State() *State { return sim.state }

// Events exposes the event queue for inspection in tests.
func (sim *Simulator) Events() *EventQueue { return sim.events }

// Err returns the error that halted the run, if any.
func (sim *Simulator) Err() error { return sim.err }

// Tick runs one iteration of the loop. A returned error means the tick
// failed and the run must halt; the error is retained and surfaced in
// subsequent snapshots.
func (sim *Simulator) Tick() error {
	if sim.err != nil {
		return sim.err
	}
	sim.clock.Advance(sim.step)
	now := sim.clock.Now()

	sim.applyWaves(now)

	for {
		next, ok := sim.events.NextTimestamp()
		if !ok || next.After(now) {
			break
		}
		batch, err := sim.events.PopBatch()
		if err != nil {
			return sim.fail(err)
		}
		if next.Before(sim.lastApplied) {
			return sim.fail(fmt.Errorf("%w: batch at %s after %s",
				ErrEventOrdering, next.Format(time.RFC3339), sim.lastApplied.Format(time.RFC3339)))
		}
		for _, event := range batch {
			if err := event.Apply(sim.state, sim.events); err != nil {
				return sim.fail(fmt.Errorf("apply event at %s: %w", next.Format(time.RFC3339), err))
			}
			sim.logEvent(next, event.String())
		}
		sim.lastApplied = next
	}

	sim.worker.Observe(sim.state, sim.events, now)
	return nil
}

func (sim *Simulator) fail(err error) error {
	sim.err = err
	sim.logEvent(sim.clock.Now(), "simulation halted: "+err.Error())
	return err
}

func (sim *Simulator) applyWaves(now time.Time) {
	for sim.waveCursor < len(sim.waves) && !sim.waves[sim.waveCursor].At.After(now) {
		wave := sim.waves[sim.waveCursor]
		for _, wt := range wave.Tasks {
			queue, err := sim.state.Queue(wt.QueueID)
			if err != nil {
				sim.logEvent(now, "dropped wave task "+wt.ID+": "+err.Error())
				continue
			}
			models.NewTask(wt.ID, queue, wave.At, wt.Priority)
		}
		sim.logEvent(now, fmt.Sprintf("task wave released (%d tasks)", len(wave.Tasks)))
		sim.waveCursor++
	}
}

func (sim *Simulator) logEvent(at time.Time, line string) {
	sim.eventLog = append(sim.eventLog, at.Format("15:04:05")+" "+line)
	sim.totalLogged++
	if len(sim.eventLog) > eventLogLimit {
		sim.eventLog = sim.eventLog[len(sim.eventLog)-eventLogLimit:]
	}
}

// EventLogSince returns the log lines recorded after the first n, as
// far as the retained window reaches, together with the new total.
func (sim *Simulator) EventLogSince(n int) ([]string, int) {
	skip := n - (sim.totalLogged - len(sim.eventLog))
	if skip < 0 {
		skip = 0
	}
	if skip > len(sim.eventLog) {
		skip = len(sim.eventLog)
	}
	return append([]string(nil), sim.eventLog[skip:]...), sim.totalLogged
}

// WavesRemaining reports whether scheduled task waves are still due.
func (sim *Simulator) WavesRemaining() bool {
	return sim.waveCursor < len(sim.waves)
}

// Finished reports live-mode termination: the run halted on an error,
// the window elapsed, or there is nothing left to do anywhere (no
// pending events, no scheduled waves, every queue drained).
func (sim *Simulator) Finished() bool {
	if sim.err != nil {
		return true
	}
	if !sim.end.IsZero() && !sim.clock.Now().Before(sim.end) {
		return true
	}
	if _, pending := sim.events.NextTimestamp(); pending {
		return false
	}
	return !sim.WavesRemaining() && sim.state.Drained()
}

// Clone deep-copies the whole simulator (state, clock, event queue,
// wave cursor, worker trigger state) so a forecast can run the same
// loop without perturbing the live timeline. The clone gets its own
// decision engine via engine.
func (sim *Simulator) Clone(engine *decision.Engine) *Simulator {
	return &Simulator{
		clock:       sim.clock.Clone(),
		events:      sim.events.Clone(),
		state:       sim.state.Clone(),
		worker:      sim.worker.Clone(engine),
		waves:       sim.waves,
		waveCursor:  sim.waveCursor,
		step:        sim.step,
		start:       sim.start,
		end:         sim.end,
		lastApplied: sim.lastApplied,
		eventLog:    append([]string(nil), sim.eventLog...),
		totalLogged: sim.totalLogged,
	}
}
