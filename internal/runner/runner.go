// Package runner owns live simulation runs: the paced tick loop, the
// control surface (start, pause, resume, reset, speed), snapshot
// publishing and persistence.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TheRev45/IzziAutomationAIP/internal/database"
	"github.com/TheRev45/IzziAutomationAIP/internal/ingest"
	"github.com/TheRev45/IzziAutomationAIP/pkg/decision"
	"github.com/TheRev45/IzziAutomationAIP/pkg/simulator"
)

// Run statuses.
const (
	StatusRunning  = "running"
	StatusPaused   = "paused"
	StatusFinished = "finished"
	StatusFailed   = "failed"
)

// persistInterval is the minimum simulated time between persisted tick
// snapshots.
const persistInterval = time.Minute

// Publisher receives every published tick snapshot, e.g. a websocket
// hub. Implementations must not block.
type Publisher interface {
	Publish(runID string, snap simulator.Snapshot)
	PublishForecast(runID string, result *simulator.ForecastResult)
}

// Runner drives one simulation run. All simulator access goes through
// the runner's mutex; the tick goroutine is the only writer while it is
// alive.
type Runner struct {
	ID       string
	scenario *ingest.Scenario

	repo      *database.Repository // nil when running headless without a db
	publisher Publisher            // nil when nothing subscribes

	mu       sync.Mutex
	sim      *simulator.Simulator
	forecast *simulator.ForecastRunner
	speed    float64
	status   string
	cancel   context.CancelFunc
	loopDone chan struct{}

	lastPersisted   time.Time
	persistedPerQ   map[string]int
	persistedLogLen int
	forecastSaved   *simulator.ForecastResult
}

// New builds a runner from a scenario. The simulator is assembled
// immediately; the loop starts on Start.
func New(sc *ingest.Scenario, repo *database.Repository, publisher Publisher) (*Runner, error) {
	r := &Runner{
		ID:        uuid.New().String(),
		scenario:  sc,
		repo:      repo,
		publisher: publisher,
		speed:     sc.Config.SpeedMultiplier,
		status:    StatusPaused,
	}
	if err := r.build(); err != nil {
		return nil, err
	}
	if repo != nil {
		cfg, _ := json.Marshal(sc.Config)
		err := repo.CreateRun(&database.SimulationRun{
			ID:          r.ID,
			Name:        sc.Name,
			Status:      r.status,
			Config:      string(cfg),
			WindowStart: sc.Start,
			WindowEnd:   sc.End,
			SimTime:     sc.Start,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
	}
	return r, nil
}

// build assembles a fresh simulator from the scenario.
func (r *Runner) build() error {
	state, waves, err := r.scenario.Build()
	if err != nil {
		return err
	}
	cfg := r.scenario.Config
	engine := decision.NewEngine(cfg.DecisionHorizon(), cfg.Bias)
	worker := simulator.NewWorker(engine, cfg.DecisionInterval(), cfg.DecisionHorizon())
	r.sim = simulator.New(state, worker, waves, r.scenario.Start, r.scenario.End, cfg.Step())
	r.forecast = simulator.NewForecastRunner(cfg.ForecastHorizon())
	r.lastPersisted = time.Time{}
	r.persistedPerQ = make(map[string]int)
	r.persistedLogLen = 0
	return nil
}

// Start launches the tick loop. Starting a running runner is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.startLocked()
}

func (r *Runner) startLocked() {
	if r.status == StatusRunning || r.status == StatusFinished || r.status == StatusFailed {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.loopDone = make(chan struct{})
	r.status = StatusRunning
	r.updateRunRow()
	go r.loop(ctx, r.loopDone)
}

// Pause cancels the tick loop. The simulator keeps its state; Resume
// constructs a fresh cancellation source.
func (r *Runner) Pause() {
	r.mu.Lock()
	if r.status != StatusRunning {
		r.mu.Unlock()
		return
	}
	r.cancel()
	done := r.loopDone
	r.status = StatusPaused
	r.updateRunRow()
	r.mu.Unlock()
	<-done
}

// Resume restarts a paused run.
func (r *Runner) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusPaused {
		return
	}
	r.startLocked()
}

// Reset stops the run and rebuilds the simulator from the scenario.
func (r *Runner) Reset() error {
	r.mu.Lock()
	if r.status == StatusRunning {
		r.cancel()
		done := r.loopDone
		r.mu.Unlock()
		<-done
		r.mu.Lock()
	}
	r.forecast.Cancel()
	err := r.build()
	if err == nil {
		r.status = StatusPaused
		r.updateRunRow()
	}
	r.mu.Unlock()
	return err
}

// SetSpeed adjusts the pacing multiplier. 0 means as fast as possible.
func (r *Runner) SetSpeed(multiplier float64) error {
	if multiplier < 0 {
		return fmt.Errorf("speed multiplier must be >= 0, got %v", multiplier)
	}
	r.mu.Lock()
	r.speed = multiplier
	r.mu.Unlock()
	return nil
}

// Status returns the current lifecycle status.
func (r *Runner) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Snapshot builds the current published view.
func (r *Runner) Snapshot() simulator.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Snapshot()
}

// RequestForecast clones the live simulator under the runner lock and
// projects it on a background goroutine, cancelling any forecast in
// flight.
func (r *Runner) RequestForecast() {
	r.mu.Lock()
	defer r.mu.Unlock()
	cfg := r.scenario.Config
	r.forecast.Start(r.sim, decision.NewEngine(cfg.DecisionHorizon(), cfg.Bias))
}

// LatestForecast returns the most recently published forecast, or nil.
func (r *Runner) LatestForecast() *simulator.ForecastResult {
	return r.forecast.Latest()
}

// loop is the paced tick loop. It exits on cancellation, on simulation
// end, or on a failed tick.
func (r *Runner) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		r.mu.Lock()
		tickErr := r.sim.Tick()
		snap := r.sim.Snapshot()
		r.persistLocked(snap)
		r.publishForecastLocked()
		speed := r.speed
		step := r.scenario.Config.Step()
		finished := r.sim.Finished()
		if tickErr != nil {
			r.status = StatusFailed
			r.updateRunRow()
		} else if finished {
			r.status = StatusFinished
			r.updateRunRow()
		}
		r.mu.Unlock()

		if r.publisher != nil {
			r.publisher.Publish(r.ID, snap)
		}
		if tickErr != nil {
			log.Printf("run %s halted: %v", r.ID, tickErr)
			return
		}
		if finished {
			return
		}
		if speed > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Duration(float64(step) / speed)):
			}
		}
	}
}

// persistLocked flushes sampled snapshots, freshly finished tasks and
// new event-log lines. Failures are logged, never fatal to the run.
func (r *Runner) persistLocked(snap simulator.Snapshot) {
	if r.repo == nil {
		return
	}
	if !r.lastPersisted.IsZero() && snap.SimTime.Sub(r.lastPersisted) < persistInterval {
		return
	}
	r.lastPersisted = snap.SimTime

	agentStates, _ := json.Marshal(snap.Agents)
	pending, completed := 0, 0
	for _, q := range snap.Queues {
		pending += q.Pending
		completed += q.Completed
	}
	if err := r.repo.SaveSnapshot(&database.TickSnapshot{
		RunID:            r.ID,
		SimTime:          snap.SimTime,
		PendingTotal:     pending,
		CompletedTotal:   completed,
		CompletedPerHour: snap.CompletedPerHour,
		Utilization:      snap.Utilization,
		AgentStates:      string(agentStates),
	}); err != nil {
		log.Printf("run %s: failed to persist snapshot: %v", r.ID, err)
	}

	var tasks []database.FinishedTaskRecord
	for _, q := range r.sim.State().Queues {
		start := r.persistedPerQ[q.ID]
		for _, f := range q.Finished[start:] {
			tasks = append(tasks, database.FinishedTaskRecord{
				RunID:     r.ID,
				TaskID:    f.ID,
				QueueID:   f.QueueID,
				AgentID:   f.AgentID,
				Completed: f.Completed,
				DurationS: f.Duration().Seconds(),
				MissedSLA: f.MissedSLA(q.Params.SLA),
			})
		}
		r.persistedPerQ[q.ID] = len(q.Finished)
	}
	if err := r.repo.SaveFinishedTasks(tasks); err != nil {
		log.Printf("run %s: failed to persist finished tasks: %v", r.ID, err)
	}

	newLines, total := r.sim.EventLogSince(r.persistedLogLen)
	r.persistedLogLen = total
	lines := make([]database.EventLogLine, 0, len(newLines))
	for _, l := range newLines {
		lines = append(lines, database.EventLogLine{
			RunID:   r.ID,
			SimTime: snap.SimTime,
			Line:    l,
		})
	}
	if err := r.repo.SaveEventLines(lines); err != nil {
		log.Printf("run %s: failed to persist event log: %v", r.ID, err)
	}
}

// publishForecastLocked persists and pushes a newly completed forecast
// exactly once.
func (r *Runner) publishForecastLocked() {
	latest := r.forecast.Latest()
	if latest == nil || latest == r.forecastSaved {
		return
	}
	r.forecastSaved = latest
	if r.publisher != nil {
		r.publisher.PublishForecast(r.ID, latest)
	}
	if r.repo == nil {
		return
	}
	segments := make([]database.ForecastSegmentRecord, 0, len(latest.Segments))
	for _, s := range latest.Segments {
		segments = append(segments, database.ForecastSegmentRecord{
			RunID:   r.ID,
			AgentID: s.AgentID,
			Agent:   s.Agent,
			Start:   s.Start,
			End:     s.End,
			Kind:    s.Kind,
			QueueID: s.QueueID,
		})
	}
	if err := r.repo.ReplaceForecast(r.ID, segments); err != nil {
		log.Printf("run %s: failed to persist forecast: %v", r.ID, err)
	}
}

// updateRunRow mirrors runner status into the run row.
func (r *Runner) updateRunRow() {
	if r.repo == nil {
		return
	}
	run, err := r.repo.GetRun(r.ID)
	if err != nil {
		return
	}
	run.Status = r.status
	run.SimTime = r.sim.Clock().Now()
	if simErr := r.sim.Err(); simErr != nil {
		run.Error = simErr.Error()
	}
	if r.status == StatusFinished || r.status == StatusFailed {
		now := time.Now()
		run.EndedAt = &now
	}
	if err := r.repo.UpdateRun(run); err != nil {
		log.Printf("run %s: failed to update run row: %v", r.ID, err)
	}
}
