// Package ingest assembles simulation scenarios from JSON files or CSV
// exports of the workforce platform.
package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/config"
	"github.com/TheRev45/IzziAutomationAIP/pkg/models"
	"github.com/TheRev45/IzziAutomationAIP/pkg/simulator"
)

// AgentSpec describes one agent in a scenario.
type AgentSpec struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	AvgLoginSeconds  float64 `json:"avg_login_seconds"`
	AvgLogoutSeconds float64 `json:"avg_logout_seconds"`
	State            string  `json:"state,omitempty"` // logged_out (default) or idle
	User             string  `json:"user,omitempty"`
}

// QueueSpec describes one queue in a scenario.
type QueueSpec struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	User         string        `json:"user"`
	SetupSeconds float64       `json:"setup_seconds"`
	SLASeconds   float64       `json:"sla_seconds"`
	Criticality  int           `json:"criticality"`
	MinResources int           `json:"min_resources"`
	MaxResources int           `json:"max_resources"`
	ForceMax     bool          `json:"force_max"`
	MustRun      bool          `json:"must_run"`
	History      []HistorySpec `json:"history,omitempty"`
}

// HistorySpec seeds a queue's finished history, which is what the
// engine derives average item durations and SLA failure fractions from.
type HistorySpec struct {
	ID          string    `json:"id"`
	Agent       string    `json:"agent"`
	Completed   time.Time `json:"completed"`
	WorkSeconds float64   `json:"work_seconds"`
}

// TaskSpec describes one pending task present at scenario start.
type TaskSpec struct {
	ID       string    `json:"id"`
	Queue    string    `json:"queue"`
	Created  time.Time `json:"created"`
	Priority int       `json:"priority"`
}

// WaveSpec schedules a batch of task arrivals during the run.
type WaveSpec struct {
	At    time.Time  `json:"at"`
	Tasks []TaskSpec `json:"tasks"`
}

// Scenario is a complete simulation input: configuration, window,
// initial population and scheduled arrivals.
type Scenario struct {
	Name   string        `json:"name"`
	Config config.Config `json:"config"`
	Start  time.Time     `json:"start"`
	End    time.Time     `json:"end"`
	Agents []AgentSpec   `json:"agents"`
	Queues []QueueSpec   `json:"queues"`
	Tasks  []TaskSpec    `json:"tasks"`
	Waves  []WaveSpec    `json:"waves,omitempty"`
}

// LoadScenario reads and validates a JSON scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	sc := &Scenario{Config: config.Default()}
	if err := json.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Validate checks referential integrity and the embedded config.
func (sc *Scenario) Validate() error {
	if err := sc.Config.Validate(); err != nil {
		return err
	}
	if sc.Start.IsZero() {
		return fmt.Errorf("scenario: start time is required")
	}
	queues := make(map[string]bool, len(sc.Queues))
	for _, q := range sc.Queues {
		if q.ID == "" {
			return fmt.Errorf("scenario: queue with empty id")
		}
		if queues[q.ID] {
			return fmt.Errorf("scenario: duplicate queue id %q", q.ID)
		}
		queues[q.ID] = true
	}
	for _, t := range sc.Tasks {
		if !queues[t.Queue] {
			return fmt.Errorf("scenario: task %q references unknown queue %q", t.ID, t.Queue)
		}
	}
	for _, w := range sc.Waves {
		for _, t := range w.Tasks {
			if !queues[t.Queue] {
				return fmt.Errorf("scenario: wave task %q references unknown queue %q", t.ID, t.Queue)
			}
		}
	}
	return nil
}

// Build materializes the scenario into live simulator state and the
// ordered wave list.
func (sc *Scenario) Build() (*simulator.State, []simulator.TaskWave, error) {
	queues := make([]*models.Queue, 0, len(sc.Queues))
	byID := make(map[string]*models.Queue, len(sc.Queues))
	for _, spec := range sc.Queues {
		q := models.NewQueue(spec.ID, spec.Name, spec.User,
			secs(spec.SetupSeconds),
			models.QueueParams{
				SLA:          secs(spec.SLASeconds),
				Criticality:  spec.Criticality,
				MinResources: spec.MinResources,
				MaxResources: spec.MaxResources,
				ForceMax:     spec.ForceMax,
				MustRun:      spec.MustRun,
			})
		for _, h := range spec.History {
			work := secs(h.WorkSeconds)
			q.Finished = append(q.Finished, &models.FinishedTask{
				ID:        h.ID,
				QueueID:   q.ID,
				AgentID:   h.Agent,
				Loaded:    h.Completed.Add(-work),
				Completed: h.Completed,
				WorkTime:  work,
			})
		}
		queues = append(queues, q)
		byID[q.ID] = q
	}

	for _, spec := range sc.Tasks {
		created := spec.Created
		if created.IsZero() {
			created = sc.Start
		}
		models.NewTask(spec.ID, byID[spec.Queue], created, spec.Priority)
	}

	agents := make([]*simulator.Agent, 0, len(sc.Agents))
	for _, spec := range sc.Agents {
		agent := &simulator.Agent{
			ID:        spec.ID,
			Name:      spec.Name,
			Phase:     simulator.PhaseLoggedOut,
			AvgLogin:  secs(spec.AvgLoginSeconds),
			AvgLogout: secs(spec.AvgLogoutSeconds),
		}
		if spec.State == "idle" {
			agent.Phase = simulator.PhaseIdle
			agent.CurrentUser = spec.User
		}
		agents = append(agents, agent)
	}

	waves := make([]simulator.TaskWave, 0, len(sc.Waves))
	for _, spec := range sc.Waves {
		wave := simulator.TaskWave{At: spec.At}
		for _, t := range spec.Tasks {
			wave.Tasks = append(wave.Tasks, simulator.WaveTask{
				ID:       t.ID,
				QueueID:  t.Queue,
				Priority: t.Priority,
			})
		}
		waves = append(waves, wave)
	}
	sort.SliceStable(waves, func(i, j int) bool { return waves[i].At.Before(waves[j].At) })

	return simulator.NewState(agents, queues), waves, nil
}

func secs(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
