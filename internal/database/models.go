package database

import (
	"time"
)

// SimulationRun represents one live simulation.
type SimulationRun struct {
	ID          string     `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name"`
	Status      string     `json:"status"` // running, paused, finished, failed
	Config      string     `json:"config"` // JSON scenario configuration
	WindowStart time.Time  `json:"window_start"`
	WindowEnd   time.Time  `json:"window_end"`
	SimTime     time.Time  `json:"sim_time"`
	Error       string     `json:"error"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	EndedAt     *time.Time `json:"ended_at"`
}

// TickSnapshot is a sampled point-in-time view of a run.
type TickSnapshot struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	RunID   string    `json:"run_id" gorm:"index"`
	SimTime time.Time `json:"sim_time" gorm:"index"`

	PendingTotal     int     `json:"pending_total"`
	CompletedTotal   int     `json:"completed_total"`
	CompletedPerHour float64 `json:"completed_per_hour"`
	Utilization      float64 `json:"utilization"`
	AgentStates      string  `json:"agent_states"` // JSON per-agent view

	CreatedAt time.Time `json:"created_at"`
}

// FinishedTaskRecord is one completed work item.
type FinishedTaskRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	RunID     string    `json:"run_id" gorm:"index"`
	TaskID    string    `json:"task_id"`
	QueueID   string    `json:"queue_id" gorm:"index"`
	AgentID   string    `json:"agent_id" gorm:"index"`
	Completed time.Time `json:"completed"`
	DurationS float64   `json:"duration_s"`
	MissedSLA bool      `json:"missed_sla"`

	CreatedAt time.Time `json:"created_at"`
}

// ForecastSegmentRecord is one timeline segment of the latest published
// forecast for a run.
type ForecastSegmentRecord struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	RunID   string    `json:"run_id" gorm:"index"`
	AgentID string    `json:"agent_id"`
	Agent   string    `json:"agent"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Kind    string    `json:"kind"` // login, logout, setup, working
	QueueID string    `json:"queue_id"`

	CreatedAt time.Time `json:"created_at"`
}

// EventLogLine is one line of a run's event log.
type EventLogLine struct {
	ID      uint      `json:"id" gorm:"primaryKey"`
	RunID   string    `json:"run_id" gorm:"index"`
	SimTime time.Time `json:"sim_time" gorm:"index"`
	Line    string    `json:"line"`

	CreatedAt time.Time `json:"created_at"`
}
