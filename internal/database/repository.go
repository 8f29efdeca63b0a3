package database

import (
	"time"
)

// Repository provides data access for simulation runs and their
// collected artifacts.
type Repository struct {
	db *DB
}

// NewRepository creates a repository over db.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new simulation run.
func (r *Repository) CreateRun(run *SimulationRun) error {
	return r.db.Create(run).Error
}

// GetRun fetches a run by id.
func (r *Repository) GetRun(id string) (*SimulationRun, error) {
	var run SimulationRun
	err := r.db.First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns all runs, newest first.
func (r *Repository) ListRuns() ([]SimulationRun, error) {
	var runs []SimulationRun
	err := r.db.Order("created_at DESC").Find(&runs).Error
	return runs, err
}

// UpdateRun saves run status fields.
func (r *Repository) UpdateRun(run *SimulationRun) error {
	return r.db.Save(run).Error
}

// SaveSnapshot appends one sampled tick snapshot.
func (r *Repository) SaveSnapshot(snap *TickSnapshot) error {
	return r.db.Create(snap).Error
}

// GetSnapshots returns up to limit snapshots for a run, oldest first.
func (r *Repository) GetSnapshots(runID string, limit int) ([]TickSnapshot, error) {
	var snaps []TickSnapshot
	err := r.db.Where("run_id = ?", runID).
		Order("sim_time ASC").
		Limit(limit).
		Find(&snaps).Error
	return snaps, err
}

// GetSnapshotsInRange returns snapshots between two simulated instants.
func (r *Repository) GetSnapshotsInRange(runID string, start, end time.Time) ([]TickSnapshot, error) {
	var snaps []TickSnapshot
	err := r.db.Where("run_id = ? AND sim_time BETWEEN ? AND ?", runID, start, end).
		Order("sim_time ASC").
		Find(&snaps).Error
	return snaps, err
}

// SaveFinishedTasks appends completed-item rows in one batch.
func (r *Repository) SaveFinishedTasks(records []FinishedTaskRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.Create(&records).Error
}

// GetFinishedTasks returns a run's completed items, oldest first.
func (r *Repository) GetFinishedTasks(runID string) ([]FinishedTaskRecord, error) {
	var records []FinishedTaskRecord
	err := r.db.Where("run_id = ?", runID).
		Order("completed ASC").
		Find(&records).Error
	return records, err
}

// ReplaceForecast swaps a run's stored forecast segments for the ones
// from the latest completed forecast.
func (r *Repository) ReplaceForecast(runID string, segments []ForecastSegmentRecord) error {
	if err := r.db.Where("run_id = ?", runID).Delete(&ForecastSegmentRecord{}).Error; err != nil {
		return err
	}
	if len(segments) == 0 {
		return nil
	}
	return r.db.Create(&segments).Error
}

// GetForecast returns a run's stored forecast segments.
func (r *Repository) GetForecast(runID string) ([]ForecastSegmentRecord, error) {
	var segments []ForecastSegmentRecord
	err := r.db.Where("run_id = ?", runID).
		Order("start ASC").
		Find(&segments).Error
	return segments, err
}

// SaveEventLines appends event-log lines in one batch.
func (r *Repository) SaveEventLines(lines []EventLogLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.Create(&lines).Error
}

// GetEventLines returns up to limit recent event-log lines for a run.
func (r *Repository) GetEventLines(runID string, limit int) ([]EventLogLine, error) {
	var lines []EventLogLine
	err := r.db.Where("run_id = ?", runID).
		Order("sim_time DESC").
		Limit(limit).
		Find(&lines).Error
	return lines, err
}
