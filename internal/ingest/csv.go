package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/TheRev45/IzziAutomationAIP/pkg/config"
)

// LoadDir reads a directory of CSV exports (agents.csv, queues.csv,
// tasks.csv and optionally waves.csv) into a scenario. Each file has a
// header row; malformed rows fail ingestion with the offending line
// number.
func LoadDir(dir string, start, end time.Time) (*Scenario, error) {
	sc := &Scenario{
		Name:   filepath.Base(dir),
		Config: config.Default(),
		Start:  start,
		End:    end,
	}

	if err := readCSV(filepath.Join(dir, "agents.csv"), 4, func(line int, rec []string) error {
		login, err := parseSeconds(rec[2])
		if err != nil {
			return fmt.Errorf("avg_login_s: %w", err)
		}
		logout, err := parseSeconds(rec[3])
		if err != nil {
			return fmt.Errorf("avg_logout_s: %w", err)
		}
		sc.Agents = append(sc.Agents, AgentSpec{
			ID:               rec[0],
			Name:             rec[1],
			AvgLoginSeconds:  login,
			AvgLogoutSeconds: logout,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readCSV(filepath.Join(dir, "queues.csv"), 10, func(line int, rec []string) error {
		setup, err := parseSeconds(rec[3])
		if err != nil {
			return fmt.Errorf("setup_s: %w", err)
		}
		sla, err := parseSeconds(rec[4])
		if err != nil {
			return fmt.Errorf("sla_s: %w", err)
		}
		crit, err := strconv.Atoi(rec[5])
		if err != nil {
			return fmt.Errorf("criticality: %w", err)
		}
		minRes, err := strconv.Atoi(rec[6])
		if err != nil {
			return fmt.Errorf("min_resources: %w", err)
		}
		maxRes, err := strconv.Atoi(rec[7])
		if err != nil {
			return fmt.Errorf("max_resources: %w", err)
		}
		forceMax, err := strconv.ParseBool(rec[8])
		if err != nil {
			return fmt.Errorf("force_max: %w", err)
		}
		mustRun, err := strconv.ParseBool(rec[9])
		if err != nil {
			return fmt.Errorf("must_run: %w", err)
		}
		sc.Queues = append(sc.Queues, QueueSpec{
			ID:           rec[0],
			Name:         rec[1],
			User:         rec[2],
			SetupSeconds: setup,
			SLASeconds:   sla,
			Criticality:  crit,
			MinResources: minRes,
			MaxResources: maxRes,
			ForceMax:     forceMax,
			MustRun:      mustRun,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := readCSV(filepath.Join(dir, "tasks.csv"), 4, func(line int, rec []string) error {
		created, err := time.Parse(time.RFC3339, rec[2])
		if err != nil {
			return fmt.Errorf("created_at: %w", err)
		}
		priority, err := strconv.Atoi(rec[3])
		if err != nil {
			return fmt.Errorf("priority: %w", err)
		}
		sc.Tasks = append(sc.Tasks, TaskSpec{
			ID:       rec[0],
			Queue:    rec[1],
			Created:  created,
			Priority: priority,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	wavesPath := filepath.Join(dir, "waves.csv")
	if _, err := os.Stat(wavesPath); err == nil {
		byTime := make(map[time.Time]*WaveSpec)
		if err := readCSV(wavesPath, 4, func(line int, rec []string) error {
			at, err := time.Parse(time.RFC3339, rec[0])
			if err != nil {
				return fmt.Errorf("timestamp: %w", err)
			}
			priority, err := strconv.Atoi(rec[3])
			if err != nil {
				return fmt.Errorf("priority: %w", err)
			}
			wave, ok := byTime[at]
			if !ok {
				wave = &WaveSpec{At: at}
				byTime[at] = wave
			}
			wave.Tasks = append(wave.Tasks, TaskSpec{
				ID:       rec[1],
				Queue:    rec[2],
				Created:  at,
				Priority: priority,
			})
			return nil
		}); err != nil {
			return nil, err
		}
		for _, wave := range byTime {
			sc.Waves = append(sc.Waves, *wave)
		}
		sort.Slice(sc.Waves, func(i, j int) bool { return sc.Waves[i].At.Before(sc.Waves[j].At) })
	}

	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// readCSV streams path row by row, skipping the header, enforcing a
// minimum field count and reporting errors with their line number.
func readCSV(path string, minFields int, row func(line int, rec []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	line := 0
	for {
		rec, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), line+1, err)
		}
		line++
		if line == 1 {
			continue // header
		}
		if len(rec) < minFields {
			return fmt.Errorf("%s line %d: expected %d fields, got %d",
				filepath.Base(path), line, minFields, len(rec))
		}
		if err := row(line, rec); err != nil {
			return fmt.Errorf("%s line %d: %w", filepath.Base(path), line, err)
		}
	}
}

func parseSeconds(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
