package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TheRev45/IzziAutomationAIP/internal/api"
	"github.com/TheRev45/IzziAutomationAIP/internal/database"
	"github.com/TheRev45/IzziAutomationAIP/internal/ingest"
	"github.com/TheRev45/IzziAutomationAIP/internal/runner"
	"github.com/TheRev45/IzziAutomationAIP/pkg/config"
)

func main() {
	var (
		scenarioPath = flag.String("scenario", "", "path to a JSON scenario file")
		dataDir      = flag.String("data-dir", "", "directory of CSV exports (agents, queues, tasks, waves)")
		configPath   = flag.String("config", "", "optional JSON config overriding scenario defaults")
		dbPath       = flag.String("db", "simulator.db", "sqlite database path")
		port         = flag.String("port", "8080", "API server port")
		headless     = flag.Bool("headless", false, "run the scenario to completion without the API server")
	)
	flag.Parse()

	scenario, err := loadScenario(*scenarioPath, *dataDir)
	if err != nil {
		log.Fatalf("Failed to load scenario: %v", err)
	}
	if *configPath != "" && scenario != nil {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Invalid config: %v", err)
		}
		scenario.Config = cfg
	}

	db, err := database.NewDatabase(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()
	repo := database.NewRepository(db)

	if *headless {
		runHeadless(scenario, repo)
		return
	}

	server := api.NewServer(repo, *port)

	if scenario != nil {
		run, err := runner.New(scenario, repo, server.Hub())
		if err != nil {
			log.Fatalf("Failed to create run: %v", err)
		}
		server.Register(run)
		run.Start()
		log.Printf("Run %s started (window %s - %s)", run.ID,
			scenario.Start.Format(time.RFC3339), scenario.End.Format(time.RFC3339))
	}

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("API server failed: %v", err)
		}
	}()
	log.Printf("API server listening on :%s", *port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down")
}

func loadScenario(scenarioPath, dataDir string) (*ingest.Scenario, error) {
	switch {
	case scenarioPath != "":
		return ingest.LoadScenario(scenarioPath)
	case dataDir != "":
		now := time.Now().Truncate(time.Minute)
		return ingest.LoadDir(dataDir, now, now.Add(8*time.Hour))
	default:
		return nil, nil
	}
}

func runHeadless(scenario *ingest.Scenario, repo *database.Repository) {
	if scenario == nil {
		log.Fatal("Headless mode needs -scenario or -data-dir")
	}
	// Free-running: no point pacing a batch run in real time.
	scenario.Config.SpeedMultiplier = 0

	run, err := runner.New(scenario, repo, nil)
	if err != nil {
		log.Fatalf("Failed to create run: %v", err)
	}
	run.Start()
	for run.Status() == runner.StatusRunning {
		time.Sleep(100 * time.Millisecond)
	}

	snap := run.Snapshot()
	log.Printf("Run %s %s at sim time %s: %d agents, utilization %.1f%%",
		run.ID, run.Status(), snap.SimTime.Format("15:04:05"), len(snap.Agents), snap.Utilization)
	for _, q := range snap.Queues {
		log.Printf("  queue %s: %d pending, %d completed", q.Name, q.Pending, q.Completed)
	}
}
