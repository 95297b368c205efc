package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"peerscope/internal/archive"
	"peerscope/internal/config"
	"peerscope/internal/data"
	"peerscope/internal/downloads"
	"peerscope/internal/report"
	"peerscope/internal/ui"
)

func main() {
	// Parse command line arguments
	var archiveDir string
	var downloadsDir string
	var demo bool
	var summary bool
	flag.StringVar(&archiveDir, "archive", "", "Archive directory to open")
	flag.StringVar(&archiveDir, "a", "", "Archive directory to open (shorthand)")
	flag.StringVar(&downloadsDir, "downloads", "", "Directory media is exported into")
	flag.BoolVar(&demo, "demo", false, "Seed an empty archive with demo data")
	flag.BoolVar(&summary, "summary", false, "Print the archive summary and exit")
	flag.Parse()

	// If no archive flag, check for a positional argument
	if archiveDir == "" && flag.NArg() > 0 {
		archiveDir = flag.Arg(0)
	}

	// Set up logging
	logFile, err := os.OpenFile("peerscope.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Load configuration; flags override the saved paths
	cfgSvc := config.NewService()
	cfg, err := cfgSvc.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if archiveDir != "" {
		abs, err := filepath.Abs(archiveDir)
		if err != nil {
			fmt.Printf("Error resolving path: %v\n", err)
			os.Exit(1)
		}
		cfg.ArchiveDir = abs
	}
	if downloadsDir != "" {
		cfg.DownloadsDir = downloadsDir
	}

	// Open the archive
	arc, err := archive.Open(cfg.ArchiveDir)
	if err != nil {
		fmt.Printf("Error opening archive: %v\n", err)
		os.Exit(1)
	}
	defer arc.Close()

	// Seed a fresh archive with demo data so there is something to look at
	if demo {
		empty, err := arc.Empty()
		if err != nil {
			fmt.Printf("Error checking archive: %v\n", err)
			os.Exit(1)
		}
		if empty {
			log.Printf("Seeding demo archive in %s", cfg.ArchiveDir)
			if err := archive.Seed(arc); err != nil {
				fmt.Printf("Error seeding demo archive: %v\n", err)
				os.Exit(1)
			}
		}
	}

	sess, err := data.NewSession(arc)
	if err != nil {
		fmt.Printf("Error reading archive: %v\n", err)
		os.Exit(1)
	}

	// Summary mode prints the per-peer table and exits
	if summary {
		rows, err := report.Build(sess)
		if err != nil {
			fmt.Printf("Error building summary: %v\n", err)
			os.Exit(1)
		}
		report.Print(rows)
		return
	}

	dls, err := downloads.NewManager(sess, cfg.DownloadsDir)
	if err != nil {
		fmt.Printf("Error preparing downloads: %v\n", err)
		os.Exit(1)
	}
	defer dls.Close()

	// Run the UI
	log.Printf("Starting UI...")
	model := ui.New(sess, dls, cfgSvc, cfg)
	p := tea.NewProgram(model, tea.WithAltScreen())
	model.SetProgram(p)
	if _, err := p.Run(); err != nil {
		log.Printf("Error running program: %v", err)
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
	log.Printf("UI exited normally")

	// Write out any config change that is still waiting on its timer
	if err := cfgSvc.Flush(); err != nil {
		log.Printf("Failed to save config: %v", err)
	}
}
