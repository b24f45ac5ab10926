package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"brats-viewer/internal/config"
	"brats-viewer/internal/controllers"
	"brats-viewer/internal/logger"
	"brats-viewer/internal/processing/effects"
	"brats-viewer/internal/services"
	"brats-viewer/internal/shutdown"
	"brats-viewer/internal/views"
	"brats-viewer/internal/volume"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
)

const (
	AppName = "BraTS Viewer"
	AppID   = "org.brats.viewer"
)

func main() {
	configPath := flag.String("config", "brats-viewer.yaml", "path to the YAML configuration")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	dataset := flag.String("dataset", "", "catalog entry to open at startup")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *dataset != "" {
		cfg.Viewer.Dataset = *dataset
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
			os.Exit(1)
		}
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.JSON)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}

	log.Info("Main", "application starting", map[string]interface{}{
		"config":   *configPath,
		"datasets": len(cfg.Catalog),
		"modality": string(cfg.Viewer.Modality),
	})

	run(cfg, log)
}

func run(cfg *config.Config, log logger.Logger) {
	store := volume.NewStore(log)
	slices := services.NewSliceService(store, effects.ParamsFromConfig(cfg.Effects), log)
	export := services.NewExportService(cfg.Export, slices, log)
	stats := services.NewStatisticsService(cfg.Statistics, nil, log)
	controller := controllers.NewMainController(cfg, store, slices, export, stats, log)

	manager := shutdown.NewManager(log, 10*time.Second)
	manager.Register(store)
	manager.Register(controller)

	fyneApp := app.NewWithID(AppID)
	window := fyneApp.NewWindow(AppName)
	window.Resize(fyne.NewSize(900, 760))

	view := views.NewMainView(window, cfg.Export.Frames, cfg.Viewer.Highlight)
	controller.SetView(view)

	queue := shutdown.NewQueue(manager, 64)
	manager.Register(queue)
	do := func(fn func()) { queue.Submit(fn) }

	view.SetHandlers(views.Handlers{
		SelectDataset: func(id string) {
			do(func() { controller.SelectDataset(id) })
		},
		SelectModality: func(m string) {
			do(func() { controller.SelectModality(config.Modality(m)) })
		},
		SetEffect: func(name string) {
			do(func() { controller.SetEffect(name) })
		},
		SetHighlight: func(on bool) {
			do(func() { controller.SetHighlight(on) })
		},
		SetIndex: func(index int) {
			do(func() { controller.SetIndex(index) })
		},
		Save: func() {
			do(func() { controller.SaveAndAnalyze(manager.Context()) })
		},
		ExportVideo: func(count int) {
			do(func() { controller.ExportVideo(count) })
		},
		ExportFrames: func(count int) {
			do(func() { controller.ExportFrames(count) })
		},
	})

	window.SetOnClosed(func() {
		log.Info("Main", "window closed, performing cleanup", nil)
		manager.Shutdown()
	})
	manager.Listen(func() {
		fyne.Do(fyneApp.Quit)
	})

	do(controller.Start)
	window.ShowAndRun()

	manager.Shutdown()
	log.Info("Main", "application terminated", nil)
}
