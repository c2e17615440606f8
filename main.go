package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"storyreel/config"
	"storyreel/handlers"
	"storyreel/internal/mediastore"
	"storyreel/internal/render"
	"storyreel/internal/resolver"
	"storyreel/internal/store"
	"storyreel/internal/synthesis"
	"storyreel/internal/voiceover"
	"storyreel/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := config.NewLogger()

	supaClient, err := config.NewSupabase(cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize Supabase: %v", err)
	}
	db := config.NewPostgrest(cfg)

	media := mediastore.New(supaClient.Storage, logger)
	boards := store.New(db, logger)
	cache := voiceover.NewSupabaseCache(db, media, logger)
	synth := synthesis.NewClient(cfg.SynthesisURL, cfg.SynthesisKey, logger)
	assets := resolver.New(cache, media, synth, logger)

	backend := render.NewClient(cfg.RenderBackendURL, logger)
	submitter := render.NewSubmitter(backend, logger)
	supervisor := render.NewSupervisor(logger)

	h := handlers.NewApplicationHandler(
		logger, boards, media, assets, submitter, backend, supervisor,
		render.SubmitOptions{
			OutputResolution:      cfg.OutputResolution,
			BackgroundMusicVolume: cfg.BackgroundMusicVolume,
			SceneDuration:         cfg.SceneDuration,
		},
		cfg.PollInterval, cfg.JobTimeout,
	)

	app := fiber.New(fiber.Config{
		BodyLimit: 512 * 1024 * 1024, // clip uploads
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
	app.Use(middleware.RequestLogger(logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":  "ok",
			"message": "Storyboard service is healthy",
		})
	})

	apiV1 := app.Group("/api/v1")

	apiV1.Post("/uploads/clips", h.UploadClip)

	apiV1.Post("/storyboards", h.CreateStoryboard)
	apiV1.Get("/storyboards/:id", h.GetStoryboard)
	apiV1.Patch("/storyboards/:id", h.UpdateStoryboard)

	apiV1.Post("/storyboards/:id/scenes", h.InsertScene)
	apiV1.Delete("/storyboards/:id/scenes/:sceneId", h.RemoveScene)
	apiV1.Post("/storyboards/:id/reorder", h.ReorderScenes)

	apiV1.Post("/storyboards/:id/generate", h.GenerateVideo)
	apiV1.Get("/storyboards/:id/job", h.GetRenderJob)
	apiV1.Post("/storyboards/:id/job/cancel", h.CancelRenderJob)

	// Serve until interrupted, then stop monitors before exiting so no poll
	// loop outlives the process.
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down...")
		supervisor.Shutdown()
		if err := app.Shutdown(); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}()

	logger.Infof("Starting storyboard service on port %s...", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatalf("Server stopped: %v", err)
	}
}
