package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"storyreel/internal/mediastore"
	"storyreel/internal/render"
	"storyreel/internal/resolver"
	"storyreel/internal/store"
)

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Logger     *logrus.Logger
	Store      *store.StoryboardStore
	Media      *mediastore.Store
	Resolver   *resolver.Resolver
	Submitter  *render.Submitter
	Backend    *render.Client
	Supervisor *render.Supervisor
	Validate   *validator.Validate

	// Job-level submission knobs, taken from config at startup.
	SubmitOptions render.SubmitOptions
	PollInterval  time.Duration
	JobTimeout    time.Duration
}

// NewApplicationHandler creates an ApplicationHandler with the given dependencies.
func NewApplicationHandler(
	logger *logrus.Logger,
	st *store.StoryboardStore,
	media *mediastore.Store,
	res *resolver.Resolver,
	sub *render.Submitter,
	backend *render.Client,
	sup *render.Supervisor,
	opts render.SubmitOptions,
	pollInterval, jobTimeout time.Duration,
) *ApplicationHandler {
	return &ApplicationHandler{
		Logger:        logger,
		Store:         st,
		Media:         media,
		Resolver:      res,
		Submitter:     sub,
		Backend:       backend,
		Supervisor:    sup,
		Validate:      validator.New(),
		SubmitOptions: opts,
		PollInterval:  pollInterval,
		JobTimeout:    jobTimeout,
	}
}
