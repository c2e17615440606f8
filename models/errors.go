package models

import "errors"

// Application-wide standard errors
var (
	// Asset resolution errors (collected per scene, never abort the whole pass)
	ErrNotFound        = errors.New("referenced asset not found")
	ErrSynthesisFailed = errors.New("narration synthesis failed")

	// Job errors (terminal for the attempt; a fresh submit is required)
	ErrSubmissionRejected = errors.New("rendering backend rejected the job request")
	ErrJobFailed          = errors.New("rendering backend reported job failure")
	ErrJobTimeout         = errors.New("no terminal job status within the time budget")
	ErrValidationFailed   = errors.New("job request failed validation")

	// An active job already owns the storyboard's monitor slot.
	ErrJobAlreadyActive = errors.New("a render job is already active for this storyboard")
)
