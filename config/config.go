package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

// Config collects everything the service reads from the environment.
type Config struct {
	Port string

	SupabaseURL string
	SupabaseKey string

	SynthesisURL string
	SynthesisKey string

	RenderBackendURL string
	PollInterval     time.Duration
	JobTimeout       time.Duration

	OutputResolution      string
	BackgroundMusicVolume float64
	SceneDuration         float64
}

// Load reads the environment (a .env file is honored when present) and applies
// defaults for the optional knobs. Supabase credentials and the collaborator
// URLs are required.
func Load() (*Config, error) {
	// Missing .env is fine in deployed environments.
	_ = godotenv.Load()

	cfg := &Config{
		Port:                  getenv("PORT", "8080"),
		SupabaseURL:           os.Getenv("SUPABASE_URL"),
		SupabaseKey:           os.Getenv("SUPABASE_SERVICE_KEY"),
		SynthesisURL:          os.Getenv("SYNTHESIS_URL"),
		SynthesisKey:          os.Getenv("SYNTHESIS_API_KEY"),
		RenderBackendURL:      os.Getenv("RENDER_BACKEND_URL"),
		PollInterval:          getenvDuration("JOB_POLL_INTERVAL", 5*time.Second),
		JobTimeout:            getenvDuration("JOB_TIMEOUT", 60*time.Second),
		OutputResolution:      getenv("OUTPUT_RESOLUTION", "1080x1920"),
		BackgroundMusicVolume: getenvFloat("BACKGROUND_MUSIC_VOLUME", 0.2),
		SceneDuration:         getenvFloat("SCENE_DURATION_SECONDS", 5.0),
	}

	if cfg.SupabaseURL == "" || cfg.SupabaseKey == "" {
		return nil, fmt.Errorf("SUPABASE_URL and SUPABASE_SERVICE_KEY must be set")
	}
	if cfg.SynthesisURL == "" {
		return nil, fmt.Errorf("SYNTHESIS_URL must be set")
	}
	if cfg.RenderBackendURL == "" {
		return nil, fmt.Errorf("RENDER_BACKEND_URL must be set")
	}
	return cfg, nil
}

// NewSupabase creates the Supabase client used for storage access.
func NewSupabase(cfg *Config) (*supa.Client, error) {
	client, err := supa.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize Supabase client: %w", err)
	}
	return client, nil
}

// NewPostgrest creates the PostgREST client the data layer queries through.
func NewPostgrest(cfg *Config) *postgrest.Client {
	return postgrest.NewClient(cfg.SupabaseURL+"/rest/v1", "", map[string]string{
		"apikey":        cfg.SupabaseKey,
		"Authorization": fmt.Sprintf("Bearer %s", cfg.SupabaseKey),
	})
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
