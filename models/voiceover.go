package models

import "time"

// VoiceoverCacheEntry represents a row of the voiceover_cache table. A row
// exists only for successfully synthesized narration; the composite key
// (scene_id, script_hash, voice_id) is the content identity of the audio.
type VoiceoverCacheEntry struct {
	SceneID     int       `json:"scene_id"`
	ScriptHash  string    `json:"script_hash"`
	VoiceID     string    `json:"voice_id"`
	AudioPath   string    `json:"audio_path"`
	GeneratedAt time.Time `json:"generated_at"`
}
