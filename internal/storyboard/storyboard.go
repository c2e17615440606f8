package storyboard

import (
	"errors"
	"fmt"
)

// ErrSceneNotFound is reported when an operation names a scene id that is not
// present in the storyboard. Operations that hit it leave the storyboard unchanged.
var ErrSceneNotFound = errors.New("scene not found")

// SceneKind describes the primary payload of a scene.
type SceneKind string

const (
	KindText  SceneKind = "text"
	KindImage SceneKind = "image"
	KindVideo SceneKind = "video"
)

// Scene is the atomic unit of composition. Exactly one of the content fields is
// meaningful for a given Kind; the rest ride along untouched through reorders.
type Scene struct {
	ID                int       `json:"id"`
	Kind              SceneKind `json:"kind"`
	Content           string    `json:"content"`
	Script            *string   `json:"script,omitempty"`
	VoiceID           *string   `json:"voice_id,omitempty"`
	ClipID            *string   `json:"clip_id,omitempty"`
	MusicID           *string   `json:"music_id,omitempty"` // advisory only; storyboard-level music wins
	VoiceoverRef      *string   `json:"voiceover_ref,omitempty"`
	CharactersInScene []string  `json:"characters_in_scene,omitempty"`
	SpeakerCharacter  *string   `json:"speaker_character_id,omitempty"`
}

// HasNarration reports whether this scene wants narration audio: both a script
// and an assigned voice are required for synthesis to be possible.
func (s *Scene) HasNarration() bool {
	return s.Script != nil && *s.Script != "" && s.VoiceID != nil && *s.VoiceID != ""
}

// Section is an ordered grouping of scenes used for narrative pacing. It imposes
// no cross-scene constraint beyond ordering.
type Section struct {
	Label       string  `json:"label"`
	Description string  `json:"description"`
	Scenes      []Scene `json:"scenes"`
}

// Storyboard is the full composition intent: ordered sections of ordered scenes.
// Flattening yields the canonical scene order used for the timeline and the render.
type Storyboard struct {
	Sections []Section `json:"sections"`
	// MusicID is the storyboard-level background music selection. It is the
	// only music reference that matters for the final render.
	MusicID *string `json:"music_id,omitempty"`
}

// Flatten returns pointers to every scene in canonical order. Mutating the
// returned scenes mutates the storyboard.
func (b *Storyboard) Flatten() []*Scene {
	var out []*Scene
	for si := range b.Sections {
		for sc := range b.Sections[si].Scenes {
			out = append(out, &b.Sections[si].Scenes[sc])
		}
	}
	return out
}

// SceneCount returns the total number of scenes across all sections.
func (b *Storyboard) SceneCount() int {
	n := 0
	for i := range b.Sections {
		n += len(b.Sections[i].Scenes)
	}
	return n
}

// Renumber reassigns every scene id sequentially (1-based) by flattened
// position. Callers must re-resolve any cache lookups afterward, since cached
// narration is keyed by scene id. Calling it twice without an intervening
// structural change produces identical ids.
func (b *Storyboard) Renumber() {
	id := 1
	for _, scene := range b.Flatten() {
		scene.ID = id
		id++
	}
}

// locate finds the section index and position of the scene with the given id.
func (b *Storyboard) locate(id int) (sectionIdx, pos int, ok bool) {
	for si := range b.Sections {
		for sc := range b.Sections[si].Scenes {
			if b.Sections[si].Scenes[sc].ID == id {
				return si, sc, true
			}
		}
	}
	return 0, 0, false
}

// InsertScene inserts a scene into the given section at the given position and
// renumbers the storyboard. A position past the end of the section appends.
func (b *Storyboard) InsertScene(sectionIdx, position int, scene Scene) error {
	if sectionIdx < 0 || sectionIdx >= len(b.Sections) {
		return fmt.Errorf("section index %d out of range (have %d sections)", sectionIdx, len(b.Sections))
	}
	scenes := b.Sections[sectionIdx].Scenes
	if position < 0 {
		position = 0
	}
	if position > len(scenes) {
		position = len(scenes)
	}
	scenes = append(scenes, Scene{})
	copy(scenes[position+1:], scenes[position:])
	scenes[position] = scene
	b.Sections[sectionIdx].Scenes = scenes
	b.Renumber()
	return nil
}

// RemoveScene removes the scene with the given id and renumbers. Removing an
// unknown id reports ErrSceneNotFound and changes nothing.
func (b *Storyboard) RemoveScene(id int) error {
	si, pos, ok := b.locate(id)
	if !ok {
		return fmt.Errorf("remove scene %d: %w", id, ErrSceneNotFound)
	}
	scenes := b.Sections[si].Scenes
	b.Sections[si].Scenes = append(scenes[:pos], scenes[pos+1:]...)
	b.Renumber()
	return nil
}

// MoveScene moves the scene with the given id to a new flattened position,
// preserving every attachment (clip, voice, music, cached voiceover) verbatim.
// Only ids and positional metadata change, via the renumber that follows.
func (b *Storyboard) MoveScene(id int, newFlatPos int) error {
	si, pos, ok := b.locate(id)
	if !ok {
		return fmt.Errorf("move scene %d: %w", id, ErrSceneNotFound)
	}
	moved := b.Sections[si].Scenes[pos]
	scenes := b.Sections[si].Scenes
	b.Sections[si].Scenes = append(scenes[:pos], scenes[pos+1:]...)
	b.insertAtFlat(newFlatPos, moved)
	b.Renumber()
	return nil
}

// insertAtFlat inserts a scene at the given flattened index, resolving it to a
// section and in-section position. Indexes past the end append to the last
// section; an empty storyboard gets an implicit section.
func (b *Storyboard) insertAtFlat(flatPos int, scene Scene) {
	if len(b.Sections) == 0 {
		b.Sections = []Section{{Scenes: []Scene{scene}}}
		return
	}
	if flatPos < 0 {
		flatPos = 0
	}
	seen := 0
	for si := range b.Sections {
		n := len(b.Sections[si].Scenes)
		if flatPos <= seen+n {
			pos := flatPos - seen
			scenes := b.Sections[si].Scenes
			scenes = append(scenes, Scene{})
			copy(scenes[pos+1:], scenes[pos:])
			scenes[pos] = scene
			b.Sections[si].Scenes = scenes
			return
		}
		seen += n
	}
	// Past the end of every section: append to the last one.
	last := len(b.Sections) - 1
	b.Sections[last].Scenes = append(b.Sections[last].Scenes, scene)
}
