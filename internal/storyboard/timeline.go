package storyboard

import "fmt"

// Reorder implements drag-and-drop semantics over the flattened timeline: the
// scene at srcFlat is removed from its section and inserted at dstFlat, which
// may land in a different section. Every other scene field is left untouched;
// ids are reassigned by the renumber that follows.
func (b *Storyboard) Reorder(srcFlat, dstFlat int) error {
	flat := b.Flatten()
	if srcFlat < 0 || srcFlat >= len(flat) {
		return fmt.Errorf("reorder: source index %d out of range (have %d scenes)", srcFlat, len(flat))
	}
	if dstFlat < 0 {
		dstFlat = 0
	}
	if dstFlat >= len(flat) {
		dstFlat = len(flat) - 1
	}
	if srcFlat == dstFlat {
		return nil
	}

	moved := *flat[srcFlat]
	si, pos, ok := b.locate(moved.ID)
	if !ok {
		return fmt.Errorf("reorder: %w", ErrSceneNotFound)
	}
	scenes := b.Sections[si].Scenes
	b.Sections[si].Scenes = append(scenes[:pos], scenes[pos+1:]...)

	// dstFlat addresses the timeline as the user sees it mid-drag, i.e. with
	// the picked-up scene already removed, so it maps directly onto the
	// post-removal flatten.
	b.insertAtFlat(dstFlat, moved)
	b.Renumber()
	return nil
}
