package storyboard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyreel/internal/storyboard"
)

func strPtr(s string) *string { return &s }

// testBoard builds two sections with two scenes each, renumbered 1..4.
func testBoard() *storyboard.Storyboard {
	board := &storyboard.Storyboard{
		Sections: []storyboard.Section{
			{
				Label: "Hook",
				Scenes: []storyboard.Scene{
					{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/a.mp4"), Script: strPtr("First"), VoiceID: strPtr("v1")},
					{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/b.mp4")},
				},
			},
			{
				Label: "Body",
				Scenes: []storyboard.Scene{
					{Kind: storyboard.KindVideo, ClipID: strPtr("uploads/c.mp4"), MusicID: strPtr("calm.mp3")},
					{Kind: storyboard.KindText, Content: "The end"},
				},
			},
		},
	}
	board.Renumber()
	return board
}

func flatIDs(board *storyboard.Storyboard) []int {
	var ids []int
	for _, s := range board.Flatten() {
		ids = append(ids, s.ID)
	}
	return ids
}

func TestRenumber(t *testing.T) {
	t.Run("assigns sequential ids by flattened position", func(t *testing.T) {
		board := testBoard()
		assert.Equal(t, []int{1, 2, 3, 4}, flatIDs(board))
	})

	t.Run("is idempotent", func(t *testing.T) {
		board := testBoard()
		first := flatIDs(board)
		board.Renumber()
		assert.Equal(t, first, flatIDs(board))
	})

	t.Run("never leaves duplicate ids", func(t *testing.T) {
		board := testBoard()
		require.NoError(t, board.InsertScene(0, 1, storyboard.Scene{Kind: storyboard.KindText}))
		seen := map[int]bool{}
		for _, id := range flatIDs(board) {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
	})
}

func TestInsertScene(t *testing.T) {
	t.Run("inserts at position and renumbers", func(t *testing.T) {
		board := testBoard()
		require.NoError(t, board.InsertScene(1, 0, storyboard.Scene{Kind: storyboard.KindImage, Content: "img"}))
		assert.Equal(t, 5, board.SceneCount())
		assert.Equal(t, storyboard.KindImage, board.Sections[1].Scenes[0].Kind)
		assert.Equal(t, []int{1, 2, 3, 4, 5}, flatIDs(board))
	})

	t.Run("clamps an out-of-range position to append", func(t *testing.T) {
		board := testBoard()
		require.NoError(t, board.InsertScene(0, 99, storyboard.Scene{Kind: storyboard.KindText, Content: "tail"}))
		section := board.Sections[0]
		assert.Equal(t, "tail", section.Scenes[len(section.Scenes)-1].Content)
	})

	t.Run("rejects an unknown section", func(t *testing.T) {
		board := testBoard()
		assert.Error(t, board.InsertScene(5, 0, storyboard.Scene{}))
		assert.Equal(t, 4, board.SceneCount())
	})
}

func TestRemoveScene(t *testing.T) {
	t.Run("removes and renumbers", func(t *testing.T) {
		board := testBoard()
		require.NoError(t, board.RemoveScene(2))
		assert.Equal(t, 3, board.SceneCount())
		assert.Equal(t, []int{1, 2, 3}, flatIDs(board))
	})

	t.Run("unknown id is a reported no-op", func(t *testing.T) {
		board := testBoard()
		err := board.RemoveScene(42)
		assert.ErrorIs(t, err, storyboard.ErrSceneNotFound)
		assert.Equal(t, 4, board.SceneCount())
	})
}

func TestMoveScene(t *testing.T) {
	t.Run("preserves attachments across sections", func(t *testing.T) {
		board := testBoard()
		// Scene 3 carries clip and music references; move it to the front.
		require.NoError(t, board.MoveScene(3, 0))

		moved := board.Flatten()[0]
		assert.Equal(t, 1, moved.ID) // renumbered
		require.NotNil(t, moved.ClipID)
		assert.Equal(t, "uploads/c.mp4", *moved.ClipID)
		require.NotNil(t, moved.MusicID)
		assert.Equal(t, "calm.mp3", *moved.MusicID)
		assert.Equal(t, 4, board.SceneCount())
	})

	t.Run("unknown id is a reported no-op", func(t *testing.T) {
		board := testBoard()
		before := flatIDs(board)
		err := board.MoveScene(99, 0)
		assert.ErrorIs(t, err, storyboard.ErrSceneNotFound)
		assert.Equal(t, before, flatIDs(board))
	})
}

func TestReorder(t *testing.T) {
	t.Run("moves a scene across sections by flattened index", func(t *testing.T) {
		board := testBoard()
		// Drag the first scene of section 0 between the two scenes of
		// section 1 (flattened index 2 after pickup).
		require.NoError(t, board.Reorder(0, 2))

		assert.Len(t, board.Sections[0].Scenes, 1)
		assert.Len(t, board.Sections[1].Scenes, 3)

		landed := board.Sections[1].Scenes[1]
		require.NotNil(t, landed.ClipID)
		assert.Equal(t, "uploads/a.mp4", *landed.ClipID)
		require.NotNil(t, landed.Script)
		assert.Equal(t, "First", *landed.Script)
		assert.Equal(t, []int{1, 2, 3, 4}, flatIDs(board))
	})

	t.Run("same source and destination is a no-op", func(t *testing.T) {
		board := testBoard()
		require.NoError(t, board.Reorder(1, 1))
		assert.Equal(t, "uploads/b.mp4", *board.Sections[0].Scenes[1].ClipID)
	})

	t.Run("rejects an out-of-range source", func(t *testing.T) {
		board := testBoard()
		assert.Error(t, board.Reorder(10, 0))
	})

	t.Run("clamps the destination to the timeline", func(t *testing.T) {
		board := testBoard()
		require.NoError(t, board.Reorder(0, 99))
		last := board.Flatten()[board.SceneCount()-1]
		require.NotNil(t, last.ClipID)
		assert.Equal(t, "uploads/a.mp4", *last.ClipID)
	})
}
