package quilldata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEditorSet(t *testing.T) {
	t.Run("duplicates removed", func(t *testing.T) {
		assert.Equal(t, []int64{2, 3}, EditorSet(1, []int64{2, 3, 2, 3, 3}))
	})
	t.Run("author excluded", func(t *testing.T) {
		assert.Equal(t, []int64{2}, EditorSet(1, []int64{1, 2, 1}))
	})
	t.Run("nothing", func(t *testing.T) {
		assert.Empty(t, EditorSet(1, nil))
		assert.NotNil(t, EditorSet(1, nil))
	})
	t.Run("zero ids dropped", func(t *testing.T) {
		assert.Equal(t, []int64{5}, EditorSet(1, []int64{0, 5}))
	})
}

func TestCleanTags(t *testing.T) {
	tags, invalid := CleanTags([]string{" Go ", "go", "c++", "", "two words", "Node.js"})
	assert.Equal(t, []string{"go", "c++", "node.js"}, tags)
	assert.Equal(t, []string{"two words"}, invalid)

	tags, invalid = CleanTags(nil)
	assert.Empty(t, tags)
	assert.Empty(t, invalid)
}
