package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateTagText(t *testing.T) {
	assert.True(t, ValidateTagText("go"))
	assert.True(t, ValidateTagText("c++"))
	assert.True(t, ValidateTagText("c#"))
	assert.True(t, ValidateTagText("node.js"))
	assert.True(t, ValidateTagText("web-dev"))

	assert.False(t, ValidateTagText(""))
	assert.False(t, ValidateTagText("Go"))
	assert.False(t, ValidateTagText("two words"))
	assert.False(t, ValidateTagText("-leading"))
	assert.False(t, ValidateTagText("abcdefghijklmnopqrstuvwxyz012345"))
}

func TestNormalizeTag(t *testing.T) {
	assert.Equal(t, "go", NormalizeTag("  Go "))
	assert.Equal(t, "c++", NormalizeTag("C++"))
}

func TestCanEdit(t *testing.T) {
	article := Article{AuthorID: 1}
	assert.True(t, article.CanEdit(1, nil))
	assert.True(t, article.CanEdit(2, []int64{3, 2}))
	assert.False(t, article.CanEdit(4, []int64{3, 2}))
}
