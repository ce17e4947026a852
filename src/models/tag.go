package models

import (
	"regexp"
	"strings"
)

type Tag struct {
	Name string `db:"name"`
}

const MaxTagLength = 30

var REValidTag = regexp.MustCompile(`^[a-z0-9]+([-.+#][a-z0-9]*)*$`)

// Lowercased and trimmed. Tags are compared in this form.
func NormalizeTag(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func ValidateTagText(text string) bool {
	if text == "" || len(text) > MaxTagLength {
		return false
	}
	return REValidTag.MatchString(text)
}
