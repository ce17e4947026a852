package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/quillpress/quill/src/oops"
)

type Number interface {
	~int | ~int32 | ~int64 | ~float64
}

// Returns the provided value, or a default value if the input was zero.
func OrDefault[T comparable](v T, def T) T {
	var zero T
	if v == zero {
		return def
	} else {
		return v
	}
}

func Min[T Number](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T Number](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func Clamp[T Number](min, t, max T) T {
	return Max(min, Min(t, max))
}

func NumPages(numThings, thingsPerPage int) int {
	if thingsPerPage <= 0 {
		return 1
	}
	return Max((numThings+thingsPerPage-1)/thingsPerPage, 1)
}

// Short random identifier made of lowercase hex, at most 32 characters long.
// Used for article ids, image filenames and edit sessions.
func RandomID(length int) string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return id[:Clamp(1, length, len(id))]
}

// Panics if err is non-nil. Handy for setup code that cannot continue.
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

func Must1[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Removes duplicates while keeping the order of first appearance.
func Dedupe[T comparable](items []T) []T {
	seen := make(map[T]struct{}, len(items))
	result := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		result = append(result, item)
	}
	return result
}

/*
Recover a panic and convert it to a returned error. Call it like so:

	func MyFunc() (err error) {
		defer utils.RecoverPanicAsError(&err)
	}

If an error was already present, the panicked error takes precedence and the
existing one is dropped. The panic almost always happens before a meaningful
error value was set, so in practice nothing is lost.
*/
func RecoverPanicAsError(err *error) {
	if r := recover(); r != nil {
		var recoveredErr error
		if rerr, ok := r.(error); ok {
			recoveredErr = rerr
		} else {
			recoveredErr = fmt.Errorf("panic with value: %v", r)
		}
		*err = oops.New(recoveredErr, "panic recovered as error")
	}
}
