package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestInstaTicker(t *testing.T) {
	it := NewInstaTicker(time.Hour)

	select {
	case <-it.C:
	case <-time.After(time.Second):
		assert.Fail(t, "the first tick should arrive immediately")
	}

	select {
	case <-it.C:
		assert.Fail(t, "the second tick should wait for the interval")
	case <-time.After(50 * time.Millisecond):
	}

	it.Stop()
	select {
	case <-it.C:
		assert.Fail(t, "no ticks after stop")
	case <-time.After(50 * time.Millisecond):
	}
}
