package app

import (
	"fmt"
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogf(lines *[]string) func(string, ...interface{}) {
	return func(format string, args ...interface{}) {
		*lines = append(*lines, fmt.Sprintf(format, args...))
	}
}

func TestSetMaxProcs_HonorsEnvironment(t *testing.T) {
	t.Setenv("GOMAXPROCS", "3")
	before := runtime.GOMAXPROCS(0)

	var lines []string
	undo := setMaxProcs(captureLogf(&lines))
	require.NotNil(t, undo)
	defer undo()

	assert.Equal(t, before, runtime.GOMAXPROCS(0))
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], `Honoring GOMAXPROCS="3"`)
}

func TestSetMaxProcs_UndoRestores(t *testing.T) {
	if _, ok := os.LookupEnv("GOMAXPROCS"); ok {
		t.Skip("GOMAXPROCS is set in the environment")
	}
	before := runtime.GOMAXPROCS(0)

	var lines []string
	undo := setMaxProcs(captureLogf(&lines))
	require.NotNil(t, undo)
	assert.GreaterOrEqual(t, runtime.GOMAXPROCS(0), 1)

	undo()
	assert.Equal(t, before, runtime.GOMAXPROCS(0))
}
