package setup

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubStep(label string, calls *[]string, err error) Step {
	return Step{
		Label: label,
		Run: func(context.Context) (any, error) {
			*calls = append(*calls, label)
			return label, err
		},
	}
}

func lines(s string) []string {
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

func TestRunner_PrintsInOrder(t *testing.T) {
	var out bytes.Buffer
	var calls []string

	r := NewRunner(&out,
		stubStep("A model", &calls, nil),
		stubStep("B dataset", &calls, nil),
	)
	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, []string{
		"Processing A model ... ",
		"Processing B dataset ... ",
		"That's all folks!",
	}, lines(out.String()))
	assert.Equal(t, []string{"A model", "B dataset"}, calls)
}

func TestRunner_StopsAtFirstFailure(t *testing.T) {
	var out bytes.Buffer
	var calls []string
	boom := errors.New("network unreachable")

	r := NewRunner(&out,
		stubStep("A model", &calls, nil),
		stubStep("B model", &calls, boom),
		stubStep("C dataset", &calls, nil),
	)

	err := r.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "B model")

	assert.Equal(t, []string{
		"Processing A model ... ",
		"Processing B model ... ",
	}, lines(out.String()))
	assert.Equal(t, []string{"A model", "B model"}, calls)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestRunner_WriteError(t *testing.T) {
	var calls []string
	r := NewRunner(failingWriter{}, stubStep("A model", &calls, nil))

	assert.ErrorContains(t, r.Run(context.Background()), "failed to write status")
	assert.Empty(t, calls)
}

func TestRunner_NoSteps(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, NewRunner(&out).Run(context.Background()))
	assert.Equal(t, "That's all folks!\n", out.String())
}
