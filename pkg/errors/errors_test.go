package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"gptloader/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithStackTraceNil(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.WithStackTrace(nil))
	assert.NoError(t, errors.WithStackTraceAndPrefix(nil, "prefix"))
	assert.Empty(t, errors.ErrorStack(nil))
	assert.Empty(t, errors.StackTrace(nil))
}

func TestWithStackTraceKeepsCause(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("disk full")
	err := errors.WithStackTraceAndPrefix(cause, "failed to write %s", "output.txt")

	require.Error(t, err)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "failed to write output.txt")
	assert.Contains(t, err.Error(), "disk full")
	assert.Contains(t, errors.StackTrace(err), "errors_test.go")
}

func TestErrorfCarriesStack(t *testing.T) {
	t.Parallel()

	err := errors.Errorf("bad input %q", "x")

	assert.Equal(t, `bad input "x"`, err.Error())
	assert.Contains(t, errors.ErrorStack(err), "bad input")
}

func TestWithStackTraceKeepsExistingStack(t *testing.T) {
	t.Parallel()

	inner := errors.WithStackTraceAndPrefix(stderrors.New("disk full"), "failed to write record")
	assert.Same(t, inner, errors.WithStackTrace(inner))

	stack := errors.ErrorStack(inner)
	assert.Contains(t, stack, "failed to write record: disk full")
	assert.Contains(t, stack, "errors_test.go")
}

func TestWithStackTraceKeepsExitCode(t *testing.T) {
	t.Parallel()

	err := errors.WithStackTrace(errors.ErrorWithExitCode{Err: stderrors.New("usage"), ExitCode: 1, Silent: true})

	assert.Equal(t, 1, errors.ExitCode(err))
	assert.True(t, errors.IsSilent(err))
	assert.Contains(t, errors.ErrorStack(err), "usage")
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		err      error
		expected int
		silent   bool
	}{
		{name: "nil", err: nil, expected: 0},
		{name: "plain", err: stderrors.New("boom"), expected: 1},
		{
			name:     "explicit",
			err:      errors.ErrorWithExitCode{Err: stderrors.New("usage"), ExitCode: 1, Silent: true},
			expected: 1,
			silent:   true,
		},
		{
			name:     "wrapped",
			err:      fmt.Errorf("outer: %w", errors.ErrorWithExitCode{Err: stderrors.New("inner"), ExitCode: 3}),
			expected: 3,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.expected, errors.ExitCode(tc.err))
			assert.Equal(t, tc.silent, errors.IsSilent(tc.err))
		})
	}
}
