package tunnel

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	stdin string
	line  string
}

type fakeResponse struct {
	out string
	err error
}

// fakeRunner answers commands by their full command line.
type fakeRunner struct {
	mu        sync.Mutex
	calls     []call
	responses map[string]fakeResponse
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: make(map[string]fakeResponse)}
}

func (f *fakeRunner) on(line, out string, err error) *fakeRunner {
	f.responses[line] = fakeResponse{out: out, err: err}
	return f
}

func (f *fakeRunner) Run(_ context.Context, stdin string, name string, args ...string) (string, error) {
	line := strings.Join(append([]string{name}, args...), " ")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{stdin: stdin, line: line})

	if r, ok := f.responses[line]; ok {
		return r.out, r.err
	}
	return "", nil
}

func (f *fakeRunner) lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.line
	}
	return out
}

func failure(line string, code int) error {
	return &CommandError{Command: line, ExitCode: code, Stderr: "boom", Err: errors.New("exit status")}
}

func TestExecRunner_Output(t *testing.T) {
	if !Available("sh") {
		t.Skip("sh not available")
	}
	r := &ExecRunner{Timeout: 5 * time.Second}

	out, err := r.Run(context.Background(), "", "sh", "-c", "echo hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)

	out, err = r.Run(context.Background(), "from stdin", "sh", "-c", "cat")
	require.NoError(t, err)
	assert.Equal(t, "from stdin", out)
}

func TestExecRunner_ExitStatus(t *testing.T) {
	if !Available("sh") {
		t.Skip("sh not available")
	}
	r := &ExecRunner{Timeout: 5 * time.Second}

	_, err := r.Run(context.Background(), "", "sh", "-c", "echo oops 1>&2; exit 3")
	var cmdErr *CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Equal(t, 3, cmdErr.ExitCode)
	assert.Equal(t, "oops", cmdErr.Stderr)
}

func TestExecRunner_Timeout(t *testing.T) {
	if !Available("sleep") {
		t.Skip("sleep not available")
	}
	r := &ExecRunner{Timeout: 50 * time.Millisecond}

	_, err := r.Run(context.Background(), "", "sleep", "5")
	assert.ErrorIs(t, err, ErrCommandTimeout)
}
