package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestHelperProcess acts as the backup command when the test binary is
// re-invoked with GO_WANT_HELPER_PROCESS=1.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	fmt.Fprintln(os.Stdout, "output that nobody reads")
	fmt.Fprintln(os.Stderr, "helper writing to stderr")

	if os.Getenv("GO_HELPER_BLOCK") == "1" {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGTERM)
		select {
		case <-sig:
			os.Exit(143)
		case <-time.After(30 * time.Second):
			os.Exit(0)
		}
	}

	code, _ := strconv.Atoi(os.Getenv("GO_HELPER_EXIT_CODE"))
	os.Exit(code)
}

func helperRunner(env ...string) *Runner {
	r := NewRunner(os.Args[0], []string{"-test.run=TestHelperProcess", "--"}, nil)
	r.Env = append([]string{"GO_WANT_HELPER_PROCESS=1"}, env...)
	return r
}

func TestRunner_Success(t *testing.T) {
	h, err := helperRunner("GO_HELPER_EXIT_CODE=0").Start(context.Background())
	require.NoError(t, err)

	outcome := h.Wait()
	assert.True(t, outcome.Success())
	assert.Equal(t, 0, outcome.ExitCode)
	assert.NoError(t, outcome.Err)
}

func TestRunner_NonZeroExit(t *testing.T) {
	h, err := helperRunner("GO_HELPER_EXIT_CODE=1").Start(context.Background())
	require.NoError(t, err)

	outcome := h.Wait()
	assert.False(t, outcome.Success())
	assert.Equal(t, 1, outcome.ExitCode)
	assert.NoError(t, outcome.Err)
}

func TestRunner_Terminate(t *testing.T) {
	h, err := helperRunner("GO_HELPER_BLOCK=1").Start(context.Background())
	require.NoError(t, err)

	// give the helper a moment to install its signal handler
	time.Sleep(200 * time.Millisecond)
	h.Terminate()

	outcome := h.Wait()
	assert.False(t, outcome.Success())
}

func TestRunner_ContextCancelTerminates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h, err := helperRunner("GO_HELPER_BLOCK=1").Start(ctx)
	require.NoError(t, err)

	time.Sleep(200 * time.Millisecond)
	cancel()

	outcome := h.Wait()
	assert.False(t, outcome.Success())
}

func TestRunner_WaitTwice(t *testing.T) {
	h, err := helperRunner().Start(context.Background())
	require.NoError(t, err)

	h.Wait()
	second := h.Wait()
	assert.ErrorIs(t, second.Err, ErrAlreadyWaited)
	assert.False(t, second.Success())
}

func TestRunner_MissingBinary(t *testing.T) {
	r := NewRunner("/nonexistent/backup-tool", nil, nil)
	_, err := r.Start(context.Background())
	assert.Error(t, err)
}

func TestOutcome_Success(t *testing.T) {
	assert.True(t, Outcome{ExitCode: 0}.Success())
	assert.False(t, Outcome{ExitCode: 2}.Success())
	assert.False(t, Failed(assert.AnError).Success())
	assert.Equal(t, -1, Failed(assert.AnError).ExitCode)
}
