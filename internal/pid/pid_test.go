package pid_test

import (
	"os"
	"strconv"
	"testing"

	"codeberg.org/mutker/sleepctl/internal/errors"
	"codeberg.org/mutker/sleepctl/internal/pid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndRemove(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, pid.Write(dir))
	data, err := os.ReadFile(pid.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))

	require.NoError(t, pid.Remove(dir))
	_, err = os.Stat(pid.Path(dir))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, pid.Remove(dir), "Removing a missing PID file is not an error")
}

func TestWriteRefusesLiveProcess(t *testing.T) {
	dir := t.TempDir()
	// The parent process (the test runner) is alive.
	require.NoError(t, os.WriteFile(pid.Path(dir), []byte(strconv.Itoa(os.Getppid())), 0o600))

	err := pid.Write(dir)
	require.Error(t, err)
	assert.Equal(t, errors.ErrAlreadyRunning, errors.CodeOf(err))
}

func TestWriteReplacesStaleFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(pid.Path(dir), []byte("not a pid"), 0o600))

	require.NoError(t, pid.Write(dir))
	data, err := os.ReadFile(pid.Path(dir))
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(os.Getpid()), string(data))
}
