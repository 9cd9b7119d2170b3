package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/opencpi/xkit/pkg/debug/xdiag"
	"github.com/opencpi/xkit/pkg/os/xerrno"
)

// runApp 执行命令并返回标准输出内容。
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(xdiag.ResetForTest)
	var out bytes.Buffer
	err := createApp(&out).Run(context.Background(), append([]string{"xsyncctl"}, args...))
	return out.String(), err
}

func TestErrnoCommand(t *testing.T) {
	code := int(xerrno.CodeDeadlock)
	out, err := runApp(t, "errno", strconv.Itoa(code), "mutex.lock")
	require.NoError(t, err)
	assert.Equal(t, xerrno.Describe(xerrno.CodeDeadlock, "mutex.lock")+"\n", out)
	assert.Contains(t, out, fmt.Sprintf("(code %d)", code))
}

func TestErrnoCommand_UsageErrors(t *testing.T) {
	for _, args := range [][]string{
		{"errno"},
		{"errno", "abc"},
		{"errno", "1", "ctx", "extra"},
	} {
		_, err := runApp(t, args...)
		var usageErr *usageError
		assert.True(t, errors.As(err, &usageErr), "args %v: got %v", args, err)
	}
}

func TestLevelCommand(t *testing.T) {
	out, err := runApp(t, "--log-level", "info", "level")
	require.NoError(t, err)
	assert.Contains(t, out, "level:   INFO (8)")
	assert.Contains(t, out, "backend: ")
	assert.Contains(t, out, fmt.Sprintf("checks:  %t", xdiag.ChecksEnabled()))
}

func TestGlobalFlags_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug2\n"), 0o600))

	out, err := runApp(t, "--config", path, "level")
	require.NoError(t, err)
	assert.Contains(t, out, "level:   DEBUG2 (20)")
}

func TestGlobalFlags_Invalid(t *testing.T) {
	_, err := runApp(t, "--log-level", "loud", "level")
	var usageErr *usageError
	require.ErrorAs(t, err, &usageErr)
	assert.ErrorContains(t, err, "invalid log level")

	_, err = runApp(t, "--config", filepath.Join(t.TempDir(), "diag.toml"), "level")
	require.ErrorAs(t, err, &usageErr)
}

func TestStressCommand(t *testing.T) {
	for _, p := range primitives {
		t.Run(p, func(t *testing.T) {
			out, err := runApp(t, "stress", "--primitive", p, "--goroutines", "4", "--iterations", "200")
			require.NoError(t, err)
			assert.Contains(t, out, p+": counter=800 expected=800")
			assert.Contains(t, out, "OK")
		})
	}
}

func TestStressCommand_InvalidArgs(t *testing.T) {
	tests := [][]string{
		{"stress", "--primitive", "futex"},
		{"stress", "--goroutines", "0"},
		{"stress", "--iterations=-1"},
		{"stress", "--goroutines", strconv.Itoa(maxGoroutines + 1)},
	}
	for _, args := range tests {
		_, err := runApp(t, args...)
		var usageErr *usageError
		assert.ErrorAs(t, err, &usageErr, "args %v", args)
	}
}

func TestRunStress_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := runStress(ctx, stressConfig{primitive: "spin", goroutines: 2, iterations: 10})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStressResult(t *testing.T) {
	ok := stressResult{Primitive: "mutex", Counter: 10, Expected: 10}
	assert.NoError(t, ok.check())
	assert.Contains(t, ok.String(), "OK")

	bad := stressResult{Primitive: "mutex", Counter: 9, Expected: 10}
	assert.ErrorIs(t, bad.check(), errStressMismatch)
	assert.Contains(t, bad.String(), "MISMATCH")
}

func TestStackCommand(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	done := make(chan string)
	go func() {
		b, _ := io.ReadAll(r)
		done <- string(b)
	}()

	_, runErr := runApp(t, "stack", "--fd", strconv.Itoa(int(w.Fd())))
	require.NoError(t, w.Close())
	out := <-done

	require.NoError(t, runErr)
	assert.Contains(t, out, "xdiag: backtrace:")
	assert.Contains(t, out, "goroutine ")
}

func TestStackCommand_BadFD(t *testing.T) {
	_, err := runApp(t, "stack", "--fd", "-1")
	assert.Error(t, err)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 2, exitCode(&usageError{msg: "bad"}))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 1, exitCode(fmt.Errorf("wrap: %w", errStressMismatch)))
	assert.Equal(t, 3, exitCode(cli.Exit("", 3)))
	assert.Equal(t, 4, exitCode(fmt.Errorf("wrap: %w", cli.Exit("", 4))))
	assert.Equal(t, 0, exitCode(cli.Exit("", 0)))
}

func TestRun_EntersShutdownBeforeExit(t *testing.T) {
	t.Cleanup(xdiag.ResetForTest)
	xdiag.SetLevel(xdiag.LevelNone)

	assert.Equal(t, 0, run([]string{"xsyncctl", "level"}))
	assert.True(t, xdiag.ShuttingDown())
}

func TestRun_UsageExitCode(t *testing.T) {
	t.Cleanup(xdiag.ResetForTest)
	assert.Equal(t, 2, run([]string{"xsyncctl", "stress", "--primitive", "nope"}))
	assert.True(t, xdiag.ShuttingDown())
}

func TestSetupSignalHandler_Stop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := setupSignalHandler(cancel)
	stop()
	stop()
	assert.NoError(t, ctx.Err())
}
