package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haivivi/gfifo/cmd/gfifo/internal/config"
	"github.com/haivivi/gfifo/pkg/fifo"
	"github.com/haivivi/gfifo/pkg/fifonet"
)

// setupTestEnv points the config at an empty temp file and returns its path.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(config.EnvPath, path)
	return path
}

// startServer serves a fresh FIFO and returns it with its WebSocket URL.
func startServer(t *testing.T, capacity int) (*fifo.FIFO, string) {
	t.Helper()
	f, err := fifo.New(fifo.Config{Capacity: capacity})
	require.NoError(t, err)
	srv, err := fifonet.NewServer(fifonet.ServerConfig{FIFO: f})
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		f.Close()
	})
	return f, "ws" + strings.TrimPrefix(ts.URL, "http") + fifonet.DefaultPath
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	return runCmdContext(t, context.Background(), "", args...)
}

func runCmdContext(t *testing.T, ctx context.Context, stdin string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	oldStdout := os.Stdout
	oldStderr := os.Stderr

	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout = wOut
	os.Stderr = wErr

	// Drain concurrently so a chatty command cannot fill the pipe.
	var outBuf, errBuf bytes.Buffer
	done := make(chan struct{}, 2)
	go func() { outBuf.ReadFrom(rOut); done <- struct{}{} }()
	go func() { errBuf.ReadFrom(rErr); done <- struct{}{} }()

	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	err := rootCmd.ExecuteContext(ctx)

	// Commands log through the default logger, which now holds wErr.
	setupLoggerTo(oldStderr)
	wOut.Close()
	wErr.Close()
	<-done
	<-done
	os.Stdout = oldStdout
	os.Stderr = oldStderr

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		stderr += err.Error()
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout, _, code := runCmd(t, "version")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "gfifo")

	stdout, _, code = runCmd(t, "version", "-o", "json")
	require.Equal(t, 0, code)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(stdout), &info), stdout)
	assert.Equal(t, "dev", info["version"])

	stdout, _, code = runCmd(t, "version", "-v")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "config:")
}

func TestBadOutputFormat(t *testing.T) {
	setupTestEnv(t)
	_, stderr, code := runCmd(t, "version", "-o", "table")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unsupported output format")
}

func TestConfigCommands(t *testing.T) {
	path := setupTestEnv(t)

	stdout, _, code := runCmd(t, "config", "path")
	require.Equal(t, 0, code)
	assert.Equal(t, path, strings.TrimSpace(stdout))

	_, stderr, code := runCmd(t, "config", "init", "--server", "ws://fifo.test:1234/fifo")
	require.Equal(t, 0, code, stderr)
	require.FileExists(t, path)

	_, stderr, code = runCmd(t, "config", "init")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")

	stdout, _, code = runCmd(t, "config", "view")
	require.Equal(t, 0, code)
	assert.Contains(t, stdout, "ws://fifo.test:1234/fifo")
	assert.Contains(t, stdout, "capacity: 4096")
}

func TestInvalidConfigFile(t *testing.T) {
	path := setupTestEnv(t)
	require.NoError(t, os.WriteFile(path, []byte("server:\n  capacity: -1\n"), 0644))

	_, stderr, code := runCmd(t, "stat")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "load config")
}

func TestClientCommands(t *testing.T) {
	setupTestEnv(t)
	f, url := startServer(t, 8)

	stdout, stderr, code := runCmd(t, "--server", url, "poll")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "ready: writable")

	// Blocking write loops until the rest fits; use --once for a short count.
	stdout, stderr, code = runCmd(t, "--server", url, "write", "--once", "hello", "world")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "written: 8")
	assert.Contains(t, stdout, "total: 11")
	assert.Equal(t, 8, f.Len())

	_, stderr, code = runCmd(t, "--server", url, "write", "-n", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "would block")

	stdout, stderr, code = runCmd(t, "--server", url, "-o", "json", "stat")
	require.Equal(t, 0, code, stderr)
	var st fifo.Stats
	require.NoError(t, json.Unmarshal([]byte(stdout), &st))
	assert.Equal(t, 8, st.Len)
	assert.Equal(t, 8, st.Cap)

	stdout, stderr, code = runCmd(t, "--server", url, "read", "--max", "5")
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "hello", stdout)

	out := filepath.Join(t.TempDir(), "rest.bin")
	_, stderr, code = runCmd(t, "--server", url, "read", "-f", out)
	require.Equal(t, 0, code, stderr)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, " wo", string(data))

	_, stderr, code = runCmd(t, "--server", url, "read", "-n")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "would block")

	stdout, stderr, code = runCmdContext(t, context.Background(), "stdin", "--server", url, "write", "-")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "written: 5")

	stdout, stderr, code = runCmd(t, "--server", url, "reset")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "buffer reset")
	assert.Equal(t, 0, f.Len())
}

func TestWriteBlocksUntilDrained(t *testing.T) {
	setupTestEnv(t)
	f, url := startServer(t, 4)

	go func() {
		buf := make([]byte, 4)
		got := 0
		for got < 10 {
			n, err := f.Read(context.Background(), buf, false)
			if err != nil {
				return
			}
			got += n
		}
	}()

	stdout, stderr, code := runCmd(t, "--server", url, "write", "0123456789")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "written: 10")
}

func TestPollWait(t *testing.T) {
	setupTestEnv(t)
	f, url := startServer(t, 4)

	go func() {
		for f.Stats().ReadWaiters == 0 {
			time.Sleep(time.Millisecond)
		}
		f.Write(context.Background(), []byte{1}, false)
	}()

	stdout, stderr, code := runCmd(t, "--server", url, "poll", "--read", "--wait")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "ready: readable")
	assert.Contains(t, stdout, "writable: false")
}

func TestReadInterrupted(t *testing.T) {
	setupTestEnv(t)
	_, url := startServer(t, 4)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, stderr, code := runCmdContext(t, ctx, "", "--server", url, "read")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "interrupted")
}

func TestWatch(t *testing.T) {
	setupTestEnv(t)
	f, url := startServer(t, 2)

	go func() {
		for f.Stats().Listeners == 0 {
			time.Sleep(time.Millisecond)
		}
		ctx := context.Background()
		f.Write(ctx, []byte{1, 2}, false)
		f.Read(ctx, make([]byte, 1), false)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stdout, stderr, code := runCmdContext(t, ctx, "", "--server", url, "watch", "--count", "2")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "gfifo watch")
	readable := strings.Index(stdout, "READABLE")
	writable := strings.Index(stdout, "WRITABLE")
	require.NotEqual(t, -1, readable, stdout)
	require.NotEqual(t, -1, writable, stdout)
	assert.Less(t, readable, writable)
}

func TestDialFailure(t *testing.T) {
	setupTestEnv(t)
	_, stderr, code := runCmd(t, "--server", "ws://127.0.0.1:1/fifo", "stat")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "dial")
}

func TestEncodedPayloads(t *testing.T) {
	setupTestEnv(t)
	f, url := startServer(t, 16)

	stdout, stderr, code := runCmd(t, "--server", url, "write", "--as", "hex", "00ff41")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "written: 3")
	assert.Equal(t, 3, f.Len())

	stdout, stderr, code = runCmd(t, "--server", url, "-o", "json", "read", "--as", "hex")
	require.Equal(t, 0, code, stderr)
	var res struct {
		Read int    `json:"read"`
		Data string `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res), stdout)
	assert.Equal(t, 3, res.Read)
	assert.Equal(t, "00ff41", res.Data)

	_, stderr, code = runCmd(t, "--server", url, "write", "--as", "base64", "not base64!")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "base64")

	_, stderr, code = runCmd(t, "--server", url, "read", "--as", "rot13")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "unknown encoding")
}
