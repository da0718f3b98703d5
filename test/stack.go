//go:build e2e

package test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	e2eDatabase  = "e2e"
	e2eJWTSecret = "test-e2e-secret-with-32-plus-characters-for-hs256-validation"
	stderrKeep   = 64 * 1024
)

// stack is one MongoDB container plus one server process talking to it.
type stack struct {
	BaseURL string
	WSURL   string
}

// startStack boots a fresh stack for t. env overrides the server defaults.
func startStack(t *testing.T, env map[string]string) *stack {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	t.Cleanup(cancel)

	uri := startMongo(ctx, t)

	port, err := freePort()
	require.NoError(t, err)

	stderr := &tailBuffer{max: stderrKeep}
	cmd := serverCommand(uri, port, env)
	cmd.Stderr = stderr
	t.Logf("launching server on :%d", port)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		stopProcess(cmd)
		if out := stderr.String(); out != "" {
			t.Logf("server stderr:\n%s", out)
		}
	})

	s := &stack{
		BaseURL: fmt.Sprintf("http://127.0.0.1:%d", port),
		WSURL:   fmt.Sprintf("ws://127.0.0.1:%d", port),
	}
	require.NoError(t, s.waitReady(30*time.Second), "server never became ready")
	return s
}

func startMongo(ctx context.Context, t *testing.T) string {
	t.Helper()
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:8.0",
			ExposedPorts: []string{"27017/tcp"},
			Env: map[string]string{
				"MONGO_INITDB_ROOT_USERNAME": "root",
				"MONGO_INITDB_ROOT_PASSWORD": "example",
			},
			WaitingFor: wait.ForExec([]string{"mongosh", "--quiet", "--eval", "db.adminCommand('ping')"}).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "27017")
	require.NoError(t, err)
	return fmt.Sprintf("mongodb://root:example@%s:%s/", host, port.Port())
}

// serverCommand prefers a prebuilt BIN_SERVER and falls back to go run.
func serverCommand(mongoURI string, port int, extra map[string]string) *exec.Cmd {
	var cmd *exec.Cmd
	if bin := os.Getenv("BIN_SERVER"); bin != "" {
		cmd = exec.Command(bin)
	} else {
		cmd = exec.Command("go", "run", "./cmd/server")
		cmd.Dir = ".."
	}
	// own process group so go run's child dies with it
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	env := map[string]string{
		"MONGO_URI":     mongoURI,
		"MONGO_DB_NAME": e2eDatabase,
		"JWT_SECRET":    e2eJWTSecret,
		"LOG_LEVEL":     "info",
		"APP_PORT":      strconv.Itoa(port),
	}
	for k, v := range extra {
		env[k] = v
	}
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return cmd
}

func stopProcess(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
		_ = syscall.Kill(-pgid, syscall.SIGTERM)
	}
	done := make(chan struct{})
	go func() {
		_ = cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		if pgid, err := syscall.Getpgid(cmd.Process.Pid); err == nil {
			_ = syscall.Kill(-pgid, syscall.SIGKILL)
		}
		<-done
	}
}

func (s *stack) waitReady(timeout time.Duration) error {
	client := &http.Client{Timeout: 2 * time.Second}
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := client.Get(s.BaseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("no healthy answer from %s within %s", s.BaseURL, timeout)
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
