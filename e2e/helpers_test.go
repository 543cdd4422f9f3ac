package e2e_test

import (
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	binDir      string
	buildErr    error
	buildOnce   sync.Once
	serverBin   string
	clientBin   string
	projectRoot string
)

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	var err error
	binDir, err = os.MkdirTemp("", "filekeep-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	if postgresCleanup != nil {
		postgresCleanup()
	}
	_ = os.RemoveAll(binDir)

	os.Exit(code)
}

// AuthKey is one inline access key of the server config.
type AuthKey struct {
	AccessKey string
	SecretKey string
	Account   string
}

// ServerConfig holds configuration for starting the filekeep server.
type ServerConfig struct {
	Port     int
	DBType   string // sqlite, postgres, bolt
	DBDSN    string
	Table    string
	AuthMode string // signature, header
	AuthRead string // public, private
	AuthKeys []AuthKey
}

// buildBinaries compiles the server and client binaries once per test run.
func buildBinaries(t *testing.T) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping e2e test in short mode")
	}

	buildOnce.Do(func() {
		projectRoot, buildErr = findProjectRoot()
		if buildErr != nil {
			return
		}

		serverBin = filepath.Join(binDir, "filekeep")
		clientBin = filepath.Join(binDir, "filekeep-cli")

		for bin, pkg := range map[string]string{serverBin: "./cmd/filekeep", clientBin: "./cmd/filekeep-cli"} {
			cmd := exec.Command("go", "build", "-o", bin, pkg)
			cmd.Dir = projectRoot
			output, err := cmd.CombinedOutput()
			if err != nil {
				buildErr = fmt.Errorf("build %s: %w\nOutput: %s", pkg, err, output)
				return
			}
		}
	})

	if buildErr != nil {
		t.Fatalf("failed to build binaries: %v", buildErr)
	}
}

// findProjectRoot walks up from the working directory to the go.mod.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// createConfigFile writes a server config file and returns its path.
func createConfigFile(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	if cfg.Table == "" {
		cfg.Table = "filekeep_files"
	}
	if cfg.AuthMode == "" {
		cfg.AuthMode = "signature"
	}
	if cfg.AuthRead == "" {
		cfg.AuthRead = "public"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `server:
  port: %d

database:
  type: %s
  dsn: "%s"
  tables:
    files: %s

auth:
  mode: %s
  read: %s
  header: X-Filekeep-Caller
`,
		cfg.Port,
		cfg.DBType,
		cfg.DBDSN,
		cfg.Table,
		cfg.AuthMode,
		cfg.AuthRead,
	)

	if len(cfg.AuthKeys) > 0 {
		sb.WriteString("  keys:\n    inline:\n")
		for _, key := range cfg.AuthKeys {
			fmt.Fprintf(&sb, "      - access_key: %s\n        secret_key: %s\n        account: %s\n",
				key.AccessKey, key.SecretKey, key.Account)
		}
	}

	sb.WriteString("\nlog:\n  level: error\n")

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configPath, []byte(sb.String()), 0o600)
	require.NoError(t, err, "write config file")

	return configPath
}

// migrateDatabase runs the migrate command against the configured database.
func migrateDatabase(t *testing.T, configPath string) {
	t.Helper()

	cmd := exec.Command(serverBin, "migrate", "--config", configPath)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "migrate database: %s", output)
}

// startServer migrates the database and starts the server.
// Returns the base URL and a function that stops the server.
func startServer(t *testing.T, cfg ServerConfig) (string, func()) {
	t.Helper()
	buildBinaries(t)

	configPath := createConfigFile(t, cfg)
	migrateDatabase(t, configPath)

	cmd := exec.Command(serverBin, "serve", "--config", configPath, "--auto-migrate=false")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	require.NoError(t, cmd.Start(), "start server")

	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)

	stop := func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
			cmd.Process = nil
		}
	}
	t.Cleanup(stop)

	waitForServer(t, baseURL, 10*time.Second)
	return baseURL, stop
}

// waitForServer polls the health endpoint until it responds or times out.
func waitForServer(t *testing.T, baseURL string, timeout time.Duration) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/healthz")
		if err == nil {
			_ = resp.Body.Close()
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Fatalf("server failed to start within %v", timeout)
}

// runClient runs the client binary with env appended to the process
// environment and returns its combined output.
func runClient(t *testing.T, env []string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(clientBin, args...)
	cmd.Env = append(os.Environ(), "FILEKEEP_CONFIG="+filepath.Join(t.TempDir(), "none.yaml"))
	cmd.Env = append(cmd.Env, env...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "find open port")

	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close(), "close port")

	return port
}
