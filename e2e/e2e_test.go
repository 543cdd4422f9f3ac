package e2e_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/filekeep"
	"github.com/sagarc03/filekeep/clientcli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKeys = []AuthKey{
	{AccessKey: "ALICEKEY", SecretKey: "alice-secret", Account: "alice"},
	{AccessKey: "BOBKEY", SecretKey: "bob-secret", Account: "bob"},
}

func newClient(t *testing.T, baseURL, accessKey, secretKey string) *clientcli.Client {
	t.Helper()

	c, err := clientcli.New(&clientcli.Config{Endpoint: baseURL, AccessKey: accessKey, SecretKey: secretKey})
	require.NoError(t, err)
	return c
}

// TestE2E_Registry_SQLite runs the registry lifecycle against SQLite.
func TestE2E_Registry_SQLite(t *testing.T) {
	baseURL, _ := startServer(t, ServerConfig{
		Port:     getOpenPort(t),
		DBType:   "sqlite",
		DBDSN:    filepath.Join(t.TempDir(), "test.db"),
		AuthKeys: testKeys,
	})

	runRegistryTests(t, baseURL)
}

// TestE2E_Registry_Bolt runs the registry lifecycle against bbolt.
func TestE2E_Registry_Bolt(t *testing.T) {
	baseURL, _ := startServer(t, ServerConfig{
		Port:     getOpenPort(t),
		DBType:   "bolt",
		DBDSN:    filepath.Join(t.TempDir(), "test.bolt"),
		AuthKeys: testKeys,
	})

	runRegistryTests(t, baseURL)
}

// TestE2E_Registry_Postgres runs the registry lifecycle against PostgreSQL.
func TestE2E_Registry_Postgres(t *testing.T) {
	buildBinaries(t)
	dsn := getSharedPostgresDatabase(t)

	baseURL, _ := startServer(t, ServerConfig{
		Port:     getOpenPort(t),
		DBType:   "postgres",
		DBDSN:    dsn,
		Table:    "e2e_registry_files",
		AuthKeys: testKeys,
	})

	runRegistryTests(t, baseURL)
}

// runRegistryTests contains the shared lifecycle checks.
func runRegistryTests(t *testing.T, baseURL string) {
	t.Helper()
	ctx := context.Background()

	alice := newClient(t, baseURL, "ALICEKEY", "alice-secret")
	bob := newClient(t, baseURL, "BOBKEY", "bob-secret")
	anonymous := newClient(t, baseURL, "", "")

	names := []string{"f0", "f1", "f2", "f3", "f4"}
	keys := make([]string, len(names))

	t.Run("add returns the content key", func(t *testing.T) {
		for i, name := range names {
			added, err := alice.AddFile(ctx, name, "https://cdn.example.com/"+name)
			require.NoError(t, err)
			assert.Equal(t, filekeep.ContentKey(name), added.Key)
			keys[i] = added.Key
		}
	})

	t.Run("get returns the record", func(t *testing.T) {
		file, err := anonymous.GetFile(ctx, keys[2])
		require.NoError(t, err)
		assert.Equal(t, "f2", file.Name)
		assert.Equal(t, "https://cdn.example.com/f2", file.URL)
		assert.Equal(t, "alice", file.Owner)
	})

	t.Run("get of an unknown key is not found", func(t *testing.T) {
		_, err := anonymous.GetFile(ctx, filekeep.ContentKey("nope"))
		assert.ErrorIs(t, err, clientcli.ErrNotFound)
	})

	t.Run("non-owner cannot delete", func(t *testing.T) {
		results, err := bob.DeleteFiles(ctx, []string{keys[1]})
		require.NoError(t, err)
		assert.ErrorIs(t, results[0].Err, clientcli.ErrForbidden)
	})

	t.Run("delete moves the last record into the freed slot", func(t *testing.T) {
		results, err := alice.DeleteFiles(ctx, []string{keys[1]})
		require.NoError(t, err)
		require.NoError(t, results[0].Err)

		list, err := anonymous.ListFiles(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"f0", "f4", "f2", "f3"}, fileNames(list))
	})

	t.Run("re-adding transfers ownership and keeps position", func(t *testing.T) {
		_, err := bob.AddFile(ctx, "f4", "https://mirror.example.com/f4")
		require.NoError(t, err)

		list, err := anonymous.ListFiles(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, []string{"f0", "f2", "f3"}, fileNames(list))

		list, err = anonymous.ListFiles(ctx, "bob")
		require.NoError(t, err)
		assert.Equal(t, []string{"f4"}, fileNames(list))
		assert.Equal(t, "https://mirror.example.com/f4", list.Items[0].URL)
	})

	t.Run("deleting a missing key succeeds", func(t *testing.T) {
		results, err := bob.DeleteFiles(ctx, []string{filekeep.ContentKey("never-added")})
		require.NoError(t, err)
		assert.True(t, results[0].Deleted)
	})

	t.Run("unsigned writes are rejected", func(t *testing.T) {
		body := strings.NewReader(`{"name":"x","url":"y"}`)
		resp, err := http.Post(baseURL+"/files", "application/json", body)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func fileNames(list *clientcli.ListResult) []string {
	names := make([]string, len(list.Items))
	for i, item := range list.Items {
		names[i] = item.Name
	}
	return names
}

// TestE2E_Restart checks that records and their order survive a restart.
func TestE2E_Restart(t *testing.T) {
	cfg := ServerConfig{
		DBType:   "bolt",
		DBDSN:    filepath.Join(t.TempDir(), "restart.bolt"),
		AuthKeys: testKeys,
	}
	ctx := context.Background()

	cfg.Port = getOpenPort(t)
	baseURL, stop := startServer(t, cfg)
	alice := newClient(t, baseURL, "ALICEKEY", "alice-secret")
	for _, name := range []string{"a", "b", "c"} {
		_, err := alice.AddFile(ctx, name, "https://cdn.example.com/"+name)
		require.NoError(t, err)
	}
	_, err := alice.DeleteFiles(ctx, []string{filekeep.ContentKey("a")})
	require.NoError(t, err)
	stop()

	cfg.Port = getOpenPort(t)
	baseURL, _ = startServer(t, cfg)
	list, err := newClient(t, baseURL, "", "").ListFiles(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, fileNames(list))
}

// TestE2E_PrivateReads checks that auth.read=private requires signed reads.
func TestE2E_PrivateReads(t *testing.T) {
	baseURL, _ := startServer(t, ServerConfig{
		Port:     getOpenPort(t),
		DBType:   "sqlite",
		DBDSN:    filepath.Join(t.TempDir(), "private.db"),
		AuthRead: "private",
		AuthKeys: testKeys,
	})
	ctx := context.Background()

	alice := newClient(t, baseURL, "ALICEKEY", "alice-secret")
	added, err := alice.AddFile(ctx, "secret.txt", "https://cdn.example.com/secret.txt")
	require.NoError(t, err)

	_, err = newClient(t, baseURL, "", "").GetFile(ctx, added.Key)
	assert.ErrorIs(t, err, clientcli.ErrUnauthorized)

	file, err := newClient(t, baseURL, "BOBKEY", "bob-secret").GetFile(ctx, added.Key)
	require.NoError(t, err)
	assert.Equal(t, "alice", file.Owner)
}

// TestE2E_HeaderMode checks caller identification by a trusted header.
func TestE2E_HeaderMode(t *testing.T) {
	baseURL, _ := startServer(t, ServerConfig{
		Port:     getOpenPort(t),
		DBType:   "sqlite",
		DBDSN:    filepath.Join(t.TempDir(), "header.db"),
		AuthMode: "header",
	})

	send := func(method, path, caller string, body []byte) *http.Response {
		req, err := http.NewRequest(method, baseURL+path, bytes.NewReader(body))
		require.NoError(t, err)
		if caller != "" {
			req.Header.Set("X-Filekeep-Caller", caller)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	resp := send(http.MethodPost, "/files", "carol", []byte(`{"name":"abc","url":"https://cdn/abc"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var added struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	assert.Equal(t, filekeep.ContentKey("abc"), added.Key)

	keyPath := "/files/" + added.Key

	resp = send(http.MethodPost, "/files", "", []byte(`{"name":"x","url":"y"}`))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = send(http.MethodDelete, keyPath, "dave", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = send(http.MethodDelete, keyPath, "carol", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = send(http.MethodGet, keyPath, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// TestE2E_ClientBinary drives the server through the client binary.
func TestE2E_ClientBinary(t *testing.T) {
	baseURL, _ := startServer(t, ServerConfig{
		Port:     getOpenPort(t),
		DBType:   "sqlite",
		DBDSN:    filepath.Join(t.TempDir(), "cli.db"),
		AuthKeys: testKeys,
	})

	alice := []string{
		"FILEKEEP_ENDPOINT=" + baseURL,
		"FILEKEEP_ACCESS_KEY=ALICEKEY",
		"FILEKEEP_SECRET_KEY=alice-secret",
	}
	anonymous := []string{"FILEKEEP_ENDPOINT=" + baseURL}

	out, err := runClient(t, alice, "add", "-q", "report.pdf", "https://cdn.example.com/report.pdf")
	require.NoError(t, err, out)
	assert.Equal(t, filekeep.ContentKey("report.pdf"), strings.TrimSpace(out))

	out, err = runClient(t, anonymous, "get", "-q", "--by-name", "report.pdf")
	require.NoError(t, err, out)
	assert.Equal(t, "https://cdn.example.com/report.pdf", strings.TrimSpace(out))

	out, err = runClient(t, anonymous, "list", "--json", "alice")
	require.NoError(t, err, out)
	var list clientcli.ListResult
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	assert.Equal(t, []string{"report.pdf"}, fileNames(&list))

	out, err = runClient(t, anonymous, "delete", "--by-name", "report.pdf")
	require.Error(t, err)
	assert.Contains(t, out, "access key is required")

	out, err = runClient(t, alice, "delete", "--by-name", "report.pdf")
	require.NoError(t, err, out)

	out, err = runClient(t, anonymous, "list", "-q", "alice")
	require.NoError(t, err, out)
	assert.Empty(t, strings.TrimSpace(out))
}
