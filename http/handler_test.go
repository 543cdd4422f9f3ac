package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/sagarc03/filekeep"
	filekeephttp "github.com/sagarc03/filekeep/http"
	"github.com/sagarc03/filekeep/keybackend"
	"github.com/sagarc03/filekeep/memory"
	stowrysign "github.com/sagarc03/stowry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const callerHeader = "X-Filekeep-Caller"

// MockService is a mock implementation of http.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) AddFile(ctx context.Context, env filekeep.Env, name, url string) (string, error) {
	args := m.Called(ctx, env, name, url)
	return args.String(0), args.Error(1)
}

func (m *MockService) GetFile(ctx context.Context, key string) (filekeep.FileRecord, bool, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(filekeep.FileRecord), args.Bool(1), args.Error(2)
}

func (m *MockService) GetUserFiles(ctx context.Context, account filekeep.Account) ([]filekeep.FileRecord, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]filekeep.FileRecord), args.Error(1)
}

func (m *MockService) DeleteFile(ctx context.Context, env filekeep.Env, key string) error {
	args := m.Called(ctx, env, key)
	return args.Error(0)
}

func newMockHandler(t *testing.T) (http.Handler, *MockService) {
	t.Helper()

	service := new(MockService)
	handler, err := filekeephttp.NewHandler(&filekeephttp.HandlerConfig{
		WriteVerifier: filekeephttp.HeaderVerifier{Header: callerHeader},
		Clock:         filekeep.ClockFunc(func() uint64 { return 99 }),
	}, service)
	require.NoError(t, err)

	return handler.Router(), service
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewHandler(t *testing.T) {
	_, err := filekeephttp.NewHandler(&filekeephttp.HandlerConfig{
		WriteVerifier: filekeephttp.HeaderVerifier{Header: callerHeader},
	}, nil)
	assert.Error(t, err)

	_, err = filekeephttp.NewHandler(&filekeephttp.HandlerConfig{}, new(MockService))
	assert.Error(t, err, "write verifier is required")
}

func TestHandler_AddFile(t *testing.T) {
	t.Run("creates file for caller", func(t *testing.T) {
		router, service := newMockHandler(t)
		service.On("AddFile", mock.Anything, filekeep.Env{Caller: "alice", Timestamp: 99}, "report.pdf", "https://x/r").
			Return("KEY=", nil)

		req := httptest.NewRequest(http.MethodPost, "/files", strings.NewReader(`{"name":"report.pdf","url":"https://x/r"}`))
		req.Header.Set(callerHeader, "alice")
		rec := serve(router, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.JSONEq(t, `{"key":"KEY="}`, rec.Body.String())
		service.AssertExpectations(t)
	})

	t.Run("empty strings are accepted", func(t *testing.T) {
		router, service := newMockHandler(t)
		service.On("AddFile", mock.Anything, mock.Anything, "", "").Return("k", nil)

		req := httptest.NewRequest(http.MethodPost, "/files", strings.NewReader(`{"name":"","url":""}`))
		req.Header.Set(callerHeader, "alice")

		assert.Equal(t, http.StatusCreated, serve(router, req).Code)
	})

	tests := []struct {
		name     string
		body     string
		caller   string
		wantCode int
		wantBody string
	}{
		{name: "missing caller", body: `{"name":"a","url":"b"}`, wantCode: http.StatusUnauthorized, wantBody: "unauthorized"},
		{name: "malformed json", body: `{"name":`, caller: "alice", wantCode: http.StatusBadRequest, wantBody: "invalid_body"},
		{name: "missing url", body: `{"name":"a"}`, caller: "alice", wantCode: http.StatusBadRequest, wantBody: "invalid_body"},
		{name: "null name", body: `{"name":null,"url":"b"}`, caller: "alice", wantCode: http.StatusBadRequest, wantBody: "invalid_body"},
		{
			name:     "body too large",
			body:     fmt.Sprintf(`{"name":"%s","url":"b"}`, strings.Repeat("x", filekeephttp.DefaultMaxBodyBytes)),
			caller:   "alice",
			wantCode: http.StatusRequestEntityTooLarge,
			wantBody: "payload_too_large",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, service := newMockHandler(t)

			req := httptest.NewRequest(http.MethodPost, "/files", strings.NewReader(tt.body))
			if tt.caller != "" {
				req.Header.Set(callerHeader, tt.caller)
			}
			rec := serve(router, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			service.AssertNotCalled(t, "AddFile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestHandler_GetFile(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		router, service := newMockHandler(t)
		rec := filekeep.FileRecord{Name: "a", URL: "u", Timestamp: 18446744073709551615, Owner: "alice"}
		service.On("GetFile", mock.Anything, "ab/c+d=").Return(rec, true, nil)

		resp := serve(router, httptest.NewRequest(http.MethodGet, "/files/"+url.PathEscape("ab/c+d="), http.NoBody))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t,
			`{"key":"ab/c+d=","name":"a","url":"u","timestamp":"18446744073709551615","owner":"alice"}`,
			resp.Body.String())
	})

	t.Run("absent", func(t *testing.T) {
		router, service := newMockHandler(t)
		service.On("GetFile", mock.Anything, "missing").Return(filekeep.FileRecord{}, false, nil)

		resp := serve(router, httptest.NewRequest(http.MethodGet, "/files/missing", http.NoBody))

		assert.Equal(t, http.StatusNotFound, resp.Code)
		assert.Contains(t, resp.Body.String(), "not_found")
	})

	t.Run("backend failure", func(t *testing.T) {
		router, service := newMockHandler(t)
		service.On("GetFile", mock.Anything, "k").Return(filekeep.FileRecord{}, false, errors.New("db down"))

		resp := serve(router, httptest.NewRequest(http.MethodGet, "/files/k", http.NoBody))

		assert.Equal(t, http.StatusInternalServerError, resp.Code)
	})
}

func TestHandler_GetUserFiles(t *testing.T) {
	t.Run("lists files with keys", func(t *testing.T) {
		router, service := newMockHandler(t)
		service.On("GetUserFiles", mock.Anything, filekeep.Account("alice.near")).Return([]filekeep.FileRecord{
			{Name: "a", URL: "u", Timestamp: 1, Owner: "alice.near"},
		}, nil)

		resp := serve(router, httptest.NewRequest(http.MethodGet, "/accounts/alice.near/files", http.NoBody))

		require.Equal(t, http.StatusOK, resp.Code)
		var body filekeephttp.UserFilesResponse
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, filekeep.ContentKey("a"), body.Items[0].Key)
		assert.Equal(t, "a", body.Items[0].Name)
	})

	t.Run("empty list is an array", func(t *testing.T) {
		router, service := newMockHandler(t)
		service.On("GetUserFiles", mock.Anything, filekeep.Account("nobody")).Return([]filekeep.FileRecord{}, nil)

		resp := serve(router, httptest.NewRequest(http.MethodGet, "/accounts/nobody/files", http.NoBody))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"items":[]}`, resp.Body.String())
	})

	accounts := []struct {
		path string
		want filekeep.Account
	}{
		{path: "/accounts/a%2541/files", want: "a%41"},
		{path: "/accounts/a%25/files", want: "a%"},
		{path: "/accounts/alice%2Fx/files", want: "alice/x"},
		{path: "/accounts/alice%2F%2541/files", want: "alice/%41"},
	}
	for _, tt := range accounts {
		t.Run("account decoded once "+tt.path, func(t *testing.T) {
			router, service := newMockHandler(t)
			service.On("GetUserFiles", mock.Anything, tt.want).Return([]filekeep.FileRecord{}, nil)

			resp := serve(router, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))

			assert.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
			service.AssertExpectations(t)
		})
	}
}

func TestHandler_DeleteFile(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "deleted", wantCode: http.StatusNoContent},
		{name: "not owner", err: fmt.Errorf("delete file k: %w", filekeep.ErrOwnershipViolation), wantCode: http.StatusForbidden},
		{name: "backend failure", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, service := newMockHandler(t)
			service.On("DeleteFile", mock.Anything, filekeep.Env{Caller: "bob", Timestamp: 99}, "k").Return(tt.err)

			req := httptest.NewRequest(http.MethodDelete, "/files/k", http.NoBody)
			req.Header.Set(callerHeader, "bob")

			assert.Equal(t, tt.wantCode, serve(router, req).Code)
			service.AssertExpectations(t)
		})
	}

	t.Run("anonymous delete is rejected before the service", func(t *testing.T) {
		router, service := newMockHandler(t)

		resp := serve(router, httptest.NewRequest(http.MethodDelete, "/files/k", http.NoBody))

		assert.Equal(t, http.StatusUnauthorized, resp.Code)
		service.AssertNotCalled(t, "DeleteFile", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandler_Routes(t *testing.T) {
	router, _ := newMockHandler(t)

	health := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody))
	assert.Equal(t, http.StatusOK, health.Code)
	assert.NotEmpty(t, health.Header().Get(filekeephttp.RequestIDHeader))

	unknown := serve(router, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))
	assert.Equal(t, http.StatusNotFound, unknown.Code)
	assert.Contains(t, unknown.Body.String(), "route_not_found")

	wrongMethod := serve(router, httptest.NewRequest(http.MethodPut, "/files/k", http.NoBody))
	assert.Equal(t, http.StatusMethodNotAllowed, wrongMethod.Code)
}

// signedRequest builds a request carrying a native presigned signature for
// the decoded path.
func signedRequest(t *testing.T, method, baseURL, path, accessKey, secretKey string, body []byte) *http.Request {
	t.Helper()

	ts := time.Now().Unix()
	q := url.Values{}
	q.Set(stowrysign.StowryCredentialParam, accessKey)
	q.Set(stowrysign.StowryDateParam, strconv.FormatInt(ts, 10))
	q.Set(stowrysign.StowryExpiresParam, "900")
	q.Set(stowrysign.StowrySignatureParam, stowrysign.Sign(secretKey, method, path, ts, 900))

	escaped := (&url.URL{Path: path}).EscapedPath()
	req, err := http.NewRequest(method, baseURL+escaped+"?"+q.Encode(), bytes.NewReader(body))
	require.NoError(t, err)
	return req
}

func TestHandler_EndToEnd(t *testing.T) {
	registry, err := filekeep.NewRegistry(memory.NewStore(), filekeep.RegistryConfig{})
	require.NoError(t, err)

	secrets := keybackend.NewMapSecretStore(map[string]filekeep.Credential{
		"ALICEKEY": {SecretKey: "alice-secret", Account: "alice.near"},
		"BOBKEY":   {SecretKey: "bob-secret", Account: "bob.near"},
	})
	verifier := filekeep.NewSignatureVerifier(filekeep.AuthConfig{Region: "us-east-1", Service: "filekeep"}, secrets)

	handler, err := filekeephttp.NewHandler(&filekeephttp.HandlerConfig{WriteVerifier: verifier}, registry)
	require.NoError(t, err)

	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	do := func(req *http.Request) *http.Response {
		resp, err := server.Client().Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	// Alice registers a file; its key contains '/' or '+' often enough that
	// we pick a name whose key does.
	name := "quarterly-report.pdf"
	for i := 0; !strings.ContainsAny(filekeep.ContentKey(name), "/+"); i++ {
		name = fmt.Sprintf("quarterly-report-%d.pdf", i)
	}

	body, _ := json.Marshal(map[string]string{"name": name, "url": "https://cdn/r.pdf"})
	resp := do(signedRequest(t, http.MethodPost, server.URL, "/files", "ALICEKEY", "alice-secret", body))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var added filekeephttp.AddFileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&added))
	assert.Equal(t, filekeep.ContentKey(name), added.Key)

	getURL := server.URL + (&url.URL{Path: "/files/" + added.Key}).EscapedPath()
	getReq, err := http.NewRequest(http.MethodGet, getURL, http.NoBody)
	require.NoError(t, err)
	resp = do(getReq)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got filekeephttp.FileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, filekeep.Account("alice.near"), got.Owner)
	assert.NotZero(t, got.Timestamp)

	// Bob cannot delete it.
	resp = do(signedRequest(t, http.MethodDelete, server.URL, "/files/"+added.Key, "BOBKEY", "bob-secret", nil))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Alice can, and a second delete is a no-op.
	for i := 0; i < 2; i++ {
		resp = do(signedRequest(t, http.MethodDelete, server.URL, "/files/"+added.Key, "ALICEKEY", "alice-secret", nil))
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	}

	listReq, err := http.NewRequest(http.MethodGet, server.URL+"/accounts/alice.near/files", http.NoBody)
	require.NoError(t, err)
	resp = do(listReq)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var list filekeephttp.UserFilesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	assert.Empty(t, list.Items)
}
