package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sagarc03/filekeep"
)

// DefaultMaxBodyBytes caps request bodies when HandlerConfig.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 1 << 20

const filesPrefix = "/files/"

type Service interface {
	AddFile(ctx context.Context, env filekeep.Env, name, url string) (string, error)
	GetFile(ctx context.Context, key string) (filekeep.FileRecord, bool, error)
	GetUserFiles(ctx context.Context, account filekeep.Account) ([]filekeep.FileRecord, error)
	DeleteFile(ctx context.Context, env filekeep.Env, key string) error
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	// ReadVerifier guards GET routes. Nil means public reads.
	ReadVerifier RequestVerifier
	// WriteVerifier identifies the caller of POST and DELETE. It is required:
	// ownership cannot be decided without a caller.
	WriteVerifier RequestVerifier
	Clock         filekeep.Clock
	CORS          CORSConfig
	MaxBodyBytes  int64
	Logger        *slog.Logger
}

// Handler exposes the registry operations over HTTP.
type Handler struct {
	config   HandlerConfig
	service  Service
	validate *validator.Validate
}

// NewHandler creates a new Handler with the given configuration and service.
func NewHandler(config *HandlerConfig, service Service) (*Handler, error) {
	if service == nil {
		return nil, errors.New("new handler: service is required")
	}
	if config.WriteVerifier == nil {
		return nil, errors.New("new handler: write verifier is required")
	}

	cfg := *config
	if cfg.Clock == nil {
		cfg.Clock = filekeep.NewMonotonicClock()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Handler{
		config:   cfg,
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}, nil
}

// Router returns an http.Handler with all routes and middleware attached.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(RequestLogger(h.config.Logger))
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(writeRouteNotFound)
	r.MethodNotAllowed(writeMethodNotAllowed)

	r.Get("/healthz", h.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.ReadVerifier))
		r.Get("/files/*", h.handleGetFile)
		r.Get("/accounts/{account}/files", h.handleGetUserFiles)
	})

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(h.config.WriteVerifier))
		r.Post("/files", h.handleAddFile)
		r.Delete("/files/*", h.handleDeleteFile)
	})

	return r
}

// AddFileRequest is the body of POST /files. Both fields must be present;
// empty strings are allowed.
type AddFileRequest struct {
	Name *string `json:"name" validate:"required"`
	URL  *string `json:"url" validate:"required"`
}

// AddFileResponse is returned by POST /files.
type AddFileResponse struct {
	Key string `json:"key"`
}

// FileResponse is a record together with the key it is stored under.
type FileResponse struct {
	Key string `json:"key"`
	filekeep.FileRecord
}

// UserFilesResponse is returned by GET /accounts/{account}/files.
type UserFilesResponse struct {
	Items []FileResponse `json:"items"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleAddFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)

	var req AddFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body too large")
			return
		}
		WriteError(w, http.StatusBadRequest, "invalid_body", "Request body must be a JSON object")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_body", "Fields name and url are required")
		return
	}

	key, err := h.service.AddFile(r.Context(), h.env(r), *req.Name, *req.URL)
	if err != nil {
		HandleError(w, r, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, AddFileResponse{Key: key})
}

func (h *Handler) handleGetFile(w http.ResponseWriter, r *http.Request) {
	key := fileKey(r)

	rec, ok, err := h.service.GetFile(r.Context(), key)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if !ok {
		WriteError(w, http.StatusNotFound, "not_found", "File not found")
		return
	}

	_ = WriteJSON(w, http.StatusOK, FileResponse{Key: key, FileRecord: rec})
}

func (h *Handler) handleGetUserFiles(w http.ResponseWriter, r *http.Request) {
	account, err := accountParam(r)
	if err != nil || account == "" {
		WriteError(w, http.StatusBadRequest, "invalid_account", "Invalid account")
		return
	}

	files, err := h.service.GetUserFiles(r.Context(), filekeep.Account(account))
	if err != nil {
		HandleError(w, r, err)
		return
	}

	items := make([]FileResponse, 0, len(files))
	for _, f := range files {
		items = append(items, FileResponse{Key: filekeep.ContentKey(f.Name), FileRecord: f})
	}

	_ = WriteJSON(w, http.StatusOK, UserFilesResponse{Items: items})
}

func (h *Handler) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteFile(r.Context(), h.env(r), fileKey(r)); err != nil {
		HandleError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) env(r *http.Request) filekeep.Env {
	caller, _ := CallerFromContext(r.Context())
	return filekeep.Env{Caller: caller, Timestamp: h.config.Clock.Now()}
}

// accountParam returns the decoded {account} segment. chi matches against
// RawPath when the request carries one (an escaped '/' for example) and
// against the already decoded Path otherwise, so only the former needs
// unescaping.
func accountParam(r *http.Request) (string, error) {
	account := chi.URLParam(r, "account")
	if r.URL.RawPath == "" {
		return account, nil
	}
	return url.PathUnescape(account)
}

// fileKey returns the decoded key following /files/. Keys may contain '/'
// and '+', so clients percent-encode them.
func fileKey(r *http.Request) string {
	return strings.TrimPrefix(r.URL.Path, filesPrefix)
}
