package clientcli

import "errors"

// Profile errors.
var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrNoProfiles          = errors.New("no profiles configured")
	ErrProfileExists       = errors.New("profile already exists")
	ErrProfileNameRequired = errors.New("profile name is required")
)

// Credential and input errors. They are returned before any request is sent.
var (
	ErrConfigRequired    = errors.New("config is required")
	ErrAccessKeyRequired = errors.New("access key is required")
	ErrSecretKeyRequired = errors.New("secret key is required")
	ErrNoKeys            = errors.New("no keys provided")
	ErrEmptyAccount      = errors.New("account is required")
)
