// Package config loads the filekeep server configuration.
//
// Sources are layered with viper. Each layer overrides the one before it:
// built-in defaults, YAML files, FILEKEEP_* environment variables, then
// flags the user actually set. Nested keys map to environment variables by
// replacing dots with underscores, so auth.read becomes FILEKEEP_AUTH_READ.
//
// The merged result is checked with go-playground/validator struct tags and
// then the table names are validated, since they are interpolated into SQL:
//
//	cfg, err := config.Load([]string{"/etc/filekeep/config.yaml"}, cmd.Flags())
//	if err != nil {
//	    return err
//	}
//	ctx = config.WithContext(ctx, cfg)
package config
