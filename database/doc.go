// Package database connects the registry to a record backend chosen by
// configuration.
//
// # Supported Backends
//
//   - memory: process-local store, lost on restart
//   - sqlite: single-file SQL database using modernc.org/sqlite
//   - postgres: shared database using a pgx connection pool
//   - bolt: embedded key/value file using bbolt
//
// # Usage
//
//	cfg := database.Config{
//	    Type:   "sqlite",
//	    DSN:    "filekeep.db",
//	    Tables: filekeep.Tables{Files: "filekeep_files"},
//	}
//
//	db, err := database.Open(ctx, cfg, true)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	registry, err := filekeep.NewRegistry(db.GetStore(), filekeep.RegistryConfig{})
//
// Every backend keeps the same iteration order: new keys are appended,
// replaced keys keep their place and a deleted key's place is taken by the
// last key.
package database
