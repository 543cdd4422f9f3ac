// Package http exposes the file registry as a JSON API.
//
// # Routes
//
//	POST   /files                     register {"name","url"}; returns {"key"}
//	GET    /files/{key}               fetch one record, 404 if absent
//	GET    /accounts/{account}/files  first 100 records owned by account
//	DELETE /files/{key}               owner-only delete; 204 also when absent
//	GET    /healthz                   liveness
//
// Keys are standard base64 and may contain '/' and '+', so clients must
// percent-encode them in the path. Signatures cover the decoded path.
//
// # Authentication
//
// Write routes need a RequestVerifier that turns a request into the calling
// account. filekeep.SignatureVerifier accepts stowry-go native and AWS
// Signature V4 presigned URLs; HeaderVerifier trusts a header set by a
// proxy that already authenticated the user:
//
//	verifier := filekeep.NewSignatureVerifier(authCfg, secrets)
//
//	handler, err := http.NewHandler(&http.HandlerConfig{
//	    WriteVerifier: verifier,
//	    ReadVerifier:  nil, // public reads
//	}, registry)
//	router := handler.Router()
//
// # Errors
//
// Errors are JSON objects {"error","message"}. A delete by someone other
// than the owner returns 403 with error "ownership_violation".
package http
