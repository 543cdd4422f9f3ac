package filekeep

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	stowrysign "github.com/sagarc03/stowry-go"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	MaxExpiresSeconds  = 604800 // 7 days
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"
)

// Credential is what a SecretStore knows about one access key.
type Credential struct {
	SecretKey string
	// Account is the identity requests signed with this key act as.
	// Empty means the access key itself.
	Account Account
}

// Identity returns the account a credential authenticates as.
func (c Credential) Identity(accessKey string) Account {
	if c.Account != "" {
		return c.Account
	}
	return Account(accessKey)
}

// SecretStore resolves the credential belonging to an access key.
type SecretStore interface {
	// Lookup returns the credential for accessKey, or an error wrapping
	// ErrUnauthorized if the key is unknown.
	Lookup(accessKey string) (Credential, error)
}

// AuthConfig holds the AWS Signature V4 scope a verifier accepts.
type AuthConfig struct {
	Region  string `mapstructure:"region"`
	Service string `mapstructure:"service"`
}

// SignatureVerifier verifies presigned requests and reports the identity
// behind the access key that signed them. Two schemes are accepted: native signatures produced by
// stowry-go (X-Stowry-* parameters) and AWS Signature V4 presigned URLs
// (X-Amz-* parameters). Native signatures are checked first.
type SignatureVerifier struct {
	cfg   AuthConfig
	store SecretStore
	now   func() time.Time
}

// NewSignatureVerifier creates a verifier for the given scope and secret store.
func NewSignatureVerifier(cfg AuthConfig, store SecretStore) *SignatureVerifier {
	return &SignatureVerifier{cfg: cfg, store: store, now: time.Now}
}

// Verify checks the signature carried by r and returns the identity of the
// access key that produced it.
func (v *SignatureVerifier) Verify(r *http.Request) (Account, error) {
	query := r.URL.Query()

	if query.Get(stowrysign.StowrySignatureParam) != "" {
		return v.verifyNative(r.Method, r.URL.Path, query)
	}

	if query.Get("X-Amz-Signature") != "" {
		headers := r.Header.Clone()
		headers.Set("Host", r.Host)
		return v.verifyAWS(r.Method, r.URL.Path, query, headers)
	}

	return "", fmt.Errorf("no supported signature found: %w", ErrUnauthorized)
}

func (v *SignatureVerifier) verifyNative(method, path string, query url.Values) (Account, error) {
	accessKey := query.Get(stowrysign.StowryCredentialParam)
	dateStr := query.Get(stowrysign.StowryDateParam)
	expiresStr := query.Get(stowrysign.StowryExpiresParam)
	signature := query.Get(stowrysign.StowrySignatureParam)

	if accessKey == "" || dateStr == "" || expiresStr == "" || signature == "" {
		return "", fmt.Errorf("missing required signature parameters: %w", ErrUnauthorized)
	}

	timestamp, err := strconv.ParseInt(dateStr, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid %s: %w", stowrysign.StowryDateParam, ErrUnauthorized)
	}

	expires, err := strconv.ParseInt(expiresStr, 10, 64)
	if err != nil || expires <= 0 || expires > MaxExpiresSeconds {
		return "", fmt.Errorf("invalid %s: must be between 1 and %d: %w", stowrysign.StowryExpiresParam, MaxExpiresSeconds, ErrUnauthorized)
	}

	if v.now().After(time.Unix(timestamp, 0).Add(time.Duration(expires) * time.Second)) {
		return "", fmt.Errorf("signature expired: %w", ErrUnauthorized)
	}

	cred, err := v.store.Lookup(accessKey)
	if err != nil {
		return "", fmt.Errorf("invalid access key: %w", err)
	}

	expected := stowrysign.Sign(cred.SecretKey, method, path, timestamp, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return "", fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return cred.Identity(accessKey), nil
}

// awsPresign holds the X-Amz-* parameters of a presigned URL.
type awsPresign struct {
	algorithm     string
	accessKey     string
	scope         awsScope
	requestTime   time.Time
	expires       int
	signedHeaders string
	signature     string
}

// awsScope is the credential scope: date/region/service/aws4_request.
type awsScope struct {
	date    string
	region  string
	service string
}

func (s awsScope) String() string {
	return s.date + "/" + s.region + "/" + s.service + "/aws4_request"
}

func (v *SignatureVerifier) verifyAWS(method, path string, query url.Values, headers http.Header) (Account, error) {
	p, err := parseAWSPresign(query)
	if err != nil {
		return "", err
	}
	if err := v.checkAWSPresign(p); err != nil {
		return "", err
	}

	cred, err := v.store.Lookup(p.accessKey)
	if err != nil {
		return "", fmt.Errorf("invalid access key: %w", err)
	}

	expected := awsSignature(cred.SecretKey, method, path, query, headers, p.requestTime, p.scope, p.signedHeaders)
	if !hmac.Equal([]byte(expected), []byte(p.signature)) {
		return "", fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return cred.Identity(p.accessKey), nil
}

func parseAWSPresign(query url.Values) (*awsPresign, error) {
	p := &awsPresign{
		algorithm:     query.Get("X-Amz-Algorithm"),
		signedHeaders: query.Get("X-Amz-SignedHeaders"),
		signature:     query.Get("X-Amz-Signature"),
	}
	credential := query.Get("X-Amz-Credential")
	date := query.Get("X-Amz-Date")
	expires := query.Get("X-Amz-Expires")

	for _, required := range []string{p.algorithm, credential, date, expires, p.signedHeaders, p.signature} {
		if required == "" {
			return nil, fmt.Errorf("missing required signature parameters: %w", ErrUnauthorized)
		}
	}

	var err error
	if p.requestTime, err = time.Parse(DateTimeFormat, date); err != nil {
		return nil, fmt.Errorf("invalid X-Amz-Date format: %w", ErrUnauthorized)
	}

	p.expires, err = strconv.Atoi(expires)
	if err != nil || p.expires <= 0 || p.expires > MaxExpiresSeconds {
		return nil, fmt.Errorf("invalid X-Amz-Expires: must be between 1 and %d: %w", MaxExpiresSeconds, ErrUnauthorized)
	}

	parts := strings.Split(credential, "/")
	if len(parts) != 5 {
		return nil, fmt.Errorf("invalid X-Amz-Credential format: %w", ErrUnauthorized)
	}
	if parts[4] != "aws4_request" {
		return nil, fmt.Errorf("invalid credential terminator: expected aws4_request: %w", ErrUnauthorized)
	}
	p.accessKey = parts[0]
	p.scope = awsScope{date: parts[1], region: parts[2], service: parts[3]}

	return p, nil
}

func (v *SignatureVerifier) checkAWSPresign(p *awsPresign) error {
	switch {
	case p.algorithm != SignatureAlgorithm:
		return fmt.Errorf("invalid algorithm: expected %s, got %s: %w", SignatureAlgorithm, p.algorithm, ErrUnauthorized)
	case v.now().After(p.requestTime.Add(time.Duration(p.expires) * time.Second)):
		return fmt.Errorf("signature expired: %w", ErrUnauthorized)
	case p.scope.date != p.requestTime.Format(DateFormat):
		return fmt.Errorf("credential date mismatch: %w", ErrUnauthorized)
	case p.scope.region != v.cfg.Region:
		return fmt.Errorf("region mismatch: expected %s, got %s: %w", v.cfg.Region, p.scope.region, ErrUnauthorized)
	case p.scope.service != v.cfg.Service:
		return fmt.Errorf("service mismatch: expected %s, got %s: %w", v.cfg.Service, p.scope.service, ErrUnauthorized)
	}
	return nil
}

// SignAWS computes the AWS Signature V4 signature for a presigned request.
// query must already carry every X-Amz-* parameter except the signature.
func SignAWS(secretKey, method, path string, query url.Values, headers http.Header, requestTime time.Time, region, service string) string {
	scope := awsScope{date: requestTime.Format(DateFormat), region: region, service: service}
	return awsSignature(secretKey, method, path, query, headers, requestTime, scope, query.Get("X-Amz-SignedHeaders"))
}

// awsSignature signs an UNSIGNED-PAYLOAD canonical request.
func awsSignature(secretKey, method, path string, query url.Values, headers http.Header, requestTime time.Time, scope awsScope, signedHeaders string) string {
	unsigned := url.Values{}
	for k, vals := range query {
		if k != "X-Amz-Signature" {
			unsigned[k] = vals
		}
	}

	names := strings.Split(signedHeaders, ";")
	sort.Strings(names)
	var canonicalHeaders strings.Builder
	for _, name := range names {
		canonicalHeaders.WriteString(name + ":" + strings.TrimSpace(headers.Get(name)) + "\n")
	}

	canonicalRequest := strings.Join([]string{
		method,
		path,
		unsigned.Encode(),
		canonicalHeaders.String(),
		signedHeaders,
		"UNSIGNED-PAYLOAD",
	}, "\n")
	digest := sha256.Sum256([]byte(canonicalRequest))

	stringToSign := strings.Join([]string{
		SignatureAlgorithm,
		requestTime.Format(DateTimeFormat),
		scope.String(),
		hex.EncodeToString(digest[:]),
	}, "\n")

	key := []byte("AWS4" + secretKey)
	for _, part := range []string{scope.date, scope.region, scope.service, "aws4_request"} {
		key = hmacSHA256(key, []byte(part))
	}
	return hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}
