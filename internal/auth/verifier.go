package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"careergpt-api/internal/config"
	"careergpt-api/internal/logging"
)

// certsURL publishes the x509 certificates the identity provider signs ID
// tokens with, rotated every few hours.
const certsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// Identity is the caller identity derived from a verified bearer token.
// It lives for one request; only the UID is ever persisted, as the owner
// attribute on analyses and progress rows.
type Identity struct {
	UID   string
	Email string
}

// Verifier validates identity-provider ID tokens. Safe for concurrent use;
// one instance is shared across all requests.
type Verifier struct {
	projectID  string
	httpClient *http.Client
	logger     logging.Logger

	mu           sync.RWMutex
	certs        map[string]*rsa.PublicKey
	certsExpiry  time.Time
	fetchCertsFn func(ctx context.Context) (map[string]*rsa.PublicKey, time.Time, error)
}

// NewVerifier creates a token verifier bound to the configured
// identity-provider project. The project id comes from config.Auth.ProjectID
// when set, otherwise from the service account credentials file.
func NewVerifier(cfg *config.Config) (*Verifier, error) {
	projectID := cfg.Auth.ProjectID
	if projectID == "" {
		var err error
		projectID, err = ProjectIDFromCredentials(cfg.Auth.CredentialsFile)
		if err != nil {
			return nil, err
		}
	}

	v := &Verifier{
		projectID:  projectID,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logging.GetGlobalLogger(),
	}
	v.fetchCertsFn = v.fetchCerts
	return v, nil
}

// ProjectID returns the identity-provider project tokens are verified against.
func (v *Verifier) ProjectID() string {
	return v.projectID
}

// VerifyIDToken verifies a bearer ID token and returns the caller identity.
// Any failure (missing, malformed, expired, wrong project, bad signature)
// yields an error; handlers map it to 401. There is no retry: verification
// failure is terminal for the request.
func (v *Verifier) VerifyIDToken(ctx context.Context, rawToken string) (*Identity, error) {
	if rawToken == "" {
		return nil, fmt.Errorf("empty token")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, func(t *jwt.Token) (interface{}, error) {
		kid, ok := t.Header["kid"].(string)
		if !ok || kid == "" {
			return nil, fmt.Errorf("token has no key id")
		}
		return v.publicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer("https://securetoken.google.com/"+v.projectID),
		jwt.WithAudience(v.projectID),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf("token has no subject")
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is not valid")
	}

	identity := &Identity{UID: claims.Subject}
	if email := emailClaim(rawToken); email != "" {
		identity.Email = email
	}

	return identity, nil
}

// publicKey returns the signing key for the given key id, refreshing the
// cached certificate set when it has expired or the kid is unknown.
func (v *Verifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.certs[kid]
	fresh := time.Now().Before(v.certsExpiry)
	v.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}

	certs, expiry, err := v.fetchCertsFn(ctx)
	if err != nil {
		// A stale cert beats no cert while the provider is unreachable.
		if ok {
			v.logger.Warn("Using stale signing certs", map[string]interface{}{"error": err.Error()})
			return key, nil
		}
		return nil, err
	}

	v.mu.Lock()
	v.certs = certs
	v.certsExpiry = expiry
	key, ok = certs[kid]
	v.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no signing cert for key id %s", kid)
	}
	return key, nil
}

var maxAgeRe = regexp.MustCompile(`max-age=(\d+)`)

// fetchCerts downloads the current signing certificates. The response is a
// map of kid to PEM certificate; Cache-Control max-age bounds reuse.
func (v *Verifier) fetchCerts(ctx context.Context) (map[string]*rsa.PublicKey, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, certsURL, nil)
	if err != nil {
		return nil, time.Time{}, err
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to fetch signing certs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, time.Time{}, fmt.Errorf("signing cert endpoint returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, time.Time{}, err
	}

	var pemCerts map[string]string
	if err := json.Unmarshal(body, &pemCerts); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse signing certs: %w", err)
	}

	certs := make(map[string]*rsa.PublicKey, len(pemCerts))
	for kid, pemData := range pemCerts {
		block, _ := pem.Decode([]byte(pemData))
		if block == nil {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			continue
		}
		if rsaKey, ok := cert.PublicKey.(*rsa.PublicKey); ok {
			certs[kid] = rsaKey
		}
	}

	if len(certs) == 0 {
		return nil, time.Time{}, fmt.Errorf("signing cert endpoint returned no usable certs")
	}

	expiry := time.Now().Add(time.Hour)
	if match := maxAgeRe.FindStringSubmatch(resp.Header.Get("Cache-Control")); len(match) == 2 {
		if seconds, err := strconv.Atoi(match[1]); err == nil {
			expiry = time.Now().Add(time.Duration(seconds) * time.Second)
		}
	}

	return certs, expiry, nil
}

// emailClaim pulls the email custom claim without re-verifying; the token
// signature has already been checked by the time this runs.
func emailClaim(rawToken string) string {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(rawToken, claims); err != nil {
		return ""
	}
	if email, ok := claims["email"].(string); ok {
		return email
	}
	return ""
}
