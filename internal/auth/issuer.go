// Package auth issues the short-lived credentials that authorize a single
// tool invocation on the remote tool-execution server. Tokens are HS256 JWTs
// signed with a secret shared with that server, bound to the exact tool name
// and a digest of the argument set, so an intercepted token cannot authorize
// a different call.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTTL is the validity window when none is configured: long enough to
// cross the network to the tool server and back, short enough to limit the
// replay value of a leaked token.
const DefaultTTL = 60 * time.Second

// ConfigError reports a missing or unusable signing secret. It is raised at
// construction time and is fatal for startup; the process must not accept
// requests without a valid secret.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "signing configuration error: " + e.Reason
}

// CallClaims is the claim set bound into every issued credential. The tool
// server validates the signature, the expiry, and that tool and args_sha256
// match the invocation it is asked to perform.
type CallClaims struct {
	Tool       string `json:"tool"`
	ArgsSHA256 string `json:"args_sha256"`
	SessionID  string `json:"sid"`
	jwt.RegisteredClaims
}

// Issuer mints credentials. It is immutable after construction and safe for
// concurrent use.
type Issuer struct {
	secret []byte
	ttl    time.Duration

	now func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, &ConfigError{Reason: "JWT secret is not configured"}
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// TTL returns the configured validity window.
func (i *Issuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs a credential scoped to one invocation of tool with args.
// Every call carries a fresh issued-at timestamp and a unique jti, so two
// tokens for the same invocation are never identical and tokens are not
// reusable across invocations.
func (i *Issuer) Issue(tool string, args map[string]any) (string, error) {
	digest, err := ArgsDigest(args)
	if err != nil {
		return "", fmt.Errorf("failed to digest tool arguments: %w", err)
	}

	now := i.now()
	claims := CallClaims{
		Tool:       tool,
		ArgsSHA256: digest,
		SessionID:  "session-" + uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}
	return signed, nil
}

// ArgsDigest computes the hex SHA-256 of the canonical JSON encoding of the
// argument set. encoding/json writes map keys in sorted order, so the digest
// is stable across equivalent argument maps.
func ArgsDigest(args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	canonical, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
