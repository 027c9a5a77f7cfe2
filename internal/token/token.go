package token

import (
	"errors"
	"fmt"
	"time"

	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"github.com/google/uuid"
)

// Kind distinguishes what a token may be used for. The kind claim is
// mandatory: a decoded token missing it, or carrying an unknown value,
// is rejected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// ErrInvalid covers every decode failure: bad signature, wrong algorithm,
// expired, malformed payload, missing subject, missing or unknown kind.
// Callers must not surface the sub-reason to clients.
var ErrInvalid = errors.New("invalid token")

// Claims is the self-contained assertion carried by a signed token.
type Claims struct {
	Subject string
	Kind    Kind
	Expiry  time.Time
}

type kindClaim struct {
	Kind string `json:"kind"`
}

// Pair is an access/refresh pair minted together for one subject. The two
// tokens are independently signed and expire independently.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
}

// Codec signs and verifies compact tokens with a single process-wide
// secret and one fixed symmetric algorithm. Tokens signed with any other
// algorithm or secret fail verification outright.
type Codec struct {
	secret     []byte
	alg        gojose.SignatureAlgorithm
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// MinSecretLength is the smallest signing secret the codec accepts.
const MinSecretLength = 32

var supportedAlgorithms = map[string]gojose.SignatureAlgorithm{
	string(gojose.HS256): gojose.HS256,
	string(gojose.HS384): gojose.HS384,
	string(gojose.HS512): gojose.HS512,
}

// NewCodec builds a Codec from process-wide configuration. The algorithm
// must be a supported HMAC variant; anything else is a startup error.
func NewCodec(secret []byte, algorithm string, accessTTL, refreshTTL time.Duration) (*Codec, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}
	alg, ok := supportedAlgorithms[algorithm]
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
	}
	if accessTTL == 0 || refreshTTL == 0 {
		return nil, fmt.Errorf("token TTLs must be set")
	}
	return &Codec{secret: secret, alg: alg, accessTTL: accessTTL, refreshTTL: refreshTTL}, nil
}

// Encode serializes a signed token for subject. Expiry is always computed
// here from the configured TTL for kind; callers cannot supply their own.
func (c *Codec) Encode(subject string, kind Kind) (string, error) {
	ttl, err := c.ttl(kind)
	if err != nil {
		return "", err
	}

	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: c.alg, Key: c.secret},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := time.Now().UTC()
	std := gojwt.Claims{
		Subject:  subject,
		ID:       uuid.NewString(),
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(ttl)),
	}

	raw, err := gojwt.Signed(signer).Claims(std).Claims(kindClaim{Kind: string(kind)}).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return raw, nil
}

// Decode verifies the signature against the configured secret and exact
// algorithm, checks expiry against the current time, and requires a
// recognized kind. Every failure collapses to ErrInvalid.
func (c *Codec) Decode(raw string) (Claims, error) {
	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{c.alg})
	if err != nil {
		return Claims{}, ErrInvalid
	}

	var std gojwt.Claims
	var custom kindClaim
	if err := parsed.Claims(c.secret, &std, &custom); err != nil {
		return Claims{}, ErrInvalid
	}
	if std.Expiry == nil || std.Subject == "" {
		return Claims{}, ErrInvalid
	}
	if err := std.ValidateWithLeeway(gojwt.Expected{Time: time.Now().UTC()}, 0); err != nil {
		return Claims{}, ErrInvalid
	}

	kind := Kind(custom.Kind)
	if kind != KindAccess && kind != KindRefresh {
		return Claims{}, ErrInvalid
	}

	return Claims{Subject: std.Subject, Kind: kind, Expiry: std.Expiry.Time()}, nil
}

// IssuePair mints an access/refresh pair for subject. ExpiresIn reports
// the access token lifetime in seconds.
func (c *Codec) IssuePair(subject string) (Pair, error) {
	access, err := c.Encode(subject, KindAccess)
	if err != nil {
		return Pair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := c.Encode(subject, KindRefresh)
	if err != nil {
		return Pair{}, fmt.Errorf("issue refresh token: %w", err)
	}
	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(c.accessTTL.Seconds()),
	}, nil
}

func (c *Codec) ttl(kind Kind) (time.Duration, error) {
	switch kind {
	case KindAccess:
		return c.accessTTL, nil
	case KindRefresh:
		return c.refreshTTL, nil
	default:
		return 0, fmt.Errorf("unknown token kind %q", kind)
	}
}
