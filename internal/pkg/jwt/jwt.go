package jwt

import (
	"errors"
	"fmt"
	"slices"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer   = "tourrental"
	audience = "staff"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrUnknownRole  = errors.New("unknown staff role")
)

// staffRoles are the only roles a token may carry.
var staffRoles = []string{"admin", "manager", "agent"}

// Service issues and checks staff access tokens. The user id travels as the subject.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Claims is the decoded form of a staff token.
type Claims struct {
	UserID uuid.UUID `json:"-"`
	Role   string    `json:"role"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *Service) GenerateToken(userID uuid.UUID, role string) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("%w: empty user id", ErrInvalidToken)
	}
	if !slices.Contains(staffRoles, role) {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}

	now := s.now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID.String(),
			Audience:  jwtlib.ClaimStrings{audience},
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(s.ttl)),
			ID:        uuid.NewString(),
		},
	}
	return jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(s.secret)
}

// ValidateToken checks signature, expiry, issuer and audience, then resolves the subject
// into a user id. Every failure wraps ErrInvalidToken.
func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwtlib.ParseWithClaims(tokenStr, claims, func(*jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithIssuer(issuer),
		jwtlib.WithAudience(audience),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	if !slices.Contains(staffRoles, claims.Role) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, ErrUnknownRole)
	}
	claims.UserID = userID
	return claims, nil
}
