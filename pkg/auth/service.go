package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrInvalidSubject       = errors.New("invalid subject in token")
)

// AuthService resolves the caller's identity from a request.
// The assistant serves anonymous visitors, so resolution never fails a
// request: every error path collapses to a nil identity.
type AuthService interface {
	// ResolveIdentity inspects the Authorization header and the client's
	// asserted authenticated flag. It returns a resolved identity, or nil for
	// anonymous traffic. The client flag alone is never trusted: without a
	// validated token the result is nil regardless of the flag.
	ResolveIdentity(r *http.Request, claimedAuthenticated bool) *Identity
}

type authService struct {
	validator TokenValidator
	logger    *zap.Logger
}

// NewAuthService creates a new AuthService with the given token validator.
func NewAuthService(validator TokenValidator, logger *zap.Logger) AuthService {
	return &authService{
		validator: validator,
		logger:    logger.Named("auth"),
	}
}

var _ AuthService = (*authService)(nil)

func (s *authService) ResolveIdentity(r *http.Request, claimedAuthenticated bool) *Identity {
	if !claimedAuthenticated {
		return nil
	}

	tokenString, err := extractBearerToken(r)
	if err != nil {
		s.logger.Debug("No usable bearer token, treating as anonymous",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return nil
	}

	claims, err := s.validator.ValidateToken(tokenString)
	if err != nil {
		s.logger.Debug("Token validation failed, treating as anonymous",
			zap.String("path", r.URL.Path),
			zap.Error(err))
		return nil
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		s.logger.Debug("Token subject is not a user ID, treating as anonymous",
			zap.String("subject", claims.Subject))
		return nil
	}

	return &Identity{
		UserID: userID,
		Email:  claims.Email,
	}
}

// extractBearerToken pulls the token out of the Authorization header.
func extractBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", ErrInvalidAuthFormat
	}

	return parts[1], nil
}
