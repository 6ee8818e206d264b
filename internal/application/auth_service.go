package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/example/room-reservation/internal/scheduler"
)

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// SessionClaims are the JWT claims issued at login. The subject is the user ID.
type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthServiceConfig wires the dependencies of an AuthService.
type AuthServiceConfig struct {
	Credentials CredentialStore
	Users       UserDirectory
	Verify      PasswordVerifier
	Secret      []byte
	TokenTTL    time.Duration
	Issuer      string
	Now         func() time.Time
	Logger      *slog.Logger
}

// AuthService logs users in with email and password and resolves the HS256
// session tokens it issues back to actors.
type AuthService struct {
	credentials    CredentialStore
	users          UserDirectory
	verifyPassword PasswordVerifier
	secret         []byte
	ttl            time.Duration
	issuer         string
	now            func() time.Time
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService with the provided dependencies.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.Verify == nil {
		cfg.Verify = VerifyPassword
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "room-reservation"
	}
	return &AuthService{
		credentials:    cfg.Credentials,
		users:          cfg.Users,
		verifyPassword: cfg.Verify,
		secret:         cfg.Secret,
		ttl:            cfg.TokenTTL,
		issuer:         cfg.Issuer,
		now:            cfg.Now,
		logger:         defaultLogger(cfg.Logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

// Login validates credentials and issues a signed session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (result LoginResult, err error) {
	if s == nil {
		err = fmt.Errorf("AuthService is nil")
		return
	}
	if s.credentials == nil {
		err = fmt.Errorf("credential store not configured")
		return
	}
	if len(s.secret) == 0 {
		err = fmt.Errorf("token secret not configured")
		return
	}

	email = strings.TrimSpace(strings.ToLower(email))
	logger := s.loggerWith(ctx, "Login", "email", email)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "login failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", result.User.ID).InfoContext(ctx, "login succeeded")
	}()

	if email == "" || password == "" {
		err = ErrInvalidCredentials
		return
	}

	var creds UserCredentials
	creds, err = s.credentials.GetUserCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}
	if err = s.verifyPassword(creds.PasswordHash, password); err != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	expiresAt := now.Add(s.ttl)
	claims := SessionClaims{
		Role: string(creds.User.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   creds.User.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	var token string
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		err = fmt.Errorf("sign token: %w", err)
		return
	}

	result = LoginResult{Token: token, ExpiresAt: expiresAt.Truncate(time.Second), User: creds.User}
	return
}

// Authenticate validates a session token and returns the actor it names. The
// role comes from the user directory so a stale token cannot widen access.
func (s *AuthService) Authenticate(ctx context.Context, token string) (scheduler.Actor, error) {
	if s == nil {
		return scheduler.Actor{}, fmt.Errorf("AuthService is nil")
	}
	token = strings.TrimSpace(token)
	if token == "" || len(s.secret) == 0 {
		return scheduler.Actor{}, ErrInvalidToken
	}

	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithTimeFunc(s.now),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return scheduler.Actor{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return scheduler.Actor{}, ErrInvalidToken
	}

	if s.users == nil {
		role, ok := scheduler.ParseRole(claims.Role)
		if !ok {
			return scheduler.Actor{}, fmt.Errorf("%w: unknown role", ErrInvalidToken)
		}
		return scheduler.Actor{ID: claims.Subject, Role: role}, nil
	}

	user, err := s.users.GetUser(ctx, claims.Subject)
	if err != nil {
		if errors.Is(mapRepoError(err), ErrNotFound) {
			return scheduler.Actor{}, fmt.Errorf("%w: unknown subject", ErrInvalidToken)
		}
		return scheduler.Actor{}, err
	}
	return user.Actor(), nil
}
