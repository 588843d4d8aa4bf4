package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/apperr"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/logging"
	usersdomain "github.com/GoSim-25-26J-441/timetrack-backend/internal/users/domain"
)

const msgBadCredentials = "The provided credentials are incorrect."

// Accounts creates users. The users service satisfies it.
type Accounts interface {
	Create(ctx context.Context, req usersdomain.CreateRequest) (*usersdomain.User, error)
}

// Credentials looks a user up with its password hash.
type Credentials interface {
	GetByEmail(ctx context.Context, email string) (*usersdomain.User, error)
}

// Revocations stores logged out token ids.
type Revocations interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	Revoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthService struct {
	accounts    Accounts
	credentials Credentials
	tokens      *Tokens
	revoked     Revocations
	logger      *zap.Logger
}

func NewAuthService(accounts Accounts, credentials Credentials, tokens *Tokens, revoked Revocations, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:    accounts,
		credentials: credentials,
		tokens:      tokens,
		revoked:     revoked,
		logger:      logger,
	}
}

// Register creates the account and signs the first token for it.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*usersdomain.User, domain.Token, error) {
	u, err := s.accounts.Create(ctx, usersdomain.CreateRequest{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return nil, domain.Token{}, err
	}
	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, domain.Token{}, apperr.Internal(err)
	}
	logging.For(ctx, s.logger).Info("user registered", zap.Int64("user_id", u.ID))
	return u, tok, nil
}

// Login checks the password and signs a token. Unknown email and wrong
// password produce the same error.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*usersdomain.User, domain.Token, error) {
	email := strings.TrimSpace(req.Email)

	verr := apperr.Validation()
	if email == "" {
		verr.Add("email", "The email is required.")
	} else if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "The email must be a valid email address.")
	}
	if req.Password == "" {
		verr.Add("password", "The password is required.")
	}
	if verr.HasFields() {
		return nil, domain.Token{}, verr
	}

	u, err := s.credentials.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, usersdomain.ErrNotFound):
		return nil, domain.Token{}, apperr.Invalid("email", msgBadCredentials)
	case err != nil:
		return nil, domain.Token{}, err
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		logging.For(ctx, s.logger).Info("login rejected", zap.Int64("user_id", u.ID))
		return nil, domain.Token{}, apperr.Invalid("email", msgBadCredentials)
	}

	tok, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, domain.Token{}, apperr.Internal(err)
	}
	logging.For(ctx, s.logger).Info("user logged in", zap.Int64("user_id", u.ID))
	return u, tok, nil
}

// Authenticate verifies raw and rejects revoked tokens.
func (s *AuthService) Authenticate(ctx context.Context, raw string) (domain.Session, error) {
	sess, err := s.tokens.Verify(raw)
	if err != nil {
		return domain.Session{}, err
	}
	revoked, err := s.revoked.Revoked(ctx, sess.TokenID)
	if err != nil {
		return domain.Session{}, err
	}
	if revoked {
		return domain.Session{}, domain.ErrRevoked
	}
	return sess, nil
}

// Logout revokes the session's token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, sess domain.Session) error {
	if err := s.revoked.Revoke(ctx, sess.TokenID, sess.ExpiresAt.Sub(s.tokens.now())); err != nil {
		return err
	}
	logging.For(ctx, s.logger).Info("user logged out", zap.Int64("user_id", sess.UserID))
	return nil
}
