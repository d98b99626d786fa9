package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/security"
	"github.com/geocoder89/taskhub/internal/utils"
	"github.com/google/uuid"
)

const resetTokenTTL = 10 * time.Minute

type TokenIssuer interface {
	GenerateAccessToken(userID, email, role string) (string, error)
}

// Mailer queues outbound email. Implementations must not block on delivery.
type Mailer interface {
	EnqueueWelcome(ctx context.Context, u user.User) error
	EnqueuePasswordReset(ctx context.Context, u user.User, resetURL string, expiresAt time.Time) error
}

// AuthResult is the body returned by register, login, profile update and
// password reset.
type AuthResult struct {
	user.Profile
	Token string `json:"token"`
}

type UserService struct {
	users     UserStore
	tokens    TokenIssuer
	mailer    Mailer
	clientURL string
	log       *slog.Logger
	now       func() time.Time
}

func NewUserService(users UserStore, tokens TokenIssuer, mailer Mailer, clientURL string, log *slog.Logger) *UserService {
	if log == nil {
		log = slog.Default()
	}
	return &UserService{
		users:     users,
		tokens:    tokens,
		mailer:    mailer,
		clientURL: strings.TrimRight(clientURL, "/"),
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *UserService) Register(ctx context.Context, req user.RegisterRequest) (AuthResult, error) {
	name := strings.TrimSpace(req.Name)
	email := user.NormalizeEmail(req.Email)

	if name == "" || email == "" || req.Password == "" {
		return AuthResult{}, invalid("", "Please add all fields")
	}
	if len(req.Password) < 6 {
		return AuthResult{}, invalid("password", "Password must be at least 6 characters")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return AuthResult{}, user.ErrEmailTaken
	} else if !errors.Is(err, user.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	u, err := s.users.Create(ctx, user.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         user.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return AuthResult{}, err
		}
		return AuthResult{}, fmt.Errorf("create user: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.EnqueueWelcome(ctx, u); err != nil {
			s.log.WarnContext(ctx, "welcome email enqueue failed", "user_id", u.ID, "err", err)
		}
	}

	return s.result(u)
}

func (s *UserService) Login(ctx context.Context, email, password string) (AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("lookup user: %w", err)
	}

	if err := security.CheckPassword(u.PasswordHash, password); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	return s.result(u)
}

func (s *UserService) Me(ctx context.Context, actingUser string) (user.Profile, error) {
	if !utils.IsUUID(actingUser) {
		return user.Profile{}, user.ErrNotFound
	}

	u, err := s.users.GetByID(ctx, actingUser)
	if err != nil {
		return user.Profile{}, err
	}
	return u.Profile(), nil
}

// UpdateProfile applies the provided fields and returns a fresh token, since
// the email and role are embedded in it.
func (s *UserService) UpdateProfile(ctx context.Context, actingUser string, patch user.ProfilePatch) (AuthResult, error) {
	u, err := s.users.GetByID(ctx, actingUser)
	if err != nil {
		return AuthResult{}, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return AuthResult{}, invalid("name", "Name cannot be empty")
		}
		u.Name = name
	}

	if patch.Email != nil {
		email := user.NormalizeEmail(*patch.Email)
		if email == "" {
			return AuthResult{}, invalid("email", "Email cannot be empty")
		}
		if email != u.Email {
			other, err := s.users.GetByEmail(ctx, email)
			if err == nil && other.ID != u.ID {
				return AuthResult{}, user.ErrEmailTaken
			}
			if err != nil && !errors.Is(err, user.ErrNotFound) {
				return AuthResult{}, fmt.Errorf("lookup email: %w", err)
			}
			u.Email = email
		}
	}

	if patch.Password != nil {
		if len(*patch.Password) < 6 {
			return AuthResult{}, invalid("password", "Password must be at least 6 characters")
		}
		hash, err := security.HashPassword(*patch.Password)
		if err != nil {
			return AuthResult{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	u.UpdatedAt = s.now()

	updated, err := s.users.Update(ctx, u)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			return AuthResult{}, err
		}
		return AuthResult{}, fmt.Errorf("update user: %w", err)
	}

	return s.result(updated)
}

// ForgotPassword stores a hashed reset token and queues the reset link.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.users.GetByEmail(ctx, user.NormalizeEmail(email))
	if err != nil {
		return err
	}

	raw, hash, err := security.NewResetToken()
	if err != nil {
		return fmt.Errorf("reset token: %w", err)
	}

	expires := s.now().Add(resetTokenTTL)
	u.ResetTokenHash = &hash
	u.ResetTokenExpiry = &expires
	u.UpdatedAt = s.now()

	u, err = s.users.Update(ctx, u)
	if err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if s.mailer != nil {
		link := s.clientURL + "/resetpassword/" + raw
		if err := s.mailer.EnqueuePasswordReset(ctx, u, link, expires); err != nil {
			s.log.WarnContext(ctx, "reset email enqueue failed", "user_id", u.ID, "err", err)
		}
	}

	return nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, password string) (AuthResult, error) {
	if len(password) < 6 {
		return AuthResult{}, invalid("password", "Password must be at least 6 characters")
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return AuthResult{}, invalid("token", "Invalid token")
	}

	u, err := s.users.GetByResetTokenHash(ctx, security.HashResetToken(token))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return AuthResult{}, invalid("token", "Invalid token")
		}
		return AuthResult{}, fmt.Errorf("lookup reset token: %w", err)
	}

	if u.ResetTokenExpiry == nil || !s.now().Before(*u.ResetTokenExpiry) {
		return AuthResult{}, invalid("token", "Invalid token")
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	u.PasswordHash = hash
	u.ResetTokenHash = nil
	u.ResetTokenExpiry = nil
	u.UpdatedAt = s.now()

	updated, err := s.users.Update(ctx, u)
	if err != nil {
		return AuthResult{}, fmt.Errorf("update password: %w", err)
	}

	return s.result(updated)
}

func (s *UserService) result(u user.User) (AuthResult, error) {
	token, err := s.tokens.GenerateAccessToken(u.ID, u.Email, u.Role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{Profile: u.Profile(), Token: token}, nil
}
