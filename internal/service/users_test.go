package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/repo/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTokens struct{}

func (stubTokens) GenerateAccessToken(userID, email, role string) (string, error) {
	return "token-" + userID + "-" + role, nil
}

type recordingMailer struct {
	welcome []string
	resets  []string
	err     error
}

func (m *recordingMailer) EnqueueWelcome(_ context.Context, u user.User) error {
	m.welcome = append(m.welcome, u.Email)
	return m.err
}

func (m *recordingMailer) EnqueuePasswordReset(_ context.Context, u user.User, resetURL string, _ time.Time) error {
	m.resets = append(m.resets, resetURL)
	return m.err
}

func registerReq(name, email, password string) user.RegisterRequest {
	return user.RegisterRequest{Name: name, Email: email, Password: password}
}

func newUserService(t *testing.T) (*UserService, *recordingMailer, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	mailer := &recordingMailer{}
	return NewUserService(store.Users(), stubTokens{}, mailer, "http://app.local/", quietLogger()), mailer, store
}

func TestRegisterAndLogin(t *testing.T) {
	svc, mailer, _ := newUserService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, registerReq(" Ada ", "Ada@Example.com", "secret1"))
	require.NoError(t, err)
	assert.Equal(t, "Ada", res.Name)
	assert.Equal(t, "ada@example.com", res.Email)
	assert.Equal(t, user.RoleUser, res.Role)
	assert.Equal(t, "token-"+res.ID+"-user", res.Token)
	assert.Equal(t, []string{"ada@example.com"}, mailer.welcome)

	logged, err := svc.Login(ctx, "ADA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, res.ID, logged.ID)

	_, err = svc.Login(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("", "a@example.com", "secret1"))
	_, ok := IsValidation(err)
	assert.True(t, ok)

	_, err = svc.Register(ctx, registerReq("A", "a@example.com", "123"))
	v, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "password", v.Field)

	_, err = svc.Register(ctx, registerReq("A", "a@example.com", "secret1"))
	require.NoError(t, err)

	_, err = svc.Register(ctx, registerReq("A2", "A@example.com", "secret1"))
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestRegisterSurvivesMailerFailure(t *testing.T) {
	svc, mailer, _ := newUserService(t)
	mailer.err = errors.New("queue down")

	res, err := svc.Register(context.Background(), registerReq("A", "a@example.com", "secret1"))
	require.NoError(t, err)
	assert.NotEmpty(t, res.ID)
}

func TestMeAndUpdateProfile(t *testing.T) {
	svc, _, _ := newUserService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, registerReq("A", "a@example.com", "secret1"))
	require.NoError(t, err)
	_, err = svc.Register(ctx, registerReq("B", "b@example.com", "secret1"))
	require.NoError(t, err)

	me, err := svc.Me(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", me.Email)

	_, err = svc.UpdateProfile(ctx, a.ID, user.ProfilePatch{Email: ptr("b@example.com")})
	assert.ErrorIs(t, err, user.ErrEmailTaken)

	res, err := svc.UpdateProfile(ctx, a.ID, user.ProfilePatch{Name: ptr("Alice"), Password: ptr("newsecret")})
	require.NoError(t, err)
	assert.Equal(t, "Alice", res.Name)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, "a@example.com", "newsecret")
	assert.NoError(t, err)

	_, err = svc.Me(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, mailer, store := newUserService(t)
	ctx := context.Background()

	a, err := svc.Register(ctx, registerReq("A", "a@example.com", "secret1"))
	require.NoError(t, err)

	err = svc.ForgotPassword(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)

	require.NoError(t, svc.ForgotPassword(ctx, "a@example.com"))
	require.Len(t, mailer.resets, 1)

	link := mailer.resets[0]
	require.True(t, strings.HasPrefix(link, "http://app.local/resetpassword/"), link)
	token := strings.TrimPrefix(link, "http://app.local/resetpassword/")

	stored, err := store.Users().GetByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetTokenHash)
	assert.NotEqual(t, token, *stored.ResetTokenHash)

	_, err = svc.ResetPassword(ctx, "wrong-token", "brandnew")
	_, ok := IsValidation(err)
	assert.True(t, ok)

	res, err := svc.ResetPassword(ctx, token, "brandnew")
	require.NoError(t, err)
	assert.Equal(t, a.ID, res.ID)

	_, err = svc.Login(ctx, "a@example.com", "brandnew")
	assert.NoError(t, err)

	// single use
	_, err = svc.ResetPassword(ctx, token, "another1")
	_, ok = IsValidation(err)
	assert.True(t, ok)
}

func TestResetPasswordExpired(t *testing.T) {
	svc, mailer, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, registerReq("A", "a@example.com", "secret1"))
	require.NoError(t, err)
	require.NoError(t, svc.ForgotPassword(ctx, "a@example.com"))
	token := strings.TrimPrefix(mailer.resets[0], "http://app.local/resetpassword/")

	svc.now = func() time.Time { return time.Now().UTC().Add(resetTokenTTL + time.Minute) }

	_, err = svc.ResetPassword(ctx, token, "brandnew")
	v, ok := IsValidation(err)
	require.True(t, ok)
	assert.Equal(t, "token", v.Field)
}
