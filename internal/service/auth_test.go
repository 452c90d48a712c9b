package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campus-events/platform/internal/auth"
	"github.com/campus-events/platform/internal/model"
)

func newAuthSvc(f *fakeStore) *AuthService {
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(f.userStore(), tokens, testLogger())
}

func TestRegisterGuestAccount(t *testing.T) {
	f := newFakeStore()
	svc := newAuthSvc(f)

	user, token, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "Asha",
		Email:    "Asha@Gmail.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "asha@gmail.com", user.Email)
	assert.Equal(t, model.RoleParticipant, user.Role)
	assert.False(t, user.IsIIIT)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"empty name", RegisterRequest{Name: "  ", Email: "a@b.com", Password: "hunter22"}},
		{"short password", RegisterRequest{Name: "Asha", Email: "a@b.com", Password: "abc"}},
		{"bad email", RegisterRequest{Name: "Asha", Email: "not-an-email", Password: "hunter22"}},
		{"iiit flag with outside email", RegisterRequest{Name: "Asha", Email: "asha@gmail.com", Password: "hunter22", IsIIIT: true}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeStore()
			svc := newAuthSvc(f)
			_, _, err := svc.Register(context.Background(), tc.req)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestRegisterIIITEmailMustBeUnique(t *testing.T) {
	f := newFakeStore()
	svc := newAuthSvc(f)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Asha", Email: "asha@students.iiit.ac.in", Password: "hunter22", IsIIIT: true,
	})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, RegisterRequest{
		Name: "Impostor", Email: "asha@students.iiit.ac.in", Password: "different1", IsIIIT: true,
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestGuestAccountsShareEmail(t *testing.T) {
	f := newFakeStore()
	svc := newAuthSvc(f)
	ctx := context.Background()

	alice, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Alice", Email: "family@gmail.com", Password: "alicepass",
	})
	require.NoError(t, err)

	bob, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Bob", Email: "family@gmail.com", Password: "bobpass99",
	})
	require.NoError(t, err)
	assert.NotEqual(t, alice.ID, bob.ID)

	// Login resolves each account by its password.
	got, _, err := svc.Login(ctx, "family@gmail.com", "alicepass")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, _, err = svc.Login(ctx, "family@gmail.com", "bobpass99")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, got.ID)
}

func TestGuestPasswordCollisionRejected(t *testing.T) {
	f := newFakeStore()
	svc := newAuthSvc(f)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Alice", Email: "family@gmail.com", Password: "sharedpass",
	})
	require.NoError(t, err)

	// A second account under the same email with the same password
	// would be unreachable at login.
	_, _, err = svc.Register(ctx, RegisterRequest{
		Name: "Bob", Email: "family@gmail.com", Password: "sharedpass",
	})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestUpdateProfile(t *testing.T) {
	f := newFakeStore()
	svc := newAuthSvc(f)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Asha", Email: "asha@gmail.com", Password: "hunter22",
	})
	require.NoError(t, err)

	name := "Asha Rao"
	hook := "https://discord.com/api/webhooks/1/abc"
	updated, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Name: &name, DiscordWebhook: &hook})
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", updated.Name)
	assert.Equal(t, hook, updated.DiscordWebhook)

	stored, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", stored.Name)

	blank := "   "
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileRequest{Name: &blank})
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestChangePassword(t *testing.T) {
	f := newFakeStore()
	svc := newAuthSvc(f)
	ctx := context.Background()

	user, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Asha", Email: "asha@gmail.com", Password: "hunter22",
	})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrongpass", "newpass99")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, user.ID, "hunter22", "abc")
	assert.ErrorIs(t, err, model.ErrValidation)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "hunter22", "newpass99"))

	_, _, err = svc.Login(ctx, "asha@gmail.com", "hunter22")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	got, _, err := svc.Login(ctx, "asha@gmail.com", "newpass99")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestChangePasswordRejectsGuestCollision(t *testing.T) {
	f := newFakeStore()
	svc := newAuthSvc(f)
	ctx := context.Background()

	alice, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Alice", Email: "family@gmail.com", Password: "alicepass",
	})
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, RegisterRequest{
		Name: "Bob", Email: "family@gmail.com", Password: "bobpass99",
	})
	require.NoError(t, err)

	// Rotating onto a sibling's password would make the two accounts
	// indistinguishable at login.
	err = svc.ChangePassword(ctx, alice.ID, "alicepass", "bobpass99")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFakeStore()
	svc := newAuthSvc(f)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, RegisterRequest{
		Name: "Asha", Email: "asha@gmail.com", Password: "hunter22",
	})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "asha@gmail.com", "wrongpass")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "unknown@gmail.com", "hunter22")
	assert.ErrorIs(t, err, model.ErrInvalidCredentials)
}
