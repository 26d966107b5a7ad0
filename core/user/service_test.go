package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/user"
	inmemdb "github.com/ongoza/cyberhub/storage/database/inmem"
)

const strongPwd = "Sup3r$ecret!"

func setup(t *testing.T) *user.Service {
	t.Helper()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	return user.NewService(inmemdb.NewUserRepository(inmemdb.Open()), validate, translator)
}

func fieldErrors(t *testing.T, err error) map[string]string {
	t.Helper()
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %T (%v)", err, err)
	flds := make(map[string]string, len(vErr.Fields))
	for _, f := range vErr.Fields {
		flds[f.Field] = f.Error
	}
	return flds
}

func TestService_Create(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Name:            " Amina Okoro ",
		Email:           "Amina@Test.io",
		Password:        strongPwd,
		PasswordConfirm: strongPwd,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "Amina Okoro", usr.Name)
	assert.Equal(t, "amina@test.io", usr.Email)
	assert.Equal(t, []string{user.RoleStudent}, usr.Roles)
	assert.True(t, usr.IsActive)
	assert.False(t, usr.OnboardingCompleted)
	assert.NoError(t, usr.CheckPassword(strongPwd))

	got, err := svc.GetByEmail(ctx, " AMINA@test.io")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = svc.Create(ctx, user.NewUser{
		Name:            "Someone Else",
		Email:           "amina@test.io",
		Password:        strongPwd,
		PasswordConfirm: strongPwd,
	})
	assert.Equal(t, map[string]string{"email": user.ErrEmailExists.Error()}, fieldErrors(t, err))
}

func TestService_Create_Validation(t *testing.T) {
	svc := setup(t)

	tests := []struct {
		name       string
		nu         user.NewUser
		wantFields []string
	}{
		{
			name:       "empty",
			nu:         user.NewUser{},
			wantFields: []string{"name", "email", "password", "password_confirm"},
		},
		{
			name:       "bad email and roles",
			nu:         user.NewUser{Name: "Amina", Email: "amina", Password: strongPwd, PasswordConfirm: strongPwd, Roles: []string{"wizard"}},
			wantFields: []string{"email", "roles"},
		},
		{
			name:       "password mismatch",
			nu:         user.NewUser{Name: "Amina", Email: "amina@test.io", Password: strongPwd, PasswordConfirm: strongPwd + "x"},
			wantFields: []string{"password_confirm"},
		},
		{
			name:       "password too short",
			nu:         user.NewUser{Name: "Amina", Email: "amina@test.io", Password: "Ab1$", PasswordConfirm: "Ab1$"},
			wantFields: []string{"password"},
		},
		{
			name:       "password all numeric",
			nu:         user.NewUser{Name: "Amina", Email: "amina@test.io", Password: "12345678", PasswordConfirm: "12345678"},
			wantFields: []string{"password"},
		},
		{
			name:       "password too simple",
			nu:         user.NewUser{Name: "Amina", Email: "amina@test.io", Password: "password", PasswordConfirm: "password"},
			wantFields: []string{"password"},
		},
		{
			name:       "password like email",
			nu:         user.NewUser{Name: "Amina", Email: "amina@test.io", Password: "Amina@test.io1", PasswordConfirm: "Amina@test.io1"},
			wantFields: []string{"password"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.nu)
			flds := fieldErrors(t, err)
			for _, f := range tt.wantFields {
				assert.Contains(t, flds, f)
			}
			assert.Len(t, flds, len(tt.wantFields), "%v", flds)
		})
	}
}

func TestService_SetPassword(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	usr, err := svc.Create(ctx, user.NewUser{Name: "Amina", Email: "amina@test.io", Password: strongPwd, PasswordConfirm: strongPwd})
	require.NoError(t, err)

	_, err = svc.SetPassword(ctx, usr.ID, user.SetPassword{Password: "short", PasswordConfirm: "short"})
	assert.Contains(t, fieldErrors(t, err), "password")

	_, err = svc.SetPassword(ctx, "missing", user.SetPassword{Password: "N3w$ecret!", PasswordConfirm: "N3w$ecret!"})
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))

	updated, err := svc.SetPassword(ctx, usr.ID, user.SetPassword{Password: "N3w$ecret!", PasswordConfirm: "N3w$ecret!"})
	require.NoError(t, err)
	assert.NoError(t, updated.CheckPassword("N3w$ecret!"))
	assert.Error(t, updated.CheckPassword(strongPwd))
}

func TestService_Onboarding(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	user.NowFunc = func() time.Time { return now }
	defer func() { user.NowFunc = func() time.Time { return time.Now().UTC() } }()

	usr, err := svc.Create(ctx, user.NewUser{Name: "Amina", Email: "amina@test.io", Password: strongPwd, PasswordConfirm: strongPwd})
	require.NoError(t, err)

	done, err := svc.CompleteOnboarding(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, done.OnboardingCompleted)
	require.NotNil(t, done.OnboardingCompletedAt)
	assert.Equal(t, now, *done.OnboardingCompletedAt)

	// already onboarded: completion date is kept
	user.NowFunc = func() time.Time { return now.Add(time.Hour) }
	again, err := svc.CompleteOnboarding(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, now, *again.OnboardingCompletedAt)

	reset, err := svc.ResetOnboarding(ctx, usr.ID)
	require.NoError(t, err)
	assert.False(t, reset.OnboardingCompleted)
	assert.Nil(t, reset.OnboardingCompletedAt)

	got, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.False(t, got.OnboardingCompleted)

	_, err = svc.CompleteOnboarding(ctx, "missing")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}
