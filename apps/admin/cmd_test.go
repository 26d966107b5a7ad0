package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ongoza/cyberhub/core"
	"github.com/ongoza/cyberhub/core/user"
	inmemdb "github.com/ongoza/cyberhub/storage/database/inmem"
)

const strongPwd = "Sup3r$ecret!"

func setup(t *testing.T) *commandLine {
	t.Helper()
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	origRead, origGoose := readPasswordFunc, gooseRunFunc
	t.Cleanup(func() { readPasswordFunc, gooseRunFunc = origRead, origGoose })

	return &commandLine{
		usrSvc: user.NewService(inmemdb.NewUserRepository(inmemdb.Open()), validate, translator),
	}
}

func mockPassword(pwd string) {
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(tt.pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			case tt.wantErrStr != "":
				assert.EqualError(t, err, tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli := setup(t)
	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
	})
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-email", "amina@test.io"}, pwd: strongPwd, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "Amina", "-email", "amina@test.io"}, wantErr: errHelp},
		{name: "weak password", args: []string{"adduser", "-name", "Amina", "-email", "amina@test.io"}, pwd: "lol", wantErrStr: "password: password must contain at least 8 characters"},
		{name: "student", args: []string{"adduser", "-name", "Amina", "-email", "amina@test.io"}, pwd: strongPwd},
		{name: "admin", args: []string{"adduser", "-name", "Baraka", "-email", "BARAKA@test.io", "-admin"}, pwd: strongPwd},
		{name: "duplicate", args: []string{"adduser", "-name", "Amina", "-email", "amina@test.io"}, pwd: strongPwd, wantErrStr: user.ErrEmailExists.Error()},
	})

	ctx := context.Background()
	student, err := cli.usrSvc.GetByEmail(ctx, "amina@test.io")
	require.NoError(t, err)
	assert.Equal(t, []string{user.RoleStudent}, student.Roles)
	assert.True(t, student.IsActive)
	assert.NoError(t, student.CheckPassword(strongPwd))

	admin, err := cli.usrSvc.GetByEmail(ctx, "baraka@test.io")
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	mockPassword(strongPwd)
	require.NoError(t, cli.run([]string{"admin", "adduser", "-name", "Amina", "-email", "amina@test.io"}))

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "amina@test.io"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol@test.io"}, pwd: "N3w$ecret!", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "amina@test.io"}, pwd: "N3w$ecret!"},
	})

	usr, err := cli.usrSvc.GetByEmail(context.Background(), "amina@test.io")
	require.NoError(t, err)
	assert.NoError(t, usr.CheckPassword("N3w$ecret!"))
}

func Test_commandLine_resetOnboarding(t *testing.T) {
	cli := setup(t)
	mockPassword(strongPwd)
	require.NoError(t, cli.run([]string{"admin", "adduser", "-name", "Amina", "-email", "amina@test.io"}))

	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, "amina@test.io")
	require.NoError(t, err)
	_, err = cli.usrSvc.CompleteOnboarding(ctx, usr.ID)
	require.NoError(t, err)

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"resetonboarding"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetonboarding", "-email", "lol@test.io"}, wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetonboarding", "-email", "amina@test.io"}},
	})

	usr, err = cli.usrSvc.GetByEmail(ctx, "amina@test.io")
	require.NoError(t, err)
	assert.False(t, usr.OnboardingCompleted)
	assert.Nil(t, usr.OnboardingCompletedAt)
}
