package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samandr77/crm/internal/app"
	"github.com/samandr77/crm/internal/cli"
	"github.com/samandr77/crm/internal/entity"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer

	cmd := cli.NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--env", filepath.Join(t.TempDir(), "missing.env")}, args...))

	err := cmd.ExecuteContext(context.Background())

	return out.String(), err
}

//nolint:paralleltest
func TestCommands(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", filepath.Join(t.TempDir(), "crm.db"))
	t.Setenv("MAIL_TRANSPORT", "none")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("BOOTSTRAP_ADMIN_EMAIL", "root@company.com")

	out, err := run(t, "migrate")
	require.NoError(t, err)
	require.Contains(t, out, "sqlite database is up to date")

	out, err = run(t, "bootstrap")
	require.NoError(t, err)
	require.Contains(t, out, "created admin root@company.com")

	out, err = run(t, "bootstrap")
	require.NoError(t, err)
	require.Contains(t, out, "nothing to do")

	out, err = run(t, "user", "create", "--email", "emp@company.com", "--password", "secret1", "--name", "Emp")
	require.NoError(t, err)
	require.Contains(t, out, "created employee emp@company.com")
	require.Contains(t, out, "e-mail delivery is disabled")

	_, err = run(t, "user", "create", "--email", "emp@company.com", "--password", "secret1", "--name", "Emp")
	require.ErrorIs(t, err, entity.ErrDuplicateEmail)

	out, err = run(t, "--format", "json", "user", "list")
	require.NoError(t, err)

	var users []entity.UserSummary
	require.NoError(t, json.Unmarshal([]byte(out), &users))
	require.Len(t, users, 2)

	var employee entity.UserSummary

	for _, u := range users {
		if u.Email == "emp@company.com" {
			employee = u
		}
	}

	require.Equal(t, entity.RoleEmployee, employee.Role)

	out, err = run(t, "user", "delete", employee.ID.String())
	require.NoError(t, err)
	require.Contains(t, out, "deleted "+employee.ID.String())

	_, err = run(t, "user", "delete", "not-a-uuid")
	require.Error(t, err)

	_, err = run(t, "--format", "yaml", "user", "list")
	require.Error(t, err)

	_, err = run(t, "mail-relay")
	require.ErrorIs(t, err, app.ErrMailRelayConfig)
}
