package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/maintenance-tracker/internal/auth"
	"github.com/ukydev/maintenance-tracker/internal/extract"
	"github.com/ukydev/maintenance-tracker/internal/models"
	"github.com/ukydev/maintenance-tracker/internal/partition"
)

type cli struct {
	t      *testing.T
	dbPath string
	env    string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("STORE", "")
	dir := t.TempDir()
	return &cli{
		t:      t,
		dbPath: filepath.Join(dir, "maintenance.db"),
		env:    filepath.Join(dir, "missing.env"),
	}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	c.t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, "--db", c.dbPath, "--env-file", c.env))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err)
	return out
}

func firstLine(s string) string {
	return strings.TrimSpace(strings.SplitN(s, "\n", 2)[0])
}

func TestVehicleCommands(t *testing.T) {
	c := newCLI(t)

	id := firstLine(c.mustRun("vehicle", "add", "--make", "Toyota", "--model", "Corolla", "--year", "2018"))
	require.NotEmpty(t, id)

	var vehicles []models.Vehicle
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("vehicle", "list", "--format", "json")), &vehicles))
	require.Len(t, vehicles, 1)
	assert.Equal(t, id, vehicles[0].ID)
	assert.Equal(t, "Toyota Corolla", vehicles[0].DisplayName())

	table := c.mustRun("vehicle", "list")
	assert.Contains(t, table, "Toyota Corolla")
	assert.Contains(t, table, "2018")

	_, err := c.run("", "vehicle", "add", "--year", "2018")
	assert.Error(t, err)
}

func TestServiceLifecycle(t *testing.T) {
	c := newCLI(t)
	vehicleID := firstLine(c.mustRun("vehicle", "add", "--make", "Lada", "--model", "Vesta"))

	out := c.mustRun("add", vehicleID, "--date", "2024-01-10", "--mileage", "40000", "--type", "Oil change")
	assert.Contains(t, out, "Next service: 2024-07-10 at 50000 km")

	var overview partition.Result
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("list", vehicleID, "--format", "json")), &overview))
	require.Len(t, overview.History, 1)
	require.Len(t, overview.Upcoming, 1)
	planned := overview.Upcoming[0].Record
	assert.True(t, planned.IsPlanned)
	assert.Equal(t, time.Date(2024, 7, 10, 0, 0, 0, 0, time.UTC), planned.Date)
	assert.True(t, overview.Upcoming[0].IsOverdue)

	out = c.mustRun("plan", vehicleID, "--date", "2024-07-10", "--type", "Oil change")
	assert.Equal(t, "Service already planned for 2024-07-10", firstLine(out))

	out = c.mustRun("edit", planned.ID, "--date", "2024-08-01", "--format", "json")
	var edited models.MaintenanceRecord
	require.NoError(t, json.Unmarshal([]byte(out), &edited))
	assert.Equal(t, time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC), edited.Date)
	assert.Equal(t, edited.Date, edited.NextServiceDate)

	table := c.mustRun("list", vehicleID)
	assert.Contains(t, table, "Upcoming")
	assert.Contains(t, table, "History")
	assert.Contains(t, table, "2024-08-01")

	out, err := c.run("n\n", "rm", planned.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deletion cancelled")

	out = c.mustRun("rm", planned.ID, "--force")
	assert.Contains(t, out, "Deleted "+planned.ID)

	require.NoError(t, json.Unmarshal([]byte(c.mustRun("list", vehicleID, "--format", "json")), &overview))
	assert.Empty(t, overview.Upcoming)
	assert.Len(t, overview.History, 1)
}

func TestAddCommand_Errors(t *testing.T) {
	c := newCLI(t)
	vehicleID := firstLine(c.mustRun("vehicle", "add", "--make", "Kia"))

	tests := []struct {
		name string
		args []string
	}{
		{"missing mileage", []string{"add", vehicleID, "--date", "2024-01-10"}},
		{"bad date", []string{"add", vehicleID, "--date", "10.01.2024", "--mileage", "1"}},
		{"negative mileage", []string{"add", vehicleID, "--date", "2024-01-10", "--mileage", "-5"}},
		{"unknown vehicle", []string{"add", "nope", "--date", "2024-01-10", "--mileage", "1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.run("", tt.args...)
			assert.Error(t, err)
		})
	}
}

func TestEditCommand_NothingToChange(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("", "edit", "some-id")
	assert.EqualError(t, err, "nothing to change")
}

func TestExtractCommand(t *testing.T) {
	c := newCLI(t)
	out, err := c.run("Замена масла, пробег 45000 км", "extract")
	require.NoError(t, err)

	var info extract.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.NotNil(t, info.ServiceType)
	assert.Equal(t, "Oil change", *info.ServiceType)
	require.NotNil(t, info.Mileage)
	assert.Equal(t, 45000, *info.Mileage)
}

func TestTokenCommand(t *testing.T) {
	c := newCLI(t)
	t.Setenv("JWT_SECRET", "cli-secret")

	token := firstLine(c.mustRun("token", "--user", "u42", "--role", "viewer"))
	claims, err := auth.NewService("cli-secret", time.Hour).ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u42", claims.UserID)
	assert.Equal(t, models.RoleViewer, claims.Role)

	_, err = c.run("", "token", "--role", "superuser")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := parseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), d)

	_, err = parseDate("yesterday")
	assert.Error(t, err)
}
