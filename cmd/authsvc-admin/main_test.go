package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMigrateFlags(t *testing.T) {
	opts, err := parseMigrateFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, defaultMigrationTimeout, opts.Timeout)

	opts, err = parseMigrateFlags([]string{"-timeout", "30s"})
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, opts.Timeout)
}

func TestParsePromoteFlags(t *testing.T) {
	opts, err := parsePromoteFlags([]string{"-email", "root@x.com", "-password", "rootpassword", "-name", "root"})
	require.NoError(t, err)
	assert.Equal(t, "root@x.com", opts.Email)
	assert.Equal(t, "root", opts.Name)
	assert.Equal(t, "rootpassword", opts.Password)

	_, err = parsePromoteFlags([]string{"-password", "rootpassword"})
	assert.ErrorContains(t, err, "-email is required")

	_, err = parsePromoteFlags([]string{"-email", "root@x.com"})
	assert.ErrorContains(t, err, "-password is required")
}

func TestParseListUsersFlags(t *testing.T) {
	opts, err := parseListUsersFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, 50, opts.Limit)
	assert.Equal(t, 0, opts.Offset)

	_, err = parseListUsersFlags([]string{"-limit", "0"})
	assert.ErrorContains(t, err, "must be positive")
}

func TestParseClearSessionsFlags(t *testing.T) {
	opts, err := parseClearSessionsFlags([]string{"-email", "ann@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", opts.Email)
	assert.False(t, opts.All)

	opts, err = parseClearSessionsFlags([]string{"-all", "-dry-run"})
	require.NoError(t, err)
	assert.True(t, opts.All)
	assert.True(t, opts.DryRun)

	_, err = parseClearSessionsFlags(nil)
	assert.ErrorContains(t, err, "specify -email or -all")

	_, err = parseClearSessionsFlags([]string{"-email", "ann@x.com", "-all"})
	assert.ErrorContains(t, err, "mutually exclusive")
}

func TestCommands_CoverUsage(t *testing.T) {
	cmds := commands()
	for name, cmd := range cmds {
		assert.Equal(t, name, cmd.name)
		assert.NotEmpty(t, cmd.description)
		assert.NotNil(t, cmd.run)
	}
}
