package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("GUILD_ID", "guild")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Support Tickets", cfg.Tickets.CategoryName)
	assert.Equal(t, "ticket", cfg.Tickets.Prefix)
	assert.Equal(t, "Staff", cfg.Tickets.StaffRole)
	assert.Empty(t, cfg.Tickets.AuditChannelID)
	assert.Equal(t, 3*time.Second, cfg.Tickets.DeleteDelay)
	assert.Equal(t, "https://api.truckersmp.com", cfg.Announce.APIBase)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "convoy.events", cfg.AMQP.Exchange)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoadMissingToken(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("GUILD_ID", "guild")

	_, err := Load("")
	assert.ErrorContains(t, err, "DISCORD_TOKEN")
}

func TestLoadMissingGuild(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "token")
	t.Setenv("GUILD_ID", "")

	_, err := Load("")
	assert.ErrorContains(t, err, "GUILD_ID")
}

func TestLoadAuditChannelZeroMeansDisabled(t *testing.T) {
	setRequired(t)
	t.Setenv("AUDIT_CHANNEL_ID", "0")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Tickets.AuditChannelID)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TICKET_PREFIX", "support")
	t.Setenv("TICKET_DELETE_DELAY_SECONDS", "10")
	t.Setenv("STORE_DRIVER", "none")
	t.Setenv("AUDIT_CHANNEL_ID", "123456")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "support", cfg.Tickets.Prefix)
	assert.Equal(t, 10*time.Second, cfg.Tickets.DeleteDelay)
	assert.Equal(t, "none", cfg.Store.Driver)
	assert.Equal(t, "123456", cfg.Tickets.AuditChannelID)
}

func TestLoadRejectsUnknownStoreDriver(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_DRIVER", "cassandra")

	_, err := Load("")
	assert.ErrorContains(t, err, "STORE_DRIVER")
}
