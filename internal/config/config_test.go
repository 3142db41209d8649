package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.NoError(t, err)

	def := DefaultConfig()
	assert.Equal(t, def.Server.Addr(), cfg.Server.Addr())
	assert.Equal(t, def.AdminServer.Addr(), cfg.AdminServer.Addr())
	assert.Equal(t, def.MySQL.DSN, cfg.MySQL.DSN)
	assert.Equal(t, def.Redis.Addr, cfg.Redis.Addr)
	assert.Equal(t, def.JWT.Secret, cfg.JWT.Secret)
	assert.Equal(t, int64(10), cfg.Checkout.TaxRatePercent)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("GOSHOP_SERVER_PORT", "9090")
	t.Setenv("GOSHOP_JWT_SECRET", "override")

	cfg, err := LoadConfig("")
	assert.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "override", cfg.JWT.Secret)
}

func TestServerAddrDefaultsHost(t *testing.T) {
	s := ServerConfig{Port: 8080}
	assert.Equal(t, "0.0.0.0:8080", s.Addr())
}
