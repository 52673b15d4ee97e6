package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.False(t, cfg.DBAutoMigrate)
	assert.Equal(t, "*/15 * * * *", cfg.ExpirySweepSchedule)
}

func TestLoadEmptyPassword(t *testing.T) {
	t.Setenv("DB_PASSWORD", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.internal",
		DBPort:     5433,
		DBUser:     "svc",
		DBPassword: "pw",
		DBName:     "bonuses",
		DBSSLMode:  "require",
	}
	assert.Equal(t, "postgres://svc:pw@db.internal:5433/bonuses?sslmode=require", cfg.DatabaseDSN())
}

func TestValidate(t *testing.T) {
	cfg := &Config{HTTPAddr: ":8080", DBPort: 5432, DBPassword: "pw"}
	assert.NoError(t, cfg.Validate())

	cfg.DBPort = 0
	assert.Error(t, cfg.Validate())

	cfg.DBPort = 5432
	cfg.HTTPAddr = ""
	assert.Error(t, cfg.Validate())

	cfg.HTTPAddr = ":8080"
	cfg.DBPassword = ""
	assert.Error(t, cfg.Validate())
}
