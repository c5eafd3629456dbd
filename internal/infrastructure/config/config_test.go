package config

import (
	"context"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
	}))
	require.NoError(t, err)

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.JWTExpire)
	assert.True(t, cfg.Auth.AllowAdminSignup)
	assert.Equal(t, "http://localhost:3000", cfg.HTTP.CORSOrigin)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
	assert.Equal(t, StoreMongo, cfg.Store)
	assert.Empty(t, cfg.Redis.Addr)
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	assert.Error(t, err)
}

func TestLoad_UnknownStore(t *testing.T) {
	_, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": "s3cret",
		"STORE":      "postgres",
	}))
	assert.Error(t, err)
}

func TestConfig_MongoURI(t *testing.T) {
	cfg, err := Load(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":       "s3cret",
		"MONGODB_URI":      "mongodb://prod:27017",
		"MONGODB_TEST_URI": "mongodb://test:27017",
	}))
	require.NoError(t, err)
	assert.Equal(t, "mongodb://prod:27017", cfg.MongoURI())

	cfg.Env = EnvTest
	assert.Equal(t, "mongodb://test:27017", cfg.MongoURI())
}
