package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("ACCESS_TOKEN_TTL_MIN", "15")
	t.Setenv("REFRESH_TOKEN_TTL_DAYS", "7")
	t.Setenv("BCRYPT_COST", "4")
}

func TestLoad_MemoryBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("SEED_ROOMS", "1:Chambre 101:10000, 2:Suite:25000")
	t.Setenv("CANCELLATION_WINDOW", "72h")

	cfg := Load()
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 72*time.Hour, cfg.CancellationWindow)
	require.Len(t, cfg.SeedRooms, 2)
	assert.Equal(t, "Suite", cfg.SeedRooms[1].Name)
	assert.EqualValues(t, 25000, cfg.SeedRooms[1].NightlyRateCents)
	assert.False(t, cfg.EventsEnabled)
	assert.Equal(t, "logs", cfg.BookingLogDir)
}

func TestLoad_DefaultWindow(t *testing.T) {
	setRequired(t)
	t.Setenv("STORE_BACKEND", "memory")
	assert.Equal(t, 48*time.Hour, Load().CancellationWindow)
}

func TestParseRooms(t *testing.T) {
	rooms, err := ParseRooms("")
	require.NoError(t, err)
	assert.Empty(t, rooms)

	for _, bad := range []string{"1:Chambre", "x:Chambre:100", "0:Chambre:100", "1:Chambre:-5", "1:Chambre:0"} {
		_, err := ParseRooms(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseRooms_Valid(t *testing.T) {
	rooms, err := ParseRooms(" 1:Chambre 101:10000, 2:Suite:25000 ")
	require.NoError(t, err)
	require.Len(t, rooms, 2)
	assert.Equal(t, "Chambre 101", rooms[0].Name)
	assert.EqualValues(t, 25000, rooms[1].NightlyRateCents)
	assert.True(t, rooms[1].IsActive)
}

func TestLoadRateLimitConfig_Clamps(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	rl := LoadRateLimitConfig()
	assert.Equal(t, 1, rl.Capacity)
	assert.Equal(t, 1, rl.RefillTokens)
	assert.Equal(t, 2*time.Second, rl.RefillInterval)
	assert.Equal(t, 10*time.Second, rl.TTL)
}

func TestLoadCacheConfig(t *testing.T) {
	t.Setenv("CACHE_METHODS", "get, head")
	t.Setenv("CACHE_TTL", "1m")
	cc := LoadCacheConfig()
	assert.True(t, cc.Methods["GET"])
	assert.True(t, cc.Methods["HEAD"])
	assert.Equal(t, time.Minute, cc.TTL)
}

func TestLoadRedisConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "cache:6380")
	assert.Equal(t, "cache:6380", LoadRedisConfig().Addr)
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("REDIS_TLS", "1")
	rc := LoadRedisConfig()
	assert.Equal(t, "redis:6379", rc.Addr)
	assert.True(t, rc.TLS)
}
