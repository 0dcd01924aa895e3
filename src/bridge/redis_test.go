package bridge

import (
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wirechat/wirechat/src/protocol"
)

// mockBroadcastTarget records frames forwarded from the bridge.
type mockBroadcastTarget struct {
	types    []byte
	payloads [][]byte
}

func (m *mockBroadcastTarget) BroadcastLocal(msgType byte, payload []byte) {
	m.types = append(m.types, msgType)
	m.payloads = append(m.payloads, payload)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := redisEnvelope{
		InstanceID: "node-1",
		Type:       protocol.TypeFile,
		Payload:    []byte("alice::notes.txt::\x00\xff raw bytes"),
	}

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var out redisEnvelope
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "node-1", out.InstanceID)
	assert.Equal(t, protocol.TypeFile, out.Type)
	assert.Equal(t, env.Payload, out.Payload, "binary payload must survive the envelope")
}

func TestHandleRedisMessageSkipsOwnInstance(t *testing.T) {
	target := &mockBroadcastTarget{}
	rb := NewRedisBridge(DefaultRedisConfig(), target, zerolog.Nop())

	own, err := json.Marshal(redisEnvelope{
		InstanceID: rb.instanceID,
		Type:       protocol.TypeText,
		Payload:    []byte("echo"),
	})
	require.NoError(t, err)
	rb.handleRedisMessage(&redis.Message{Payload: string(own)})

	assert.Empty(t, target.types, "frames from this instance must not loop back")

	other, err := json.Marshal(redisEnvelope{
		InstanceID: "someone-else",
		Type:       protocol.TypeText,
		Payload:    []byte("relayed"),
	})
	require.NoError(t, err)
	rb.handleRedisMessage(&redis.Message{Payload: string(other)})

	require.Len(t, target.types, 1)
	assert.Equal(t, protocol.TypeText, target.types[0])
	assert.Equal(t, []byte("relayed"), target.payloads[0])
}

func TestDefaultRedisConfig(t *testing.T) {
	cfg := DefaultRedisConfig()
	assert.Equal(t, "localhost:6379", cfg.Addr)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, 0, cfg.DB)
	assert.Equal(t, "wirechat:", cfg.Prefix)
}

func TestRedisConfigFromEnv(t *testing.T) {
	t.Setenv("REDIS_ADDR", "redis.example.com:6380")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_CHAT_PREFIX", "test:chat:")

	cfg := RedisConfigFromEnv()
	assert.Equal(t, "redis.example.com:6380", cfg.Addr)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, 3, cfg.DB)
	assert.Equal(t, "test:chat:", cfg.Prefix)
}

func TestRedisConfigFromEnvInvalidDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	cfg := RedisConfigFromEnv()
	assert.Equal(t, 0, cfg.DB) // falls back to default
}

func TestBridgeAvailableFalseBeforeStart(t *testing.T) {
	rb := NewRedisBridge(DefaultRedisConfig(), &mockBroadcastTarget{}, zerolog.Nop())
	assert.False(t, rb.Available())
}

func TestBridgeInstanceIDUnique(t *testing.T) {
	target := &mockBroadcastTarget{}
	b1 := NewRedisBridge(DefaultRedisConfig(), target, zerolog.Nop())
	b2 := NewRedisBridge(DefaultRedisConfig(), target, zerolog.Nop())
	assert.NotEqual(t, b1.instanceID, b2.instanceID)
}
