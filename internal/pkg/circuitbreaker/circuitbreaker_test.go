package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	cb := New[int](Config{Name: "weather", MaxFailures: 3, Timeout: time.Minute}, nil)
	failing := func() (int, error) { return 0, errors.New("provider down") }

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(failing)
		require.Error(t, err)
		assert.False(t, IsOpen(err))
	}

	assert.Equal(t, gobreaker.StateOpen, cb.State())

	_, err := cb.Execute(func() (int, error) { return 1, nil })
	assert.True(t, IsOpen(err))
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	cb := New[string](Config{Name: "market", MaxFailures: 2}, nil)

	_, _ = cb.Execute(func() (string, error) { return "", errors.New("x") })
	v, err := cb.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
	_, _ = cb.Execute(func() (string, error) { return "", errors.New("x") })

	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("weather")
	assert.Equal(t, "weather", cfg.Name)
	assert.Equal(t, uint32(5), cfg.MaxFailures)
}
