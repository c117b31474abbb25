package lifetime_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wvanhemert/DI-Validator/internal/lifetime"
)

func TestLifetime_String(t *testing.T) {
	tests := []struct {
		lifetime lifetime.Lifetime
		expected string
	}{
		{lifetime.Singleton, "Singleton"},
		{lifetime.Scoped, "Scoped"},
		{lifetime.Transient, "Transient"},
		{lifetime.Lifetime(99), "Unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.lifetime.String())
		})
	}
}

func TestLifetime_IsValid(t *testing.T) {
	assert.True(t, lifetime.Singleton.IsValid())
	assert.True(t, lifetime.Transient.IsValid())
	assert.False(t, lifetime.Lifetime(-1).IsValid())
	assert.False(t, lifetime.Lifetime(3).IsValid())
}

func TestFromMethod(t *testing.T) {
	tests := []struct {
		name     string
		expected lifetime.Lifetime
		ok       bool
	}{
		{"AddSingleton", lifetime.Singleton, true},
		{"TryAddScoped", lifetime.Scoped, true},
		{"AddTransient", lifetime.Transient, true},
		{"AddModules", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := lifetime.FromMethod(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLifetime_TextRoundTrip(t *testing.T) {
	var l lifetime.Lifetime
	require.NoError(t, l.UnmarshalText([]byte("transient")))
	assert.Equal(t, lifetime.Transient, l)

	err := l.UnmarshalText([]byte("Request"))
	require.Error(t, err)

	var lerr lifetime.Error
	assert.True(t, errors.As(err, &lerr))
	assert.Equal(t, "Request", lerr.Value)
}

func TestLifetime_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Lifetime lifetime.Lifetime `json:"lifetime"`
	}{lifetime.Scoped})
	require.NoError(t, err)
	assert.JSONEq(t, `{"lifetime":"Scoped"}`, string(data))

	var out struct {
		Lifetime lifetime.Lifetime `json:"lifetime"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"lifetime":"Singleton"}`), &out))
	assert.Equal(t, lifetime.Singleton, out.Lifetime)

	assert.Error(t, json.Unmarshal([]byte(`{"lifetime":1}`), &out))
}
