package redis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewKeyBuilder(t *testing.T) {
	tests := []struct {
		environment    string
		expectedPrefix string
	}{
		{environment: "production", expectedPrefix: "prod"},
		{environment: "development", expectedPrefix: "staging"},
		{environment: "staging", expectedPrefix: "staging"},
		{environment: "", expectedPrefix: "prod"},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			kb := NewKeyBuilder(tt.environment)
			assert.Equal(t, tt.expectedPrefix, kb.GetPrefix())
		})
	}
}

func TestKeyBuilder_KeyOAuthState(t *testing.T) {
	assert.Equal(t, "prod:oauth:state:n1", NewKeyBuilder("production").KeyOAuthState("n1"))
	assert.Equal(t, "staging:oauth:state:n1", NewKeyBuilder("development").KeyOAuthState("n1"))
}
