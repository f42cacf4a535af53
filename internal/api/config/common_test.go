package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Mongo:       MongoConfig{URL: "mongodb://localhost:27017"},
		JWT:         JWTConfig{Secret: "secret"},
		Timeouts:    TimeoutConfig{StoreMs: 3000, DirectoryMs: 2000},
		Negotiation: NegotiationConfig{PairedUpdate: PairedUpdateTransactional},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"best effort", func(c *Config) { c.Negotiation.PairedUpdate = PairedUpdateBestEffort }, ""},
		{"missing secret", func(c *Config) { c.JWT.Secret = "" }, "jwt.secret"},
		{"missing mongo", func(c *Config) { c.Mongo.URL = "" }, "mongo.url"},
		{"unknown paired update", func(c *Config) { c.Negotiation.PairedUpdate = "eventual" }, "negotiation.paired_update"},
		{"zero store timeout", func(c *Config) { c.Timeouts.StoreMs = 0 }, "timeouts.store_ms"},
		{"zero directory timeout", func(c *Config) { c.Timeouts.DirectoryMs = 0 }, "timeouts.directory_ms"},
		{"negative directory timeout", func(c *Config) { c.Timeouts.DirectoryMs = -1 }, "timeouts.directory_ms"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
