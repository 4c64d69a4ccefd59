package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper(overrides map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for k, val := range overrides {
		v.Set(k, val)
	}
	return v
}

func TestDecodeDefaults(t *testing.T) {
	cfg, err := decode(newViper(map[string]any{
		"security.jwtsecret": "test-secret",
		"storage.driver":     StorageDriverMemory,
	}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	if cfg.Ledger.DefaultAllowedMinutes != 120 || cfg.Ledger.RewardMinutes != 15 || cfg.Ledger.MinimumAllowedMinutes != 15 {
		t.Fatalf("ledger policy = %+v", cfg.Ledger)
	}
	if cfg.Security.TokenTTL != time.Hour {
		t.Fatalf("token ttl = %v", cfg.Security.TokenTTL)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second || cfg.Worker.ClaimIdle != time.Minute {
		t.Fatalf("durations not decoded: %+v %+v", cfg.HTTP, cfg.Worker)
	}
	if cfg.Ledger.Location().String() != "UTC" {
		t.Fatalf("location = %v", cfg.Ledger.Location())
	}
}

func TestDecodeSplitsOriginList(t *testing.T) {
	cfg, err := decode(newViper(map[string]any{
		"security.jwtsecret": "test-secret",
		"storage.driver":     StorageDriverMemory,
		"allowcorsorigins":   "https://a.example,https://b.example",
	}))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(cfg.AllowCORSOrigins) != 2 || cfg.AllowCORSOrigins[1] != "https://b.example" {
		t.Fatalf("origins = %v", cfg.AllowCORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		overrides map[string]any
		wantErr   string
	}{
		{"missing secret", map[string]any{"storage.driver": StorageDriverMemory}, "jwtsecret"},
		{"postgres without dsn", map[string]any{"security.jwtsecret": "s"}, "postgres.dsn"},
		{"unknown driver", map[string]any{"security.jwtsecret": "s", "storage.driver": "sqlite"}, "unknown storage driver"},
		{"zero reward", map[string]any{"security.jwtsecret": "s", "storage.driver": StorageDriverMemory, "ledger.rewardminutes": 0}, "rewardminutes"},
		{"default below floor", map[string]any{"security.jwtsecret": "s", "storage.driver": StorageDriverMemory, "ledger.defaultallowedminutes": 10}, "below the minimum"},
		{"zero claim interval", map[string]any{"security.jwtsecret": "s", "storage.driver": StorageDriverMemory, "worker.claiminterval": "0s"}, "claiminterval"},
		{"negative block timeout", map[string]any{"security.jwtsecret": "s", "storage.driver": StorageDriverMemory, "worker.blocktimeout": "-1s"}, "blocktimeout"},
		{"zero claim idle", map[string]any{"security.jwtsecret": "s", "storage.driver": StorageDriverMemory, "worker.claimidle": "0s"}, "claimidle"},
		{"empty stream", map[string]any{"security.jwtsecret": "s", "storage.driver": StorageDriverMemory, "worker.stream": ""}, "worker.stream"},
		{"bad timezone", map[string]any{"security.jwtsecret": "s", "storage.driver": StorageDriverMemory, "ledger.timezone": "Mars/Olympus"}, "timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decode(newViper(tt.overrides))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
