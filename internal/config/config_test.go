package config

import (
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfig(t *testing.T) {
	type want struct {
		apiAddress  string
		runAddress  string
		sessionFile string
		currency    string
	}

	tests := []struct {
		name  string
		env   map[string]string
		flags []string
		want  want
	}{
		{
			name:  "defaults",
			env:   map[string]string{},
			flags: []string{},
			want: want{
				apiAddress: "http://localhost:8080",
				runAddress: "localhost:8080",
				currency:   "INR",
			},
		},
		{
			name: "env only",
			env: map[string]string{
				"HOTELBOOK_API_ADDRESS":  "http://localhost:9999",
				"RUN_ADDRESS":            "localhost:9999",
				"HOTELBOOK_SESSION_FILE": "/tmp/session.json",
				"HOTELBOOK_CURRENCY":     "USD",
			},
			flags: []string{},
			want: want{
				apiAddress:  "http://localhost:9999",
				runAddress:  "localhost:9999",
				sessionFile: "/tmp/session.json",
				currency:    "USD",
			},
		},
		{
			name: "flags only",
			env:  map[string]string{},
			flags: []string{
				"-a", "http://localhost:7777",
				"-r", "localhost:7777",
				"-s", "/tmp/flag-session.json",
				"-c", "EUR",
			},
			want: want{
				apiAddress:  "http://localhost:7777",
				runAddress:  "localhost:7777",
				sessionFile: "/tmp/flag-session.json",
				currency:    "EUR",
			},
		},
		{
			name: "env overrides flags",
			env: map[string]string{
				"HOTELBOOK_API_ADDRESS":  "http://env:9000",
				"RUN_ADDRESS":            "env:9000",
				"HOTELBOOK_SESSION_FILE": "/tmp/env-session.json",
				"HOTELBOOK_CURRENCY":     "GBP",
			},
			flags: []string{
				"-a", "http://flag:8000",
				"-r", "flag:8000",
				"-s", "/tmp/flag-session.json",
				"-c", "JPY",
			},
			want: want{
				apiAddress:  "http://env:9000",
				runAddress:  "env:9000",
				sessionFile: "/tmp/env-session.json",
				currency:    "GBP",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			os.Args = append([]string{"test"}, tt.flags...)

			cfg, err := Parse()
			require.NoError(t, err)

			assert.Equal(t, tt.want.apiAddress, cfg.APIAddress)
			assert.Equal(t, tt.want.runAddress, cfg.RunAddress)
			assert.Equal(t, tt.want.currency, cfg.Currency)
			if tt.want.sessionFile != "" {
				assert.Equal(t, tt.want.sessionFile, cfg.SessionFile)
			} else {
				assert.NotEmpty(t, cfg.SessionFile)
			}
		})
	}
}
