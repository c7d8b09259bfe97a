package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.HistoryCapacity)
	assert.Equal(t, 20, cfg.SnapshotInterval)
	assert.Equal(t, 1500*time.Millisecond, cfg.TypingDebounce)
	assert.Equal(t, "_blank", cfg.LinkTarget)
	assert.Equal(t, "noopener noreferrer", cfg.LinkRel)
	assert.Equal(t, DefaultToolbar, cfg.Toolbar)

	// the default toolbar is copied, not shared
	cfg.Toolbar[0] = "changed"
	assert.Equal(t, "bold", DefaultToolbar[0])
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr []string
	}{
		{
			name:   "separators and heading menu",
			mutate: func(c *Config) { c.Toolbar = []string{"|", "heading", "|", "codeBlock", "indentList"} },
		},
		{
			name:    "unknown toolbar names",
			mutate:  func(c *Config) { c.Toolbar = []string{"bold", "sparkle", "explode"} },
			wantErr: []string{"unknown toolbar commands: sparkle, explode"},
		},
		{
			name:   "class map override",
			mutate: func(c *Config) { c.ClassMap = map[string]string{"p": "my-p", " H1 ": "big"} },
		},
		{
			name:    "class map for unsupported tag",
			mutate:  func(c *Config) { c.ClassMap = map[string]string{"div": "x"} },
			wantErr: []string{`unsupported tag "div"`},
		},
		{
			name: "non-positive limits",
			mutate: func(c *Config) {
				c.HistoryCapacity = 0
				c.SnapshotInterval = -1
				c.TypingDebounce = -time.Second
			},
			wantErr: []string{"history capacity", "snapshot interval", "typing debounce"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestClassesAreIndependent(t *testing.T) {
	cfg := Default()
	cfg.ClassMap = map[string]string{"p": "custom"}

	a := cfg.Classes()
	b := cfg.Classes()
	a["p"] = "mutated"

	assert.Equal(t, "custom", b.ClassFor("p"))
	assert.Equal(t, "custom", cfg.ClassMap["p"])
	assert.NotEmpty(t, b.ClassFor("strong"))
}

func TestIsBoundary(t *testing.T) {
	cfg := Default()
	for _, s := range []string{" ", ".", "!", "?", ",", ";"} {
		assert.True(t, cfg.IsBoundary(s), s)
	}
	for _, s := range []string{"", "a", " .", "\n"} {
		assert.False(t, cfg.IsBoundary(s), s)
	}
}
