// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staranto/unitdex/internal/config"
)

func TestExpandArgSets(t *testing.T) {
	p := filepath.Join(t.TempDir(), "unitdex.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`units:
  defaults:
    - --show-base
  mythic:
    - --rarity Mythic
    - -o json
codes:
  defaults: --titles
`), 0o600))
	t.Setenv("UNITDEX_CFG", p)
	_, err := config.Load()
	require.NoError(t, err)
	t.Cleanup(func() { config.Config = config.Type{} })

	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr bool
	}{
		{
			name: "defaults",
			args: []string{"unitdex", "units", "--search", "jin"},
			want: []string{"unitdex", "units", "--show-base", "--search", "jin"},
		},
		{
			name: "named set in place",
			args: []string{"unitdex", "units", "--search", "jin", "@mythic", "-t"},
			want: []string{"unitdex", "units", "--search", "jin", "--rarity", "Mythic", "-o", "json", "-t"},
		},
		{
			name: "single string set",
			args: []string{"unitdex", "codes"},
			want: []string{"unitdex", "codes", "--titles"},
		},
		{
			name: "no defaults",
			args: []string{"unitdex", "refresh", "units"},
			want: []string{"unitdex", "refresh", "units"},
		},
		{
			name: "help wins",
			args: []string{"unitdex", "units", "@mythic", "-h"},
			want: []string{"unitdex", "units", "--help"},
		},
		{
			name: "root flag untouched",
			args: []string{"unitdex", "--version"},
			want: []string{"unitdex", "--version"},
		},
		{
			name:    "unknown set",
			args:    []string{"unitdex", "units", "@nope"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandArgSets(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
