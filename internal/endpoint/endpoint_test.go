package endpoint

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name       string
		persisted  string
		override   string
		prompt     bool
		input      string
		want       string
		wantPrompt string
		wantErr    error
	}{
		{
			name:       "user input wins",
			persisted:  "http://old:8073",
			prompt:     true,
			input:      "  http://kiwi.local:8073/ \n",
			want:       "http://kiwi.local:8073",
			wantPrompt: "KiwiSDR base URL [http://old:8073]: ",
		},
		{
			name:       "empty input uses persisted default",
			persisted:  "http://old:8073\n",
			prompt:     true,
			input:      "\n",
			want:       "http://old:8073",
			wantPrompt: "KiwiSDR base URL [http://old:8073]: ",
		},
		{
			name:       "no default in prompt",
			prompt:     true,
			input:      "http://kiwi:8073",
			want:       "http://kiwi:8073",
			wantPrompt: "KiwiSDR base URL: ",
		},
		{
			name:      "override replaces persisted default",
			persisted: "http://old:8073",
			override:  "http://new:8073//",
			want:      "http://new:8073",
		},
		{
			name:      "no prompt uses persisted",
			persisted: "http://old:8073",
			want:      "http://old:8073",
		},
		{
			name:       "nothing available",
			prompt:     true,
			input:      "",
			wantPrompt: "KiwiSDR base URL: ",
			wantErr:    ErrNoEndpoint,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			file := filepath.Join(t.TempDir(), "last_kiwi_url.txt")
			if tt.persisted != "" {
				require.NoError(t, os.WriteFile(file, []byte(tt.persisted), 0o644))
			}
			var out bytes.Buffer

			got, err := Resolve(Options{
				File:     file,
				Override: tt.override,
				Prompt:   tt.prompt,
				In:       strings.NewReader(tt.input),
				Out:      &out,
			})

			assert.Equal(t, tt.wantPrompt, out.String())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				_, statErr := os.Stat(file)
				assert.True(t, os.IsNotExist(statErr), "nothing is persisted on failure")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, Load(file))
		})
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "state", "url.txt")
	require.NoError(t, Save(file, "http://kiwi:8073"))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "http://kiwi:8073", string(data))
}

func TestLoadMissing(t *testing.T) {
	assert.Empty(t, Load(filepath.Join(t.TempDir(), "missing.txt")))
	assert.Empty(t, Load(""))
}
