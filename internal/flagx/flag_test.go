package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "conf.json", "-a", "localhost"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-c", "conf.json"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=alt.json", "-a", "localhost"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=alt.json"},
		},
		{
			name:    "unknown flags ignored",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-c"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "next token looks like a flag",
			args:    []string{"-c", "-t", "grpc"},
			allowed: []string{"-c"},
			want:    []string{"-c"},
		},
		{
			name:    "several allowed flags keep order",
			args:    []string{"-a", "http://h:8080", "-f", "notes.db", "-i", "30s", "-z"},
			allowed: []string{"-f", "-a"},
			want:    []string{"-a", "http://h:8080", "-f", "notes.db"},
		},
		{
			name:    "repeated flag preserved",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:    "empty",
			args:    []string{},
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	assert.Equal(t, "/p/short.json", ConfigPath([]string{"-c", "/p/short.json"}))
	assert.Equal(t, "/p/long.json", ConfigPath([]string{"-a", ":1", "-config", "/p/long.json"}))
	assert.Equal(t, "/p/eq.json", ConfigPath([]string{"-config=/p/eq.json"}))
	assert.Equal(t, "/p/2.json", ConfigPath([]string{"-c", "/p/1.json", "-config", "/p/2.json"}))
	assert.Empty(t, ConfigPath([]string{"-x", "1"}))
}

func TestJsonConfigFlags_ReadsProcessArgs(t *testing.T) {
	orig := os.Args
	t.Cleanup(func() { os.Args = orig })

	os.Args = []string{"bin", "-c", "/etc/gophnotes.json"}
	assert.Equal(t, "/etc/gophnotes.json", JsonConfigFlags())
}
