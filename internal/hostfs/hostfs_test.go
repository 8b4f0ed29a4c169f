package hostfs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	fs := New("/host")

	tests := []struct {
		name    string
		rel     string
		want    string
		wantErr bool
	}{
		{name: "relative", rel: "etc/passwd", want: "/host/etc/passwd"},
		{name: "leading slash", rel: "/etc/group", want: "/host/etc/group"},
		{name: "empty", rel: "", wantErr: true},
		{name: "dot", rel: ".", wantErr: true},
		{name: "escape", rel: "../etc/shadow", wantErr: true},
		{name: "parent only", rel: "..", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fs.Path(tt.rel)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewDefaultsToSlash(t *testing.T) {
	p, err := New("").Path(EtcPasswdRel)
	require.NoError(t, err)
	assert.Equal(t, "/etc/passwd", p)
}

func TestReadFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "etc"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "etc", "group"), []byte("sudo:x:27:alice\n"), 0o644))

	b, err := New(root).ReadFile(EtcGroupRel)
	require.NoError(t, err)
	assert.Equal(t, "sudo:x:27:alice\n", string(b))

	_, err = New(root).ReadFile(EtcShadowRel)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
