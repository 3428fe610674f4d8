package credential

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	*MemoryStore
	deleteErr error
}

func (f *failingStore) Delete(key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryStore.Delete(key)
}

func TestVaultSaveChoosesScope(t *testing.T) {
	tests := []struct {
		name          string
		remember      bool
		wantDurable   bool
		wantEphemeral bool
	}{
		{name: "remember me writes durable", remember: true, wantDurable: true},
		{name: "session only writes ephemeral", remember: false, wantEphemeral: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			durable, ephemeral := NewMemoryStore(), NewMemoryStore()
			v := NewVault(durable, ephemeral)

			require.NoError(t, v.Save("T1", tt.remember))

			_, inDurable := durable.Get(TokenKey)
			_, inEphemeral := ephemeral.Get(TokenKey)
			assert.Equal(t, tt.wantDurable, inDurable)
			assert.Equal(t, tt.wantEphemeral, inEphemeral)

			token, ok := v.Token()
			assert.True(t, ok)
			assert.Equal(t, "T1", token)
		})
	}
}

func TestVaultSaveMovesBetweenScopes(t *testing.T) {
	durable, ephemeral := NewMemoryStore(), NewMemoryStore()
	v := NewVault(durable, ephemeral)

	require.NoError(t, v.Save("OLD", true))
	require.NoError(t, v.Save("NEW", false))

	_, inDurable := durable.Get(TokenKey)
	assert.False(t, inDurable, "exactly one scope holds the credential")
	token, _ := v.Token()
	assert.Equal(t, "NEW", token)
}

func TestVaultDurableTakesPrecedence(t *testing.T) {
	durable, ephemeral := NewMemoryStore(), NewMemoryStore()
	require.NoError(t, durable.Set(TokenKey, "D"))
	require.NoError(t, ephemeral.Set(TokenKey, "E"))

	token, ok := NewVault(durable, ephemeral).Token()
	assert.True(t, ok)
	assert.Equal(t, "D", token)
}

func TestVaultClearBothScopes(t *testing.T) {
	durable, ephemeral := NewMemoryStore(), NewMemoryStore()
	require.NoError(t, durable.Set(TokenKey, "D"))
	require.NoError(t, ephemeral.Set(TokenKey, "E"))
	v := NewVault(durable, ephemeral)

	require.NoError(t, v.Clear())

	_, ok := v.Token()
	assert.False(t, ok)
}

func TestVaultClearReportsErrors(t *testing.T) {
	boom := errors.New("disk full")
	v := NewVault(&failingStore{MemoryStore: NewMemoryStore(), deleteErr: boom}, NewMemoryStore())

	assert.ErrorIs(t, v.Clear(), boom)
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")

	s, err := OpenFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(TokenKey, "T1"))

	reopened, err := OpenFileStore(path)
	require.NoError(t, err)
	token, ok := reopened.Get(TokenKey)
	assert.True(t, ok)
	assert.Equal(t, "T1", token)

	require.NoError(t, reopened.Delete(TokenKey))
	again, err := OpenFileStore(path)
	require.NoError(t, err)
	_, ok = again.Get(TokenKey)
	assert.False(t, ok)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := OpenFileStore(path)
	assert.Error(t, err)
}

func TestPreferencesSidebar(t *testing.T) {
	p := NewPreferences(NewMemoryStore())
	assert.True(t, p.SidebarOpen())

	require.NoError(t, p.SetSidebarOpen(false))
	assert.False(t, p.SidebarOpen())
}
