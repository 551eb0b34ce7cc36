package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAll(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	bolt, err := Open(DriverBolt, filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	file, err := Open(DriverFile, filepath.Join(dir, "history.json"))
	require.NoError(t, err)

	mem, err := Open(DriverMemory, "")
	require.NoError(t, err)

	assert.IsType(t, &BoltStore{}, bolt)
	assert.IsType(t, &FileStore{}, file)
	assert.IsType(t, &MemoryStore{}, mem)

	return map[string]Store{DriverBolt: bolt, DriverFile: file, DriverMemory: mem}
}

func TestStoreContract(t *testing.T) {
	for name, s := range openAll(t) {
		s := s
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Put("k", []byte(`[{"role":"user","content":"hi"}]`)))
			v, ok, err := s.Get("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.JSONEq(t, `[{"role":"user","content":"hi"}]`, string(v))

			require.NoError(t, s.Put("k", []byte(`[]`)))
			v, _, err = s.Get("k")
			require.NoError(t, err)
			assert.Equal(t, "[]", string(v))

			require.NoError(t, s.Delete("k"))
			_, ok, err = s.Get("k")
			require.NoError(t, err)
			assert.False(t, ok)

			assert.NoError(t, s.Delete("k"), "deleting twice is fine")
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("redis", "")
	assert.Error(t, err)
}

func TestBoltSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("k", []byte("v")))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestFileStoreCorruptedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	s := NewFileStore(path)
	_, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.False(t, ok)

	backup, err := os.ReadFile(path + ".backup")
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(backup))

	require.NoError(t, s.Put("k", []byte("v")))
	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", string(v))
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	s := NewMemoryStore()
	in := []byte("abc")
	require.NoError(t, s.Put("k", in))
	in[0] = 'z'

	out, _, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}
