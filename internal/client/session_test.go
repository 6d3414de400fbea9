package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSessionTransitions(t *testing.T) {
	s := NewSession(State{})
	require.False(t, s.IsLoggedIn())

	var seen []State
	s.Subscribe(func(st State) { seen = append(seen, st) })
	s.Subscribe(nil)

	s.SignIn(State{ID: "a@x.com", Username: "A", Email: "a@x.com", Token: "t"})
	require.True(t, s.IsLoggedIn())
	require.Equal(t, "t", s.Token())
	require.Equal(t, "a@x.com", s.Email())

	s.SetProfileImage("https://img")
	require.Equal(t, "https://img", s.Snapshot().ProfileImageURL)

	s.Logout()
	require.False(t, s.IsLoggedIn())
	require.Equal(t, State{}, s.Snapshot())

	require.Len(t, seen, 3)
	require.Equal(t, "t", seen[0].Token)
	require.Equal(t, "https://img", seen[1].ProfileImageURL)
	require.Equal(t, State{}, seen[2])
}

func TestLocalStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	storage := NewLocalStorage(path)

	_, ok, err := storage.GetItem("k")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, storage.SetItem("k", "v"))
	require.NoError(t, storage.SetItem("other", "x"))
	value, ok, err := NewLocalStorage(path).GetItem("k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "v", value)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, storage.RemoveItem("k"))
	_, ok, err = storage.GetItem("k")
	require.NoError(t, err)
	require.False(t, ok)
	value, _, err = storage.GetItem("other")
	require.NoError(t, err)
	require.Equal(t, "x", value)
}

func TestSessionPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	storage := NewLocalStorage(path)

	session, err := LoadSession(storage)
	require.NoError(t, err)
	require.False(t, session.IsLoggedIn())
	PersistTo(session, storage, func(err error) { t.Fatalf("persist: %v", err) })

	session.SignIn(State{ID: "a@x.com", Username: "A", Email: "a@x.com", Token: "t"})
	session.SetProfileImage("https://img")

	restored, err := LoadSession(NewLocalStorage(path))
	require.NoError(t, err)
	require.Equal(t, session.Snapshot(), restored.Snapshot())

	session.Logout()
	restored, err = LoadSession(NewLocalStorage(path))
	require.NoError(t, err)
	require.False(t, restored.IsLoggedIn())
}

func TestLoadSessionCorruptSnapshot(t *testing.T) {
	storage := NewLocalStorage(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, storage.SetItem(StateKey, "{broken"))

	session, err := LoadSession(storage)
	require.NoError(t, err)
	require.False(t, session.IsLoggedIn())

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("not json"), 0o600))
	_, err = LoadSession(NewLocalStorage(bad))
	require.Error(t, err)
}
