package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, v any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0600))
}

func TestNewManagerCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "mailtally.json")

	m, err := NewManager(path)
	require.NoError(t, err)

	s := m.Settings()
	assert.Equal(t, SourceGmail, s.Source)
	assert.Equal(t, DefaultFolder, s.Folder)
	assert.Equal(t, DefaultMaxCount, s.MaxCount)
	assert.FileExists(t, path)

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, s, reloaded.Settings())
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailtally.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"settings":{"folder":"Archive"}}`), 0600))

	m, err := NewManager(path)
	require.NoError(t, err)
	s := m.Settings()
	assert.Equal(t, "Archive", s.Folder)
	assert.Equal(t, DefaultMaxCount, s.MaxCount)
	assert.Equal(t, "credentials.json", s.Gmail.CredentialsFile)
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *File)
	}{
		{"unknown source", func(f *File) { f.Settings.Source = "pop3" }},
		{"batch too large", func(f *File) { f.Settings.MaxCount = 501 }},
		{"batch negative", func(f *File) { f.Settings.MaxCount = -1 }},
		{"empty folder", func(f *File) { f.Settings.Folder = "" }},
		{"imap without host", func(f *File) {
			f.Settings.Source = SourceIMAP
			f.Settings.IMAP = IMAPSettings{Port: 993, Username: "u", Password: "p"}
		}},
		{"gmail without token file", func(f *File) { f.Settings.Gmail.TokenFile = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "mailtally.json")
			f := Default()
			tt.mutate(&f)
			writeFile(t, path, f)

			_, err := NewManager(path)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailtally.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"settings":`), 0600))

	_, err := NewManager(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestIMAPSettingsAccepted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailtally.json")
	f := Default()
	f.Settings.Source = SourceIMAP
	f.Settings.IMAP = IMAPSettings{Host: "imap.example.com", Port: 993, Username: "me", Password: "secret"}
	writeFile(t, path, f)

	m, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, "imap.example.com", m.Settings().IMAP.Host)
}

func TestAddIgnoreRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mailtally.json")
	m, err := NewManager(path)
	require.NoError(t, err)

	require.NoError(t, m.AddIgnoreSender("news@example.com"))
	require.NoError(t, m.AddIgnoreSender("NEWS@example.com"))
	require.NoError(t, m.AddIgnoreKeywordInSubject("newsletter"))
	assert.ErrorIs(t, m.AddIgnoreSender("  "), ErrInvalidConfig)

	f := m.GetFilters()
	assert.Equal(t, []string{"news@example.com"}, f.IgnoreSenders)
	assert.Equal(t, []string{"newsletter"}, f.IgnoreKeywordsInSubject)

	// the returned copy does not alias internal state
	f.IgnoreSenders[0] = "changed"
	assert.Equal(t, "news@example.com", m.GetFilters().IgnoreSenders[0])

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"news@example.com"}, reloaded.GetFilters().IgnoreSenders)
}
