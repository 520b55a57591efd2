package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	SourceGmail = "gmail"
	SourceIMAP  = "imap"

	DefaultFolder   = "INBOX"
	DefaultMaxCount = 200
	DefaultLogFile  = "mailtally.log"
)

var ErrInvalidConfig = errors.New("invalid config")

// Filters defines the structure for email filtering rules.
type Filters struct {
	IgnoreSenders           []string `json:"ignoreSenders"`
	IgnoreKeywordsInSubject []string `json:"ignoreKeywordsInSubject"`
}

type GmailSettings struct {
	CredentialsFile string `json:"credentialsFile" validate:"required"`
	TokenFile       string `json:"tokenFile" validate:"required"`
	Query           string `json:"query,omitempty"` // appended to the folder query
}

type IMAPSettings struct {
	Host     string `json:"host" validate:"required"`
	Port     int    `json:"port" validate:"min=1,max=65535"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Settings controls where a run fetches from and where it writes side output.
type Settings struct {
	Source          string        `json:"source" validate:"required,oneof=gmail imap"`
	Folder          string        `json:"folder" validate:"required"`
	MaxCount        int           `json:"maxCount" validate:"min=1,max=500"`
	LogFile         string        `json:"logFile" validate:"required"`
	Debug           bool          `json:"debug"`
	MetricsTextfile string        `json:"metricsTextfile,omitempty"`
	Gmail           GmailSettings `json:"gmail" validate:"-"`
	IMAP            IMAPSettings  `json:"imap" validate:"-"`
}

// File is the on-disk layout.
type File struct {
	Settings Settings `json:"settings"`
	Filters  Filters  `json:"filters"`
}

// Default returns the configuration written on first run.
func Default() File {
	return File{
		Settings: Settings{
			Source:   SourceGmail,
			Folder:   DefaultFolder,
			MaxCount: DefaultMaxCount,
			LogFile:  DefaultLogFile,
			Gmail: GmailSettings{
				CredentialsFile: "credentials.json",
				TokenFile:       "token.json",
			},
			IMAP: IMAPSettings{Port: 993},
		},
		Filters: Filters{
			IgnoreSenders:           []string{},
			IgnoreKeywordsInSubject: []string{},
		},
	}
}

// Manager handles loading, saving, and accessing the configuration file.
type Manager struct {
	filePath string
	file     *File
	mu       sync.RWMutex
	validate *validator.Validate
}

// NewManager loads the file at filePath, creating it with defaults if it does not exist.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{
		filePath: filePath,
		validate: validator.New(),
	}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load reads and validates the JSON file. Fields missing from the file keep their defaults.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	file := Default()
	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		m.file = &file
		return m.save() // Create the file with the default structure
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, m.filePath, err)
	}
	if err := m.validateSettings(file.Settings); err != nil {
		return err
	}
	m.file = &file
	return nil
}

func (m *Manager) validateSettings(s Settings) error {
	if err := m.validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	var err error
	switch s.Source {
	case SourceGmail:
		err = m.validate.Struct(s.Gmail)
	case SourceIMAP:
		err = m.validate.Struct(s.IMAP)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, s.Source, err)
	}
	return nil
}

// save writes the current state. Callers hold the write lock.
func (m *Manager) save() error {
	data, err := json.MarshalIndent(m.file, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("unable to create config dir: %w", err)
		}
	}
	return os.WriteFile(m.filePath, data, 0600)
}

// Settings returns a copy of the current settings.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.file.Settings
}

// GetFilters returns a copy of the current filters.
func (m *Manager) GetFilters() Filters {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Filters{
		IgnoreSenders:           append([]string(nil), m.file.Filters.IgnoreSenders...),
		IgnoreKeywordsInSubject: append([]string(nil), m.file.Filters.IgnoreKeywordsInSubject...),
	}
}

// AddIgnoreSender adds a sender to the ignore list and saves.
func (m *Manager) AddIgnoreSender(sender string) error {
	sender = strings.TrimSpace(sender)
	if sender == "" {
		return fmt.Errorf("%w: empty sender", ErrInvalidConfig)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if containsFold(m.file.Filters.IgnoreSenders, sender) {
		return nil
	}
	m.file.Filters.IgnoreSenders = append(m.file.Filters.IgnoreSenders, sender)
	return m.save()
}

// AddIgnoreKeywordInSubject adds a subject keyword to the ignore list and saves.
func (m *Manager) AddIgnoreKeywordInSubject(keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return fmt.Errorf("%w: empty keyword", ErrInvalidConfig)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if containsFold(m.file.Filters.IgnoreKeywordsInSubject, keyword) {
		return nil
	}
	m.file.Filters.IgnoreKeywordsInSubject = append(m.file.Filters.IgnoreKeywordsInSubject, keyword)
	return m.save()
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
