package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// File keeps selections in a YAML document on local disk, keyed by user and
// then by selection key. The whole document is rewritten on every save.
type File struct {
	path string

	mu     sync.Mutex
	loaded bool
	values map[string]map[string]string
}

// NewFile creates a File store at path. The file is created on first save.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) load() error {
	if f.loaded {
		return nil
	}
	data, err := os.ReadFile(f.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		f.values = make(map[string]map[string]string)
	case err != nil:
		return err
	default:
		values := make(map[string]map[string]string)
		if err := yaml.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("parse %s: %w", f.path, err)
		}
		// A null document decodes to a nil map.
		if values == nil {
			values = make(map[string]map[string]string)
		}
		f.values = values
	}
	f.loaded = true
	return nil
}

func (f *File) Load(_ context.Context, userID, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return "", err
	}
	return f.values[userID][key], nil
}

func (f *File) Save(_ context.Context, userID, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.load(); err != nil {
		return err
	}
	user := f.values[userID]
	if user == nil {
		user = make(map[string]string)
		f.values[userID] = user
	}
	prev, had := user[key]
	user[key] = value
	if err := f.flush(); err != nil {
		if had {
			user[key] = prev
		} else {
			delete(user, key)
		}
		return err
	}
	return nil
}

func (f *File) flush() error {
	data, err := yaml.Marshal(f.values)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".selection-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
