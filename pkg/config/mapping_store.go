package config

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
)

const (
	mappingStoreMemory = "memory"
	mappingStoreBadger = "badgerdb"
	mappingStoreBolt   = "bbolt"
)

type MappingStoreConfig struct {
	// store type: "badgerdb", "bbolt" or "memory"
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
	// directory holding the store files
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`
}

func (m *MappingStoreConfig) validateSetDefaults() error {
	switch m.Type {
	case "":
		m.Type = defaultMappingStoreType
	case mappingStoreMemory, mappingStoreBadger, mappingStoreBolt:
	default:
		return fmt.Errorf("unknown mapping-store type %q", m.Type)
	}
	if m.Type == mappingStoreMemory {
		return nil
	}
	if m.Dir == "" {
		m.Dir = defaultMappingStoreDir
	}
	dir, err := homedir.Expand(m.Dir)
	if err != nil {
		return fmt.Errorf("invalid mapping-store dir %q: %w", m.Dir, err)
	}
	m.Dir = dir
	return nil
}

// BoltFile returns the database file used by the bbolt store.
func (m *MappingStoreConfig) BoltFile() string {
	return filepath.Join(m.Dir, defaultBoltFileName)
}
