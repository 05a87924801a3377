package store

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/config"
)

// New creates the Store configured in cfg.
func New(cfg *config.MappingStoreConfig) (Store, error) {
	switch cfg.Type {
	case TypeMemory:
		log.Warn("mapping store is not persistent, name mappings are lost on restart")
		return NewMemoryStore(), nil
	case TypeBadger:
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, err
		}
		return NewBadgerStore(cfg.Dir)
	case TypeBolt:
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, err
		}
		return NewBoltStore(cfg.BoltFile())
	}
	return nil, fmt.Errorf("unknown mapping store type %q", cfg.Type)
}
