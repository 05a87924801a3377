package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

type Config struct {
	MappingStore *MappingStoreConfig `yaml:"mapping-store,omitempty" json:"mapping-store,omitempty"`
	Device       *DeviceConfig       `yaml:"device,omitempty" json:"device,omitempty"`
	Read         *ReadConfig         `yaml:"read,omitempty" json:"read,omitempty"`
	Write        *WriteConfig        `yaml:"write,omitempty" json:"write,omitempty"`
	Transaction  *TransactionConfig  `yaml:"transaction,omitempty" json:"transaction,omitempty"`
	Naming       *NamingConfig       `yaml:"naming,omitempty" json:"naming,omitempty"`
	Prometheus   *PromConfig         `yaml:"prometheus,omitempty" json:"prometheus,omitempty"`
}

// New reads the config file, if given, and applies the defaults.
func New(file string) (*Config, error) {
	c := new(Config)
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		err = yaml.Unmarshal(b, c)
		if err != nil {
			return nil, err
		}
	}
	err := c.validateSetDefaults()
	return c, err
}

func (c *Config) validateSetDefaults() error {
	if c.MappingStore == nil {
		c.MappingStore = &MappingStoreConfig{}
	}
	if c.Device == nil {
		c.Device = &DeviceConfig{}
	}
	if c.Read == nil {
		c.Read = &ReadConfig{}
	}
	if c.Write == nil {
		c.Write = &WriteConfig{}
	}
	if c.Transaction == nil {
		c.Transaction = &TransactionConfig{}
	}
	if c.Naming == nil {
		c.Naming = &NamingConfig{}
	}

	var errs []error
	errs = append(errs,
		c.MappingStore.validateSetDefaults(),
		c.Device.validateSetDefaults(),
		c.Read.validateSetDefaults(),
		c.Write.validateSetDefaults(),
		c.Transaction.validateSetDefaults(),
		c.Naming.validateSetDefaults(),
	)
	if c.Prometheus != nil {
		errs = append(errs, c.Prometheus.validateSetDefaults())
	}
	return errors.Join(errs...)
}

type PromConfig struct {
	Address string `yaml:"address,omitempty" json:"address,omitempty"`
}

func (p *PromConfig) validateSetDefaults() error {
	if p.Address == "" {
		return fmt.Errorf("missing prometheus address")
	}
	return nil
}
