package config

import (
	"fmt"
	"time"
)

const (
	DeviceTypeSim = "sim"
)

type DeviceConfig struct {
	// device client type, currently only the simulated device "sim"
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
	// time to wait for a device reply
	ReplyTimeout time.Duration `yaml:"reply-timeout,omitempty" json:"reply-timeout,omitempty"`
	// number of requests that can be queued towards the device
	QueueSize int `yaml:"queue-size,omitempty" json:"queue-size,omitempty"`
}

func (d *DeviceConfig) validateSetDefaults() error {
	switch d.Type {
	case "":
		d.Type = defaultDeviceType
	case DeviceTypeSim:
	default:
		return fmt.Errorf("unknown device type %q", d.Type)
	}
	if d.ReplyTimeout <= 0 {
		d.ReplyTimeout = defaultReplyTimeout
	}
	if d.QueueSize <= 0 {
		d.QueueSize = defaultDeviceQueueSize
	}
	return nil
}
