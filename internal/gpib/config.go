package gpib

import (
	"fmt"
	"time"

	"github.com/roman-kulish/wiltron-vna/internal/vna"
)

const (
	AddressMin = 0
	AddressMax = 30

	SecondaryAddressMin = 96
	SecondaryAddressMax = 126

	// DefaultTimeout is the initial instrument read timeout
	DefaultTimeout = 3 * time.Second
	// DefaultPollInterval is how often the SRQ line is polled during a wait
	DefaultPollInterval = 100 * time.Millisecond

	// MaxReadTimeout is the longest read timeout a Prologix controller accepts
	MaxReadTimeout = 3 * time.Second
)

// Config is the Prologix GPIB-USB controller configuration
type Config struct {
	// Required
	Port    string `yaml:"port" json:"port"`       // serial port of the controller, e.g. /dev/ttyUSB0
	Address int    `yaml:"address" json:"address"` // GPIB primary address of the instrument

	SecondaryAddress *int `yaml:"secondaryAddress" json:"secondaryAddress"` // 96..126, unset for none

	Timeout      vna.TimeDuration `yaml:"timeout" json:"timeout"`           // initial read timeout (default: 3s)
	PollInterval vna.TimeDuration `yaml:"pollInterval" json:"pollInterval"` // SRQ poll interval (default: 100ms)
	WriteDelay   vna.TimeDuration `yaml:"writeDelay" json:"writeDelay"`     // delay before each instrument command (default: none)

	ClearOnOpen bool `yaml:"clearOnOpen" json:"clearOnOpen"` // send a selected device clear on open
}

func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("gpib.Config: port is required")
	}
	if c.Address < AddressMin || c.Address > AddressMax {
		return fmt.Errorf("gpib.Config: address must be between %d and %d: %d given", AddressMin, AddressMax, c.Address)
	}
	if c.SecondaryAddress != nil {
		if sad := *c.SecondaryAddress; sad < SecondaryAddressMin || sad > SecondaryAddressMax {
			return fmt.Errorf("gpib.Config: secondary address must be between %d and %d: %d given", SecondaryAddressMin, SecondaryAddressMax, sad)
		}
	}
	for name, d := range map[string]vna.TimeDuration{
		"timeout":       c.Timeout,
		"poll interval": c.PollInterval,
		"write delay":   c.WriteDelay,
	} {
		if err := d.Validate(); err != nil {
			return fmt.Errorf("gpib.Config: invalid %s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout.Duration()
	}
	return DefaultTimeout
}

func (c *Config) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval.Duration()
	}
	return DefaultPollInterval
}

func (c *Config) String() string {
	if c.SecondaryAddress != nil {
		return fmt.Sprintf("%s GPIB%d::%d", c.Port, c.Address, *c.SecondaryAddress)
	}
	return fmt.Sprintf("%s GPIB%d", c.Port, c.Address)
}
