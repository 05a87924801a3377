package samples

import (
	"fmt"
	"slices"

	"github.com/sdcio/dataplane-translator/pkg/path"
)

// Interface is the configuration of /interfaces/interface[name=...].
type Interface struct {
	Name    string `json:"name"`
	MTU     uint32 `json:"mtu,omitempty"`
	Enabled bool   `json:"enabled"`

	// Neighbours holds the addresses of the neighbours read from the device.
	// It is operational data and not compared.
	Neighbours []string `json:"neighbours,omitempty"`
}

func (i *Interface) Equal(other any) bool {
	o, ok := other.(*Interface)
	if !ok || i == nil || o == nil {
		return ok && i == o
	}
	return i.Name == o.Name && i.MTU == o.MTU && i.Enabled == o.Enabled
}

func (i *Interface) withNeighbour(addr string) *Interface {
	result := *i
	result.Neighbours = append(slices.Clone(i.Neighbours), addr)
	slices.Sort(result.Neighbours)
	return &result
}

// Neighbour is the configuration of a static neighbour below an interface.
type Neighbour struct {
	Address string `json:"address"`
	MAC     string `json:"mac"`
}

func asInterface(v any) (*Interface, error) {
	i, ok := v.(*Interface)
	if !ok || i == nil {
		return nil, fmt.Errorf("unexpected interface value %T", v)
	}
	return i, nil
}

func asNeighbour(v any) (*Neighbour, error) {
	n, ok := v.(*Neighbour)
	if !ok || n == nil {
		return nil, fmt.Errorf("unexpected neighbour value %T", v)
	}
	return n, nil
}

func interfaceName(p path.Path) (string, error) {
	name, ok := p.KeyValue("interface", "name")
	if !ok || name == "" {
		return "", fmt.Errorf("path %s has no interface name", p)
	}
	return name, nil
}

func neighbourAddress(p path.Path) (string, error) {
	addr, ok := p.KeyValue("neighbour", "address")
	if !ok || addr == "" {
		return "", fmt.Errorf("path %s has no neighbour address", p)
	}
	return addr, nil
}
