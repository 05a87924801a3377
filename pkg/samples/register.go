package samples

import (
	"github.com/sdcio/dataplane-translator/pkg/device"
	"github.com/sdcio/dataplane-translator/pkg/naming"
	"github.com/sdcio/dataplane-translator/pkg/path"
	"github.com/sdcio/dataplane-translator/pkg/registry"
)

// InterfaceContext is the naming context mapping interface names to
// sw_if_index values.
const InterfaceContext = "interface-context"

var (
	InterfacesPath = path.MustParse("/interfaces")
	InterfacePath  = path.MustParse("/interfaces/interface")
	NeighboursPath = path.MustParse("/interfaces/interface/neighbours")
	NeighbourPath  = path.MustParse("/interfaces/interface/neighbours/neighbour")
)

// Register adds the interface and neighbour handlers to b.
func Register(b *registry.Builder, rc *device.ReplyConsumer, names *naming.Registry) error {
	ifNames, err := names.Get(InterfaceContext)
	if err != nil {
		return err
	}
	ih, err := NewInterfaceHandler(rc, ifNames)
	if err != nil {
		return err
	}
	nh, err := NewNeighbourHandler(rc, ifNames)
	if err != nil {
		return err
	}
	b.RegisterStructural(InterfacesPath)
	b.Register(ih, InterfacePath)
	b.RegisterStructural(NeighboursPath)
	b.Register(nh, NeighbourPath)
	return nil
}
