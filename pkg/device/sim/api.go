package sim

// Messages understood by the simulated dataplane.
const (
	MsgCreateInterface   = "create_interface"
	MsgDeleteInterface   = "delete_interface"
	MsgSetInterfaceMTU   = "set_interface_mtu"
	MsgSetInterfaceFlags = "set_interface_flags"
	MsgDumpInterfaces    = "dump_interfaces"
	MsgAddDelNeighbour   = "add_del_neighbour"
	MsgDumpNeighbours    = "dump_neighbours"
)

// Return values of failed requests.
const (
	RetvalInvalidIndex  int32 = -2
	RetvalAlreadyExists int32 = -17
	RetvalNoSuchEntry   int32 = -6
	RetvalUnsupported   int32 = -30
	RetvalInvalidValue  int32 = -1
)

type CreateInterface struct {
	// Tag is the symbolic name stored with the interface.
	Tag string
	MTU uint32
}

type CreateInterfaceReply struct {
	SwIfIndex uint32
}

type DeleteInterface struct {
	SwIfIndex uint32
}

type SetInterfaceMTU struct {
	SwIfIndex uint32
	MTU       uint32
}

type SetInterfaceFlags struct {
	SwIfIndex uint32
	AdminUp   bool
}

type DumpInterfaces struct{}

type InterfaceDetails struct {
	SwIfIndex uint32
	Tag       string
	MTU       uint32
	AdminUp   bool
}

type AddDelNeighbour struct {
	SwIfIndex uint32
	Address   string
	MAC       string
	IsAdd     bool
}

type DumpNeighbours struct {
	SwIfIndex uint32
}

type NeighbourDetails struct {
	SwIfIndex uint32
	Address   string
	MAC       string
}
