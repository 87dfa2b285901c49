package sim

// A RemotePort is the name of the port a message is sent to or comes from.
type RemotePort string

// A Msg is what components send to each other through ports. Port models
// wrap every payload into one.
type Msg interface {
	Meta() *MsgMeta
	Clone() Msg
}

// MsgMeta holds the routing information of a message.
type MsgMeta struct {
	ID       string
	Src, Dst RemotePort
}
