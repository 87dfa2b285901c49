package udpport

import "github.com/sarchlab/akitaio/iothread"

// StartGuard binds the socket and starts a guard serving it. The socket is
// returned too so callers can learn the bound address.
func StartGuard(
	cfg Config,
	guardCfg iothread.Config[Datagram],
) (*iothread.Guard[Datagram, Datagram], *Socket, error) {
	s, err := Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	guardCfg.Router = nil
	guardCfg.Check = Check

	g, err := iothread.Start(s.Name(),
		[]iothread.Medium[Datagram, Datagram]{s}, guardCfg)
	if err != nil {
		return nil, nil, err
	}

	return g, s, nil
}
