package serialport

import "github.com/sarchlab/akitaio/iothread"

// StartGuard opens the serial line and starts a guard serving it.
func StartGuard(
	cfg Config,
	guardCfg iothread.Config[[]byte],
) (*iothread.Guard[[]byte, []byte], error) {
	port, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	return iothread.Start(cfg.Path,
		[]iothread.Medium[[]byte, []byte]{port}, guardCfg)
}
