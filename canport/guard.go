package canport

import (
	"fmt"
	"strings"

	"github.com/sarchlab/akitaio/iothread"
)

// DefaultInterfaces are the virtual interfaces used when none are given.
var DefaultInterfaces = []string{"vcan0", "vcan1"}

// Route sends a payload to the interface it names.
func Route(d Data) int {
	return d.Interface
}

// Check rejects frames that cannot be put on the wire.
func Check(d Data) error {
	return d.Frame.Validate()
}

// StartGuard opens every interface and serves them from one guard. The
// index of an interface in ifnames is the Interface of its payloads. The
// router and the check of guardCfg are replaced.
func StartGuard(
	ifnames []string,
	guardCfg iothread.Config[Data],
) (*iothread.Guard[Data, Data], error) {
	if len(ifnames) == 0 {
		ifnames = DefaultInterfaces
	}

	media := make([]iothread.Medium[Data, Data], 0, len(ifnames))
	for i, name := range ifnames {
		s, err := Open(name, i)
		if err != nil {
			for _, m := range media {
				_ = m.Close()
			}

			return nil, err
		}

		media = append(media, s)
	}

	guardCfg.Router = Route
	guardCfg.Check = Check

	return iothread.Start(
		fmt.Sprintf("can[%s]", strings.Join(ifnames, ",")), media, guardCfg)
}
