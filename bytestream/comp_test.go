package bytestream

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akitaio/ioport"
	"github.com/sarchlab/akitaio/sim"
)

type byteSource struct {
	*sim.ComponentBase

	port sim.Port
}

func newByteSource(name string) *byteSource {
	s := &byteSource{ComponentBase: sim.NewComponentBase(name)}
	s.port = sim.NewPort(s, 4, 4, name+".Port")
	s.AddPort("Port", s.port)

	return s
}

func (s *byteSource) Handle(_ sim.Event) error { return nil }

func (s *byteSource) NotifyRecv(_ sim.Port) {}

func (s *byteSource) NotifyPortFree(_ sim.Port) {}

var _ = Describe("Comp", func() {
	It("should decode frames split across payloads", func() {
		engine := sim.NewSerialEngine()
		src := newByteSource("Src")
		sink := ioport.NewSink[kissData]("Sink", engine)
		comp := NewComp[kissData]("Decoder", newPulseDecoder())
		comp.Downstream = sink.Port.AsRemote()

		conn := sim.NewDirectConnection("Conn")
		conn.PlugIn(src.port)
		conn.PlugIn(comp.Input)
		conn.PlugIn(comp.Output)
		conn.PlugIn(sink.Port)

		chunks := [][]byte{
			{FEND, 0xAA},
			{FEND, FEND, 0x01},
			{FEND, FEND, 0xAA, FESC, FESC},
		}
		for _, chunk := range chunks {
			msg := ioport.NewPayloadMsg(
				src.port.AsRemote(), comp.Input.AsRemote(), chunk)
			Expect(src.port.Send(msg)).To(BeNil())
		}

		Expect(sink.Payloads()).To(Equal([]kissData{pulse, pulse, aborted}))
	})
})
