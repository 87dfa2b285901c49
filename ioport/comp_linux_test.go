//go:build linux

package ioport

import (
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sys/unix"

	"github.com/sarchlab/akitaio/iothread"
	"github.com/sarchlab/akitaio/sim"
)

var _ = Describe("Comp over a guard", func() {
	It("should carry payloads both ways and release the guard", func() {
		fds, err := unix.Socketpair(unix.AF_UNIX,
			unix.SOCK_SEQPACKET|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK, 0)
		Expect(err).NotTo(HaveOccurred())
		peer := fds[1]
		defer unix.Close(peer)

		medium, err := iothread.NewStreamMedium("sock", fds[0], 0)
		Expect(err).NotTo(HaveOccurred())

		guard, err := iothread.Start("sock",
			[]iothread.Medium[[]byte, []byte]{medium},
			iothread.Config[[]byte]{
				Logger: slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
			})
		Expect(err).NotTo(HaveOccurred())

		engine := sim.NewSerialEngine()
		sink := NewSink[[]byte]("Sink", engine)
		f := newFeeder("Feeder")
		conn := sim.NewDirectConnection("Conn")

		c := MakeBuilder[[]byte, []byte]().
			WithEngine(engine).
			WithBridge(guard).
			WithPeriod(0.01).
			WithDelta(0.005).
			WithHorizon(0.03).
			WithDownstream(sink.Port.AsRemote()).
			Build("Port")

		conn.PlugIn(sink.Port)
		conn.PlugIn(f.port)
		conn.PlugIn(c.Input)
		conn.PlugIn(c.Output)

		for _, p := range []string{"p1", "p2", "p3"} {
			_, err := unix.Write(peer, []byte(p))
			Expect(err).NotTo(HaveOccurred())
		}
		Eventually(func() int { return guard.Stats().InboundPending }).
			Should(Equal(3))

		c.Start(0)
		Expect(engine.Run()).To(Succeed())

		Expect(sink.Payloads()).To(Equal(
			[][]byte{[]byte("p1"), []byte("p2"), []byte("p3")}))

		Expect(f.port.Send(NewPayloadMsg(
			f.port.AsRemote(), c.Input.AsRemote(), []byte("out")))).To(BeNil())

		engine.Finished()
		Expect(guard.State()).To(Equal(iothread.StateStopped))

		buf := make([]byte, 16)
		n, err := unix.Read(peer, buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(buf[:n])).To(Equal("out"))
	})
})
