//go:build linux

package serialport

import (
	"fmt"
	"log/slog"

	"github.com/Gurux/gxcommon-go"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/sys/unix"

	"github.com/sarchlab/akitaio/iothread"
)

// openPty returns the master descriptor and the slave path of a new pty.
func openPty() (int, string, error) {
	master, err := unix.Open("/dev/ptmx",
		unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, "", err
	}

	if err := unix.IoctlSetPointerInt(master, unix.TIOCSPTLCK, 0); err != nil {
		_ = unix.Close(master)
		return -1, "", err
	}

	n, err := unix.IoctlGetInt(master, unix.TIOCGPTN)
	if err != nil {
		_ = unix.Close(master)
		return -1, "", err
	}

	return master, fmt.Sprintf("/dev/pts/%d", n), nil
}

var _ = Describe("Port", func() {
	var (
		master int
		path   string
	)

	BeforeEach(func() {
		var err error
		master, path, err = openPty()
		if err != nil {
			Skip("pty not available: " + err.Error())
		}
	})

	AfterEach(func() {
		_ = unix.Close(master)
	})

	It("should reject an unsupported baud rate", func() {
		cfg := DefaultConfig(path)
		cfg.BaudRate = gxcommon.BaudRate(12345)

		_, err := Open(cfg)

		Expect(err).To(MatchError(ContainSubstring("unsupported baud rate")))
	})

	It("should exchange bytes through a guard", func() {
		cfg := DefaultConfig(path)
		cfg.BaudRate = gxcommon.BaudRate(9600)

		g, err := StartGuard(cfg, iothread.Config[[]byte]{
			Logger: slog.New(slog.NewTextHandler(GinkgoWriter, nil)),
		})
		Expect(err).NotTo(HaveOccurred())
		defer g.Stop()

		_, err = unix.Write(master, []byte("hello\n"))
		Expect(err).NotTo(HaveOccurred())

		var received []byte
		Eventually(func() string {
			for _, p := range g.RecvAll() {
				received = append(received, p...)
			}

			return string(received)
		}).Should(Equal("hello\n"))

		Expect(g.Send([]byte("ping"))).To(Succeed())

		var echoed []byte
		Eventually(func() string {
			buf := make([]byte, 64)
			n, err := unix.Read(master, buf)
			if err == nil && n > 0 {
				echoed = append(echoed, buf[:n]...)
			}

			return string(echoed)
		}).Should(Equal("ping"))
	})
})
