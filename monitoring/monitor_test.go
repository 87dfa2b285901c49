package monitoring

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/akitaio/iothread"
	"github.com/sarchlab/akitaio/ioport"
	"github.com/sarchlab/akitaio/sim"
)

var _ = Describe("Monitor", func() {
	var (
		mockCtrl *gomock.Controller
		engine   *MockEngine
		bridge   *MockBridge
		m        *Monitor
		server   *httptest.Server
	)

	get := func(path string) (int, string) {
		rsp, err := http.Get(server.URL + path)
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		body, err := io.ReadAll(rsp.Body)
		Expect(err).NotTo(HaveOccurred())

		return rsp.StatusCode, string(body)
	}

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = NewMockEngine(mockCtrl)
		bridge = NewMockBridge(mockCtrl)

		m = NewMonitor()
		m.RegisterEngine(engine)
		m.RegisterComponent(ioport.NewSink[[]byte]("Sink", engine))
		m.RegisterBridge(bridge)

		server = httptest.NewServer(m.Handler())
	})

	AfterEach(func() {
		server.Close()
		mockCtrl.Finish()
	})

	It("should report the current time", func() {
		engine.EXPECT().CurrentTime().Return(sim.VTimeInSec(1.5))

		code, body := get("/api/now")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(MatchJSON(`{"now":1.5}`))
	})

	It("should pause and continue the engine", func() {
		engine.EXPECT().Pause()
		engine.EXPECT().Continue()

		code, _ := get("/api/pause")
		Expect(code).To(Equal(http.StatusOK))

		code, _ = get("/api/continue")
		Expect(code).To(Equal(http.StatusOK))
	})

	It("should list components", func() {
		_, body := get("/api/list_components")

		Expect(body).To(MatchJSON(`["Sink"]`))
	})

	It("should serialize a component", func() {
		code, body := get("/api/component/Sink")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).NotTo(BeEmpty())
	})

	It("should return 404 for unknown components", func() {
		code, _ := get("/api/component/Nothing")

		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("should serve bridge statistics", func() {
		stats := iothread.Stats{
			State:      iothread.StateRunning,
			Received:   3,
			SendErrors: 1,
			Media:      []iothread.MediumStatus{{Name: "a", Alive: true}},
		}
		bridge.EXPECT().Name().Return("serial").AnyTimes()
		bridge.EXPECT().Stats().Return(stats).AnyTimes()

		_, body := get("/api/bridges")

		var rsp []bridgeRsp
		Expect(json.Unmarshal([]byte(body), &rsp)).To(Succeed())
		Expect(rsp).To(Equal([]bridgeRsp{{Name: "serial", Stats: stats}}))

		code, _ := get("/api/bridge/serial")
		Expect(code).To(Equal(http.StatusOK))

		code, _ = get("/api/bridge/can")
		Expect(code).To(Equal(http.StatusNotFound))
	})

	It("should track progress bars", func() {
		bar := m.CreateProgressBar("Simulation", 10)
		bar.SetFinished(4)

		_, body := get("/api/progress")
		Expect(body).To(ContainSubstring(`"finished":4`))
		Expect(bar.Fraction()).To(Equal(0.4))

		m.CompleteProgressBar(bar)
		_, body = get("/api/progress")
		Expect(body).To(MatchJSON(`[]`))
	})

	It("should cap progress at the total", func() {
		bar := m.CreateProgressBar("Simulation", 10)
		bar.SetFinished(40)

		Expect(bar.Fraction()).To(Equal(1.0))
	})

	It("should report resource usage", func() {
		code, body := get("/api/resource")

		Expect(code).To(Equal(http.StatusOK))
		Expect(body).To(ContainSubstring("memory_size"))
	})
})
