package sim

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("RealTimePacer", func() {
	var (
		pacer  *RealTimePacer
		clock  time.Time
		sleeps []time.Duration
	)

	BeforeEach(func() {
		clock = time.Unix(1000, 0)
		sleeps = nil
		pacer = NewRealTimePacer()
		pacer.now = func() time.Time { return clock }
		pacer.sleep = func(d time.Duration) {
			sleeps = append(sleeps, d)
			clock = clock.Add(d)
		}
	})

	fire := func(t VTimeInSec) {
		evt := &plainEvent{EventBase: MakeEventBase(t, nil)}
		pacer.Func(HookCtx{Pos: HookPosBeforeEvent, Item: evt})
	}

	It("should not sleep for the first event", func() {
		fire(2)
		Expect(sleeps).To(BeEmpty())
	})

	It("should wait until wall clock catches up", func() {
		fire(0)
		fire(0.5)
		clock = clock.Add(200 * time.Millisecond)
		fire(1)

		Expect(sleeps).To(Equal([]time.Duration{
			500 * time.Millisecond,
			300 * time.Millisecond,
		}))
	})

	It("should apply the scale", func() {
		pacer.Scale = 0.5
		fire(0)
		fire(1)

		Expect(sleeps).To(Equal([]time.Duration{500 * time.Millisecond}))
	})

	It("should ignore after-event hooks", func() {
		fire(0)
		evt := &plainEvent{EventBase: MakeEventBase(10, nil)}
		pacer.Func(HookCtx{Pos: HookPosAfterEvent, Item: evt})

		Expect(sleeps).To(BeEmpty())
	})
})
