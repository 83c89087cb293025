package quality_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orrery/internal/quality"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// feedWindow renders fps frames spread across one window starting at start
// and returns the decision from the frame that closes it.
func feedWindow(c *quality.Controller, start time.Time, fps int) (quality.Decision, time.Time) {
	var d quality.Decision
	var now time.Time
	for i := 1; i <= fps; i++ {
		now = start.Add(time.Duration(i) * time.Second / time.Duration(fps))
		if i == fps {
			now = start.Add(time.Second + time.Millisecond)
		}
		d = c.Sample(now, true)
		if i < fps {
			Expect(d.WindowClosed).To(BeFalse())
		}
	}
	return d, now
}

var _ = Describe("Controller", func() {
	var c *quality.Controller

	BeforeEach(func() {
		c = quality.New(quality.DefaultConfig())
		c.Sample(epoch, false)
	})

	It("starts at the device cap with trails on", func() {
		Expect(c.PixelRatio()).To(Equal(2.0))
		Expect(c.TrailsEnabled()).To(BeTrue())
		Expect(c.FPS()).To(Equal(60))
		Expect(c.TrailsAllowed()).To(BeTrue())
	})

	It("reports the frame count of a closed window as fps", func() {
		d, _ := feedWindow(c, epoch, 42)
		Expect(d.WindowClosed).To(BeTrue())
		Expect(d.FPS).To(Equal(42))
		Expect(d.PixelRatioChanged).To(BeFalse())
		Expect(d.TrailsDisabled).To(BeFalse())
	})

	It("downgrades once and disables trails once over three slow windows", func() {
		downgrades, disables := 0, 0
		start := epoch
		for w := 0; w < 3; w++ {
			var d quality.Decision
			d, start = feedWindow(c, start, 20)
			Expect(d.WindowClosed).To(BeTrue())
			Expect(d.FPS).To(Equal(20))
			if d.PixelRatioChanged {
				downgrades++
			}
			if d.TrailsDisabled {
				disables++
			}
		}

		Expect(downgrades).To(Equal(1))
		Expect(disables).To(Equal(1))
		Expect(c.PixelRatio()).To(Equal(1.0))
		Expect(c.TrailsEnabled()).To(BeFalse())
	})

	It("does not restore trails when the rate recovers", func() {
		_, next := feedWindow(c, epoch, 20)
		d, _ := feedWindow(c, next, 60)

		Expect(d.PixelRatioChanged).To(BeTrue())
		Expect(d.PixelRatio).To(Equal(2.0))
		Expect(d.TrailsEnabled).To(BeFalse())
	})

	It("holds the ratio inside the hysteresis band", func() {
		_, next := feedWindow(c, epoch, 28)
		Expect(c.PixelRatio()).To(Equal(1.0))
		Expect(c.TrailsEnabled()).To(BeTrue())

		d, _ := feedWindow(c, next, 40)
		Expect(d.PixelRatioChanged).To(BeFalse())
		Expect(c.PixelRatio()).To(Equal(1.0))
	})

	It("does not count frames that were not rendered", func() {
		for i := 1; i <= 10; i++ {
			c.Sample(epoch.Add(time.Duration(i)*50*time.Millisecond), i%2 == 0)
		}
		d := c.Sample(epoch.Add(1100*time.Millisecond), false)
		Expect(d.WindowClosed).To(BeTrue())
		Expect(d.FPS).To(Equal(5))
	})

	It("gates trail recording on the fps floor", func() {
		feedWindow(c, epoch, 30)
		Expect(c.TrailsEnabled()).To(BeTrue())
		Expect(c.TrailsAllowed()).To(BeFalse())
	})

	Context("on a low density display", func() {
		BeforeEach(func() {
			cfg := quality.DefaultConfig()
			cfg.DevicePixelRatio = 1
			c = quality.New(cfg)
			c.Sample(epoch, false)
		})

		It("never changes the ratio", func() {
			d, next := feedWindow(c, epoch, 10)
			Expect(d.PixelRatioChanged).To(BeFalse())
			d, _ = feedWindow(c, next, 60)
			Expect(d.PixelRatioChanged).To(BeFalse())
			Expect(c.PixelRatio()).To(Equal(1.0))
		})
	})

	It("caps the device ratio at two", func() {
		cfg := quality.DefaultConfig()
		cfg.DevicePixelRatio = 3
		Expect(quality.New(cfg).DeviceCap()).To(Equal(2.0))
	})

	It("clamps the current ratio when the device ratio drops", func() {
		c.SetDevicePixelRatio(1.5)
		Expect(c.PixelRatio()).To(Equal(1.5))
	})
})
