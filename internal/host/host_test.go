package host_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/influx-failover/internal/host"
)

var _ = Describe("Host", func() {
	Describe("New", func() {
		It("should start available without a disable stamp", func() {
			h := host.New("db1.local", 8086)
			Expect(h.IsAvailable()).To(BeTrue())
			Expect(h.State).To(Equal(host.StateAvailable))
			Expect(h.DisabledAt.IsZero()).To(BeTrue())
		})
	})

	Describe("Address", func() {
		It("should join name and port", func() {
			Expect(host.New("db1.local", 8086).Address()).To(Equal("db1.local:8086"))
		})

		It("should bracket IPv6 literals", func() {
			Expect(host.New("::1", 8086).Address()).To(Equal("[::1]:8086"))
		})
	})

	Describe("URL", func() {
		It("should default to http", func() {
			Expect(host.New("db1.local", 8086).URL("").String()).To(Equal("http://db1.local:8086"))
		})

		It("should honour the given scheme", func() {
			Expect(host.New("db1.local", 8084).URL("https").String()).To(Equal("https://db1.local:8084"))
		})
	})

	Describe("JSON", func() {
		It("should render the state name and omit an empty disable stamp", func() {
			data, err := json.Marshal(host.New("db1.local", 8086))
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(MatchJSON(`{"host":"db1.local","port":8086,"state":"available"}`))
		})

		It("should include the disable stamp of a disabled host", func() {
			h := host.New("db1.local", 8086)
			h.State = host.StateDisabled
			h.DisabledAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

			data, err := json.Marshal(h)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(MatchJSON(`{"host":"db1.local","port":8086,"state":"disabled","disabled_at":"2024-03-01T12:00:00Z"}`))
		})
	})

	Describe("State.String", func() {
		It("should return correct string representation", func() {
			Expect(host.StateAvailable.String()).To(Equal("AVAILABLE"))
			Expect(host.StateDisabled.String()).To(Equal("DISABLED"))
			Expect(host.State(7).String()).To(Equal("UNKNOWN"))
		})
	})
})
