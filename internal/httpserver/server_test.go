package httpserver_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/influx-failover/internal/httpserver"
)

func freeAddr() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).NotTo(HaveOccurred())
	addr := l.Addr().String()
	Expect(l.Close()).To(Succeed())
	return addr
}

var _ = Describe("HTTP Server", func() {
	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	DescribeTable("server creation",
		func(addr string, valid bool) {
			srv, err := httpserver.New(addr, noop)
			if valid {
				Expect(err).NotTo(HaveOccurred())
				Expect(srv.Addr()).To(Equal(addr))
			} else {
				Expect(err).To(HaveOccurred())
				Expect(srv).To(BeNil())
			}
		},
		Entry("hostname", "localhost:9999", true),
		Entry("IP address", "127.0.0.1:9999", true),
		Entry("port only", ":9999", true),
		Entry("too many colons", "invalid:host:port", false),
		Entry("missing port", "localhost", false),
		Entry("empty port", "localhost:", false),
		Entry("bad host", "bad_host!:9999", false),
		Entry("empty", "", false),
	)

	Context("server lifecycle", func() {
		It("starts and handles requests until the context is cancelled", func() {
			addr := freeAddr()
			srv, err := httpserver.New(addr, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte("test"))
			}), httpserver.WithShutdownTimeout(time.Second))
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- srv.Run(ctx)
			}()

			var resp *http.Response
			Eventually(func() error {
				var getErr error
				resp, getErr = http.Get("http://" + addr)
				return getErr
			}).Should(Succeed())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal("test"))

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})

		It("reports a listen failure from Run", func() {
			l, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).NotTo(HaveOccurred())
			defer l.Close()

			srv, err := httpserver.New(l.Addr().String(), noop)
			Expect(err).NotTo(HaveOccurred())

			Expect(srv.Run(context.Background())).To(HaveOccurred())
		})

		It("shuts down gracefully", func() {
			srv, err := httpserver.New(freeAddr(), noop,
				httpserver.WithReadTimeout(time.Second),
				httpserver.WithWriteTimeout(time.Second))
			Expect(err).NotTo(HaveOccurred())

			go func() {
				_ = srv.Start()
			}()
			time.Sleep(100 * time.Millisecond)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			Expect(srv.Shutdown(ctx)).To(Succeed())
		})
	})
})
