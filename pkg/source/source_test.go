package source_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/source"
)

var _ = Describe("Inline", func() {
	It("is a successful fetch with the sentinel identifier", func() {
		r := source.Inline([]byte{1, 2, 3})
		Expect(r.Identifier).To(Equal("none"))
		Expect(r.StatusCode).To(Equal(http.StatusOK))
		Expect(r.Success()).To(BeTrue())
		Expect(r.Body).To(Equal([]byte{1, 2, 3}))
	})
})

var _ = Describe("HTTPSource", func() {
	var (
		server    *httptest.Server
		userAgent string
		ctx       context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgent = r.Header.Get("User-Agent")
			switch r.URL.Path {
			case "/cat.jpg":
				w.Header().Set("Content-Type", "image/jpeg")
				_, _ = w.Write([]byte("jpeg-bytes"))
			case "/big.jpg":
				_, _ = w.Write([]byte(strings.Repeat("x", 64)))
			case "/forbidden.jpg":
				w.WriteHeader(http.StatusForbidden)
			default:
				http.NotFound(w, r)
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	It("returns the body and status of a successful fetch", func() {
		s := source.NewHTTPSource(source.HTTPConfig{UserAgent: "test-agent"})

		r, err := s.Fetch(ctx, source.FetchRequest{Identifier: server.URL + "/cat.jpg"})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.StatusCode).To(Equal(http.StatusOK))
		Expect(r.Body).To(Equal([]byte("jpeg-bytes")))
		Expect(r.Identifier).To(Equal(server.URL + "/cat.jpg"))
		Expect(userAgent).To(Equal("test-agent"))
	})

	It("passes a non-success status through as a result", func() {
		s := source.NewHTTPSource(source.HTTPConfig{})

		r, err := s.Fetch(ctx, source.FetchRequest{Identifier: server.URL + "/missing.jpg"})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.StatusCode).To(Equal(http.StatusNotFound))
		Expect(r.Success()).To(BeFalse())
		Expect(r.Body).To(BeEmpty())

		r, err = s.Fetch(ctx, source.FetchRequest{Identifier: server.URL + "/forbidden.jpg"})
		Expect(err).NotTo(HaveOccurred())
		Expect(r.StatusCode).To(Equal(http.StatusForbidden))
	})

	It("rejects bodies over the size limit", func() {
		s := source.NewHTTPSource(source.HTTPConfig{MaxBytes: 16})

		_, err := s.Fetch(ctx, source.FetchRequest{Identifier: server.URL + "/big.jpg"})
		Expect(err).To(MatchError(source.ErrTooLarge))
	})

	It("reports transport failures as errors", func() {
		s := source.NewHTTPSource(source.HTTPConfig{})
		url := server.URL
		server.Close()

		_, err := s.Fetch(ctx, source.FetchRequest{Identifier: url + "/cat.jpg"})
		Expect(err).To(HaveOccurred())
	})

	It("rejects non-HTTP schemes", func() {
		s := source.NewHTTPSource(source.HTTPConfig{})

		_, err := s.Fetch(ctx, source.FetchRequest{Identifier: "file:///etc/passwd"})
		Expect(err).To(MatchError(ContainSubstring("unsupported image URL scheme")))
	})

	It("honors context cancellation", func() {
		s := source.NewHTTPSource(source.HTTPConfig{})
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		_, err := s.Fetch(cancelled, source.FetchRequest{Identifier: server.URL + "/cat.jpg"})
		Expect(err).To(MatchError(context.Canceled))
	})
})
