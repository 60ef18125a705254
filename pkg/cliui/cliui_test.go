package cliui_test

import (
	"bytes"
	"errors"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/cliui"
)

var _ = Describe("cliui", func() {
	Describe("Step", func() {
		It("returns the error from fn and prints the failure mark", func() {
			var buf bytes.Buffer
			boom := errors.New("boom")

			err := cliui.Step(&buf, "indexing", func() error { return boom })
			Expect(err).To(MatchError(boom))
			Expect(buf.String()).To(ContainSubstring("indexing"))
			Expect(buf.String()).To(ContainSubstring(cliui.FailMark))
		})

		It("prints the success mark", func() {
			var buf bytes.Buffer
			Expect(cliui.Step(&buf, "done", func() error { return nil })).To(Succeed())
			Expect(buf.String()).To(ContainSubstring(cliui.SuccessMark))
		})
	})

	Describe("FormatDuration", func() {
		It("uses milliseconds below a second", func() {
			Expect(cliui.FormatDuration(12 * time.Millisecond)).To(Equal("12ms"))
		})

		It("uses seconds above a second", func() {
			Expect(cliui.FormatDuration(3200 * time.Millisecond)).To(Equal("3.2s"))
		})
	})

	Describe("Truncate", func() {
		It("keeps short strings", func() {
			Expect(cliui.Truncate("a.jpg", 10)).To(Equal("a.jpg"))
		})

		It("shortens long strings to the width", func() {
			got := cliui.Truncate("http://example.com/very/long/path/to/image.jpg", 12)
			Expect(got).To(HaveSuffix("…"))
			Expect([]rune(got)).To(HaveLen(12))
		})
	})

	Describe("Interactive", func() {
		It("is false for a regular file", func() {
			f, err := os.CreateTemp(GinkgoT().TempDir(), "out")
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			Expect(cliui.Interactive(f)).To(BeFalse())
		})
	})
})
