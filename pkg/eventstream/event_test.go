package eventstream_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/eventstream"
	"github.com/papercomputeco/visualsearch/pkg/processed"
)

var _ = Describe("Event", func() {
	var img *processed.Image

	BeforeEach(func() {
		var err error
		img, err = processed.New("http://example.com/cat.jpg", 2048, 640*480, dhash.Fingerprint(0xff))
		Expect(err).NotTo(HaveOccurred())
	})

	It("marshals ImageIndexedEvent with expected top-level keys", func() {
		payload, err := json.Marshal(eventstream.NewImageIndexedEvent("123", img, "memory"))
		Expect(err).NotTo(HaveOccurred())

		var got map[string]any
		Expect(json.Unmarshal(payload, &got)).To(Succeed())

		Expect(got).To(HaveKey("schema_version"))
		Expect(got).To(HaveKey("event_type"))
		Expect(got).To(HaveKey("event_id"))
		Expect(got).To(HaveKey("emitted_at"))
		Expect(got).To(HaveKey("image"))
		Expect(got).To(HaveKey("index"))
	})

	It("describes the stored image", func() {
		event := eventstream.NewImageIndexedEvent("123", img, "memory")

		Expect(event.SchemaVersion).To(Equal(eventstream.SchemaVersionV1))
		Expect(event.EventType).To(Equal(eventstream.EventTypeImageIndexed))
		Expect(event.EventID).NotTo(BeEmpty())
		Expect(event.Image).To(Equal(eventstream.ImageMeta{
			ID:            "123",
			Source:        "http://example.com/cat.jpg",
			ReceivedBytes: 2048,
			NumPixels:     640 * 480,
			DHash:         "00000000000000ff",
		}))
		Expect(event.Index.Provider).To(Equal("memory"))
	})

	It("assigns a fresh event id each time", func() {
		a := eventstream.NewImageIndexedEvent("1", img, "")
		b := eventstream.NewImageIndexedEvent("1", img, "")
		Expect(a.EventID).NotTo(Equal(b.EventID))
	})

	It("defines stable event constants", func() {
		Expect(eventstream.SchemaVersionV1).To(BeNumerically(">", 0))
		Expect(eventstream.EventTypeImageIndexed).To(Equal("visualsearch.image.indexed"))
	})

	It("provides ErrNilImageEvent for nil payload validation", func() {
		Expect(eventstream.ErrNilImageEvent).To(MatchError("nil image event"))
	})
})
