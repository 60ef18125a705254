package kafka

import (
	"context"
	"encoding/json"
	"errors"

	kafkago "github.com/segmentio/kafka-go"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/eventstream"
	"github.com/papercomputeco/visualsearch/pkg/processed"
)

type fakeWriter struct {
	messages []kafkago.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

var _ = Describe("Publisher", func() {
	var (
		w     *fakeWriter
		p     *Publisher
		event *eventstream.ImageIndexedEvent
	)

	BeforeEach(func() {
		w = &fakeWriter{}
		p = newPublisher(w, DefaultTopic)

		img, err := processed.New("http://example.com/a.jpg", 10, 20, dhash.Fingerprint(1))
		Expect(err).NotTo(HaveOccurred())
		event = eventstream.NewImageIndexedEvent("abc", img, "memory")
	})

	It("requires brokers", func() {
		_, err := NewPublisher(Config{})
		Expect(err).To(MatchError(ContainSubstring("brokers are required")))
	})

	It("defaults the topic", func() {
		pub, err := NewPublisher(Config{Brokers: []string{"localhost:9092"}})
		Expect(err).NotTo(HaveOccurred())
		Expect(pub.topic).To(Equal(DefaultTopic))
		Expect(pub.Close()).To(Succeed())
	})

	It("writes the event as a keyed JSON message", func() {
		Expect(p.PublishImageIndexed(context.Background(), event)).To(Succeed())
		Expect(w.messages).To(HaveLen(1))

		msg := w.messages[0]
		Expect(string(msg.Key)).To(Equal("abc"))
		Expect(msg.Headers).To(ContainElement(kafkago.Header{Key: "event_type", Value: []byte(eventstream.EventTypeImageIndexed)}))

		var got eventstream.ImageIndexedEvent
		Expect(json.Unmarshal(msg.Value, &got)).To(Succeed())
		Expect(got.Image.Source).To(Equal("http://example.com/a.jpg"))
		Expect(got.EventID).To(Equal(event.EventID))
	})

	It("rejects nil events", func() {
		Expect(p.PublishImageIndexed(context.Background(), nil)).To(MatchError(eventstream.ErrNilImageEvent))
		Expect(w.messages).To(BeEmpty())
	})

	It("wraps write failures", func() {
		w.err = errors.New("broker down")
		err := p.PublishImageIndexed(context.Background(), event)
		Expect(err).To(MatchError(ContainSubstring("broker down")))
		Expect(err).To(MatchError(ContainSubstring(DefaultTopic)))
	})

	It("closes the writer", func() {
		Expect(p.Close()).To(Succeed())
		Expect(w.closed).To(BeTrue())
	})
})
