package workflow_test

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/logger"
	"github.com/papercomputeco/visualsearch/pkg/processed"
	"github.com/papercomputeco/visualsearch/pkg/source"
	testutils "github.com/papercomputeco/visualsearch/pkg/utils/test"
	"github.com/papercomputeco/visualsearch/pkg/workflow"
)

// asWorkflowError extracts the *workflow.Error from err.
func asWorkflowError(err error) *workflow.Error {
	var werr *workflow.Error
	ExpectWithOffset(1, errors.As(err, &werr)).To(BeTrue(), "expected *workflow.Error, got %v", err)
	return werr
}

var _ = Describe("Indexer", func() {
	const imageURL = "http://example.com/cat.jpg"

	var (
		ctx       context.Context
		jpeg      []byte
		src       *testutils.MockSource
		store     *testutils.MockStore
		publisher *testutils.MockPublisher
		indexer   *workflow.Indexer
	)

	BeforeEach(func() {
		ctx = context.Background()
		jpeg = testutils.JPEG(testutils.Gradient(90, 80))
		src = testutils.NewMockSource(jpeg)
		store = testutils.NewMockStore()
		publisher = testutils.NewMockPublisher()

		var err error
		indexer, err = workflow.NewIndexer(&workflow.Config{
			Source:    src,
			Store:     store,
			Publisher: publisher,
			Provider:  "mock",
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("returns the id assigned by the store", func() {
		out, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.ID).To(Equal("123"))
		Expect(src.Requests).To(Equal([]string{imageURL}))
	})

	It("stores the processed document", func() {
		out, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Documents).To(HaveLen(1))

		doc, err := processed.ParseDocument(store.Documents[0])
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.ImageURL).To(Equal(imageURL))
		Expect(doc.ReceivedBytes).To(Equal(len(jpeg)))
		Expect(doc.NumPixels).To(Equal(90 * 80))
		Expect(doc.DHash).To(Equal(out.Image.Fingerprint()))
	})

	It("publishes an event for the stored image", func() {
		_, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
		Expect(err).NotTo(HaveOccurred())

		events := publisher.Events()
		Expect(events).To(HaveLen(1))
		Expect(events[0].Image.ID).To(Equal("123"))
		Expect(events[0].Image.Source).To(Equal(imageURL))
		Expect(events[0].Index.Provider).To(Equal("mock"))
	})

	It("succeeds when publishing fails", func() {
		publisher.Err = errors.New("broker down")
		out, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.ID).To(Equal("123"))
	})

	It("indexes inline bytes under the inline identifier", func() {
		out, err := indexer.Index(ctx, workflow.IndexRequest{Image: jpeg})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Image.Source()).To(Equal(source.InlineIdentifier))
		Expect(src.Calls()).To(BeZero())
	})

	It("prefers the URL over inline bytes", func() {
		out, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL, Image: []byte("ignored")})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.Image.Source()).To(Equal(imageURL))
		Expect(src.Calls()).To(Equal(1))
	})

	Describe("failures", func() {
		It("rejects a request with no source before any call", func() {
			_, err := indexer.Index(ctx, workflow.IndexRequest{})
			werr := asWorkflowError(err)
			Expect(werr.Kind).To(Equal(workflow.ClientInput))
			Expect(werr.Stage).To(Equal(workflow.AwaitingSource))
			Expect(werr.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(werr.Message).To(Equal("imageUrl was not specified in request."))
			Expect(src.Calls()).To(BeZero())
			Expect(store.StoreCalls()).To(BeZero())
		})

		It("relays the fetch status and never stores", func() {
			src.Result = &source.FetchResult{StatusCode: http.StatusNotFound}

			_, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
			werr := asWorkflowError(err)
			Expect(werr.Kind).To(Equal(workflow.UpstreamFetch))
			Expect(werr.Stage).To(Equal(workflow.Fetching))
			Expect(werr.StatusCode).To(Equal(http.StatusNotFound))
			Expect(werr.Message).To(Equal("Could not fetch image."))
			Expect(store.StoreCalls()).To(BeZero())
			Expect(publisher.Events()).To(BeEmpty())
		})

		It("reports fetch transport errors as server errors", func() {
			src.Err = errors.New("connection refused")

			_, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
			werr := asWorkflowError(err)
			Expect(werr.Kind).To(Equal(workflow.UpstreamFetch))
			Expect(werr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(werr.Message).To(Equal("fetching image failed: connection refused"))
			Expect(err).To(MatchError(src.Err))
			Expect(store.StoreCalls()).To(BeZero())
		})

		It("reports undecodable payloads", func() {
			src.Result = &source.FetchResult{StatusCode: http.StatusOK, Body: []byte("not a jpeg")}

			_, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
			werr := asWorkflowError(err)
			Expect(werr.Kind).To(Equal(workflow.Decode))
			Expect(werr.Stage).To(Equal(workflow.Decoding))
			Expect(werr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(werr.Message).To(HavePrefix("Could not process image: "))
			Expect(store.StoreCalls()).To(BeZero())
		})

		It("relays the store status", func() {
			store.StoreResult = &index.StoreResult{StatusCode: http.StatusServiceUnavailable, Body: []byte(`{}`)}

			_, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
			werr := asWorkflowError(err)
			Expect(werr.Kind).To(Equal(workflow.UpstreamStore))
			Expect(werr.Stage).To(Equal(workflow.Storing))
			Expect(werr.StatusCode).To(Equal(http.StatusServiceUnavailable))
			Expect(werr.Message).To(Equal("Could not store image in index."))
			Expect(publisher.Events()).To(BeEmpty())
		})

		It("fails when the store reply has no id", func() {
			store.StoreResult = &index.StoreResult{StatusCode: http.StatusCreated, Body: []byte(`{"result":"created"}`)}

			_, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
			werr := asWorkflowError(err)
			Expect(werr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(werr.Message).To(HavePrefix("Could not read index response: "))
		})

		It("reports store transport errors as server errors", func() {
			store.StoreErr = errors.New("timeout")

			_, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
			werr := asWorkflowError(err)
			Expect(werr.StatusCode).To(Equal(http.StatusInternalServerError))
			Expect(werr.Message).To(Equal("storing image failed: timeout"))
		})
	})

	It("accepts any 2xx store status", func() {
		store.StoreResult = &index.StoreResult{StatusCode: http.StatusOK, Body: []byte(`{"_id":"abc"}`)}

		out, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
		Expect(err).NotTo(HaveOccurred())
		Expect(out.ID).To(Equal("abc"))
	})

	It("produces the same fingerprint for the same image", func() {
		a, err := indexer.Index(ctx, workflow.IndexRequest{ImageURL: imageURL})
		Expect(err).NotTo(HaveOccurred())
		b, err := indexer.Index(ctx, workflow.IndexRequest{Image: jpeg})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.Image.Fingerprint()).To(Equal(b.Image.Fingerprint()))
		Expect(a.Image.Fingerprint()).To(Equal(dhash.Fingerprint(testutils.GradientFingerprint)))
	})
})

var _ = Describe("Config", func() {
	It("requires its collaborators", func() {
		_, err := workflow.NewIndexer(&workflow.Config{Store: testutils.NewMockStore(), Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("source is required")))

		_, err = workflow.NewSearcher(&workflow.Config{Source: testutils.NewMockSource(nil), Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("store is required")))

		_, err = workflow.NewSearcher(&workflow.Config{Source: testutils.NewMockSource(nil), Store: testutils.NewMockStore()})
		Expect(err).To(MatchError(ContainSubstring("logger is required")))
	})

	It("names kinds and stages", func() {
		Expect(workflow.UpstreamFetch.String()).To(Equal("upstream_fetch"))
		Expect(workflow.QueryBuilding.String()).To(Equal("query_building"))
	})
})
