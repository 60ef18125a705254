// Package storetest holds behavior shared by every local index.Store backend,
// written as ginkgo specs so each backend's suite can run it.
package storetest

import (
	"context"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/index"
	"github.com/papercomputeco/visualsearch/pkg/index/match"
	"github.com/papercomputeco/visualsearch/pkg/processed"
	"github.com/papercomputeco/visualsearch/pkg/query"
)

// Target is a freshly created, empty store.
type Target struct {
	Store index.Store

	// Cleanup runs after each spec, if set.
	Cleanup func()
}

// Document builds a stored document for url with fingerprint fp.
func Document(url string, fp dhash.Fingerprint) []byte {
	img, err := processed.New(url, 1024, 64*64, fp)
	Expect(err).NotTo(HaveOccurred())
	data, err := img.Marshal()
	Expect(err).NotTo(HaveOccurred())
	return data
}

// Query builds a similarity query body.
func Query(fp dhash.Fingerprint, minimum int) []byte {
	data, err := query.Build(fp, minimum).Marshal()
	Expect(err).NotTo(HaveOccurred())
	return data
}

// StoredID extracts the "_id" of a store reply.
func StoredID(res *index.StoreResult) string {
	var body struct {
		ID string `json:"_id"`
	}
	Expect(json.Unmarshal(res.Body, &body)).To(Succeed())
	return body.ID
}

// Specs registers the shared specs in the current container. newTarget is
// called before every spec.
func Specs(newTarget func() Target) {
	var (
		target Target
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		target = newTarget()
	})

	AfterEach(func() {
		if target.Store != nil {
			Expect(target.Store.Close()).To(Succeed())
		}
		if target.Cleanup != nil {
			target.Cleanup()
		}
	})

	store := func(url string, fp dhash.Fingerprint) string {
		res, err := target.Store.Store(ctx, Document(url, fp))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusCreated))
		return StoredID(res)
	}

	search := func(fp dhash.Fingerprint, minimum int) *match.Response {
		res, err := target.Store.Search(ctx, Query(fp, minimum))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusOK))

		var resp match.Response
		Expect(json.Unmarshal(res.Payload, &resp)).To(Succeed())
		return &resp
	}

	It("assigns a distinct id to every stored document", func() {
		a := store("http://example.com/a.jpg", 1)
		b := store("http://example.com/a.jpg", 1)
		Expect(a).NotTo(BeEmpty())
		Expect(b).NotTo(BeEmpty())
		Expect(a).NotTo(Equal(b))
	})

	It("rejects a document that is not a JSON object", func() {
		res, err := target.Store.Store(ctx, []byte("not json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusBadRequest))
	})

	It("ranks documents by the number of matching bits", func() {
		exact := store("http://example.com/exact.jpg", 0xff)
		near := store("http://example.com/near.jpg", 0xfe)
		store("http://example.com/far.jpg", 0xffff_ffff_0000_0000)

		resp := search(0xff, 60)
		Expect(resp.Hits.Total).To(BeEquivalentTo(2))
		Expect(resp.Hits.Hits).To(HaveLen(2))
		Expect(resp.Hits.Hits[0].ID).To(Equal(exact))
		Expect(resp.Hits.Hits[0].Score).To(Equal(64.0))
		Expect(resp.Hits.Hits[1].ID).To(Equal(near))
		Expect(resp.Hits.Hits[1].Score).To(Equal(63.0))
		Expect(*resp.Hits.MaxScore).To(Equal(64.0))
	})

	It("returns the stored document as the hit source", func() {
		store("http://example.com/a.jpg", 0xabcdef)

		resp := search(0xabcdef, 64)
		Expect(resp.Hits.Hits).To(HaveLen(1))

		doc, err := processed.ParseDocument(resp.Hits.Hits[0].Source)
		Expect(err).NotTo(HaveOccurred())
		Expect(doc.ImageURL).To(Equal("http://example.com/a.jpg"))
		Expect(doc.DHash).To(Equal(dhash.Fingerprint(0xabcdef)))
		Expect(doc.ReceivedBytes).To(Equal(1024))
		Expect(doc.NumPixels).To(Equal(64 * 64))
	})

	It("returns every document for a zero threshold", func() {
		store("http://example.com/a.jpg", 0)
		store("http://example.com/b.jpg", ^dhash.Fingerprint(0))

		resp := search(0, 0)
		Expect(resp.Hits.Total).To(BeEquivalentTo(2))
		Expect(resp.Hits.Hits[1].Score).To(BeZero())
	})

	It("finds nothing in an empty store", func() {
		resp := search(0, 1)
		Expect(resp.Hits.Total).To(BeZero())
		Expect(resp.Hits.Hits).To(BeEmpty())
		Expect(resp.Hits.MaxScore).To(BeNil())
	})

	It("answers a malformed query with a 400", func() {
		res, err := target.Store.Search(ctx, []byte(`{"query":{"bool":{"should":[{"range":{}}]}}}`))
		Expect(err).NotTo(HaveOccurred())
		Expect(res.StatusCode).To(Equal(http.StatusBadRequest))
	})
}
