package backend_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/index/backend"
	"github.com/papercomputeco/visualsearch/pkg/index/elastic"
	"github.com/papercomputeco/visualsearch/pkg/index/inmemory"
	"github.com/papercomputeco/visualsearch/pkg/index/sqlstore"
	"github.com/papercomputeco/visualsearch/pkg/logger"
)

var _ = Describe("Open", func() {
	ctx := context.Background()

	It("opens the in-memory store", func() {
		store, err := backend.Open(ctx, backend.Options{Provider: backend.Memory}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store).To(BeAssignableToTypeOf(&inmemory.Store{}))
		Expect(store.Close()).To(Succeed())
	})

	It("opens a SQLite store at the given path", func() {
		path := filepath.Join(GinkgoT().TempDir(), "index.db")
		store, err := backend.Open(ctx, backend.Options{Provider: backend.SQLite, SQLitePath: path}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store).To(BeAssignableToTypeOf(&sqlstore.Store{}))
		Expect(store.Close()).To(Succeed())
		Expect(path).To(BeAnExistingFile())
	})

	It("requires a SQLite path", func() {
		_, err := backend.Open(ctx, backend.Options{Provider: backend.SQLite}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("sqlite path is required")))
	})

	It("opens an Elasticsearch store without contacting it", func() {
		store, err := backend.Open(ctx, backend.Options{
			Provider:      backend.Elasticsearch,
			Elasticsearch: elastic.Config{URL: "http://localhost:9200"},
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		Expect(store).To(BeAssignableToTypeOf(&elastic.Store{}))
	})

	It("wraps backend errors with the provider name", func() {
		_, err := backend.Open(ctx, backend.Options{Provider: backend.Postgres}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("opening postgres index")))
	})

	It("rejects unknown providers", func() {
		_, err := backend.Open(ctx, backend.Options{Provider: "solr"}, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring(`unknown index provider "solr"`)))
	})

	It("lists the compiled providers", func() {
		Expect(backend.Providers()).To(ContainElements("elasticsearch", "memory", "postgres", "qdrant", "sqlite"))
	})
})
