package inmemory_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/index/inmemory"
	"github.com/papercomputeco/visualsearch/pkg/index/storetest"
)

var _ = Describe("Store", func() {
	storetest.Specs(func() storetest.Target {
		return storetest.Target{Store: inmemory.NewStore()}
	})

	It("is safe for concurrent writers", func() {
		s := inmemory.NewStore()
		doc := storetest.Document("http://example.com/a.jpg", 0)

		var wg sync.WaitGroup
		for range 32 {
			wg.Go(func() {
				defer GinkgoRecover()
				res, err := s.Store(context.Background(), doc)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.StatusCode).To(Equal(201))
			})
		}
		wg.Wait()

		Expect(s.Len()).To(Equal(32))
	})
})
