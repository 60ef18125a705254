//go:build libsql

package libsql_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/index/libsql"
	"github.com/papercomputeco/visualsearch/pkg/index/storetest"
)

var _ = Describe("Store", func() {
	storetest.Specs(func() storetest.Target {
		dbPath := filepath.Join(GinkgoT().TempDir(), "index.db")
		s, err := libsql.NewStore(context.Background(), dbPath)
		Expect(err).NotTo(HaveOccurred())
		return storetest.Target{Store: s}
	})
})
