package ingest_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/client"
	"github.com/papercomputeco/visualsearch/pkg/dotdir"
	"github.com/papercomputeco/visualsearch/pkg/ingest"
	"github.com/papercomputeco/visualsearch/pkg/logger"
	testutils "github.com/papercomputeco/visualsearch/pkg/utils/test"
)

type fakeIndexer struct {
	mu     sync.Mutex
	images [][]byte
	err    error
}

func (f *fakeIndexer) Index(_ context.Context, req client.IndexRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.images = append(f.images, req.Image)
	return fmt.Sprintf("id-%d", len(f.images)), nil
}

func (f *fakeIndexer) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.images)
}

func writeJPEG(path string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
	Expect(os.WriteFile(path, testutils.JPEG(testutils.Gradient(32, 24)), 0o644)).To(Succeed())
}

var _ = Describe("IsImage", func() {
	It("matches JPEG extensions case-insensitively", func() {
		Expect(ingest.IsImage("a.jpg")).To(BeTrue())
		Expect(ingest.IsImage("a.JPEG")).To(BeTrue())
		Expect(ingest.IsImage("a.png")).To(BeFalse())
		Expect(ingest.IsImage("jpg")).To(BeFalse())
	})
})

var _ = Describe("Pool", func() {
	var (
		ctx      context.Context
		dir      string
		indexer  *fakeIndexer
		manifest *dotdir.Manifest
	)

	newPool := func() *ingest.Pool {
		pool, err := ingest.NewPool(ctx, &ingest.Config{
			Indexer:  indexer,
			Manifest: manifest,
			Logger:   logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
		return pool
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		indexer = &fakeIndexer{}
		manifest = dotdir.NewManifest()

		writeJPEG(filepath.Join(dir, "a.jpg"))
		writeJPEG(filepath.Join(dir, "nested", "b.JPEG"))
		writeJPEG(filepath.Join(dir, ".hidden", "c.jpg"))
		Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644)).To(Succeed())
	})

	It("requires an indexer", func() {
		_, err := ingest.NewPool(ctx, &ingest.Config{Logger: logger.Nop()})
		Expect(err).To(MatchError(ContainSubstring("indexer is required")))
	})

	It("indexes every visible JPEG under the root", func() {
		pool := newPool()
		n, err := ingest.Walk(ctx, dir, pool)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))

		stats := pool.Close()
		Expect(stats.Indexed).To(Equal(int64(2)))
		Expect(stats.Failed).To(BeZero())
		Expect(indexer.calls()).To(Equal(2))

		Expect(manifest.Files).To(HaveKey(filepath.Join(dir, "a.jpg")))
		Expect(manifest.Files).To(HaveKey(filepath.Join(dir, "nested", "b.JPEG")))
	})

	It("skips files the manifest lists unchanged", func() {
		pool := newPool()
		_, err := ingest.Walk(ctx, dir, pool)
		Expect(err).NotTo(HaveOccurred())
		pool.Close()

		pool = newPool()
		_, err = ingest.Walk(ctx, dir, pool)
		Expect(err).NotTo(HaveOccurred())
		stats := pool.Close()
		Expect(stats.Skipped).To(Equal(int64(2)))
		Expect(stats.Indexed).To(BeZero())
		Expect(indexer.calls()).To(Equal(2))
	})

	It("indexes a file again once it changes", func() {
		pool := newPool()
		_, err := ingest.Walk(ctx, dir, pool)
		Expect(err).NotTo(HaveOccurred())
		pool.Close()

		path := filepath.Join(dir, "a.jpg")
		later := time.Now().Add(time.Hour)
		Expect(os.Chtimes(path, later, later)).To(Succeed())

		pool = newPool()
		_, err = ingest.Walk(ctx, dir, pool)
		Expect(err).NotTo(HaveOccurred())
		stats := pool.Close()
		Expect(stats.Indexed).To(Equal(int64(1)))
		Expect(stats.Skipped).To(Equal(int64(1)))
	})

	It("counts index failures and leaves them out of the manifest", func() {
		indexer.err = errors.New("HTTP 500: Could not process image: ")
		pool := newPool()
		_, err := ingest.Walk(ctx, dir, pool)
		Expect(err).NotTo(HaveOccurred())

		stats := pool.Close()
		Expect(stats.Failed).To(Equal(int64(2)))
		Expect(manifest.Files).To(BeEmpty())
	})

	It("watches for new files", func() {
		pool := newPool()
		wctx, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- ingest.Watch(wctx, dir, pool, logger.Nop()) }()

		// Give the watcher time to register before writing.
		time.Sleep(100 * time.Millisecond)
		writeJPEG(filepath.Join(dir, "late.jpg"))

		Eventually(indexer.calls).WithTimeout(5 * time.Second).Should(BeNumerically(">=", 1))

		cancel()
		Eventually(done).Should(Receive(BeNil()))
		pool.Close()
		Expect(manifest.Files).To(HaveKey(filepath.Join(dir, "late.jpg")))
	})
})
