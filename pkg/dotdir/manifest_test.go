package dotdir_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/visualsearch/pkg/dotdir"
)

var _ = Describe("dotdir.Manager manifest", func() {
	var (
		tmpDir string
		m      *dotdir.Manager
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		m = dotdir.NewManager()
	})

	It("returns an empty manifest when no file exists", func() {
		manifest, err := m.LoadManifest(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(manifest.Files).To(BeEmpty())
	})

	It("round-trips saved entries", func() {
		mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		manifest := dotdir.NewManifest()
		manifest.Files["/photos/a.jpg"] = dotdir.IngestedFile{ID: "abc", Size: 42, ModTime: mod, IndexedAt: mod}

		Expect(m.SaveManifest(manifest, tmpDir)).To(Succeed())

		loaded, err := m.LoadManifest(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(loaded.Files).To(HaveKey("/photos/a.jpg"))
		Expect(loaded.Files["/photos/a.jpg"].ID).To(Equal("abc"))
		Expect(loaded.Unchanged("/photos/a.jpg", 42, mod)).To(BeTrue())
	})

	It("treats a changed size or mod time as changed", func() {
		mod := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		manifest := dotdir.NewManifest()
		manifest.Files["a.jpg"] = dotdir.IngestedFile{ID: "abc", Size: 42, ModTime: mod}

		Expect(manifest.Unchanged("a.jpg", 43, mod)).To(BeFalse())
		Expect(manifest.Unchanged("a.jpg", 42, mod.Add(time.Second))).To(BeFalse())
		Expect(manifest.Unchanged("b.jpg", 42, mod)).To(BeFalse())
	})

	It("returns error for invalid JSON", func() {
		Expect(os.WriteFile(filepath.Join(tmpDir, "ingested.json"), []byte("not json"), 0o600)).To(Succeed())

		manifest, err := m.LoadManifest(tmpDir)
		Expect(err).To(HaveOccurred())
		Expect(manifest).To(BeNil())
	})

	It("refuses to save a nil manifest", func() {
		Expect(m.SaveManifest(nil, tmpDir)).To(MatchError(ContainSubstring("nil ingest manifest")))
	})

	It("clears the manifest", func() {
		Expect(m.SaveManifest(dotdir.NewManifest(), tmpDir)).To(Succeed())
		Expect(m.ClearManifest(tmpDir)).To(Succeed())
		Expect(filepath.Join(tmpDir, "ingested.json")).NotTo(BeAnExistingFile())

		// Clearing twice is fine.
		Expect(m.ClearManifest(tmpDir)).To(Succeed())
	})
})
