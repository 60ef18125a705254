package initcmder_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	initcmder "github.com/papercomputeco/visualsearch/cmd/visualsearch/init"
	"github.com/papercomputeco/visualsearch/pkg/config"
)

func loadConfig(dir string) *config.Config {
	data, err := os.ReadFile(filepath.Join(dir, ".visualsearch", "config.toml"))
	Expect(err).NotTo(HaveOccurred())

	var cfg config.Config
	_, err = toml.Decode(string(data), &cfg)
	Expect(err).NotTo(HaveOccurred())
	return &cfg
}

var _ = Describe("NewInitCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Use).To(Equal("init"))
	})

	It("rejects any arguments", func() {
		cmd := initcmder.NewInitCmd()
		Expect(cmd.Args(cmd, []string{})).To(Succeed())
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("has a --preset flag", func() {
		cmd := initcmder.NewInitCmd()
		f := cmd.Flags().Lookup("preset")
		Expect(f).NotTo(BeNil())
		Expect(f.DefValue).To(Equal(""))
	})
})

var _ = Describe("Init command execution", func() {
	var (
		tmpDir  string
		origDir string
	)

	execute := func(args ...string) error {
		cmd := initcmder.NewInitCmd()
		cmd.SetOut(GinkgoWriter)
		cmd.SetArgs(args)
		return cmd.Execute()
	}

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "visualsearch-init-test-*")
		Expect(err).NotTo(HaveOccurred())
		// Resolve symlinks (macOS /var) so paths compare equal.
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		err = os.Chdir(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		err := os.Chdir(origDir)
		Expect(err).NotTo(HaveOccurred())
		os.RemoveAll(tmpDir)
	})

	It("creates a .visualsearch directory with a default config", func() {
		Expect(execute()).To(Succeed())

		info, err := os.Stat(filepath.Join(tmpDir, ".visualsearch"))
		Expect(err).NotTo(HaveOccurred())
		Expect(info.IsDir()).To(BeTrue())

		cfg := loadConfig(tmpDir)
		Expect(cfg.Version).To(Equal(config.CurrentV))
		Expect(cfg.API.Listen).To(Equal(":8080"))
		Expect(cfg.Index.Provider).To(Equal("elasticsearch"))
	})

	It("does not overwrite existing contents when already initialized", func() {
		dir := filepath.Join(tmpDir, ".visualsearch")
		Expect(os.MkdirAll(dir, 0o755)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "config.toml"), []byte("[index]\nprovider = \"memory\"\n"), 0o600)).To(Succeed())
		Expect(os.WriteFile(filepath.Join(dir, "ingested.json"), []byte(`{"files":{}}`), 0o600)).To(Succeed())

		Expect(execute()).To(Succeed())

		Expect(loadConfig(tmpDir).Index.Provider).To(Equal("memory"))
		data, err := os.ReadFile(filepath.Join(dir, "ingested.json"))
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(Equal(`{"files":{}}`))
	})

	Describe("--preset with backend presets", func() {
		It("keeps the local SQLite index in the new directory", func() {
			Expect(execute("--preset", "local")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Index.Provider).To(Equal("sqlite"))
			Expect(cfg.Storage.SQLitePath).To(Equal(filepath.Join(tmpDir, ".visualsearch", "index.db")))
		})

		It("creates config.toml with the qdrant preset", func() {
			Expect(execute("--preset", "qdrant")).To(Succeed())
			Expect(loadConfig(tmpDir).Index.Provider).To(Equal("qdrant"))
		})

		It("rejects unknown preset names before creating anything", func() {
			err := execute("--preset", "invalid-backend")
			Expect(err).To(MatchError(ContainSubstring("unknown preset")))

			_, err = os.Stat(filepath.Join(tmpDir, ".visualsearch"))
			Expect(os.IsNotExist(err)).To(BeTrue())
		})
	})

	Describe("--preset with remote URL", func() {
		It("fetches and writes remote config.toml", func() {
			remoteCfg := `version = 0

[index]
provider = "postgres"

[storage]
postgres_dsn = "postgres://db/images"

[search]
minimum_should_match = 50
`
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/plain")
				fmt.Fprint(w, remoteCfg)
			}))
			defer server.Close()

			Expect(execute("--preset", server.URL+"/config.toml")).To(Succeed())

			cfg := loadConfig(tmpDir)
			Expect(cfg.Index.Provider).To(Equal("postgres"))
			Expect(cfg.Storage.PostgresDSN).To(Equal("postgres://db/images"))
			Expect(cfg.Search.MinimumShouldMatch).To(Equal(50))
		})

		It("fails on a non-200 reply", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			}))
			defer server.Close()

			err := execute("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("HTTP 404")))
		})

		It("rejects an unknown provider", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				fmt.Fprint(w, "[index]\nprovider = \"mongodb\"\n")
			}))
			defer server.Close()

			err := execute("--preset", server.URL)
			Expect(err).To(MatchError(ContainSubstring("unknown index provider")))
		})
	})
})
