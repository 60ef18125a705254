// Package visualsearchcmder provides the root visualsearch command.
package visualsearchcmder

import (
	"github.com/spf13/cobra"

	versioncmder "github.com/papercomputeco/visualsearch/cmd/version"
	configcmder "github.com/papercomputeco/visualsearch/cmd/visualsearch/config"
	indexcmder "github.com/papercomputeco/visualsearch/cmd/visualsearch/index"
	ingestcmder "github.com/papercomputeco/visualsearch/cmd/visualsearch/ingest"
	initcmder "github.com/papercomputeco/visualsearch/cmd/visualsearch/init"
	searchcmder "github.com/papercomputeco/visualsearch/cmd/visualsearch/search"
	servecmder "github.com/papercomputeco/visualsearch/cmd/visualsearch/serve"
)

const visualsearchLongDesc string = `visualsearch finds visually similar images.

Images are reduced to a 64-bit difference hash and stored in a search index.
Searching for an image returns stored images sharing the most hash bits.

Run the server, then index and search through it:
  visualsearch serve                          Run the API server
  visualsearch index <url|path>               Index one image
  visualsearch ingest <dir>                   Index a directory of images
  visualsearch search <url>                   Find similar images`

const visualsearchShortDesc string = "visualsearch - perceptual image search"

func NewVisualSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "visualsearch",
		Short:         visualsearchShortDesc,
		Long:          visualsearchLongDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override path to .visualsearch/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(indexcmder.NewIndexCmd())
	cmd.AddCommand(searchcmder.NewSearchCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(initcmder.NewInitCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
