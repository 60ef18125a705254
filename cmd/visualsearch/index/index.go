// Package indexcmder provides the index command that stores one image
// through the visualsearch API.
package indexcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/visualsearch/pkg/client"
	"github.com/papercomputeco/visualsearch/pkg/cliui"
	"github.com/papercomputeco/visualsearch/pkg/config"
)

type indexCommander struct {
	target    string
	apiTarget string
	json      bool
}

const indexLongDesc string = `Index one image through the visualsearch API.

The argument is either an http(s) URL, which the server fetches, or a path to
a local JPEG file, whose bytes are sent inline. The server fingerprints the
image and stores it in its configured index. The assigned document id is
printed on success.

Examples:
  visualsearch index https://example.com/dog.jpg
  visualsearch index ./photos/dog.jpg
  visualsearch index ./photos/dog.jpg --api-target http://search.internal:8080`

const indexShortDesc string = "Index an image by URL or file"

func NewIndexCmd() *cobra.Command {
	cmder := &indexCommander{}

	cmd := &cobra.Command{
		Use:   "index <url|path>",
		Short: indexShortDesc,
		Long:  indexLongDesc,
		Args:  cobra.ExactArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			cfger, err := config.NewConfiger(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			cfg, err := cfger.LoadConfig()
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			if !cmd.Flags().Changed("api-target") {
				cmder.apiTarget = cfg.Client.APITarget
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmder.target = args[0]
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "visualsearch API server URL")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the result as JSON")

	return cmd
}

// IsURL reports whether target is fetched by the server rather than read
// from disk.
func IsURL(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

func (c *indexCommander) run(ctx context.Context, out io.Writer) error {
	cl, err := client.New(c.apiTarget, nil)
	if err != nil {
		return err
	}

	req := client.IndexRequest{}
	if IsURL(c.target) {
		req.ImageURL = c.target
	} else {
		data, err := os.ReadFile(c.target)
		if err != nil {
			return fmt.Errorf("reading image: %w", err)
		}
		req.Image = data
	}

	var id string
	index := func() error {
		var err error
		id, err = cl.Index(ctx, req)
		return err
	}

	if c.json || !cliui.Interactive(os.Stdout) {
		if err := index(); err != nil {
			return err
		}
		return json.NewEncoder(out).Encode(map[string]string{"_id": id, "source": c.target})
	}

	if err := cliui.Step(out, "Indexing "+cliui.Truncate(c.target, 60), index); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n  %s %s\n\n", cliui.KeyStyle.Render("id:"), cliui.HashStyle.Render(id))
	return nil
}
