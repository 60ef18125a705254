// Package searchcmder provides the search command for finding indexed images
// similar to a given one.
package searchcmder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/visualsearch/pkg/client"
	"github.com/papercomputeco/visualsearch/pkg/cliui"
	"github.com/papercomputeco/visualsearch/pkg/config"
	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/index/match"
	"github.com/papercomputeco/visualsearch/pkg/processed"
)

type searchCommander struct {
	imageURL  string
	minimum   uint
	json      bool
	apiTarget string
}

const searchLongDesc string = `Search the index for images similar to the image at a URL.

The server fingerprints the image and returns stored images sharing at least
--min of the 64 fingerprint bits, best match first. Without --min the server
uses its configured search.minimum_should_match.

Results print as a table on a terminal. With --json, or when stdout is not a
terminal, the raw index reply is printed instead.

Examples:
  visualsearch search https://example.com/dog.jpg
  visualsearch search https://example.com/dog.jpg --min 56
  visualsearch search https://example.com/dog.jpg --json | jq '.hits.hits[]._id'`

const searchShortDesc string = "Search for similar images"

func NewSearchCmd() *cobra.Command {
	cmder := &searchCommander{}

	cmd := &cobra.Command{
		Use:   "search <url>",
		Short: searchShortDesc,
		Long:  searchLongDesc,
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
			cmder.imageURL = args[0]

			req := client.SearchRequest{ImageURL: cmder.imageURL}
			if cmd.Flags().Changed("min") {
				if cmder.minimum > dhash.Bits {
					return fmt.Errorf("--min must be between 0 and %d", dhash.Bits)
				}
				minimum := int(cmder.minimum)
				req.MinimumShouldMatch = &minimum
			}

			return cmder.run(cmd.Context(), cmd.OutOrStdout(), req)
		},
	}

	defaults := config.NewDefaultConfig()
	cmd.Flags().StringVarP(&cmder.apiTarget, "api-target", "a", defaults.Client.APITarget, "visualsearch API server URL")
	config.AddUintFlag(cmd, config.Flags, config.FlagMinimumMatch, &cmder.minimum)
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the raw index reply")

	return cmd
}

func (c *searchCommander) run(ctx context.Context, out io.Writer, req client.SearchRequest) error {
	cl, err := client.New(c.apiTarget, nil)
	if err != nil {
		return err
	}

	payload, err := cl.Search(ctx, req)
	if err != nil {
		return err
	}

	if c.json || !cliui.Interactive(os.Stdout) {
		_, err := fmt.Fprintln(out, string(payload))
		return err
	}

	var reply match.Response
	if err := json.Unmarshal(payload, &reply); err != nil {
		return fmt.Errorf("failed to parse search response: %w", err)
	}

	printResults(out, c.imageURL, &reply)
	return nil
}

// Row is one rendered hit.
type Row struct {
	Rank     int
	ID       string
	Matching int
	ImageURL string
	DHash    string
}

// Rows flattens a search reply. Matching is the number of shared fingerprint
// bits, which is the hit score.
func Rows(reply *match.Response) []Row {
	rows := make([]Row, 0, len(reply.Hits.Hits))
	for i, hit := range reply.Hits.Hits {
		row := Row{Rank: i + 1, ID: hit.ID, Matching: int(hit.Score)}
		if doc, err := processed.ParseDocument(hit.Source); err == nil {
			row.ImageURL = doc.ImageURL
			row.DHash = doc.DHash.String()
		}
		rows = append(rows, row)
	}
	return rows
}

func printResults(out io.Writer, imageURL string, reply *match.Response) {
	rows := Rows(reply)
	if len(rows) == 0 {
		fmt.Fprintln(out, "No similar images found.")
		return
	}

	fmt.Fprintf(out, "\n%s %s %s\n\n",
		cliui.KeyStyle.Render("Similar to:"),
		cliui.ValueStyle.Render(cliui.Truncate(imageURL, 70)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d total)", reply.Hits.Total)),
	)

	for _, row := range rows {
		fmt.Fprintf(out, "  %s  %s  %s  %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("#%-3d", row.Rank)),
			cliui.ScoreStyle.Render(fmt.Sprintf("%2d/%d", row.Matching, dhash.Bits)),
			cliui.HashStyle.Render(row.DHash),
			cliui.ValueStyle.Render(cliui.Truncate(row.ImageURL, 60)),
		)
		fmt.Fprintf(out, "        %s\n", cliui.DimStyle.Render(row.ID))
	}
	fmt.Fprintln(out)
}
