package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/index/match"
	"github.com/papercomputeco/visualsearch/pkg/processed"
	"github.com/papercomputeco/visualsearch/pkg/workflow"
)

var (
	indexToolName    = "index_image"
	indexDescription = "Fetch a JPEG image by URL, compute its 64-bit difference hash, and store it in the image index. Returns the assigned document id and the fingerprint."

	searchToolName    = "search_similar_images"
	searchDescription = "Find indexed images visually similar to the JPEG at the given URL. Similarity is the number of difference hash bits (out of 64) shared with each stored image."
)

// IndexInput represents the input arguments for the index_image tool.
type IndexInput struct {
	ImageURL string `json:"image_url" jsonschema:"http or https URL of the JPEG image to index"`
}

// IndexOutput represents the output of the index_image tool.
type IndexOutput struct {
	ID            string `json:"id"`
	ImageURL      string `json:"image_url"`
	DHash         string `json:"dhash"`
	NumPixels     int    `json:"num_pixels"`
	ReceivedBytes int    `json:"received_bytes"`
}

// SearchInput represents the input arguments for the search_similar_images tool.
type SearchInput struct {
	ImageURL           string `json:"image_url" jsonschema:"http or https URL of the JPEG image to search for"`
	MinimumShouldMatch *int   `json:"minimum_should_match,omitempty" jsonschema:"minimum number of matching hash bits, 0 to 64 (default: server setting)"`
}

// SearchHit represents a single similar image.
type SearchHit struct {
	ID       string  `json:"id"`
	Score    float64 `json:"score"`
	ImageURL string  `json:"image_url"`
	DHash    string  `json:"dhash,omitempty"`
	Distance int     `json:"distance"`
}

// SearchOutput represents the output of the search_similar_images tool.
type SearchOutput struct {
	ImageURL string      `json:"image_url"`
	DHash    string      `json:"dhash"`
	Total    int         `json:"total"`
	Hits     []SearchHit `json:"hits"`
}

// handleIndex processes an index_image call.
func (s *Server) handleIndex(ctx context.Context, _ *mcp.CallToolRequest, input IndexInput) (*mcp.CallToolResult, IndexOutput, error) {
	s.config.Logger.Debug("MCP index request", "image_url", input.ImageURL)

	out, err := s.config.Indexer.Index(ctx, workflow.IndexRequest{ImageURL: input.ImageURL})
	if err != nil {
		return toolError(err), IndexOutput{}, nil
	}

	output := IndexOutput{
		ID:            out.ID,
		ImageURL:      out.Image.Source(),
		DHash:         out.Image.Fingerprint().String(),
		NumPixels:     out.Image.PixelCount(),
		ReceivedBytes: out.Image.ReceivedBytes(),
	}
	return structured(s, output)
}

// handleSearch processes a search_similar_images call.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	minimum := s.config.MinimumShouldMatch
	if input.MinimumShouldMatch != nil {
		minimum = *input.MinimumShouldMatch
	}
	if minimum < 0 || minimum > dhash.Bits {
		return textError(fmt.Sprintf("minimum_should_match must be between 0 and %d", dhash.Bits)), emptySearch(), nil
	}

	s.config.Logger.Debug("MCP search request",
		"image_url", input.ImageURL,
		"minimum_should_match", minimum,
	)

	found, err := s.config.Searcher.Search(ctx, workflow.SearchRequest{
		ImageURL:           input.ImageURL,
		MinimumShouldMatch: minimum,
	})
	if err != nil {
		return toolError(err), emptySearch(), nil
	}

	output, err := buildSearchOutput(found)
	if err != nil {
		s.config.Logger.Error("failed to read index reply", "error", err)
		return textError(fmt.Sprintf("Failed to read index reply: %v", err)), emptySearch(), nil
	}
	return structured(s, output)
}

// emptySearch is the output of a failed search. Hits is never null.
func emptySearch() SearchOutput {
	return SearchOutput{Hits: []SearchHit{}}
}

// buildSearchOutput reads the index reply and measures each hit against the
// query fingerprint.
func buildSearchOutput(found *workflow.Found) (SearchOutput, error) {
	var reply match.Response
	if err := json.Unmarshal(found.Payload, &reply); err != nil {
		return emptySearch(), err
	}

	fp := found.Image.Fingerprint()
	output := SearchOutput{
		ImageURL: found.Image.Source(),
		DHash:    fp.String(),
		Total:    int(reply.Hits.Total),
		Hits:     make([]SearchHit, 0, len(reply.Hits.Hits)),
	}

	for _, hit := range reply.Hits.Hits {
		h := SearchHit{ID: hit.ID, Score: hit.Score, Distance: -1}
		if doc, err := processed.ParseDocument(hit.Source); err == nil {
			h.ImageURL = doc.ImageURL
			h.DHash = doc.DHash.String()
			h.Distance = fp.Distance(doc.DHash)
		}
		output.Hits = append(output.Hits, h)
	}

	return output, nil
}

// structured returns output as structured content with its JSON text, as
// tools returning structured content should for older clients.
func structured[T any](s *Server, output T) (*mcp.CallToolResult, T, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		s.config.Logger.Error("failed to marshal tool output", "error", err)
		return textError(fmt.Sprintf("Failed to serialize results: %v", err)), output, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

// toolError reports a workflow failure with its status code.
func toolError(err error) *mcp.CallToolResult {
	var werr *workflow.Error
	if errors.As(err, &werr) {
		return textError(fmt.Sprintf("%s (status %d)", werr.Message, werr.StatusCode))
	}
	return textError(err.Error())
}

func textError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: msg},
		},
	}
}
