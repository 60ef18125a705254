package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/visualsearch/pkg/dhash"
	"github.com/papercomputeco/visualsearch/pkg/workflow"
)

// IndexImageRequest is the body of POST /image. Image holds base64 encoded
// JPEG bytes and is used only when ImageURL is empty.
type IndexImageRequest struct {
	ImageURL string `json:"imageUrl"`
	Image    string `json:"image"`
}

// IndexImageResponse carries the id the index assigned.
type IndexImageResponse struct {
	ID string `json:"_id"`
}

// SearchImageRequest is the body of POST /image_search.
type SearchImageRequest struct {
	ImageURL           string `json:"imageUrl"`
	MinimumShouldMatch *int   `json:"minimumShouldMatch"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// StatusResponse is the body of the health endpoints.
type StatusResponse struct {
	Status string `json:"status"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{Status: "ok"})
}

// handleStatus reports the application status.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{Status: "UP"})
}

// handleIndexImage fingerprints the image and stores it in the index.
func (s *Server) handleIndexImage(c *fiber.Ctx) error {
	var req IndexImageRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "request body is not valid JSON.")
	}

	var inline []byte
	if req.ImageURL == "" && req.Image != "" {
		data, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return badRequest(c, "image is not valid base64.")
		}
		inline = data
	}

	out, err := s.indexer.Index(c.Context(), workflow.IndexRequest{
		ImageURL: req.ImageURL,
		Image:    inline,
	})
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(IndexImageResponse{ID: out.ID})
}

// handleSearchImage queries the index for images similar to the one at the
// given URL and relays the index reply unchanged.
func (s *Server) handleSearchImage(c *fiber.Ctx) error {
	var req SearchImageRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badRequest(c, "request body is not valid JSON.")
	}

	minimum := s.config.MinimumShouldMatch
	if req.MinimumShouldMatch != nil {
		minimum = *req.MinimumShouldMatch
	}
	if minimum < 0 || minimum > dhash.Bits {
		return badRequest(c, fmt.Sprintf("minimumShouldMatch must be between 0 and %d.", dhash.Bits))
	}

	found, err := s.searcher.Search(c.Context(), workflow.SearchRequest{
		ImageURL:           req.ImageURL,
		MinimumShouldMatch: minimum,
	})
	if err != nil {
		return s.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Status(fiber.StatusOK).Send(found.Payload)
}

// fail renders a workflow failure with its status code. Anything else is an
// internal error.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	var werr *workflow.Error
	if errors.As(err, &werr) {
		return c.Status(werr.StatusCode).JSON(ErrorResponse{Message: werr.Message})
	}

	s.logger.Error("request failed", "path", c.Path(), "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Message: err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Message: msg})
}
