package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/vanpelt/agentdeck/internal/sessions"
)

// LaunchResponse is returned by POST /v1/sessions. Error is set when the
// session started but its initial prompt could not be delivered.
type LaunchResponse struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// InputRequest is the body of POST /v1/sessions/:id/input.
type InputRequest struct {
	Data string `json:"data"`
}

// ResizeRequest is the body of POST /v1/sessions/:id/resize.
type ResizeRequest struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
}

// UsageRequest is the body of PUT /v1/sessions/:id/usage.
type UsageRequest struct {
	CostUSD    float64 `json:"cumulative_cost_usd"`
	TokenCount int64   `json:"token_count"`
}

func badBody(err error) error {
	return fmt.Errorf("%w: malformed request body: %v", sessions.ErrValidation, err)
}

// launchSession starts a new agent or shell session
// @Summary Launch session
// @Tags sessions
// @Accept json
// @Produce json
// @Success 201 {object} LaunchResponse
// @Router /v1/sessions [post]
func (s *Server) launchSession(c *fiber.Ctx) error {
	var req sessions.LaunchRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	if req.InitialPrompt != "" {
		if err := ValidateInput(req.InitialPrompt); err != nil {
			return err
		}
	}

	id, err := s.manager.Launch(c.UserContext(), req)
	if err != nil && id == "" {
		return err
	}
	resp := LaunchResponse{ID: id}
	if err != nil {
		resp.Error = err.Error()
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	return c.JSON(s.manager.List())
}

func (s *Server) getSession(c *fiber.Ctx) error {
	rec, err := s.manager.Get(c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// writeInput types validated text into a session
// @Summary Send input
// @Tags sessions
// @Accept json
// @Success 204
// @Router /v1/sessions/{id}/input [post]
func (s *Server) writeInput(c *fiber.Ctx) error {
	var req InputRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	if err := s.sendInput(c.Params("id"), req.Data); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// sendInput is shared by the REST route and the websocket stream.
func (s *Server) sendInput(id, data string) error {
	if err := ValidateInput(data); err != nil {
		return err
	}
	return s.manager.Write(id, []byte(data))
}

func (s *Server) resizeSession(c *fiber.Ctx) error {
	var req ResizeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	if err := s.manager.Resize(c.Params("id"), req.Cols, req.Rows); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) recordUsage(c *fiber.Ctx) error {
	var req UsageRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	id := c.Params("id")
	if err := s.manager.RecordUsage(id, req.CostUSD, req.TokenCount); err != nil {
		return err
	}
	rec, err := s.manager.Get(id)
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

func (s *Server) terminateSession(c *fiber.Ctx) error {
	if err := s.manager.Terminate(c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
