package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/vanpelt/agentdeck/internal/sessions"
)

// WorktreeRequest is the body of POST and DELETE /v1/worktrees.
type WorktreeRequest struct {
	Repo   string `json:"repo"`
	Branch string `json:"branch,omitempty"`
	Path   string `json:"path,omitempty"`
}

func requireRepo(repo string) error {
	if repo == "" {
		return fmt.Errorf("%w: repo is required", sessions.ErrValidation)
	}
	return nil
}

func (s *Server) createWorktree(c *fiber.Ctx) error {
	var req WorktreeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	if err := requireRepo(req.Repo); err != nil {
		return err
	}
	path, err := s.worktrees.Create(c.UserContext(), req.Repo, req.Branch)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"path": path})
}

func (s *Server) listWorktrees(c *fiber.Ctx) error {
	repo := c.Query("repo")
	if err := requireRepo(repo); err != nil {
		return err
	}
	list, err := s.worktrees.List(c.UserContext(), repo)
	if err != nil {
		return err
	}
	return c.JSON(list)
}

func (s *Server) removeWorktree(c *fiber.Ctx) error {
	var req WorktreeRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(err)
	}
	if err := requireRepo(req.Repo); err != nil {
		return err
	}
	if err := s.worktrees.Remove(c.UserContext(), req.Repo, req.Path); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
