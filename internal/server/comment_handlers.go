// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/comments/blog/:id (auth)
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content  string `json:"content"`
		ParentID *uint  `json:"parentId"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	created, err := s.commentService.CreateComment(ctx, service.CreateCommentInput{
		UserID:   userID,
		PostID:   postID,
		ParentID: req.ParentID,
		Content:  req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishPostEvent(postID, EventNewComment, created)

	return models.RespondWithData(c, fiber.StatusCreated, created)
}

// GetComments handles GET /api/comments/blog/:id (public). Top-level
// comments come newest-first and paginated; each carries its replies
// oldest-first.
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := c.UserContext()

	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page, limit := parsePage(c, 10)

	comments, pagination, err := s.commentService.ListComments(ctx, service.ListCommentsInput{
		PostID: postID,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	return models.RespondWithPage(c, comments, pagination)
}

// UpdateComment handles PUT /api/comments/:id (owner only)
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Content string `json:"content"`
	}
	if parseErr := c.BodyParser(&req); parseErr != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	updated, err := s.commentService.UpdateComment(ctx, service.UpdateCommentInput{
		UserID:    userID,
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	s.publishPostEvent(updated.PostID, EventCommentUpdated, updated)

	return models.RespondWithData(c, fiber.StatusOK, updated)
}

// DeleteComment handles DELETE /api/comments/:id (owner or admin)
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Locals("userID").(uint)

	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	deleted, err := s.commentService.DeleteComment(ctx, service.DeleteCommentInput{
		UserID:    userID,
		CommentID: commentID,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	// Deletion events carry the id only; the content is gone.
	s.publishPostEvent(deleted.PostID, EventCommentDeleted, fiber.Map{
		"commentId": deleted.ID,
	})

	return models.RespondWithData(c, fiber.StatusOK, fiber.Map{
		"message": "Comment deleted successfully",
	})
}
