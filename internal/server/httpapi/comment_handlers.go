package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/minangbatik/batikhub/internal/server/services"
)

type commentRequest struct {
	Content string `json:"content" form:"content"`
}

func (s *Server) addComment(c echo.Context) error {
	batikID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req commentRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	comment, err := s.comments.Add(c.Request().Context(), callerFrom(c), batikID, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dataResponse{Message: "Comment added successfully", Data: services.NewCommentView(comment)})
}

func (s *Server) listComments(c echo.Context) error {
	batikID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	list, err := s.comments.List(c.Request().Context(), batikID)
	if err != nil {
		return err
	}

	out := make([]*services.CommentView, 0, len(list))
	for _, comment := range list {
		out = append(out, services.NewCommentView(comment))
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) deleteComment(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.comments.Remove(c.Request().Context(), callerFrom(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Comment deleted successfully"})
}
