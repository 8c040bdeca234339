package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type clearResult struct {
	Deleted int64 `json:"deleted"`
}

func (s *Server) listBatiks(c echo.Context) error {
	list, err := s.batiks.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) getBatik(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	b, err := s.batiks.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, b)
}

func (s *Server) storeBatik(c echo.Context) error {
	form, err := readBatikForm(c)
	if err != nil {
		return err
	}

	b, err := s.batiks.Submit(c.Request().Context(), callerFrom(c), form.submitInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dataResponse{Message: "Batik stored successfully", Data: b})
}

func (s *Server) updateBatik(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	form, err := readBatikForm(c)
	if err != nil {
		return err
	}

	b, err := s.batiks.Update(c.Request().Context(), callerFrom(c), id, form.updateInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Message: "Batik updated successfully", Data: b})
}

func (s *Server) deleteBatik(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := s.batiks.Delete(c.Request().Context(), callerFrom(c), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Batik deleted successfully"})
}

func (s *Server) listMine(c echo.Context) error {
	list, err := s.batiks.ListMine(c.Request().Context(), callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) clearHistory(c echo.Context) error {
	n, err := s.batiks.DeleteAll(c.Request().Context(), callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dataResponse{Message: "All batik history deleted successfully", Data: clearResult{Deleted: n}})
}
