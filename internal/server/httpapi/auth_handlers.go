package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/minangbatik/batikhub/internal/server/services"
)

type registerRequest struct {
	Name                 string `json:"name" form:"name"`
	Email                string `json:"email" form:"email"`
	Password             string `json:"password" form:"password"`
	PasswordConfirmation string `json:"password_confirmation" form:"password_confirmation"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type authResponse struct {
	Message     string             `json:"message"`
	AccessToken string             `json:"access_token"`
	TokenType   string             `json:"token_type"`
	ExpiresAt   time.Time          `json:"expires_at"`
	User        *services.UserView `json:"user"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type dataResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func newAuthResponse(msg string, res *services.AuthResult) authResponse {
	return authResponse{
		Message:     msg,
		AccessToken: res.AccessToken,
		TokenType:   res.TokenType,
		ExpiresAt:   res.ExpiresAt,
		User:        services.NewUserView(res.User),
	}
}

func (s *Server) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	res, err := s.users.Register(c.Request().Context(), services.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, newAuthResponse("User registered successfully", res))
}

func (s *Server) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	res, err := s.users.Login(c.Request().Context(), services.LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newAuthResponse("Login successful", res))
}

func (s *Server) logout(c echo.Context) error {
	if err := s.users.Logout(c.Request().Context(), callerFrom(c)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out successfully"})
}

func (s *Server) me(c echo.Context) error {
	user, err := s.users.Me(c.Request().Context(), callerFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, services.NewUserView(user))
}
