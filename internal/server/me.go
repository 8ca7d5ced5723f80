package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"creatorvault/internal/model"
)

func (s *Server) handleMe(c echo.Context) error {
	who, err := authenticated(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, who)
}

func (s *Server) handleBalance(c echo.Context) error {
	if _, err := authenticated(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]model.Amount{"balance": s.svc.GetUserBalance()})
}

func (s *Server) handleMyPurchases(c echo.Context) error {
	who, err := authenticated(c)
	if err != nil {
		return err
	}
	purchases, err := s.svc.ListPurchases(who.Address)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(purchases))
}
