package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"creatorvault/internal/apperrors"
	"creatorvault/internal/model"
)

type earningsResponse struct {
	CreatorAddress string       `json:"creatorAddress"`
	Earnings       model.Amount `json:"earnings"`
}

func creatorParam(c echo.Context) (string, error) {
	addr := model.NormalizeAddress(c.Param("address"))
	if addr == "" {
		return "", apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "Creator address is required")
	}
	return addr, nil
}

func (s *Server) handleEarnings(c echo.Context) error {
	addr, err := creatorParam(c)
	if err != nil {
		return err
	}
	total, err := s.svc.CalculateCreatorEarnings(addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, earningsResponse{CreatorAddress: addr, Earnings: total})
}

func (s *Server) handleTodayEarnings(c echo.Context) error {
	addr, err := creatorParam(c)
	if err != nil {
		return err
	}
	today, err := s.svc.CalculateTodayEarnings(addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, earningsResponse{CreatorAddress: addr, Earnings: today})
}

func (s *Server) handleStats(c echo.Context) error {
	addr, err := creatorParam(c)
	if err != nil {
		return err
	}
	stats, err := s.svc.GetEarningsStats(addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCreatorTips(c echo.Context) error {
	addr, err := creatorParam(c)
	if err != nil {
		return err
	}
	tips, err := s.svc.ListTips(addr)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, orEmpty(tips))
}

// handleCreatorContent lists a creator's items. The creator sees drafts and
// archived items too; everyone else sees published items only.
func (s *Server) handleCreatorContent(c echo.Context) error {
	addr, err := creatorParam(c)
	if err != nil {
		return err
	}
	who := viewer(c)

	var items []*model.ContentItem
	if model.SameAddress(addr, who.Address) {
		items, err = s.svc.ListByCreator(addr)
	} else {
		filter, ferr := listFilter(c)
		if ferr != nil {
			return ferr
		}
		filter.CreatorAddress = addr
		items, err = s.svc.ListPublished(filter)
	}
	if err != nil {
		return err
	}
	views, err := s.redactAll(items, who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}
