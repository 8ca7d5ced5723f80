package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"creatorvault/internal/apperrors"
	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

// IdempotencyKeyHeader carries the client's key for a payment submission.
const IdempotencyKeyHeader = "Idempotency-Key"

type purchaseRequest struct {
	Amount    model.Amount `json:"amount"`
	Recipient string       `json:"recipient"`
}

type tipRequest struct {
	CreatorAddress string       `json:"creatorAddress"`
	Amount         model.Amount `json:"amount"`
	Message        string       `json:"message"`
}

func (s *Server) handlePurchase(c echo.Context) error {
	who, err := authenticated(c)
	if err != nil {
		return err
	}
	// The body is optional; echo skips binding an empty one.
	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "Invalid purchase body").WithDetail(err.Error())
	}

	result, err := s.svc.PurchaseContent(c.Request().Context(), creator.PurchaseRequest{
		ContentID:      c.Param("id"),
		Amount:         req.Amount,
		Recipient:      req.Recipient,
		Buyer:          who,
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleTip(c echo.Context) error {
	who, err := authenticated(c)
	if err != nil {
		return err
	}
	var req tipRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "Invalid tip body").WithDetail(err.Error())
	}

	result, err := s.svc.TipCreator(c.Request().Context(), creator.TipRequest{
		CreatorAddress: req.CreatorAddress,
		Amount:         req.Amount,
		Message:        req.Message,
		Sender:         who,
		IdempotencyKey: c.Request().Header.Get(IdempotencyKeyHeader),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetPayment(c echo.Context) error {
	who, err := authenticated(c)
	if err != nil {
		return err
	}
	payment, err := s.svc.GetPayment(c.Param("id"), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}
