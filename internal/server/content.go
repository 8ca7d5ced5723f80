package server

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"creatorvault/internal/apperrors"
	"creatorvault/internal/creator"
	"creatorvault/internal/model"
)

// contentRequest is the writable part of a content item.
type contentRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Content     string              `json:"content"`
	ContentType model.ContentType   `json:"contentType"`
	CoverImage  string              `json:"coverImage"`
	Tags        []string            `json:"tags"`
	Price       model.Amount        `json:"price"`
	IsPremium   bool                `json:"isPremium"`
	CreatorName string              `json:"creatorName"`
	Status      model.ContentStatus `json:"status"`
}

func (r *contentRequest) item(id string) *model.ContentItem {
	status := r.Status
	if status == "" {
		status = model.StatusDraft
	}
	return &model.ContentItem{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Content:     r.Content,
		ContentType: r.ContentType,
		CoverImage:  r.CoverImage,
		Tags:        orEmpty(r.Tags),
		Price:       r.Price,
		IsPremium:   r.IsPremium,
		CreatorName: r.CreatorName,
		Status:      status,
	}
}

// contentView is a content item as one viewer sees it.
type contentView struct {
	*model.ContentItem
	Locked bool `json:"locked"`
}

func bindContent(c echo.Context) (*contentRequest, error) {
	var req contentRequest
	if err := c.Bind(&req); err != nil {
		return nil, apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "Invalid content body").WithDetail(err.Error())
	}
	return &req, nil
}

// listFilter reads the creator, type, tag, limit and offset query parameters.
func listFilter(c echo.Context) (creator.ContentFilter, error) {
	var filter creator.ContentFilter
	var contentType string
	err := echo.QueryParamsBinder(c).
		String("creator", &filter.CreatorAddress).
		String("type", &contentType).
		String("tag", &filter.Tag).
		Int("limit", &filter.Limit).
		Int("offset", &filter.Offset).
		BindError()
	if err != nil {
		return filter, apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "Invalid query parameters").WithDetail(err.Error())
	}
	if filter.Limit < 0 || filter.Offset < 0 {
		return filter, apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "limit and offset must not be negative")
	}
	if contentType != "" {
		filter.ContentType = model.ContentType(contentType)
		if !filter.ContentType.Valid() {
			return filter, apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "Unknown content type").WithDetail(contentType)
		}
	}
	return filter, nil
}

// redactAll hides premium bodies the viewer has no access to.
func (s *Server) redactAll(items []*model.ContentItem, who model.Identity) ([]contentView, error) {
	views := make([]contentView, 0, len(items))
	for _, item := range items {
		ok, err := s.svc.CanAccess(item, who)
		if err != nil {
			return nil, err
		}
		if ok {
			views = append(views, contentView{ContentItem: item})
		} else {
			views = append(views, contentView{ContentItem: item.Redacted(), Locked: true})
		}
	}
	return views, nil
}

func (s *Server) handleListContent(c echo.Context) error {
	filter, err := listFilter(c)
	if err != nil {
		return err
	}
	items, err := s.svc.ListPublished(filter)
	if err != nil {
		return err
	}
	views, err := s.redactAll(items, viewer(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

func (s *Server) handleGetContent(c echo.Context) error {
	item, locked, err := s.svc.ViewContent(c.Param("id"), viewer(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, contentView{ContentItem: item, Locked: locked})
}

func (s *Server) handleCreateContent(c echo.Context) error {
	who, err := authenticated(c)
	if err != nil {
		return err
	}
	req, err := bindContent(c)
	if err != nil {
		return err
	}
	item, err := s.svc.CreateContent(who, req.item(""))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

func (s *Server) handleUpdateContent(c echo.Context) error {
	who, err := authenticated(c)
	if err != nil {
		return err
	}
	req, err := bindContent(c)
	if err != nil {
		return err
	}
	item, err := s.svc.EditContent(who, req.item(c.Param("id")))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

func (s *Server) handleDeleteContent(c echo.Context) error {
	who, err := authenticated(c)
	if err != nil {
		return err
	}
	if err := s.svc.RemoveContent(who, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleIncrementViews(c echo.Context) error {
	n, err := s.svc.IncrementViews(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"views": n})
}

func (s *Server) handleIncrementLikes(c echo.Context) error {
	n, err := s.svc.IncrementLikes(c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]int64{"likes": n})
}

type accessResponse struct {
	ContentID    string       `json:"contentId"`
	HasAccess    bool         `json:"hasAccess"`
	IsOwner      bool         `json:"isOwner"`
	HasPurchased bool         `json:"hasPurchased"`
	IsPremium    bool         `json:"isPremium"`
	Price        model.Amount `json:"price"`
}

func (s *Server) handleAccess(c echo.Context) error {
	who := viewer(c)
	item, err := s.svc.GetVisible(c.Param("id"), who)
	if err != nil {
		return err
	}
	access, err := s.svc.CanAccess(item, who)
	if err != nil {
		return err
	}
	purchased, err := s.svc.HasPurchased(item.ID, who.Address)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, accessResponse{
		ContentID:    item.ID,
		HasAccess:    access,
		IsOwner:      s.svc.IsOwner(item, who),
		HasPurchased: purchased,
		IsPremium:    item.IsPremium,
		Price:        item.EffectivePrice(),
	})
}
