package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/market-backend/internal/model"
	"github.com/shinyyama/market-backend/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
}

func NewNotificationHandler(svc service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

type createNotificationRequest struct {
	UserID       uint64  `json:"userId"`
	Title        string  `json:"title" validate:"required"`
	Message      string  `json:"message" validate:"required"`
	Type         string  `json:"type"`
	RelatedModel string  `json:"relatedModel"`
	RelatedID    *uint64 `json:"relatedId"`
}

func (h *NotificationHandler) Create(c echo.Context) error {
	var req createNotificationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	n, err := h.svc.Create(c.Request().Context(), actorFrom(c), service.CreateNotificationInput{
		UserID:       req.UserID,
		Title:        req.Title,
		Message:      req.Message,
		Type:         model.NotificationType(req.Type),
		RelatedModel: req.RelatedModel,
		RelatedID:    req.RelatedID,
	})
	if err != nil {
		return err
	}
	return success(c, http.StatusCreated, echo.Map{"notification": toNotificationResponse(n)})
}

func (h *NotificationHandler) ListByUser(c echo.Context) error {
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	list, err := h.svc.ListByUser(c.Request().Context(), actorFrom(c), userID)
	if err != nil {
		return err
	}
	resp := make([]NotificationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toNotificationResponse(&list[i]))
	}
	return success(c, http.StatusOK, echo.Map{"notifications": resp})
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.svc.MarkRead(c.Request().Context(), actorFrom(c), id)
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"notification": toNotificationResponse(n)})
}

func (h *NotificationHandler) MarkAllRead(c echo.Context) error {
	n, err := h.svc.MarkAllRead(c.Request().Context(), actorFrom(c))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"updated": n})
}

func (h *NotificationHandler) Purge(c echo.Context) error {
	n, err := h.svc.PurgeRead(c.Request().Context(), queryInt(c, "days", 30))
	if err != nil {
		return err
	}
	return success(c, http.StatusOK, echo.Map{"deleted": n})
}
