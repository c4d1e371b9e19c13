package handlers

import (
	"net/http"
	"time"

	"github.com/anonto42/lumina/backend/internal/models"
	"github.com/anonto42/lumina/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// groupedInboxLimit caps how many notifications the grouped view loads
const groupedInboxLimit = 200

// NotificationHandler serves the notification inbox of the current user
type NotificationHandler struct {
	notificationRepository repositories.NotificationRepository
	userRepository         repositories.UserRepository
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifRepo repositories.NotificationRepository, userRepo repositories.UserRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepository: notifRepo,
		userRepository:         userRepo,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/grouped", h.GetGroupedNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// InboxItem is a notification with the user who caused it
type InboxItem struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

type inboxGroups struct {
	Today     []InboxItem `json:"today"`
	Yesterday []InboxItem `json:"yesterday"`
	ThisWeek  []InboxItem `json:"thisWeek"`
	Older     []InboxItem `json:"older"`
}

// groupByAge splits newest-first items into calendar buckets relative to now.
// ThisWeek covers the five days before yesterday.
func groupByAge(items []InboxItem, now time.Time) inboxGroups {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	week := today.AddDate(0, 0, -6)

	groups := inboxGroups{
		Today:     []InboxItem{},
		Yesterday: []InboxItem{},
		ThisWeek:  []InboxItem{},
		Older:     []InboxItem{},
	}
	for _, it := range items {
		switch at := it.CreatedAt; {
		case !at.Before(today):
			groups.Today = append(groups.Today, it)
		case !at.Before(yesterday):
			groups.Yesterday = append(groups.Yesterday, it)
		case !at.Before(week):
			groups.ThisWeek = append(groups.ThisWeek, it)
		default:
			groups.Older = append(groups.Older, it)
		}
	}
	return groups
}

func (h *NotificationHandler) withActors(notifications []models.Notification) []InboxItem {
	ids := make([]uint, 0, len(notifications))
	for _, n := range notifications {
		ids = append(ids, n.ActorID)
	}
	actors := compactUsers(h.userRepository, ids)

	items := make([]InboxItem, len(notifications))
	for i, n := range notifications {
		items[i] = InboxItem{Notification: n, Actor: actors[n.ActorID]}
	}
	return items
}

// GetNotifications returns one page of the inbox, newest first
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	page, limit := pageParams(c, 20, 50)
	notifications, total, err := h.notificationRepository.ListForRecipient(currentUserID, (page-1)*limit, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"notifications": h.withActors(notifications)},
		"meta":    paginationMeta(page, limit, total),
	})
}

// GetGroupedNotifications returns the retained inbox bucketed by day
func (h *NotificationHandler) GetGroupedNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	now := time.Now()
	notifications, err := h.notificationRepository.ListSince(currentUserID, now.Add(-models.NotificationRetention), groupedInboxLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	unread, err := h.notificationRepository.CountUnread(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return success(c, http.StatusOK, echo.Map{
		"notifications": groupByAge(h.withActors(notifications), now),
		"unreadCount":   unread,
	})
}

func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	count, err := h.notificationRepository.CountUnread(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead flags one notification and returns the remaining unread count
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	notifID, err := parseIDParam(c, "id", "notification")
	if err != nil {
		return err
	}
	unread, err := h.notificationRepository.MarkRead(currentUserID, notifID)
	if err != nil {
		return repoError(err, "Notification")
	}
	return success(c, http.StatusOK, echo.Map{"unreadCount": unread})
}

func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	marked, err := h.notificationRepository.MarkAllRead(currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return success(c, http.StatusOK, echo.Map{"marked": marked, "unreadCount": 0})
}

// CleanupOldNotifications deletes notifications past the retention window
func CleanupOldNotifications(repo repositories.NotificationRepository, now time.Time) (int64, error) {
	return repo.DeleteOlderThan(now.Add(-models.NotificationRetention))
}
