package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/loykin/prnotify/internal/pullrequest"
	"github.com/loykin/prnotify/internal/settings"
	"github.com/loykin/prnotify/internal/store"
)

func (s *Server) listNotifications(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		list []settings.Notification
		err  error
	)
	projectKey, slug := c.Param("projectKey"), c.Param("repositorySlug")
	switch {
	case slug != "":
		list, err = s.opts.Settings.NotificationsForRepository(ctx, projectKey, slug)
	case projectKey != "":
		list, err = s.opts.Settings.NotificationsForProject(ctx, projectKey)
	default:
		list, err = s.opts.Settings.Notifications(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}
	settings.SortNotifications(list)
	out := make([]settings.Notification, len(list))
	for i, n := range list {
		out[i] = n.Redacted()
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) getNotification(c *gin.Context) {
	n, err := s.opts.Settings.Notification(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, n.Redacted())
}

func (s *Server) saveNotification(c *gin.Context) {
	var n settings.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, &settings.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	saved, err := s.opts.Settings.SaveNotification(c.Request.Context(), n)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved.Redacted())
}

func (s *Server) deleteNotification(c *gin.Context) {
	if err := s.opts.Settings.DeleteNotification(c.Request.Context(), c.Param("uuid")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) listButtons(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		list []settings.Button
		err  error
	)
	projectKey, slug := c.Param("projectKey"), c.Param("repositorySlug")
	switch {
	case slug != "":
		list, err = s.opts.Settings.ButtonsForRepository(ctx, projectKey, slug)
	case projectKey != "":
		list, err = s.opts.Settings.ButtonsForProject(ctx, projectKey)
	default:
		list, err = s.opts.Settings.Buttons(ctx)
	}
	if err != nil {
		fail(c, err)
		return
	}
	// buttons the caller may not press are hidden
	level := callerLevel(c)
	visible := make([]settings.Button, 0, len(list))
	for _, b := range list {
		if b.UserLevel.Permits(level) {
			visible = append(visible, b)
		}
	}
	settings.SortButtons(visible)
	c.JSON(http.StatusOK, visible)
}

func (s *Server) getButton(c *gin.Context) {
	b, err := s.opts.Settings.Button(c.Request.Context(), c.Param("uuid"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (s *Server) saveButton(c *gin.Context) {
	var b settings.Button
	if err := c.ShouldBindJSON(&b); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, &settings.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	saved, err := s.opts.Settings.SaveButton(c.Request.Context(), b)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (s *Server) deleteButton(c *gin.Context) {
	if err := s.opts.Settings.DeleteButton(c.Request.Context(), c.Param("uuid")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PressRequest is the body of POST /api/buttons/:uuid/press.
type PressRequest struct {
	Event    pullrequest.Event `json:"event"`
	FormData string            `json:"formData,omitempty"`
}

func (s *Server) pressButton(c *gin.Context) {
	ctx := c.Request.Context()
	b, err := s.opts.Settings.Button(ctx, c.Param("uuid"))
	if err != nil {
		fail(c, err)
		return
	}
	if !b.UserLevel.Permits(callerLevel(c)) {
		abort(c, http.StatusForbidden, "forbidden: "+string(b.UserLevel)+" required")
		return
	}
	var req PressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, &settings.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	res, err := s.opts.Dispatcher.PressButton(ctx, b.UUID, req.Event, req.FormData)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) getData(c *gin.Context) {
	d, err := s.opts.Settings.Data(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d.Redacted())
}

func (s *Server) saveData(c *gin.Context) {
	var d settings.Data
	if err := c.ShouldBindJSON(&d); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, &settings.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	saved, err := s.opts.Settings.SaveData(c.Request.Context(), d)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved.Redacted())
}

// EventResponse is the answer of POST /api/events.
type EventResponse struct {
	Responses []store.NotificationResponse `json:"responses"`
}

func (s *Server) handleEvent(c *gin.Context) {
	var ev pullrequest.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, &settings.ValidationError{Field: "body", Message: err.Error()})
		return
	}
	action, err := pullrequest.ParseAction(string(ev.Action))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, &settings.ValidationError{Field: "action", Message: err.Error()})
		return
	}
	ev.Action = action
	responses, err := s.opts.Dispatcher.HandleEvent(c.Request.Context(), ev)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, EventResponse{Responses: responses})
}

func (s *Server) listResponses(c *gin.Context) {
	if s.opts.Responses == nil {
		abort(c, http.StatusNotFound, "response history is not available")
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, &settings.ValidationError{Field: "limit", Message: "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	list, err := s.opts.Responses.ListResponses(c.Request.Context(), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
