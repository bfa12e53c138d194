package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tutor-match-api/internal/service"
	"github.com/noah-isme/tutor-match-api/pkg/response"
)

type signedCalendarService interface {
	CalendarByToken(ctx context.Context, token string) (*service.ExportFile, error)
}

// CalendarHandler serves calendars behind signed links so participants can
// subscribe without an operator token.
type CalendarHandler struct {
	service signedCalendarService
}

// NewCalendarHandler builds a new handler.
func NewCalendarHandler(service signedCalendarService) *CalendarHandler {
	return &CalendarHandler{service: service}
}

// Download godoc
// @Summary Download an assignment calendar through a signed link
// @Tags Calendar
// @Produce text/calendar
// @Param token path string true "Signed token, optionally suffixed with .ics"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /calendar/{token} [get]
func (h *CalendarHandler) Download(c *gin.Context) {
	token := strings.TrimSuffix(c.Param("token"), ".ics")
	file, err := h.service.CalendarByToken(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
