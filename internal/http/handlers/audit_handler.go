// Audit inspection handler.
//
// GET /audit/messages/:sender exposes the handled-message history the engine
// records for each sender: aggregate stats plus the most recent audit rows.
// This is an operator surface, not part of the provider webhook contract, and
// is only mounted when the audit database is available.
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clinicline/go-sms-backend/internal/domain"
	"github.com/clinicline/go-sms-backend/internal/repo"
)

// maxAuditRows caps the limit query parameter.
const maxAuditRows = 100

// AuditResponse is the JSON envelope for one sender's audit history.
type AuditResponse struct {
	Sender   string              `json:"sender"`
	Count    int64               `json:"count"`
	Latest   *time.Time          `json:"latest,omitempty"`
	Messages []domain.MessageLog `json:"messages"`
}

// AuditHandler serves read-only queries against the message audit log.
type AuditHandler struct {
	db *gorm.DB
}

// NewAudit wraps an open audit database handle.
func NewAudit(db *gorm.DB) *AuditHandler { return &AuditHandler{db: db} }

// SenderHistory handles GET /audit/messages/:sender. It supports conditional
// requests: the ETag is derived from the row count and latest timestamp, so
// pollers see 304 until the sender messages again.
func (h *AuditHandler) SenderHistory(c *gin.Context) {
	ctx := c.Request.Context()
	sender := c.Param("sender")

	count, latest, err := repo.MessageStats(ctx, h.db, sender)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "audit log unavailable")
		return
	}

	var ts int64
	if latest != nil {
		ts = latest.Unix()
	}
	etag := fmt.Sprintf(`W/"audit:%s:%d:%d"`, sender, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	limit := 0 // ListRecent applies its own default
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxAuditRows {
		limit = maxAuditRows
	}

	rows, err := repo.ListRecent(ctx, h.db, sender, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "audit log unavailable")
		return
	}
	if rows == nil {
		rows = []domain.MessageLog{}
	}

	c.JSON(http.StatusOK, AuditResponse{
		Sender:   sender,
		Count:    count,
		Latest:   latest,
		Messages: rows,
	})
}
