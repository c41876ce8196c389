package gateway

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jmerrifield20/modbot/internal/audit"
	"github.com/jmerrifield20/modbot/internal/karma"
	"github.com/jmerrifield20/modbot/internal/moderation"
	"github.com/jmerrifield20/modbot/internal/transport"
	"go.uber.org/zap"
)

// EventHandler consumes inbound events.
type EventHandler interface {
	HandleEvent(ctx context.Context, ev transport.Event) error
}

// Handler exposes the gateway's HTTP endpoints.
type Handler struct {
	gw      *Gateway
	events  EventHandler
	queue   *moderation.Queue
	karma   *karma.Tracker
	audit   audit.Log
	ipLimit *Limiter
	authors *Limiter
	logger  *zap.Logger
}

// NewHandler creates a Handler.
func NewHandler(gw *Gateway, events EventHandler, queue *moderation.Queue, tracker *karma.Tracker, auditLog audit.Log, logger *zap.Logger) *Handler {
	return &Handler{gw: gw, events: events, queue: queue, karma: tracker, audit: auditLog, logger: logger}
}

// SetRateLimiter limits POST /events per client IP.
func (h *Handler) SetRateLimiter(l *Limiter) {
	h.ipLimit = l
}

// SetAuthorLimiter limits POST /events per event author_id, checked after
// the body is bound.
func (h *Handler) SetAuthorLimiter(l *Limiter) {
	h.authors = l
}

// Register mounts the routes on the given router group.
func (h *Handler) Register(rg *gin.RouterGroup) {
	events := []gin.HandlerFunc{h.PostEvent}
	if h.ipLimit != nil {
		events = append([]gin.HandlerFunc{h.ipLimit.Middleware()}, events...)
	}
	rg.POST("/events", events...)
	rg.GET("/outbox", h.ListOutbox)
	rg.GET("/queue", h.ListQueue)
	rg.GET("/karma/:user", h.GetKarma)

	a := rg.Group("/audit")
	{
		a.GET("", h.AuditOverview)
		a.GET("/verify", h.AuditVerify)
		a.GET("/entries/:idx", h.AuditEntry)
	}
}

// PostEvent handles POST /events. The response carries the outbound items
// queued while the event was processed.
func (h *Handler) PostEvent(c *gin.Context) {
	var ev transport.Event
	if err := c.ShouldBindJSON(&ev); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ev.Type == "" {
		ev.Type = transport.EventMessage
	}
	if ev.Type != transport.EventMessage && ev.Type != transport.EventEdit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be \"message\" or \"edit\""})
		return
	}
	if !ev.IsDM() && ev.ChannelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "channel_id is required for guild events"})
		return
	}
	if h.authors != nil && !h.authors.Allow(ev.AuthorID) {
		h.logger.Debug("event rate limited", zap.String("author", ev.AuthorID))
		rejectRateLimited(c, "author")
		return
	}

	before := h.gw.Outbox().LastSeq()
	h.gw.Directory().Observe(ev)
	if err := h.events.HandleEvent(c.Request.Context(), ev); err != nil {
		h.logger.Error("handle event",
			zap.String("type", string(ev.Type)),
			zap.String("author", ev.AuthorID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "event processing failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.gw.Outbox().After(before)})
}

// ListOutbox handles GET /outbox?after=N.
func (h *Handler) ListOutbox(c *gin.Context) {
	var after int64
	if s := c.Query("after"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "after must be a non-negative integer"})
			return
		}
		after = n
	}
	c.JSON(http.StatusOK, gin.H{
		"items":    h.gw.Outbox().After(after),
		"last_seq": h.gw.Outbox().LastSeq(),
	})
}

type queuedReport struct {
	Ticket   string `json:"ticket"`
	Reporter string `json:"reporter"`
	Offender string `json:"offender"`
	Category string `json:"category"`
	Specific string `json:"specific"`
	Head     bool   `json:"head"`
}

// ListQueue handles GET /queue.
func (h *Handler) ListQueue(c *gin.Context) {
	snap := h.queue.Snapshot()
	out := make([]queuedReport, 0, len(snap))
	for i, r := range snap {
		out = append(out, queuedReport{
			Ticket:   r.Ticket.String(),
			Reporter: r.ID,
			Offender: r.Offender(),
			Category: r.BroadCategory,
			Specific: r.SpecificCategory,
			Head:     i == 0,
		})
	}
	c.JSON(http.StatusOK, gin.H{"reports": out, "count": len(out)})
}

// GetKarma handles GET /karma/:user.
func (h *Handler) GetKarma(c *gin.Context) {
	user := c.Param("user")
	c.JSON(http.StatusOK, gin.H{
		"user":              user,
		"count":             h.karma.Count(user),
		"threshold":         h.karma.Threshold(),
		"threshold_reached": h.karma.ThresholdReached(user),
	})
}

// AuditOverview handles GET /audit, returning the chain length and root hash.
func (h *Handler) AuditOverview(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.audit.Len(ctx)
	if err != nil {
		h.logger.Error("audit Len", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query audit log"})
		return
	}
	root, err := h.audit.Root(ctx)
	if err != nil {
		h.logger.Error("audit Root", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query audit root"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": count, "root": root})
}

// AuditVerify handles GET /audit/verify.
func (h *Handler) AuditVerify(c *gin.Context) {
	if err := h.audit.Verify(c.Request.Context()); err != nil {
		h.logger.Warn("audit integrity check failed", zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"valid": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// AuditEntry handles GET /audit/entries/:idx.
func (h *Handler) AuditEntry(c *gin.Context) {
	idx, err := strconv.Atoi(c.Param("idx"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "idx must be a non-negative integer"})
		return
	}
	entry, err := h.audit.Get(c.Request.Context(), idx)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	c.JSON(http.StatusOK, entry)
}
