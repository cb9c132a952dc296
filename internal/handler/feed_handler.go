package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edulink-id/parent-portal-api/internal/dto"
	"github.com/edulink-id/parent-portal-api/internal/feed"
	appErrors "github.com/edulink-id/parent-portal-api/pkg/errors"
	"github.com/edulink-id/parent-portal-api/pkg/response"
)

type feedSource interface {
	Snapshot() dto.FeedSnapshot
	Subscribe(obs feed.Observer) feed.Unsubscribe
}

// FeedStreamConfig tunes the SSE stream endpoint.
type FeedStreamConfig struct {
	// PingPeriod is how often a keepalive comment is written so proxies do
	// not time out idle streams.
	PingPeriod time.Duration
	// QueueSize bounds how many snapshots a slow client may lag behind
	// before intermediate ones are dropped.
	QueueSize int
}

// FeedHandler exposes the merged gallery feed, both as a one-shot snapshot
// and as a server-sent event stream.
type FeedHandler struct {
	source feedSource
	cfg    FeedStreamConfig
}

// NewFeedHandler constructs the handler.
func NewFeedHandler(source feedSource, cfg FeedStreamConfig) *FeedHandler {
	if cfg.PingPeriod <= 0 {
		cfg.PingPeriod = 30 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1
	}
	return &FeedHandler{source: source, cfg: cfg}
}

// Snapshot godoc
// @Summary Current merged feed snapshot
// @Tags Feed
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /feed [get]
func (h *FeedHandler) Snapshot(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, h.source.Snapshot())
}

// Stream godoc
// @Summary Live feed snapshots over server-sent events
// @Tags Feed
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200
// @Router /feed/stream [get]
func (h *FeedHandler) Stream(c *gin.Context) {
	if _, ok := currentClaims(c); !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	// Buffered so a slow client drops intermediate snapshots instead of
	// blocking the synchronizer; each snapshot is complete on its own.
	snapshots := make(chan dto.FeedSnapshot, h.cfg.QueueSize)
	unsubscribe := h.source.Subscribe(func(snap dto.FeedSnapshot) {
		select {
		case snapshots <- snap:
		default:
			select {
			case <-snapshots:
			default:
			}
			select {
			case snapshots <- snap:
			default:
			}
		}
	})
	defer unsubscribe()

	ping := time.NewTicker(h.cfg.PingPeriod)
	defer ping.Stop()

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case snap := <-snapshots:
			c.SSEvent("feed", snap)
			return true
		case <-ping.C:
			c.SSEvent("ping", time.Now().UTC().Format(time.RFC3339))
			return true
		}
	})
}
