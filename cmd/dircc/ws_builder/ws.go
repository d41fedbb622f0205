// Package wsbuilder streams build progress over a WebSocket: the client
// sends one build request and receives a file event per compiled source
// followed by a summary event.
package wsbuilder

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/buildforge/dircc/builder"
	"github.com/buildforge/dircc/cmd/dircc/model"
	restbuilder "github.com/buildforge/dircc/cmd/dircc/rest_builder"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// Event is a single message sent to the client
type Event struct {
	Type    string            `json:"type"` // "file" or "summary"
	File    *model.FileResult `json:"file,omitempty"`
	Summary *model.Summary    `json:"summary,omitempty"`
}

type wsHandle struct {
	svc    restbuilder.BuildService
	logger *zap.Logger
}

// New creates a new websocket handle
func New(svc restbuilder.BuildService, logger *zap.Logger) restbuilder.Register {
	return &wsHandle{
		svc:    svc,
		logger: logger,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (h *wsHandle) Register(r *gin.Engine) {
	r.GET("/ws", h.handleWS)
}

func (h *wsHandle) handleWS(ctx *gin.Context) {
	conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		ctx.Error(err)
		return
	}
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	var req model.BuildRequest
	if err := conn.ReadJSON(&req); err != nil {
		h.logger.Debug("ws read request failed", zap.Error(err))
		return
	}

	// events are produced by the build loop; a separate writer goroutine
	// keeps pings flowing while compilers run
	events := make(chan Event, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case e, ok := <-events:
				if !ok {
					return
				}
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteJSON(e); err != nil {
					return
				}
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	send := func(e Event) {
		// never block the build loop on a dead connection
		select {
		case events <- e:
		case <-done:
		}
	}

	sum, err := h.svc.Build(ctx.Request.Context(), &req, func(fr builder.FileResult) {
		e := model.ConvertFileResult(fr)
		send(Event{Type: "file", File: &e})
	})
	if err != nil {
		h.logger.Warn("ws build failed", zap.Error(err))
		close(events)
		<-done
		return
	}
	s := model.ConvertSummary(req.RequestID, sum)
	send(Event{Type: "summary", Summary: &s})
	close(events)
	<-done
}
