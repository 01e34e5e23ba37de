package ws

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/loanlink/backend/internal/http/middleware"
	"golang.org/x/net/websocket"
)

type Handler struct {
	hub     *Hub
	origins middleware.OriginAllowList
}

func NewHandler(hub *Hub, allowedOrigins []string) *Handler {
	return &Handler{hub: hub, origins: middleware.NewOriginAllowList(allowedOrigins)}
}

type subscribeMessage struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
}

// HandleWebSocket expects RequireAuth to have run. Browsers attach session
// cookies to cross-site upgrades, so the Origin must be on the allow-list.
// The connection is subscribed to the caller's own applicant channel
// straight away.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	if !h.origins.Allows(c.GetHeader("Origin")) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "message": "origin not allowed"})
		return
	}
	p, ok := middleware.Principal(c)
	if !ok || p.Email == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "authentication required"})
		return
	}
	staff := p.Role == "manager" || p.Role == "admin"

	server := websocket.Server{
		// Origin and session were checked before the upgrade.
		Handshake: func(*websocket.Config, *http.Request) error { return nil },
		Handler: func(conn *websocket.Conn) {
			client := NewClient(conn)
			h.hub.Subscribe(ApplicantChannel(p.Email), client)
			go h.writer(client)
			h.reader(client, staff)
		},
	}
	server.ServeHTTP(c.Writer, c.Request)
}

func (h *Handler) reader(client *Client, staff bool) {
	defer func() {
		h.hub.UnsubscribeAll(client)
		client.close()
		_ = client.conn.Close()
	}()

	for {
		var raw string
		if err := websocket.Message.Receive(client.conn, &raw); err != nil {
			return
		}
		var msg subscribeMessage
		if err := json.Unmarshal([]byte(raw), &msg); err != nil {
			continue
		}
		if strings.ToLower(strings.TrimSpace(msg.Action)) != "subscribe" {
			continue
		}
		if topic := subscriptionTopic(msg, staff); topic != "" {
			h.hub.Subscribe(topic, client)
		}
	}
}

func (h *Handler) writer(client *Client) {
	for payload := range client.out {
		if err := websocket.Message.Send(client.conn, string(payload)); err != nil {
			return
		}
	}
}

func subscriptionTopic(msg subscribeMessage, staff bool) string {
	channel := strings.ToLower(strings.TrimSpace(msg.Channel))
	if channel == QueueChannel && staff {
		return QueueChannel
	}
	return ""
}
