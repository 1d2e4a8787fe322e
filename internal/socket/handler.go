// internal/socket/handler.go
package socket

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/kayapalat/kayapalat-backend/internal/types"
)

// Handler handles WebSocket connections
type Handler struct {
	Hub       *Hub
	JWTSecret string
	upgrader  websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. An empty allowedOrigins list
// accepts any origin.
func NewHandler(hub *Hub, jwtSecret string, allowedOrigins []string) *Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimRight(o, "/")] = true
	}
	return &Handler{
		Hub:       hub,
		JWTSecret: jwtSecret,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(allowed) == 0 || origin == "" || allowed[origin]
			},
		},
	}
}

// Identity is what the handler needs from an access token.
type Identity struct {
	UserID  string
	Role    string
	AgentID string
}

// ParseToken validates an HS256 access token and extracts the identity claims.
func ParseToken(tokenString, secret string) (Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return Identity{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}

	id := Identity{}
	id.UserID, _ = claims["sub"].(string)
	id.Role, _ = claims["role"].(string)
	id.AgentID, _ = claims["agentId"].(string)
	if id.UserID == "" || !types.IsValidRole(id.Role) {
		return Identity{}, jwt.ErrTokenInvalidClaims
	}
	return id, nil
}

// HandleWebSocket handles WebSocket upgrade requests. Browsers cannot set
// headers on a WebSocket handshake, so the token comes from ?token=.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	tokenString := c.Query("token")
	if tokenString == "" {
		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenString == "" {
		log.Println("[WebSocket] No token provided")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No token provided"})
		return
	}

	id, err := ParseToken(tokenString, h.JWTSecret)
	if err != nil {
		log.Printf("[WebSocket] Token rejected: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WebSocket] Upgrade error: %v", err)
		return
	}

	log.Printf("[WebSocket] ✅ Client connected: userID=%s role=%s", id.UserID, id.Role)

	client := NewClient(h.Hub, id, conn)
	if !h.Hub.Register(client) {
		log.Printf("[WebSocket] Hub stopped, closing connection for user %s", id.UserID)
		conn.Close()
		return
	}

	for _, room := range DefaultRooms(id) {
		h.Hub.JoinRoom(client, room)
	}

	go client.WritePump()
	go client.ReadPump()
}

// DefaultRooms are joined on connect: admins follow every lead, agents
// their own.
func DefaultRooms(id Identity) []string {
	if types.IsAdminRole(id.Role) {
		return []string{RoomLeads}
	}
	if id.AgentID != "" {
		return []string{AgentRoom(id.AgentID)}
	}
	return nil
}

// NewClient creates a new WebSocket client
func NewClient(hub *Hub, id Identity, conn *websocket.Conn) *Client {
	return &Client{
		ID:       uuid.New().String(),
		UserID:   id.UserID,
		Role:     id.Role,
		AgentID:  id.AgentID,
		Conn:     conn,
		Hub:      hub,
		Send:     make(chan []byte, 256),
		Rooms:    make(map[string]bool),
		lastPing: time.Now(),
	}
}
