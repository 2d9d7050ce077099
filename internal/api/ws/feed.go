// Package ws serves the realtime comment feed: a websocket channel pushing
// comment-insert payloads to connected clients, mirroring the change feed
// the web app subscribes to.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/SaschaHYR/G-Copro-sub000/internal/auth"
	"github.com/SaschaHYR/G-Copro-sub000/internal/domain"
	"github.com/SaschaHYR/G-Copro-sub000/internal/events"
	"github.com/SaschaHYR/G-Copro-sub000/internal/repository"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

// client is one connected feed subscriber.
type client struct {
	user *domain.User
	send chan []byte
}

// FeedServer upgrades connections, authenticates them via the token query
// parameter, and fans comment events out to clients for whom the comment's
// ticket is relevant (creator or destinataire role match).
type FeedServer struct {
	tokens         *auth.TokenManager
	users          repository.UserRepository
	logger         *zap.Logger
	allowedOrigins []string

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewFeedServer constructs the server.
func NewFeedServer(tokens *auth.TokenManager, users repository.UserRepository, logger *zap.Logger, allowedOrigins []string) *FeedServer {
	return &FeedServer{
		tokens:         tokens,
		users:          users,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		clients:        make(map[*client]struct{}),
	}
}

// RegisterHandlers subscribes the feed to the dispatcher.
func (s *FeedServer) RegisterHandlers(dispatcher events.Dispatcher) {
	if dispatcher == nil {
		return
	}
	dispatcher.Subscribe(events.EventCommentCreated, s.handleCommentCreated)
}

func (s *FeedServer) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if len(s.allowedOrigins) == 0 {
				return true
			}
			for _, allowed := range s.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			s.logger.Warn("websocket origin rejected", zap.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/comments?token=...
func (s *FeedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	claims, err := s.tokens.ParseToken(tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	user, err := s.users.GetByID(r.Context(), claims.UserID)
	if err != nil {
		http.Error(w, "user not found", http.StatusUnauthorized)
		return
	}
	if !user.Active {
		http.Error(w, "account disabled", http.StatusForbidden)
		return
	}

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{user: user, send: make(chan []byte, sendBufferSize)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.logger.Info("feed client connected", zap.String("user_id", user.ID))

	go s.writeLoop(conn, c)
	s.readLoop(conn, c)
}

// readLoop drains client frames until disconnect; the feed is push-only.
func (s *FeedServer) readLoop(conn *websocket.Conn, c *client) {
	defer s.drop(conn, c)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *FeedServer) writeLoop(conn *websocket.Conn, c *client) {
	for msg := range c.send {
		conn.SetWriteDeadline(time.Now().Add(writeWait)) //nolint:errcheck
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
}

func (s *FeedServer) drop(conn *websocket.Conn, c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	conn.Close()
	s.logger.Info("feed client disconnected", zap.String("user_id", c.user.ID))
}

func (s *FeedServer) handleCommentCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentCreatedPayload)
	if !ok {
		return nil
	}
	msg, err := json.Marshal(event)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if !feedRelevantTo(c.user, payload) {
			continue
		}
		select {
		case c.send <- msg:
		default:
			// slow consumer; skip rather than block the dispatcher
		}
	}
	return nil
}

func feedRelevantTo(user *domain.User, payload events.CommentCreatedPayload) bool {
	if user.Role.IsPrivileged() {
		return true
	}
	return payload.TicketCreatorID == user.ID || payload.RecipientRole == user.Role
}
