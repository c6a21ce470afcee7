package net

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// FeedPath serves the websocket feed of saved geometry documents.
	FeedPath = "/feed"
	// LatestPath serves the most recent saved document over plain HTTP.
	LatestPath = "/drawing.geojson"

	sendBuffer   = 8
	writeTimeout = 10 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Feed pushes every saved geometry document to connected viewers. A viewer
// that connects late gets the latest document first.
type Feed struct {
	upgrader websocket.Upgrader

	clients map[*client]bool
	latest  []byte
	mu      sync.RWMutex
}

// NewFeed returns an empty feed.
func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]bool),
	}
}

// Publish stores doc as the latest document and queues it for every viewer.
// Viewers whose queue is full are dropped.
func (f *Feed) Publish(doc []byte) {
	data := append([]byte(nil), doc...)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.latest = data
	for c := range f.clients {
		select {
		case c.send <- data:
		default:
			log.Printf("[FEED] Dropping slow viewer %s", c.conn.RemoteAddr())
			f.removeLocked(c)
		}
	}
}

// Latest returns the last published document, or nil.
func (f *Feed) Latest() []byte {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest
}

// Clients returns the number of connected viewers.
func (f *Feed) Clients() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.clients)
}

// Handler serves FeedPath and LatestPath.
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(FeedPath, f.serveFeed)
	mux.HandleFunc(LatestPath, f.serveLatest)
	return mux
}

// Serve runs the feed on ln until ctx is done.
func (f *Feed) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: f.Handler(), ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		f.Close()
	}()

	log.Printf("[FEED] Listening on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("feed server: %w", err)
	}
	return nil
}

// Close disconnects every viewer.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		f.removeLocked(c)
	}
}

func (f *Feed) removeLocked(c *client) {
	if !f.clients[c] {
		return
	}
	delete(f.clients, c)
	close(c.send)
}

func (f *Feed) remove(c *client) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removeLocked(c)
}

func (f *Feed) serveLatest(w http.ResponseWriter, r *http.Request) {
	latest := f.Latest()
	if latest == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.Write(latest)
}

func (f *Feed) serveFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[FEED] Upgrade failed for %s: %v", r.RemoteAddr, err)
		return
	}
	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}

	f.mu.Lock()
	f.clients[c] = true
	if f.latest != nil {
		c.send <- f.latest
	}
	f.mu.Unlock()
	log.Printf("[FEED] Viewer connected from %s", conn.RemoteAddr())

	go f.writeLoop(c)
	f.readLoop(c)
}

// readLoop discards viewer messages; it exists to notice the close.
func (f *Feed) readLoop(c *client) {
	defer func() {
		f.remove(c)
		c.conn.Close()
		log.Printf("[FEED] Viewer %s disconnected", c.conn.RemoteAddr())
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (f *Feed) writeLoop(c *client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("[FEED] Write to %s failed: %v", c.conn.RemoteAddr(), err)
			c.conn.Close()
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	c.conn.Close()
}

// Watch connects to a feed at url (ws://host:port/feed) and calls fn with
// every document until ctx is done or the connection drops.
func Watch(ctx context.Context, url string, fn func(doc []byte)) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read %s: %w", url, err)
		}
		fn(data)
	}
}
