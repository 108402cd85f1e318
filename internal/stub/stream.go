package stub

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// handleWebSocket streams every Event as a JSON text frame. With ?replay=1 the
// navigations recorded so far are sent first.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Subscribe before the handshake completes so a client that starts navigating
	// right after dialing cannot miss the first event.
	id, ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(id)

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()
	rw := &lockedConn{conn: conn}

	slog.Info("stream client connected", "transport", "websocket", "subscriber", id)
	defer slog.Info("stream client disconnected", "transport", "websocket", "subscriber", id)

	if r.URL.Query().Get("replay") != "" {
		for _, nav := range s.journal.Navigations() {
			raw, err := json.Marshal(nav)
			if err != nil {
				continue
			}
			if err := writeEvent(rw, Event{Kind: KindNavigation, Data: raw}); err != nil {
				return
			}
		}
	}

	// The reader only answers control frames and notices the client going away.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := wsutil.ReadClientData(rw); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if err := writeEvent(rw, evt); err != nil {
				slog.Debug("websocket write failed", "subscriber", id, "error", err)
				return
			}
		}
	}
}

// lockedConn serialises writes from the event loop and the control frame replies
// sent by the reader. Each event frame is compiled up front so it is a single Write.
type lockedConn struct {
	conn io.ReadWriter
	mu   sync.Mutex
}

func (c *lockedConn) Read(p []byte) (int, error) { return c.conn.Read(p) }

func (c *lockedConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.Write(p)
}

func writeEvent(conn io.Writer, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	frame, err := ws.CompileFrame(ws.NewTextFrame(data))
	if err != nil {
		return err
	}
	_, err = conn.Write(frame)
	return err
}

// handleSSE streams events as server-sent events. Clients may filter with
// ?kinds=navigation,viewport.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	var kinds map[string]bool
	if q := r.URL.Query().Get("kinds"); q != "" {
		kinds = make(map[string]bool)
		for _, k := range strings.Split(q, ",") {
			if k = strings.TrimSpace(k); k != "" {
				kinds[k] = true
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	// Subscribed before the headers go out, so a client that has the response
	// in hand sees every later event.
	id, ch := s.broker.Subscribe()
	defer s.broker.Unsubscribe(id)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			if kinds != nil && !kinds[evt.Kind] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, evt.Data)
			flusher.Flush()
		}
	}
}
