package web

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/ziadkadry99/soassoc/internal/association"
	"github.com/ziadkadry99/soassoc/internal/controller"
	"github.com/ziadkadry99/soassoc/internal/i18n"
)

// Message types of the search channel.
const (
	MsgSearch     = "search"
	MsgAssociate  = "associate"
	MsgReady      = "ready"
	MsgResults    = "results"
	MsgNotFound   = "not_found"
	MsgAssociated = "associated"
	MsgError      = "error"
)

// ClientMessage is sent by the page script.
type ClientMessage struct {
	Type        string `json:"type"`
	Query       string `json:"query,omitempty"`
	CandidateID int    `json:"candidate_id,omitempty"`
}

// ServerMessage is sent to the page script.
type ServerMessage struct {
	Type        string `json:"type"`
	Generation  uint64 `json:"generation,omitempty"`
	Query       string `json:"query,omitempty"`
	HTML        string `json:"html,omitempty"`
	CandidateID int    `json:"candidate_id,omitempty"`
	Class       string `json:"class,omitempty"`
	Message     string `json:"message,omitempty"`
}

// stream is one websocket connection bound to one page session.
type stream struct {
	w    *Web
	conn *websocket.Conn
	sess *controller.Session
	log  *log.Entry

	mu   sync.Mutex // guards writes and sent
	sent uint64
}

func (w *Web) handleWebSocket(rw http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		http.Error(rw, "invalid question id", http.StatusBadRequest)
		return
	}

	conn, err := w.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.log.WithError(err).Warn("websocket upgrade")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := &stream{
		w:    w,
		conn: conn,
		sess: w.ctrl.NewSession(id),
		log:  w.log.WithField("question_id", id),
	}

	if err := s.sess.Init(ctx); err != nil {
		_, msg := w.failure(id, err)
		s.send(ServerMessage{Type: MsgError, HTML: string(msg), Message: err.Error()})
	} else {
		page, _ := s.sess.Page()
		s.send(ServerMessage{Type: MsgReady, Query: page.SearchDefault})
	}

	var wg sync.WaitGroup
	defer wg.Wait()
	defer cancel()

	for {
		var msg ClientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.WithError(err).Warn("websocket read")
			}
			return
		}

		switch msg.Type {
		case MsgSearch:
			wg.Add(1)
			go func(query string) {
				defer wg.Done()
				s.search(ctx, query)
			}(msg.Query)
		case MsgAssociate:
			s.associate(ctx, msg.CandidateID)
		default:
			s.send(ServerMessage{Type: MsgError, Message: "unknown message type: " + msg.Type})
		}
	}
}

// checkOrigin accepts requests without an Origin header (non-browser
// clients) and browser requests from the server's own host or base URL.
func (w *Web) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	return w.originHost != "" && strings.EqualFold(u.Host, w.originHost)
}

func (s *stream) search(ctx context.Context, query string) {
	res, err := s.sess.Search(ctx, query)
	switch {
	case errors.Is(err, controller.ErrStale):
		return
	case errors.Is(err, controller.ErrNotReady):
		s.send(ServerMessage{Type: MsgError, Query: query, Message: s.w.loc.T(i18n.NotReady)})
		return
	}

	html, rerr := s.w.RenderResults(res)
	if rerr != nil {
		s.log.WithError(rerr).Error("rendering results")
		s.send(ServerMessage{Type: MsgError, Query: query, Message: rerr.Error()})
		return
	}

	out := ServerMessage{Type: MsgResults, Generation: res.Generation, Query: res.Query, HTML: html}
	switch {
	case err != nil:
		s.log.WithError(err).Warn("search failed")
		out.Type = MsgError
		out.Message = err.Error()
	case len(res.Cards()) == 0:
		out.Type = MsgNotFound
	}
	s.sendResults(out)
}

func (s *stream) associate(ctx context.Context, candidateID int) {
	err := s.sess.Associate(ctx, candidateID)
	if err == nil {
		s.send(ServerMessage{
			Type:        MsgAssociated,
			CandidateID: candidateID,
			Class:       controller.CardClass(candidateID),
			Message:     s.w.loc.T("associated"),
		})
		return
	}

	msg := err.Error()
	if errors.Is(err, association.ErrAlreadyAssociated) {
		msg = s.w.loc.T(i18n.AlreadyAssociated)
	}
	s.log.WithError(err).WithField("candidate_id", candidateID).Warn("associate failed")
	s.send(ServerMessage{Type: MsgError, CandidateID: candidateID, Message: msg})
}

// sendResults sends a results region unless a newer generation was already
// sent or the session moved on to a newer search.
func (s *stream) sendResults(m ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Generation < s.sent || m.Generation < s.sess.Results().Generation {
		return
	}
	s.sent = m.Generation
	s.write(m)
}

func (s *stream) send(m ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(m)
}

func (s *stream) write(m ServerMessage) {
	if err := s.conn.WriteJSON(m); err != nil {
		s.log.WithError(err).Debug("websocket write")
	}
}
