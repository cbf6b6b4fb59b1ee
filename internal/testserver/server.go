// Package testserver runs an in-process session API for tests: login, a protected
// route, refresh with rotation, logout, and an error route.
package testserver

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Route paths.
const (
	PathLogin       = "/login"
	PathRefresh     = "/auth/session/refresh"
	PathLogout      = "/logout"
	PathProtected   = "/"
	PathTestError   = "/testError"
	PathTestHeader  = "/testHeader"
	PathRefreshes   = "/refreshCalledTime"
	PathUpdateToken = "/update-jwt"
)

const (
	accessCookie  = "sAccessToken"
	refreshCookie = "sRefreshToken"
)

// Options configure a Server.
type Options struct {
	// AccessTokenValidity is how long an access token is accepted. Defaults to an hour.
	AccessTokenValidity time.Duration
	// DisableAntiCSRF stops the protected route from checking the anti-csrf header.
	DisableAntiCSRF bool
	// RefreshDelay is slept inside the refresh handler.
	RefreshDelay time.Duration
	// ExpiredStatus is the session-expired status. Defaults to 401.
	ExpiredStatus int
}

type session struct {
	userID       string
	accessToken  string
	accessExpiry time.Time
	refreshToken string
	prevRefresh  string
	antiCSRF     string
	idRefresh    string
	payload      map[string]any
}

// Server is an httptest server emulating a session API.
type Server struct {
	*httptest.Server

	opts Options

	mu       sync.Mutex
	sessions []*session
	seq      int

	refreshes     atomic.Int64
	protected     atomic.Int64
	refreshStatus atomic.Int64
	lastHeader    atomic.Value
}

// New starts a server. Call Close when done.
func New(opts Options) *Server {
	if opts.AccessTokenValidity <= 0 {
		opts.AccessTokenValidity = time.Hour
	}
	if opts.ExpiredStatus == 0 {
		opts.ExpiredStatus = http.StatusUnauthorized
	}
	s := &Server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathLogin, s.login)
	mux.HandleFunc("POST "+PathRefresh, s.refresh)
	mux.HandleFunc("POST "+PathLogout, s.logout)
	mux.HandleFunc("GET "+PathProtected+"{$}", s.getSession)
	mux.HandleFunc("POST "+PathUpdateToken, s.updatePayload)
	mux.HandleFunc("GET "+PathTestError, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "test error message", http.StatusInternalServerError)
	})
	mux.HandleFunc("GET "+PathTestHeader, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]bool{"success": r.Header.Get("st-custom-header") != ""})
	})
	mux.HandleFunc("GET "+PathRefreshes, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, strconv.FormatInt(s.refreshes.Load(), 10))
	})

	s.Server = httptest.NewServer(mux)
	return s
}

// RefreshCount returns how many refresh calls the server has received.
func (s *Server) RefreshCount() int {
	return int(s.refreshes.Load())
}

// ProtectedCount returns how many protected requests succeeded.
func (s *Server) ProtectedCount() int {
	return int(s.protected.Load())
}

// LastRefreshHeader returns the value of header name on the latest refresh call.
func (s *Server) LastRefreshHeader(name string) string {
	h, _ := s.lastHeader.Load().(http.Header)
	return h.Get(name)
}

// ExpireAccessTokens makes every issued access token expired.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		sess.accessExpiry = time.Now().Add(-time.Second)
	}
}

// FailRefresh makes the refresh route answer with status and a fixed body. Zero restores
// normal behaviour.
func (s *Server) FailRefresh(status int) {
	s.refreshStatus.Store(int64(status))
}

// RevokeAll revokes every session, so that refresh fails.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = nil
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UserID == "" {
		http.Error(w, "userId required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	sess := &session{userID: body.UserID, payload: map[string]any{}}
	s.rotate(sess)
	s.sessions = append(s.sessions, sess)
	s.mu.Unlock()

	s.writeSession(w, sess)
	_, _ = io.WriteString(w, body.UserID)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorise(r)
	if !ok {
		w.WriteHeader(s.opts.ExpiredStatus)
		return
	}
	s.protected.Add(1)
	_, _ = io.WriteString(w, sess.userID)
}

func (s *Server) updatePayload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorise(r)
	if !ok {
		w.WriteHeader(s.opts.ExpiredStatus)
		return
	}
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	sess.payload = payload
	s.mu.Unlock()
	w.Header().Set("front-token", s.frontToken(sess))
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	s.refreshes.Add(1)
	s.lastHeader.Store(r.Header.Clone())
	if s.opts.RefreshDelay > 0 {
		time.Sleep(s.opts.RefreshDelay)
	}
	if status := int(s.refreshStatus.Load()); status != 0 {
		http.Error(w, "refresh exploded", status)
		return
	}

	c, err := r.Cookie(refreshCookie)
	if err != nil {
		s.unauthorised(w)
		return
	}
	s.mu.Lock()
	sess := s.find(func(sess *session) bool { return sess.refreshToken == c.Value })
	if sess != nil {
		sess.prevRefresh = sess.refreshToken
		s.rotate(sess)
	} else {
		// A refresh racing the one that rotated the token gets the current tokens.
		sess = s.find(func(sess *session) bool { return sess.prevRefresh != "" && sess.prevRefresh == c.Value })
	}
	s.mu.Unlock()
	if sess == nil {
		s.unauthorised(w)
		return
	}

	s.writeSession(w, sess)
	_, _ = io.WriteString(w, "refresh success")
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.authorise(r)
	if !ok {
		w.WriteHeader(s.opts.ExpiredStatus)
		return
	}
	s.mu.Lock()
	for i, other := range s.sessions {
		if other == sess {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	s.clearCookies(w)
	w.Header().Set("id-refresh-token", "remove")
	w.Header().Set("front-token", "remove")
	_, _ = io.WriteString(w, "success")
}

func (s *Server) unauthorised(w http.ResponseWriter) {
	s.clearCookies(w)
	w.Header().Set("id-refresh-token", "remove")
	w.WriteHeader(s.opts.ExpiredStatus)
}

func (s *Server) authorise(r *http.Request) (*session, bool) {
	c, err := r.Cookie(accessCookie)
	if err != nil {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.find(func(sess *session) bool { return sess.accessToken == c.Value })
	if sess == nil || !time.Now().Before(sess.accessExpiry) {
		return nil, false
	}
	if !s.opts.DisableAntiCSRF && r.Header.Get("anti-csrf") != sess.antiCSRF {
		return nil, false
	}
	return sess, true
}

// rotate issues new tokens. Callers hold s.mu.
func (s *Server) rotate(sess *session) {
	s.seq++
	n := strconv.Itoa(s.seq)
	sess.accessToken = "at-" + n
	sess.accessExpiry = time.Now().Add(s.opts.AccessTokenValidity)
	sess.refreshToken = "rt-" + n
	sess.antiCSRF = "csrf-" + n
	sess.idRefresh = "sid-" + n
}

func (s *Server) find(match func(*session) bool) *session {
	for _, sess := range s.sessions {
		if match(sess) {
			return sess
		}
	}
	return nil
}

func (s *Server) writeSession(w http.ResponseWriter, sess *session) {
	s.mu.Lock()
	access, refresh, csrf, id := sess.accessToken, sess.refreshToken, sess.antiCSRF, sess.idRefresh
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{Name: accessCookie, Value: access, Path: "/", HttpOnly: true})
	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: refresh, Path: PathRefresh, HttpOnly: true})
	expiry := time.Now().Add(24 * time.Hour).UnixMilli()
	w.Header().Set("id-refresh-token", fmt.Sprintf("%s;%d", id, expiry))
	if !s.opts.DisableAntiCSRF {
		w.Header().Set("anti-csrf", csrf)
	}
	w.Header().Set("front-token", s.frontToken(sess))
}

func (s *Server) frontToken(sess *session) string {
	s.mu.Lock()
	claims := map[string]any{
		"uid": sess.userID,
		"ate": sess.accessExpiry.UnixMilli(),
		"up":  sess.payload,
	}
	s.mu.Unlock()
	data, _ := json.Marshal(claims)
	return base64.StdEncoding.EncodeToString(data)
}

func (s *Server) clearCookies(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: accessCookie, Value: "", Path: "/", MaxAge: -1})
	http.SetCookie(w, &http.Cookie{Name: refreshCookie, Value: "", Path: PathRefresh, MaxAge: -1})
}
