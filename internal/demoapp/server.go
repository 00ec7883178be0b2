// Package demoapp serves the login application the bundled feature files run against.
package demoapp

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/2300033498-rgb/LoginTesting/internal/config"
)

// SessionCookie carries the dashboard session token.
const SessionCookie = "demo_session"

//go:embed templates/*.html
var templateFS embed.FS

type session struct {
	user    config.DemoUser
	loginAt time.Time
}

// Server is the demo login application.
type Server struct {
	logger *zap.Logger
	cfg    config.DemoAppConfig
	tmpl   *template.Template

	mu       sync.RWMutex
	sessions map[string]session
}

// New parses the embedded templates and returns a ready server.
func New(logger *zap.Logger, cfg config.DemoAppConfig) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Server{
		logger:   logger.Named("demoapp"),
		cfg:      cfg,
		tmpl:     tmpl,
		sessions: make(map[string]session),
	}, nil
}

// Handler builds the router. HTTP/2 cleartext is accepted alongside HTTP/1.1.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(securityHeaders)

	r.Get("/", s.handleLoginPage)
	r.Get("/login", s.handleLoginPage)
	r.Get("/dashboard", s.handleDashboard)
	r.Post("/logout", s.handleLogout)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/users", s.handleListUsers)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusNotFound, apiResponse{Success: false, Message: "Endpoint not found"})
		})
	})

	return h2c.NewHandler(r, &http2.Server{})
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Demo login app listening", zap.String("addr", s.cfg.Addr), zap.Int("users", len(s.cfg.Users)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("Shutting down demo login app")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; object-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

type loginPageData struct {
	MaxUsernameLength int
	MinPasswordLength int
	MaxPasswordLength int
	ValidationDelayMS int64
	Messages          map[string]string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, _ *http.Request) {
	data := loginPageData{
		MaxUsernameLength: MaxUsernameLength,
		MinPasswordLength: MinPasswordLength,
		MaxPasswordLength: MaxPasswordLength,
		ValidationDelayMS: s.cfg.ValidationDelay.Milliseconds(),
		Messages: map[string]string{
			"UsernameRequired": MsgUsernameRequired,
			"UsernameTooLong":  MsgUsernameTooLong,
			"UsernameInvalid":  MsgUsernameInvalid,
			"PasswordRequired": MsgPasswordRequired,
			"PasswordTooShort": MsgPasswordTooShort,
			"PasswordTooLong":  MsgPasswordTooLong,
		},
	}
	s.render(w, "login.html", data)
}

type dashboardData struct {
	Username string
	Role     string
	LoginAt  string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFor(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	role := sess.user.Role
	if role == "" {
		role = "User"
	}
	s.render(w, "dashboard.html", dashboardData{
		Username: sess.user.Username,
		Role:     role,
		LoginAt:  sess.loginAt.Format(time.RFC1123),
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("Failed to render template", zap.String("template", name), zap.Error(err))
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type publicUser struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
}

type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    *publicUser `json:"user,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiResponse{Message: "Malformed login request"})
		return
	}

	out := Authenticate(s.cfg.Users, req.Username, req.Password)
	logger := s.logger.With(zap.String("username", template.HTMLEscapeString(req.Username)), zap.Int("status", out.Status))
	if out.User == nil {
		logger.Info("Login rejected", zap.String("reason", out.Message))
		writeJSON(w, out.Status, apiResponse{Message: out.Message})
		return
	}

	token := uuid.NewString()
	s.mu.Lock()
	s.sessions[token] = session{user: *out.User, loginAt: time.Now()}
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	logger.Info("Login succeeded")
	writeJSON(w, http.StatusOK, apiResponse{
		Success: true,
		Message: out.Message,
		User:    &publicUser{Username: out.User.Username, Email: out.User.Email, Role: out.User.Role},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	users := make([]publicUser, 0, len(s.cfg.Users))
	for _, u := range s.cfg.Users {
		users = append(users, publicUser{Username: u.Username, Email: u.Email, Role: u.Role})
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

func (s *Server) sessionFor(r *http.Request) (session, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return session{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[c.Value]
	return sess, ok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
