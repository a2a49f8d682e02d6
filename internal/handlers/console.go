package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"gateway-console/internal/audit"
	"gateway-console/internal/config"
	"gateway-console/internal/gateway"
	"gateway-console/internal/logger"
	"gateway-console/internal/middleware"
	"gateway-console/internal/services"
	"gateway-console/internal/session"
	"gateway-console/internal/usage"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ConsoleHandler serves the console pages. Identity gating happens in two
// layers: RequireSession validates the stored credential against the
// backend on every entry into the protected area, and RequireAdmin gates
// the user-management pages on the role projection alone.
type ConsoleHandler struct {
	cfg       *config.Config
	store     *session.Store
	backend   *gateway.Client
	usageHub  *services.UsageHub
	recorder  *audit.Recorder
	templates *template.Template
}

type PageData struct {
	Title string
	User  string
	Role  string
	Data  map[string]any
	Error string
}

func NewConsoleHandler(cfg *config.Config, store *session.Store, backend *gateway.Client, usageHub *services.UsageHub, recorder *audit.Recorder) (*ConsoleHandler, error) {
	tmpl := template.New("console").Funcs(template.FuncMap{
		"formatEpochMillis": formatEpochMillis,
		"formatTime":        formatTime,
		"formatInt":         formatInt,
	})

	tmpl, err := tmpl.Parse(string(consoleTemplates))
	if err != nil {
		return nil, err
	}

	return &ConsoleHandler{
		cfg:       cfg,
		store:     store,
		backend:   backend,
		usageHub:  usageHub,
		recorder:  recorder,
		templates: tmpl,
	}, nil
}

func (h *ConsoleHandler) RegisterRoutes(r chi.Router) {
	loginLimiter := middleware.NewLoginLimiter(10)

	r.Group(func(r chi.Router) {
		r.Get("/login", h.ShowLogin)
		r.With(loginLimiter.Middleware).Post("/login", h.HandleLogin)
		r.Post("/logout", h.HandleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(chimiddleware.Timeout(60 * time.Second))
		r.Use(h.RequireSession)

		r.Get("/", h.Dashboard)
		r.Get("/ws", h.HandleUsageWS)

		r.Get("/token", h.ShowTokens)
		r.Post("/token", h.CreateToken)
		r.Post("/token/{id}/delete", h.DeleteToken)

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAdmin)
			r.Get("/user", h.ShowUsers)
			r.Post("/user", h.CreateUser)
			r.Post("/user/{id}/update", h.UpdateUser)
			r.Post("/user/{id}/delete", h.DeleteUser)
		})
	})
}

// RequireSession is the route guard. It issues exactly one validation
// request per entry and redirects to the login boundary when the backend
// rejects the credential. The stored record is left untouched on
// rejection; only a fresh login overwrites it.
func (h *ConsoleHandler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.store.Read().IsSentinel() {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		if err := h.backend.ValidateToken(r.Context()); err != nil {
			logger.Sugar.Infow("session validation rejected", "err", err)
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin redirects non-admin roles to the home boundary before any
// content is rendered or backend fetch issued.
func (h *ConsoleHandler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.store.Role() != session.AdminRole {
			http.Redirect(w, r, "/", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *ConsoleHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	// A held, unexpired session skips the login form entirely.
	if h.store.Valid(time.Now()) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	h.render(w, "login.html", PageData{Title: "Sign In"})
}

func (h *ConsoleHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	username := r.Form.Get("username")
	password := r.Form.Get("password")

	identity, err := h.backend.Login(r.Context(), username, password)
	if err != nil {
		recordLoginAttempt("failure")
		h.recorder.RecordFailure(username, "login", "")
		h.render(w, "login.html", PageData{
			Title: "Sign In",
			Error: loginError(err),
		})
		return
	}

	if err := h.store.Write(identity); err != nil {
		logger.Sugar.Errorw("failed to persist session", "err", err)
	}

	recordLoginAttempt("success")
	h.recorder.Record(identity.Username, "login", "")
	http.Redirect(w, r, "/", http.StatusFound)
}

func (h *ConsoleHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	actor := h.store.Read().Username
	if err := h.store.Clear(); err != nil {
		logger.Sugar.Errorw("failed to clear session", "err", err)
	}
	h.recorder.Record(actor, "logout", "")
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *ConsoleHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	start, end := usage.DefaultRange(time.Now())

	var series []usage.Sample
	samples, err := h.backend.DailyUsage(r.Context(), start, end)
	if err != nil {
		logger.Sugar.Warnw("failed to fetch daily usage", "err", err)
	} else {
		series = usage.Reconcile(start, end, samples)
	}

	seriesJSON, _ := json.Marshal(series)

	recent, err := h.recorder.Recent(10)
	if err != nil {
		logger.Sugar.Warnw("failed to load recent activity", "err", err)
	}

	id := h.store.Read()
	h.render(w, "dashboard.html", PageData{
		Title: "Dashboard",
		User:  id.Username,
		Role:  id.Role,
		Data: map[string]any{
			"Series":     series,
			"SeriesJSON": template.JS(seriesJSON),
			"Recent":     recent,
		},
	})
}

func (h *ConsoleHandler) ShowTokens(w http.ResponseWriter, r *http.Request) {
	tokens, err := h.backend.ListTokens(r.Context())
	if err != nil {
		logger.Sugar.Warnw("failed to fetch tokens", "err", err)
	}

	id := h.store.Read()
	h.render(w, "tokens.html", PageData{
		Title: "API Tokens",
		User:  id.Username,
		Role:  id.Role,
		Data: map[string]any{
			"Tokens": tokens,
		},
	})
}

func (h *ConsoleHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	name := r.Form.Get("name")
	if name == "" {
		http.Error(w, "Name is required", http.StatusBadRequest)
		return
	}

	actor := h.store.Read().Username
	if err := h.backend.CreateToken(r.Context(), name); err != nil {
		logger.Sugar.Warnw("failed to create token", "name", name, "err", err)
		h.recorder.RecordFailure(actor, "token.create", name)
	} else {
		h.recorder.Record(actor, "token.create", name)
	}

	http.Redirect(w, r, "/token", http.StatusFound)
}

func (h *ConsoleHandler) DeleteToken(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid token id", http.StatusBadRequest)
		return
	}

	actor := h.store.Read().Username
	if err := h.backend.DeleteToken(r.Context(), id); err != nil {
		logger.Sugar.Warnw("failed to delete token", "id", id, "err", err)
		h.recorder.RecordFailure(actor, "token.delete", strconv.Itoa(id))
	} else {
		h.recorder.Record(actor, "token.delete", strconv.Itoa(id))
	}

	http.Redirect(w, r, "/token", http.StatusFound)
}

func (h *ConsoleHandler) ShowUsers(w http.ResponseWriter, r *http.Request) {
	h.renderUsers(w, r, "")
}

func (h *ConsoleHandler) renderUsers(w http.ResponseWriter, r *http.Request, errMsg string) {
	users, err := h.backend.ListUsers(r.Context())
	if err != nil {
		logger.Sugar.Warnw("failed to fetch users", "err", err)
	}

	id := h.store.Read()
	h.render(w, "users.html", PageData{
		Title: "Users",
		User:  id.Username,
		Role:  id.Role,
		Error: errMsg,
		Data: map[string]any{
			"Users": users,
		},
	})
}

func (h *ConsoleHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	username := r.Form.Get("username")
	role := r.Form.Get("role")
	password := r.Form.Get("password")
	if username == "" || password == "" {
		http.Error(w, "Username and password are required", http.StatusBadRequest)
		return
	}
	if role == "" {
		role = session.UserRole
	}

	actor := h.store.Read().Username
	if err := h.backend.CreateUser(r.Context(), username, role, password); err != nil {
		logger.Sugar.Warnw("failed to create user", "username", username, "err", err)
		h.recorder.RecordFailure(actor, "user.create", username)
		h.renderUsers(w, r, serverError(err))
		return
	}

	h.recorder.Record(actor, "user.create", username)
	http.Redirect(w, r, "/user", http.StatusFound)
}

func (h *ConsoleHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	r.ParseForm()
	username := r.Form.Get("username")
	role := r.Form.Get("role")
	password := r.Form.Get("password")

	actor := h.store.Read().Username
	if err := h.backend.UpdateUser(r.Context(), id, username, role, password); err != nil {
		logger.Sugar.Warnw("failed to update user", "id", id, "err", err)
		h.recorder.RecordFailure(actor, "user.update", username)
		h.renderUsers(w, r, serverError(err))
		return
	}

	h.recorder.Record(actor, "user.update", username)
	http.Redirect(w, r, "/user", http.StatusFound)
}

func (h *ConsoleHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	actor := h.store.Read().Username
	if err := h.backend.DeleteUser(r.Context(), id); err != nil {
		logger.Sugar.Warnw("failed to delete user", "id", id, "err", err)
		h.recorder.RecordFailure(actor, "user.delete", strconv.Itoa(id))
		h.renderUsers(w, r, serverError(err))
		return
	}

	h.recorder.Record(actor, "user.delete", strconv.Itoa(id))
	http.Redirect(w, r, "/user", http.StatusFound)
}

// HandleUsageWS upgrades the connection for live dashboard refreshes.
func (h *ConsoleHandler) HandleUsageWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Sugar.Warnw("websocket upgrade failed", "err", err)
		return
	}
	h.usageHub.Register(conn)
}

func (h *ConsoleHandler) render(w http.ResponseWriter, name string, data PageData) {
	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.Sugar.Errorw("template error", "template", name, "err", err)
	}
}

func loginError(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Unable to reach the gateway"
}

func serverError(err error) string {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Request failed"
}

func formatEpochMillis(ms int64) string {
	return time.UnixMilli(ms).Format("Jan 02, 2006 15:04")
}

func formatTime(t time.Time) string {
	return t.Format("Jan 02, 2006 15:04")
}

func formatInt(n interface{}) string {
	switch v := n.(type) {
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return "0"
	}
}
