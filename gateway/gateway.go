package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"net/http/httputil"
	"strings"
	"sync"

	"github.com/zlnvch/canvashub/models"
	"github.com/zlnvch/canvashub/service"
	"golang.org/x/time/rate"
)

// Handler authenticates every request at the edge and forwards the rest
// to the project service with the caller's identity in X-UserId. The
// upstream never sees tokens and trusts the header completely, so the
// header must be stripped from whatever the client sent.
type Handler struct {
	Service  *service.Service
	proxy    *httputil.ReverseProxy
	limiters *ipLimiters
}

func NewHandler(svc *service.Service, proxy *httputil.ReverseProxy) *Handler {
	return &Handler{
		Service:  svc,
		proxy:    proxy,
		limiters: newIPLimiters(credentialAttemptsPerSecond, credentialBurst),
	}
}

const (
	// Credential endpoints get a tight per-IP budget; everything else is
	// bounded by the upstream's own limits.
	credentialAttemptsPerSecond = 1
	credentialBurst             = 5
)

// ipLimiters hands out one token bucket per remote IP.
type ipLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newIPLimiters(limit rate.Limit, burst int) *ipLimiters {
	return &ipLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (l *ipLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	return limiter.Allow()
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	mux.HandleFunc("POST /register", h.rateLimited(h.HandleRegister))
	mux.HandleFunc("POST /login", h.rateLimited(h.HandleLogin))
	mux.HandleFunc("POST /login/oauth", h.rateLimited(h.HandleLoginOauth))
	mux.HandleFunc("GET /me", h.HandleGetMe)
	mux.HandleFunc("DELETE /me", h.HandleDeleteMe)

	mux.Handle("/projects", h.authenticated(h.proxy))
	mux.Handle("/projects/", h.authenticated(h.proxy))
	mux.Handle("/ws", h.authenticated(h.proxy))
}

func (h *Handler) rateLimited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.limiters.allow(remoteIP(r)) {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// authenticated verifies the caller's token and rewrites X-UserId before
// handing the request to the proxy. Client-supplied X-UserId values are
// discarded unconditionally.
func (h *Handler) authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userId, _, _, _, err := h.Service.VerifyJWT(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		r.Header.Del("X-UserId")
		r.Header.Set("X-UserId", userId)
		next.ServeHTTP(w, r)
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type oauthLoginRequest struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
}

type loginResponse struct {
	Username string `json:"username"`
	Id       string `json:"id"`
	Provider string `json:"provider"`
	Token    string `json:"token"`
}

func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := service.ValidateUsername(req.Username); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := service.ValidatePassword(req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	user, token, err := h.Service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUsernameTaken) {
			http.Error(w, "username already taken", http.StatusConflict)
			return
		}
		log.Printf("Register failed: %v", err)
		http.Error(w, "registration failed", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, userResponse(user, token))
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.Service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	h.sendResponse(w, userResponse(user, token))
}

func (h *Handler) HandleLoginOauth(w http.ResponseWriter, r *http.Request) {
	var req oauthLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.Service.LoginOauth(r.Context(), req.Provider, req.Code)
	if err != nil {
		log.Printf("OAuth login failed: %v", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, userResponse(user, token))
}

type getUserResponse struct {
	Username string `json:"username"`
	Id       string `json:"id"`
	Provider string `json:"provider"`
}

func (h *Handler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.AuthenticateToken(r.Context(), tokenFromRequest(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	h.sendResponse(w, getUserResponse{Username: user.Username, Id: user.Id, Provider: user.Provider})
}

type deleteUserResponse struct {
	Success bool `json:"success"`
}

func (h *Handler) HandleDeleteMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.Service.AuthenticateToken(r.Context(), tokenFromRequest(r))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	if err := h.Service.DeleteUser(r.Context(), user); err != nil {
		log.Printf("Delete user failed: %v", err)
		http.Error(w, "failed to delete user", http.StatusInternalServerError)
		return
	}

	h.sendResponse(w, deleteUserResponse{Success: true})
}

func userResponse(user models.User, token string) loginResponse {
	return loginResponse{
		Username: user.Username,
		Id:       user.Id,
		Provider: user.Provider,
		Token:    token,
	}
}

func (h *Handler) sendResponse(w http.ResponseWriter, resp any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// tokenFromRequest pulls the bearer token from the Authorization header,
// falling back to the second websocket subprotocol for /ws upgrades,
// where browsers cannot set custom headers.
func tokenFromRequest(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if strings.HasPrefix(authHeader, prefix) {
		return strings.TrimPrefix(authHeader, prefix)
	}

	protocols := strings.Split(r.Header.Get("Sec-WebSocket-Protocol"), ",")
	if len(protocols) == 2 {
		return strings.TrimSpace(protocols[1])
	}
	return ""
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
