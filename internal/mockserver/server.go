// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package mockserver

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/time/rate"

	"github.com/morganforge/scmlite-tui/internal/api"
)

// stepUpTTL is how long a pending step-up challenge stays redeemable.
const stepUpTTL = 5 * time.Minute

// user is a registered account.
type user struct {
	name         string
	email        string
	passwordHash []byte

	// totpSecret enables the step-up factor when non-empty.
	totpSecret string
}

// pendingStepUp is a login that passed the password check and now waits
// for its second factor.
type pendingStepUp struct {
	email   string
	expires time.Time
}

// Server implements the backend HTTP contract in memory.
type Server struct {
	mu        sync.Mutex
	users     map[string]*user
	tokens    map[string]string // token -> email
	pending   map[string]pendingStepUp
	shipments []api.Shipment
	limiters  map[string]*rate.Limiter

	feed   *Feed
	logger *log.Logger
}

// New creates a Server backed by the given telemetry feed. A nil logger
// means stdlib default.
func New(feed *Feed, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		users:    make(map[string]*user),
		tokens:   make(map[string]string),
		pending:  make(map[string]pendingStepUp),
		limiters: make(map[string]*rate.Limiter),
		feed:     feed,
		logger:   logger,
	}
}

// AddUser registers an account directly, bypassing the signup endpoint.
// A non-empty totpSecret enrolls the account in step-up verification.
// Returns the bcrypt error if hashing fails.
func (s *Server) AddUser(name, email, password, totpSecret string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &user{
		name:         name,
		email:        email,
		passwordHash: hash,
		totpSecret:   totpSecret,
	}
	return nil
}

// Handler returns the HTTP handler for the full endpoint surface.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/verify-step-up", s.handleVerifyStepUp)
	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/api/v1/verify-token", s.handleVerifyToken)
	mux.HandleFunc("/device-data", s.handleDeviceData)
	mux.HandleFunc("/shipment/new", s.handleCreateShipment)
	mux.HandleFunc("/shipment/my", s.handleMyShipments)
	mux.HandleFunc("/account/me/", s.handleAccount)
	mux.HandleFunc("/reset-password-request", s.handleResetRequest)
	mux.HandleFunc("/reset-password-confirm", s.handleResetConfirm)
	return mux
}

// =============================================================================
// AUTH ENDPOINTS
// =============================================================================

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !s.allowLogin(r) {
		writeDetail(w, http.StatusTooManyRequests, "Too many login attempts. Try again later.")
		return
	}

	var req api.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Email]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	if bcrypt.CompareHashAndPassword(u.passwordHash, []byte(req.Password)) != nil {
		writeDetail(w, http.StatusUnauthorized, "Incorrect password")
		return
	}

	if u.totpSecret != "" {
		s.mu.Lock()
		s.pending[u.email] = pendingStepUp{email: u.email, expires: time.Now().Add(stepUpTTL)}
		s.mu.Unlock()

		writeJSON(w, http.StatusAccepted, api.LoginResult{
			StepUpRequired:  true,
			PinnedPrincipal: u.email,
			Message:         "Enter the code from your authenticator app.",
		})
		return
	}

	writeJSON(w, http.StatusOK, s.issueToken(u))
}

func (s *Server) handleVerifyStepUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req api.StepUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	s.mu.Lock()
	challenge, ok := s.pending[req.PinnedPrincipal]
	u := s.users[req.PinnedPrincipal]
	s.mu.Unlock()

	if !ok || u == nil || time.Now().After(challenge.expires) {
		writeDetail(w, http.StatusBadRequest, "No pending verification for this account")
		return
	}
	if !totp.Validate(req.Code, u.totpSecret) {
		writeDetail(w, http.StatusUnauthorized, "Invalid verification code")
		return
	}

	s.mu.Lock()
	delete(s.pending, req.PinnedPrincipal)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, s.issueToken(u))
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req api.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeDetail(w, http.StatusBadRequest, "All fields are required")
		return
	}

	s.mu.Lock()
	_, exists := s.users[req.Email]
	s.mu.Unlock()
	if exists {
		writeDetail(w, http.StatusBadRequest, "Email already registered")
		return
	}

	if err := s.AddUser(req.Name, req.Email, req.Password, ""); err != nil {
		writeDetail(w, http.StatusInternalServerError, "could not register user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Signup successful!"})
}

func (s *Server) handleVerifyToken(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "valid"})
}

func (s *Server) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// The response does not reveal whether the account exists. The dev
	// server just logs the token a real backend would have mailed.
	s.mu.Lock()
	_, exists := s.users[req.Email]
	s.mu.Unlock()
	if exists {
		s.logger.Printf("password reset requested for %s (token: %s)", req.Email, uuid.NewString())
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "If the account exists, a reset link has been sent."})
}

func (s *Server) handleResetConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req api.ResetConfirm
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// Reset tokens are logged, not stored, so confirmation always fails
	// against this server.
	writeDetail(w, http.StatusBadRequest, "Invalid or expired reset token")
}

// =============================================================================
// PRIVILEGED ENDPOINTS
// =============================================================================

func (s *Server) handleDeviceData(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.authenticate(r); !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	writeJSON(w, http.StatusOK, s.feed.Latest(15))
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}
	if r.Method != http.MethodPost {
		writeDetail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var shipment api.Shipment
	if err := json.NewDecoder(r.Body).Decode(&shipment); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	shipment.ID = uuid.NewString()
	shipment.CreatorEmail = email
	shipment.Timestamp = time.Now().Unix()

	s.mu.Lock()
	s.shipments = append(s.shipments, shipment)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "Shipment created successfully",
		"shipment_id": shipment.ID,
	})
}

func (s *Server) handleMyShipments(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	s.mu.Lock()
	var mine []api.Shipment
	for _, shipment := range s.shipments {
		if shipment.CreatorEmail == email {
			mine = append(mine, shipment)
		}
	}
	s.mu.Unlock()

	if mine == nil {
		mine = []api.Shipment{}
	}
	writeJSON(w, http.StatusOK, mine)
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authenticate(r)
	if !ok {
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
		return
	}

	requested, err := url.PathUnescape(strings.TrimPrefix(r.URL.Path, "/account/me/"))
	if err != nil || requested == "" {
		writeDetail(w, http.StatusBadRequest, "invalid account path")
		return
	}
	if requested != email {
		writeDetail(w, http.StatusForbidden, "Not authorized to view this account.")
		return
	}

	s.mu.Lock()
	u := s.users[email]
	s.mu.Unlock()
	if u == nil {
		writeDetail(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, api.Profile{Name: u.name, Email: u.email})
}

// =============================================================================
// PLUMBING
// =============================================================================

// issueToken mints a bearer token for the user and returns the 200-shape
// login result.
func (s *Server) issueToken(u *user) api.LoginResult {
	token := uuid.NewString()
	s.mu.Lock()
	s.tokens[token] = u.email
	s.mu.Unlock()

	return api.LoginResult{
		Message:     "Login successful!",
		AccessToken: token,
		TokenType:   "bearer",
		UserData:    api.Profile{Name: u.name, Email: u.email},
	}
}

// RevokeAll invalidates every issued token. Lets tests and demos force
// the 401 path on live clients.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// authenticate resolves the bearer token to an account email.
func (s *Server) authenticate(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.tokens[token]
	return email, ok
}

// allowLogin applies per-client rate limiting to the login endpoint:
// 1 attempt per second with a burst of 5.
func (s *Server) allowLogin(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	s.mu.Lock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(1), 5)
		s.limiters[host] = limiter
	}
	s.mu.Unlock()

	return limiter.Allow()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
