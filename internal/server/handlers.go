package server

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hnrobert/hostauth/internal/accounts"
	"github.com/hnrobert/hostauth/internal/auth"
	"github.com/hnrobert/hostauth/internal/command"
)

const maxBodyBytes = 64 << 10

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	accounts.Identity
	Groups  []string `json:"groups"`
	HasSudo bool     `json:"hasSudo"`
	IsAdmin bool     `json:"isAdmin"`
}

type loginResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    userView `json:"user"`
}

type verifyRequest struct {
	Token string `json:"token"`
}

type sessionView struct {
	Username  string        `json:"username"`
	AuthType  auth.AuthType `json:"authType"`
	IssuedAt  int64         `json:"issuedAt"`
	ExpiresAt int64         `json:"expiresAt"`
}

type verifyResponse struct {
	Success bool        `json:"success"`
	User    sessionView `json:"user"`
}

type userResponse struct {
	Success bool     `json:"success"`
	User    userView `json:"user"`
}

type usersResponse struct {
	Success bool       `json:"success"`
	Users   []userView `json:"users"`
}

type execRequest struct {
	Command string `json:"command"`
}

type execResponse struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
}

type noticeResponse struct {
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

func (a *App) privilegedView(r *http.Request, id accounts.Identity) userView {
	p := a.privileges.Resolve(r.Context(), id.Username)
	groups := p.Groups
	if groups == nil {
		groups = []string{}
	}
	return userView{Identity: id, Groups: groups, HasSudo: p.Sudo == auth.Yes, IsAdmin: p.IsAdmin()}
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	res, err := a.authn.Authenticate(r.Context(), username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			log.Info().Str("user", username).Str("remote", remoteIP(r)).Msg("failed login attempt")
			writeError(w, http.StatusUnauthorized, auth.HumanAuthError(err))
			return
		}
		log.Error().Err(err).Str("user", username).Msg("login failed")
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	log.Info().Str("user", username).Str("auth_type", string(res.AuthType)).Str("remote", remoteIP(r)).Msg("user logged in")
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: res.Token, User: a.privilegedView(r, res.Identity)})
}

func (a *App) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decodeJSON(w, r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}
	claims, err := a.tokens.Verify(req.Token)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, auth.ErrTokenExpired) {
			reason = "expired"
		}
		log.Debug().Str("reason", reason).Str("remote", remoteIP(r)).Msg("token verification failed")
		writeError(w, http.StatusUnauthorized, auth.HumanAuthError(err))
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{Success: true, User: sessionView{
		Username:  claims.Username,
		AuthType:  claims.AuthType,
		IssuedAt:  claims.IssuedAtUnix(),
		ExpiresAt: claims.ExpiresAtUnix(),
	}})
}

// handleUser serves the caller's own record, or anyone's to admins.
func (a *App) handleUser(w http.ResponseWriter, r *http.Request) {
	caller := usernameFrom(r)
	target := r.PathValue("username")
	if target != caller && !a.privileges.IsAdmin(r.Context(), caller) {
		writeError(w, http.StatusForbidden, auth.HumanAuthError(auth.ErrInsufficientPrivilege))
		return
	}
	id, err := a.accounts.Lookup(target)
	if err != nil {
		log.Warn().Err(err).Str("user", target).Msg("identity lookup failed")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve user info")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Success: true, User: a.privilegedView(r, id)})
}

func (a *App) handleUsers(w http.ResponseWriter, r *http.Request) {
	members, err := a.accounts.ListMembers(a.minUID, a.maxUID)
	if err != nil {
		log.Error().Err(err).Msg("list users failed")
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	users := make([]userView, 0, len(members))
	for _, m := range members {
		users = append(users, userView{Identity: m.Identity, Groups: m.Groups})
	}
	writeJSON(w, http.StatusOK, usersResponse{Success: true, Users: users})
}

func (a *App) handleExec(w http.ResponseWriter, r *http.Request) {
	var req execRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Command) == "" {
		writeError(w, http.StatusBadRequest, "Command is required")
		return
	}
	user := usernameFrom(r)
	out, err := a.commands.RunAs(r.Context(), user, req.Command)
	if err != nil {
		log.Warn().Err(err).Str("user", user).Msg("command rejected or failed")
		switch {
		case errors.Is(err, command.ErrCommandNotAllowed):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	log.Info().Str("user", user).Str("command", strings.Fields(req.Command)[0]).Msg("command executed")
	writeJSON(w, http.StatusOK, execResponse{Success: true, Output: out})
}

func (a *App) handleNotice(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, noticeResponse{Markdown: a.notice, HTML: a.noticeHTML})
}
