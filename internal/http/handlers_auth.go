package http

import (
	"errors"
	"net/http"

	"ledger/internal/auth"
	"ledger/internal/log"
	"ledger/internal/storage"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// logVisit records a page or auth hit. Failures are logged only.
func (s *Server) logVisit(r *http.Request, user *storage.User) {
	v := storage.Visit{
		Timestamp: s.now().UTC(),
		IP:        s.detector.ExtractClientIP(r),
		UserAgent: r.UserAgent(),
		Username:  storage.GuestName,
		Endpoint:  r.URL.Path,
	}
	if user != nil {
		v.UserID = user.ID
		v.Username = user.Username
	}
	if err := s.repo.LogVisit(r.Context(), v); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to log visit", log.FieldError, err, log.FieldPath, v.Endpoint)
	}
}

func (s *Server) handlePage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.logVisit(r, nil)
		s.renderPage(w, r, name, nil)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgCredsRequired)
		return
	}
	in.Username = sanitizeInput(in.Username)
	in.Email = sanitizeInput(in.Email)
	if in.Username == "" || in.Password == "" {
		writeError(w, http.StatusBadRequest, msgCredsRequired)
		return
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		s.structured.LogError(ctx, "Failed to hash password", err, log.ComponentAuth, log.OpRegister, log.NewFields())
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}
	user, err := s.repo.CreateUser(ctx, storage.NewUser{Username: in.Username, PasswordHash: hash, Email: in.Email})
	if errors.Is(err, storage.ErrUserExists) {
		writeError(w, http.StatusBadRequest, msgUserExists)
		return
	}
	if err != nil {
		s.structured.LogError(ctx, "Failed to create user", err, log.ComponentStorage, log.OpRegister, log.NewFields())
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	s.logVisit(r, &user)
	s.logger.InfoContext(ctx, "User registered",
		log.FieldUserID, user.ID,
		log.FieldUsername, user.Username,
		"is_admin", user.IsAdmin,
		log.FieldOperation, log.OpRegister)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": msgUserCreated,
		"user":    publicUser(user),
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var in credentials
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, msgBadCredentials)
		return
	}

	user, err := s.repo.GetUserByUsername(ctx, sanitizeInput(in.Username))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusBadRequest, msgBadCredentials)
		return
	}
	if err != nil {
		s.structured.LogError(ctx, "Failed to load user", err, log.ComponentStorage, log.OpLogin, log.NewFields())
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}
	if err := auth.CheckPassword(user.PasswordHash, in.Password); err != nil {
		s.logger.WarnContext(ctx, "Login rejected", log.FieldUsername, user.Username, log.FieldOperation, log.OpLogin)
		writeError(w, http.StatusBadRequest, msgBadCredentials)
		return
	}

	token, err := s.tokens.Issue(auth.Claims{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin})
	if err != nil {
		s.structured.LogError(ctx, "Failed to issue token", err, log.ComponentAuth, log.OpLogin, log.NewFields().WithUser(user.ID))
		writeError(w, http.StatusInternalServerError, msgServerError)
		return
	}

	s.logVisit(r, &user)
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"user":  publicUser(user),
	})
}
