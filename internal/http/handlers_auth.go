package http

import (
	"net/http"

	"moneymind/internal/log"
	"moneymind/internal/services"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type profileRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Bio          string `json:"bio"`
	ProfilePhoto string `json:"profilePhoto"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	sess, err := s.deps.Users.Signup(r.Context(), services.SignupInput{
		Name:     sanitizeInput(req.Name),
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(), "User signed up",
		log.FieldUserID, sess.User.ID)
	NewResponse().Status(http.StatusCreated).
		JSON(toSessionView("User created successfully", sess.User, sess.Tokens)).
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	sess, err := s.deps.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	NewResponse().JSON(toSessionView("Login successful", sess.User, sess.Tokens)).Write(w)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	sess, err := s.deps.Users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}
	NewResponse().JSON(toSessionView("", sess.User, sess.Tokens)).Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := s.deps.Users.Profile(r.Context(), userID(r))
	if err != nil {
		ErrorFor(r, err, "User not found").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{"user": toUserView(u)}).Write(w)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		ErrorFor(r, err, "").Write(w)
		return
	}

	u, err := s.deps.Users.UpdateProfile(r.Context(), userID(r), services.ProfileInput{
		Name:         sanitizeInput(req.Name),
		Email:        req.Email,
		Phone:        sanitizeInput(req.Phone),
		Bio:          sanitizeInput(req.Bio),
		ProfilePhoto: sanitizeInput(req.ProfilePhoto),
	})
	if err != nil {
		ErrorFor(r, err, "User not found").Write(w)
		return
	}
	NewResponse().JSON(map[string]any{"user": toUserView(u)}).Write(w)
}
