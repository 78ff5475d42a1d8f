package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/memtensor/userapi/pkg/errors"
	"github.com/memtensor/userapi/pkg/users"
)

// welcome handles GET /
func (s *Server) welcome(c *gin.Context) {
	c.JSON(http.StatusOK, MessageResponse{Message: "Welcome to the User Login API"})
}

// healthCheck reports liveness together with a database ping
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	health := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   Version,
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Checks:    map[string]string{"database": "ok"},
	}

	status := http.StatusOK
	if err := s.health.HealthCheck(ctx); err != nil {
		s.logger.Warn("Health check failed", map[string]interface{}{"error": err.Error()})
		health.Status = "unhealthy"
		health.Checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, health)
}

// getMetrics returns the in-process counters
func (s *Server) getMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, MetricsResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Metrics:   s.metrics.Snapshot(),
	})
}

// login authenticates a user and issues a session token
// @Summary User login
// @Description Authenticate user and return JWT token; the token is also set as an HttpOnly cookie
// @Tags users
// @Accept json
// @Produce json
// @Param credentials body users.LoginParams true "Login credentials"
// @Success 200 {object} users.LoginResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /api/users/login [post]
func (s *Server) login(c *gin.Context) {
	var params users.LoginParams
	if !s.bindJSON(c, &params) {
		return
	}
	if err := params.Validate(); err != nil {
		s.respondError(c, err)
		return
	}

	result, err := s.sessions.Login(c.Request.Context(), params.Email, params.Password)
	if err != nil {
		s.logger.Debug("Login rejected", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
		return
	}

	s.setSessionCookie(c, result.Token)
	c.JSON(http.StatusOK, result)
}

// logout invalidates the caller's token and clears the cookie
// @Summary Logout user
// @Description Invalidate the current JWT token
// @Tags users
// @Produce json
// @Security bearerAuth
// @Success 200 {object} MessageResponse
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/users/logout [post]
func (s *Server) logout(c *gin.Context) {
	if err := s.sessions.Logout(c.Request.Context(), extractToken(c)); err != nil {
		s.respondError(c, err)
		return
	}

	s.clearSessionCookie(c)
	c.JSON(http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// createUser registers a new user
// @Summary Create new user
// @Description Register a new user account
// @Tags users
// @Accept json
// @Produce json
// @Param user body users.CreateUserParams true "New user"
// @Success 201 {object} users.User
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users [post]
func (s *Server) createUser(c *gin.Context) {
	var params users.CreateUserParams
	if !s.bindJSON(c, &params) {
		return
	}

	user, err := s.manager.CreateUser(c.Request.Context(), params)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// listUsers serves both GET /api/users and GET /api/users/filter
// @Summary List users
// @Description Retrieve users with optional filters and pagination
// @Tags users
// @Produce json
// @Param name query string false "Matches firstname or lastname, case-insensitive"
// @Param age query int false "Exact age"
// @Param role query string false "Role, case-insensitive"
// @Param isActive query bool false "Active status"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Users per page" default(10)
// @Success 200 {object} users.UserPage
// @Failure 401 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /api/users [get]
func (s *Server) listUsers(c *gin.Context) {
	filter := users.ParseUserFilter(c.Request.URL.Query())

	page, err := s.manager.ListUsers(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// getUser returns a single user
// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} users.User
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users/{id} [get]
func (s *Server) getUser(c *gin.Context) {
	user, err := s.manager.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// updateUser applies a partial update
// @Summary Update a user
// @Tags users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param user body users.UpdateUserParams true "Fields to change"
// @Success 200 {object} users.User
// @Failure 500 {object} ErrorResponse
// @Router /api/users/{id} [put]
func (s *Server) updateUser(c *gin.Context) {
	var params users.UpdateUserParams
	if !s.bindJSON(c, &params) {
		return
	}

	user, err := s.manager.UpdateUser(c.Request.Context(), c.Param("id"), params)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// deleteUser removes a user
// @Summary Delete a user
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/users/{id} [delete]
func (s *Server) deleteUser(c *gin.Context) {
	if err := s.manager.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "User deleted successfully"})
}

// bindJSON decodes the request body into dst. An empty body leaves dst zeroed.
func (s *Server) bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(c, apperrors.NewValidationError("Invalid request body"))
		return false
	}
	return true
}

// respondError writes {"error": message} with the status that matches err
func (s *Server) respondError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	status := appErr.HTTPStatus()

	fields := map[string]interface{}{
		"request_id": c.GetString(requestIDKey),
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"status":     status,
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", err, fields)
	} else {
		fields["error"] = appErr.Error()
		s.logger.Debug("Request rejected", fields)
	}

	c.JSON(status, ErrorResponse{Error: appErr.Error()})
}
