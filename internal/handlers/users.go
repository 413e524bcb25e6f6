package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"schedcal/internal/models"
)

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h HandlerSet) RegisterUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	user, err := h.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err, "Server error during registration")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login (username or email) and password are required"})
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		h.respondError(c, err, "Server error during login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
	})
}

func (h HandlerSet) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Users retrieved successfully",
		"users":   users,
		"count":   len(users),
	})
}

func (h HandlerSet) GetUser(c *gin.Context) {
	id, ok := pathID(c, "Invalid user ID")
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User retrieved successfully",
		"user":    user,
	})
}

type updateUserRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
}

func (h HandlerSet) UpdateUser(c *gin.Context) {
	id, ok := pathID(c, "Invalid user ID")
	if !ok {
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field (username or email) is required"})
		return
	}

	user, err := h.users.Update(c.Request.Context(), id, models.UserPatch{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    user,
	})
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	id, ok := pathID(c, "Invalid user ID")
	if !ok {
		return
	}

	user, err := h.users.Delete(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Server error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User deleted successfully",
		"user":    user,
	})
}

func (h HandlerSet) ListUserEvents(c *gin.Context) {
	id, ok := pathID(c, "Invalid user ID")
	if !ok {
		return
	}

	user, events, err := h.events.ListByOwner(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to fetch user events")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User events retrieved successfully",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
		},
		"events": events,
		"count":  len(events),
	})
}
