package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"sm-portal/internal/service"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type registerAdminRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type updateProfileRequest struct {
	Name string `json:"name"`
}

func (h *Handler) adminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.admins.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.setSessionCookie(c, res.Token, int(h.opts.SessionTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"message": "login successful",
		"name":    res.Admin.Name,
		"token":   res.Token,
	})
}

func (h *Handler) adminLogout(c *gin.Context) {
	if session := currentSession(c); session != nil {
		h.admins.Logout(c.Request.Context(), session.Handle)
	}
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

func (h *Handler) adminCheck(c *gin.Context) {
	session := currentSession(c)
	if session == nil {
		c.JSON(http.StatusOK, gin.H{"loggedIn": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"loggedIn": true, "name": session.Name})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.CookieName, value, maxAge, "/", "", h.opts.CookieSecure, true)
}

func (h *Handler) listAdmins(c *gin.Context) {
	admins, err := h.admins.ListAdmins(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]AdminResponse, len(admins))
	for i := range admins {
		resp[i] = adminToResponse(admins[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) registerAdmin(c *gin.Context) {
	var req registerAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin, err := h.admins.CreateAdmin(c.Request.Context(), req.Username, req.Password, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "admin registered", "id": admin.ID})
}

func (h *Handler) deleteAdmin(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.admins.DeleteAdmin(c.Request.Context(), currentSession(c).AdminID, id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "admin deleted"})
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.admins.ChangePassword(c.Request.Context(), currentSession(c).Username, req.CurrentPassword, req.NewPassword)
	if errors.Is(err, service.ErrInvalidCredentials) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current password is incorrect"})
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "password changed"})
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	admin, err := h.admins.UpdateProfile(c.Request.Context(), currentSession(c).Username, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "profile updated", "name": admin.Name})
}
