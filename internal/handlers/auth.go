package handlers

import (
	"net/http"
	"strings"

	"site-projects/internal/apperrors"
	"site-projects/internal/auth"
	"site-projects/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type loginForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) checkCredentials(c *gin.Context) (models.User, bool) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "Некорректные данные")
		return models.User{}, false
	}

	invalid := apperrors.New(apperrors.CodeUnauthorized, "Неверный логин или пароль")

	var user models.User
	email := strings.ToLower(strings.TrimSpace(form.Email))
	if err := h.DB.WithContext(c.Request.Context()).Where("LOWER(email) = ?", email).First(&user).Error; err != nil {
		respondError(c, invalid)
		return models.User{}, false
	}
	if !auth.CheckPassword(user.PasswordHash, form.Password) {
		respondError(c, invalid)
		return models.User{}, false
	}
	if !user.IsActive {
		respondError(c, apperrors.Forbidden("Учётная запись заблокирована"))
		return models.User{}, false
	}
	return user, true
}

// Login открывает cookie-сессию для браузера.
func (h *Handler) Login(c *gin.Context) {
	user, ok := h.checkCredentials(c)
	if !ok {
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	if err := sess.Save(); err != nil {
		respondError(c, err)
		return
	}

	render(c, http.StatusOK, user, "Вход выполнен")
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
	render(c, http.StatusOK, nil, "Выход выполнен")
}

// IssueToken выдаёт Bearer-токен для мобильных клиентов.
func (h *Handler) IssueToken(c *gin.Context) {
	user, ok := h.checkCredentials(c)
	if !ok {
		return
	}

	token, expires, err := h.Tokens.Issue(user)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, gin.H{
		"token":     token,
		"tokenType": "Bearer",
		"expiresAt": expires,
		"user":      user,
	}, "")
}

func (h *Handler) Me(c *gin.Context) {
	render(c, http.StatusOK, currentUser(c), "")
}
