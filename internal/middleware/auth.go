package middleware

import (
	"strings"

	"site-projects/internal/apperrors"
	"site-projects/internal/auth"
	"site-projects/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const currentUserKey = "CurrentUser"

// InjectUser кладёт в контекст пользователя из cookie-сессии или Bearer-токена.
// Заблокированные пользователи не подставляются.
func InjectUser(db *gorm.DB, tokens *auth.Tokens) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid := userIDFromRequest(c, tokens); uid > 0 {
			var user models.User
			if err := db.WithContext(c.Request.Context()).First(&user, uid).Error; err == nil && user.IsActive {
				c.Set(currentUserKey, user)
			}
		}
		c.Next()
	}
}

func userIDFromRequest(c *gin.Context, tokens *auth.Tokens) uint {
	if header := c.GetHeader("Authorization"); header != "" && tokens != nil {
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return 0
		}
		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			return 0
		}
		return claims.UserID
	}

	sess := sessions.Default(c)
	if uid, ok := sess.Get("user_id").(uint); ok {
		return uid
	}
	return 0
}

// CurrentUser возвращает пользователя, которого положил InjectUser.
func CurrentUser(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return models.User{}, false
	}
	user, ok := v.(models.User)
	return user, ok
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			abort(c, apperrors.New(apperrors.CodeUnauthorized, "Требуется авторизация"))
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			abort(c, apperrors.New(apperrors.CodeUnauthorized, "Требуется авторизация"))
			return
		}
		// super_admin проходит любую ролевую проверку
		if _, allowed := roleSet[user.Role]; !allowed && user.Role != models.RoleSuperAdmin {
			abort(c, apperrors.Forbidden("Недостаточно прав"))
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, err *apperrors.Error) {
	c.AbortWithStatusJSON(err.Code.HTTPStatus(), gin.H{
		"error": err.Message,
		"code":  err.Code,
	})
}
