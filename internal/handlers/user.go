package handlers

import (
	"net/http"
	"strings"

	"site-projects/internal/apperrors"
	"site-projects/internal/auth"
	"site-projects/internal/database"
	"site-projects/internal/models"
	"site-projects/internal/pagination"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type userForm struct {
	Email     string          `json:"email"`
	Password  string          `json:"password"`
	FirstName string          `json:"firstName"`
	LastName  string          `json:"lastName"`
	Phone     string          `json:"phone"`
	Role      models.UserRole `json:"role"`
	DailyWage float64         `json:"dailyWage"`
}

func (f *userForm) validate(creator models.User) error {
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.LastName = strings.TrimSpace(f.LastName)
	f.Phone = strings.TrimSpace(f.Phone)

	switch {
	case !strings.Contains(f.Email, "@"):
		return apperrors.Validation("Некорректный e-mail")
	case len(f.Password) < 6:
		return apperrors.Validation("Пароль должен быть не короче 6 символов")
	case f.FirstName == "" || f.LastName == "":
		return apperrors.Validation("Укажите имя и фамилию")
	case !models.ValidRole(f.Role):
		return apperrors.Validation("Неверная роль")
	case f.DailyWage < 0:
		return apperrors.Validation("Дневная ставка не может быть отрицательной")
	}
	// администраторов заводит только super_admin
	if f.Role.IsAdmin() && creator.Role != models.RoleSuperAdmin {
		return apperrors.Forbidden("Недостаточно прав для создания администратора")
	}
	return nil
}

func (h *Handler) CreateUser(c *gin.Context) {
	var form userForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	actor := currentUser(c)
	if err := form.validate(actor); err != nil {
		respondError(c, err)
		return
	}

	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	user := models.User{
		Email:        form.Email,
		PasswordHash: hash,
		FirstName:    form.FirstName,
		LastName:     form.LastName,
		Phone:        form.Phone,
		Role:         form.Role,
		DailyWage:    form.DailyWage,
		IsActive:     true,
	}

	err = h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("LOWER(email) = ?", user.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.Conflict("Пользователь с таким e-mail уже существует")
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actor.ID, "user", user.ID, "create",
			"Создан пользователь "+user.Email+" ("+string(user.Role)+")")
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, user, "Пользователь создан")
}

// Список пользователей с фильтром по роли, например ?role=worker для формы бригады.
func (h *Handler) ListUsers(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	if role != "" && !models.ValidRole(role) {
		badRequest(c, "Неверная роль")
		return
	}
	params := pageParams(c)

	scope := func(db *gorm.DB) *gorm.DB {
		if role != "" {
			db = db.Where("role = ?", role)
		}
		if s := strings.ToLower(strings.TrimSpace(c.Query("search"))); s != "" {
			like := "%" + s + "%"
			db = db.Where("LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
		}
		return db
	}

	ctx := c.Request.Context()
	var total int64
	if err := h.DB.WithContext(ctx).Model(&models.User{}).Scopes(scope).Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	users := []models.User{}
	if err := h.DB.WithContext(ctx).Scopes(scope).
		Order("first_name asc, last_name asc, id asc").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, pagination.Page[models.User]{Items: users, Pagination: params.Meta(total)}, "")
}
