package handlers

import (
	"errors"
	"net/http"
	"strings"

	"site-projects/internal/apperrors"
	"site-projects/internal/database"
	"site-projects/internal/models"
	"site-projects/internal/pagination"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type clientForm struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	ContactPerson string `json:"contactPerson"`
	Email         string `json:"email"`
	Mobile        string `json:"mobile"`
	TRN           string `json:"trn"`
	Notes         string `json:"notes"`
}

func (f *clientForm) normalize() error {
	f.Name = strings.TrimSpace(f.Name)
	f.Address = strings.TrimSpace(f.Address)
	f.ContactPerson = strings.TrimSpace(f.ContactPerson)
	f.Email = strings.TrimSpace(f.Email)
	f.Mobile = strings.TrimSpace(f.Mobile)
	f.TRN = strings.TrimSpace(f.TRN)
	f.Notes = strings.TrimSpace(f.Notes)

	if len(f.Name) < 3 {
		return apperrors.Validation("Название клиента должно быть не короче 3 символов")
	}
	if f.Email != "" && !strings.Contains(f.Email, "@") {
		return apperrors.Validation("Некорректный e-mail")
	}
	return nil
}

func (f clientForm) apply(client *models.Client) {
	client.Name = f.Name
	client.Address = f.Address
	client.ContactPerson = f.ContactPerson
	client.Email = f.Email
	client.Mobile = f.Mobile
	client.TRN = f.TRN
	client.Notes = f.Notes
}

// Название, TRN и e-mail клиента не должны повторяться.
func checkClientUnique(tx *gorm.DB, f clientForm, exceptID uint) error {
	checks := []struct {
		where string
		value string
		msg   string
	}{
		{"LOWER(name) = LOWER(?)", f.Name, "Клиент с таким названием уже существует"},
		{"trn = ?", f.TRN, "Клиент с таким TRN уже существует"},
		{"LOWER(email) = LOWER(?)", f.Email, "Клиент с таким e-mail уже существует"},
	}
	for _, ch := range checks {
		if ch.value == "" {
			continue
		}
		var count int64
		if err := tx.Model(&models.Client{}).
			Where(ch.where, ch.value).
			Where("id <> ?", exceptID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.Conflict(ch.msg)
		}
	}
	return nil
}

//
// СПИСОК / СОЗДАНИЕ
//

func (h *Handler) ListClients(c *gin.Context) {
	params := pageParams(c)
	scope := func(db *gorm.DB) *gorm.DB {
		if s := strings.ToLower(strings.TrimSpace(c.Query("search"))); s != "" {
			like := "%" + s + "%"
			db = db.Where("LOWER(name) LIKE ? OR LOWER(contact_person) LIKE ? OR LOWER(email) LIKE ?", like, like, like)
		}
		return db
	}

	ctx := c.Request.Context()
	var total int64
	if err := h.DB.WithContext(ctx).Model(&models.Client{}).Scopes(scope).Count(&total).Error; err != nil {
		respondError(c, err)
		return
	}
	clients := []models.Client{}
	if err := h.DB.WithContext(ctx).Scopes(scope).
		Order("name asc, id asc").
		Offset(params.Offset()).Limit(params.Limit).
		Find(&clients).Error; err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, pagination.Page[models.Client]{Items: clients, Pagination: params.Meta(total)}, "")
}

func (h *Handler) CreateClient(c *gin.Context) {
	var form clientForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	if err := form.normalize(); err != nil {
		respondError(c, err)
		return
	}

	actor := currentUser(c)
	var client models.Client
	form.apply(&client)

	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := checkClientUnique(tx, form, 0); err != nil {
			return err
		}
		if err := tx.Create(&client).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actor.ID, "client", client.ID, "create", "Создан клиент: "+client.Name)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, client, "Клиент создан")
}

//
// КАРТОЧКА / РЕДАКТИРОВАНИЕ
//

func (h *Handler) GetClient(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var client models.Client
	if err := h.DB.WithContext(c.Request.Context()).First(&client, id).Error; err != nil {
		respondError(c, clientNotFound(err))
		return
	}
	render(c, http.StatusOK, client, "")
}

func (h *Handler) UpdateClient(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form clientForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	if err := form.normalize(); err != nil {
		respondError(c, err)
		return
	}

	actor := currentUser(c)
	var client models.Client
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&client, id).Error; err != nil {
			return clientNotFound(err)
		}
		if err := checkClientUnique(tx, form, client.ID); err != nil {
			return err
		}
		form.apply(&client)
		if err := tx.Save(&client).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actor.ID, "client", client.ID, "update", "Изменён клиент: "+client.Name)
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, client, "Клиент обновлён")
}

func clientNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound("Клиент не найден")
	}
	return err
}
