package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"site-projects/internal/apperrors"
	"site-projects/internal/attendance"
	"site-projects/internal/auth"
	"site-projects/internal/expenses"
	"site-projects/internal/middleware"
	"site-projects/internal/models"
	"site-projects/internal/pagination"
	"site-projects/internal/projects"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler собирает зависимости HTTP-обработчиков.
type Handler struct {
	DB       *gorm.DB
	Tokens   *auth.Tokens
	Projects *projects.Service
	Ledger   *attendance.Ledger
	Expenses *expenses.Service
}

// render — обёртка над c.JSON: {"data": ..., "message": ...}.
func render(c *gin.Context, status int, data any, message string) {
	body := gin.H{"data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// respondError переводит доменную ошибку в HTTP-ответ; на всё остальное отвечает 500 и пишет в лог.
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.Error
	if !errors.As(err, &appErr) {
		log.Printf("[%s] %s %s: %v", middleware.GetRequestID(c), c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Внутренняя ошибка сервера",
			"code":  apperrors.CodeInternal,
		})
		return
	}
	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if len(appErr.Metadata) > 0 {
		body["details"] = appErr.Metadata
	}
	c.JSON(appErr.Code.HTTPStatus(), body)
}

func badRequest(c *gin.Context, msg string) {
	respondError(c, apperrors.Validation(msg))
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "Некорректный ID: "+name)
		return 0, false
	}
	return uint(id), true
}

func queryID(c *gin.Context, name string) (uint, bool) {
	v := c.Query(name)
	if v == "" {
		return 0, true
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		badRequest(c, "Некорректный параметр: "+name)
		return 0, false
	}
	return uint(id), true
}

func pageParams(c *gin.Context) pagination.Params {
	return pagination.Parse(c.Query("page"), c.Query("limit"))
}

// Маршруты за RequireAuth всегда его имеют.
func currentUser(c *gin.Context) models.User {
	user, _ := middleware.CurrentUser(c)
	return user
}

// Офисные роли, которым видны все проекты.
func isStaff(role models.UserRole) bool {
	return role.IsAdmin() || role == models.RoleEngineer || role == models.RoleFinance
}

// dateRange читает startDate/endDate (или from/to) в часовом поясе журнала.
func dateRange(c *gin.Context, loc *time.Location) (attendance.DateRange, bool) {
	var rng attendance.DateRange
	for _, p := range []struct {
		keys []string
		dst  *attendance.Day
	}{
		{[]string{"startDate", "from"}, &rng.From},
		{[]string{"endDate", "to"}, &rng.To},
	} {
		for _, k := range p.keys {
			v := strings.TrimSpace(c.Query(k))
			if v == "" {
				continue
			}
			day, err := attendance.ParseDay(v, loc)
			if err != nil {
				respondError(c, err)
				return attendance.DateRange{}, false
			}
			*p.dst = day
			break
		}
	}
	if err := rng.Validate(); err != nil {
		respondError(c, err)
		return attendance.DateRange{}, false
	}
	return rng, true
}
