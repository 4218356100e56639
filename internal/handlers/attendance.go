package handlers

import (
	"net/http"
	"strings"

	"site-projects/internal/apperrors"
	"site-projects/internal/attendance"
	"site-projects/internal/models"

	"github.com/gin-gonic/gin"
)

// Present принимается как any, чтобы отличить «не boolean» от false.
type markForm struct {
	Present any    `json:"present"`
	Date    string `json:"date"`
}

func bindMark(c *gin.Context) (*bool, attendance.Day, bool) {
	var form markForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Поле present должно быть boolean")
		return nil, "", false
	}
	var present *bool
	if v, ok := form.Present.(bool); ok {
		present = &v
	}
	return present, attendance.Day(strings.TrimSpace(form.Date)), true
}

//
// ОТМЕТКИ
//

// Водитель отмечает члена бригады на своём проекте.
func (h *Handler) MarkProjectAttendance(c *gin.Context) {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	present, day, ok := bindMark(c)
	if !ok {
		return
	}

	rec, err := h.Ledger.MarkPresence(c.Request.Context(), attendance.MarkInput{
		SubjectID: userID,
		ProjectID: projectID,
		Kind:      models.AttendanceProject,
		Day:       day,
		Present:   present,
		MarkedBy:  currentUser(c).ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, rec, "Посещаемость отмечена")
}

// Обычная отметка без проекта: сам сотрудник или администратор.
func (h *Handler) MarkUserAttendance(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	present, day, ok := bindMark(c)
	if !ok {
		return
	}

	rec, err := h.Ledger.MarkPresence(c.Request.Context(), attendance.MarkInput{
		SubjectID: userID,
		Kind:      models.AttendanceNormal,
		Day:       day,
		Present:   present,
		MarkedBy:  currentUser(c).ID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, rec, "Посещаемость отмечена")
}

//
// ПРОСМОТР
//

// Отметки одного сотрудника на проекте. Доступно офису,
// самому сотруднику и водителю проекта.
func (h *Handler) GetUserProjectAttendance(c *gin.Context) {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return
	}
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	user := currentUser(c)
	if !isStaff(user.Role) && user.ID != userID {
		project, err := h.Projects.Get(c.Request.Context(), projectID)
		if err != nil {
			respondError(c, err)
			return
		}
		if !project.IsDriver(user.ID) {
			respondError(c, apperrors.Forbidden("Нет доступа к отметкам сотрудника"))
			return
		}
	}
	rng, ok := dateRange(c, h.Ledger.Location())
	if !ok {
		return
	}

	records, err := h.Ledger.Query(c.Request.Context(), attendance.Filter{
		SubjectID: &userID,
		ProjectID: &projectID,
		Kind:      models.AttendanceProject,
		Range:     rng,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, records, "")
}

// Обычные отметки сотрудника.
func (h *Handler) GetUserAttendance(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	user := currentUser(c)
	if !isStaff(user.Role) && user.ID != userID {
		respondError(c, apperrors.Forbidden("Нет доступа к отметкам сотрудника"))
		return
	}
	rng, ok := dateRange(c, h.Ledger.Location())
	if !ok {
		return
	}
	records, err := h.Ledger.Query(c.Request.Context(), attendance.Filter{
		SubjectID: &userID,
		Kind:      models.AttendanceNormal,
		Range:     rng,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, records, "")
}

// Все отметки проекта; ?date= сужает до одного дня.
func (h *Handler) GetProjectAttendance(c *gin.Context) {
	project, ok := h.loadVisibleProject(c, "projectId")
	if !ok {
		return
	}
	var rng attendance.DateRange
	if d := c.Query("date"); d != "" {
		day, err := attendance.ParseDay(d, h.Ledger.Location())
		if err != nil {
			respondError(c, err)
			return
		}
		rng = attendance.DateRange{From: day, To: day}
	} else if rng, ok = dateRange(c, h.Ledger.Location()); !ok {
		return
	}

	pid := project.ID
	records, err := h.Ledger.Query(c.Request.Context(), attendance.Filter{
		ProjectID: &pid,
		Kind:      models.AttendanceProject,
		Range:     rng,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, records, "")
}

func (h *Handler) GetTodayProjectAttendance(c *gin.Context) {
	project, ok := h.loadVisibleProject(c, "projectId")
	if !ok {
		return
	}
	view, err := h.Ledger.TodayForProject(c.Request.Context(), project.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, view, "")
}

func (h *Handler) GetAttendanceSummary(c *gin.Context) {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return
	}
	rng, ok := dateRange(c, h.Ledger.Location())
	if !ok {
		return
	}
	view, err := h.Ledger.Summary(c.Request.Context(), projectID, rng)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, view, "")
}
