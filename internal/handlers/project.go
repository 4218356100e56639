package handlers

import (
	"net/http"

	"site-projects/internal/apperrors"
	"site-projects/internal/models"
	"site-projects/internal/projects"

	"github.com/gin-gonic/gin"
)

//
// СПИСОК ПРОЕКТОВ
//

func (h *Handler) projectFilter(c *gin.Context) (projects.ListFilter, bool) {
	params := pageParams(c)
	f := projects.ListFilter{
		Status: models.ProjectStatus(c.Query("status")),
		Search: c.Query("search"),
		Page:   params.Page,
		Limit:  params.Limit,
	}
	var ok bool
	if f.ClientID, ok = queryID(c, "client_id"); !ok {
		return f, false
	}
	if f.DriverID, ok = queryID(c, "driver_id"); !ok {
		return f, false
	}
	if f.EngineerID, ok = queryID(c, "engineer_id"); !ok {
		return f, false
	}
	return f, true
}

func (h *Handler) ListProjects(c *gin.Context) {
	f, ok := h.projectFilter(c)
	if !ok {
		return
	}
	page, err := h.Projects.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, page, "")
}

// Проекты текущего водителя.
func (h *Handler) DriverProjects(c *gin.Context) {
	f, ok := h.projectFilter(c)
	if !ok {
		return
	}
	page, err := h.Projects.DriverProjects(c.Request.Context(), currentUser(c).ID, f)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, page, "")
}

// loadVisibleProject отдаёт проект, если текущий пользователь имеет к нему доступ:
// офис видит всё, водитель и рабочие только свои проекты.
func (h *Handler) loadVisibleProject(c *gin.Context, param string) (models.Project, bool) {
	id, ok := paramID(c, param)
	if !ok {
		return models.Project{}, false
	}
	project, err := h.Projects.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return models.Project{}, false
	}
	user := currentUser(c)
	if !isStaff(user.Role) && !project.HasMember(user.ID) {
		respondError(c, apperrors.Forbidden("Нет доступа к проекту"))
		return models.Project{}, false
	}
	return project, true
}

func (h *Handler) GetProject(c *gin.Context) {
	project, ok := h.loadVisibleProject(c, "id")
	if !ok {
		return
	}
	render(c, http.StatusOK, project, "")
}

//
// СОЗДАНИЕ / РЕДАКТИРОВАНИЕ
//

func (h *Handler) CreateProject(c *gin.Context) {
	var in projects.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	project, err := h.Projects.Create(c.Request.Context(), in, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, project, "Проект создан")
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in projects.UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	project, err := h.Projects.Update(c.Request.Context(), id, in, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, project, "Проект обновлён")
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Projects.Delete(c.Request.Context(), id, currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, nil, "Проект удалён")
}

//
// СТАТУС И ПРОГРЕСС
//

type statusForm struct {
	Status models.ProjectStatus `json:"status"`
}

func (h *Handler) ChangeProjectStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form statusForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	project, err := h.Projects.RequestTransition(c.Request.Context(), id, form.Status, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, project, "Статус изменён")
}

type progressForm struct {
	Progress *int   `json:"progress"`
	Comment  string `json:"comment"`
}

func (h *Handler) UpdateProjectProgress(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form progressForm
	if err := c.ShouldBindJSON(&form); err != nil || form.Progress == nil {
		badRequest(c, "Прогресс должен быть целым числом от 0 до 100")
		return
	}
	project, err := h.Projects.UpdateProgress(c.Request.Context(), id, *form.Progress, form.Comment, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, project, "Прогресс обновлён")
}

func (h *Handler) ProjectProgressUpdates(c *gin.Context) {
	project, ok := h.loadVisibleProject(c, "id")
	if !ok {
		return
	}
	updates, err := h.Projects.ProgressUpdates(c.Request.Context(), project.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, updates, "")
}

// Журнал аудита по проекту.
func (h *Handler) ShowProjectHistory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	logs, err := h.Projects.History(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, logs, "")
}

//
// НАЗНАЧЕНИЯ
//

type assignEngineerForm struct {
	EngineerID uint `json:"engineerId"`
}

func (h *Handler) AssignEngineer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form assignEngineerForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	project, err := h.Projects.AssignEngineer(c.Request.Context(), id, form.EngineerID, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, project, "Инженер назначен")
}

type assignTeamForm struct {
	Workers  []uint `json:"workers"`
	DriverID uint   `json:"driverId"`
}

func (h *Handler) AssignTeam(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form assignTeamForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	project, err := h.Projects.AssignTeam(c.Request.Context(), id, form.Workers, form.DriverID, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, project, "Бригада назначена")
}

func (h *Handler) GetProjectTeam(c *gin.Context) {
	project, ok := h.loadVisibleProject(c, "id")
	if !ok {
		return
	}
	team, err := h.Projects.Team(c.Request.Context(), project.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, team, "")
}
