package handlers

import (
	"net/http"

	"site-projects/internal/expenses"

	"github.com/gin-gonic/gin"
)

type expenseForm struct {
	Materials []expenses.MaterialInput `json:"materials"`
}

func (h *Handler) GetProjectLaborData(c *gin.Context) {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return
	}
	rng, ok := dateRange(c, h.Ledger.Location())
	if !ok {
		return
	}
	snap, err := h.Expenses.LaborData(c.Request.Context(), projectID, rng)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, snap, "")
}

func (h *Handler) CreateExpense(c *gin.Context) {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return
	}
	var form expenseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	expense, err := h.Expenses.Create(c.Request.Context(), projectID, form.Materials, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusCreated, expense, "Расход сохранён")
}

func (h *Handler) ListProjectExpenses(c *gin.Context) {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return
	}
	page, err := h.Expenses.ListByProject(c.Request.Context(), projectID, pageParams(c))
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, page, "")
}

func (h *Handler) GetExpenseSummary(c *gin.Context) {
	projectID, ok := paramID(c, "projectId")
	if !ok {
		return
	}
	sum, err := h.Expenses.Summary(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, sum, "")
}

func (h *Handler) GetExpense(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	expense, err := h.Expenses.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, expense, "")
}

func (h *Handler) UpdateExpense(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var form expenseForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Некорректные данные")
		return
	}
	expense, err := h.Expenses.Update(c.Request.Context(), id, form.Materials, currentUser(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, expense, "Расход обновлён")
}

func (h *Handler) DeleteExpense(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Expenses.Delete(c.Request.Context(), id, currentUser(c).ID); err != nil {
		respondError(c, err)
		return
	}
	render(c, http.StatusOK, nil, "Расход удалён")
}
