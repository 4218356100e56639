// Package lifecycle содержит граф допустимых переходов статуса проекта
// и правила автоматической смены статуса по прогрессу.
package lifecycle

import (
	"site-projects/internal/apperrors"
	"site-projects/internal/models"
)

// transitions — статический граф: из какого статуса в какие можно перейти.
// Терминальные статусы (cancelled, project_closed, quotation_rejected) рёбер не имеют.
var transitions = map[models.ProjectStatus][]models.ProjectStatus{
	models.StatusDraft: {
		models.StatusEstimationPrepared,
	},
	models.StatusEstimationPrepared: {
		models.StatusQuotationSent, models.StatusOnHold, models.StatusCancelled,
	},
	models.StatusQuotationSent: {
		models.StatusQuotationApproved, models.StatusQuotationRejected, models.StatusOnHold, models.StatusCancelled,
	},
	models.StatusQuotationApproved: {
		models.StatusLPOReceived, models.StatusOnHold, models.StatusCancelled,
	},
	models.StatusLPOReceived: {
		models.StatusTeamAssigned, models.StatusOnHold, models.StatusCancelled,
	},
	models.StatusTeamAssigned: {
		models.StatusWorkStarted, models.StatusOnHold,
	},
	models.StatusWorkStarted: {
		models.StatusInProgress, models.StatusOnHold, models.StatusCancelled,
	},
	models.StatusInProgress: {
		models.StatusWorkCompleted, models.StatusOnHold, models.StatusCancelled,
	},
	models.StatusWorkCompleted: {
		models.StatusQualityCheck, models.StatusOnHold,
	},
	models.StatusQualityCheck: {
		models.StatusClientHandover, models.StatusWorkCompleted,
	},
	models.StatusClientHandover: {
		models.StatusFinalInvoiceSent, models.StatusOnHold,
	},
	models.StatusFinalInvoiceSent: {
		models.StatusPaymentReceived, models.StatusOnHold,
	},
	models.StatusPaymentReceived: {
		models.StatusProjectClosed,
	},
	models.StatusOnHold: {
		models.StatusInProgress, models.StatusWorkStarted, models.StatusCancelled,
	},
	models.StatusCancelled:         {},
	models.StatusProjectClosed:     {},
	models.StatusQuotationRejected: {},
}

// Все статусы в порядке жизненного цикла.
var All = []models.ProjectStatus{
	models.StatusDraft,
	models.StatusEstimationPrepared,
	models.StatusQuotationSent,
	models.StatusQuotationApproved,
	models.StatusQuotationRejected,
	models.StatusLPOReceived,
	models.StatusTeamAssigned,
	models.StatusWorkStarted,
	models.StatusInProgress,
	models.StatusWorkCompleted,
	models.StatusQualityCheck,
	models.StatusClientHandover,
	models.StatusFinalInvoiceSent,
	models.StatusPaymentReceived,
	models.StatusProjectClosed,
	models.StatusOnHold,
	models.StatusCancelled,
}

// Статус из перечисления.
func Valid(s models.ProjectStatus) bool {
	_, ok := transitions[s]
	return ok
}

// Next возвращает копию списка допустимых следующих статусов.
func Next(from models.ProjectStatus) []models.ProjectStatus {
	next := transitions[from]
	out := make([]models.ProjectStatus, len(next))
	copy(out, next)
	return out
}

func IsTerminal(s models.ProjectStatus) bool {
	next, ok := transitions[s]
	return ok && len(next) == 0
}

func CanTransition(from, to models.ProjectStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check возвращает InvalidTransition, если ребра from -> to нет в графе.
func Check(from, to models.ProjectStatus) error {
	if !CanTransition(from, to) {
		return apperrors.InvalidTransition(string(from), string(to))
	}
	return nil
}

const (
	MinProgress = 0
	MaxProgress = 100
)

// ValidateProgress проверяет диапазон 0..100.
func ValidateProgress(progress int) error {
	if progress < MinProgress || progress > MaxProgress {
		return apperrors.Validation("Прогресс должен быть в диапазоне от 0 до 100")
	}
	return nil
}

// Progress вычисляет статус после обновления прогресса.
// Переходы системные и обходят проверку по графу, но каждый из них жёстко
// привязан к своему исходному статусу:
//   - team_assigned -> work_started при любом обновлении;
//   - work_started -> in_progress, если прогресс > 0;
//   - любой -> work_completed, когда прогресс ровно 100.
//
// Правила применяются по цепочке в одном обновлении. Из терминальных статусов
// проект не выходит.
func Progress(current models.ProjectStatus, progress int) (models.ProjectStatus, bool) {
	if IsTerminal(current) {
		return current, false
	}
	next := current
	if next == models.StatusTeamAssigned {
		next = models.StatusWorkStarted
	}
	if next == models.StatusWorkStarted && progress > 0 {
		next = models.StatusInProgress
	}
	if progress == MaxProgress && next != models.StatusWorkCompleted {
		next = models.StatusWorkCompleted
	}
	return next, next != current
}
