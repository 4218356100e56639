package projects

import (
	"context"
	"fmt"
	"strings"

	"site-projects/internal/apperrors"
	"site-projects/internal/database"
	"site-projects/internal/lifecycle"
	"site-projects/internal/models"

	"gorm.io/gorm"
)

//
// СМЕНА СТАТУСА
//

// RequestTransition переводит проект в target, если ребро есть в графе.
func (s *Service) RequestTransition(ctx context.Context, id uint, target models.ProjectStatus, actorID uint) (models.Project, error) {
	if err := checkStatus(target); err != nil {
		return models.Project{}, err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := load(tx, id)
		if err != nil {
			return err
		}
		from := project.Status
		if err := lifecycle.Check(from, target); err != nil {
			return err
		}
		if err := s.save(tx, &project, map[string]any{
			"status":                target,
			"updated_by_id":         actorID,
			"last_status_change_at": s.now(),
		}); err != nil {
			return err
		}
		return s.recordStatus(tx, project.ID, from, target, actorID)
	})
	if err != nil {
		return models.Project{}, err
	}
	return s.Get(ctx, id)
}

//
// ПРОГРЕСС
//

// UpdateProgress сохраняет прогресс и применяет автопереходы статуса в одной
// транзакции. Письмо уходит после коммита и только если прогресс изменился.
func (s *Service) UpdateProgress(ctx context.Context, id uint, progress int, note string, actorID uint) (models.Project, error) {
	if err := lifecycle.ValidateProgress(progress); err != nil {
		return models.Project{}, err
	}

	var oldProgress int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := load(tx, id)
		if err != nil {
			return err
		}
		oldProgress = project.Progress
		from := project.Status

		fields := map[string]any{
			"progress":      progress,
			"updated_by_id": actorID,
		}
		to, changed := lifecycle.Progress(from, progress)
		if changed {
			fields["status"] = to
			fields["last_status_change_at"] = s.now()
		}
		if err := s.save(tx, &project, fields); err != nil {
			return err
		}
		if changed {
			if err := s.recordStatus(tx, project.ID, from, to, actorID); err != nil {
				return err
			}
		}
		if progress == oldProgress && strings.TrimSpace(note) == "" {
			return nil
		}
		return s.recordProgress(tx, project.ID, oldProgress, progress, note, actorID)
	})
	if err != nil {
		return models.Project{}, err
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	if project.Progress != oldProgress {
		s.notifyProgress(ctx, project, oldProgress)
	}
	return project, nil
}

//
// НАЗНАЧЕНИЯ
//

// AssignEngineer назначает ответственного инженера и отправляет ему письмо.
func (s *Service) AssignEngineer(ctx context.Context, id, engineerID uint, actorID uint) (models.Project, error) {
	if engineerID == 0 {
		return models.Project{}, apperrors.Validation("Выберите инженера")
	}

	var engineer models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := load(tx, id)
		if err != nil {
			return err
		}
		if err := tx.First(&engineer, engineerID).Error; err != nil {
			return notFound(err, "Инженер не найден")
		}
		if engineer.Role != models.RoleEngineer {
			return apperrors.Validation("Пользователь не является инженером")
		}
		if err := s.save(tx, &project, map[string]any{
			"assigned_engineer_id": engineer.ID,
			"updated_by_id":        actorID,
		}); err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actorID, auditEntity, project.ID, "assign_engineer",
			"Назначен инженер: "+engineer.FullName())
	})
	if err != nil {
		return models.Project{}, err
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	s.notifyEngineer(ctx, project, engineer)
	return project, nil
}

// AssignTeam задаёт бригаду проекта в статусе lpo_received и переводит его в team_assigned.
func (s *Service) AssignTeam(ctx context.Context, id uint, workerIDs []uint, driverID uint, actorID uint) (models.Project, error) {
	workerIDs = uniqueIDs(workerIDs)
	if len(workerIDs) == 0 {
		return models.Project{}, apperrors.Validation("Нужен хотя бы один рабочий")
	}
	if driverID == 0 {
		return models.Project{}, apperrors.Validation("Выберите водителя")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := load(tx, id)
		if err != nil {
			return err
		}
		from := project.Status
		if err := lifecycle.Check(from, models.StatusTeamAssigned); err != nil {
			return err
		}

		var workers []models.User
		if err := tx.Where("id IN ? AND role = ?", workerIDs, models.RoleWorker).Find(&workers).Error; err != nil {
			return err
		}
		if len(workers) != len(workerIDs) {
			return apperrors.Validation("Все рабочие должны существовать и иметь роль worker")
		}
		var driver models.User
		if err := tx.First(&driver, driverID).Error; err != nil {
			return notFound(err, "Водитель не найден")
		}
		if driver.Role != models.RoleDriver {
			return apperrors.Validation("Пользователь не является водителем")
		}

		if err := s.save(tx, &project, map[string]any{
			"driver_id":             driver.ID,
			"status":                models.StatusTeamAssigned,
			"updated_by_id":         actorID,
			"last_status_change_at": s.now(),
		}); err != nil {
			return err
		}
		if err := tx.Model(&project).Association("Workers").Replace(workers); err != nil {
			return err
		}
		if err := s.recordStatus(tx, project.ID, from, models.StatusTeamAssigned, actorID); err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actorID, auditEntity, project.ID, "assign_team",
			fmt.Sprintf("Назначена бригада: %d рабочих, водитель %s", len(workers), driver.FullName()))
	})
	if err != nil {
		return models.Project{}, err
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return models.Project{}, err
	}
	s.notifyTeam(ctx, project)
	return project, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
