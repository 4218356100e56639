// Package projects ведёт карточки проектов: создание, статусы, прогресс и бригада.
package projects

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"site-projects/internal/apperrors"
	"site-projects/internal/database"
	"site-projects/internal/lifecycle"
	"site-projects/internal/models"
	"site-projects/internal/notify"
	"site-projects/internal/pagination"

	"gorm.io/gorm"
)

const auditEntity = "project"

type Options struct {
	Now     func() time.Time
	Sender  notify.Sender
	BaseURL string // для ссылок в письмах
	Inbox   string // общий ящик, получает копии всех уведомлений
}

type Service struct {
	db      *gorm.DB
	now     func() time.Time
	sender  notify.Sender
	baseURL string
	inbox   string
}

func NewService(db *gorm.DB, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		db:      db,
		now:     opts.Now,
		sender:  opts.Sender,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		inbox:   opts.Inbox,
	}
}

//
// СОЗДАНИЕ
//

type CreateInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	ClientID        uint   `json:"clientId"`
	Location        string `json:"location"`
	Building        string `json:"building"`
	ApartmentNumber string `json:"apartmentNumber"`
}

func (in *CreateInput) normalize() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.Building = strings.TrimSpace(in.Building)
	in.ApartmentNumber = strings.TrimSpace(in.ApartmentNumber)

	switch {
	case len(in.Name) < 3:
		return apperrors.Validation("Название проекта должно быть не короче 3 символов")
	case in.ClientID == 0:
		return apperrors.Validation("Выберите клиента")
	case in.Location == "":
		return apperrors.Validation("Укажите локацию")
	case in.Building == "":
		return apperrors.Validation("Укажите здание")
	case in.ApartmentNumber == "":
		return apperrors.Validation("Укажите номер квартиры")
	}
	return nil
}

// Create заводит проект в статусе draft с нулевым прогрессом.
func (s *Service) Create(ctx context.Context, in CreateInput, actorID uint) (models.Project, error) {
	if err := in.normalize(); err != nil {
		return models.Project{}, err
	}

	var (
		id  uint
		err error
	)
	for attempt := 1; attempt <= createAttempts; attempt++ {
		id, err = s.create(ctx, in, actorID)
		// номер успел занять параллельный запрос, берём следующий
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	if err != nil {
		return models.Project{}, err
	}
	return s.Get(ctx, id)
}

const createAttempts = 3

func (s *Service) create(ctx context.Context, in CreateInput, actorID uint) (uint, error) {
	var id uint
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var client models.Client
		if err := tx.First(&client, in.ClientID).Error; err != nil {
			return notFound(err, "Клиент не найден")
		}

		number, err := s.nextNumber(tx)
		if err != nil {
			return err
		}

		project := models.Project{
			ProjectNumber:   number,
			Name:            in.Name,
			Description:     in.Description,
			ClientID:        client.ID,
			Location:        in.Location,
			Building:        in.Building,
			ApartmentNumber: in.ApartmentNumber,
			Status:          models.StatusDraft,
			Progress:        0,
			CreatedByID:     actorID,
			Version:         1,
		}
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		id = project.ID

		return database.CreateAuditLog(tx, actorID, auditEntity, project.ID, "create",
			"Создан проект: "+project.ProjectNumber+" "+project.Name)
	})
	return id, err
}

// nextNumber выдаёт номер вида PRJ-YYYYMM-NNNN, счётчик сбрасывается каждый месяц.
func (s *Service) nextNumber(tx *gorm.DB) (string, error) {
	prefix := fmt.Sprintf("PRJ-%s-", s.now().Format("200601"))

	// последний выданный номер месяца, включая удалённые проекты
	var last string
	if err := tx.Unscoped().Model(&models.Project{}).
		Where("project_number LIKE ?", prefix+"%").
		Select("COALESCE(MAX(project_number), '')").
		Scan(&last).Error; err != nil {
		return "", err
	}
	n := 0
	if last != "" {
		var err error
		if n, err = strconv.Atoi(strings.TrimPrefix(last, prefix)); err != nil {
			return "", apperrors.Wrap(apperrors.CodeInternal, "Некорректный номер проекта: "+last, err)
		}
	}
	return fmt.Sprintf("%s%04d", prefix, n+1), nil
}

//
// ЧТЕНИЕ
//

func (s *Service) Get(ctx context.Context, id uint) (models.Project, error) {
	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("Client").
		Preload("AssignedEngineer").
		Preload("Driver").
		Preload("Workers", orderByID).
		First(&project, id).Error
	if err != nil {
		return models.Project{}, notFound(err, "Проект не найден")
	}
	return project, nil
}

// Нулевые значения полей не ограничивают выборку.
type ListFilter struct {
	Status     models.ProjectStatus
	ClientID   uint
	DriverID   uint
	EngineerID uint
	Search     string
	Page       int
	Limit      int
}

func (f ListFilter) scope(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		db = db.Where("status = ?", f.Status)
	}
	if f.ClientID != 0 {
		db = db.Where("client_id = ?", f.ClientID)
	}
	if f.DriverID != 0 {
		db = db.Where("driver_id = ?", f.DriverID)
	}
	if f.EngineerID != 0 {
		db = db.Where("assigned_engineer_id = ?", f.EngineerID)
	}
	if search := strings.ToLower(strings.TrimSpace(f.Search)); search != "" {
		like := "%" + search + "%"
		db = db.Where(
			"LOWER(name) LIKE ? OR LOWER(project_number) LIKE ? OR LOWER(location) LIKE ? OR LOWER(building) LIKE ? OR LOWER(apartment_number) LIKE ?",
			like, like, like, like, like,
		)
	}
	return db
}

// List возвращает страницу проектов, свежие сверху.
func (s *Service) List(ctx context.Context, f ListFilter) (pagination.Page[models.Project], error) {
	if f.Status != "" && !lifecycle.Valid(f.Status) {
		return pagination.Page[models.Project]{}, apperrors.Validation("Некорректный статус")
	}
	params := pagination.Params{Page: f.Page, Limit: f.Limit}.Normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Project{}).Scopes(f.scope).Count(&total).Error; err != nil {
		return pagination.Page[models.Project]{}, err
	}

	items := []models.Project{}
	err := s.db.WithContext(ctx).
		Scopes(f.scope).
		Preload("Client").
		Preload("AssignedEngineer").
		Preload("Driver").
		Order("created_at desc, id desc").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&items).Error
	if err != nil {
		return pagination.Page[models.Project]{}, err
	}
	return pagination.Page[models.Project]{Items: items, Pagination: params.Meta(total)}, nil
}

// Проекты, где пользователь назначен водителем.
func (s *Service) DriverProjects(ctx context.Context, driverID uint, f ListFilter) (pagination.Page[models.Project], error) {
	f.DriverID = driverID
	return s.List(ctx, f)
}

type Team struct {
	ProjectID uint          `json:"projectId"`
	Workers   []models.User `json:"workers"`
	Driver    *models.User  `json:"driver"`
}

func (s *Service) Team(ctx context.Context, id uint) (Team, error) {
	project, err := s.Get(ctx, id)
	if err != nil {
		return Team{}, err
	}
	workers := project.Workers
	if workers == nil {
		workers = []models.User{}
	}
	return Team{ProjectID: project.ID, Workers: workers, Driver: project.Driver}, nil
}

// Комментарии об изменении прогресса, свежие сверху.
func (s *Service) ProgressUpdates(ctx context.Context, id uint) ([]models.Comment, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("project_id = ? AND action_type = ?", id, models.CommentProgressUpdate).
		Order("created_at desc, id desc").
		Find(&comments).Error
	return comments, err
}

// Журнал аудита проекта в хронологическом порядке.
func (s *Service) History(ctx context.Context, id uint) ([]models.AuditLog, error) {
	if err := s.exists(ctx, id); err != nil {
		return nil, err
	}
	logs, err := database.AuditLogs(s.db.WithContext(ctx), auditEntity, id, 0)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs, nil
}

//
// ИЗМЕНЕНИЕ
//

// Поля со значением nil не меняются.
type UpdateInput struct {
	Name            *string               `json:"name"`
	Description     *string               `json:"description"`
	ClientID        *uint                 `json:"clientId"`
	Location        *string               `json:"location"`
	Building        *string               `json:"building"`
	ApartmentNumber *string               `json:"apartmentNumber"`
	Status          *models.ProjectStatus `json:"status"`
	Progress        *int                  `json:"progress"`
}

// Update меняет описательные поля; статус проходит через граф переходов.
// Автопереходы по прогрессу срабатывают, только если прогресс изменился и
// статус в том же запросе не задан.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput, actorID uint) (models.Project, error) {
	if in.Status != nil {
		if err := checkStatus(*in.Status); err != nil {
			return models.Project{}, err
		}
	}
	if in.Progress != nil {
		if err := lifecycle.ValidateProgress(*in.Progress); err != nil {
			return models.Project{}, err
		}
	}

	var oldProgress int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := load(tx, id)
		if err != nil {
			return err
		}
		oldProgress = project.Progress

		fields := map[string]any{"updated_by_id": actorID}
		text := func(column string, v *string, required bool) error {
			if v == nil {
				return nil
			}
			val := strings.TrimSpace(*v)
			if required && val == "" {
				return apperrors.Validation("Поле " + column + " не может быть пустым")
			}
			fields[column] = val
			return nil
		}
		if err := text("name", in.Name, true); err != nil {
			return err
		}
		if err := text("description", in.Description, false); err != nil {
			return err
		}
		if err := text("location", in.Location, true); err != nil {
			return err
		}
		if err := text("building", in.Building, true); err != nil {
			return err
		}
		if err := text("apartment_number", in.ApartmentNumber, true); err != nil {
			return err
		}
		if in.ClientID != nil {
			var client models.Client
			if err := tx.First(&client, *in.ClientID).Error; err != nil {
				return notFound(err, "Клиент не найден")
			}
			fields["client_id"] = client.ID
		}

		from := project.Status
		status := project.Status
		if in.Status != nil {
			if err := lifecycle.Check(status, *in.Status); err != nil {
				return err
			}
			status = *in.Status
		}
		progress := project.Progress
		if in.Progress != nil {
			progress = *in.Progress
			fields["progress"] = progress
			// явно запрошенный статус важнее автоперехода
			if in.Status == nil && progress != oldProgress {
				status, _ = lifecycle.Progress(status, progress)
			}
		}
		if status != from {
			fields["status"] = status
			fields["last_status_change_at"] = s.now()
		}

		if err := s.save(tx, &project, fields); err != nil {
			return err
		}
		if status != from {
			if err := s.recordStatus(tx, project.ID, from, status, actorID); err != nil {
				return err
			}
		}
		if progress != oldProgress {
			if err := s.recordProgress(tx, project.ID, oldProgress, progress, "", actorID); err != nil {
				return err
			}
		}
		return database.CreateAuditLog(tx, actorID, auditEntity, project.ID, "update", "Проект обновлён")
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

// Delete удаляет проект; разрешено только в статусе draft.
func (s *Service) Delete(ctx context.Context, id uint, actorID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		project, err := load(tx, id)
		if err != nil {
			return err
		}
		if project.Status != models.StatusDraft {
			return apperrors.InvalidOperation("Удалить можно только проект в статусе draft")
		}
		// статус повторно проверяется в самом DELETE
		res := tx.Where("status = ?", models.StatusDraft).Delete(&project)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.InvalidOperation("Удалить можно только проект в статусе draft")
		}
		return database.CreateAuditLog(tx, actorID, auditEntity, project.ID, "delete",
			"Удалён проект: "+project.ProjectNumber)
	})
}

//
// ВСПОМОГАТЕЛЬНОЕ
//

// save пишет поля только если версия в базе совпадает с прочитанной, иначе Conflict.
func (s *Service) save(tx *gorm.DB, project *models.Project, fields map[string]any) error {
	fields["version"] = gorm.Expr("version + 1")
	res := tx.Model(&models.Project{}).
		Where("id = ? AND version = ?", project.ID, project.Version).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperrors.Conflict("Проект был изменён другим запросом, повторите попытку")
	}
	project.Version++
	return nil
}

func (s *Service) recordStatus(tx *gorm.DB, projectID uint, from, to models.ProjectStatus, actorID uint) error {
	details := fmt.Sprintf("Статус изменён: %s -> %s", from, to)
	if err := database.CreateAuditLog(tx, actorID, auditEntity, projectID, "status_change", details); err != nil {
		return err
	}
	return tx.Create(&models.Comment{
		ProjectID:  projectID,
		UserID:     actorID,
		ActionType: models.CommentStatusChange,
		Content:    details,
	}).Error
}

func (s *Service) recordProgress(tx *gorm.DB, projectID uint, from, to int, note string, actorID uint) error {
	content := strings.TrimSpace(note)
	if content == "" {
		content = fmt.Sprintf("Прогресс изменён с %d%% до %d%%", from, to)
	}
	progress := to
	return tx.Create(&models.Comment{
		ProjectID:  projectID,
		UserID:     actorID,
		ActionType: models.CommentProgressUpdate,
		Content:    content,
		Progress:   &progress,
	}).Error
}

func (s *Service) exists(ctx context.Context, id uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NotFound("Проект не найден")
	}
	return nil
}

func load(tx *gorm.DB, id uint) (models.Project, error) {
	var project models.Project
	if err := tx.First(&project, id).Error; err != nil {
		return models.Project{}, notFound(err, "Проект не найден")
	}
	return project, nil
}

func checkStatus(status models.ProjectStatus) error {
	if status == "" {
		return apperrors.Validation("Статус обязателен")
	}
	if !lifecycle.Valid(status) {
		return apperrors.Validation("Некорректный статус: " + string(status))
	}
	return nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("users.id asc")
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(msg)
	}
	return err
}
