// Package expenses хранит расходы по проекту: материалы плюс снимок трудозатрат,
// зафиксированный на момент сохранения. Старые снимки задним числом не пересчитываются.
package expenses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"site-projects/internal/apperrors"
	"site-projects/internal/attendance"
	"site-projects/internal/database"
	"site-projects/internal/labor"
	"site-projects/internal/models"
	"site-projects/internal/pagination"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"
)

const auditEntity = "expense"

// суммы в журнале пишутся с разделителями разрядов: 12,500.00
var money = message.NewPrinter(language.English)

type Service struct {
	db  *gorm.DB
	agg *labor.Aggregator
	now func() time.Time
	loc *time.Location
}

func NewService(db *gorm.DB, agg *labor.Aggregator, now func() time.Time, loc *time.Location) *Service {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: db, agg: agg, now: now, loc: loc}
}

// Строка материалов как она приходит от клиента.
type MaterialInput struct {
	Description string   `json:"description"`
	Date        string   `json:"date"` // пусто: текущий момент
	InvoiceNo   string   `json:"invoiceNo"`
	Amount      *float64 `json:"amount"`
}

func (s *Service) materials(in []MaterialInput) ([]models.MaterialItem, error) {
	if in == nil {
		return nil, apperrors.Validation("Список материалов обязателен")
	}
	items := make([]models.MaterialItem, 0, len(in))
	for i, m := range in {
		n := i + 1
		desc := strings.TrimSpace(m.Description)
		invoice := strings.TrimSpace(m.InvoiceNo)
		switch {
		case desc == "":
			return nil, apperrors.Validation(fmt.Sprintf("Материал %d: укажите описание", n))
		case invoice == "":
			return nil, apperrors.Validation(fmt.Sprintf("Материал %d: укажите номер счёта", n))
		case m.Amount == nil:
			return nil, apperrors.Validation(fmt.Sprintf("Материал %d: укажите сумму", n))
		case *m.Amount < 0:
			return nil, apperrors.Validation(fmt.Sprintf("Материал %d: сумма не может быть отрицательной", n))
		}
		date, err := s.parseDate(m.Date)
		if err != nil {
			return nil, apperrors.Validation(fmt.Sprintf("Материал %d: некорректная дата", n))
		}
		items = append(items, models.MaterialItem{
			Description: desc,
			Date:        date,
			InvoiceNo:   invoice,
			Amount:      *m.Amount,
		})
	}
	return items, nil
}

func (s *Service) parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return s.now(), nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	day, err := attendance.ParseDay(v, s.loc)
	if err != nil {
		return time.Time{}, err
	}
	return day.Start(s.loc), nil
}

// laborLines переводит снимок в строки расхода; водитель идёт последним.
func laborLines(snap labor.Snapshot) []models.LaborLine {
	lines := make([]models.LaborLine, 0, len(snap.Workers)+1)
	for _, w := range snap.Workers {
		lines = append(lines, models.LaborLine{
			Role:        models.LaborWorker,
			UserID:      w.UserID,
			Name:        w.Name,
			DaysPresent: w.DaysPresent,
			DailyWage:   w.DailyWage,
			TotalWage:   w.TotalWage,
		})
	}
	lines = append(lines, models.LaborLine{
		Role:        models.LaborDriver,
		UserID:      snap.Driver.UserID,
		Name:        snap.Driver.Name,
		DaysPresent: snap.Driver.DaysPresent,
		DailyWage:   snap.Driver.DailyWage,
		TotalWage:   snap.Driver.TotalWage,
	})
	return lines
}

//
// СОЗДАНИЕ И ИЗМЕНЕНИЕ
//

// Create сохраняет расход; снимок трудозатрат берётся в той же транзакции.
func (s *Service) Create(ctx context.Context, projectID uint, in []MaterialInput, actorID uint) (models.Expense, error) {
	items, err := s.materials(in)
	if err != nil {
		return models.Expense{}, err
	}

	var id uint
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		snap, err := s.agg.SnapshotTx(tx, projectID, attendance.DateRange{})
		if err != nil {
			return err
		}
		expense := models.Expense{
			ProjectID:   projectID,
			Materials:   items,
			LaborLines:  laborLines(snap),
			CreatedByID: actorID,
		}
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}
		id = expense.ID
		return database.CreateAuditLog(tx, actorID, auditEntity, expense.ID, "create",
			money.Sprintf("Расход по проекту %d: материалы %.2f, труд %.2f", projectID, expense.TotalMaterialCost, expense.TotalLaborCost))
	})
	if err != nil {
		return models.Expense{}, err
	}
	return s.Get(ctx, id)
}

// Update заменяет материалы и заново снимает трудозатраты на текущий момент.
func (s *Service) Update(ctx context.Context, id uint, in []MaterialInput, actorID uint) (models.Expense, error) {
	items, err := s.materials(in)
	if err != nil {
		return models.Expense{}, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expense models.Expense
		if err := tx.First(&expense, id).Error; err != nil {
			return notFound(err, "Расход не найден")
		}
		snap, err := s.agg.SnapshotTx(tx, expense.ProjectID, attendance.DateRange{})
		if err != nil {
			return err
		}

		if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.MaterialItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("expense_id = ?", expense.ID).Delete(&models.LaborLine{}).Error; err != nil {
			return err
		}

		lines := laborLines(snap)
		for i := range items {
			items[i].ExpenseID = expense.ID
		}
		for i := range lines {
			lines[i].ExpenseID = expense.ID
		}
		if len(items) > 0 {
			if err := tx.Create(&items).Error; err != nil {
				return err
			}
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}

		expense.Materials = items
		expense.LaborLines = lines
		expense.RecalculateTotals()
		if err := tx.Model(&models.Expense{}).Where("id = ?", expense.ID).Updates(map[string]any{
			"total_material_cost": expense.TotalMaterialCost,
			"total_labor_cost":    expense.TotalLaborCost,
		}).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actorID, auditEntity, expense.ID, "update",
			money.Sprintf("Расход обновлён: материалы %.2f, труд %.2f", expense.TotalMaterialCost, expense.TotalLaborCost))
	})
	if err != nil {
		return models.Expense{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint, actorID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var expense models.Expense
		if err := tx.First(&expense, id).Error; err != nil {
			return notFound(err, "Расход не найден")
		}
		if err := tx.Select("Materials", "LaborLines").Delete(&expense).Error; err != nil {
			return err
		}
		return database.CreateAuditLog(tx, actorID, auditEntity, expense.ID, "delete",
			fmt.Sprintf("Удалён расход по проекту %d", expense.ProjectID))
	})
}

//
// ЧТЕНИЕ
//

func withLines(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Materials", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("LaborLines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
}

func (s *Service) Get(ctx context.Context, id uint) (models.Expense, error) {
	var expense models.Expense
	err := withLines(s.db.WithContext(ctx)).Preload("CreatedBy").First(&expense, id).Error
	if err != nil {
		return models.Expense{}, notFound(err, "Расход не найден")
	}
	return expense, nil
}

// Расходы проекта, свежие сверху.
func (s *Service) ListByProject(ctx context.Context, projectID uint, p pagination.Params) (pagination.Page[models.Expense], error) {
	if err := s.projectExists(ctx, projectID); err != nil {
		return pagination.Page[models.Expense]{}, err
	}
	p = p.Normalize()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Expense{}).Where("project_id = ?", projectID).Count(&total).Error; err != nil {
		return pagination.Page[models.Expense]{}, err
	}

	items := []models.Expense{}
	err := withLines(s.db.WithContext(ctx)).
		Preload("CreatedBy").
		Where("project_id = ?", projectID).
		Order("created_at desc, id desc").
		Offset(p.Offset()).
		Limit(p.Limit).
		Find(&items).Error
	if err != nil {
		return pagination.Page[models.Expense]{}, err
	}
	return pagination.Page[models.Expense]{Items: items, Pagination: p.Meta(total)}, nil
}

type Summary struct {
	ProjectID         uint    `json:"projectId"`
	ExpenseCount      int     `json:"expenseCount"`
	TotalMaterialCost float64 `json:"totalMaterialCost"`
	TotalLaborCost    float64 `json:"totalLaborCost"`
	WorkersCost       float64 `json:"workersCost"`
	DriverCost        float64 `json:"driverCost"`
	TotalExpenses     float64 `json:"totalExpenses"`
}

// Summary складывает сохранённые снимки всех расходов проекта.
func (s *Service) Summary(ctx context.Context, projectID uint) (Summary, error) {
	if err := s.projectExists(ctx, projectID); err != nil {
		return Summary{}, err
	}
	var list []models.Expense
	if err := s.db.WithContext(ctx).Preload("LaborLines").Where("project_id = ?", projectID).Find(&list).Error; err != nil {
		return Summary{}, err
	}

	sum := Summary{ProjectID: projectID, ExpenseCount: len(list)}
	for i := range list {
		e := &list[i]
		sum.TotalMaterialCost += e.TotalMaterialCost
		sum.TotalLaborCost += e.TotalLaborCost
		sum.WorkersCost += e.WorkersCost()
		sum.DriverCost += e.DriverCost()
	}
	sum.TotalExpenses = sum.TotalMaterialCost + sum.TotalLaborCost
	return sum, nil
}

// Текущий расчёт трудозатрат без сохранения.
func (s *Service) LaborData(ctx context.Context, projectID uint, rng attendance.DateRange) (labor.Snapshot, error) {
	return s.agg.Snapshot(ctx, projectID, rng)
}

func (s *Service) projectExists(ctx context.Context, projectID uint) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Project{}).Where("id = ?", projectID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperrors.NotFound("Проект не найден")
	}
	return nil
}

func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(msg)
	}
	return err
}
