// Package attendance ведёт журнал посещаемости: одна отметка на человека, проект,
// день и вид отметки.
package attendance

import (
	"context"
	"errors"
	"sort"
	"time"

	"site-projects/internal/apperrors"
	"site-projects/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Ledger struct {
	db  *gorm.DB
	now func() time.Time
	loc *time.Location
}

func NewLedger(db *gorm.DB, now func() time.Time, loc *time.Location) *Ledger {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Ledger{db: db, now: now, loc: loc}
}

// Текущий рабочий день по часам журнала.
func (l *Ledger) Today() Day {
	return DayBucket(l.now(), l.loc)
}

func (l *Ledger) Location() *time.Location {
	return l.loc
}

type MarkInput struct {
	SubjectID uint
	ProjectID uint // 0: отметка без проекта
	Kind      models.AttendanceKind
	Day       Day   // пусто: сегодня
	Present   *bool // nil: значение не пришло или было не boolean
	MarkedBy  uint
}

// MarkPresence создаёт или обновляет единственную отметку по естественному ключу.
// Для отметок на проекте ставить их может только назначенный водитель.
func (l *Ledger) MarkPresence(ctx context.Context, in MarkInput) (models.Attendance, error) {
	if in.Present == nil {
		return models.Attendance{}, apperrors.Validation("Поле present должно быть boolean")
	}

	if in.Kind == "" {
		in.Kind = models.AttendanceNormal
		if in.ProjectID != 0 {
			in.Kind = models.AttendanceProject
		}
	}
	if !models.ValidAttendanceKind(in.Kind) {
		return models.Attendance{}, apperrors.Validation("Неизвестный вид отметки: " + string(in.Kind))
	}
	if in.Kind == models.AttendanceProject && in.ProjectID == 0 {
		return models.Attendance{}, apperrors.Validation("Для отметки на проекте нужен проект")
	}
	if in.Kind == models.AttendanceNormal && in.ProjectID != 0 {
		return models.Attendance{}, apperrors.Validation("Обычная отметка не привязывается к проекту")
	}

	day := in.Day
	if day == "" {
		day = l.Today()
	} else {
		parsed, err := ParseDay(string(day), l.loc)
		if err != nil {
			return models.Attendance{}, err
		}
		day = parsed
	}

	var saved models.Attendance
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var subject models.User
		if err := tx.First(&subject, in.SubjectID).Error; err != nil {
			return notFound(err, "Сотрудник не найден")
		}
		var marker models.User
		if err := tx.First(&marker, in.MarkedBy).Error; err != nil {
			return notFound(err, "Пользователь, ставящий отметку, не найден")
		}

		if in.Kind == models.AttendanceProject {
			var project models.Project
			if err := tx.Preload("Workers").First(&project, in.ProjectID).Error; err != nil {
				return notFound(err, "Проект не найден")
			}
			if !project.HasMember(subject.ID) {
				return apperrors.Conflict("Сотрудник не назначен на этот проект")
			}
			if !project.IsDriver(marker.ID) {
				return apperrors.Forbidden("Отмечать посещаемость может только назначенный водитель")
			}
		} else if !marker.Role.IsAdmin() && marker.ID != subject.ID {
			return apperrors.Forbidden("Недостаточно прав для отметки")
		}

		rec := models.Attendance{
			SubjectID:  subject.ID,
			ProjectID:  in.ProjectID,
			Day:        string(day),
			Kind:       in.Kind,
			Present:    *in.Present,
			MarkedByID: marker.ID,
		}
		// один INSERT ... ON CONFLICT, уникальный индекс не даст задвоить отметку
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "subject_id"}, {Name: "project_id"}, {Name: "day"}, {Name: "kind"},
			},
			DoUpdates: clause.AssignmentColumns([]string{"present", "marked_by_id", "updated_at"}),
		}).Create(&rec).Error
		if err != nil {
			return err
		}

		return tx.Preload("MarkedBy").
			Where("subject_id = ? AND project_id = ? AND day = ? AND kind = ?",
				rec.SubjectID, rec.ProjectID, rec.Day, rec.Kind).
			First(&saved).Error
	})
	if err != nil {
		return models.Attendance{}, err
	}
	return saved, nil
}

// Условия выборки; nil/пустые поля не ограничивают.
type Filter struct {
	SubjectID *uint
	ProjectID *uint // указатель на 0: только отметки без проекта
	Kind      models.AttendanceKind
	Range     DateRange
}

func (f Filter) apply(q *gorm.DB) *gorm.DB {
	if f.SubjectID != nil {
		q = q.Where("subject_id = ?", *f.SubjectID)
	}
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.Kind != "" {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Range.From != "" {
		q = q.Where("day >= ?", string(f.Range.From))
	}
	if f.Range.To != "" {
		q = q.Where("day <= ?", string(f.Range.To))
	}
	return q
}

// Query возвращает отметки, упорядоченные по дню.
func (l *Ledger) Query(ctx context.Context, f Filter) ([]models.Attendance, error) {
	if err := f.Range.Validate(); err != nil {
		return nil, err
	}
	var records []models.Attendance
	err := f.apply(l.db.WithContext(ctx)).
		Preload("Subject").
		Preload("MarkedBy").
		Order("day asc, subject_id asc, id asc").
		Find(&records).Error
	return records, err
}

// Рабочий проекта и его отметка за сегодня.
type TodayRow struct {
	UserID    uint       `json:"userId"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Phone     string     `json:"phone,omitempty"`
	Present   bool       `json:"present"`
	MarkedBy  *uint      `json:"markedBy"`
	MarkedAt  *time.Time `json:"markedAt"`
}

type TodayView struct {
	ProjectID   uint       `json:"projectId"`
	ProjectName string     `json:"projectName"`
	DriverID    *uint      `json:"driverId"`
	Date        Day        `json:"date"`
	Workers     []TodayRow `json:"workers"`
}

// TodayForProject сводит бригаду с сегодняшними отметками; без отметки present=false.
func (l *Ledger) TodayForProject(ctx context.Context, projectID uint) (TodayView, error) {
	today := l.Today()

	var view TodayView
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Preload("Workers", orderByID).First(&project, projectID).Error; err != nil {
			return notFound(err, "Проект не найден")
		}

		var records []models.Attendance
		if err := tx.Where("project_id = ? AND kind = ? AND day = ?", projectID, models.AttendanceProject, string(today)).
			Find(&records).Error; err != nil {
			return err
		}
		bySubject := make(map[uint]models.Attendance, len(records))
		for _, r := range records {
			bySubject[r.SubjectID] = r
		}

		view = TodayView{
			ProjectID:   project.ID,
			ProjectName: project.Name,
			DriverID:    project.DriverID,
			Date:        today,
			Workers:     make([]TodayRow, 0, len(project.Workers)),
		}
		for _, w := range project.Workers {
			row := TodayRow{UserID: w.ID, FirstName: w.FirstName, LastName: w.LastName, Phone: w.Phone}
			if r, ok := bySubject[w.ID]; ok {
				markedBy := r.MarkedByID
				markedAt := r.CreatedAt
				row.Present = r.Present
				row.MarkedBy = &markedBy
				row.MarkedAt = &markedAt
			}
			view.Workers = append(view.Workers, row)
		}
		return nil
	})
	return view, err
}

type SummaryWorker struct {
	UserID uint   `json:"userId"`
	Name   string `json:"name"`
}

// Один день: отметка каждого рабочего (nil, если не отмечен).
type SummaryRow struct {
	Date  Day            `json:"date"`
	Marks map[uint]*bool `json:"marks"`
}

type SummaryView struct {
	Dates   []Day           `json:"dates"`
	Workers []SummaryWorker `json:"workers"`
	Rows    []SummaryRow    `json:"summary"`
	Totals  map[uint]int    `json:"totals"`
}

// Summary строит матрицу «день × рабочий» и число дней присутствия по каждому.
func (l *Ledger) Summary(ctx context.Context, projectID uint, r DateRange) (SummaryView, error) {
	if err := r.Validate(); err != nil {
		return SummaryView{}, err
	}

	var view SummaryView
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Preload("Workers", orderByID).First(&project, projectID).Error; err != nil {
			return notFound(err, "Проект не найден")
		}

		pid := projectID
		var records []models.Attendance
		if err := (Filter{ProjectID: &pid, Kind: models.AttendanceProject, Range: r}).
			apply(tx).
			Order("day asc").
			Find(&records).Error; err != nil {
			return err
		}

		type key struct {
			day     Day
			subject uint
		}
		marks := make(map[key]bool, len(records))
		seen := map[Day]struct{}{}
		for _, rec := range records {
			marks[key{Day(rec.Day), rec.SubjectID}] = rec.Present
			seen[Day(rec.Day)] = struct{}{}
		}

		view.Dates = make([]Day, 0, len(seen))
		for d := range seen {
			view.Dates = append(view.Dates, d)
		}
		sort.Slice(view.Dates, func(i, j int) bool { return view.Dates[i] < view.Dates[j] })

		view.Workers = make([]SummaryWorker, 0, len(project.Workers))
		view.Totals = make(map[uint]int, len(project.Workers))
		for _, w := range project.Workers {
			view.Workers = append(view.Workers, SummaryWorker{UserID: w.ID, Name: w.FullName()})
			view.Totals[w.ID] = 0
		}

		view.Rows = make([]SummaryRow, 0, len(view.Dates))
		for _, d := range view.Dates {
			row := SummaryRow{Date: d, Marks: make(map[uint]*bool, len(project.Workers))}
			for _, w := range project.Workers {
				present, ok := marks[key{d, w.ID}]
				if !ok {
					row.Marks[w.ID] = nil
					continue
				}
				p := present
				row.Marks[w.ID] = &p
				if present {
					view.Totals[w.ID]++
				}
			}
			view.Rows = append(view.Rows, row)
		}
		return nil
	})
	return view, err
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
