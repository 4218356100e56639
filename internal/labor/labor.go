// Package labor считает трудозатраты проекта по журналу посещаемости.
//
// Рабочему платят за каждый свой день присутствия на проекте. Водителю платят
// за каждый день, когда на проекте вообще кто-то был отмечен присутствующим:
// он возит и контролирует всю бригаду, поэтому его личные отметки не важны.
package labor

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"site-projects/internal/apperrors"
	"site-projects/internal/attendance"
	"site-projects/internal/models"

	"gorm.io/gorm"
)

// DriverScope определяет, какие дни учитываются для водителя.
type DriverScope string

const (
	// Все дни активности проекта, независимо от запрошенного диапазона.
	DriverScopeProject DriverScope = "project"
	// Только дни внутри запрошенного диапазона, как у рабочих.
	DriverScopeRange DriverScope = "range"
)

func ParseDriverScope(s string) (DriverScope, error) {
	switch DriverScope(s) {
	case DriverScopeProject, "":
		return DriverScopeProject, nil
	case DriverScopeRange:
		return DriverScopeRange, nil
	}
	return "", fmt.Errorf("unknown driver days scope %q", s)
}

type Options struct {
	DriverDaysScope DriverScope
}

type Person struct {
	ID        uint
	Name      string
	DailyWage float64
}

// Roster — бригада проекта на момент расчёта.
type Roster struct {
	ProjectID uint
	Workers   []Person
	Driver    *Person
}

// RosterOf собирает Roster из проекта с загруженными Workers и Driver.
func RosterOf(p models.Project) Roster {
	r := Roster{ProjectID: p.ID, Workers: make([]Person, 0, len(p.Workers))}
	for _, w := range p.Workers {
		r.Workers = append(r.Workers, Person{ID: w.ID, Name: w.FullName(), DailyWage: w.DailyWage})
	}
	if p.Driver != nil {
		r.Driver = &Person{ID: p.Driver.ID, Name: p.Driver.FullName(), DailyWage: p.Driver.DailyWage}
	}
	return r
}

type Line struct {
	UserID      uint    `json:"userId"`
	Name        string  `json:"name"`
	DaysPresent int     `json:"daysPresent"`
	DailyWage   float64 `json:"dailyWage"`
	TotalWage   float64 `json:"totalWage"`
	Placeholder bool    `json:"placeholder,omitempty"`
}

type Snapshot struct {
	ProjectID      uint                 `json:"projectId"`
	Range          attendance.DateRange `json:"range"`
	Workers        []Line               `json:"workers"`
	Driver         Line                 `json:"driver"`
	TotalLaborCost float64              `json:"totalLaborCost"`
}

// Чистый расчёт по бригаде и отметкам. Учитываются только отметки
// present=true вида project для этого проекта.
func Compute(roster Roster, records []models.Attendance, rng attendance.DateRange, opts Options) Snapshot {
	workerDays := make(map[uint]int, len(roster.Workers))
	activeDays := map[string]struct{}{}

	for _, rec := range records {
		if rec.ProjectID != roster.ProjectID || rec.Kind != models.AttendanceProject || !rec.Present {
			continue
		}
		inRange := rng.Includes(attendance.Day(rec.Day))
		if inRange {
			workerDays[rec.SubjectID]++
		}
		if opts.DriverDaysScope != DriverScopeRange || inRange {
			activeDays[rec.Day] = struct{}{}
		}
	}

	snap := Snapshot{
		ProjectID: roster.ProjectID,
		Range:     rng,
		Workers:   make([]Line, 0, len(roster.Workers)),
	}

	workers := append([]Person(nil), roster.Workers...)
	sort.Slice(workers, func(i, j int) bool { return workers[i].ID < workers[j].ID })

	var total float64
	for _, w := range workers {
		days := workerDays[w.ID]
		line := Line{
			UserID:      w.ID,
			Name:        w.Name,
			DaysPresent: days,
			DailyWage:   w.DailyWage,
			TotalWage:   float64(days) * w.DailyWage,
		}
		total += line.TotalWage
		snap.Workers = append(snap.Workers, line)
	}

	if roster.Driver != nil {
		days := len(activeDays)
		snap.Driver = Line{
			UserID:      roster.Driver.ID,
			Name:        roster.Driver.Name,
			DaysPresent: days,
			DailyWage:   roster.Driver.DailyWage,
			TotalWage:   float64(days) * roster.Driver.DailyWage,
		}
	} else {
		// водителя нет: нулевая строка-заглушка вместо ошибки
		snap.Driver = Line{Placeholder: true}
	}
	total += snap.Driver.TotalWage

	snap.TotalLaborCost = total
	return snap
}

type Aggregator struct {
	db   *gorm.DB
	opts Options
}

func NewAggregator(db *gorm.DB, opts Options) *Aggregator {
	if opts.DriverDaysScope == "" {
		opts.DriverDaysScope = DriverScopeProject
	}
	return &Aggregator{db: db, opts: opts}
}

// Snapshot читает бригаду и отметки в одной транзакции и считает трудозатраты.
func (a *Aggregator) Snapshot(ctx context.Context, projectID uint, rng attendance.DateRange) (Snapshot, error) {
	return a.SnapshotTx(a.db.WithContext(ctx), projectID, rng)
}

// То же внутри уже открытой транзакции вызывающего.
func (a *Aggregator) SnapshotTx(db *gorm.DB, projectID uint, rng attendance.DateRange) (Snapshot, error) {
	if err := rng.Validate(); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	err := db.Transaction(func(tx *gorm.DB) error {
		var project models.Project
		if err := tx.Preload("Workers").Preload("Driver").First(&project, projectID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("Проект не найден")
			}
			return err
		}

		q := tx.Where("project_id = ? AND kind = ? AND present = ?", projectID, models.AttendanceProject, true)
		if a.opts.DriverDaysScope == DriverScopeRange {
			if rng.From != "" {
				q = q.Where("day >= ?", string(rng.From))
			}
			if rng.To != "" {
				q = q.Where("day <= ?", string(rng.To))
			}
		}
		var records []models.Attendance
		if err := q.Order("day asc").Find(&records).Error; err != nil {
			return err
		}

		snap = Compute(RosterOf(project), records, rng, a.opts)
		return nil
	})
	return snap, err
}
