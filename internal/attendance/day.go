package attendance

import (
	"strings"
	"time"

	"site-projects/internal/apperrors"
)

const DayLayout = "2006-01-02"

// Day — календарный день в рабочем часовом поясе, формат YYYY-MM-DD.
// Строковое сравнение дней совпадает с хронологическим.
type Day string

// DayBucket приводит момент времени к полуночи рабочего дня.
func DayBucket(t time.Time, loc *time.Location) Day {
	if loc == nil {
		loc = time.UTC
	}
	return Day(t.In(loc).Format(DayLayout))
}

// ParseDay принимает YYYY-MM-DD или RFC3339; второй вариант приводится к дню в loc.
func ParseDay(s string, loc *time.Location) (Day, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperrors.Validation("Дата не указана")
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DayLayout, s, loc); err == nil {
		return DayBucket(t, loc), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DayBucket(t, loc), nil
	}
	return "", apperrors.Validation("Некорректная дата: " + s)
}

// Полночь дня в loc.
func (d Day) Start(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DayLayout, string(d), loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Полуинтервал [начало дня, начало дня + 24ч).
func (d Day) Range(loc *time.Location) (time.Time, time.Time) {
	start := d.Start(loc)
	return start, start.Add(24 * time.Hour)
}

// Попадает ли момент в этот день.
func (d Day) Contains(t time.Time, loc *time.Location) bool {
	from, to := d.Range(loc)
	return !t.Before(from) && t.Before(to)
}

func (d Day) String() string {
	return string(d)
}

// Включительный диапазон дней; пустая граница означает «без ограничения».
type DateRange struct {
	From Day `json:"from,omitempty"`
	To   Day `json:"to,omitempty"`
}

func (r DateRange) IsZero() bool {
	return r.From == "" && r.To == ""
}

func (r DateRange) Includes(d Day) bool {
	if r.From != "" && d < r.From {
		return false
	}
	if r.To != "" && d > r.To {
		return false
	}
	return true
}

func (r DateRange) Validate() error {
	if r.From != "" && r.To != "" && r.From > r.To {
		return apperrors.Validation("Начальная дата позже конечной")
	}
	return nil
}
