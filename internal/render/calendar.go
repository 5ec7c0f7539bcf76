package render

import (
	"fmt"
	"time"

	"ledger/internal/core"
	"ledger/internal/derive"
)

// Weekdays are the calendar column headers, Monday first.
var Weekdays = [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

var monthNames = [12]string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// Cell is one square of the grid. Day is zero for leading and trailing
// blanks.
type Cell struct {
	Day       int
	Today     bool
	Purchases int
	Sales     int
}

func (c Cell) Blank() bool { return c.Day == 0 }

type Calendar struct {
	Year  int
	Month time.Month
	Title string
	Weeks [][7]Cell
}

// CalendarGrid lays out a month in Monday-first weeks with the day counts
// from buckets.
func CalendarGrid(year int, month time.Month, buckets map[int]derive.DayBucket, today core.Date) Calendar {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	lead := (int(first.Weekday()) + 6) % 7

	cal := Calendar{
		Year:  year,
		Month: month,
		Title: fmt.Sprintf("%s %d", monthNames[month-1], year),
	}
	var week [7]Cell
	col := lead
	for day := 1; day <= days; day++ {
		b := buckets[day]
		week[col] = Cell{
			Day:       day,
			Today:     today.Year() == year && today.Month() == int(month) && today.Day() == day,
			Purchases: b.PurchaseCount,
			Sales:     b.SaleCount,
		}
		col++
		if col == 7 {
			cal.Weeks = append(cal.Weeks, week)
			week, col = [7]Cell{}, 0
		}
	}
	if col > 0 {
		cal.Weeks = append(cal.Weeks, week)
	}
	return cal
}
