// Package partition splits a vehicle's records into the history and upcoming views.
package partition

import (
	"math"
	"sort"
	"time"

	"github.com/ukydev/maintenance-tracker/internal/models"
)

// UpcomingView is a planned record annotated relative to a reference instant.
type UpcomingView struct {
	Record     models.MaintenanceRecord `json:"record"`
	TargetDate time.Time                `json:"target_date"`
	IsOverdue  bool                     `json:"is_overdue"`
	DaysUntil  int                      `json:"days_until"`
}

// Result holds completed work, most recent first, and planned work, soonest first.
type Result struct {
	History  []models.MaintenanceRecord `json:"history"`
	Upcoming []UpcomingView             `json:"upcoming"`
}

// Partition is pure; records is not modified.
func Partition(records []models.MaintenanceRecord, now time.Time) Result {
	res := Result{
		History:  []models.MaintenanceRecord{},
		Upcoming: []UpcomingView{},
	}
	for _, r := range records {
		if !r.IsPlanned {
			res.History = append(res.History, r)
			continue
		}
		target := r.TargetDate()
		res.Upcoming = append(res.Upcoming, UpcomingView{
			Record:     r,
			TargetDate: target,
			IsOverdue:  target.Before(now),
			DaysUntil:  DaysUntil(target, now),
		})
	}

	sort.SliceStable(res.History, func(i, j int) bool {
		a, b := res.History[i], res.History[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.ID < b.ID
	})
	sort.SliceStable(res.Upcoming, func(i, j int) bool {
		a, b := res.Upcoming[i], res.Upcoming[j]
		if !a.TargetDate.Equal(b.TargetDate) {
			return a.TargetDate.Before(b.TargetDate)
		}
		return a.Record.ID < b.Record.ID
	})
	return res
}

// DaysUntil rounds the distance from now to target to whole days. Negative values
// mean the target has passed.
func DaysUntil(target, now time.Time) int {
	return int(math.Round(target.Sub(now).Hours() / 24))
}
