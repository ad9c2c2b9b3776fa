// Package view computes the filtered task list and aggregate statistics.
// Everything here is a pure function of its inputs.
package view

import (
	"slices"
	"strings"
	"time"

	"github.com/benvon/smart-tasks/internal/models"
)

// Filter returns the tasks matching every dimension of criteria, in their original order.
func Filter(tasks []models.Task, criteria models.FilterCriteria) []models.Task {
	search := strings.ToLower(strings.TrimSpace(criteria.Search))

	out := make([]models.Task, 0, len(tasks))
	for _, task := range tasks {
		if criteria.Status != "" && criteria.Status != models.StatusAll && string(task.Status) != criteria.Status {
			continue
		}
		if len(criteria.Priority) > 0 && !slices.Contains(criteria.Priority, task.Priority) {
			continue
		}
		if len(criteria.Category) > 0 && !slices.Contains(criteria.Category, task.Category) {
			continue
		}
		if search != "" && !matchesSearch(task, search) {
			continue
		}
		out = append(out, task)
	}
	return out
}

// matchesSearch expects needle to be lowercased and trimmed already
func matchesSearch(task models.Task, needle string) bool {
	if strings.Contains(strings.ToLower(task.Title), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(task.Description), needle) {
		return true
	}
	return slices.ContainsFunc(task.Tags, func(tag string) bool {
		return strings.Contains(strings.ToLower(tag), needle)
	})
}

// Snapshot is everything a presentation layer needs to render the list in one payload
type Snapshot struct {
	Tasks      []models.Task         `json:"tasks"`
	Statistics models.Statistics     `json:"statistics"`
	Categories []models.Category     `json:"categories"`
	Filters    models.FilterCriteria `json:"filters"`
	Overdue    int                   `json:"overdue"`
	DueToday   int                   `json:"dueToday"`
}

// Build filters tasks and computes statistics over the full collection
func Build(tasks []models.Task, categories []models.Category, criteria models.FilterCriteria, now time.Time) Snapshot {
	s := Snapshot{
		Tasks:      Filter(tasks, criteria),
		Statistics: ComputeStatistics(tasks),
		Categories: categories,
		Filters:    criteria,
	}
	for _, task := range tasks {
		if task.Overdue(now) {
			s.Overdue++
		}
		if task.DueToday(now) && task.Status != models.TaskStatusDone {
			s.DueToday++
		}
	}
	return s
}
