package view

import (
	"math"

	"github.com/benvon/smart-tasks/internal/models"
)

// ComputeStatistics counts tasks by status, priority and category.
// completionRate is the rounded percentage of done tasks and 0 for an empty collection.
func ComputeStatistics(tasks []models.Task) models.Statistics {
	stats := models.Statistics{
		Total:         len(tasks),
		PriorityStats: make(map[models.Priority]int, len(models.Priorities)),
		CategoryStats: map[string]int{},
	}
	for _, p := range models.Priorities {
		stats.PriorityStats[p] = 0
	}

	for _, task := range tasks {
		switch task.Status {
		case models.TaskStatusDone:
			stats.Done++
		case models.TaskStatusInProgress:
			stats.InProgress++
		case models.TaskStatusTodo:
			stats.Todo++
		}
		if _, ok := stats.PriorityStats[task.Priority]; ok {
			stats.PriorityStats[task.Priority]++
		}
		if task.Category != "" {
			stats.CategoryStats[task.Category]++
		}
	}

	if stats.Total > 0 {
		stats.CompletionRate = int(math.Round(float64(stats.Done) / float64(stats.Total) * 100))
	}
	return stats
}
