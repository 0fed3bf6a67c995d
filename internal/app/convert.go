package app

import (
	"github.com/example/labelr/internal/core/task"
	"github.com/example/labelr/internal/ports/primary"
	"github.com/example/labelr/internal/ports/secondary"
)

func recordToTask(r *secondary.TaskRecord) *primary.Task {
	return &primary.Task{
		ID:              r.ID,
		ProjectID:       r.ProjectID,
		AnnotatorID:     r.AnnotatorID,
		AssignedBy:      r.AssignedBy,
		Title:           r.Title,
		Status:          r.Status,
		Deadline:        r.Deadline,
		TotalItems:      r.TotalItems,
		CompletedItems:  r.CompletedItems,
		ProgressPercent: task.ProgressPercent(r.CompletedItems, r.TotalItems),
		SubmittedAt:     r.SubmittedAt,
		CompletedAt:     r.CompletedAt,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func recordToTaskItem(r *secondary.TaskItemRecord) *primary.TaskItem {
	return &primary.TaskItem{
		ID:          r.ID,
		TaskID:      r.TaskID,
		DataItemID:  r.DataItemID,
		Status:      r.Status,
		AssignedAt:  r.AssignedAt,
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}
}

func recordToDataItem(r *secondary.DataItemRecord) *primary.DataItem {
	return &primary.DataItem{
		ID:        r.ID,
		DatasetID: r.DatasetID,
		ProjectID: r.ProjectID,
		FileName:  r.FileName,
		FilePath:  r.FilePath,
		FileSize:  r.FileSize,
		MimeType:  r.MimeType,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func recordToAnnotation(r *secondary.AnnotationRecord) *primary.Annotation {
	return &primary.Annotation{
		ID:          r.ID,
		DataItemID:  r.DataItemID,
		LabelID:     r.LabelID,
		Type:        r.Type,
		Coordinates: r.Coordinates,
		Attributes:  r.Attributes,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func recordToReview(r *secondary.ReviewRecord) *primary.Review {
	ids := r.ErrorTypeIDs
	if ids == nil {
		ids = []int64{}
	}
	return &primary.Review{
		ID:           r.ID,
		DataItemID:   r.DataItemID,
		ReviewerID:   r.ReviewerID,
		Decision:     r.Decision,
		Feedback:     r.Feedback,
		ErrorTypeIDs: ids,
		CreatedAt:    r.CreatedAt,
	}
}

func recordToDataset(r *secondary.DatasetRecord) *primary.Dataset {
	return &primary.Dataset{
		ID:          r.ID,
		ProjectID:   r.ProjectID,
		Name:        r.Name,
		TotalItems:  r.TotalItems,
		TotalSizeMB: r.TotalSizeMB,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func recordToProject(r *secondary.ProjectRecord) *primary.Project {
	return &primary.Project{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
	}
}

func recordToLabel(r *secondary.LabelRecord) *primary.Label {
	return &primary.Label{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		Name:      r.Name,
		Type:      r.Type,
		Color:     r.Color,
	}
}

func recordToUser(r *secondary.UserRecord) *primary.User {
	return &primary.User{
		ID:        r.ID,
		Username:  r.Username,
		Email:     r.Email,
		FullName:  r.FullName,
		Role:      r.Role,
		IsActive:  r.IsActive,
		CreatedAt: r.CreatedAt,
	}
}

func recordToNotification(r *secondary.NotificationRecord) *primary.Notification {
	return &primary.Notification{
		ID:         r.ID,
		UserID:     r.UserID,
		Kind:       r.Kind,
		Message:    r.Message,
		TargetType: r.TargetType,
		TargetID:   r.TargetID,
		IsRead:     r.IsRead,
		CreatedAt:  r.CreatedAt,
	}
}

func recordToActivity(r *secondary.ActivityRecord) *primary.Activity {
	return &primary.Activity{
		ID:            r.ID,
		UserID:        r.UserID,
		Action:        r.Action,
		TargetType:    r.TargetType,
		TargetID:      r.TargetID,
		Details:       r.Details,
		CorrelationID: r.CorrelationID,
		CreatedAt:     r.CreatedAt,
	}
}

func mapSlice[R any, P any](records []R, fn func(R) P) []P {
	out := make([]P, len(records))
	for i, r := range records {
		out[i] = fn(r)
	}
	return out
}
