// Package api holds the wire contracts of the HTTP surface.
package api

import "time"

type ChatRequest struct {
	Question string `json:"question" validate:"required"`
}

type ChatResponse struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	ContextUsed string `json:"contextUsed"`
}

// UploadResponse acknowledges an accepted ingestion job. The document is
// not yet searchable; poll the status URL to find out when it is.
type UploadResponse struct {
	JobID     string `json:"job_id"`
	FileName  string `json:"file_name"`
	StatusURL string `json:"status_url"`
}

type JobStatusResponse struct {
	JobID      string     `json:"job_id"`
	FileName   string     `json:"file_name"`
	State      string     `json:"state"`
	Attempts   int        `json:"attempts"`
	LastError  string     `json:"last_error,omitempty"`
	ReceivedAt time.Time  `json:"received_at"`
	EndTime    *time.Time `json:"end_time,omitempty"`
}

type ListFilesResponse struct {
	Files []string `json:"files"`
}

type DeleteFileResponse struct {
	FileName string `json:"file_name"`
	Deleted  bool   `json:"deleted"`
}

type ErrorResponse struct {
	Code    int    `json:"code" example:"400"`
	Message string `json:"message" example:"question is required"`
}
