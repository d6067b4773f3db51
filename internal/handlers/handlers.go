// Package handlers is the HTTP surface. Each handler validates input,
// delegates to a service, and shapes the wire response; no pipeline
// logic lives here.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/nversa/docchat/internal/api"
	"github.com/nversa/docchat/internal/config"
	"github.com/nversa/docchat/internal/docstore"
	"github.com/nversa/docchat/internal/domain"
	"github.com/nversa/docchat/internal/metrics"
	"github.com/nversa/docchat/internal/queue"
	"github.com/nversa/docchat/internal/rag"
	"github.com/nversa/docchat/internal/vectorindex"
	"github.com/nversa/docchat/pkg/logging"
)

// Handler carries every collaborator the HTTP surface needs. Constructed
// once in main and handed to the router; all fields are interfaces or
// small structs so tests can swap them.
type Handler struct {
	queue  queue.Queue
	rag    rag.Service
	store  *docstore.Store
	index  vectorindex.Index
	logger *logging.Logger
}

func New(q queue.Queue, ragSvc rag.Service, store *docstore.Store, index vectorindex.Index) *Handler {
	return &Handler{
		queue:  q,
		rag:    ragSvc,
		store:  store,
		index:  index,
		logger: logging.NewLogger("http_handlers"),
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Everything is Fine!"})
}

// Upload accepts a multipart document under the "pdf" field, stages it on
// disk, and enqueues an ingestion job. Returns 202: the document is not
// searchable until the job reaches the indexed state.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(config.MaxUploadSize); err != nil {
		h.writeError(w, http.StatusBadRequest, "file too large or malformed form")
		return
	}
	file, header, err := r.FormFile("pdf")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "no file uploaded under field 'pdf'")
		return
	}
	defer file.Close()

	storedName, storedPath, err := h.store.SaveUpload(file, header.Filename)
	if err != nil {
		h.logger.Error("storing upload failed", "error", err, "file", header.Filename)
		h.writeError(w, http.StatusInternalServerError, "could not store upload")
		return
	}

	job := domain.UploadJob{
		ID:           uuid.NewString(),
		TraceID:      traceID(r),
		SourcePath:   storedPath,
		OriginalName: header.Filename,
		ReceivedAt:   time.Now().UTC(),
	}
	if err := h.queue.Enqueue(r.Context(), job); err != nil {
		h.logger.Error("enqueue failed", "error", err, "jobId", job.ID)
		h.writeError(w, http.StatusInternalServerError, "could not queue document for indexing")
		return
	}
	metrics.IncrementJobsInQueue()
	h.logger.Info("upload accepted", "jobId", job.ID, "file", storedName, "traceId", job.TraceID)

	writeJSON(w, http.StatusAccepted, api.UploadResponse{
		JobID:     job.ID,
		FileName:  storedName,
		StatusURL: "/status/" + job.ID,
	})
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.store.List()
	if err != nil {
		h.logger.Error("listing uploads failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "could not read uploads")
		return
	}
	writeJSON(w, http.StatusOK, api.ListFilesResponse{Files: files})
}

// DeleteFile removes a stored document and its index records. Index
// cleanup runs first so a failure leaves the file listable and the
// operation retryable.
func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "fileName")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "file name is required")
		return
	}

	if err := h.index.DeleteBySource(r.Context(), name); err != nil {
		h.logger.Error("deleting index records failed", "error", err, "file", name)
		h.writeError(w, http.StatusInternalServerError, "could not remove indexed content")
		return
	}
	if err := h.store.Delete(name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			h.writeError(w, http.StatusNotFound, "file not found")
			return
		}
		h.logger.Error("deleting file failed", "error", err, "file", name)
		h.writeError(w, http.StatusInternalServerError, "could not delete file")
		return
	}
	writeJSON(w, http.StatusOK, api.DeleteFileResponse{FileName: name, Deleted: true})
}

// Chat answers a question synchronously against the indexed corpus.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	defer r.Body.Close()

	turn, err := h.rag.Answer(r.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrValidation):
			h.writeError(w, http.StatusBadRequest, "question is required")
		default:
			// One generic error for every downstream failure; nothing
			// partial leaks to the caller.
			h.logger.Error("chat failed", "error", err, "traceId", traceID(r))
			h.writeError(w, http.StatusInternalServerError, "could not generate an answer")
		}
		return
	}

	writeJSON(w, http.StatusOK, api.ChatResponse{
		Question:    turn.Question,
		Answer:      turn.Answer,
		ContextUsed: turn.ContextUsed,
	})
}

func (h *Handler) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "job id is required")
		return
	}
	job, ok := h.queue.Job(r.Context(), id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "job not found")
		return
	}

	resp := api.JobStatusResponse{
		JobID:      job.ID,
		FileName:   job.OriginalName,
		State:      string(job.State),
		Attempts:   job.Attempts,
		LastError:  job.LastError,
		ReceivedAt: job.ReceivedAt,
	}
	if !job.EndTime.IsZero() {
		resp.EndTime = &job.EndTime
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, api.ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.NewLogger("http_handlers").Error("encoding response failed", "error", err)
	}
}

func traceID(r *http.Request) string {
	if v, ok := r.Context().Value(config.TraceIDKey).(string); ok {
		return v
	}
	return ""
}
