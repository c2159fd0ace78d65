package batch

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/logger"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
	"github.com/alpha9553/cognizant-batch-hub/pkg/report"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
	parser  *report.Parser
	maxBody int64
}

func NewHandler(service *Service, parser *report.Parser, maxBody int64) *Handler {
	return &Handler{service: service, parser: parser, maxBody: maxBody}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/reports/upload", h.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/batches", h.handleList).Methods(http.MethodGet)
	r.HandleFunc("/batches", h.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/batches/{id}", h.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/batches/{id}", h.handleUpdate).Methods(http.MethodPatch)
	r.HandleFunc("/batches/{id}/trainees", h.handleAddTrainee).Methods(http.MethodPost)
	r.HandleFunc("/batches/{id}/trainees/{traineeId}", h.handleUpdateTrainee).Methods(http.MethodPatch)
	r.HandleFunc("/batches/{id}/trainees/{traineeId}", h.handleDeleteTrainee).Methods(http.MethodDelete)
	r.HandleFunc("/batches/{id}/stakeholders/{role}", h.handleAssignStakeholder).Methods(http.MethodPut)
	r.HandleFunc("/batches/{id}/milestones/{milestone}", h.handleSetMilestone).Methods(http.MethodPatch)
}

// handleUpload ingests a coach report workbook. Sheets without usable batch
// data are skipped silently; an unreadable file fails the whole upload.
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "workbook file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	batches, err := h.parser.ParseWorkbook(file)
	if err != nil {
		logger.Log.WithError(err).WithField("filename", header.Filename).Warn("workbook unreadable")
		http.Error(w, "failed to parse workbook, please check the format", http.StatusBadRequest)
		return
	}

	if len(batches) == 0 {
		writeJSON(w, http.StatusUnprocessableEntity, models.UploadResult{
			Message: "no batch data found in workbook",
		})
		return
	}

	result, err := h.service.IngestReport(r.Context(), batches)
	if err != nil {
		if errors.Is(err, ErrIngestInFlight) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		logger.Log.WithError(err).Error("failed to save ingested batches")
		http.Error(w, "failed to save batches", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, models.UploadResult{
		BatchesFound:   len(batches),
		UpdatedCount:   result.UpdatedCount,
		PreservedCount: result.PreservedCount,
		Message: fmt.Sprintf("%d batches updated, %d existing batches preserved",
			result.UpdatedCount, result.PreservedCount),
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListBatches())
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	batch, err := h.service.GetBatch(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "batch not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var batch models.Batch
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	created, err := h.service.CreateBatch(r.Context(), batch)
	if err != nil {
		if errors.Is(err, ErrNameRequired) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.Log.WithError(err).Error("failed to create batch")
		http.Error(w, "failed to create batch", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	batch, err := h.service.UpdateBatch(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		h.writeServiceError(w, err, "failed to update batch")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) handleAddTrainee(w http.ResponseWriter, r *http.Request) {
	var trainee models.Trainee
	if err := json.NewDecoder(r.Body).Decode(&trainee); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if trainee.Name == "" {
		http.Error(w, "trainee name is required", http.StatusBadRequest)
		return
	}

	batch, err := h.service.AddTrainee(r.Context(), mux.Vars(r)["id"], trainee)
	if err != nil {
		h.writeServiceError(w, err, "failed to add trainee")
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

func (h *Handler) handleUpdateTrainee(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateTraineeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	batch, err := h.service.UpdateTrainee(r.Context(), vars["id"], vars["traineeId"], req)
	if err != nil {
		h.writeServiceError(w, err, "failed to update trainee")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) handleDeleteTrainee(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if _, err := h.service.DeleteTrainee(r.Context(), vars["id"], vars["traineeId"]); err != nil {
		h.writeServiceError(w, err, "failed to delete trainee")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleAssignStakeholder(w http.ResponseWriter, r *http.Request) {
	var req models.AssignStakeholderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "stakeholder name is required", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	batch, err := h.service.AssignStakeholder(r.Context(), vars["id"], vars["role"], req)
	if err != nil {
		h.writeServiceError(w, err, "failed to assign stakeholder")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) handleSetMilestone(w http.ResponseWriter, r *http.Request) {
	var req models.MilestoneDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	vars := mux.Vars(r)
	batch, err := h.service.SetMilestoneDate(r.Context(), vars["id"], vars["milestone"], req)
	if err != nil {
		h.writeServiceError(w, err, "failed to update milestone")
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, ErrBatchNotFound):
		http.Error(w, "batch not found", http.StatusNotFound)
	case errors.Is(err, ErrTraineeNotFound):
		http.Error(w, "trainee not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrInvalidMilestone):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Log.WithError(err).Error(msg)
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
