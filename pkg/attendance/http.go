package attendance

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alpha9553/cognizant-batch-hub/pkg/batch"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/logger"
	"github.com/alpha9553/cognizant-batch-hub/pkg/common/models"
	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/batches/{id}/attendance", h.handleSave).Methods(http.MethodPost)
	r.HandleFunc("/trainees/{id}/attendance", h.handleTraineeHistory).Methods(http.MethodGet)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	var req models.SaveAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	marked, err := h.service.SaveAttendance(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		if errors.Is(err, ErrDateRequired) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if errors.Is(err, batch.ErrBatchNotFound) {
			http.Error(w, "batch not found", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("failed to save attendance")
		http.Error(w, "failed to save attendance", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"marked": marked, "date": req.Date})
}

func (h *Handler) handleTraineeHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.GetTraineeAttendance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		logger.Log.WithError(err).Error("failed to load attendance history")
		http.Error(w, "failed to load attendance history", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(history)
}
