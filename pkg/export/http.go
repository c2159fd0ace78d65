package export

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/alpha9553/cognizant-batch-hub/pkg/common/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/export/batches", h.handleExport).Methods(http.MethodGet)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	buf, filename, err := h.service.ExportBatches()
	if err != nil {
		if errors.Is(err, ErrNoBatches) {
			http.Error(w, "no batches to export", http.StatusNotFound)
			return
		}
		logger.Log.WithError(err).Error("Failed to export batches")
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	_, _ = w.Write(buf.Bytes())
}
