package analysis

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/AadityaKP/MoodBoard/moodboard"
	"github.com/AadityaKP/MoodBoard/pipeline"
	"go.uber.org/zap"
)

type runner interface {
	Run(ctx context.Context) moodboard.Result
}

// AnalysisHandler runs the pipeline once for whatever is playing now.
type AnalysisHandler struct {
	log      *zap.SugaredLogger
	pipeline runner
}

func (*AnalysisHandler) Pattern() string {
	return "/current-playback-analysis"
}

func NewAnalysisHandler(log *zap.SugaredLogger, p *pipeline.Pipeline) *AnalysisHandler {
	return &AnalysisHandler{log: log, pipeline: p}
}

func (h *AnalysisHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// a client hanging up must not cut an analysis short
	res := h.pipeline.Run(context.WithoutCancel(r.Context()))

	w.Header().Set("Content-Type", "application/json")
	if res.Status == moodboard.StatusError {
		w.WriteHeader(http.StatusInternalServerError)
	}
	json.NewEncoder(w).Encode(res)
}
