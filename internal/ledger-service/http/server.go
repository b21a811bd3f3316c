package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/bets"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/dto"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/ingest"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/report"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/settings"
	"github.com/radieske/bet-recap-ledger/pkg/oddsmath"
)

// maxImportBytes limita o corpo do upload de CSV
const maxImportBytes = 10 << 20

// Server expõe o ledger para os adapters (chat, agendador, painel)
type Server struct {
	log      *zap.Logger
	ingest   *ingest.Service
	bets     *bets.Service
	reports  *report.Service
	settings *settings.Settings
	now      func() time.Time
}

func NewServer(log *zap.Logger, in *ingest.Service, b *bets.Service, rp *report.Service, st *settings.Settings) *Server {
	return &Server{log: log, ingest: in, bets: b, reports: rp, settings: st, now: time.Now}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Post("/v1/imports", s.importCSV) // corpo = CSV cru, ?tier=

	r.Get("/v1/mappings", s.listMappings)
	r.Put("/v1/mappings/{field}", s.setMapping)
	r.Delete("/v1/mappings", s.resetMappings)

	r.Post("/v1/bets", s.logBet)
	r.Get("/v1/bets", s.listBets) // ?date=&tier=&pending=true
	r.Get("/v1/bets/{id}", s.getBet)
	r.Post("/v1/bets/{id}/grade", s.gradeBet)
	r.Put("/v1/bets/{id}/visibility", s.retagBet)
	r.Put("/v1/bets/{id}/notes", s.updateNotes)
	r.Put("/v1/visibility", s.retagByDate) // ?date=

	r.Get("/v1/reports", s.getReport) // ?tier=&range=&date=

	r.Get("/v1/recaps/{date}/posted", s.recapPosted)
	r.Post("/v1/recaps/{date}/posted", s.recordRecap)
	r.Post("/v1/recaps/{date}/publish", s.publishRecap)

	r.Put("/v1/settings/{key}", s.putSetting)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// fail traduz os erros de domínio em status HTTP
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "body too large")
	case errors.Is(err, repo.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, repo.ErrAlreadyGraded), errors.Is(err, report.ErrAlreadyPosted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, bets.ErrInvalidResult), errors.Is(err, bets.ErrMissingOdds),
		errors.Is(err, bets.ErrInvalidTier), errors.Is(err, bets.ErrInvalidDate),
		errors.Is(err, report.ErrInvalidTier), errors.Is(err, report.ErrInvalidDate),
		errors.Is(err, ingest.ErrInvalidBet), errors.Is(err, ingest.ErrUnknownField),
		errors.Is(err, oddsmath.ErrInvalidStake):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", chimiddleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid bet id")
		return 0, false
	}
	return id, true
}

// queryTier lê ?tier=; ausente vale def
func queryTier(w http.ResponseWriter, r *http.Request, def repo.Tier) (repo.Tier, bool) {
	v := r.URL.Query().Get("tier")
	if v == "" {
		return def, true
	}
	t, err := repo.ParseTier(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return t, true
}

func (s *Server) today() string { return s.now().Format(repo.DateFormat) }
