package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/bet-recap-ledger/internal/ledger-service/bets"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/dto"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/ingest"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/report"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/repo"
	"github.com/radieske/bet-recap-ledger/internal/ledger-service/settings"
)

// importCSV recebe o export cru; linhas ruins voltam no resumo, não como erro HTTP
func (s *Server) importCSV(w http.ResponseWriter, r *http.Request) {
	var tier repo.Tier
	if v := r.URL.Query().Get("tier"); v != "" {
		t, err := repo.ParseTier(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		tier = t
	}
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	res, err := s.ingest.Import(r.Context(), body, tier)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) listMappings(w http.ResponseWriter, r *http.Request) {
	m, err := s.ingest.Mappings(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) setMapping(w http.ResponseWriter, r *http.Request) {
	var req dto.MappingRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.ingest.SetMapping(r.Context(), chi.URLParam(r, "field"), req.Header); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) resetMappings(w http.ResponseWriter, r *http.Request) {
	if err := s.ingest.ResetMappings(r.Context()); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) logBet(w http.ResponseWriter, r *http.Request) {
	var req dto.LogBetRequest
	if !decode(w, r, &req) {
		return
	}
	var vis repo.Tier
	if req.Visibility != "" {
		vis = repo.Tier(req.Visibility)
		if t, err := repo.ParseTier(req.Visibility); err == nil {
			vis = t
		}
	}
	b, err := s.ingest.LogBet(r.Context(), ingest.ManualBet{
		Pick:       req.Pick,
		Odds:       req.Odds,
		Stake:      req.Stake,
		Sport:      req.Sport,
		League:     req.League,
		Market:     req.Market,
		Book:       req.Book,
		Tags:       req.Tags,
		Notes:      req.Notes,
		PlacedAt:   req.PlacedAt,
		GameDate:   req.GameDate,
		Visibility: vis,
		CreatedBy:  req.CreatedBy,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	b, err := s.bets.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// listBets: tier ausente vale FREE, o público mais restrito
func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	tier, ok := queryTier(w, r, repo.TierFree)
	if !ok {
		return
	}
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		date = s.today()
	}
	list, err := s.bets.ByDate(r.Context(), date, tier, q.Get("pending") == "true")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if list == nil {
		list = []repo.Bet{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) gradeBet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req dto.GradeRequest
	if !decode(w, r, &req) {
		return
	}
	result, err := repo.ParseResult(req.Result)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.bets.Grade(r.Context(), bets.GradeRequest{
		ID:        id,
		Result:    result,
		Odds:      req.Odds,
		SettledAt: req.SettledAt,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.GradeResponse{OK: res.OK, Profit: res.Profit})
}

func (s *Server) retagBet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req dto.VisibilityRequest
	if !decode(w, r, &req) {
		return
	}
	tier, err := repo.ParseTier(req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.bets.Retag(r.Context(), id, tier); err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AffectedResponse{Affected: 1})
}

func (s *Server) retagByDate(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	var req dto.VisibilityRequest
	if !decode(w, r, &req) {
		return
	}
	tier, err := repo.ParseTier(req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n, err := s.bets.RetagByDate(r.Context(), date, tier)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.AffectedResponse{Affected: n})
}

func (s *Server) updateNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req dto.NotesRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.bets.UpdateNotes(r.Context(), id, req.Notes); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	tier, ok := queryTier(w, r, repo.TierFree)
	if !ok {
		return
	}
	rng, err := report.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rep, err := s.reports.Build(r.Context(), tier, rng, r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) recapPosted(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	posted, err := s.reports.HasRecap(r.Context(), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.RecapStatusResponse{Date: date, Posted: posted})
}

// recordRecap grava o marcador: 201 quando criado agora, 200 quando já existia
func (s *Server) recordRecap(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	created, err := s.reports.RecordRecap(r.Context(), date)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, dto.RecapStatusResponse{Date: date, Posted: true})
}

func (s *Server) publishRecap(w http.ResponseWriter, r *http.Request) {
	rep, err := s.reports.PublishDailyRecap(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// putSetting grava uma das chaves tipadas de tier
func (s *Server) putSetting(w http.ResponseWriter, r *http.Request) {
	var req dto.VisibilityRequest
	if !decode(w, r, &req) {
		return
	}
	tier, err := repo.ParseTier(req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	switch chi.URLParam(r, "key") {
	case settings.KeyDefaultImportTier:
		err = s.settings.SetDefaultImportTier(r.Context(), tier)
	case settings.KeyRecapTier:
		err = s.settings.SetRecapTier(r.Context(), tier)
	default:
		writeError(w, http.StatusNotFound, "unknown setting")
		return
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
