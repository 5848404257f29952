package api

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"reinnin/internal/config"
	"reinnin/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/cors"
)

const adminSessionTTL = 8 * time.Hour

type Server struct {
	cfg  config.APIConfig
	log  *slog.Logger
	game *game.Service
	mux  *chi.Mux

	mu     sync.Mutex
	admins map[string]time.Time
}

func New(cfg config.APIConfig, logger *slog.Logger, gameSvc *game.Service) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:    cfg,
		log:    logger,
		game:   gameSvc,
		mux:    chi.NewRouter(),
		admins: make(map[string]time.Time),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Admin-Pass"},
	}).Handler(s.mux)
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/week", s.handleWeek)
		r.Get("/market", s.handleMarket)
		r.Get("/book", s.handleBook)
		r.Get("/assets/search", s.handleAssetSearch)
		r.Get("/leaderboard", s.handleLeaderboard)

		r.Get("/teams/{name}", s.handleTeam)
		r.Get("/teams/{name}/portfolio", s.handlePortfolio)
		r.Post("/teams/{name}/buy", s.handleBuy)
		r.Post("/teams/{name}/sell", s.handleSell)

		r.Post("/admin/login", s.handleAdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(s.adminMiddleware)
			r.Post("/admin/advance-week", s.handleAdvanceWeek)
			r.Post("/admin/reset", s.handleReset)
			r.Get("/admin/teams", s.handleAdminTeams)
			r.Get("/admin/leaderboard.csv", s.handleLeaderboardCSV)
		})
	})
}

func (s *Server) adminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if pass := strings.TrimSpace(r.Header.Get("X-Admin-Pass")); pass != "" {
			if pass != s.cfg.AdminPass {
				writeError(w, http.StatusForbidden, "wrong admin password")
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing admin credentials")
			return
		}
		if !s.validAdminToken(token) {
			writeError(w, http.StatusForbidden, "invalid or expired admin token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) validAdminToken(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.admins[token]
	if !ok {
		return false
	}
	if time.Now().After(exp) {
		delete(s.admins, token)
		return false
	}
	return true
}

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if in.Password != s.cfg.AdminPass {
		writeError(w, http.StatusForbidden, "wrong admin password")
		return
	}
	token := uuid.NewString()
	s.mu.Lock()
	s.admins[token] = time.Now().Add(adminSessionTTL)
	s.mu.Unlock()
	s.log.Info("instructor session opened")
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "expires_in_seconds": int(adminSessionTTL.Seconds())})
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.WeekInfo(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.Market(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": out})
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.Book(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": out})
}

func (s *Server) handleAssetSearch(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.SearchAssets(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": out})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.Leaderboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": out})
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.EnsureTeam(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.Portfolio(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"holdings": out})
}

func (s *Server) handleBuy(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AssetID string `json:"asset_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.Buy(r.Context(), game.BuyInput{
		Team:    chi.URLParam(r, "name"),
		AssetID: in.AssetID,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var in struct {
		AssetID string  `json:"asset_id"`
		ExitPSM float64 `json:"exit_psm"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	out, err := s.game.Sell(r.Context(), game.SellInput{
		Team:    chi.URLParam(r, "name"),
		AssetID: in.AssetID,
		ExitPSM: in.ExitPSM,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdvanceWeek(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.AdvanceWeek(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.game.ResetGame(r.Context()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleAdminTeams(w http.ResponseWriter, r *http.Request) {
	out, err := s.game.TeamsOverview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"teams": out})
}

func (s *Server) handleLeaderboardCSV(w http.ResponseWriter, r *http.Request) {
	rows, err := s.game.Leaderboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.csv"`)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"rank", "team", "cash_eur", "portfolio_eur", "annual_noi", "holdings"})
	for _, row := range rows {
		_ = cw.Write([]string{
			fmt.Sprintf("%d", row.Rank),
			row.Team,
			fmt.Sprintf("%.2f", row.CashEUR),
			fmt.Sprintf("%.2f", row.PortfolioEUR),
			fmt.Sprintf("%.2f", row.AnnualNOI),
			fmt.Sprintf("%d", row.Holdings),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		s.log.Warn("csv write failed", "err", err)
	}
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownAsset), errors.Is(err, game.ErrNoSuchHolding):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrInsufficientFunds), errors.Is(err, game.ErrInvalidTeamName), errors.Is(err, game.ErrFinalWeek):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrAssetUnavailable), errors.Is(err, game.ErrSaleBlocked), errors.Is(err, game.ErrTxConflict):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrSaleCapExceeded):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, game.ErrUnauthorized):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

func bearerToken(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
