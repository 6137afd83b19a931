package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/laurelhq/laurels/internal/app/engine"
	"github.com/laurelhq/laurels/internal/domain"
)

// ─── Event Handlers ─────────────────────────────────────────────────────────

type raiseEventRequest struct {
	UserID  int64          `json:"user_id"`
	Payload map[string]any `json:"payload,omitempty"`
}

// handleRaiseEvent raises an event occurrence on behalf of the host.
// POST /api/events/{name}
//
// An anonymous occurrence (user_id 0) is accepted and discarded by the
// dispatcher as a silent no-op, not a client error. Store write failures
// during unlock processing surface as a 500.
func (s *Server) handleRaiseEvent(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "event name required")
		return
	}

	var req raiseEventRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	ctx := engine.WithActor(r.Context(), domain.UserID(req.UserID))
	if err := s.bus.Raise(ctx, name, req.Payload); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "processed"})
}

// handleListEvents returns the event vocabulary with bound achievement counts.
// GET /api/events
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.db.ListEvents()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type eventResponse struct {
		Name              string `json:"name"`
		Description       string `json:"description,omitempty"`
		Source            string `json:"source"`
		BoundAchievements int    `json:"bound_achievements"`
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, eventResponse{
			Name:              e.Name,
			Description:       e.Description,
			Source:            e.Source,
			BoundAchievements: len(s.registry.Resolve(e.Name)),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": out})
}

// ─── Achievement Handlers ───────────────────────────────────────────────────

type createAchievementRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	EventName   string `json:"event_name"`
	Target      int    `json:"target"`
	Points      int64  `json:"points"`
	Publish     bool   `json:"publish"`
}

// handleCreateAchievement creates a definition (draft unless publish is set).
// POST /api/achievements
func (s *Server) handleCreateAchievement(w http.ResponseWriter, r *http.Request) {
	var req createAchievementRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.EventName == "" {
		writeError(w, http.StatusBadRequest, "title and event_name are required")
		return
	}
	if req.Target < 0 || req.Points < 0 {
		writeError(w, http.StatusBadRequest, "target and points must be non-negative")
		return
	}

	status := domain.StatusDraft
	if req.Publish {
		status = domain.StatusPublished
	}
	a := domain.AchievementDefinition{
		ID:          domain.AchievementID(uuid.NewString()),
		Title:       req.Title,
		Description: req.Description,
		EventName:   req.EventName,
		Target:      req.Target,
		Points:      req.Points,
		Status:      status,
	}

	if err := s.db.UpsertAchievement(a); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Authoring introduces the event name to the vocabulary if it is new.
	if err := s.db.UpsertEvent(domain.EventDefinition{Name: req.EventName}); err != nil {
		log.Printf("[api] record event vocabulary %s: %v", req.EventName, err)
	}

	s.rebind()

	created, err := s.db.GetAchievement(a.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleListAchievements lists definitions, optionally filtered by status.
// GET /api/achievements?status=published
func (s *Server) handleListAchievements(w http.ResponseWriter, r *http.Request) {
	var statuses []domain.PublicationStatus
	if q := r.URL.Query().Get("status"); q != "" {
		status := domain.PublicationStatus(q)
		switch status {
		case domain.StatusDraft, domain.StatusPublished, domain.StatusTrashed:
			statuses = append(statuses, status)
		default:
			writeError(w, http.StatusBadRequest, "unknown status "+q)
			return
		}
	}

	defs, err := s.db.ListAchievements(statuses...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"achievements": defs})
}

// handleGetAchievement returns one definition.
// GET /api/achievements/{id}
func (s *Server) handleGetAchievement(w http.ResponseWriter, r *http.Request) {
	def, ok := s.lookupAchievement(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, def)
}

// handlePublishAchievement makes a definition eligible for unlock evaluation.
// POST /api/achievements/{id}/publish
func (s *Server) handlePublishAchievement(w http.ResponseWriter, r *http.Request) {
	id := domain.AchievementID(chi.URLParam(r, "id"))
	if err := s.db.SetAchievementStatus(id, domain.StatusPublished); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.rebind()
	writeJSON(w, http.StatusOK, map[string]string{"status": "published"})
}

// handleTrashAchievement moves a definition to the trash. The registry may
// keep serving the stale binding until the next refresh; the engine re-checks
// publication status at evaluation time, so trashed definitions never unlock.
// DELETE /api/achievements/{id}
func (s *Server) handleTrashAchievement(w http.ResponseWriter, r *http.Request) {
	id := domain.AchievementID(chi.URLParam(r, "id"))
	if err := s.db.SetAchievementStatus(id, domain.StatusTrashed); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.rebind()
	writeJSON(w, http.StatusOK, map[string]string{"status": "trashed"})
}

type awardRequest struct {
	UserID int64 `json:"user_id"`
}

// handleAwardAchievement force-unlocks a definition for a user, bypassing the
// target. Already-unlocked pairs stay a no-op; points are never re-awarded.
// POST /api/achievements/{id}/award
func (s *Server) handleAwardAchievement(w http.ResponseWriter, r *http.Request) {
	def, ok := s.lookupAchievement(w, r)
	if !ok {
		return
	}

	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == 0 {
		writeError(w, http.StatusBadRequest, "user_id required")
		return
	}

	if err := s.engine.MaybeUnlock(domain.UserID(req.UserID), *def, true); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "awarded"})
}

// ─── User Handlers ──────────────────────────────────────────────────────────

// handleUserProgress returns all progress records for a user.
// GET /api/users/{id}/progress
func (s *Server) handleUserProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	recs, err := s.db.ListProgress(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": recs})
}

// handleUserScore returns a user's running total.
// GET /api/users/{id}/score
func (s *Server) handleUserScore(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	total, err := s.ledger.Total(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, domain.UserScore{UserID: userID, Total: total})
}

// handleUserNotifications returns a user's pending unlock notifications.
// GET /api/users/{id}/notifications
func (s *Server) handleUserNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}
	pending, err := s.notify.Pending(userID, s.maxNotifications)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": pending})
}

// handleNotificationSeen marks a notification as shown.
// POST /api/notifications/{id}/seen
func (s *Server) handleNotificationSeen(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.notify.MarkSeen(id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLeaderboard returns the top user scores.
// GET /api/leaderboard?limit=10
func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := s.leaderboardTopN
	if q := r.URL.Query().Get("limit"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	top, err := s.ledger.Top(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	type entry struct {
		Rank   int           `json:"rank"`
		UserID domain.UserID `json:"user_id"`
		Total  int64         `json:"total"`
	}
	out := make([]entry, 0, len(top))
	for i, sc := range top {
		out = append(out, entry{Rank: i + 1, UserID: sc.UserID, Total: sc.Total})
	}
	writeJSON(w, http.StatusOK, map[string]any{"leaderboard": out})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Server) lookupAchievement(w http.ResponseWriter, r *http.Request) (*domain.AchievementDefinition, bool) {
	id := domain.AchievementID(chi.URLParam(r, "id"))
	def, err := s.db.GetAchievement(id)
	if err != nil {
		s.writeStoreError(w, err)
		return nil, false
	}
	return def, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrAchievementNotFound) {
		writeError(w, http.StatusNotFound, "achievement not found")
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// rebind refreshes the registry and rebinds the dispatcher after a definition
// mutation. A refresh failure leaves the previous snapshot serving; the
// mutation itself already succeeded.
func (s *Server) rebind() {
	if err := s.registry.Refresh(); err != nil {
		log.Printf("[api] registry refresh: %v", err)
		return
	}
	s.dispatcher.BindAll()
}

func userIDParam(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return domain.UserID(id), true
}
