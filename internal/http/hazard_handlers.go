package httpapi

import (
	"fmt"
	"net/http"

	"github.com/rxnen/eldersafe/internal/catalog"
	"github.com/rxnen/eldersafe/internal/evaluator"
	"github.com/rxnen/eldersafe/internal/models"
	"github.com/rxnen/eldersafe/internal/report"
	"github.com/rxnen/eldersafe/internal/service"

	"go.uber.org/zap"
)

// HazardHandler 居家安全评估 API
//
// 读接口在存储不可用时返回安全默认值（空列表 / N/A 评分），只记录日志；
// 写接口返回错误，避免调用方误以为修改已保存。
type HazardHandler struct {
	svc    *service.HazardService
	logger *zap.Logger
}

func NewHazardHandler(svc *service.HazardService, logger *zap.Logger) *HazardHandler {
	return &HazardHandler{svc: svc, logger: logger}
}

// writeError 按错误类型映射 HTTP 状态码
func (h *HazardHandler) writeError(w http.ResponseWriter, op string, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("op", op), zap.Error(err))
		writeJSON(w, status, Fail(fmt.Sprintf("failed to %s", op)))
		return
	}
	writeJSON(w, status, Fail(err.Error()))
}

func (h *HazardHandler) badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, Fail(message))
}

// ========== profile ==========

// GET /api/v1/profile
func (h *HazardHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.GetProfile(r.Context())
	if err != nil {
		h.logger.Warn("GetProfile failed, returning empty profile", zap.Error(err))
		profile = nil
	}
	writeJSON(w, http.StatusOK, Fallback(profile, err))
}

// PUT /api/v1/profile
func (h *HazardHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if err := readBodyJSON(r, &profile); err != nil {
		h.badRequest(w, "invalid profile body")
		return
	}
	if err := profile.Validate(); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if err := h.svc.SaveProfile(r.Context(), &profile); err != nil {
		h.writeError(w, "save profile", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(profile))
}

// OnboardingState 引导流程状态
type OnboardingState struct {
	FirstLoad bool `json:"firstLoad"`
}

// GET /api/v1/onboarding
func (h *HazardHandler) GetOnboarding(w http.ResponseWriter, r *http.Request) {
	first, err := h.svc.IsFirstLoad(r.Context())
	if err != nil {
		h.logger.Warn("IsFirstLoad failed", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Fallback(OnboardingState{FirstLoad: first}, err))
}

// POST /api/v1/onboarding
func (h *HazardHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if err := readBodyJSON(r, &profile); err != nil {
		h.badRequest(w, "invalid profile body")
		return
	}
	if err := profile.Validate(); err != nil {
		h.badRequest(w, err.Error())
		return
	}
	if err := h.svc.CompleteOnboarding(r.Context(), &profile); err != nil {
		h.writeError(w, "complete onboarding", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(OnboardingState{FirstLoad: false}))
}

// ========== rooms ==========

// GET /api/v1/rooms
func (h *HazardHandler) GetRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.svc.GetRooms(r.Context())
	if err != nil {
		h.logger.Warn("GetRooms failed, returning empty list", zap.Error(err))
		rooms = []models.Room{}
	}
	writeJSON(w, http.StatusOK, Fallback(rooms, err))
}

// POST /api/v1/rooms
func (h *HazardHandler) AddRoom(w http.ResponseWriter, r *http.Request) {
	var req service.RoomRequest
	if err := readBodyJSON(r, &req); err != nil {
		h.badRequest(w, "invalid room body")
		return
	}
	req.ID = 0
	h.saveRoom(w, r, req)
}

// PUT /api/v1/rooms/{id}
func (h *HazardHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok || id <= 0 {
		h.badRequest(w, "invalid room id")
		return
	}
	var req service.RoomRequest
	if err := readBodyJSON(r, &req); err != nil {
		h.badRequest(w, "invalid room body")
		return
	}
	req.ID = id
	h.saveRoom(w, r, req)
}

func (h *HazardHandler) saveRoom(w http.ResponseWriter, r *http.Request, req service.RoomRequest) {
	room, err := h.svc.AddOrUpdateRoom(r.Context(), req)
	if err != nil {
		h.writeError(w, "save room", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(room))
}

// DELETE /api/v1/rooms/{id}
func (h *HazardHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		h.badRequest(w, "invalid room id")
		return
	}
	if err := h.svc.DeleteRoom(r.Context(), id); err != nil {
		h.writeError(w, "delete room", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

// GET /api/v1/rooms/{id}/report
func (h *HazardHandler) GetRoomReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathInt(r, "id")
	if !ok {
		h.badRequest(w, "invalid room id")
		return
	}
	questions, err := h.svc.RoomReport(r.Context(), id)
	if err != nil {
		h.writeError(w, "build room report", err)
		return
	}
	if questions == nil {
		questions = []catalog.Question{}
	}
	writeJSON(w, http.StatusOK, Ok(questions))
}

// SetHazardStatusRequest 更新隐患状态请求
type SetHazardStatusRequest struct {
	Status     models.HazardStatus `json:"status"`
	HazardText string              `json:"hazardText"`
}

// HazardStatusResult 更新结果；Changed=false 表示状态未变化
type HazardStatusResult struct {
	Changed bool                `json:"changed"`
	Status  models.HazardStatus `json:"status"`
}

// PUT /api/v1/rooms/{id}/hazards/{questionID}
func (h *HazardHandler) SetHazardStatus(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathInt(r, "id")
	if !ok {
		h.badRequest(w, "invalid room id")
		return
	}
	questionID, ok := pathInt(r, "questionID")
	if !ok {
		h.badRequest(w, "invalid question id")
		return
	}
	var req SetHazardStatusRequest
	if err := readBodyJSON(r, &req); err != nil {
		h.badRequest(w, "invalid status body")
		return
	}

	changed, err := h.svc.SetHazardStatus(r.Context(), roomID, questionID, req.Status, req.HazardText)
	if err != nil {
		h.writeError(w, "update hazard status", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(HazardStatusResult{Changed: changed, Status: req.Status}))
}

// ========== results ==========

// ScoreResponse 首页评分
type ScoreResponse struct {
	evaluator.ScoreReport
	Display       string `json:"display"`
	Accessibility string `json:"accessibility,omitempty"`
}

// GET /api/v1/score
func (h *HazardHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.Score(r.Context())
	if err != nil {
		h.logger.Warn("Score failed, returning N/A", zap.Error(err))
		rep = evaluator.ScoreReport{Score: evaluator.ScoreNotAvailable()}
	}
	writeJSON(w, http.StatusOK, Fallback(ScoreResponse{
		ScoreReport:   rep,
		Display:       rep.Score.String(),
		Accessibility: rep.Score.Accessibility(),
	}, err))
}

// GET /api/v1/hazards?filter=active|all|not_addressed|in_progress|addressed
func (h *HazardHandler) GetHazards(w http.ResponseWriter, r *http.Request) {
	filter, ok := evaluator.ParseHazardFilter(r.URL.Query().Get("filter"))
	if !ok {
		h.badRequest(w, "invalid filter")
		return
	}
	sections, err := h.svc.Hazards(r.Context(), filter)
	if err != nil {
		h.logger.Warn("Hazards failed, returning empty list", zap.Error(err))
		sections = nil
	}
	if sections == nil {
		sections = []evaluator.HazardSection{}
	}
	writeJSON(w, http.StatusOK, Fallback(sections, err))
}

// GET /api/v1/hazards/stats
func (h *HazardHandler) GetHazardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.HazardStats(r.Context())
	if err != nil {
		h.logger.Warn("HazardStats failed, returning zero stats", zap.Error(err))
	}
	writeJSON(w, http.StatusOK, Fallback(stats, err))
}

// GET /api/v1/recommendations
func (h *HazardHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	recs, err := h.svc.Recommendations(r.Context())
	if err != nil {
		h.logger.Warn("Recommendations failed, returning empty list", zap.Error(err))
	}
	if recs == nil {
		recs = []evaluator.RoomRecommendations{}
	}
	writeJSON(w, http.StatusOK, Fallback(recs, err))
}

// GET /api/v1/timeline?limit=
func (h *HazardHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 0)
	entries, err := h.svc.Timeline(r.Context(), limit)
	if err != nil {
		h.logger.Warn("Timeline failed, returning empty list", zap.Error(err))
	}
	if entries == nil {
		entries = []evaluator.TimelineEntry{}
	}
	writeJSON(w, http.StatusOK, Fallback(entries, err))
}

// DeleteTimelineRequest 删除历史记录请求
type DeleteTimelineRequest struct {
	RoomID     int   `json:"roomId"`
	QuestionID int   `json:"questionID"`
	Timestamp  int64 `json:"timestamp"`
}

// DELETE /api/v1/timeline
func (h *HazardHandler) DeleteTimelineEntry(w http.ResponseWriter, r *http.Request) {
	var req DeleteTimelineRequest
	if err := readBodyJSON(r, &req); err != nil {
		h.badRequest(w, "invalid timeline body")
		return
	}
	deleted, err := h.svc.DeleteTimelineEntry(r.Context(), req.RoomID, req.Timestamp, req.QuestionID)
	if err != nil {
		h.writeError(w, "delete timeline entry", err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]bool{"deleted": deleted}))
}

// GET /api/v1/export.xlsx
func (h *HazardHandler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Snapshot(r.Context())
	if err != nil {
		h.writeError(w, "load assessment", err)
		return
	}
	b, err := report.GenerateWorkbook(data)
	if err != nil {
		h.writeError(w, "generate report", err)
		return
	}

	filename := fmt.Sprintf("home-safety-%s.xlsx", data.GeneratedAt.Format("20060102"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
