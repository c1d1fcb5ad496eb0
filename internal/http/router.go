package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HeaderRequestID 请求编号响应头
const HeaderRequestID = "X-Request-ID"

// Router 使用标准库 http.ServeMux（方法+路径模式）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// ServeHTTP 为每个请求分配编号并记录访问日志
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()

	requestID := req.Header.Get(HeaderRequestID)
	if _, err := uuid.Parse(requestID); err != nil {
		requestID = uuid.NewString()
	}
	w.Header().Set(HeaderRequestID, requestID)

	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.mux.ServeHTTP(rec, req)

	r.logger.Info("HTTP request",
		zap.String("request_id", requestID),
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", rec.status),
		zap.Int("bytes", rec.bytes),
		zap.Duration("duration", time.Since(start)),
	)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

// RegisterHealthRoutes 健康检查
func (r *Router) RegisterHealthRoutes() {
	r.Handle("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]string{"status": "ok"}))
	})
}

// RegisterHazardRoutes 注册居家安全评估接口
func (r *Router) RegisterHazardRoutes(h *HazardHandler) {
	// profile / onboarding
	r.Handle("GET /api/v1/profile", h.GetProfile)
	r.Handle("PUT /api/v1/profile", h.SaveProfile)
	r.Handle("GET /api/v1/onboarding", h.GetOnboarding)
	r.Handle("POST /api/v1/onboarding", h.CompleteOnboarding)

	// rooms
	r.Handle("GET /api/v1/rooms", h.GetRooms)
	r.Handle("POST /api/v1/rooms", h.AddRoom)
	r.Handle("PUT /api/v1/rooms/{id}", h.UpdateRoom)
	r.Handle("DELETE /api/v1/rooms/{id}", h.DeleteRoom)
	r.Handle("GET /api/v1/rooms/{id}/report", h.GetRoomReport)
	r.Handle("PUT /api/v1/rooms/{id}/hazards/{questionID}", h.SetHazardStatus)

	// results
	r.Handle("GET /api/v1/score", h.GetScore)
	r.Handle("GET /api/v1/hazards", h.GetHazards)
	r.Handle("GET /api/v1/hazards/stats", h.GetHazardStats)
	r.Handle("GET /api/v1/recommendations", h.GetRecommendations)
	r.Handle("GET /api/v1/timeline", h.GetTimeline)
	r.Handle("DELETE /api/v1/timeline", h.DeleteTimelineEntry)
	r.Handle("GET /api/v1/export.xlsx", h.Export)
}
