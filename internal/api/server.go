package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"AgentKit-Chain/internal/actions"
	"AgentKit-Chain/internal/auth"
	xerrors "AgentKit-Chain/internal/errors"
	"AgentKit-Chain/internal/invocation"
	"AgentKit-Chain/internal/observability/metrics"
	"AgentKit-Chain/internal/schema"
	"AgentKit-Chain/internal/tools"
	"AgentKit-Chain/pkg/logger"
)

const (
	maxBodyBytes = 1 << 20
	defaultLimit = 20
)

// Server 负责暴露 REST 接口，供外部调用工具与动作。
type Server struct {
	addr            string
	tools           []tools.Tool
	actions         *actions.Registry
	journal         invocation.Lister
	metrics         *metrics.Collector
	auth            *auth.Service
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// Option 定义可选配置。
type Option func(*Server)

// WithJournal 启用 /api/v1/invocations 查询。
func WithJournal(lister invocation.Lister) Option {
	return func(s *Server) {
		s.journal = lister
	}
}

// WithMetrics 指定指标收集器，默认使用 metrics.Default。
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) {
		if c != nil {
			s.metrics = c
		}
	}
}

// WithAuth 为 /api/v1 路由启用 API Key 认证。
func WithAuth(svc *auth.Service) Option {
	return func(s *Server) {
		s.auth = svc
	}
}

// WithShutdownTimeout 设置优雅关闭的最长等待时间。
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// NewServer 构造 API 服务实例。
func NewServer(addr string, toolset []tools.Tool, registry *actions.Registry, opts ...Option) *Server {
	s := &Server{
		addr:            addr,
		tools:           toolset,
		actions:         registry,
		metrics:         metrics.Default,
		shutdownTimeout: 5 * time.Second,
		logger:          logger.Named("api"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Handler 返回完整的路由，便于测试与嵌入。
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/v1/tools", s.route("/api/v1/tools", auth.PermToolsRead, s.handleListTools))
	mux.Handle("/api/v1/tools/", s.route("/api/v1/tools/{name}", auth.PermToolsCall, s.handleCallTool))
	mux.Handle("/api/v1/actions", s.route("/api/v1/actions", auth.PermActionsRead, s.handleListActions))
	mux.Handle("/api/v1/actions/", s.route("/api/v1/actions/{name}", auth.PermActionsExecute, s.handleExecuteAction))
	mux.Handle("/api/v1/invocations", s.route("/api/v1/invocations", auth.PermInvocationsRead, s.handleListInvocations))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.Handle("/metrics", s.metrics.Handler())
	return mux
}

// Start 启动 HTTP 服务，直到上下文取消或出现错误。
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           withContext(ctx, s.Handler()),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("API 服务已启动", slog.String("address", s.addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

type descriptor struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

func (s *Server) handleListTools(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, xerrors.New(xerrors.CodeInvalidArgument, "仅支持 GET"))
		return
	}
	out := make([]descriptor, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, descriptor{Name: t.Name(), Description: t.Description(), InputSchema: t.Fields().JSONSchema()})
	}
	writeJSON(w, http.StatusOK, out)
}

// handleCallTool 以请求体作为工具原始输入，始终返回信封。
func (s *Server) handleCallTool(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, xerrors.New(xerrors.CodeInvalidArgument, "仅支持 POST"))
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/tools/")
	tool, err := tools.Lookup(s.tools, name)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, xerrors.Wrap(xerrors.CodeDecodeFailed, err, "读取请求体失败"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, tools.Encode(tool.Run(r.Context(), string(body))))
}

func (s *Server) handleListActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, xerrors.New(xerrors.CodeInvalidArgument, "仅支持 GET"))
		return
	}
	if s.actions == nil {
		writeJSON(w, http.StatusOK, []descriptor{})
		return
	}
	list := s.actions.List()
	out := make([]descriptor, 0, len(list))
	for _, a := range list {
		out = append(out, descriptor{Name: a.Name, Description: a.Description, InputSchema: a.Schema.JSONSchema()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleExecuteAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, xerrors.New(xerrors.CodeInvalidArgument, "仅支持 POST"))
		return
	}
	if s.actions == nil {
		writeError(w, http.StatusServiceUnavailable, xerrors.New(xerrors.CodeInitializationFailure, "动作注册表未初始化"))
		return
	}
	name := strings.TrimPrefix(r.URL.Path, "/api/v1/actions/")
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, xerrors.Wrap(xerrors.CodeDecodeFailed, err, "读取请求体失败"))
		return
	}
	params, err := schema.Decode(string(body))
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	result, err := s.actions.Execute(r.Context(), name, params)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (s *Server) handleListInvocations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, xerrors.New(xerrors.CodeInvalidArgument, "仅支持 GET"))
		return
	}
	if s.journal == nil {
		writeError(w, http.StatusNotFound, xerrors.New(xerrors.CodeNotFound, "当前调用记录驱动不支持查询"))
		return
	}
	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := s.journal.ListLatest(r.Context(), limit)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if records == nil {
		records = []invocation.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// statusFor 将错误码映射为 HTTP 状态码。
func statusFor(err error) int {
	switch xerrors.CodeOf(err) {
	case xerrors.CodeDecodeFailed, xerrors.CodeValidationFailed, xerrors.CodeEnumLookup,
		xerrors.CodeMissingParameter, xerrors.CodeInvalidArgument:
		return http.StatusBadRequest
	case xerrors.CodeNotFound, xerrors.CodeToolNotFound, xerrors.CodeActionNotFound:
		return http.StatusNotFound
	case xerrors.CodeDelegateFailure:
		return http.StatusBadGateway
	case xerrors.CodeTimeout:
		return http.StatusGatewayTimeout
	case xerrors.CodeInitializationFailure:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	body := errorBody{Code: string(xerrors.CodeOf(err)), Message: err.Error()}
	if coded, ok := xerrors.From(err); ok {
		body.Message = coded.Error()
	}
	writeJSON(w, status, map[string]errorBody{"error": body})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// route 组合认证与指标中间件，认证失败同样计入指标。
func (s *Server) route(pattern, permission string, next http.HandlerFunc) http.Handler {
	var handler http.Handler = next
	if s.auth != nil {
		handler = s.auth.Middleware(auth.MiddlewareConfig{
			RequiredPermissions: map[string][]string{"*": {permission}},
			AuditEvent:          pattern,
		})(handler)
	}
	return s.instrument(pattern, handler.ServeHTTP)
}

// instrument 记录请求耗时与状态码。
func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		s.metrics.ObserveHTTPRequest(route, r.Method, rec.status, time.Since(started))
	})
}

// withContext 确保请求处理能够感知根上下文取消。
func withContext(ctx context.Context, handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			http.Error(w, "服务已关闭", http.StatusServiceUnavailable)
			return
		default:
		}
		handler.ServeHTTP(w, r)
	})
}
