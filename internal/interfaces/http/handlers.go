package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/firm-portal/internal/application/service"
	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/status"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	leave     service.LeaveService
	views     *service.LeaveViews
	directory service.DirectoryService
	blogs     service.BlogService
	loginPath string
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, loginPath string, logger Logger) *Handlers {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Handlers{
		leave:     services.Leave,
		views:     service.NewLeaveViews(services.Leave),
		directory: services.Directory,
		blogs:     services.Blogs,
		loginPath: loginPath,
		logger:    logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success  bool   `json:"success"`
	Data     any    `json:"data,omitempty"`
	Error    string `json:"error,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DecisionRequest is the body of approve and reject calls
type DecisionRequest struct {
	CurrentStatus string `json:"currentStatus"`
	Reason        string `json:"reason"`
	Comment       string `json:"comment"`
}

func (h *Handlers) ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	h.ok(c, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	})
}

// DescribeStatus handles GET /api/portal/status/:status
func (h *Handlers) DescribeStatus(c *gin.Context) {
	h.ok(c, status.Describe(c.Param("status")))
}

// MyLeaves handles GET /api/portal/leave/mine
func (h *Handlers) MyLeaves(c *gin.Context) {
	views, err := h.views.Mine(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to load leaves", err)
		return
	}
	h.ok(c, views)
}

// PendingApprovals handles GET /api/portal/leave/pending
func (h *Handlers) PendingApprovals(c *gin.Context) {
	views, err := h.views.Pending(c.Request.Context(), nil)
	if err != nil {
		h.fail(c, "Failed to load pending approvals", err)
		return
	}
	h.ok(c, views)
}

// MyBalance handles GET /api/portal/leave/balance
func (h *Handlers) MyBalance(c *gin.Context) {
	balances, err := h.leave.MyBalance(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to load balance", err)
		return
	}
	h.ok(c, balances)
}

// LeaveTypes handles GET /api/portal/leave/types
func (h *Handlers) LeaveTypes(c *gin.Context) {
	types, err := h.leave.Types(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to load leave types", err)
		return
	}
	h.ok(c, types)
}

// ApplyLeave handles POST /api/portal/leave
func (h *Handlers) ApplyLeave(c *gin.Context) {
	var draft entity.LeaveDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		h.badRequest(c, "invalid leave request body", err)
		return
	}

	created, err := h.leave.Apply(c.Request.Context(), draft)
	if err != nil {
		h.fail(c, "Failed to apply for leave", err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: status.Interpret(created)})
}

// ApproveLeave handles POST /api/portal/leave/:id/approve
func (h *Handlers) ApproveLeave(c *gin.Context) {
	decision, ok := h.bindDecision(c)
	if !ok {
		return
	}
	if err := h.leave.Approve(c.Request.Context(), decision); err != nil {
		h.fail(c, "Failed to approve leave", err, "id", decision.RequestID)
		return
	}
	h.ok(c, gin.H{"id": decision.RequestID, "action": "approved"})
}

// RejectLeave handles POST /api/portal/leave/:id/reject
func (h *Handlers) RejectLeave(c *gin.Context) {
	decision, ok := h.bindDecision(c)
	if !ok {
		return
	}
	if err := h.leave.Reject(c.Request.Context(), decision); err != nil {
		h.fail(c, "Failed to reject leave", err, "id", decision.RequestID)
		return
	}
	h.ok(c, gin.H{"id": decision.RequestID, "action": "rejected"})
}

// bindDecision reads an optional decision body. An empty body is a decision with no comment.
func (h *Handlers) bindDecision(c *gin.Context) (service.Decision, bool) {
	var body DecisionRequest
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(c, "invalid decision body", err)
		return service.Decision{}, false
	}
	return service.Decision{
		RequestID:     c.Param("id"),
		CurrentStatus: body.CurrentStatus,
		DecisionForm:  entity.DecisionForm{Reason: body.Reason, Comment: body.Comment},
	}, true
}

// Directory handles GET /api/portal/directory
func (h *Handlers) Directory(c *gin.Context) {
	dir, err := h.directory.Load(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to load directory", err)
		return
	}
	h.ok(c, dir)
}

// PublicBlogs handles GET /api/portal/blogs
func (h *Handlers) PublicBlogs(c *gin.Context) {
	posts, err := h.blogs.Public(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to load posts", err)
		return
	}
	h.ok(c, posts)
}

// LikeBlog handles POST /api/portal/blogs/:id/like
func (h *Handlers) LikeBlog(c *gin.Context) {
	result, err := h.blogs.Like(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to like post", err, "id", c.Param("id"))
		return
	}
	h.ok(c, result)
}

func (h *Handlers) badRequest(c *gin.Context, message string, err error) {
	h.logger.Error("Invalid request", "path", c.Request.URL.Path, "error", err)
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: message})
}

// fail logs err and writes the response its kind maps to
func (h *Handlers) fail(c *gin.Context, msg string, err error, keysAndValues ...any) {
	h.logger.Error(msg, append(keysAndValues, "error", err)...)

	code, resp := h.errorResponse(err)
	c.JSON(code, resp)
}

func (h *Handlers) errorResponse(err error) (int, Response) {
	resp := Response{Success: false, Error: err.Error()}

	var verr *entity.ValidationError
	if errors.As(err, &verr) {
		resp.Data = verr.Fields
		return http.StatusBadRequest, resp
	}
	switch {
	case errors.Is(err, service.ErrNotActionable):
		return http.StatusConflict, resp
	case errors.Is(err, service.ErrNoVisitor):
		return http.StatusServiceUnavailable, resp
	}

	apiErr, ok := httpclient.AsAPIError(err)
	if !ok {
		return http.StatusInternalServerError, resp
	}

	switch apiErr.Kind {
	case httpclient.KindAuthRequired:
		resp.Redirect = h.loginPath
		return http.StatusUnauthorized, resp
	case httpclient.KindTimeout:
		return http.StatusGatewayTimeout, resp
	case httpclient.KindNetwork, httpclient.KindServer:
		return http.StatusBadGateway, resp
	case httpclient.KindClient:
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			return apiErr.Status, resp
		}
		return http.StatusBadRequest, resp
	}
	return http.StatusInternalServerError, resp
}

// forwardCredentials carries the browser's bearer token and cookies into the request context
func forwardCredentials() gin.HandlerFunc {
	return func(c *gin.Context) {
		creds := httpclient.Credentials{Cookie: c.GetHeader("Cookie")}
		if token, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer "); found {
			creds.Token = strings.TrimSpace(token)
		}
		if creds != (httpclient.Credentials{}) {
			c.Request = c.Request.WithContext(httpclient.WithCredentials(c.Request.Context(), creds))
		}
		c.Next()
	}
}
