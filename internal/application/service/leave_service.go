package service

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/garyjia/firm-portal/internal/application/dispatcher"
	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/event"
	"github.com/garyjia/firm-portal/internal/domain/status"
	"github.com/garyjia/firm-portal/internal/domain/workflow"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
)

// Decision is an approver's action on a leave request. CurrentStatus, when known,
// lets the service refuse actions the request's state does not allow before calling the backend.
type Decision struct {
	RequestID     string
	CurrentStatus string
	entity.DecisionForm
}

// LeaveService calls the leave portal endpoints
type LeaveService interface {
	MyLeaves(ctx context.Context) ([]entity.LeaveRequest, error)
	PendingApprovals(ctx context.Context) ([]entity.LeaveRequest, error)
	Approve(ctx context.Context, d Decision) error
	Reject(ctx context.Context, d Decision) error
	MyBalance(ctx context.Context) ([]entity.LeaveBalance, error)
	Types(ctx context.Context) ([]entity.LeaveType, error)
	Apply(ctx context.Context, draft entity.LeaveDraft) (*entity.LeaveRequest, error)
}

type leaveServiceImpl struct {
	backend
}

// NewLeaveService creates a new LeaveService
func NewLeaveService(client *httpclient.Client, events dispatcher.Dispatcher, logger Logger) LeaveService {
	return &leaveServiceImpl{backend: backend{client: client, events: events, logger: logger}}
}

func (s *leaveServiceImpl) get(ctx context.Context, path string, out any) error {
	return s.call(ctx, entity.ScopeLeave, httpclient.Request{Method: http.MethodGet, Path: path}, out)
}

func (s *leaveServiceImpl) MyLeaves(ctx context.Context) ([]entity.LeaveRequest, error) {
	var leaves []entity.LeaveRequest
	if err := s.get(ctx, "/api/leave/my-leaves", &leaves); err != nil {
		return nil, err
	}
	return leaves, nil
}

func (s *leaveServiceImpl) PendingApprovals(ctx context.Context) ([]entity.LeaveRequest, error) {
	var leaves []entity.LeaveRequest
	if err := s.get(ctx, "/api/leave/pending-approvals", &leaves); err != nil {
		return nil, err
	}
	return leaves, nil
}

func (s *leaveServiceImpl) MyBalance(ctx context.Context) ([]entity.LeaveBalance, error) {
	var balances []entity.LeaveBalance
	if err := s.get(ctx, "/api/leave/balance/my", &balances); err != nil {
		return nil, err
	}
	return balances, nil
}

func (s *leaveServiceImpl) Types(ctx context.Context) ([]entity.LeaveType, error) {
	var types []entity.LeaveType
	if err := s.get(ctx, "/api/leave/types", &types); err != nil {
		return nil, err
	}
	return types, nil
}

func (s *leaveServiceImpl) Approve(ctx context.Context, d Decision) error {
	if err := s.checkTransition(ctx, d, workflow.TriggerApprove); err != nil {
		return err
	}
	if err := entity.Validate(d.DecisionForm); err != nil {
		return err
	}

	body := map[string]string{"comment": d.Comment}
	if err := s.decide(ctx, d.RequestID, "approve", body); err != nil {
		s.logger.Error("Failed to approve leave", "request_id", d.RequestID, "error", err)
		return err
	}

	s.logger.Info("Leave approved", "request_id", d.RequestID)
	s.publish(ctx, event.New(event.TypeLeaveApproved, string(entity.ScopeLeave), d.RequestID, map[string]any{
		event.KeyComment: d.Comment,
	}))
	return nil
}

func (s *leaveServiceImpl) Reject(ctx context.Context, d Decision) error {
	if err := s.checkTransition(ctx, d, workflow.TriggerReject); err != nil {
		return err
	}
	if d.Reason == "" {
		return &entity.ValidationError{Fields: []entity.FieldError{{Field: "reason", Rule: "required"}}}
	}
	if err := entity.Validate(d.DecisionForm); err != nil {
		return err
	}

	if err := s.decide(ctx, d.RequestID, "reject", d.DecisionForm); err != nil {
		s.logger.Error("Failed to reject leave", "request_id", d.RequestID, "error", err)
		return err
	}

	s.logger.Info("Leave rejected", "request_id", d.RequestID)
	s.publish(ctx, event.New(event.TypeLeaveRejected, string(entity.ScopeLeave), d.RequestID, map[string]any{
		event.KeyReason:  d.Reason,
		event.KeyComment: d.Comment,
	}))
	return nil
}

func (s *leaveServiceImpl) Apply(ctx context.Context, draft entity.LeaveDraft) (*entity.LeaveRequest, error) {
	if err := entity.Validate(draft); err != nil {
		return nil, err
	}

	var created entity.LeaveRequest
	req := httpclient.Request{Method: http.MethodPost, Path: "/api/leave", Body: draft}
	if err := s.call(ctx, entity.ScopeLeave, req, &created); err != nil {
		s.logger.Error("Failed to submit leave", "leave_type", draft.LeaveTypeID, "error", err)
		return nil, err
	}

	s.publish(ctx, event.New(event.TypeLeaveSubmitted, string(entity.ScopeLeave), created.ID, nil))
	return &created, nil
}

func (s *leaveServiceImpl) decide(ctx context.Context, id, action string, body any) error {
	if id == "" {
		return &entity.ValidationError{Fields: []entity.FieldError{{Field: "id", Rule: "required"}}}
	}
	req := httpclient.Request{
		Method: http.MethodPost,
		Path:   fmt.Sprintf("/api/leave/%s/%s", url.PathEscape(id), action),
		Body:   body,
	}
	return s.call(ctx, entity.ScopeLeave, req, nil)
}

// checkTransition refuses triggers the request's current state cannot fire.
// Without a known status the backend decides.
func (s *leaveServiceImpl) checkTransition(ctx context.Context, d Decision, trigger workflow.Trigger) error {
	if d.CurrentStatus == "" {
		return nil
	}

	state, ok := status.Parse(d.CurrentStatus)
	if !ok {
		return fmt.Errorf("%w: unknown status %q", ErrNotActionable, d.CurrentStatus)
	}
	machine := workflow.NewLeaveApprovalMachine(state)
	if err := machine.Fire(ctx, trigger); err != nil {
		return fmt.Errorf("%w: %s from %s", ErrNotActionable, trigger, state)
	}
	return nil
}
