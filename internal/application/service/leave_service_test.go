package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/firm-portal/internal/domain/entity"
	"github.com/garyjia/firm-portal/internal/domain/event"
	"github.com/garyjia/firm-portal/internal/infrastructure/httpclient"
)

const pendingLineManagerJSON = `{
	"id": "lv-1",
	"staff": {"id": "s-7", "name": "Sam"},
	"leaveType": {"id": "annual", "name": "Annual"},
	"startDate": "2026-05-04",
	"endDate": "2026-05-05",
	"totalDays": 2,
	"reason": "Family visit",
	"status": "pending_linemanager",
	"approverChain": [
		{"role": "teamLead", "status": "approved", "assignee": {"id": "s-1", "name": "Tara"}},
		{"role": "lineManager", "status": "pending", "assignee": {"id": "s-2", "name": "Lee"}},
		{"role": "hr", "status": "pending"}
	]
}`

func TestLeaveService_MyLeaves(t *testing.T) {
	env := newTestEnv(t)
	env.backend.handle(http.MethodGet, "/api/leave/my-leaves", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[` + pendingLineManagerJSON + `]}`))
	})

	leaves, err := NewLeaveService(env.client, env.events, nopLogger{}).MyLeaves(context.Background())
	require.NoError(t, err)
	require.Len(t, leaves, 1)
	assert.Equal(t, "pending_linemanager", leaves[0].Status)
	assert.Equal(t, "Annual", leaves[0].LeaveType.Label())
	assert.Len(t, leaves[0].ApproverChain, 3)
}

func TestLeaveService_Approve(t *testing.T) {
	env := newTestEnv(t)
	var body map[string]string
	env.backend.handle(http.MethodPost, "/api/leave/lv-1/approve", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
	})

	var published []*event.Event
	env.events.Subscribe(event.TypeLeaveApproved, func(_ context.Context, evt *event.Event) error {
		published = append(published, evt)
		return nil
	})

	svc := NewLeaveService(env.client, env.events, nopLogger{})
	err := svc.Approve(context.Background(), Decision{
		RequestID:     "lv-1",
		CurrentStatus: "pending_linemanager",
		DecisionForm:  entity.DecisionForm{Comment: "enjoy"},
	})
	require.NoError(t, err)
	assert.Equal(t, "enjoy", body["comment"])
	require.Len(t, published, 1)
	assert.Equal(t, "lv-1", published[0].Subject)
}

func TestLeaveService_RefusesTerminalRequests(t *testing.T) {
	env := newTestEnv(t)
	svc := NewLeaveService(env.client, env.events, nopLogger{})
	ctx := context.Background()

	for _, current := range []string{"approved", "rejected", "Declined", "cancelled"} {
		err := svc.Approve(ctx, Decision{RequestID: "lv-1", CurrentStatus: current})
		assert.ErrorIs(t, err, ErrNotActionable, current)

		err = svc.Reject(ctx, Decision{RequestID: "lv-1", CurrentStatus: current, DecisionForm: entity.DecisionForm{Reason: "x"}})
		assert.ErrorIs(t, err, ErrNotActionable, current)
	}
	assert.Empty(t, env.backend.Hits())
}

func TestLeaveService_Reject(t *testing.T) {
	env := newTestEnv(t)
	var body entity.DecisionForm
	env.backend.handle(http.MethodPost, "/api/leave/lv-1/reject", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.WriteHeader(http.StatusNoContent)
	})
	svc := NewLeaveService(env.client, env.events, nopLogger{})

	err := svc.Reject(context.Background(), Decision{RequestID: "lv-1", CurrentStatus: "pending_hr"})
	var verr *entity.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "reason", verr.Fields[0].Field)
	assert.Empty(t, env.backend.Hits())

	err = svc.Reject(context.Background(), Decision{
		RequestID:    "lv-1",
		DecisionForm: entity.DecisionForm{Reason: "Overlaps trial", Comment: "sorry"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Overlaps trial", body.Reason)
	assert.Equal(t, "sorry", body.Comment)
}

func TestLeaveService_Apply(t *testing.T) {
	env := newTestEnv(t)
	var sent map[string]any
	env.backend.handle(http.MethodPost, "/api/leave", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&sent)
		writeJSON(w, http.StatusCreated, map[string]any{"data": map[string]any{
			"id": "lv-9", "status": "pending_teamlead", "leaveType": "annual", "totalDays": 1, "reason": "rest",
		}})
	})
	svc := NewLeaveService(env.client, env.events, nopLogger{})

	_, err := svc.Apply(context.Background(), entity.LeaveDraft{LeaveTypeID: "annual"})
	require.Error(t, err)
	assert.Empty(t, env.backend.Hits())

	day := entity.NewDate(2026, time.June, 1)
	created, err := svc.Apply(context.Background(), entity.LeaveDraft{
		LeaveTypeID: "annual", StartDate: day, EndDate: day, Reason: "rest",
	})
	require.NoError(t, err)
	assert.Equal(t, "lv-9", created.ID)
	assert.Equal(t, "2026-06-01", sent["startDate"])
}

func TestLeaveService_UnauthorizedClearsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.sessions.Login(ctx, entity.ScopeLeave, "stale", nil)
	require.NoError(t, err)
	_, err = env.sessions.Login(ctx, entity.ScopeCMS, "fine", nil)
	require.NoError(t, err)

	env.backend.json(http.MethodGet, "/api/leave/pending-approvals", http.StatusUnauthorized, map[string]string{"message": "expired"})

	_, err = NewLeaveService(env.client, env.events, nopLogger{}).PendingApprovals(ctx)
	assert.True(t, httpclient.IsAuthRequired(err))
	assert.Len(t, env.backend.Hits(), 1)

	_, ok := env.sessions.Current(entity.ScopeLeave)
	assert.False(t, ok)
	_, ok = env.sessions.Current(entity.ScopeCMS)
	assert.True(t, ok)
}

func TestLeaveService_ForwardedUnauthorizedKeepsSession(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.sessions.Login(ctx, entity.ScopeLeave, "cli-token", nil)
	require.NoError(t, err)

	env.backend.json(http.MethodGet, "/api/leave/my-leaves", http.StatusUnauthorized, map[string]string{"message": "expired"})

	browser := httpclient.WithCredentials(ctx, httpclient.Credentials{Token: "browser-expired"})
	_, err = NewLeaveService(env.client, env.events, nopLogger{}).MyLeaves(browser)
	assert.True(t, httpclient.IsAuthRequired(err))

	sess, ok := env.sessions.Current(entity.ScopeLeave)
	require.True(t, ok)
	assert.Equal(t, "cli-token", sess.AccessToken)
}
