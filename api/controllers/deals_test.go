package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syncdeck/syncdeck-backend/api/middleware"
	"github.com/syncdeck/syncdeck-backend/internal/deals"
	"github.com/syncdeck/syncdeck-backend/pkg/enums"
	"github.com/syncdeck/syncdeck-backend/pkg/logger"
	"github.com/syncdeck/syncdeck-backend/pkg/pagination"
)

type testDealsService struct {
	createFn      func(ctx context.Context, input deals.CreateDealInput) (*deals.DealDTO, error)
	updateStateFn func(ctx context.Context, input deals.UpdateStateInput) (*deals.DealDTO, error)
	getFn         func(ctx context.Context, actor deals.ActorContext, dealID uuid.UUID) (*deals.DealDTO, error)
	listFn        func(ctx context.Context, actor deals.ActorContext, params pagination.Params) (*deals.DealList, error)
	historyFn     func(ctx context.Context, actor deals.ActorContext, dealID uuid.UUID) ([]deals.HistoryEntryDTO, error)
}

func (s *testDealsService) Create(ctx context.Context, input deals.CreateDealInput) (*deals.DealDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &deals.DealDTO{}, nil
}

func (s *testDealsService) UpdateState(ctx context.Context, input deals.UpdateStateInput) (*deals.DealDTO, error) {
	if s.updateStateFn != nil {
		return s.updateStateFn(ctx, input)
	}
	return &deals.DealDTO{}, nil
}

func (s *testDealsService) Get(ctx context.Context, actor deals.ActorContext, dealID uuid.UUID) (*deals.DealDTO, error) {
	if s.getFn != nil {
		return s.getFn(ctx, actor, dealID)
	}
	return &deals.DealDTO{}, nil
}

func (s *testDealsService) ListForUser(ctx context.Context, actor deals.ActorContext, params pagination.Params) (*deals.DealList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, actor, params)
	}
	return &deals.DealList{}, nil
}

func (s *testDealsService) History(ctx context.Context, actor deals.ActorContext, dealID uuid.UUID) ([]deals.HistoryEntryDTO, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, actor, dealID)
	}
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(req *http.Request, userID uuid.UUID, role enums.UserRole) *http.Request {
	ctx := middleware.WithUserID(req.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(role))
	return req.WithContext(ctx)
}

func addRouteParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestCreateDealSuccess(t *testing.T) {
	execID := uuid.New()
	trackID := uuid.New()
	var captured deals.CreateDealInput
	svc := &testDealsService{
		createFn: func(ctx context.Context, input deals.CreateDealInput) (*deals.DealDTO, error) {
			captured = input
			return &deals.DealDTO{ID: uuid.New(), TrackID: input.TrackID, State: enums.DealStatePending}, nil
		},
	}

	body := `{"track_id":"` + trackID.String() + `","terms":{"usage_type":"sync","rights":"exclusive","duration_months":12,"price":1500}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deals", strings.NewReader(body))
	req = authedRequest(req, execID, enums.UserRoleExec)
	resp := httptest.NewRecorder()

	CreateDeal(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.ActorID != execID {
		t.Fatalf("expected actor %s got %s", execID, captured.ActorID)
	}
	if captured.ActorRole != enums.UserRoleExec {
		t.Fatalf("expected exec actor got %s", captured.ActorRole)
	}
	if captured.TrackID != trackID {
		t.Fatalf("expected track %s got %s", trackID, captured.TrackID)
	}
}

func TestCreateDealRejectsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deals", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()

	CreateDeal(&testDealsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCreateDealRejectsMalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deals", strings.NewReader(`{"track_id":`))
	req = authedRequest(req, uuid.New(), enums.UserRoleExec)
	resp := httptest.NewRecorder()

	CreateDeal(&testDealsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateDealStateSuccess(t *testing.T) {
	artistID := uuid.New()
	dealID := uuid.New()
	var captured deals.UpdateStateInput
	svc := &testDealsService{
		updateStateFn: func(ctx context.Context, input deals.UpdateStateInput) (*deals.DealDTO, error) {
			captured = input
			return &deals.DealDTO{ID: input.DealID, State: input.Target}, nil
		},
	}

	body := `{"target":"countered","changes":{"price":2000}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deals/"+dealID.String()+"/state", strings.NewReader(body))
	req = authedRequest(req, artistID, enums.UserRoleArtist)
	req = addRouteParam(req, "dealId", dealID.String())
	resp := httptest.NewRecorder()

	UpdateDealState(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if captured.DealID != dealID {
		t.Fatalf("expected deal %s got %s", dealID, captured.DealID)
	}
	if captured.Target != enums.DealStateCountered {
		t.Fatalf("expected countered got %s", captured.Target)
	}
	if captured.Changes.Price == nil || !captured.Changes.Price.Equal(decimal.NewFromInt(2000)) {
		t.Fatalf("expected price change 2000 got %v", captured.Changes.Price)
	}
}

func TestUpdateDealStateRejectsUnknownTarget(t *testing.T) {
	dealID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/deals/"+dealID.String()+"/state", strings.NewReader(`{"target":"finished"}`))
	req = authedRequest(req, uuid.New(), enums.UserRoleArtist)
	req = addRouteParam(req, "dealId", dealID.String())
	resp := httptest.NewRecorder()

	UpdateDealState(&testDealsService{}, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestDealHistoryWrapsEntries(t *testing.T) {
	dealID := uuid.New()
	svc := &testDealsService{
		historyFn: func(ctx context.Context, actor deals.ActorContext, id uuid.UUID) ([]deals.HistoryEntryDTO, error) {
			return []deals.HistoryEntryDTO{{ID: uuid.New(), DealID: id, Action: enums.DealActionCounter}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/deals/"+dealID.String()+"/history", nil)
	req = authedRequest(req, uuid.New(), enums.UserRoleExec)
	req = addRouteParam(req, "dealId", dealID.String())
	resp := httptest.NewRecorder()

	DealHistory(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data struct {
			Entries []json.RawMessage `json:"entries"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Entries) != 1 {
		t.Fatalf("expected one entry got %d", len(envelope.Data.Entries))
	}
}

func TestListDealsPassesPagination(t *testing.T) {
	var captured pagination.Params
	svc := &testDealsService{
		listFn: func(ctx context.Context, actor deals.ActorContext, params pagination.Params) (*deals.DealList, error) {
			captured = params
			return &deals.DealList{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/deals?limit=25&cursor=abc", nil)
	req = authedRequest(req, uuid.New(), enums.UserRoleExec)
	resp := httptest.NewRecorder()

	ListDeals(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.Limit != 25 {
		t.Fatalf("expected limit 25 got %d", captured.Limit)
	}
	if captured.Cursor != "abc" {
		t.Fatalf("expected cursor abc got %q", captured.Cursor)
	}
}
