package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/application/retry"
	"github.com/garyjia/library-acquisition/internal/application/service"
	appwf "github.com/garyjia/library-acquisition/internal/application/workflow"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	domainwf "github.com/garyjia/library-acquisition/internal/domain/workflow"
	"github.com/garyjia/library-acquisition/internal/infrastructure/metrics"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Reasons []string        `json:"reasons"`
}

type testServer struct {
	server   *Server
	workflow *mockWorkflow
	lists    *mockListService
	holds    *mockHoldsService
	reports  *mockReportService
	history  *mockHistoryService
	vendors  *mockVendorService
	logger   *mockLogger
}

func newTestServer(t *testing.T, opts ...ServerOption) *testServer {
	t.Helper()

	ts := &testServer{
		workflow: &mockWorkflow{},
		lists:    &mockListService{},
		holds:    &mockHoldsService{},
		reports:  &mockReportService{},
		history:  &mockHistoryService{},
		vendors:  &mockVendorService{},
		logger:   &mockLogger{},
	}
	opts = append([]ServerOption{WithRetryOptions(retry.WithBaseDelay(0))}, opts...)
	ts.server = NewServer(DefaultServerConfig(), Services{
		Workflow: ts.workflow,
		Lists:    ts.lists,
		Holds:    ts.holds,
		Reports:  ts.reports,
		Vendors:  ts.vendors,
		History:  ts.history,
	}, ts.logger, opts...)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.server.Router().ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func sampleRequest(status domainwf.State) *entity.AcquisitionRequest {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &entity.AcquisitionRequest{
		ID:              "req-1",
		Status:          status,
		Kind:            entity.KindPurchase,
		Requester:       entity.Requester{ID: "u1", Name: "Ada", Email: "ada@example.org"},
		CatalogRecordID: "rec-1",
		ItemID:          "item-1",
		Copies:          1,
		PaymentMethod:   entity.PaymentCash,
		Delivery:        entity.DeliveryPickUp,
		IssuedDate:      now,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         1,
	}
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"status":"healthy"`)
}

func TestCreateAcquisition(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		ts := newTestServer(t)
		var got appwf.CreateInput
		ts.workflow.createFunc = func(ctx context.Context, in appwf.CreateInput) (*entity.AcquisitionRequest, error) {
			got = in
			return sampleRequest(domainwf.StateRequested), nil
		}

		w, env := ts.do(t, http.MethodPost, "/api/acquisitions", `{
			"kind": "purchase",
			"requester": {"id": "u1", "name": "Ada", "email": "ada@example.org"},
			"catalog_record_id": "rec-1",
			"copies": 2,
			"payment_method": "acquisition_payment_method_cash",
			"price": "19.90",
			"currency": "EUR"
		}`)

		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.True(t, env.Success)
		assert.Equal(t, entity.KindPurchase, got.Kind)
		assert.Equal(t, "ada@example.org", got.Requester.Email)
		assert.Equal(t, 2, got.Copies)
		assert.True(t, got.Price.Valid)
		assert.True(t, got.Price.Decimal.Equal(decimal.RequireFromString("19.9")))
		assert.Equal(t, "EUR", got.Currency)

		var resp AcquisitionResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, "req-1", resp.ID)
		assert.Equal(t, "requested", resp.Status)
		assert.Nil(t, resp.Price)
		assert.Equal(t, "2026-03-01T09:00:00Z", resp.IssuedDate)
	})

	t.Run("price may be omitted", func(t *testing.T) {
		ts := newTestServer(t)
		var got appwf.CreateInput
		ts.workflow.createFunc = func(ctx context.Context, in appwf.CreateInput) (*entity.AcquisitionRequest, error) {
			got = in
			return sampleRequest(domainwf.StateRequested), nil
		}

		w, _ := ts.do(t, http.MethodPost, "/api/acquisitions", `{"kind": "acquisition", "price": null}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.False(t, got.Price.Valid)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantReason string
	}{
		{
			name:       "guard violation",
			err:        domainwf.NewGuardViolation("create", "", []string{"copies must be positive, got 0", "requester email is required"}),
			wantStatus: http.StatusUnprocessableEntity,
			wantReason: "requester email is required",
		},
		{
			name:       "provisioning failure",
			err:        fmt.Errorf("%w: %w", appwf.ErrProvisioning, port.ErrCatalogRecordNotFound),
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "storage failure",
			err:        fmt.Errorf("%w: disk full", appwf.ErrStorage),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			ts.workflow.createFunc = func(ctx context.Context, in appwf.CreateInput) (*entity.AcquisitionRequest, error) {
				return nil, tt.err
			}

			w, env := ts.do(t, http.MethodPost, "/api/acquisitions", `{"kind": "purchase"}`)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.False(t, env.Success)
			if tt.wantReason != "" {
				assert.Contains(t, env.Reasons, tt.wantReason)
			}
		})
	}

	t.Run("storage detail is not leaked", func(t *testing.T) {
		ts := newTestServer(t)
		ts.workflow.createFunc = func(ctx context.Context, in appwf.CreateInput) (*entity.AcquisitionRequest, error) {
			return nil, fmt.Errorf("%w: disk full", appwf.ErrStorage)
		}

		_, env := ts.do(t, http.MethodPost, "/api/acquisitions", `{}`)

		assert.Equal(t, "create acquisition failed", env.Error)
		assert.Equal(t, 1, ts.logger.errorCount())
	})

	t.Run("malformed body", func(t *testing.T) {
		ts := newTestServer(t)

		w, env := ts.do(t, http.MethodPost, "/api/acquisitions", `{"copies": "many"`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid request body", env.Error)
	})
}

func TestGetAcquisition_NotFound(t *testing.T) {
	ts := newTestServer(t)
	ts.workflow.getFunc = func(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
		return nil, port.ErrNotFound
	}

	w, env := ts.do(t, http.MethodGet, "/api/acquisitions/missing", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
}

func TestConfirmAcquisition(t *testing.T) {
	t.Run("passes order details", func(t *testing.T) {
		ts := newTestServer(t)
		var gotID string
		var got appwf.ConfirmInput
		ts.workflow.confirmFunc = func(ctx context.Context, id string, in appwf.ConfirmInput) (*entity.AcquisitionRequest, error) {
			gotID, got = id, in
			req := sampleRequest(domainwf.StateOrdered)
			req.VendorID = in.VendorID
			req.Price = decimal.NewNullDecimal(in.Price)
			req.Currency = in.Currency
			return req, nil
		}

		w, env := ts.do(t, http.MethodPost, "/api/acquisitions/req-1/confirm",
			`{"vendor_id": "amazon.com", "price": 12.5, "currency": "EUR"}`)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "req-1", gotID)
		assert.Equal(t, "amazon.com", got.VendorID)
		assert.True(t, got.Price.Equal(decimal.RequireFromString("12.5")))

		var resp AcquisitionResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		require.NotNil(t, resp.Price)
		assert.Equal(t, "12.50", *resp.Price)
		assert.Equal(t, "ordered", resp.Status)
	})

	t.Run("price is required", func(t *testing.T) {
		ts := newTestServer(t)

		w, env := ts.do(t, http.MethodPost, "/api/acquisitions/req-1/confirm", `{"vendor_id": "amazon.com"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, []string{"price is required"}, env.Reasons)
	})

	t.Run("wrong state", func(t *testing.T) {
		ts := newTestServer(t)
		ts.workflow.confirmFunc = func(ctx context.Context, id string, in appwf.ConfirmInput) (*entity.AcquisitionRequest, error) {
			return nil, domainwf.NewGuardViolation("confirm", domainwf.StateCanceled, []string{"acquisition request is canceled"})
		}

		w, env := ts.do(t, http.MethodPost, "/api/acquisitions/req-1/confirm", `{"vendor_id": "v", "price": 1, "currency": "EUR"}`)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "confirm rejected", env.Error)
		assert.Equal(t, []string{"acquisition request is canceled"}, env.Reasons)
	})
}

func TestTransitions_RetryOnConflict(t *testing.T) {
	t.Run("succeeds after conflicts", func(t *testing.T) {
		ts := newTestServer(t)
		calls := 0
		ts.workflow.transitionFn = func(ctx context.Context, trigger, id string) (*entity.AcquisitionRequest, error) {
			calls++
			if calls < 3 {
				return nil, port.ErrConflict
			}
			return sampleRequest(domainwf.StateDelivered), nil
		}

		w, env := ts.do(t, http.MethodPost, "/api/acquisitions/req-1/deliver", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up with conflict", func(t *testing.T) {
		ts := newTestServer(t)
		calls := 0
		ts.workflow.transitionFn = func(ctx context.Context, trigger, id string) (*entity.AcquisitionRequest, error) {
			calls++
			return nil, port.ErrConflict
		}

		w, _ := ts.do(t, http.MethodPost, "/api/acquisitions/req-1/receive", "")

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 4, calls)
	})

	t.Run("guard violations are not retried", func(t *testing.T) {
		ts := newTestServer(t)
		calls := 0
		ts.workflow.transitionFn = func(ctx context.Context, trigger, id string) (*entity.AcquisitionRequest, error) {
			calls++
			return nil, domainwf.NewGuardViolation(trigger, domainwf.StateOrdered, []string{"cannot decline"})
		}

		w, _ := ts.do(t, http.MethodPost, "/api/acquisitions/req-1/decline", "")

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, 1, calls)
	})
}

func TestCancelAcquisition(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantReason string
	}{
		{"with reason", `{"reason": "patron left"}`, "patron left"},
		{"without body", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)
			var gotReason string
			ts.workflow.cancelFunc = func(ctx context.Context, id, reason string) (*entity.AcquisitionRequest, error) {
				gotReason = reason
				return sampleRequest(domainwf.StateCanceled), nil
			}

			w, _ := ts.do(t, http.MethodPost, "/api/acquisitions/req-1/cancel", tt.body)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantReason, gotReason)
		})
	}
}

func TestAcquisitionActions(t *testing.T) {
	ts := newTestServer(t)
	ts.workflow.inspectFunc = func(ctx context.Context, id string) (*appwf.Inspection, error) {
		return &appwf.Inspection{
			RequestID:  id,
			State:      domainwf.StateRequested,
			Permitted:  []domainwf.Trigger{domainwf.TriggerConfirm, domainwf.TriggerDecline, domainwf.TriggerCancel},
			Violations: map[domainwf.Trigger][]string{domainwf.TriggerReceive: {"cannot receive"}},
		}, nil
	}

	w, env := ts.do(t, http.MethodGet, "/api/acquisitions/req-1/actions", "")

	require.Equal(t, http.StatusOK, w.Code)
	var got appwf.Inspection
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "req-1", got.RequestID)
	assert.Len(t, got.Permitted, 3)
	assert.Equal(t, []string{"cannot receive"}, got.Violations[domainwf.TriggerReceive])
}

func TestAcquisitionEvents(t *testing.T) {
	ts := newTestServer(t)
	ts.history.historyFunc = func(ctx context.Context, requestID string) (*service.History, error) {
		if requestID != "req-1" {
			return nil, port.ErrNotFound
		}
		return &service.History{RequestID: requestID}, nil
	}

	w, _ := ts.do(t, http.MethodGet, "/api/acquisitions/req-1/events", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/acquisitions/req-2/events", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAcquisitions(t *testing.T) {
	ts := newTestServer(t)
	var gotStatus domainwf.State
	var gotKind entity.Kind
	ts.lists.listFunc = func(ctx context.Context, status domainwf.State, kind entity.Kind) ([]service.ListRow, error) {
		gotStatus, gotKind = status, kind
		return []service.ListRow{{RequestID: "req-1"}}, nil
	}
	ts.lists.namedFunc = func(ctx context.Context, name string) (*service.NamedList, []service.ListRow, error) {
		for i := range service.NamedLists {
			if service.NamedLists[i].Name == name {
				return &service.NamedLists[i], []service.ListRow{}, nil
			}
		}
		return nil, nil, fmt.Errorf("%w: list %q", port.ErrNotFound, name)
	}

	w, env := ts.do(t, http.MethodGet, "/api/acquisitions?status=ordered&kind=purchase", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, domainwf.StateOrdered, gotStatus)
	assert.Equal(t, entity.KindPurchase, gotKind)
	var resp ListAcquisitionsResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Nil(t, resp.List)
	assert.Len(t, resp.Rows, 1)

	w, env = ts.do(t, http.MethodGet, "/api/acquisitions?list=ordered_acquisition", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp = ListAcquisitionsResponse{}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotNil(t, resp.List)
	assert.Equal(t, "Acquisition Orders", resp.List.Title)

	w, _ = ts.do(t, http.MethodGet, "/api/acquisitions?list=everything", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAcquisitions_InvalidFilter(t *testing.T) {
	ts := newTestServer(t)
	ts.lists.listFunc = func(ctx context.Context, status domainwf.State, kind entity.Kind) ([]service.ListRow, error) {
		return nil, fmt.Errorf("%w: unknown status %q", service.ErrInvalidInput, status)
	}

	w, env := ts.do(t, http.MethodGet, "/api/acquisitions?status=Lost", "")

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, env.Error, "unknown status")
}

func TestItemReturned(t *testing.T) {
	ts := newTestServer(t)
	ts.workflow.finalizeFunc = func(ctx context.Context, itemID string) (bool, error) {
		return itemID == "item-1", nil
	}

	for _, tc := range []struct {
		itemID  string
		handled bool
	}{
		{"item-1", true},
		{"shelf-42", false},
	} {
		w, env := ts.do(t, http.MethodPost, "/api/items/"+tc.itemID+"/returned", "")
		require.Equal(t, http.StatusOK, w.Code)

		var resp ItemReturnedResponse
		require.NoError(t, json.Unmarshal(env.Data, &resp))
		assert.Equal(t, tc.handled, resp.Handled, tc.itemID)
	}
}

func TestUserHolds(t *testing.T) {
	ts := newTestServer(t)
	ts.holds.holdsFunc = func(ctx context.Context, userID string) ([]service.HoldSection, error) {
		return []service.HoldSection{{Heading: "Current Acquisition Requests", Holds: []service.ListRow{}}}, nil
	}

	w, env := ts.do(t, http.MethodGet, "/api/users/u1/holds", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Current Acquisition Requests")
}

func TestExportReport(t *testing.T) {
	ts := newTestServer(t)
	ts.reports.exportFunc = func(ctx context.Context, status domainwf.State, kind entity.Kind) ([]byte, error) {
		return []byte("PK\x03\x04"), nil
	}

	w, _ := ts.do(t, http.MethodGet, "/api/reports/acquisitions.xlsx?kind=purchase", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "acquisitions.xlsx")
	assert.Equal(t, "PK\x03\x04", w.Body.String())
}

func TestVendors(t *testing.T) {
	ts := newTestServer(t)
	ts.vendors.listFunc = func(ctx context.Context) ([]*entity.Vendor, error) {
		return nil, nil
	}
	ts.vendors.createFunc = func(ctx context.Context, in service.VendorInput) (*entity.Vendor, error) {
		if in.Name == "" {
			return nil, fmt.Errorf("%w: vendor name is required", service.ErrInvalidInput)
		}
		return &entity.Vendor{ID: "v1", Name: in.Name}, nil
	}
	ts.vendors.getFunc = func(ctx context.Context, id string) (*entity.Vendor, error) {
		return nil, port.ErrNotFound
	}

	w, env := ts.do(t, http.MethodGet, "/api/vendors", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(env.Data))

	w, _ = ts.do(t, http.MethodPost, "/api/vendors", `{"name": "amazon.com"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/vendors", `{"name": ""}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/api/vendors/v9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	collector := metrics.NewCollector()
	ts := newTestServer(t, WithMetrics(collector.Middleware(), collector.Handler()))

	ts.do(t, http.MethodGet, "/health", "")
	w, _ := ts.do(t, http.MethodGet, "/metrics", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `acquisition_http_requests_total{code="200",method="GET",route="/health"} 1`)
}

func TestWriteError_UnknownErrorIs500(t *testing.T) {
	ts := newTestServer(t)
	ts.workflow.getFunc = func(ctx context.Context, id string) (*entity.AcquisitionRequest, error) {
		return nil, errors.New("boom")
	}

	w, env := ts.do(t, http.MethodGet, "/api/acquisitions/req-1", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "get acquisition failed", env.Error)
}
