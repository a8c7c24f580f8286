package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"bloodline/internal/monitoring"
	"bloodline/internal/monitoring/handler/mocks"
	"bloodline/pkg/domain"
	dErrors "bloodline/pkg/domain-errors"
	"bloodline/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/engine-mocks.go -package=mocks Engine
type MonitoringHandlerSuite struct {
	suite.Suite
}

func TestMonitoringHandlerSuite(t *testing.T) {
	suite.Run(t, new(MonitoringHandlerSuite))
}

type fixture struct {
	router http.Handler
	engine *mocks.MockEngine
	store  *monitoring.InMemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	engine := mocks.NewMockEngine(ctrl)
	store := monitoring.NewInMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := New(engine, store, logger)
	r := chi.NewRouter()
	h.Register(r)
	return &fixture{router: r, engine: engine, store: store}
}

func (f *fixture) do(method, path string, body any, role domain.Role) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	ctx := requestcontext.WithActor(req.Context(), domain.ActorID(uuid.New()), role)
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (s *MonitoringHandlerSuite) TestCreateNewLog() {
	f := newFixture(s.T())
	donationID := domain.DonationID(uuid.New())
	donorID := domain.ActorID(uuid.New())
	log := monitoring.New(domain.LogID(uuid.New()), donationID, donorID, time.Now())

	f.engine.EXPECT().
		RequestMonitoring(gomock.Any(), donationID, donorID).
		Return(log, true, nil)

	w := f.do(http.MethodPost, "/monitoring",
		map[string]any{"donation_id": donationID.String(), "donor_id": donorID.String()}, domain.RoleNurse)
	require.Equal(s.T(), http.StatusCreated, w.Code)

	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), log.ID.String(), resp["id"])
	assert.Nil(s.T(), resp["recorded_at"])
}

func (s *MonitoringHandlerSuite) TestCreateExistingLogAnswers200() {
	f := newFixture(s.T())
	donationID := domain.DonationID(uuid.New())
	log := monitoring.New(domain.LogID(uuid.New()), donationID, domain.ActorID(uuid.New()), time.Now())

	f.engine.EXPECT().
		RequestMonitoring(gomock.Any(), donationID, domain.ActorID{}).
		Return(log, false, nil)

	w := f.do(http.MethodPost, "/monitoring",
		map[string]any{"donation_id": donationID.String()}, domain.RoleNurse)
	require.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *MonitoringHandlerSuite) TestCreateRequiresStaff() {
	f := newFixture(s.T())

	w := f.do(http.MethodPost, "/monitoring",
		map[string]any{"donation_id": uuid.NewString()}, domain.RoleMember)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)

	var resp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "unauthorized", resp["error"])
}

func (s *MonitoringHandlerSuite) TestCreateRequiresCompletedDonation() {
	f := newFixture(s.T())
	donationID := domain.DonationID(uuid.New())

	f.engine.EXPECT().
		RequestMonitoring(gomock.Any(), donationID, gomock.Any()).
		Return(nil, false, dErrors.New(dErrors.CodeInvalidPayload, "monitoring requires a completed donation"))

	w := f.do(http.MethodPost, "/monitoring",
		map[string]any{"donation_id": donationID.String()}, domain.RoleNurse)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *MonitoringHandlerSuite) TestGetByDonation() {
	f := newFixture(s.T())
	log := monitoring.New(domain.LogID(uuid.New()), domain.DonationID(uuid.New()), domain.ActorID(uuid.New()), time.Now())
	_, created, err := f.store.CreateIfAbsent(context.Background(), log)
	require.NoError(s.T(), err)
	require.True(s.T(), created)

	w := f.do(http.MethodGet, "/monitoring/donations/"+log.DonationID.String(), nil, domain.RoleMember)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), log.ID.String(), resp["id"])

	w = f.do(http.MethodGet, "/monitoring/donations/"+uuid.NewString(), nil, domain.RoleMember)
	require.Equal(s.T(), http.StatusNotFound, w.Code)
}

func (s *MonitoringHandlerSuite) TestSealLog() {
	f := newFixture(s.T())
	log := monitoring.New(domain.LogID(uuid.New()), domain.DonationID(uuid.New()), domain.ActorID(uuid.New()), time.Now())
	_, _, err := f.store.CreateIfAbsent(context.Background(), log)
	require.NoError(s.T(), err)

	w := f.do(http.MethodPatch, "/monitoring/"+log.ID.String(),
		map[string]any{"vitals": "BP 120/80, pulse 72"}, domain.RoleNurse)
	require.Equal(s.T(), http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(s.T(), "BP 120/80, pulse 72", resp["vitals"])
	assert.NotNil(s.T(), resp["recorded_at"])

	// Sealed logs reject further updates.
	w = f.do(http.MethodPatch, "/monitoring/"+log.ID.String(),
		map[string]any{"vitals": "revised"}, domain.RoleNurse)
	require.Equal(s.T(), http.StatusBadRequest, w.Code)

	var errResp map[string]string
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &errResp))
	assert.Equal(s.T(), "invalid_payload", errResp["error"])
}

func (s *MonitoringHandlerSuite) TestSealUnknownLog() {
	f := newFixture(s.T())

	w := f.do(http.MethodPatch, "/monitoring/"+uuid.NewString(),
		map[string]any{"vitals": "BP 120/80"}, domain.RoleNurse)
	require.Equal(s.T(), http.StatusNotFound, w.Code)
}
