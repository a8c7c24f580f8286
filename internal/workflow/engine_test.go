package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodline/internal/delivery"
	"bloodline/internal/donation"
	"bloodline/internal/events"
	"bloodline/internal/monitoring"
	"bloodline/internal/platform/metrics"
	"bloodline/internal/receive"
	"bloodline/internal/registry"
	"bloodline/pkg/domain"
	dErrors "bloodline/pkg/domain-errors"
	"bloodline/pkg/platform/sentinel"
)

type harness struct {
	engine    *Engine
	donations donation.Store
	requests  receive.Store
	logs      monitoring.Store
	tracker   *delivery.InMemoryTracker
	sink      *events.InMemorySink
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	donations  donation.Store
	sink       events.Sink
	engineOpts []EngineOption
}

func withDonationStore(s donation.Store) harnessOption {
	return func(c *harnessConfig) { c.donations = s }
}

func withSink(s events.Sink) harnessOption {
	return func(c *harnessConfig) { c.sink = s }
}

func withEngineOpts(opts ...EngineOption) harnessOption {
	return func(c *harnessConfig) { c.engineOpts = append(c.engineOpts, opts...) }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()

	cfg := &harnessConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	memSink := events.NewInMemorySink()
	var sink events.Sink = memSink
	if cfg.sink != nil {
		sink = cfg.sink
	}
	if cfg.donations == nil {
		cfg.donations = donation.NewInMemoryStore()
	}

	reg := registry.New()
	tracker := delivery.NewInMemoryTracker()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := events.NewPublisher(sink)
	t.Cleanup(pub.Close)

	requests := receive.NewInMemoryStore()
	logs := monitoring.NewInMemoryStore()
	validator := NewValidator(reg, tracker)
	dispatcher := NewDispatcher(tracker, pub, logger)
	engine := NewEngine(validator, cfg.donations, requests, logs, dispatcher,
		metrics.New(prometheus.NewRegistry()), logger, cfg.engineOpts...)

	return &harness{
		engine:    engine,
		donations: cfg.donations,
		requests:  requests,
		logs:      logs,
		tracker:   tracker,
		sink:      memSink,
	}
}

func (h *harness) seedDonation(t *testing.T, status domain.Status, quantity int) *donation.Donation {
	t.Helper()
	d := donationAt(status, quantity)
	require.NoError(t, h.donations.Create(context.Background(), d))
	return d
}

func (h *harness) seedRequest(t *testing.T, status domain.Status) *receive.Request {
	t.Helper()
	r := requestAt(status)
	require.NoError(t, h.requests.Create(context.Background(), r))
	return r
}

func TestEngineDonationLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := h.seedDonation(t, domain.DonationPending, 0)

	got, version, err := h.engine.ApplyDonationTransition(ctx, d.ID, domain.DonationDonating, domain.RoleNurse, DonationPatch{})
	require.NoError(t, err)
	assert.Equal(t, domain.DonationDonating, got.Status)
	assert.Equal(t, int64(2), version)

	got, version, err = h.engine.ApplyDonationTransition(ctx, d.ID, domain.DonationCompleted, domain.RoleNurse, DonationPatch{QuantityML: ptr(450)})
	require.NoError(t, err)
	assert.Equal(t, domain.DonationCompleted, got.Status)
	assert.Equal(t, 450, got.QuantityML)
	assert.Equal(t, int64(3), version)

	evts := h.sink.Events()
	require.Len(t, evts, 2)
	assert.Equal(t, domain.DonationPending, evts[0].From)
	assert.Equal(t, domain.DonationDonating, evts[0].To)
	assert.Equal(t, domain.DonationDonating, evts[1].From)
	assert.Equal(t, domain.DonationCompleted, evts[1].To)
}

func TestEngineDonationRejectionHasNoEffect(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := h.seedDonation(t, domain.DonationDonating, 0)

	_, _, err := h.engine.ApplyDonationTransition(ctx, d.ID, domain.DonationCompleted, domain.RoleNurse, DonationPatch{QuantityML: ptr(0)})
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPayload))

	stored, version, err := h.donations.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationDonating, stored.Status)
	assert.Equal(t, int64(1), version)
	assert.Empty(t, h.sink.Events())
}

func TestEngineDonationNotFound(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.engine.ApplyDonationTransition(context.Background(),
		domain.DonationID(uuid.New()), domain.DonationDonating, domain.RoleNurse, DonationPatch{})
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestEngineReceiveFulfillmentFlow(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := h.seedRequest(t, domain.ReceivePendingApproval)

	got, _, err := h.engine.ApplyReceiveTransition(ctx, r.ID, domain.ReceiveApproved, domain.RoleManager, ReceivePatch{})
	require.NoError(t, err)
	assert.Equal(t, domain.ReceiveApproved, got.Status)

	// Entering assigned initializes delivery tracking as a side effect.
	assignment := domain.AssignmentID(uuid.New())
	got, _, err = h.engine.ApplyReceiveTransition(ctx, r.ID, domain.ReceiveAssigned, domain.RoleManager, ReceivePatch{AssignmentID: &assignment})
	require.NoError(t, err)
	require.NotNil(t, got.AssignmentID)
	assert.Equal(t, assignment, *got.AssignmentID)

	step, err := h.tracker.Step(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, delivery.StepPendingDispatch, step)

	// Handover is gated on the physical delivery progressing.
	_, _, err = h.engine.ApplyReceiveTransition(ctx, r.ID, domain.ReceiveReadyForHandover, domain.RoleManager, ReceivePatch{})
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPayload))

	require.NoError(t, h.tracker.Advance(ctx, r.ID, delivery.StepInTransit))
	require.NoError(t, h.tracker.Advance(ctx, r.ID, delivery.StepReadyForHandover))
	_, _, err = h.engine.ApplyReceiveTransition(ctx, r.ID, domain.ReceiveReadyForHandover, domain.RoleManager, ReceivePatch{})
	require.NoError(t, err)

	_, _, err = h.engine.ApplyReceiveTransition(ctx, r.ID, domain.ReceiveCompleted, domain.RoleManager, ReceivePatch{})
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPayload))

	require.NoError(t, h.tracker.Advance(ctx, r.ID, delivery.StepHandedOver))
	got, _, err = h.engine.ApplyReceiveTransition(ctx, r.ID, domain.ReceiveCompleted, domain.RoleManager, ReceivePatch{})
	require.NoError(t, err)
	assert.Equal(t, domain.ReceiveCompleted, got.Status)

	assert.Len(t, h.sink.Events(), 4)
}

func TestEngineReceiveUnauthorizedRole(t *testing.T) {
	h := newHarness(t)
	r := h.seedRequest(t, domain.ReceivePendingApproval)

	_, _, err := h.engine.ApplyReceiveTransition(context.Background(), r.ID,
		domain.ReceiveApproved, domain.RoleMember, ReceivePatch{})
	require.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

// conflictingDonationStore forces Put to report a version conflict a fixed
// number of times before delegating.
type conflictingDonationStore struct {
	donation.Store
	mu        sync.Mutex
	remaining int
	puts      int
}

func (s *conflictingDonationStore) Put(ctx context.Context, d *donation.Donation, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	s.puts++
	conflict := s.remaining > 0
	if conflict {
		s.remaining--
	}
	s.mu.Unlock()
	if conflict {
		return 0, sentinel.ErrVersionConflict
	}
	return s.Store.Put(ctx, d, expectedVersion)
}

func TestEngineRetriesThroughConflict(t *testing.T) {
	store := &conflictingDonationStore{Store: donation.NewInMemoryStore(), remaining: 2}
	h := newHarness(t, withDonationStore(store))
	d := h.seedDonation(t, domain.DonationPending, 0)

	got, _, err := h.engine.ApplyDonationTransition(context.Background(), d.ID,
		domain.DonationDonating, domain.RoleNurse, DonationPatch{})
	require.NoError(t, err)
	assert.Equal(t, domain.DonationDonating, got.Status)
	assert.Equal(t, 3, store.puts)
}

func TestEngineSurfacesConflictAfterBoundedRetries(t *testing.T) {
	store := &conflictingDonationStore{Store: donation.NewInMemoryStore(), remaining: 100}
	h := newHarness(t, withDonationStore(store))
	d := h.seedDonation(t, domain.DonationPending, 0)

	_, _, err := h.engine.ApplyDonationTransition(context.Background(), d.ID,
		domain.DonationDonating, domain.RoleNurse, DonationPatch{})
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, 3, store.puts, "load-validate-commit runs a bounded number of times")
	assert.Empty(t, h.sink.Events())
}

func TestEngineMaxAttemptsConfigurable(t *testing.T) {
	store := &conflictingDonationStore{Store: donation.NewInMemoryStore(), remaining: 100}
	h := newHarness(t, withDonationStore(store), withEngineOpts(WithMaxAttempts(5)))
	d := h.seedDonation(t, domain.DonationPending, 0)

	_, _, err := h.engine.ApplyDonationTransition(context.Background(), d.ID,
		domain.DonationDonating, domain.RoleNurse, DonationPatch{})
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
	assert.Equal(t, 5, store.puts)
}

func TestEngineConcurrentCallersOneWinner(t *testing.T) {
	h := newHarness(t)
	d := h.seedDonation(t, domain.DonationPending, 0)

	const callers = 10
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = h.engine.ApplyDonationTransition(context.Background(), d.ID,
				domain.DonationDonating, domain.RoleNurse, DonationPatch{})
		}()
	}
	wg.Wait()

	// Losers reload the fresh version and re-validate, so they see an
	// already-performed transition rather than a conflict.
	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.True(t,
			dErrors.HasCode(err, dErrors.CodeIllegalTransition) || dErrors.HasCode(err, dErrors.CodeConflict),
			"unexpected error: %v", err)
	}
	assert.Equal(t, 1, wins)

	stored, version, err := h.donations.Get(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationDonating, stored.Status)
	assert.Equal(t, int64(2), version)
}

func TestEngineRequestMonitoringIdempotent(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := h.seedDonation(t, domain.DonationCompleted, 450)

	first, created, err := h.engine.RequestMonitoring(ctx, d.ID, d.DonorID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, d.ID, first.DonationID)
	assert.Nil(t, first.RecordedAt)

	second, created, err := h.engine.RequestMonitoring(ctx, d.ID, d.DonorID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
}

func TestEngineRequestMonitoringRequiresCompletion(t *testing.T) {
	h := newHarness(t)
	d := h.seedDonation(t, domain.DonationDonating, 0)

	_, _, err := h.engine.RequestMonitoring(context.Background(), d.ID, d.DonorID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeInvalidPayload))

	_, _, err = h.engine.RequestMonitoring(context.Background(), domain.DonationID(uuid.New()), d.DonorID)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestEngineRequestMonitoringDefaultsDonor(t *testing.T) {
	h := newHarness(t)
	d := h.seedDonation(t, domain.DonationCompleted, 450)

	log, created, err := h.engine.RequestMonitoring(context.Background(), d.ID, domain.ActorID{})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, d.DonorID, log.DonorID)
}

type failingSink struct{}

func (failingSink) Append(context.Context, events.Event) error {
	return errors.New("sink unavailable")
}

func TestEngineSideEffectFailureLeavesCommitDurable(t *testing.T) {
	h := newHarness(t, withSink(failingSink{}))
	ctx := context.Background()
	d := h.seedDonation(t, domain.DonationPending, 0)

	got, version, err := h.engine.ApplyDonationTransition(ctx, d.ID, domain.DonationDonating, domain.RoleNurse, DonationPatch{})
	require.True(t, dErrors.HasCode(err, dErrors.CodeSideEffectIncomplete))
	require.NotNil(t, got, "committed entity is returned alongside the error")
	assert.Equal(t, domain.DonationDonating, got.Status)
	assert.Equal(t, int64(2), version)

	stored, _, err := h.donations.Get(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DonationDonating, stored.Status)
}

func TestEngineUpdateNotesOnTerminalDonation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	d := h.seedDonation(t, domain.DonationCompleted, 450)

	got, version, err := h.engine.UpdateDonationNotes(ctx, d.ID, "donor reported dizziness, observed 15 min")
	require.NoError(t, err)
	assert.Equal(t, "donor reported dizziness, observed 15 min", got.Notes)
	assert.Equal(t, domain.DonationCompleted, got.Status)
	assert.Equal(t, int64(2), version)
}

func TestEngineClockInjection(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h := newHarness(t, withEngineOpts(WithClock(func() time.Time { return fixed })))
	d := h.seedDonation(t, domain.DonationPending, 0)

	got, _, err := h.engine.ApplyDonationTransition(context.Background(), d.ID,
		domain.DonationDonating, domain.RoleNurse, DonationPatch{})
	require.NoError(t, err)
	assert.Equal(t, fixed, got.StatusChangedAt)
}
