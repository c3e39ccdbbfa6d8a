package services

import (
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"payshield-service/internal/models"
)

// stubDisburser stands in for an external disbursement provider.
type stubDisburser struct {
	result DisbursementResult
	err    error
	calls  int
}

func (s *stubDisburser) Send(payout *models.Payout) (DisbursementResult, error) {
	s.calls++
	if s.err != nil {
		return DisbursementResult{}, s.err
	}
	return s.result, nil
}

func newTestLifecycle(db *gorm.DB, disburser Disburser) *PayoutLifecycleService {
	return NewPayoutLifecycleService(db, NewAuditService(db), nil, map[string]Disburser{
		models.MethodEFT: disburser,
	}, false)
}

// seedPayout creates a CREATED payout with one attributed base transaction.
func seedPayout(t *testing.T, db *gorm.DB) *models.Payout {
	t.Helper()
	payout := models.Payout{
		PayeeType:     models.PayeeGuard,
		PayeeId:       17,
		PayoutDay:     "2026-08-29",
		Amount:        decimal.NewFromFloat(87.72),
		Status:        models.PayoutCreated,
		Method:        models.MethodEFT,
		ReferenceCode: "PS-test-ref",
	}
	require.NoError(t, db.Create(&payout).Error)

	base := models.Transaction{
		Provider:    "ozow",
		ProviderRef: "oz-base-1",
		PayeeType:   models.PayeeGuard,
		PayeeId:     17,
		AmountGross: decimal.NewFromFloat(100),
		AmountNet:   decimal.NewFromFloat(87.72),
		Status:      models.StatusComplete,
		PayoutId:    &payout.ID,
	}
	require.NoError(t, db.Create(&base).Error)
	return &payout
}

func attempts(t *testing.T, db *gorm.DB, payoutId uint) []models.Transaction {
	t.Helper()
	var rows []models.Transaction
	require.NoError(t, db.Where("payout_id = ? AND retry_of IS NOT NULL", payoutId).
		Order("id").Find(&rows).Error)
	return rows
}

func TestApprove(t *testing.T) {
	db := setupTestDB(t)
	lifecycle := newTestLifecycle(db, &stubDisburser{})
	payout := seedPayout(t, db)

	actor := 42
	approved, err := lifecycle.Approve(payout.ID, &actor)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutApproved, approved.Status)

	var audit models.AuditLog
	require.NoError(t, db.Where("action = ?", "payout.approve").First(&audit).Error)
	require.NotNil(t, audit.ActorId)
	assert.Equal(t, actor, *audit.ActorId)
}

func TestApproveTwiceLosesRace(t *testing.T) {
	db := setupTestDB(t)
	lifecycle := newTestLifecycle(db, &stubDisburser{})
	payout := seedPayout(t, db)

	_, err := lifecycle.Approve(payout.ID, nil)
	require.NoError(t, err)

	_, err = lifecycle.Approve(payout.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestProcessRequiresApproval(t *testing.T) {
	db := setupTestDB(t)
	lifecycle := newTestLifecycle(db, &stubDisburser{})
	payout := seedPayout(t, db)

	_, err := lifecycle.Process(payout.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestProcessDisbursesInline(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubDisburser{result: DisbursementResult{Provider: "eft", Reference: "bank-ref-1"}}
	lifecycle := newTestLifecycle(db, stub)
	payout := seedPayout(t, db)

	_, err := lifecycle.Approve(payout.ID, nil)
	require.NoError(t, err)

	done, err := lifecycle.Process(payout.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, models.PayoutCompleted, done.Status)
	assert.Equal(t, "eft", done.Provider)
	assert.Equal(t, "bank-ref-1", done.ReferenceCode)
	require.NotNil(t, done.PayoutDate)

	rows := attempts(t, db, payout.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusPaidOut, rows[0].Status)
	assert.Equal(t, "eft", rows[0].DisburseProvider)
	assert.Equal(t, "bank-ref-1", rows[0].DisburseRef)
	assert.True(t, rows[0].AmountNet.Equal(decimal.NewFromFloat(87.72)))

	assert.Len(t, ledgerEntries(t, db, models.LedgerPayoutExecuted), 1)
}

func TestProcessFailureRecordsReason(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubDisburser{err: errors.New("insufficient float on provider account")}
	lifecycle := newTestLifecycle(db, stub)
	payout := seedPayout(t, db)

	_, err := lifecycle.Approve(payout.ID, nil)
	require.NoError(t, err)

	failed, err := lifecycle.Process(payout.ID, nil)
	require.NoError(t, err, "a provider failure settles the payout, it is not a fault")
	assert.Equal(t, models.PayoutFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Equal(t, "insufficient float on provider account", *failed.FailureReason)

	rows := attempts(t, db, payout.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusProcessing, rows[0].Status)

	assert.Len(t, ledgerEntries(t, db, models.LedgerPayoutFailed), 1)
	assert.Empty(t, ledgerEntries(t, db, models.LedgerPayoutExecuted))
}

func TestRetryRunsFreshAttemptBatch(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubDisburser{err: errors.New("provider timeout")}
	lifecycle := newTestLifecycle(db, stub)
	payout := seedPayout(t, db)

	_, err := lifecycle.Approve(payout.ID, nil)
	require.NoError(t, err)
	_, err = lifecycle.Process(payout.ID, nil)
	require.NoError(t, err)

	retried, err := lifecycle.Retry(payout.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutApproved, retried.Status)
	assert.Nil(t, retried.FailureReason)

	// The provider recovers; the second run succeeds.
	stub.err = nil
	stub.result = DisbursementResult{Provider: "eft", Reference: "bank-ref-2"}

	done, err := lifecycle.Process(payout.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutCompleted, done.Status)
	assert.Equal(t, "bank-ref-2", done.ReferenceCode)

	rows := attempts(t, db, payout.ID)
	require.Len(t, rows, 2, "one attempt row per run")
	assert.Equal(t, models.StatusRetry, rows[0].Status, "superseded first attempt")
	assert.Equal(t, models.StatusPaidOut, rows[1].Status)
	assert.Equal(t, "bank-ref-2", rows[1].DisburseRef)
}

func TestRetryOnlyFromFailed(t *testing.T) {
	db := setupTestDB(t)
	lifecycle := newTestLifecycle(db, &stubDisburser{})
	payout := seedPayout(t, db)

	_, err := lifecycle.Retry(payout.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestManualComplete(t *testing.T) {
	db := setupTestDB(t)
	lifecycle := newTestLifecycle(db, &stubDisburser{})
	payout := seedPayout(t, db)

	actor := 7
	done, err := lifecycle.Complete(payout.ID, "BANK-SLIP-0091", &actor)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutCompleted, done.Status)
	assert.Equal(t, "manual", done.Provider)
	assert.Equal(t, "BANK-SLIP-0091", done.ReferenceCode)

	var audit models.AuditLog
	require.NoError(t, db.Where("action = ?", "payout.complete.manual").First(&audit).Error)
	require.NotNil(t, audit.ActorId)
	assert.Equal(t, actor, *audit.ActorId)

	assert.Len(t, ledgerEntries(t, db, models.LedgerPayoutExecuted), 1)
}

func TestManualCompleteOnlyFromCreated(t *testing.T) {
	db := setupTestDB(t)
	lifecycle := newTestLifecycle(db, &stubDisburser{})
	payout := seedPayout(t, db)

	_, err := lifecycle.Approve(payout.ID, nil)
	require.NoError(t, err)

	_, err = lifecycle.Complete(payout.ID, "BANK-SLIP-0092", nil)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestExecuteDisbursementGuardsState(t *testing.T) {
	db := setupTestDB(t)
	lifecycle := newTestLifecycle(db, &stubDisburser{})
	payout := seedPayout(t, db)

	err := lifecycle.ExecuteDisbursement(payout.ID)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestProcessRevertsWhenQueueUnavailable(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubDisburser{result: DisbursementResult{Provider: "eft", Reference: "bank-ref-3"}}
	lifecycle := newTestLifecycle(db, stub)
	payout := seedPayout(t, db)

	// Nothing listens on this address; the enqueue fails on dial.
	client := asynq.NewClient(asynq.RedisClientOpt{Addr: "127.0.0.1:1"})
	defer client.Close()
	lifecycle.Queue = client

	_, err := lifecycle.Approve(payout.ID, nil)
	require.NoError(t, err)

	_, err = lifecycle.Process(payout.ID, nil)
	require.Error(t, err)

	var reloaded models.Payout
	require.NoError(t, db.First(&reloaded, payout.ID).Error)
	assert.Equal(t, models.PayoutApproved, reloaded.Status, "failed hand-off leaves the payout actionable")

	// The queue comes back (here: inline execution) and processing runs
	// through, superseding the attempt rows from the aborted hand-off.
	lifecycle.Queue = nil
	done, err := lifecycle.Process(payout.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutCompleted, done.Status)

	rows := attempts(t, db, payout.ID)
	require.Len(t, rows, 2)
	assert.Equal(t, models.StatusRetry, rows[0].Status)
	assert.Equal(t, models.StatusPaidOut, rows[1].Status)
}

// settlingDisburser mimics a concurrent execution winning the settlement
// race while this one's provider call is in flight.
type settlingDisburser struct {
	db *gorm.DB
}

func (s *settlingDisburser) Send(payout *models.Payout) (DisbursementResult, error) {
	s.db.Model(&models.Payout{}).Where("id = ?", payout.ID).
		Update("status", models.PayoutCompleted)
	return DisbursementResult{}, errors.New("provider timeout")
}

func TestFailurePathYieldsToConcurrentSettlement(t *testing.T) {
	db := setupTestDB(t)
	lifecycle := newTestLifecycle(db, &settlingDisburser{db: db})
	payout := seedPayout(t, db)

	_, err := lifecycle.Approve(payout.ID, nil)
	require.NoError(t, err)
	done, err := lifecycle.Process(payout.ID, nil)
	require.NoError(t, err)

	assert.Equal(t, models.PayoutCompleted, done.Status)
	assert.Nil(t, done.FailureReason)
	assert.Empty(t, ledgerEntries(t, db, models.LedgerPayoutFailed),
		"a lost transition appends nothing")

	var count int64
	require.NoError(t, db.Model(&models.AuditLog{}).
		Where("action = ?", "payout.fail").Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestDryRunSkipsProvider(t *testing.T) {
	db := setupTestDB(t)
	stub := &stubDisburser{err: errors.New("must not be called")}
	lifecycle := newTestLifecycle(db, stub)
	lifecycle.DryRun = true
	payout := seedPayout(t, db)

	_, err := lifecycle.Approve(payout.ID, nil)
	require.NoError(t, err)

	done, err := lifecycle.Process(payout.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutCompleted, done.Status)
	assert.Equal(t, "dry-run", done.Provider)
	assert.Equal(t, 0, stub.calls)
}
