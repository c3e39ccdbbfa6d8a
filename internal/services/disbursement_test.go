package services

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"payshield-service/internal/models"
)

func seedEFTProvider(t *testing.T, db *gorm.DB, baseUrl string) {
	t.Helper()
	require.NoError(t, db.Create(&models.ProviderSettings{
		Provider:        models.MethodEFT,
		BaseUrl:         baseUrl,
		SecretKey:       "sk-test",
		Status:          1,
		ForDisbursement: 1,
	}).Error)
	require.NoError(t, db.Create(&models.PayeeAccount{
		PayeeType:     models.PayeeGuard,
		PayeeId:       17,
		AccountName:   "T Mokoena",
		AccountNumber: "62001234567",
		BankCode:      "250655",
	}).Error)
}

func transferServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProviderAccepted(t *testing.T) {
	cases := []struct {
		name    string
		resp    interface{}
		wantErr string
	}{
		{name: "status success", resp: map[string]interface{}{"status": "success"}},
		{name: "success true", resp: map[string]interface{}{"success": true}},
		{name: "no verdict fields", resp: map[string]interface{}{"data": "ok"}},
		{name: "non-map body", resp: "OK"},
		{
			name:    "status error with message",
			resp:    map[string]interface{}{"status": "error", "message": "insufficient balance"},
			wantErr: "insufficient balance",
		},
		{
			name:    "status error without message",
			resp:    map[string]interface{}{"status": "failed"},
			wantErr: "provider returned status failed",
		},
		{
			name:    "success false",
			resp:    map[string]interface{}{"success": false, "message": "account blocked"},
			wantErr: "account blocked",
		},
	}

	for _, tc := range cases {
		err := providerAccepted(tc.resp)
		if tc.wantErr == "" {
			assert.NoError(t, err, tc.name)
			continue
		}
		require.Error(t, err, tc.name)
		assert.Contains(t, err.Error(), tc.wantErr, tc.name)
	}
}

func TestEFTSendSuccess(t *testing.T) {
	db := setupTestDB(t)
	srv := transferServer(t, http.StatusOK, `{"status":"success","data":{"reference":"tr-8871"}}`)
	seedEFTProvider(t, db, srv.URL)
	payout := seedPayout(t, db)

	result, err := NewEFTService(db).Send(payout)
	require.NoError(t, err)
	assert.Equal(t, models.MethodEFT, result.Provider)
	assert.Equal(t, "tr-8871", result.Reference)
}

func TestEFTSendHTTPErrorIsRejected(t *testing.T) {
	db := setupTestDB(t)
	srv := transferServer(t, http.StatusInternalServerError,
		`{"status":"error","message":"insufficient balance on float account"}`)
	seedEFTProvider(t, db, srv.URL)
	payout := seedPayout(t, db)

	_, err := NewEFTService(db).Send(payout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient balance on float account")
}

func TestEFTSendErrorBodyOnOKStatusIsRejected(t *testing.T) {
	db := setupTestDB(t)
	srv := transferServer(t, http.StatusOK,
		`{"status":"error","message":"beneficiary account closed"}`)
	seedEFTProvider(t, db, srv.URL)
	payout := seedPayout(t, db)

	_, err := NewEFTService(db).Send(payout)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "beneficiary account closed")
}

func TestProcessSettlesRejectedTransferAsFailed(t *testing.T) {
	db := setupTestDB(t)
	srv := transferServer(t, http.StatusInternalServerError,
		`{"status":"error","message":"insufficient balance on float account"}`)
	seedEFTProvider(t, db, srv.URL)
	payout := seedPayout(t, db)

	lifecycle := NewPayoutLifecycleService(db, NewAuditService(db), nil, map[string]Disburser{
		models.MethodEFT: NewEFTService(db),
	}, false)

	_, err := lifecycle.Approve(payout.ID, nil)
	require.NoError(t, err)

	failed, err := lifecycle.Process(payout.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PayoutFailed, failed.Status)
	require.NotNil(t, failed.FailureReason)
	assert.Contains(t, *failed.FailureReason, "insufficient balance on float account")

	rows := attempts(t, db, payout.ID)
	require.Len(t, rows, 1)
	assert.Equal(t, models.StatusProcessing, rows[0].Status, "no attempt is marked paid out")

	assert.Len(t, ledgerEntries(t, db, models.LedgerPayoutFailed), 1)
	assert.Empty(t, ledgerEntries(t, db, models.LedgerPayoutExecuted))
}
