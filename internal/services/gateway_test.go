package services

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payshield-service/internal/models"
)

func TestParsePayeeRef(t *testing.T) {
	cases := []struct {
		ref       string
		payeeType string
		payeeId   int
		wantErr   bool
	}{
		{ref: "guard:17", payeeType: models.PayeeGuard, payeeId: 17},
		{ref: "business:4", payeeType: models.PayeeBusiness, payeeId: 4},
		{ref: "GUARD:17", payeeType: models.PayeeGuard, payeeId: 17},
		{ref: "17", payeeType: models.PayeeGuard, payeeId: 17},
		{ref: " guard: 21 ", payeeType: models.PayeeGuard, payeeId: 21},
		{ref: "", wantErr: true},
		{ref: "tenant:9", wantErr: true},
		{ref: "guard:abc", wantErr: true},
		{ref: "guard:0", wantErr: true},
		{ref: "guard:-3", wantErr: true},
	}

	for _, tc := range cases {
		payeeType, payeeId, err := parsePayeeRef(tc.ref)
		if tc.wantErr {
			assert.Error(t, err, "ref %q", tc.ref)
			continue
		}
		require.NoError(t, err, "ref %q", tc.ref)
		assert.Equal(t, tc.payeeType, payeeType, "ref %q", tc.ref)
		assert.Equal(t, tc.payeeId, payeeId, "ref %q", tc.ref)
	}
}

func TestFormValueCaseInsensitive(t *testing.T) {
	form := url.Values{}
	form.Set("sitecode", "TSTSTE0001")

	assert.Equal(t, "TSTSTE0001", formValue(form, "SiteCode"))
	assert.Equal(t, "", formValue(form, "Hash"))
}

func TestOzowStatusMapping(t *testing.T) {
	assert.Equal(t, models.StatusComplete, ozowStatus("Complete"))
	assert.Equal(t, models.StatusFailed, ozowStatus("Cancelled"))
	assert.Equal(t, models.StatusFailed, ozowStatus("Error"))
	assert.Equal(t, models.StatusFailed, ozowStatus("Abandoned"))
	assert.Equal(t, models.StatusPending, ozowStatus("PendingInvestigation"))
	assert.Equal(t, models.StatusPending, ozowStatus("SomethingNew"))
}

func TestPayfastStatusMapping(t *testing.T) {
	assert.Equal(t, models.StatusComplete, payfastStatus("COMPLETE"))
	assert.Equal(t, models.StatusFailed, payfastStatus("FAILED"))
	assert.Equal(t, models.StatusFailed, payfastStatus("CANCELLED"))
	assert.Equal(t, models.StatusReversal, payfastStatus("REVERSED"))
	assert.Equal(t, models.StatusReversal, payfastStatus("CHARGEBACK"))
	assert.Equal(t, models.StatusPending, payfastStatus("PENDING"))
}

func TestProviderSettingsRequiresEnabledRow(t *testing.T) {
	db := setupTestDB(t)

	_, err := providerSettings(db, ProviderOzow)
	assert.ErrorIs(t, err, ErrProviderDisabled)

	require.NoError(t, db.Create(&models.ProviderSettings{
		Provider:   ProviderOzow,
		PrivateKey: "key",
		Status:     0,
	}).Error)
	_, err = providerSettings(db, ProviderOzow)
	assert.ErrorIs(t, err, ErrProviderDisabled, "disabled row does not count")

	require.NoError(t, db.Model(&models.ProviderSettings{}).
		Where("provider = ?", ProviderOzow).
		Update("status", 1).Error)
	settings, err := providerSettings(db, ProviderOzow)
	require.NoError(t, err)
	assert.Equal(t, "key", settings.PrivateKey)
}
