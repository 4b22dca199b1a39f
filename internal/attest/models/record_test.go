package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sealedger/pkg/domain-errors"
)

func validRecord() ExtractedRecord {
	return ExtractedRecord{
		InvoiceNumber: "INV-1",
		Date:          "2024-01-01",
		ClientName:    "Client",
		Description:   "Work",
		TotalAmount:   "100.50",
		TaxAmount:     "0",
		Currency:      "EUR",
	}
}

func TestExtractedRecord_Validate(t *testing.T) {
	require.NoError(t, validRecord().Validate())
}

func TestExtractedRecord_Validate_Amounts(t *testing.T) {
	cases := []struct {
		name   string
		amount string
		ok     bool
	}{
		{"integer", "1000", true},
		{"decimal", "100.50", true},
		{"zero", "0", true},
		{"empty", "", false},
		{"negative", "-5", false},
		{"plus sign", "+5", false},
		{"two dots", "1.2.3", false},
		{"leading dot", ".5", false},
		{"trailing dot", "5.", false},
		{"scientific", "1e3", false},
		{"grouping", "1,000", false},
		{"letters", "abc", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validRecord()
			rec.TotalAmount = tc.amount
			err := rec.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
			}
		})
	}
}

func TestParseAuditState(t *testing.T) {
	for _, s := range []string{"requested", "approve", "flagged", "correction_requested"} {
		st, err := ParseAuditState(s)
		require.NoError(t, err)
		assert.Equal(t, AuditState(s), st)
	}

	_, err := ParseAuditState("approved")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
}

func TestAuditState_IsDisposition(t *testing.T) {
	assert.False(t, AuditRequested.IsDisposition())
	assert.True(t, AuditApproved.IsDisposition())
	assert.True(t, AuditFlagged.IsDisposition())
	assert.True(t, AuditCorrectionRequested.IsDisposition())
	assert.False(t, AuditState("bogus").IsDisposition())
}

func TestAttestedRecord_RecordProjection(t *testing.T) {
	a := AttestedRecord{
		InvoiceNumber: "INV-1",
		Date:          "2024-01-01",
		ClientName:    "Client",
		Description:   "Work",
		TotalAmount:   "100",
		TaxAmount:     "19",
		Currency:      "EUR",
		DocHash:       "aa",
		LineHash:      "bb",
	}
	rec := a.Record()
	assert.Equal(t, "INV-1", rec.InvoiceNumber)
	assert.Equal(t, "100", rec.TotalAmount)
	assert.Equal(t, "EUR", rec.Currency)
}
