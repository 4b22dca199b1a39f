package credibility

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sealedger/internal/attest/models"
	dErrors "sealedger/pkg/domain-errors"
)

func record() models.ExtractedRecord {
	return models.ExtractedRecord{
		InvoiceNumber: "INV-1",
		Date:          "2024-03-01",
		ClientName:    "Acme GmbH",
		TotalAmount:   "1190.00",
		TaxAmount:     "190.00",
		Currency:      "EUR",
	}
}

func TestScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)

		var req struct {
			Invoice       string                 `json:"invoice"`
			AccountingRow models.ExtractedRecord `json:"accounting_row"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "raw invoice text", req.Invoice)
		assert.Equal(t, "INV-1", req.AccountingRow.InvoiceNumber)

		json.NewEncoder(w).Encode(map[string]float64{"credibility": 87})
	}))
	defer srv.Close()

	score, err := NewClient(srv.URL, nil).Score(context.Background(), "raw invoice text", record())
	require.NoError(t, err)
	assert.Equal(t, 87, score)
}

func TestScore_CollaboratorFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"upstream error": func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		},
		"missing credibility": func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{}`))
		},
		"not json": func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte("nope"))
		},
		"out of range": func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"credibility": 150}`))
		},
		"negative": func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"credibility": -3}`))
		},
	}
	for name, handler := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, nil).Score(context.Background(), "text", record())
			require.Error(t, err)
			assert.Equal(t, dErrors.CodeScoring, dErrors.CodeOf(err))
		})
	}
}

func TestScore_TruncatesFractionalScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"credibility": 72.9}`))
	}))
	defer srv.Close()

	score, err := NewClient(srv.URL, nil).Score(context.Background(), "text", record())
	require.NoError(t, err)
	assert.Equal(t, 72, score)
}
