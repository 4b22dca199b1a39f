package httptransport

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	dErrors "sealedger/pkg/domain-errors"
	"sealedger/pkg/platform/httputil"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	httputil.WriteJSON(w, status, v)
}

func writeError(w http.ResponseWriter, err error) {
	httputil.WriteError(w, err)
}

// recordIndex parses the {index} route parameter. Ledger indices are uint8
// by wire contract.
func recordIndex(r *http.Request) (uint8, error) {
	raw := chi.URLParam(r, "index")
	v, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeBadRequest, "invalid record index %q", raw)
	}
	return uint8(v), nil
}
