package responses

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/freightquote-backend/pkg/errors"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/types"
)

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
	return out
}

func TestSuccessEnvelopes(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccessStatus(w, http.StatusCreated, map[string]string{"request_id": "Q0042"})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"request_id":"Q0042"}}`, w.Body.String())

	w = httptest.NewRecorder()
	WriteList(w, []string{"Acme", "Globex"}, 2)
	list := decode[struct {
		Data []string       `json:"data"`
		Meta types.ListMeta `json:"meta"`
	}](t, w)
	assert.Equal(t, 2, list.Meta.Total)
	assert.Len(t, list.Data, 2)

	w = httptest.NewRecorder()
	WriteNoContent(w)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, w.Body.Len())
}

func TestWriteErrorPolicy(t *testing.T) {
	cases := []struct {
		name        string
		err         error
		status      int
		message     string
		wantDetails bool
	}{
		{
			name:        "validation exposes message and details",
			err:         pkgerrors.New(pkgerrors.CodeValidation, "Please enter a client name.").WithDetails(map[string]any{"field": "client"}),
			status:      http.StatusUnprocessableEntity,
			message:     "Please enter a client name.",
			wantDetails: true,
		},
		{
			name:    "forbidden drops details",
			err:     pkgerrors.New(pkgerrors.CodeForbidden, "managers only").WithDetails("role"),
			status:  http.StatusForbidden,
			message: "managers only",
		},
		{
			name:        "dependency hides the cause",
			err:         pkgerrors.Wrap(pkgerrors.CodeDependency, errors.New("sheets: 503"), "appending row").WithDetails(map[string]any{"step": "all_quotes"}),
			status:      http.StatusServiceUnavailable,
			message:     "dependency unavailable",
			wantDetails: true,
		},
		{
			name:    "wrapped typed error keeps its code",
			err:     fmt.Errorf("loading session: %w", pkgerrors.New(pkgerrors.CodeNotFound, "session expired")),
			status:  http.StatusNotFound,
			message: "session expired",
		},
		{
			name:    "untyped becomes internal",
			err:     errors.New("boom"),
			status:  http.StatusInternalServerError,
			message: "internal server error",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			WriteError(context.Background(), nil, w, tc.err)

			require.Equal(t, tc.status, w.Code)
			body := decode[types.Failure](t, w)
			assert.Equal(t, tc.message, body.Error.Message)
			assert.Equal(t, tc.wantDetails, body.Error.Details != nil)
		})
	}
}

func TestWriteErrorLogsBySeverity(t *testing.T) {
	var logs bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "test", Output: &logs})

	WriteError(context.Background(), logg, httptest.NewRecorder(), errors.New("boom"))
	assert.Contains(t, logs.String(), `"message":"request.error"`)

	logs.Reset()
	rejected := pkgerrors.New(pkgerrors.CodeStateConflict, "step locked").WithDetails(map[string]any{"step": "routes", "ignored": true})
	WriteError(context.Background(), logg, httptest.NewRecorder(), rejected)
	assert.Contains(t, logs.String(), `"message":"request.rejected"`)
	assert.Contains(t, logs.String(), `"step":"routes"`)
	assert.NotContains(t, logs.String(), `"ignored"`)
}

func TestWriteAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	WriteAttachment(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "Q0042 Acme.xlsx", []byte("xlsx"))

	assert.Equal(t, `attachment; filename="Q0042 Acme.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "4", w.Header().Get("Content-Length"))
	assert.Equal(t, "xlsx", w.Body.String())
}
