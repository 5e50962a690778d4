package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/banachtech/option-pricer/errs"
	"github.com/banachtech/option-pricer/mainfuncs"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, server *Server, path, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	request, err := http.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	require.NoError(t, err)
	request.Header.Set("Content-Type", "application/json")
	server.ServeHTTP(recorder, request)
	return recorder
}

func decode(t *testing.T, body io.Reader, target any) {
	data, err := io.ReadAll(body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, target))
}

func TestPriceAPI(t *testing.T) {
	testCases := []struct {
		name          string
		body          string
		checkResponse func(t *testing.T, recorder *httptest.ResponseRecorder)
	}{
		{
			name: "OK",
			body: `{"style":"european","type":"call","strike":100,"expiry":1,"spot":100,"rate":0.05,"vol":0.2}`,
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)
				var report mainfuncs.Report
				decode(t, recorder.Body, &report)
				require.Equal(t, "european call K=100 T=1", report.Contract)
				closed, ok := report.Find(mainfuncs.MethodBlackScholes)
				require.True(t, ok)
				require.InDelta(t, 10.450583572185565, closed.Price, 1e-9)
				sim, ok := report.Find(mainfuncs.MethodMonteCarlo)
				require.True(t, ok)
				require.Equal(t, int64(2000), sim.Paths)
			},
		},
		{
			name: "ASIAN",
			body: `{"style":"asian","type":"put","strike":100,"fixings":[0.5,1.0],"spot":100,"rate":0.05,"vol":0.2,"paths":500}`,
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)
				var report mainfuncs.Report
				decode(t, recorder.Body, &report)
				tree, ok := report.Find(mainfuncs.MethodCRR)
				require.True(t, ok)
				require.NotEmpty(t, tree.Skipped)
				sim, ok := report.Find(mainfuncs.MethodMonteCarlo)
				require.True(t, ok)
				require.Equal(t, int64(500), sim.Paths)
			},
		},
		{
			name: "DEEP_TREE",
			body: `{"type":"call","strike":100,"expiry":1,"spot":100,"rate":0.05,"vol":0.2,"depth":2000,"paths":100}`,
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusOK, recorder.Code)
				var report mainfuncs.Report
				decode(t, recorder.Body, &report)
				tree, ok := report.Find(mainfuncs.MethodCRR)
				require.True(t, ok)
				sum, ok := report.Find(mainfuncs.MethodCRRClosed)
				require.True(t, ok)
				require.InDelta(t, tree.Price, sum.Price, 1e-8)
				require.InDelta(t, 10.450583572185565, sum.Price, 0.01)
			},
		},
		{
			name: "DEPTH_ABOVE_MAX",
			body: fmt.Sprintf(`{"type":"call","strike":100,"expiry":1,"spot":100,"vol":0.2,"depth":%d}`, mainfuncs.MaxDepth+1),
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "MISSING_TYPE",
			body: `{"strike":100,"expiry":1,"spot":100}`,
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "BAD_JSON",
			body: `{"type":`,
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
		{
			name: "UNKNOWN_STYLE",
			body: `{"style":"bermudan","type":"call","strike":100,"expiry":1,"spot":100,"vol":0.2}`,
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
				var body map[string]string
				decode(t, recorder.Body, &body)
				require.Contains(t, body["error"], "bermudan")
			},
		},
		{
			name: "ARBITRAGE",
			body: `{"type":"call","strike":100,"expiry":1,"spot":100,"rate":2,"vol":0.2,"depth":1}`,
			checkResponse: func(t *testing.T, recorder *httptest.ResponseRecorder) {
				require.Equal(t, http.StatusBadRequest, recorder.Code)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			server := newTestServer("")
			recorder := post(t, server, "/v1/price", tc.body)
			tc.checkResponse(t, recorder)
		})
	}
}

func TestLatticeAPI(t *testing.T) {
	server := newTestServer("")

	recorder := post(t, server, "/v1/lattice",
		`{"type":"call","strike":100,"expiry":1,"spot":100,"depth":3,"u":1.2,"d":0.8,"r":1.05}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	var resp latticeResponse
	decode(t, recorder.Body, &resp)
	require.InDelta(t, 21.123528776590003, resp.Price, 1e-9)
	require.InDelta(t, 0.625, resp.Q, 1e-12)
	require.Len(t, resp.Option, 4)
	require.InDelta(t, 72.8, resp.Option[3][3], 1e-9)
	require.Len(t, resp.Exercise[3], 4)
	require.Equal(t, []int{-1, -1, -1, -1}, resp.Boundary)

	recorder = post(t, server, "/v1/lattice",
		`{"style":"american","type":"put","strike":100,"expiry":1,"spot":100,"rate":0.05,"vol":0.2,"depth":50}`)
	require.Equal(t, http.StatusOK, recorder.Code)
	decode(t, recorder.Body, &resp)
	require.Len(t, resp.Boundary, 51)
	require.GreaterOrEqual(t, resp.Boundary[50], 0)

	for _, body := range []string{
		fmt.Sprintf(`{"type":"call","strike":100,"expiry":1,"spot":100,"vol":0.2,"depth":%d}`, maxLatticeDepth+1),
		`{"style":"asian","type":"call","strike":100,"fixings":[1],"spot":100,"vol":0.2,"depth":3}`,
		`{"type":"call","strike":100,"expiry":1,"spot":100,"depth":3,"u":1.2,"d":0.8,"r":1.3}`,
	} {
		recorder = post(t, server, "/v1/lattice", body)
		require.Equal(t, http.StatusBadRequest, recorder.Code, body)
	}
}

func TestStatusFor(t *testing.T) {
	require.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("x: %w", errs.ErrInvalidArgument)))
	require.Equal(t, http.StatusBadRequest, statusFor(errs.ErrOutOfRange))
	require.Equal(t, http.StatusConflict, statusFor(fmt.Errorf("x: %w", errs.ErrPrecondition)))
	require.Equal(t, http.StatusInternalServerError, statusFor(io.ErrUnexpectedEOF))
}
