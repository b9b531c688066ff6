package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/golgbm/internal/capi/fakecapi"
	"github.com/YuminosukeSato/golgbm/lightgbm"
)

// 二値分類 (4 特徴量) のモデルを fake で学習する
func newTestServer(t *testing.T) (*Server, *fakecapi.Fake) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := fakecapi.New()
	rows := [][]float64{
		{0.1, 0.2, 0.3, 0.4},
		{0.0, 0.1, 0.0, 0.1},
		{0.2, 0.1, 0.2, 0.3},
		{0.9, 0.8, 0.7, 0.9},
		{1.0, 0.9, 0.8, 1.0},
	}
	ds, err := lightgbm.DatasetFromMat(rows, []float32{0, 0, 0, 1, 1}, lightgbm.WithAPI(fake))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ds.Close() })

	b, err := lightgbm.Train(ds, lightgbm.Params{"objective": "binary", "num_iterations": 3})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	s, err := New(b)
	require.NoError(t, err)
	return s, fake
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch v := body.(type) {
	case nil:
	case string:
		buf.WriteString(v)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(v))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestModelHandler(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/model", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var info ModelInfo
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, s.Info().ID, info.ID)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, 4, info.NumFeature)
	assert.Equal(t, 1, info.NumClasses)
	assert.Equal(t, 2, info.Iterations, "creation runs the first round; num_iterations=3 adds two updates")
	assert.Equal(t, []string{"Column_0", "Column_1", "Column_2", "Column_3"}, info.FeatureNames)
}

func TestPredictHandler(t *testing.T) {
	s, _ := newTestServer(t)
	rows := [][]float64{{0.0, 0.0, 0.0, 0.0}, {0.9, 0.9, 0.9, 0.9}}

	t.Run("normal", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/predict", PredictRequest{Rows: rows})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp PredictResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "normal", resp.Mode)
		require.Len(t, resp.Predictions, 2)
		for _, p := range resp.Predictions {
			require.Len(t, p, 1)
			assert.True(t, p[0] > 0 && p[0] < 1, "probability out of range: %v", p[0])
		}
		assert.Less(t, resp.Predictions[0][0], resp.Predictions[1][0])
	})

	t.Run("contrib", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/predict", PredictRequest{Rows: rows, Mode: "contrib"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp PredictResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "contrib", resp.Mode)
		require.Len(t, resp.Predictions, 2)
		assert.Len(t, resp.Predictions[0], 5)
	})

	t.Run("raw", func(t *testing.T) {
		w := do(t, s, http.MethodPost, "/api/predict", PredictRequest{Rows: rows[:1], Mode: "raw"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp PredictResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "raw_score", resp.Mode)
		assert.Less(t, resp.Predictions[0][0], 0.0)
	})
}

func TestPredictHandlerErrors(t *testing.T) {
	s, fake := newTestServer(t)
	s.MaxRows = 2

	tests := []struct {
		name    string
		body    any
		status  int
		message string
	}{
		{name: "malformed json", body: `{"rows": [`, status: http.StatusBadRequest},
		{name: "unknown mode", body: PredictRequest{Rows: [][]float64{{1, 2, 3, 4}}, Mode: "shap"}, status: http.StatusBadRequest, message: "mode"},
		{name: "no rows", body: PredictRequest{}, status: http.StatusBadRequest, message: "at least one row"},
		{name: "ragged rows", body: PredictRequest{Rows: [][]float64{{1, 2, 3, 4}, {1}}}, status: http.StatusBadRequest, message: "row 1 has 1 features"},
		{name: "feature count", body: PredictRequest{Rows: [][]float64{{1, 2}}}, status: http.StatusUnprocessableEntity, message: "number of features"},
		{name: "too many rows", body: PredictRequest{Rows: [][]float64{{1, 2, 3, 4}, {1, 2, 3, 4}, {1, 2, 3, 4}}}, status: http.StatusRequestEntityTooLarge, message: "too many rows"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, http.MethodPost, "/api/predict", tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
			msg := decodeError(t, w)
			assert.NotEmpty(t, msg)
			if tt.message != "" {
				assert.Contains(t, msg, tt.message)
			}
		})
	}

	// 失敗したリクエストの後でもセマフォは解放されている
	assert.True(t, s.sem.TryAcquire(1))
	s.sem.Release(1)
	assert.Equal(t, 1, fake.Calls("BoosterPredictForMat"))
}

func TestPredictCBOR(t *testing.T) {
	s, _ := newTestServer(t)
	rows := [][]float64{{0.0, 0.0, 0.0, 0.0}, {0.9, 0.9, 0.9, 0.9}}

	body, err := cbor.Marshal(PredictRequest{Rows: rows})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/predict", bytes.NewReader(body))
	req.Header.Set("Content-Type", MIMECBOR)
	req.Header.Set("Accept", MIMECBOR)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, MIMECBOR, w.Header().Get("Content-Type"))

	var viaCBOR PredictResponse
	require.NoError(t, cbor.Unmarshal(w.Body.Bytes(), &viaCBOR))

	jw := do(t, s, http.MethodPost, "/api/predict", PredictRequest{Rows: rows})
	var viaJSON PredictResponse
	require.NoError(t, json.Unmarshal(jw.Body.Bytes(), &viaJSON))
	assert.Equal(t, viaJSON, viaCBOR)

	// CBOR の壊れた本文は 400
	req = httptest.NewRequest(http.MethodPost, "/api/predict", bytes.NewReader([]byte{0xff, 0x00}))
	req.Header.Set("Content-Type", MIMECBOR)
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decodeError(t, w))
}

func TestImportanceHandler(t *testing.T) {
	s, _ := newTestServer(t)

	for _, kind := range []string{"split", "gain"} {
		t.Run(kind, func(t *testing.T) {
			w := do(t, s, http.MethodGet, "/api/importance?type="+kind, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp ImportanceResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, kind, resp.Type)
			require.Len(t, resp.Features, 4)
			for i := 1; i < len(resp.Features); i++ {
				assert.GreaterOrEqual(t, resp.Features[i-1].Value, resp.Features[i].Value)
			}
		})
	}

	w := do(t, s, http.MethodGet, "/api/importance", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp ImportanceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "split", resp.Type)

	w = do(t, s, http.MethodGet, "/api/importance?type=cover", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w), "type")
}

func TestRequestID(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/model", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/model", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}

func TestCORS(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/model", nil)
	req.Header.Set("Origin", "http://app.test")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	s.AllowOrigins = []string{"http://app.test"}
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://app.test", w.Header().Get("Access-Control-Allow-Origin"))

	req.Header.Set("Origin", "http://other.test")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestPredictWaitsForBooster(t *testing.T) {
	s, fake := newTestServer(t)

	require.True(t, s.sem.TryAcquire(1))
	defer s.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	body, err := json.Marshal(PredictRequest{Rows: [][]float64{{1, 2, 3, 4}}})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/predict", bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 0, fake.Calls("BoosterPredictForMat"))
}

func TestServe(t *testing.T) {
	s, _ := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, s) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/api/model", ln.Addr()))
	require.NoError(t, err)
	var info ModelInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&info))
	resp.Body.Close()
	assert.Equal(t, s.Info().ID, info.ID)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(shutdownTimeout + time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
