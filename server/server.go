// Package server serves predictions from one loaded booster over HTTP.
//
// Routes:
//
//	GET  /api/model       model shape and feature names
//	POST /api/predict     {"rows": [[...], ...], "mode": "normal"}
//	GET  /api/importance  ?type=split|gain
//
// Predict requests and model responses may use CBOR instead of JSON: send
// Content-Type or Accept "application/cbor". Errors are always JSON.
//
// A Booster is not safe for concurrent use, so requests take turns on it.
package server

import (
	"context"
	"io"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/YuminosukeSato/golgbm/lightgbm"
	"github.com/YuminosukeSato/golgbm/pkg/errors"
	"github.com/YuminosukeSato/golgbm/pkg/log"
)

// DefaultMaxRows bounds the rows accepted by one predict request.
const DefaultMaxRows = 100000

const shutdownTimeout = 5 * time.Second

// MIMECBOR is the media type for CBOR bodies.
const MIMECBOR = "application/cbor"

// ModelInfo describes the served model.
type ModelInfo struct {
	ID           string   `json:"id"`
	NumFeature   int      `json:"num_feature"`
	NumClasses   int      `json:"num_classes"`
	Iterations   int      `json:"iterations"`
	FeatureNames []string `json:"feature_names"`
}

// PredictRequest is the body of POST /api/predict. Mode defaults to normal.
type PredictRequest struct {
	Rows [][]float64 `json:"rows"`
	Mode string      `json:"mode,omitempty"`
}

// PredictResponse holds one slice of outputs per input row.
type PredictResponse struct {
	Mode        string      `json:"mode"`
	Predictions [][]float64 `json:"predictions"`
}

// FeatureImportance is one entry of an ImportanceResponse.
type FeatureImportance struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ImportanceResponse lists features by descending importance.
type ImportanceResponse struct {
	Type     string              `json:"type"`
	Features []FeatureImportance `json:"features"`
}

// Server owns access to a booster for the lifetime of the HTTP server. The
// caller keeps ownership of the booster and closes it after Serve returns.
type Server struct {
	booster *lightgbm.Booster
	info    ModelInfo
	sem     *semaphore.Weighted
	logger  log.Logger

	// MaxRows bounds a predict request; <= 0 means DefaultMaxRows.
	MaxRows int
	// AllowOrigins enables CORS for these origins ("*" for any).
	AllowOrigins []string
}

// New reads the model description once and returns a Server for b.
func New(b *lightgbm.Booster) (*Server, error) {
	info := ModelInfo{ID: b.ID()}
	var err error
	if info.NumFeature, err = b.NumFeature(); err != nil {
		return nil, err
	}
	if info.NumClasses, err = b.NumClasses(); err != nil {
		return nil, err
	}
	if info.Iterations, err = b.CurrentIteration(); err != nil {
		return nil, err
	}
	if info.FeatureNames, err = b.FeatureNames(); err != nil {
		return nil, err
	}
	return &Server{
		booster: b,
		info:    info,
		sem:     semaphore.NewWeighted(1),
		logger:  log.GetLoggerWithName("server").With(log.EstimatorIDKey, info.ID),
	}, nil
}

// Info returns the description served at /api/model.
func (s *Server) Info() ModelInfo { return s.info }

// Handler returns the gin router with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	if len(s.AllowOrigins) > 0 {
		config := cors.DefaultConfig()
		config.AllowOrigins = s.AllowOrigins
		config.AllowHeaders = append(config.AllowHeaders, "X-Request-ID")
		config.ExposeHeaders = []string{"X-Request-ID"}
		r.Use(cors.New(config))
	}

	r.GET("/api/model", s.ModelHandler)
	r.POST("/api/predict", s.PredictHandler)
	r.GET("/api/importance", s.ImportanceHandler)
	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()
		s.logger.Debug("Request served",
			log.RequestIDKey, id,
			log.RouteKey, c.FullPath(),
			log.StatusKey, c.Writer.Status(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
	}
}

// errorStatus maps an error to an HTTP status and an error code for logs.
func errorStatus(err error) (int, string) {
	var (
		dim  *errors.DimensionError
		verr *errors.ValidationError
		nerr *errors.NativeError
	)
	switch {
	case errors.As(err, &dim):
		return http.StatusBadRequest, log.ErrorDimensionMismatch
	case errors.As(err, &verr):
		return http.StatusBadRequest, log.ErrorInvalidInput
	case errors.As(err, &nerr):
		return http.StatusUnprocessableEntity, log.ErrorNative
	}
	return http.StatusInternalServerError, ""
}

func (s *Server) fail(c *gin.Context, err error) {
	status, code := errorStatus(err)
	if status >= http.StatusInternalServerError || code == log.ErrorNative {
		s.logger.Error("Request failed", err, log.RouteKey, c.FullPath(), log.ErrorCodeKey, code)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// acquire takes the booster for the current request. It gives up when the
// client goes away first.
func (s *Server) acquire(c *gin.Context) bool {
	if err := s.sem.Acquire(c.Request.Context(), 1); err != nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "request cancelled while waiting for the model"})
		return false
	}
	return true
}

// bind decodes the request body as CBOR or JSON according to Content-Type.
func bind(c *gin.Context, v any) error {
	if c.ContentType() != MIMECBOR {
		return c.ShouldBindJSON(v)
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return err
	}
	return cbor.Unmarshal(body, v)
}

// respond writes v as CBOR when the client prefers it, JSON otherwise.
func respond(c *gin.Context, v any) {
	if c.NegotiateFormat(gin.MIMEJSON, MIMECBOR) == MIMECBOR {
		if body, err := cbor.Marshal(v); err == nil {
			c.Data(http.StatusOK, MIMECBOR, body)
			return
		}
	}
	c.JSON(http.StatusOK, v)
}

func (s *Server) ModelHandler(c *gin.Context) {
	respond(c, s.info)
}

func (s *Server) PredictHandler(c *gin.Context) {
	var req PredictRequest
	if err := bind(c, &req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	mode, err := lightgbm.ParsePredictType(req.Mode)
	if err != nil {
		s.fail(c, err)
		return
	}
	maxRows := s.MaxRows
	if maxRows <= 0 {
		maxRows = DefaultMaxRows
	}
	if len(req.Rows) > maxRows {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too many rows"})
		return
	}

	if !s.acquire(c) {
		return
	}
	preds, err := func() ([][]float64, error) {
		defer s.sem.Release(1)
		return s.booster.PredictRows(req.Rows, mode)
	}()
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, PredictResponse{Mode: mode.String(), Predictions: preds})
}

func (s *Server) ImportanceHandler(c *gin.Context) {
	kind, err := lightgbm.ParseImportanceType(c.DefaultQuery("type", "split"))
	if err != nil {
		s.fail(c, err)
		return
	}
	if !s.acquire(c) {
		return
	}
	values, err := func() ([]float64, error) {
		defer s.sem.Release(1)
		return s.booster.FeatureImportance(kind)
	}()
	if err != nil {
		s.fail(c, err)
		return
	}

	features := make([]FeatureImportance, len(values))
	for i, v := range values {
		features[i] = FeatureImportance{Name: s.info.FeatureNames[i], Value: v}
	}
	sort.SliceStable(features, func(i, j int) bool { return features[i].Value > features[j].Value })
	respond(c, ImportanceResponse{Type: kind.String(), Features: features})
}

// Serve runs an HTTP server for s on ln until ctx is cancelled, then shuts
// it down gracefully.
func Serve(ctx context.Context, ln net.Listener, s *Server) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("Listening", log.AddrKey, ln.Addr().String())
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "serve")
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "shutdown")
	})
	return g.Wait()
}
