package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vti-ops/timetable-api/internal/dto"
	appErrors "github.com/vti-ops/timetable-api/pkg/errors"
)

type preflightServiceStub struct {
	report *dto.PreflightReport
	err    error
}

func (s *preflightServiceStub) Run(_ context.Context, termID string) (*dto.PreflightReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.report != nil {
		return s.report, nil
	}
	return &dto.PreflightReport{TermID: termID, Passed: true}, nil
}

type generatorServiceStub struct {
	lastReq *dto.GenerateTimetableRequest
	resp    *dto.GenerateTimetableResponse
	err     error
}

func (s *generatorServiceStub) Generate(_ context.Context, termID string, req *dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	if s.resp != nil {
		return s.resp, nil
	}
	return &dto.GenerateTimetableResponse{TermID: termID, SlotsCreated: 12}, nil
}

func newGeneratorRouter(preflight *preflightServiceStub, generator *generatorServiceStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewTimetableGeneratorHandler(preflight, generator)
	r := gin.New()
	r.GET("/terms/:id/timetable/preflight", h.Preflight)
	r.POST("/terms/:id/timetable/generate", h.Generate)
	return r
}

func TestPreflightEndpoint(t *testing.T) {
	r := newGeneratorRouter(&preflightServiceStub{}, &generatorServiceStub{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/terms/term-1/timetable/preflight", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.PreflightReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "term-1", envelope.Data.TermID)
	assert.True(t, envelope.Data.Passed)
}

func TestPreflightEndpointTermNotFound(t *testing.T) {
	r := newGeneratorRouter(&preflightServiceStub{err: appErrors.Clone(appErrors.ErrNotFound, "term not found")}, &generatorServiceStub{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/terms/missing/timetable/preflight", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateEndpoint(t *testing.T) {
	generator := &generatorServiceStub{}
	r := newGeneratorRouter(&preflightServiceStub{}, generator)

	body, _ := json.Marshal(dto.GenerateTimetableRequest{SessionsPerWeek: 3, Regenerate: true})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/terms/term-1/timetable/generate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, generator.lastReq)
	assert.Equal(t, 3, generator.lastReq.SessionsPerWeek)
	assert.True(t, generator.lastReq.Regenerate)
}

func TestGenerateEndpointEmptyBodyUsesDefaults(t *testing.T) {
	generator := &generatorServiceStub{}
	r := newGeneratorRouter(&preflightServiceStub{}, generator)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/terms/term-1/timetable/generate", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, generator.lastReq)
	assert.Zero(t, generator.lastReq.SessionsPerWeek)
}

func TestGenerateEndpointMapsDomainErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"locked", appErrors.Clone(appErrors.ErrGenerationLocked, "Frozen for audit"), http.StatusLocked, "GENERATION_LOCKED"},
		{"preflight failed", appErrors.ErrPreflightFailed, http.StatusPreconditionFailed, "PREFLIGHT_FAILED"},
		{"window closed", appErrors.ErrRegenerationWindow, http.StatusConflict, "REGENERATION_WINDOW_CLOSED"},
		{"in progress", appErrors.ErrGenerationInProgress, http.StatusConflict, "GENERATION_IN_PROGRESS"},
		{"exists", appErrors.ErrTimetableExists, http.StatusConflict, "TIMETABLE_EXISTS"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newGeneratorRouter(&preflightServiceStub{}, &generatorServiceStub{err: tc.err})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/terms/term-1/timetable/generate", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.status, w.Code)
			var envelope struct {
				Error *appErrors.Error `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
			require.NotNil(t, envelope.Error)
			assert.Equal(t, tc.code, envelope.Error.Code)
		})
	}
}
