package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rtdacademy/SignupForm-sub036/internal/dto"
	"github.com/rtdacademy/SignupForm-sub036/internal/models"
	"github.com/rtdacademy/SignupForm-sub036/internal/service"
	appErrors "github.com/rtdacademy/SignupForm-sub036/pkg/errors"
	"github.com/rtdacademy/SignupForm-sub036/pkg/jobs"
	"github.com/rtdacademy/SignupForm-sub036/pkg/middleware/requestid"
)

type responseEnvelope struct {
	Data  map[string]interface{} `json:"data"`
	Error *appErrors.Error       `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

type fakeNormalizationSrv struct {
	lastReq  dto.NormalizeRequest
	resp     *dto.NormalizeResponse
	schedule *models.NormalizedSchedule
	err      error
}

func (f *fakeNormalizationSrv) Normalize(_ context.Context, req dto.NormalizeRequest) (*dto.NormalizeResponse, error) {
	f.lastReq = req
	return f.resp, f.err
}

func (f *fakeNormalizationSrv) NormalizedSchedule(context.Context, string, string) (*models.NormalizedSchedule, error) {
	return f.schedule, f.err
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestNormalizationHandlerNormalize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeNormalizationSrv{resp: &dto.NormalizeResponse{Success: true, Timestamp: 1700000000000, ItemCount: 12}}
	handler := NewNormalizationHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/normalizations", `{"studentKey":"s1","courseId":2,"forceUpdate":true}`)

	handler.Normalize(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, dto.NormalizeRequest{StudentKey: "s1", CourseID: "2", ForceUpdate: true}, srv.lastReq)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(12), envelope.Data["itemCount"])
	assert.Equal(t, true, envelope.Data["success"])
}

func TestNormalizationHandlerMapsErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNormalizationHandler(&fakeNormalizationSrv{err: appErrors.Clone(appErrors.ErrPreconditionFailed, "course structure has no units")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/normalizations", `{"studentKey":"s1","courseId":"2"}`)

	handler.Normalize(c)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "failed-precondition", envelope.Error.Code)
	assert.Equal(t, "course structure has no units", envelope.Error.Message)
}

func TestNormalizationHandlerRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeNormalizationSrv{}
	handler := NewNormalizationHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/normalizations", `{"studentKey":`)

	handler.Normalize(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.lastReq.StudentKey)
}

func TestNormalizationHandlerNormalizedSchedule(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewNormalizationHandler(&fakeNormalizationSrv{schedule: &models.NormalizedSchedule{TotalItems: 3, LastUpdated: 42}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/s1/courses/2/normalized-schedule", nil)
	c.Params = gin.Params{{Key: "studentKey", Value: "s1"}, {Key: "courseId", Value: "2"}}

	handler.NormalizedSchedule(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(3), envelope.Data["totalItems"])
}

type fakeQueue struct {
	jobs []jobs.Job
	err  error
}

func (f *fakeQueue) Enqueue(job jobs.Job) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if job.ID == "" {
		job.ID = "generated"
	}
	f.jobs = append(f.jobs, job)
	return job.ID, nil
}

func TestTriggerHandlerQueuesEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	queue := &fakeQueue{}
	router := gin.New()
	router.Use(requestid.Middleware())
	handler := NewTriggerHandler(queue, nil)
	router.POST("/events/grades", handler.GradeRecorded)
	router.POST("/events/lms-ids", handler.LMSIDAssigned)

	rec := httptest.NewRecorder()
	req := jsonRequest(http.MethodPost, "/events/grades", `{"assessmentId":"a-1","lmsStudentId":777}`)
	req.Header.Set("X-Request-ID", "req-1")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "req-1", envelope.Data["jobId"])
	assert.Equal(t, service.JobKindGradeRecorded, envelope.Data["kind"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, jsonRequest(http.MethodPost, "/events/lms-ids", `{"studentKey":"s1","lmsStudentId":"777"}`))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, queue.jobs, 2)
	assert.Equal(t, dto.GradeRecordedEvent{AssessmentID: "a-1", LMSStudentID: "777"}, queue.jobs[0].Payload)
	assert.Equal(t, service.JobKindLMSIDAssigned, queue.jobs[1].Kind)
	assert.Equal(t, dto.LMSIDAssignedEvent{StudentKey: "s1", LMSStudentID: "777"}, queue.jobs[1].Payload)
}

func TestTriggerHandlerRejectsInvalidEvents(t *testing.T) {
	gin.SetMode(gin.TestMode)
	queue := &fakeQueue{}
	handler := NewTriggerHandler(queue, nil)

	for _, body := range []string{`{"assessmentId":"a-1"}`, `{"assessmentId":"a/1","lmsStudentId":"7"}`, `[]`} {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		c.Request = jsonRequest(http.MethodPost, "/events/grades", body)

		handler.GradeRecorded(c)

		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
	assert.Empty(t, queue.jobs)
}

func TestTriggerHandlerQueueFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTriggerHandler(&fakeQueue{err: errors.New("queue triggers not started")}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/events/lms-ids", `{"studentKey":"s1","lmsStudentId":"777"}`)

	handler.LMSIDAssigned(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestMetricsHandlerReady(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, fakePinger{}).Ready(c)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)
	NewMetricsHandler(nil, fakePinger{err: errors.New("connection refused")}).Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandlerSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	metrics.ObserveNormalization(service.OutcomeComputed, 0)
	metrics.ObserveNormalization(service.OutcomeFailed, 0)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/metrics/snapshot", nil)
	NewMetricsHandler(metrics, nil).Snapshot(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2), envelope.Data["normalization_runs"])
	assert.Equal(t, float64(1), envelope.Data["normalization_failures"])
}
