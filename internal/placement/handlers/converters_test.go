package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	e "github.com/gartstein/placement/internal/placement/errors"
	"github.com/gartstein/placement/internal/placement/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapServiceError(t *testing.T) {
	logger := zaptest.NewLogger(t)

	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", e.ErrInternshipNotFound, codes.NotFound},
		{"duplicate application", e.ErrDuplicateApplication, codes.AlreadyExists},
		{"internship exists", e.ErrInternshipAlreadyExists, codes.AlreadyExists},
		{"not accepted", e.ErrApplicationNotAccepted, codes.FailedPrecondition},
		{"dependent internship", e.ErrHasDependentInternship, codes.FailedPrecondition},
		{"score", e.ErrScoreOutOfRange, codes.OutOfRange},
		{"invalid input", invalidInput(errors.New("bad json")), codes.InvalidArgument},
		{"unauthorized", fmt.Errorf("%w: denied", e.ErrUnauthorized), codes.PermissionDenied},
		{"status passthrough", status.Error(codes.Unauthenticated, "who"), codes.Unauthenticated},
		{"unknown", errors.New("disk on fire"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(mapServiceError(logger, tt.err)))
		})
	}
}

func TestMapServiceError_HidesInternalErrors(t *testing.T) {
	core, recorded := observer.New(zap.ErrorLevel)
	err := mapServiceError(zap.New(core), errors.New("password=hunter2"))

	st := status.Convert(err)
	assert.Equal(t, "internal server error", st.Message())
	assert.Equal(t, 1, recorded.FilterMessage("Internal server error").Len())
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{name: "calendar date", input: `"2026-03-01"`, want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{name: "rfc3339", input: `"2026-03-01T09:30:00Z"`, want: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)},
		{name: "empty", input: `""`},
		{name: "garbage", input: `"March first"`, wantErr: true},
		{name: "number", input: `20260301`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.input), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(d.Time), "got %v", d.Time)
		})
	}

	var absent *Date
	assert.Nil(t, absent.timePtr())
	assert.Nil(t, (&Date{}).timePtr())
}

func TestJSONStructConversion(t *testing.T) {
	app := &models.Application{ID: 3, StudentID: 4, OfferID: 5, Status: models.ApplicationPending}
	s, err := jsonToStruct(app)
	require.NoError(t, err)
	assert.Equal(t, float64(3), s.Fields["id"].GetNumberValue())
	assert.Equal(t, "PENDING", s.Fields["status"].GetStringValue())

	raw, err := structToJSON(s)
	require.NoError(t, err)
	var decoded models.Application
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, app.ID, decoded.ID)
	assert.Equal(t, app.Status, decoded.Status)

	raw, err = structToJSON(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(raw))
}

func TestRoleOf(t *testing.T) {
	assert.Equal(t, "anonymous", roleOf(models.Identity{}))
	assert.Equal(t, "COMPANY", roleOf(models.Identity{UserID: 1, Role: models.RoleCompany}))
}
