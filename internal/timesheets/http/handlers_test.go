package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	attrdomain "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/respcache"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/repository"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/timesheets/service"
)

const currentUser = int64(5)

type emptyCatalog struct{}

func (emptyCatalog) Catalog(context.Context) (*attrdomain.Catalog, error) {
	return attrdomain.NewCatalog(nil), nil
}

// assignments maps project id to assigned user ids.
type assignments map[int64][]int64

func (a assignments) IsAssigned(_ context.Context, projectID, userID int64) (bool, error) {
	for _, u := range a[projectID] {
		if u == userID {
			return true, nil
		}
	}
	return false, nil
}

var cols = []string{"id", "project_id", "user_id", "date", "hours", "task_name", "created_at", "updated_at"}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func setup(t *testing.T) (pgxmock.PgxPoolIface, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := service.NewTimesheetService(
		repository.NewTimesheetRepository(mock),
		assignments{3: {currentUser}, 4: {8}},
		emptyCatalog{},
		filter.NewTimesheetEngine(zap.NewNop(), false),
		zap.NewNop(),
	)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.CtxUserID, currentUser)
		c.Next()
	})
	New(svc, respcache.NopInvalidator{}, false).Register(r.Group("/api/v1/timesheets"))
	return mock, r
}

func call(r http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestGet_OtherUsersTimesheet(t *testing.T) {
	mock, r := setup(t)
	now := time.Now()
	mock.ExpectQuery(`from timesheets`).WithArgs(int64(12)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(12), int64(4), int64(8), day("2024-03-01"), 6.0, "Review", now, now))

	w, body := call(r, "GET", "/api/v1/timesheets/12", "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Access denied. You can only view your own timesheets.", body["message"])
	assert.Equal(t, "TIMESHEET_ACCESS_DENIED", body["error_code"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGet_Own(t *testing.T) {
	mock, r := setup(t)
	now := time.Now()
	mock.ExpectQuery(`from timesheets`).WithArgs(int64(11)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(11), int64(3), currentUser, day("2024-03-01"), 7.5, "Design", now, now))

	w, body := call(r, "GET", "/api/v1/timesheets/11", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-03-01", body["date"])
	assert.Equal(t, 7.5, body["hours"])
}

func TestCreate(t *testing.T) {
	mock, r := setup(t)
	now := time.Now()
	mock.ExpectQuery(`insert into timesheets`).
		WithArgs(int64(3), currentUser, "2024-03-15", 7.5, "Design").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(20), int64(3), currentUser, day("2024-03-15"), 7.5, "Design", now, now))

	w, body := call(r, "POST", "/api/v1/timesheets",
		`{"project_id":3,"user_id":5,"date":"March 15, 2024","hours":7.5,"task_name":"Design"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 20, body["id"])
	assert.Equal(t, "2024-03-15", body["date"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_ProjectDeletedMeanwhile(t *testing.T) {
	mock, r := setup(t)
	mock.ExpectQuery(`insert into timesheets`).
		WithArgs(int64(3), currentUser, "2024-03-15", 2.0, "Design").
		WillReturnError(&pgconn.PgError{Code: "23503"})

	w, body := call(r, "POST", "/api/v1/timesheets",
		`{"project_id":3,"date":"2024-03-15","hours":2,"task_name":"Design"}`)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "TIMESHEET_PROJECT_CONFLICT", body["error_code"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Validation(t *testing.T) {
	_, r := setup(t)

	w, body := call(r, "POST", "/api/v1/timesheets",
		`{"project_id":4,"user_id":9,"date":"soon","hours":25,"task_name":""}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, map[string]any{
		"date":       []any{"The date must be a valid date."},
		"hours":      []any{"The hours cannot exceed 24."},
		"task_name":  []any{"The task name field is required."},
		"user_id":    []any{"You can only create timesheets for yourself."},
		"project_id": []any{"You can only create timesheets for projects you are assigned to."},
	}, body["errors"])

	w, body = call(r, "POST", "/api/v1/timesheets", `{"date":"2024-03-15","task_name":"Design"}`)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	errs := body["errors"].(map[string]any)
	assert.Equal(t, []any{"The hours field is required."}, errs["hours"])
	assert.Equal(t, []any{"The project ID is required."}, errs["project_id"])
}

func TestUpdate_Forbidden(t *testing.T) {
	mock, r := setup(t)
	now := time.Now()
	mock.ExpectQuery(`from timesheets`).WithArgs(int64(12)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(12), int64(4), int64(8), day("2024-03-01"), 6.0, "Review", now, now))

	w, body := call(r, "PUT", "/api/v1/timesheets/12", `{"hours":1}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Access denied. You can only update your own timesheets.", body["message"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	mock, r := setup(t)
	now := time.Now()
	mock.ExpectQuery(`from timesheets`).WithArgs(int64(11)).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(11), int64(3), currentUser, day("2024-03-01"), 7.5, "Design", now, now))
	mock.ExpectExec(`delete from timesheets`).WithArgs(int64(11)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	w, _ := call(r, "DELETE", "/api/v1/timesheets/11", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_ScopedToCurrentUser(t *testing.T) {
	mock, r := setup(t)
	mock.MatchExpectationsInOrder(false)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "timesheets" "t" WHERE "t"."user_id" = \$1 AND "t"."hours" > \$2`).
		WithArgs(currentUser, float64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`ORDER BY "t"."date" DESC, "t"."created_at" DESC, "t"."id" DESC LIMIT \$3 OFFSET \$4`).
		WithArgs(currentUser, float64(4), 5, 5).
		WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(11), int64(3), currentUser, day("2024-03-01"), 7.5, "Design", now, now))

	w, body := call(r, "GET", "/api/v1/timesheets?filters[hours]=>:4&page=2&per_page=5", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, map[string]any{
		"current_page": float64(2), "last_page": float64(1), "per_page": float64(5), "total": float64(1),
	}, body["meta"])
	require.NoError(t, mock.ExpectationsWereMet())
}
