package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/repository"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/service"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
)

type spyInvalidator struct {
	paths []string
}

func (s *spyInvalidator) Invalidate(_ context.Context, _ string, paths ...string) {
	s.paths = append(s.paths, paths...)
}

var columns = []string{"id", "name", "type", "options", "created_at", "updated_at"}

func setup(t *testing.T) (pgxmock.PgxPoolIface, *gin.Engine, *spyInvalidator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	svc := service.NewAttributeService(repository.New(mock), filter.NewAttributeEngine(zap.NewNop()), zap.NewNop())
	spy := &spyInvalidator{}
	r := gin.New()
	New(svc, spy, false).Register(r.Group("/api/v1/attributes"))
	return mock, r, spy
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

func TestCreate(t *testing.T) {
	now := time.Now()

	t.Run("select with options", func(t *testing.T) {
		mock, r, spy := setup(t)
		mock.ExpectQuery(`select exists`).
			WithArgs("Priority", int64(0)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectQuery(`insert into attributes`).
			WithArgs("Priority", "select", []string{"High", "Low"}).
			WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(1), "Priority", "select", []string{"High", "Low"}, now, now))

		w, body := call(r, "POST", "/api/v1/attributes", `{"name":" Priority ","type":"select","options":["High","Low"]}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "Priority", body["name"])
		assert.Equal(t, []any{"High", "Low"}, body["options"])
		assert.Equal(t, []string{"/api/v1/attributes"}, spy.paths)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("select without options", func(t *testing.T) {
		mock, r, _ := setup(t)
		mock.ExpectQuery(`select exists`).
			WithArgs("Priority", int64(0)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

		w, body := call(r, "POST", "/api/v1/attributes", `{"name":"Priority","type":"select"}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
		errs := body["errors"].(map[string]any)
		assert.Equal(t, []any{"Options are required when type is select."}, errs["options"])
	})

	t.Run("duplicate options and taken name", func(t *testing.T) {
		mock, r, _ := setup(t)
		mock.ExpectQuery(`select exists`).
			WithArgs("priority", int64(0)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		w, body := call(r, "POST", "/api/v1/attributes", `{"name":"priority","type":"select","options":["High","high"]}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		errs := body["errors"].(map[string]any)
		assert.Equal(t, []any{"This attribute name is already in use."}, errs["name"])
		assert.Equal(t, []any{"All options must be unique."}, errs["options.1"])
	})

	t.Run("missing name and bad type never reach the database", func(t *testing.T) {
		mock, r, _ := setup(t)
		w, body := call(r, "POST", "/api/v1/attributes", `{"type":"colour"}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		errs := body["errors"].(map[string]any)
		assert.Contains(t, errs, "name")
		assert.Equal(t, []any{"The attribute type must be one of: text, number, date, select."}, errs["type"])
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGet_NotFound(t *testing.T) {
	mock, r, _ := setup(t)
	mock.ExpectQuery(`from attributes`).WithArgs(int64(9)).WillReturnError(pgx.ErrNoRows)

	w, body := call(r, "GET", "/api/v1/attributes/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Attribute with ID 9 not found", body["message"])
	assert.Equal(t, "ATTRIBUTE_NOT_FOUND", body["error_code"])
}

func TestList_FiltersByType(t *testing.T) {
	mock, r, _ := setup(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "attributes" "a" ORDER BY "a"."name" ASC, "a"."id" ASC`)).
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(1), "Priority", "select", []string{"High"}, now, now).
			AddRow(int64(2), "Deadline", "date", ([]string)(nil), now, now))
	mock.ExpectQuery(regexp.QuoteMeta(`FROM "attributes" "a" WHERE "a"."type" = $1 ORDER BY`)).
		WithArgs("select").
		WillReturnRows(pgxmock.NewRows(columns).
			AddRow(int64(1), "Priority", "select", []string{"High"}, now, now))

	req := httptest.NewRequest("GET", "/api/v1/attributes?filters[type]=select", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var items []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "Priority", items[0]["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_RejectsUnknownFilter(t *testing.T) {
	mock, r, _ := setup(t)
	mock.ExpectQuery(`FROM "attributes"`).WillReturnRows(pgxmock.NewRows(columns))

	w, body := call(r, "GET", "/api/v1/attributes?filters[colour]=red", "")
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Invalid filter parameters", body["message"])
	assert.Equal(t, map[string]any{"colour": "Unknown filter field: colour"}, body["errors"])
}

func TestUpdate(t *testing.T) {
	mock, r, spy := setup(t)
	now := time.Now()

	mock.ExpectQuery(`from attributes`).WithArgs(int64(2)).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(2), "Deadline", "date", ([]string)(nil), now, now))
	mock.ExpectQuery(`select exists`).WithArgs("Due Date", int64(2)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`update attributes`).WithArgs(int64(2), "Due Date", "date", ([]string)(nil)).
		WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(2), "Due Date", "date", ([]string)(nil), now, now))

	w, body := call(r, "PUT", "/api/v1/attributes/2", `{"name":"Due Date"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Due Date", body["name"])
	assert.Equal(t, dependents, spy.paths)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete(t *testing.T) {
	mock, r, spy := setup(t)
	mock.ExpectExec(`delete from attributes`).WithArgs(int64(3)).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`delete from attributes`).WithArgs(int64(4)).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	w, _ := call(r, "DELETE", "/api/v1/attributes/3", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, dependents, spy.paths)

	w, body := call(r, "DELETE", "/api/v1/attributes/4", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ATTRIBUTE_NOT_FOUND", body["error_code"])
}
