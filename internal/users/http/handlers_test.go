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
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	attrdomain "github.com/GoSim-25-26J-441/timetrack-backend/internal/attributes/domain"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/auth"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/eav"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/filter"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/users/repository"
	"github.com/GoSim-25-26J-441/timetrack-backend/internal/users/service"
)

type staticCatalog struct {
	c *attrdomain.Catalog
}

func (s staticCatalog) Catalog(context.Context) (*attrdomain.Catalog, error) { return s.c, nil }

type spyInvalidator struct {
	paths []string
}

func (s *spyInvalidator) Invalidate(_ context.Context, _ string, paths ...string) {
	s.paths = append(s.paths, paths...)
}

var (
	userCols  = []string{"id", "first_name", "last_name", "email", "created_at", "updated_at"}
	valueCols = []string{"owner_id", "id", "name", "type", "value"}
)

func setup(t *testing.T) (pgxmock.PgxPoolIface, *gin.Engine, *spyInvalidator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	catalog := attrdomain.NewCatalog([]attrdomain.Attribute{
		{ID: 7, Name: "Department", Type: attrdomain.TypeText},
		{ID: 8, Name: "Level", Type: attrdomain.TypeNumber},
	})
	repo := repository.NewUserRepository(mock, eav.NewStore(zap.NewNop()))
	svc := service.NewUserService(repo, staticCatalog{catalog}, filter.NewUserEngine(zap.NewNop(), false), zap.NewNop())
	spy := &spyInvalidator{}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.CtxUserID, int64(5))
		c.Next()
	})
	h := New(svc, spy, false)
	v1 := r.Group("/api/v1")
	h.Register(v1.Group("/users"))
	h.RegisterCurrent(v1)
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

func strp(s string) *string { return &s }

func TestCreate(t *testing.T) {
	mock, r, spy := setup(t)
	now := time.Now()

	mock.ExpectQuery(`select exists`).
		WithArgs("ada@example.com", int64(0)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectQuery(`insert into users`).
		WithArgs("Ada", "Lovelace", "ada@example.com", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(3)))
	mock.ExpectExec(`delete from attribute_values`).
		WithArgs("user", int64(3)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`insert into attribute_values`).
		WithArgs(int64(7), "user", int64(3), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`from users`).
		WithArgs(int64(3)).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(int64(3), "Ada", "Lovelace", "ada@example.com", now, now))
	mock.ExpectQuery(`select av.owner_id`).
		WithArgs("user", []int64{3}).
		WillReturnRows(pgxmock.NewRows(valueCols).AddRow(int64(3), int64(7), "Department", "text", strp("Research")))
	mock.ExpectCommit()

	w, body := call(r, "POST", "/api/v1/users", `{
		"first_name": " Ada ",
		"last_name": "Lovelace",
		"email": "ada@example.com",
		"password": "engine-notes",
		"attributes": [{"attribute_id": 7, "value": "Research"}]
	}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.EqualValues(t, 3, body["id"])
	assert.Equal(t, "Ada", body["first_name"])
	assert.NotContains(t, body, "password_hash")
	assert.NotContains(t, body, "password")
	assert.Len(t, body["attributes"], 1)
	assert.Equal(t, []string{"/api/v1/users"}, spy.paths)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Validation(t *testing.T) {
	t.Run("field rules", func(t *testing.T) {
		mock, r, spy := setup(t)

		w, body := call(r, "POST", "/api/v1/users", `{
			"first_name": "",
			"last_name": "Lovelace",
			"email": "not-an-email",
			"password": "short",
			"attributes": [{"attribute_id": 8, "value": "senior"}]
		}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, map[string]any{
			"first_name":         []any{"The first name is required."},
			"email":              []any{"The email must be a valid email address."},
			"password":           []any{"The password must be at least 8 characters."},
			"attributes.0.value": []any{"The value must be a number."},
		}, body["errors"])
		assert.Empty(t, spy.paths)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("email already registered", func(t *testing.T) {
		mock, r, _ := setup(t)
		mock.ExpectQuery(`select exists`).
			WithArgs("ada@example.com", int64(0)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

		w, body := call(r, "POST", "/api/v1/users",
			`{"first_name":"Ada","last_name":"Lovelace","email":"ada@example.com","password":"engine-notes"}`)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, map[string]any{
			"email": []any{"This email is already registered."},
		}, body["errors"])
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCurrent(t *testing.T) {
	mock, r, _ := setup(t)
	now := time.Now()

	mock.ExpectQuery(`from users`).WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(int64(5), "Grace", "Hopper", "grace@example.com", now, now))
	mock.ExpectQuery(`select av.owner_id`).WithArgs("user", []int64{5}).
		WillReturnRows(pgxmock.NewRows(valueCols))

	w, body := call(r, "GET", "/api/v1/user", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "grace@example.com", body["email"])
	assert.Equal(t, []any{}, body["attributes"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_KeepsPasswordWhenAbsent(t *testing.T) {
	mock, r, spy := setup(t)
	now := time.Now()

	mock.ExpectQuery(`from users`).WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(int64(5), "Grace", "Hopper", "grace@example.com", now, now))
	mock.ExpectQuery(`select av.owner_id`).WithArgs("user", []int64{5}).
		WillReturnRows(pgxmock.NewRows(valueCols))
	mock.ExpectQuery(`select exists`).
		WithArgs("grace@example.com", int64(5)).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectBegin()
	mock.ExpectExec(`update users`).
		WithArgs(int64(5), "Grace", "Murray Hopper", "grace@example.com", "").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(`from users`).WithArgs(int64(5)).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(int64(5), "Grace", "Murray Hopper", "grace@example.com", now, now))
	mock.ExpectQuery(`select av.owner_id`).WithArgs("user", []int64{5}).
		WillReturnRows(pgxmock.NewRows(valueCols))
	mock.ExpectCommit()

	w, body := call(r, "PUT", "/api/v1/users/5", `{"last_name":"Murray Hopper","password":""}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Murray Hopper", body["last_name"])
	assert.Equal(t, []string{"/api/v1/users", "/api/v1/users/5", "/api/v1/user"}, spy.paths)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NotFound(t *testing.T) {
	mock, r, spy := setup(t)
	mock.ExpectBegin()
	mock.ExpectExec(`delete from attribute_values`).WithArgs("user", int64(404)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`delete from users`).WithArgs(int64(404)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	w, body := call(r, "DELETE", "/api/v1/users/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", body["error_code"])
	assert.Empty(t, spy.paths)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_NameFilter(t *testing.T) {
	mock, r, _ := setup(t)
	mock.MatchExpectationsInOrder(false)
	now := time.Now()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "users" "u" WHERE "u"."first_name" ILIKE \$1`).
		WithArgs("%ada%").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(`ORDER BY "u"."id" ASC LIMIT \$2`).
		WithArgs("%ada%", 10).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(int64(3), "Ada", "Lovelace", "ada@example.com", now, now))
	mock.ExpectQuery(`select av.owner_id`).WithArgs("user", []int64{3}).
		WillReturnRows(pgxmock.NewRows(valueCols))

	w, body := call(r, "GET", "/api/v1/users?filters[first_name]=ada", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, body["data"], 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
