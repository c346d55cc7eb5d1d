package query

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(t *testing.T, rawQuery string) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+rawQuery, nil)
	return c
}

func TestParseCursorParamsDefaults(t *testing.T) {
	params := ParseCursorParams(testContext(t, ""), 50)
	assert.Equal(t, 50, params.Limit)
	assert.Nil(t, params.Cursor)
}

func TestParseCursorParamsClampsLimit(t *testing.T) {
	cases := map[string]int{
		"limit=10":   10,
		"limit=100":  100,
		"limit=101":  100,
		"limit=9999": 100,
		"limit=0":    50,
		"limit=-3":   50,
		"limit=abc":  50,
	}
	for rawQuery, want := range cases {
		params := ParseCursorParams(testContext(t, rawQuery), 50)
		assert.Equal(t, want, params.Limit, rawQuery)
	}
}

func TestParseCursorParamsCursor(t *testing.T) {
	id := uuid.New()
	params := ParseCursorParams(testContext(t, "cursor="+id.String()), 50)
	require.NotNil(t, params.Cursor)
	assert.Equal(t, id, *params.Cursor)

	// A malformed cursor is ignored rather than rejected.
	params = ParseCursorParams(testContext(t, "cursor=not-a-uuid"), 50)
	assert.Nil(t, params.Cursor)
}

type pageRow struct {
	ID uuid.UUID
}

func TestTrimPageNoOverflow(t *testing.T) {
	rows := []pageRow{{uuid.New()}, {uuid.New()}}

	page, next := TrimPage(rows, 5, func(r pageRow) uuid.UUID { return r.ID })
	assert.Len(t, page, 2)
	assert.Nil(t, next, "a short page means there is no next page")
}

func TestTrimPageExactLimit(t *testing.T) {
	rows := []pageRow{{uuid.New()}, {uuid.New()}, {uuid.New()}}

	page, next := TrimPage(rows, 3, func(r pageRow) uuid.UUID { return r.ID })
	assert.Len(t, page, 3)
	assert.Nil(t, next)
}

func TestTrimPageOverflow(t *testing.T) {
	rows := []pageRow{{uuid.New()}, {uuid.New()}, {uuid.New()}, {uuid.New()}}

	page, next := TrimPage(rows, 3, func(r pageRow) uuid.UUID { return r.ID })
	require.Len(t, page, 3)
	require.NotNil(t, next)
	assert.Equal(t, page[2].ID, *next, "cursor points at the last row of the page")
}

func TestTrimPageEmpty(t *testing.T) {
	page, next := TrimPage([]pageRow{}, 3, func(r pageRow) uuid.UUID { return r.ID })
	assert.Empty(t, page)
	assert.Nil(t, next)
}
