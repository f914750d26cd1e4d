package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	ctx, _ := gin.CreateTestContext(rec)
	ctx.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return ctx, rec
}

func TestParsePaginationDefaults(t *testing.T) {
	ctx, _ := testContext("/entries")
	page, pageSize := parsePagination(ctx)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, pageSize)
}

func TestParsePaginationBounds(t *testing.T) {
	ctx, _ := testContext("/entries?page=0&page_size=500")
	page, pageSize := parsePagination(ctx)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, pageSize)

	ctx, _ = testContext("/entries?page=3&page_size=50")
	page, pageSize = parsePagination(ctx)
	assert.Equal(t, 3, page)
	assert.Equal(t, 50, pageSize)
}

func TestParseTodayValid(t *testing.T) {
	ctx, _ := testContext("/streak?today=2026-03-15")
	today, ok := parseToday(ctx)
	require.True(t, ok)
	assert.Equal(t, 2026, today.Year())
	assert.Equal(t, time.March, today.Month())
	assert.Equal(t, 15, today.Day())
}

func TestParseTodayMalformed(t *testing.T) {
	ctx, rec := testContext("/streak?today=15-03-2026")
	_, ok := parseToday(ctx)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseTodayAbsentUsesNow(t *testing.T) {
	ctx, _ := testContext("/streak")
	today, ok := parseToday(ctx)
	require.True(t, ok)
	assert.WithinDuration(t, time.Now(), today, time.Minute)
}

func TestMentionPattern(t *testing.T) {
	matches := mentionPattern.FindAllStringSubmatch("loved this @sam, you too @alex_99! email not@a mention", -1)
	require.Len(t, matches, 2)
	assert.Equal(t, "sam", matches[0][1])
	assert.Equal(t, "alex_99", matches[1][1])
}

func TestUserIDMissingRejects(t *testing.T) {
	ctx, rec := testContext("/streak")
	_, ok := getUserID(ctx)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
