package notify

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sowp-lms/pkg/logger"
	"sowp-lms/pkg/middleware"
	"sowp-lms/pkg/models"
)

func TestSendAndListHandlers(t *testing.T) {
	s, _, _ := newService(t)
	h := NewHandler(s, logger.Nop())

	send := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.Send(rec, httptest.NewRequest(http.MethodPost, "/api/notifications", strings.NewReader(body)))
		return rec
	}
	require.Equal(t, http.StatusCreated, send(`{"content":"Holiday on Friday"}`).Code)
	require.Equal(t, http.StatusCreated, send(`{"content":"See me","recipient":"s@x.io","ttlDays":2}`).Code)
	require.Equal(t, http.StatusCreated, send(`{"content":"Not yours","recipient":"o@x.io"}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(`{"content":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, send(`{"content":"x","recipient":"nope"}`).Code)

	req := httptest.NewRequest(http.MethodGet, "/api/me/notifications", nil)
	req = req.WithContext(middleware.WithUser(req.Context(), models.User{Email: "s@x.io"}))
	rec := httptest.NewRecorder()
	h.Mine(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Notification
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 2)
	for _, n := range got {
		assert.NotEqual(t, "Not yours", n.Content)
	}

	rec = httptest.NewRecorder()
	h.Mine(rec, httptest.NewRequest(http.MethodGet, "/api/me/notifications", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
