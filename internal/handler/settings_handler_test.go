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

	"github.com/campuserp/registry-api/internal/service"
)

type settingsStoreMock struct {
	values map[string]bool
}

func (m *settingsStoreMock) GetBool(ctx context.Context, key string) (bool, error) {
	return m.values[key], nil
}

func (m *settingsStoreMock) SetBool(ctx context.Context, key string, value bool) error {
	if m.values == nil {
		m.values = make(map[string]bool)
	}
	m.values[key] = value
	return nil
}

func TestSettingsHandlerToggleMaintenance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(service.NewAccessService(&settingsStoreMock{}, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(map[string]bool{"enabled": true})
	req, _ := http.NewRequest(http.MethodPut, "/settings/maintenance", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.SetMaintenance(c)
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	req, _ = http.NewRequest(http.MethodGet, "/settings/maintenance", nil)
	c.Request = req

	handler.GetMaintenance(c)
	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data struct {
			Enabled bool `json:"enabled"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Data.Enabled)
}

func TestSettingsHandlerRejectsMissingField(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSettingsHandler(service.NewAccessService(&settingsStoreMock{}, nil))

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPut, "/settings/maintenance", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.SetMaintenance(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
