package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/victorjacobs/go-izzi/izzi"
)

type fakeSource struct{}

func (fakeSource) Role() izzi.Role {
	return izzi.Slave
}

func (fakeSource) Snapshot() map[izzi.SensorID]izzi.Reading {
	return map[izzi.SensorID]izzi.Reading{
		izzi.SensorTemperatureSupply: izzi.Known(19),
		izzi.SensorEfficiency:        {},
	}
}

func (fakeSource) Statistics() izzi.Statistics {
	return izzi.Statistics{StatusFrames: 4}
}

func TestState(t *testing.T) {
	// GIVEN
	router := NewRouter(fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/state", nil)
	rec := httptest.NewRecorder()

	// WHEN
	router.ServeHTTP(rec, req)

	// THEN
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Role    string `json:"role"`
		Sensors []struct {
			ID    string `json:"id"`
			Value *int   `json:"value"`
		} `json:"sensors"`
		Statistics struct {
			StatusFrames int64
		} `json:"statistics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "slave", resp.Role)
	require.Len(t, resp.Sensors, 2)
	assert.Equal(t, "efficiency", resp.Sensors[0].ID)
	assert.Nil(t, resp.Sensors[0].Value)
	assert.Equal(t, "temperature_supply", resp.Sensors[1].ID)
	require.NotNil(t, resp.Sensors[1].Value)
	assert.Equal(t, 19, *resp.Sensors[1].Value)
	assert.Equal(t, int64(4), resp.Statistics.StatusFrames)
}

func TestMetricsRoute(t *testing.T) {
	router := NewRouter(fakeSource{})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
