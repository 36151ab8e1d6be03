package madis

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testXML = `<?xml version="1.0"?>
<madis>
  <record var="V-T" shef_id="SE068" ObTime="2024-05-01T10:00" elev="120.5" data_value="288.15" provider="APRSWXNET"/>
  <record var="V-T" shef_id="SE068" ObTime="2024-05-01T09:45" elev="120.5" data_value="287.95" provider="APRSWXNET"/>
  <record var="T" shef_id="SE234" ObTime="2024-05-01T10:00" elev="80.0" data_value="290.15" provider="APRSWXNET"/>
  <record var="V-T" shef_id="MTIC1" ObTime="2024-05-01T10:05" elev="431.0" data_value="284.15" provider="RAWS"/>
  <record var="V-T" shef_id="KSBA" ObTime="2024-05-01T10:00" data_value="288.15" provider="ASOS"/>
</madis>`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, "CA", 5*time.Second, 5*time.Second, testLogger())
}

func TestClient_RegionSnapshot(t *testing.T) {
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		io.WriteString(w, testXML)
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).RegionSnapshot(context.Background(), "0")
	require.NoError(t, err)

	assert.Equal(t, []string{"0"}, gotQuery["time"])
	assert.Equal(t, []string{"CA"}, gotQuery["state"])
	assert.Equal(t, []string{"2"}, gotQuery["dfltrsel"])
	assert.Equal(t, []string{"2"}, gotQuery["varsel"])
	assert.Equal(t, []string{"1"}, gotQuery["xml"])

	// SE234 carries the wrong variable, KSBA has no elevation.
	require.Len(t, rows, 2)

	se068 := rows["SE068"]
	require.NotNil(t, se068.TempC)
	assert.InDelta(t, 15.0, *se068.TempC, 0.01)
	require.NotNil(t, se068.ElevM)
	assert.Equal(t, 120.5, *se068.ElevM)
	assert.Equal(t, "2024-05-01T10:00", se068.ObTime)
	assert.Equal(t, "APRSWXNET", se068.Provider)
}

func TestClient_RegionSnapshot_DedupKeepsNewest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Newest record first, so "keep newest" cannot be confused with
		// "keep last encountered".
		io.WriteString(w, `<madis>
  <record var="V-T" shef_id="SE068" ObTime="2024-05-01T10:00" elev="120.5" data_value="288.15" provider="A"/>
  <record var="V-T" shef_id="SE068" ObTime="2024-05-01T08:00" elev="120.5" data_value="280.15" provider="B"/>
</madis>`)
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).RegionSnapshot(context.Background(), "0")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-05-01T10:00", rows["SE068"].ObTime)
	assert.Equal(t, "A", rows["SE068"].Provider)
}

func TestClient_StationSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "SE068", r.URL.Query().Get("stanam"))
		assert.Equal(t, "1", r.URL.Query().Get("stasel"))
		assert.Equal(t, "3", r.URL.Query().Get("dfltrsel"))
		assert.Equal(t, "20240501_0800", r.URL.Query().Get("time"))
		io.WriteString(w, testXML)
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).StationSnapshot(context.Background(), "SE068", "20240501_0800")
	require.NoError(t, err)
	assert.Contains(t, rows, "SE068")
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, "<madis><record broken")
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).RegionSnapshot(context.Background(), "0")
	require.ErrorIs(t, err, ErrDecode)
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).RegionSnapshot(context.Background(), "0")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDecode)
}

func TestClient_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, `<madis></madis>`)
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL).RegionSnapshot(context.Background(), "0")
	require.NoError(t, err)
	assert.Empty(t, rows)
}
