package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/RMahshie/kiwisnr/internal/aggregator"
	"github.com/RMahshie/kiwisnr/pkg/models"
)

// MockAggregator implements Aggregator for testing
type MockAggregator struct {
	mock.Mock
}

func (m *MockAggregator) Aggregate(ctx context.Context) aggregator.Result {
	args := m.Called(ctx)
	return args.Get(0).(aggregator.Result)
}

type recordingGauges struct {
	bands   atomic.Int64
	clients atomic.Int64
}

func (g *recordingGauges) SetKnownBands(n int)       { g.bands.Store(int64(n)) }
func (g *recordingGauges) SetWebSocketClients(n int) { g.clients.Store(int64(n)) }

func TestNewDashboardStartsEmpty(t *testing.T) {
	d := New(new(MockAggregator), 3, time.Minute)

	require.NotNil(t, d.Current())
	assert.Equal(t, "empty", d.Series().Source)
	assert.Empty(t, d.Bands())
}

func TestRefresh(t *testing.T) {
	agg := new(MockAggregator)
	agg.On("Aggregate", mock.Anything).Return(testResult())
	gauges := &recordingGauges{}
	d := New(agg, 3, time.Minute, WithGauges(gauges))

	frame := d.Refresh(context.Background())

	assert.Same(t, frame, d.Current())
	assert.Equal(t, int64(2), gauges.bands.Load())

	bands := d.Bands()
	require.Len(t, bands, 2)
	assert.Equal(t, "7000-7300 kHz (40 m)", bands[0].Label)
	assert.True(t, bands[0].Visible)
	agg.AssertExpectations(t)
}

func TestToggleAndShowHide(t *testing.T) {
	agg := new(MockAggregator)
	agg.On("Aggregate", mock.Anything).Return(testResult())
	d := New(agg, 3, time.Minute, WithBandNames(models.BandNames{}))
	d.Refresh(context.Background())

	info, err := d.Toggle(band20)
	require.NoError(t, err)
	assert.False(t, info.Visible)
	assert.Equal(t, "14000-14350 kHz", info.Label)

	_, err = d.Toggle("1-2 Hz")
	assert.ErrorIs(t, err, ErrUnknownBand)

	for _, b := range d.HideAll() {
		assert.False(t, b.Visible)
	}
	for _, b := range d.ShowAll() {
		assert.True(t, b.Visible)
	}
}

func TestRefreshKeepsVisibilityForNewBands(t *testing.T) {
	first := testResult()
	first.Bands = []models.BandKey{band40}
	delete(first.Series, band20)

	agg := new(MockAggregator)
	agg.On("Aggregate", mock.Anything).Return(first).Once()
	agg.On("Aggregate", mock.Anything).Return(testResult()).Once()
	d := New(agg, 3, time.Minute)

	d.Refresh(context.Background())
	_, err := d.Toggle(band40)
	require.NoError(t, err)
	d.Refresh(context.Background())

	assert.False(t, d.View().Visible(band40))
	assert.True(t, d.View().Visible(band20))
}

func TestDashboardRenderChart(t *testing.T) {
	agg := new(MockAggregator)
	agg.On("Aggregate", mock.Anything).Return(testResult())
	d := New(agg, 3, time.Minute)
	d.Refresh(context.Background())

	var buf bytes.Buffer
	require.NoError(t, d.RenderChart(&buf, ChartPNG, ChartOptions{}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRunStopsOnCancel(t *testing.T) {
	agg := new(MockAggregator)
	agg.On("Aggregate", mock.Anything).Return(testResult())
	d := New(agg, 3, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return len(d.Current().Result.Bands) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubBroadcastsRefresh(t *testing.T) {
	agg := new(MockAggregator)
	agg.On("Aggregate", mock.Anything).Return(testResult())
	gauges := &recordingGauges{}
	d := New(agg, 3, time.Minute, WithGauges(gauges))

	srv := httptest.NewServer(d.Hub())
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Initial frame on connect
	assert.Equal(t, "frame", readMessage(t, conn).Type)
	assert.Eventually(t, func() bool { return gauges.clients.Load() == 1 }, time.Second, 5*time.Millisecond)

	d.Refresh(context.Background())
	msg := readMessage(t, conn)
	assert.Equal(t, "frame", msg.Type)
	body, ok := msg.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "live", body["source"])

	_, err = d.Toggle(band40)
	require.NoError(t, err)
	assert.Equal(t, "bands", readMessage(t, conn).Type)

	conn.Close()
	assert.Eventually(t, func() bool { return d.Hub().Clients() == 0 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, int64(0), gauges.clients.Load())
}
