package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chrisdamba/golfsim/internal/cloudwriter"
	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shiftStart = time.Date(2025, 6, 14, 7, 0, 0, 0, time.UTC)

func sampleResult() *models.RunResult {
	assigned := shiftStart.Add(2 * time.Minute)
	delivered := shiftStart.Add(14 * time.Minute)
	failed := shiftStart.Add(40 * time.Minute)
	result := &models.RunResult{
		SimulationID:     "demo_run_01",
		Scenario:         "demo",
		RunIndex:         1,
		Seed:             42,
		ShiftStart:       shiftStart,
		ShiftEnd:         shiftStart.Add(9 * time.Hour),
		Rounds:           2,
		TotalOrders:      2,
		SuccessfulOrders: 1,
		FailedOrders:     1,
		TotalGroups:      2,
		Revenue:          decimal.RequireFromString("12.00"),
		Tips:             decimal.RequireFromString("1.80"),
		Failures:         []models.FailureCount{{Reason: models.FailureNoCapacity, Count: 1}},
		Agents: []models.AgentSummary{{
			ID:          "cart_1",
			Kind:        models.AgentKindCart,
			TimeInState: models.StateDurations{Driving: time.Hour, Idle: 8 * time.Hour},
		}},
		Orders: []models.Order{
			{
				ID: "ord_0001", GroupID: "grp_0001", ZoneID: 3, AgentID: "cart_1",
				Value: decimal.RequireFromString("12.00"), Tip: decimal.RequireFromString("1.80"),
				Status: models.OrderStatusDelivered, CreatedAt: shiftStart,
				AssignedAt: &assigned, InTransitAt: &assigned, DeliveredAt: &delivered,
			},
			{
				ID: "ord_0002", GroupID: "grp_0002", ZoneID: 5,
				Value:  decimal.RequireFromString("9.00"),
				Status: models.OrderStatusFailed, FailureReason: models.FailureNoCapacity,
				CreatedAt: shiftStart.Add(10 * time.Minute), FailedAt: &failed,
			},
		},
		DeliveryDistances: []float64{1200},
		ZoneServiceTimes:  []models.ZoneSamples{{ZoneID: 3, CycleTimes: []time.Duration{14 * time.Minute}}},
	}
	return result
}

func sampleReport(result *models.RunResult) metrics.Report {
	return metrics.Compute(result, metrics.Params{SLA: 20 * time.Minute, WagePerHour: 15, VariableCostPerOrder: 4, ShiftHours: 9})
}

func TestRenderReport(t *testing.T) {
	result := sampleResult()
	var buf bytes.Buffer
	require.NoError(t, RenderReport(&buf, result, sampleReport(result)))

	out := buf.String()
	for _, want := range []string{
		"demo_run_01",
		"cart_1",
		"Revenue per round",
		"$6.00",
		"Average order value",
		"$12.00",
		"50.0%",
		"Zone 3",
		"14.0 min",
		"no_capacity",
		"driving 11.1%, servicing 0.0%, waiting 0.0%, idle 88.9%",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Revenue per round"), strings.Index(out, "Average order value"), "metrics keep their rank")
}

func TestConsoleOutputWritesEveryRun(t *testing.T) {
	var buf bytes.Buffer
	console := NewConsoleOutput(&buf)
	result := sampleResult()

	require.NoError(t, console.WriteRun(context.Background(), result, sampleReport(result)))
	require.NoError(t, console.WriteRun(context.Background(), result, sampleReport(result)))
	require.NoError(t, console.Close())
	assert.Equal(t, 2, strings.Count(buf.String(), "Simulation"))
}

func TestJSONOutputAppendsDocuments(t *testing.T) {
	dir := t.TempDir()
	out := NewJSONOutput(dir, "golf")
	ctx := WithBatchID(context.Background(), "batch1")
	result := sampleResult()

	require.NoError(t, out.WriteRun(ctx, result, sampleReport(result)))
	require.NoError(t, out.WriteRun(ctx, result, sampleReport(result)))
	require.NoError(t, out.Close())

	data, err := os.ReadFile(filepath.Join(dir, "golf", "runs", "year=2025/month=06/day=14/hour=07", "data.json"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	var doc RunDocument
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &doc))
	assert.Equal(t, "batch1", doc.BatchID)
	assert.Equal(t, "demo_run_01", doc.Result.SimulationID)
	assert.True(t, doc.Result.Revenue.Equal(decimal.RequireFromString("12")))
	assert.Len(t, doc.Report.Metrics, len(sampleReport(result).Metrics))
}

func TestCSVOutputWritesOrdersAndMetrics(t *testing.T) {
	dir := t.TempDir()
	out := NewCSVOutput(dir, "")
	result := sampleResult()
	require.NoError(t, out.WriteRun(context.Background(), result, sampleReport(result)))
	require.NoError(t, out.Close())

	partition := "year=2025/month=06/day=14/hour=07"
	orders := readCSV(t, filepath.Join(dir, "orders", partition, "data.csv"))
	require.Len(t, orders, 3)
	assert.Equal(t, orderHeaders, orders[0])
	assert.Equal(t, "ord_0001", orders[1][1])
	assert.Equal(t, "delivered", orders[1][5])
	assert.Equal(t, "12.00", orders[1][7])
	assert.Equal(t, "14.00", orders[1][14])
	assert.Equal(t, "no_capacity", orders[2][6])
	assert.Equal(t, "0", orders[2][10], "never assigned")

	metricRows := readCSV(t, filepath.Join(dir, "metrics", partition, "data.csv"))
	require.Len(t, metricRows, 1+len(sampleReport(result).Metrics))
	assert.Equal(t, []string{"demo_run_01", "1", metrics.KeyRevenuePerRound}, metricRows[1][:3])
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestParquetOutputWritesLocalFiles(t *testing.T) {
	dir := t.TempDir()
	out := NewParquetOutput(dir, "golf", nil, "")
	result := sampleResult()
	require.NoError(t, out.WriteRun(context.Background(), result, sampleReport(result)))
	require.NoError(t, out.Close())

	for _, topic := range []string{ordersTopic, metricsTopic} {
		info, err := os.Stat(filepath.Join(dir, "golf", topic, "year=2025/month=06/day=14/hour=07", "data.parquet"))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

type memoryWriter struct {
	factory *memoryFactory
	path    string
	buf     bytes.Buffer
}

func (w *memoryWriter) Write(data []byte) (int, error) { return w.buf.Write(data) }

func (w *memoryWriter) Close() error {
	w.factory.mu.Lock()
	defer w.factory.mu.Unlock()
	w.factory.objects[w.path] = w.buf.Bytes()
	return nil
}

type memoryFactory struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (f *memoryFactory) NewWriter(bucket, objectPath string) (cloudwriter.CloudWriter, error) {
	return &memoryWriter{factory: f, path: bucket + "/" + objectPath}, nil
}

func TestParquetOutputUploadsThroughCloudWriter(t *testing.T) {
	factory := &memoryFactory{objects: map[string][]byte{}}
	out := NewParquetOutput("", "golf", factory, "bucket")
	result := sampleResult()
	require.NoError(t, out.WriteRun(context.Background(), result, sampleReport(result)))
	require.NoError(t, out.Close())

	data, ok := factory.objects["bucket/golf/orders/year=2025/month=06/day=14/hour=07/data.parquet"]
	require.True(t, ok)
	assert.Equal(t, "PAR1", string(data[:4]))
}

func TestS3OutputUploadsOneObjectPerRun(t *testing.T) {
	factory := &memoryFactory{objects: map[string][]byte{}}
	out := NewS3Output(factory, "bucket", "golf")
	result := sampleResult()
	ctx := WithBatchID(context.Background(), "batch1")

	require.NoError(t, out.WriteRun(ctx, result, sampleReport(result)))
	require.NoError(t, out.Close())

	key := "golf/runs/year=2025/month=06/day=14/hour=07/batch1/demo_run_01.json"
	assert.Equal(t, key, out.ObjectKey("batch1", result))
	data, ok := factory.objects["bucket/"+key]
	require.True(t, ok)

	var doc RunDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "batch1", doc.BatchID)
}

type recordedMessage struct {
	topic, key string
	msg        []byte
}

type fakeProducer struct {
	messages []recordedMessage
	closed   bool
}

func (f *fakeProducer) WriteMessage(topic, key string, msg []byte) error {
	f.messages = append(f.messages, recordedMessage{topic: topic, key: key, msg: msg})
	return nil
}

func (f *fakeProducer) Close() error {
	f.closed = true
	return nil
}

func TestKafkaOutputKeysBySimulationID(t *testing.T) {
	producer := &fakeProducer{}
	out := NewKafkaOutput(producer, "golf_runs")
	result := sampleResult()

	require.NoError(t, out.WriteRun(context.Background(), result, sampleReport(result)))
	require.Len(t, producer.messages, 1)
	assert.Equal(t, "golf_runs", producer.messages[0].topic)
	assert.Equal(t, "demo_run_01", producer.messages[0].key)
	assert.Contains(t, string(producer.messages[0].msg), `"simulation_id":"demo_run_01"`)

	require.NoError(t, out.Close())
	assert.True(t, producer.closed)
	assert.Error(t, out.WriteRun(context.Background(), result, sampleReport(result)), "closed output rejects writes")
}

func TestNewRejectsUnknownDestination(t *testing.T) {
	cfg := &models.Config{Output: models.OutputConfig{Destination: "carrier_pigeon"}}
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)

	cfg.Output.Destination = DestinationConsole
	dest, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &ConsoleOutput{}, dest)
}

func TestPartitionPath(t *testing.T) {
	assert.Equal(t, "year=2025/month=06/day=14/hour=07", partitionPath(shiftStart))
}
