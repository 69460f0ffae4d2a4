package output

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
)

const (
	ordersTopic  = "orders"
	metricsTopic = "metrics"
)

type csvFile struct {
	file   *os.File
	writer *csv.Writer
}

// CSVOutput writes the order log and the metric list of every run as CSV,
// partitioned by shift start.
type CSVOutput struct {
	basePath string
	folder   string
	mu       sync.Mutex
	files    map[string]*csvFile
}

func NewCSVOutput(basePath, folder string) *CSVOutput {
	return &CSVOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*csvFile),
	}
}

func (c *CSVOutput) WriteRun(_ context.Context, result *models.RunResult, report metrics.Report) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	orders, err := c.writerFor(ordersTopic, result, orderHeaders)
	if err != nil {
		return err
	}
	for _, r := range orderRecords(result) {
		row := []string{
			r.SimulationID, r.OrderID, r.GroupID, strconv.Itoa(int(r.ZoneID)), r.AgentID, r.Status, r.FailureReason,
			strconv.FormatFloat(r.Value, 'f', 2, 64),
			strconv.FormatFloat(r.Tip, 'f', 2, 64),
			strconv.FormatInt(r.CreatedAt, 10),
			strconv.FormatInt(r.AssignedAt, 10),
			strconv.FormatInt(r.InTransitAt, 10),
			strconv.FormatInt(r.DeliveredAt, 10),
			strconv.FormatInt(r.FailedAt, 10),
			strconv.FormatFloat(r.CycleMinutes, 'f', 2, 64),
		}
		if err := orders.Write(row); err != nil {
			return err
		}
	}
	orders.Flush()
	if err := orders.Error(); err != nil {
		return err
	}

	metricsWriter, err := c.writerFor(metricsTopic, result, metricHeaders)
	if err != nil {
		return err
	}
	for _, r := range metricRecords(result.SimulationID, report) {
		row := []string{
			r.SimulationID, strconv.Itoa(int(r.Rank)), r.Key, r.Label,
			strconv.FormatFloat(r.Value, 'f', -1, 64), r.Unit, r.Display,
		}
		if err := metricsWriter.Write(row); err != nil {
			return err
		}
	}
	metricsWriter.Flush()
	return metricsWriter.Error()
}

func (c *CSVOutput) writerFor(topic string, result *models.RunResult, headers []string) (*csv.Writer, error) {
	fullPath := topicDir(c.basePath, c.folder, topic, result.ShiftStart)
	if f, ok := c.files[fullPath]; ok {
		return f.writer, nil
	}

	if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
		return nil, err
	}
	file, err := os.Create(filepath.Join(fullPath, "data.csv"))
	if err != nil {
		return nil, err
	}
	w := csv.NewWriter(file)
	if err := w.Write(headers); err != nil {
		file.Close()
		return nil, fmt.Errorf("write %s header: %w", topic, err)
	}
	c.files[fullPath] = &csvFile{file: file, writer: w}
	return w, nil
}

func (c *CSVOutput) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, f := range c.files {
		f.writer.Flush()
		if err := f.writer.Error(); err != nil {
			return err
		}
		if err := f.file.Close(); err != nil {
			return err
		}
	}
	c.files = make(map[string]*csvFile)
	return nil
}
