package output

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
)

const runsTopic = "runs"

// JSONOutput appends one run document per line under
// <base>/<folder>/runs/year=/month=/day=/hour=/data.json.
type JSONOutput struct {
	basePath string
	folder   string
	mu       sync.Mutex
	files    map[string]*os.File
}

func NewJSONOutput(basePath, folder string) *JSONOutput {
	return &JSONOutput{
		basePath: basePath,
		folder:   folder,
		files:    make(map[string]*os.File),
	}
}

func (j *JSONOutput) WriteRun(ctx context.Context, result *models.RunResult, report metrics.Report) error {
	jsonData, err := json.Marshal(newDocument(ctx, result, report))
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", result.SimulationID, err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	fullPath := topicDir(j.basePath, j.folder, runsTopic, result.ShiftStart)
	file, ok := j.files[fullPath]
	if !ok {
		if err := os.MkdirAll(fullPath, os.ModePerm); err != nil {
			return err
		}
		file, err = os.Create(filepath.Join(fullPath, "data.json"))
		if err != nil {
			return err
		}
		j.files[fullPath] = file
	}

	if _, err := file.Write(jsonData); err != nil {
		return err
	}
	_, err = file.WriteString("\n")
	return err
}

func (j *JSONOutput) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	for _, file := range j.files {
		if err := file.Close(); err != nil {
			return err
		}
	}
	j.files = make(map[string]*os.File)
	return nil
}
