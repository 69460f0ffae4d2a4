package output

import (
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/chrisdamba/golfsim/internal/cloudwriter"
	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
)

// S3Output uploads each run document as its own object:
// <folder>/runs/year=/month=/day=/hour=/[<batch>/]<simulation id>.json
type S3Output struct {
	factory cloudwriter.CloudWriterFactory
	bucket  string
	folder  string
}

func NewS3Output(factory cloudwriter.CloudWriterFactory, bucket, folder string) *S3Output {
	return &S3Output{factory: factory, bucket: bucket, folder: folder}
}

// ObjectKey is where a run document is stored.
func (s *S3Output) ObjectKey(batchID string, result *models.RunResult) string {
	return path.Join(s.folder, runsTopic, partitionPath(result.ShiftStart), batchID, result.SimulationID+".json")
}

func (s *S3Output) WriteRun(ctx context.Context, result *models.RunResult, report metrics.Report) error {
	doc := newDocument(ctx, result, report)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", result.SimulationID, err)
	}
	return cloudwriter.Upload(s.factory, s.bucket, s.ObjectKey(doc.BatchID, result), data)
}

func (s *S3Output) Close() error {
	return nil
}
