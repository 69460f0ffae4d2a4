package output

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/chrisdamba/golfsim/internal/cloudwriter"
	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/chrisdamba/golfsim/internal/repositories/postgres"
	"github.com/chrisdamba/golfsim/internal/simulator/producers"
)

const (
	DestinationConsole  = "console"
	DestinationJSON     = "json"
	DestinationCSV      = "csv"
	DestinationParquet  = "parquet"
	DestinationKafka    = "kafka"
	DestinationS3       = "s3"
	DestinationPostgres = "postgres"
)

// Destination receives every finished run. Implementations must be safe for
// concurrent use, since batch runs finish in parallel.
type Destination interface {
	WriteRun(ctx context.Context, result *models.RunResult, report metrics.Report) error
	Close() error
}

// RunDocument is the serialized form of a run used by the json, kafka and s3 sinks.
type RunDocument struct {
	BatchID string            `json:"batch_id,omitempty"`
	Result  *models.RunResult `json:"result"`
	Report  metrics.Report    `json:"report"`
}

type batchIDKey struct{}

// WithBatchID tags every run written under ctx with the batch it belongs to.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, batchIDKey{}, batchID)
}

func BatchIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(batchIDKey{}).(string)
	return id
}

func newDocument(ctx context.Context, result *models.RunResult, report metrics.Report) RunDocument {
	return RunDocument{BatchID: BatchIDFrom(ctx), Result: result, Report: report}
}

// New builds the destination named by config.Output.Destination.
func New(ctx context.Context, config *models.Config) (Destination, error) {
	out := config.Output
	switch out.Destination {
	case "", DestinationConsole:
		return NewConsoleOutput(nil), nil
	case DestinationJSON:
		return NewJSONOutput(out.Path, out.Folder), nil
	case DestinationCSV:
		return NewCSVOutput(out.Path, out.Folder), nil
	case DestinationParquet:
		if out.CloudStorage.BucketName == "" {
			return NewParquetOutput(out.Path, out.Folder, nil, ""), nil
		}
		factory, err := cloudwriter.NewS3WriterFactory(ctx, out.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		return NewParquetOutput(out.Path, out.Folder, factory, out.CloudStorage.BucketName), nil
	case DestinationKafka:
		producer, err := producers.NewSaramaProducer(out)
		if err != nil {
			return nil, err
		}
		return NewKafkaOutput(producer, out.KafkaTopic), nil
	case DestinationS3:
		factory, err := cloudwriter.NewS3WriterFactory(ctx, out.CloudStorage.Region)
		if err != nil {
			return nil, fmt.Errorf("failed to create cloud writer factory: %w", err)
		}
		return NewS3Output(factory, out.CloudStorage.BucketName, out.Folder), nil
	case DestinationPostgres:
		pool, err := postgres.Connect(ctx, out.Database)
		if err != nil {
			return nil, err
		}
		repo := postgres.NewRunRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
		return NewPostgresOutput(repo, pool.Close), nil
	}
	return nil, fmt.Errorf("unsupported output destination: %s", out.Destination)
}

// partitionPath follows the hive layout used for every file sink, keyed by shift start.
func partitionPath(t time.Time) string {
	year, month, day := t.Date()
	return fmt.Sprintf("year=%d/month=%02d/day=%02d/hour=%02d", year, month, day, t.Hour())
}

func topicDir(basePath, folder, topic string, t time.Time) string {
	return filepath.Join(basePath, folder, topic, partitionPath(t))
}
