package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/chrisdamba/golfsim/internal/metrics"
	"github.com/chrisdamba/golfsim/internal/models"
	"github.com/chrisdamba/golfsim/internal/repositories"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS simulation_runs (
    simulation_id     TEXT PRIMARY KEY,
    scenario          TEXT NOT NULL,
    run_index         INTEGER NOT NULL,
    seed              BIGINT NOT NULL,
    shift_start       TIMESTAMPTZ NOT NULL,
    shift_end         TIMESTAMPTZ NOT NULL,
    rounds            INTEGER NOT NULL,
    total_orders      INTEGER NOT NULL,
    successful_orders INTEGER NOT NULL,
    failed_orders     INTEGER NOT NULL,
    total_groups      INTEGER NOT NULL,
    revenue           NUMERIC(12, 2) NOT NULL,
    tips              NUMERIC(12, 2) NOT NULL,
    active_hours      DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS simulation_orders (
    simulation_id  TEXT NOT NULL REFERENCES simulation_runs (simulation_id) ON DELETE CASCADE,
    order_id       TEXT NOT NULL,
    group_id       TEXT NOT NULL,
    zone_id        INTEGER NOT NULL,
    agent_id       TEXT,
    value          NUMERIC(10, 2) NOT NULL,
    tip            NUMERIC(10, 2) NOT NULL,
    status         TEXT NOT NULL,
    failure_reason TEXT,
    created_at     TIMESTAMPTZ NOT NULL,
    assigned_at    TIMESTAMPTZ,
    in_transit_at  TIMESTAMPTZ,
    delivered_at   TIMESTAMPTZ,
    failed_at      TIMESTAMPTZ,
    PRIMARY KEY (simulation_id, order_id)
);

CREATE TABLE IF NOT EXISTS simulation_metrics (
    simulation_id TEXT NOT NULL REFERENCES simulation_runs (simulation_id) ON DELETE CASCADE,
    rank          INTEGER NOT NULL,
    key           TEXT NOT NULL,
    value         DOUBLE PRECISION NOT NULL,
    unit          TEXT NOT NULL,
    display       TEXT NOT NULL,
    available     BOOLEAN NOT NULL,
    PRIMARY KEY (simulation_id, key)
);`

type RunRepository struct {
	pool *pgxpool.Pool
}

var _ repositories.RunRepository = (*RunRepository)(nil)

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// Connect opens a pool for the configured database.
func Connect(ctx context.Context, config models.DatabaseConfig) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, config.ConnString())
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, schema)
	return err
}

// SaveRun stores the run, its order log and its metric list in one transaction.
// Saving the same simulation id again replaces the earlier rows.
func (r *RunRepository) SaveRun(ctx context.Context, result *models.RunResult, report metrics.Report) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err = tx.Exec(ctx, "DELETE FROM simulation_runs WHERE simulation_id = $1", result.SimulationID); err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
        INSERT INTO simulation_runs (
            simulation_id, scenario, run_index, seed, shift_start, shift_end, rounds,
            total_orders, successful_orders, failed_orders, total_groups,
            revenue, tips, active_hours
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		result.SimulationID,
		result.Scenario,
		result.RunIndex,
		result.Seed,
		result.ShiftStart,
		result.ShiftEnd,
		result.Rounds,
		result.TotalOrders,
		result.SuccessfulOrders,
		result.FailedOrders,
		result.TotalGroups,
		result.Revenue.StringFixed(2),
		result.Tips.StringFixed(2),
		result.ActiveHours(),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", result.SimulationID, err)
	}

	orderStmt := `
        INSERT INTO simulation_orders (
            simulation_id, order_id, group_id, zone_id, agent_id, value, tip, status,
            failure_reason, created_at, assigned_at, in_transit_at, delivered_at, failed_at
        ) VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, NULLIF($9, ''), $10, $11, $12, $13, $14)`

	for _, order := range result.Orders {
		_, err = tx.Exec(ctx, orderStmt,
			result.SimulationID,
			order.ID,
			order.GroupID,
			order.ZoneID,
			order.AgentID,
			order.Value.StringFixed(2),
			order.Tip.StringFixed(2),
			order.Status,
			order.FailureReason,
			order.CreatedAt,
			order.AssignedAt,
			order.InTransitAt,
			order.DeliveredAt,
			order.FailedAt,
		)
		if err != nil {
			return fmt.Errorf("insert order %s: %w", order.ID, err)
		}
	}

	metricStmt := `
        INSERT INTO simulation_metrics (simulation_id, rank, key, value, unit, display, available)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i, m := range report.Metrics {
		if _, err = tx.Exec(ctx, metricStmt, result.SimulationID, i+1, m.Key, m.Value, m.Unit, m.Display, m.Available); err != nil {
			return fmt.Errorf("insert metric %s: %w", m.Key, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *RunRepository) GetRun(ctx context.Context, simulationID string) (*repositories.RunSummary, error) {
	query := `
        SELECT simulation_id, scenario, run_index, seed, total_orders,
               successful_orders, failed_orders, total_groups, revenue::text
        FROM simulation_runs
        WHERE simulation_id = $1`

	summary := &repositories.RunSummary{}
	err := r.pool.QueryRow(ctx, query, simulationID).Scan(
		&summary.SimulationID,
		&summary.Scenario,
		&summary.RunIndex,
		&summary.Seed,
		&summary.TotalOrders,
		&summary.SuccessfulOrders,
		&summary.FailedOrders,
		&summary.TotalGroups,
		&summary.Revenue,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", repositories.ErrRunNotFound, simulationID)
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

func (r *RunRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM simulation_runs").Scan(&count)
	return count, err
}

func (r *RunRepository) DeleteAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, "TRUNCATE TABLE simulation_runs CASCADE")
	return err
}
