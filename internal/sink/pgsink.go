package sink

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/lib/pq"

	"github.com/hdrsift/hdrsift/internal/result"
)

const (
	pgBatchSize     = 100
	pgFlushInterval = 2 * time.Second
	pgQueueDepth    = 1024

	pgCreateTable = `CREATE TABLE IF NOT EXISTS results (
	id         TEXT PRIMARY KEY,
	ts         TIMESTAMPTZ NOT NULL,
	verdict    TEXT NOT NULL,
	risk_score DOUBLE PRECISION NOT NULL,
	risk_level TEXT NOT NULL,
	payload    JSONB NOT NULL
)`
	pgInsert = `INSERT INTO results (id, ts, verdict, risk_score, risk_level, payload)
VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`
)

// PGSink batches results into a Postgres table. Inserts are keyed on the
// result ID, so re-delivery is harmless.
type PGSink struct {
	dsn string
	db  *sql.DB

	queue chan result.Result
	done  chan struct{}
	wg    sync.WaitGroup
}

func NewPGSink(dsn string) *PGSink {
	return &PGSink{
		dsn:   dsn,
		queue: make(chan result.Result, pgQueueDepth),
		done:  make(chan struct{}),
	}
}

// newPGSinkWithDB wires an existing connection, used by tests.
func newPGSinkWithDB(db *sql.DB) *PGSink {
	return &PGSink{
		db:    db,
		queue: make(chan result.Result, pgQueueDepth),
		done:  make(chan struct{}),
	}
}

func (s *PGSink) Start(ctx context.Context) error {
	if s.db == nil {
		db, err := sql.Open("postgres", s.dsn)
		if err != nil {
			return fmt.Errorf("pg sink: open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return fmt.Errorf("pg sink: ping: %w", err)
		}
		s.db = db
	}

	if _, err := s.db.ExecContext(ctx, pgCreateTable); err != nil {
		return fmt.Errorf("pg sink: create table: %w", err)
	}

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

func (s *PGSink) Enqueue(r result.Result) error {
	select {
	case s.queue <- r:
		return nil
	default:
		return fmt.Errorf("pg sink: queue full, dropping result %s", r.ID)
	}
}

func (s *PGSink) Close() error {
	close(s.done)
	s.wg.Wait()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PGSink) Name() string { return "postgres" }

func (s *PGSink) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(pgFlushInterval)
	defer ticker.Stop()

	batch := make([]result.Result, 0, pgBatchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := s.insertBatch(batch); err != nil {
			log.Printf("pg sink: flush failed: %v", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-s.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case r := <-s.queue:
					batch = append(batch, r)
					if len(batch) >= pgBatchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		case r := <-s.queue:
			batch = append(batch, r)
			if len(batch) >= pgBatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

func (s *PGSink) insertBatch(batch []result.Result) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	stmt, err := tx.Prepare(pgInsert)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare: %w", err)
	}

	for _, r := range batch {
		payload, err := json.Marshal(r)
		if err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("serialize %s: %w", r.ID, err)
		}
		if _, err := stmt.Exec(r.ID, r.TS, string(r.FinalVerdict),
			r.Heuristics.RiskScore, r.Heuristics.RiskLevel, payload); err != nil {
			stmt.Close()
			tx.Rollback()
			return fmt.Errorf("insert %s: %w", r.ID, err)
		}
	}

	if err := stmt.Close(); err != nil {
		tx.Rollback()
		return fmt.Errorf("close stmt: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
