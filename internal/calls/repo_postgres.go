package calls

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"call-recording-service/pkg/utils"
)

// PostgresRepo persists calls and records in Postgres via database/sql.
//
// The two Complete* methods lock the record row (FOR UPDATE) so that the two
// background jobs, which may run concurrently for the same record, merge
// their completion flags instead of racing on the call status.
type PostgresRepo struct {
	db    *sql.DB
	clock func() time.Time
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: db, clock: time.Now}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS calls (
    id          TEXT PRIMARY KEY,
    caller      TEXT        NOT NULL,
    receiver    TEXT        NOT NULL,
    started_at  TIMESTAMPTZ NOT NULL,
    status      TEXT        NOT NULL DEFAULT 'new',
    created_at  TIMESTAMPTZ NOT NULL,
    updated_at  TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS records (
    id                  TEXT PRIMARY KEY,
    call_id             TEXT        NOT NULL UNIQUE REFERENCES calls(id) ON DELETE CASCADE,
    filename            TEXT        NOT NULL,
    duration_seconds    INTEGER     NOT NULL DEFAULT 0,
    transcription       TEXT        NOT NULL DEFAULT '',
    silences            TEXT        NOT NULL DEFAULT '',
    checksum            TEXT        NOT NULL DEFAULT '',
    size_bytes          BIGINT      NOT NULL DEFAULT 0,
    duration_ready      BOOLEAN     NOT NULL DEFAULT FALSE,
    transcription_ready BOOLEAN     NOT NULL DEFAULT FALSE,
    created_at          TIMESTAMPTZ NOT NULL,
    updated_at          TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_calls_caller   ON calls (caller);
CREATE INDEX IF NOT EXISTS idx_calls_receiver ON calls (receiver);
CREATE INDEX IF NOT EXISTS idx_calls_created  ON calls (created_at);
`

// Migrate creates the schema if it does not exist.
func (r *PostgresRepo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schemaDDL)
	return err
}

// Reset drops and recreates the schema. Destructive; admin-only.
func (r *PostgresRepo) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DROP TABLE IF EXISTS records; DROP TABLE IF EXISTS calls;`); err != nil {
		return err
	}
	return r.Migrate(ctx)
}

func (r *PostgresRepo) CreateCall(ctx context.Context, c Call) error {
	const q = `
INSERT INTO calls (id, caller, receiver, started_at, status, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
`
	_, err := r.db.ExecContext(ctx, q,
		c.ID,
		c.Caller,
		c.Receiver,
		c.StartedAt,
		c.Status,
		c.CreatedAt,
		c.UpdatedAt,
	)
	return err
}

const callWithRecordQuery = `
SELECT c.id, c.caller, c.receiver, c.started_at, c.status, c.created_at, c.updated_at,
       r.id, r.filename, r.duration_seconds, r.transcription, r.silences,
       r.checksum, r.size_bytes, r.duration_ready, r.transcription_ready,
       r.created_at, r.updated_at
FROM calls c
LEFT JOIN records r ON r.call_id = c.id
`

func (r *PostgresRepo) GetCall(ctx context.Context, id string) (Call, error) {
	row := r.db.QueryRowContext(ctx, callWithRecordQuery+`WHERE c.id = $1`, id)
	c, err := scanCallWithRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Call{}, ErrNotFound
		}
		return Call{}, err
	}
	return c, nil
}

func (r *PostgresRepo) FindCallsByPhone(ctx context.Context, number string) ([]Call, error) {
	rows, err := r.db.QueryContext(ctx,
		callWithRecordQuery+`WHERE c.caller = $1 OR c.receiver = $1 ORDER BY c.created_at DESC`,
		number,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCalls(rows)
}

func (r *PostgresRepo) ListCalls(ctx context.Context, from, to time.Time) ([]Call, error) {
	rows, err := r.db.QueryContext(ctx,
		callWithRecordQuery+`WHERE c.created_at >= $1 AND c.created_at < $2 ORDER BY c.created_at DESC`,
		from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCalls(rows)
}

func (r *PostgresRepo) CreateRecord(ctx context.Context, rec Record) error {
	const q = `
INSERT INTO records (
  id, call_id, filename, duration_seconds, transcription, silences,
  checksum, size_bytes, duration_ready, transcription_ready, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
`
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.CallID,
		rec.Filename,
		rec.DurationSeconds,
		rec.Transcription,
		EncodeSilences(rec.Silences),
		rec.Checksum,
		rec.SizeBytes,
		rec.DurationReady,
		rec.TranscriptionReady,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (r *PostgresRepo) GetRecord(ctx context.Context, id string) (Record, error) {
	const q = `
SELECT id, call_id, filename, duration_seconds, transcription, silences,
       checksum, size_bytes, duration_ready, transcription_ready, created_at, updated_at
FROM records
WHERE id = $1
`
	var rec Record
	var silences string
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&rec.ID,
		&rec.CallID,
		&rec.Filename,
		&rec.DurationSeconds,
		&rec.Transcription,
		&silences,
		&rec.Checksum,
		&rec.SizeBytes,
		&rec.DurationReady,
		&rec.TranscriptionReady,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	rec.Silences, err = DecodeSilences(silences)
	if err != nil {
		return Record{}, fmt.Errorf("record %s: corrupt silence sequence: %w", id, err)
	}
	return rec, nil
}

func (r *PostgresRepo) CompleteDurationExtraction(ctx context.Context, recordID string, durationSeconds int, silences []int) (CallStatus, error) {
	var status CallStatus
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		callID, _, transcriptionReady, err := lockRecordFlags(ctx, tx, recordID)
		if err != nil {
			return err
		}
		status = DeriveStatus(true, transcriptionReady)

		now := r.clock().UTC()
		const qr = `
UPDATE records
SET duration_seconds = $2, silences = $3, duration_ready = TRUE, updated_at = $4
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, qr, recordID, durationSeconds, EncodeSilences(silences), now); err != nil {
			return err
		}
		return updateCallStatus(ctx, tx, callID, status, now)
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *PostgresRepo) CompleteTranscription(ctx context.Context, recordID string, transcription string) (CallStatus, error) {
	var status CallStatus
	err := utils.WithTx(ctx, r.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		callID, durationReady, _, err := lockRecordFlags(ctx, tx, recordID)
		if err != nil {
			return err
		}
		status = DeriveStatus(durationReady, true)

		now := r.clock().UTC()
		const qr = `
UPDATE records
SET transcription = $2, transcription_ready = TRUE, updated_at = $3
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, qr, recordID, transcription, now); err != nil {
			return err
		}
		return updateCallStatus(ctx, tx, callID, status, now)
	})
	if err != nil {
		return "", err
	}
	return status, nil
}

func lockRecordFlags(ctx context.Context, tx *sql.Tx, recordID string) (callID string, durationReady, transcriptionReady bool, err error) {
	const q = `
SELECT call_id, duration_ready, transcription_ready
FROM records
WHERE id = $1
FOR UPDATE
`
	err = tx.QueryRowContext(ctx, q, recordID).Scan(&callID, &durationReady, &transcriptionReady)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = fmt.Errorf("record %s: %w", recordID, ErrNotFound)
		}
		return "", false, false, err
	}
	return callID, durationReady, transcriptionReady, nil
}

func updateCallStatus(ctx context.Context, tx *sql.Tx, callID string, status CallStatus, now time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE calls SET status = $2, updated_at = $3 WHERE id = $1`,
		callID, status, now,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("call %s: %w", callID, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCallWithRecord(row rowScanner) (Call, error) {
	var c Call
	var (
		recID        sql.NullString
		filename     sql.NullString
		duration     sql.NullInt64
		transcript   sql.NullString
		silences     sql.NullString
		checksum     sql.NullString
		sizeBytes    sql.NullInt64
		durReady     sql.NullBool
		transcrReady sql.NullBool
		recCreated   sql.NullTime
		recUpdated   sql.NullTime
	)
	err := row.Scan(
		&c.ID,
		&c.Caller,
		&c.Receiver,
		&c.StartedAt,
		&c.Status,
		&c.CreatedAt,
		&c.UpdatedAt,
		&recID,
		&filename,
		&duration,
		&transcript,
		&silences,
		&checksum,
		&sizeBytes,
		&durReady,
		&transcrReady,
		&recCreated,
		&recUpdated,
	)
	if err != nil {
		return Call{}, err
	}
	if recID.Valid {
		rec := Record{
			ID:                 recID.String,
			CallID:             c.ID,
			Filename:           filename.String,
			DurationSeconds:    int(duration.Int64),
			Transcription:      transcript.String,
			Checksum:           checksum.String,
			SizeBytes:          sizeBytes.Int64,
			DurationReady:      durReady.Bool,
			TranscriptionReady: transcrReady.Bool,
			CreatedAt:          recCreated.Time,
			UpdatedAt:          recUpdated.Time,
		}
		rec.Silences, err = DecodeSilences(silences.String)
		if err != nil {
			return Call{}, fmt.Errorf("record %s: corrupt silence sequence: %w", rec.ID, err)
		}
		c.Recording = &rec
	}
	return c, nil
}

func collectCalls(rows *sql.Rows) ([]Call, error) {
	var out []Call
	for rows.Next() {
		c, err := scanCallWithRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
