package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/Arefin-Saiful/Automated-Billing-Extraction-System/internal/models"
)

// Schema is the persisted row layout. Applied idempotently at startup.
const Schema = `
CREATE TABLE IF NOT EXISTS invoices (
	id              UUID PRIMARY KEY,
	vendor          TEXT NOT NULL,
	invoice_number  TEXT NOT NULL DEFAULT '',
	account_number  TEXT NOT NULL DEFAULT '',
	bill_date       TEXT NOT NULL DEFAULT '',
	period_start    TEXT NOT NULL DEFAULT '',
	period_end      TEXT NOT NULL DEFAULT '',
	currency        TEXT NOT NULL,
	subtotal        NUMERIC(14,2),
	tax_total       NUMERIC(14,2),
	grand_total     NUMERIC(14,2),
	source_filename TEXT NOT NULL DEFAULT '',
	file_sha256     TEXT NOT NULL DEFAULT '',
	parser_version  TEXT NOT NULL DEFAULT '',
	ingested_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS invoices_identity
	ON invoices (vendor, invoice_number, file_sha256);

CREATE TABLE IF NOT EXISTS invoice_numbers (
	invoice_id  UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	position    INT NOT NULL,
	msisdn      TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	subscriber  TEXT NOT NULL DEFAULT '',
	plan        TEXT NOT NULL DEFAULT '',
	line_total  NUMERIC(14,2)
);

CREATE TABLE IF NOT EXISTS invoice_charges (
	invoice_id  UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	position    INT NOT NULL,
	bucket      TEXT NOT NULL,
	category    TEXT NOT NULL DEFAULT '',
	label       TEXT NOT NULL DEFAULT '',
	non_taxable NUMERIC(14,2),
	taxable     NUMERIC(14,2),
	amount      NUMERIC(14,2)
);

CREATE TABLE IF NOT EXISTS invoice_previous_payments (
	invoice_id  UUID NOT NULL REFERENCES invoices(id) ON DELETE CASCADE,
	position    INT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	paid_date   TEXT NOT NULL DEFAULT '',
	amount      NUMERIC(14,2)
);
`

// NewDB opens a pgx-backed connection pool.
func NewDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	return db, nil
}

// PostgresStore persists packages into flat relational tables.
type PostgresStore struct {
	db  *sqlx.DB
	log *slog.Logger
}

func NewPostgresStore(db *sqlx.DB, log *slog.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// Init applies the schema.
func (s *PostgresStore) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("store.Init: %w", err)
	}
	return nil
}

// SavePackage writes one package inside a transaction, replacing any
// prior rows for the same (vendor, invoice_number, file_sha256).
func (s *PostgresStore) SavePackage(ctx context.Context, pkg *models.InvoicePackage) error {
	if pkg == nil {
		return fmt.Errorf("store.SavePackage: nil package")
	}
	id := uuid.NewString()
	header, numbers, charges, payments := flattenPackage(id, pkg)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store.SavePackage: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM invoices WHERE vendor = $1 AND invoice_number = $2 AND file_sha256 = $3`,
		header.Vendor, header.InvoiceNumber, header.FileSHA256)
	if err != nil {
		return fmt.Errorf("store.SavePackage: delete prior: %w", err)
	}

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO invoices (
			id, vendor, invoice_number, account_number, bill_date,
			period_start, period_end, currency, subtotal, tax_total,
			grand_total, source_filename, file_sha256, parser_version
		) VALUES (
			:id, :vendor, :invoice_number, :account_number, :bill_date,
			:period_start, :period_end, :currency, :subtotal, :tax_total,
			:grand_total, :source_filename, :file_sha256, :parser_version
		)`, header)
	if err != nil {
		return fmt.Errorf("store.SavePackage: insert invoice: %w", err)
	}

	for _, n := range numbers {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO invoice_numbers (
				invoice_id, position, msisdn, description, subscriber, plan, line_total
			) VALUES (
				:invoice_id, :position, :msisdn, :description, :subscriber, :plan, :line_total
			)`, n)
		if err != nil {
			return fmt.Errorf("store.SavePackage: insert number %s: %w", n.MSISDN, err)
		}
	}

	for _, c := range charges {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO invoice_charges (
				invoice_id, position, bucket, category, label, non_taxable, taxable, amount
			) VALUES (
				:invoice_id, :position, :bucket, :category, :label, :non_taxable, :taxable, :amount
			)`, c)
		if err != nil {
			return fmt.Errorf("store.SavePackage: insert charge %q: %w", c.Label, err)
		}
	}

	for _, p := range payments {
		_, err = tx.NamedExecContext(ctx, `
			INSERT INTO invoice_previous_payments (
				invoice_id, position, description, paid_date, amount
			) VALUES (
				:invoice_id, :position, :description, :paid_date, :amount
			)`, p)
		if err != nil {
			return fmt.Errorf("store.SavePackage: insert payment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store.SavePackage: commit: %w", err)
	}
	s.log.Info("package persisted",
		"vendor", header.Vendor,
		"invoice_number", header.InvoiceNumber,
		"numbers", len(numbers),
		"charges", len(charges))
	return nil
}
