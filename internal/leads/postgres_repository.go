package leads

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface so tests can use pgxmock.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const leadColumns = `id, first_name, last_name, company, email, phone, company_type, message, status, created_at`

// PostgresRepository stores leads in the form_submissions table.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by a pgx pool.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row; the database assigns id, status and created_at.
func (r *PostgresRepository) Create(ctx context.Context, f Fields) (*Lead, error) {
	if err := checkFields(f); err != nil {
		return nil, storeErr("create", StoreRejected, err)
	}

	query := `
		INSERT INTO form_submissions (first_name, last_name, company, email, phone, company_type, message)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + leadColumns
	row := r.db.QueryRow(ctx, query,
		f.FirstName,
		f.LastName,
		f.Company,
		f.Email,
		f.Phone,
		string(f.CompanyType),
		f.Message,
	)
	lead, err := scanLead(row)
	if err != nil {
		return nil, classifyPgError("create", err)
	}
	return lead, nil
}

// List returns one page of leads newest first plus the exact total for the filter.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) (*ListResult, error) {
	filter = filter.Normalize()

	where := ""
	args := []any{}
	if filter.Status != nil {
		where = " WHERE status = $1"
		args = append(args, string(*filter.Status))
	}

	var total int
	if err := r.db.QueryRow(ctx, "SELECT count(*) FROM form_submissions"+where, args...).Scan(&total); err != nil {
		return nil, classifyPgError("list", err)
	}

	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM form_submissions%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		leadColumns, where, n+1, n+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, classifyPgError("list", err)
	}
	defer rows.Close()

	result := &ListResult{Items: []*Lead{}, Total: total}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, classifyPgError("list", err)
		}
		result.Items = append(result.Items, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, classifyPgError("list", err)
	}
	return result, nil
}

// Get fetches a single lead.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, storeErr("get", NotFound, nil)
	}
	row := r.db.QueryRow(ctx, "SELECT "+leadColumns+" FROM form_submissions WHERE id = $1", id)
	lead, err := scanLead(row)
	if err != nil {
		return nil, classifyPgError("get", err)
	}
	return lead, nil
}

// UpdateStatus updates exactly the status column.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (*Lead, error) {
	if !status.Valid() {
		return nil, storeErr("update status", StoreRejected, ErrInvalidStatus)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, storeErr("update status", NotFound, nil)
	}
	row := r.db.QueryRow(ctx,
		"UPDATE form_submissions SET status = $2 WHERE id = $1 RETURNING "+leadColumns,
		id, string(status),
	)
	lead, err := scanLead(row)
	if err != nil {
		return nil, classifyPgError("update status", err)
	}
	return lead, nil
}

// Delete removes a row.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return storeErr("delete", NotFound, nil)
	}
	tag, err := r.db.Exec(ctx, "DELETE FROM form_submissions WHERE id = $1", id)
	if err != nil {
		return classifyPgError("delete", err)
	}
	if tag.RowsAffected() == 0 {
		return storeErr("delete", NotFound, nil)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanLead(row scanner) (*Lead, error) {
	var (
		lead        Lead
		companyType string
		status      string
		createdAt   time.Time
	)
	if err := row.Scan(
		&lead.ID,
		&lead.FirstName,
		&lead.LastName,
		&lead.Company,
		&lead.Email,
		&lead.Phone,
		&companyType,
		&lead.Message,
		&status,
		&createdAt,
	); err != nil {
		return nil, err
	}
	lead.CompanyType = CompanyType(companyType)
	lead.Status = Status(status)
	lead.CreatedAt = createdAt.UTC()
	return &lead, nil
}

// classifyPgError maps driver errors onto the store error kinds.
func classifyPgError(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storeErr(op, NotFound, nil)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 22 data exception, class 23 integrity constraint violation
		if strings.HasPrefix(pgErr.Code, "22") || strings.HasPrefix(pgErr.Code, "23") {
			return storeErr(op, StoreRejected, err)
		}
	}
	return storeErr(op, StoreUnavailable, err)
}

var _ Repository = (*PostgresRepository)(nil)
