package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
)

const testLeadID = "6f1c2b7e-3a62-4d0a-9a3b-0d7b9c1e2f44"

var leadColumnNames = []string{"id", "first_name", "last_name", "company", "email", "phone", "company_type", "message", "status", "created_at"}

func leadRow(rows *pgxmock.Rows, id, status string, created time.Time) *pgxmock.Rows {
	return rows.AddRow(id, "John", "Smith", "Co", "john@co.com", "", "distributor", "hello", status, created)
}

func TestPostgresRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`INSERT INTO form_submissions`).
		WithArgs("John", "Smith", "Co", "john@co.com", "", "distributor", "hello").
		WillReturnRows(leadRow(pgxmock.NewRows(leadColumnNames), testLeadID, "new", created))

	repo := NewPostgresRepository(mock)
	lead, err := repo.Create(context.Background(), Fields{
		FirstName:   "John",
		LastName:    "Smith",
		Company:     "Co",
		Email:       "john@co.com",
		CompanyType: CompanyTypeDistributor,
		Message:     "hello",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if lead.ID != testLeadID || lead.Status != StatusNew || !lead.CreatedAt.Equal(created) {
		t.Fatalf("unexpected lead %+v", lead)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_CreateClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want StoreErrorKind
	}{
		{"check violation", &pgconn.PgError{Code: "23514"}, StoreRejected},
		{"bad text", &pgconn.PgError{Code: "22P02"}, StoreRejected},
		{"connection", errors.New("dial tcp: connection refused"), StoreUnavailable},
		{"admin shutdown", &pgconn.PgError{Code: "57P01"}, StoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			if err != nil {
				t.Fatalf("failed to create mock pool: %v", err)
			}
			defer mock.Close()

			mock.ExpectQuery(`INSERT INTO form_submissions`).
				WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
					pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
				WillReturnError(tt.err)
			_, err = NewPostgresRepository(mock).Create(context.Background(), sampleFields("hello"))
			if KindOf(err) != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unmet expectations: %v", err)
			}
		})
	}
}

func TestPostgresRepository_CreateRejectsBeforeQuery(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	_, err = NewPostgresRepository(mock).Create(context.Background(), Fields{Email: "john@co.com"})
	if !errors.Is(err, ErrStoreRejected) {
		t.Fatalf("expected rejected, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected query: %v", err)
	}
}

func TestPostgresRepository_ListWithStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT count\(\*\) FROM form_submissions WHERE status = \$1`).
		WithArgs("reviewed").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(7))
	rows := pgxmock.NewRows(leadColumnNames)
	leadRow(rows, testLeadID, "reviewed", created)
	mock.ExpectQuery(`SELECT .+ FROM form_submissions WHERE status = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`).
		WithArgs("reviewed", 5, 5).
		WillReturnRows(rows)

	reviewed := StatusReviewed
	res, err := NewPostgresRepository(mock).List(context.Background(), ListFilter{Status: &reviewed, Limit: 5, Offset: 5})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 7 || len(res.Items) != 1 || res.Items[0].Status != StatusReviewed {
		t.Fatalf("unexpected result %+v", res)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_ListDefaultPage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`SELECT count\(\*\) FROM form_submissions$`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`).
		WithArgs(DefaultPageSize, 0).
		WillReturnRows(pgxmock.NewRows(leadColumnNames))

	res, err := NewPostgresRepository(mock).List(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if res.Total != 0 || len(res.Items) != 0 || res.Items == nil {
		t.Fatalf("expected empty non-nil page, got %+v", res)
	}
}

func TestPostgresRepository_GetNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery(`FROM form_submissions WHERE id = \$1`).
		WithArgs(testLeadID).
		WillReturnError(pgx.ErrNoRows)

	repo := NewPostgresRepository(mock)
	if _, err := repo.Get(context.Background(), testLeadID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	// malformed ids never reach the database
	if _, err := repo.Get(context.Background(), "not-a-uuid"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for malformed id, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_UpdateStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`UPDATE form_submissions SET status = \$2 WHERE id = \$1`).
		WithArgs(testLeadID, "archived").
		WillReturnRows(leadRow(pgxmock.NewRows(leadColumnNames), testLeadID, "archived", created))

	lead, err := NewPostgresRepository(mock).UpdateStatus(context.Background(), testLeadID, StatusArchived)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if lead.Status != StatusArchived {
		t.Fatalf("expected archived, got %s", lead.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec(`DELETE FROM form_submissions WHERE id = \$1`).
		WithArgs(testLeadID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM form_submissions WHERE id = \$1`).
		WithArgs(testLeadID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewPostgresRepository(mock)
	if err := repo.Delete(context.Background(), testLeadID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(context.Background(), testLeadID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
