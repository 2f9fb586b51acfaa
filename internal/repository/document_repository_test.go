package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"frotadocs/internal/domain"
)

func TestDocumentCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	d := &domain.Document{
		ID:        "doc-1",
		Version:   "1",
		Name:      "manual.pdf",
		MIMEType:  "application/pdf",
		SizeBytes: 1024,
		S3Key:     "fleet_documents/v1",
		Roles:     []string{"driver-truck", "adm"},
		Companies: []string{"Telsite"},
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO documents")).
		WithArgs(d.ID, d.Version, d.Name, d.MIMEType, d.SizeBytes, d.S3Key, d.Roles, d.Companies).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).
			AddRow(time.Now(), time.Now()))

	if err := repo.Create(context.Background(), d); err != nil {
		t.Fatalf("Create ошибка: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("невыполненные ожидания: %v", err)
	}
}

func TestDocumentCreateDuplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO documents")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &domain.Document{ID: "doc-1"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("Create вернул %v, ожидался ErrDuplicate", err)
	}
}

func TestDocumentGetByVersionNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM documents WHERE version = $1")).
		WithArgs("999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByVersion(context.Background(), "999")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByVersion вернул %v, ожидался ErrNotFound", err)
	}
}

// TestListVisible: предикат видимости уезжает в SQL вместе с метками
// принципала и флагом отключения фильтра компаний.
func TestListVisible(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "version", "companies"}).
		AddRow("doc-1", "1", []byte("{Telsite}")).
		AddRow("doc-2", "3", []byte("{Telsite,Mas}"))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, version, companies FROM documents")).
		WithArgs(pq.StringArray{"driver-truck"}, false, pq.StringArray{"Telsite"}).
		WillReturnRows(rows)

	items, err := repo.ListVisible(context.Background(), []string{"driver-truck"}, []string{"Telsite"}, false)
	if err != nil {
		t.Fatalf("ListVisible ошибка: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("получено %d документов, ожидалось 2", len(items))
	}
	if items[0].ID != "doc-1" || items[1].Version != "3" {
		t.Errorf("неожиданные элементы: %+v", items)
	}
}

func TestListVisibleEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, version, companies FROM documents")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "version", "companies"}))

	items, err := repo.ListVisible(context.Background(), []string{"driver-car"}, nil, false)
	if err != nil {
		t.Fatalf("ListVisible ошибка: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("ожидался пустой не-nil слайс, получено %v", items)
	}
}

func TestDocumentReplaceNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE documents")).
		WillReturnError(sql.ErrNoRows)

	err := repo.Replace(context.Background(), "doc-1", &domain.Document{ID: "doc-1", Version: "2"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Replace вернул %v, ожидался ErrNotFound", err)
	}
}

func TestDocumentDeleteNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1")).
		WithArgs("no-such-doc").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "no-such-doc")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Delete вернул %v, ожидался ErrNotFound", err)
	}
}

func TestAllVersions(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	rows := sqlmock.NewRows([]string{"version"}).
		AddRow("1").AddRow("7").AddRow("3")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM documents")).
		WillReturnRows(rows)

	versions, err := repo.AllVersions(context.Background())
	if err != nil {
		t.Fatalf("AllVersions ошибка: %v", err)
	}
	if len(versions) != 3 || versions[1] != "7" {
		t.Errorf("неожиданные версии: %v", versions)
	}
}

// TestIncrement: выдача номера — один атомарный UPDATE с RETURNING.
func TestIncrement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE version_counter SET value = value + 1 WHERE id = 1 RETURNING value")).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(int64(8)))

	value, err := repo.Increment(context.Background())
	if err != nil {
		t.Fatalf("Increment ошибка: %v", err)
	}
	if value != 8 {
		t.Errorf("Increment = %d, ожидалось 8", value)
	}
}

func TestRaiseTo(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE version_counter SET value = GREATEST(value, $1) WHERE id = 1")).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.RaiseTo(context.Background(), 42); err != nil {
		t.Fatalf("RaiseTo ошибка: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("невыполненные ожидания: %v", err)
	}
}
