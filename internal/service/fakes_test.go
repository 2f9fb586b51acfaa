package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"frotadocs/internal/domain"
	"frotadocs/internal/repository"
	"frotadocs/internal/service/s3"
)

// fakeCounter — счетчик версий с подменяемыми функциями.
type fakeCounter struct {
	IncrementFunc   func(ctx context.Context) (int64, error)
	AllVersionsFunc func(ctx context.Context) ([]string, error)
	RaiseToFunc     func(ctx context.Context, value int64) error
}

func (f *fakeCounter) Increment(ctx context.Context) (int64, error) {
	return f.IncrementFunc(ctx)
}

func (f *fakeCounter) AllVersions(ctx context.Context) ([]string, error) {
	return f.AllVersionsFunc(ctx)
}

func (f *fakeCounter) RaiseTo(ctx context.Context, value int64) error {
	return f.RaiseToFunc(ctx, value)
}

// seqCounter — счетчик с реальным поведением инкремента, для сквозных
// сценариев загрузки и замены.
type seqCounter struct {
	mu    sync.Mutex
	value int64
}

func (c *seqCounter) Increment(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value++
	return c.value, nil
}

func (c *seqCounter) AllVersions(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (c *seqCounter) RaiseTo(ctx context.Context, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value > c.value {
		c.value = value
	}
	return nil
}

// memStorage — S3-хранилище в памяти.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newMemStorage() *memStorage {
	return &memStorage{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (m *memStorage) UploadBytes(key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), data...)
	m.types[key] = contentType
	return nil
}

func (m *memStorage) GetObject(ctx context.Context, key string) (s3.S3Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", key, s3.ErrObjectNotFound)
	}
	return &memObject{
		ReadCloser:  io.NopCloser(bytes.NewReader(data)),
		length:      int64(len(data)),
		contentType: m.types[key],
	}, nil
}

func (m *memStorage) DeleteObject(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	delete(m.types, key)
	return nil
}

func (m *memStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

type memObject struct {
	io.ReadCloser
	length      int64
	contentType string
}

func (o *memObject) ContentLength() int64 { return o.length }
func (o *memObject) ContentType() string  { return o.contentType }

// memPrincipalStore — хранилище принципалов в памяти. Реализует и
// PrincipalStore, и SessionPrincipalStore.
type memPrincipalStore struct {
	mu         sync.Mutex
	principals map[string]*domain.Principal
}

func newMemPrincipalStore() *memPrincipalStore {
	return &memPrincipalStore{principals: make(map[string]*domain.Principal)}
}

func credentialKey(kind domain.CredentialKind, credential string) string {
	return string(kind) + ":" + credential
}

func (m *memPrincipalStore) Create(ctx context.Context, p *domain.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := credentialKey(p.CredentialKind, p.Credential)
	if _, ok := m.principals[key]; ok {
		return repository.ErrDuplicate
	}
	m.principals[key] = p
	return nil
}

func (m *memPrincipalStore) GetByCredential(ctx context.Context, kind domain.CredentialKind, credential string) (*domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.principals[credentialKey(kind, credential)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (m *memPrincipalStore) GetBySessionToken(ctx context.Context, token string) (*domain.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.principals {
		if p.SessionToken != nil && *p.SessionToken == token {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memPrincipalStore) SetSessionToken(ctx context.Context, id uuid.UUID, token *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.principals {
		if p.ID == id {
			p.SessionToken = token
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memPrincipalStore) Delete(ctx context.Context, kind domain.CredentialKind, credential string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := credentialKey(kind, credential)
	if _, ok := m.principals[key]; !ok {
		return repository.ErrNotFound
	}
	delete(m.principals, key)
	return nil
}

// fakeDocStore — хранилище метаданных документов с подменяемыми функциями.
type fakeDocStore struct {
	CreateFunc       func(ctx context.Context, d *domain.Document) error
	GetByIDFunc      func(ctx context.Context, id string) (*domain.Document, error)
	GetByVersionFunc func(ctx context.Context, version string) (*domain.Document, error)
	ListVisibleFunc  func(ctx context.Context, roles, companies []string, matchAllCompanies bool) ([]domain.DocumentListItem, error)
	ReplaceFunc      func(ctx context.Context, id string, d *domain.Document) error
	DeleteFunc       func(ctx context.Context, id string) error
}

func (f *fakeDocStore) Create(ctx context.Context, d *domain.Document) error {
	return f.CreateFunc(ctx, d)
}

func (f *fakeDocStore) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return f.GetByIDFunc(ctx, id)
}

func (f *fakeDocStore) GetByVersion(ctx context.Context, version string) (*domain.Document, error) {
	return f.GetByVersionFunc(ctx, version)
}

func (f *fakeDocStore) ListVisible(ctx context.Context, roles, companies []string, matchAllCompanies bool) ([]domain.DocumentListItem, error) {
	return f.ListVisibleFunc(ctx, roles, companies, matchAllCompanies)
}

func (f *fakeDocStore) Replace(ctx context.Context, id string, d *domain.Document) error {
	return f.ReplaceFunc(ctx, id, d)
}

func (f *fakeDocStore) Delete(ctx context.Context, id string) error {
	return f.DeleteFunc(ctx, id)
}

// memDocStore — хранилище документов в памяти для сквозных сценариев.
type memDocStore struct {
	mu   sync.Mutex
	docs map[string]*domain.Document
}

func newMemDocStore() *memDocStore {
	return &memDocStore{docs: make(map[string]*domain.Document)}
}

// Хранилище отдает и принимает копии: вызывающий не должен делить память
// с внутренним состоянием, как и при работе с настоящей базой.
func (m *memDocStore) Create(ctx context.Context, d *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[d.ID]; ok {
		return repository.ErrDuplicate
	}
	cp := *d
	m.docs[d.ID] = &cp
	return nil
}

func (m *memDocStore) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memDocStore) GetByVersion(ctx context.Context, version string) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.Version == version {
			cp := *d
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memDocStore) ListVisible(ctx context.Context, roles, companies []string, matchAllCompanies bool) ([]domain.DocumentListItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []domain.DocumentListItem{}
	for _, d := range m.docs {
		if !intersects(d.Roles, roles) {
			continue
		}
		if !matchAllCompanies && !intersects(d.Companies, companies) {
			continue
		}
		items = append(items, domain.DocumentListItem{
			ID:        d.ID,
			Version:   d.Version,
			Companies: d.Companies,
		})
	}
	return items, nil
}

func (m *memDocStore) Replace(ctx context.Context, id string, d *domain.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return repository.ErrNotFound
	}
	cp := *d
	m.docs[id] = &cp
	return nil
}

func (m *memDocStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.docs, id)
	return nil
}
