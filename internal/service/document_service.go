package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"frotadocs/internal/domain"
	"frotadocs/internal/repository"
	"frotadocs/internal/service/s3"
	"frotadocs/internal/validate"
)

const (
	maxFileSize = 10 * 1024 * 1024 // 10MiB максимальный размер файла
	mimePDF     = "application/pdf"
	s3KeyPrefix = "fleet_documents"
)

// DocumentStore — хранилище метаданных документов.
type DocumentStore interface {
	Create(ctx context.Context, d *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	GetByVersion(ctx context.Context, version string) (*domain.Document, error)
	ListVisible(ctx context.Context, roles, companies []string, matchAllCompanies bool) ([]domain.DocumentListItem, error)
	Replace(ctx context.Context, id string, d *domain.Document) error
	Delete(ctx context.Context, id string) error
}

// DocumentService оркестрирует создание, чтение, замену и удаление
// документов: метаданные в базе, содержимое в S3.
type DocumentService struct {
	docs      DocumentStore
	storage   s3.Storage
	sequence  *SequenceService
	scope     *ScopeService
	roles     []string
	companies []string
}

func NewDocumentService(
	docs DocumentStore,
	storage s3.Storage,
	sequence *SequenceService,
	scope *ScopeService,
	roles, companies []string,
) *DocumentService {
	return &DocumentService{
		docs:      docs,
		storage:   storage,
		sequence:  sequence,
		scope:     scope,
		roles:     roles,
		companies: companies,
	}
}

// Upload сохраняет новый документ под выбранным клиентом идентификатором.
// Набор ролей документа — {роль из запроса, adm}: adm видит все.
func (s *DocumentService) Upload(ctx context.Context, in domain.DocumentUpload) (*domain.Document, error) {
	if strings.TrimSpace(in.ID) == "" {
		return nil, ErrMissingID
	}
	if !validate.Tag(in.Role, s.roles) {
		return nil, ErrInvalidRole
	}
	if !validate.Tags(in.Companies, s.companies) {
		return nil, ErrInvalidCompany
	}
	if err := checkContent(in.MIMEType, in.Data); err != nil {
		return nil, err
	}

	version, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, err
	}
	versionText := strconv.FormatInt(version, 10)

	roles := []string{in.Role}
	if in.Role != domain.RoleAdmin {
		roles = append(roles, domain.RoleAdmin)
	}

	key := payloadKey(versionText)
	if err := s.storage.UploadBytes(key, in.Data, mimePDF); err != nil {
		return nil, fmt.Errorf("failed to store payload: %w", err)
	}

	d := &domain.Document{
		ID:        in.ID,
		Version:   versionText,
		Name:      in.Name,
		MIMEType:  in.MIMEType,
		SizeBytes: int64(len(in.Data)),
		S3Key:     key,
		Roles:     roles,
		Companies: in.Companies,
	}

	if err := s.docs.Create(ctx, d); err != nil {
		// Содержимое уже в S3 — подчищаем, запись не состоялась
		if delErr := s.storage.DeleteObject(key); delErr != nil {
			log.Printf("Failed to clean up payload %s: %v", key, delErr)
		}
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateID
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	return d, nil
}

// FetchByID отдает документ по клиентскому идентификатору.
func (s *DocumentService) FetchByID(ctx context.Context, id string, p *domain.Principal) (*domain.DocumentDownload, error) {
	d, err := s.visibleByID(ctx, id, p)
	if err != nil {
		return nil, err
	}
	return s.download(ctx, d)
}

// FetchByVersion отдает документ по номеру версии.
func (s *DocumentService) FetchByVersion(ctx context.Context, version string, p *domain.Principal) (*domain.DocumentDownload, error) {
	d, err := s.docs.GetByVersion(ctx, version)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if !s.visible(d, p) {
		return nil, ErrNotFound
	}
	return s.download(ctx, d)
}

// GetVisible возвращает метаданные документа с проверкой видимости.
// Существующий, но невидимый документ неотличим от отсутствующего.
func (s *DocumentService) GetVisible(ctx context.Context, id string, p *domain.Principal) (*domain.Document, error) {
	return s.visibleByID(ctx, id, p)
}

// List возвращает только идентифицирующие поля видимых документов.
func (s *DocumentService) List(ctx context.Context, p *domain.Principal) ([]domain.DocumentListItem, error) {
	roles, companies := s.scope.ComputeScope(p)
	items, err := s.docs.ListVisible(ctx, roles, companies, s.scope.MatchAllCompanies(p))
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return items, nil
}

// Replace перезаписывает содержимое документа, найденного по текущей версии.
// Идентификатор и метки роли/компаний сохраняются, номер версии строго растет,
// прежняя версия не сохраняется как история.
func (s *DocumentService) Replace(ctx context.Context, version string, in domain.DocumentReplace) (*domain.Document, error) {
	d, err := s.docs.GetByVersion(ctx, version)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	if err := checkContent(in.MIMEType, in.Data); err != nil {
		return nil, err
	}

	next, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, err
	}
	newVersion := strconv.FormatInt(next, 10)

	newKey := payloadKey(newVersion)
	if err := s.storage.UploadBytes(newKey, in.Data, mimePDF); err != nil {
		return nil, fmt.Errorf("failed to store payload: %w", err)
	}

	oldKey := d.S3Key
	d.Version = newVersion
	d.MIMEType = in.MIMEType
	d.SizeBytes = int64(len(in.Data))
	d.S3Key = newKey
	if in.Name != "" {
		d.Name = in.Name
	}

	if err := s.docs.Replace(ctx, d.ID, d); err != nil {
		if delErr := s.storage.DeleteObject(newKey); delErr != nil {
			log.Printf("Failed to clean up payload %s: %v", newKey, delErr)
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to replace document: %w", err)
	}

	if err := s.storage.DeleteObject(oldKey); err != nil {
		log.Printf("Failed to delete replaced payload %s: %v", oldKey, err)
	}

	return d, nil
}

// Delete удаляет документ по идентификатору или номеру версии. Требует роли
// adm; отсутствие записи — ошибка, а не молчаливый успех.
func (s *DocumentService) Delete(ctx context.Context, key string, p *domain.Principal) error {
	if !p.HasRole(domain.RoleAdmin) {
		return ErrAccessDenied
	}

	d, err := s.docs.GetByID(ctx, key)
	if errors.Is(err, repository.ErrNotFound) {
		d, err = s.docs.GetByVersion(ctx, key)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if err := s.docs.Delete(ctx, d.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if err := s.storage.DeleteObject(d.S3Key); err != nil {
		log.Printf("Failed to delete payload %s: %v", d.S3Key, err)
	}

	return nil
}

// AttachmentFilename строит имя вложения из номера версии, а не из
// клиентского идентификатора: произвольная строка клиента не попадает в
// заголовок Content-Disposition.
func AttachmentFilename(d *domain.Document) string {
	return sanitizeFilename(fmt.Sprintf("documento_v%s.pdf", d.Version))
}

// sanitizeFilename вычищает кавычки, пробельные и скобочные символы.
func sanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '"', '\'', '`', ' ', '\t', '\r', '\n', '(', ')', '[', ']', '{', '}', '<', '>':
			return '_'
		}
		return r
	}, name)
}

func (s *DocumentService) visibleByID(ctx context.Context, id string, p *domain.Principal) (*domain.Document, error) {
	d, err := s.docs.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	if !s.visible(d, p) {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *DocumentService) visible(d *domain.Document, p *domain.Principal) bool {
	roles, companies := s.scope.ComputeScope(p)
	return s.scope.IsVisible(d.Roles, d.Companies, roles, companies)
}

func (s *DocumentService) download(ctx context.Context, d *domain.Document) (*domain.DocumentDownload, error) {
	obj, err := s.storage.GetObject(ctx, d.S3Key)
	if err != nil {
		return nil, fmt.Errorf("failed to get payload: %w", err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload: %w", err)
	}

	return &domain.DocumentDownload{Document: d, Data: data}, nil
}

func checkContent(mimeType string, data []byte) error {
	if len(data) == 0 {
		return ErrMissingContent
	}
	// Заявленному типу верим, содержимое не распознаем
	if mimeType != mimePDF {
		return ErrUnsupportedType
	}
	if len(data) > maxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

func payloadKey(version string) string {
	return fmt.Sprintf("%s/v%s", s3KeyPrefix, version)
}
