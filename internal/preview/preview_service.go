package preview

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/h2non/bimg"
	"github.com/jmoiron/sqlx"

	"frotadocs/internal/domain"
	"frotadocs/internal/service/s3"
)

const (
	maxImageSize  = 1024                       // максимальный размер превью в пикселях
	jpegQuality   = 85                         // качество JPEG
	previewPrefix = "fleet_documents/previews" // префикс для превью в S3
	previewMaxAge = 30 * 24 * time.Hour
)

// Service генерирует и кеширует превью первой страницы PDF-документа.
type Service struct {
	s3Client s3.Storage
	db       *sqlx.DB
}

func NewService(s3Client s3.Storage, db *sqlx.DB) *Service {
	return &Service{
		s3Client: s3Client,
		db:       db,
	}
}

// StartCleanupTask запускает периодическую очистку старых превью
func (s *Service) StartCleanupTask() {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		for range ticker.C {
			s.cleanupOldPreviews(context.Background())
		}
	}()
}

// cleanupOldPreviews удаляет из базы и S3 превью старше 30 дней и превью
// документов, которых больше нет
func (s *Service) cleanupOldPreviews(ctx context.Context) {
	log.Printf("Starting preview cleanup task")

	var keys []string
	query := `
        DELETE FROM document_previews
        WHERE created_at < NOW() - INTERVAL '30 days'
           OR document_id NOT IN (SELECT id FROM documents)
        RETURNING s3_key`

	err := s.db.SelectContext(ctx, &keys, query)
	if err != nil {
		log.Printf("Error cleaning up old previews from database: %v", err)
		return
	}

	for _, key := range keys {
		if err := s.s3Client.DeleteObject(key); err != nil {
			log.Printf("Error deleting preview from S3: %v", err)
		}
	}

	log.Printf("Completed preview cleanup task. Removed %d old previews", len(keys))
}

// GetOrGenerate возвращает превью документа, генерируя его при первом
// обращении. Ключ привязан к номеру версии: после замены содержимого старое
// превью не отдается.
func (s *Service) GetOrGenerate(ctx context.Context, doc *domain.Document) ([]byte, error) {
	previewKey := fmt.Sprintf("%s/v%s.jpg", previewPrefix, doc.Version)

	// Пытаемся получить существующее превью
	obj, err := s.s3Client.GetObject(ctx, previewKey)
	if err == nil {
		defer obj.Close()
		return io.ReadAll(obj)
	}

	// Превью нет — растрируем первую страницу PDF
	src, err := s.s3Client.GetObject(ctx, doc.S3Key)
	if err != nil {
		return nil, fmt.Errorf("failed to get document payload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read document payload: %w", err)
	}

	thumb, err := s.generatePDFThumbnail(data)
	if err != nil {
		return nil, fmt.Errorf("failed to generate preview: %w", err)
	}

	if err := s.s3Client.UploadBytes(previewKey, thumb, "image/jpeg"); err != nil {
		return nil, fmt.Errorf("failed to store preview: %w", err)
	}

	// После замены содержимого превью прежней версии больше не нужно
	var oldKey string
	err = s.db.GetContext(ctx, &oldKey, `SELECT s3_key FROM document_previews WHERE document_id = $1`, doc.ID)
	if err == nil && oldKey != previewKey {
		if err := s.s3Client.DeleteObject(oldKey); err != nil {
			log.Printf("Failed to delete stale preview %s: %v", oldKey, err)
		}
	}

	query := `
        INSERT INTO document_previews (document_id, version, s3_key)
        VALUES ($1, $2, $3)
        ON CONFLICT (document_id) DO UPDATE
        SET version = EXCLUDED.version,
            s3_key = EXCLUDED.s3_key,
            created_at = CURRENT_TIMESTAMP`

	if _, err := s.db.ExecContext(ctx, query, doc.ID, doc.Version, previewKey); err != nil {
		log.Printf("Failed to record preview for %s: %v", doc.ID, err)
	}

	return thumb, nil
}

// generatePDFThumbnail растрирует первую страницу PDF в JPEG.
// libvips читает PDF напрямую, отдельного конвертера не нужно.
func (s *Service) generatePDFThumbnail(data []byte) ([]byte, error) {
	image := bimg.NewImage(data)

	size, err := image.Size()
	if err != nil {
		return nil, fmt.Errorf("failed to read page size: %w", err)
	}

	width, height := fitDimensions(size.Width, size.Height, maxImageSize)

	processed, err := image.Process(bimg.Options{
		Width:   width,
		Height:  height,
		Quality: jpegQuality,
		Type:    bimg.JPEG,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process page: %w", err)
	}

	return processed, nil
}

// fitDimensions вычисляет размеры с сохранением пропорций
func fitDimensions(width, height, maxSize int) (newWidth, newHeight int) {
	if width > height {
		newWidth = maxSize
		newHeight = (height * maxSize) / width
	} else {
		newHeight = maxSize
		newWidth = (width * maxSize) / height
	}
	return
}
