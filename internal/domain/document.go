package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Document struct {
	ID        string         `json:"id" db:"id"`
	Version   string         `json:"version" db:"version"`
	Name      string         `json:"name" db:"name"`
	MIMEType  string         `json:"mime_type" db:"mime_type"`
	SizeBytes int64          `json:"size_bytes" db:"size_bytes"`
	S3Key     string         `json:"-" db:"s3_key"`
	Roles     pq.StringArray `json:"roles" db:"roles"`
	Companies pq.StringArray `json:"companies" db:"companies"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
}

// DocumentListItem — то немногое, что листинг отдает наружу: никакого
// содержимого, только идентифицирующие поля.
type DocumentListItem struct {
	ID        string         `json:"id" db:"id"`
	Version   string         `json:"version" db:"version"`
	Companies pq.StringArray `json:"companies" db:"companies"`
}

type DocumentUpload struct {
	ID        string
	Role      string
	Companies []string
	Name      string
	MIMEType  string
	Data      []byte
}

type DocumentReplace struct {
	Name     string
	MIMEType string
	Data     []byte
}

type DocumentDownload struct {
	Document *Document
	Data     []byte
}

// NormalizeCompanyTags приводит поле компаний к единому виду. Клиенты
// присылают его как JSON-массив, как JSON-строку с массивом внутри или как
// голую строку — последняя заворачивается в массив из одного элемента.
func NormalizeCompanyTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var arr []string
	if err := json.Unmarshal([]byte(raw), &arr); err == nil {
		return cleanTags(arr)
	}

	var inner string
	if err := json.Unmarshal([]byte(raw), &inner); err == nil {
		return NormalizeCompanyTags(inner)
	}

	return cleanTags([]string{raw})
}

func cleanTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
