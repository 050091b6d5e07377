package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	spaceRuns   = regexp.MustCompile(`\s+`)
)

const maxBaseLen = 50

// IDGenerator generates unique prefixes for archived files
type IDGenerator interface {
	Generate() string
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

// LocalArchive keeps uploaded receipts on the local filesystem
type LocalArchive struct {
	basePath    string
	idGenerator IDGenerator
}

// NewLocalArchive creates the archive directory if needed
func NewLocalArchive(basePath string) (*LocalArchive, error) {
	return NewLocalArchiveWithIDs(basePath, uuidGenerator{})
}

// NewLocalArchiveWithIDs creates a LocalArchive with a custom ID generator for testing
func NewLocalArchiveWithIDs(basePath string, ids IDGenerator) (*LocalArchive, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}
	return &LocalArchive{
		basePath:    basePath,
		idGenerator: ids,
	}, nil
}

// Save writes data under a unique, sanitized name and returns that name
func (l *LocalArchive) Save(filename string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s", l.idGenerator.Generate(), sanitizeFilename(filename))
	if err := os.WriteFile(filepath.Join(l.basePath, name), data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

// sanitizeFilename keeps letters, digits, spaces, hyphens and underscores
// and truncates long phone-generated names
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeChars.ReplaceAllString(base, "")
	base = strings.TrimSpace(spaceRuns.ReplaceAllString(base, " "))
	if len(base) > maxBaseLen {
		base = base[:maxBaseLen]
	}
	if base == "" {
		base = "receipt"
	}

	ext = unsafeChars.ReplaceAllString(strings.TrimPrefix(ext, "."), "")
	if ext == "" {
		return base
	}
	return base + "." + ext
}
