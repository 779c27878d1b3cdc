package service

import (
	"context"
	"errors"
	"os"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/dto"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
	"github.com/noah-isme/skillhub-api/pkg/storage"
)

// Storage scopes addressed by signed download tokens.
const (
	ScopeUploads = "uploads"
	ScopeExports = "exports"
)

type downloadSigner interface {
	Generate(subject, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (subject, relPath string, expiresAt time.Time, err error)
}

// FileLocator maps a relative path inside a storage scope to a file on disk.
type FileLocator interface {
	Path(rel string) string
}

// DownloadFile is a resolved signed download.
type DownloadFile struct {
	Path string
	Name string
}

// FileService issues and resolves signed download links across storage scopes.
type FileService struct {
	signer  downloadSigner
	scopes  map[string]FileLocator
	baseURL string
	logger  *zap.Logger
}

// NewFileService constructs a FileService. baseURL is the route prefix tokens are appended to.
func NewFileService(signer downloadSigner, scopes map[string]FileLocator, baseURL string, logger *zap.Logger) *FileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileService{signer: signer, scopes: scopes, baseURL: baseURL, logger: logger}
}

// Link signs rel within scope.
func (s *FileService) Link(scope, rel string) (*dto.DownloadLink, error) {
	if _, ok := s.scopes[scope]; !ok {
		return nil, appErrors.Clone(appErrors.ErrInternal, "unknown storage scope")
	}
	token, expiresAt, err := s.signer.Generate(scope, rel)
	if err != nil {
		return nil, internal(err, "failed to sign download link")
	}
	return &dto.DownloadLink{URL: s.baseURL + "/" + token, ExpiresAt: expiresAt.UTC().Format(time.RFC3339)}, nil
}

// Resolve verifies a token and locates the file on disk.
func (s *FileService) Resolve(_ context.Context, token string) (*DownloadFile, error) {
	scope, rel, _, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "download link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	store, ok := s.scopes[scope]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	full := store.Path(rel)
	if full == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid download link")
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, internal(err, "failed to stat file")
	}
	return &DownloadFile{Path: full, Name: path.Base(rel)}, nil
}
