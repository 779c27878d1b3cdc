package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(strings.ToLower(path.Ext(name)), ".")
}

// AllowedExtension reports whether name carries one of the allowed extensions.
func AllowedExtension(name string, allowed []string) bool {
	ext := Extension(name)
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

// ObjectName builds a collision free relative path such as "thumbnails/<owner>/<uuid>.png".
func ObjectName(folder, owner, original string) string {
	name := uuid.NewString()
	if ext := Extension(original); ext != "" {
		name += "." + ext
	}
	return path.Join(folder, owner, name)
}
