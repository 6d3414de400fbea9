package service

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

const maxKeyNameLen = 100

// newObjectKey derives a collision-free, path-free object key from a
// client-supplied filename.
func newObjectKey(filename string) string {
	id := uuid.NewString()
	name := sanitizeFilename(filename)
	if name == "" {
		return id
	}
	return id + "-" + name
}

func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" {
		return ""
	}
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := strings.TrimLeft(b.String(), ".")
	if len(name) > maxKeyNameLen {
		name = name[len(name)-maxKeyNameLen:]
	}
	return name
}
