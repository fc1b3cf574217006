// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared by the conversion client and
// the preview server.
package httputil

import (
	"regexp"
	"strings"
)

// filenamePattern captures exactly one quoted filename parameter.
var filenamePattern = regexp.MustCompile(`filename="([^"]+)"`)

// AttachmentFilename extracts the quoted filename from a Content-Disposition
// header value. It reports false when the header is empty, when its
// disposition type is not "attachment", or when no quoted filename can be
// captured. Callers fall back to a default name in every false case.
func AttachmentFilename(header string) (string, bool) {
	if !IsAttachment(header) {
		return "", false
	}
	m := filenamePattern.FindStringSubmatch(header)
	if len(m) != 2 {
		return "", false
	}
	return m[1], true
}

// IsAttachment reports whether the disposition type of header is
// "attachment" (case-insensitive).
func IsAttachment(header string) bool {
	typ, _, _ := strings.Cut(header, ";")
	return strings.EqualFold(strings.TrimSpace(typ), "attachment")
}

// Attachment formats a Content-Disposition value that AttachmentFilename
// can read back.
func Attachment(filename string) string {
	return `attachment; filename="` + strings.ReplaceAll(filename, `"`, "") + `"`
}
