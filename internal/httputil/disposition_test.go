// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttachmentFilename(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
		wantOK bool
	}{
		{"quoted attachment", `attachment; filename="report.zip"`, "report.zip", true},
		{"uppercase type", `ATTACHMENT; filename="out.stl"`, "out.stl", true},
		{"extra params", `attachment; size=12; filename="a b.zip"; creation-date="x"`, "a b.zip", true},
		{"empty header", "", "", false},
		{"inline not parsed", `inline; filename="report.zip"`, "", false},
		{"attachment only in filename", `inline; filename="attachment.zip"`, "", false},
		{"attachment without filename", `attachment`, "", false},
		{"unquoted filename", `attachment; filename=report.zip`, "", false},
		{"empty quotes", `attachment; filename=""`, "", false},
		{"extended filename only", `attachment; filename*=UTF-8''r%C3%A9sum%C3%A9.zip`, "", false},
		{"unterminated quote", `attachment; filename="report.zip`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := AttachmentFilename(tt.header)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAttachmentRoundTrip(t *testing.T) {
	got, ok := AttachmentFilename(Attachment(`we"ird.zip`))
	assert.True(t, ok)
	assert.Equal(t, "weird.zip", got)
}
