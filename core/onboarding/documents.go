package onboarding

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/ongoza/cyberhub/core"
)

// DefaultMaxUploadSize applies when no upload limit is configured.
const DefaultMaxUploadSize int64 = 10 << 20 // 10 MiB

type DocumentKind string

const (
	DocumentID         DocumentKind = "id"
	DocumentTranscript DocumentKind = "transcript"
	DocumentCV         DocumentKind = "cv"
)

// RequiredDocuments lists the uploads every applicant must provide, in display order.
var RequiredDocuments = []DocumentKind{DocumentID, DocumentTranscript, DocumentCV}

var (
	errUnknownDocumentKind = errors.New("unknown document kind")
	errEmptyFile           = errors.New("file is empty")
	errFileType            = errors.New("file type not accepted")
)

type acceptedFiles struct {
	exts  []string
	types []string // a trailing "/" matches the whole media type family
}

var documentFiles = map[DocumentKind]acceptedFiles{
	DocumentID: { // pdf or a raster image
		exts:  []string{".pdf", ".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif", ".bmp", ".tif", ".tiff"},
		types: []string{"application/pdf", "image/"},
	},
	DocumentTranscript: {
		exts:  []string{".pdf"},
		types: []string{"application/pdf"},
	},
	DocumentCV: {
		exts: []string{".pdf", ".doc", ".docx"},
		types: []string{
			"application/pdf",
			"application/msword",
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		},
	},
}

func ParseDocumentKind(s string) (DocumentKind, error) {
	kind := DocumentKind(core.CleanString(s, true /* lower */))
	if _, ok := documentFiles[kind]; !ok {
		return "", core.NewUploadError(s, errUnknownDocumentKind, false)
	}
	return kind, nil
}

// File is an in-memory uploaded file.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

func (f File) Size() int64 { return int64(len(f.Data)) }

// VerificationStatus tracks the resolution of a DocumentUpload.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationFailed   VerificationStatus = "failed"
)

type DocumentUpload struct {
	ID          string             `json:"id"`
	Kind        DocumentKind       `json:"kind"`
	FileName    string             `json:"file_name"`
	ContentType string             `json:"content_type"`
	Size        int64              `json:"size"`
	Status      VerificationStatus `json:"status"`
	Confidence  *int               `json:"confidence"` // nil while pending
	Failure     string             `json:"failure,omitempty"`
	Retryable   bool               `json:"retryable,omitempty"`
	UploadedAt  time.Time          `json:"uploaded_at"`
	VerifiedAt  *time.Time         `json:"verified_at,omitempty"`
}

func (u DocumentUpload) clone() DocumentUpload {
	if u.Confidence != nil {
		c := *u.Confidence
		u.Confidence = &c
	}
	if u.VerifiedAt != nil {
		t := *u.VerifiedAt
		u.VerifiedAt = &t
	}
	return u
}

// checkFile rejects files that must never reach the verification service.
func checkFile(kind DocumentKind, f File, maxSize int64) error {
	accepted, ok := documentFiles[kind]
	if !ok {
		return core.NewUploadError(string(kind), errUnknownDocumentKind, false)
	}
	if f.Size() == 0 {
		return core.NewUploadError(string(kind), errEmptyFile, false)
	}
	if f.Size() > maxSize {
		return core.NewUploadError(string(kind), fmt.Errorf("file exceeds the %d MB limit", maxSize>>20), false)
	}

	ext := strings.ToLower(path.Ext(f.Name))
	if !matchAny(ext, accepted.exts) {
		return core.NewUploadError(string(kind), errFileType, false)
	}
	if ct := mediaType(f.ContentType); ct != "" && ct != "application/octet-stream" {
		if !matchAny(ct, accepted.types) {
			return core.NewUploadError(string(kind), errFileType, false)
		}
	}
	return nil
}

func mediaType(ct string) string {
	if ct == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(ct))
	}
	return mt
}

func matchAny(v string, accepted []string) bool {
	for _, a := range accepted {
		if v == a || (strings.HasSuffix(a, "/") && strings.HasPrefix(v, a)) {
			return true
		}
	}
	return false
}
