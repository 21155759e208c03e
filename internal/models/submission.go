package models

import (
	"io"
	"strings"

	"github.com/Bessima/translation-orders/internal/customerror"
)

// FileUpload is one file received from the client. Open is called at most once.
type FileUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func (f *FileUpload) HasContent() bool {
	return f != nil && f.Size > 0 && f.Open != nil
}

type SubmissionInput struct {
	OrdererName       string
	Phone             string
	PackageIdentifier string
	IsDisadvantaged   bool
	IsSchool          bool
	CaptchaToken      string
	RemoteIP          string
	Documents         []FileUpload
	Certificate       *FileUpload
}

// Validate collects every field error at once and resolves the package.
// Empty document parts are dropped from input.
func (input *SubmissionInput) Validate() (*Package, error) {
	fields := make(map[string]string)

	if strings.TrimSpace(input.OrdererName) == "" {
		fields["orderer_name"] = "orderer name is required"
	}

	pkg, ok := FindPackage(input.PackageIdentifier)
	if !ok {
		fields["package_tier_value"] = "unknown package"
	}

	// пустые части формы (файл не выбран) просто отбрасываются
	documents := make([]FileUpload, 0, len(input.Documents))
	for _, document := range input.Documents {
		if document.HasContent() {
			documents = append(documents, document)
		}
	}
	input.Documents = documents
	if len(documents) == 0 {
		fields["files"] = "at least one non-empty document is required"
	}

	if input.IsDisadvantaged && !input.Certificate.HasContent() {
		fields["certificate"] = "certificate is required for disadvantaged applicants"
	}

	if len(fields) > 0 {
		return nil, customerror.NewValidationError(fields)
	}
	return &pkg, nil
}

type FileInfo struct {
	Path      string  `json:"path"`
	Filename  string  `json:"filename"`
	SignedURL *string `json:"signedUrl"`
}

// EnrichedOrder is an order as returned to clients: storage keys replaced by file descriptors.
type EnrichedOrder struct {
	Order
	UploadedFilesInfo  []FileInfo `json:"uploaded_files_info"`
	CertificateInfo    *FileInfo  `json:"certificate_info"`
	TranslatedFileInfo *FileInfo  `json:"translated_file_info"`
}
