package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
	"github.com/chynybekuuludastan/post_factory/internal/service/apierr"
)

// Artifact kinds
const (
	ArtifactText  = "text"
	ArtifactImage = "image"
)

// FilenameTimeLayout is the timestamp layout used in artifact names
const FilenameTimeLayout = "2006-01-02_15-04-05"

var (
	ErrNoFolder     = errors.New("no destination folder")
	ErrUploadFailed = errors.New("upload failed")
)

var folderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/folders/([A-Za-z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([A-Za-z0-9_-]+)`),
}

// ExtractFolderID accepts a bare folder ID or a folder URL and returns the ID.
// Input that matches no known URL pattern is returned trimmed.
func ExtractFolderID(input string) string {
	input = strings.TrimSpace(input)
	for _, re := range folderPatterns {
		if m := re.FindStringSubmatch(input); len(m) > 1 {
			return m[1]
		}
	}
	return input
}

// BaseName returns the artifact base name for a post created at t.
// index > 0 is appended so posts of one batch never collide.
func BaseName(t time.Time, index int) string {
	name := "Post_" + t.Format(FilenameTimeLayout)
	if index > 0 {
		name = fmt.Sprintf("%s_%d", name, index)
	}
	return name
}

// Artifact is one file to upload
type Artifact struct {
	Kind     string
	Name     string
	MimeType string
	Data     []byte
}

// UploadResult is the outcome for one artifact
type UploadResult struct {
	Artifact string `json:"artifact"`
	Name     string `json:"name"`
	Success  bool   `json:"success"`
	FileID   string `json:"file_id,omitempty"`
	Link     string `json:"link,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Uploader stores artifacts in a destination folder
type Uploader interface {
	Upload(ctx context.Context, folderID string, a Artifact) UploadResult
}

// CreateFunc creates a file in the folder and returns its ID and share link
type CreateFunc func(ctx context.Context, file *drive.File, media io.Reader) (*drive.File, error)

// DriveUploader uploads artifacts to Google Drive
type DriveUploader struct {
	create CreateFunc
	logger logging.Logger
}

// NewDriveUploader creates an uploader authorized with a service account bundle
func NewDriveUploader(ctx context.Context, credentialsJSON []byte, logger logging.Logger) (*DriveUploader, error) {
	svc, err := drive.NewService(ctx,
		option.WithCredentialsJSON(credentialsJSON),
		option.WithScopes(drive.DriveScope),
	)
	if err != nil {
		return nil, apierr.New("drive", apierr.ErrAuth, err)
	}
	return NewDriveUploaderWithCreate(driveCreate(svc), logger), nil
}

// NewDriveUploaderWithCreate creates an uploader around a custom create call
func NewDriveUploaderWithCreate(create CreateFunc, logger logging.Logger) *DriveUploader {
	return &DriveUploader{create: create, logger: logging.OrDefault(logger)}
}

func driveCreate(svc *drive.Service) CreateFunc {
	return func(ctx context.Context, file *drive.File, media io.Reader) (*drive.File, error) {
		return svc.Files.Create(file).
			Media(media, googleapi.ContentType(file.MimeType)).
			Fields("id, webViewLink").
			SupportsAllDrives(true).
			Context(ctx).
			Do()
	}
}

// Upload stores one artifact. Failures are reported in the result, never returned.
func (u *DriveUploader) Upload(ctx context.Context, folderID string, a Artifact) UploadResult {
	result := UploadResult{Artifact: a.Kind, Name: a.Name}

	folderID = ExtractFolderID(folderID)
	if folderID == "" {
		result.Error = ErrNoFolder.Error()
		return result
	}

	file, err := u.create(ctx, &drive.File{
		Name:     a.Name,
		Parents:  []string{folderID},
		MimeType: a.MimeType,
	}, bytes.NewReader(a.Data))
	if err != nil {
		err = apierr.Classify("drive", err)
		u.logger.Error("Failed to upload artifact",
			"artifact", a.Kind,
			"name", a.Name,
			"folder", folderID,
			"kind", apierr.KindName(err),
			"error", err)
		result.Error = uploadMessage(err)
		return result
	}

	result.Success = true
	result.FileID = file.Id
	result.Link = file.WebViewLink

	u.logger.Info("Uploaded artifact", "artifact", a.Kind, "name", a.Name, "file_id", file.Id)
	return result
}

// UploadAll uploads each artifact independently, in order. onStart, when set,
// is called before each upload.
func UploadAll(ctx context.Context, u Uploader, folderID string, onStart func(Artifact), artifacts ...Artifact) []UploadResult {
	results := make([]UploadResult, 0, len(artifacts))
	for _, a := range artifacts {
		if onStart != nil {
			onStart(a)
		}
		results = append(results, u.Upload(ctx, folderID, a))
	}
	return results
}

func uploadMessage(err error) string {
	if errors.Is(err, apierr.ErrAuth) || errors.Is(err, apierr.ErrModelUnavailable) {
		// Drive answers 403/404 when the folder was not shared with the service account
		return fmt.Sprintf("%v: %v (is the folder shared with the service account?)", ErrUploadFailed, err)
	}
	return fmt.Sprintf("%v: %v", ErrUploadFailed, err)
}
