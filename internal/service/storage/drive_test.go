package storage

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/chynybekuuludastan/post_factory/internal/logging"
)

func TestExtractFolderID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://drive.example.com/drive/folders/ABC123XYZ?usp=sharing", "ABC123XYZ"},
		{"ABC123XYZ", "ABC123XYZ"},
		{"  ABC123XYZ \n", "ABC123XYZ"},
		{"https://drive.google.com/drive/u/0/folders/1a-B_c2", "1a-B_c2"},
		{"https://drive.google.com/open?id=XYZ987", "XYZ987"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractFolderID(tt.input))
		})
	}
}

func TestBaseName(t *testing.T) {
	ts := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

	assert.Equal(t, "Post_2025-03-14_09-26-53", BaseName(ts, 0))
	assert.Equal(t, "Post_2025-03-14_09-26-53_3", BaseName(ts, 3))
}

type recordingCreate struct {
	files []*drive.File
	fail  map[string]error
}

func (r *recordingCreate) create(_ context.Context, file *drive.File, media io.Reader) (*drive.File, error) {
	r.files = append(r.files, file)
	if err := r.fail[file.Name]; err != nil {
		return nil, err
	}
	if _, err := io.ReadAll(media); err != nil {
		return nil, err
	}
	return &drive.File{Id: "id-" + file.Name, WebViewLink: "https://drive.example.com/file/" + file.Name}, nil
}

func TestUploadSuccess(t *testing.T) {
	rec := &recordingCreate{}
	u := NewDriveUploaderWithCreate(rec.create, logging.NopLogger{})

	res := u.Upload(context.Background(), "https://drive.example.com/drive/folders/FOLDER1", Artifact{
		Kind: ArtifactText, Name: "Post_x.txt", MimeType: "text/plain", Data: []byte("HEADLINE: hi"),
	})

	assert.True(t, res.Success)
	assert.Equal(t, "id-Post_x.txt", res.FileID)
	assert.Contains(t, res.Link, "Post_x.txt")
	assert.Empty(t, res.Error)

	require.Len(t, rec.files, 1)
	assert.Equal(t, []string{"FOLDER1"}, rec.files[0].Parents)
	assert.Equal(t, "text/plain", rec.files[0].MimeType)
}

func TestUploadAllIndependent(t *testing.T) {
	rec := &recordingCreate{fail: map[string]error{
		"Post_x.jpg": &googleapi.Error{Code: 404, Message: "File not found: FOLDER1"},
	}}
	u := NewDriveUploaderWithCreate(rec.create, logging.NopLogger{})

	var started []string
	results := UploadAll(context.Background(), u, "FOLDER1", func(a Artifact) { started = append(started, a.Name) },
		Artifact{Kind: ArtifactImage, Name: "Post_x.jpg", MimeType: "image/jpeg", Data: []byte{1, 2}},
		Artifact{Kind: ArtifactText, Name: "Post_x.txt", MimeType: "text/plain", Data: []byte("t")},
	)

	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].Error, "shared with the service account")
	assert.True(t, results[1].Success, "text upload must not depend on the image upload")
	assert.Equal(t, []string{"Post_x.jpg", "Post_x.txt"}, started)
}

func TestUploadGenericFailure(t *testing.T) {
	rec := &recordingCreate{fail: map[string]error{"a.txt": errors.New("connection reset")}}
	u := NewDriveUploaderWithCreate(rec.create, logging.NopLogger{})

	res := u.Upload(context.Background(), "F", Artifact{Kind: ArtifactText, Name: "a.txt"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "connection reset")
}

func TestUploadWithoutFolder(t *testing.T) {
	rec := &recordingCreate{}
	u := NewDriveUploaderWithCreate(rec.create, logging.NopLogger{})

	res := u.Upload(context.Background(), "  ", Artifact{Kind: ArtifactText, Name: "a.txt"})
	assert.False(t, res.Success)
	assert.Equal(t, ErrNoFolder.Error(), res.Error)
	assert.Empty(t, rec.files)
}
