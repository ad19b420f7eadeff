package ingestion

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const googleDocMime = "application/vnd.google-apps.document"

type DriveFile struct {
	ID       string
	Name     string
	MimeType string
}

// DriveClient lists and downloads the files of a Drive folder.
type DriveClient interface {
	ListFolder(ctx context.Context, folderID string) ([]DriveFile, error)
	Open(ctx context.Context, f DriveFile) (io.ReadCloser, error)
}

type driveAPI struct {
	srv *drive.Service
}

// NewDriveClient authenticates with a service account or authorized user
// JSON credentials file and requests read-only access.
func NewDriveClient(ctx context.Context, credentialsFile string) (DriveClient, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(ctx, data, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	client := oauth2.NewClient(ctx, oauth2.ReuseTokenSource(nil, creds.TokenSource))

	srv, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, err
	}
	return &driveAPI{srv: srv}, nil
}

func (d *driveAPI) ListFolder(ctx context.Context, folderID string) ([]DriveFile, error) {
	q := fmt.Sprintf("'%s' in parents and trashed = false", strings.ReplaceAll(folderID, "'", `\'`))
	var out []DriveFile
	err := d.srv.Files.List().
		Q(q).
		Fields("nextPageToken, files(id, name, mimeType)").
		Pages(ctx, func(page *drive.FileList) error {
			for _, f := range page.Files {
				out = append(out, DriveFile{ID: f.Id, Name: f.Name, MimeType: f.MimeType})
			}
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list drive folder: %w", err)
	}
	return out, nil
}

func (d *driveAPI) Open(ctx context.Context, f DriveFile) (io.ReadCloser, error) {
	if f.MimeType == googleDocMime {
		resp, err := d.srv.Files.Export(f.ID, "text/plain").Context(ctx).Download()
		if err != nil {
			return nil, err
		}
		return resp.Body, nil
	}
	resp, err := d.srv.Files.Get(f.ID).Context(ctx).Download()
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// DriveSource mirrors a Drive folder into a local directory so the
// downloaded bulletins go through the same extraction as local files.
type DriveSource struct {
	client DriveClient
	logger *zap.Logger
}

func NewDriveSource(client DriveClient, logger *zap.Logger) *DriveSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DriveSource{client: client, logger: logger.With(zap.String("component", "drive"))}
}

// Fetch downloads the supported files of folderID into dir and returns
// their local paths. Google Docs are exported as plain text.
func (s *DriveSource) Fetch(ctx context.Context, folderID, dir string) ([]string, error) {
	files, err := s.client.ListFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, f := range files {
		name := filepath.Base(f.Name)
		if f.MimeType == googleDocMime {
			name += ".txt"
		}
		if !Supported(name) {
			s.logger.Debug("skipping unsupported drive file", zap.String("name", f.Name), zap.String("mime", f.MimeType))
			continue
		}
		dst := filepath.Join(dir, f.ID+"_"+name)
		if err := s.download(ctx, f, dst); err != nil {
			return paths, fmt.Errorf("download %s: %w", f.Name, err)
		}
		s.logger.Info("downloaded drive file", zap.String("name", f.Name), zap.String("path", dst))
		paths = append(paths, dst)
	}
	return paths, nil
}

func (s *DriveSource) download(ctx context.Context, f DriveFile, dst string) error {
	rc, err := s.client.Open(ctx, f)
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
