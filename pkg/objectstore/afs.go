package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/viant/afs"
	_ "github.com/viant/afsc/gs"
	_ "github.com/viant/afsc/s3"
)

// AfsStore reads documents from any location viant/afs understands:
// file://, mem://, s3://bucket/prefix, gs://bucket/prefix.
type AfsStore struct {
	svc      afs.Service
	location string
}

func NewAfsStore(location string) *AfsStore {
	return &AfsStore{
		svc:      afs.New(),
		location: strings.TrimRight(location, "/"),
	}
}

func (s *AfsStore) List(ctx context.Context) ([]Object, error) {
	objects, err := s.svc.List(ctx, s.location)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.location, err)
	}

	var out []Object
	for _, o := range objects {
		// afs includes the listed folder itself.
		if o.IsDir() {
			continue
		}
		out = append(out, Object{
			Name:      o.Name(),
			Size:      o.Size(),
			UpdatedAt: o.ModTime(),
		})
	}
	return out, nil
}

func (s *AfsStore) Download(ctx context.Context, name string) ([]byte, error) {
	URL := s.location + "/" + strings.TrimLeft(name, "/")

	exists, err := s.svc.Exists(ctx, URL)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat %s: %w", URL, err)
	}
	if !exists {
		return nil, apperror.Newf(apperror.KindNotFound, "object %s not found", name)
	}

	data, err := s.svc.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", URL, err)
	}
	if len(data) == 0 {
		return nil, apperror.Newf(apperror.KindEmptyPayload, "object %s is empty", name)
	}
	return data, nil
}
