package objectstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"curriculum-rag-be/internal/pkg/apperror"
)

const supabaseListPageSize = 100

// SupabaseStore reads a Supabase Storage bucket over its REST API using the
// service role key.
type SupabaseStore struct {
	baseURL    string
	serviceKey string
	bucket     string
	client     *http.Client
}

func NewSupabaseStore(baseURL, serviceKey, bucket string, timeout time.Duration) *SupabaseStore {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		client:     &http.Client{Timeout: timeout},
	}
}

type supabaseListRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	SortBy struct {
		Column string `json:"column"`
		Order  string `json:"order"`
	} `json:"sortBy"`
}

type supabaseObject struct {
	ID        *string `json:"id"`
	Name      string  `json:"name"`
	UpdatedAt string  `json:"updated_at"`
	Metadata  *struct {
		Size int64 `json:"size"`
	} `json:"metadata"`
}

func (s *SupabaseStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("apikey", s.serviceKey)
}

// List returns every file at the bucket root, paging until exhausted.
func (s *SupabaseStore) List(ctx context.Context) ([]Object, error) {
	var objects []Object

	for offset := 0; ; offset += supabaseListPageSize {
		page, err := s.listPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		for _, o := range page {
			// Folders come back without an id.
			if o.ID == nil || o.Name == "" || o.Name == ".emptyFolderPlaceholder" {
				continue
			}
			obj := Object{Name: o.Name}
			if o.Metadata != nil {
				obj.Size = o.Metadata.Size
			}
			if t, err := time.Parse(time.RFC3339, o.UpdatedAt); err == nil {
				obj.UpdatedAt = t
			}
			objects = append(objects, obj)
		}

		if len(page) < supabaseListPageSize {
			return objects, nil
		}
	}
}

func (s *SupabaseStore) listPage(ctx context.Context, offset int) ([]supabaseObject, error) {
	body := supabaseListRequest{Limit: supabaseListPageSize, Offset: offset}
	body.SortBy.Column = "name"
	body.SortBy.Order = "asc"

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/list/%s", s.baseURL, url.PathEscape(s.bucket))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list bucket %s: %w", s.bucket, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read bucket listing: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("list bucket %s: status %d: %s", s.bucket, resp.StatusCode, string(respBody))
	}

	var page []supabaseObject
	if err := json.Unmarshal(respBody, &page); err != nil {
		return nil, fmt.Errorf("decode bucket listing: %w", err)
	}
	return page, nil
}

func (s *SupabaseStore) Download(ctx context.Context, name string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, url.PathEscape(s.bucket), escapeObjectPath(name))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, isSupabaseNotFound(resp.StatusCode, data):
		return nil, apperror.Newf(apperror.KindNotFound, "object %s not found", name)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("download %s: status %d: %s", name, resp.StatusCode, string(data))
	case len(data) == 0:
		return nil, apperror.Newf(apperror.KindEmptyPayload, "object %s is empty", name)
	}
	return data, nil
}

// Storage answers 400 with {"statusCode":"404"} for missing objects.
func isSupabaseNotFound(status int, body []byte) bool {
	if status != http.StatusBadRequest {
		return false
	}
	var e struct {
		StatusCode string `json:"statusCode"`
		Error      string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return false
	}
	return e.StatusCode == "404" || strings.EqualFold(e.Error, "not_found")
}

func escapeObjectPath(name string) string {
	parts := strings.Split(name, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
