package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pritechvior/project-wizard/internal/models"
)

// Archive is a downloadable project archive
type Archive struct {
	ID            models.ID `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Author        string    `json:"author,omitempty"`
	Downloads     int       `json:"download_count,omitempty"`
	AverageRating float64   `json:"average_rating,omitempty"`
	IsFeatured    bool      `json:"is_featured,omitempty"`
	CreatedAt     string    `json:"created_at,omitempty"`
}

// ArchiveComment is a rated comment on an archive
type ArchiveComment struct {
	ID        models.ID `json:"id"`
	Comment   string    `json:"comment"`
	Rating    int       `json:"rating"`
	User      string    `json:"user,omitempty"`
	CreatedAt string    `json:"created_at,omitempty"`
}

// DownloadInfo is returned by the download endpoint
type DownloadInfo struct {
	DownloadURL string `json:"download_url"`
	FileName    string `json:"file_name,omitempty"`
	Message     string `json:"message,omitempty"`
}

func archivePath(id string, action string) string {
	p := "/archive/api/archives/" + url.PathEscape(id) + "/"
	if action != "" {
		p += action + "/"
	}
	return p
}

func bearer(token string) map[string]string {
	if token == "" {
		return nil
	}
	return map[string]string{"Authorization": "Bearer " + token}
}

// GetArchives lists archives with optional filters (search, category, is_featured, ...)
func (c *Client) GetArchives(ctx context.Context, params url.Values) ([]Archive, error) {
	body, err := c.get(ctx, "/archive/api/archives/", params)
	if err != nil {
		return nil, err
	}
	return decodeList[Archive](body)
}

// GetArchive fetches one archive
func (c *Client) GetArchive(ctx context.Context, id string) (*Archive, error) {
	body, err := c.get(ctx, archivePath(id, ""), nil)
	if err != nil {
		return nil, err
	}
	var a Archive
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("failed to decode archive: %w", err)
	}
	return &a, nil
}

// GetArchiveComments lists the comments of an archive
func (c *Client) GetArchiveComments(ctx context.Context, id string) ([]ArchiveComment, error) {
	body, err := c.get(ctx, archivePath(id, "comments"), nil)
	if err != nil {
		return nil, err
	}
	return decodeList[ArchiveComment](body)
}

// RequestDownload asks for download access to a restricted archive
func (c *Client) RequestDownload(ctx context.Context, id, email, message, token string) error {
	req := map[string]string{"email": email, "message": message}
	_, err := c.post(ctx, archivePath(id, "request_download"), req, bearer(token))
	return err
}

// AddComment posts a rated comment
func (c *Client) AddComment(ctx context.Context, id, comment string, rating int, token string) (*ArchiveComment, error) {
	req := map[string]interface{}{"comment": comment, "rating": rating}
	body, err := c.post(ctx, archivePath(id, "add_comment"), req, bearer(token))
	if err != nil {
		return nil, err
	}
	var out ArchiveComment
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode comment: %w", err)
	}
	return &out, nil
}

// GetDownloadInfo requests the download link of an archive
func (c *Client) GetDownloadInfo(ctx context.Context, id, token string) (*DownloadInfo, error) {
	body, err := c.post(ctx, archivePath(id, "download"), nil, bearer(token))
	if err != nil {
		return nil, err
	}
	var info DownloadInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to decode download info: %w", err)
	}
	return &info, nil
}
