package api

import (
	"time"

	"github.com/dharsanguruparan/RagDrop/internal/model"
)

type fileResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SizeBytes int64     `json:"size_bytes"`
	Summary   *string   `json:"summary"`
	Keywords  []string  `json:"keywords"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
	TotalFiles int64 `json:"total_files"`
}

type fileListResponse struct {
	Files      []fileResponse     `json:"files"`
	Pagination paginationResponse `json:"pagination"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

func toFileResponse(d *model.Document) fileResponse {
	kw := d.Keywords
	if kw == nil {
		kw = []string{}
	}
	return fileResponse{
		ID:        d.ID,
		Name:      d.Name,
		Type:      string(d.Type),
		SizeBytes: d.SizeBytes,
		Summary:   d.Summary,
		Keywords:  kw,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func toFileListResponse(p model.Page) fileListResponse {
	files := make([]fileResponse, 0, len(p.Files))
	for i := range p.Files {
		files = append(files, toFileResponse(&p.Files[i]))
	}
	return fileListResponse{
		Files: files,
		Pagination: paginationResponse{
			Page:       p.Pagination.Page,
			PageSize:   p.Pagination.PageSize,
			TotalPages: p.Pagination.TotalPages,
			TotalFiles: p.Pagination.TotalFiles,
		},
	}
}
