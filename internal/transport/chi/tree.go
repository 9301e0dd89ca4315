package chi

import (
	"net/http"
	"time"
)

// fileRecord is one entry of GET /api/files.
type fileRecord struct {
	FileID     string `json:"file_id"`
	FileName   string `json:"file_name"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
}

// ListFiles handles GET /api/files: the uploaded files, newest first.
func (s *Server) ListFiles(w http.ResponseWriter, _ *http.Request) {
	docs := s.docs.ListDocuments()
	files := make([]fileRecord, len(docs))
	for i, d := range docs {
		files[i] = fileRecord{
			FileID:     d.ID(),
			FileName:   d.Name(),
			Size:       d.Size(),
			UploadedAt: d.UploadedAt().Format(time.RFC3339Nano),
		}
	}
	writeJSON(w, http.StatusOK, files)
}

// GetTree handles GET /api/tree.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tree.Latest(r.Context()))
}

// SortTree handles POST /api/sort: reorganizes the documents and returns the
// new tree.
func (s *Server) SortTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tree.Sort(r.Context()))
}
