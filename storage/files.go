package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// File is one row of the files table. A folder is a file without content;
// parent_id is empty for entries in the user's root.
type File struct {
	ID       string `json:"file_id"`
	ParentID string `json:"parent_id"`
	Name     string `json:"name"`
	IsFolder bool   `json:"is_folder"`
}

type FileStore struct {
	db *sql.DB
}

// MakeFile records a new file owned by ownerID and returns its id. The
// caller stores the content under that id afterwards.
func (s *FileStore) MakeFile(ctx context.Context, ownerID, parentID, name string) (string, error) {
	return s.insert(ctx, ownerID, parentID, name, false)
}

func (s *FileStore) MakeFolder(ctx context.Context, ownerID, parentID, name string) (string, error) {
	return s.insert(ctx, ownerID, parentID, name, true)
}

func (s *FileStore) insert(ctx context.Context, ownerID, parentID, name string, folder bool) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO files (file_id, owner_id, parent_id, name, is_folder) VALUES (?,?,?,?,?)`,
		id, ownerID, parentID, name, folder)
	if err != nil {
		return "", err
	}
	return id, nil
}

// NameCheck reports whether name is still free inside the given folder.
func (s *FileStore) NameCheck(ctx context.Context, ownerID, parentID, name string) (bool, error) {
	taken, err := s.exists(ctx,
		`SELECT 1 FROM files WHERE owner_id = ? AND parent_id = ? AND name = ?`,
		ownerID, parentID, name)
	return !taken, err
}

func (s *FileStore) CheckFileID(ctx context.Context, fileID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM files WHERE file_id = ?`, fileID)
}

func (s *FileStore) CheckFolderID(ctx context.Context, fileID string) (bool, error) {
	return s.exists(ctx, `SELECT 1 FROM files WHERE file_id = ? AND is_folder = true`, fileID)
}

// CanDownload reports whether the file exists and belongs to ownerID.
func (s *FileStore) CanDownload(ctx context.Context, ownerID, fileID string) (bool, error) {
	return s.exists(ctx,
		`SELECT 1 FROM files WHERE file_id = ? AND owner_id = ?`, fileID, ownerID)
}

func (s *FileStore) GetName(ctx context.Context, fileID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM files WHERE file_id = ?`, fileID).Scan(&name)
	return name, err
}

func (s *FileStore) Rename(ctx context.Context, fileID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE files SET name = ? WHERE file_id = ?`, name, fileID)
	return err
}

func (s *FileStore) Move(ctx context.Context, fileID, parentID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE files SET parent_id = ? WHERE file_id = ?`, parentID, fileID)
	return err
}

func (s *FileStore) Delete(ctx context.Context, fileID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM files WHERE file_id = ?`, fileID)
	return err
}

// ListAll returns every file and folder owned by ownerID.
func (s *FileStore) ListAll(ctx context.Context, ownerID string) ([]File, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_id, parent_id, name, is_folder FROM files WHERE owner_id = ? ORDER BY name`,
		ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	files := make([]File, 0)
	for rows.Next() {
		var f File
		if err := rows.Scan(&f.ID, &f.ParentID, &f.Name, &f.IsFolder); err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (s *FileStore) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
