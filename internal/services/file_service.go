package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/advodocs/advodocs/internal/database"
	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/storage"
	"github.com/advodocs/advodocs/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// AllowedExtensions is the upload allow-list.
var AllowedExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// MimeByExtension resolves the content type served for view/download when the
// stored mime type is missing.
var MimeByExtension = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

const (
	defaultListLimit = 20
	maxListLimit     = 100
	recentLimit      = 20
)

// FileFilter describes the optional list filters. Every field compiles to a
// parameterized clause; values never reach the SQL text.
type FileFilter struct {
	Search        string
	SessionID     *uint
	FavoritesOnly bool
	Client        string
	DateFrom      string // YYYY-MM-DD inclusive
	DateTo        string // YYYY-MM-DD inclusive
	Limit         int
	Offset        int
}

// fileQuery is the base listing query: the caller's files with the session
// name projected through a LEFT JOIN, so a deleted session reads as null
// instead of hiding the file.
func fileQuery(db *gorm.DB, userID uint) *gorm.DB {
	q := db.Model(&models.File{}).
		Select("arquivos.*, sessoes.nome AS sessao_nome").
		Joins("LEFT JOIN sessoes ON sessoes.id = arquivos.sessao_id").
		Where("arquivos.usuario_id = ?", userID)
	if db.Dialector.Name() == "mysql" {
		// The recency ordering dominates every listing; steer MySQL to the
		// accessed_at index.
		q = q.Clauses(hints.UseIndex("idx_arquivos_accessed_at"))
	}
	return q
}

// ListFiles returns the caller's files matching the filter, most recently
// accessed first.
func ListFiles(db *gorm.DB, userID uint, f FileFilter) ([]models.File, error) {
	q := fileQuery(db, userID)

	if f.Search != "" {
		pattern := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(arquivos.nome) LIKE ? OR LOWER(arquivos.palavras_chave) LIKE ?", pattern, pattern)
	}
	if f.SessionID != nil {
		q = q.Where("arquivos.sessao_id = ?", *f.SessionID)
	}
	if f.FavoritesOnly {
		q = q.Where("arquivos.favorito = ?", true)
	}
	if f.Client != "" {
		q = q.Where("LOWER(arquivos.cliente) LIKE ?", "%"+strings.ToLower(f.Client)+"%")
	}
	if f.DateFrom != "" {
		q = q.Where("arquivos.data_criacao >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("arquivos.data_criacao <= ?", f.DateTo)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	q = q.Order("arquivos.accessed_at DESC").Limit(limit).Offset(offset)

	var files []models.File
	err := database.WithRetry(context.Background(), func() error {
		return q.Find(&files).Error
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// RecentFiles returns the caller's 20 most recently accessed files.
func RecentFiles(db *gorm.DB, userID uint) ([]models.File, error) {
	q := fileQuery(db, userID).
		Order("arquivos.accessed_at DESC").
		Limit(recentLimit)

	var files []models.File
	err := database.WithRetry(context.Background(), func() error {
		return q.Find(&files).Error
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// FilesBySession returns the caller's files in one session, most recently
// accessed first.
func FilesBySession(db *gorm.DB, userID uint, sessionID uint) ([]models.File, error) {
	q := fileQuery(db, userID).
		Where("arquivos.sessao_id = ?", sessionID).
		Order("arquivos.accessed_at DESC")

	var files []models.File
	err := database.WithRetry(context.Background(), func() error {
		return q.Find(&files).Error
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// GetFile loads one file with the session name projected. Ownership is part
// of the lookup predicate, so files of other users read as absent.
func GetFile(db *gorm.DB, userID uint, id uint) (*models.File, error) {
	var file models.File
	err := fileQuery(db, userID).Where("arquivos.id = ?", id).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: Arquivo não encontrado", types.ErrNotFound)
		}
		return nil, err
	}
	return &file, nil
}

// UploadInput is one file of an upload batch together with its metadata.
type UploadInput struct {
	Nome          string
	OriginalName  string
	Size          int64
	Mime          string
	SessaoID      *uint
	PalavrasChave *string
	Cliente       *string
	TagCor        *string
	DataCriacao   string // YYYY-MM-DD, empty = today
	Src           io.Reader
}

// validateUpload applies the allow-list and size checks. Runs before any
// storage write so a rejected upload leaves nothing behind.
func validateUpload(in *UploadInput, maxSize int64) error {
	ext := strings.ToLower(filepath.Ext(in.OriginalName))
	if !AllowedExtensions[ext] {
		return types.Validationf("Tipo de arquivo não permitido. Apenas PDF, DOC, DOCX, TXT")
	}
	if in.Size > maxSize {
		return types.Validationf("Arquivo muito grande. Tamanho máximo: %d bytes", maxSize)
	}
	if strings.TrimSpace(in.Nome) == "" {
		in.Nome = strings.TrimSuffix(in.OriginalName, filepath.Ext(in.OriginalName))
	}
	if in.DataCriacao != "" {
		if _, err := time.Parse("2006-01-02", in.DataCriacao); err != nil {
			return types.Validationf("Data de criação inválida")
		}
	}
	if err := validateTagCor(in.TagCor); err != nil {
		return err
	}
	return nil
}

func validateTagCor(tag *string) error {
	if tag == nil || *tag == "" {
		return nil
	}
	for _, cor := range models.ColorTags {
		if *tag == cor {
			return nil
		}
	}
	return types.Validationf("Cor de etiqueta inválida")
}

// SaveUploads stores a batch of uploads and commits their metadata rows in
// one transaction. The batch is all-or-nothing: any validation, storage, or
// database failure removes every blob already written and commits nothing.
func SaveUploads(db *gorm.DB, store storage.Store, userID uint, maxSize int64, inputs []UploadInput) ([]models.File, error) {
	if len(inputs) == 0 {
		return nil, types.Validationf("Nenhum arquivo fornecido")
	}

	// Validate the whole batch before the first storage write.
	for i := range inputs {
		if err := validateUpload(&inputs[i], maxSize); err != nil {
			return nil, err
		}
	}

	stored := make([]string, 0, len(inputs))
	cleanup := func() {
		for _, path := range stored {
			if err := store.Remove(path); err != nil {
				log.Printf("Failed to remove stored file %s during rollback: %v", path, err)
			}
		}
	}

	files := make([]models.File, 0, len(inputs))
	for i := range inputs {
		in := &inputs[i]
		path, size, err := store.Save(in.Src, filepath.Ext(in.OriginalName))
		if err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to store upload: %w", err)
		}
		stored = append(stored, path)

		created := time.Now()
		if in.DataCriacao != "" {
			created, _ = time.Parse("2006-01-02", in.DataCriacao)
		}

		files = append(files, models.File{
			Nome:          strings.TrimSpace(in.Nome),
			Caminho:       path,
			NomeOriginal:  in.OriginalName,
			Tamanho:       size,
			TipoMime:      in.Mime,
			SessaoID:      in.SessaoID,
			UsuarioID:     userID,
			PalavrasChave: in.PalavrasChave,
			Cliente:       in.Cliente,
			TagCor:        in.TagCor,
			DataCriacao:   datatypes.Date(created),
			AccessedAt:    time.Now(),
		})
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for i := range files {
			if err := tx.Create(&files[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		cleanup()
		return nil, err
	}

	// Reload with the session name projected.
	out := make([]models.File, 0, len(files))
	for i := range files {
		file, err := GetFile(db, userID, files[i].ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *file)
	}
	return out, nil
}

// FileUpdate carries the PUT /files/:id fields. Nil pointers leave the
// column untouched.
type FileUpdate struct {
	Nome          *string
	SessaoID      *uint
	ClearSessao   bool
	PalavrasChave *string
	Cliente       *string
	TagCor        *string
}

// UpdateFile applies a partial update to a file owned by the caller.
func UpdateFile(db *gorm.DB, userID uint, id uint, upd FileUpdate) (*models.File, error) {
	changes := map[string]interface{}{}
	if upd.Nome != nil {
		nome := strings.TrimSpace(*upd.Nome)
		if nome == "" {
			return nil, types.Validationf("Nome é obrigatório")
		}
		changes["nome"] = nome
	}
	if upd.ClearSessao {
		changes["sessao_id"] = nil
	} else if upd.SessaoID != nil {
		changes["sessao_id"] = *upd.SessaoID
	}
	if upd.PalavrasChave != nil {
		changes["palavras_chave"] = strings.TrimSpace(*upd.PalavrasChave)
	}
	if upd.Cliente != nil {
		changes["cliente"] = strings.TrimSpace(*upd.Cliente)
	}
	if upd.TagCor != nil {
		if err := validateTagCor(upd.TagCor); err != nil {
			return nil, err
		}
		changes["tag_cor"] = *upd.TagCor
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var file models.File
		err := tx.Where("id = ? AND usuario_id = ?", id, userID).First(&file).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Arquivo não encontrado", types.ErrNotFound)
			}
			return err
		}
		if len(changes) == 0 {
			return nil
		}
		return tx.Model(&models.File{}).
			Where("id = ? AND usuario_id = ?", id, userID).
			Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}

	return GetFile(db, userID, id)
}

// TouchAccess stamps accessed_at with the current time. Missing rows are
// ignored; clients fire this endpoint opportunistically.
func TouchAccess(db *gorm.DB, userID uint, id uint) error {
	return db.Model(&models.File{}).
		Where("id = ? AND usuario_id = ?", id, userID).
		Update("accessed_at", time.Now()).Error
}

// ToggleFavorite flips the favorite flag and returns the new value. The flip
// is a read-then-write inside one transaction; a SQL-level negation is not
// portable across the supported dialects.
func ToggleFavorite(db *gorm.DB, userID uint, id uint) (bool, error) {
	var favorito bool
	err := db.Transaction(func(tx *gorm.DB) error {
		var file models.File
		err := tx.Select("id", "favorito").
			Where("id = ? AND usuario_id = ?", id, userID).
			First(&file).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Arquivo não encontrado", types.ErrNotFound)
			}
			return err
		}
		favorito = !file.Favorito
		return tx.Model(&models.File{}).
			Where("id = ?", file.ID).
			Update("favorito", favorito).Error
	})
	return favorito, err
}

// UpdateNotes replaces the free-text notes and returns the stored value.
// Existence is checked explicitly; affected-row counts are unreliable for
// no-op updates on some drivers.
func UpdateNotes(db *gorm.DB, userID uint, id uint, notas *string) (*string, error) {
	err := db.Transaction(func(tx *gorm.DB) error {
		var file models.File
		err := tx.Select("id").
			Where("id = ? AND usuario_id = ?", id, userID).
			First(&file).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Arquivo não encontrado", types.ErrNotFound)
			}
			return err
		}
		return tx.Model(&models.File{}).
			Where("id = ?", file.ID).
			Update("notas", notas).Error
	})
	if err != nil {
		return nil, err
	}
	return notas, nil
}

// DeleteFile removes the metadata row and makes a best-effort attempt at the
// physical file. A blob that cannot be removed is logged and never blocks the
// row deletion.
func DeleteFile(db *gorm.DB, store storage.Store, userID uint, id uint) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var file models.File
		err := tx.Select("id", "caminho", "nome").
			Where("id = ? AND usuario_id = ?", id, userID).
			First(&file).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: Arquivo não encontrado", types.ErrNotFound)
			}
			return err
		}

		if err := store.Remove(file.Caminho); err != nil {
			log.Printf("Failed to remove physical file %s: %v", file.Caminho, err)
		}

		if err := tx.Delete(&models.File{}, file.ID).Error; err != nil {
			return err
		}
		log.Printf("File %q (ID: %d) deleted by user %d", file.Nome, file.ID, userID)
		return nil
	})
}
