package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/advodocs/advodocs/internal/config"
	"github.com/advodocs/advodocs/internal/models"
	"github.com/advodocs/advodocs/internal/services"
	"github.com/advodocs/advodocs/internal/storage"
	"github.com/advodocs/advodocs/internal/utils"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// MaxUploadBatch caps a single multi-upload request.
const MaxUploadBatch = 10

// FileHandler handles the document routes.
type FileHandler struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store storage.Store
}

// List handles GET /api/files
// @Summary List files
// @Description Lists the caller's files, most recently accessed first
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param search query string false "Match against name and keywords"
// @Param sessao_id query int false "Restrict to one session"
// @Param favoritos query bool false "Favorites only"
// @Param cliente query string false "Match against client"
// @Param data_inicio query string false "Creation date lower bound (YYYY-MM-DD)"
// @Param data_fim query string false "Creation date upper bound (YYYY-MM-DD)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Page offset"
// @Success 200 {array} models.File
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /files [get]
func (h *FileHandler) List(c *fiber.Ctx) error {
	filter := services.FileFilter{
		Search:        c.Query("search"),
		FavoritesOnly: c.QueryBool("favoritos"),
		Client:        c.Query("cliente"),
		DateFrom:      c.Query("data_inicio"),
		DateTo:        c.Query("data_fim"),
		Limit:         c.QueryInt("limit"),
		Offset:        c.QueryInt("offset"),
	}
	if sessaoID := c.QueryInt("sessao_id"); sessaoID > 0 {
		id := uint(sessaoID)
		filter.SessionID = &id
	}

	files, err := services.ListFiles(h.DB, currentUser(c).ID, filter)
	if err != nil {
		return sendDomainError(c, err, "files.list", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(files)
}

// Recent handles GET /api/files/recent
// @Summary Recently accessed files
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.File
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /files/recent [get]
func (h *FileHandler) Recent(c *fiber.Ctx) error {
	files, err := services.RecentFiles(h.DB, currentUser(c).ID)
	if err != nil {
		return sendDomainError(c, err, "files.recent", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(files)
}

// BySession handles GET /api/files/session/:id
// @Summary Files of one session
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {array} models.File
// @Failure 401 {object} utils.ErrorResponseStruct
// @Router /files/session/{id} [get]
func (h *FileHandler) BySession(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "files.session", h.Cfg.Development())
	}

	files, err := services.FilesBySession(h.DB, currentUser(c).ID, id)
	if err != nil {
		return sendDomainError(c, err, "files.session", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(files)
}

// uploadMeta is the metadata accompanying one uploaded file, either from the
// multipart form fields (single upload) or from the arquivosData JSON array
// (multi upload).
type uploadMeta struct {
	Nome          string  `json:"nome"`
	SessaoID      *uint   `json:"sessao_id"`
	PalavrasChave *string `json:"palavras_chave"`
	Cliente       *string `json:"cliente"`
	TagCor        *string `json:"tag_cor"`
	DataCriacao   string  `json:"data_criacao"`
}

// Upload handles POST /api/files/upload
// @Summary Upload a file
// @Description Stores one document with its metadata; only PDF, DOC, DOCX and TXT are accepted
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param arquivo formData file true "Document"
// @Success 201 {object} models.File
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /files/upload [post]
func (h *FileHandler) Upload(c *fiber.Ctx) error {
	header, err := c.FormFile("arquivo")
	if err != nil {
		return utils.ErrorResponse(c, "Nenhum arquivo fornecido", fiber.StatusBadRequest, "files.upload")
	}

	meta := uploadMeta{
		Nome:        c.FormValue("nome"),
		DataCriacao: c.FormValue("data_criacao"),
	}
	if v := c.FormValue("sessao_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil || parsed == 0 {
			return utils.ErrorResponse(c, "Sessão inválida", fiber.StatusBadRequest, "files.upload")
		}
		id := uint(parsed)
		meta.SessaoID = &id
	}
	if v := c.FormValue("palavras_chave"); v != "" {
		meta.PalavrasChave = &v
	}
	if v := c.FormValue("cliente"); v != "" {
		meta.Cliente = &v
	}
	if v := c.FormValue("tag_cor"); v != "" {
		meta.TagCor = &v
	}

	src, err := header.Open()
	if err != nil {
		return sendDomainError(c, err, "files.upload", h.Cfg.Development())
	}
	defer src.Close()

	input := services.UploadInput{
		Nome:          meta.Nome,
		OriginalName:  header.Filename,
		Size:          header.Size,
		Mime:          header.Header.Get(fiber.HeaderContentType),
		SessaoID:      meta.SessaoID,
		PalavrasChave: meta.PalavrasChave,
		Cliente:       meta.Cliente,
		TagCor:        meta.TagCor,
		DataCriacao:   meta.DataCriacao,
		Src:           src,
	}

	files, err := services.SaveUploads(h.DB, h.Store, currentUser(c).ID, h.Cfg.MaxFileSize, []services.UploadInput{input})
	if err != nil {
		return sendDomainError(c, err, "files.upload", h.Cfg.Development())
	}

	return c.Status(fiber.StatusCreated).JSON(files[0])
}

// UploadMultiple handles POST /api/files/upload-multiple
// @Summary Upload a batch of files
// @Description Stores up to 10 documents atomically; any failure discards the whole batch
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param arquivos formData file true "Documents"
// @Param arquivosData formData string false "JSON array of per-file metadata"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /files/upload-multiple [post]
func (h *FileHandler) UploadMultiple(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return utils.ErrorResponse(c, "Nenhum arquivo fornecido", fiber.StatusBadRequest, "files.uploadMultiple")
	}

	headers := form.File["arquivos"]
	if len(headers) == 0 {
		return utils.ErrorResponse(c, "Nenhum arquivo fornecido", fiber.StatusBadRequest, "files.uploadMultiple")
	}
	if len(headers) > MaxUploadBatch {
		return utils.ErrorResponse(c,
			fmt.Sprintf("Máximo de %d arquivos por envio", MaxUploadBatch),
			fiber.StatusBadRequest, "files.uploadMultiple")
	}

	var metas []uploadMeta
	if raw := c.FormValue("arquivosData"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metas); err != nil {
			log.Printf("Discarding malformed arquivosData: %v", err)
			metas = nil
		}
	}

	inputs := make([]services.UploadInput, 0, len(headers))
	for i, header := range headers {
		var meta uploadMeta
		if i < len(metas) {
			meta = metas[i]
		}

		src, err := header.Open()
		if err != nil {
			return sendDomainError(c, err, "files.uploadMultiple", h.Cfg.Development())
		}
		defer src.Close()

		inputs = append(inputs, services.UploadInput{
			Nome:          meta.Nome,
			OriginalName:  header.Filename,
			Size:          header.Size,
			Mime:          header.Header.Get(fiber.HeaderContentType),
			SessaoID:      meta.SessaoID,
			PalavrasChave: meta.PalavrasChave,
			Cliente:       meta.Cliente,
			TagCor:        meta.TagCor,
			DataCriacao:   meta.DataCriacao,
			Src:           src,
		})
	}

	files, err := services.SaveUploads(h.DB, h.Store, currentUser(c).ID, h.Cfg.MaxFileSize, inputs)
	if err != nil {
		return sendDomainError(c, err, "files.uploadMultiple", h.Cfg.Development())
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":  fmt.Sprintf("%d arquivo(s) enviado(s) com sucesso", len(files)),
		"arquivos": files,
	})
}

// updateFileRequest distinguishes an absent sessao_id from an explicit null:
// null detaches the file from its session, absent leaves it unchanged.
type updateFileRequest struct {
	Nome          *string         `json:"nome"`
	SessaoID      json.RawMessage `json:"sessao_id"`
	PalavrasChave *string         `json:"palavras_chave"`
	Cliente       *string         `json:"cliente"`
	TagCor        *string         `json:"tag_cor"`
}

// Update handles PUT /api/files/:id
// @Summary Update file metadata
// @Tags Files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Param body body updateFileRequest true "Fields to change"
// @Success 200 {object} models.File
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /files/{id} [put]
func (h *FileHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "files.update", h.Cfg.Development())
	}

	var req updateFileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Corpo da requisição inválido", fiber.StatusBadRequest, "files.update.body")
	}

	upd := services.FileUpdate{
		Nome:          req.Nome,
		PalavrasChave: req.PalavrasChave,
		Cliente:       req.Cliente,
		TagCor:        req.TagCor,
	}
	if len(req.SessaoID) > 0 {
		if string(req.SessaoID) == "null" {
			upd.ClearSessao = true
		} else {
			var sessaoID uint
			if err := json.Unmarshal(req.SessaoID, &sessaoID); err != nil {
				return utils.ErrorResponse(c, "Sessão inválida", fiber.StatusBadRequest, "files.update")
			}
			upd.SessaoID = &sessaoID
		}
	}

	file, err := services.UpdateFile(h.DB, currentUser(c).ID, id, upd)
	if err != nil {
		return sendDomainError(c, err, "files.update", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(file)
}

// Access handles PATCH /api/files/:id/access
// @Summary Record a file access
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} map[string]interface{}
// @Router /files/{id}/access [patch]
func (h *FileHandler) Access(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "files.access", h.Cfg.Development())
	}

	if err := services.TouchAccess(h.DB, currentUser(c).ID, id); err != nil {
		return sendDomainError(c, err, "files.access", h.Cfg.Development())
	}
	return utils.MessageResponse(c, "Acesso registrado")
}

// Favorite handles PATCH /api/files/:id/favorite
// @Summary Toggle favorite
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /files/{id}/favorite [patch]
func (h *FileHandler) Favorite(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "files.favorite", h.Cfg.Development())
	}

	favorito, err := services.ToggleFavorite(h.DB, currentUser(c).ID, id)
	if err != nil {
		return sendDomainError(c, err, "files.favorite", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"favorito": favorito,
		"message":  "Favorito atualizado",
		"ok":       true,
	})
}

type updateNotesRequest struct {
	Notas *string `json:"notas"`
}

// Notes handles PATCH /api/files/:id/notes
// @Summary Update file notes
// @Tags Files
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Param body body updateNotesRequest true "Notes"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /files/{id}/notes [patch]
func (h *FileHandler) Notes(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "files.notes", h.Cfg.Development())
	}

	var req updateNotesRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.ErrorResponse(c, "Corpo da requisição inválido", fiber.StatusBadRequest, "files.notes.body")
	}

	notas, err := services.UpdateNotes(h.DB, currentUser(c).ID, id, req.Notas)
	if err != nil {
		return sendDomainError(c, err, "files.notes", h.Cfg.Development())
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"notas": notas,
		"ok":    true,
	})
}

// Delete handles DELETE /api/files/:id
// @Summary Delete a file
// @Description Removes the stored blob and the metadata row
// @Tags Files
// @Produce json
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /files/{id} [delete]
func (h *FileHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "files.delete", h.Cfg.Development())
	}

	if err := services.DeleteFile(h.DB, h.Store, currentUser(c).ID, id); err != nil {
		return sendDomainError(c, err, "files.delete", h.Cfg.Development())
	}
	return utils.MessageResponse(c, "Arquivo deletado com sucesso")
}

// View handles GET /api/files/:id/view
// @Summary View file content
// @Description Streams the document; PDFs and text render inline, everything else downloads
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {file} binary
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /files/{id}/view [get]
func (h *FileHandler) View(c *fiber.Ctx) error {
	return h.serve(c, false)
}

// Download handles GET /api/files/:id/download
// @Summary Download a file
// @Description Streams the document as an attachment
// @Tags Files
// @Produce octet-stream
// @Security BearerAuth
// @Param id path int true "File ID"
// @Success 200 {file} binary
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /files/{id}/download [get]
func (h *FileHandler) Download(c *fiber.Ctx) error {
	return h.serve(c, true)
}

// serve streams the stored blob with the right content type and disposition,
// recording the access on the way out.
func (h *FileHandler) serve(c *fiber.Ctx, attachment bool) error {
	id, err := parseID(c, "id")
	if err != nil {
		return sendDomainError(c, err, "files.serve", h.Cfg.Development())
	}

	userID := currentUser(c).ID
	file, err := services.GetFile(h.DB, userID, id)
	if err != nil {
		return sendDomainError(c, err, "files.serve", h.Cfg.Development())
	}

	src, err := h.Store.Open(file.Caminho)
	if err != nil {
		log.Printf("Stored blob missing for file %d: %v", file.ID, err)
		return utils.NotFoundResponse(c, "Arquivo físico não encontrado")
	}

	if err := services.TouchAccess(h.DB, userID, id); err != nil {
		log.Printf("Recording access for file %d failed: %v", file.ID, err)
	}

	c.Set(fiber.HeaderContentType, contentType(file))
	c.Set(fiber.HeaderContentDisposition, contentDisposition(file.NomeOriginal, attachment))
	return c.SendStream(src, int(file.Tamanho))
}

// contentType prefers the stored mime type, falling back to the extension.
func contentType(file *models.File) string {
	if file.TipoMime != "" {
		return file.TipoMime
	}
	ext := strings.ToLower(filepath.Ext(file.NomeOriginal))
	if mime, ok := services.MimeByExtension[ext]; ok {
		return mime
	}
	return fiber.MIMEOctetStream
}

// contentDisposition builds the header with both the plain and the RFC 5987
// encoded filename, so accented names survive every client.
func contentDisposition(name string, attachment bool) string {
	ext := strings.ToLower(filepath.Ext(name))
	if !attachment && (ext == ".pdf" || ext == ".txt") {
		return fmt.Sprintf("inline; filename=%q", name)
	}
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", name, url.PathEscape(name))
}
