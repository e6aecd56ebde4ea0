package models

import (
	"time"

	"gorm.io/datatypes"
)

// Allowed color tags for a file.
var ColorTags = []string{"vermelho", "laranja", "amarelo", "verde", "azul", "roxo", "cinza"}

// File is the metadata record for an uploaded document. The binary lives in
// managed storage under a randomized name; Caminho is its absolute path.
// SessaoID is a soft reference: deleting a session leaves it dangling and
// listings surface sessao_nome as null via LEFT JOIN.
type File struct {
	ID            uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Nome          string         `json:"nome" gorm:"size:255;not null"`
	Caminho       string         `json:"-" gorm:"size:1024;not null"`
	NomeOriginal  string         `json:"nome_original" gorm:"size:255;not null"`
	Tamanho       int64          `json:"tamanho" gorm:"not null;default:0"`
	TipoMime      string         `json:"tipo_mime" gorm:"size:255"`
	SessaoID      *uint          `json:"sessao_id" gorm:"index"`
	UsuarioID     uint           `json:"usuario_id" gorm:"not null;index"`
	PalavrasChave *string        `json:"palavras_chave"`
	Cliente       *string        `json:"cliente" gorm:"size:255"`
	TagCor        *string        `json:"tag_cor" gorm:"size:20"`
	Notas         *string        `json:"notas"`
	Favorito      bool           `json:"favorito" gorm:"not null;default:false"`
	DataCriacao   datatypes.Date `json:"data_criacao"`
	AccessedAt    time.Time      `json:"accessed_at" gorm:"index:idx_arquivos_accessed_at"`
	CreatedAt     time.Time      `json:"created_at"`

	// Projected from the sessoes join on reads, never persisted.
	SessaoNome *string `json:"sessao_nome" gorm:"->;-:migration"`
}

// TableName overrides the table name for File
func (File) TableName() string {
	return "arquivos"
}
