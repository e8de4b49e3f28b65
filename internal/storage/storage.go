package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// UploadInput representa uma operação de upload simples.
type UploadInput struct {
	Key         string
	Body        []byte
	ContentType string
}

// UploadResult descreve o artefato persistido.
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader define comportamento básico para armazenar blobs.
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

// AnexoKey monta a chave do objeto para anexos de relatório, preservando a
// extensão original do arquivo.
func AnexoKey(relatorioID uuid.UUID, nomeArquivo string) string {
	ext := strings.ToLower(path.Ext(nomeArquivo))
	return fmt.Sprintf("relatorios/%s/%s%s", relatorioID, uuid.NewString(), ext)
}
