package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestS3UploaderAssinaEEnvia(t *testing.T) {
	var recebida *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recebida = r.Clone(r.Context())
		w.Header().Set("ETag", `"abc123"`)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	uploader, err := NewS3Uploader(S3Config{
		Endpoint:     server.URL,
		Region:       "auto",
		Bucket:       "anexos",
		AccessKey:    "chave",
		SecretKey:    "segredo",
		PublicDomain: "https://cdn.apoiaedu.com.br",
		HTTPClient:   server.Client(),
	})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	key := AnexoKey(uuid.New(), "laudo final.pdf")
	result, err := uploader.Upload(context.Background(), UploadInput{
		Key:         key,
		Body:        []byte("%PDF-1.4 conteudo"),
		ContentType: "application/pdf",
	})
	if err != nil {
		t.Fatalf("upload deveria suceder: %v", err)
	}

	if recebida == nil || recebida.Method != http.MethodPut {
		t.Fatalf("esperado PUT no bucket, veio %+v", recebida)
	}
	if !strings.HasPrefix(recebida.URL.Path, "/anexos/relatorios/") {
		t.Fatalf("caminho inesperado: %s", recebida.URL.Path)
	}
	if recebida.Header.Get("x-amz-content-sha256") == "" || recebida.Header.Get("x-amz-date") == "" {
		t.Fatal("cabeçalhos de assinatura ausentes")
	}
	if !strings.HasPrefix(recebida.Header.Get("Authorization"), "AWS4-HMAC-SHA256 Credential=chave/") {
		t.Fatalf("authorization inesperado: %s", recebida.Header.Get("Authorization"))
	}

	if result.ETag != "abc123" {
		t.Fatalf("etag inesperado: %s", result.ETag)
	}
	if !strings.HasPrefix(result.URL, "https://cdn.apoiaedu.com.br/relatorios/") {
		t.Fatalf("URL pública deveria usar o domínio configurado: %s", result.URL)
	}
}

func TestS3UploaderRejeitaEntradaVazia(t *testing.T) {
	uploader, err := NewS3Uploader(S3Config{
		Endpoint:  "https://storage.example",
		Region:    "auto",
		Bucket:    "anexos",
		AccessKey: "chave",
		SecretKey: "segredo",
	})
	if err != nil {
		t.Fatalf("erro inesperado: %v", err)
	}

	if _, err := uploader.Upload(context.Background(), UploadInput{Key: "", Body: []byte("x")}); err == nil {
		t.Fatal("chave vazia deveria falhar")
	}
	if _, err := uploader.Upload(context.Background(), UploadInput{Key: "a.pdf"}); err == nil {
		t.Fatal("corpo vazio deveria falhar")
	}
}

func TestAnexoKeyPreservaExtensao(t *testing.T) {
	id := uuid.New()
	key := AnexoKey(id, "Laudo Final.PDF")

	if !strings.HasPrefix(key, "relatorios/"+id.String()+"/") {
		t.Fatalf("chave fora do prefixo do relatório: %s", key)
	}
	if !strings.HasSuffix(key, ".pdf") {
		t.Fatalf("extensão deveria ser normalizada: %s", key)
	}
}
