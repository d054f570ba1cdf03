package models

// Attachment describes one stored upload.
type Attachment struct {
	OriginalName string `json:"nomeOriginal"`
	StoredName   string `json:"nomeArquivo"`
	MimeType     string `json:"tipo"`
	SizeBytes    int64  `json:"tamanho"`
	StoragePath  string `json:"caminho"`
	SHA256       string `json:"sha256"`
	Pages        int    `json:"paginas,omitempty"`
}
