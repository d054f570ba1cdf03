package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/parisxmas/juridoc/internal/apperror"
	"github.com/parisxmas/juridoc/internal/models"
	"github.com/parisxmas/juridoc/internal/repository"
)

// DefaultMaxFileBytes is the per-file upload limit.
const DefaultMaxFileBytes int64 = 10 << 20

// FieldPolicy says how many files a document field takes and of which types.
type FieldPolicy struct {
	MaxCount int
	Accept   []string
}

func (p FieldPolicy) accepts(mimeType string) bool {
	for _, a := range p.Accept {
		if a == mimeType {
			return true
		}
	}
	return false
}

func pdfOnly(maxCount int) FieldPolicy {
	return FieldPolicy{MaxCount: maxCount, Accept: []string{mimePDF}}
}

// DefaultFieldPolicies lists the document fields of a labour-case intake.
func DefaultFieldPolicies() map[string]FieldPolicy {
	return map[string]FieldPolicy{
		"identidade_rg":             pdfOnly(1),
		"cpf":                       pdfOnly(1),
		"titulo_eleitor":            pdfOnly(1),
		"pis_pasep_nit":             pdfOnly(1),
		"comprovante_residencia":    pdfOnly(1),
		"carteira_trabalho":         pdfOnly(1),
		"contrato_trabalho":         pdfOnly(1),
		"holerites":                 pdfOnly(12),
		"comprovantes_pagamento":    pdfOnly(12),
		"comunicacao_demissao":      pdfOnly(1),
		"recibos_ferias_13":         pdfOnly(1),
		"comprovante_fgts":          pdfOnly(1),
		"comprovante_horas_extras":  pdfOnly(1),
		"adicional_noturno":         pdfOnly(1),
		"avisos_previos":            pdfOnly(1),
		"comprovante_desvio_funcao": pdfOnly(1),
		"provas_adicionais":         pdfOnly(10),
	}
}

// AttachmentConfig configures an AttachmentService. Zero values fall back
// to DefaultMaxFileBytes and DefaultFieldPolicies.
type AttachmentConfig struct {
	MaxFileBytes int64
	Policies     map[string]FieldPolicy
}

// AttachmentService validates uploads against the field policy and keeps
// them in a BlobStore.
type AttachmentService struct {
	blobs    repository.BlobStore
	policies map[string]FieldPolicy
	maxBytes int64
	log      *slog.Logger
	now      func() time.Time
	newID    func() string
}

func NewAttachmentService(blobs repository.BlobStore, cfg AttachmentConfig, log *slog.Logger) *AttachmentService {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = DefaultMaxFileBytes
	}
	if cfg.Policies == nil {
		cfg.Policies = DefaultFieldPolicies()
	}
	if log == nil {
		log = slog.Default()
	}
	return &AttachmentService{
		blobs:    blobs,
		policies: cfg.Policies,
		maxBytes: cfg.MaxFileBytes,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (s *AttachmentService) MaxFileBytes() int64 { return s.maxBytes }

// Policy returns the policy for a document field.
func (s *AttachmentService) Policy(field string) (FieldPolicy, bool) {
	p, ok := s.policies[field]
	return p, ok
}

// Fields returns the accepted document field names, sorted.
func (s *AttachmentService) Fields() []string {
	out := make([]string, 0, len(s.policies))
	for f := range s.policies {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Check validates one upload without storing it and returns the
// effective MIME type.
func (s *AttachmentService) Check(field, fileName, mimeType string, content []byte) (string, error) {
	policy, ok := s.policies[field]
	if !ok {
		return "", apperror.UnsupportedMediaType("field %q does not accept files", field)
	}
	effective := resolveMime(mimeType, fileName, content)
	if !policy.accepts(effective) {
		return "", apperror.UnsupportedMediaType("file %q in field %q must be PDF, got %s", fileName, field, effective)
	}
	if int64(len(content)) > s.maxBytes {
		return "", apperror.PayloadTooLarge("file %q exceeds the %d byte limit", fileName, s.maxBytes)
	}
	return effective, nil
}

// Save validates and stores one upload under a generated name.
func (s *AttachmentService) Save(ctx context.Context, field, fileName, mimeType string, content []byte) (models.Attachment, error) {
	fileName = sanitizeFilename(fileName)
	effective, err := s.Check(field, fileName, mimeType, content)
	if err != nil {
		return models.Attachment{}, err
	}

	storedName := s.storedName(fileName, effective)
	info, err := s.blobs.Put(ctx, storedName, content, effective)
	if err != nil {
		return models.Attachment{}, err
	}

	sum := sha256.Sum256(content)
	att := models.Attachment{
		OriginalName: fileName,
		StoredName:   storedName,
		MimeType:     effective,
		SizeBytes:    info.Size,
		StoragePath:  info.Path,
		SHA256:       hex.EncodeToString(sum[:]),
	}
	if effective == mimePDF {
		if pages, err := pdfPageCount(content); err == nil {
			att.Pages = pages
		} else {
			s.log.Debug("pdf page count unavailable", "file", storedName, "err", err)
		}
	}
	return att, nil
}

// Resolve opens a stored file for reading.
func (s *AttachmentService) Resolve(ctx context.Context, storedName string) (io.ReadSeekCloser, repository.BlobInfo, error) {
	rc, info, err := s.blobs.Get(ctx, storedName)
	if err != nil {
		return nil, repository.BlobInfo{}, err
	}
	if info.ContentType == "" {
		info.ContentType = detectContentType(storedName)
	}
	return rc, info, nil
}

// Remove deletes a stored file.
func (s *AttachmentService) Remove(ctx context.Context, storedName string) error {
	return s.blobs.Delete(ctx, storedName)
}

func (s *AttachmentService) storedName(fileName, mimeType string) string {
	return fmt.Sprintf("%d-%s%s", s.now().UnixMilli(), s.newID(), extensionFor(fileName, mimeType))
}
