package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/parisxmas/juridoc/internal/apperror"
	"github.com/parisxmas/juridoc/internal/models"
	"github.com/parisxmas/juridoc/internal/repository"
)

// RequiredClientFields must be present and non-blank in every submission.
var RequiredClientFields = []string{"nome", "email", "telefone"}

// Upload is one file part of an intake request.
type Upload struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

// IntakeRequest is a submission as received from a client.
type IntakeRequest struct {
	ClientInfo map[string]any
	Uploads    []Upload
	OriginIP   string
}

type SubmissionService struct {
	subs        *repository.SubmissionRepo
	attachments *AttachmentService
	log         *slog.Logger
	now         func() time.Time
}

func NewSubmissionService(subs *repository.SubmissionRepo, attachments *AttachmentService, log *slog.Logger) *SubmissionService {
	if log == nil {
		log = slog.Default()
	}
	return &SubmissionService{
		subs:        subs,
		attachments: attachments,
		log:         log,
		now:         time.Now,
	}
}

// ValidateClientInfo checks the required client fields.
func ValidateClientInfo(info map[string]any) error {
	var missing []string
	for _, f := range RequiredClientFields {
		val, exists := info[f]
		if !exists || val == nil {
			missing = append(missing, f)
			continue
		}
		if s, ok := val.(string); ok && strings.TrimSpace(s) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return apperror.Validation("required fields missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Create validates the request, stores its files and appends the record.
// Every file is checked before the first one is written; if a write
// fails the files already written for this request are removed.
func (s *SubmissionService) Create(ctx context.Context, req IntakeRequest) (models.Submission, int, error) {
	if req.ClientInfo == nil {
		req.ClientInfo = map[string]any{}
	}
	if err := ValidateClientInfo(req.ClientInfo); err != nil {
		return models.Submission{}, -1, err
	}

	counts := map[string]int{}
	for _, up := range req.Uploads {
		counts[up.Field]++
		if p, ok := s.attachments.Policy(up.Field); ok && counts[up.Field] > p.MaxCount {
			return models.Submission{}, -1, apperror.Validation("field %q accepts at most %d file(s)", up.Field, p.MaxCount)
		}
		if _, err := s.attachments.Check(up.Field, sanitizeFilename(up.FileName), up.ContentType, up.Data); err != nil {
			return models.Submission{}, -1, err
		}
	}

	docs := map[string][]models.Attachment{}
	var saved []string
	for _, up := range req.Uploads {
		att, err := s.attachments.Save(ctx, up.Field, up.FileName, up.ContentType, up.Data)
		if err != nil {
			s.rollback(saved)
			return models.Submission{}, -1, err
		}
		saved = append(saved, att.StoredName)
		docs[up.Field] = append(docs[up.Field], att)
	}

	sub := models.Submission{
		ClientInfo:  req.ClientInfo,
		Attachments: docs,
		SubmittedAt: s.now().UTC(),
		OriginIP:    req.OriginIP,
	}
	idx := s.subs.Append(sub)
	s.log.Info("submission stored", "index", idx, "attachments", len(saved), "ip", req.OriginIP)
	return sub.Clone(), idx, nil
}

// rollback removes files written for a submission that did not complete.
// It runs detached from the request context so a cancelled request still
// cleans up.
func (s *SubmissionService) rollback(storedNames []string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for _, name := range storedNames {
		if err := s.attachments.Remove(ctx, name); err != nil {
			s.log.Warn("orphaned attachment left on storage", "file", name, "err", err)
		}
	}
}

func (s *SubmissionService) List() []models.Submission {
	return s.subs.List()
}

func (s *SubmissionService) Get(index int) (models.Submission, error) {
	return s.subs.Get(index)
}

func (s *SubmissionService) Count() int {
	return s.subs.Count()
}
