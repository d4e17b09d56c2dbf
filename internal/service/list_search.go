package service

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"otomar/internal/client"
	"otomar/internal/dto"
	"otomar/internal/model"
	"otomar/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	MaxListSearchFiles    = 5
	MaxListSearchFileSize = 5 << 20
)

var allowedListSearchExt = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".pdf":  true,
}

// Attachment is one uploaded file of a parts request.
type Attachment struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type ListSearchService interface {
	Create(ctx context.Context, req *dto.CreateListSearchRequest, files []*Attachment) (*dto.ListSearchResponse, error)
}

type listSearchServiceImpl struct {
	listSearchRepo repository.ListSearchRepository
	mailer         client.Mailer
	uploadDir      string
	notifyTo       string
	log            zerolog.Logger
}

func NewListSearchService(
	listSearchRepo repository.ListSearchRepository,
	mailer client.Mailer,
	uploadDir string,
	notifyTo string,
	log zerolog.Logger,
) ListSearchService {
	return &listSearchServiceImpl{
		listSearchRepo: listSearchRepo,
		mailer:         mailer,
		uploadDir:      uploadDir,
		notifyTo:       notifyTo,
		log:            log,
	}
}

func ValidateAttachments(files []*Attachment) error {
	if len(files) > MaxListSearchFiles {
		return fmt.Errorf("%w: at most %d", ErrTooManyFiles, MaxListSearchFiles)
	}
	for _, f := range files {
		if f.Size > MaxListSearchFileSize {
			return fmt.Errorf("%w: %s", ErrFileTooLarge, f.FileName)
		}
		if !allowedListSearchExt[strings.ToLower(filepath.Ext(f.FileName))] {
			return fmt.Errorf("%w: %s", ErrFileTypeNotAllowed, f.FileName)
		}
	}
	return nil
}

func (s *listSearchServiceImpl) Create(ctx context.Context, req *dto.CreateListSearchRequest, files []*Attachment) (*dto.ListSearchResponse, error) {
	if err := ValidateAttachments(files); err != nil {
		return nil, err
	}

	listSearch := &model.ListSearch{
		ID:            uuid.NewString(),
		FullName:      strings.TrimSpace(req.FullName),
		Email:         normalizeEmail(req.Email),
		Phone:         req.Phone,
		VehicleBrand:  req.VehicleBrand,
		VehicleModel:  req.VehicleModel,
		ModelYear:     req.ModelYear,
		ChassisNumber: strings.ToUpper(req.ChassisNumber),
		Parts:         strings.TrimSpace(req.Parts),
		Status:        model.ListSearchStatusNew,
	}

	dir := filepath.Join(s.uploadDir, listSearch.ID)
	if len(files) > 0 {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}

	for _, f := range files {
		stored, size, err := s.store(dir, f)
		if err != nil {
			_ = os.RemoveAll(dir)
			return nil, err
		}
		listSearch.Files = append(listSearch.Files, model.ListSearchFile{
			ListSearchID: listSearch.ID,
			FileName:     filepath.Base(f.FileName),
			StoredName:   stored,
			ContentType:  f.ContentType,
			Size:         size,
		})
	}

	if err := s.listSearchRepo.Create(ctx, listSearch); err != nil {
		_ = os.RemoveAll(dir)
		return nil, fmt.Errorf("store list search: %w", err)
	}

	s.log.Info().Str("list_search_id", listSearch.ID).Int("files", len(listSearch.Files)).Msg("list search created")
	s.notify(ctx, listSearch)

	return dto.FromListSearch(listSearch), nil
}

// store copies one attachment to dir under a random name. The declared size
// is not trusted: reading past the limit fails the upload.
func (s *listSearchServiceImpl) store(dir string, f *Attachment) (string, int64, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(f.FileName))

	out, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		return "", 0, fmt.Errorf("create %s: %w", name, err)
	}
	defer out.Close()

	n, err := io.Copy(out, io.LimitReader(f.Content, MaxListSearchFileSize+1))
	if err != nil {
		return "", 0, fmt.Errorf("write %s: %w", name, err)
	}
	if n > MaxListSearchFileSize {
		return "", 0, fmt.Errorf("%w: %s", ErrFileTooLarge, f.FileName)
	}
	return name, n, nil
}

func (s *listSearchServiceImpl) notify(ctx context.Context, ls *model.ListSearch) {
	if s.notifyTo == "" {
		return
	}

	var body strings.Builder
	fmt.Fprintf(&body, "Yeni liste arama talebi: %s\n\n", ls.ID)
	fmt.Fprintf(&body, "Ad Soyad: %s\nE-posta: %s\nTelefon: %s\n", ls.FullName, ls.Email, ls.Phone)
	if ls.VehicleBrand != "" || ls.VehicleModel != "" {
		fmt.Fprintf(&body, "Araç: %s %s %d\n", ls.VehicleBrand, ls.VehicleModel, ls.ModelYear)
	}
	if ls.ChassisNumber != "" {
		fmt.Fprintf(&body, "Şasi No: %s\n", ls.ChassisNumber)
	}
	fmt.Fprintf(&body, "\nParçalar:\n%s\n\nEk dosya: %d\n", ls.Parts, len(ls.Files))

	err := s.mailer.Send(ctx, &client.Mail{
		To:      []string{s.notifyTo},
		Subject: "Liste arama talebi - " + ls.FullName,
		Body:    body.String(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("list_search_id", ls.ID).Msg("send list search notification")
	}
}
