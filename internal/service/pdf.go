// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/olegiv/realty-go/internal/guide"
	"github.com/olegiv/realty-go/internal/mail"
	"github.com/olegiv/realty-go/internal/model"
	"github.com/olegiv/realty-go/internal/util"
)

// MaxPDFSize caps uploaded PDFs.
const MaxPDFSize = 10 << 20

const pdfContentType = "application/pdf"

var pdfMagic = []byte("%PDF-")

var _ AttachmentProvider = (*PDFService)(nil)

// PDFUpload describes an uploaded marketing PDF.
type PDFUpload struct {
	Filename    string
	Name        string
	Category    string
	Description string
}

// PDFUpdate is the body of a PDF metadata update.
type PDFUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	IsActive    *bool   `json:"isActive"`
}

// PDFService stores marketing PDFs on disk and attaches them to emails.
type PDFService struct {
	db    *gorm.DB
	dir   string
	brand string
	now   func() time.Time
}

// NewPDFService stores files under uploadsDir/pdfs.
func NewPDFService(db *gorm.DB, uploadsDir, brand string) *PDFService {
	return &PDFService{db: db, dir: filepath.Join(uploadsDir, "pdfs"), brand: brand, now: time.Now}
}

// write stores data under a fresh {base}_{unixmillis}.pdf name.
func (s *PDFService) write(base string, data []byte) (fileName, path string, err error) {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return "", "", fmt.Errorf("creating pdf directory: %w", err)
	}
	stamp := s.now().UnixMilli()
	for {
		fileName = base + "_" + strconv.FormatInt(stamp, 10) + ".pdf"
		path, err = util.SafeJoinPath(s.dir, fileName)
		if err != nil {
			return "", "", err
		}
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
		if errors.Is(err, fs.ErrExist) {
			stamp++
			continue
		}
		if err != nil {
			return "", "", fmt.Errorf("creating pdf file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(path)
			return "", "", fmt.Errorf("writing pdf file: %w", err)
		}
		return fileName, path, f.Close()
	}
}

// Upload validates and stores a PDF.
func (s *PDFService) Upload(ctx context.Context, up PDFUpload, r io.Reader) (*model.MarketingPDF, error) {
	if up.Category == "" {
		up.Category = model.PDFCategoryOther
	}
	original, err := util.SanitizeFilename(up.Filename)
	v := validator{}
	v.check(err == nil && strings.EqualFold(filepath.Ext(original), ".pdf"), "file", "must be a PDF file")
	v.check(model.IsValidPDFCategory(up.Category), "category", "is not a valid category")
	v.check(maxLen(up.Name, 255), "name", "is too long")
	if err := v.err(); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxPDFSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxPDFSize {
		return nil, newError(ErrInvalidInput, "File too large. Maximum size is 10MB")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, newError(ErrInvalidInput, "Only PDF files are allowed")
	}

	fileName, path, err := s.write(util.BaseName(original), data)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(up.Name)
	if name == "" {
		name = strings.TrimSuffix(original, filepath.Ext(original))
	}
	pdf := model.MarketingPDF{
		Name:         name,
		OriginalName: original,
		FileName:     fileName,
		FilePath:     path,
		FileSize:     int64(len(data)),
		Category:     up.Category,
		Description:  up.Description,
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&pdf).Error; err != nil {
		_ = os.Remove(path)
		return nil, dbErr(err, "saving pdf")
	}
	slog.Info("marketing pdf uploaded", "category", model.EventCategoryUpload, "pdf_id", pdf.ID, "size", pdf.FileSize)
	return &pdf, nil
}

// Generate renders a guide and stores it as an active marketing PDF.
func (s *PDFService) Generate(ctx context.Context, kind string) (*model.MarketingPDF, error) {
	data, err := guide.Generate(kind, s.guideOptions(ctx, ""))
	if errors.Is(err, guide.ErrUnknownKind) {
		return nil, newError(ErrInvalidInput, "Unknown guide type: "+kind)
	}
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", kind, err)
	}

	fileName, path, err := s.write(kind, data)
	if err != nil {
		return nil, err
	}
	pdf := model.MarketingPDF{
		Name:         guide.Title(kind),
		OriginalName: kind + ".pdf",
		FileName:     fileName,
		FilePath:     path,
		FileSize:     int64(len(data)),
		Category:     kind,
		Description:  "Generated " + guide.Title(kind),
		IsActive:     true,
	}
	if err := s.db.WithContext(ctx).Create(&pdf).Error; err != nil {
		_ = os.Remove(path)
		return nil, dbErr(err, "saving pdf")
	}
	slog.Info("marketing pdf generated", "category", model.EventCategoryMarketing, "pdf_id", pdf.ID, "kind", kind)
	return &pdf, nil
}

// guideOptions fills the guide's contact lines from the active contact info.
func (s *PDFService) guideOptions(ctx context.Context, recipient string) guide.Options {
	opts := guide.Options{Brand: s.brand, Recipient: recipient, Now: s.now()}
	var info model.ContactInfo
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).First(&info).Error; err == nil {
		if len(info.PhoneNumbers) > 0 {
			opts.Phone = info.PhoneNumbers[0]
		}
		if len(info.Emails) > 0 {
			opts.Email = info.Emails[0]
		}
	}
	return opts
}

// List returns PDFs newest first, optionally of one category.
func (s *PDFService) List(ctx context.Context, category string) ([]model.MarketingPDF, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if category != "" {
		q = q.Where("category = ?", category)
	}
	pdfs := make([]model.MarketingPDF, 0)
	err := q.Find(&pdfs).Error
	return pdfs, dbErr(err, "listing pdfs")
}

// Get loads one PDF record.
func (s *PDFService) Get(ctx context.Context, id int64) (*model.MarketingPDF, error) {
	var pdf model.MarketingPDF
	if err := s.db.WithContext(ctx).First(&pdf, id).Error; err != nil {
		return nil, dbErr(err, "loading pdf")
	}
	return &pdf, nil
}

// Open returns a PDF record and its file. The caller closes the file.
func (s *PDFService) Open(ctx context.Context, id int64) (*model.MarketingPDF, *os.File, error) {
	pdf, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(pdf.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, newError(ErrNotFound, "PDF file not found")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening pdf: %w", err)
	}
	return pdf, f, nil
}

// Update changes PDF metadata.
func (s *PDFService) Update(ctx context.Context, id int64, in PDFUpdate) (*model.MarketingPDF, error) {
	v := validator{}
	if in.Name != nil {
		v.check(notBlank(*in.Name), "name", "is required")
		v.check(maxLen(*in.Name, 255), "name", "is too long")
	}
	if in.Category != nil {
		v.check(model.IsValidPDFCategory(*in.Category), "category", "is not a valid category")
	}
	if err := v.err(); err != nil {
		return nil, err
	}
	pdf, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		pdf.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		pdf.Description = *in.Description
	}
	if in.Category != nil {
		pdf.Category = *in.Category
	}
	if in.IsActive != nil {
		pdf.IsActive = *in.IsActive
	}
	if err := s.db.WithContext(ctx).Save(pdf).Error; err != nil {
		return nil, dbErr(err, "updating pdf")
	}
	return pdf, nil
}

// Delete removes a PDF record and its file.
func (s *PDFService) Delete(ctx context.Context, id int64) error {
	pdf, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(pdf).Error; err != nil {
		return dbErr(err, "deleting pdf")
	}
	if err := os.Remove(pdf.FilePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("removing pdf file failed", "category", model.EventCategoryUpload, "path", pdf.FilePath, "error", err)
	}
	return nil
}

// Attachments returns the active PDFs of a category as mail attachments.
// When none can be read, a freshly generated guide of that kind is used.
// Categories without a guide then yield no attachments.
func (s *PDFService) Attachments(ctx context.Context, category, recipient string) ([]mail.Attachment, error) {
	var pdfs []model.MarketingPDF
	if err := s.db.WithContext(ctx).
		Where("category = ? AND is_active = ?", category, true).
		Order("created_at DESC").Find(&pdfs).Error; err != nil {
		return nil, dbErr(err, "loading pdfs")
	}

	out := make([]mail.Attachment, 0, len(pdfs))
	for _, pdf := range pdfs {
		data, err := os.ReadFile(pdf.FilePath)
		if err != nil {
			slog.Warn("marketing pdf unreadable", "category", model.EventCategoryMarketing, "pdf_id", pdf.ID, "error", err)
			continue
		}
		out = append(out, mail.Attachment{Filename: attachmentName(&pdf), ContentType: pdfContentType, Data: data})
	}
	if len(out) > 0 {
		return out, nil
	}

	data, err := guide.Generate(category, s.guideOptions(ctx, recipient))
	if errors.Is(err, guide.ErrUnknownKind) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", category, err)
	}
	return []mail.Attachment{{Filename: category + ".pdf", ContentType: pdfContentType, Data: data}}, nil
}

func attachmentName(pdf *model.MarketingPDF) string {
	if pdf.OriginalName != "" {
		return pdf.OriginalName
	}
	return util.BaseName(pdf.Name) + ".pdf"
}
