package diary

import (
	"context"
	"log/slog"
	"mime"
	"path/filepath"
	"strings"

	"github.com/yonagi/kiroku/internal/blocks"
	"github.com/yonagi/kiroku/internal/heic"
)

// AttachmentKind classifies an attachment by filename suffix.
type AttachmentKind int

const (
	// AttachImage renders directly as an image block.
	AttachImage AttachmentKind = iota
	// AttachHEIC is converted to JPEG when possible.
	AttachHEIC
	// AttachOther renders as a file block.
	AttachOther
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// ClassifyAttachment decides how an attachment renders based on its filename.
func ClassifyAttachment(filename string) AttachmentKind {
	switch {
	case imageExts[strings.ToLower(filepath.Ext(filename))]:
		return AttachImage
	case heic.IsHEIC(filename):
		return AttachHEIC
	default:
		return AttachOther
	}
}

const genericContentType = "application/octet-stream"

// deriveContentType prefers a specific response header, falls back to the
// filename extension, then to the generic type.
func deriveContentType(header, filename string) string {
	if header != "" && header != genericContentType {
		if mt, _, err := mime.ParseMediaType(header); err == nil && mt != genericContentType {
			return mt
		}
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); byExt != "" {
		return byExt
	}
	return genericContentType
}

// resolveAttachment downloads an attachment, uploads it to the document
// platform, and returns its block descriptions.
//
// HEIC attachments try a JPEG conversion: on success both the converted image
// and the original file are kept; on failure only the original file is, and
// the conversion error is logged rather than failing the sync. Download and
// upload errors abort the whole create.
func (s *Syncer) resolveAttachment(ctx context.Context, att Attachment) ([]blocks.Block, error) {
	data, headerType, err := s.download.Download(ctx, att.URL)
	if err != nil {
		return nil, err
	}
	contentType := deriveContentType(headerType, att.Filename)

	switch ClassifyAttachment(att.Filename) {
	case AttachImage:
		id, err := s.doc.UploadFile(ctx, att.Filename, contentType, data)
		if err != nil {
			return nil, err
		}
		return []blocks.Block{blocks.Image(id, att.Filename)}, nil

	case AttachHEIC:
		converted, convErr := s.convert(data)
		if convErr != nil {
			s.logger.Warn("attachment conversion failed, keeping original only",
				slog.String("filename", att.Filename),
				slog.String("error", convErr.Error()))
			id, err := s.doc.UploadFile(ctx, att.Filename, contentType, data)
			if err != nil {
				return nil, err
			}
			return []blocks.Block{blocks.File(id, att.Filename)}, nil
		}

		jpegName := strings.TrimSuffix(att.Filename, filepath.Ext(att.Filename)) + ".jpg"
		imageID, err := s.doc.UploadFile(ctx, jpegName, "image/jpeg", converted)
		if err != nil {
			return nil, err
		}
		fileID, err := s.doc.UploadFile(ctx, att.Filename, contentType, data)
		if err != nil {
			return nil, err
		}
		return []blocks.Block{
			blocks.Image(imageID, jpegName),
			blocks.File(fileID, att.Filename),
		}, nil

	default:
		id, err := s.doc.UploadFile(ctx, att.Filename, contentType, data)
		if err != nil {
			return nil, err
		}
		return []blocks.Block{blocks.File(id, att.Filename)}, nil
	}
}
