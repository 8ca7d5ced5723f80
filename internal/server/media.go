package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"creatorvault/internal/apperrors"
	"creatorvault/internal/creator"
)

// multipartOverhead leaves room for form boundaries and fields around the file.
const multipartOverhead = 1 << 20

func (s *Server) handleUploadMedia(c echo.Context) error {
	who, err := authenticated(c)
	if err != nil {
		return err
	}
	if s.opts.MaxUploadSize > 0 {
		req := c.Request()
		req.Body = http.MaxBytesReader(c.Response(), req.Body, s.opts.MaxUploadSize+multipartOverhead)
	}

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewRequestTooLarge(apperrors.ErrCodeUploadTooLarge, "Upload exceeds the size limit")
		}
		return apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "Multipart field \"file\" is required").WithDetail(err.Error())
	}
	encrypt, err := formBool(c.FormValue("encrypt"))
	if err != nil {
		return apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "encrypt must be a boolean").WithDetail(err.Error())
	}

	f, err := fh.Open()
	if err != nil {
		return apperrors.NewBadRequest(apperrors.ErrCodeInvalidInput, "Could not read uploaded file").WithErr(err)
	}
	defer f.Close()

	media, err := s.svc.UploadMedia(creator.MediaUpload{
		Uploader:    who,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Encrypt:     encrypt,
	}, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, media)
}

func (s *Server) handleGetMedia(c echo.Context) error {
	var buf bytes.Buffer
	media, err := s.svc.FetchMedia(c.Param("hash"), &buf, s.opts.Decryption)
	if err != nil {
		return err
	}
	contentType := media.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set("ETag", strconv.Quote(media.Hash))
	if media.Encrypted {
		c.Response().Header().Set("Cache-Control", "no-store")
	} else {
		c.Response().Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	}
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

func formBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
