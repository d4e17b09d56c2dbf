package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"otomar/internal/client"
	"otomar/internal/dto"
	"otomar/internal/service"

	"github.com/labstack/echo/v4"
)

const listSearchFilesField = "files"

type ListSearchHandler struct {
	listSearchService service.ListSearchService
	recaptcha         client.RecaptchaVerifier
}

func NewListSearchHandler(listSearchService service.ListSearchService, recaptcha client.RecaptchaVerifier) *ListSearchHandler {
	return &ListSearchHandler{
		listSearchService: listSearchService,
		recaptcha:         recaptcha,
	}
}

func (h *ListSearchHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CreateListSearchRequest
	if err := bind(c, h.recaptcha, &req); err != nil {
		return err
	}

	var headers []*multipart.FileHeader
	form, err := c.MultipartForm()
	switch {
	case errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, "invalid multipart form").SetInternal(err)
	default:
		headers = form.File[listSearchFilesField]
	}

	attachments := make([]*service.Attachment, 0, len(headers))
	for _, fh := range headers {
		attachments = append(attachments, &service.Attachment{
			FileName:    fh.Filename,
			ContentType: fh.Header.Get(echo.HeaderContentType),
			Size:        fh.Size,
		})
	}
	// reject before opening anything
	if err := service.ValidateAttachments(attachments); err != nil {
		return err
	}

	var opened []io.Closer
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return fmt.Errorf("open upload %s: %w", fh.Filename, err)
		}
		opened = append(opened, f)
		attachments[i].Content = f
	}

	resp, err := h.listSearchService.Create(ctx, &req, attachments)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, resp)
}
