package handlers

import (
	"mime/multipart"
	"strconv"

	"snapshare/internal/middleware"
	"snapshare/internal/storage"
	"snapshare/internal/templates"
	"snapshare/internal/validator"

	"github.com/gofiber/fiber/v2"
)

// render executes a page inside the base layout with the session user and
// any pending flash message.
func render(c *fiber.Ctx, name string, data fiber.Map) error {
	data["User"] = middleware.CurrentIdentity(c)
	if _, set := data["Flash"]; !set {
		if flash := popFlash(c); flash != nil {
			data["Flash"] = flash
		}
	}
	return c.Render(name, data, templates.Layout)
}

// pageParam reads ?page=. Anything that is not a number means the first page.
func pageParam(c *fiber.Ctx) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		return 1
	}
	return page
}

// videoID parses the :id route parameter. Malformed ids are not found.
func videoID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, fiber.NewError(fiber.StatusNotFound, "Not found.")
	}
	return uint(id), nil
}

// formUpload opens the multipart file sent as field. A missing file yields
// nil. The returned closer must be called once the upload is consumed.
func formUpload(c *fiber.Ctx, field string) (*storage.Upload, func(), error) {
	header, err := c.FormFile(field)
	if err != nil {
		return nil, func() {}, nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return uploadOf(header, file), func() { file.Close() }, nil
}

func uploadOf(header *multipart.FileHeader, file multipart.File) *storage.Upload {
	return &storage.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Size:        header.Size,
		Body:        file,
	}
}

// fieldErrors returns the per-field messages of a validation failure.
func fieldErrors(err error) (map[string]string, bool) {
	ve, ok := validator.AsValidationErrors(err)
	if !ok {
		return nil, false
	}
	return ve.Fields(), true
}
