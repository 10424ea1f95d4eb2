package api

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// FileHandler drops knowledge-base PDFs into the loader source directory.
type FileHandler struct {
	sourceDir string
	logger    *slog.Logger
}

func NewFileHandler(sourceDir string) *FileHandler {
	return &FileHandler{
		sourceDir: sourceDir,
		logger:    slog.Default(),
	}
}

func (h *FileHandler) HandleUploadDocument(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return ErrMissingFile("file")
	}

	name := filepath.Base(file.Filename)
	if ext := strings.ToLower(filepath.Ext(name)); ext != ".pdf" {
		return ErrUnsupportedFile(ext)
	}

	if err := os.MkdirAll(h.sourceDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(h.sourceDir, name)
	if err := c.SaveFile(file, path); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	h.logger.Info("document queued for ingestion", "path", path, "size", file.Size)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Document queued for ingestion",
		"file":    name,
	})
}

// readFormFile returns the name and content of a multipart file field.
func readFormFile(c *fiber.Ctx, field string) (string, []byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		return "", nil, ErrMissingFile(field)
	}

	file, err := header.Open()
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, err
	}
	return header.Filename, data, nil
}
