package internal

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"interview/textract"
	"interview/types"
)

type FileState int

const (
	StateArchived FileState = iota
	StateBad
)

var ErrNoText = errors.New("document has no extractable text")

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type PDFLoader struct {
	cfg      types.Config
	embedder Embedder
	limiter  *rate.Limiter
	splitter *Splitter
	logger   *slog.Logger

	FileMutex       sync.Mutex
	FileFirstSeen   map[string]time.Time
	FilesProcessing map[string]bool
}

func NewPDFLoader(cfg types.Config, embedder Embedder) (*PDFLoader, error) {
	if err := createDirectories(cfg.SourceDir, cfg.ArchiveDir, cfg.BadDir); err != nil {
		return nil, fmt.Errorf("create loader directories: %w", err)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &PDFLoader{
		cfg:             cfg,
		embedder:        embedder,
		limiter:         rate.NewLimiter(limit, 1),
		splitter:        NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap),
		logger:          slog.Default(),
		FileFirstSeen:   make(map[string]time.Time),
		FilesProcessing: make(map[string]bool),
	}, nil
}

// ScanOnce queues every PDF currently in the source directory.
func (l *PDFLoader) ScanOnce(ctx context.Context, fileChan chan<- string) error {
	files, err := l.listPDFs()
	if err != nil {
		return err
	}
	l.logger.Info("Scanning source folder", "dir", l.cfg.SourceDir, "files", len(files))

	for _, filePath := range files {
		l.FileMutex.Lock()
		l.FilesProcessing[filePath] = true
		l.FileMutex.Unlock()

		select {
		case fileChan <- filePath:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// WatchFile polls the source directory and queues a PDF once it has stayed
// in place for MonitoringTime.
func (l *PDFLoader) WatchFile(ctx context.Context, fileChan chan<- string) {
	l.logger.Info("Start monitoring folder", "dir", l.cfg.SourceDir)
	defer l.logger.Info("File watcher stopped")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			files, err := l.listPDFs()
			if err != nil {
				l.logger.Error("error while reading source directory", "error", err)
				continue
			}

			currentFiles := make(map[string]bool, len(files))
			for _, filePath := range files {
				currentFiles[filePath] = true
				if !l.readyToSend(filePath) {
					continue
				}

				l.logger.Info("File is stable, start processing", "file", filePath,
					"stable_for", l.cfg.MonitoringTime)
				select {
				case fileChan <- filePath:
				case <-ctx.Done():
					return
				}
			}

			l.FileMutex.Lock()
			for filePath := range l.FileFirstSeen {
				if !currentFiles[filePath] {
					delete(l.FileFirstSeen, filePath)
					delete(l.FilesProcessing, filePath)
					l.logger.Debug("File removed from tracking", "file", filePath)
				}
			}
			l.FileMutex.Unlock()
		}
	}
}

// readyToSend records first sight of filePath and reports whether it is
// stable and not already queued. A true result marks it as processing.
func (l *PDFLoader) readyToSend(filePath string) bool {
	l.FileMutex.Lock()
	defer l.FileMutex.Unlock()

	if l.FilesProcessing[filePath] {
		return false
	}
	firstSeen, exists := l.FileFirstSeen[filePath]
	if !exists {
		l.FileFirstSeen[filePath] = time.Now()
		l.logger.Info("New file detected", "file", filePath)
		return false
	}
	if time.Since(firstSeen) < l.cfg.MonitoringTime {
		return false
	}
	l.FilesProcessing[filePath] = true
	return true
}

// ProcessFile turns queued files into documents. Files that cannot be read
// go straight to the bad directory.
func (l *PDFLoader) ProcessFile(ctx context.Context, fileChan <-chan string, docChan chan<- *types.Document) {
	defer l.logger.Info("File processor stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case filePath, ok := <-fileChan:
			if !ok {
				return
			}

			l.logger.Info("Processing file", "file", filePath)
			doc, err := l.fetchFile(ctx, filePath)
			if err != nil {
				if ctx.Err() != nil {
					l.Release(filePath)
					return
				}
				l.logger.Error("failed to process file", "file", filePath, "error", err)
				if _, err := l.MoveToArchive(filePath, StateBad); err != nil {
					l.logger.Error("failed to move file", "file", filePath, "error", err)
				}
				continue
			}

			select {
			case docChan <- doc:
			case <-ctx.Done():
				l.Release(filePath)
				return
			}
		}
	}
}

func (l *PDFLoader) fetchFile(ctx context.Context, filePath string) (*types.Document, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("file does not exist: %s", filePath)
	}

	data, err := l.readPDF(filePath)
	if err != nil {
		return nil, err
	}

	texts, err := textract.PDFPages(data)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(generateDocumentID(filePath))
	if err != nil {
		return nil, err
	}

	doc := &types.Document{
		ID:         id,
		Title:      generateTitle(filePath),
		Source:     filepath.Base(filePath),
		SourcePath: filePath,
		CreatedAt:  fileInfo.ModTime(),
	}
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc.Pages = append(doc.Pages, types.Page{Number: i + 1, Text: text})
	}
	if len(doc.Pages) == 0 {
		return nil, ErrNoText
	}

	doc.Chunks, err = l.embedChunks(ctx, doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// readPDF returns the file bytes, cropped first when a crop margin is set.
func (l *PDFLoader) readPDF(filePath string) ([]byte, error) {
	if l.cfg.CropTop == 0 && l.cfg.CropBottom == 0 {
		return os.ReadFile(filePath)
	}

	tmp, err := os.CreateTemp("", "crop-*.pdf")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := RemoveHeaderFooterCrop(filePath, tmpPath, l.cfg.CropTop, l.cfg.CropBottom); err != nil {
		return nil, err
	}
	return os.ReadFile(tmpPath)
}

// embedChunks splits every page and embeds each chunk under the rate limit.
// A chunk whose embedding fails is logged and left out.
func (l *PDFLoader) embedChunks(ctx context.Context, doc *types.Document) ([]types.Chunk, error) {
	var (
		chunks   []types.Chunk
		position int
	)
	for _, page := range doc.Pages {
		for _, text := range l.splitter.Split(page.Text) {
			position++
			if err := l.limiter.Wait(ctx); err != nil {
				return nil, err
			}

			vec, err := l.embedder.Embed(ctx, text)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				l.logger.Error("failed to embed chunk", "file", doc.Source, "page", page.Number,
					"position", position, "error", err)
				continue
			}

			chunks = append(chunks, types.Chunk{
				ID:        uuid.New(),
				Text:      text,
				Source:    doc.Source,
				Page:      page.Number,
				Position:  position,
				Embedding: vec,
			})
		}
	}
	l.logger.Info("Document embedded", "file", doc.Source, "pages", len(doc.Pages),
		"chunks", len(chunks), "skipped", position-len(chunks))
	return chunks, nil
}

func (l *PDFLoader) listPDFs() ([]string, error) {
	entries, err := os.ReadDir(l.cfg.SourceDir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		files = append(files, filepath.Join(l.cfg.SourceDir, e.Name()))
	}
	return files, nil
}

// Release stops tracking filePath so a later scan can pick it up again.
func (l *PDFLoader) Release(filePath string) {
	l.FileMutex.Lock()
	delete(l.FilesProcessing, filePath)
	delete(l.FileFirstSeen, filePath)
	l.FileMutex.Unlock()
}

func generateTitle(filePath string) string {
	fileName := filepath.Base(filePath)
	if strings.EqualFold(filepath.Ext(fileName), ".pdf") {
		fileName = fileName[:len(fileName)-4]
	}
	fileName = strings.ReplaceAll(fileName, "_", " ")
	fileName = strings.ReplaceAll(fileName, "-", " ")
	return fileName
}

func generateDocumentID(filePath string) string {
	hash := md5.Sum([]byte(filepath.Base(filePath)))
	return fmt.Sprintf("%x", hash)
}

// MoveToArchive moves filePath under <archive|bad>/<YYYY-MM-DD>/, adding a
// numeric suffix when the name is taken, and returns the new path.
func (l *PDFLoader) MoveToArchive(filePath string, state FileState) (string, error) {
	defer l.Release(filePath)

	root := l.cfg.ArchiveDir
	if state == StateBad {
		root = l.cfg.BadDir
	}

	destDir := filepath.Join(root, time.Now().Format("2006-01-02"))
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("error creating directory: %w", err)
	}

	destPath := filepath.Join(destDir, filepath.Base(filePath))
	ext := filepath.Ext(destPath)
	baseName := strings.TrimSuffix(filepath.Base(destPath), ext)
	for counter := 1; ; counter++ {
		if _, err := os.Stat(destPath); os.IsNotExist(err) {
			break
		}
		destPath = filepath.Join(destDir, fmt.Sprintf("%s_%d%s", baseName, counter, ext))
	}

	if err := os.Rename(filePath, destPath); err != nil {
		if err := copyFile(filePath, destPath); err != nil {
			return "", fmt.Errorf("error moving file: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("error removing source file: %w", err)
		}
	}

	l.logger.Info("File moved", "from", filePath, "to", destPath)
	return destPath, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func createDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
