package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"interview/loader/internal"
	"interview/types"
)

const shutdownTimeout = 5 * time.Second

// Storer is the write side of the vector store.
type Storer interface {
	ReplaceSource(ctx context.Context, source string, chunks []types.Chunk) error
}

type Service struct {
	logger *slog.Logger
	store  Storer
	loader *internal.PDFLoader
	watch  bool
}

func New(storer Storer, loader *internal.PDFLoader, watch bool) *Service {
	return &Service{
		logger: slog.Default(),
		store:  storer,
		loader: loader,
		watch:  watch,
	}
}

// Run ingests the source directory. In one-shot mode it returns once every
// file is stored or moved; in watch mode it runs until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		fileChan = make(chan string, 10)
		docChan  = make(chan *types.Document)
		scanErr  error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(fileChan)
		if s.watch {
			s.loader.WatchFile(ctx, fileChan)
			return
		}
		scanErr = s.loader.ScanOnce(ctx, fileChan)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(docChan)
		s.loader.ProcessFile(ctx, fileChan, docChan)
	}()

	saved := make(chan struct{})
	go func() {
		defer close(saved)
		s.DocumentSave(ctx, docChan)
	}()

	select {
	case <-saved:
		wg.Wait()
		if scanErr != nil && ctx.Err() == nil {
			return scanErr
		}
	case <-ctx.Done():
		s.logger.Info("Received shutdown signal, stopping loader...")
		s.wait(&wg, saved)
	}

	s.logger.Info("Loader service stopped")
	return nil
}

func (s *Service) wait(wg *sync.WaitGroup, saved <-chan struct{}) {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		<-saved
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("All goroutines stopped successfully")
	case <-time.After(shutdownTimeout):
		s.logger.Warn("Timeout waiting for goroutines to stop, forcing shutdown...")
	}
}

// DocumentSave replaces each document's rows in the store and archives the
// file. Documents that fail to save or carry no chunks go to the bad directory.
func (s *Service) DocumentSave(ctx context.Context, docChan <-chan *types.Document) {
	for doc := range docChan {
		state := internal.StateArchived
		if len(doc.Chunks) == 0 {
			s.logger.Error("no chunks embedded, skipping document", "file", doc.Source)
			state = internal.StateBad
		} else if err := s.store.ReplaceSource(ctx, doc.Source, doc.Chunks); err != nil {
			if ctx.Err() != nil {
				s.loader.Release(doc.SourcePath)
				continue
			}
			s.logger.Error("failed to save document", "file", doc.Source, "error", err)
			state = internal.StateBad
		} else {
			s.logger.Info("Successfully saved document", "file", doc.Source,
				"title", doc.Title, "chunks", len(doc.Chunks))
		}

		if _, err := s.loader.MoveToArchive(doc.SourcePath, state); err != nil {
			s.logger.Error("failed to move file", "file", doc.SourcePath, "error", err)
		}
	}
}
