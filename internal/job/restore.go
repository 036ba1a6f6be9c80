package job

import (
	"context"

	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/rag"
	"github.com/akolanti/notex/pkg/logger_i"
)

// RestoreIndex re-ingests every stored source that kept its text, so a restart
// does not leave the keyword index empty. It returns the number of sources indexed.
func RestoreIndex(ctx context.Context, notebooks notebookModel.NotebookStore, ragService rag.Service) (int, error) {
	logger := logger_i.NewLogger("RestoreIndex").FromContext(ctx)

	list, err := notebooks.ListNotebooks(ctx)
	if err != nil {
		return 0, err
	}

	restored := 0
	for _, nb := range list {
		sources, err := notebooks.ListSources(ctx, nb.Id)
		if err != nil {
			logger.Warn("skipping notebook", "notebookId", nb.Id, "error", err)
			continue
		}
		for _, src := range sources {
			if src.Content == "" {
				continue
			}
			count := ragService.IngestSource(ctx, src.Name, src.Content)
			if count != src.ChunkCount {
				if err := notebooks.UpdateSourceChunkCount(ctx, src.Id, count); err != nil {
					logger.Warn("failed to update chunk count", "sourceId", src.Id, "error", err)
				}
			}
			restored++
		}
	}
	logger.Info("index restored", "sources", restored, "chunks", ragService.Stats().TotalChunks)
	return restored, nil
}
