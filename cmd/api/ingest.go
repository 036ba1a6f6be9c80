package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/akolanti/notex/internal/adapter/utils"
	"github.com/akolanti/notex/internal/config"
	"github.com/akolanti/notex/internal/domain/jobModel"
	"github.com/akolanti/notex/internal/domain/notebookModel"
	"github.com/akolanti/notex/internal/worker"
	"github.com/akolanti/notex/pkg/logger_i"
	"github.com/spf13/cobra"
)

func ingestCMD() *cobra.Command {
	var file, notebook, name string
	ingest := &cobra.Command{
		Use:   "ingest",
		Short: "Extract a document and store it as a source of a notebook",
		Long: "Runs one ingestion job in the foreground. The notebook is matched by id or name " +
			"and created when missing. Sources are persisted in redis and indexed again when the server starts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" || notebook == "" {
				return errors.New("--file and --notebook are required")
			}
			return runIngest(cmd.Context(), cmd.OutOrStdout(), config.Load(), file, notebook, name)
		},
	}
	ingest.Flags().StringVar(&file, "file", "", "document to ingest (pdf, docx, odt, rtf, txt, md)")
	ingest.Flags().StringVar(&notebook, "notebook", "", "notebook id or name")
	ingest.Flags().StringVar(&name, "name", "", "source name (default the file name)")
	return ingest
}

func runIngest(ctx context.Context, out io.Writer, settings *config.Settings, file, notebook, name string) error {
	logger_i.Init(settings.IsProd)
	logger := logger_i.NewLogger("ingest")
	if _, err := os.Stat(file); err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := os.MkdirAll(settings.TmpDir(), 0750); err != nil {
		return err
	}
	a, err := buildApp(ctx, settings, logger)
	if err != nil {
		return err
	}
	if a.services["store"] != "redis" {
		logger.Warn("Redis is offline, the source will not outlive this process")
	}

	nb, err := findOrCreateNotebook(ctx, a.jobService.NotebookStore, notebook)
	if err != nil {
		return err
	}

	// the ingest job removes its input, so it works on a copy
	tmpPath, err := copyToDir(file, settings.TmpDir())
	if err != nil {
		return fmt.Errorf("copying %s: %w", file, err)
	}

	worker.InitServices(a.jobService, a.rag)
	result := worker.ExecuteJob(jobModel.Job{
		Id:          utils.GetNewUUID(),
		NotebookId:  nb.Id,
		TraceId:     utils.GetNewUUID(),
		JobType:     jobModel.JobTypeIngest,
		CreatedTime: time.Now(),
		Status:      jobModel.JobStatusQueued,
		CurrentStep: jobModel.IngestInit,
		JobPayload: jobModel.JobPayload{
			IngestFileName: filepath.Base(file),
			IngestFilePath: tmpPath,
			IngestName:     name,
		},
	})
	if result.Status == jobModel.JobStatusError {
		return fmt.Errorf("ingest failed (%d): %s", result.Error.Code, result.Error.Message)
	}

	src := result.JobPayload.IngestedSource
	fmt.Fprintf(out, "ingested %q into notebook %q (%s): source %s, %d chunks\n", src.Name, nb.Name, nb.Id, src.Id, src.ChunkCount)
	return nil
}

func findOrCreateNotebook(ctx context.Context, notebooks notebookModel.NotebookStore, ref string) (notebookModel.Notebook, error) {
	if nb, ok := notebooks.GetNotebook(ctx, ref); ok {
		return nb, nil
	}
	list, err := notebooks.ListNotebooks(ctx)
	if err != nil {
		return notebookModel.Notebook{}, err
	}
	for _, nb := range list {
		if nb.Name == ref {
			return nb, nil
		}
	}
	return notebooks.CreateNotebook(ctx, notebookModel.Notebook{Name: ref})
}

func copyToDir(path, dir string) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	target := filepath.Join(dir, fmt.Sprintf("%d-%s", time.Now().UnixNano(), filepath.Base(path)))
	out, err := os.Create(target)
	if err != nil {
		return "", err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		_ = os.Remove(target)
		return "", err
	}
	return target, nil
}
