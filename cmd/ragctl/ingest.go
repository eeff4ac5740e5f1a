package main

import (
	"context"
	"fmt"
	"time"

	"book-rag-be/internal/dto"
	"book-rag-be/internal/pkg/serverutils"
	"book-rag-be/pkg/document"

	"github.com/spf13/cobra"
)

var (
	ingestBook    string
	ingestTitle   string
	ingestFile    string
	ingestChapter int
	ingestPage    int
	ingestSection string
	ingestLocator string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Chunk, embed and index a text or PDF file",
	Long: `Reads a text or PDF file, splits it into overlapping chunks, embeds them
and upserts them into the index. Use --db to make the result persistent.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestBook, "book", "", "book id")
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "book title")
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "text or PDF file to ingest")
	ingestCmd.Flags().IntVar(&ingestChapter, "chapter", -1, "chapter number")
	ingestCmd.Flags().IntVar(&ingestPage, "page", -1, "page number")
	ingestCmd.Flags().StringVar(&ingestSection, "section", "", "section title")
	ingestCmd.Flags().StringVar(&ingestLocator, "source", "", "source reference, defaults to the title")
	_ = ingestCmd.MarkFlagRequired("book")
	_ = ingestCmd.MarkFlagRequired("title")
	_ = ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	content, err := document.ExtractText(ingestFile)
	if err != nil {
		return fmt.Errorf("read %s: %w", ingestFile, err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	c, err := buildContainer(ctx)
	if err != nil {
		return err
	}
	defer c.Close()

	req := &dto.IngestContentRequest{
		BookId:          ingestBook,
		Title:           ingestTitle,
		Content:         content,
		SourceReference: ingestLocator,
	}
	if ingestChapter >= 0 {
		req.ChapterNumber = &ingestChapter
	}
	if ingestPage >= 0 {
		req.PageNumber = &ingestPage
	}
	if ingestSection != "" {
		req.SectionTitle = &ingestSection
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.IngestService.Ingest(ctx, req)
	if err != nil {
		return err
	}

	cmd.Printf("Indexed %d chunks in %dms\n", res.Chunks, res.ProcessingTimeMs)
	for _, id := range res.ContentIds {
		cmd.Printf("  %s\n", id)
	}
	return nil
}
