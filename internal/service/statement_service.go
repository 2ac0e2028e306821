package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bankstmt/internal/dto"
	"bankstmt/internal/models"
	"bankstmt/internal/repository"
	"bankstmt/pkg/metrics"
)

// StatementService runs the pipeline: render pages, call the model, parse
// the reply, keep the result in the session store. Stages are strictly
// sequential; the model call is the only external I/O.
type StatementService struct {
	repo       *repository.StatementRepository
	renderer   *RenderService
	extraction *ExtractionService
	parser     *ParseService
	exporter   *ExportService
	logger     *zap.Logger
}

func NewStatementService(
	repo *repository.StatementRepository,
	renderer *RenderService,
	extraction *ExtractionService,
	parser *ParseService,
	exporter *ExportService,
	logger *zap.Logger,
) *StatementService {
	return &StatementService{
		repo:       repo,
		renderer:   renderer,
		extraction: extraction,
		parser:     parser,
		exporter:   exporter,
		logger:     logger,
	}
}

// ProcessStatement handles one uploaded PDF end to end and returns the full
// extracted table with its summary.
func (s *StatementService) ProcessStatement(ctx context.Context, r io.Reader, fileName string) (*dto.StatementResponse, error) {
	pdf, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}

	pages, err := s.renderer.RenderPages(pdf)
	if err != nil {
		metrics.StatementsFailed.WithLabelValues("render").Inc()
		return nil, err
	}

	raw, err := s.extraction.Extract(ctx, pages)
	if err != nil {
		metrics.StatementsFailed.WithLabelValues("extract").Inc()
		return nil, err
	}

	txs, droppedRows, err := s.parser.Parse(raw)
	if err != nil {
		metrics.StatementsFailed.WithLabelValues("parse").Inc()
		return nil, err
	}

	stmt := &models.Statement{
		ID:           uuid.New(),
		FileName:     fileName,
		PageCount:    len(pages),
		ModelID:      s.extraction.cfg.Model,
		Transactions: txs,
		DroppedRows:  droppedRows,
		CreatedAt:    time.Now(),
	}
	s.repo.Save(stmt)
	metrics.StatementsProcessed.Inc()

	s.logger.Info("Statement processed",
		zap.String("statement_id", stmt.ID.String()),
		zap.String("file", fileName),
		zap.Int("pages", stmt.PageCount),
		zap.Int("transactions", len(txs)),
		zap.Int("dropped_rows", droppedRows),
	)

	summary := models.Summarize(txs)
	resp := dto.NewStatementResponse(stmt, txs, summary)
	return &resp, nil
}

// GetStatement returns the filtered view of a stored statement with its
// summary computed over that view.
func (s *StatementService) GetStatement(id uuid.UUID, filter models.Filter) (*dto.StatementResponse, error) {
	stmt, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}

	view := models.ApplyFilter(stmt.Transactions, filter)
	summary := models.Summarize(view)
	resp := dto.NewStatementResponse(stmt, view, summary)
	return &resp, nil
}

// ExportStatement serializes the filtered view to an XLSX workbook and
// returns the bytes with a download file name.
func (s *StatementService) ExportStatement(id uuid.UUID, filter models.Filter) ([]byte, string, error) {
	stmt, err := s.repo.GetByID(id)
	if err != nil {
		return nil, "", err
	}

	view := models.ApplyFilter(stmt.Transactions, filter)
	data, err := s.exporter.WriteXLSX(view)
	if err != nil {
		return nil, "", err
	}

	name := fmt.Sprintf("bank_statement_%s.xlsx", stmt.CreatedAt.Format("20060102"))
	return data, name, nil
}
