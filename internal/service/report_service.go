package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/domain"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/database"
	apperrors "github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/errors"
	"github.com/DibVibe/SmartCropAdvisory-sub000/internal/pkg/pagination"
)

const (
	reportKeyPrefix  = "report:"
	reportStateTTL   = 7 * 24 * time.Hour
	reportURLTTL     = 24 * time.Hour
	reportBatchSize  = 500
	maxReportRows    = 50000
	reportContentXLS = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportQueue hands report jobs to the background workers
type ReportQueue interface {
	EnqueueReport(ctx context.Context, reportID uuid.UUID) error
}

// ReportService tracks XLSX exports. Report state lives in the key-value
// store and expires after a week together with its download link.
type ReportService struct {
	ownership
	kv        database.KVStore
	queue     ReportQueue
	prices    PriceRepository
	schedules ScheduleRepository
	objects   ObjectStorage
	bucket    string
	publisher EventPublisher
	log       *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(
	kv database.KVStore,
	farms FarmRepository,
	fields FieldRepository,
	prices PriceRepository,
	schedules ScheduleRepository,
	objects ObjectStorage,
	bucket string,
	log *zap.Logger,
) *ReportService {
	return &ReportService{
		ownership: ownership{farms: farms, fields: fields},
		kv:        kv,
		prices:    prices,
		schedules: schedules,
		objects:   objects,
		bucket:    bucket,
		log:       log,
	}
}

// SetQueue sets the job queue used by Request
func (s *ReportService) SetQueue(q ReportQueue) {
	s.queue = q
}

// SetPublisher enables report.ready events
func (s *ReportService) SetPublisher(p EventPublisher) {
	s.publisher = p
}

// Request records a queued report and schedules its build
func (s *ReportService) Request(ctx context.Context, actor Actor, req *domain.ReportRequest) (*domain.Report, error) {
	if req.From != nil && req.To != nil && req.From.After(*req.To) {
		return nil, apperrors.Validation("invalid time range").WithDetail("from", "must not be after to")
	}
	if req.Kind == domain.ReportIrrigation {
		if _, err := s.farm(ctx, actor, *req.FarmID); err != nil {
			return nil, err
		}
	}
	if s.queue == nil {
		return nil, apperrors.Unavailable("report exports are not enabled")
	}

	report := &domain.Report{
		ID:        uuid.New(),
		UserID:    actor.UserID,
		Request:   *req,
		Status:    domain.ReportQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.save(ctx, report); err != nil {
		return nil, err
	}
	if err := s.queue.EnqueueReport(ctx, report.ID); err != nil {
		s.fail(ctx, report, err)
		return nil, apperrors.Unavailable("report queue is unavailable").WithError(err)
	}
	return report, nil
}

// Get returns one of the actor's reports with a fresh link once it is ready
func (s *ReportService) Get(ctx context.Context, actor Actor, id uuid.UUID) (*domain.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(report.UserID) {
		return nil, apperrors.NotFound("report")
	}
	if report.Status == domain.ReportReady {
		url, err := s.objects.PresignedURL(ctx, s.bucket, report.ObjectKey, reportURLTTL)
		if err != nil {
			s.log.Warn("report link unavailable", zap.String("report_id", id.String()), zap.Error(err))
		} else {
			report.DownloadURL = url
		}
	}
	return report, nil
}

// Build renders the report, uploads it and marks it ready. A failed build is
// recorded on the report before the error is returned.
func (s *ReportService) Build(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	report, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status == domain.ReportReady {
		return report, nil
	}

	report.Status = domain.ReportProcessing
	if err := s.save(ctx, report); err != nil {
		return nil, err
	}

	var (
		data []byte
		rows int
	)
	switch report.Request.Kind {
	case domain.ReportMarketPrices:
		data, rows, err = s.buildPrices(ctx, &report.Request)
	case domain.ReportIrrigation:
		data, rows, err = s.buildIrrigation(ctx, &report.Request)
	default:
		err = fmt.Errorf("unsupported report kind %q", report.Request.Kind)
	}
	if err != nil {
		s.fail(ctx, report, err)
		return nil, fmt.Errorf("failed to build report: %w", err)
	}

	key := fmt.Sprintf("reports/%s/%s_%s.xlsx", report.UserID, report.Request.Kind, report.ID)
	if err := s.objects.Put(ctx, s.bucket, key, data, reportContentXLS); err != nil {
		s.fail(ctx, report, err)
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}

	now := time.Now().UTC()
	report.Status = domain.ReportReady
	report.ObjectKey = key
	report.Rows = rows
	report.CompletedAt = &now
	if err := s.save(ctx, report); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		s.publisher.Publish(ctx, report.UserID, EventTypeReportReady, map[string]any{
			"reportId": report.ID,
			"kind":     report.Request.Kind,
			"rows":     rows,
		})
	}
	return report, nil
}

func (s *ReportService) buildPrices(ctx context.Context, req *domain.ReportRequest) ([]byte, int, error) {
	filter := &domain.PriceFilter{Commodity: req.Commodity, Market: req.Market, From: req.From, To: req.To}

	sheet := newSheet("Prices", []any{
		"Date", "Commodity", "Market", "State", "Variety", "Min", "Modal", "Max", "Unit", "Arrivals", "Source",
	})
	defer sheet.close()

	for page := 1; sheet.rows < maxReportRows; page++ {
		items, _, err := s.prices.List(ctx, filter, pagination.Params{Page: page, PageSize: reportBatchSize})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list prices: %w", err)
		}
		for _, p := range items {
			if err := sheet.append([]any{
				p.PriceDate.Format("2006-01-02"), p.Commodity, p.Market, p.State, p.Variety,
				p.MinPrice, p.ModalPrice, p.MaxPrice, p.Unit, p.ArrivalQuantity, p.Source,
			}); err != nil {
				return nil, 0, err
			}
		}
		if len(items) < reportBatchSize {
			break
		}
	}
	return sheet.bytes()
}

func (s *ReportService) buildIrrigation(ctx context.Context, req *domain.ReportRequest) ([]byte, int, error) {
	fields, err := s.fields.ListByFarm(ctx, *req.FarmID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list fields: %w", err)
	}
	names := make(map[uuid.UUID]string, len(fields))
	for _, f := range fields {
		names[f.ID] = f.Name
	}

	filter := &domain.ScheduleFilter{FarmID: req.FarmID, From: req.From, To: req.To}
	sheet := newSheet("Irrigation", []any{
		"Date", "Field", "Method", "Water (mm)", "Duration (min)", "Status", "Notes",
	})
	defer sheet.close()

	for page := 1; sheet.rows < maxReportRows; page++ {
		items, _, err := s.schedules.List(ctx, filter, pagination.Params{Page: page, PageSize: reportBatchSize})
		if err != nil {
			return nil, 0, fmt.Errorf("failed to list schedules: %w", err)
		}
		for _, sc := range items {
			if err := sheet.append([]any{
				sc.ScheduledDate.Format("2006-01-02"), names[sc.FieldID], string(sc.Method),
				sc.WaterAmountMM, sc.DurationMinutes, string(sc.Status), sc.Notes,
			}); err != nil {
				return nil, 0, err
			}
		}
		if len(items) < reportBatchSize {
			break
		}
	}
	return sheet.bytes()
}

func (s *ReportService) load(ctx context.Context, id uuid.UUID) (*domain.Report, error) {
	raw, err := s.kv.Get(ctx, reportKeyPrefix+id.String())
	if errors.Is(err, database.ErrCacheMiss) {
		return nil, apperrors.NotFound("report")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	var report domain.Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return &report, nil
}

func (s *ReportService) save(ctx context.Context, report *domain.Report) error {
	stored := *report
	stored.DownloadURL = ""
	raw, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := s.kv.Set(ctx, reportKeyPrefix+report.ID.String(), string(raw), reportStateTTL); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (s *ReportService) fail(ctx context.Context, report *domain.Report, cause error) {
	now := time.Now().UTC()
	report.Status = domain.ReportFailed
	report.Error = cause.Error()
	report.CompletedAt = &now
	if err := s.save(ctx, report); err != nil {
		s.log.Error("failed to record report failure", zap.String("report_id", report.ID.String()), zap.Error(err))
	}
}

// xlsxSheet writes a single-sheet workbook with a bold, frozen header row
type xlsxSheet struct {
	file *excelize.File
	name string
	rows int
	err  error
}

func newSheet(name string, header []any) *xlsxSheet {
	f := excelize.NewFile()
	s := &xlsxSheet{file: f, name: name}
	if s.err = f.SetSheetName("Sheet1", name); s.err != nil {
		return s
	}
	if s.err = f.SetSheetRow(name, "A1", &header); s.err != nil {
		return s
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		s.err = err
		return s
	}
	if s.err = f.SetRowStyle(name, 1, 1, style); s.err != nil {
		return s
	}
	s.err = f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	return s
}

func (s *xlsxSheet) append(values []any) error {
	if s.err != nil {
		return s.err
	}
	cell, err := excelize.CoordinatesToCellName(1, s.rows+2)
	if err != nil {
		return err
	}
	if err := s.file.SetSheetRow(s.name, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", s.rows+1, err)
	}
	s.rows++
	return nil
}

func (s *xlsxSheet) bytes() ([]byte, int, error) {
	if s.err != nil {
		return nil, 0, fmt.Errorf("failed to prepare sheet: %w", s.err)
	}
	buf, err := s.file.WriteToBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), s.rows, nil
}

func (s *xlsxSheet) close() {
	_ = s.file.Close()
}
