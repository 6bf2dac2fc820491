package service

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/library-acquisition/internal/application/port"
	"github.com/garyjia/library-acquisition/internal/domain/entity"
	"github.com/garyjia/library-acquisition/internal/domain/workflow"
)

// ReportSheet is the worksheet name of exported reports
const ReportSheet = "Acquisitions"

var reportHeader = []string{
	"Request ID", "Kind", "Status", "Requester", "Email", "Record", "Item",
	"Vendor", "Copies", "Payment Method", "Budget Code", "Price", "Currency",
	"Delivery", "Issued", "Updated",
}

// ReportService exports requests as spreadsheets
type ReportService interface {
	// Export writes one row per request matching status and kind, empty values match any
	Export(ctx context.Context, status workflow.State, kind entity.Kind) ([]byte, error)
}

type reportServiceImpl struct {
	repo   port.AcquisitionRepository
	logger Logger
}

// NewReportService creates a new ReportService
func NewReportService(repo port.AcquisitionRepository, logger Logger) ReportService {
	return &reportServiceImpl{repo: repo, logger: loggerOrNop(logger)}
}

func (s *reportServiceImpl) Export(ctx context.Context, status workflow.State, kind entity.Kind) ([]byte, error) {
	if status != "" && !status.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown kind %q", ErrInvalidInput, kind)
	}

	requests, err := s.repo.FindByStatusAndKind(ctx, status, kind)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, title := range reportHeader {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(ReportSheet, cell, title); err != nil {
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(reportHeader), 1)
	if err := f.SetCellStyle(ReportSheet, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, req := range requests {
		if err := writeReportRow(f, i+2, req); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(ReportSheet, "A", "A", 38)
	_ = f.SetColWidth(ReportSheet, "D", "H", 24)
	_ = f.SetColWidth(ReportSheet, "O", "P", 20)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}

	s.logger.Info("Acquisition report exported", "status", status, "kind", kind, "rows", len(requests))
	return buf.Bytes(), nil
}

func writeReportRow(f *excelize.File, row int, req *entity.AcquisitionRequest) error {
	var price interface{}
	if req.Price.Valid {
		price = req.Price.Decimal.InexactFloat64()
	}

	values := []interface{}{
		req.ID,
		string(req.Kind),
		string(req.Status),
		req.Requester.Name,
		req.Requester.Email,
		req.CatalogRecordID,
		req.ItemID,
		req.VendorID,
		req.Copies,
		string(req.PaymentMethod),
		req.BudgetCode,
		price,
		req.Currency,
		string(req.Delivery),
		req.IssuedDate.Format("2006-01-02 15:04"),
		req.UpdatedAt.Format("2006-01-02 15:04"),
	}

	for col, v := range values {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(col+1, row)
		if err := f.SetCellValue(ReportSheet, cell, v); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	return nil
}
