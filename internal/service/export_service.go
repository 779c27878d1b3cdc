package service

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/skillhub-api/internal/models"
	appErrors "github.com/noah-isme/skillhub-api/pkg/errors"
	"github.com/noah-isme/skillhub-api/pkg/export"
)

// Export formats accepted by roster exports.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type exportStore interface {
	Save(rel string, data []byte) (string, error)
	CleanupOlderThan(prefix string, ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderDocument(doc export.Document) ([]byte, error)
}

// ExportService renders rosters and receipts and persists downloadable exports.
type ExportService struct {
	store     exportStore
	files     *FileService
	csv       csvRenderer
	pdf       pdfRenderer
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers default to pkg/export.
func NewExportService(store exportStore, files *FileService, retention time.Duration, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{store: store, files: files, csv: csv, pdf: pdf, retention: retention, logger: logger, now: time.Now}
}

// Roster renders the enrollment roster of a course and returns a signed download.
func (s *ExportService) Roster(course *models.Course, entries []models.RosterEntry, format string) (*models.RosterExport, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	ds := export.Dataset{Headers: []string{"student", "email", "progress", "completed", "enrolled_at", "last_accessed"}}
	for _, e := range entries {
		ds.Append(
			e.StudentName,
			e.StudentEmail,
			fmt.Sprintf("%.2f", e.Progress),
			fmt.Sprintf("%t", e.Completed),
			e.EnrolledAt.UTC().Format(time.RFC3339),
			e.LastAccessedAt.UTC().Format(time.RFC3339),
		)
	}

	var (
		payload []byte
		err     error
	)
	switch format {
	case ExportFormatCSV:
		payload, err = s.csv.Render(ds)
	case ExportFormatPDF:
		payload, err = s.pdf.Render(ds, "Roster: "+course.Title)
	default:
		return nil, appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "unsupported export format"), map[string]string{"format": "csv or pdf"})
	}
	if err != nil {
		return nil, internal(err, "failed to render roster")
	}

	name := s.buildFilename("roster", course.Title, format)
	rel, err := s.store.Save("rosters/"+course.ID+"/"+name, payload)
	if err != nil {
		return nil, internal(err, "failed to store roster export")
	}
	link, err := s.files.Link(ScopeExports, rel)
	if err != nil {
		return nil, err
	}
	expiresAt, _ := time.Parse(time.RFC3339, link.ExpiresAt)
	return &models.RosterExport{
		Format:      format,
		FileName:    name,
		DownloadURL: link.URL,
		ExpiresAt:   expiresAt,
		Rows:        len(entries),
	}, nil
}

// Receipt renders a payment receipt PDF in memory.
func (s *ExportService) Receipt(payment models.Payment, student models.UserInfo) ([]byte, string, error) {
	doc := export.Document{
		Title:    "Payment receipt",
		Subtitle: "SkillHub",
		Fields: []export.Field{
			{Label: "Transaction", Value: payment.TransactionID},
			{Label: "Course", Value: payment.CourseTitle},
			{Label: "Student", Value: student.FullName},
			{Label: "Email", Value: student.Email},
			{Label: "Amount", Value: payment.Amount.String()},
			{Label: "Method", Value: strings.ReplaceAll(string(payment.PaymentMethod), "_", " ")},
			{Label: "Status", Value: string(payment.Status)},
			{Label: "Date", Value: payment.PaymentDate.UTC().Format(time.RFC1123)},
		},
		Footer: "This receipt was generated for a simulated payment and is not a tax invoice.",
	}
	out, err := s.pdf.RenderDocument(doc)
	if err != nil {
		return nil, "", internal(err, "failed to render receipt")
	}
	return out, "receipt_" + sanitizeFilename(payment.TransactionID) + ".pdf", nil
}

// Cleanup removes exports older than the retention window.
func (s *ExportService) Cleanup() ([]string, error) {
	return s.store.CleanupOlderThan("", s.retention)
}

func (s *ExportService) buildFilename(kind, label, format string) string {
	timestamp := s.now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s_%s.%s", kind, sanitizeFilename(strings.ToLower(label)), timestamp, format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 60 {
		return result[:60]
	}
	return result
}
