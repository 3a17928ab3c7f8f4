package repository

import (
	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/storage"
)

type ReportRepository struct {
	doc *storage.Document[[]*models.Report]
}

func NewReportRepository(path string) *ReportRepository {
	return &ReportRepository{
		doc: storage.NewDocument(path, func() []*models.Report { return []*models.Report{} }),
	}
}

// Create appends a report. Report ids must be unique within the store.
func (r *ReportRepository) Create(report *models.Report) error {
	return r.doc.Update(func(reports *[]*models.Report) error {
		for _, existing := range *reports {
			if existing.ReportID == report.ReportID {
				return apperrors.Conflict("report %s already exists", report.ReportID)
			}
		}
		*reports = append(*reports, report)
		return nil
	})
}

// GetByID retrieves a report by ID
func (r *ReportRepository) GetByID(id string) (*models.Report, error) {
	reports, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	for _, report := range reports {
		if report.ReportID == id {
			return report, nil
		}
	}
	return nil, apperrors.NotFound("report %s not found", id)
}

// List returns every report in insertion order.
func (r *ReportRepository) List() ([]*models.Report, error) {
	return r.doc.Load()
}

// Update applies fn to the report under the store lock and persists the
// result. If fn fails the store is left unchanged.
func (r *ReportRepository) Update(id string, fn func(report *models.Report) error) (*models.Report, error) {
	var updated *models.Report
	err := r.doc.Update(func(reports *[]*models.Report) error {
		for _, report := range *reports {
			if report.ReportID == id {
				if err := fn(report); err != nil {
					return err
				}
				updated = report
				return nil
			}
		}
		return apperrors.NotFound("report %s not found", id)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
