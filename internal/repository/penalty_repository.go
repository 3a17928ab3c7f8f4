package repository

import (
	"github.com/cinereview/backend/internal/apperrors"
	"github.com/cinereview/backend/internal/models"
	"github.com/cinereview/backend/internal/storage"
)

type PenaltyRepository struct {
	doc *storage.Document[[]*models.Penalty]
}

func NewPenaltyRepository(path string) *PenaltyRepository {
	return &PenaltyRepository{
		doc: storage.NewDocument(path, func() []*models.Penalty { return []*models.Penalty{} }),
	}
}

func (r *PenaltyRepository) Create(penalty *models.Penalty) error {
	return r.doc.Update(func(penalties *[]*models.Penalty) error {
		for _, existing := range *penalties {
			if existing.PenaltyID == penalty.PenaltyID {
				return apperrors.Conflict("penalty %s already exists", penalty.PenaltyID)
			}
		}
		*penalties = append(*penalties, penalty)
		return nil
	})
}

func (r *PenaltyRepository) GetByID(id string) (*models.Penalty, error) {
	penalties, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	for _, p := range penalties {
		if p.PenaltyID == id {
			return p, nil
		}
	}
	return nil, apperrors.NotFound("penalty %s not found", id)
}

// List returns every penalty in issue order.
func (r *PenaltyRepository) List() ([]*models.Penalty, error) {
	return r.doc.Load()
}

// ListActiveByUser returns the active penalties targeting userID in store order.
func (r *PenaltyRepository) ListActiveByUser(userID string) ([]*models.Penalty, error) {
	penalties, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	res := []*models.Penalty{}
	for _, p := range penalties {
		if p.UserID == userID && p.Active {
			res = append(res, p)
		}
	}
	return res, nil
}

// FindByReport returns the penalties issued from reportID.
func (r *PenaltyRepository) FindByReport(reportID string) ([]*models.Penalty, error) {
	penalties, err := r.doc.Load()
	if err != nil {
		return nil, err
	}
	res := []*models.Penalty{}
	for _, p := range penalties {
		if p.ReportID != nil && *p.ReportID == reportID {
			res = append(res, p)
		}
	}
	return res, nil
}

// Delete removes a penalty. Deleting an unknown id is not an error.
func (r *PenaltyRepository) Delete(id string) error {
	return r.doc.Update(func(penalties *[]*models.Penalty) error {
		kept := (*penalties)[:0]
		for _, p := range *penalties {
			if p.PenaltyID != id {
				kept = append(kept, p)
			}
		}
		*penalties = kept
		return nil
	})
}
