package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/neurobridge-credentials/internal/domain"
	"github.com/yungbote/neurobridge-credentials/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-credentials/internal/platform/logger"
)

type PathRepo interface {
	Create(dbc dbctx.Context, paths []*types.LearningPath) ([]*types.LearningPath, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPath, error)
	SetCourses(dbc dbctx.Context, pathID uuid.UUID, courseIDs []uuid.UUID) error
	ListCourseIDs(dbc dbctx.Context, pathID uuid.UUID) ([]uuid.UUID, error)
	ListPathIDsByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error)
}

type pathRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathRepo(db *gorm.DB, baseLog *logger.Logger) PathRepo {
	return &pathRepo{db: db, log: baseLog.With("repo", "PathRepo")}
}

func (r *pathRepo) Create(dbc dbctx.Context, paths []*types.LearningPath) ([]*types.LearningPath, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(paths) == 0 {
		return []*types.LearningPath{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&paths).Error; err != nil {
		return nil, err
	}
	return paths, nil
}

// GetByID returns nil, nil when the path does not exist.
func (r *pathRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPath, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.LearningPath
	if err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// SetCourses replaces the path's course list; slice order becomes enrollment order.
func (r *pathRepo) SetCourses(dbc dbctx.Context, pathID uuid.UUID, courseIDs []uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if pathID == uuid.Nil {
		return nil
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("path_id = ?", pathID).Delete(&types.LearningPathCourse{}).Error; err != nil {
			return err
		}
		if len(courseIDs) == 0 {
			return nil
		}
		rows := make([]*types.LearningPathCourse, 0, len(courseIDs))
		for i, cid := range courseIDs {
			rows = append(rows, &types.LearningPathCourse{PathID: pathID, CourseID: cid, Index: i})
		}
		return tx.Create(&rows).Error
	})
}

func (r *pathRepo) ListCourseIDs(dbc dbctx.Context, pathID uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	ids := []uuid.UUID{}
	if pathID == uuid.Nil {
		return ids, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.LearningPathCourse{}).
		Where("path_id = ?", pathID).
		Order("\"index\" ASC").
		Pluck("course_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *pathRepo) ListPathIDsByCourse(dbc dbctx.Context, courseID uuid.UUID) ([]uuid.UUID, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	ids := []uuid.UUID{}
	if courseID == uuid.Nil {
		return ids, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.LearningPathCourse{}).
		Where("course_id = ?", courseID).
		Pluck("path_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
