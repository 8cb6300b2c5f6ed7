package repositories

import (
	"time"

	"github.com/sajib-hossain/photogram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StoryViewRepository is the durable audit trail of story views. Rows survive
// story expiry and deletion; owner-facing analytics read from here, never from
// a live story's viewer set.
type StoryViewRepository interface {
	UpsertView(view *models.StoryView) error
	GetViewsByStoryID(storyID string) ([]models.StoryView, error)
	GetViewsByOwnerID(ownerID uint, limit int) ([]models.StoryView, error)
	CountByOwnerID(ownerID uint) (int64, error)
	CountDistinctViewers(ownerID uint) (int64, error)
}

type postgresStoryViewRepository struct {
	db *gorm.DB
}

func NewPostgresStoryViewRepository(db *gorm.DB) StoryViewRepository {
	return &postgresStoryViewRepository{db: db}
}

// UpsertView inserts the view or, when the (story, viewer) row already
// exists, refreshes viewed_at. The conflict target is the unique index, so
// concurrent duplicate views cannot produce duplicate rows.
func (r *postgresStoryViewRepository) UpsertView(view *models.StoryView) error {
	view.ViewedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "story_id"}, {Name: "viewer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"viewed_at", "story_image_url"}),
	}).Create(view).Error
}

func (r *postgresStoryViewRepository) GetViewsByStoryID(storyID string) ([]models.StoryView, error) {
	var views []models.StoryView
	err := r.db.Where("story_id = ?", storyID).Order("viewed_at DESC").Find(&views).Error
	return views, err
}

func (r *postgresStoryViewRepository) GetViewsByOwnerID(ownerID uint, limit int) ([]models.StoryView, error) {
	var views []models.StoryView
	err := r.db.Where("owner_id = ?", ownerID).Order("viewed_at DESC").Limit(limit).Find(&views).Error
	return views, err
}

func (r *postgresStoryViewRepository) CountByOwnerID(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.StoryView{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *postgresStoryViewRepository) CountDistinctViewers(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.StoryView{}).Where("owner_id = ?", ownerID).Distinct("viewer_id").Count(&count).Error
	return count, err
}
