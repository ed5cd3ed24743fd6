package postgres

import (
	"ShortLink-Backend/internal/domain"
	"ShortLink-Backend/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStorage реализует repository.Storage поверх GORM
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

var _ repository.Storage = (*PostgresStorage)(nil)

// New создает новый экземпляр PostgreSQL storage.
// The gorm.DB must be opened with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// Ping проверяет доступность базы данных
func (s *PostgresStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// --- Link Methods ---

// CreateLink сохраняет новую ссылку; уникальность short_id гарантирует индекс
func (s *PostgresStorage) CreateLink(ctx context.Context, link *domain.ShortLink) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrLinkExists
		}
		s.log.Error("failed to save link", zap.String("short_id", link.ShortID), zap.Error(err))
		return fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Debug("saved new link", zap.String("short_id", link.ShortID))
	return nil
}

// FindByCode получает ссылку по короткому коду
func (s *PostgresStorage) FindByCode(ctx context.Context, shortID string) (*domain.ShortLink, error) {
	var link domain.ShortLink

	err := s.db.WithContext(ctx).Where("short_id = ?", shortID).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to get link", zap.String("short_id", shortID), zap.Error(err))
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// IncrementClicks увеличивает счетчик одним UPDATE, без read-modify-write
func (s *PostgresStorage) IncrementClicks(ctx context.Context, shortID string) error {
	result := s.db.WithContext(ctx).
		Model(&domain.ShortLink{}).
		Where("short_id = ?", shortID).
		UpdateColumn("clicks", gorm.Expr("clicks + 1"))
	if result.Error != nil {
		s.log.Error("failed to increment clicks", zap.String("short_id", shortID), zap.Error(result.Error))
		return fmt.Errorf("failed to increment clicks: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}
	return nil
}

// ListByOwner возвращает последние ссылки пользователя
func (s *PostgresStorage) ListByOwner(ctx context.Context, ownerID int64, limit int) ([]*domain.ShortLink, error) {
	var links []*domain.ShortLink

	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").Order("id DESC").
		Limit(limit).
		Find(&links).Error
	if err != nil {
		s.log.Error("failed to list owner links", zap.Int64("owner_id", ownerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list owner links: %w", err)
	}

	return links, nil
}

// DeleteByCodeAndOwner удаляет ссылку только если она принадлежит владельцу.
// Click logs of the link are kept.
func (s *PostgresStorage) DeleteByCodeAndOwner(ctx context.Context, shortID string, ownerID int64) error {
	result := s.db.WithContext(ctx).
		Where("short_id = ? AND owner_id = ?", shortID, ownerID).
		Delete(&domain.ShortLink{})
	if result.Error != nil {
		s.log.Error("failed to delete link", zap.String("short_id", shortID), zap.Error(result.Error))
		return fmt.Errorf("failed to delete link: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}

	s.log.Info("deleted link", zap.String("short_id", shortID), zap.Int64("owner_id", ownerID))
	return nil
}

func (s *PostgresStorage) CountLinks(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.ShortLink{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) SumClicks(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).
		Model(&domain.ShortLink{}).
		Select("COALESCE(SUM(clicks), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum clicks: %w", err)
	}
	return total, nil
}

// --- Click Log Methods ---

// AppendClick добавляет запись в журнал кликов
func (s *PostgresStorage) AppendClick(ctx context.Context, entry *domain.ClickLog) error {
	if entry.At.IsZero() {
		entry.At = time.Now()
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		s.log.Error("failed to append click log", zap.String("short_id", entry.ShortID), zap.Error(err))
		return fmt.Errorf("failed to append click log: %w", err)
	}
	return nil
}

// StreamClickLogs читает журнал курсором, не загружая его целиком в память
func (s *PostgresStorage) StreamClickLogs(ctx context.Context, filter repository.ClickLogFilter, fn func(*domain.ClickLog) error) error {
	query := s.db.WithContext(ctx).Model(&domain.ClickLog{})
	if filter.From != nil {
		query = query.Where("at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("at <= ?", *filter.To)
	}

	rows, err := query.Order("at DESC").Order("id DESC").Rows()
	if err != nil {
		s.log.Error("failed to query click logs", zap.Error(err))
		return fmt.Errorf("failed to query click logs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entry domain.ClickLog
		if err := s.db.ScanRows(rows, &entry); err != nil {
			return fmt.Errorf("failed to scan click log: %w", err)
		}
		if err := fn(&entry); err != nil {
			return err
		}
	}

	return rows.Err()
}

func (s *PostgresStorage) CountClickLogs(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&domain.ClickLog{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count click logs: %w", err)
	}
	return count, nil
}

// ClicksByUserAgent группирует клики ссылки по user agent
func (s *PostgresStorage) ClicksByUserAgent(ctx context.Context, shortID string) (map[string]int64, error) {
	var results []struct {
		UserAgent string `gorm:"column:user_agent"`
		Count     int64  `gorm:"column:count"`
	}

	err := s.db.WithContext(ctx).
		Model(&domain.ClickLog{}).
		Select("COALESCE(user_agent, '') as user_agent, count(*) as count").
		Where("short_id = ?", shortID).
		Group("user_agent").
		Find(&results).Error
	if err != nil {
		s.log.Error("failed to group clicks by user agent", zap.String("short_id", shortID), zap.Error(err))
		return nil, fmt.Errorf("failed to group clicks by user agent: %w", err)
	}

	byAgent := make(map[string]int64, len(results))
	for _, result := range results {
		byAgent[result.UserAgent] += result.Count
	}

	return byAgent, nil
}

// PurgeClickLogs удаляет записи старше cutoff
func (s *PostgresStorage) PurgeClickLogs(ctx context.Context, before time.Time) (int64, error) {
	result := s.db.WithContext(ctx).Where("at < ?", before).Delete(&domain.ClickLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to purge click logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// --- User Methods ---

func (s *PostgresStorage) CreateUser(ctx context.Context, user *domain.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrUserExists
		}
		s.log.Error("failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Info("created new user", zap.Int64("user_id", user.ID))
	return nil
}

func (s *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, "email = ?", email)
}

func (s *PostgresStorage) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.findUser(ctx, "id = ?", id)
}

func (s *PostgresStorage) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	result := s.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to update last login: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repository.ErrUserNotFound
	}
	return nil
}

func (s *PostgresStorage) findUser(ctx context.Context, cond string, arg interface{}) (*domain.User, error) {
	var user domain.User

	err := s.db.WithContext(ctx).Where(cond, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrUserNotFound
	}
	if err != nil {
		s.log.Error("failed to get user", zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
