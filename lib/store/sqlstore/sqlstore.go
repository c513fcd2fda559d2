// Package sqlstore persists notes with gorm on sqlite or postgres.
package sqlstore

import (
	"context"
	"strings"
	"sync"

	"github.com/oliverisaac/keepnotes/lib/store"
	"github.com/oliverisaac/keepnotes/types"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/ncruces/go-sqlite3/ext/unicode"
	sqlite "github.com/ncruces/go-sqlite3/gormlite"
)

var _ store.Store = (*Store)(nil)

var registerUnicode sync.Once

// Open connects to the configured database. dsn is a file path for sqlite.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case types.DBDriverPostgres:
		dialector = postgres.Open(dsn)
	case types.DBDriverSQLite, "":
		// stock sqlite LOWER and LIKE only fold ASCII
		registerUnicode.Do(func() { sqlite3.AutoExtension(unicode.Register) })
		dialector = sqlite.Open(dsn)
	default:
		return nil, errors.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s database", driver)
	}

	if driver != types.DBDriverPostgres {
		// sqlite allows one writer; a single connection queues writers instead of failing them with SQLITE_BUSY
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "getting sql db")
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

type Store struct {
	db *gorm.DB
}

// New wraps db. The caller owns db and closes it.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Migrate(ctx context.Context) error {
	return errors.Wrap(s.db.WithContext(ctx).AutoMigrate(&types.Note{}), "migrating notes")
}

func (s *Store) Create(ctx context.Context, note *types.Note) error {
	return errors.Wrap(s.db.WithContext(ctx).Create(note).Error, "inserting note")
}

func (s *Store) Get(ctx context.Context, owner, id string) (types.Note, error) {
	var note types.Note
	err := s.db.WithContext(ctx).Where("owner = ? AND id = ?", owner, id).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.Note{}, store.ErrNotFound
	}
	if err != nil {
		return types.Note{}, errors.Wrap(err, "finding note")
	}
	return note, nil
}

func (s *Store) Update(ctx context.Context, owner, id string, fn store.Mutator) (types.Note, error) {
	var note types.Note
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("owner = ? AND id = ?", owner, id).First(&note).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return errors.Wrap(err, "finding note")
		}

		if err := fn(&note); err != nil {
			return err
		}
		note.ID, note.Owner = id, owner

		return errors.Wrap(tx.Save(&note).Error, "saving note")
	})
	if err != nil {
		return types.Note{}, err
	}
	return note, nil
}

func (s *Store) Delete(ctx context.Context, owner, id string) (bool, error) {
	res := s.db.WithContext(ctx).Where("owner = ? AND id = ?", owner, id).Delete(&types.Note{})
	if res.Error != nil {
		return false, errors.Wrap(res.Error, "deleting note")
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) Query(ctx context.Context, owner string, filter store.Filter) ([]types.Note, error) {
	q := s.db.WithContext(ctx).Where("owner = ?", owner)

	if filter.Deleted != nil {
		q = q.Where("is_deleted = ?", *filter.Deleted)
	}
	if filter.Archived != nil {
		q = q.Where("is_archived = ?", *filter.Archived)
	}
	if filter.Favorite != nil {
		q = q.Where("is_favorite = ?", *filter.Favorite)
	}
	if filter.Search != "" {
		term := "%" + escapeLike(strings.ToLower(filter.Search)) + "%"
		q = q.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(plain_text_content) LIKE ? ESCAPE '\' OR tag_index LIKE ? ESCAPE '\')`, term, term, term)
	}

	switch filter.Sort {
	case store.SortDeletedDesc:
		q = q.Order(s.timeDesc("deleted_at")).Order("id ASC")
	default:
		q = q.Order(s.timeDesc("created_at")).Order("id ASC")
	}

	notes := []types.Note{}
	if err := q.Limit(filter.EffectiveLimit()).Find(&notes).Error; err != nil {
		return nil, errors.Wrap(err, "querying notes")
	}
	return notes, nil
}

func (s *Store) DeleteOwner(ctx context.Context, owner string) (int64, error) {
	res := s.db.WithContext(ctx).Where("owner = ?", owner).Delete(&types.Note{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "deleting notes for owner")
	}
	return res.RowsAffected, nil
}

func (s *Store) Close() error {
	return nil
}

// timeDesc orders a timestamp column newest first. sqlite keeps times as RFC 3339 text without
// trailing fractional zeros, which only sorts chronologically under the TIME collation.
func (s *Store) timeDesc(column string) string {
	if s.db.Dialector.Name() == "sqlite" {
		return column + " COLLATE TIME DESC"
	}
	return column + " DESC"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
