package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"inventory-api/internal/apperrors"
	"inventory-api/internal/cache"
	"inventory-api/internal/models"
)

// Cache keys. itemListKey holds the serialized full collection,
// itemKey(id) a single serialized record.
const itemListKey = "item_list"

func itemKey(id int) string {
	return fmt.Sprintf("item_%d", id)
}

// ItemService implements item CRUD with a cache-aside layer in front of
// the store. The contract: reads populate the cache on miss, every
// write invalidates the affected keys only after the store mutation has
// committed. Cache failures are logged and treated as misses; the cache
// is an optimization, never a source of truth.
type ItemService struct {
	db     *sql.DB
	cache  cache.Store
	ttl    time.Duration
	logger zerolog.Logger
}

func NewItemService(db *sql.DB, store cache.Store, ttl time.Duration, logger zerolog.Logger) *ItemService {
	return &ItemService{
		db:     db,
		cache:  store,
		ttl:    ttl,
		logger: logger,
	}
}

// List returns the serialized item collection, from cache when
// possible. Cached bytes are returned as-is.
func (s *ItemService) List(ctx context.Context) (json.RawMessage, error) {
	if data, err := s.cache.Get(ctx, itemListKey); err == nil {
		return data, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn().Err(err).Str("key", itemListKey).Msg("Cache read failed, falling back to store")
	}

	rows, err := s.db.Query("SELECT id, name, quantity, price, created_at, updated_at FROM items ORDER BY id")
	if err != nil {
		s.logger.Error().Err(err).Msg("Error listing items")
		return nil, apperrors.NotFound("Failed to retrieve items")
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Name, &item.Quantity, &item.Price, &item.CreatedAt, &item.UpdatedAt); err != nil {
			s.logger.Error().Err(err).Msg("Error scanning item row")
			return nil, apperrors.NotFound("Failed to retrieve items")
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		s.logger.Error().Err(err).Msg("Error iterating item rows")
		return nil, apperrors.NotFound("Failed to retrieve items")
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, apperrors.Internal("Failed to serialize items")
	}

	s.populate(ctx, itemListKey, data)
	return data, nil
}

// Get returns a single serialized item, from cache when possible.
func (s *ItemService) Get(ctx context.Context, id int) (json.RawMessage, error) {
	key := itemKey(id)

	if data, err := s.cache.Get(ctx, key); err == nil {
		return data, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed, falling back to store")
	}

	item, err := s.getByID(id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(item)
	if err != nil {
		return nil, apperrors.Internal("Failed to serialize item")
	}

	s.populate(ctx, key, data)
	return data, nil
}

func (s *ItemService) Create(ctx context.Context, req *models.ItemRequest) (*models.Item, error) {
	if err := models.Validate(req); err != nil {
		return nil, err
	}

	result, err := s.db.Exec(
		"INSERT INTO items (name, quantity, price) VALUES (?, ?, ?)",
		req.Name, *req.Quantity, req.Price,
	)
	if err != nil {
		s.logger.Error().Err(err).Msg("Error creating item")
		return nil, apperrors.Internal("Failed to create item")
	}

	// The row is committed; invalidate before anything else can fail so
	// the cache never outlives the write. The next List repopulates on
	// miss.
	s.invalidate(ctx, itemListKey)

	itemID, err := result.LastInsertId()
	if err != nil {
		s.logger.Error().Err(err).Msg("Error getting item ID")
		return nil, apperrors.Internal("Failed to create item")
	}

	item, err := s.getByID(int(itemID))
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("item_id", item.ID).Str("name", item.Name).Msg("Item created")
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, id int, req *models.ItemRequest) (*models.Item, error) {
	if _, err := s.getByID(id); err != nil {
		return nil, err
	}

	if err := models.Validate(req); err != nil {
		return nil, err
	}

	_, err := s.db.Exec(
		"UPDATE items SET name = ?, quantity = ?, price = ? WHERE id = ?",
		req.Name, *req.Quantity, req.Price, id,
	)
	if err != nil {
		s.logger.Error().Err(err).Int("item_id", id).Msg("Error updating item")
		return nil, apperrors.Internal("Failed to update item")
	}

	// Committed; drop the stale entries before the read-back, which can
	// still fail.
	s.invalidate(ctx, itemKey(id), itemListKey)

	item, err := s.getByID(id)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int("item_id", id).Msg("Item updated")
	return item, nil
}

func (s *ItemService) Delete(ctx context.Context, id int) error {
	result, err := s.db.Exec("DELETE FROM items WHERE id = ?", id)
	if err != nil {
		s.logger.Error().Err(err).Int("item_id", id).Msg("Error deleting item")
		return apperrors.Internal("Failed to delete item")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		// The DELETE may have committed; err on the side of coherence.
		s.invalidate(ctx, itemKey(id), itemListKey)
		s.logger.Error().Err(err).Int("item_id", id).Msg("Error reading delete result")
		return apperrors.Internal("Failed to delete item")
	}
	if affected == 0 {
		return apperrors.NotFound("Item not found")
	}

	s.invalidate(ctx, itemKey(id), itemListKey)

	s.logger.Info().Int("item_id", id).Msg("Item deleted")
	return nil
}

func (s *ItemService) getByID(id int) (*models.Item, error) {
	var item models.Item
	err := s.db.QueryRow(
		"SELECT id, name, quantity, price, created_at, updated_at FROM items WHERE id = ?",
		id,
	).Scan(&item.ID, &item.Name, &item.Quantity, &item.Price, &item.CreatedAt, &item.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("Item not found")
	}
	if err != nil {
		s.logger.Error().Err(err).Int("item_id", id).Msg("Error fetching item")
		return nil, apperrors.Internal("Failed to fetch item")
	}

	return &item, nil
}

func (s *ItemService) populate(ctx context.Context, key string, data []byte) {
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

func (s *ItemService) invalidate(ctx context.Context, keys ...string) {
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn().Err(err).Strs("keys", keys).Msg("Cache invalidation failed")
	}
}
