package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"pagefun/app/internal/models"
	"pagefun/shared/logger"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the hosted key-value backend. Pages live at page:{slug};
// the wallet index is a set at wallet:{address}.
type RedisStore struct {
	client    *redis.Client
	appLogger *logger.Logger
}

func NewRedisStore(addr, password string, db int, appLogger *logger.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	appLogger.Info("Redis page store connected", "addr", addr, "db", db)
	return &RedisStore{client: client, appLogger: appLogger}, nil
}

// NewRedisStoreFromClient wraps an existing client; used by tests.
func NewRedisStoreFromClient(client *redis.Client, appLogger *logger.Logger) *RedisStore {
	return &RedisStore{client: client, appLogger: appLogger}
}

func (rs *RedisStore) Get(ctx context.Context, slug string) (*models.Page, error) {
	raw, err := rs.client.Get(ctx, PageKey(slug)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", slug, err)
	}
	var page models.Page
	if err := json.Unmarshal([]byte(raw), &page); err != nil {
		return nil, fmt.Errorf("corrupt page record for %s: %w", slug, err)
	}
	return &page, nil
}

func (rs *RedisStore) Put(ctx context.Context, page *models.Page) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal page %s: %w", page.Slug, err)
	}
	if err := rs.client.Set(ctx, PageKey(page.Slug), raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", page.Slug, err)
	}
	// The primary write succeeded; an index failure from here on leaves the
	// store inconsistent and is reported distinctly, not returned.
	if err := rs.client.SAdd(ctx, WalletKey(page.WalletAddress), page.Slug).Err(); err != nil {
		rs.appLogger.Error("Wallet index update failed after page write",
			"slug", page.Slug, "wallet", page.WalletAddress, "error", err)
	}
	return nil
}

func (rs *RedisStore) Delete(ctx context.Context, slug string) error {
	page, err := rs.Get(ctx, slug)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := rs.client.Del(ctx, PageKey(slug)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", slug, err)
	}
	if err := rs.client.SRem(ctx, WalletKey(page.WalletAddress), slug).Err(); err != nil {
		rs.appLogger.Error("Wallet index removal failed after page delete",
			"slug", slug, "wallet", page.WalletAddress, "error", err)
	}
	return nil
}

func (rs *RedisStore) ListByWallet(ctx context.Context, walletAddress string) ([]models.PageSummary, error) {
	slugs, err := rs.client.SMembers(ctx, WalletKey(walletAddress)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers %s: %w", walletAddress, err)
	}
	sort.Strings(slugs)
	summaries := make([]models.PageSummary, 0, len(slugs))
	for _, slug := range slugs {
		page, err := rs.Get(ctx, slug)
		if errors.Is(err, ErrNotFound) {
			rs.appLogger.Warn("Wallet index references missing page", "slug", slug, "wallet", walletAddress)
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, page.Summary())
	}
	return summaries, nil
}
