package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"pagefun/app/internal/models"
	"pagefun/shared/logger"
)

// FileStore is the development backend: every page plus the wallet index in
// one JSON file, rewritten whole on each mutation via temp-file rename.
type FileStore struct {
	mu        sync.Mutex
	path      string
	appLogger *logger.Logger
}

type fileStoreData struct {
	Pages       map[string]*models.Page `json:"pages"`
	WalletIndex map[string][]string     `json:"walletIndex"`
}

func NewFileStore(path string, appLogger *logger.Logger) (*FileStore, error) {
	fs := &FileStore{path: path, appLogger: appLogger}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := fs.save(&fileStoreData{
			Pages:       map[string]*models.Page{},
			WalletIndex: map[string][]string{},
		}); err != nil {
			return nil, fmt.Errorf("failed to initialize page store file %s: %w", path, err)
		}
		appLogger.Info("Created new page store file", "path", path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat page store file %s: %w", path, err)
	}
	if _, err := fs.load(); err != nil {
		return nil, fmt.Errorf("page store file %s is unreadable: %w", path, err)
	}
	return fs, nil
}

func (fs *FileStore) load() (*fileStoreData, error) {
	raw, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, err
	}
	var data fileStoreData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	if data.Pages == nil {
		data.Pages = map[string]*models.Page{}
	}
	if data.WalletIndex == nil {
		data.WalletIndex = map[string][]string{}
	}
	return &data, nil
}

func (fs *FileStore) save(data *fileStoreData) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, filepath.Clean(fs.path))
}

func (fs *FileStore) Get(ctx context.Context, slug string) (*models.Page, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.load()
	if err != nil {
		return nil, err
	}
	page, ok := data.Pages[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return page.Clone(), nil
}

func (fs *FileStore) Put(ctx context.Context, page *models.Page) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.load()
	if err != nil {
		return err
	}
	data.Pages[page.Slug] = page.Clone()

	key := strings.ToLower(page.WalletAddress)
	if !containsSlug(data.WalletIndex[key], page.Slug) {
		data.WalletIndex[key] = append(data.WalletIndex[key], page.Slug)
	}
	return fs.save(data)
}

func (fs *FileStore) Delete(ctx context.Context, slug string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.load()
	if err != nil {
		return err
	}
	page, ok := data.Pages[slug]
	if !ok {
		return nil
	}
	delete(data.Pages, slug)

	key := strings.ToLower(page.WalletAddress)
	data.WalletIndex[key] = removeSlug(data.WalletIndex[key], slug)
	if len(data.WalletIndex[key]) == 0 {
		delete(data.WalletIndex, key)
	}
	return fs.save(data)
}

func (fs *FileStore) ListByWallet(ctx context.Context, walletAddress string) ([]models.PageSummary, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	data, err := fs.load()
	if err != nil {
		return nil, err
	}

	slugs := data.WalletIndex[strings.ToLower(walletAddress)]
	summaries := make([]models.PageSummary, 0, len(slugs))
	for _, slug := range slugs {
		page, ok := data.Pages[slug]
		if !ok {
			// Stale index entry; the index is best-effort by design.
			fs.appLogger.Warn("Wallet index references missing page", "slug", slug, "wallet", walletAddress)
			continue
		}
		summaries = append(summaries, page.Summary())
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Slug < summaries[j].Slug })
	return summaries, nil
}

func containsSlug(slugs []string, slug string) bool {
	for _, s := range slugs {
		if s == slug {
			return true
		}
	}
	return false
}

func removeSlug(slugs []string, slug string) []string {
	out := slugs[:0]
	for _, s := range slugs {
		if s != slug {
			out = append(out, s)
		}
	}
	return out
}
