package biz

import (
	"bytes"
	"context"
	"io"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/lk2023060901/media-path/internal/pkg/errors"
	"github.com/lk2023060901/media-path/internal/pkg/logger"
)

func newObservedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.Wrap(zap.New(core)), logs
}

type testAccount struct {
	id    string
	perms []string
}

func (a testAccount) ID() string                   { return a.id }
func (a testAccount) HasPermission(p string) bool { return slices.Contains(a.perms, p) }

type memMediaRepo struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]*Media
}

func newMemMediaRepo() *memMediaRepo {
	return &memMediaRepo{rows: map[uint]*Media{}}
}

func (r *memMediaRepo) Get(_ context.Context, id uint) (*Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.rows[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrMediaNotFound)
	}
	cp := *m
	return &cp, nil
}

func (r *memMediaRepo) Create(_ context.Context, m *Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	m.CreatedAt = time.Now()
	m.UpdatedAt = m.CreatedAt
	cp := *m
	r.rows[m.ID] = &cp
	return nil
}

func (r *memMediaRepo) Update(_ context.Context, m *Media) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[m.ID]; !ok {
		return apperrors.New(apperrors.ErrMediaNotFound)
	}
	m.UpdatedAt = time.Now()
	cp := *m
	r.rows[m.ID] = &cp
	return nil
}

func (r *memMediaRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *memMediaRepo) List(_ context.Context, bundle string, _, _ int) ([]*Media, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Media
	for _, m := range r.rows {
		if bundle == "" || m.Bundle == bundle {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

// put stores m under a fixed id.
func (r *memMediaRepo) put(m *Media) {
	r.rows[m.ID] = m
	if m.ID > r.nextID {
		r.nextID = m.ID
	}
}

type memFileRepo struct {
	nextID uint
	rows   map[uint]*File
}

func newMemFileRepo() *memFileRepo {
	return &memFileRepo{rows: map[uint]*File{}}
}

func (r *memFileRepo) Get(_ context.Context, id uint) (*File, error) {
	f, ok := r.rows[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrMediaFileUnloadable)
	}
	return f, nil
}

func (r *memFileRepo) Create(_ context.Context, f *File) error {
	r.nextID++
	f.ID = r.nextID
	r.rows[f.ID] = f
	return nil
}

func (r *memFileRepo) put(f *File) {
	r.rows[f.ID] = f
	if f.ID > r.nextID {
		r.nextID = f.ID
	}
}

type memTypeRepo struct {
	rows  map[string]*MediaType
	loads int
}

func newMemTypeRepo(types ...*MediaType) *memTypeRepo {
	r := &memTypeRepo{rows: map[string]*MediaType{}}
	for _, t := range types {
		r.rows[t.ID] = t
	}
	return r
}

func (r *memTypeRepo) Get(_ context.Context, id string) (*MediaType, error) {
	r.loads++
	t, ok := r.rows[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrMediaTypeNotFound)
	}
	return t, nil
}

func (r *memTypeRepo) Save(_ context.Context, mt *MediaType) error {
	r.rows[mt.ID] = mt
	return nil
}

func (r *memTypeRepo) List(_ context.Context) ([]*MediaType, error) {
	var out []*MediaType
	for _, t := range r.rows {
		out = append(out, t)
	}
	return out, nil
}

type memAliasRepo struct {
	nextID uint
	rows   map[uint]*AliasMapping
}

func newMemAliasRepo() *memAliasRepo {
	return &memAliasRepo{rows: map[uint]*AliasMapping{}}
}

func (r *memAliasRepo) sorted() []*AliasMapping {
	out := make([]*AliasMapping, 0, len(r.rows))
	for _, a := range r.rows {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memAliasRepo) PathByAlias(_ context.Context, alias, langcode string) (string, bool, error) {
	for _, a := range r.sorted() {
		if a.Alias == alias && a.Langcode == langcode {
			return a.Path, true, nil
		}
	}
	return "", false, nil
}

func (r *memAliasRepo) Get(_ context.Context, id uint) (*AliasMapping, error) {
	a, ok := r.rows[id]
	if !ok {
		return nil, apperrors.New(apperrors.ErrNotFound)
	}
	cp := *a
	return &cp, nil
}

func (r *memAliasRepo) FindByPath(_ context.Context, path, langcode string) ([]*AliasMapping, error) {
	var out []*AliasMapping
	for _, a := range r.sorted() {
		if a.Path == path && (langcode == "" || a.Langcode == langcode) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memAliasRepo) FindByAlias(_ context.Context, alias string) ([]*AliasMapping, error) {
	var out []*AliasMapping
	for _, a := range r.sorted() {
		if a.Alias == alias {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memAliasRepo) Create(_ context.Context, a *AliasMapping) error {
	r.nextID++
	a.ID = r.nextID
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *memAliasRepo) Update(_ context.Context, a *AliasMapping) error {
	cp := *a
	r.rows[a.ID] = &cp
	return nil
}

func (r *memAliasRepo) Delete(_ context.Context, mappings ...*AliasMapping) error {
	for _, a := range mappings {
		delete(r.rows, a.ID)
	}
	return nil
}

func (r *memAliasRepo) List(_ context.Context, _, _ int) ([]*AliasMapping, int64, error) {
	out := r.sorted()
	return out, int64(len(out)), nil
}

type memStorage struct {
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Stat(_ context.Context, uri string) (*ObjectInfo, error) {
	b, ok := s.objects[uri]
	if !ok {
		return nil, apperrors.New(apperrors.ErrMediaFileAbsent)
	}
	return &ObjectInfo{Size: int64(len(b))}, nil
}

type nopSeekCloser struct{ *bytes.Reader }

func (nopSeekCloser) Close() error { return nil }

func (s *memStorage) Open(ctx context.Context, uri string) (io.ReadSeekCloser, *ObjectInfo, error) {
	info, err := s.Stat(ctx, uri)
	if err != nil {
		return nil, nil, err
	}
	return nopSeekCloser{bytes.NewReader(s.objects[uri])}, info, nil
}

func (s *memStorage) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	uri := "public://uploads/" + name
	s.objects[uri] = b
	return uri, nil
}

type mapCache struct {
	m map[string][]string
}

func newMapCache() *mapCache {
	return &mapCache{m: map[string][]string{}}
}

func (c *mapCache) Get(bundle string) ([]string, bool) {
	v, ok := c.m[bundle]
	return v, ok
}

func (c *mapCache) Set(bundle string, exts []string) { c.m[bundle] = exts }
func (c *mapCache) Invalidate(bundle string)         { delete(c.m, bundle) }

// fixture wires the biz layer over in-memory stores.
type fixture struct {
	media     *memMediaRepo
	files     *memFileRepo
	types     *memTypeRepo
	aliases   *memAliasRepo
	storage   *memStorage
	cache     *mapCache
	validator *ExtensionValidator
	sync      *PathSynchronizer
	resolver  *Resolver
	uc        *MediaUseCase
	logs      *observer.ObservedLogs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, logs := newObservedLogger()

	f := &fixture{
		media:   newMemMediaRepo(),
		files:   newMemFileRepo(),
		types:   newMemTypeRepo(&MediaType{ID: "document", Label: "Document", SourceField: "field_media_document", FileExtensions: "txt pdf doc docx xls xlsx zip"}),
		aliases: newMemAliasRepo(),
		storage: newMemStorage(),
		cache:   newMapCache(),
		logs:    logs,
	}
	f.validator = NewExtensionValidator(f.types, f.files, f.cache, false, log)
	f.sync = NewPathSynchronizer(f.aliases, log)
	f.resolver = NewResolver(f.aliases, f.media, f.types, f.files, f.storage, ResolverConfig{EditMarker: "edit-media", DefaultLangcode: "en"}, log)
	f.uc = NewMediaUseCase(f.media, f.files, f.types, f.aliases, f.storage, f.validator, f.sync, "en", log)
	return f
}

// seedDocument stores a document media with a file named filename. When
// stored is false the object is missing from storage.
func (f *fixture) seedDocument(id uint, filename string, stored bool) *Media {
	file := &File{ID: id * 10, URI: "public://docs/" + filename, Filename: filename, MIME: "application/pdf", Size: 4}
	f.files.put(file)
	if stored {
		f.storage.objects[file.URI] = []byte("%PDF")
	}
	m := &Media{
		ID:       id,
		Bundle:   "document",
		Name:     filename,
		Langcode: "en",
		OwnerID:  "owner",
		Fields:   map[string]uint{"field_media_document": file.ID},
	}
	f.media.put(m)
	return m
}

var editor = testAccount{id: "editor", perms: []string{
	"create document media",
	"edit any document media",
	"delete any document media",
	AdministerMediaTypesPermission,
}}
