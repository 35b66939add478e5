package catalog

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/pritechvior/project-wizard/internal/backend"
	"github.com/pritechvior/project-wizard/internal/models"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrTemplateNotFound is returned when no requestable template matches
var ErrTemplateNotFound = errors.New("project template not found")

// Source is the subset of the backend client the loader reads from
type Source interface {
	GetProjectCategories(ctx context.Context) ([]models.Category, error)
	GetTechnologyStacks(ctx context.Context) ([]models.TechnologyStack, error)
	GetServicePackages(ctx context.Context, ut models.UserType) ([]models.ServicePackage, error)
	GetCourseCategories(ctx context.Context) ([]models.CourseCategory, error)
	GetProjectTemplates(ctx context.Context, params url.Values) ([]models.ProjectTemplate, error)
	GetProjectTemplate(ctx context.Context, slug string) (*models.ProjectTemplate, error)
}

// Defaults are the fallback lists for endpoints the backend does not expose
type Defaults struct {
	Categories       []models.Category       `yaml:"categories"`
	CourseCategories []models.CourseCategory `yaml:"course_categories"`
}

// DefaultLists returns the embedded fallback lists
func DefaultLists() Defaults {
	var d Defaults
	if err := yaml.Unmarshal(defaultsYAML, &d); err != nil {
		panic(fmt.Sprintf("invalid embedded catalog defaults: %v", err))
	}
	return d
}

// Config configures the loader
type Config struct {
	// TTL of a fully loaded entry
	TTL time.Duration
	// DegradedTTL of an entry that had fetch failures
	DegradedTTL time.Duration
	// Hardware is the static hardware table attached to every load
	Hardware []models.HardwareItem
	Defaults *Defaults
}

type entry struct {
	data    *models.ReferenceData
	notices []models.Notice
	expires time.Time
}

// Loader fetches and caches reference data per user type
type Loader struct {
	source   Source
	cfg      Config
	defaults Defaults

	mu    sync.RWMutex
	cache map[models.UserType]*entry
	now   func() time.Time
}

// NewLoader creates a loader reading from source
func NewLoader(source Source, cfg Config) *Loader {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.DegradedTTL <= 0 {
		cfg.DegradedTTL = 30 * time.Second
	}
	d := DefaultLists()
	if cfg.Defaults != nil {
		d = *cfg.Defaults
	}
	return &Loader{
		source:   source,
		cfg:      cfg,
		defaults: d,
		cache:    make(map[models.UserType]*entry),
		now:      time.Now,
	}
}

// Load returns reference data for a user type, fetching it when the cache
// entry is missing or stale. It never fails: fetch errors become notices
// and leave the affected array empty.
func (l *Loader) Load(ctx context.Context, ut models.UserType) (*models.ReferenceData, []models.Notice) {
	l.mu.RLock()
	e, ok := l.cache[ut]
	l.mu.RUnlock()

	if ok && l.now().Before(e.expires) {
		return e.data, e.notices
	}
	return l.Refresh(ctx, ut)
}

// Refresh fetches reference data and replaces the cache entry
func (l *Loader) Refresh(ctx context.Context, ut models.UserType) (*models.ReferenceData, []models.Notice) {
	data, notices := l.fetch(ctx, ut)

	ttl := l.cfg.TTL
	if hasErrors(notices) {
		ttl = l.cfg.DegradedTTL
	}

	// a cancelled caller must not poison the cache
	if ctx.Err() == nil {
		l.mu.Lock()
		l.cache[ut] = &entry{data: data, notices: notices, expires: l.now().Add(ttl)}
		l.mu.Unlock()
	}

	return data, notices
}

// RefreshAll re-fetches every cached user type
func (l *Loader) RefreshAll(ctx context.Context) int {
	types := l.Cached()
	for _, ut := range types {
		if ctx.Err() != nil {
			break
		}
		_, notices := l.Refresh(ctx, ut)
		if hasErrors(notices) {
			slog.Warn("reference data refreshed with errors", "user_type", ut, "notices", len(notices))
		}
	}
	return len(types)
}

// Cached returns the user types with a cache entry
func (l *Loader) Cached() []models.UserType {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]models.UserType, 0, len(l.cache))
	for ut := range l.cache {
		result = append(result, ut)
	}
	return result
}

// Invalidate drops every cache entry
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[models.UserType]*entry)
}

// Template resolves a requestable template by id or slug, first from the
// loaded list and then directly from the backend.
func (l *Loader) Template(ctx context.Context, ut models.UserType, idOrSlug string) (*models.ProjectTemplate, error) {
	data, _ := l.Load(ctx, ut)
	if t, ok := data.Template(idOrSlug); ok {
		return &t, nil
	}

	tmpl, err := l.source.GetProjectTemplate(ctx, idOrSlug)
	if err != nil {
		if backend.IsNotFound(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to fetch template: %w", err)
	}
	return tmpl, nil
}

// fetch issues every reference request in parallel and waits for all of them
func (l *Loader) fetch(ctx context.Context, ut models.UserType) (*models.ReferenceData, []models.Notice) {
	data := &models.ReferenceData{
		UserType:         ut,
		Categories:       []models.Category{},
		Technologies:     []models.TechnologyStack{},
		ServicePackages:  []models.ServicePackage{},
		CourseCategories: []models.CourseCategory{},
		Templates:        []models.ProjectTemplate{},
		Hardware:         l.cfg.Hardware,
	}
	if data.Hardware == nil {
		data.Hardware = []models.HardwareItem{}
	}

	var mu sync.Mutex
	var notices []models.Notice
	fail := func(source string, err error) {
		mu.Lock()
		defer mu.Unlock()
		slog.Warn("reference data fetch failed", "source", source, "user_type", ut, "error", err)
		notices = append(notices, models.NewNotice(models.NoticeError, source,
			fmt.Sprintf("Failed to load %s", source)))
	}
	missing := func(source string) {
		slog.Debug("reference endpoint missing, using defaults", "source", source)
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		items, err := l.source.GetProjectCategories(egCtx)
		switch {
		case err == nil:
			data.Categories = items
		case backend.IsNotFound(err):
			missing("categories")
			data.Categories = append([]models.Category{}, l.defaults.Categories...)
		default:
			fail("categories", err)
		}
		return nil
	})

	eg.Go(func() error {
		items, err := l.source.GetTechnologyStacks(egCtx)
		switch {
		case err == nil:
			data.Technologies = items
		case backend.IsNotFound(err):
			missing("technologies")
		default:
			fail("technologies", err)
		}
		return nil
	})

	eg.Go(func() error {
		items, err := l.source.GetServicePackages(egCtx, ut)
		switch {
		case err == nil:
			data.ServicePackages = items
		case backend.IsNotFound(err):
			missing("service packages")
		default:
			fail("service packages", err)
		}
		return nil
	})

	if ut == models.UserStudent {
		eg.Go(func() error {
			items, err := l.source.GetCourseCategories(egCtx)
			switch {
			case err == nil:
				data.CourseCategories = items
			case backend.IsNotFound(err):
				missing("course categories")
				data.CourseCategories = append([]models.CourseCategory{}, l.defaults.CourseCategories...)
			default:
				fail("course categories", err)
			}
			return nil
		})
	}

	eg.Go(func() error {
		items, err := l.source.GetProjectTemplates(egCtx, url.Values{"user_type": {string(ut)}})
		switch {
		case err == nil:
			data.Templates = items
		case backend.IsNotFound(err):
			missing("project templates")
		default:
			fail("project templates", err)
		}
		return nil
	})

	// every goroutine reports through notices, so Wait cannot fail
	_ = eg.Wait()

	slog.Debug("reference data loaded",
		"user_type", ut,
		"categories", len(data.Categories),
		"technologies", len(data.Technologies),
		"service_packages", len(data.ServicePackages),
		"course_categories", len(data.CourseCategories),
		"templates", len(data.Templates),
		"notices", len(notices),
	)

	return data, notices
}

func hasErrors(notices []models.Notice) bool {
	for _, n := range notices {
		if n.Level == models.NoticeError {
			return true
		}
	}
	return false
}
