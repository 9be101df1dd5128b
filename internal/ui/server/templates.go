package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Its-donkey/climbcam-live/internal/ui/config"
	"github.com/Its-donkey/climbcam-live/internal/ui/i18n"
)

const pageTemplateName = "page.tmpl"

//go:embed templates/page.tmpl
var embeddedTemplates embed.FS

// RequiredElementIDs are the elements the page runtime binds to.
var RequiredElementIDs = []string{"payBtn", "payBtn2", "statusMsg", "statusMsg2"}

// ErrPageContract reports a page template that lacks a required element.
var ErrPageContract = errors.New("page template violates DOM contract")

// pageData feeds page.tmpl.
type pageData struct {
	Lang        string
	Title       string
	Description string
	AssetPrefix string
	HLSScript   string
	Year        int
	Attrs       map[string]string
	Labels      i18n.Catalog
}

// templateStore holds the parsed page template and swaps it when the file on
// disk changes.
type templateStore struct {
	mu     sync.RWMutex
	tmpl   *template.Template
	path   string
	logger zerolog.Logger
}

// newTemplateStore loads page.tmpl from dir when present, otherwise the
// embedded copy. Either way the template must render a page that satisfies
// the DOM contract.
func newTemplateStore(dir string, logger zerolog.Logger) (*templateStore, error) {
	store := &templateStore{logger: logger}
	if dir = strings.TrimSpace(dir); dir != "" {
		candidate := filepath.Join(dir, pageTemplateName)
		if _, err := os.Stat(candidate); err == nil {
			store.path = candidate
		}
	}
	if err := store.load(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *templateStore) load() error {
	var (
		tmpl *template.Template
		err  error
	)
	if s.path != "" {
		tmpl, err = template.New(pageTemplateName).ParseFiles(s.path)
	} else {
		tmpl, err = template.New(pageTemplateName).ParseFS(embeddedTemplates, "templates/"+pageTemplateName)
	}
	if err != nil {
		return fmt.Errorf("parse page template: %w", err)
	}
	if err := checkTemplate(tmpl); err != nil {
		return err
	}
	s.mu.Lock()
	s.tmpl = tmpl
	s.mu.Unlock()
	return nil
}

func (s *templateStore) render(data pageData) ([]byte, error) {
	s.mu.RLock()
	tmpl := s.tmpl
	s.mu.RUnlock()

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, pageTemplateName, data); err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

// watch reloads the template on write until ctx is done. A template that
// fails to parse or validate is logged and the previous one kept.
func (s *templateStore) watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch templates: %w", err)
	}

	go func() {
		defer watcher.Close()
		var debounce *time.Timer
		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(s.path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(200*time.Millisecond, func() {
					if err := s.load(); err != nil {
						s.logger.Error().Err(err).Str("path", s.path).Msg("page template reload failed")
						return
					}
					s.logger.Info().Str("path", s.path).Msg("page template reloaded")
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn().Err(err).Msg("template watcher error")
			}
		}
	}()
	return nil
}

// checkTemplate renders tmpl with default data and validates the result.
func checkTemplate(tmpl *template.Template) error {
	var buf bytes.Buffer
	data := pageData{
		Lang:   "pt-BR",
		Attrs:  config.DefaultPage(config.VariantPrimary).Attributes(),
		Labels: i18n.PortugueseBR,
	}
	if err := tmpl.ExecuteTemplate(&buf, pageTemplateName, data); err != nil {
		return fmt.Errorf("render page template: %w", err)
	}
	return ValidatePage(buf.Bytes())
}

// ValidatePage checks that the rendered HTML exposes every element the page
// runtime binds to, plus the body configuration attributes.
func ValidatePage(html []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return fmt.Errorf("parse page: %w", err)
	}
	var missing []string
	for _, id := range RequiredElementIDs {
		if doc.Find("#"+id).Length() != 1 {
			missing = append(missing, "#"+id)
		}
	}
	for _, id := range []string{"payBtn", "payBtn2"} {
		if sel := doc.Find("#" + id); sel.Length() == 1 && goquery.NodeName(sel) != "button" {
			missing = append(missing, "button#"+id)
		}
	}
	if _, ok := doc.Find("body").Attr(config.AttrVariant); !ok {
		missing = append(missing, "body["+config.AttrVariant+"]")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrPageContract, strings.Join(missing, ", "))
	}
	return nil
}
