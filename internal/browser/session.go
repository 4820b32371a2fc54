package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/cdp"
	"github.com/go-rod/rod/lib/proto"

	"rpa-news-robot/internal/config"
	"rpa-news-robot/internal/observability"
	"rpa-news-robot/internal/scraper"
)

// Session drives the site's search page. It implements scraper.Session.
type Session struct {
	page           *rod.Page
	selectors      *scraper.Selectors
	clean          func(string) string
	elementTimeout time.Duration
	waitStable     time.Duration
	logger         *observability.Logger
}

func newSession(page *rod.Page, selectors *scraper.Selectors, clean func(string) string, cfg *config.Config, logger *observability.Logger) *Session {
	if clean == nil {
		clean = strings.TrimSpace
	}
	return &Session{
		page:           page,
		selectors:      selectors,
		clean:          clean,
		elementTimeout: cfg.GetBrowserElementTimeout(),
		waitStable:     cfg.GetBrowserWaitStable(),
		logger:         logger.With("component", "session"),
	}
}

// DismissCookieBanner closes the consent dock if the site shows one.
func (s *Session) DismissCookieBanner(ctx context.Context) {
	if s.selectors.CookieBanner == "" {
		return
	}
	has, el, err := s.page.Context(ctx).Has(s.selectors.CookieBanner)
	if err != nil || !has {
		return
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		s.logger.Debug("Cookie banner not dismissed", "error", err.Error())
		return
	}
	s.logger.Info("Cookie banner dismissed")
}

func (s *Session) SubmitQuery(ctx context.Context, phrase string) error {
	s.DismissCookieBanner(ctx)

	s.logger.Info("Searching", "phrase", phrase)
	if err := s.click(ctx, s.selectors.SearchButton); err != nil {
		return fmt.Errorf("open search: %w", err)
	}

	input, err := s.element(ctx, s.selectors.SearchInput)
	if err != nil {
		return fmt.Errorf("search input: %w", err)
	}
	if err := input.Input(phrase); err != nil {
		return fmt.Errorf("type phrase: %w", err)
	}

	if err := s.click(ctx, s.selectors.SearchSubmit); err != nil {
		return fmt.Errorf("submit search: %w", err)
	}
	s.settle(ctx)
	return nil
}

// ApplyCategoryFilters ticks each category in the section filter. A category
// the filter does not list is logged and skipped.
func (s *Session) ApplyCategoryFilters(ctx context.Context, categories []string) error {
	if err := s.click(ctx, s.selectors.SectionButton); err != nil {
		return fmt.Errorf("open section filter: %w", err)
	}

	applied := 0
	for _, category := range categories {
		selector := fmt.Sprintf(s.selectors.CategoryOption, category)
		has, option, err := s.page.Context(ctx).Has(selector)
		if err != nil {
			return classify("find category "+category, err)
		}
		if !has {
			s.logger.Warn("Category not offered, skipping", "category", category)
			continue
		}
		if err := option.Click(proto.InputMouseButtonLeft, 1); err != nil {
			s.logger.Warn("Category not selected", "category", category, "error", err.Error())
			continue
		}
		applied++
	}

	s.logger.Info("Category filters applied", "applied", applied, "requested", len(categories))
	s.settle(ctx)
	return nil
}

func (s *Session) SortNewestFirst(ctx context.Context) error {
	sel, err := s.element(ctx, s.selectors.SortSelect)
	if err != nil {
		return fmt.Errorf("sort control: %w", err)
	}
	value := fmt.Sprintf(`[value=%q]`, s.selectors.SortValue)
	if err := sel.Select([]string{value}, true, rod.SelectorTypeCSSSector); err != nil {
		return fmt.Errorf("select %s: %w", s.selectors.SortValue, err)
	}
	s.settle(ctx)
	return nil
}

func (s *Session) CurrentPageEntries(ctx context.Context) ([]scraper.Entry, error) {
	els, err := s.page.Context(ctx).Elements(s.selectors.EntrySelector)
	if err != nil {
		return nil, classify("list entries", err)
	}

	entries := make([]scraper.Entry, 0, len(els))
	for _, el := range els {
		entries = append(entries, &elementEntry{el: el, selectors: s.selectors, clean: s.clean})
	}
	return entries, nil
}

// AdvancePage clicks "show more". The feed keeps the entries already shown, so
// the next CurrentPageEntries returns them again followed by the new ones.
func (s *Session) AdvancePage(ctx context.Context) (bool, error) {
	has, button, err := s.page.Context(ctx).Has(s.selectors.ShowMore)
	if err != nil {
		return false, classify("find show more", err)
	}
	if !has {
		return false, nil
	}

	button = button.Context(ctx).Timeout(s.elementTimeout)
	defer button.CancelTimeout()
	if err := button.ScrollIntoView(); err != nil {
		return false, classify("scroll to show more", err)
	}
	if err := button.WaitVisible(); err != nil {
		return false, classify("wait for show more", err)
	}
	if err := button.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return false, classify("click show more", err)
	}

	s.settle(ctx)
	return true, nil
}

func (s *Session) element(ctx context.Context, selector string) (*rod.Element, error) {
	el, err := s.page.Context(ctx).Timeout(s.elementTimeout).Element(selector)
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", selector, err)
	}
	return el.CancelTimeout().Context(ctx), nil
}

func (s *Session) click(ctx context.Context, selector string) error {
	el, err := s.element(ctx, selector)
	if err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

// settle waits until the DOM stops changing. A page that never settles is
// read as it is.
func (s *Session) settle(ctx context.Context) {
	if s.waitStable <= 0 {
		return
	}
	if err := s.page.Context(ctx).WaitStable(s.waitStable); err != nil {
		s.logger.Debug("Page did not settle", "error", err.Error())
	}
}

type elementEntry struct {
	el        *rod.Element
	selectors *scraper.Selectors
	clean     func(string) string
}

func (e *elementEntry) ReadField(ctx context.Context, field scraper.Field) (string, bool, error) {
	el := e.el.Context(ctx)
	for _, selector := range e.selectors.FieldSelectors(field) {
		has, found, err := el.Has(selector)
		if err != nil {
			return "", false, classify("read "+field.String(), err)
		}
		if !has {
			continue
		}

		if field == scraper.FieldImageURL {
			return imageSource(found)
		}

		text, err := found.Text()
		if err != nil {
			return "", false, classify("read "+field.String(), err)
		}
		if field == scraper.FieldHeadline {
			// Inner spacing is part of the dedup key.
			return strings.TrimSpace(text), true, nil
		}
		return e.clean(text), true, nil
	}
	return "", false, nil
}

func imageSource(img *rod.Element) (string, bool, error) {
	for _, attr := range []string{"src", "data-src"} {
		v, err := img.Attribute(attr)
		if err != nil {
			return "", false, classify("read image "+attr, err)
		}
		if v != nil && *v != "" {
			return *v, true, nil
		}
	}
	return "", false, nil
}

// isStale reports whether a CDP failure means the element's remote object
// no longer exists in the page.
func isStale(err error) bool {
	return errors.Is(err, cdp.ErrObjNotFound) ||
		errors.Is(err, cdp.ErrCtxNotFound) ||
		errors.Is(err, cdp.ErrCtxDestroyed) ||
		errors.Is(err, &rod.ObjectNotFoundError{})
}

// classify wraps err, marking stale references with scraper.ErrStaleReference.
func classify(op string, err error) error {
	if isStale(err) {
		return fmt.Errorf("%s: %w: %w", op, scraper.ErrStaleReference, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
