package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type fakeEntry struct {
	fields map[Field]string
	errs   map[Field]error
	// staleOnce makes the first read of the field fail as stale.
	staleOnce map[Field]bool
}

func newsEntry(title, published string) *fakeEntry {
	return &fakeEntry{
		fields: map[Field]string{
			FieldHeadline:    title,
			FieldDate:        published,
			FieldDescription: "About " + title,
		},
	}
}

func (e *fakeEntry) with(field Field, value string) *fakeEntry {
	e.fields[field] = value
	return e
}

func (e *fakeEntry) failing(field Field, err error) *fakeEntry {
	if e.errs == nil {
		e.errs = map[Field]error{}
	}
	e.errs[field] = err
	return e
}

func (e *fakeEntry) staleOnFirstRead(field Field) *fakeEntry {
	if e.staleOnce == nil {
		e.staleOnce = map[Field]bool{}
	}
	e.staleOnce[field] = true
	return e
}

func (e *fakeEntry) ReadField(_ context.Context, field Field) (string, bool, error) {
	if e.staleOnce[field] {
		e.staleOnce[field] = false
		return "", false, fmt.Errorf("read %s: %w", field, ErrStaleReference)
	}
	if err := e.errs[field]; err != nil {
		return "", false, err
	}
	v, ok := e.fields[field]
	return v, ok, nil
}

type fakeSession struct {
	pages      [][]Entry
	current    int
	entriesErr map[int]error
	advanceErr error
	queryErr   error
	calls      []string
}

func (s *fakeSession) SubmitQuery(_ context.Context, phrase string) error {
	s.calls = append(s.calls, "query:"+phrase)
	return s.queryErr
}

func (s *fakeSession) ApplyCategoryFilters(_ context.Context, categories []string) error {
	s.calls = append(s.calls, "filters")
	return nil
}

func (s *fakeSession) SortNewestFirst(context.Context) error {
	s.calls = append(s.calls, "sort")
	return nil
}

func (s *fakeSession) CurrentPageEntries(context.Context) ([]Entry, error) {
	s.calls = append(s.calls, fmt.Sprintf("entries:%d", s.current))
	if err := s.entriesErr[s.current]; err != nil {
		return nil, err
	}
	if s.current >= len(s.pages) {
		return nil, nil
	}
	return s.pages[s.current], nil
}

func (s *fakeSession) AdvancePage(context.Context) (bool, error) {
	s.calls = append(s.calls, "advance")
	if s.advanceErr != nil {
		return false, s.advanceErr
	}
	if s.current+1 >= len(s.pages) {
		return false, nil
	}
	s.current++
	return true, nil
}

func (s *fakeSession) advances() int {
	n := 0
	for _, c := range s.calls {
		if c == "advance" {
			n++
		}
	}
	return n
}

type fakeFetcher struct {
	bodies map[string][]byte
	err    error
	gets   []string
}

func (f *fakeFetcher) Get(_ context.Context, rawURL string) ([]byte, error) {
	f.gets = append(f.gets, rawURL)
	if f.err != nil {
		return nil, f.err
	}
	if b, ok := f.bodies[rawURL]; ok {
		return b, nil
	}
	return []byte("img:" + rawURL), nil
}

type memoryImages struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (m *memoryImages) Save(name string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.files == nil {
		m.files = map[string][]byte{}
	}
	m.files[name] = data
	return nil
}

var errNetwork = errors.New("connection refused")
