package scraper

// CrawlState is the accumulator of a single engine run. Nothing outside the
// run that created it reads or mutates it.
type CrawlState struct {
	seen      map[string]struct{}
	hashes    []string // hash of records[i]
	records   []Record
	firstPage bool
	stop      bool
}

func newCrawlState(capacity int) *CrawlState {
	// The cap is caller-controlled; only a small prefix is preallocated.
	capacity = max(0, min(capacity, 64))
	return &CrawlState{
		seen:      make(map[string]struct{}, capacity),
		records:   make([]Record, 0, capacity),
		hashes:    make([]string, 0, capacity),
		firstPage: true,
	}
}

// reserve marks hash as seen. It returns false if it already was.
func (s *CrawlState) reserve(hash string) bool {
	if _, ok := s.seen[hash]; ok {
		return false
	}
	s.seen[hash] = struct{}{}
	return true
}

// release undoes reserve for an entry that was not recorded.
func (s *CrawlState) release(hash string) {
	delete(s.seen, hash)
}

func (s *CrawlState) append(hash string, rec Record) {
	s.hashes = append(s.hashes, hash)
	s.records = append(s.records, rec)
}

// discardRecords drops everything collected so far, together with the hashes
// reserved for it, so a re-read of the page can collect the entries again.
func (s *CrawlState) discardRecords() int {
	n := len(s.records)
	for _, h := range s.hashes {
		delete(s.seen, h)
	}
	s.hashes = s.hashes[:0]
	s.records = s.records[:0]
	return n
}

func (s *CrawlState) len() int {
	return len(s.records)
}

// Records returns a copy of the collected records in discovery order.
func (s *CrawlState) Records() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
