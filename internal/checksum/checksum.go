package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// TitleHash fingerprints a headline for deduplication: SHA256 of the title
// with surrounding whitespace removed. Case and inner whitespace are kept.
func (g *Generator) TitleHash(title string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(title)))
	return hex.EncodeToString(sum[:])
}

// GenerateContentHash fingerprints a stored record row:
// SHA256(title|description|picture|date_iso).
func (g *Generator) GenerateContentHash(title, description, picture string, date time.Time) string {
	dateISO := date.Format("2006-01-02")
	content := fmt.Sprintf("%s|%s|%s|%s", title, description, picture, dateISO)
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}
