package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/Veraticus/concierge/internal/common"
	"github.com/Veraticus/concierge/internal/model"
)

// DocumentSource reads OCR extractions.
type DocumentSource interface {
	GetDocumentExtraction(ctx context.Context, documentID string) (*model.DocumentExtraction, error)
	GetLatestDocumentExtraction(ctx context.Context, entityType model.EntityType, entityID string) (*model.DocumentExtraction, error)
}

// DocumentScreen compares an identity document's extraction against the entity.
type DocumentScreen struct {
	docs   DocumentSource
	logger *slog.Logger
	now    func() time.Time
}

// NewDocumentScreen creates the screen.
func NewDocumentScreen(docs DocumentSource, logger *slog.Logger) *DocumentScreen {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentScreen{docs: docs, logger: logger, now: time.Now}
}

// applies reports whether the request involves a document.
func (s *DocumentScreen) applies(req CheckRequest) bool {
	return req.DocumentID != "" || req.Trigger == triggerDocumentUploaded
}

// Run adds document findings to f. A missing document is not an error; the
// entity simply stays unverified.
func (s *DocumentScreen) Run(ctx context.Context, e model.Entity, req CheckRequest, f *findings) error {
	if !s.applies(req) {
		return nil
	}

	doc, err := s.load(ctx, e, req)
	if errors.Is(err, common.ErrNotFound) {
		s.logger.Info("no document extraction to check",
			"entity_type", e.Type,
			"entity_id", e.ID,
			"document_id", req.DocumentID)
		return nil
	}
	if err != nil {
		return err
	}
	if doc.EntityType != e.Type || doc.EntityID != e.ID {
		return common.Validationf("document %s does not belong to %s %s", doc.DocumentID, e.Type, e.ID)
	}

	s.checkName(e, doc, f)
	s.checkExpiry(doc, f)
	checkConfidence(doc, f)
	return nil
}

func (s *DocumentScreen) load(ctx context.Context, e model.Entity, req CheckRequest) (*model.DocumentExtraction, error) {
	if req.DocumentID != "" {
		return s.docs.GetDocumentExtraction(ctx, req.DocumentID)
	}
	return s.docs.GetLatestDocumentExtraction(ctx, e.Type, e.ID)
}

func (s *DocumentScreen) checkName(e model.Entity, doc *model.DocumentExtraction, f *findings) {
	field, ok := doc.Field("full_name")
	if !ok {
		field, ok = doc.Field("name")
	}
	if !ok || field.Value == "" {
		return
	}

	similarity, matched := namesMatch(e.Name, field.Value)
	if matched {
		return
	}

	f.addFactor("document_name_mismatch",
		fmt.Sprintf("Name on %s does not match the registered name", doc.DocumentType),
		model.SeverityMedium, nameMismatchImpact)
	f.addAlert(model.AmlAlert{
		AlertType:   model.AlertDocumentDiscrepancy,
		Severity:    model.SeverityMedium,
		Title:       "Document name mismatch",
		Description: fmt.Sprintf("Registered name %q differs from document name %q", e.Name, field.Value),
		Source:      documentCheckSource,
		MatchScore:  similarity,
		MatchDetails: matchDetails(map[string]any{
			"document_id":     doc.DocumentID,
			"registered_name": e.Name,
			"document_name":   field.Value,
		}),
	})
}

func (s *DocumentScreen) checkExpiry(doc *model.DocumentExtraction, f *findings) {
	if doc.ExpiryDate == nil {
		return
	}

	now := s.now()
	switch {
	case doc.ExpiryDate.Before(now):
		f.addFactor("document_expired",
			fmt.Sprintf("Document expired on %s", doc.ExpiryDate.Format(time.DateOnly)),
			model.SeverityMedium, expiredImpact)
	case doc.ExpiryDate.Sub(now) <= expiryWarningWindow:
		f.addFactor("document_expiring",
			fmt.Sprintf("Document expires on %s", doc.ExpiryDate.Format(time.DateOnly)),
			model.SeverityLow, expiringSoonImpact)
	}
}

func checkConfidence(doc *model.DocumentExtraction, f *findings) {
	low := 0
	for _, field := range doc.Fields {
		if field.Confidence < minFieldConfidence {
			low++
		}
	}

	if low > maxLowConfidenceFields {
		f.addFactor("document_quality",
			fmt.Sprintf("%d fields were extracted with low confidence", low),
			model.SeverityLow, lowConfidenceImpact)
	}
	f.documentsVerified = len(doc.Fields) > 0 && low == 0
}

// normalizeName lowercases and drops everything but letters and digits.
func normalizeName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// namesMatch reports whether two names refer to the same person: equal or contained
// after normalization, or within an edit distance of 20% of the longer name.
// The similarity is 1 minus the relative edit distance.
func namesMatch(a, b string) (float64, bool) {
	na, nb := normalizeName(a), normalizeName(b)
	if na == "" || nb == "" {
		return 0, false
	}
	if na == nb || strings.Contains(na, nb) || strings.Contains(nb, na) {
		return 1, true
	}

	ra, rb := []rune(na), []rune(nb)
	longer := max(len(ra), len(rb))
	distance := levenshtein(ra, rb)
	similarity := 1 - float64(distance)/float64(longer)
	return similarity, float64(distance) <= nameMismatchTolerance*float64(longer)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
