// Package normalize maps raw, source-specific job records into the
// canonical schema. The identity ladder here defines what counts as "the
// same job" across crawls, so its order is fixed: posting id, then
// requisition id, then the apply-URL path segment, then a hash of the whole
// record. An apply-URL change alone must never mint a new canonical id when
// a stable posting id exists upstream.
package normalize

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"jobfeed-engine/internal/country"
	"jobfeed-engine/internal/domain"
)

// ErrInvalidRecord marks records dropped by validation. They are counted by
// the caller, never propagated as malformed jobs.
var ErrInvalidRecord = errors.New("invalid raw record")

// Raw is the connector-agnostic intermediate every connector fills in
// before normalization.
type Raw struct {
	Source        string
	PostingID     string
	RequisitionID string
	Title         string
	ApplyURL      string
	SourceURL     string
	Locations     []string
	PostedAt      *time.Time
	UpdatedAt     *time.Time
	Description   string
	// Payload is the decoded source record; only hashed when no other
	// identity can be derived.
	Payload any
}

// HashString returns a hex sha256 digest. Stable forever; canonical ids
// depend on it.
func HashString(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// CanonicalID derives the deduplication key from source + external id.
func CanonicalID(source, externalID string) string {
	return HashString(source + ":" + externalID)
}

// Job normalizes one raw record for the given company. Records that fail
// validation are rejected with ErrInvalidRecord.
func Job(raw Raw, co domain.Company) (domain.NormalizedJob, error) {
	externalID := externalID(raw)

	j := domain.NormalizedJob{
		Source:      strings.TrimSpace(raw.Source),
		ExternalID:  externalID,
		CompanyID:   co.ID,
		CompanyName: strings.TrimSpace(co.Name),
		Title:       CleanText(raw.Title),
		ApplyURL:    strings.TrimSpace(raw.ApplyURL),
		SourceURL:   strings.TrimSpace(raw.SourceURL),
		PostedAt:    raw.PostedAt,
		UpdatedAt:   raw.UpdatedAt,
		Description: raw.Description,
	}
	for _, loc := range raw.Locations {
		if l := NormalizeLocation(loc); l != "" {
			j.Locations = append(j.Locations, l)
		}
	}

	cls := country.Classify(j.Locations)
	j.Countries = cls.Countries
	j.PrimaryCountry = cls.Primary
	if j.PrimaryCountry == domain.CountryUnknown && co.Country != "" {
		j.PrimaryCountry = co.Country
		j.Countries = []string{co.Country}
	}

	j.CanonicalID = CanonicalID(j.Source, j.ExternalID)

	if err := validate(j); err != nil {
		return domain.NormalizedJob{}, err
	}
	return j, nil
}

// externalID walks the identity ladder. The whole-record hash at the bottom
// guarantees an id is always producible.
func externalID(raw Raw) string {
	if id := strings.TrimSpace(raw.PostingID); id != "" {
		return id
	}
	if id := strings.TrimSpace(raw.RequisitionID); id != "" {
		return id
	}
	if seg := applyURLSegment(raw.ApplyURL); seg != "" {
		return seg
	}
	return payloadHash(raw)
}

func applyURLSegment(applyURL string) string {
	applyURL = strings.TrimSpace(applyURL)
	if applyURL == "" {
		return ""
	}
	u, err := url.Parse(applyURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(segs) - 1; i >= 0; i-- {
		if s := strings.TrimSpace(segs[i]); s != "" {
			return s
		}
	}
	return ""
}

func payloadHash(raw Raw) string {
	if raw.Payload != nil {
		if b, err := json.Marshal(raw.Payload); err == nil {
			return HashString(string(b))
		}
	}
	return HashString(strings.Join([]string{raw.Source, raw.Title, raw.SourceURL, strings.Join(raw.Locations, "|")}, "\x00"))
}

func validate(j domain.NormalizedJob) error {
	missing := ""
	switch {
	case j.CanonicalID == "":
		missing = "canonical_job_id"
	case j.Source == "":
		missing = "source"
	case j.ExternalID == "":
		missing = "external_id"
	case j.CompanyID == "":
		missing = "company_id"
	case j.CompanyName == "":
		missing = "company_name"
	case j.Title == "":
		missing = "title"
	}
	if missing != "" {
		return fmt.Errorf("%w: missing %s", ErrInvalidRecord, missing)
	}
	return nil
}
