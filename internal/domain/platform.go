package domain

// PlatformTag is the closed set of careers-site platforms the engine knows
// how to recognize. Adding a platform means adding a tag here, a signature
// in internal/platform, and a connector registration in one place.
type PlatformTag string

const (
	PlatformGreenhouse     PlatformTag = "greenhouse"
	PlatformEmply          PlatformTag = "emply"
	PlatformWorkday        PlatformTag = "workday"
	PlatformLever          PlatformTag = "lever"
	PlatformSuccessFactors PlatformTag = "successfactors"
	PlatformUnknown        PlatformTag = "unknown"
)

// Availability classifies whether ordinary ingestion applies to a company.
type Availability string

const (
	AvailabilityAvailable       Availability = "available"
	AvailabilityBlocked         Availability = "blocked"
	AvailabilityNeedsOnboarding Availability = "needs_onboarding"
)

// CompanyStatus is derived, never stored: recomputed from company config
// plus live platform detection whenever it is queried.
type CompanyStatus struct {
	CompanyID   string       `json:"company_id"`
	CompanyName string       `json:"company_name"`
	Platform    PlatformTag  `json:"platform"`
	Available   bool         `json:"available"`
	Status      Availability `json:"status"`
	Message     string       `json:"message"`
	Fallback    string       `json:"fallback_type,omitempty"`
}
