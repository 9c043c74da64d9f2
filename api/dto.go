/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the run model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Profiles:
    ProfileSummaryDTO (full profiles are factory.ProfileJSON)

  Runs:
    CreateRunRequest, RunDTO, DiagnosticsDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/profile.go: ProfileJSON type
*/
package api

import (
	"encoding/json"
	"time"

	"github.com/warp/shelf-engine/synth"
)

// =============================================================================
// PROFILE TYPES
// =============================================================================

// ProfileSummaryDTO describes a preset in listings.
type ProfileSummaryDTO struct {
	Name          string `json:"name"`
	MarginRate    string `json:"margin_rate"`
	ImpulsePolicy string `json:"impulse_policy"`
	MinPolicy     string `json:"min_display_policy"`
	NoBrandFees   bool   `json:"no_brand_fees_waived"`
	Levels        int    `json:"levels"`
}

// =============================================================================
// RUN TYPES
// =============================================================================

// CreateRunRequest starts a synthesis run.
//
// Exactly one product source is used: ProductsCSV, or the demo catalog when
// UseDemo is set. Profile names a preset; ProfileJSON supplies an inline
// profile and takes precedence. A missing seed is drawn and recorded.
type CreateRunRequest struct {
	Profile     string          `json:"profile,omitempty"`
	ProfileJSON json.RawMessage `json:"profile_json,omitempty"`
	Seed        *uint64         `json:"seed,omitempty"`
	ProductsCSV string          `json:"products_csv,omitempty"`
	UseDemo     bool            `json:"use_demo,omitempty"`
	SourceName  string          `json:"source_name,omitempty"`
}

// DiagnosticsDTO counts the recovered conditions of a run.
type DiagnosticsDTO struct {
	CapacityViolations    int `json:"capacity_violations"`
	ConfigInconsistencies int `json:"config_inconsistencies"`
	ZeroedFeeRows         int `json:"zeroed_fee_rows"`
}

// RunDTO represents a stored run in API responses.
type RunDTO struct {
	ID          string          `json:"id"`
	ProfileName string          `json:"profile"`
	Seed        uint64          `json:"seed"`
	SourceName  string          `json:"source_name,omitempty"`
	Products    int             `json:"products"`
	Shelves     int             `json:"shelves"`
	Levels      int             `json:"levels"`
	Diagnostics DiagnosticsDTO  `json:"diagnostics"`
	Artifacts   []string        `json:"artifacts,omitempty"`
	Profile     json.RawMessage `json:"profile_json,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toRunDTO(run synth.Run) RunDTO {
	return RunDTO{
		ID:          string(run.ID),
		ProfileName: run.ProfileName,
		Seed:        run.Seed,
		SourceName:  run.SourceName,
		Products:    run.Products,
		Shelves:     run.Shelves,
		Levels:      run.Levels,
		Diagnostics: DiagnosticsDTO{
			CapacityViolations:    run.CapacityViolations,
			ConfigInconsistencies: run.ConfigInconsistencies,
			ZeroedFeeRows:         run.ZeroedFeeRows,
		},
		CreatedAt: run.CreatedAt,
	}
}
