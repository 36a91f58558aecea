package domain

import (
	"time"
)

// StubForm describes how an annotation behaves over the document's lifetime
type StubForm string

const (
	StubFormTransient  StubForm = "transient"
	StubFormPersistent StubForm = "persistent"
	StubFormBlocking   StubForm = "blocking"
)

// VectorFamily is the semantic category assigned to a work item. It drives
// the item's reliability tier, review pattern, and tool policy.
type VectorFamily string

const (
	FamilyRetrieval   VectorFamily = "retrieval"
	FamilyComputation VectorFamily = "computation"
	FamilySynthesis   VectorFamily = "synthesis"
	FamilyCreation    VectorFamily = "creation"
	FamilyStructural  VectorFamily = "structural"
)

// TaskFamily classifies the kind of work a task represents, derived from
// its vector family
type TaskFamily string

const (
	TaskFamilyEvidence      TaskFamily = "evidence_gathering"
	TaskFamilyAnalysis      TaskFamily = "analysis"
	TaskFamilyIntegration   TaskFamily = "integration"
	TaskFamilyDrafting      TaskFamily = "drafting"
	TaskFamilyRestructuring TaskFamily = "restructuring"
)

// ReliabilityTier is the automation trust level for a task's vector family
type ReliabilityTier string

const (
	TierHigh   ReliabilityTier = "high"
	TierMedium ReliabilityTier = "medium"
	TierLow    ReliabilityTier = "low"
)

// ReviewPattern describes how a task's output should be reviewed by a human
type ReviewPattern string

const (
	ReviewSpotCheck        ReviewPattern = "spot_check"
	ReviewOutputValidation ReviewPattern = "output_validation"
	ReviewFull             ReviewPattern = "full_review"
	ReviewDraft            ReviewPattern = "draft_review"
	ReviewStructural       ReviewPattern = "structural_review"
)

// ToolPolicy states how strongly tool use is expected for a task
type ToolPolicy string

const (
	ToolPolicyMandatory  ToolPolicy = "mandatory"
	ToolPolicyEncouraged ToolPolicy = "encouraged"
	ToolPolicyOptional   ToolPolicy = "optional"
)

// Audience identifies who a document may be served to. Each audience has a
// fixed minimum-refinement gate.
type Audience string

const (
	AudiencePersonal Audience = "personal"
	AudienceInternal Audience = "internal"
	AudienceTrusted  Audience = "trusted"
	AudiencePublic   Audience = "public"
)

// TrendDirection is the direction of a document's health trend
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// FrictionType categorizes execution trouble signals
type FrictionType string

const (
	FrictionToolFailure     FrictionType = "tool_failure"
	FrictionSlowProgress    FrictionType = "slow_progress"
	FrictionRepeatedFailure FrictionType = "repeated_failure"
	FrictionScopeCreep      FrictionType = "scope_creep"
)

// ReferenceType classifies a claimed citation or link
type ReferenceType string

const (
	ReferenceExternalURL ReferenceType = "external_url"
	ReferenceAcademicDOI ReferenceType = "academic_doi"
	ReferenceVaultLink   ReferenceType = "vault_link"
	ReferenceCitation    ReferenceType = "citation"
	ReferenceUnknown     ReferenceType = "unknown"
)

// VerificationMethod records how a reference claim was (or was not) verified
type VerificationMethod string

const (
	MethodToolCall      VerificationMethod = "tool_call"
	MethodPatternMatch  VerificationMethod = "pattern_match"
	MethodPostCheck     VerificationMethod = "post_check"
	MethodUnverified    VerificationMethod = "unverified"
	MethodSelfReference VerificationMethod = "self_reference"
)

// StubTypeDef is an entry in a document's annotation-type vocabulary. A type
// may carry an explicit vector-family classification.
type StubTypeDef struct {
	Description  string       `json:"description,omitempty"`
	VectorFamily VectorFamily `json:"vector_family,omitempty"`
}

// Stub is a unit of unresolved work embedded in a document. Stubs are
// created by the document's owner or by automated analysis and are consumed
// read-only by the orchestrator.
type Stub struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Form        StubForm               `json:"form"`
	Props       map[string]interface{} `json:"props,omitempty"`
	Line        int                    `json:"line,omitempty"`
	Section     string                 `json:"section,omitempty"`
}

// Document is a snapshot of a document supplied by the host application
type Document struct {
	Path       string                 `json:"path"`
	Title      string                 `json:"title,omitempty"`
	Content    string                 `json:"content,omitempty"`
	Refinement float64                `json:"refinement"`
	Origin     string                 `json:"origin,omitempty"`
	Form       string                 `json:"form,omitempty"`
	Audience   Audience               `json:"audience,omitempty"`
	Stubs      []Stub                 `json:"stubs,omitempty"`
	StubTypes  map[string]StubTypeDef `json:"stub_types,omitempty"`
}

// Task is a discovered work item, derived one-to-one from a stub. Immutable
// once created; owned by a single orchestration run.
type Task struct {
	ID              string       `json:"id"`
	DocumentPath    string       `json:"document_path"`
	StubType        string       `json:"stub_type"`
	Description     string       `json:"description"`
	VectorFamily    VectorFamily `json:"vector_family"`
	TaskFamily      TaskFamily   `json:"task_family"`
	PriorityScore   float64      `json:"priority_score"`
	PotentialEnergy float64      `json:"potential_energy"`
	Blocking        bool         `json:"blocking"`
	Line            int          `json:"line,omitempty"`
	Section         string       `json:"section,omitempty"`
	CreatedAt       time.Time    `json:"created_at"`
}

// TaskAssignment attaches automation policy to a task via the static
// vector-family tables
type TaskAssignment struct {
	TaskID           string          `json:"task_id"`
	VectorFamily     VectorFamily    `json:"vector_family"`
	Tier             ReliabilityTier `json:"tier"`
	ReviewPattern    ReviewPattern   `json:"review_pattern"`
	RecommendedTools []string        `json:"recommended_tools"`
	ToolPolicy       ToolPolicy      `json:"tool_policy"`
	Confidence       float64         `json:"confidence"`
}

// Forecast estimates the effort required to resolve a plan's tasks
type Forecast struct {
	TotalPotentialEnergy      float64  `json:"total_potential_energy"`
	EstimatedVelocity         float64  `json:"estimated_velocity"`
	EstimatedSessions         int      `json:"estimated_sessions"`
	RefinementDeltaPerSession float64  `json:"refinement_delta_per_session"`
	ProjectedRefinement       float64  `json:"projected_refinement"`
	Risks                     []string `json:"risks,omitempty"`
	Confidence                float64  `json:"confidence"`
}

// Plan aggregates a document snapshot, its discovered tasks, their
// assignments, the total execution order, and a forecast. Immutable after
// creation except for the execution progress produced during a run.
type Plan struct {
	ID             string                    `json:"id"`
	TraceID        string                    `json:"trace_id"`
	Document       Document                  `json:"document"`
	Tasks          []Task                    `json:"tasks"`
	Assignments    map[string]TaskAssignment `json:"assignments"`
	ExecutionOrder []string                  `json:"execution_order"`
	Forecast       Forecast                  `json:"forecast"`
	CreatedAt      time.Time                 `json:"created_at"`
}

// FrictionEvent is a typed, severity-scored signal of execution trouble
type FrictionEvent struct {
	Type      FrictionType `json:"type"`
	Severity  int          `json:"severity"` // 1-5
	TaskID    string       `json:"task_id,omitempty"`
	Detail    string       `json:"detail,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}

// ExecutionProgress tracks a monitored run. Mutated only by the execution
// loop; read by progress callbacks.
type ExecutionProgress struct {
	PlanID          string          `json:"plan_id"`
	CurrentTaskID   string          `json:"current_task_id,omitempty"`
	Completed       []string        `json:"completed"`
	Failed          []string        `json:"failed"`
	Skipped         []string        `json:"skipped"`
	Friction        []FrictionEvent `json:"friction,omitempty"`
	Stalled         bool            `json:"stalled"`
	PercentComplete float64         `json:"percent_complete"`
}

// ExecutionResult is the outcome of a monitored run
type ExecutionResult struct {
	PlanID                string            `json:"plan_id"`
	Success               bool              `json:"success"`
	Stalled               bool              `json:"stalled"`
	Duration              time.Duration     `json:"duration"`
	ActualRefinementDelta float64           `json:"actual_refinement_delta"`
	Summary               string            `json:"summary"`
	Progress              ExecutionProgress `json:"progress"`
}

// HealthSnapshot is one (document, point in time) quality measurement
type HealthSnapshot struct {
	DocumentPath      string    `json:"document_path"`
	Timestamp         time.Time `json:"timestamp"`
	Refinement        float64   `json:"refinement"`
	StubCount         int       `json:"stub_count"`
	BlockingStubCount int       `json:"blocking_stub_count"`
	Audience          Audience  `json:"audience,omitempty"`
	StubPenalty       float64   `json:"stub_penalty"`
	Health            float64   `json:"health"`
	UsefulnessMargin  float64   `json:"usefulness_margin"`
}

// HealthTrend is a derived, read-only view over a document's snapshot history
type HealthTrend struct {
	DocumentPath  string         `json:"document_path"`
	Direction     TrendDirection `json:"direction"`
	Slope         float64        `json:"slope"`
	HealthDelta   float64        `json:"health_delta"`
	Velocity      float64        `json:"velocity"` // refinement units per day
	Confidence    float64        `json:"confidence"`
	SnapshotCount int            `json:"snapshot_count"`
	TimeSpanDays  float64        `json:"time_span_days"`
}

// RefinementForecast estimates time-to-target against an audience gate
type RefinementForecast struct {
	DocumentPath      string   `json:"document_path"`
	CurrentRefinement float64  `json:"current_refinement"`
	TargetRefinement  float64  `json:"target_refinement"`
	Gap               float64  `json:"gap"`
	EstimatedDays     int      `json:"estimated_days"`
	Achievable        bool     `json:"achievable"`
	Risks             []string `json:"risks,omitempty"`
	Recommendations   []string `json:"recommendations,omitempty"`
}

// VaultSummary aggregates health across all tracked documents
type VaultSummary struct {
	DocumentCount     int      `json:"document_count"`
	AverageHealth     float64  `json:"average_health"`
	AverageRefinement float64  `json:"average_refinement"`
	Improving         int      `json:"improving"`
	Declining         int      `json:"declining"`
	Stable            int      `json:"stable"`
	AtRisk            []string `json:"at_risk,omitempty"`
}

// ReferenceCandidate is a claimed citation or link extracted from free text
type ReferenceCandidate struct {
	Reference string        `json:"reference"`
	Type      ReferenceType `json:"type"`
	Context   string        `json:"context,omitempty"`
}

// ToolResult is a single result item from an evidence-gathering tool call
type ToolResult struct {
	URL          string  `json:"url,omitempty"`
	DOI          string  `json:"doi,omitempty"`
	InternalPath string  `json:"internal_path,omitempty"`
	Title        string  `json:"title,omitempty"`
	Snippet      string  `json:"snippet,omitempty"`
	Score        float64 `json:"score,omitempty"`
}

// ToolCallRecord is an evidence unit: one tool invocation and its results
type ToolCallRecord struct {
	ID        string                 `json:"id"`
	ToolName  string                 `json:"tool_name"`
	Args      map[string]interface{} `json:"args,omitempty"`
	Results   []ToolResult           `json:"results,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// VerifiedReference is a candidate augmented with its verification outcome
type VerifiedReference struct {
	ReferenceCandidate
	Verified   bool               `json:"verified"`
	Method     VerificationMethod `json:"method"`
	Details    string             `json:"details,omitempty"`
	Confidence float64            `json:"confidence"`
}

// VerificationSummary reports counts by method and the overall rate
type VerificationSummary struct {
	Total            int                        `json:"total"`
	Verified         int                        `json:"verified"`
	ByMethod         map[VerificationMethod]int `json:"by_method"`
	VerificationRate float64                    `json:"verification_rate"`
}

// DocumentContext identifies the active document for self-reference detection
type DocumentContext struct {
	Path       string   `json:"path"`
	Title      string   `json:"title,omitempty"`
	KeyPhrases []string `json:"key_phrases,omitempty"`
}

// BadgeLevel is a display severity for a verification badge
type BadgeLevel string

const (
	BadgeOK    BadgeLevel = "ok"
	BadgeWarn  BadgeLevel = "warn"
	BadgeAlert BadgeLevel = "alert"
)

// VerificationBadge is the display classification for a verified reference
type VerificationBadge struct {
	Level BadgeLevel `json:"level"`
	Label string     `json:"label"`
}

// AudienceGate returns the minimum refinement required to serve a document
// to the given audience. The zero audience has no gate.
func AudienceGate(a Audience) float64 {
	switch a {
	case AudiencePersonal:
		return 0.50
	case AudienceInternal:
		return 0.70
	case AudienceTrusted:
		return 0.80
	case AudiencePublic:
		return 0.90
	default:
		return 0
	}
}
