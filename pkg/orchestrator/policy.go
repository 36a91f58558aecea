// Package orchestrator discovers actionable work items from document
// annotations, assigns automation-reliability policy to them, forecasts
// completion effort, and executes monitored runs with friction tracking and
// stall detection.
package orchestrator

import (
	"github.com/draftops/refinery/pkg/domain"
)

// FamilyPolicy is the fixed automation policy for one vector family
type FamilyPolicy struct {
	Tier             domain.ReliabilityTier
	ReviewPattern    domain.ReviewPattern
	TaskFamily       domain.TaskFamily
	RecommendedTools []string
}

// familyPolicies maps every vector family to its policy. The table is total:
// classification can only produce one of these five families.
var familyPolicies = map[domain.VectorFamily]FamilyPolicy{
	domain.FamilyRetrieval: {
		Tier:             domain.TierHigh,
		ReviewPattern:    domain.ReviewSpotCheck,
		TaskFamily:       domain.TaskFamilyEvidence,
		RecommendedTools: []string{"web-search", "citation-lookup"},
	},
	domain.FamilyComputation: {
		Tier:             domain.TierHigh,
		ReviewPattern:    domain.ReviewOutputValidation,
		TaskFamily:       domain.TaskFamilyAnalysis,
		RecommendedTools: []string{"calculator", "data-query"},
	},
	domain.FamilySynthesis: {
		Tier:             domain.TierMedium,
		ReviewPattern:    domain.ReviewFull,
		TaskFamily:       domain.TaskFamilyIntegration,
		RecommendedTools: []string{"summarizer"},
	},
	domain.FamilyStructural: {
		Tier:             domain.TierMedium,
		ReviewPattern:    domain.ReviewStructural,
		TaskFamily:       domain.TaskFamilyRestructuring,
		RecommendedTools: []string{"outline-analyzer"},
	},
	domain.FamilyCreation: {
		Tier:             domain.TierLow,
		ReviewPattern:    domain.ReviewDraft,
		TaskFamily:       domain.TaskFamilyDrafting,
		RecommendedTools: []string{"draft-generator"},
	},
}

// typeFamilyFallback maps well-known annotation type keys to a vector family
// when the document's vocabulary carries no explicit classification.
var typeFamilyFallback = map[string]domain.VectorFamily{
	"needs-source":      domain.FamilyRetrieval,
	"needs-citation":    domain.FamilyRetrieval,
	"needs-data":        domain.FamilyComputation,
	"needs-calculation": domain.FamilyComputation,
	"needs-fix":         domain.FamilySynthesis,
	"needs-merge":       domain.FamilySynthesis,
	"needs-draft":       domain.FamilyCreation,
	"needs-expansion":   domain.FamilyCreation,
	"needs-restructure": domain.FamilyStructural,
	"needs-outline":     domain.FamilyStructural,
}

// tierToolPolicy derives the tool-use policy from the reliability tier
var tierToolPolicy = map[domain.ReliabilityTier]domain.ToolPolicy{
	domain.TierHigh:   domain.ToolPolicyMandatory,
	domain.TierMedium: domain.ToolPolicyEncouraged,
	domain.TierLow:    domain.ToolPolicyOptional,
}

// tierConfidence derives assignment confidence from the reliability tier
var tierConfidence = map[domain.ReliabilityTier]float64{
	domain.TierHigh:   0.9,
	domain.TierMedium: 0.7,
	domain.TierLow:    0.5,
}

// tierAutomatability ranks tiers for execution ordering: the most
// automatable tier runs first.
var tierAutomatability = map[domain.ReliabilityTier]int{
	domain.TierHigh:   0,
	domain.TierMedium: 1,
	domain.TierLow:    2,
}

// PolicyFor returns the fixed policy for a vector family. Unknown families
// fall back to the creation policy, which is the most conservative.
func PolicyFor(family domain.VectorFamily) FamilyPolicy {
	if p, ok := familyPolicies[family]; ok {
		return p
	}
	return familyPolicies[domain.FamilyCreation]
}

// classifyVectorFamily resolves a stub's vector family: an explicit
// classification in the document's type vocabulary wins, then the fixed
// type fallback table, then creation.
func classifyVectorFamily(stub domain.Stub, doc domain.Document) domain.VectorFamily {
	if def, ok := doc.StubTypes[stub.Type]; ok && def.VectorFamily != "" {
		return def.VectorFamily
	}
	if family, ok := typeFamilyFallback[stub.Type]; ok {
		return family
	}
	return domain.FamilyCreation
}
