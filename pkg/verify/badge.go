package verify

import (
	"github.com/draftops/refinery/pkg/domain"
)

// Badge maps a verification outcome to its display classification. The
// confidence threshold between "Verified" and "Partial match" is 0.9.
func Badge(ref domain.VerifiedReference) domain.VerificationBadge {
	if ref.Method == domain.MethodSelfReference {
		return domain.VerificationBadge{
			Level: domain.BadgeAlert,
			Label: "Self-reference",
		}
	}
	if ref.Verified {
		if ref.Confidence >= 0.9 {
			return domain.VerificationBadge{
				Level: domain.BadgeOK,
				Label: "Verified",
			}
		}
		return domain.VerificationBadge{
			Level: domain.BadgeWarn,
			Label: "Partial match",
		}
	}
	return domain.VerificationBadge{
		Level: domain.BadgeWarn,
		Label: "Unverified",
	}
}
