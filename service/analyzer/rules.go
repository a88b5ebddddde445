package analyzer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/elC0mpa/cloud-steward/model"
	"github.com/elC0mpa/cloud-steward/service"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

func (s *analyzerService) utilizationRules(r model.Resource, u model.Utilization) []model.OptimizationRecommendation {
	windowDays := int(s.cfg.Window.Hours() / 24)
	details := map[string]any{
		"averageCpu": u.Average,
		"maximumCpu": u.Maximum,
		"windowDays": windowDays,
		"size":       r.Size(),
	}

	switch {
	case u.Average < s.cfg.UnderutilizedAvg && u.Maximum < s.cfg.UnderutilizedMax:
		confidence := model.ConfidenceMedium
		if u.Average < s.cfg.HighConfidenceAvg {
			confidence = model.ConfidenceHigh
		}
		return []model.OptimizationRecommendation{{
			Type:           model.RecommendationUnderutilized,
			ResourceID:     r.ID,
			CurrentCost:    r.CostMonthly,
			OptimizedCost:  0,
			MonthlySavings: r.CostMonthly,
			Confidence:     confidence,
			Effort:         model.EffortLow,
			Details:        details,
			Fingerprint:    fingerprint(model.RecommendationUnderutilized, r.ID, r.Size(), string(confidence)),
		}}

	case u.Average > s.cfg.ScalingAvg && u.Maximum > s.cfg.ScalingMax:
		optimized := r.CostMonthly * s.cfg.ScalingFactor
		return []model.OptimizationRecommendation{{
			Type:           model.RecommendationScaling,
			ResourceID:     r.ID,
			CurrentCost:    r.CostMonthly,
			OptimizedCost:  optimized,
			MonthlySavings: r.CostMonthly - optimized,
			Confidence:     model.ConfidenceMedium,
			Effort:         model.EffortMedium,
			Details:        details,
			Fingerprint:    fingerprint(model.RecommendationScaling, r.ID, r.Size()),
		}}
	}
	return nil
}

// unusedStorage flags volumes that are available or unattached with no attachments
func (s *analyzerService) unusedStorage(r model.Resource) (model.OptimizationRecommendation, bool) {
	if r.Type != model.ResourceStorage {
		return model.OptimizationRecommendation{}, false
	}

	status := strings.ToLower(r.Status)
	detached := status == "available" || status == "unattached" ||
		r.Details.String(model.DetailAttachmentState) == model.AttachmentUnattached
	attachments, _ := r.Details.Int(model.DetailAttachments)
	if !detached || attachments != 0 {
		return model.OptimizationRecommendation{}, false
	}

	sizeGB, _ := r.Details.Int(model.DetailSizeGB)
	return model.OptimizationRecommendation{
		Type:           model.RecommendationUnusedResource,
		ResourceID:     r.ID,
		CurrentCost:    r.CostMonthly,
		OptimizedCost:  0,
		MonthlySavings: r.CostMonthly,
		Confidence:     model.ConfidenceHigh,
		Effort:         model.EffortLow,
		Details: map[string]any{
			"status":     r.Status,
			"volumeType": r.Details.String(model.DetailVolumeType),
			"sizeGb":     sizeGB,
		},
		Fingerprint: fingerprint(model.RecommendationUnusedResource, r.ID, r.Details.String(model.DetailVolumeType), fmt.Sprint(sizeGB)),
	}, true
}

// reservedInstances groups running compute by provider and size. Capacity
// already covered by active reservations is subtracted first.
func (s *analyzerService) reservedInstances(ctx context.Context, logger *zap.Logger, running []model.Resource, reservations service.ReservationSource) []model.OptimizationRecommendation {
	covered := map[string]int{}
	if reservations != nil {
		active, err := reservations.ActiveReservations(ctx)
		if err != nil {
			logger.Warn("ignoring reservation coverage", zap.Error(err))
		} else {
			covered = active
		}
	}

	groups := lo.GroupBy(lo.Filter(running, func(r model.Resource, _ int) bool {
		return r.Size() != ""
	}), func(r model.Resource) string {
		return string(r.Provider) + "|" + r.Size()
	})

	keys := lo.Keys(groups)
	sort.Strings(keys)

	var recs []model.OptimizationRecommendation
	for _, k := range keys {
		members := groups[k]
		sort.SliceStable(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		size := members[0].Size()
		reserved := min(covered[size], len(members))
		uncovered := members[reserved:]
		if len(uncovered) < s.cfg.ReservedMinGroup {
			continue
		}

		unit := lo.SumBy(uncovered, func(r model.Resource) float64 { return r.CostMonthly }) / float64(len(uncovered))
		current := float64(len(uncovered)) * unit
		savings := current * s.cfg.ReservedSavingsRate

		recs = append(recs, model.OptimizationRecommendation{
			Type:           model.RecommendationReservedInstance,
			ResourceID:     fmt.Sprintf("ri:%s:%s", members[0].Provider, size),
			CurrentCost:    current,
			OptimizedCost:  current - savings,
			MonthlySavings: savings,
			Confidence:     model.ConfidenceHigh,
			Effort:         model.EffortLow,
			Details: map[string]any{
				"size":        size,
				"count":       len(uncovered),
				"unitCost":    unit,
				"reserved":    reserved,
				"resourceIds": lo.Map(uncovered, func(r model.Resource, _ int) string { return r.ID }),
			},
			Fingerprint: fingerprint(model.RecommendationReservedInstance, size, fmt.Sprint(len(uncovered))),
		})
	}
	return recs
}

func (s *analyzerService) rightsizingPassThrough(ctx context.Context, logger *zap.Logger, rightsizing service.RightsizingSource) []model.OptimizationRecommendation {
	if rightsizing == nil {
		return nil
	}

	signals, err := rightsizing.RightsizingSignals(ctx)
	if err != nil {
		logger.Warn("ignoring rightsizing signals", zap.Error(err))
		return nil
	}

	recs := make([]model.OptimizationRecommendation, 0, len(signals))
	for _, sig := range signals {
		if sig.ResourceID == "" {
			continue
		}
		confidence := sig.Confidence
		if confidence == "" {
			confidence = model.ConfidenceMedium
		}
		recs = append(recs, model.OptimizationRecommendation{
			Type:           model.RecommendationRightsizing,
			ResourceID:     sig.ResourceID,
			CurrentCost:    sig.CurrentCost,
			OptimizedCost:  sig.OptimizedCost,
			MonthlySavings: sig.CurrentCost - sig.OptimizedCost,
			Confidence:     confidence,
			Effort:         model.EffortMedium,
			Details: map[string]any{
				"currentSize": sig.CurrentSize,
				"targetSize":  sig.TargetSize,
			},
			Fingerprint: fingerprint(model.RecommendationRightsizing, sig.ResourceID, sig.CurrentSize, sig.TargetSize),
		})
	}
	return recs
}

// fingerprint hashes the discrete conditions behind a recommendation so a
// decision can be invalidated when they change
func fingerprint(t model.RecommendationType, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(t))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
