// internal/assignment/workload.go
package assignment

import (
	"context"
	"encoding/json"
	"time"

	"routing-workers/internal/common/database"
	"routing-workers/internal/common/logger"
	"routing-workers/internal/models"
)

// WorkloadSource reads the per-approver workload aggregates.
type WorkloadSource interface {
	Workloads(ctx context.Context, org OrgContext) ([]models.ApproverWorkload, error)
}

// SnapshotProvider serves workload snapshots cache-aside through Redis
// in front of PostgreSQL. Any failure yields an empty snapshot; callers
// degrade to unweighted selection.
type SnapshotProvider struct {
	source WorkloadSource
	cache  *database.RedisClient
	ttl    time.Duration
	log    logger.Logger
}

func NewSnapshotProvider(source WorkloadSource, cache *database.RedisClient, ttl time.Duration, log logger.Logger) *SnapshotProvider {
	return &SnapshotProvider{source: source, cache: cache, ttl: ttl, log: log}
}

func workloadCacheKey(org OrgContext) string {
	return "workload:" + org.OrganizationID
}

// Snapshot returns the organization's workload snapshot. Never returns
// an error: cache misses fall through to the store, store failures
// yield an empty snapshot.
func (p *SnapshotProvider) Snapshot(ctx context.Context, org OrgContext) models.WorkloadSnapshot {
	if p.cache != nil {
		if cached, err := p.cache.Get(ctx, workloadCacheKey(org)); err == nil {
			var snapshot models.WorkloadSnapshot
			if err := json.Unmarshal([]byte(cached), &snapshot); err == nil {
				return snapshot
			}
			p.log.Warn("corrupt workload cache entry, rereading", map[string]interface{}{
				"organizationId": org.OrganizationID,
			})
		}
	}

	workloads, err := p.source.Workloads(ctx, org)
	if err != nil {
		p.log.Warn("workload read failed, degrading to empty snapshot", map[string]interface{}{
			"organizationId": org.OrganizationID,
			"error":          err.Error(),
		})
		return models.WorkloadSnapshot{}
	}

	snapshot := make(models.WorkloadSnapshot, len(workloads))
	for _, w := range workloads {
		snapshot[w.ApproverID] = w
	}

	if p.cache != nil {
		if data, err := json.Marshal(snapshot); err == nil {
			if err := p.cache.Set(ctx, workloadCacheKey(org), data, p.ttl); err != nil {
				p.log.Warn("workload cache write failed", map[string]interface{}{
					"organizationId": org.OrganizationID,
					"error":          err.Error(),
				})
			}
		}
	}

	return snapshot
}
