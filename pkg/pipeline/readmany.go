package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Azure/cosmos-query-engine-go/pkg/buffer"
	"github.com/Azure/cosmos-query-engine-go/pkg/cqerr"
	"github.com/Azure/cosmos-query-engine-go/pkg/epk"
	"github.com/Azure/cosmos-query-engine-go/pkg/jsonvalue"
	"github.com/Azure/cosmos-query-engine-go/pkg/operators"
	pkr "github.com/Azure/cosmos-query-engine-go/pkg/partitionkeyrange"
	"github.com/Azure/cosmos-query-engine-go/pkg/tracing"
)

// ItemIdentity is one {id, partitionKey} pair the caller wants fetched by
// point read, the input unit spec.md §4.10's readmany_pipeline_create
// groups by owning range.
type ItemIdentity struct {
	ID           string            `json:"id"`
	PartitionKey []json.RawMessage `json:"partitionKey"`
}

// PartitionKeyKind selects whether ItemIdentity.PartitionKey is a single
// scalar or a hierarchical (multi-path) key, mirroring the kind tag a
// Cosmos DB container definition carries.
type PartitionKeyKind string

const (
	PartitionKeyKindHash      PartitionKeyKind = "Hash"
	PartitionKeyKindMultiHash PartitionKeyKind = "MultiHash"
)

// CreateReadMany builds a Pipeline specialized for a read-many request
// (spec.md §4.10): it groups the requested identities by their
// EPK-computed owning range and synthesizes one IN-list query per
// affected range, merged with the plain Parallel Scan operator (no
// ordering or aggregation applies to a read-many).
func CreateReadMany(itemIdentitiesJSON, pkrangesJSON []byte, pkKind PartitionKeyKind, pkVersion epk.Version, config Config) (*Pipeline, error) {
	if len(itemIdentitiesJSON) == 0 {
		return nil, cqerr.New(cqerr.ArgumentNull, "pipeline: empty item identities payload")
	}
	var identities []ItemIdentity
	if err := json.Unmarshal(itemIdentitiesJSON, &identities); err != nil {
		return nil, cqerr.Wrap(cqerr.DeserializationError, err, "pipeline: parse item identities")
	}

	physical, err := pkr.ParsePKRanges(pkrangesJSON)
	if err != nil {
		return nil, err
	}

	byRange, err := groupByRange(identities, physical, pkVersion)
	if err != nil {
		return nil, err
	}

	rangeIDs := make([]string, 0, len(byRange))
	for id := range byRange {
		rangeIDs = append(rangeIDs, id)
	}
	sort.Strings(rangeIDs)

	buffers := buffer.NewSet(rangeIDs)
	rangeQuery := make(map[string]string, len(byRange))
	for _, id := range rangeIDs {
		rangeQuery[id] = synthesizeInQuery(byRange[id])
	}

	p := &Pipeline{
		id:         uuid.New(),
		query:      "",
		selected:   selectedFor(rangeIDs, physical),
		buffers:    buffers,
		op:         operators.NewParallel(buffers),
		config:     config,
		rangeQuery: rangeQuery,
	}
	p.log = logrus.WithFields(logrus.Fields{"pipeline": p.id, "kind": "readmany"})
	p.log.Debug("readmany pipeline created")
	tracing.PipelineCreated()
	return p, nil
}

// groupByRange computes each identity's owning range via epk.Compute and
// groups identities by range id, per spec.md §4.10 step 1.
func groupByRange(identities []ItemIdentity, physical []pkr.PartitionKeyRange, version epk.Version) (map[string][]ItemIdentity, error) {
	out := make(map[string][]ItemIdentity)
	for i, id := range identities {
		values := make([]jsonvalue.Value, len(id.PartitionKey))
		for j, raw := range id.PartitionKey {
			v, err := jsonvalue.Parse(raw)
			if err != nil {
				return nil, cqerr.Wrap(cqerr.DeserializationError, err, "pipeline: readmany identity %d component %d", i, j)
			}
			values[j] = v
		}
		hex, err := epk.Compute(values, version)
		if err != nil {
			return nil, err
		}
		rng, ok := ownerOf(hex, physical)
		if !ok {
			return nil, cqerr.New(cqerr.UnknownPartitionKeyRange, "pipeline: readmany identity %d epk %s owned by no physical range", i, hex)
		}
		out[rng.ID] = append(out[rng.ID], id)
	}
	return out, nil
}

func ownerOf(hex string, physical []pkr.PartitionKeyRange) (pkr.PartitionKeyRange, bool) {
	for _, r := range physical {
		if r.Contains(hex) {
			return r, true
		}
	}
	return pkr.PartitionKeyRange{}, false
}

func selectedFor(rangeIDs []string, physical []pkr.PartitionKeyRange) []pkr.PartitionKeyRange {
	byID := make(map[string]pkr.PartitionKeyRange, len(physical))
	for _, r := range physical {
		byID[r.ID] = r
	}
	out := make([]pkr.PartitionKeyRange, 0, len(rangeIDs))
	for _, id := range rangeIDs {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// synthesizeInQuery builds the "SELECT ... WHERE c.id IN (...) AND
// c.partitionKey IN (...)" query text spec.md §4.10 step 2 describes.
// IDs are named parameters (@id0, @id1, ...) so the embedder binds them
// rather than the engine inlining untrusted values into SQL text.
func synthesizeInQuery(identities []ItemIdentity) string {
	ids := make([]string, len(identities))
	for i := range identities {
		ids[i] = fmt.Sprintf("@id%d", i)
	}
	return fmt.Sprintf(
		"SELECT * FROM c WHERE c.id IN (%s) AND c.partitionKey IN (SELECT VALUE [%s])",
		strings.Join(ids, ", "),
		strings.Join(ids, ", "),
	)
}
