package mapping

import (
	"fmt"
	"log"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/JungMoonYoung/auto-insight-platform/domain/core"
	"github.com/JungMoonYoung/auto-insight-platform/domain/mapping"
	"github.com/JungMoonYoung/auto-insight-platform/domain/schema"
	"github.com/JungMoonYoung/auto-insight-platform/domain/table"
)

// Config holds the tunable parameters of the hybrid resolver.
type Config struct {
	// NameWeight and DataWeight blend the name-similarity and
	// data-profile signals. They should sum to 1.
	NameWeight float64
	DataWeight float64

	// MaxColumns is a soft ceiling: above it the resolver warns that
	// per-column profiling cost grows linearly, but still proceeds.
	MaxColumns int
}

// DefaultConfig returns the standard weighting: names carry more signal
// than data shape, but data breaks naming ties.
func DefaultConfig() Config {
	return Config{
		NameWeight: 0.6,
		DataWeight: 0.4,
		MaxColumns: 200,
	}
}

// Resolver maps a table's columns onto one domain's standard fields by
// combining name similarity with data-profile type scores. A Resolver is
// immutable after construction and safe for concurrent use: the catalog
// is read-only and every mapping run is independent.
type Resolver struct {
	catalog schema.Catalog
	cfg     Config
}

// NewResolver builds a resolver for a schema domain with default weights.
// An unknown domain fails fast; this is a configuration error, not a
// data-quality issue.
func NewResolver(domain schema.Domain) (*Resolver, error) {
	return NewResolverWithConfig(domain, DefaultConfig())
}

// NewResolverWithConfig builds a resolver with explicit weights.
func NewResolverWithConfig(domain schema.Domain, cfg Config) (*Resolver, error) {
	catalog, err := schema.CatalogFor(domain)
	if err != nil {
		return nil, err
	}
	if cfg.NameWeight < 0 || cfg.DataWeight < 0 {
		return nil, fmt.Errorf("mapping weights must be non-negative, got name=%v data=%v",
			cfg.NameWeight, cfg.DataWeight)
	}
	if cfg.MaxColumns <= 0 {
		cfg.MaxColumns = DefaultConfig().MaxColumns
	}
	return &Resolver{catalog: catalog, cfg: cfg}, nil
}

// Catalog returns the resolver's schema catalog.
func (r *Resolver) Catalog() schema.Catalog {
	return r.catalog
}

// Map runs the full hybrid pipeline: profile and type-score every column
// once, score every (field, column) pair as a weighted blend of name and
// data signals, then resolve conflicts into a one-to-one mapping.
func (r *Resolver) Map(t *table.Table) (*mapping.Result, error) {
	if t == nil || t.ColumnCount() == 0 {
		return nil, schemaErr(t)
	}

	columns := t.Columns()
	if len(columns) > r.cfg.MaxColumns {
		log.Printf("[Resolver] column count (%d) exceeds max_columns (%d); profiling cost scales linearly and this may be slow",
			len(columns), r.cfg.MaxColumns)
	}

	// Stage 1: one profiling and scoring pass per column, O(columns).
	// Columns are independent, so the pass parallelizes freely; results
	// land in index-addressed slots to keep the output deterministic.
	typeScores := make([]mapping.TypeScores, len(columns))
	var g errgroup.Group
	for i, name := range columns {
		cells, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		i := i
		g.Go(func() error {
			typeScores[i] = Score(Profile(cells))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scoresByColumn := make(map[string]mapping.TypeScores, len(columns))
	for i, name := range columns {
		scoresByColumn[name] = typeScores[i]
	}

	// Stage 2: combined scores for every (field, column) pair. The data
	// score is the type-score entry for the semantic type the catalog
	// declares for that field.
	candidates := make(map[string][]mapping.Candidate, len(r.catalog.Fields))
	for _, field := range r.catalog.Fields {
		for _, column := range columns {
			nameScore := FieldNameScore(column, field)
			dataScore := scoresByColumn[column][field.Type]
			combined := nameScore*r.cfg.NameWeight + dataScore*r.cfg.DataWeight
			if combined >= minSimilarityThreshold {
				candidates[field.Name] = append(candidates[field.Name], mapping.Candidate{
					Column:    column,
					Combined:  combined,
					NameScore: nameScore,
					DataScore: dataScore,
				})
			}
		}
	}

	result := r.resolve(candidates, mapping.MethodHybrid)
	log.Printf("[Resolver] hybrid mapping completed: %d/%d fields mapped",
		len(result.Fields), len(r.catalog.Fields))
	return result, nil
}

// MapByName is the name-only variant: it scores columns purely by alias
// similarity and never touches the data. Useful when profiling is
// undesirable, e.g. very large uploads where only the header is known.
func (r *Resolver) MapByName(columns []string) *mapping.Result {
	candidates := make(map[string][]mapping.Candidate, len(r.catalog.Fields))
	for _, column := range columns {
		field, score := BestMatch(column, r.catalog)
		if field == "" {
			continue
		}
		candidates[field] = append(candidates[field], mapping.Candidate{
			Column:    column,
			Combined:  score,
			NameScore: score,
		})
	}
	return r.resolve(candidates, mapping.MethodFuzzy)
}

// resolve collapses per-field candidate sets into a one-to-one mapping.
// All candidate pairs are ranked globally by combined score (ties broken
// by field name, then column name, keeping the output deterministic) and
// assigned greedily, so one source column can win at most one standard
// field. Runners-up stay visible as alternatives rather than being
// silently dropped.
func (r *Resolver) resolve(candidates map[string][]mapping.Candidate, method mapping.Method) *mapping.Result {
	type pair struct {
		field string
		cand  mapping.Candidate
	}

	var pairs []pair
	for _, field := range r.catalog.Fields {
		for _, cand := range candidates[field.Name] {
			pairs = append(pairs, pair{field: field.Name, cand: cand})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].cand.Combined != pairs[j].cand.Combined {
			return pairs[i].cand.Combined > pairs[j].cand.Combined
		}
		if pairs[i].field != pairs[j].field {
			return pairs[i].field < pairs[j].field
		}
		return pairs[i].cand.Column < pairs[j].cand.Column
	})

	winners := make(map[string]mapping.Candidate)
	usedColumns := make(map[string]string) // column -> field that claimed it
	for _, p := range pairs {
		if _, taken := winners[p.field]; taken {
			continue
		}
		if claimedBy, used := usedColumns[p.cand.Column]; used {
			log.Printf("[Resolver] column %q already assigned to %q, skipping for %q",
				p.cand.Column, claimedBy, p.field)
			continue
		}
		winners[p.field] = p.cand
		usedColumns[p.cand.Column] = p.field
	}

	fields := make(map[string]mapping.FieldMapping, len(winners))
	for fieldName, winner := range winners {
		var alternatives []mapping.Candidate
		for _, cand := range candidates[fieldName] {
			if cand.Column == winner.Column {
				continue
			}
			// Candidates claimed by another field are visible there,
			// not repeated here.
			if _, used := usedColumns[cand.Column]; used {
				continue
			}
			alternatives = append(alternatives, cand)
		}
		sort.Slice(alternatives, func(i, j int) bool {
			if alternatives[i].Combined != alternatives[j].Combined {
				return alternatives[i].Combined > alternatives[j].Combined
			}
			return alternatives[i].Column < alternatives[j].Column
		})

		if len(alternatives) > 0 {
			log.Printf("[Resolver] duplicate mapping for %q: selected %q (score %.1f), rejected %d alternative(s)",
				fieldName, winner.Column, winner.Combined, len(alternatives))
		}

		fields[fieldName] = mapping.FieldMapping{
			UserColumn:   winner.Column,
			Confidence:   round1(winner.Combined),
			Method:       method,
			NameScore:    winner.NameScore,
			DataScore:    winner.DataScore,
			Alternatives: alternatives,
		}
	}

	return &mapping.Result{Domain: r.catalog.Domain, Fields: fields}
}

// Validate checks that every required catalog field was mapped. A missing
// required field is a structured result the caller reacts to, never an
// error: mapping is an advisory step before the real analysis runs.
func (r *Resolver) Validate(result *mapping.Result) mapping.Validation {
	validation := mapping.Validation{IsValid: true}

	for _, field := range r.catalog.Fields {
		if !field.Required {
			continue
		}
		if _, ok := result.Fields[field.Name]; !ok {
			validation.IsValid = false
			validation.Missing = append(validation.Missing, field.Name)
			validation.Messages = append(validation.Messages,
				fmt.Sprintf("required field %q was not mapped", field.Name))
		}
	}

	return validation
}

// Apply produces a new table containing only the mapped columns, renamed
// to their standard field names in catalog order. Unmapped source columns
// are dropped from the output; the source table is never mutated.
func (r *Resolver) Apply(t *table.Table, result *mapping.Result) (*table.Table, error) {
	var selected []string
	rename := make(map[string]string, len(result.Fields))

	for _, field := range r.catalog.Fields {
		fm, ok := result.Fields[field.Name]
		if !ok {
			continue
		}
		selected = append(selected, fm.UserColumn)
		rename[fm.UserColumn] = field.Name
	}

	if len(selected) == 0 {
		return nil, fmt.Errorf("mapping resolved no columns for domain %q", r.catalog.Domain)
	}

	applied, err := t.Select(selected, rename)
	if err != nil {
		return nil, err
	}
	log.Printf("[Resolver] applied mapping: %d columns renamed", len(selected))
	return applied, nil
}

func schemaErr(t *table.Table) error {
	if t == nil {
		return fmt.Errorf("map: %w", core.ErrEmptyTable)
	}
	return fmt.Errorf("map: %w", core.ErrNoColumns)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
