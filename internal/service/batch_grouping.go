package service

import (
	"fmt"

	"github.com/noah-isme/edusmart-import-api/internal/models"
)

const defaultProgramDurationYears = 4

// SizingPolicy bounds cohort sizes. Max drives splitting during generation;
// Min and SplitTarget drive analysis recommendations.
type SizingPolicy struct {
	Min         int
	Max         int
	SplitTarget int
}

// DefaultSizingPolicy mirrors the thresholds used by the academic office.
var DefaultSizingPolicy = SizingPolicy{Min: 20, Max: 60, SplitTarget: 50}

func (p SizingPolicy) normalized() SizingPolicy {
	if p.Max <= 0 {
		p.Max = DefaultSizingPolicy.Max
	}
	if p.Min <= 0 {
		p.Min = DefaultSizingPolicy.Min
	}
	if p.SplitTarget <= 0 {
		p.SplitTarget = DefaultSizingPolicy.SplitTarget
	}
	return p
}

// PlannedBatch is one cohort chosen by PlanBatches, not yet persisted.
type PlannedBatch struct {
	Name           string
	ProgramID      int64
	ProgramCode    string
	EnrollmentYear int
	EndYear        int
	Signature      string
	StudentIDs     []int64
}

type programGroup struct {
	programID   int64
	programCode string
	year        int
	duration    int
	patterns    []string
	byPattern   map[string][]int64
}

// PlanBatches partitions students into cohorts. Students are grouped by
// (program code, enrollment year), then by identical course signature, both in
// first-appearance order. A pattern group larger than policy.Max is split into
// ceil(n/Max) batches of ceil(n/k) students keeping input order; any other
// group becomes a single batch. Sequence numbers restart at 1 per program group.
func PlanBatches(students []models.EnrolledStudent, policy SizingPolicy) []PlannedBatch {
	policy = policy.normalized()

	groups := make([]*programGroup, 0)
	index := make(map[string]*programGroup)
	for _, st := range students {
		key := fmt.Sprintf("%s\x00%d", st.ProgramCode, st.EnrollmentYear)
		g, ok := index[key]
		if !ok {
			duration := defaultProgramDurationYears
			if st.DurationYears != nil && *st.DurationYears > 0 {
				duration = *st.DurationYears
			}
			g = &programGroup{
				programID:   st.ProgramID,
				programCode: st.ProgramCode,
				year:        st.EnrollmentYear,
				duration:    duration,
				byPattern:   make(map[string][]int64),
			}
			index[key] = g
			groups = append(groups, g)
		}
		if _, seen := g.byPattern[st.Courses]; !seen {
			g.patterns = append(g.patterns, st.Courses)
		}
		g.byPattern[st.Courses] = append(g.byPattern[st.Courses], st.ID)
	}

	planned := make([]PlannedBatch, 0)
	for _, g := range groups {
		seq := 1
		for _, pattern := range g.patterns {
			for _, chunk := range splitChunks(g.byPattern[pattern], policy.Max) {
				planned = append(planned, PlannedBatch{
					Name:           BatchName(g.programCode, g.year, seq),
					ProgramID:      g.programID,
					ProgramCode:    g.programCode,
					EnrollmentYear: g.year,
					EndYear:        g.year + g.duration,
					Signature:      pattern,
					StudentIDs:     chunk,
				})
				seq++
			}
		}
	}
	return planned
}

// BatchName renders the deterministic cohort name.
func BatchName(programCode string, enrollmentYear, seq int) string {
	return fmt.Sprintf("%s-%d-B%d", programCode, enrollmentYear, seq)
}

func splitChunks(ids []int64, max int) [][]int64 {
	n := len(ids)
	if n <= max {
		return [][]int64{ids}
	}
	k := (n + max - 1) / max
	size := (n + k - 1) / k
	chunks := make([][]int64, 0, k)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
