package poller

import (
	"sort"
	"strings"
	"time"

	"NucleusBot/models"
	"NucleusBot/nucleus"
)

// resourceTypeAssignment marks resources that mirror an assignment. They
// move the resource watermark but are not announced a second time.
const resourceTypeAssignment = "assignment"

type advance struct {
	courseID string
	kind     models.ItemKind
	ts       time.Time
}

type batch struct {
	assignments []nucleus.Assignment
	resources   []nucleus.Resource
	advances    []advance
}

func (b batch) empty() bool {
	return len(b.assignments) == 0 && len(b.resources) == 0
}

// diff classifies items strictly newer than their course watermark as new.
// Items of untracked courses and items without a timestamp are ignored.
func diff(marks map[string]models.Watermark, assignments []nucleus.Assignment, resources []nucleus.Resource) batch {
	var b batch
	newestAssignment := map[string]time.Time{}
	newestResource := map[string]time.Time{}

	for _, a := range assignments {
		mark, tracked := marks[a.CourseID]
		if !tracked || a.AddedOn.IsZero() || !a.AddedOn.After(mark.LastCheckedAssignment) {
			continue
		}
		b.assignments = append(b.assignments, a)
		if a.AddedOn.After(newestAssignment[a.CourseID]) {
			newestAssignment[a.CourseID] = a.AddedOn.Time
		}
	}

	for _, r := range resources {
		mark, tracked := marks[r.CourseID]
		if !tracked || r.AddedOn.IsZero() || !r.AddedOn.After(mark.LastCheckedResource) {
			continue
		}
		if r.AddedOn.After(newestResource[r.CourseID]) {
			newestResource[r.CourseID] = r.AddedOn.Time
		}
		if strings.EqualFold(r.Type, resourceTypeAssignment) {
			continue
		}
		b.resources = append(b.resources, r)
	}

	sort.SliceStable(b.assignments, func(i, j int) bool {
		return b.assignments[i].AddedOn.Before(b.assignments[j].AddedOn.Time)
	})
	sort.SliceStable(b.resources, func(i, j int) bool {
		return b.resources[i].AddedOn.Before(b.resources[j].AddedOn.Time)
	})

	for courseID, ts := range newestAssignment {
		b.advances = append(b.advances, advance{courseID: courseID, kind: models.ItemAssignment, ts: ts})
	}
	for courseID, ts := range newestResource {
		b.advances = append(b.advances, advance{courseID: courseID, kind: models.ItemResource, ts: ts})
	}
	sort.Slice(b.advances, func(i, j int) bool {
		if b.advances[i].courseID != b.advances[j].courseID {
			return b.advances[i].courseID < b.advances[j].courseID
		}
		return b.advances[i].kind < b.advances[j].kind
	})
	return b
}

type markKey struct {
	courseID string
	kind     models.ItemKind
}

func (a advance) key() markKey {
	return markKey{courseID: a.courseID, kind: a.kind}
}

// only keeps the items whose course watermark was stored.
func (b batch) only(stored map[markKey]bool) batch {
	var out batch
	for _, a := range b.assignments {
		if stored[markKey{courseID: a.CourseID, kind: models.ItemAssignment}] {
			out.assignments = append(out.assignments, a)
		}
	}
	for _, r := range b.resources {
		if stored[markKey{courseID: r.CourseID, kind: models.ItemResource}] {
			out.resources = append(out.resources, r)
		}
	}
	for _, a := range b.advances {
		if stored[a.key()] {
			out.advances = append(out.advances, a)
		}
	}
	return out
}
