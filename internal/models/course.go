package models

// ItemType classifies a course item for weighting and mark aggregation.
type ItemType string

const (
	ItemTypeLesson     ItemType = "lesson"
	ItemTypeAssignment ItemType = "assignment"
	ItemTypeExam       ItemType = "exam"
)

// MarkCategories lists the categories marks are aggregated over, in display order.
var MarkCategories = []ItemType{ItemTypeLesson, ItemTypeAssignment, ItemTypeExam}

// LTIReference links a course item to an externally hosted assessment.
type LTIReference struct {
	Enabled    bool   `json:"enabled"`
	DeepLinkID string `json:"deep_link_id,omitempty"`
}

// CourseItem is an authoritative, schedule independent course item.
type CourseItem struct {
	Title    string        `json:"title"`
	Type     ItemType      `json:"type"`
	Weight   *float64      `json:"weight,omitempty"`
	LTI      *LTIReference `json:"lti,omitempty"`
	Sequence int           `json:"sequence,omitempty"`
}

// LinkID returns the deep link identifier when the item has an enabled external link.
func (i CourseItem) LinkID() (string, bool) {
	if i.LTI == nil || !i.LTI.Enabled || i.LTI.DeepLinkID == "" {
		return "", false
	}
	return i.LTI.DeepLinkID, true
}

// CourseUnit groups items; Sequence is the join key against schedule units.
type CourseUnit struct {
	Name     string       `json:"name"`
	Sequence int          `json:"sequence"`
	Items    []CourseItem `json:"items"`
}

// CategoryWeights maps item categories to their share of the overall mark.
type CategoryWeights map[ItemType]float64

// CourseDetails holds the course structure.
type CourseDetails struct {
	Units []CourseUnit `json:"units"`
}

// Course is the course record read from the store.
type Course struct {
	ID               string               `json:"-"`
	CourseDetails    *CourseDetails       `json:"courseDetails,omitempty"`
	Weights          CategoryWeights      `json:"weights,omitempty"`
	ItemWeights      map[ItemType]float64 `json:"itemWeights,omitempty"`
	LTILinksComplete bool                 `json:"ltiLinksComplete"`
}

// Units returns the course units or nil when the structure is missing.
func (c *Course) Units() []CourseUnit {
	if c == nil || c.CourseDetails == nil {
		return nil
	}
	return c.CourseDetails.Units
}

// ItemCount is the number of items across all units.
func (c *Course) ItemCount() int {
	total := 0
	for _, unit := range c.Units() {
		total += len(unit.Items)
	}
	return total
}
