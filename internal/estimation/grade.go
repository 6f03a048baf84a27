package estimation

import (
	"math"
	"math/rand/v2"
	"strings"

	"github.com/abjin/reward-closet/internal/domain"
)

// damageLabels are classifier labels that mark an item as not donatable.
var damageLabels = map[string]bool{
	"ripped":    true,
	"pollution": true,
	"tearing":   true,
	"frayed":    true,
}

// itemTypes maps classifier clothing classes to their display labels.
var itemTypes = map[string]string{
	"jacket":         "자켓",
	"short pants":    "반바지",
	"tailored pants": "정장바지",
	"jumper":         "점퍼",
	"shirts":         "셔츠",
	"coat":           "코트",
	"dress":          "원피스",
	"casual pants":   "일반바지",
	"blouse":         "블라우스",
	"tshirts":        "티셔츠",
	"skirt":          "치마",
}

// DefaultItemType is shown when the label is not a known clothing class.
const DefaultItemType = "의류"

// PointRange is an inclusive interval of points.
type PointRange struct {
	Min int
	Max int
}

var pointRanges = map[domain.Condition]PointRange{
	domain.ConditionExcellent: {Min: 500, Max: 1000},
	domain.ConditionGood:      {Min: 200, Max: 500},
	domain.ConditionFair:      {Min: 50, Max: 200},
	domain.ConditionPoor:      {Min: 0, Max: 0},
}

func normalize(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}

// Grade maps a classifier label to a condition. Damage labels grade POOR,
// every other label grades GOOD.
func Grade(label string) domain.Condition {
	if damageLabels[normalize(label)] {
		return domain.ConditionPoor
	}
	return domain.ConditionGood
}

// ItemType returns the display label for a classifier clothing class.
func ItemType(label string) string {
	if t, ok := itemTypes[normalize(label)]; ok {
		return t
	}
	return DefaultItemType
}

// RangeFor returns the point interval of a condition. Unknown conditions
// price like POOR.
func RangeFor(c domain.Condition) PointRange {
	if r, ok := pointRanges[c]; ok {
		return r
	}
	return pointRanges[domain.ConditionPoor]
}

// Source draws uniform integers in [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Price draws a uniform integer from the condition's interval, bounds included.
func Price(c domain.Condition, src Source) int {
	r := RangeFor(c)
	return r.Min + src.IntN(r.Max-r.Min+1)
}

// Confidence converts a [0,1] score to a whole percentage.
func Confidence(score float64) int {
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > 1 {
		return 100
	}
	return int(math.Round(score * 100))
}
