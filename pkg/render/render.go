// Package render projects detection results into display-ready views.
// Rendering is pure: the same result and locale always give the same View.
package render

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/teslashibe/go-posecam/pkg/pose"
)

// LandmarkRow is one display row of the landmark table.
type LandmarkRow struct {
	Index             int    `json:"index"`
	X                 string `json:"x"`
	Y                 string `json:"y"`
	Visibility        string `json:"visibility"`
	VisibilityPercent int    `json:"visibility_percent"`
}

// View is the display model for one detection result.
type View struct {
	PoseType        pose.Type          `json:"pose_type"`
	PoseName        string             `json:"pose_name"`
	LandmarkCount   int                `json:"landmark_count"`
	ConnectionCount int                `json:"connection_count"`
	ShowAnnotated   bool               `json:"show_annotated"`
	Annotated       *pose.EncodedImage `json:"annotated_image,omitempty"`
	Landmarks       []LandmarkRow      `json:"landmarks"`
	// Placeholder is set instead of rows when no landmarks were detected.
	Placeholder string `json:"placeholder,omitempty"`
	// ScrollIntoView asks the presenter to bring the result into view.
	// Presenters that cannot scroll ignore it.
	ScrollIntoView bool `json:"scroll_into_view"`
}

// Empty reports whether the view has no rows.
func (v View) Empty() bool { return len(v.Landmarks) == 0 }

// Renderer turns results into views for one locale.
type Renderer struct {
	loc *Localizer
}

// New creates a Renderer for locale. See NewLocalizer for matching rules.
func New(locale string) *Renderer {
	return &Renderer{loc: NewLocalizer(locale)}
}

// Localizer returns the renderer's localizer.
func (r *Renderer) Localizer() *Localizer { return r.loc }

// Render builds the view for res. A nil result renders as an empty Unknown pose.
func (r *Renderer) Render(res *pose.Result) View {
	if res == nil {
		res = &pose.Result{Type: pose.Unknown}
	}

	v := View{
		PoseType:        res.Type,
		PoseName:        r.loc.PoseName(res.Type),
		LandmarkCount:   len(res.Landmarks),
		ConnectionCount: len(res.Connections),
		Landmarks:       make([]LandmarkRow, 0, len(res.Landmarks)),
		ScrollIntoView:  true,
	}
	if res.HasAnnotated() {
		img := *res.Annotated
		v.ShowAnnotated = true
		v.Annotated = &img
	}

	for _, lm := range res.Landmarks {
		pct := VisibilityPercent(lm.Visibility)
		v.Landmarks = append(v.Landmarks, LandmarkRow{
			Index:             lm.Index,
			X:                 Coordinate(lm.X),
			Y:                 Coordinate(lm.Y),
			Visibility:        strconv.Itoa(pct) + "%",
			VisibilityPercent: pct,
		})
	}
	if len(v.Landmarks) == 0 {
		v.Placeholder = r.loc.text(keyNoLandmarks)
	}

	return v
}

// Coordinate formats a normalized coordinate with two decimals. Exact ties
// round away from zero, so 0.125 gives "0.13".
func Coordinate(v float64) string {
	if math.IsNaN(v) || math.Abs(v) >= 1<<53 {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	sign := ""
	if v < 0 {
		sign = "-"
	}

	x := new(big.Float).SetPrec(128).SetFloat64(math.Abs(v))
	x.Mul(x, big.NewFloat(100))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)

	whole, frac := new(big.Int).QuoRem(n, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s%s.%02d", sign, whole, frac.Int64())
}

// VisibilityPercent converts a [0,1] visibility to a whole percentage,
// rounding half away from zero.
func VisibilityPercent(v float64) int {
	return int(math.Round(v * 100))
}
