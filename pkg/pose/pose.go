// Package pose holds the value types exchanged with the pose-detection service:
// pose classifications, landmarks, connections and encoded images.
package pose

import (
	"encoding/json"
	"fmt"
	"math"
)

// Type is the coarse posture classification returned by the service.
// Identifiers outside the known set are kept verbatim.
type Type string

// Known pose types.
const (
	HandsUp     Type = "hands_up"
	LeftHandUp  Type = "left_hand_up"
	RightHandUp Type = "right_hand_up"
	Standing    Type = "standing"
	Unknown     Type = "unknown"
)

// Types returns the known pose types in display order.
func Types() []Type {
	return []Type{HandsUp, LeftHandUp, RightHandUp, Standing, Unknown}
}

// Known reports whether t is one of the documented pose types.
func (t Type) Known() bool {
	switch t {
	case HandsUp, LeftHandUp, RightHandUp, Standing, Unknown:
		return true
	}
	return false
}

// Landmark is a single detected body keypoint.
// X and Y are normalized image coordinates; Index is stable within one frame only.
type Landmark struct {
	Index      int     `json:"index"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility"`
}

// Connection links two landmarks by their Index.
type Connection [2]int

// UnmarshalJSON decodes an index pair. Arrays of any other length are
// rejected rather than padded or truncated.
func (c *Connection) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("pose: connection: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("pose: connection must hold 2 indices, got %d", len(pair))
	}
	*c = Connection{pair[0], pair[1]}
	return nil
}

// Result is a validated detection response.
type Result struct {
	Type        Type          `json:"pose_type"`
	Landmarks   []Landmark    `json:"landmarks"`
	Connections []Connection  `json:"connections"`
	Annotated   *EncodedImage `json:"-"`
}

// HasAnnotated reports whether the service returned an annotated image.
func (r *Result) HasAnnotated() bool {
	return r != nil && r.Annotated != nil
}

// Normalize enforces the Result invariants in place:
// landmarks and connections are never nil, visibility is clamped to [0,1]
// and connections only reference landmark indices present in the result.
// A negative landmark index is rejected.
func (r *Result) Normalize() error {
	if r.Type == "" {
		r.Type = Unknown
	}
	if r.Landmarks == nil {
		r.Landmarks = []Landmark{}
	}

	present := make(map[int]bool, len(r.Landmarks))
	for i := range r.Landmarks {
		lm := &r.Landmarks[i]
		if lm.Index < 0 {
			return fmt.Errorf("landmark %d: negative index %d", i, lm.Index)
		}
		if math.IsNaN(lm.X) || math.IsNaN(lm.Y) || math.IsNaN(lm.Visibility) {
			return fmt.Errorf("landmark %d: NaN coordinate", lm.Index)
		}
		lm.Visibility = clamp01(lm.Visibility)
		present[lm.Index] = true
	}

	conns := make([]Connection, 0, len(r.Connections))
	for _, c := range r.Connections {
		if present[c[0]] && present[c[1]] {
			conns = append(conns, c)
		}
	}
	r.Connections = conns

	return nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
