// Package ui maps session state, the last result and the last status to what
// a presenter shows. Render is pure so the whole screen can be tested without
// a browser.
package ui

import (
	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/render"
)

// Controls is the enablement of every user control.
type Controls struct {
	camera.Controls
	Upload bool `json:"upload"`
}

// Input is everything Render depends on.
type Input struct {
	Session camera.State
	// Busy is true while a capture or detection is in flight.
	Busy   bool
	Status StatusMessage
	Result *render.View
	Width  int
	Height int
}

// State is the presentation derived from an Input.
type State struct {
	Session     camera.State   `json:"session"`
	Controls    Controls       `json:"controls"`
	Busy        bool           `json:"busy"`
	Status      *StatusMessage `json:"status,omitempty"`
	ShowPreview bool           `json:"show_preview"`
	Width       int            `json:"width,omitempty"`
	Height      int            `json:"height,omitempty"`
	ShowResult  bool           `json:"show_result"`
	Result      *render.View   `json:"result,omitempty"`
}

// Render computes the presentation for in.
func Render(in Input) State {
	controls := Controls{
		Controls: camera.ControlsFor(in.Session),
		Upload:   !in.Busy,
	}
	if in.Busy {
		controls.Capture = false
	}

	st := State{
		Session:     in.Session,
		Controls:    controls,
		Busy:        in.Busy,
		ShowPreview: in.Session == camera.Active,
		ShowResult:  in.Result != nil,
		Result:      in.Result,
	}
	if !in.Status.IsZero() {
		status := in.Status
		st.Status = &status
	}
	if st.ShowPreview {
		st.Width, st.Height = in.Width, in.Height
	}
	return st
}
