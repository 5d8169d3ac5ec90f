package ui

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/render"
)

func TestRenderControls(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want Controls
	}{
		{
			name: "idle",
			in:   Input{Session: camera.Idle},
			want: Controls{Controls: camera.Controls{Start: true}, Upload: true},
		},
		{
			name: "acquiring",
			in:   Input{Session: camera.Acquiring},
			want: Controls{Upload: true},
		},
		{
			name: "active",
			in:   Input{Session: camera.Active},
			want: Controls{Controls: camera.Controls{Capture: true, Stop: true}, Upload: true},
		},
		{
			name: "active busy",
			in:   Input{Session: camera.Active, Busy: true},
			want: Controls{Controls: camera.Controls{Stop: true}},
		},
		{
			name: "stopped",
			in:   Input{Session: camera.Stopped},
			want: Controls{Controls: camera.Controls{Start: true}, Upload: true},
		},
		{
			name: "stopped busy",
			in:   Input{Session: camera.Stopped, Busy: true},
			want: Controls{Controls: camera.Controls{Start: true}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(tt.in).Controls; got != tt.want {
				t.Errorf("Controls = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRenderPreview(t *testing.T) {
	st := Render(Input{Session: camera.Active, Width: 640, Height: 480})
	if !st.ShowPreview || st.Width != 640 || st.Height != 480 {
		t.Errorf("active state = %+v", st)
	}

	st = Render(Input{Session: camera.Stopped, Width: 640, Height: 480})
	if st.ShowPreview || st.Width != 0 || st.Height != 0 {
		t.Errorf("stopped state = %+v", st)
	}
}

func TestRenderStatusAndResult(t *testing.T) {
	st := Render(Input{Session: camera.Idle})
	if st.Status != nil || st.ShowResult || st.Result != nil {
		t.Errorf("empty input rendered %+v", st)
	}

	view := render.New("en").Render(nil)
	st = Render(Input{
		Session: camera.Stopped,
		Status:  SuccessStatus("Pose detected"),
		Result:  &view,
	})
	if st.Status == nil || *st.Status != SuccessStatus("Pose detected") {
		t.Errorf("Status = %v", st.Status)
	}
	if !st.ShowResult || st.Result != &view {
		t.Error("result not shown")
	}
}

func TestStateJSON(t *testing.T) {
	st := Render(Input{Session: camera.Active, Busy: true, Status: LoadingStatus("Detecting pose...")})

	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	for _, want := range []string{
		`"session":"active"`,
		`"controls":{"start":false,"capture":false,"stop":true,"upload":false}`,
		`"status":{"text":"Detecting pose...","severity":"loading"}`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("json missing %s: %s", want, data)
		}
	}
}

func TestStatusMessage(t *testing.T) {
	if !(StatusMessage{}).IsZero() {
		t.Error("zero message not IsZero")
	}
	if got := ErrorStatus("boom").String(); got != "[error] boom" {
		t.Errorf("String() = %q", got)
	}
	if got := (StatusMessage{}).String(); got != "" {
		t.Errorf("zero String() = %q", got)
	}
}
