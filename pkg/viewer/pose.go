package viewer

import (
	"encoding/json"
	"fmt"

	"github.com/Maxar-Corp/wff-tools/pkg/math3d"
)

// PoseSerializer captures the camera pose as a JSON snippet and restores
// poses pasted back in. The format is shared with other tooling, so
// Restore is liberal (vectors as arrays or {x,y,z} objects) while Capture
// always writes arrays. A captured pose restores bit-for-bit.
type PoseSerializer struct {
	rig CameraRig
}

// NewPoseSerializer wraps a camera rig.
func NewPoseSerializer(rig CameraRig) *PoseSerializer {
	return &PoseSerializer{rig: rig}
}

// poseVec is a 3-vector that unmarshals from either [x, y, z] or
// {"x": ..., "y": ..., "z": ...}.
type poseVec [3]float64

func (v *poseVec) UnmarshalJSON(b []byte) error {
	var arr []float64
	if err := json.Unmarshal(b, &arr); err == nil {
		if len(arr) != 3 {
			return fmt.Errorf("pose vector: want 3 components, got %d", len(arr))
		}
		copy(v[:], arr)
		return nil
	}

	var obj struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		Z *float64 `json:"z"`
	}
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("pose vector: %w", err)
	}
	if obj.X == nil || obj.Y == nil || obj.Z == nil {
		return fmt.Errorf("pose vector: missing component")
	}
	*v = poseVec{*obj.X, *obj.Y, *obj.Z}
	return nil
}

func (v poseVec) vec3() math3d.Vec3 {
	return math3d.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

type poseOrientation struct {
	Direction *poseVec `json:"direction"`
	Up        *poseVec `json:"up"`
}

type posePayload struct {
	Destination *poseVec         `json:"destination"`
	Orientation *poseOrientation `json:"orientation,omitempty"`
}

// Capture serializes the current camera pose.
func (p *PoseSerializer) Capture() (string, error) {
	pos, dir, up := p.rig.Pose()
	payload := posePayload{
		Destination: &poseVec{pos.X, pos.Y, pos.Z},
		Orientation: &poseOrientation{
			Direction: &poseVec{dir.X, dir.Y, dir.Z},
			Up:        &poseVec{up.X, up.Y, up.Z},
		},
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("capture pose: %w", err)
	}
	return string(out), nil
}

// Restore applies a serialized pose to the camera. Malformed or
// incomplete input leaves the camera untouched; the return value reports
// whether a pose was applied. Pasted text is untrusted, so nothing here
// panics or partially applies.
func (p *PoseSerializer) Restore(text string) bool {
	var payload posePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return false
	}
	if payload.Destination == nil {
		return false
	}

	_, dir, up := p.rig.Pose()
	if o := payload.Orientation; o != nil {
		if o.Direction == nil || o.Up == nil {
			return false
		}
		dir = o.Direction.vec3()
		up = o.Up.vec3()
		if dir.Len() == 0 || up.Len() == 0 {
			return false
		}
	}

	p.rig.SetPose(payload.Destination.vec3(), dir, up)
	return true
}
