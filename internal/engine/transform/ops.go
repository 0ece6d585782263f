package transform

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/orbitscene/pkg/math"
)

// Value is a scalar that may follow the orbit angle:
//
//	Offset + Amplitude*sin(angle*Rate + Phase)
//
// The angle is fed to sin as-is, so Rate 0.5 gives sin(angle/2).
type Value struct {
	Offset    float32 `yaml:"offset"`
	Amplitude float32 `yaml:"amplitude,omitempty"`
	Rate      float32 `yaml:"rate,omitempty"`
	Phase     float32 `yaml:"phase,omitempty"`
}

// Const returns a Value that ignores the orbit angle.
func Const(v float32) Value {
	return Value{Offset: v}
}

// Wave returns a Value oscillating around offset.
func Wave(offset, amplitude, rate, phase float32) Value {
	return Value{Offset: offset, Amplitude: amplitude, Rate: rate, Phase: phase}
}

// Eval evaluates the value at the given orbit angle.
func (v Value) Eval(angle float32) float32 {
	if v.Amplitude == 0 {
		return v.Offset
	}
	return v.Offset + v.Amplitude*math32.Sin(angle*v.Rate+v.Phase)
}

// UnmarshalYAML accepts either a plain number or a wave mapping.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var f float32
		if err := node.Decode(&f); err != nil {
			return err
		}
		*v = Const(f)
		return nil
	}

	type plain Value
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = Value(p)
	return nil
}

// MarshalYAML writes constants as plain numbers.
func (v Value) MarshalYAML() (any, error) {
	if v.Amplitude == 0 {
		return v.Offset, nil
	}
	type plain Value
	return plain(v), nil
}

// Kind identifies a primitive transform.
type Kind int

const (
	KindScale Kind = iota
	KindRotate
	KindTranslate
)

func (k Kind) String() string {
	switch k {
	case KindScale:
		return "scale"
	case KindRotate:
		return "rotate"
	case KindTranslate:
		return "translate"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Op is one primitive transform. Scale and Translate use Vec; Rotate uses
// Angle (degrees) and Axis.
type Op struct {
	Kind  Kind
	Vec   [3]Value
	Angle Value
	Axis  math.Vec3
}

// Scale returns a constant scale op.
func Scale(x, y, z float32) Op {
	return Op{Kind: KindScale, Vec: [3]Value{Const(x), Const(y), Const(z)}}
}

// Translate returns a translate op; components may follow the orbit angle.
func Translate(x, y, z Value) Op {
	return Op{Kind: KindTranslate, Vec: [3]Value{x, y, z}}
}

// Rotate returns a rotation of angle degrees about axis.
func Rotate(angle Value, axis math.Vec3) Op {
	return Op{Kind: KindRotate, Angle: angle, Axis: axis}
}

func (o Op) eval(angle float32) math.Vec3 {
	return math.Vec3{X: o.Vec[0].Eval(angle), Y: o.Vec[1].Eval(angle), Z: o.Vec[2].Eval(angle)}
}

// Apply right-multiplies the op onto m, so it acts in the frame m establishes.
func (o Op) Apply(m math.Mat4, angle float32) math.Mat4 {
	switch o.Kind {
	case KindScale:
		return m.Scaled(o.eval(angle))
	case KindTranslate:
		return m.Translated(o.eval(angle))
	case KindRotate:
		return m.Rotated(math.Radians(o.Angle.Eval(angle)), o.Axis)
	default:
		return m
	}
}

type rotateYAML struct {
	Angle Value      `yaml:"angle"`
	Axis  [3]float32 `yaml:"axis"`
}

type opYAML struct {
	Scale     *[3]Value   `yaml:"scale,omitempty"`
	Translate *[3]Value   `yaml:"translate,omitempty"`
	Rotate    *rotateYAML `yaml:"rotate,omitempty"`
}

var errOpShape = errors.New("transform op needs exactly one of scale, translate, rotate")

// UnmarshalYAML decodes one of:
//
//	scale: [sx, sy, sz]
//	translate: [dx, dy, dz]
//	rotate: {angle: deg, axis: [x, y, z]}
func (o *Op) UnmarshalYAML(node *yaml.Node) error {
	var raw opYAML
	if err := node.Decode(&raw); err != nil {
		return err
	}

	set := 0
	if raw.Scale != nil {
		*o = Op{Kind: KindScale, Vec: *raw.Scale}
		set++
	}
	if raw.Translate != nil {
		*o = Op{Kind: KindTranslate, Vec: *raw.Translate}
		set++
	}
	if raw.Rotate != nil {
		axis := math.V3(raw.Rotate.Axis)
		if axis.Length() == 0 {
			return fmt.Errorf("line %d: rotate axis must be non-zero", node.Line)
		}
		*o = Op{Kind: KindRotate, Angle: raw.Rotate.Angle, Axis: axis.Normalize()}
		set++
	}
	if set != 1 {
		return fmt.Errorf("line %d: %w", node.Line, errOpShape)
	}
	return nil
}

// MarshalYAML writes the op in the form UnmarshalYAML reads.
func (o Op) MarshalYAML() (any, error) {
	switch o.Kind {
	case KindScale:
		v := o.Vec
		return opYAML{Scale: &v}, nil
	case KindTranslate:
		v := o.Vec
		return opYAML{Translate: &v}, nil
	case KindRotate:
		return opYAML{Rotate: &rotateYAML{Angle: o.Angle, Axis: o.Axis.Array()}}, nil
	default:
		return nil, fmt.Errorf("unknown transform kind %s", o.Kind)
	}
}
