// Package urdf reads Universal Robot Description Format files into kinematic models.
package urdf

import (
	"bytes"
	"encoding/xml"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/detik-robotics/detik/referenceframe"
	"github.com/detik-robotics/detik/spatialmath"
)

// ModelConfig represents all supported fields in a Universal Robot Description Format (URDF) file.
type ModelConfig struct {
	XMLName xml.Name `xml:"robot"`
	Name    string   `xml:"name,attr"`
	Links   []link   `xml:"link"`
	Joints  []joint  `xml:"joint"`
}

// link is a struct which details the XML used in a URDF link element.
type link struct {
	XMLName xml.Name `xml:"link"`
	Name    string   `xml:"name,attr"`
}

// joint is a struct which details the XML used in a URDF joint element.
type joint struct {
	XMLName xml.Name `xml:"joint"`
	Name    string   `xml:"name,attr"`
	Type    string   `xml:"type,attr"`
	Parent  frame    `xml:"parent"`
	Child   frame    `xml:"child"`
	Origin  *pose    `xml:"origin,omitempty"`
	Axis    *axis    `xml:"axis,omitempty"`
	Limit   *limit   `xml:"limit,omitempty"`
}

type frame struct {
	Link string `xml:"link,attr"`
}

type pose struct {
	XYZ string `xml:"xyz,attr"`
	RPY string `xml:"rpy,attr"`
}

type axis struct {
	XYZ string `xml:"xyz,attr"`
}

type limit struct {
	Lower float64 `xml:"lower,attr"`
	Upper float64 `xml:"upper,attr"`
}

// Parse returns the transform described by an origin element. Missing attributes are zero.
func (p *pose) Parse() (spatialmath.Pose, error) {
	if p == nil {
		return spatialmath.NewZeroPose(), nil
	}
	xyz, err := parseTriple(p.XYZ)
	if err != nil {
		return nil, errors.Wrap(err, "origin xyz")
	}
	rpy, err := parseTriple(p.RPY)
	if err != nil {
		return nil, errors.Wrap(err, "origin rpy")
	}
	return spatialmath.NewPose(
		r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]},
		&spatialmath.EulerAngles{Roll: rpy[0], Pitch: rpy[1], Yaw: rpy[2]},
	), nil
}

// Parse returns the joint axis. URDF defaults a missing axis to x.
func (a *axis) Parse() (r3.Vector, error) {
	if a == nil {
		return r3.Vector{X: 1}, nil
	}
	xyz, err := parseTriple(a.XYZ)
	if err != nil {
		return r3.Vector{}, errors.Wrap(err, "axis xyz")
	}
	return r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}

// UnmarshalModelXML will transfer the given URDF XML data into an equivalent Model. Lengths stay in meters and
// angles in radians.
func UnmarshalModelXML(xmlData []byte, modelName string) (*referenceframe.Model, error) {
	if len(bytes.TrimSpace(xmlData)) == 0 {
		return nil, referenceframe.NewModelLoadError("URDF data is empty")
	}

	// Unmarshal into a URDF ModelConfig
	urdf := &ModelConfig{}
	if err := xml.Unmarshal(xmlData, urdf); err != nil {
		return nil, errors.Wrapf(referenceframe.ErrModelLoad, "failed to convert URDF data to equivalent URDFConfig struct: %v", err)
	}

	// Use default name if none is provided
	if modelName == "" {
		modelName = urdf.Name
	}
	model := referenceframe.NewModel(modelName)

	// Read all links first
	for _, linkElem := range urdf.Links {
		if err := model.AddLink(linkElem.Name); err != nil {
			return nil, errors.Wrap(referenceframe.ErrModelLoad, err.Error())
		}
	}

	// Read the joints next
	for _, jointElem := range urdf.Joints {
		thisJoint, err := jointElem.toJointConfig()
		if err != nil {
			return nil, errors.Wrap(referenceframe.ErrModelLoad, err.Error())
		}
		if err := model.AddJoint(thisJoint); err != nil {
			return nil, errors.Wrap(referenceframe.ErrModelLoad, err.Error())
		}
	}

	if err := model.Validate(); err != nil {
		return nil, errors.Wrap(referenceframe.ErrModelLoad, err.Error())
	}
	return model, nil
}

func (j *joint) toJointConfig() (referenceframe.JointConfig, error) {
	origin, err := j.Origin.Parse()
	if err != nil {
		return referenceframe.JointConfig{}, errors.Wrapf(err, "joint %q", j.Name)
	}
	cfg := referenceframe.JointConfig{
		Name:   j.Name,
		Type:   referenceframe.JointType(j.Type),
		Parent: j.Parent.Link,
		Child:  j.Child.Link,
		Origin: origin,
	}

	// Slightly different limits handling for continuous, revolute, and prismatic joints
	switch cfg.Type {
	case referenceframe.FixedJoint:
		return cfg, nil
	case referenceframe.ContinuousJoint:
	case referenceframe.RevoluteJoint, referenceframe.PrismaticJoint:
		if j.Limit == nil {
			return referenceframe.JointConfig{}, errors.Errorf("joint %q of type %s needs a limit", j.Name, j.Type)
		}
		cfg.Min, cfg.Max = j.Limit.Lower, j.Limit.Upper
	default:
		return referenceframe.JointConfig{}, errors.Errorf("unsupported joint type %q for joint %q", j.Type, j.Name)
	}

	if cfg.Axis, err = j.Axis.Parse(); err != nil {
		return referenceframe.JointConfig{}, errors.Wrapf(err, "joint %q", j.Name)
	}
	return cfg, nil
}

// ParseModelXMLFile will read a given file and parse the contained URDF XML data into an equivalent Model.
func ParseModelXMLFile(filename, modelName string) (*referenceframe.Model, error) {
	//nolint:gosec
	xmlData, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(referenceframe.ErrModelLoad, "failed to read URDF file: %v", err)
	}
	return UnmarshalModelXML(xmlData, modelName)
}

// parseTriple splits a space-delimited URDF attribute such as xyz or rpy. An empty attribute is three zeros.
func parseTriple(s string) ([3]float64, error) {
	var out [3]float64
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return out, nil
	}
	if len(fields) != 3 {
		return out, errors.Errorf("expected 3 values, got %q", s)
	}
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) {
			return out, errors.Errorf("invalid number %q", field)
		}
		out[i] = v
	}
	return out, nil
}
