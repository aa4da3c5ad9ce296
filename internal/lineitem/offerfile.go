package lineitem

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnreadableOffer is returned when an offer file cannot be decoded at all.
var ErrUnreadableOffer = errors.New("unreadable offer document")

// lenientFloat decodes any scalar with ParseNumber, so missing, null and
// non-numeric values become 0 instead of failing the whole document.
type lenientFloat float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *lenientFloat) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		*f = 0
		return nil
	}
	*f = lenientFloat(ParseNumber(node.Value))
	return nil
}

// offerRecord is the flat on-disk shape of an offer. It mirrors the loose
// form records users edit by hand; toOffer converts it to typed items.
type offerRecord struct {
	Label          string            `yaml:"label,omitempty"          json:"label,omitempty"`
	Materials      []materialRecord  `yaml:"materials,omitempty"      json:"materials,omitempty"`
	Manufacturing  []processRecord   `yaml:"manufacturing,omitempty"  json:"manufacturing,omitempty"`
	Implementation []processRecord   `yaml:"implementation,omitempty" json:"implementation,omitempty"`
	Transport      []transportRecord `yaml:"transport,omitempty"      json:"transport,omitempty"`
	EndOfLife      []endOfLifeRecord `yaml:"end_of_life,omitempty"    json:"end_of_life,omitempty"`
	Comments       string            `yaml:"comments,omitempty"       json:"comments,omitempty"`
}

type materialRecord struct {
	Material     string       `yaml:"material"                json:"material"`
	Quantity     lenientFloat `yaml:"quantity"                json:"quantity"`
	ConcreteType string       `yaml:"concrete_type,omitempty" json:"concrete_type,omitempty"`
	CementMass   lenientFloat `yaml:"cement_mass,omitempty"   json:"cement_mass,omitempty"`
	Reinforced   bool         `yaml:"reinforced,omitempty"    json:"reinforced,omitempty"`
	RebarGrade   string       `yaml:"rebar_grade,omitempty"   json:"rebar_grade,omitempty"`
	RebarMass    lenientFloat `yaml:"rebar_mass,omitempty"    json:"rebar_mass,omitempty"`
	RebarFactor  lenientFloat `yaml:"rebar_factor,omitempty"  json:"rebar_factor,omitempty"`
}

type processRecord struct {
	Process  string       `yaml:"process"  json:"process"`
	Duration lenientFloat `yaml:"duration" json:"duration"`
}

type transportRecord struct {
	Mode     string       `yaml:"mode"     json:"mode"`
	Distance lenientFloat `yaml:"distance" json:"distance"`
	Weight   lenientFloat `yaml:"weight"   json:"weight"`
}

type endOfLifeRecord struct {
	Method string       `yaml:"method" json:"method"`
	Weight lenientFloat `yaml:"weight" json:"weight"`
}

// ReadOffer decodes an offer from YAML or JSON.
func ReadOffer(r io.Reader) (*Offer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableOffer, err)
	}
	var rec offerRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableOffer, err)
	}
	return rec.toOffer(), nil
}

// WriteOffer encodes an offer as "yaml" or "json".
func WriteOffer(w io.Writer, o *Offer, format string) error {
	rec := fromOffer(o)
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rec)
	case "yaml", "yml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(rec); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported offer format %q", format)
	}
}

func (rec offerRecord) toOffer() *Offer {
	o := &Offer{Label: rec.Label, Comments: rec.Comments}
	for _, m := range rec.Materials {
		o.Materials = append(o.Materials, m.toItem())
	}
	for _, p := range rec.Manufacturing {
		o.Manufacturing = append(o.Manufacturing, ProcessItem{Process: p.Process, DurationHours: float64(p.Duration)})
	}
	for _, p := range rec.Implementation {
		o.Implementation = append(o.Implementation, ProcessItem{Process: p.Process, DurationHours: float64(p.Duration)})
	}
	for _, t := range rec.Transport {
		o.Transport = append(o.Transport, TransportItem{
			Mode:         t.Mode,
			DistanceKm:   float64(t.Distance),
			WeightTonnes: float64(t.Weight),
		})
	}
	for _, e := range rec.EndOfLife {
		o.EndOfLife = append(o.EndOfLife, EndOfLifeItem{Method: e.Method, WeightKg: float64(e.Weight)})
	}
	return o
}

func (m materialRecord) toItem() MaterialItem {
	item := MaterialItem{Material: m.Material, Quantity: float64(m.Quantity)}
	if !item.IsConcrete() {
		return item
	}
	var rebar *RebarSpec
	if m.Reinforced {
		rebar = &RebarSpec{
			Grade:         m.RebarGrade,
			MassPerVolume: float64(m.RebarMass),
			Factor:        float64(m.RebarFactor),
		}
	}
	return NewConcreteItem(m.ConcreteType, item.Quantity, float64(m.CementMass), rebar)
}

func fromOffer(o *Offer) offerRecord {
	rec := offerRecord{Label: o.Label, Comments: o.Comments}
	for _, m := range o.Materials {
		mr := materialRecord{Material: m.Material, Quantity: lenientFloat(m.Quantity)}
		if m.IsConcrete() && m.Concrete != nil {
			mr.ConcreteType = m.Concrete.Type
			mr.CementMass = lenientFloat(m.Concrete.CementMassPerVolume)
			if r := m.Concrete.Rebar; r != nil {
				mr.Reinforced = true
				mr.RebarGrade = r.Grade
				mr.RebarMass = lenientFloat(r.MassPerVolume)
				mr.RebarFactor = lenientFloat(r.Factor)
			}
		}
		rec.Materials = append(rec.Materials, mr)
	}
	for _, p := range o.Manufacturing {
		rec.Manufacturing = append(rec.Manufacturing, processRecord{Process: p.Process, Duration: lenientFloat(p.DurationHours)})
	}
	for _, p := range o.Implementation {
		rec.Implementation = append(rec.Implementation, processRecord{Process: p.Process, Duration: lenientFloat(p.DurationHours)})
	}
	for _, t := range o.Transport {
		rec.Transport = append(rec.Transport, transportRecord{
			Mode:     t.Mode,
			Distance: lenientFloat(t.DistanceKm),
			Weight:   lenientFloat(t.WeightTonnes),
		})
	}
	for _, e := range o.EndOfLife {
		rec.EndOfLife = append(rec.EndOfLife, endOfLifeRecord{Method: e.Method, Weight: lenientFloat(e.WeightKg)})
	}
	return rec
}
