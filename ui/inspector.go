package ui

import (
	"fmt"

	"github.com/pthm-cable/forage/sim"
	"github.com/pthm-cable/forage/telemetry"
)

// InspectorData holds all the data needed to render the inspector panel.
type InspectorData struct {
	Agent     sim.AgentView
	Now       float64
	CellLevel float64
	PeakLevel float64
	Lifetime  *telemetry.LifetimeStats // nil when lifetime tracking is off
}

func inspected(v any) *InspectorData { return v.(*InspectorData) }

// inspectorSections lays out the agent panel.
var inspectorSections = []SectionDescriptor{
	{
		Title: "Agent",
		Fields: []FieldDescriptor{
			{Label: "ID", Widget: WidgetText, TextGetter: func(v any) string {
				return fmt.Sprintf("#%d", inspected(v).Agent.ID)
			}},
			{Label: "Cell", Widget: WidgetText, TextGetter: func(v any) string {
				a := inspected(v).Agent
				return fmt.Sprintf("(%d, %d)", a.Row, a.Col)
			}},
			{Label: "Age", Widget: WidgetText, Format: "%.2f", Getter: func(v any) float64 {
				d := inspected(v)
				return d.Now - d.Agent.BirthTime
			}},
			{Label: "Vision", Widget: WidgetText, Format: "%.0f", Getter: func(v any) float64 {
				return float64(inspected(v).Agent.Vision)
			}},
		},
	},
	{
		Title: "Metabolism",
		Fields: []FieldDescriptor{
			{Label: "Wealth", Widget: WidgetText, Format: "%.2f", Getter: func(v any) float64 {
				return inspected(v).Agent.Wealth
			}},
			{Label: "Burn rate", Widget: WidgetText, Format: "%.3f", Getter: func(v any) float64 {
				return inspected(v).Agent.MetabolicRate
			}},
			{Label: "Cell level", Widget: WidgetBar, Getter: func(v any) float64 {
				return inspected(v).CellLevel
			}},
			{Label: "Last meal", Widget: WidgetText, Format: "t=%.2f", Getter: func(v any) float64 {
				return inspected(v).Agent.LastCollection
			}},
		},
	},
	{
		Title: "Immunity",
		Fields: []FieldDescriptor{
			{Label: "Infected", Widget: WidgetFlag, Getter: func(v any) float64 {
				if inspected(v).Agent.Infected {
					return 1
				}
				return 0
			}},
			{Label: "Active", Widget: WidgetText, Format: "%.0f", Getter: func(v any) float64 {
				return float64(inspected(v).Agent.Infections)
			}},
			{Label: "Cleared", Widget: WidgetText, Format: "%.0f", Getter: func(v any) float64 {
				return float64(inspected(v).Agent.Cleared)
			}},
		},
	},
	{
		Title: "Lifetime",
		Fields: []FieldDescriptor{
			{Label: "Moves", Widget: WidgetText, TextGetter: func(v any) string {
				l := inspected(v).Lifetime
				return fmt.Sprintf("%d (+%d stays)", l.Moves, l.Stays)
			}, Visible: hasLifetime},
			{Label: "Harvested", Widget: WidgetText, Format: "%.1f", Getter: func(v any) float64 {
				return inspected(v).Lifetime.Harvested
			}, Visible: hasLifetime},
			{Label: "Caught", Widget: WidgetText, Format: "%.0f", Getter: func(v any) float64 {
				return float64(inspected(v).Lifetime.Caught)
			}, Visible: hasLifetime},
			{Label: "Spread", Widget: WidgetText, Format: "%.0f", Getter: func(v any) float64 {
				return float64(inspected(v).Lifetime.Spread)
			}, Visible: hasLifetime},
		},
	},
}

func hasLifetime(v any) bool { return inspected(v).Lifetime != nil }

// Inspector renders the agent inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data and returns the bottom Y.
func (ins *Inspector) Draw(data *InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding
	contentWidth := ins.width - padding*2

	// Bar range tracks the landscape peak
	sections := inspectorSections
	sections[1].Fields[2].Range = FieldRange{Min: 0, Max: data.PeakLevel}

	height := padding * 2
	for _, sd := range sections {
		height += r.SectionHeight(sd, data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	for _, sd := range sections {
		y = r.DrawSection(ins.x+padding, y, sd, data, contentWidth)
	}
	return ins.y + height
}
