// Package layout positions nodes on the canvas: grid snapping for freshly
// placed nodes and the dock fix-up that keeps docked chains stacked.
package layout

import (
	"math"

	"github.com/vk/synnia/internal/node"
)

const DefaultGridStep = 20 // canvas px between grid vertices

// Grid encapsulates grid spacing.
type Grid struct {
	Step float64
}

func NewGrid(step float64) *Grid { return &Grid{Step: step} }

// Snap moves a position to the nearest grid vertex.
func (g *Grid) Snap(p node.Position) node.Position {
	if g == nil || g.Step <= 0 {
		return p
	}
	return node.Position{
		X: math.Round(p.X/g.Step) * g.Step,
		Y: math.Round(p.Y/g.Step) * g.Step,
	}
}

const (
	// HeaderHeight is the height of a collapsed node.
	HeaderHeight = 48
	// Gap separates free-standing nodes.
	Gap = 40
)

var defaultSizes = map[string]node.Style{
	string(node.TypeText):       {Width: 320, Height: 200},
	string(node.TypeImage):      {Width: 320, Height: 320},
	string(node.TypeForm):       {Width: 320, Height: 240},
	string(node.TypeSelector):   {Width: 280, Height: 200},
	string(node.TypeTable):      {Width: 480, Height: 280},
	string(node.TypeCollection): {Width: 360, Height: 320},
	string(node.TypeRecipe):     {Width: 320, Height: 260},
}

// Size returns the rendered size of n: its style when set, the default for
// its type otherwise. Collapsed nodes only show their header.
func Size(n node.Node) (width, height float64) {
	def := defaultSizes[n.Type.Category()]
	if def.Width == 0 {
		def = defaultSizes[string(node.TypeText)]
	}
	width, height = def.Width, def.Height
	if n.Style != nil {
		if n.Style.Width > 0 {
			width = n.Style.Width
		}
		if n.Style.Height > 0 {
			height = n.Style.Height
		}
	}
	if n.Data.Collapsed {
		height = HeaderHeight
	}
	return width, height
}

// Beneath is the position directly under anchor, touching its bottom edge.
func Beneath(anchor node.Node) node.Position {
	_, h := Size(anchor)
	return node.Position{X: anchor.Position.X, Y: anchor.Position.Y + h}
}

// Below is the free position under anchor, one gap away.
func Below(anchor node.Node) node.Position {
	_, h := Size(anchor)
	return node.Position{X: anchor.Position.X, Y: anchor.Position.Y + h + Gap}
}

// RightOf is the free position to the right of anchor, one gap away.
func RightOf(anchor node.Node) node.Position {
	w, _ := Size(anchor)
	return node.Position{X: anchor.Position.X + w + Gap, Y: anchor.Position.Y}
}
