package lunarlander

import (
	"image/color"

	"github.com/ByteArena/box2d"
	"github.com/fogleman/gg"
)

var (
	moonShade      color.Color = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	skyShade       color.Color = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	landerShade    color.Color = color.RGBA{R: 128, G: 102, B: 230, A: 255}
	legShade       color.Color = color.RGBA{R: 128, G: 102, B: 230, A: 255}
	boundaryColour color.Color = color.RGBA{R: 255, G: 166, B: 0, A: 255}
)

// WorldToPixelCoord converts Box2D world coordinates to pixel
// coordinates on the rendering viewport
func WorldToPixelCoord(coords [2]float64) [2]float64 {
	x, y := coords[0], coords[1]

	pixelX := Scale * x
	pixelY := ViewportH - Scale*y

	return [2]float64{pixelX, pixelY}
}

// Render draws the current state of the environment and saves it as a
// PNG image at filename.
func (l *LunarLander) Render(filename string) error {
	dc := gg.NewContext(int(ViewportW), int(ViewportH))
	dc.SetColor(moonShade)
	dc.Clear()

	// Moon surface
	for i := 0; i < len(l.moonVertices)-1; i++ {
		v1 := WorldToPixelCoord(l.moonVertices[i])
		v2 := WorldToPixelCoord(l.moonVertices[i+1])
		dc.DrawLine(v1[0], v1[1], v2[0], v2[1])
	}
	dc.SetColor(moonShade)
	dc.SetLineWidth(5.0)
	dc.Stroke()

	// Sky above the terrain
	dc.ClearPath()
	startCoords := WorldToPixelCoord(
		[2]float64{l.moonVertices[0][0], ViewportH / Scale})
	dc.MoveTo(startCoords[0], startCoords[1])
	for i := 0; i < len(l.moonVertices); i++ {
		vertex := box2d.MakeB2Vec2(l.moonVertices[i][0], l.moonVertices[i][1])
		vertex = box2d.B2TransformVec2Mul(l.moon.M_xf, vertex)
		coords := WorldToPixelCoord([2]float64{vertex.X, vertex.Y})
		dc.LineTo(coords[0], coords[1])
	}
	last := len(l.moonVertices) - 1
	endCoords := WorldToPixelCoord(
		[2]float64{l.moonVertices[last][0], ViewportH / Scale})
	dc.LineTo(endCoords[0], endCoords[1])
	dc.LineTo(startCoords[0], startCoords[1])
	dc.SetColor(skyShade)
	dc.Fill()

	// World bounds
	dc.ClearPath()
	dc.SetColor(boundaryColour)
	dc.SetLineWidth(5.0)
	for i := range l.boundary {
		fix := l.boundary[i].GetFixtureList()
		sh := fix.M_shape.(*box2d.B2EdgeShape)

		p1 := WorldToPixelCoord([2]float64{sh.M_vertex1.X, sh.M_vertex1.Y})
		p2 := WorldToPixelCoord([2]float64{sh.M_vertex2.X, sh.M_vertex2.Y})
		dc.DrawLine(p1[0], p1[1], p2[0], p2[1])
	}
	dc.Stroke()

	// Lander hull
	landerFix := l.lander.GetFixtureList()
	for landerFix != nil {
		drawPolygonFixture(dc, landerFix, landerShade)
		landerFix = landerFix.M_next
	}

	// Legs
	for _, leg := range l.legs {
		legFix := leg.GetFixtureList()
		for legFix != nil {
			drawPolygonFixture(dc, legFix, legShade)
			legFix = legFix.M_next
		}
	}

	return dc.SavePNG(filename)
}

func drawPolygonFixture(dc *gg.Context, fix *box2d.B2Fixture, c color.Color) {
	shape := fix.M_shape.(*box2d.B2PolygonShape)
	path := make([][2]float64, 0, shape.M_count)
	for i, vertex := range shape.M_vertices {
		if i >= shape.M_count {
			break
		}
		vertex = box2d.B2TransformVec2Mul(fix.M_body.M_xf, vertex)
		path = append(path, WorldToPixelCoord([2]float64{vertex.X, vertex.Y}))
	}

	dc.ClearPath()
	for _, point := range path {
		dc.LineTo(point[0], point[1])
	}
	dc.LineTo(path[0][0], path[0][1])

	dc.SetColor(c)
	dc.Fill()
}
