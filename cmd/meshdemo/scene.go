package main

import (
	"github.com/chewxy/math32"
	"golang.org/x/image/math/f32"

	"github.com/gogpu/trimesh"
)

// buildScene lays count regular polygons out on a grid covering a
// width x height logical canvas. Each polygon is a triangle fan around its
// center, positioned through the mesh origin and clipped to its cell.
// frame rotates the polygons so consecutive frames differ.
func buildScene(count, sides int, width, height float32, frame int) []trimesh.Mesh {
	if count == 0 {
		return nil
	}
	cols := int(math32.Ceil(math32.Sqrt(float32(count))))
	rows := (count + cols - 1) / cols
	cellW := width / float32(cols)
	cellH := height / float32(rows)
	radius := 0.4 * min(cellW, cellH)
	spin := float32(frame) * 0.1

	meshes := make([]trimesh.Mesh, count)
	for i := range meshes {
		col, row := i%cols, i/cols
		hue := float32(i) / float32(count)
		meshes[i] = polygon(sides, radius, spin, hue)
		meshes[i].Origin = trimesh.Pt((float32(col)+0.5)*cellW, (float32(row)+0.5)*cellH)
		meshes[i].ClipBounds = trimesh.Rect{
			X:      float32(col) * cellW,
			Y:      float32(row) * cellH,
			Width:  cellW,
			Height: cellH,
		}
	}
	return meshes
}

// polygon builds a triangle fan: vertex 0 is the center, vertices 1..sides
// lie on the circle.
func polygon(sides int, radius, rotation, hue float32) trimesh.Mesh {
	m := trimesh.Mesh{
		Vertices: make([]trimesh.Vertex, 0, sides+1),
		Indices:  make([]uint32, 0, sides*3),
	}
	r, g, b := hueToRGB(hue)
	m.Vertices = append(m.Vertices, trimesh.Vertex{Color: f32.Vec4{1, 1, 1, 1}})
	for k := 0; k < sides; k++ {
		angle := rotation + 2*math32.Pi*float32(k)/float32(sides)
		m.Vertices = append(m.Vertices, trimesh.Vertex{
			Position: f32.Vec2{radius * math32.Cos(angle), radius * math32.Sin(angle)},
			Color:    f32.Vec4{r, g, b, 0.85},
		})
		next := uint32(k+1)%uint32(sides) + 1
		m.Indices = append(m.Indices, 0, uint32(k+1), next)
	}
	return m
}

// hueToRGB converts a hue in [0, 1) at full saturation and value.
func hueToRGB(h float32) (r, g, b float32) {
	h6 := h * 6
	x := 1 - math32.Abs(math32.Mod(h6, 2)-1)
	switch int(h6) % 6 {
	case 0:
		return 1, x, 0
	case 1:
		return x, 1, 0
	case 2:
		return 0, 1, x
	case 3:
		return 0, x, 1
	case 4:
		return x, 0, 1
	default:
		return 1, 0, x
	}
}
