package render

import (
	"io"
	"math"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	ambientScale  = 0.3  // Maps light intensity onto terminal brightness
	shadowDarken  = 0.55 // Brightness kept inside a shadow
	colourLevels  = 6    // Quantization steps per channel (6^3 inks)
	tinySpherePx  = 1.5  // Below this radius spheres are drawn flat
	glassOutlineA = 0.5  // Transparent meshes below this opacity draw as outlines
)

// Renderer rasterises a Scene onto a Canvas.
type Renderer struct {
	canvas *Canvas
	width  int // Pixels
	height int // Sub-pixels

	inkColors []colorful.Color // Quantized colour per ink
	frames    int

	// Per-frame scratch
	spheres []sphereDraw
	planes  []*Mesh
	shadows []shadowDisc
}

type sphereDraw struct {
	mesh   *Mesh
	x, y   float64 // Pixel centre
	radius float64 // Pixels
	depth  float64
}

type shadowDisc struct {
	x, z, radius float64
}

// NewRenderer creates a renderer for a terminal of cols x rows cells.
func NewRenderer(cols, rows int) *Renderer {
	r := &Renderer{canvas: NewCanvas(cols, rows)}
	r.width, r.height = r.canvas.TerminalWidth(), r.canvas.TerminalHeight()*2
	return r
}

// SetStyler sets the lipgloss renderer used for colour output.
func (r *Renderer) SetStyler(s *lipgloss.Renderer) {
	r.canvas.SetStyler(s)
}

// SetSize resizes the output to cols x rows cells and, when cam is not nil,
// updates its aspect ratio to match.
func (r *Renderer) SetSize(cols, rows int, cam *PerspectiveCamera) {
	r.canvas.Resize(cols, rows)
	r.canvas.SetLogicalSize(float64(r.canvas.TerminalWidth()), float64(r.canvas.TerminalHeight()*2))
	r.width, r.height = r.canvas.TerminalWidth(), r.canvas.TerminalHeight()*2
	if cam != nil {
		cam.SetAspect(r.Aspect())
	}
}

// Aspect returns the pixel aspect ratio of the output.
func (r *Renderer) Aspect() float64 {
	return float64(r.width) / float64(r.height)
}

// Canvas returns the canvas frames are drawn on.
func (r *Renderer) Canvas() *Canvas {
	return r.canvas
}

// Frames returns how many frames have been rendered.
func (r *Renderer) Frames() int {
	return r.frames
}

// Render draws the scene as seen by cam. Planes are drawn first, with
// shadows, then spheres from far to near.
func (r *Renderer) Render(scene *Scene, cam *PerspectiveCamera) {
	r.canvas.Clear()
	r.frames++

	ambient, sun := lights(scene)
	r.collect(scene, cam, sun)

	r.drawPlanes(scene, cam, ambient, sun)

	sort.Slice(r.spheres, func(i, j int) bool {
		return r.spheres[i].depth > r.spheres[j].depth
	})
	for _, s := range r.spheres {
		r.drawSphere(scene, cam, s, ambient, sun)
	}
}

// Flush writes the last rendered frame.
func (r *Renderer) Flush(w io.Writer) {
	r.canvas.Render(w)
}

// collect sorts meshes into per-frame draw lists.
func (r *Renderer) collect(scene *Scene, cam *PerspectiveCamera, sun *DirectionalLight) {
	r.spheres = r.spheres[:0]
	r.planes = r.planes[:0]
	r.shadows = r.shadows[:0]

	var dir mgl64.Vec3
	castShadows := sun != nil && sun.CastShadow && sun.ShadowMapSize > 0
	if castShadows {
		dir = sun.Direction()
		castShadows = dir.Y() < -1e-3
	}

	for _, n := range scene.Nodes() {
		m, ok := n.(*Mesh)
		if !ok || m.Material == nil {
			continue
		}
		switch g := m.Geometry.(type) {
		case PlaneGeometry:
			if g.Width > 0 && g.Height > 0 {
				r.planes = append(r.planes, m)
			}
		case SphereGeometry:
			radius := m.Radius()
			if castShadows && m.CastShadow && m.Position.Y() > 0 {
				t := -m.Position.Y() / dir.Y()
				r.shadows = append(r.shadows, shadowDisc{
					x:      m.Position.X() + dir.X()*t,
					z:      m.Position.Z() + dir.Z()*t,
					radius: radius,
				})
			}
			x, y, depth, ok := cam.Project(m.Position)
			if !ok || depth > cam.Far+radius {
				continue
			}
			px := (x + 1) / 2 * float64(r.width)
			py := (1 - y) / 2 * float64(r.height)
			pr := radius * cam.pixelsPerUnit(depth, r.height)
			if px+pr < 0 || px-pr > float64(r.width) || py+pr < 0 || py-pr > float64(r.height) {
				continue
			}
			r.spheres = append(r.spheres, sphereDraw{mesh: m, x: px, y: py, radius: pr, depth: depth})
		}
	}
}

// drawPlanes casts a ray per pixel against every plane mesh and fills the
// background where nothing is hit.
func (r *Renderer) drawPlanes(scene *Scene, cam *PerspectiveCamera, ambient *AmbientLight, sun *DirectionalLight) {
	if len(r.planes) == 0 && scene.Background == nil {
		return
	}

	var bg colorful.Color
	var bgInk Ink
	if scene.Background != nil {
		bg = *scene.Background
		bgInk = r.ink(bg)
	}

	type planeHit struct {
		mesh   *Mesh
		normal mgl64.Vec3
		inv    mgl64.Quat
		w, h   float64
		shaded colorful.Color
		dark   colorful.Color
	}
	hits := make([]planeHit, 0, len(r.planes))
	for _, m := range r.planes {
		g := m.Geometry.(PlaneGeometry)
		normal := m.Quaternion.Rotate(mgl64.Vec3{0, 0, 1})
		if normal.Dot(cam.Position.Sub(m.Position)) < 0 {
			normal = normal.Mul(-1)
		}
		lit := r.shade(scene, m.Material, normal, mgl64.Vec3{}, ambient, sun, false)
		dark := lit
		if m.ReceiveShadow {
			dark = scaleColor(lit, shadowDarken)
		}
		if a := m.Material.alpha(); a < 1 && scene.Background != nil {
			lit = bg.BlendRgb(lit, a)
			dark = bg.BlendRgb(dark, a)
		}
		hits = append(hits, planeHit{
			mesh:   m,
			normal: normal,
			inv:    m.Quaternion.Conjugate(),
			w:      g.Width * m.Scale.X() / 2,
			h:      g.Height * m.Scale.Y() / 2,
			shaded: lit,
			dark:   dark,
		})
	}

	inks := make([]Ink, len(hits))
	darkInks := make([]Ink, len(hits))
	for i, h := range hits {
		inks[i] = r.ink(h.shaded)
		darkInks[i] = r.ink(h.dark)
	}

	origin := cam.Position
	for py := 0; py < r.height; py++ {
		ny := 1 - (float64(py)+0.5)/float64(r.height)*2
		for px := 0; px < r.width; px++ {
			nx := (float64(px)+0.5)/float64(r.width)*2 - 1
			dir := cam.Ray(nx, ny)

			best, bestT := -1, math.Inf(1)
			var bestPoint mgl64.Vec3
			for i, h := range hits {
				denom := dir.Dot(h.normal)
				if denom > -1e-9 {
					continue
				}
				t := h.mesh.Position.Sub(origin).Dot(h.normal) / denom
				if t <= 0 || t >= bestT || t > cam.Far {
					continue
				}
				p := origin.Add(dir.Mul(t))
				local := h.inv.Rotate(p.Sub(h.mesh.Position))
				if math.Abs(local.X()) > h.w || math.Abs(local.Y()) > h.h {
					continue
				}
				best, bestT, bestPoint = i, t, p
			}

			switch {
			case best >= 0:
				ink := inks[best]
				if hits[best].mesh.ReceiveShadow && r.inShadow(bestPoint) {
					ink = darkInks[best]
				}
				r.canvas.setPixel(px, py, ink)
			case scene.Background != nil:
				r.canvas.setPixel(px, py, bgInk)
			}
		}
	}
}

func (r *Renderer) inShadow(p mgl64.Vec3) bool {
	for _, s := range r.shadows {
		dx, dz := p.X()-s.x, p.Z()-s.z
		if dx*dx+dz*dz <= s.radius*s.radius {
			return true
		}
	}
	return false
}

// drawSphere shades a sphere disc pixel by pixel.
func (r *Renderer) drawSphere(scene *Scene, cam *PerspectiveCamera, s sphereDraw, ambient *AmbientLight, sun *DirectionalLight) {
	mat := s.mesh.Material
	alpha := mat.alpha()

	if alpha < glassOutlineA {
		r.canvas.DrawCircle(s.x, s.y, s.radius, r.ink(mat.Color))
		return
	}
	if s.radius < tinySpherePx {
		flat := r.shade(scene, mat, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{}, ambient, sun, false)
		r.canvas.FillCircle(s.x, s.y, max(s.radius, 0.5), r.ink(flat))
		return
	}

	var light mgl64.Vec3
	if sun != nil {
		light = cam.toView(sun.Direction().Mul(-1)).Normalize()
	}

	yStart := max(int(math.Floor(s.y-s.radius)), 0)
	yEnd := min(int(math.Ceil(s.y+s.radius)), r.height-1)
	xStart := max(int(math.Floor(s.x-s.radius)), 0)
	xEnd := min(int(math.Ceil(s.x+s.radius)), r.width-1)
	for py := yStart; py <= yEnd; py++ {
		dy := (float64(py) + 0.5 - s.y) / s.radius
		for px := xStart; px <= xEnd; px++ {
			dx := (float64(px) + 0.5 - s.x) / s.radius
			d2 := dx*dx + dy*dy
			if d2 > 1 {
				continue
			}
			normal := mgl64.Vec3{dx, -dy, math.Sqrt(1 - d2)}
			c := r.shade(scene, mat, normal, light, ambient, sun, true)
			if alpha < 1 {
				c = r.inkColor(r.canvas.At(px, py), scene).BlendRgb(c, alpha)
			}
			r.canvas.setPixel(px, py, r.ink(c))
		}
	}
}

// shade computes a surface colour. With viewSpace set, normal and light are
// camera-space vectors; otherwise light is taken from sun in world space.
func (r *Renderer) shade(scene *Scene, mat *Material, normal, light mgl64.Vec3, ambient *AmbientLight, sun *DirectionalLight, viewSpace bool) colorful.Color {
	brightness := 0.0
	tint := colorful.Color{R: 1, G: 1, B: 1}
	if ambient != nil {
		brightness += ambient.Intensity * ambientScale
		tint = ambient.Color
	}

	specular := 0.0
	if sun != nil {
		if !viewSpace {
			light = sun.Direction().Mul(-1)
		}
		diffuse := math.Max(0, normal.Dot(light))
		brightness += sun.Intensity * diffuse * (1 - 0.5*mat.Metalness)

		if viewSpace {
			half := light.Add(mgl64.Vec3{0, 0, 1}).Normalize()
			shininess := 4 + (1-mat.Roughness)*60
			specular = sun.Intensity * (1 - mat.Roughness) * math.Pow(math.Max(0, normal.Dot(half)), shininess)
		}
	}

	c := colorful.Color{
		R: mat.Color.R * tint.R * brightness,
		G: mat.Color.G * tint.G * brightness,
		B: mat.Color.B * tint.B * brightness,
	}

	env := mat.EnvMap
	if env == nil {
		env = scene.Environment
	}
	if env != nil {
		amount := mat.EnvMapIntensity * env.Intensity * (0.25 + 0.75*mat.Metalness) * (1 - 0.5*mat.Roughness) * 0.5
		c = c.BlendRgb(env.Tint, math.Min(amount, 1))
	}

	if specular > 0 {
		c = c.BlendRgb(colorful.Color{R: 1, G: 1, B: 1}, math.Min(specular, 1))
	}
	return c.Clamped()
}

// ink quantizes a colour and returns its palette ink.
func (r *Renderer) ink(c colorful.Color) Ink {
	c = c.Clamped()
	q := colorful.Color{R: quantize(c.R), G: quantize(c.G), B: quantize(c.B)}
	ink := r.canvas.Ink(q.Hex())
	for int(ink) >= len(r.inkColors) {
		r.inkColors = append(r.inkColors, colorful.Color{})
	}
	r.inkColors[ink] = q
	return ink
}

// inkColor returns the colour behind an ink, or the scene background for empty pixels.
func (r *Renderer) inkColor(ink Ink, scene *Scene) colorful.Color {
	if ink == NoInk || int(ink) >= len(r.inkColors) {
		if scene.Background != nil {
			return *scene.Background
		}
		return colorful.Color{}
	}
	return r.inkColors[ink]
}

func quantize(v float64) float64 {
	step := 1.0 / (colourLevels - 1)
	return math.Round(v/step) * step
}

func scaleColor(c colorful.Color, f float64) colorful.Color {
	return colorful.Color{R: c.R * f, G: c.G * f, B: c.B * f}
}

// lights returns the first ambient and directional light in the scene.
func lights(scene *Scene) (*AmbientLight, *DirectionalLight) {
	var ambient *AmbientLight
	var sun *DirectionalLight
	for _, n := range scene.Nodes() {
		switch l := n.(type) {
		case *AmbientLight:
			if ambient == nil {
				ambient = l
			}
		case *DirectionalLight:
			if sun == nil {
				sun = l
			}
		}
	}
	return ambient, sun
}
