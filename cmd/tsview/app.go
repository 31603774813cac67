package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"hash/fnv"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/harmonica"
	uv "github.com/charmbracelet/ultraviolet"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/rs/zerolog"

	"github.com/Maxar-Corp/wff-tools/internal/config"
	"github.com/Maxar-Corp/wff-tools/pkg/math3d"
	"github.com/Maxar-Corp/wff-tools/pkg/render"
	"github.com/Maxar-Corp/wff-tools/pkg/tiles"
	"github.com/Maxar-Corp/wff-tools/pkg/viewer"
)

// sceneItem is one tile's renderable geometry.
type sceneItem struct {
	mesh *tiles.Mesh
	tex  *render.Texture
}

// loadScene loads a tileset.json or a single GLB tile. The property table
// is shared tileset-wide in WFF output; the first table found wins.
func loadScene(path string, smoothNormals bool) ([]sceneItem, *tiles.PropertyTable, error) {
	var contents []*tiles.Content
	var err error

	if strings.EqualFold(filepath.Ext(path), ".json") {
		contents, err = tiles.LoadContents(path)
	} else {
		loader := tiles.NewLoader()
		loader.SmoothNormals = smoothNormals
		var content *tiles.Content
		content, err = loader.Load(path)
		if content != nil {
			contents = []*tiles.Content{content}
		}
	}
	if err != nil {
		return nil, nil, err
	}

	var items []sceneItem
	var table *tiles.PropertyTable
	for _, c := range contents {
		item := sceneItem{mesh: c.Mesh}
		if c.Texture != nil {
			item.tex = render.TextureFromImage(c.Texture)
		}
		items = append(items, item)
		if table == nil {
			table = c.Table
		}
	}
	return items, table, nil
}

// normalizeScene centers the combined bounds on the origin and scales the
// scene to roughly two units, preserving tile layout.
func normalizeScene(items []sceneItem) {
	if len(items) == 0 {
		return
	}

	min := items[0].mesh.BoundsMin
	max := items[0].mesh.BoundsMax
	for _, item := range items {
		item.mesh.CalculateBounds()
		min = min.Min(item.mesh.BoundsMin)
		max = max.Max(item.mesh.BoundsMax)
	}

	center := min.Add(max).Scale(0.5)
	size := max.Sub(min)
	maxDim := math.Max(size.X, math.Max(size.Y, size.Z))
	if maxDim <= 0 {
		return
	}

	scale := 2.0 / maxDim
	transform := math3d.ScaleUniform(scale).Mul(math3d.Translate(center.Scale(-1)))
	for _, item := range items {
		item.mesh.Transform(transform)
	}
}

// fbPicker picks features out of the framebuffer's ID plane. Terminal
// cells are one framebuffer pixel wide and two tall.
type fbPicker struct {
	app *app
}

func (p *fbPicker) Pick(x, y int) (viewer.Feature, bool) {
	id, ok := p.app.fb.FeatureAt(x, y*2)
	if !ok {
		return nil, false
	}
	f, ok := tiles.FeatureFromTable(p.app.table, id)
	if !ok {
		return nil, false
	}
	return f, true
}

// labelSurface draws the hover label over the rendered frame. ShowLabel
// records the request; render paints it after each frame, the same way
// the HUD overlays the framebuffer.
type labelSurface struct {
	visible      bool
	left, bottom int
	lines        []string
	style        lipgloss.Style
}

func newLabelSurface() *labelSurface {
	return &labelSurface{
		style: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#f0f0f0")).
			Background(lipgloss.Color("#202028")).
			Padding(0, 1),
	}
}

func (s *labelSurface) ShowLabel(left, bottom int, lines []string) {
	s.visible = true
	s.left = left
	s.bottom = bottom
	s.lines = lines
}

func (s *labelSurface) HideLabel() {
	s.visible = false
	s.lines = nil
}

// render paints the label with its bottom-left corner at the anchor,
// growing upward so it never covers the hovered cell's row below.
func (s *labelSurface) render(width, height int) {
	if !s.visible || len(s.lines) == 0 {
		return
	}

	bottomRow := height - s.bottom // 1-based terminal row
	topRow := bottomRow - len(s.lines) + 1
	col := clamp(s.left+1, 1, width)

	for i, line := range s.lines {
		row := topRow + i
		if row < 1 || row > height {
			continue
		}
		fmt.Print(moveTo(row, col) + s.style.Render(line))
	}
}

// cameraRig adapts the render camera to the pose protocol. Restored
// positions are flown to with a critically damped spring; orientation
// applies immediately.
type cameraRig struct {
	camera *render.Camera
	spring harmonica.Spring
	target math3d.Vec3
	vel    math3d.Vec3
	flying bool
}

func newCameraRig(camera *render.Camera, fps int) *cameraRig {
	return &cameraRig{
		camera: camera,
		spring: harmonica.NewSpring(harmonica.FPS(fps), 3.0, 1.0),
	}
}

func (r *cameraRig) Pose() (position, direction, up math3d.Vec3) {
	return r.camera.Position, r.camera.Direction(), r.camera.Up()
}

func (r *cameraRig) SetPose(position, direction, up math3d.Vec3) {
	r.camera.SetOrientation(direction, up)
	r.target = position
	r.vel = math3d.Zero3()
	r.flying = true
}

// update advances the fly-to animation one frame, snapping to the exact
// target at the end so a restored pose lands bit-for-bit.
func (r *cameraRig) update() {
	if !r.flying {
		return
	}
	p := r.camera.Position
	p.X, r.vel.X = r.spring.Update(p.X, r.vel.X, r.target.X)
	p.Y, r.vel.Y = r.spring.Update(p.Y, r.vel.Y, r.target.Y)
	p.Z, r.vel.Z = r.spring.Update(p.Z, r.vel.Z, r.target.Z)

	if p.Distance(r.target) < 1e-6 && r.vel.Len() < 1e-6 {
		p = r.target
		r.flying = false
	}
	r.camera.SetPosition(p)
}

// categoryColor derives a stable color from a property value. Values
// that are already a #rrggbb color are used as-is; anything else gets a
// hashed hue so equal values always shade alike.
func categoryColor(value string) render.Color {
	if strings.HasPrefix(value, "#") {
		if c, err := colorful.Hex(value); err == nil {
			r, g, b := c.Clamped().RGB255()
			return render.RGB(r, g, b)
		}
	}
	h := fnv.New32a()
	h.Write([]byte(value))
	hue := float64(h.Sum32() % 360)
	r, g, b := colorful.Hsv(hue, 0.55, 0.9).Clamped().RGB255()
	return render.RGB(r, g, b)
}

// propertyStyle colors features by one property column. Features with an
// empty value get white, which the land cover mode remaps to gray. A nil
// table or missing column yields no style, leaving the mode on raw
// shading.
func propertyStyle(table *tiles.PropertyTable, property string) render.StyleFunc {
	if table == nil {
		return nil
	}
	found := false
	for _, name := range table.PropertyNames() {
		if name == property {
			found = true
			break
		}
	}
	if !found {
		return nil
	}
	return func(featureID uint32) (render.Color, bool) {
		if int(featureID) >= table.Count {
			return render.Color{}, false
		}
		v := table.Value(property, int(featureID))
		if v == "" {
			return render.ColorWhite, true
		}
		return categoryColor(v), true
	}
}

// hud draws frame and interaction state along the terminal's top and
// bottom rows.
type hud struct {
	filename  string
	triangles int
	fps       float64
	fpsFrames int
	fpsTime   time.Time
	show      bool

	keyStyle    lipgloss.Style
	activeStyle lipgloss.Style
	dimStyle    lipgloss.Style
}

func newHUD(filename string, triangles int) *hud {
	return &hud{
		filename:    filename,
		triangles:   triangles,
		fpsTime:     time.Now(),
		show:        true,
		keyStyle:    lipgloss.NewStyle().Foreground(lipgloss.Color("#c0c0c0")).Background(lipgloss.Color("#000000")),
		activeStyle: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffd75f")).Background(lipgloss.Color("#000000")),
		dimStyle:    lipgloss.NewStyle().Faint(true).Foreground(lipgloss.Color("#808080")).Background(lipgloss.Color("#000000")),
	}
}

// updateFPS updates the FPS counter (call once per frame).
func (h *hud) updateFPS() {
	h.fpsFrames++
	elapsed := time.Since(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = time.Now()
	}
}

// render draws the HUD overlay directly to the terminal.
func (h *hud) render(width, height int, mode viewer.DisplayMode, picking bool, selected viewer.FeatureID) {
	const clearLine = "\x1b[2K"

	// Always clear the HUD rows so toggling off works
	fmt.Print(moveTo(1, 1) + clearLine)
	fmt.Print(moveTo(height, 1) + clearLine)
	if !h.show {
		return
	}

	// Top left: FPS. Top middle: file. Top right: triangle count.
	fmt.Print(moveTo(1, 1) + h.keyStyle.Render(fmt.Sprintf(" %.0f FPS ", h.fps)))
	titleCol := max((width-len(h.filename)-2)/2, 1)
	fmt.Print(moveTo(1, titleCol) + h.activeStyle.Render(" "+h.filename+" "))
	polyCol := max(width-16, 1)
	fmt.Print(moveTo(1, polyCol) + h.keyStyle.Render(fmt.Sprintf(" %d tris ", h.triangles)))

	// Bottom left: mode switcher, picking state, selection
	var parts []string
	for i, m := range []viewer.DisplayMode{viewer.ModeRaw, viewer.ModeClassification, viewer.ModeLandCover} {
		label := fmt.Sprintf("[%d] %s", i+1, m)
		if m == mode {
			parts = append(parts, h.activeStyle.Render(label))
		} else {
			parts = append(parts, h.keyStyle.Render(label))
		}
	}
	pick := "picking off"
	if picking {
		pick = "picking on"
	}
	parts = append(parts, h.keyStyle.Render("[p] "+pick))
	if id, ok := selected.Get(); ok {
		parts = append(parts, h.activeStyle.Render(fmt.Sprintf("feature %d", id)))
	}
	fmt.Print(moveTo(height, 1) + strings.Join(parts, h.dimStyle.Render(" ")))

	// Bottom right: pose hint
	hint := h.dimStyle.Render(" c: copy pose / paste to restore ")
	hintCol := max(width-34, 1)
	fmt.Print(moveTo(height, hintCol) + hint)
}

// app wires the render substrate to the interaction core. Everything in
// here is touched from the render loop goroutine only: input events are
// drained and dispatched between frames, so core writes (uniforms,
// material state, the framebuffer swap on resize) always land at a frame
// boundary and are never concurrent with a draw.
type app struct {
	term         *uv.Terminal
	termRenderer *render.TerminalRenderer
	fb           *render.Framebuffer
	camera       *render.Camera
	rasterizer   *render.Rasterizer

	scene []sceneItem
	table *tiles.PropertyTable

	dispatcher *viewer.Dispatcher
	hover      *viewer.HoverOverlay
	selection  *viewer.Selection
	modes      *viewer.ModeController
	pose       *viewer.PoseSerializer
	rig        *cameraRig
	surface    *labelSurface
	hud        *hud

	width, height int
	sceneCenter   math3d.Vec3

	mouseDown  bool
	dragged    bool
	lastMouseX int
	lastMouseY int

	log zerolog.Logger
}

// handleEvent applies one terminal event. Returns true when the event
// asks the viewer to quit.
func (a *app) handleEvent(ev uv.Event) bool {
	switch ev := ev.(type) {
	case uv.WindowSizeEvent:
		a.width, a.height = ev.Width, ev.Height
		a.term.Erase()
		a.term.Resize(a.width, a.height)
		a.termRenderer = render.NewTerminalRenderer(a.term, a.width, a.height)
		fbWidth, fbHeight := a.termRenderer.FramebufferSize()
		a.fb = render.NewFramebuffer(fbWidth, fbHeight)
		a.rasterizer.SetFramebuffer(a.fb)
		a.camera.SetAspectRatio(float64(fbWidth) / float64(fbHeight))
		a.hover.SetViewportHeight(a.height)

	case uv.KeyPressEvent:
		switch {
		case ev.MatchString("escape"), ev.MatchString("ctrl+c"), ev.MatchString("q"):
			return true
		case ev.MatchString("1"):
			a.modes.Apply(viewer.ModeRaw)
		case ev.MatchString("2"):
			a.modes.Apply(viewer.ModeClassification)
		case ev.MatchString("3"):
			a.modes.Apply(viewer.ModeLandCover)
		case ev.MatchString("m"):
			a.modes.Cycle()
		case ev.MatchString("p"):
			a.dispatcher.SetPickingEnabled(!a.dispatcher.PickingEnabled())
		case ev.MatchString("c"):
			a.copyPose()
		case ev.MatchString("x"):
			a.saveFrame()
		case ev.MatchString("r"):
			a.camera.SetPosition(math3d.V3(0, 1, 4))
			a.camera.LookAt(a.sceneCenter)
			a.rig.flying = false
		case ev.MatchString("w", "up"):
			a.camera.MoveForward(0.2)
		case ev.MatchString("s", "down"):
			a.camera.MoveForward(-0.2)
		case ev.MatchString("a", "left"):
			a.camera.MoveRight(-0.2)
		case ev.MatchString("d", "right"):
			a.camera.MoveRight(0.2)
		case ev.MatchString("?"), ev.MatchString("shift+/"):
			a.hud.show = !a.hud.show
		}

	case uv.PasteEvent:
		if a.pose.Restore(ev.Content) {
			a.log.Info().Msg("camera pose restored")
		} else {
			a.log.Debug().Int("len", len(ev.Content)).Msg("ignored paste, not a pose")
		}

	case uv.MouseClickEvent:
		a.mouseDown = true
		a.dragged = false
		a.lastMouseX, a.lastMouseY = ev.X, ev.Y

	case uv.MouseReleaseEvent:
		if a.mouseDown && !a.dragged {
			a.dispatcher.HandleClick(ev.X, ev.Y)
		}
		a.mouseDown = false

	case uv.MouseMotionEvent:
		if a.mouseDown {
			dx := ev.X - a.lastMouseX
			dy := ev.Y - a.lastMouseY
			if dx != 0 || dy != 0 {
				a.dragged = true
				a.camera.Orbit(a.sceneCenter, float64(dy)*0.02, float64(-dx)*0.02)
			}
			a.lastMouseX, a.lastMouseY = ev.X, ev.Y
		} else {
			a.dispatcher.HandleMove(ev.X, ev.Y)
		}

	case uv.MouseWheelEvent:
		switch ev.Button {
		case uv.MouseWheelUp:
			a.camera.MoveForward(0.25)
		case uv.MouseWheelDown:
			a.camera.MoveForward(-0.25)
		}
	}
	return false
}

func run(path string, log zerolog.Logger) error {
	renderCfg := config.GetRenderConfig()
	viewerCfg := config.GetViewerConfig()

	fps := renderCfg.FPS
	if fpsFlag > 0 {
		fps = fpsFlag
	}
	bgSpec := renderCfg.Background
	if bgFlag != "" {
		bgSpec = bgFlag
	}
	bg, ok := parseBackground(bgSpec)
	if !ok {
		bg = render.RGB(20, 20, 30)
		log.Warn().Str("background", bgSpec).Msg("bad background color, using default")
	}

	modeName := viewerCfg.DefaultMode
	if modeFlag != "" {
		modeName = modeFlag
	}
	initialMode, err := viewer.ParseDisplayMode(modeName)
	if err != nil {
		return err
	}

	// Load the scene before touching the terminal
	scene, table, err := loadScene(path, renderCfg.SmoothNormals)
	if err != nil {
		return fmt.Errorf("load scene: %w", err)
	}
	normalizeScene(scene)

	triangles := 0
	for _, item := range scene {
		triangles += item.mesh.TriangleCount()
	}
	log.Info().Str("path", path).Int("tiles", len(scene)).Int("triangles", triangles).Msg("scene loaded")

	// Terminal setup
	term := uv.DefaultTerminal()
	width, height, err := term.GetSize()
	if err != nil {
		return fmt.Errorf("get terminal size: %w", err)
	}
	if err := term.Start(); err != nil {
		return fmt.Errorf("start terminal: %w", err)
	}

	term.EnterAltScreen()
	term.HideCursor()
	term.Resize(width, height)

	fmt.Fprint(os.Stdout, "\x1b[?1003h") // Any-event mouse tracking
	fmt.Fprint(os.Stdout, "\x1b[?1006h") // SGR extended mouse mode
	fmt.Fprint(os.Stdout, "\x1b[?2004h") // Bracketed paste

	termRenderer := render.NewTerminalRenderer(term, width, height)
	fbWidth, fbHeight := termRenderer.FramebufferSize()
	fb := render.NewFramebuffer(fbWidth, fbHeight)

	camera := render.NewCamera()
	camera.SetAspectRatio(float64(fbWidth) / float64(fbHeight))
	camera.SetClipPlanes(0.1, 100)
	camera.SetPosition(math3d.V3(0, 1, 4))
	camera.LookAt(math3d.Zero3())

	rasterizer := render.NewRasterizer(camera, fb)

	a := &app{
		term:         term,
		termRenderer: termRenderer,
		fb:           fb,
		camera:       camera,
		rasterizer:   rasterizer,
		scene:        scene,
		table:        table,
		width:        width,
		height:       height,
		log:          log,
	}

	// Interaction core. Unless config picks one, the highlight sentinel
	// reuses the framebuffer's empty-pixel marker, which no loaded
	// feature ID can reach.
	sentinel := viewerCfg.HighlightSentinel
	if sentinel < 0 {
		sentinel = int(render.NoFeature)
	}
	a.surface = newLabelSurface()
	a.hover = viewer.NewHoverOverlay(a.surface, height)
	a.selection = viewer.NewSelection(rasterizer, sentinel)
	a.dispatcher = viewer.NewDispatcher(&fbPicker{app: a}, a.hover, a.selection)
	a.dispatcher.SetLogger(log)
	a.dispatcher.SetPickingEnabled(viewerCfg.PickingEnabled)

	a.modes = viewer.NewModeController(rasterizer, viewer.DefaultModeConfigs(
		propertyStyle(table, viewerCfg.ClassificationProperty),
		propertyStyle(table, viewerCfg.LandCoverProperty),
	), initialMode)

	a.rig = newCameraRig(camera, fps)
	a.pose = viewer.NewPoseSerializer(a.rig)
	a.hud = newHUD(filepath.Base(path), triangles)

	// Context for clean shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Main loop. The render loop is the sole consumer of terminal events:
	// input is drained between frames, never while a draw is running.
	events := term.Events()
	targetDuration := time.Second / time.Duration(fps)
	lightDir := math3d.V3(0.5, 1, 0.3).Normalize()

	cleanup := func() {
		fmt.Fprint(os.Stdout, "\x1b[?2004l")
		fmt.Fprint(os.Stdout, "\x1b[?1006l")
		fmt.Fprint(os.Stdout, "\x1b[?1003l")
		term.ExitAltScreen()
		term.ShowCursor()
		term.Shutdown(context.Background())
	}

	for {
		select {
		case <-ctx.Done():
			cleanup()
			return nil
		default:
		}

		// Dispatch pending input before drawing so every core write is
		// visible to this frame and none races the draw below.
	drain:
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					cleanup()
					return nil
				}
				if a.handleEvent(ev) {
					cleanup()
					return nil
				}
			default:
				break drain
			}
		}

		frameStart := time.Now()

		a.rig.update()

		fb := a.fb
		fb.Clear(bg)
		a.rasterizer.ClearDepth()
		a.rasterizer.ResetCullingStats()
		a.rasterizer.InvalidateFrustum()

		for _, item := range a.scene {
			a.rasterizer.DrawMesh(item.mesh, math3d.Identity(), item.tex, render.RGB(200, 200, 200), lightDir)
		}

		a.termRenderer.Render(fb)
		if err := a.termRenderer.Flush(); err != nil {
			cleanup()
			return fmt.Errorf("flush: %w", err)
		}

		// Overlays paint over the flushed frame
		a.hud.updateFPS()
		a.hud.render(a.width, a.height, a.modes.Active(), a.dispatcher.PickingEnabled(), a.selection.Selected())
		a.surface.render(a.width, a.height)

		elapsed := time.Since(frameStart)
		if elapsed < targetDuration {
			time.Sleep(targetDuration - elapsed)
		}
	}
}

// copyPose serializes the camera pose and puts it on the system clipboard
// via OSC 52.
func (a *app) copyPose() {
	text, err := a.pose.Capture()
	if err != nil {
		a.log.Error().Err(err).Msg("capture pose")
		return
	}
	fmt.Fprintf(os.Stdout, "\x1b]52;c;%s\x07", base64.StdEncoding.EncodeToString([]byte(text)))
	a.log.Info().Str("pose", text).Msg("camera pose copied")
}

// saveFrame writes the last rendered frame to a PNG in the working
// directory.
func (a *app) saveFrame() {
	name := fmt.Sprintf("tsview-%s.png", time.Now().Format("20060102-150405"))
	if err := a.fb.SavePNG(name); err != nil {
		a.log.Error().Err(err).Str("file", name).Msg("save frame")
		return
	}
	a.log.Info().Str("file", name).Msg("frame saved")
}

// parseBackground parses an "R,G,B" background color. The second return
// is false when the spec is not three 0-255 components.
func parseBackground(spec string) (render.Color, bool) {
	var r, g, b uint8
	n, err := fmt.Sscanf(spec, "%d,%d,%d", &r, &g, &b)
	if err != nil || n != 3 {
		return render.Color{}, false
	}
	return render.RGB(r, g, b), true
}

// moveTo positions the cursor (1-based row and column).
func moveTo(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
