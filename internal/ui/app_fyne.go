//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"goschematic/internal/backend"
	"goschematic/internal/config"
	"goschematic/internal/crash"
	"goschematic/internal/domain"
	"goschematic/internal/export"
	"goschematic/internal/geometry"
	applog "goschematic/internal/log"
	"goschematic/internal/storage"
	"goschematic/internal/telemetry"
	"goschematic/internal/undo"
	"goschematic/internal/version"
	"goschematic/internal/wirenet"
)

// canvasPad is the pixel margin around the sheet drawing area.
const canvasPad float32 = 20

var (
	wireColor     = color.NRGBA{R: 0x20, G: 0x60, B: 0xc0, A: 0xff}
	symbolColor   = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	pinColor      = color.NRGBA{R: 0xc0, G: 0x30, B: 0x30, A: 0xff}
	junctionColor = color.NRGBA{R: 0x20, G: 0x60, B: 0xc0, A: 0xff}
)

// SheetCanvas renders a sheet's engine state and forwards clicks, cursor
// moves and double-clicks to the wire-drawing protocol.
type SheetCanvas struct {
	widget.BaseWidget

	sheet   *domain.Sheet
	mgr     *wirenet.Manager
	session wirenet.DrawingSession

	wireMode bool
	scale    float32

	onStatus  func(string)
	onChanged func() // fired after committed structural edits
}

// NewSheetCanvas returns an empty canvas; call SetSheet to attach a model.
func NewSheetCanvas() *SheetCanvas {
	sc := &SheetCanvas{scale: 2, session: wirenet.NewDrawingSession()}
	sc.ExtendBaseWidget(sc)
	return sc
}

// SetSheet points the canvas at a sheet and rebuilds the live engine.
func (sc *SheetCanvas) SetSheet(sheet *domain.Sheet, tolerance float64) {
	sc.sheet = sheet
	sc.session = wirenet.NewDrawingSession()
	if sheet != nil {
		sc.mgr = sheet.BuildManager(tolerance)
	} else {
		sc.mgr = nil
	}
	sc.Refresh()
}

// Manager exposes the live engine so the shell can hook the undo recorder.
func (sc *SheetCanvas) Manager() *wirenet.Manager { return sc.mgr }

// SetWireMode toggles between wire drawing and selection.
func (sc *SheetCanvas) SetWireMode(on bool) {
	if sc.wireMode && !on && sc.session.State == wirenet.StateDrawing {
		sc.session = sc.mgr.AbortWire(sc.session)
	}
	sc.wireMode = on
	sc.Refresh()
}

// commit writes engine records back to the sheet and notifies the shell.
func (sc *SheetCanvas) commit() {
	if sc.sheet != nil && sc.mgr != nil {
		sc.sheet.Capture(sc.mgr)
	}
	if sc.onChanged != nil {
		sc.onChanged()
	}
}

func (sc *SheetCanvas) toModel(p fyne.Position) geometry.Point {
	return geometry.P(float64((p.X-canvasPad)/sc.scale), float64((p.Y-canvasPad)/sc.scale))
}

func (sc *SheetCanvas) toView(p geometry.Point) fyne.Position {
	return fyne.NewPos(float32(p.X)*sc.scale+canvasPad, float32(p.Y)*sc.scale+canvasPad)
}

// Tapped advances the drawing gesture or reports the symbol under the cursor.
func (sc *SheetCanvas) Tapped(ev *fyne.PointEvent) {
	if sc.mgr == nil {
		return
	}
	pos := sc.toModel(ev.Position)
	if sc.wireMode {
		sc.session = sc.mgr.ClickWire(sc.session, pos)
		sc.status(fmt.Sprintf("wire %s", sc.session.State))
		sc.Refresh()
		return
	}
	if sym, ok := sc.symbolAt(pos); ok {
		sc.status(fmt.Sprintf("%s %s", sym.Ref, sym.Value))
	} else {
		sc.status("")
	}
}

// DoubleTapped finishes the in-progress wire.
func (sc *SheetCanvas) DoubleTapped(*fyne.PointEvent) {
	if sc.mgr == nil || sc.session.State != wirenet.StateDrawing {
		return
	}
	s, err := sc.mgr.FinishWire(sc.session)
	sc.session = s
	if errors.Is(err, wirenet.ErrFloatingEndpoint) {
		sc.status("endpoint must land on a connector or wire")
		sc.Refresh()
		return
	}
	sc.status("wire finished")
	sc.commit()
	sc.session = wirenet.NewDrawingSession()
	sc.Refresh()
}

// MouseMoved drags the provisional corner+endpoint pair while drawing.
func (sc *SheetCanvas) MouseMoved(ev *desktop.MouseEvent) {
	if sc.mgr == nil || sc.session.State != wirenet.StateDrawing {
		return
	}
	sc.session = sc.mgr.MoveCursor(sc.session, sc.toModel(ev.Position))
	sc.Refresh()
}

func (sc *SheetCanvas) MouseIn(*desktop.MouseEvent) {}

func (sc *SheetCanvas) MouseOut() {}

// TogglePosture flips the corner routing of the provisional segment.
func (sc *SheetCanvas) TogglePosture() {
	sc.session = sc.session.TogglePosture()
	sc.Refresh()
}

// Abort cancels the in-progress gesture.
func (sc *SheetCanvas) Abort() {
	if sc.mgr != nil && sc.session.State == wirenet.StateDrawing {
		sc.session = sc.mgr.AbortWire(sc.session)
		sc.status("wire aborted")
	}
	sc.session = wirenet.NewDrawingSession()
	sc.Refresh()
}

func (sc *SheetCanvas) status(s string) {
	if sc.onStatus != nil {
		sc.onStatus(s)
	}
}

func (sc *SheetCanvas) symbolAt(p geometry.Point) (domain.Symbol, bool) {
	if sc.sheet == nil {
		return domain.Symbol{}, false
	}
	for _, sym := range sc.sheet.Symbols {
		size := sym.Size
		if size.X == 0 && size.Y == 0 {
			size = domain.DefaultSymbolSize
		}
		if p.X >= sym.Pos.X && p.X <= sym.Pos.X+size.X && p.Y >= sym.Pos.Y && p.Y <= sym.Pos.Y+size.Y {
			return sym, true
		}
	}
	return domain.Symbol{}, false
}

func (sc *SheetCanvas) CreateRenderer() fyne.WidgetRenderer {
	r := &sheetCanvasRenderer{sc: sc}
	r.rebuild()
	return r
}

type sheetCanvasRenderer struct {
	sc      *SheetCanvas
	objects []fyne.CanvasObject
}

func (r *sheetCanvasRenderer) Layout(fyne.Size) {}

func (r *sheetCanvasRenderer) Destroy() {}

func (r *sheetCanvasRenderer) Objects() []fyne.CanvasObject { return r.objects }

func (r *sheetCanvasRenderer) MinSize() fyne.Size {
	sc := r.sc
	if sc.sheet == nil {
		return fyne.NewSize(400, 300)
	}
	var maxX, maxY float64
	for _, sym := range sc.sheet.Symbols {
		size := sym.Size
		if size.X == 0 && size.Y == 0 {
			size = domain.DefaultSymbolSize
		}
		if v := sym.Pos.X + size.X; v > maxX {
			maxX = v
		}
		if v := sym.Pos.Y + size.Y; v > maxY {
			maxY = v
		}
	}
	if sc.mgr != nil {
		for _, id := range sc.mgr.Wires() {
			if w := sc.mgr.Wire(id); w != nil {
				for _, p := range w.PointsAbsolute() {
					if p.Pos.X > maxX {
						maxX = p.Pos.X
					}
					if p.Pos.Y > maxY {
						maxY = p.Pos.Y
					}
				}
			}
		}
	}
	return fyne.NewSize(float32(maxX)*sc.scale+2*canvasPad, float32(maxY)*sc.scale+2*canvasPad)
}

func (r *sheetCanvasRenderer) Refresh() {
	r.rebuild()
	canvas.Refresh(r.sc)
}

// rebuild regenerates the scene objects from the engine state.
func (r *sheetCanvasRenderer) rebuild() {
	sc := r.sc
	objs := make([]fyne.CanvasObject, 0, 64)

	bg := canvas.NewRectangle(color.White)
	bg.Resize(r.MinSize())
	objs = append(objs, bg)

	if sc.mgr != nil {
		for _, id := range sc.mgr.Wires() {
			w := sc.mgr.Wire(id)
			if w == nil {
				continue
			}
			pts := w.PointsAbsolute()
			for i := 1; i < len(pts); i++ {
				ln := canvas.NewLine(wireColor)
				ln.StrokeWidth = 2
				ln.Position1 = sc.toView(pts[i-1].Pos)
				ln.Position2 = sc.toView(pts[i].Pos)
				objs = append(objs, ln)
			}
			for _, p := range pts {
				if !p.Junction {
					continue
				}
				dot := canvas.NewCircle(junctionColor)
				v := sc.toView(p.Pos)
				dot.Resize(fyne.NewSize(8, 8))
				dot.Move(fyne.NewPos(v.X-4, v.Y-4))
				objs = append(objs, dot)
			}
		}
	}

	if sc.sheet != nil {
		for _, sym := range sc.sheet.Symbols {
			size := sym.Size
			if size.X == 0 && size.Y == 0 {
				size = domain.DefaultSymbolSize
			}
			body := canvas.NewRectangle(color.Transparent)
			body.StrokeColor = symbolColor
			body.StrokeWidth = 1.5
			body.Move(sc.toView(sym.Pos))
			body.Resize(fyne.NewSize(float32(size.X)*sc.scale, float32(size.Y)*sc.scale))
			objs = append(objs, body)

			for _, pin := range sym.Pins {
				pp := sym.Pos.Add(domain.RotateOffset(pin.Offset, sym.Rotation))
				dot := canvas.NewCircle(pinColor)
				v := sc.toView(pp)
				dot.Resize(fyne.NewSize(6, 6))
				dot.Move(fyne.NewPos(v.X-3, v.Y-3))
				objs = append(objs, dot)
			}

			ref := canvas.NewText(sym.Ref, symbolColor)
			ref.TextSize = 12
			ref.TextStyle = fyne.TextStyle{Bold: true}
			rv := sc.toView(sym.Pos)
			ref.Move(fyne.NewPos(rv.X, rv.Y-16))
			objs = append(objs, ref)
		}
		for _, lb := range sc.sheet.Labels {
			txt := canvas.NewText(lb.Text, symbolColor)
			txt.TextSize = 12
			txt.Move(sc.toView(lb.Pos))
			objs = append(objs, txt)
		}
	}

	r.objects = objs
}

// pushProject uploads the project's manifest and a freshly generated
// netlist to the sync server. The project must already be registered
// there; matching is by name.
func pushProject(ctx context.Context, client *backend.Client, ph *storage.ProjectHandle) error {
	remote, err := client.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list remote projects: %w", err)
	}
	var id int64
	for _, rp := range remote {
		if rp.Name == ph.Project.Name {
			id = rp.ID
			break
		}
	}
	if id == 0 {
		return fmt.Errorf("project %q is not registered on the backend", ph.Project.Name)
	}
	manifest, err := json.Marshal(ph.Project)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if _, err := client.PutManifest(ctx, id, manifest); err != nil {
		return fmt.Errorf("push manifest: %w", err)
	}
	if _, err := client.PutNetlist(ctx, id, export.GenerateNetlist(&ph.Project)); err != nil {
		return fmt.Errorf("push netlist: %w", err)
	}
	return nil
}

// Run starts the Fyne-based desktop shell.
func Run(projectDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI", slog.String("version", version.String()))

	cfg, token, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.String("error", err.Error()))
		cfg = config.Defaults()
	}

	var ph *storage.ProjectHandle
	defer func() { crash.Recover(ph) }()

	fyneApp := app.NewWithID("goschematic")
	w := fyneApp.NewWindow("GoSchematic")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	sheetCanvas := NewSheetCanvas()
	sheetCanvas.onStatus = func(s string) {
		if s == "" {
			s = "Ready"
		}
		status.SetText(s)
	}

	currentSheet := ""

	undoMgr := undo.NewManager(undo.Config{
		MaxBytes:    32 * 1024 * 1024,
		MaxPerSheet: 50,
		MinInterval: 300 * time.Millisecond,
	})

	captureSheet := func() []byte {
		if ph == nil {
			return nil
		}
		sh, ok := ph.Project.SheetByName(currentSheet)
		if !ok {
			return nil
		}
		blob, err := json.Marshal(sh)
		if err != nil {
			return nil
		}
		return blob
	}

	applySheetSnapshot := func(blob []byte) {
		if ph == nil {
			return
		}
		var sh domain.Sheet
		if err := json.Unmarshal(blob, &sh); err != nil {
			l.Warn("apply snapshot failed", slog.String("error", err.Error()))
			return
		}
		if cur, ok := ph.Project.SheetByName(currentSheet); ok {
			*cur = sh
			sheetCanvas.SetSheet(cur, cfg.Editor.Tolerance)
		}
	}

	// Sheet navigation (left)
	sheetNames := []string{}
	sheetsList := widget.NewList(
		func() int { return len(sheetNames) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(sheetNames) {
				o.(*widget.Label).SetText(sheetNames[i])
			}
		},
	)

	// Symbol inspector (right)
	symbolDisplay := []string{}
	symbolList := widget.NewList(
		func() int { return len(symbolDisplay) },
		func() fyne.CanvasObject { return widget.NewLabel("") },
		func(i widget.ListItemID, o fyne.CanvasObject) {
			if i >= 0 && int(i) < len(symbolDisplay) {
				o.(*widget.Label).SetText(symbolDisplay[i])
			}
		},
	)

	refreshSymbolList := func() {
		symbolDisplay = symbolDisplay[:0]
		if ph != nil {
			if sh, ok := ph.Project.SheetByName(currentSheet); ok {
				for _, sym := range sh.Symbols {
					label := sym.Ref
					if sym.Value != "" {
						label += " (" + sym.Value + ")"
					}
					symbolDisplay = append(symbolDisplay, label)
				}
			}
		}
		symbolList.Refresh()
	}

	hookRecorder := func() {
		if m := sheetCanvas.Manager(); m != nil {
			m.SetObserver(undo.NewRecorder(undoMgr, currentSheet, captureSheet))
		}
	}

	selectSheet := func(name string) {
		if ph == nil {
			return
		}
		sh, ok := ph.Project.SheetByName(name)
		if !ok {
			return
		}
		currentSheet = name
		sheetCanvas.SetSheet(sh, cfg.Editor.Tolerance)
		hookRecorder()
		refreshSymbolList()
		status.SetText("sheet " + name)
	}

	refreshSheetList := func() {
		sheetNames = sheetNames[:0]
		if ph != nil {
			for i := range ph.Project.Sheets {
				sheetNames = append(sheetNames, ph.Project.Sheets[i].Name)
			}
		}
		sheetsList.Refresh()
	}

	sheetsList.OnSelected = func(id widget.ListItemID) {
		if id >= 0 && int(id) < len(sheetNames) {
			selectSheet(sheetNames[id])
		}
	}

	sheetCanvas.onChanged = func() {
		refreshSymbolList()
		telemetry.Event("wire_edit", map[string]any{"sheet": currentSheet})
	}

	openProject := func(dir string) {
		h, err := storage.Open(dir)
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		ph = h
		refreshSheetList()
		if len(ph.Project.Sheets) > 0 {
			selectSheet(ph.Project.Sheets[0].Name)
			sheetsList.Select(0)
		}
		w.SetTitle("GoSchematic — " + ph.Project.Name)
		l.Info("project opened", slog.String("root", dir))
	}

	saveProject := func() {
		if ph == nil {
			return
		}
		if err := storage.Save(ph); err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("saved")
		telemetry.Event("project_save", nil)
	}

	doUndo := func() {
		if snap, ok := undoMgr.Undo(currentSheet); ok {
			applySheetSnapshot(snap.Blob)
			hookRecorder()
			refreshSymbolList()
			status.SetText("undo")
		}
	}
	doRedo := func() {
		if snap, ok := undoMgr.Redo(currentSheet); ok {
			applySheetSnapshot(snap.Blob)
			hookRecorder()
			refreshSymbolList()
			status.SetText("redo")
		}
	}

	wireToggle := widget.NewCheck("Draw wires", func(on bool) {
		sheetCanvas.SetWireMode(on)
		if on {
			status.SetText("click to route, double-click to finish, Esc to abort")
		} else {
			status.SetText("Ready")
		}
	})

	toolbar := container.NewHBox(
		wireToggle,
		widget.NewButton("Undo", doUndo),
		widget.NewButton("Redo", doRedo),
		widget.NewButton("Save", saveProject),
		widget.NewButton("Export PDF", func() {
			if ph == nil {
				return
			}
			if err := export.ExportProjectPDF(ph, "schematic.pdf", export.PDFOptions{IncludeGrid: true}); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("exported schematic.pdf")
			telemetry.Event("export_pdf", nil)
		}),
	)

	// Backend sync is opt-in: it needs a configured base URL and a token
	// in the OS keychain.
	if cfg.Backend.BaseURL != "" && token != "" {
		client := backend.NewClient(cfg.Backend.BaseURL, token)
		toolbar.Add(widget.NewButton("Sync", func() {
			if ph == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(),
				time.Duration(cfg.Backend.TimeoutMs)*time.Millisecond)
			defer cancel()
			if err := pushProject(ctx, client, ph); err != nil {
				dialog.ShowError(err, w)
				return
			}
			status.SetText("synced to backend")
			telemetry.Event("backend_sync", nil)
		}))
	}

	w.Canvas().SetOnTypedKey(func(ev *fyne.KeyEvent) {
		switch ev.Name {
		case fyne.KeySpace:
			sheetCanvas.TogglePosture()
		case fyne.KeyEscape:
			sheetCanvas.Abort()
		}
	})

	left := container.NewBorder(widget.NewLabel("Sheets"), nil, nil, nil, sheetsList)
	right := container.NewBorder(widget.NewLabel("Symbols"), nil, nil, nil, symbolList)
	center := container.NewScroll(sheetCanvas)
	content := container.NewBorder(toolbar, status, left, right, center)
	w.SetContent(content)

	w.SetOnClosed(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
	})

	if projectDir != "" {
		openProject(projectDir)
	}

	w.ShowAndRun()
	return nil
}
