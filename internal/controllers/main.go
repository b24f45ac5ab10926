// Package controllers holds the MainController, the single owner of the
// viewer session. Every user action goes through it and ends with the view
// showing either a slice or an empty placeholder plus a status message.
package controllers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"brats-viewer/internal/config"
	"brats-viewer/internal/logger"
	"brats-viewer/internal/models"
	"brats-viewer/internal/opencv/conversion"
	"brats-viewer/internal/processing/effects"
	"brats-viewer/internal/services"
	"brats-viewer/internal/volume"
)

// View is what the controller drives. Implementations marshal calls onto
// their UI thread themselves.
type View interface {
	SetDatasets(ids []string, selected string)
	SetModalities(modalities []string, selected string)
	SetEffects(names []string, selected string)
	SetSliceRange(depth, index int)
	// ShowSlice displays img for index; nil shows the empty placeholder.
	ShowSlice(img image.Image, index int)
	SetStatus(status string)
	ShowError(title string, err error)
	ShowInfo(title, message string)
	ShowStatistics(result *services.StatisticsResult)
}

// MainController orchestrates the viewer
type MainController struct {
	cfg *config.Config

	store   *volume.Store
	slices  *services.SliceService
	export  *services.ExportService
	stats   *services.StatisticsService
	session *models.SessionRepository

	view View
	log  logger.Logger

	// serializes pipeline runs; SliceService is not safe for concurrent use
	mu sync.Mutex
}

func NewMainController(
	cfg *config.Config,
	store *volume.Store,
	slices *services.SliceService,
	export *services.ExportService,
	stats *services.StatisticsService,
	log logger.Logger,
) *MainController {
	session := models.NewSessionRepository(models.ViewState{
		Modality:  cfg.Viewer.Modality,
		Effect:    effects.Name(cfg.Viewer.Effect),
		Highlight: cfg.Viewer.Highlight,
	})

	return &MainController{
		cfg:     cfg,
		store:   store,
		slices:  slices,
		export:  export,
		stats:   stats,
		session: session,
		log:     log,
	}
}

// SetView associates the main view with this controller
func (mc *MainController) SetView(view View) {
	mc.view = view
}

// Session exposes the slices currently on screen. Callers must not close them.
func (mc *MainController) Session() *models.SessionRepository {
	return mc.session
}

func (mc *MainController) State() models.ViewState {
	return mc.session.State()
}

// Start fills the pickers and loads the configured dataset, if any.
func (mc *MainController) Start() {
	state := mc.session.State()

	modalities := make([]string, 0, 4)
	for _, m := range config.Modalities() {
		modalities = append(modalities, string(m))
	}
	names := make([]string, 0, len(effects.Names()))
	for _, n := range effects.Names() {
		names = append(names, string(n))
	}

	mc.view.SetDatasets(mc.cfg.Catalog.IDs(), mc.cfg.Viewer.Dataset)
	mc.view.SetModalities(modalities, string(state.Modality))
	mc.view.SetEffects(names, string(state.Effect))

	if mc.cfg.Viewer.Dataset == "" {
		mc.view.ShowSlice(nil, 0)
		mc.view.SetStatus("Seleccione un dataset")
		return
	}
	if err := mc.SelectDataset(mc.cfg.Viewer.Dataset); err != nil {
		mc.log.Warning("MainController", "initial dataset not loaded", map[string]interface{}{
			"dataset": mc.cfg.Viewer.Dataset,
			"error":   err.Error(),
		})
	}
}

// SelectDataset loads the catalog entry id: the current modality as the
// standard volume and the segmentation as the mask. A failing standard load
// keeps the previous volumes.
func (mc *MainController) SelectDataset(id string) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	ds, err := mc.cfg.Catalog.Lookup(id)
	if err != nil {
		mc.handleError("Dataset", err)
		return err
	}

	modality := mc.session.State().Modality
	if err := mc.loadStandard(ds, modality); err != nil {
		mc.handleError("Error al cargar volumen", err)
		return err
	}

	if ds.Seg == "" {
		mc.store.Set(volume.RoleMask, nil)
	} else if err := mc.store.Load(ds.Seg, volume.RoleMask); err != nil {
		// the slice is still viewable without its mask
		mc.store.Set(volume.RoleMask, nil)
		mc.handleError("Error al cargar máscara", err)
	}

	state := mc.session.Update(func(s *models.ViewState) {
		s.DatasetID = id
		s.Index = mc.fitIndex(s.Index)
	})
	mc.view.SetSliceRange(mc.store.Depth(volume.RoleStandard), state.Index)
	mc.render(state)
	return nil
}

// SelectModality swaps the standard volume of the current dataset.
func (mc *MainController) SelectModality(m config.Modality) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	state := mc.session.State()
	if state.DatasetID == "" {
		mc.session.Update(func(s *models.ViewState) { s.Modality = m })
		return nil
	}

	ds, err := mc.cfg.Catalog.Lookup(state.DatasetID)
	if err != nil {
		mc.handleError("Dataset", err)
		return err
	}
	if err := mc.loadStandard(ds, m); err != nil {
		mc.handleError("Error al cargar volumen", err)
		return err
	}

	state = mc.session.Update(func(s *models.ViewState) {
		s.Modality = m
		s.Index = mc.fitIndex(s.Index)
	})
	mc.view.SetSliceRange(mc.store.Depth(volume.RoleStandard), state.Index)
	mc.render(state)
	return nil
}

// LoadVolume binds a volume file or DICOM directory outside the catalog.
func (mc *MainController) LoadVolume(path string, role volume.Role) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if err := mc.store.Load(path, role); err != nil {
		mc.handleError("Error al cargar volumen", err)
		return err
	}

	state := mc.session.Update(func(s *models.ViewState) { s.Index = mc.fitIndex(s.Index) })
	if role == volume.RoleStandard {
		mc.view.SetSliceRange(mc.store.Depth(volume.RoleStandard), state.Index)
	}
	mc.render(state)
	return nil
}

func (mc *MainController) loadStandard(ds config.Dataset, m config.Modality) error {
	path := ds.Path(m)
	if path == "" {
		return fmt.Errorf("dataset has no %s volume", m)
	}
	return mc.store.Load(path, volume.RoleStandard)
}

// fitIndex keeps index when it is valid for the standard volume and moves to
// the middle slice otherwise.
func (mc *MainController) fitIndex(index int) int {
	depth := mc.store.Depth(volume.RoleStandard)
	if index >= 0 && index < depth {
		return index
	}
	return depth / 2
}

// SetIndex shows slice index. Out-of-range indices are not clamped: the view
// gets the empty placeholder.
func (mc *MainController) SetIndex(index int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.render(mc.session.Update(func(s *models.ViewState) { s.Index = index }))
}

func (mc *MainController) SetEffect(name string) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	effect := effects.Name(name)
	if !effects.Known(effect) {
		mc.log.Warning("MainController", "unknown effect, showing the slice unchanged", map[string]interface{}{
			"effect": name,
		})
	}
	mc.render(mc.session.Update(func(s *models.ViewState) { s.Effect = effect }))
}

func (mc *MainController) SetHighlight(on bool) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.render(mc.session.Update(func(s *models.ViewState) { s.Highlight = on }))
}

// Refresh re-runs the pipeline for the current state.
func (mc *MainController) Refresh() {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	mc.render(mc.session.State())
}

// render runs the pipeline for state, replaces the session slices and
// updates the view. Must be called with mc.mu held.
func (mc *MainController) render(state models.ViewState) {
	if mc.store.Depth(volume.RoleStandard) == 0 {
		mc.session.Clear()
		mc.view.ShowSlice(nil, state.Index)
		mc.view.SetStatus("Sin volumen cargado")
		return
	}

	pair, processed, err := mc.slices.Render(state)
	if err != nil {
		mc.session.Clear()
		mc.view.ShowSlice(nil, state.Index)
		mc.view.SetStatus(fmt.Sprintf("Corte %d no disponible: %v", state.Index, err))
		return
	}
	mc.session.SetSlices(pair, processed)

	if processed.Empty() {
		mc.view.ShowSlice(nil, state.Index)
		mc.view.SetStatus(fmt.Sprintf("Corte %d: %s no produjo imagen", state.Index, state.Effect))
		return
	}

	img, err := conversion.MatToImage(processed.Image)
	if err != nil {
		mc.log.Error("MainController", err, map[string]interface{}{"index": state.Index})
		mc.view.ShowSlice(nil, state.Index)
		mc.view.SetStatus(fmt.Sprintf("Corte %d: %v", state.Index, err))
		return
	}

	mc.view.ShowSlice(img, state.Index)
	mc.view.SetStatus(fmt.Sprintf("Corte %d/%d | %s | %v",
		state.Index, mc.store.Depth(volume.RoleStandard)-1, state.Effect, processed.ProcessTime.Round(time.Microsecond)))
}

// SaveSlice writes the slice on screen to the output directory.
func (mc *MainController) SaveSlice() (string, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return mc.saveSlice()
}

func (mc *MainController) saveSlice() (string, error) {
	processed := mc.session.Processed()
	if processed.Empty() {
		err := errors.New("no hay imagen para guardar")
		mc.handleError("Guardar", err)
		return "", err
	}

	path, err := mc.export.SaveSlice(processed.Image, processed.Index)
	if err != nil {
		mc.handleError("Guardar", err)
		return "", err
	}
	mc.view.SetStatus("Imagen guardada en " + path)
	return path, nil
}

// Analyze computes statistics of the slice on screen inside the mask.
func (mc *MainController) Analyze(ctx context.Context) (*services.StatisticsResult, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return mc.analyze(ctx)
}

func (mc *MainController) analyze(ctx context.Context) (*services.StatisticsResult, error) {
	processed := mc.session.Processed()
	pair := mc.session.Pair()
	if processed.Empty() || !pair.HasMask() {
		err := services.ErrNoMask
		mc.handleError("Estadísticas", err)
		return nil, err
	}

	mc.view.SetStatus("Calculando estadísticas...")
	result, err := mc.stats.Compute(ctx, processed.Image, pair.Mask)
	if result != nil {
		mc.view.ShowStatistics(result)
	}
	if err != nil {
		mc.handleError("Estadísticas", err)
		return result, err
	}

	mc.view.SetStatus(fmt.Sprintf("Estadísticas de %d píxeles en %s", result.Summary.Count, result.Dir))
	return result, nil
}

// SaveAndAnalyze saves the slice on screen and then computes its statistics.
func (mc *MainController) SaveAndAnalyze(ctx context.Context) (*services.StatisticsResult, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, err := mc.saveSlice(); err != nil {
		return nil, err
	}
	return mc.analyze(ctx)
}

// exportRange resolves count slices centred on the current index.
func (mc *MainController) exportRange(count int) (models.ViewState, int, int, error) {
	state := mc.session.State()
	begin, end, ok := services.CenteredRange(state.Index, count, mc.store.Depth(volume.RoleStandard))
	if !ok {
		return state, 0, 0, fmt.Errorf("no slices to export around %d", state.Index)
	}
	return state, begin, end, nil
}

// ExportVideo encodes count slices centred on the current one with the
// current effect and highlight setting.
func (mc *MainController) ExportVideo(count int) (string, int, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	state, begin, end, err := mc.exportRange(count)
	if err != nil {
		mc.handleError("Video", err)
		return "", 0, err
	}

	mc.view.SetStatus(fmt.Sprintf("Exportando cortes %d-%d...", begin, end))
	path, frames, err := mc.export.ExportVideo(begin, end, state.Effect, state.Highlight)
	if err != nil {
		mc.handleError("Video", fmt.Errorf("%d frames written: %w", frames, err))
		return path, frames, err
	}

	mc.view.ShowInfo("Video", fmt.Sprintf("%d frames guardados en %s", frames, path))
	mc.view.SetStatus("Video exportado")
	return path, frames, nil
}

// ExportFrames is ExportVideo writing a PNG per slice.
func (mc *MainController) ExportFrames(count int) (string, int, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	state, begin, end, err := mc.exportRange(count)
	if err != nil {
		mc.handleError("Secuencia", err)
		return "", 0, err
	}
	return mc.exportFrames(state, begin, end)
}

// ExportRange writes slices begin..end as a PNG sequence.
func (mc *MainController) ExportRange(begin, end int) (string, int, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	return mc.exportFrames(mc.session.State(), begin, end)
}

func (mc *MainController) exportFrames(state models.ViewState, begin, end int) (string, int, error) {
	dir, frames, err := mc.export.ExportFrames(begin, end, state.Effect, state.Highlight)
	if err != nil {
		mc.handleError("Secuencia", fmt.Errorf("%d frames written: %w", frames, err))
		return dir, frames, err
	}

	mc.view.SetStatus(fmt.Sprintf("%d frames guardados en %s", frames, dir))
	return dir, frames, nil
}

// handleError logs err and reports it on the view
func (mc *MainController) handleError(title string, err error) {
	mc.log.Error("MainController", err, map[string]interface{}{"action": title})
	mc.view.ShowError(title, err)
	mc.view.SetStatus(title + ": " + err.Error())
}

func (mc *MainController) Close() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.session.Close()
}

func (mc *MainController) Name() string {
	return "MainController"
}
