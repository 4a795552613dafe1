// Package batch tracks a session's images through their conversion lifecycle
// and keeps the derived totals consistent as parameters change.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mobile-next/imgconvert/config"
	"github.com/mobile-next/imgconvert/converter"
	"github.com/mobile-next/imgconvert/types"
	"github.com/mobile-next/imgconvert/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	ErrItemNotFound      = errors.New("item not found")
	ErrNotConverted      = errors.New("item has no converted output")
	ErrNothingToDownload = errors.New("no converted items to download")
	ErrNoAcceptedFiles   = errors.New("no files match the accepted input formats")
)

// File is a user-supplied image. ContentType is the type reported by the
// caller; when it is empty or generic the content is sniffed instead. The name
// is never used to determine the format.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Totals are derived from the current items on every call.
type Totals struct {
	Original  int64 `json:"original"`
	Converted int64 `json:"converted"`
	// Savings is Original - Converted and is negative when outputs grew.
	Savings int64 `json:"savings"`
}

// Controller owns the items and parameters of one session. All methods are
// safe for concurrent use.
type Controller struct {
	mu    sync.Mutex
	cfg   config.Config
	items []*Item
	index map[string]*Item

	handles *HandleRegistry
	rasters *lru.Cache[string, image.Image]
	conv    *converter.Converter
	probe   *converter.Probe
}

type Option func(*Controller)

// WithConverter replaces the converter. The probe is rebuilt for it unless
// WithProbe is also given.
func WithConverter(conv *converter.Converter) Option {
	return func(c *Controller) {
		c.conv = conv
	}
}

// WithProbe replaces the capability probe.
func WithProbe(probe *converter.Probe) Option {
	return func(c *Controller) {
		c.probe = probe
	}
}

// New creates a controller for a fresh session.
func New(cfg config.Config, opts ...Option) (*Controller, error) {
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = config.DefaultConcurrency
	}
	if cfg.RasterCacheSize <= 0 {
		cfg.RasterCacheSize = config.DefaultRasterCacheSize
	}
	cfg.Params = cfg.Params.Clone()

	rasters, err := lru.New[string, image.Image](cfg.RasterCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create raster cache: %w", err)
	}

	c := &Controller{
		cfg:     cfg,
		index:   make(map[string]*Item),
		handles: NewHandleRegistry(),
		rasters: rasters,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.conv == nil {
		c.conv = converter.NewConverter(converter.WithMaxSurfacePixels(cfg.MaxSurfacePixels))
	}
	if c.probe == nil {
		c.probe = converter.NewProbe(c.conv)
	}
	return c, nil
}

// Params returns a copy of the current parameters.
func (c *Controller) Params() config.Params {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Params.Clone()
}

// Items returns snapshots of all items in insertion order.
func (c *Controller) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Item, 0, len(c.items))
	for _, it := range c.items {
		items = append(items, it.snapshot())
	}
	return items
}

// Item returns a snapshot of the item with the given id.
func (c *Controller) Item(id string) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return it.snapshot(), true
}

// Len returns the number of items.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Totals sums original and held converted sizes over all items. An item that
// is being re-converted still counts its previous output until it settles.
func (c *Controller) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()

	var t Totals
	for _, it := range c.items {
		t.Original += it.OriginalSize
		t.Converted += it.ConvertedSize()
	}
	t.Savings = t.Original - t.Converted
	return t
}

// Resolve returns the buffer behind a source or output handle.
func (c *Controller) Resolve(handle string) ([]byte, bool) {
	return c.handles.Lookup(handle)
}

// LiveHandles returns the number of handles currently held by items.
func (c *Controller) LiveHandles() int {
	return c.handles.Count()
}

// Notice returns a batch-level error wrapping converter.ErrEncodeUnsupported
// when the selected output format cannot be encoded on this runtime.
func (c *Controller) Notice() error {
	return c.notice(c.Params().Output)
}

func (c *Controller) notice(format types.Format) error {
	if c.probe.Supports(format) {
		return nil
	}
	return fmt.Errorf("%w: exporting to %s is not supported on this runtime", converter.ErrEncodeUnsupported, format.Label())
}

// formatOf decides the input format of f from its declared or sniffed content type.
func formatOf(f File) (types.Format, bool) {
	switch f.ContentType {
	case "", "application/octet-stream":
		return converter.DetectFormat(f.Data)
	}
	return types.FormatFromMIME(f.ContentType)
}

// AddFiles accepts every file whose format is enabled, creates a pending item
// for it, determines its dimensions and converts the new items. A decode
// failure marks only that item as failed. When the output format is blocked
// the new items stay pending; see Notice. The ids of the accepted files are
// returned in order.
func (c *Controller) AddFiles(ctx context.Context, files []File) ([]string, error) {
	c.mu.Lock()
	var added []*Item
	for _, f := range files {
		format, ok := formatOf(f)
		if !ok || !c.cfg.Params.Accepts(format) {
			utils.Verbose("Skipping %s: content type %q not accepted", f.Name, f.ContentType)
			continue
		}

		it := &Item{
			ID:           uuid.NewString(),
			Name:         f.Name,
			SourceFormat: format,
			OriginalSize: int64(len(f.Data)),
			SourceHandle: c.handles.Register(f.Data),
			Status:       StatusPending,
			Format:       c.cfg.Params.Output,
			source:       f.Data,
		}
		c.items = append(c.items, it)
		c.index[it.ID] = it
		added = append(added, it)
	}
	c.mu.Unlock()

	if len(added) == 0 {
		return nil, ErrNoAcceptedFiles
	}

	ids := make([]string, len(added))
	for i, it := range added {
		ids[i] = it.ID
	}

	c.decodeAll(ctx, added)

	var ready []string
	c.mu.Lock()
	for _, it := range added {
		if cur, ok := c.index[it.ID]; ok && cur.Status == StatusPending {
			ready = append(ready, it.ID)
		}
	}
	c.mu.Unlock()

	if len(ready) == 0 {
		return ids, nil
	}

	err := c.convert(ctx, ready)
	if errors.Is(err, converter.ErrEncodeUnsupported) {
		utils.Info("%d item(s) left pending: %v", len(ready), err)
		return ids, nil
	}
	return ids, err
}

// decodeAll decodes the sources of items concurrently, records natural
// dimensions and caches the rasters for the first conversion.
func (c *Controller) decodeAll(ctx context.Context, items []*Item) {
	type decoded struct {
		img image.Image
		err error
	}

	results := make([]decoded, len(items))
	g := new(errgroup.Group)
	g.SetLimit(c.cfg.Concurrency)
	for i, it := range items {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = decoded{err: err}
				return nil
			}
			img, err := converter.Decode(it.source)
			results[i] = decoded{img: img, err: err}
			return nil
		})
	}
	_ = g.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, it := range items {
		if cur, ok := c.index[it.ID]; !ok || cur != it {
			continue
		}
		r := results[i]
		if r.err != nil {
			c.releaseLocked(it.fail(r.err))
			utils.Logger().WithFields(logrus.Fields{"item": it.ID, "name": it.Name}).WithError(r.err).Warn("failed to read image dimensions")
			continue
		}
		b := r.img.Bounds()
		it.setDimensions(types.Size{Width: b.Dx(), Height: b.Dy()})
		c.rasters.Add(it.ID, r.img)
	}
}

// ConvertAll re-runs the conversion for every item with the current
// parameters. Results are committed together once every conversion has
// settled. When the output format is blocked nothing is started and the
// notice is returned.
func (c *Controller) ConvertAll(ctx context.Context) error {
	c.mu.Lock()
	ids := make([]string, 0, len(c.items))
	for _, it := range c.items {
		ids = append(ids, it.ID)
	}
	c.mu.Unlock()

	if len(ids) == 0 {
		return nil
	}
	return c.convert(ctx, ids)
}

type job struct {
	item       *Item
	generation uint64
	source     []byte
}

type outcome struct {
	result *converter.Result
	size   types.Size
	sized  bool
	err    error
}

func (c *Controller) convert(ctx context.Context, ids []string) error {
	c.mu.Lock()
	params := c.cfg.Params.Clone()
	if err := c.notice(params.Output); err != nil {
		c.mu.Unlock()
		return err
	}

	jobs := make([]job, 0, len(ids))
	for _, id := range ids {
		it, ok := c.index[id]
		if !ok {
			continue
		}
		jobs = append(jobs, job{
			item:       it,
			generation: it.begin(params.Output),
			source:     it.source,
		})
	}
	c.mu.Unlock()

	opts := converter.Options{
		Quality:  params.NormalizedQuality(),
		MaxWidth: params.MaxWidth,
		Format:   params.Output,
	}

	utils.Verbose("Converting %d item(s) to %s (quality=%d, maxWidth=%d)", len(jobs), params.Output, params.Quality, params.MaxWidth)

	outcomes := make([]outcome, len(jobs))
	g := new(errgroup.Group)
	g.SetLimit(c.cfg.Concurrency)
	for i, j := range jobs {
		g.Go(func() error {
			outcomes[i] = c.run(ctx, j, opts)
			return nil
		})
	}
	_ = g.Wait()

	c.commit(jobs, outcomes)
	return ctx.Err()
}

// run converts one item. It never returns an error to the group so that a
// failing item cannot cancel its siblings.
func (c *Controller) run(ctx context.Context, j job, opts converter.Options) (o outcome) {
	defer func() {
		if r := recover(); r != nil {
			o = outcome{err: fmt.Errorf("%w: %v", converter.ErrEncode, r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return outcome{err: err}
	}

	img, ok := c.rasters.Get(j.item.ID)
	if !ok {
		decoded, err := converter.Decode(j.source)
		if err != nil {
			return outcome{err: err}
		}
		img = decoded
		c.rasters.Add(j.item.ID, img)
	}

	b := img.Bounds()
	o.size = types.Size{Width: b.Dx(), Height: b.Dy()}
	o.sized = true
	o.result, o.err = c.conv.ConvertImage(ctx, img, opts)
	return o
}

// commit applies settled outcomes in one step. Outcomes for removed items or
// for attempts superseded by a newer generation are discarded.
func (c *Controller) commit(jobs []job, outcomes []outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, j := range jobs {
		it := j.item
		o := outcomes[i]
		log := utils.Logger().WithFields(logrus.Fields{"item": it.ID, "name": it.Name})

		if cur, ok := c.index[it.ID]; !ok || cur != it {
			c.rasters.Remove(it.ID)
			log.Debug("discarding result for removed item")
			continue
		}
		if it.generation != j.generation {
			log.Debugf("discarding stale result (generation %d, current %d)", j.generation, it.generation)
			continue
		}

		if o.sized {
			it.setDimensions(o.size)
		}

		if o.err != nil {
			c.releaseLocked(it.fail(o.err))
			log.WithError(o.err).Warn("conversion failed")
			continue
		}

		out := &Output{
			Data:   o.result.Data,
			Size:   int64(len(o.result.Data)),
			Handle: c.handles.Register(o.result.Data),
			Format: o.result.Format,
			Width:  o.result.Width,
			Height: o.result.Height,
		}
		c.releaseLocked(it.succeed(out))
		log.WithFields(logrus.Fields{"bytes": out.Size, "format": out.Format}).Debug("conversion committed")
	}
}

func (c *Controller) releaseLocked(handle string) {
	if handle != "" {
		c.handles.Release(handle)
	}
}

// Remove releases the item's resources and drops it from the batch. A
// conversion still in flight for it is discarded when it settles.
func (c *Controller) Remove(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}

	c.destroyLocked(it)
	delete(c.index, id)
	for i, cur := range c.items {
		if cur == it {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	return nil
}

// Clear removes every item.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, it := range c.items {
		c.destroyLocked(it)
	}
	c.items = nil
	c.index = make(map[string]*Item)
}

func (c *Controller) destroyLocked(it *Item) {
	c.releaseLocked(it.SourceHandle)
	if it.Output != nil {
		c.releaseLocked(it.Output.Handle)
	}
	c.rasters.Remove(it.ID)
	utils.Verbose("Removed item %s (%s)", it.ID, it.Name)
}

// SetParams validates and applies p. When quality, max width or output format
// changed and items exist, every item is re-converted. A blocked output format
// is reported through the returned notice and nothing is converted.
func (c *Controller) SetParams(ctx context.Context, p config.Params) error {
	if err := p.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	prev := c.cfg.Params
	c.cfg.Params = p.Clone()
	changed := prev.Quality != p.Quality || prev.MaxWidth != p.MaxWidth || prev.Output != p.Output
	n := len(c.items)
	c.mu.Unlock()

	if err := c.notice(p.Output); err != nil {
		return err
	}
	if !changed || n == 0 {
		return nil
	}
	return c.ConvertAll(ctx)
}

// SetQuality sets the 1-100 quality.
func (c *Controller) SetQuality(ctx context.Context, quality int) error {
	p := c.Params()
	p.Quality = quality
	return c.SetParams(ctx, p)
}

// SetMaxWidth sets the maximum output width; 0 removes the bound.
func (c *Controller) SetMaxWidth(ctx context.Context, maxWidth int) error {
	p := c.Params()
	p.MaxWidth = maxWidth
	return c.SetParams(ctx, p)
}

// SetOutputFormat selects the target format.
func (c *Controller) SetOutputFormat(ctx context.Context, format types.Format) error {
	p := c.Params()
	p.Output = format
	return c.SetParams(ctx, p)
}

// SetAcceptedInputs replaces the accepted input formats. Existing items are
// not affected.
func (c *Controller) SetAcceptedInputs(formats []types.Format) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.cfg.Params.Clone()
	p.Inputs = append([]types.Format(nil), formats...)
	if err := p.Validate(); err != nil {
		return err
	}
	c.cfg.Params = p
	return nil
}

// ToggleInput flips one accepted input format; the last one cannot be removed.
func (c *Controller) ToggleInput(format types.Format) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg.Params.ToggleInput(format)
}
