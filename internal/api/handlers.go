package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"pivotsvc/internal/engine"
	"pivotsvc/internal/models"
	"pivotsvc/internal/pivot"
)

// ReloadFunc loads output table data again.
type ReloadFunc func(ctx context.Context) error

type Handler struct {
	mu     sync.RWMutex
	data   *engine.Dataset
	config models.ServiceConfig
	reload ReloadFunc
	log    *zap.Logger
}

func NewHandler(data *engine.Dataset, config models.ServiceConfig, reload ReloadFunc, log *zap.Logger) *Handler {
	return &Handler{data: data, config: config, reload: reload, log: log}
}

// SetData makes the API live after data loaded in background.
func (h *Handler) SetData(data *engine.Dataset) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.data = data
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/config", h.GetConfig)

	pv := api.Group("/pivot")
	pv.GET("", h.GetView)
	pv.GET("/rows", h.GetRows)
	pv.GET("/state", h.GetState)
	pv.GET("/layout", h.GetLayout)
	pv.PUT("/layout", h.PutLayout)
	pv.POST("/labels", h.PostLabels)
	pv.POST("/values", h.PostValues)
	pv.POST("/reload", h.PostReload)
	pv.POST("/sync", h.PostSync)

	ed := pv.Group("/edit")
	ed.GET("", h.GetEdit)
	ed.POST("/begin", h.BeginEdit)
	ed.POST("/commit", h.CommitEdit)
	ed.POST("/cancel", h.CancelEdit)
	ed.POST("/undo", h.Undo)
	ed.POST("/redo", h.Redo)
	ed.POST("/reset", h.ResetEdit)
	ed.POST("/paste", h.Paste)
}

// dataset returns 503 while data is loading.
func (h *Handler) dataset() (*engine.Dataset, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.data == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "data is loading")
	}
	return h.data, nil
}

// httpError maps pivot and engine errors to http status.
func httpError(err error) error {
	switch {
	case errors.Is(err, pivot.ErrEditDisabled), errors.Is(err, pivot.ErrNotEditing):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, pivot.ErrUnknownCell), errors.Is(err, engine.ErrUnknownDimension), errors.Is(err, engine.ErrUnknownItem):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, pivot.ErrInvalidNumber), errors.Is(err, pivot.ErrInvalidBool),
		errors.Is(err, pivot.ErrNotInEnum), errors.Is(err, pivot.ErrPasteTooBig),
		errors.Is(err, pivot.ErrUnknownReduction):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return err
}

// --- HANDLERS ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func (h *Handler) GetConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, h.config)
}

func (h *Handler) GetView(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ds.Table().View())
}

// RowPage is a page of table rows: header items and cell values.
type RowPage struct {
	Rows   [][]string `json:"rows"`
	Values [][]any    `json:"values"`
	Total  int        `json:"total"`
	Limit  int        `json:"limit"`
	Offset int        `json:"offset"`
}

// returns rows page, page size is limited by service row page max size
func (h *Handler) GetRows(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	v := ds.Table().View()
	total := v.RowCount()

	maxSize := int(h.config.RowPageMaxSize)
	if maxSize <= 0 {
		maxSize = total
	}
	limit, offset := getPaginationParams(c, maxSize)
	if maxSize > 0 && limit > maxSize {
		limit = maxSize
	}

	page := RowPage{Rows: [][]string{}, Values: [][]any{}, Total: total, Limit: limit, Offset: offset}
	if offset >= total {
		return c.JSON(http.StatusOK, page)
	}
	end := min(offset+limit, total)

	for i := offset; i < end; i++ {
		r := v.Row(i)
		items := make([]string, len(r))
		for k, it := range r {
			items[k] = pivot.ItemString(it)
		}
		vals := make([]any, v.ColCount())
		for j := range vals {
			if cell, ok := v.CellAt(i, j); ok {
				vals[j] = cell.Value
			}
		}
		page.Rows = append(page.Rows, items)
		page.Values = append(page.Values, vals)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *Handler) GetState(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ds.Table().State())
}

func (h *Handler) GetLayout(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ds.Layout())
}

// replace layout and aggregate again, edits are discarded
func (h *Handler) PutLayout(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	var l engine.Layout
	if err := c.Bind(&l); err != nil {
		return err
	}
	if err := ds.SetLayout(&l); err != nil {
		return httpError(err)
	}
	h.log.Info("layout updated", zap.Int("rows", len(l.Rows)), zap.Int("cols", len(l.Cols)))
	return c.JSON(http.StatusOK, ds.Table().View())
}

// LabelsRequest is new item labels of a dimension.
type LabelsRequest struct {
	Name   string            `json:"name"`
	Labels map[string]string `json:"labels"`
}

func (h *Handler) PostLabels(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	var req LabelsRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	v, err := ds.SetLabels(req.Name, req.Labels)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

// FormatRequest is number format of cell values.
type FormatRequest struct {
	Lang     string `json:"lang"`
	Decimals *int   `json:"decimals"`
}

func (h *Handler) PostValues(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	var req FormatRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ds.SetFormat(req.Lang, req.Decimals))
}

func (h *Handler) PostReload(c echo.Context) error {
	if _, err := h.dataset(); err != nil {
		return err
	}
	if h.reload == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "reload is not configured")
	}
	if err := h.reload(c.Request().Context()); err != nil {
		h.log.Error("reload failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return h.GetView(c)
}

// refresh table for each trigger flag changed since previous call
func (h *Handler) PostSync(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	var tk pivot.Tickles
	if err := c.Bind(&tk); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ds.Table().Sync(tk))
}

// --- EDIT ---

// EditRequest is the body of edit actions.
type EditRequest struct {
	CellKey string `json:"cellKey"`
	Value   string `json:"value"`
	Row     int    `json:"row"`
	Col     int    `json:"col"`
	Text    string `json:"text"`
}

// withEdit runs fn on editor state and replies with the new state.
func (h *Handler) withEdit(c echo.Context, fn func(e *pivot.Edit, v *pivot.View, req EditRequest) error) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	var req EditRequest
	if r := c.Request(); r.ContentLength != 0 && r.Body != nil && r.Body != http.NoBody {
		if err := c.Bind(&req); err != nil {
			return err
		}
	}

	var st *pivot.Edit
	err = ds.Table().WithEdit(func(e *pivot.Edit, v *pivot.View) error {
		if err := fn(e, v, req); err != nil {
			return err
		}
		st = e.Clone()
		return nil
	})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, st)
}

func (h *Handler) GetEdit(c echo.Context) error {
	ds, err := h.dataset()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ds.Table().State().Edit)
}

func (h *Handler) BeginEdit(c echo.Context) error {
	return h.withEdit(c, func(e *pivot.Edit, v *pivot.View, req EditRequest) error {
		if !slices.Contains(v.CellKeys(), req.CellKey) {
			return pivot.ErrUnknownCell
		}
		return e.BeginEdit(req.CellKey, e.CellText(v, req.CellKey))
	})
}

func (h *Handler) CommitEdit(c echo.Context) error {
	return h.withEdit(c, func(e *pivot.Edit, _ *pivot.View, req EditRequest) error {
		return e.CommitEdit(req.Value)
	})
}

func (h *Handler) CancelEdit(c echo.Context) error {
	return h.withEdit(c, func(e *pivot.Edit, _ *pivot.View, _ EditRequest) error {
		e.CancelEdit()
		return nil
	})
}

var (
	errNoUndo = echo.NewHTTPError(http.StatusConflict, "nothing to undo")
	errNoRedo = echo.NewHTTPError(http.StatusConflict, "nothing to redo")
)

func (h *Handler) Undo(c echo.Context) error {
	return h.withEdit(c, func(e *pivot.Edit, _ *pivot.View, _ EditRequest) error {
		if !e.Undo() {
			return errNoUndo
		}
		return nil
	})
}

func (h *Handler) Redo(c echo.Context) error {
	return h.withEdit(c, func(e *pivot.Edit, _ *pivot.View, _ EditRequest) error {
		if !e.Redo() {
			return errNoRedo
		}
		return nil
	})
}

func (h *Handler) ResetEdit(c echo.Context) error {
	return h.withEdit(c, func(e *pivot.Edit, _ *pivot.View, _ EditRequest) error {
		e.Reset()
		return nil
	})
}

func (h *Handler) Paste(c echo.Context) error {
	return h.withEdit(c, func(e *pivot.Edit, v *pivot.View, req EditRequest) error {
		n, err := e.Paste(v, req.Row, req.Col, req.Text)
		if err != nil {
			return err
		}
		h.log.Debug("cells pasted", zap.Int("count", n))
		return nil
	})
}
