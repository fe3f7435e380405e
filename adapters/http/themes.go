package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/artpar/themebake/app"
	"github.com/artpar/themebake/domain/theme"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// FieldInput is one field write.
type FieldInput struct {
	Target string `json:"target" example:"desktop"`
	Name   string `json:"name" example:"header"`
	Value  string `json:"value" example:"<div>hello</div>"`
}

// CreateThemeRequest creates a theme.
type CreateThemeRequest struct {
	Name           string       `json:"name" example:"Dark"`
	Key            string       `json:"key,omitempty"`
	UserSelectable bool         `json:"user_selectable"`
	Hidden         bool         `json:"hidden"`
	Fields         []FieldInput `json:"fields,omitempty"`
}

// SetFieldsRequest stages and saves field writes.
type SetFieldsRequest struct {
	Fields []FieldInput `json:"fields"`
}

// AddChildRequest adds an include relation.
type AddChildRequest struct {
	ChildID int64 `json:"child_id" example:"2"`
}

// InvalidateRequest names themes changed outside this server.
type InvalidateRequest struct {
	ThemeIDs []int64 `json:"theme_ids"`
}

// FieldResponse is a persisted field.
type FieldResponse struct {
	Target          string  `json:"target"`
	Name            string  `json:"name"`
	Value           string  `json:"value"`
	ValueBaked      *string `json:"value_baked,omitempty"`
	CompilerVersion int     `json:"compiler_version"`
}

// ThemeResponse is a theme record.
type ThemeResponse struct {
	ID              int64           `json:"id" example:"1"`
	Key             string          `json:"key"`
	Name            string          `json:"name"`
	CompilerVersion int             `json:"compiler_version"`
	UserSelectable  bool            `json:"user_selectable"`
	Hidden          bool            `json:"hidden"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Fields          []FieldResponse `json:"fields,omitempty"`
}

// DependenciesResponse lists themes reachable in one direction.
type DependenciesResponse struct {
	ThemeID   int64   `json:"theme_id"`
	Direction string  `json:"direction" example:"up"`
	IDs       []int64 `json:"ids"`
}

// LookupResponse is a composed field value.
type LookupResponse struct {
	Key    string `json:"key"`
	Target string `json:"target"`
	Field  string `json:"field"`
	Value  string `json:"value"`
}

// ThemeHandler serves the theme API.
type ThemeHandler struct {
	service *app.ThemeService
	logger  zerolog.Logger
}

// NewThemeHandler creates a theme handler.
func NewThemeHandler(service *app.ThemeService, logger zerolog.Logger) *ThemeHandler {
	return &ThemeHandler{service: service, logger: logger}
}

// Routes returns the theme API router.
func (h *ThemeHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/lookup/{key}/{target}/{field}", h.Lookup)
	r.Get("/themes", h.List)
	r.Post("/themes", h.Create)
	r.Post("/invalidations", h.Invalidate)
	r.Route("/themes/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Delete)
		r.Put("/fields", h.SetFields)
		r.Post("/children", h.AddChild)
		r.Get("/dependencies", h.Dependencies)
	})
	return r
}

// Lookup returns the baked value of a field.
//
//	@Summary		Look up a baked field
//	@Description	Composes the field across the theme and everything it includes
//	@Tags			Lookup
//	@Produce		json
//	@Param			key		path		string	true	"Theme key"
//	@Param			target	path		string	true	"common, desktop or mobile"
//	@Param			field	path		string	true	"Field name"
//	@Success		200		{object}	LookupResponse
//	@Failure		400		{object}	ErrorResponseBody
//	@Router			/api/v1/lookup/{key}/{target}/{field} [get]
func (h *ThemeHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	key, field := chi.URLParam(r, "key"), chi.URLParam(r, "field")
	target, err := theme.ParseTarget(chi.URLParam(r, "target"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	value, err := h.service.LookupField(r.Context(), key, target, field)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, LookupResponse{Key: key, Target: target.String(), Field: field, Value: value})
}

// List returns every theme.
//
//	@Summary	List themes
//	@Tags		Themes
//	@Produce	json
//	@Success	200	{array}	ThemeResponse
//	@Router		/api/v1/themes [get]
func (h *ThemeHandler) List(w http.ResponseWriter, r *http.Request) {
	themes, err := h.service.List(r.Context())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	out := make([]ThemeResponse, 0, len(themes))
	for _, t := range themes {
		out = append(out, themeResponse(t, nil))
	}
	writeJSON(w, http.StatusOK, out)
}

// Create creates a theme with optional initial fields.
//
//	@Summary	Create theme
//	@Tags		Themes
//	@Accept		json
//	@Produce	json
//	@Param		body	body		CreateThemeRequest	true	"Theme"
//	@Success	201		{object}	ThemeResponse
//	@Failure	400		{object}	ErrorResponseBody
//	@Failure	409		{object}	ErrorResponseBody
//	@Router		/api/v1/themes [post]
func (h *ThemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	t := h.service.New(req.Name)
	if req.Key != "" {
		if err := t.SetKey(req.Key); err != nil {
			writeAppError(w, h.logger, err)
			return
		}
	}
	t.SetUserSelectable(req.UserSelectable)
	t.SetHidden(req.Hidden)
	if err := stageFields(t, req.Fields); err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	if err := t.Save(r.Context()); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.writeTheme(w, r, t, http.StatusCreated)
}

// Invalidate drops this server's bakes and announces the given themes and
// their dependants to peers.
//
//	@Summary		Invalidate themes
//	@Description	Used after changes made directly against the database, e.g. by the CLI
//	@Tags			Themes
//	@Accept			json
//	@Param			body	body	InvalidateRequest	true	"Changed themes"
//	@Success		204
//	@Failure		400	{object}	ErrorResponseBody
//	@Router			/api/v1/invalidations [post]
func (h *ThemeHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req InvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	for _, id := range req.ThemeIDs {
		if id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_request", "theme ids must be positive")
			return
		}
	}

	if err := h.service.Invalidate(r.Context(), req.ThemeIDs); err != nil {
		// The local cache is already clear; peers will catch up on the next change.
		h.logger.Warn().Err(err).Ints64("theme_ids", req.ThemeIDs).Msg("invalidation incomplete")
	}
	w.WriteHeader(http.StatusNoContent)
}

// Get returns a theme with its fields.
//
//	@Summary	Get theme
//	@Tags		Themes
//	@Produce	json
//	@Param		id	path		int	true	"Theme ID"
//	@Success	200	{object}	ThemeResponse
//	@Failure	404	{object}	ErrorResponseBody
//	@Router		/api/v1/themes/{id} [get]
func (h *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	h.writeTheme(w, r, t, http.StatusOK)
}

// SetFields writes fields and saves the theme.
//
//	@Summary	Set theme fields
//	@Tags		Themes
//	@Accept		json
//	@Produce	json
//	@Param		id		path		int					true	"Theme ID"
//	@Param		body	body		SetFieldsRequest	true	"Fields"
//	@Success	200		{object}	ThemeResponse
//	@Failure	400		{object}	ErrorResponseBody
//	@Failure	404		{object}	ErrorResponseBody
//	@Router		/api/v1/themes/{id}/fields [put]
func (h *ThemeHandler) SetFields(w http.ResponseWriter, r *http.Request) {
	var req SetFieldsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := stageFields(t, req.Fields); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if err := t.Save(r.Context()); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	h.writeTheme(w, r, t, http.StatusOK)
}

// AddChild makes the theme include another theme.
//
//	@Summary	Include a child theme
//	@Tags		Themes
//	@Accept		json
//	@Param		id		path	int				true	"Parent theme ID"
//	@Param		body	body	AddChildRequest	true	"Child"
//	@Success	204
//	@Failure	404	{object}	ErrorResponseBody
//	@Router		/api/v1/themes/{id}/children [post]
func (h *ThemeHandler) AddChild(w http.ResponseWriter, r *http.Request) {
	var req AddChildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ChildID == 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "child_id is required")
		return
	}

	parent, ok := h.load(w, r)
	if !ok {
		return
	}
	child, err := h.service.Get(r.Context(), req.ChildID)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if err := parent.AddChildTheme(r.Context(), child); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete destroys a theme.
//
//	@Summary	Delete theme
//	@Tags		Themes
//	@Param		id	path	int	true	"Theme ID"
//	@Success	204
//	@Failure	404	{object}	ErrorResponseBody
//	@Router		/api/v1/themes/{id} [delete]
func (h *ThemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	t, ok := h.load(w, r)
	if !ok {
		return
	}
	if err := t.Destroy(r.Context()); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Dependencies lists themes reachable from the theme.
//
//	@Summary		Theme dependencies
//	@Description	up lists themes that include this one, down the themes it includes
//	@Tags			Themes
//	@Produce		json
//	@Param			id			path		int		true	"Theme ID"
//	@Param			direction	query		string	false	"up or down"	default(down)
//	@Success		200			{object}	DependenciesResponse
//	@Failure		400			{object}	ErrorResponseBody
//	@Router			/api/v1/themes/{id}/dependencies [get]
func (h *ThemeHandler) Dependencies(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("direction")
	if raw == "" {
		raw = theme.Down.String()
	}
	dir, err := theme.ParseDirection(raw)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	ids, err := h.service.Dependencies(r.Context(), id, dir)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if ids == nil {
		ids = []int64{}
	}
	writeJSON(w, http.StatusOK, DependenciesResponse{ThemeID: id, Direction: dir.String(), IDs: ids})
}

func (h *ThemeHandler) load(w http.ResponseWriter, r *http.Request) (*app.Theme, bool) {
	id, ok := parseID(w, r)
	if !ok {
		return nil, false
	}
	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, h.logger, err)
		return nil, false
	}
	return t, true
}

func (h *ThemeHandler) writeTheme(w http.ResponseWriter, r *http.Request, t *app.Theme, status int) {
	fields, err := t.Fields(r.Context())
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, status, themeResponse(t.Record(), fields))
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "theme id must be a positive integer")
		return 0, false
	}
	return id, true
}

func stageFields(t *app.Theme, fields []FieldInput) error {
	for _, f := range fields {
		target, err := theme.ParseTarget(f.Target)
		if err != nil {
			return err
		}
		if err := t.SetField(target, f.Name, f.Value); err != nil {
			return err
		}
	}
	return nil
}

func themeResponse(t theme.Theme, fields []theme.Field) ThemeResponse {
	resp := ThemeResponse{
		ID:              t.ID,
		Key:             t.Key,
		Name:            t.Name,
		CompilerVersion: t.CompilerVersion,
		UserSelectable:  t.UserSelectable,
		Hidden:          t.Hidden,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
	for _, f := range fields {
		resp.Fields = append(resp.Fields, FieldResponse{
			Target:          f.Target.String(),
			Name:            f.Name,
			Value:           f.Value,
			ValueBaked:      f.ValueBaked,
			CompilerVersion: f.CompilerVersion,
		})
	}
	return resp
}
