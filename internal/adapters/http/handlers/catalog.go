package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/dto"
	"github.com/jsamuelsen/cardsdk/internal/adapters/http/fixtures"
	"github.com/jsamuelsen/cardsdk/internal/domain"
)

// uniqueRule names an attribute that must be unique among records sharing
// the scope attribute.
type uniqueRule struct {
	field string
	scope string
}

var uniqueRules = map[string]uniqueRule{
	domain.KindCard: {field: "number", scope: "set_id"},
}

// CatalogHandler serves the catalog resources from a fixture store.
type CatalogHandler struct {
	store    *fixtures.Store
	schemas  *domain.StaticSchemas
	schema   domain.Schema
	registry *domain.Registry
}

// NewCatalogHandler creates a handler over store, validating writes with
// schemas.
func NewCatalogHandler(store *fixtures.Store, schemas *domain.StaticSchemas) *CatalogHandler {
	return &CatalogHandler{
		store:    store,
		schemas:  schemas,
		schema:   domain.DefaultSchema(),
		registry: domain.DefaultRegistry(),
	}
}

// RegisterRoutes mounts the resource routes on rg. The write middleware
// guards POST, PATCH and DELETE only.
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup, write ...gin.HandlerFunc) {
	rg.GET("/:type", h.List)
	rg.GET("/:type/:id", h.Get)

	w := rg.Group("", write...)
	w.POST("/:type", h.Create)
	w.PATCH("/:type/:id", h.Update)
	w.DELETE("/:type/:id", h.Delete)
}

// List handles GET /v1/:type.
func (h *CatalogHandler) List(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	var page dto.PageRequest
	if err := dto.BindQueryAndValidate(c, &page); err != nil {
		if errors.Is(err, dto.ErrValidation) {
			writeLaravel(c, http.StatusUnprocessableEntity, dto.MessageValidation, dto.ValidationErrors(err))
			return
		}

		writeProblem(c, http.StatusBadRequest, "invalid_page", "Page parameters must be integers.", "page")

		return
	}

	includes, ok := h.includes(c, kind)
	if !ok {
		return
	}

	q := c.Request.URL.Query()
	records := h.store.List(kind, fixtures.ListQuery{
		Filter: filters(q),
		Sort:   q.Get("sort"),
	})

	items, meta, links := dto.Paginate(records, page, h.requestURL(c))

	doc := dto.ListDocument{
		Data:  make([]dto.Resource, 0, len(items)),
		Meta:  dto.ListMeta{Pagination: meta},
		Links: links,
	}

	seen := make(map[string]bool)

	for _, rec := range items {
		doc.Data = append(doc.Data, h.render(c, rec, includes))
		doc.Included = h.appendIncluded(c, doc.Included, seen, rec, includes)
	}

	writeDocument(c, http.StatusOK, doc)
}

// Get handles GET /v1/:type/:id.
func (h *CatalogHandler) Get(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	includes, ok := h.includes(c, kind)
	if !ok {
		return
	}

	rec, ok := h.find(c, kind)
	if !ok {
		return
	}

	r := h.render(c, rec, includes)
	doc := dto.Document{
		Data:     &r,
		Included: h.appendIncluded(c, nil, map[string]bool{}, rec, includes),
	}

	writeDocument(c, http.StatusOK, doc)
}

// Create handles POST /v1/:type.
func (h *CatalogHandler) Create(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	req, ok := h.bindWrite(c, kind)
	if !ok {
		return
	}

	attrs := req.Data.Attributes
	if attrs == nil {
		attrs = map[string]any{}
	}

	if fields := h.validate(kind, "", attrs, false); len(fields) > 0 {
		writeLaravel(c, http.StatusUnprocessableEntity, dto.MessageValidation, fields)
		return
	}

	rec := h.store.Create(kind, attrs)
	r := h.render(c, rec, nil)

	c.Header("Location", r.Links["self"])
	writeDocument(c, http.StatusCreated, dto.Document{Data: &r})
}

// Update handles PATCH /v1/:type/:id. Only the attributes sent are
// validated and changed.
func (h *CatalogHandler) Update(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	current, ok := h.find(c, kind)
	if !ok {
		return
	}

	req, ok := h.bindWrite(c, kind)
	if !ok {
		return
	}

	if req.Data.ID != "" && req.Data.ID != current.ID {
		writeProblem(c, http.StatusConflict, "id_mismatch",
			fmt.Sprintf("Document id %q does not match endpoint id %q.", req.Data.ID, current.ID), "")
		return
	}

	if fields := h.validate(kind, current.ID, req.Data.Attributes, true); len(fields) > 0 {
		writeLaravel(c, http.StatusUnprocessableEntity, dto.MessageValidation, fields)
		return
	}

	rec, ok := h.store.Update(kind, current.ID, req.Data.Attributes)
	if !ok {
		h.notFound(c, kind, current.ID)
		return
	}

	r := h.render(c, rec, nil)
	writeDocument(c, http.StatusOK, dto.Document{Data: &r})
}

// Delete handles DELETE /v1/:type/:id.
func (h *CatalogHandler) Delete(c *gin.Context) {
	kind, ok := h.kind(c)
	if !ok {
		return
	}

	if !h.store.Delete(kind, c.Param("id")) {
		h.notFound(c, kind, c.Param("id"))
		return
	}

	c.Status(http.StatusNoContent)
}

// kind resolves the :type parameter, answering 404 for unknown types.
func (h *CatalogHandler) kind(c *gin.Context) (string, bool) {
	kind, ok := h.registry.Kind(c.Param("type"))
	if ok {
		if _, hasCollection := domain.WireType(kind); hasCollection {
			return kind, true
		}
	}

	writeLaravel(c, http.StatusNotFound, fmt.Sprintf("The route v1/%s could not be found.", c.Param("type")), nil)

	return "", false
}

func (h *CatalogHandler) find(c *gin.Context, kind string) (*fixtures.Record, bool) {
	rec, ok := h.store.Get(kind, c.Param("id"))
	if !ok {
		h.notFound(c, kind, c.Param("id"))
		return nil, false
	}

	return rec, true
}

func (h *CatalogHandler) notFound(c *gin.Context, kind, id string) {
	wire, _ := domain.WireType(kind)
	writeLaravel(c, http.StatusNotFound, dto.NotFoundMessage(modelName(wire), id), nil)
}

// includes parses ?include=, rejecting relations the kind lacks the way
// spatie/laravel-query-builder does.
func (h *CatalogHandler) includes(c *gin.Context, kind string) ([]string, bool) {
	raw := c.Query("include")
	if raw == "" {
		return nil, true
	}

	allowed := h.store.Relations(kind)

	var out, bad []string

	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}

		if !containsRelation(allowed, key) {
			bad = append(bad, key)
			continue
		}

		out = append(out, key)
	}

	if len(bad) > 0 {
		writeProblem(c, http.StatusBadRequest, "invalid_include",
			fmt.Sprintf("Requested include(s) `%s` are not allowed. Allowed include(s) are `%s`.",
				strings.Join(bad, ", "), strings.Join(allowed, ", ")),
			"include")

		return nil, false
	}

	return out, true
}

func (h *CatalogHandler) bindWrite(c *gin.Context, kind string) (*dto.WriteRequest, bool) {
	var req dto.WriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeProblem(c, http.StatusBadRequest, "invalid_document", "Request body must be a JSON:API resource document.", "")
		return nil, false
	}

	if got, ok := h.registry.Kind(req.Data.Type); !ok || got != kind {
		writeProblem(c, http.StatusConflict, "type_mismatch",
			fmt.Sprintf("Document type %q does not match the endpoint.", req.Data.Type), "")
		return nil, false
	}

	return &req, true
}

// validate applies the attribute rules, then checks that foreign keys
// resolve and unique attributes stay unique.
func (h *CatalogHandler) validate(kind, id string, attrs map[string]any, partial bool) map[string][]string {
	rules, _ := h.schemas.Rules(kind)
	fields := dto.ValidateAttributes(rules, attrs, partial)

	for fk, target := range h.store.ForeignKeys(kind) {
		v, ok := attrs[fk]
		if !ok || v == nil || v == "" || len(fields[fk]) > 0 {
			continue
		}

		if !h.store.Exists(target, fmt.Sprint(v)) {
			fields[fk] = append(fields[fk], fmt.Sprintf("The selected %s is invalid.", strings.ReplaceAll(fk, "_", " ")))
		}
	}

	if rule, ok := uniqueRules[kind]; ok {
		if v, present := attrs[rule.field]; present && len(fields[rule.field]) == 0 {
			scope := map[string]string{rule.field: fmt.Sprint(v)}
			if s, ok := attrs[rule.scope]; ok {
				scope[rule.scope] = fmt.Sprint(s)
			} else if cur, found := h.store.Get(kind, id); found && cur.Attributes[rule.scope] != nil {
				scope[rule.scope] = fmt.Sprint(cur.Attributes[rule.scope])
			}

			for _, other := range h.store.List(kind, fixtures.ListQuery{Filter: scope}) {
				if other.ID != id {
					fields[rule.field] = append(fields[rule.field],
						fmt.Sprintf("The %s has already been taken.", rule.field))
					break
				}
			}
		}
	}

	return fields
}

// render builds the resource object with to-one linkage from foreign
// keys and to-many linkage for the included relations.
func (h *CatalogHandler) render(c *gin.Context, rec *fixtures.Record, includes []string) dto.Resource {
	fks := make(map[string]dto.Identifier)

	for _, spec := range h.schema.For(rec.Kind).Relations {
		if spec.ForeignKey == "" {
			continue
		}

		v := rec.Attributes[spec.ForeignKey]
		if v == nil || v == "" {
			continue
		}

		wire, _ := domain.WireType(spec.Kind)
		fks[spec.Key] = dto.Identifier{Type: wire, ID: fmt.Sprint(v)}
	}

	r := dto.NewResource(rec, h.baseURL(c), fks)

	for _, key := range includes {
		spec, ok := h.relation(rec.Kind, key)
		if !ok || spec.Cardinality != domain.Many {
			continue
		}

		ids := []dto.Identifier{}
		for _, related := range h.store.Related(rec, key) {
			ids = append(ids, dto.Identifier{Type: related.WireType(), ID: related.ID})
		}

		if r.Relationships == nil {
			r.Relationships = make(map[string]dto.Relationship)
		}

		r.Relationships[spec.Key] = dto.Relationship{Data: ids}
	}

	return r
}

func (h *CatalogHandler) appendIncluded(
	c *gin.Context,
	included []dto.Resource,
	seen map[string]bool,
	rec *fixtures.Record,
	includes []string,
) []dto.Resource {
	for _, key := range includes {
		for _, related := range h.store.Related(rec, key) {
			id := related.Kind + ":" + related.ID
			if seen[id] {
				continue
			}

			seen[id] = true
			included = append(included, h.render(c, related, nil))
		}
	}

	return included
}

func (h *CatalogHandler) relation(kind, key string) (domain.RelationSpec, bool) {
	for _, spec := range h.schema.For(kind).Relations {
		if domain.Normalize(spec.Key) == domain.Normalize(key) {
			return spec, true
		}
	}

	return domain.RelationSpec{}, false
}

// baseURL is the /v1 root as the caller addressed it.
func (h *CatalogHandler) baseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	prefix := strings.TrimSuffix(c.FullPath(), "/:type/:id")
	prefix = strings.TrimSuffix(prefix, "/:type")

	return scheme + "://" + c.Request.Host + prefix
}

func (h *CatalogHandler) requestURL(c *gin.Context) *url.URL {
	u, err := url.Parse(h.baseURL(c) + "/" + c.Param("type"))
	if err != nil {
		return nil
	}

	u.RawQuery = c.Request.URL.RawQuery

	return u
}

// filters collects filter[name]=value query parameters.
func filters(q url.Values) map[string]string {
	out := make(map[string]string)

	for key, values := range q {
		name, ok := strings.CutPrefix(key, "filter[")
		if !ok || !strings.HasSuffix(name, "]") || len(values) == 0 {
			continue
		}

		out[strings.TrimSuffix(name, "]")] = values[0]
	}

	return out
}

func containsRelation(keys []string, key string) bool {
	for _, k := range keys {
		if domain.Normalize(k) == domain.Normalize(key) {
			return true
		}
	}

	return false
}

// modelName turns a collection name into its Eloquent model name:
// "card-images" becomes "CardImage".
func modelName(wire string) string {
	var b strings.Builder

	for _, part := range strings.Split(strings.TrimSuffix(wire, "s"), "-") {
		if part == "" {
			continue
		}

		b.WriteString(strings.ToUpper(part[:1]) + part[1:])
	}

	return b.String()
}
