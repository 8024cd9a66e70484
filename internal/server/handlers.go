package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rshade/boqlca/internal/config"
	"github.com/rshade/boqlca/internal/engine"
	"github.com/rshade/boqlca/internal/export"
	"github.com/rshade/boqlca/internal/impact"
	"github.com/rshade/boqlca/internal/inventory"
	"github.com/rshade/boqlca/internal/logging"
	"github.com/rshade/boqlca/internal/lookup"
)

const exportFileName = "boqlca-export.csv"

// sessionView is the JSON representation of a session.
type sessionView struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
	Rows      []engine.WorkingRow `json:"rows"`
	Displays  []engine.Display    `json:"displays"`
	Totals    impact.Result       `json:"totals"`
	Warnings  []string            `json:"warnings"`
}

func viewOf(id string, sess *engine.Session) sessionView {
	warnings := sess.Warnings()
	if warnings == nil {
		warnings = []string{}
	}
	totals, err := export.SessionTotals(sess)
	if err != nil {
		totals = sess.Totals()
	}
	return sessionView{
		ID:        id,
		CreatedAt: sess.CreatedAt(),
		UpdatedAt: sess.UpdatedAt(),
		Rows:      sess.Rows(),
		Displays:  sess.Displays(),
		Totals:    totals,
		Warnings:  warnings,
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.store.Len()})
}

// handleLookup serves the catalog lookup to remote clients.
func (s *Server) handleLookup(c *gin.Context) {
	var raw []lookupItem
	if err := s.bindJSON(c, &raw); err != nil {
		abortWithError(c, "lookup", err)
		return
	}
	if err := s.validate.Var(raw, fmt.Sprintf("max=%d", MaxLookupItems)); err != nil {
		abortWithError(c, "lookup", err)
		return
	}

	results := []lookup.Result{}
	if len(raw) > 0 {
		items := make([]inventory.Item, len(raw))
		for i, it := range raw {
			items[i] = inventory.NewItem(it.Element, it.MaterialLabel, quantityOf(it.Quantity), it.Unit)
		}
		var err error
		results, err = s.lookup.Lookup(c.Request.Context(), items)
		if err != nil {
			abortWithError(c, "lookup", err)
			return
		}
		lookupEndpointItems.Add(float64(len(items)))
	}
	c.JSON(http.StatusOK, results)
}

// quantityOf accepts JSON numbers and numeric strings; anything else is 0.
func quantityOf(v any) float64 {
	switch q := v.(type) {
	case float64:
		return q
	case string:
		return inventory.ParseQuantity(q)
	default:
		return 0
	}
}

func (s *Server) handleCreateSession(c *gin.Context) {
	ctx := c.Request.Context()
	rows, err := s.readInventory(c)
	if err != nil {
		abortWithError(c, "create_session", err)
		return
	}

	sess := engine.NewSession(s.lookup, s.opts.SessionOptions...)
	id, err := s.store.Add(sess)
	if err != nil {
		abortWithError(c, "create_session", err)
		return
	}
	if _, err := sess.Ingest(ctx, rows); err != nil {
		_ = s.store.Remove(id)
		abortWithError(c, "create_session", err)
		return
	}

	logging.FromContext(ctx).Info().
		Str("component", "server").
		Str("operation", "create_session").
		Str("session_id", id).
		Int("row_count", len(rows)).
		Msg("session created")

	c.JSON(http.StatusCreated, viewOf(id, sess))
}

func (s *Server) handleAppendRows(c *gin.Context) {
	sess, ok := s.session(c, "append_rows")
	if !ok {
		return
	}
	rows, err := s.readInventory(c)
	if err != nil {
		abortWithError(c, "append_rows", err)
		return
	}
	created, err := sess.Ingest(c.Request.Context(), rows)
	if err != nil {
		abortWithError(c, "append_rows", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rows": nonNil(created), "warnings": sess.Warnings()})
}

func (s *Server) handleGetSession(c *gin.Context) {
	sess, ok := s.session(c, "get_session")
	if !ok {
		return
	}
	c.JSON(http.StatusOK, viewOf(c.Param("id"), sess))
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	if err := s.store.Remove(c.Param("id")); err != nil {
		abortWithError(c, "delete_session", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGroups(c *gin.Context) {
	sess, ok := s.session(c, "groups")
	if !ok {
		return
	}
	groups := sess.Groups()
	if groups == nil {
		groups = []engine.Group{}
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// handleOverride assigns an entry by id. The entry is taken from the rows'
// candidates, or from the catalog when no row offers it.
func (s *Server) handleOverride(c *gin.Context) {
	const op = "override"
	sess, ok := s.session(c, op)
	if !ok {
		return
	}
	var req overrideRequest
	if err := s.bind(c, &req); err != nil {
		abortWithError(c, op, err)
		return
	}
	ids := rowIDs(req.RowIDs)

	err := sess.OverrideByEntryID(ids, req.EntryID)
	if errors.Is(err, engine.ErrEntryNotFound) && s.opts.Catalog != nil {
		snap, serr := s.opts.Catalog.Snapshot(c.Request.Context())
		if serr != nil {
			abortWithError(c, op, serr)
			return
		}
		if entry, found := snap.ByID(req.EntryID); found {
			err = sess.BulkUpdate(ids, entry)
		}
	}
	if err != nil {
		abortWithError(c, op, err)
		return
	}
	s.respondRows(c, op, sess, ids, http.StatusOK)
}

func (s *Server) handleChangeUnit(c *gin.Context) {
	const op = "change_unit"
	sess, ok := s.session(c, op)
	if !ok {
		return
	}
	var req unitRequest
	if err := s.bind(c, &req); err != nil {
		abortWithError(c, op, err)
		return
	}
	unit, err := impact.ParseUnit(req.Unit)
	if err != nil {
		abortWithError(c, op, err)
		return
	}
	row, err := sess.ChangeUnit(c.Request.Context(), engine.RowID(c.Param("rowId")), unit)
	if err != nil {
		abortWithError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (s *Server) handleToggleArea(c *gin.Context) {
	const op = "toggle_area"
	sess, ok := s.session(c, op)
	if !ok {
		return
	}
	id := engine.RowID(c.Param("rowId"))
	if _, err := sess.ToggleArea(id); err != nil {
		abortWithError(c, op, err)
		return
	}
	d, err := sess.Display(id)
	if err != nil {
		abortWithError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (s *Server) handleAssignArea(c *gin.Context) {
	const op = "assign_area"
	sess, ok := s.session(c, op)
	if !ok {
		return
	}
	var req areaRequest
	if err := s.bind(c, &req); err != nil {
		abortWithError(c, op, err)
		return
	}
	ids := rowIDs(req.RowIDs)
	if err := sess.AssignArea(ids, *req.Area); err != nil {
		abortWithError(c, op, err)
		return
	}
	s.respondRows(c, op, sess, ids, http.StatusOK)
}

func (s *Server) handleDeleteRows(c *gin.Context) {
	const op = "delete_rows"
	sess, ok := s.session(c, op)
	if !ok {
		return
	}
	var req rowSelection
	if err := s.bind(c, &req); err != nil {
		abortWithError(c, op, err)
		return
	}
	removed, err := sess.Delete(rowIDs(req.RowIDs))
	if err != nil {
		abortWithError(c, op, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

func (s *Server) handleReinforcement(c *gin.Context) {
	const op = "derive_reinforcement"
	sess, ok := s.session(c, op)
	if !ok {
		return
	}
	var req reinforcementRequest
	if err := s.bind(c, &req); err != nil {
		abortWithError(c, op, err)
		return
	}
	kg := s.opts.KgPerM3
	if req.KgPerM3 != nil {
		kg = *req.KgPerM3
	}
	created, err := sess.DeriveReinforcement(c.Request.Context(), rowIDs(req.RowIDs), kg)
	if err != nil {
		abortWithError(c, op, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"rows": nonNil(created)})
}

// handleExport returns the session, or the rows named by the repeatable or
// comma-separated "rows" query parameter, as CSV.
func (s *Server) handleExport(c *gin.Context) {
	const op = "export"
	sess, ok := s.session(c, op)
	if !ok {
		return
	}

	opts := s.opts.Export
	if q := c.Query("delimiter"); q != "" {
		d, err := config.ParseDelimiter(q)
		if err != nil {
			abortWithError(c, op, err)
			return
		}
		if d != 0 {
			opts.Delimiter = d
		}
	}
	if q := c.Query("rates"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			abortWithError(c, op, fmt.Errorf("%w: rates %q", engine.ErrInvalidArgument, q))
			return
		}
		opts.IncludeRates = b
	}

	var ids []engine.RowID
	for _, q := range c.QueryArray("rows") {
		for _, id := range strings.Split(q, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, engine.RowID(id))
			}
		}
	}

	rows, err := sess.Snapshot(ids...)
	if err != nil {
		abortWithError(c, op, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Write(c.Request.Context(), &buf, rows, opts); err != nil {
		abortWithError(c, op, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// session resolves the :id parameter, aborting the request when unknown.
func (s *Server) session(c *gin.Context, op string) (*engine.Session, bool) {
	sess, err := s.store.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, op, err)
		return nil, false
	}
	return sess, true
}

// readInventory parses the request body as JSON or delimited text.
func (s *Server) readInventory(c *gin.Context) ([]inventory.Row, error) {
	ctx := c.Request.Context()
	body := http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)

	switch c.ContentType() {
	case gin.MIMEJSON, "":
		return inventory.ReadJSON(ctx, body, s.opts.Mapping)
	case "text/csv", gin.MIMEPlain, "text/tab-separated-values":
		delim := s.opts.InputDelimiter
		if q := c.Query("delimiter"); q != "" {
			d, err := config.ParseDelimiter(q)
			if err != nil {
				return nil, err
			}
			delim = d
		}
		return inventory.ReadCSV(ctx, body, s.opts.Mapping, delim)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, c.ContentType())
	}
}

func (s *Server) bindJSON(c *gin.Context, v any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)
	return c.ShouldBindJSON(v)
}

// bind decodes a JSON body into v and validates it.
func (s *Server) bind(c *gin.Context, v any) error {
	if err := s.bindJSON(c, v); err != nil {
		return err
	}
	return s.validate.Struct(v)
}

func (s *Server) respondRows(c *gin.Context, op string, sess *engine.Session, ids []engine.RowID, status int) {
	snap, err := sess.Snapshot(ids...)
	if err != nil {
		abortWithError(c, op, err)
		return
	}
	rows := make([]engine.WorkingRow, len(snap))
	for i, rr := range snap {
		rows[i] = rr.Row
	}
	c.JSON(status, gin.H{"rows": rows})
}

func rowIDs(ids []string) []engine.RowID {
	out := make([]engine.RowID, len(ids))
	for i, id := range ids {
		out[i] = engine.RowID(id)
	}
	return out
}

func nonNil(rows []engine.WorkingRow) []engine.WorkingRow {
	if rows == nil {
		return []engine.WorkingRow{}
	}
	return rows
}
