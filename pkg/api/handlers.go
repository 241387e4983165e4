package api

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/segmentio/ksuid"
	"github.com/sirupsen/logrus"

	"github.com/ssargent/sdds/pkg/cflist"
	"github.com/ssargent/sdds/pkg/column"
	"github.com/ssargent/sdds/pkg/document"
	"github.com/ssargent/sdds/pkg/fields"
	"github.com/ssargent/sdds/pkg/markup"
	"github.com/ssargent/sdds/pkg/storage"
)

const (
	defaultBufferSize = 4096
	defaultListLimit  = 100
)

// Server holds the API server state
type Server struct {
	archive DocumentArchive
	codecs  *cflist.Pool
	config  ServerConfig
	metrics *Metrics
	log     *logrus.Entry
}

// NewServer creates a new API server
func NewServer(archive DocumentArchive, config ServerConfig, metrics *Metrics, log *logrus.Entry) *Server {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	if config.BufferSize <= 0 {
		config.BufferSize = defaultBufferSize
	}
	return &Server{
		archive: archive,
		codecs:  cflist.NewPool(config.ScratchSize, cflist.WithLogger(log.WithField("component", "cflist"))),
		config:  config,
		metrics: metrics,
		log:     log,
	}
}

// withCodec lends fn a pooled codec. A fixed buffer overflow inside fn comes
// back as the *cflist.CapacityError instead of unwinding the request.
func (s *Server) withCodec(fn func(c *cflist.Codec) error) (err error) {
	c := s.codecs.Get()
	defer s.codecs.Put(c)
	defer func() {
		if r := recover(); r != nil {
			capErr, ok := r.(*cflist.CapacityError)
			if !ok {
				panic(r)
			}
			s.metrics.RecordCapacityViolation()
			err = capErr
		}
	}()
	return fn(c)
}

func (s *Server) refreshArchiveGauge() {
	n, err := s.archive.Count()
	if err != nil {
		s.log.WithError(err).Warn("failed to count archived documents")
		return
	}
	s.metrics.SetArchiveDocuments(n)
}

func (s *Server) documentID(w http.ResponseWriter, r *http.Request) (ksuid.KSUID, bool) {
	id, err := ksuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, "Invalid document id", http.StatusBadRequest)
		return ksuid.Nil, false
	}
	return id, true
}

// readStatus maps an archive read error to a response.
func readStatus(err error) (string, int) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "Document not found", http.StatusNotFound
	case errors.Is(err, storage.ErrChecksum):
		return "Document failed integrity check", http.StatusInternalServerError
	default:
		return fmt.Sprintf("Failed to read document: %v", err), http.StatusInternalServerError
	}
}

// handleHealth godoc
//
//	@Summary		Health check
//	@Description	Get the health status of the API
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	map[string]string
//	@Router			/health [get]
//	@Security		ApiKeyAuth
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.archive.Count(); err != nil {
		s.metrics.RecordHealthCheck(false)
		sendError(w, "Archive unavailable", http.StatusServiceUnavailable)
		return
	}
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// builtDocument is a validated, encoded request body ready to archive.
type builtDocument struct {
	body       []byte
	fieldCount int
	totalBits  uint64
	totalBytes uint64
}

// buildFields checks in and encodes it as a <Fields> document. On error the
// returned status is the one to answer with.
func (s *Server) buildFields(in []FieldInput) (builtDocument, int, error) {
	store := fields.NewStore(fields.WithLimits(fields.Limits{
		MaxFields:       s.config.MaxFields,
		MaxPayloadBytes: s.config.MaxPayloadBytes,
	}))
	defer store.Close()

	for _, f := range in {
		// names are written verbatim, so they must not break the markup
		if f.Name == "" || strings.ContainsAny(f.Name, "\"<>&") {
			return builtDocument{}, http.StatusBadRequest, fmt.Errorf("invalid field name %q", f.Name)
		}
		payload, err := hex.DecodeString(f.PayloadHex)
		if err != nil {
			return builtDocument{}, http.StatusBadRequest, fmt.Errorf("field %q: invalid payload_hex", f.Name)
		}
		if err := store.Add(f.Name, f.SizeBits, payload, f.Modifier); err != nil {
			status := http.StatusBadRequest
			switch {
			case errors.Is(err, fields.ErrDuplicateName):
				status = http.StatusConflict
			case errors.Is(err, fields.ErrTooManyFields), errors.Is(err, column.ErrTooLarge):
				status = http.StatusRequestEntityTooLarge
			}
			return builtDocument{}, status, err
		}
	}

	return builtDocument{
		body:       []byte(document.Encode(store)),
		fieldCount: store.FieldCount(),
		totalBits:  store.TotalBitSize(),
		totalBytes: store.TotalByteSize(),
	}, http.StatusOK, nil
}

// buildCFList checks in and builds a <cFList> document in a bufSize buffer.
// A zero bufSize means the configured default.
func (s *Server) buildCFList(bufSize int, in []TokenInput) (builtDocument, int, error) {
	if bufSize == 0 {
		bufSize = s.config.BufferSize
	}
	if bufSize < 0 || bufSize > maxBufferSize {
		return builtDocument{}, http.StatusBadRequest, fmt.Errorf("buffer_size must be between 1 and %d", maxBufferSize)
	}
	for _, f := range in {
		if !cflist.ValidToken(f.Token) {
			return builtDocument{}, http.StatusBadRequest, fmt.Errorf("invalid token %q", f.Token)
		}
		if !cflist.FieldType(f.Type).Valid() {
			return builtDocument{}, http.StatusBadRequest, fmt.Errorf("token %q: unknown type %q", f.Token, f.Type)
		}
	}

	var doc []byte
	err := s.withCodec(func(c *cflist.Codec) error {
		b := c.NewBuilder(make([]byte, bufSize))
		b.Start()
		for _, f := range in {
			if err := b.AddValue(f.Token, cflist.FieldType(f.Type), f.Value); err != nil {
				return err
			}
		}
		b.End()
		doc = append([]byte(nil), b.Bytes()...)
		return nil
	})
	var capErr *cflist.CapacityError
	switch {
	case errors.As(err, &capErr):
		return builtDocument{}, http.StatusRequestEntityTooLarge, err
	case err != nil:
		return builtDocument{}, http.StatusBadRequest, err
	}
	return builtDocument{body: doc, fieldCount: len(in)}, http.StatusOK, nil
}

// handleCreateFieldsDocument godoc
//
//	@Summary		Create a whole-store document
//	@Description	Build a field store from the request, encode it as a <Fields> document and archive it
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		FieldsDocumentRequest	true	"Fields"
//	@Success		201		{object}	DocumentResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/documents/fields [post]
func (s *Server) handleCreateFieldsDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	fail := func(message string, status int) {
		s.metrics.RecordDocumentOperation("create_fields", false, time.Since(start))
		sendError(w, message, status)
	}

	var req FieldsDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail("Invalid JSON in request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		fail("Document name is required", http.StatusBadRequest)
		return
	}

	built, status, err := s.buildFields(req.Fields)
	if err != nil {
		fail(err.Error(), status)
		return
	}

	id, err := s.archive.Create(storage.KindFields, req.Name, built.body)
	if err != nil {
		fail(fmt.Sprintf("Failed to archive document: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordDocumentOperation("create_fields", true, time.Since(start))
	s.refreshArchiveGauge()

	s.log.WithFields(logrus.Fields{
		"id":     id.String(),
		"fields": built.fieldCount,
		"bits":   built.totalBits,
	}).Info("fields document created")

	sendCreated(w, DocumentResponse{
		ID:         id.String(),
		Kind:       storage.KindFields.String(),
		Name:       req.Name,
		Size:       len(built.body),
		CreatedAt:  id.Time(),
		FieldCount: built.fieldCount,
		TotalBits:  built.totalBits,
		TotalBytes: built.totalBytes,
	})
}

// handleCreateCFListDocument godoc
//
//	@Summary		Create a fixed-buffer document
//	@Description	Build a <cFList> document in a buffer of buffer_size bytes and archive it
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CFListDocumentRequest	true	"Token fields"
//	@Success		201		{object}	DocumentResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/documents/cflist [post]
func (s *Server) handleCreateCFListDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	fail := func(message string, status int) {
		s.metrics.RecordDocumentOperation("create_cflist", false, time.Since(start))
		sendError(w, message, status)
	}

	var req CFListDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail("Invalid JSON in request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		fail("Document name is required", http.StatusBadRequest)
		return
	}

	built, status, err := s.buildCFList(req.BufferSize, req.Fields)
	if err != nil {
		fail(err.Error(), status)
		return
	}

	id, err := s.archive.Create(storage.KindCFList, req.Name, built.body)
	if err != nil {
		fail(fmt.Sprintf("Failed to archive document: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordDocumentOperation("create_cflist", true, time.Since(start))
	s.refreshArchiveGauge()

	sendCreated(w, DocumentResponse{
		ID:         id.String(),
		Kind:       storage.KindCFList.String(),
		Name:       req.Name,
		Size:       len(built.body),
		CreatedAt:  id.Time(),
		FieldCount: built.fieldCount,
	})
}

// handleUpdateDocument godoc
//
//	@Summary		Replace a document
//	@Description	Rebuild an archived document from a request shaped like the one that created it. The body is a FieldsDocumentRequest for fields documents and a CFListDocumentRequest for cflist documents. Kind and name are kept; a name, when given, must match.
//	@Tags			documents
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Document id"
//	@Param			body	body		FieldsDocumentRequest	true	"Fields or token fields"
//	@Success		200		{object}	DocumentResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Failure		413		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/documents/{id} [put]
func (s *Server) handleUpdateDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	fail := func(message string, status int) {
		s.metrics.RecordDocumentOperation("update", false, time.Since(start))
		sendError(w, message, status)
	}

	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	rec, err := s.archive.Read(id)
	if err != nil {
		fail(readStatus(err))
		return
	}

	var (
		name   string
		built  builtDocument
		status int
	)
	switch rec.Kind {
	case storage.KindFields:
		var req FieldsDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail("Invalid JSON in request body", http.StatusBadRequest)
			return
		}
		name = req.Name
		built, status, err = s.buildFields(req.Fields)
	case storage.KindCFList:
		var req CFListDocumentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			fail("Invalid JSON in request body", http.StatusBadRequest)
			return
		}
		name = req.Name
		built, status, err = s.buildCFList(req.BufferSize, req.Fields)
	default:
		fail(fmt.Sprintf("Unknown document kind %s", rec.Kind), http.StatusInternalServerError)
		return
	}
	if name != "" && name != string(rec.Name) {
		fail("Document name cannot be changed", http.StatusBadRequest)
		return
	}
	if err != nil {
		fail(err.Error(), status)
		return
	}

	if err := s.archive.Update(id, built.body); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			fail("Document not found", http.StatusNotFound)
			return
		}
		fail(fmt.Sprintf("Failed to archive document: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordDocumentOperation("update", true, time.Since(start))

	s.log.WithFields(logrus.Fields{
		"id":     id.String(),
		"kind":   rec.Kind.String(),
		"fields": built.fieldCount,
	}).Info("document updated")

	sendSuccess(w, DocumentResponse{
		ID:         id.String(),
		Kind:       rec.Kind.String(),
		Name:       string(rec.Name),
		Size:       len(built.body),
		CreatedAt:  rec.Time(),
		FieldCount: built.fieldCount,
		TotalBits:  built.totalBits,
		TotalBytes: built.totalBytes,
	})
}

// handleListDocuments godoc
//
//	@Summary		List documents
//	@Description	List archived documents in id order
//	@Tags			documents
//	@Produce		json
//	@Param			limit	query		int		false	"Maximum number of documents (default 100)"
//	@Param			kind	query		string	false	"Only documents of this kind"	Enums(fields, cflist)
//	@Success		200		{array}		DocumentResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		500		{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/documents [get]
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			sendError(w, "Invalid limit parameter", http.StatusBadRequest)
			return
		}
		limit = n
	}

	var (
		entries []storage.Entry
		err     error
	)
	if v := r.URL.Query().Get("kind"); v != "" {
		kind, perr := storage.ParseKind(v)
		if perr != nil {
			sendError(w, "Invalid kind parameter", http.StatusBadRequest)
			return
		}
		entries, err = s.archive.ListKind(kind, limit)
	} else {
		entries, err = s.archive.List(limit)
	}
	if err != nil {
		s.metrics.RecordDocumentOperation("list", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to list documents: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordDocumentOperation("list", true, time.Since(start))

	docs := make([]DocumentResponse, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, DocumentResponse{
			ID:        e.ID.String(),
			Kind:      e.Kind.String(),
			Name:      e.Name,
			Size:      e.Size,
			CreatedAt: e.CreatedAt,
		})
	}
	sendSuccess(w, docs)
}

// handleGetDocument godoc
//
//	@Summary		Get a document
//	@Description	Return an archived document with its text
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	DocumentResponse
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/documents/{id} [get]
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}

	rec, err := s.archive.Read(id)
	if err != nil {
		s.metrics.RecordDocumentOperation("get", false, time.Since(start))
		msg, status := readStatus(err)
		sendError(w, msg, status)
		return
	}
	s.metrics.RecordDocumentOperation("get", true, time.Since(start))

	sendSuccess(w, DocumentResponse{
		ID:        id.String(),
		Kind:      rec.Kind.String(),
		Name:      string(rec.Name),
		Size:      len(rec.Body),
		CreatedAt: rec.Time(),
		Document:  string(rec.Body),
	})
}

// handleDeleteDocument godoc
//
//	@Summary		Delete a document
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/documents/{id} [delete]
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}

	if err := s.archive.Delete(id); err != nil {
		s.metrics.RecordDocumentOperation("delete", false, time.Since(start))
		if errors.Is(err, storage.ErrNotFound) {
			sendError(w, "Document not found", http.StatusNotFound)
			return
		}
		sendError(w, fmt.Sprintf("Failed to delete document: %v", err), http.StatusInternalServerError)
		return
	}
	s.metrics.RecordDocumentOperation("delete", true, time.Since(start))
	s.refreshArchiveGauge()

	sendSuccess(w, map[string]string{"message": "Document deleted successfully"})
}

// handleGetField godoc
//
//	@Summary		Extract one field
//	@Description	Locate a single field in an archived document without decoding the rest. Whole-store documents are searched by FieldName, fixed-buffer documents by token.
//	@Tags			documents
//	@Produce		json
//	@Param			id	path		string	true	"Document id"
//	@Param			key	path		string	true	"Field name or token"
//	@Success		200	{object}	FieldValueResponse
//	@Failure		400	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Failure		422	{object}	map[string]string
//	@Failure		500	{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/documents/{id}/fields/{key} [get]
func (s *Server) handleGetField(w http.ResponseWriter, r *http.Request) {
	id, ok := s.documentID(w, r)
	if !ok {
		return
	}
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		sendError(w, "Invalid field key", http.StatusBadRequest)
		return
	}

	rec, err := s.archive.Read(id)
	if err != nil {
		msg, status := readStatus(err)
		sendError(w, msg, status)
		return
	}
	kind := rec.Kind.String()

	var resp FieldValueResponse
	err = s.withCodec(func(c *cflist.Codec) error {
		switch rec.Kind {
		case storage.KindFields:
			payload, size, err := document.ExtractPayload(c, rec.Body, key)
			if err != nil {
				return err
			}
			resp = FieldValueResponse{
				Key:      key,
				Type:     string(cflist.TypeHexBinary),
				Value:    column.Hex(payload),
				SizeBits: size,
			}
		case storage.KindCFList:
			typ, value, err := c.Field(rec.Body, key)
			if err != nil {
				return err
			}
			if typ == cflist.TypeString {
				if value, err = c.Unescape(value); err != nil {
					return err
				}
			}
			resp = FieldValueResponse{Key: key, Type: string(typ), Value: value}
		default:
			return fmt.Errorf("%w: %s", storage.ErrUnknownKind, rec.Kind)
		}
		return nil
	})

	var (
		capErr *cflist.CapacityError
		synErr *markup.SyntaxError
	)
	switch {
	case err == nil:
		s.metrics.RecordExtraction(kind, extractFound)
		sendSuccess(w, resp)
	case errors.Is(err, cflist.ErrNotFound):
		s.metrics.RecordExtraction(kind, extractNotFound)
		sendError(w, fmt.Sprintf("Field %q not found", key), http.StatusNotFound)
	case errors.As(err, &capErr):
		s.metrics.RecordExtraction(kind, extractError)
		sendError(w, capErr.Error(), http.StatusInsufficientStorage)
	case errors.As(err, &synErr):
		s.metrics.RecordExtraction(kind, extractError)
		sendError(w, synErr.Error(), http.StatusUnprocessableEntity)
	default:
		s.metrics.RecordExtraction(kind, extractError)
		s.log.WithError(err).WithField("id", id.String()).Warn("field extraction failed")
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
	}
}

// handleDecode godoc
//
//	@Summary		Decode a whole-store document
//	@Description	Parse raw <Fields> text and summarize its fields. Decoding is all or nothing.
//	@Tags			documents
//	@Accept			plain
//	@Produce		json
//	@Param			body	body		string	true	"<Fields> document"
//	@Success		200		{object}	DecodeResponse
//	@Failure		413		{object}	map[string]string
//	@Failure		422		{object}	map[string]string
//	@Security		ApiKeyAuth
//	@Router			/decode [post]
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	text, err := io.ReadAll(r.Body)
	if err != nil {
		s.metrics.RecordDocumentOperation("decode", false, time.Since(start))
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			sendError(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	store, err := document.Decode(text, fields.WithLimits(fields.Limits{
		MaxFields:       s.config.MaxFields,
		MaxPayloadBytes: s.config.MaxPayloadBytes,
	}))
	if err != nil {
		s.metrics.RecordDocumentOperation("decode", false, time.Since(start))
		sendError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	defer store.Close()
	s.metrics.RecordDocumentOperation("decode", true, time.Since(start))

	resp := DecodeResponse{
		FieldCount: store.FieldCount(),
		TotalBits:  store.TotalBitSize(),
		TotalBytes: store.TotalByteSize(),
		Fields:     make([]FieldSummary, 0, store.FieldCount()),
	}
	for _, f := range store.Fields() {
		resp.Fields = append(resp.Fields, FieldSummary{
			Name:       f.Name,
			SizeBits:   f.SizeBits,
			Modifier:   f.Modifier,
			PayloadHex: column.Hex(f.Payload),
		})
	}
	sendSuccess(w, resp)
}
