package file

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/stowage/service/internal/response"
	"github.com/stowage/service/internal/storage"
)

// multipartMemory is how much of a multipart body is kept in memory; the
// rest spills to temporary files.
const multipartMemory = 32 << 20

const streamCacheControl = "public, max-age=1800, must-revalidate"

// Limits bounds upload sizes in bytes. Zero disables a limit.
type Limits struct {
	File    int64 // each uploaded file
	Request int64 // the whole multipart body
}

// Handler holds HTTP handlers for file endpoints.
type Handler struct {
	svc    *Service
	limits Limits
	logger *slog.Logger
}

// NewHandler creates a new file Handler.
func NewHandler(svc *Service, limits Limits, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, limits: limits, logger: logger}
}

// RegisterRoutes mounts the file endpoints under /files. requireAuth guards
// upload, list and delete; readAuth guards streaming. Either may be nil.
func (h *Handler) RegisterRoutes(r chi.Router, requireAuth, readAuth func(http.Handler) http.Handler) {
	r.Route("/files", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			if requireAuth != nil {
				r.Use(requireAuth)
			}
			r.Post("/upload", h.Upload)
			r.Get("/", h.List)
			r.Delete("/delete/{id}", h.Delete)
		})
		r.Group(func(r chi.Router) {
			if readAuth != nil {
				r.Use(readAuth)
			}
			r.Get("/*", h.Stream)
		})
	})
}

// Upload godoc
//
//	@Summary		Upload files
//	@Description	Uploads one or more files (field 'files') into an optional virtual directory (field 'path').
//	@Tags			files
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			files	formData	file	true	"Files to upload"
//	@Param			path	formData	string	false	"Virtual directory, e.g. photos/2024"
//	@Success		200		{object}	response.Envelope{data=[]Record}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		413		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/files/upload [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.limits.Request > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.limits.Request)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.RequestTooLarge(w, fmt.Sprintf("request body exceeds the limit of %d bytes", tooLarge.Limit))
			return
		}
		response.BadRequest(w, "expected multipart/form-data body")
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		response.BadRequest(w, "at least one file is required in field \"files\"")
		return
	}

	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		if h.limits.File > 0 && fh.Size > h.limits.File {
			response.RequestTooLarge(w, fmt.Sprintf("file %q exceeds the size limit of %d bytes", fh.Filename, h.limits.File))
			return
		}
		data, err := readPart(fh)
		if err != nil {
			h.logger.Error("read multipart file", slog.String("file", fh.Filename), slog.String("error", err.Error()))
			response.BadRequest(w, "could not read uploaded file")
			return
		}
		uploads = append(uploads, Upload{Name: fh.Filename, Data: data})
	}

	records, err := h.svc.UploadFiles(r.Context(), uploads, r.FormValue("path"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, records)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// List godoc
//
//	@Summary		List files
//	@Description	Lists file records. Results are cached per query for 30 minutes; pass revalidate=true to refresh.
//	@Tags			files
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id				query		string	false	"File id (UUID)"
//	@Param			name			query		string	false	"Name prefix, case-insensitive"
//	@Param			path			query		string	false	"Virtual directory"
//	@Param			mimetype		query		string	false	"Exact mimetype"
//	@Param			store			query		string	false	"Store type"
//	@Param			sizeFrom		query		int		false	"Minimum size in bytes (inclusive)"
//	@Param			sizeTo			query		int		false	"Maximum size in bytes (inclusive)"
//	@Param			createdAtFrom	query		string	false	"RFC 3339 lower bound (inclusive)"
//	@Param			createdAtTo		query		string	false	"RFC 3339 upper bound (inclusive)"
//	@Param			skip			query		int		false	"Offset"
//	@Param			take			query		int		false	"Limit"
//	@Param			order			query		string	false	"asc or desc by creation time"
//	@Param			revalidate		query		bool	false	"Bypass the cached result"
//	@Success		200				{object}	response.Envelope{data=[]Record}
//	@Failure		400				{object}	response.Envelope
//	@Failure		401				{object}	response.Envelope
//	@Failure		403				{object}	response.Envelope
//	@Failure		500				{object}	response.Envelope
//	@Router			/files [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := ParseListQuery(r.URL.Query())
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}

	records, err := h.svc.ListFiles(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, records)
}

// Delete godoc
//
//	@Summary		Delete file
//	@Description	Deletes the file record and its stored bytes together.
//	@Tags			files
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			id	path		string	true	"File id (UUID)"
//	@Success		200	{object}	response.Envelope{data=Record}
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/files/delete/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.DeleteFile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, rec)
}

// Stream godoc
//
//	@Summary		Stream file
//	@Description	Streams file bytes addressed by {path}/{name}. Query parameters are passed to the store as transforms.
//	@Tags			files
//	@Produce		octet-stream
//	@Param			filepath	path		string	true	"Virtual directory and name"
//	@Success		200			{file}		binary
//	@Failure		404			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/files/{filepath} [get]
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	dir, name, err := splitFilePath(r)
	if err != nil || name == "" {
		response.NotFound(w, "file not found")
		return
	}

	info, err := h.svc.GetFileInfo(r.Context(), name, dir)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	rc, err := h.svc.StreamFile(r.Context(), info.ID, r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer rc.Close()

	// Spool to disk so the length and etag are known before the first byte is sent.
	tmp, err := os.CreateTemp("", "stream-*")
	if err != nil {
		h.writeError(w, r, fmt.Errorf("create spool file: %w", err))
		return
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	sum := md5.New()
	if _, err := io.Copy(io.MultiWriter(tmp, sum), rc); err != nil {
		h.writeError(w, r, fmt.Errorf("spool %s: %w", info.ID, err))
		return
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		h.writeError(w, r, fmt.Errorf("rewind spool file: %w", err))
		return
	}

	w.Header().Set("Content-Type", info.MimeType)
	w.Header().Set("Cache-Control", streamCacheControl)
	w.Header().Set("ETag", `"`+hex.EncodeToString(sum.Sum(nil))+`"`)
	http.ServeContent(w, r, info.Name, info.CreatedAt, tmp)
}

// splitFilePath returns the decoded virtual directory and name from the
// wildcard part of the route.
func splitFilePath(r *http.Request) (dir, name string, err error) {
	p := chi.URLParam(r, "*")
	// chi routes on RawPath when it is set, leaving the parameter escaped.
	if r.URL.RawPath != "" {
		if p, err = url.PathUnescape(p); err != nil {
			return "", "", err
		}
	}
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[:i], p[i+1:], nil
	}
	return "", p, nil
}

// writeError maps service errors to HTTP responses. Unclassified errors are
// logged with full detail and reported as a generic 500.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidPath), errors.Is(err, ErrInvalidID), errors.Is(err, ErrInvalidQuery):
		response.BadRequest(w, rootMessage(err))
	case errors.Is(err, ErrNotFound), errors.Is(err, storage.ErrNotFound):
		response.NotFound(w, "file not found")
	case errors.Is(err, ErrConflict):
		response.Conflict(w, "could not assign a unique file name, retry the upload")
	case errors.Is(err, storage.ErrUnavailable):
		response.ServiceUnavailable(w, "storage unavailable")
	default:
		h.logger.Error("request failed",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		response.InternalError(w)
	}
}

// rootMessage drops the "upload \"x\": " style prefixes added while wrapping.
func rootMessage(err error) string {
	for _, sentinel := range []error{ErrInvalidPath, ErrInvalidID, ErrInvalidQuery} {
		if errors.Is(err, sentinel) {
			msg := err.Error()
			if i := strings.Index(msg, sentinel.Error()); i >= 0 {
				return msg[i:]
			}
			return sentinel.Error()
		}
	}
	return err.Error()
}
