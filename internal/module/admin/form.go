package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mahabub-bd/purepac-admin/internal/backend"
	"github.com/mahabub-bd/purepac-admin/internal/domain"
	"github.com/mahabub-bd/purepac-admin/internal/middleware"
	"github.com/mahabub-bd/purepac-admin/internal/resource"
	"github.com/mahabub-bd/purepac-admin/internal/validation"
)

// formOverhead is the body allowance for the non-file part of a form.
const formOverhead = 1 << 20

// formView is everything the form template renders.
type formView struct {
	Def       resource.Definition
	Creating  bool
	ID        string
	Action    string
	Return    string
	Multipart bool
	Fields    []fieldView
	FormError string
}

type fieldView struct {
	resource.Field
	Value   string
	Checked bool
	Error   string
	Options []resource.Option
}

// NewPage renders the create form.
// GET /:resource/new
func (h *Handler) NewPage(def resource.Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := h.formView(c.Request.Context(), def, "", resource.Values{}, nil, returnURL(def, c.Query("return")))
		c.HTML(http.StatusOK, "admin/form.html", h.page(c, def.Key, "New "+def.Singular, gin.H{"Form": view}))
	}
}

// EditPage renders the edit form prefilled from the backend record.
// GET /:resource/:id/edit
func (h *Handler) EditPage(def resource.Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param("id"))
		rec, err := h.backend.Get(c.Request.Context(), def.Endpoint, id)
		if err != nil {
			h.renderError(c, err)
			return
		}
		view := h.formView(c.Request.Context(), def, id, def.FormValues(rec), nil, returnURL(def, c.Query("return")))
		c.HTML(http.StatusOK, "admin/form.html", h.page(c, def.Key, "Edit "+def.Singular, gin.H{"Form": view}))
	}
}

// Create validates the submitted form and creates the record.
// POST /:resource
func (h *Handler) Create(def resource.Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.submit(c, def, "")
	}
}

// Update validates the submitted form and patches the record.
// PATCH /:resource/:id
func (h *Handler) Update(def resource.Definition) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.submit(c, def, strings.TrimSpace(c.Param("id")))
	}
}

// submit runs validation, uploads and the write for create (id empty) and
// update. Any failure re-renders the form with the submitted values.
func (h *Handler) submit(c *gin.Context, def resource.Definition, id string) {
	ctx := c.Request.Context()
	creating := id == ""

	files, err := h.parseForm(c, def)
	if err != nil {
		msg := "The form could not be read. Please try again."
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			msg = "The upload is too large."
		}
		h.logger.DebugContext(ctx, "form parse failed", slog.String("resource", def.Key), slog.Any("error", err))
		view := h.formView(ctx, def, id, resource.Values{}, nil, returnURL(def, ""))
		view.FormError = msg
		h.renderForm(c, view)
		return
	}

	values := resource.ValuesFrom(c.Request.PostForm)
	back := returnURL(def, c.Request.PostForm.Get("return"))

	errs := validation.FieldErrors{}
	uploads := make(map[string]bool, len(files))
	for name, fh := range files {
		if fh.Size > h.cfg.MaxUploadBytes {
			errs.Add(name, fmt.Sprintf("The file must be at most %s.", byteSize(h.cfg.MaxUploadBytes)))
			continue
		}
		uploads[name] = true
	}
	for field, msg := range def.Validate(h.validator, values, uploads, creating) {
		errs.Add(field, msg)
	}
	if errs.Any() {
		h.renderForm(c, h.formView(ctx, def, id, values, errs, back))
		return
	}

	payload := def.Payload(values, creating)
	for _, f := range def.FormFields(creating) {
		fh, ok := files[f.Name]
		if f.Type != resource.FieldFile || !ok || !uploads[f.Name] {
			continue
		}
		attachmentID, err := h.upload(ctx, def, fh)
		if err != nil {
			view := h.formView(ctx, def, id, values, nil, back)
			view.FormError = domain.DisplayMessage(err, "Could not upload the file. Please try again.")
			h.renderForm(c, view)
			return
		}
		payload[f.ForeignKey] = attachmentValue(attachmentID)
	}

	verb, action, done := "Updated", domain.ActionUpdate, "updated"
	if creating {
		verb, action, done = "Created", domain.ActionCreate, "created"
	}

	rec, saveErr := h.save(ctx, def, id, payload)
	if saveErr != nil {
		h.logger.WarnContext(ctx, "save failed",
			slog.String("resource", def.Key),
			slog.String("action", action),
			slog.Any("error", saveErr),
		)
		view := h.formView(ctx, def, id, values, nil, back)
		view.FormError = domain.DisplayMessage(saveErr, "Could not save the "+def.Singular+". Please try again.")
		h.renderForm(c, view)
		return
	}

	recordID := id
	if rid := rec.ID(); rid != "" {
		recordID = rid
	}
	h.record(ctx, def, action, recordID, summary(verb, def, recordID, recordLabel(values, rec)))

	middleware.SetToast(c, capitalize(def.Singular)+" "+done+".", middleware.ToastSuccess)
	if !middleware.IsHTMX(c) {
		c.Redirect(http.StatusSeeOther, back)
		return
	}
	c.Header("HX-Redirect", back)
	c.Status(http.StatusOK)
}

func (h *Handler) save(ctx context.Context, def resource.Definition, id string, payload map[string]any) (backend.Record, error) {
	if id == "" {
		return h.backend.Create(ctx, def.Endpoint, payload)
	}
	return h.backend.Update(ctx, def.Endpoint, id, payload)
}

// parseForm reads the request body within the upload limit and returns the
// submitted file of every file field.
func (h *Handler) parseForm(c *gin.Context, def resource.Definition) (map[string]*multipart.FileHeader, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.formLimit(def))

	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return nil, c.Request.ParseForm()
	}
	if err := c.Request.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		return nil, err
	}

	files := map[string]*multipart.FileHeader{}
	for _, f := range def.Fields {
		if f.Type != resource.FieldFile {
			continue
		}
		if fhs := c.Request.MultipartForm.File[f.Name]; len(fhs) > 0 && fhs[0].Size > 0 {
			files[f.Name] = fhs[0]
		}
	}
	return files, nil
}

// formLimit is the largest body a form of def may send: the field overhead
// plus one upload allowance per file field.
func (h *Handler) formLimit(def resource.Definition) int64 {
	limit := int64(formOverhead)
	for _, f := range def.Fields {
		if f.Type == resource.FieldFile {
			limit += h.cfg.MaxUploadBytes + formOverhead
		}
	}
	return limit
}

// BodyLimit sizes the body cap of a console mutation from the definition its
// path names. Paths outside any definition get the plain form allowance.
func (h *Handler) BodyLimit(c *gin.Context) int64 {
	key, _, _ := strings.Cut(strings.TrimPrefix(c.Request.URL.Path, "/"), "/")
	if def, ok := h.lookup(key); ok {
		return h.formLimit(def)
	}
	return formOverhead
}

// upload sends one file to the attachment endpoint and returns its id.
func (h *Handler) upload(ctx context.Context, def resource.Definition, fh *multipart.FileHeader) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", domain.NewAppError(domain.CodeInternal, "open upload", err)
	}
	defer file.Close()

	id, err := h.backend.Upload(ctx, fh.Filename, file)
	if err != nil {
		return "", err
	}
	h.record(ctx, def, domain.ActionUpload, id, "Uploaded "+fh.Filename+" for "+def.Singular)
	return id, nil
}

func (h *Handler) renderForm(c *gin.Context, view formView) {
	if middleware.IsHTMX(c) {
		c.HTML(http.StatusOK, "admin/form_fragment.html", gin.H{"Form": view, "CSRFToken": middleware.GetCSRFToken(c)})
		return
	}
	title := "Edit " + view.Def.Singular
	if view.Creating {
		title = "New " + view.Def.Singular
	}
	c.HTML(http.StatusOK, "admin/form.html", h.page(c, view.Def.Key, title, gin.H{"Form": view}))
}

func (h *Handler) formView(ctx context.Context, def resource.Definition, id string, values resource.Values, errs validation.FieldErrors, back string) formView {
	creating := id == ""
	fields := def.FormFields(creating)

	var refs []resource.Reference
	for _, f := range fields {
		if f.Reference != nil {
			refs = append(refs, *f.Reference)
		}
	}
	options := h.loadOptions(ctx, refs)

	view := formView{
		Def:       def,
		Creating:  creating,
		ID:        id,
		Action:    "/" + def.Key,
		Return:    back,
		Multipart: def.HasUploads(),
		FormError: errs[validation.FormError],
	}
	if !creating {
		view.Action += "/" + url.PathEscape(id)
	}
	for _, f := range fields {
		fv := fieldView{Field: f, Value: values[f.Name], Error: errs[f.Name], Options: f.Options}
		if f.Reference != nil {
			fv.Options = options[*f.Reference]
		}
		if f.Type == resource.FieldCheckbox {
			fv.Checked = fv.Value != "" && fv.Value != "false" && fv.Value != "0"
		}
		if f.Type == resource.FieldPassword {
			fv.Value = ""
		}
		view.Fields = append(view.Fields, fv)
	}
	return view
}

// returnURL keeps raw when it points back into the resource's list, so the
// user lands on the list state they came from. Anything else becomes the list.
func returnURL(def resource.Definition, raw string) string {
	base := "/" + def.Key
	if raw == "" || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return base
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Path != base {
		return base
	}
	return u.RequestURI()
}

// attachmentValue sends numeric attachment ids as numbers.
func attachmentValue(id string) any {
	if n, err := strconv.ParseInt(id, 10, 64); err == nil {
		return n
	}
	return id
}

func byteSize(n int64) string {
	const mb = 1 << 20
	if n >= mb && n%mb == 0 {
		return strconv.FormatInt(n/mb, 10) + " MB"
	}
	if n >= 1<<10 && n%(1<<10) == 0 {
		return strconv.FormatInt(n>>10, 10) + " KB"
	}
	return strconv.FormatInt(n, 10) + " bytes"
}
