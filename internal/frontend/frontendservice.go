package frontend

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/jo-hoe/termreport/internal/attachments"
	"github.com/jo-hoe/termreport/internal/backend/database"
	"github.com/jo-hoe/termreport/internal/core"
	"github.com/jo-hoe/termreport/internal/grading"
	"github.com/jo-hoe/termreport/internal/rows"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName      = "index.html"
	SessionCookieName = "termreport_session"

	rowFieldPrefix = "subject-"
)

var (
	errIdentityTooLong = errors.New("identity field exceeds its maximum length")
	errUnreadableForm  = errors.New("failed to parse submitted form")
)

var slotLabels = map[attachments.Slot]string{
	attachments.SlotLogo:  "School Logo",
	attachments.SlotPhoto: "Student Photo",
}

type FrontendService struct {
	coreService *core.CoreService
	config      *core.ServiceConfig
	stylesheet  template.HTML
}

// pageData feeds the "app" template shared by the index page and reset.
type pageData struct {
	View        core.FormView
	Stylesheet  template.HTML
	Attachments []attachmentData
}

type attachmentData struct {
	Slot       attachments.Slot
	Label      string
	Attachment *attachments.Attachment
}

// identityForm holds the identity fields of a post for request validation.
type identityForm struct {
	SchoolName   string `validate:"max=200"`
	AcademicYear string `validate:"max=50"`
	AcademicTerm string `validate:"max=50"`
	StudentName  string `validate:"max=200"`
	StudentClass string `validate:"max=50"`
	IssueDate    string `validate:"max=10"`
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService: coreService,
		config:      config,
	}
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) error {
	renderer, err := newTemplate()
	if err != nil {
		return fmt.Errorf("failed to parse views: %w", err)
	}
	e.Renderer = renderer

	stylesheet, err := service.coreService.ReportStylesheet()
	if err != nil {
		return err
	}
	service.stylesheet = stylesheet

	e.GET("/", service.rootRedirectHandler) // Redirect root to index.html
	e.GET("/"+MainPageName, service.indexHandler)

	e.POST("/htmx/rows", service.htmxAddRowHandler)
	e.DELETE("/htmx/rows/:id", service.htmxRemoveRowHandler)

	e.POST("/htmx/attachments/:slot", service.htmxAttachHandler)
	e.DELETE("/htmx/attachments/:slot", service.htmxRemoveAttachmentHandler)
	e.GET(core.PreviewURLPrefix+":ref", service.previewHandler)

	e.POST("/htmx/report", service.htmxSubmitHandler)
	e.POST("/htmx/reset", service.htmxResetHandler)
	e.GET("/report/print", service.printHandler)

	e.GET("/health", service.healthHandler)

	// Favicon (SVG) route
	e.GET("/icon.svg", service.iconHandler)
	return nil
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	controller := service.session(ctx)
	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, MainPageName, service.pageData(controller.View()))
}

func (service *FrontendService) htmxAddRowHandler(ctx echo.Context) error {
	controller := service.session(ctx)
	snapshot, err := service.snapshot(ctx)
	if err != nil {
		return service.snapshotFailed(ctx, err)
	}

	row := controller.AddRow(snapshot)
	slog.Debug("row added", "row_id", row.ID)

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "rows", controller.Rows())
}

func (service *FrontendService) htmxRemoveRowHandler(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		slog.Warn("htmxRemoveRowHandler: invalid row id",
			"status", http.StatusBadRequest, "row_id", ctx.Param("id"))
		return service.message(ctx, http.StatusBadRequest, "Invalid row ID")
	}

	controller := service.session(ctx)
	snapshot, err := service.snapshot(ctx)
	if err != nil {
		return service.snapshotFailed(ctx, err)
	}

	if !controller.RemoveRow(id, snapshot) {
		slog.Debug("htmxRemoveRowHandler: row not present", "row_id", id)
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "rows", controller.Rows())
}

func (service *FrontendService) htmxAttachHandler(ctx echo.Context) error {
	slot, err := attachments.ParseSlot(ctx.Param("slot"))
	if err != nil {
		slog.Warn("htmxAttachHandler: unknown slot", "status", http.StatusBadRequest, "error", err)
		return service.message(ctx, http.StatusBadRequest, "Unknown image slot")
	}

	limit := service.config.MaxUploadBytes
	ctx.Request().Body = http.MaxBytesReader(ctx.Response(), ctx.Request().Body, limit+(1<<20))

	// Get uploaded file
	file, err := ctx.FormFile("image")
	if err != nil {
		slog.Error("htmxAttachHandler: failed to get uploaded file",
			"status", http.StatusBadRequest, "error", err)
		return service.message(ctx, http.StatusBadRequest, "Failed to get uploaded file")
	}
	if file.Size > limit {
		slog.Warn("htmxAttachHandler: uploaded file too large",
			"status", http.StatusBadRequest, "filename", file.Filename, "size", file.Size, "limit", limit)
		return service.message(ctx, http.StatusBadRequest, fmt.Sprintf("File is larger than %d bytes", limit))
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("htmxAttachHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return service.message(ctx, http.StatusInternalServerError, "Failed to open uploaded file")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("htmxAttachHandler: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()

	data, err := io.ReadAll(src)
	if err != nil {
		slog.Error("htmxAttachHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return service.message(ctx, http.StatusInternalServerError, "Failed to read uploaded file")
	}

	controller := service.session(ctx)
	attachment, err := controller.Attach(slot, file.Filename, data)
	if err != nil {
		slog.Warn("htmxAttachHandler: failed to attach image",
			"status", http.StatusBadRequest, "error", err, "slot", slot, "filename", file.Filename)
		return service.message(ctx, http.StatusBadRequest, "The file could not be read as an image")
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "attachment-response", attachmentData{
		Slot:       slot,
		Label:      slotLabels[slot],
		Attachment: attachment,
	})
}

func (service *FrontendService) htmxRemoveAttachmentHandler(ctx echo.Context) error {
	slot, err := attachments.ParseSlot(ctx.Param("slot"))
	if err != nil {
		slog.Warn("htmxRemoveAttachmentHandler: unknown slot", "status", http.StatusBadRequest, "error", err)
		return service.message(ctx, http.StatusBadRequest, "Unknown image slot")
	}

	controller := service.session(ctx)
	if err := controller.RemoveAttachment(slot); err != nil {
		slog.Error("htmxRemoveAttachmentHandler: failed to remove image",
			"status", http.StatusInternalServerError, "error", err, "slot", slot)
		return service.message(ctx, http.StatusInternalServerError, "Failed to remove image")
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "attachment-response", attachmentData{Slot: slot, Label: slotLabels[slot]})
}

func (service *FrontendService) previewHandler(ctx echo.Context) error {
	ref := ctx.Param("ref")
	preview, err := service.coreService.GetPreview(ref)
	if errors.Is(err, database.ErrPreviewNotFound) {
		return ctx.String(http.StatusNotFound, "Preview not available")
	}
	if err != nil {
		slog.Error("previewHandler: failed to load preview",
			"status", http.StatusInternalServerError, "ref", ref, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load preview")
	}

	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, preview.ContentType, preview.Data)
}

func (service *FrontendService) htmxSubmitHandler(ctx echo.Context) error {
	controller := service.session(ctx)
	snapshot, err := service.snapshot(ctx)
	if err != nil {
		return service.snapshotFailed(ctx, err)
	}

	_, html, err := controller.Submit(snapshot)
	var validationErr *grading.ValidationError
	if errors.As(err, &validationErr) {
		return service.message(ctx, http.StatusUnprocessableEntity, validationErr.Message)
	}
	if err != nil {
		slog.Error("htmxSubmitHandler: failed to generate report",
			"status", http.StatusInternalServerError, "error", err)
		return service.message(ctx, http.StatusInternalServerError, "Failed to generate report")
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "report-response", html)
}

func (service *FrontendService) htmxResetHandler(ctx echo.Context) error {
	controller := service.session(ctx)
	if err := controller.Reset(); err != nil {
		// the form is cleared even when a preview could not be released
		slog.Error("htmxResetHandler: failed to release previews", "error", err)
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, "app", service.pageData(controller.View()))
}

func (service *FrontendService) printHandler(ctx echo.Context) error {
	controller := service.session(ctx)
	page, err := controller.Print()
	if errors.Is(err, core.ErrNoReport) {
		return ctx.String(http.StatusNotFound, "No report has been generated yet")
	}
	if err != nil {
		slog.Error("printHandler: failed to render print view",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to render report")
	}

	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, string(page))
}

func (service *FrontendService) healthHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "ok")
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}

// session resolves the browser's form controller, issuing a cookie for new
// sessions.
func (service *FrontendService) session(ctx echo.Context) *core.FormController {
	var id string
	if cookie, err := ctx.Cookie(SessionCookieName); err == nil {
		id = cookie.Value
	}
	controller, sessionID := service.coreService.Session(id)
	if sessionID != id {
		ctx.SetCookie(&http.Cookie{
			Name:     SessionCookieName,
			Value:    sessionID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return controller
}

// snapshot reads the identity fields and subject rows posted with a request.
func (service *FrontendService) snapshot(ctx echo.Context) (core.FormSnapshot, error) {
	identity := identityForm{
		SchoolName:   ctx.FormValue("schoolName"),
		AcademicYear: ctx.FormValue("academicYear"),
		AcademicTerm: ctx.FormValue("academicTerm"),
		StudentName:  ctx.FormValue("studentName"),
		StudentClass: ctx.FormValue("studentClass"),
		IssueDate:    ctx.FormValue("issueDate"),
	}
	if err := ctx.Validate(&identity); err != nil {
		slog.Warn("snapshot: invalid identity fields", "error", err)
		return core.FormSnapshot{}, errIdentityTooLong
	}

	params, err := ctx.FormParams()
	if err != nil {
		slog.Warn("snapshot: failed to parse form", "error", err)
		return core.FormSnapshot{}, fmt.Errorf("%w: %w", errUnreadableForm, err)
	}

	return core.FormSnapshot{
		SchoolName:   identity.SchoolName,
		AcademicYear: identity.AcademicYear,
		AcademicTerm: identity.AcademicTerm,
		StudentName:  identity.StudentName,
		StudentClass: identity.StudentClass,
		IssueDate:    identity.IssueDate,
		Rows:         parseRows(params),
	}, nil
}

// parseRows collects subject-<id>-<field> values into rows keyed by id.
// Keys that do not follow the pattern are ignored.
func parseRows(params map[string][]string) map[int]rows.Row {
	result := make(map[int]rows.Row)
	for key, values := range params {
		rest, ok := strings.CutPrefix(key, rowFieldPrefix)
		if !ok || len(values) == 0 {
			continue
		}
		rawID, field, ok := strings.Cut(rest, "-")
		if !ok {
			continue
		}
		id, err := strconv.Atoi(rawID)
		if err != nil {
			continue
		}

		row := result[id]
		value := values[0]
		switch field {
		case "name":
			row.Name = value
		case "max":
			row.MaxMarks = value
		case "min":
			row.PassMarks = value
		case "obtained":
			row.Obtained = value
		default:
			continue
		}
		result[id] = row
	}
	return result
}

func (service *FrontendService) snapshotFailed(ctx echo.Context, err error) error {
	if errors.Is(err, errIdentityTooLong) {
		return service.message(ctx, http.StatusBadRequest, "One of the school or student fields is too long")
	}
	return service.message(ctx, http.StatusBadRequest, "The submitted form could not be read")
}

// message answers with the user-facing message fragment. The main swap is
// suppressed so the current page content remains.
func (service *FrontendService) message(ctx echo.Context, status int, text string) error {
	ctx.Response().Header().Set("HX-Reswap", "none")
	return ctx.Render(status, "message", text)
}

func (service *FrontendService) pageData(view core.FormView) pageData {
	data := pageData{View: view, Stylesheet: service.stylesheet}
	for _, slot := range attachments.Slots {
		entry := attachmentData{Slot: slot, Label: slotLabels[slot]}
		switch slot {
		case attachments.SlotLogo:
			entry.Attachment = view.Logo
		case attachments.SlotPhoto:
			entry.Attachment = view.Photo
		}
		data.Attachments = append(data.Attachments, entry)
	}
	return data
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}
