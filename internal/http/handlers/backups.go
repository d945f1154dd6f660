package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/vulnconsole/vulnconsole/internal/backups"
	"github.com/vulnconsole/vulnconsole/internal/http/viewmodels"
	"github.com/vulnconsole/vulnconsole/internal/http/views"
	"github.com/vulnconsole/vulnconsole/internal/vulns"
)

const (
	backupsPath         = "/integrations/backups"
	backupsUpdatedAtFmt = "2006-01-02 15:04 UTC"

	msgTestSucceeded = "Connection test succeeded. You can now save the integration."
	msgNotTested     = "Test the connection before saving."
)

var fieldInputTypes = map[string]string{
	backups.FieldBackupsToRetain: "number",
	backups.FieldSecretAccessKey: "password",
	backups.FieldUseIAM:          "checkbox",
	backups.FieldUseWorkloadID:   "checkbox",
	backups.FieldServiceAccount:  "textarea",
}

var fieldHelpers = map[string]string{
	backups.FieldBackupsToRetain: "Older backups are deleted once this many exist.",
	backups.FieldObjectPrefix:    "Optional. Backups are written under this prefix.",
	backups.FieldEndpoint:        "Optional. Leave blank to use the AWS endpoint of the region.",
	backups.FieldUseIAM:          "Authenticate with the IAM role of the container instead of access keys.",
	backups.FieldUseWorkloadID:   "Authenticate with the workload identity of the pod instead of a key.",
	backups.FieldServiceAccount:  "The JSON key of a service account with access to the bucket.",
}

// HandleBackupIntegrations lists the stored integrations.
func (h *Handlers) HandleBackupIntegrations(c *echo.Context) error {
	items, err := h.Backups.List(c.Request().Context())
	if err != nil {
		return h.RenderError(c, err)
	}

	data := viewmodels.BackupIntegrationsViewData{Layout: h.LayoutData(c, "Backup integrations")}
	for _, info := range backups.Kinds {
		data.Kinds = append(data.Kinds, viewmodels.BackupKindLink{
			Kind:       info.Kind,
			Label:      info.Label,
			CreateHref: backupsPath + "/" + info.Kind + "/create",
		})
	}
	for _, in := range items {
		data.Rows = append(data.Rows, viewmodels.BackupIntegrationRow{
			ID:              in.ID,
			Kind:            in.Kind,
			KindLabel:       backups.KindLabel(in.Kind),
			Name:            in.Config.Name,
			Bucket:          in.Config.Bucket,
			BackupsToRetain: in.Config.BackupsToRetain,
			UpdatedAt:       in.UpdatedAt.UTC().Format(backupsUpdatedAtFmt),
			EditHref:        backupsPath + "/" + in.Kind + "/edit/" + in.ID,
			DeleteAction:    backupsPath + "/" + in.ID + "/delete",
		})
	}
	return h.RenderComponent(c, views.BackupIntegrationsPage(data))
}

// HandleBackupCreate renders an empty form. Errors stay hidden until the
// user edits the form, while Test and Save start disabled.
func (h *Handlers) HandleBackupCreate(c *echo.Context) error {
	kind := backups.NormalizeKind(c.Param("kind"))
	if kind == "" {
		return RenderNotFound(c)
	}
	h.setTestedFingerprint(c, kind, "", "")

	form := backups.NewForm()
	state := backups.EvaluateForm(kind, form, nil, "")
	data := h.backupFormData(c, kind, "", form, nil, state, false)
	return h.RenderComponent(c, views.BackupFormPage(viewmodels.BackupFormViewData{
		Layout: h.LayoutData(c, "New "+backups.KindLabel(kind)+" integration"),
		Title:  "New " + backups.KindLabel(kind) + " integration",
		Form:   data,
	}))
}

// HandleBackupEdit renders the form of a stored integration.
func (h *Handlers) HandleBackupEdit(c *echo.Context) error {
	kind := backups.NormalizeKind(c.Param("kind"))
	if kind == "" {
		return RenderNotFound(c)
	}
	id := strings.TrimSpace(c.Param("id"))
	stored, err := h.Backups.Stored(c.Request().Context(), kind, id)
	if errors.Is(err, backups.ErrNotFound) || (err == nil && stored == nil) {
		return RenderNotFound(c)
	}
	if err != nil {
		return h.RenderError(c, err)
	}
	h.setTestedFingerprint(c, kind, id, "")

	form := backups.FormFromConfig(*stored)
	state := backups.EvaluateForm(kind, form, stored, "")
	data := h.backupFormData(c, kind, id, form, stored, state, true)
	return h.RenderComponent(c, views.BackupFormPage(viewmodels.BackupFormViewData{
		Layout: h.LayoutData(c, "Edit "+stored.Name),
		Title:  "Edit " + backups.KindLabel(kind) + " integration",
		Form:   data,
	}))
}

// HandleBackupValidate re-renders the posted form with its field errors.
func (h *Handlers) HandleBackupValidate(c *echo.Context) error {
	kind, id, form, stored, err := h.readBackupForm(c)
	if err != nil {
		return h.backupFormError(c, err)
	}
	state := backups.EvaluateForm(kind, form, stored, h.testedFingerprint(c, kind, id))
	return h.renderBackupForm(c, h.backupFormData(c, kind, id, form, stored, state, true))
}

// HandleBackupTest runs the connection test of the posted form. Success
// records the tested configuration so Save accepts exactly that config.
func (h *Handlers) HandleBackupTest(c *echo.Context) error {
	kind, id, form, stored, err := h.readBackupForm(c)
	if err != nil {
		return h.backupFormError(c, err)
	}

	fingerprint, testErr := h.Backups.Test(c.Request().Context(), kind, form, stored)
	h.setTestedFingerprint(c, kind, id, fingerprint)

	state := backups.EvaluateForm(kind, form, stored, fingerprint)
	data := h.backupFormData(c, kind, id, form, stored, state, true)

	var fieldErrs backups.FieldErrors
	switch {
	case testErr == nil:
		data.TestResult = &viewmodels.BackupTestResult{Success: true, Message: msgTestSucceeded}
	case errors.As(testErr, &fieldErrs):
	default:
		data.TestResult = &viewmodels.BackupTestResult{Message: "Connection test failed: " + vulns.ErrorMessage(testErr)}
	}
	return h.renderBackupForm(c, data)
}

// HandleBackupSave stores the posted form when it matches the last
// successfully tested configuration.
func (h *Handlers) HandleBackupSave(c *echo.Context) error {
	kind, id, form, stored, err := h.readBackupForm(c)
	if err != nil {
		return h.backupFormError(c, err)
	}

	fingerprint := h.testedFingerprint(c, kind, id)
	saved, err := h.Backups.Save(c.Request().Context(), kind, id, form, fingerprint)
	if err != nil {
		var fieldErrs backups.FieldErrors
		if !errors.As(err, &fieldErrs) && !errors.Is(err, backups.ErrNotTested) {
			return h.RenderError(c, err)
		}
		state := backups.EvaluateForm(kind, form, stored, fingerprint)
		data := h.backupFormData(c, kind, id, form, stored, state, true)
		if errors.Is(err, backups.ErrNotTested) {
			data.SaveError = msgNotTested
		}
		return h.renderBackupForm(c, data)
	}

	h.setTestedFingerprint(c, kind, id, "")
	setFlashToast(c, "success", "Integration saved", saved.Config.Name)
	return redirect(c, backupsPath)
}

// HandleBackupDelete removes an integration.
func (h *Handlers) HandleBackupDelete(c *echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	err := h.Backups.Delete(c.Request().Context(), id)
	if errors.Is(err, backups.ErrNotFound) {
		return RenderNotFound(c)
	}
	if err != nil {
		return h.RenderError(c, err)
	}
	setFlashToast(c, "success", "Integration deleted", "")
	return redirect(c, backupsPath)
}

// readBackupForm reads the kind from the path and the form, with the
// stored config it edits when an id is posted.
func (h *Handlers) readBackupForm(c *echo.Context) (string, string, backups.Form, *backups.Config, error) {
	kind := backups.NormalizeKind(c.Param("kind"))
	if kind == "" {
		return "", "", backups.Form{}, nil, backups.ErrUnknownKind
	}
	req := c.Request()
	if err := req.ParseForm(); err != nil {
		return "", "", backups.Form{}, nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form")
	}
	id := strings.TrimSpace(req.PostForm.Get("id"))
	stored, err := h.Backups.Stored(req.Context(), kind, id)
	if err != nil {
		return "", "", backups.Form{}, nil, err
	}
	return kind, id, backups.FormFromValues(req.PostForm), stored, nil
}

// renderBackupForm answers htmx with the form alone and a plain form post
// with the whole page.
func (h *Handlers) renderBackupForm(c *echo.Context, data viewmodels.BackupFormData) error {
	addVary(c, "HX-Request")
	if isHX(c) {
		return h.RenderComponent(c, views.BackupForm(data))
	}
	title := "New " + data.KindLabel + " integration"
	if data.ID != "" {
		title = "Edit " + data.KindLabel + " integration"
	}
	return h.RenderComponent(c, views.BackupFormPage(viewmodels.BackupFormViewData{
		Layout: h.LayoutData(c, title),
		Title:  title,
		Form:   data,
	}))
}

func (h *Handlers) backupFormError(c *echo.Context, err error) error {
	var httpErr *echo.HTTPError
	switch {
	case errors.Is(err, backups.ErrUnknownKind), errors.Is(err, backups.ErrNotFound):
		return RenderNotFound(c)
	case errors.As(err, &httpErr):
		return c.String(httpErr.Code, http.StatusText(httpErr.Code))
	default:
		return h.RenderError(c, err)
	}
}

func (h *Handlers) backupFormData(c *echo.Context, kind, id string, form backups.Form, stored *backups.Config, state backups.FormState, showErrors bool) viewmodels.BackupFormData {
	csrfToken, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	base := backupsPath + "/" + kind
	data := viewmodels.BackupFormData{
		Kind:           kind,
		KindLabel:      backups.KindLabel(kind),
		ID:             id,
		CSRFToken:      csrfToken,
		CanTest:        state.CanTest,
		CanSave:        state.CanSave,
		ValidateAction: base + "/validate",
		TestAction:     base + "/test",
		SaveAction:     base + "/save",
		CancelHref:     backupsPath,
	}
	for _, name := range backups.Fields(kind) {
		field := viewmodels.BackupFormField{
			Name:     name,
			Label:    backups.FieldLabel(name),
			Type:     fieldInputType(name),
			Value:    form.Value(name),
			Checked:  form.Checked(name),
			Disabled: form.Disabled(name),
			Required: fieldRequired(kind, name, stored),
			Helper:   fieldHelpers[name],
		}
		if stored != nil && stored.HasStoredSecret(name) {
			field.Placeholder = storedSecretPlaceholder(name, *stored)
		}
		if showErrors {
			field.Error = state.Errors[name]
		}
		data.Fields = append(data.Fields, field)
	}
	return data
}

func fieldInputType(name string) string {
	if t, ok := fieldInputTypes[name]; ok {
		return t
	}
	return "text"
}

func fieldRequired(kind, name string, stored *backups.Config) bool {
	switch name {
	case backups.FieldName, backups.FieldBackupsToRetain, backups.FieldBucket:
		return true
	case backups.FieldRegion:
		return kind == backups.KindS3
	case backups.FieldAccessKeyID, backups.FieldSecretAccessKey, backups.FieldServiceAccount:
		return stored == nil || !stored.HasStoredSecret(name)
	default:
		return false
	}
}

func storedSecretPlaceholder(name string, stored backups.Config) string {
	masked := stored.Masked()
	switch name {
	case backups.FieldSecretAccessKey:
		return masked.SecretAccessKey + " (leave blank to keep)"
	case backups.FieldServiceAccount:
		return "Stored key (leave blank to keep)"
	default:
		return ""
	}
}
