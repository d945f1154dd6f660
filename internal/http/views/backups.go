package views

import (
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/vulnconsole/vulnconsole/internal/http/viewmodels"
)

// BackupFormID is the id of the integration form, swapped whole on
// validate, test and failed save.
const BackupFormID = "backup-integration-form"

const validateTrigger = "input changed delay:300ms, change"

// BackupIntegrationsPage lists the stored backup integrations.
func BackupIntegrationsPage(data viewmodels.BackupIntegrationsViewData) templ.Component {
	return Layout(data.Layout, component(func(m *markup) {
		m.open("header", "class", "page-header")
		m.elem("h1", "Backup integrations")
		m.open("div", "class", "actions")
		for _, kind := range data.Kinds {
			m.elem("a", "New "+kind.Label+" integration", "href", kind.CreateHref, "class", "button")
		}
		m.close("div")
		m.close("header")

		if len(data.Rows) == 0 {
			m.open("div", "class", "empty-state")
			m.elem("p", "No backup integrations configured")
			m.close("div")
			return
		}

		m.open("table", "class", "table")
		m.open("thead")
		m.open("tr")
		for _, col := range []string{"Name", "Type", "Bucket", "Backups to retain", "Last updated", ""} {
			m.elem("th", col, "scope", "col")
		}
		m.close("tr")
		m.close("thead")
		m.open("tbody")
		for _, row := range data.Rows {
			m.open("tr")
			m.open("td")
			m.elem("a", row.Name, "href", row.EditHref)
			m.close("td")
			m.elem("td", row.KindLabel)
			m.elem("td", row.Bucket)
			m.elem("td", strconv.Itoa(row.BackupsToRetain))
			m.elem("td", row.UpdatedAt)
			m.open("td")
			m.open("form", "method", "post", "action", row.DeleteAction,
				"hx-confirm", "Delete integration "+row.Name+"?")
			m.open("input", "type", "hidden", "name", "csrf", "value", data.Layout.CSRFToken)
			m.elem("button", "Delete", "type", "submit", "class", "button-danger")
			m.close("form")
			m.close("td")
			m.close("tr")
		}
		m.close("tbody")
		m.close("table")
	}))
}

// BackupFormPage is the create or edit page of an integration.
func BackupFormPage(data viewmodels.BackupFormViewData) templ.Component {
	return Layout(data.Layout, component(func(m *markup) {
		m.open("header", "class", "page-header")
		m.elem("h1", data.Title)
		m.close("header")
		m.render(BackupForm(data.Form))
	}))
}

// BackupForm is the integration form. Inputs revalidate the form as the
// user types; Test and Save post the same values to their own actions.
func BackupForm(data viewmodels.BackupFormData) templ.Component {
	return component(func(m *markup) {
		m.open("form", "id", BackupFormID, "class", "backup-form", "method", "post", "action", data.SaveAction,
			"hx-post", data.ValidateAction,
			"hx-trigger", validateTrigger,
			"hx-target", "this",
			"hx-swap", "outerHTML",
			"novalidate", "",
		)
		m.open("input", "type", "hidden", "name", "csrf", "value", data.CSRFToken)
		if data.ID != "" {
			m.open("input", "type", "hidden", "name", "id", "value", data.ID)
		}

		for _, field := range data.Fields {
			m.render(backupFormField(field))
		}

		if data.TestResult != nil {
			class := "alert alert-danger"
			if data.TestResult.Success {
				class = "alert alert-success"
			}
			m.elem("div", data.TestResult.Message, "class", class, "role", "status")
		}
		if data.SaveError != "" {
			m.elem("div", data.SaveError, "class", "alert alert-danger", "role", "alert")
		}

		m.open("div", "class", "form-actions")
		m.raw("<button")
		m.attr("type", "submit")
		m.attr("formaction", data.SaveAction)
		m.attr("hx-post", data.SaveAction)
		m.attr("hx-target", "#"+BackupFormID)
		m.attr("hx-swap", "outerHTML")
		m.flag("disabled", !data.CanSave)
		m.raw(">Save</button>")

		m.raw("<button")
		m.attr("type", "submit")
		m.attr("formaction", data.TestAction)
		m.attr("hx-post", data.TestAction)
		m.attr("hx-target", "#"+BackupFormID)
		m.attr("hx-swap", "outerHTML")
		m.attr("hx-disabled-elt", "this")
		m.flag("disabled", !data.CanTest)
		m.raw(">Test</button>")

		m.elem("a", "Cancel", "href", data.CancelHref, "class", "button-link")
		m.close("div")
		m.close("form")
	})
}

func backupFormField(field viewmodels.BackupFormField) templ.Component {
	return component(func(m *markup) {
		inputID := "backup-" + field.Name
		helperID := inputID + "-helper"
		errorID := inputID + "-error"

		class := "form-group"
		if field.Error != "" {
			class = classes(class, "has-error")
		}
		m.open("div", "class", class)

		var described []string
		if field.Helper != "" {
			described = append(described, helperID)
		}
		if field.Error != "" {
			described = append(described, errorID)
		}

		if field.Type == "checkbox" {
			m.open("label", "for", inputID)
			m.raw("<input")
			m.attr("id", inputID)
			m.attr("name", field.Name)
			m.attr("type", "checkbox")
			m.attr("value", "true")
			m.flag("checked", field.Checked)
			m.raw(">")
			m.text(field.Label)
			m.close("label")
		} else {
			m.open("label", "for", inputID)
			m.text(field.Label)
			if field.Required {
				m.raw(` <span class="required" aria-hidden="true">*</span>`)
			}
			m.close("label")

			tag := "input"
			if field.Type == "textarea" {
				tag = "textarea"
			}
			m.raw("<", tag)
			m.attr("id", inputID)
			m.attr("name", field.Name)
			if tag == "input" {
				m.attr("type", field.Type)
				m.attr("value", field.Value)
			}
			if field.Placeholder != "" {
				m.attr("placeholder", field.Placeholder)
			}
			if len(described) > 0 {
				m.attr("aria-describedby", strings.Join(described, " "))
			}
			if field.Error != "" {
				m.attr("aria-invalid", "true")
			}
			m.flag("disabled", field.Disabled)
			m.raw(">")
			if tag == "textarea" {
				m.text(field.Value)
				m.close("textarea")
			}
		}

		if field.Helper != "" {
			m.elem("p", field.Helper, "id", helperID, "class", "helper-text")
		}
		if field.Error != "" {
			m.elem("p", field.Error, "id", errorID, "class", "field-error")
		}
		m.close("div")
	})
}
