package viewmodels

type BackupKindLink struct {
	Kind       string
	Label      string
	CreateHref string
}

type BackupIntegrationRow struct {
	ID              string
	Kind            string
	KindLabel       string
	Name            string
	Bucket          string
	BackupsToRetain int
	UpdatedAt       string
	EditHref        string
	DeleteAction    string
}

type BackupIntegrationsViewData struct {
	Layout LayoutData
	Kinds  []BackupKindLink
	Rows   []BackupIntegrationRow
}

// BackupFormField is one input of an integration form.
type BackupFormField struct {
	Name        string
	Label       string
	Type        string
	Value       string
	Checked     bool
	Disabled    bool
	Required    bool
	Error       string
	Helper      string
	Placeholder string
}

type BackupTestResult struct {
	Success bool
	Message string
}

type BackupFormData struct {
	Kind           string
	KindLabel      string
	ID             string
	CSRFToken      string
	Fields         []BackupFormField
	CanTest        bool
	CanSave        bool
	TestResult     *BackupTestResult
	SaveError      string
	ValidateAction string
	TestAction     string
	SaveAction     string
	CancelHref     string
}

type BackupFormViewData struct {
	Layout LayoutData
	Title  string
	Form   BackupFormData
}
